package daemon

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/webtally/webtally/internal/events"
	"github.com/webtally/webtally/internal/storage"
	"github.com/webtally/webtally/internal/tracker"
)

// Server exposes the tracking engine over a local HTTP API. The browser
// extension posts lifecycle events to it; the CLI and the pill overlay
// read session state and stats back out.
type Server struct {
	store   *storage.Store
	tracker *tracker.Tracker
	orch    *events.Orchestrator
	tabs    *TabRegistry
	logger  *log.Logger
	router  *mux.Router
}

func NewServer(store *storage.Store, tr *tracker.Tracker, logger *log.Logger) *Server {
	tabs := NewTabRegistry()
	s := &Server{
		store:   store,
		tracker: tr,
		orch:    events.NewOrchestrator(tr, store, tabs, logger),
		tabs:    tabs,
		logger:  logger,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(loggingMiddleware(s.logger))

	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/events/tab-activated", s.handleTabActivated).Methods("POST")
	api.HandleFunc("/events/tab-updated", s.handleTabUpdated).Methods("POST")
	api.HandleFunc("/events/window-focus", s.handleWindowFocus).Methods("POST")
	api.HandleFunc("/events/navigation", s.handleNavigation).Methods("POST")
	api.HandleFunc("/events/tab-removed", s.handleTabRemoved).Methods("POST")

	api.HandleFunc("/session", s.handleSession).Methods("GET")
	api.HandleFunc("/session/live", s.handleSessionLive).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/domains/{domain}", s.handleDomain).Methods("GET")
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handlePatchSettings).Methods("PATCH")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTabActivated(w http.ResponseWriter, r *http.Request) {
	var ev events.TabActivated
	if !decodeBody(w, r, &ev) {
		return
	}
	s.orch.HandleTabActivated(r.Context(), ev)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleTabUpdated(w http.ResponseWriter, r *http.Request) {
	var ev events.TabUpdated
	if !decodeBody(w, r, &ev) {
		return
	}
	s.tabs.Update(ev.TabID, ev.URL, ev.WindowID)
	s.orch.HandleTabUpdated(r.Context(), ev)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleWindowFocus(w http.ResponseWriter, r *http.Request) {
	var ev events.WindowFocusChanged
	if !decodeBody(w, r, &ev) {
		return
	}
	s.orch.HandleWindowFocusChanged(r.Context(), ev)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	var ev events.NavigationCompleted
	if !decodeBody(w, r, &ev) {
		return
	}
	if ev.FrameID == 0 {
		if tab, ok := s.tabs.TabInfo(r.Context(), ev.TabID); ok {
			s.tabs.Update(ev.TabID, ev.URL, tab.WindowID)
		} else {
			s.tabs.Update(ev.TabID, ev.URL, 0)
		}
	}
	s.orch.HandleNavigationCompleted(r.Context(), ev)
	w.WriteHeader(http.StatusAccepted)
}

// handleTabRemoved drops a closed tab from the registry. If that tab
// owned the active session, the session is folded into history.
func (s *Server) handleTabRemoved(w http.ResponseWriter, r *http.Request) {
	var ev struct {
		TabID int `json:"tabId"`
	}
	if !decodeBody(w, r, &ev) {
		return
	}
	s.tabs.Forget(ev.TabID)

	if current := s.tracker.Current(r.Context()); current != nil && current.TabID == ev.TabID {
		if _, err := s.tracker.Stop(r.Context()); err != nil {
			s.logger.Printf("tab-removed: stop failed: %v", err)
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

// sessionView is the wire shape of the active session, with the running
// duration computed server-side.
type sessionView struct {
	*storage.ActiveSession
	Duration time.Duration `json:"duration"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	current := s.tracker.Current(r.Context())
	if current == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":  true,
		"session": sessionView{ActiveSession: current, Duration: s.tracker.SessionDuration(current)},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	topN := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		topN = n
	}

	stats, err := s.store.GetStats(r.Context(), topN)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDomain(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]
	data := s.store.GetDomainData(r.Context(), domain)
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.GetSettings(r.Context()))
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch storage.SettingsPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	updated, err := s.store.UpdateSettings(r.Context(), patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
