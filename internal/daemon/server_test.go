package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtally/webtally/internal/storage"
	"github.com/webtally/webtally/internal/tracker"
)

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryKV())
	require.NoError(t, store.Initialize(context.Background()))
	tr := tracker.New(store)
	logger := log.New(io.Discard, "", 0)
	return NewServer(store, tr, logger), store
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, srv *Server, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp map[string]string
	rec := getJSON(t, srv, "/status", &resp)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestEventFlow_TabUpdatedStartsSession(t *testing.T) {
	srv, store := newTestServer(t)

	rec := postJSON(t, srv, "/v1/events/tab-updated", map[string]any{
		"tabId": 5, "url": "https://example.com/page", "active": true, "windowId": 1,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	sess := store.GetActiveSession(context.Background())
	require.NotNil(t, sess)
	assert.Equal(t, "example.com", sess.Domain)
	assert.Equal(t, 5, sess.TabID)
}

func TestEventFlow_TabActivatedUsesRegistry(t *testing.T) {
	srv, store := newTestServer(t)

	// tab-updated on a background tab registers the URL without tracking.
	postJSON(t, srv, "/v1/events/tab-updated", map[string]any{
		"tabId": 9, "url": "https://news.example.org/story", "active": false, "windowId": 2,
	})
	require.Nil(t, store.GetActiveSession(context.Background()))

	// Switching to that tab starts tracking from the remembered URL.
	rec := postJSON(t, srv, "/v1/events/tab-activated", map[string]any{
		"tabId": 9, "windowId": 2,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	sess := store.GetActiveSession(context.Background())
	require.NotNil(t, sess)
	assert.Equal(t, "news.example.org", sess.Domain)
	assert.Equal(t, 2, sess.WindowID)
}

func TestEventFlow_WindowFocusPausesSession(t *testing.T) {
	srv, store := newTestServer(t)

	postJSON(t, srv, "/v1/events/tab-updated", map[string]any{
		"tabId": 1, "url": "https://example.com", "active": true, "windowId": 1,
	})

	postJSON(t, srv, "/v1/events/window-focus", map[string]any{"windowId": -1})
	sess := store.GetActiveSession(context.Background())
	require.NotNil(t, sess)
	assert.True(t, sess.IsPaused)

	postJSON(t, srv, "/v1/events/window-focus", map[string]any{"windowId": 1})
	sess = store.GetActiveSession(context.Background())
	require.NotNil(t, sess)
	assert.False(t, sess.IsPaused)
}

func TestEventFlow_NavigationTopFrame(t *testing.T) {
	srv, store := newTestServer(t)

	postJSON(t, srv, "/v1/events/navigation", map[string]any{
		"tabId": 3, "frameId": 0, "url": "https://docs.example.com/guide",
	})

	sess := store.GetActiveSession(context.Background())
	require.NotNil(t, sess)
	assert.Equal(t, "docs.example.com", sess.Domain)
}

func TestEventFlow_TabRemovedStopsOwnSession(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	postJSON(t, srv, "/v1/events/tab-updated", map[string]any{
		"tabId": 4, "url": "https://example.com", "active": true, "windowId": 1,
	})
	require.NotNil(t, store.GetActiveSession(ctx))

	// Removing an unrelated tab leaves the session alone.
	postJSON(t, srv, "/v1/events/tab-removed", map[string]any{"tabId": 99})
	require.NotNil(t, store.GetActiveSession(ctx))

	// Removing the owning tab folds the session.
	postJSON(t, srv, "/v1/events/tab-removed", map[string]any{"tabId": 4})
	assert.Nil(t, store.GetActiveSession(ctx))
	assert.Len(t, store.GetDomainData(ctx, "example.com").Sessions, 1)
}

func TestSessionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp map[string]any
	getJSON(t, srv, "/v1/session", &resp)
	assert.Equal(t, false, resp["active"])

	postJSON(t, srv, "/v1/events/tab-updated", map[string]any{
		"tabId": 1, "url": "https://example.com", "active": true, "windowId": 1,
	})

	resp = nil
	getJSON(t, srv, "/v1/session", &resp)
	assert.Equal(t, true, resp["active"])
	session := resp["session"].(map[string]any)
	assert.Equal(t, "example.com", session["domain"])
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var stats storage.Stats
	rec := getJSON(t, srv, "/v1/stats", &stats)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, stats.TopDomains)

	rec = getJSON(t, srv, "/v1/stats?top=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = getJSON(t, srv, "/v1/stats?top=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDomainEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var data storage.DomainData
	rec := getJSON(t, srv, "/v1/domains/example.com", &data)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, data.TotalTime)
	assert.Empty(t, data.Sessions)
}

func TestSettingsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	var settings storage.Settings
	getJSON(t, srv, "/v1/settings", &settings)
	assert.True(t, settings.PillVisibility)

	body, err := json.Marshal(map[string]any{"pillVisibility": false, "dataRetentionDays": 7})
	require.NoError(t, err)
	req := httptest.NewRequest("PATCH", "/v1/settings", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	settings = storage.Settings{}
	getJSON(t, srv, "/v1/settings", &settings)
	assert.False(t, settings.PillVisibility)
	assert.Equal(t, 7, settings.DataRetentionDays)
}

func TestMalformedEventBodyRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/v1/events/tab-updated", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, srv, "/v1/events/tab-updated", map[string]any{"unknownField": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLiveWebsocket(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	postJSON(t, srv, "/v1/events/tab-updated", map[string]any{
		"tabId": 1, "url": "https://example.com", "active": true, "windowId": 1,
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/session/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, true, frame["active"])
	session := frame["session"].(map[string]any)
	assert.Equal(t, "example.com", session["domain"])
}

func TestLoggingMiddlewarePreservesHijacker(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	var sawHijacker bool
	h := loggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHijacker = w.(http.Hijacker)
	}))

	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, sawHijacker, "wrapped writer must support connection hijacking")
}

func TestTabRegistry(t *testing.T) {
	reg := NewTabRegistry()
	ctx := context.Background()

	_, ok := reg.TabInfo(ctx, 1)
	assert.False(t, ok)

	reg.Update(1, "https://example.com", 2)
	tab, ok := reg.TabInfo(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", tab.URL)
	assert.Equal(t, 2, tab.WindowID)

	// Empty URL updates are ignored.
	reg.Update(1, "", 3)
	tab, _ = reg.TabInfo(ctx, 1)
	assert.Equal(t, "https://example.com", tab.URL)

	reg.Forget(1)
	_, ok = reg.TabInfo(ctx, 1)
	assert.False(t, ok)
}
