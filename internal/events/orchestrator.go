package events

import (
	"context"
	"log"

	"github.com/webtally/webtally/internal/domainutil"
	"github.com/webtally/webtally/internal/storage"
	"github.com/webtally/webtally/internal/tracker"
)

// Orchestrator translates browser lifecycle events into session-engine
// transitions. Every handler is a terminal error boundary: failures are
// logged and swallowed so one bad event can never poison delivery of
// the ones after it.
type Orchestrator struct {
	tracker *tracker.Tracker
	store   *storage.Store
	tabs    TabDirectory
	logger  *log.Logger
}

// NewOrchestrator wires an orchestrator to its collaborators.
func NewOrchestrator(tr *tracker.Tracker, store *storage.Store, tabs TabDirectory, logger *log.Logger) *Orchestrator {
	return &Orchestrator{tracker: tr, store: store, tabs: tabs, logger: logger}
}

// HandleTabActivated processes a tab switch: the newly focused tab's
// page becomes the tracked domain.
func (o *Orchestrator) HandleTabActivated(ctx context.Context, ev TabActivated) {
	tab, ok := o.tabs.TabInfo(ctx, ev.TabID)
	if !ok {
		o.logger.Printf("tab-activated: no URL known for tab %d", ev.TabID)
		return
	}
	o.switchTo(ctx, tab.URL, ev.TabID, ev.WindowID)
}

// HandleTabUpdated processes an in-place tab change. Only URL changes
// on the currently active tab restart tracking; background tab loads
// are ignored.
func (o *Orchestrator) HandleTabUpdated(ctx context.Context, ev TabUpdated) {
	if ev.URL == "" || !ev.Active {
		return
	}
	o.switchTo(ctx, ev.URL, ev.TabID, ev.WindowID)
}

// HandleWindowFocusChanged pauses tracking when the browser loses focus
// and resumes it when focus returns — but only if the session is
// actually paused, so a focus event arriving mid-session is harmless.
func (o *Orchestrator) HandleWindowFocusChanged(ctx context.Context, ev WindowFocusChanged) {
	if ev.WindowID == NoWindow {
		if _, err := o.tracker.Pause(ctx); err != nil {
			o.logger.Printf("window-focus: pause failed: %v", err)
		}
		return
	}

	current := o.tracker.Current(ctx)
	if current == nil || !current.IsPaused {
		return
	}
	if _, err := o.tracker.Resume(ctx); err != nil {
		o.logger.Printf("window-focus: resume failed: %v", err)
	}
}

// HandleNavigationCompleted processes a finished page load in the
// top-level frame.
func (o *Orchestrator) HandleNavigationCompleted(ctx context.Context, ev NavigationCompleted) {
	if ev.FrameID != 0 {
		return
	}

	windowID := 0
	if tab, ok := o.tabs.TabInfo(ctx, ev.TabID); ok {
		windowID = tab.WindowID
	}
	o.switchTo(ctx, ev.URL, ev.TabID, windowID)
}

// switchTo moves tracking to the page at rawURL: validate the scheme,
// extract and screen the domain, stop whatever is running, start fresh.
// Untrackable and excluded pages are ignored silently.
func (o *Orchestrator) switchTo(ctx context.Context, rawURL string, tabID, windowID int) {
	if !domainutil.Trackable(rawURL) {
		return
	}

	domain := domainutil.Extract(rawURL)
	if domain == domainutil.Unknown {
		return
	}

	if o.store.GetSettings(ctx).IsExcluded(domain) {
		return
	}

	if _, err := o.tracker.Stop(ctx); err != nil {
		o.logger.Printf("switch to %s: stop failed: %v", domain, err)
		return
	}
	if _, err := o.tracker.Start(ctx, domain, tabID, windowID); err != nil {
		o.logger.Printf("switch to %s: start failed: %v", domain, err)
	}
}
