package events

import "context"

// NoWindow is the reserved window id meaning no browser window has
// focus (the user switched to another application).
const NoWindow = -1

// TabActivated fires when the user switches to a different tab. The
// event carries ids only; the tab's URL comes from the TabDirectory.
type TabActivated struct {
	TabID    int `json:"tabId"`
	WindowID int `json:"windowId"`
}

// TabUpdated fires when a tab's state changes. URL is the new address
// when the change touched it, empty otherwise; only URL changes on the
// active tab restart tracking.
type TabUpdated struct {
	TabID    int    `json:"tabId"`
	URL      string `json:"url"`
	Active   bool   `json:"active"`
	WindowID int    `json:"windowId"`
}

// WindowFocusChanged fires when browser window focus moves. WindowID is
// NoWindow when focus left the browser entirely.
type WindowFocusChanged struct {
	WindowID int `json:"windowId"`
}

// NavigationCompleted fires when a document finishes loading. Only the
// top-level frame (FrameID 0) is tracked; iframes are ignored.
type NavigationCompleted struct {
	TabID   int    `json:"tabId"`
	FrameID int    `json:"frameId"`
	URL     string `json:"url"`
}

// Tab is the directory's view of one open tab.
type Tab struct {
	URL      string
	WindowID int
}

// TabDirectory resolves a tab id to its last known state. The
// orchestrator uses it for events that carry ids without URLs.
type TabDirectory interface {
	TabInfo(ctx context.Context, tabID int) (Tab, bool)
}
