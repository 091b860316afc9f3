package daemon

import (
	"context"
	"sync"

	"github.com/webtally/webtally/internal/events"
)

// TabRegistry remembers the last known URL and window for each browser
// tab, fed by the events that carry URLs. It backs the orchestrator's
// tab lookups for events that only carry a tab id.
type TabRegistry struct {
	mu   sync.RWMutex
	tabs map[int]events.Tab
}

func NewTabRegistry() *TabRegistry {
	return &TabRegistry{tabs: make(map[int]events.Tab)}
}

// Update records the current URL and window of a tab. Empty URLs are
// ignored so a partial update cannot erase a known location.
func (r *TabRegistry) Update(tabID int, url string, windowID int) {
	if url == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs[tabID] = events.Tab{URL: url, WindowID: windowID}
}

// Forget drops a closed tab from the registry.
func (r *TabRegistry) Forget(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, tabID)
}

// TabInfo implements events.TabDirectory.
func (r *TabRegistry) TabInfo(ctx context.Context, tabID int) (events.Tab, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tab, ok := r.tabs[tabID]
	return tab, ok
}
