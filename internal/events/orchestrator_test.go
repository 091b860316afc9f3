package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtally/webtally/internal/storage"
	"github.com/webtally/webtally/internal/tracker"
)

// fakeTabs is a static TabDirectory for tests.
type fakeTabs map[int]Tab

func (f fakeTabs) TabInfo(ctx context.Context, tabID int) (Tab, bool) {
	tab, ok := f[tabID]
	return tab, ok
}

// brokenKV fails every backend operation.
type brokenKV struct{}

func (brokenKV) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	return nil, errors.New("backend down")
}
func (brokenKV) Set(ctx context.Context, values map[string]json.RawMessage) error {
	return errors.New("backend down")
}
func (brokenKV) Remove(ctx context.Context, keys ...string) error { return errors.New("backend down") }
func (brokenKV) Clear(ctx context.Context) error                  { return errors.New("backend down") }

func newTestOrchestrator(t *testing.T, tabs fakeTabs) (*Orchestrator, *storage.Store) {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryKV())
	tr := tracker.New(store)
	logger := log.New(io.Discard, "", 0)
	return NewOrchestrator(tr, store, tabs, logger), store
}

func TestTabActivated_StartsSessionForTabURL(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{
		7: {URL: "https://example.com/page", WindowID: 1},
	})
	ctx := context.Background()

	orch.HandleTabActivated(ctx, TabActivated{TabID: 7, WindowID: 1})

	sess := store.GetActiveSession(ctx)
	require.NotNil(t, sess)
	assert.Equal(t, "example.com", sess.Domain)
	assert.Equal(t, 7, sess.TabID)
	assert.Equal(t, 1, sess.WindowID)
}

func TestTabActivated_UnknownTabIsIgnored(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{})
	ctx := context.Background()

	orch.HandleTabActivated(ctx, TabActivated{TabID: 99, WindowID: 1})
	assert.Nil(t, store.GetActiveSession(ctx))
}

func TestTabActivated_StopsPreviousSession(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{
		1: {URL: "https://first.com/a", WindowID: 1},
		2: {URL: "https://second.com/b", WindowID: 1},
	})
	ctx := context.Background()

	orch.HandleTabActivated(ctx, TabActivated{TabID: 1, WindowID: 1})
	orch.HandleTabActivated(ctx, TabActivated{TabID: 2, WindowID: 1})

	sess := store.GetActiveSession(ctx)
	require.NotNil(t, sess)
	assert.Equal(t, "second.com", sess.Domain)

	first := store.GetDomainData(ctx, "first.com")
	assert.Len(t, first.Sessions, 1, "previous session was folded")
}

func TestTabUpdated_OnlyActiveTabURLChanges(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{})
	ctx := context.Background()

	// Background tab load: ignored.
	orch.HandleTabUpdated(ctx, TabUpdated{TabID: 1, URL: "https://bg.com", Active: false, WindowID: 1})
	assert.Nil(t, store.GetActiveSession(ctx))

	// No URL change: ignored.
	orch.HandleTabUpdated(ctx, TabUpdated{TabID: 1, URL: "", Active: true, WindowID: 1})
	assert.Nil(t, store.GetActiveSession(ctx))

	// Active tab navigated: tracked.
	orch.HandleTabUpdated(ctx, TabUpdated{TabID: 1, URL: "https://example.com", Active: true, WindowID: 1})
	sess := store.GetActiveSession(ctx)
	require.NotNil(t, sess)
	assert.Equal(t, "example.com", sess.Domain)
}

func TestNonWebSchemesAreIgnored(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{})
	ctx := context.Background()

	urls := []string{
		"chrome://extensions",
		"about:blank",
		"moz-extension://abc/popup.html",
		"ftp://files.example.com",
		"not-a-url",
	}
	for _, u := range urls {
		orch.HandleTabUpdated(ctx, TabUpdated{TabID: 1, URL: u, Active: true, WindowID: 1})
	}
	assert.Nil(t, store.GetActiveSession(ctx))
}

func TestExcludedDomainIsNotTracked(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{})
	ctx := context.Background()

	excluded := []string{"secret.example.com"}
	_, err := store.UpdateSettings(ctx, storage.SettingsPatch{ExcludedDomains: &excluded})
	require.NoError(t, err)

	orch.HandleTabUpdated(ctx, TabUpdated{TabID: 1, URL: "https://secret.example.com/x", Active: true, WindowID: 1})
	assert.Nil(t, store.GetActiveSession(ctx))
}

func TestWindowFocus_PauseAndResume(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{})
	ctx := context.Background()

	orch.HandleTabUpdated(ctx, TabUpdated{TabID: 1, URL: "https://example.com", Active: true, WindowID: 1})

	orch.HandleWindowFocusChanged(ctx, WindowFocusChanged{WindowID: NoWindow})
	sess := store.GetActiveSession(ctx)
	require.NotNil(t, sess)
	assert.True(t, sess.IsPaused, "losing focus pauses, not stops")

	orch.HandleWindowFocusChanged(ctx, WindowFocusChanged{WindowID: 1})
	sess = store.GetActiveSession(ctx)
	require.NotNil(t, sess)
	assert.False(t, sess.IsPaused)
}

func TestWindowFocus_ResumeOnlyIfPaused(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{})
	ctx := context.Background()

	orch.HandleTabUpdated(ctx, TabUpdated{TabID: 1, URL: "https://example.com", Active: true, WindowID: 1})
	before := store.GetActiveSession(ctx)
	require.NotNil(t, before)

	// Focus gained while already running: nothing changes.
	orch.HandleWindowFocusChanged(ctx, WindowFocusChanged{WindowID: 2})
	after := store.GetActiveSession(ctx)
	require.NotNil(t, after)
	assert.False(t, after.IsPaused)
	assert.True(t, after.StartTime.Equal(before.StartTime))
}

func TestWindowFocus_NoSessionIsHarmless(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{})
	ctx := context.Background()

	orch.HandleWindowFocusChanged(ctx, WindowFocusChanged{WindowID: NoWindow})
	orch.HandleWindowFocusChanged(ctx, WindowFocusChanged{WindowID: 1})
	assert.Nil(t, store.GetActiveSession(ctx))
}

func TestNavigationCompleted_TopFrameOnly(t *testing.T) {
	orch, store := newTestOrchestrator(t, fakeTabs{
		3: {URL: "https://example.com", WindowID: 2},
	})
	ctx := context.Background()

	// Iframe navigation: ignored.
	orch.HandleNavigationCompleted(ctx, NavigationCompleted{TabID: 3, FrameID: 1, URL: "https://ad.example.net"})
	assert.Nil(t, store.GetActiveSession(ctx))

	// Top-level navigation: tracked, window id resolved from the directory.
	orch.HandleNavigationCompleted(ctx, NavigationCompleted{TabID: 3, FrameID: 0, URL: "https://example.com/article"})
	sess := store.GetActiveSession(ctx)
	require.NotNil(t, sess)
	assert.Equal(t, "example.com", sess.Domain)
	assert.Equal(t, 2, sess.WindowID)
}

func TestHandlersNeverPanicOnStorageFailure(t *testing.T) {
	store := storage.NewStore(brokenKV{})
	tr := tracker.New(store)
	logger := log.New(io.Discard, "", 0)
	orch := NewOrchestrator(tr, store, fakeTabs{1: {URL: "https://example.com", WindowID: 1}}, logger)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		orch.HandleTabActivated(ctx, TabActivated{TabID: 1, WindowID: 1})
		orch.HandleTabUpdated(ctx, TabUpdated{TabID: 1, URL: "https://example.com", Active: true, WindowID: 1})
		orch.HandleWindowFocusChanged(ctx, WindowFocusChanged{WindowID: NoWindow})
		orch.HandleNavigationCompleted(ctx, NavigationCompleted{TabID: 1, FrameID: 0, URL: "https://example.com"})
	})
}

func TestRapidSwitching_SingleActiveSession(t *testing.T) {
	tabs := fakeTabs{
		1: {URL: "https://a.com", WindowID: 1},
		2: {URL: "https://b.com", WindowID: 1},
		3: {URL: "https://c.com", WindowID: 1},
	}
	orch, store := newTestOrchestrator(t, tabs)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		orch.HandleTabActivated(ctx, TabActivated{TabID: 1 + i%3, WindowID: 1})

		sess := store.GetActiveSession(ctx)
		require.NotNil(t, sess)
	}

	// Exactly one session remains active; everything else was folded.
	totalSessions := 0
	for _, domain := range []string{"a.com", "b.com", "c.com"} {
		totalSessions += len(store.GetDomainData(ctx, domain).Sessions)
	}
	assert.Equal(t, 29, totalSessions)
}
