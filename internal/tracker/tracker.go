package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/webtally/webtally/internal/storage"
	"github.com/webtally/webtally/internal/timeutil"
)

// Tracker drives the session-lifecycle state machine over the single
// persisted active-session slot: Empty → Active ⇄ Paused → Empty.
//
// The slot itself is the only shared state, and the engine's validation
// (Start fails while a session is active) is the only concurrency
// control. Two callers racing between the slot read and the slot write
// can still both pass the check — that overwrite window is the accepted
// consistency bound of the design, not a bug this layer detects.
type Tracker struct {
	store *storage.Store
	now   func() time.Time
}

// New creates a Tracker over the given store.
func New(store *storage.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// SetClock overrides the tracker's clock for tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Start begins tracking a domain. Valid only while no session is active:
// an occupied slot yields a *ConflictError, and the engine does not stop
// the existing session on the caller's behalf. Input is validated before
// any storage access.
func (t *Tracker) Start(ctx context.Context, domain string, tabID, windowID int) (*storage.ActiveSession, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, &ValidationError{Field: "domain", Reason: "cannot be empty"}
	}
	if tabID < 0 {
		return nil, &ValidationError{Field: "tabId", Reason: "must be a non-negative integer"}
	}
	if windowID < 0 {
		return nil, &ValidationError{Field: "windowId", Reason: "must be a non-negative integer"}
	}

	if current := t.store.GetActiveSession(ctx); current != nil {
		return nil, &ConflictError{Domain: current.Domain}
	}

	session := &storage.ActiveSession{
		Domain:    domain,
		StartTime: t.now(),
		TabID:     tabID,
		WindowID:  windowID,
		IsPaused:  false,
	}
	if err := t.store.SetActiveSession(ctx, session); err != nil {
		return nil, &OpError{Op: "start session", Err: err}
	}
	return session, nil
}

// Stop completes the active session: it computes the final duration,
// folds it into the owning domain's aggregate — total time, session
// history, and the daily bucket keyed by the completion date — and
// clears the slot. Stopping with no active session is a harmless no-op
// returning nil; no storage write is attempted.
func (t *Tracker) Stop(ctx context.Context) (*storage.Session, error) {
	current := t.store.GetActiveSession(ctx)
	if current == nil {
		return nil, nil
	}

	end := t.now()
	completed := &storage.Session{
		StartTime: current.StartTime,
		EndTime:   end,
		Duration:  timeutil.Elapsed(current.StartTime, end),
		TabID:     current.TabID,
		WindowID:  current.WindowID,
	}

	// Sessions bucket by the day they completed, not the day they began.
	day := timeutil.DayKey(end)
	_, err := t.store.UpdateDomainData(ctx, current.Domain, func(d *storage.DomainData) {
		d.TotalTime += completed.Duration
		d.Sessions = append(d.Sessions, *completed)
		d.DailyStats[day] += completed.Duration
	})
	if err != nil {
		return nil, &OpError{Op: "record session", Err: err}
	}

	if err := t.store.SetActiveSession(ctx, nil); err != nil {
		return nil, &OpError{Op: "clear session", Err: err}
	}
	return completed, nil
}

// Pause flags the active session as paused. The duration clock keeps
// running — pause suspends the caller's presentation (pill updates), not
// time accrual. No-op returning nil when no session is active.
func (t *Tracker) Pause(ctx context.Context) (*storage.ActiveSession, error) {
	return t.setPaused(ctx, true, "pause session")
}

// Resume clears the paused flag. No-op returning nil when no session is
// active.
func (t *Tracker) Resume(ctx context.Context) (*storage.ActiveSession, error) {
	return t.setPaused(ctx, false, "resume session")
}

func (t *Tracker) setPaused(ctx context.Context, paused bool, op string) (*storage.ActiveSession, error) {
	current := t.store.GetActiveSession(ctx)
	if current == nil {
		return nil, nil
	}

	current.IsPaused = paused
	if err := t.store.SetActiveSession(ctx, current); err != nil {
		return nil, &OpError{Op: op, Err: err}
	}
	return current, nil
}

// Current returns the active session, or nil when the slot is empty.
func (t *Tracker) Current(ctx context.Context) *storage.ActiveSession {
	return t.store.GetActiveSession(ctx)
}

// SessionDuration returns the elapsed time since the session started,
// regardless of pause state.
func (t *Tracker) SessionDuration(session *storage.ActiveSession) time.Duration {
	if session == nil {
		return 0
	}
	return timeutil.Elapsed(session.StartTime, t.now())
}
