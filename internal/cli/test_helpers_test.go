package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webtally/webtally/internal/storage"
	"github.com/webtally/webtally/internal/timeutil"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// newTestStore returns an initialized in-memory store.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryKV())
	require.NoError(t, store.Initialize(context.Background()))
	return store
}

// seedSession records a completed session ending at end with the given
// duration, keeping totals and daily stats consistent.
func seedSession(t *testing.T, store *storage.Store, domain string, end time.Time, dur time.Duration) {
	t.Helper()
	_, err := store.UpdateDomainData(context.Background(), domain, func(d *storage.DomainData) {
		d.TotalTime += dur
		d.Sessions = append(d.Sessions, storage.Session{
			StartTime: end.Add(-dur),
			EndTime:   end,
			Duration:  dur,
			TabID:     1,
			WindowID:  1,
		})
		d.DailyStats[timeutil.DayKey(end)] += dur
	})
	require.NoError(t, err)
}
