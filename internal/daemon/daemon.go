package daemon

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/webtally/webtally/internal/storage"
	"github.com/webtally/webtally/internal/tracker"
)

// Daemon runs the HTTP API and the background retention pruner until
// its context is cancelled.
type Daemon struct {
	store         *storage.Store
	tracker       *tracker.Tracker
	server        *Server
	logger        *log.Logger
	addr          string
	pruneInterval time.Duration
}

func New(store *storage.Store, tr *tracker.Tracker, logger *log.Logger, addr string, pruneInterval time.Duration) *Daemon {
	return &Daemon{
		store:         store,
		tracker:       tr,
		server:        NewServer(store, tr, logger),
		logger:        logger,
		addr:          addr,
		pruneInterval: pruneInterval,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. Any
// open session is folded into history on the way out so no tracked
// time is lost across restarts.
func (d *Daemon) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         d.addr,
		Handler:      d.server,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.logger.Printf("listening on %s", d.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		d.pruneLoop(ctx)
		return nil
	})

	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, stopErr := d.tracker.Stop(flushCtx); stopErr != nil {
		d.logger.Printf("shutdown: closing session: %v", stopErr)
	}

	return err
}

// pruneLoop periodically drops session history older than the user's
// retention window. Lifetime per-domain totals are kept.
func (d *Daemon) pruneLoop(ctx context.Context) {
	d.pruneOnce(ctx)

	ticker := time.NewTicker(d.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.pruneOnce(ctx)
		}
	}
}

func (d *Daemon) pruneOnce(ctx context.Context) {
	days := d.store.GetSettings(ctx).DataRetentionDays
	if days <= 0 {
		return
	}
	horizon := time.Now().AddDate(0, 0, -days)

	pruned, err := d.store.PruneHistory(ctx, horizon)
	if err != nil {
		d.logger.Printf("retention prune failed: %v", err)
		return
	}
	if pruned > 0 {
		d.logger.Printf("retention prune dropped %d sessions older than %s", pruned, horizon.Format("2006-01-02"))
	}
}
