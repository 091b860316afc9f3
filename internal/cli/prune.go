package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/webtally/webtally/internal/storage"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	store, closeStore, err := resolveStore(c.store, c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()

	retention := time.Duration(store.GetSettings(ctx).DataRetentionDays) * 24 * time.Hour
	if c.OlderThan != "" {
		retention, err = parseDuration(c.OlderThan)
		if err != nil {
			return err
		}
	}
	horizon := time.Now().Add(-retention)

	if c.DryRun {
		count, err := countPrunable(ctx, store, horizon)
		if err != nil {
			return err
		}
		if c.globals != nil && c.globals.JSON {
			enc := json.NewEncoder(os.Stdout)
			return enc.Encode(map[string]any{"dry_run": true, "would_prune": count})
		}
		fmt.Printf("Would prune %d sessions older than %s.\n", count, horizon.Format("2006-01-02"))
		return nil
	}

	pruned, err := store.PruneHistory(ctx, horizon)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(map[string]any{"pruned": pruned})
	}
	fmt.Printf("Pruned %d sessions older than %s.\n", pruned, horizon.Format("2006-01-02"))
	return nil
}

// countPrunable counts sessions that ended before the horizon without
// touching anything.
func countPrunable(ctx context.Context, store *storage.Store, horizon time.Time) (int, error) {
	schema, err := store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema: %w", err)
	}

	count := 0
	for _, data := range schema.Domains {
		for _, sess := range data.Sessions {
			if sess.EndTime.Before(horizon) {
				count++
			}
		}
	}
	return count, nil
}
