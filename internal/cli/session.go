package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/webtally/webtally/internal/timeutil"
)

// Execute implements the go-flags Commander interface for SessionCommand.
func (c *SessionCommand) Execute(args []string) error {
	store, closeStore, err := resolveStore(c.store, c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	active := store.GetActiveSession(context.Background())

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if active == nil {
			return enc.Encode(map[string]any{"active": false})
		}
		return enc.Encode(map[string]any{
			"active":  true,
			"session": active,
			"elapsed": timeutil.Since(active.StartTime).Round(time.Second).String(),
		})
	}

	if active == nil {
		fmt.Println("No active session.")
		return nil
	}

	state := "tracking"
	if active.IsPaused {
		state = "paused"
	}
	fmt.Printf("Domain:    %s\n", active.Domain)
	fmt.Printf("State:     %s\n", state)
	fmt.Printf("Started:   %s\n", active.StartTime.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Elapsed:   %s\n", formatSpan(timeutil.Since(active.StartTime)))
	fmt.Printf("Tab:       %d (window %d)\n", active.TabID, active.WindowID)
	return nil
}
