package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently delete ALL webtally data.")
		fmt.Println("  - All per-domain time totals")
		fmt.Println("  - All session history and daily stats")
		fmt.Println("  - All settings, including your exclusion list")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "PURGE" to confirm: `)

		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		input := strings.TrimSpace(scanner.Text())
		if input != "PURGE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	store, closeStore, err := resolveStore(c.store, c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	// Re-seed defaults so the next run starts from a sane schema.
	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("reinitialize failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]any{
			"purged":  true,
			"message": "all data deleted",
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}

	fmt.Println("Purged all data. Webtally is empty.")
	return nil
}
