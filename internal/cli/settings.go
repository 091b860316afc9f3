package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/webtally/webtally/internal/storage"
)

// Execute implements the go-flags Commander interface for SettingsCommand.
func (c *SettingsCommand) Execute(args []string) error {
	store, closeStore, err := resolveStore(c.store, c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()

	patch, changed, err := c.buildPatch(store.GetSettings(ctx))
	if err != nil {
		return err
	}

	settings := store.GetSettings(ctx)
	if changed {
		settings, err = store.UpdateSettings(ctx, patch)
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(settings)
	}

	visibility := "hidden"
	if settings.PillVisibility {
		visibility = "visible"
	}
	fmt.Printf("Pill:        %s (%s)\n", settings.PillPosition, visibility)
	fmt.Printf("Retention:   %d days\n", settings.DataRetentionDays)
	fmt.Printf("Excluded:    %d domains\n", len(settings.ExcludedDomains))
	if c.globals != nil && c.globals.Verbose {
		for _, d := range settings.ExcludedDomains {
			fmt.Printf("  %s\n", d)
		}
	}
	return nil
}

// buildPatch translates command flags into a settings patch against the
// current settings. Exclusion edits are applied to the current list.
func (c *SettingsCommand) buildPatch(current storage.Settings) (storage.SettingsPatch, bool, error) {
	var patch storage.SettingsPatch
	changed := false

	if c.Pill != "" {
		pos := storage.PillPosition(strings.ToLower(c.Pill))
		switch pos {
		case storage.PillTopLeft, storage.PillTopRight, storage.PillBottomLeft, storage.PillBottomRight:
		default:
			return patch, false, fmt.Errorf("invalid pill position %q", c.Pill)
		}
		patch.PillPosition = &pos
		changed = true
	}

	if c.ShowPill != "" {
		switch strings.ToLower(c.ShowPill) {
		case "on":
			v := true
			patch.PillVisibility = &v
		case "off":
			v := false
			patch.PillVisibility = &v
		default:
			return patch, false, fmt.Errorf("invalid --show-pill value %q (use on or off)", c.ShowPill)
		}
		changed = true
	}

	if c.Retention != 0 {
		if c.Retention < 1 {
			return patch, false, fmt.Errorf("retention must be at least 1 day")
		}
		patch.DataRetentionDays = &c.Retention
		changed = true
	}

	if len(c.Exclude) > 0 || len(c.Include) > 0 {
		excluded := editExclusions(current.ExcludedDomains, c.Exclude, c.Include)
		patch.ExcludedDomains = &excluded
		changed = true
	}

	return patch, changed, nil
}

// editExclusions adds and removes domains from an exclusion list,
// deduplicating and lowercasing along the way.
func editExclusions(current, add, remove []string) []string {
	set := make(map[string]bool, len(current)+len(add))
	for _, d := range current {
		set[strings.ToLower(d)] = true
	}
	for _, d := range add {
		set[strings.ToLower(strings.TrimSpace(d))] = true
	}
	for _, d := range remove {
		delete(set, strings.ToLower(strings.TrimSpace(d)))
	}
	delete(set, "")

	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
