package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/webtally/webtally/internal/timeutil"
)

// reportRowJSON is one domain line in the JSON report output.
type reportRowJSON struct {
	Domain    string `json:"domain"`
	TotalTime string `json:"total_time"`
	Sessions  int    `json:"sessions,omitempty"`
}

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(args []string) error {
	store, closeStore, err := resolveStore(c.store, c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()

	if c.Limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}

	// Windowed report: sum daily buckets since the cutoff day.
	if c.Since != "" {
		sinceDay, err := resolveSinceDay(c.Since)
		if err != nil {
			return err
		}

		totals, err := store.TotalsSince(ctx, sinceDay)
		if err != nil {
			return fmt.Errorf("compute totals: %w", err)
		}
		return c.printWindowed(totals, sinceDay)
	}

	// Lifetime report.
	stats, err := store.GetStats(ctx, c.Limit)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		rows := make([]reportRowJSON, len(stats.TopDomains))
		for i, d := range stats.TopDomains {
			rows[i] = reportRowJSON{Domain: d.Domain, TotalTime: d.TotalTime.String(), Sessions: d.Sessions}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(stats.TopDomains) == 0 {
		fmt.Println("No browsing time recorded yet.")
		return nil
	}

	fmt.Printf("Time by domain (all time, total %s):\n", formatSpan(stats.TotalTime))
	for _, d := range stats.TopDomains {
		fmt.Printf("  %-28s %-10s %d sessions\n", d.Domain, formatSpan(d.TotalTime), d.Sessions)
	}
	return nil
}

// resolveSinceDay turns a --since value into a daily-stats cutoff key.
// Accepts a calendar date ("2026-08-01") or a duration back from now
// ("7d", "24h", "2w").
func resolveSinceDay(since string) (string, error) {
	if day, err := timeutil.ParseDayKey(since); err == nil {
		return timeutil.DayKey(day), nil
	}
	window, err := parseDuration(since)
	if err != nil {
		return "", fmt.Errorf("invalid --since %q (use a duration like 7d or a date like 2026-08-01)", since)
	}
	return timeutil.DayKey(time.Now().Add(-window)), nil
}

func (c *ReportCommand) printWindowed(totals map[string]time.Duration, sinceDay string) error {
	type row struct {
		domain string
		total  time.Duration
	}
	rows := make([]row, 0, len(totals))
	for domain, total := range totals {
		rows = append(rows, row{domain, total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].total != rows[j].total {
			return rows[i].total > rows[j].total
		}
		return rows[i].domain < rows[j].domain
	})
	if len(rows) > c.Limit {
		rows = rows[:c.Limit]
	}

	if c.globals != nil && c.globals.JSON {
		out := make([]reportRowJSON, len(rows))
		for i, r := range rows {
			out[i] = reportRowJSON{Domain: r.domain, TotalTime: r.total.String()}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(rows) == 0 {
		fmt.Printf("No browsing time recorded since %s.\n", sinceDay)
		return nil
	}

	fmt.Printf("Time by domain since %s:\n", sinceDay)
	for _, r := range rows {
		fmt.Printf("  %-28s %s\n", r.domain, formatSpan(r.total))
	}
	return nil
}
