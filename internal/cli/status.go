package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/webtally/webtally/internal/storage"
	"github.com/webtally/webtally/internal/timeutil"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string       `json:"version"`
	DatabasePath      string       `json:"database_path"`
	DatabaseSizeBytes int64        `json:"database_size_bytes"`
	TotalDomains      int          `json:"total_domains"`
	TotalSessions     int          `json:"total_sessions"`
	TotalTime         string       `json:"total_time"`
	TodayTime         string       `json:"today_time"`
	RetentionDays     int          `json:"retention_days"`
	DaemonRunning     bool         `json:"daemon_running"`
	ActiveSession     *sessionJSON `json:"active_session,omitempty"`
}

type sessionJSON struct {
	Domain    string `json:"domain"`
	StartTime string `json:"start_time"`
	Duration  string `json:"duration"`
	Paused    bool   `json:"paused"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	store, closeStore, err := resolveStore(c.store, c.globals)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()

	stats, err := store.GetStats(ctx, 5)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbPath, _ := cfg.Storage.DBPath()
	dbSize := databaseSize(dbPath)
	daemonRunning := checkDaemon(cfg.Daemon.Addr())
	settings := store.GetSettings(ctx)
	active := store.GetActiveSession(ctx)

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(stats, dbPath, dbSize, daemonRunning, settings.DataRetentionDays, active)
	}
	return c.printHuman(stats, dbPath, dbSize, daemonRunning, settings.DataRetentionDays, active)
}

func (c *StatusCommand) printHuman(stats *storage.Stats, dbPath string, dbSize int64, daemonRunning bool, retentionDays int, active *storage.ActiveSession) error {
	fmt.Println("Webtally Status")
	fmt.Println("===============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Printf("Domains:       %d\n", stats.TotalDomains)
	fmt.Printf("Sessions:      %d\n", stats.TotalSessions)
	fmt.Printf("Total time:    %s\n", formatSpan(stats.TotalTime))
	fmt.Printf("Today:         %s\n", formatSpan(stats.TodayTime))
	fmt.Printf("Retention:     %d days\n", retentionDays)

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-28s %s\n", d.Domain, formatSpan(d.TotalTime))
		}
	}

	fmt.Println()
	if daemonRunning {
		fmt.Println("Daemon:        running")
	} else {
		fmt.Println("Daemon:        not running")
	}

	if active != nil {
		state := "tracking"
		if active.IsPaused {
			state = "paused"
		}
		fmt.Printf("Session:       %s (%s, %s)\n", active.Domain, state, formatSpan(timeutil.Since(active.StartTime)))
	}

	return nil
}

func (c *StatusCommand) printJSON(stats *storage.Stats, dbPath string, dbSize int64, daemonRunning bool, retentionDays int, active *storage.ActiveSession) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: dbSize,
		TotalDomains:      stats.TotalDomains,
		TotalSessions:     stats.TotalSessions,
		TotalTime:         stats.TotalTime.String(),
		TodayTime:         stats.TodayTime.String(),
		RetentionDays:     retentionDays,
		DaemonRunning:     daemonRunning,
	}

	if active != nil {
		out.ActiveSession = &sessionJSON{
			Domain:    active.Domain,
			StartTime: active.StartTime.UTC().Format(time.RFC3339),
			Duration:  timeutil.Since(active.StartTime).Round(time.Second).String(),
			Paused:    active.IsPaused,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// databaseSize returns the database file size in bytes, or 0 when the
// file does not exist yet.
func databaseSize(dbPath string) int64 {
	info, err := os.Stat(dbPath)
	if err != nil {
		return 0
	}
	return info.Size()
}

// checkDaemon attempts an HTTP GET to the daemon's status endpoint.
// Returns true if the daemon responds within 1 second.
func checkDaemon(addr string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get("http://" + addr + "/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
