package cli

import "github.com/webtally/webtally/internal/storage"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand — run the tracking daemon (local HTTP service).
type ServeCommand struct {
	Host string `long:"host" description:"Override listen host"`
	Port int    `long:"port" description:"Override listen port"`

	globals *GlobalFlags
	version string
}

// StatusCommand — show daemon health, database stats, config summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string

	store *storage.Store // injectable for testing; nil means open default store
}

// ReportCommand — show time spent per domain.
type ReportCommand struct {
	Since string `long:"since" description:"Only include time since a duration ago (7d, 24h, 2w) or a date (2026-08-01)"`
	Limit int    `long:"limit" description:"Maximum domains to show" default:"10"`

	globals *GlobalFlags
	version string

	store *storage.Store
}

// SessionCommand — show the currently tracked session, if any.
type SessionCommand struct {
	globals *GlobalFlags
	version string

	store *storage.Store
}

// SettingsCommand — show or change tracking settings.
type SettingsCommand struct {
	Exclude   []string `long:"exclude" description:"Add a domain to the exclusion list (repeatable)"`
	Include   []string `long:"include" description:"Remove a domain from the exclusion list (repeatable)"`
	Pill      string   `long:"pill" description:"Pill position: top-left | top-right | bottom-left | bottom-right"`
	ShowPill  string   `long:"show-pill" description:"Show or hide the timer pill: on | off"`
	Retention int      `long:"retention" description:"Days of session history to keep (0 leaves unchanged)"`

	globals *GlobalFlags
	version string

	store *storage.Store
}

// PruneCommand — drop session history older than the retention window.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string

	store *storage.Store
}

// PurgeCommand — delete ALL tracked data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string

	store *storage.Store
}
