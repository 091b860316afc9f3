package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve    *ServeCommand
	Status   *StatusCommand
	Report   *ReportCommand
	Session  *SessionCommand
	Settings *SettingsCommand
	Prune    *PruneCommand
	Purge    *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "webtally"
	parser.LongDescription = "Local browsing time tracker: per-domain session history, daily totals, and a live daemon for the browser extension."

	cmds := &commands{
		Serve:    &ServeCommand{globals: &globals, version: version},
		Status:   &StatusCommand{globals: &globals, version: version},
		Report:   &ReportCommand{globals: &globals, version: version},
		Session:  &SessionCommand{globals: &globals, version: version},
		Settings: &SettingsCommand{globals: &globals, version: version},
		Prune:    &PruneCommand{globals: &globals, version: version},
		Purge:    &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Start the tracking daemon", "Start the tracking daemon (local HTTP service the browser extension talks to).", cmds.Serve)
	parser.AddCommand("status", "Show daemon health and statistics", "Show daemon health, database statistics, and configuration summary.", cmds.Status)
	parser.AddCommand("report", "Show time spent per domain", "Show time spent per domain, optionally restricted to a recent window.", cmds.Report)
	parser.AddCommand("session", "Show the current session", "Show the currently tracked session, if any.", cmds.Session)
	parser.AddCommand("settings", "Show or change tracking settings", "Show or change tracking settings: exclusions, pill, retention.", cmds.Settings)
	parser.AddCommand("prune", "Apply retention pruning", "Drop session history older than the retention window.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL tracked data", "Delete ALL tracked data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the webtally CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("webtally %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
