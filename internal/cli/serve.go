package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/webtally/webtally/internal/config"
	"github.com/webtally/webtally/internal/daemon"
	"github.com/webtally/webtally/internal/tracker"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	// Optional .env for local development overrides.
	_ = godotenv.Load()

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	if c.Host != "" {
		cfg.Daemon.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Daemon.Port = c.Port
	}
	if v := os.Getenv("WEBTALLY_PORT"); v != "" && c.Port == 0 {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("invalid WEBTALLY_PORT %q: must be a port number", v)
		}
		cfg.Daemon.Port = p
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	logWriter := io.Writer(os.Stderr)
	if cfg.Logging.File != "" {
		dir, err := config.ExpandPath(cfg.Storage.Path)
		if err == nil {
			f, err := os.OpenFile(filepath.Join(dir, cfg.Logging.File), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err == nil {
				defer f.Close()
				logWriter = io.MultiWriter(os.Stderr, f)
			}
		}
	}
	logger := log.New(logWriter, "webtally ", log.LstdFlags)
	if c.globals != nil && c.globals.Verbose {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	tr := tracker.New(store)
	pruneInterval := time.Duration(cfg.Retention.PruneIntervalHours) * time.Hour
	if pruneInterval <= 0 {
		pruneInterval = 24 * time.Hour
	}
	d := daemon.New(store, tr, logger, cfg.Daemon.Addr(), pruneInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("webtally %s starting", c.version)
	return d.Run(ctx)
}
