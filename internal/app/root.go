package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mirrorgate/internal/config"
	"github.com/blackwell-systems/mirrorgate/internal/snapshots"
	"github.com/blackwell-systems/mirrorgate/internal/store"
)

var (
	cfgFile     string
	dbPath      string
	snapshotDir string
	logLevel    string

	// RootCmd is the root command for mirrorgate.
	RootCmd = &cobra.Command{
		Use:   "mirrorgate",
		Short: "Vulnerability gate for a curated package mirror",
		Long: `mirrorgate decides which mirror packages need vulnerability scanning
and when the published approved set must be rebuilt.

Packages pulled from upstream are only admitted to the approved set after
passing a vulnerability scan. Newly disclosed CVEs can make an approved
package unsafe later, so mirrorgate also flags packages whose last scan
has gone stale.

Typical pipeline (scheduled, one run at a time):
  1. mirrorgate snapshot import <name> <listing>   # after each mirror pull
  2. mirrorgate diff <old> <new>                   # what needs a first scan
  3. external scanner scans the changed packages
  4. mirrorgate ingest                             # record scanner output
  5. mirrorgate rescan <snapshot>                  # what has gone stale
  6. mirrorgate run <old> <new>                    # steps 2+5 plus rebuild decision
  7. mirrorgate approve <snapshot>                 # rebuild approved.txt

Examples:
  # Import the mirror's package listing as a named snapshot
  mirrorgate snapshot import mirror-20260826 packages.list

  # Compare two snapshots
  mirrorgate diff mirror-20260825 mirror-20260826

  # Flag packages not scanned within the last 24 hours
  mirrorgate rescan mirror-20260826 --max-age-hours 24

  # Ingest scanner results continuously
  mirrorgate ingest --watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./mirrorgate.yaml, ~/.mirrorgate/mirrorgate.yaml)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.mirrorgate/mirrorgate.db)")
	RootCmd.PersistentFlags().StringVar(&snapshotDir, "snapshot-dir", "", "read snapshots from a directory of .list files instead of the database")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(snapshotCmd)
	RootCmd.AddCommand(diffCmd)
	RootCmd.AddCommand(rescanCmd)
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(ingestCmd)
	RootCmd.AddCommand(approveCmd)
	RootCmd.AddCommand(statusCmd)
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig loads configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if snapshotDir != "" {
		cfg.SnapshotDir = snapshotDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

// newLogger builds the process logger from the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore opens the database and ensures the schema exists.
func openStore(cfg *config.Config) (*store.Store, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return db, nil
}

// snapshotStore selects the snapshot source: the text-listing adapter when
// a snapshot directory is configured, the database otherwise.
func snapshotStore(cfg *config.Config, db *store.Store) snapshots.Store {
	if cfg.SnapshotDir != "" {
		return snapshots.NewListingDir(cfg.SnapshotDir)
	}
	return snapshots.NewDBStore(db)
}
