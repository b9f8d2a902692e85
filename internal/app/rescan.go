package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mirrorgate/internal/gate"
	"github.com/blackwell-systems/mirrorgate/internal/output"
)

var (
	rescanMaxAgeHours int
	rescanOut         string

	rescanCmd = &cobra.Command{
		Use:   "rescan <snapshot>",
		Short: "List packages whose last scan is missing or stale",
		Long: `Select the packages in a snapshot that need a (re)scan: packages never
scanned at their current version, and packages whose most recent scan is
older than the freshness threshold.

A package with no scan history is always a candidate, regardless of
threshold. Missing data fails toward rescanning.`,
		Example: `  # Flag packages not scanned in the last 24 hours (default)
  mirrorgate rescan mirror-20260826

  # Tighter policy, write the scanner work list to a file
  mirrorgate rescan mirror-20260826 --max-age-hours 12 --out rescan.list`,
		Args: cobra.ExactArgs(1),
		RunE: runRescan,
	}
)

func init() {
	rescanCmd.Flags().IntVar(&rescanMaxAgeHours, "max-age-hours", 0, "freshness threshold in whole hours (default: config max_scan_age_hours)")
	rescanCmd.Flags().StringVar(&rescanOut, "out", "", "write candidate package keys to this file, one per line")
}

func runRescan(cmd *cobra.Command, args []string) error {
	snapshotID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if rescanMaxAgeHours > 0 {
		cfg.MaxScanAgeHours = rescanMaxAgeHours
	}
	log := newLogger(cfg)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now := time.Now()
	selector := gate.NewSelector(snapshotStore(cfg, db), db, cfg.Workers, log)
	candidates, err := selector.SelectRescans(ctx, snapshotID, cfg.MaxScanAge(), now)
	if err != nil {
		return err
	}

	if rescanOut != "" {
		if err := os.WriteFile(rescanOut, []byte(gate.FormatCandidateList(candidates)), 0644); err != nil {
			return fmt.Errorf("failed to write candidate list: %w", err)
		}
	}

	fmt.Print(output.RenderCandidateTable(candidates, now))
	return nil
}
