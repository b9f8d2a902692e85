package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mirrorgate/internal/gate"
	"github.com/blackwell-systems/mirrorgate/internal/output"
)

var (
	runMaxAgeHours int

	runCmd = &cobra.Command{
		Use:   "run <old-snapshot> <new-snapshot>",
		Short: "Execute one full gate run and emit the rebuild decision",
		Long: `Execute one gate invocation end to end:

  1. diff the two snapshots and write the changed-package work list
  2. select stale packages in the new snapshot and write the rescan list
  3. decide whether the approved set must be rebuilt

The work lists land in the configured lists directory (changed.list,
rescan.list) for the external scanner to consume. The run takes an
advisory file lock so overlapping pipeline runs cannot race; a second
run started while one is in flight fails immediately.

The run either completes or fails as a whole: an interrupted run leaves
no partial work lists behind.`,
		Example: `  mirrorgate run mirror-20260825 mirror-20260826`,
		Args: cobra.ExactArgs(2),
		RunE: runGate,
	}
)

func init() {
	runCmd.Flags().IntVar(&runMaxAgeHours, "max-age-hours", 0, "freshness threshold in whole hours (default: config max_scan_age_hours)")
}

func runGate(cmd *cobra.Command, args []string) error {
	oldID, newID := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runMaxAgeHours > 0 {
		cfg.MaxScanAgeHours = runMaxAgeHours
	}
	log := newLogger(cfg)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// One pipeline run at a time: concurrent runs could interleave work
	// lists and approved-set rebuilds.
	lock := flock.New(cfg.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another gate run holds the lock at %s", cfg.LockPath)
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snaps := snapshotStore(cfg, db)
	now := time.Now()

	differ := gate.NewDiffer(snaps, log)
	diff, err := differ.Diff(ctx, oldID, newID)
	if err != nil {
		return err
	}

	selector := gate.NewSelector(snaps, db, cfg.Workers, log)
	candidates, err := selector.SelectRescans(ctx, newID, cfg.MaxScanAge(), now)
	if err != nil {
		return err
	}

	// Work lists are written only once both phases completed, so a
	// cancelled run never publishes partial results.
	changedPath := filepath.Join(cfg.ListsDir, "changed.list")
	if err := os.WriteFile(changedPath, []byte(gate.FormatKeyList(diff.Changes)), 0644); err != nil {
		return fmt.Errorf("failed to write change list: %w", err)
	}
	rescanPath := filepath.Join(cfg.ListsDir, "rescan.list")
	if err := os.WriteFile(rescanPath, []byte(gate.FormatCandidateList(candidates)), 0644); err != nil {
		return fmt.Errorf("failed to write rescan list: %w", err)
	}

	decision := gate.MaybeTriggerRebuild(len(candidates))
	log.Info("gate run complete",
		"old", oldID,
		"new", newID,
		"changed", len(diff.Changes),
		"rescans", decision.RescanCount,
		"rebuild_required", decision.RebuildRequired,
	)

	fmt.Print(output.RenderDiffSummary(diff))
	fmt.Printf("Rescan candidates: %d\n", len(candidates))
	fmt.Printf("Work lists: %s, %s\n", changedPath, rescanPath)
	fmt.Println(decision.Reason())

	return nil
}
