package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mirrorgate/internal/gate"
	"github.com/blackwell-systems/mirrorgate/internal/output"
)

var (
	diffReport bool
	diffOut    string

	diffCmd = &cobra.Command{
		Use:   "diff <old-snapshot> <new-snapshot>",
		Short: "List packages added or version-changed between two snapshots",
		Long: `Compare two mirror snapshots and report the packages that need a
vulnerability scan: everything added or version-changed in the new
snapshot. Removed packages are reported but require no scan.

Both snapshots must exist; a missing snapshot aborts the comparison.
Comparing a snapshot against itself always yields an empty result.`,
		Example: `  # Summarize the change set
  mirrorgate diff mirror-20260825 mirror-20260826

  # Emit the +/!/- textual report consumed by shell tooling
  mirrorgate diff mirror-20260825 mirror-20260826 --report

  # Write the scanner work list to a file
  mirrorgate diff mirror-20260825 mirror-20260826 --out changed.list`,
		Args: cobra.ExactArgs(2),
		RunE: runDiff,
	}
)

func init() {
	diffCmd.Flags().BoolVar(&diffReport, "report", false, "print the +/!/- diff report instead of a summary")
	diffCmd.Flags().StringVar(&diffOut, "out", "", "write changed package keys to this file, one per line")
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldID, newID := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	differ := gate.NewDiffer(snapshotStore(cfg, db), log)
	result, err := differ.Diff(ctx, oldID, newID)
	if err != nil {
		return err
	}

	if diffOut != "" {
		if err := os.WriteFile(diffOut, []byte(gate.FormatKeyList(result.Changes)), 0644); err != nil {
			return fmt.Errorf("failed to write change list: %w", err)
		}
	}

	if diffReport {
		fmt.Print(gate.FormatReport(result))
	} else {
		fmt.Print(output.RenderDiffSummary(result))
	}

	return nil
}
