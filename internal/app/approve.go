package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mirrorgate/internal/approval"
)

var (
	approveOut string

	approveCmd = &cobra.Command{
		Use:   "approve <snapshot>",
		Short: "Rebuild the approved package list for a snapshot",
		Long: `Rebuild the approved set for a snapshot from the scan record history.

A package is approved only when its most recent scan at the exact
version is fresh and passed. Blocked, errored, unscanned, and stale
packages all stay out: missing data fails closed. The result is written
as approved.txt, one canonical key per line, sorted.`,
		Example: `  mirrorgate approve mirror-20260826

  # Write to an explicit path
  mirrorgate approve mirror-20260826 --out /srv/mirror/approved.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runApprove,
	}
)

func init() {
	approveCmd.Flags().StringVar(&approveOut, "out", "", "output path (default: <approvals_dir>/approved.txt)")
}

func runApprove(cmd *cobra.Command, args []string) error {
	snapshotID := args[0]

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

	builder := approval.New(snapshotStore(cfg, db), db, cfg.MaxScanAge(), log)
	result, err := builder.Build(ctx, snapshotID, time.Now())
	if err != nil {
		return err
	}

	outPath := approveOut
	if outPath == "" {
		outPath = filepath.Join(cfg.ApprovalsDir, "approved.txt")
	}
	if err := approval.WriteList(result, outPath); err != nil {
		return err
	}

	fmt.Printf("Approved: %d, Blocked: %d, Missing scans: %d\n",
		len(result.Approved), len(result.Blocked), len(result.Missing))
	fmt.Printf("Approved list written to %s\n", outPath)
	return nil
}
