package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mirrorgate/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize snapshots and the scan record history",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	snaps, err := db.ListSnapshots()
	if err != nil {
		return err
	}

	stats, err := db.GetScanStats(time.Now().Add(-cfg.MaxScanAge()))
	if err != nil {
		return err
	}

	fmt.Print(output.RenderSnapshotTable(snaps))
	fmt.Println()
	fmt.Print(output.RenderScanStats(stats, cfg.MaxScanAge()))
	return nil
}
