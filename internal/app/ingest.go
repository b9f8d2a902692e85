package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mirrorgate/internal/ingest"
)

var (
	ingestWatch bool
	ingestDir   string

	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Record external scanner results in the scan history",
		Long: `Read the external scanner's JSON result files and append them to the
scan record store. Each file is one scan event for one package version;
its scan_date field is the authoritative timestamp. Re-ingesting the
same results is a no-op, and malformed files are logged and skipped.

With --watch, mirrorgate keeps following the scans directory and ingests
each result as the scanner writes it.`,
		Example: `  # One-shot ingestion of everything in the scans directory
  mirrorgate ingest

  # Follow the directory until interrupted
  mirrorgate ingest --watch`,
		Args: cobra.NoArgs,
		RunE: runIngest,
	}
)

func init() {
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep watching the scans directory for new results")
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "scans directory (default: config scans_dir)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestDir != "" {
		cfg.ScansDir = ingestDir
	}
	log := newLogger(cfg)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := ingest.New(db, log)

	if ingestWatch {
		err := in.Watch(ctx, cfg.ScansDir)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	sum, err := in.IngestDir(ctx, cfg.ScansDir)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d scan records (%d duplicate, %d malformed)\n",
		sum.Ingested, sum.Duplicate, sum.Malformed)
	return nil
}
