package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mirrorgate/internal/output"
	"github.com/blackwell-systems/mirrorgate/internal/snapshots"
)

var (
	snapshotDescription string

	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Import and inspect mirror snapshots",
	}

	snapshotImportCmd = &cobra.Command{
		Use:   "import <name> <listing-file>",
		Short: "Import a package listing as an immutable named snapshot",
		Long: `Import a mirror package listing into the snapshot store.

The listing file contains one canonical package key per line in
name_version_arch form (aptly package-list output). Snapshots are
immutable: importing an existing name fails.`,
		Example: `  # Import today's mirror state
  mirrorgate snapshot import mirror-20260826 packages.list`,
		Args: cobra.ExactArgs(2),
		RunE: runSnapshotImport,
	}

	snapshotListCmd = &cobra.Command{
		Use:   "list",
		Short: "List imported snapshots",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotList,
	}
)

func init() {
	snapshotImportCmd.Flags().StringVar(&snapshotDescription, "description", "", "free-form snapshot description")

	snapshotCmd.AddCommand(snapshotImportCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
}

func runSnapshotImport(cmd *cobra.Command, args []string) error {
	name, listingPath := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	keys, err := snapshots.ParseListingFile(listingPath)
	if err != nil {
		return fmt.Errorf("failed to parse listing: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InsertSnapshot(name, snapshotDescription, time.Now(), keys); err != nil {
		return err
	}

	fmt.Printf("Imported snapshot %s (%d packages)\n", name, len(keys))
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
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

	fmt.Print(output.RenderSnapshotTable(snaps))
	return nil
}
