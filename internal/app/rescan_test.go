package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
	"github.com/blackwell-systems/mirrorgate/internal/store"
)

// --max-age-hours overrides the configured threshold: a 30 hour old scan
// is stale at the 24 hour default but fresh at 48.
func TestRunRescanMaxAgeOverride(t *testing.T) {
	home := setTestHome(t)

	seedStore(t, home, func(db *store.Store) {
		insertSnapshot(t, db, "mirror-a", appKey("libssl", "3.0", "amd64"))
		_, err := db.AppendScanRecord(&mirror.ScanRecord{
			PackageName:    "libssl",
			PackageVersion: "3.0",
			ScannedAt:      time.Now().Add(-30 * time.Hour),
			Status:         mirror.StatusApproved,
			Scanner:        "trivy",
		})
		if err != nil {
			t.Fatalf("failed to append scan record: %v", err)
		}
	})

	outFile := filepath.Join(home, "rescan.list")
	origMaxAge, origOut := rescanMaxAgeHours, rescanOut
	rescanOut = outFile
	defer func() { rescanMaxAgeHours, rescanOut = origMaxAge, origOut }()

	out, err := captureStdout(t, func() error {
		return runRescan(nil, []string{"mirror-a"})
	})
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if !strings.Contains(out, "libssl") || !strings.Contains(out, "stale") {
		t.Errorf("default threshold output = %q, want libssl flagged stale", out)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("failed to read work list: %v", err)
	}
	if got, want := string(data), "libssl_3.0_amd64\n"; got != want {
		t.Errorf("work list = %q, want %q", got, want)
	}

	rescanMaxAgeHours = 48
	out, err = captureStdout(t, func() error {
		return runRescan(nil, []string{"mirror-a"})
	})
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if !strings.Contains(out, "No packages need rescanning.") {
		t.Errorf("relaxed threshold output = %q, want no candidates", out)
	}
}

func TestRunRescanSnapshotNotFound(t *testing.T) {
	home := setTestHome(t)
	seedStore(t, home, func(db *store.Store) {})

	_, err := captureStdout(t, func() error {
		return runRescan(nil, []string{"missing"})
	})
	if err == nil {
		t.Fatal("rescan of a missing snapshot should fail")
	}
}
