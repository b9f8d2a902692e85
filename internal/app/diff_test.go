package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/mirrorgate/internal/store"
)

func TestRunDiffReportAndWorkList(t *testing.T) {
	home := setTestHome(t)

	seedStore(t, home, func(db *store.Store) {
		insertSnapshot(t, db, "old",
			appKey("curl", "7.0", "amd64"),
			appKey("obsolete", "1.0", "amd64"),
		)
		insertSnapshot(t, db, "new",
			appKey("curl", "7.1", "amd64"),
			appKey("vim", "9.0", "amd64"),
		)
	})

	outFile := filepath.Join(home, "changed.list")
	origReport, origOut := diffReport, diffOut
	diffReport = true
	diffOut = outFile
	defer func() { diffReport, diffOut = origReport, origOut }()

	out, err := captureStdout(t, func() error {
		return runDiff(nil, []string{"old", "new"})
	})
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}

	for _, line := range []string{
		"!curl_7.0_amd64 -> !curl_7.1_amd64",
		"+vim_9.0_amd64",
		"-obsolete_1.0_amd64",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("report output missing %q, got:\n%s", line, out)
		}
	}
	// The version bump renders only as its "!" line.
	if strings.Contains(out, "-curl_7.0_amd64") {
		t.Errorf("replaced key reported as a removal:\n%s", out)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("failed to read work list: %v", err)
	}
	if got, want := string(data), "curl_7.1_amd64\nvim_9.0_amd64\n"; got != want {
		t.Errorf("work list = %q, want %q", got, want)
	}
}

// With --snapshot-dir the diff reads .list files instead of the database.
func TestRunDiffSnapshotDir(t *testing.T) {
	home := setTestHome(t)

	listDir := filepath.Join(home, "snapshots")
	if err := os.MkdirAll(listDir, 0755); err != nil {
		t.Fatalf("failed to create snapshot dir: %v", err)
	}
	writeListing(t, filepath.Join(listDir, "old.list"), "curl_7.0_amd64")
	writeListing(t, filepath.Join(listDir, "new.list"), "curl_7.0_amd64", "vim_9.0_amd64")

	origSnapshotDir := snapshotDir
	snapshotDir = listDir
	defer func() { snapshotDir = origSnapshotDir }()

	out, err := captureStdout(t, func() error {
		return runDiff(nil, []string{"old", "new"})
	})
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if !strings.Contains(out, "added:   1") {
		t.Errorf("summary = %q, want one added package", out)
	}
}
