package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/blackwell-systems/mirrorgate/internal/store"
)

func TestRunGateWritesWorkLists(t *testing.T) {
	home := setTestHome(t)

	seedStore(t, home, func(db *store.Store) {
		insertSnapshot(t, db, "old", appKey("curl", "7.0", "amd64"))
		insertSnapshot(t, db, "new",
			appKey("curl", "7.1", "amd64"),
			appKey("vim", "9.0", "amd64"),
		)
	})

	out, err := captureStdout(t, func() error {
		return runGate(nil, []string{"old", "new"})
	})
	if err != nil {
		t.Fatalf("gate run failed: %v", err)
	}

	// Nothing is scanned yet, so every package is a candidate and the
	// approved set must be rebuilt.
	if !strings.Contains(out, "Rescan candidates: 2") {
		t.Errorf("output = %q, want 2 rescan candidates", out)
	}
	if !strings.Contains(out, "rebuild required") {
		t.Errorf("output = %q, want a rebuild-required decision", out)
	}

	listsDir := filepath.Join(home, ".mirrorgate", "lists")
	changed, err := os.ReadFile(filepath.Join(listsDir, "changed.list"))
	if err != nil {
		t.Fatalf("failed to read changed.list: %v", err)
	}
	if got, want := string(changed), "curl_7.1_amd64\nvim_9.0_amd64\n"; got != want {
		t.Errorf("changed.list = %q, want %q", got, want)
	}
	rescan, err := os.ReadFile(filepath.Join(listsDir, "rescan.list"))
	if err != nil {
		t.Fatalf("failed to read rescan.list: %v", err)
	}
	if got, want := string(rescan), "curl_7.1_amd64\nvim_9.0_amd64\n"; got != want {
		t.Errorf("rescan.list = %q, want %q", got, want)
	}
}

// A second gate run started while one holds the lock fails immediately.
func TestRunGateLockHeld(t *testing.T) {
	home := setTestHome(t)

	seedStore(t, home, func(db *store.Store) {
		insertSnapshot(t, db, "old", appKey("curl", "7.0", "amd64"))
		insertSnapshot(t, db, "new", appKey("curl", "7.0", "amd64"))
	})

	lockPath := filepath.Join(home, ".mirrorgate", "run.lock")
	held := flock.New(lockPath)
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("failed to pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	_, err = captureStdout(t, func() error {
		return runGate(nil, []string{"old", "new"})
	})
	if err == nil {
		t.Fatal("gate run should fail while the lock is held")
	}
	if !strings.Contains(err.Error(), "holds the lock") {
		t.Errorf("error = %v, want lock-held failure", err)
	}
}
