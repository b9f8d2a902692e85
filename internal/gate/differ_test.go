package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
	"github.com/blackwell-systems/mirrorgate/internal/snapshots"
	"github.com/blackwell-systems/mirrorgate/internal/store"
)

func key(name, version, arch string) mirror.PackageKey {
	return mirror.PackageKey{Name: name, Version: version, Architecture: arch}
}

// newTestSnapshots builds a DB-backed snapshot store preloaded with the
// given snapshots.
func newTestSnapshots(t *testing.T, snaps map[string][]mirror.PackageKey) (snapshots.Store, *store.Store) {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	for name, keys := range snaps {
		if err := db.InsertSnapshot(name, "", time.Now(), keys); err != nil {
			t.Fatalf("failed to insert snapshot %s: %v", name, err)
		}
	}

	return snapshots.NewDBStore(db), db
}

func TestDiffIdentity(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"s1": {key("curl", "7.0", "amd64"), key("vim", "9.0", "amd64")},
	})

	result, err := NewDiffer(snaps, nil).Diff(context.Background(), "s1", "s1")
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}
	if len(result.Changes) != 0 {
		t.Errorf("Diff(S, S) = %d changes, want 0", len(result.Changes))
	}
	if len(result.Removed) != 0 {
		t.Errorf("Diff(S, S) = %d removed, want 0", len(result.Removed))
	}
}

// Scenario: old={curl_7.0_amd64}, new={curl_7.1_amd64, vim_9.0_amd64}
// yields curl changed and vim added, in name order.
func TestDiffAddedAndChanged(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"old": {key("curl", "7.0", "amd64")},
		"new": {key("curl", "7.1", "amd64"), key("vim", "9.0", "amd64")},
	})

	result, err := NewDiffer(snaps, nil).Diff(context.Background(), "old", "new")
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}

	if len(result.Changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(result.Changes))
	}

	if result.Changes[0].Key != key("curl", "7.1", "amd64") || result.Changes[0].Kind != ChangeChanged {
		t.Errorf("Changes[0] = %+v, want curl_7.1_amd64 changed", result.Changes[0])
	}
	if result.Changes[0].Previous == nil || *result.Changes[0].Previous != key("curl", "7.0", "amd64") {
		t.Errorf("Changes[0].Previous = %v, want curl_7.0_amd64", result.Changes[0].Previous)
	}
	if result.Changes[1].Key != key("vim", "9.0", "amd64") || result.Changes[1].Kind != ChangeAdded {
		t.Errorf("Changes[1] = %+v, want vim_9.0_amd64 added", result.Changes[1])
	}
}

func TestDiffRemovedNeverInChangeSet(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"old": {key("curl", "7.0", "amd64"), key("oldpkg", "1.0", "amd64")},
		"new": {key("curl", "7.0", "amd64")},
	})

	result, err := NewDiffer(snaps, nil).Diff(context.Background(), "old", "new")
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}

	for _, c := range result.Changes {
		if c.Key.Name == "oldpkg" {
			t.Errorf("removed package leaked into the ChangeSet: %+v", c)
		}
	}
	if len(result.Removed) != 1 || result.Removed[0] != key("oldpkg", "1.0", "amd64") {
		t.Errorf("Removed = %v, want [oldpkg_1.0_amd64]", result.Removed)
	}
}

// A dropped architecture is a removal even though the package name
// survives in the new snapshot.
func TestDiffDroppedArchitectureIsRemoved(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"old": {key("curl", "7.0", "amd64"), key("curl", "7.0", "i386")},
		"new": {key("curl", "7.0", "amd64")},
	})

	result, err := NewDiffer(snaps, nil).Diff(context.Background(), "old", "new")
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}

	if len(result.Changes) != 0 {
		t.Errorf("got %d changes, want 0", len(result.Changes))
	}
	if len(result.Removed) != 1 || result.Removed[0] != key("curl", "7.0", "i386") {
		t.Errorf("Removed = %v, want [curl_7.0_i386]", result.Removed)
	}
}

// A version bump renders as a single changed entry; the old key it
// replaces is paired as Previous, not reported as a removal.
func TestDiffVersionBumpIsNotRemoval(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"old": {key("curl", "7.0", "amd64")},
		"new": {key("curl", "7.1", "amd64")},
	})

	result, err := NewDiffer(snaps, nil).Diff(context.Background(), "old", "new")
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}

	if len(result.Removed) != 0 {
		t.Errorf("Removed = %v, want none for a version bump", result.Removed)
	}
	if len(result.Changes) != 1 || result.Changes[0].Kind != ChangeChanged {
		t.Fatalf("Changes = %+v, want one changed entry", result.Changes)
	}
}

// Every added or changed package appears exactly once, even when the new
// listing carries duplicates.
func TestDiffCompletenessAndUniqueness(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"old": {key("a", "1", "amd64"), key("b", "1", "amd64"), key("c", "1", "amd64")},
		"new": {
			key("a", "2", "amd64"), // changed
			key("b", "1", "amd64"), // unchanged
			key("c", "3", "amd64"), // changed
			key("d", "1", "amd64"), // added
		},
	})

	result, err := NewDiffer(snaps, nil).Diff(context.Background(), "old", "new")
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}

	seen := make(map[mirror.PackageKey]int)
	for _, c := range result.Changes {
		seen[c.Key]++
	}

	for _, want := range []mirror.PackageKey{
		key("a", "2", "amd64"),
		key("c", "3", "amd64"),
		key("d", "1", "amd64"),
	} {
		if seen[want] != 1 {
			t.Errorf("key %v appears %d times in ChangeSet, want exactly 1", want, seen[want])
		}
	}
	if len(result.Changes) != 3 {
		t.Errorf("got %d changes, want 3", len(result.Changes))
	}
}

func TestDiffNewArchitectureIsAdded(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"old": {key("curl", "7.0", "amd64")},
		"new": {key("curl", "7.0", "amd64"), key("curl", "7.0", "arm64")},
	})

	result, err := NewDiffer(snaps, nil).Diff(context.Background(), "old", "new")
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}

	if len(result.Changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(result.Changes))
	}
	if result.Changes[0].Key != key("curl", "7.0", "arm64") || result.Changes[0].Kind != ChangeAdded {
		t.Errorf("Changes[0] = %+v, want curl_7.0_arm64 added", result.Changes[0])
	}
}

func TestDiffSnapshotNotFound(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"s1": {key("curl", "7.0", "amd64")},
	})

	differ := NewDiffer(snaps, nil)

	_, err := differ.Diff(context.Background(), "missing", "s1")
	if !errors.Is(err, snapshots.ErrSnapshotNotFound) {
		t.Errorf("Diff(missing, s1) error = %v, want ErrSnapshotNotFound", err)
	}

	_, err = differ.Diff(context.Background(), "s1", "missing")
	if !errors.Is(err, snapshots.ErrSnapshotNotFound) {
		t.Errorf("Diff(s1, missing) error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestDiffCancelled(t *testing.T) {
	snaps, _ := newTestSnapshots(t, map[string][]mirror.PackageKey{
		"old": {key("curl", "7.0", "amd64")},
		"new": {key("curl", "7.1", "amd64")},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewDiffer(snaps, nil).Diff(ctx, "old", "new")
	if err == nil {
		t.Fatal("Diff() on cancelled context should fail")
	}
	if result != nil {
		t.Errorf("cancelled Diff() returned partial result: %+v", result)
	}
}
