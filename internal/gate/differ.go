package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
	"github.com/blackwell-systems/mirrorgate/internal/snapshots"
)

// Differ computes which packages are new or changed between two mirror
// snapshots. It only reads the snapshot store and has no side effects
// beyond logging the comparison.
type Differ struct {
	snaps snapshots.Store
	log   *slog.Logger
}

// NewDiffer creates a Differ backed by the given snapshot store.
func NewDiffer(snaps snapshots.Store, log *slog.Logger) *Differ {
	if log == nil {
		log = slog.Default()
	}
	return &Differ{snaps: snaps, log: log}
}

// Diff compares two snapshots by identifier. Both must exist; a missing
// snapshot aborts the whole comparison with no partial result.
//
// A package name present only in the new snapshot is added. A name present
// in both snapshots whose version differs is changed; the join is by name,
// not full key, because a version bump is exactly what must trigger a
// rescan. An old key absent from the new snapshot is removed, unless it was
// consumed as the previous side of a version bump; removals are reported
// but never part of the ChangeSet.
func (d *Differ) Diff(ctx context.Context, oldID, newID string) (*DiffResult, error) {
	if err := d.checkExists(ctx, oldID); err != nil {
		return nil, err
	}
	if err := d.checkExists(ctx, newID); err != nil {
		return nil, err
	}

	result := &DiffResult{OldSnapshot: oldID, NewSnapshot: newID}

	// Identical identifiers always yield an empty diff.
	if oldID == newID {
		d.log.Info("snapshot diff", "old", oldID, "new", newID, "changed", 0, "removed", 0)
		return result, nil
	}

	oldKeys, err := d.snaps.ListPackages(ctx, oldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot %s: %w", oldID, err)
	}
	newKeys, err := d.snaps.ListPackages(ctx, newID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot %s: %w", newID, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Index the old snapshot by exact key and by name. The by-name index
	// keeps the old keys per name in listing order so the reported previous
	// version for a changed package is deterministic.
	oldExact := make(map[mirror.PackageKey]struct{}, len(oldKeys))
	oldByName := make(map[string][]mirror.PackageKey, len(oldKeys))
	for _, key := range oldKeys {
		oldExact[key] = struct{}{}
		oldByName[key.Name] = append(oldByName[key.Name], key)
	}

	newExact := make(map[mirror.PackageKey]struct{}, len(newKeys))
	seen := make(map[mirror.PackageKey]struct{}, len(newKeys))
	// Old keys paired as the previous side of a version bump; they render
	// as the changed line, not as a removal.
	consumed := make(map[mirror.PackageKey]struct{})

	for _, key := range newKeys {
		newExact[key] = struct{}{}

		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if _, same := oldExact[key]; same {
			continue
		}

		olds, nameKnown := oldByName[key.Name]
		if !nameKnown {
			result.Changes = append(result.Changes, Change{Key: key, Kind: ChangeAdded})
			continue
		}

		// Name known in old. A different version is a version bump (changed);
		// the same version under a new architecture is an addition.
		sameVersion := false
		for _, old := range olds {
			if old.Version == key.Version {
				sameVersion = true
				break
			}
		}
		if sameVersion {
			result.Changes = append(result.Changes, Change{Key: key, Kind: ChangeAdded})
			continue
		}

		prev := olds[0]
		consumed[prev] = struct{}{}
		result.Changes = append(result.Changes, Change{Key: key, Kind: ChangeChanged, Previous: &prev})
	}

	for _, key := range oldKeys {
		if _, kept := newExact[key]; kept {
			continue
		}
		if _, paired := consumed[key]; paired {
			continue
		}
		result.Removed = append(result.Removed, key)
	}

	sort.Slice(result.Changes, func(i, j int) bool {
		return result.Changes[i].Key.Less(result.Changes[j].Key)
	})
	mirror.SortKeys(result.Removed)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.log.Info("snapshot diff",
		"old", oldID,
		"new", newID,
		"changed", len(result.Changes),
		"removed", len(result.Removed),
	)
	if len(result.Changes) == 0 {
		d.log.Info("no drift between snapshots", "old", oldID, "new", newID)
	}

	return result, nil
}

func (d *Differ) checkExists(ctx context.Context, id string) error {
	exists, err := d.snaps.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to resolve snapshot %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("snapshot %s: %w", id, snapshots.ErrSnapshotNotFound)
	}
	return nil
}
