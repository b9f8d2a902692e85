// Package approval rebuilds the published approved package list from the
// scan record history. It is the downstream consumer of the gate's
// RebuildDecision: packages enter the approved set only with a fresh
// passing scan at their exact version.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/blackwell-systems/mirrorgate/internal/gate"
	"github.com/blackwell-systems/mirrorgate/internal/mirror"
	"github.com/blackwell-systems/mirrorgate/internal/snapshots"
)

// Result partitions a snapshot's packages by approval outcome.
type Result struct {
	Snapshot string
	Approved []mirror.PackageKey // fresh scan, status approved
	Blocked  []mirror.PackageKey // fresh scan, status blocked or error
	Missing  []mirror.PackageKey // no scan, or scan older than the threshold
}

// Builder computes approved lists.
type Builder struct {
	snaps   snapshots.Store
	records gate.RecordSource
	maxAge  time.Duration
	log     *slog.Logger
}

// New creates a Builder. maxAge is the freshness threshold: scans older
// than this never vouch for a package.
func New(snaps snapshots.Store, records gate.RecordSource, maxAge time.Duration, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{snaps: snaps, records: records, maxAge: maxAge, log: log}
}

// Build classifies every package in the snapshot. A package is approved
// only when its latest scan at the exact (name, version) is fresh and
// passed; anything blocked, errored, unscanned, or stale stays out of the
// approved set. Missing data always fails closed.
func (b *Builder) Build(ctx context.Context, snapshotID string, now time.Time) (*Result, error) {
	exists, err := b.snaps.Exists(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve snapshot %s: %w", snapshotID, err)
	}
	if !exists {
		return nil, fmt.Errorf("snapshot %s: %w", snapshotID, snapshots.ErrSnapshotNotFound)
	}

	keys, err := b.snaps.ListPackages(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot %s: %w", snapshotID, err)
	}

	result := &Result{Snapshot: snapshotID}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		latest, err := b.records.LatestScanRecord(key.Name, key.Version)
		if err != nil {
			b.log.Warn("scan history lookup failed", "package", key.String(), "error", err)
			result.Missing = append(result.Missing, key)
			continue
		}

		switch {
		case latest == nil:
			b.log.Warn("no scan found for package", "package", key.String())
			result.Missing = append(result.Missing, key)
		case latest.Age(now) > b.maxAge:
			b.log.Warn("scan too old for package", "package", key.String(), "age", latest.Age(now))
			result.Missing = append(result.Missing, key)
		case latest.Status == mirror.StatusApproved:
			result.Approved = append(result.Approved, key)
		default:
			b.log.Info("package blocked",
				"package", key.String(),
				"status", latest.Status,
				"cves", latest.CVECount,
			)
			result.Blocked = append(result.Blocked, key)
		}
	}

	b.log.Info("approved list built",
		"snapshot", snapshotID,
		"approved", len(result.Approved),
		"blocked", len(result.Blocked),
		"missing", len(result.Missing),
	)

	return result, nil
}

// WriteList writes the approved keys to path, one canonical key per line
// in sorted order, the approved.txt format the repository publisher
// consumes.
func WriteList(result *Result, path string) error {
	keys := make([]mirror.PackageKey, len(result.Approved))
	copy(keys, result.Approved)
	mirror.SortKeys(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key.String())
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write approved list %s: %w", path, err)
	}

	return nil
}
