package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
	"github.com/blackwell-systems/mirrorgate/internal/snapshots"
)

// RecordSource serves per-package scan history lookups. *store.Store
// satisfies it.
type RecordSource interface {
	// LatestScanRecord returns the most recent record for the exact
	// (name, version) pair, or nil if none exists.
	LatestScanRecord(name, version string) (*mirror.ScanRecord, error)
}

// DefaultWorkers is the lookup concurrency used when none is configured.
const DefaultWorkers = 8

// Selector decides which of a snapshot's packages need a (re)scan under a
// freshness policy. It never mutates the scan record store.
//
// Freshness is keyed by the full (name, version) pair: after a version
// bump the new version counts as never scanned even if the old version was
// scanned minutes ago. A stale scan of an old version must not vouch for a
// version it never saw.
type Selector struct {
	snaps   snapshots.Store
	records RecordSource
	workers int
	log     *slog.Logger
}

// NewSelector creates a Selector. workers bounds the parallel history
// lookups; values < 1 fall back to DefaultWorkers.
func NewSelector(snaps snapshots.Store, records RecordSource, workers int, log *slog.Logger) *Selector {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if log == nil {
		log = slog.Default()
	}
	return &Selector{snaps: snaps, records: records, workers: workers, log: log}
}

// SelectRescans returns the snapshot's packages whose latest scan is
// missing or older than threshold at the reference time now. The result
// preserves the snapshot's canonical package order, so identical inputs
// always produce the identical ordered output.
//
// Per-package lookup failures are isolated: the package is flagged as
// never scanned (the conservative direction) and the error is logged.
// Cancellation discards all partial results.
func (s *Selector) SelectRescans(ctx context.Context, snapshotID string, threshold time.Duration, now time.Time) ([]Candidate, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("freshness threshold must be positive, got %s", threshold)
	}

	exists, err := s.snaps.Exists(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve snapshot %s: %w", snapshotID, err)
	}
	if !exists {
		return nil, fmt.Errorf("snapshot %s: %w", snapshotID, snapshots.ErrSnapshotNotFound)
	}

	keys, err := s.snaps.ListPackages(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot %s: %w", snapshotID, err)
	}

	// Each package reads a disjoint slice of the history, so lookups fan
	// out across a bounded worker pool. Results land at the package's input
	// index to keep the output order deterministic.
	results := make([]*Candidate, len(keys))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = s.classify(keys[i], threshold, now)
			}
		}()
	}

	cancelled := false
feed:
	for i := range keys {
		select {
		case indexes <- i:
		case <-ctx.Done():
			cancelled = true
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if cancelled {
		// Partial results are never a final result.
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}

	s.log.Info("rescan selection",
		"snapshot", snapshotID,
		"packages", len(keys),
		"candidates", len(candidates),
		"threshold", threshold,
	)

	return candidates, nil
}

// classify applies the freshness policy to one package. Returns nil when
// the package's latest scan is still fresh.
func (s *Selector) classify(key mirror.PackageKey, threshold time.Duration, now time.Time) *Candidate {
	latest, err := s.records.LatestScanRecord(key.Name, key.Version)
	if err != nil {
		// Isolated per-package failure: treat the history as absent, which
		// biases toward rescanning.
		s.log.Warn("scan history lookup failed", "package", key.String(), "error", err)
		return &Candidate{Key: key, Reason: ReasonNeverScanned}
	}

	if latest == nil {
		return &Candidate{Key: key, Reason: ReasonNeverScanned}
	}

	age := latest.Age(now)
	if age > threshold {
		return &Candidate{Key: key, Reason: ReasonStale, Age: age}
	}

	return nil
}
