// Package gate implements the vulnerability gate engine: diffing mirror
// snapshots to find packages that need a first scan, selecting published
// packages whose last scan has gone stale, and deciding when the approved
// set must be rebuilt.
package gate

import (
	"time"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
)

// ChangeKind classifies an entry in a ChangeSet.
type ChangeKind string

const (
	// ChangeAdded marks a package name absent from the old snapshot.
	ChangeAdded ChangeKind = "added"
	// ChangeChanged marks a package name present in both snapshots with a
	// different version; the new version is what gets scanned.
	ChangeChanged ChangeKind = "changed"
)

// Change is one added or version-changed package between two snapshots.
// Previous holds the old snapshot's key for changed packages and is nil for
// added ones.
type Change struct {
	Key      mirror.PackageKey
	Kind     ChangeKind
	Previous *mirror.PackageKey
}

// ChangeSet is the ordered, deduplicated list of packages that are new or
// changed between two snapshots. Removed packages are never members: they
// require no scan.
type ChangeSet []Change

// Keys returns the changed package keys in order.
func (cs ChangeSet) Keys() []mirror.PackageKey {
	keys := make([]mirror.PackageKey, len(cs))
	for i, c := range cs {
		keys[i] = c.Key
	}
	return keys
}

// DiffResult pairs the ChangeSet with the removed packages, which are
// reported in the textual diff but excluded from scanning.
type DiffResult struct {
	OldSnapshot string
	NewSnapshot string
	Changes     ChangeSet
	Removed     []mirror.PackageKey
}

// CandidateReason says why a package needs a (re)scan.
type CandidateReason string

const (
	// ReasonNeverScanned means no scan record exists for the package at its
	// snapshot version.
	ReasonNeverScanned CandidateReason = "never scanned"
	// ReasonStale means the latest scan is older than the freshness
	// threshold.
	ReasonStale CandidateReason = "stale"
)

// Candidate is one package flagged for rescanning. Age is the time elapsed
// since the latest scan; it is zero for never-scanned packages.
type Candidate struct {
	Key    mirror.PackageKey
	Reason CandidateReason
	Age    time.Duration
}

// RebuildDecision records whether the approved set must be recomputed.
// The external approval-set builder consumes it; emitting the decision is
// the gate's entire side effect.
type RebuildDecision struct {
	RebuildRequired bool
	RescanCount     int
}

// Reason returns a one-line human explanation for logs.
func (d RebuildDecision) Reason() string {
	if d.RebuildRequired {
		return "rebuild required: rescans invalidated the approved set"
	}
	return "no rebuild needed"
}
