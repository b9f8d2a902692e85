// Package snapshots abstracts the mirror's snapshot store: immutable,
// named package sets created by the mirror system and read by the gate
// engine. Two implementations exist: the SQLite store (primary) and a
// directory of plain-text package listings (the adapter for mirrors that
// only expose textual output).
package snapshots

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
	"github.com/blackwell-systems/mirrorgate/internal/store"
)

// ErrSnapshotNotFound is returned when a snapshot identifier does not
// resolve. Callers treat it as fatal to the operation using it.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store enumerates snapshots. Implementations must return package listings
// in canonical order (name, version, architecture) and never mutate them.
type Store interface {
	// Exists reports whether the snapshot identifier resolves.
	Exists(ctx context.Context, id string) (bool, error)

	// ListPackages returns the snapshot's full package listing in canonical
	// order. Returns ErrSnapshotNotFound if the identifier does not resolve.
	ListPackages(ctx context.Context, id string) ([]mirror.PackageKey, error)
}

// DBStore serves snapshots from the mirrorgate SQLite database.
type DBStore struct {
	db *store.Store
}

// NewDBStore wraps a database store as a snapshot Store.
func NewDBStore(db *store.Store) *DBStore {
	return &DBStore{db: db}
}

// Exists reports whether the named snapshot is in the database.
func (s *DBStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.db.SnapshotExists(id)
}

// ListPackages returns the snapshot's package listing from the database.
func (s *DBStore) ListPackages(ctx context.Context, id string) ([]mirror.PackageKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exists, err := s.db.SnapshotExists(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrSnapshotNotFound)
	}

	return s.db.SnapshotPackages(id)
}
