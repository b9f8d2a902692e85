package snapshots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
)

// ParseListing reads a plain-text package listing: one canonical
// "name_version_arch" key per line. Blank lines and "#" comments are
// skipped. A malformed key is an error, since a listing is a snapshot's source
// of truth, so silently dropping entries would shrink the package set.
func ParseListing(r io.Reader) ([]mirror.PackageKey, error) {
	var keys []mirror.PackageKey

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, err := mirror.ParseKey(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		keys = append(keys, key)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	mirror.SortKeys(keys)
	return keys, nil
}

// ParseListingFile reads a package listing from disk.
func ParseListingFile(path string) ([]mirror.PackageKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open listing %s: %w", path, err)
	}
	defer f.Close()

	keys, err := ParseListing(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return keys, nil
}

// ListingDir serves snapshots from a directory of listing files, one
// "<snapshot-name>.list" file per snapshot. This is the adapter for mirror
// tools that only expose textual package listings; it keeps the gate engine
// itself format-agnostic.
type ListingDir struct {
	dir string
}

// NewListingDir creates a listing-directory snapshot store.
func NewListingDir(dir string) *ListingDir {
	return &ListingDir{dir: dir}
}

func (l *ListingDir) path(id string) string {
	return filepath.Join(l.dir, id+".list")
}

// Exists reports whether a listing file for the snapshot is present.
func (l *ListingDir) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(l.path(id))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat listing for %s: %w", id, err)
	}
	return true, nil
}

// ListPackages parses the snapshot's listing file.
func (l *ListingDir) ListPackages(ctx context.Context, id string) ([]mirror.PackageKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := ParseListingFile(l.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, err
	}
	return keys, nil
}
