// Package mirror defines the core domain types shared across mirrorgate:
// package identities, scan records, and their canonical string forms.
package mirror

import (
	"fmt"
	"sort"
	"strings"
)

// PackageKey identifies one package version in the mirror. Two keys are
// equal iff name, version, and architecture all match exactly.
type PackageKey struct {
	Name         string
	Version      string
	Architecture string
}

// String returns the canonical aptly-style key form "name_version_arch".
func (k PackageKey) String() string {
	return k.Name + "_" + k.Version + "_" + k.Architecture
}

// Less orders keys by name, then version, then architecture. This is the
// stable output order used for every list mirrorgate emits.
func (k PackageKey) Less(other PackageKey) bool {
	if k.Name != other.Name {
		return k.Name < other.Name
	}
	if k.Version != other.Version {
		return k.Version < other.Version
	}
	return k.Architecture < other.Architecture
}

// ParseKey parses a canonical "name_version_arch" key. Debian package names
// and architectures never contain underscores, so the first segment is the
// name, the last is the architecture, and everything between is the version.
func ParseKey(s string) (PackageKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) < 3 {
		return PackageKey{}, fmt.Errorf("invalid package key %q: want name_version_arch", s)
	}

	key := PackageKey{
		Name:         parts[0],
		Version:      strings.Join(parts[1:len(parts)-1], "_"),
		Architecture: parts[len(parts)-1],
	}

	if key.Name == "" || key.Version == "" || key.Architecture == "" {
		return PackageKey{}, fmt.Errorf("invalid package key %q: empty field", s)
	}

	return key, nil
}

// SortKeys sorts a slice of keys in place into canonical order.
func SortKeys(keys []PackageKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
}
