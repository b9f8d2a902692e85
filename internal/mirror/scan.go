package mirror

import (
	"fmt"
	"time"
)

// ScanStatus is the outcome of one vulnerability scan.
type ScanStatus string

const (
	StatusApproved ScanStatus = "approved"
	StatusBlocked  ScanStatus = "blocked"
	StatusError    ScanStatus = "error"
)

// ParseScanStatus validates a status string from scanner output.
func ParseScanStatus(s string) (ScanStatus, error) {
	switch ScanStatus(s) {
	case StatusApproved, StatusBlocked, StatusError:
		return ScanStatus(s), nil
	}
	return "", fmt.Errorf("unknown scan status %q", s)
}

// ScanRecord is the result of scanning one package version at one point in
// time. Records are append-only: the scanner writes them, mirrorgate only
// reads and selects among them. ScannedAt is the authoritative logical
// timestamp; filesystem metadata is never consulted.
type ScanRecord struct {
	PackageName    string
	PackageVersion string
	ScannedAt      time.Time
	Status         ScanStatus
	CVECount       int
	CVSSMax        float64
	Scanner        string // e.g. "trivy"
	SourceFile     string // scanner output file this record was ingested from
}

// Key returns the package key the record applies to. Scanner output does not
// carry an architecture, so the field is left empty; freshness matching is
// keyed on (name, version).
func (r *ScanRecord) Key() PackageKey {
	return PackageKey{Name: r.PackageName, Version: r.PackageVersion}
}

// Age returns how long ago the record was produced relative to now.
func (r *ScanRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.ScannedAt)
}
