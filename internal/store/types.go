package store

import "time"

// Snapshot is a named, immutable package set imported from the mirror.
type Snapshot struct {
	Name         string
	CreatedAt    time.Time
	Description  string
	PackageCount int
}

// ScanStats summarizes the scan record history.
type ScanStats struct {
	Total    int
	Approved int
	Blocked  int
	Errors   int
	Fresh    int // records newer than the freshness cutoff
}
