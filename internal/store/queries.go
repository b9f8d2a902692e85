package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
)

// Snapshot operations

// InsertSnapshot records a snapshot and its full package listing in one
// transaction. Snapshots are immutable: inserting an existing name fails.
func (s *Store) InsertSnapshot(name, description string, createdAt time.Time, keys []mirror.PackageKey) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots (name, created_at, description, package_count) VALUES (?, ?, ?, ?)`,
		name,
		createdAt.UTC().Format(time.RFC3339),
		description,
		len(keys),
	)
	if err != nil {
		return wrapQueryErr(fmt.Sprintf("failed to insert snapshot %s", name), err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO snapshot_packages (snapshot_name, package_name, version, architecture) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot package insert: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.Exec(name, key.Name, key.Version, key.Architecture); err != nil {
			return fmt.Errorf("failed to insert snapshot package %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot %s: %w", name, err)
	}

	return nil
}

// SnapshotExists reports whether a snapshot with the given name exists.
func (s *Store) SnapshotExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, wrapQueryErr(fmt.Sprintf("failed to check snapshot %s", name), err)
	}
	return count > 0, nil
}

// GetSnapshot retrieves a snapshot by name.
func (s *Store) GetSnapshot(name string) (*Snapshot, error) {
	query := `
		SELECT name, created_at, description, package_count
		FROM snapshots
		WHERE name = ?
	`

	var snapshot Snapshot
	var createdAt string

	err := s.db.QueryRow(query, name).Scan(
		&snapshot.Name,
		&createdAt,
		&snapshot.Description,
		&snapshot.PackageCount,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s not found", name)
	}
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get snapshot %s", name), err)
	}

	snapshot.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for snapshot %s: %w", name, err)
	}

	return &snapshot, nil
}

// ListSnapshots returns all snapshots ordered by creation time (newest first).
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	query := `
		SELECT name, created_at, description, package_count
		FROM snapshots
		ORDER BY created_at DESC, name DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapQueryErr("failed to list snapshots", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var snapshot Snapshot
		var createdAt string

		if err := rows.Scan(&snapshot.Name, &createdAt, &snapshot.Description, &snapshot.PackageCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		snapshot.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for snapshot %s: %w", snapshot.Name, err)
		}

		snapshots = append(snapshots, &snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// SnapshotPackages returns the full package listing of a snapshot in
// canonical order (name, version, architecture).
func (s *Store) SnapshotPackages(name string) ([]mirror.PackageKey, error) {
	query := `
		SELECT package_name, version, architecture
		FROM snapshot_packages
		WHERE snapshot_name = ?
		ORDER BY package_name, version, architecture
	`

	rows, err := s.db.Query(query, name)
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get packages for snapshot %s", name), err)
	}
	defer rows.Close()

	var keys []mirror.PackageKey
	for rows.Next() {
		var key mirror.PackageKey
		if err := rows.Scan(&key.Name, &key.Version, &key.Architecture); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot package row: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot packages: %w", err)
	}

	return keys, nil
}

// Scan record operations

// AppendScanRecord appends one scan record to the history. Appends are
// idempotent on (package, version, scanned_at, scanner): re-ingesting the
// same scanner output file is a no-op. Returns true if a row was inserted.
func (s *Store) AppendScanRecord(rec *mirror.ScanRecord) (bool, error) {
	query := `
		INSERT OR IGNORE INTO scan_records
		(package_name, package_version, scanned_at, status, cve_count, cvss_max, scanner, source_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		rec.PackageName,
		rec.PackageVersion,
		rec.ScannedAt.UTC().Format(time.RFC3339),
		string(rec.Status),
		rec.CVECount,
		rec.CVSSMax,
		rec.Scanner,
		rec.SourceFile,
	)
	if err != nil {
		return false, wrapQueryErr(fmt.Sprintf("failed to append scan record for %s", rec.PackageName), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// ScanRecordsForPackage returns the scan history for a package name, newest
// first.
func (s *Store) ScanRecordsForPackage(name string) ([]*mirror.ScanRecord, error) {
	query := `
		SELECT package_name, package_version, scanned_at, status, cve_count, cvss_max, scanner, source_file
		FROM scan_records
		WHERE package_name = ?
		ORDER BY scanned_at DESC, id DESC
	`

	rows, err := s.db.Query(query, name)
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get scan records for %s", name), err)
	}
	defer rows.Close()

	var records []*mirror.ScanRecord
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan records: %w", err)
	}

	return records, nil
}

// LatestScanRecord returns the most recent scan record for the exact
// (name, version) pair, or nil if the version has never been scanned.
// "Most recent" is the maximum scanned_at; the index on
// (package_name, package_version) keeps this a point lookup even as the
// history grows without bound.
func (s *Store) LatestScanRecord(name, version string) (*mirror.ScanRecord, error) {
	query := `
		SELECT package_name, package_version, scanned_at, status, cve_count, cvss_max, scanner, source_file
		FROM scan_records
		WHERE package_name = ? AND package_version = ?
		ORDER BY scanned_at DESC, id DESC
		LIMIT 1
	`

	row := s.db.QueryRow(query, name, version)
	rec, err := scanRecordRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapQueryErr(fmt.Sprintf("failed to get latest scan for %s %s", name, version), err)
	}

	return rec, nil
}

// GetScanStats summarizes the scan record history. Fresh counts records with
// scanned_at at or after freshSince.
func (s *Store) GetScanStats(freshSince time.Time) (*ScanStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'blocked' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status NOT IN ('approved', 'blocked') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN scanned_at >= ? THEN 1 ELSE 0 END), 0)
		FROM scan_records
	`

	var stats ScanStats
	err := s.db.QueryRow(query, freshSince.UTC().Format(time.RFC3339)).Scan(
		&stats.Total,
		&stats.Approved,
		&stats.Blocked,
		&stats.Errors,
		&stats.Fresh,
	)
	if err != nil {
		return nil, wrapQueryErr("failed to get scan stats", err)
	}

	return &stats, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordRow(row rowScanner) (*mirror.ScanRecord, error) {
	var rec mirror.ScanRecord
	var scannedAt string
	var status string

	err := row.Scan(
		&rec.PackageName,
		&rec.PackageVersion,
		&scannedAt,
		&status,
		&rec.CVECount,
		&rec.CVSSMax,
		&rec.Scanner,
		&rec.SourceFile,
	)
	if err != nil {
		return nil, err
	}

	rec.ScannedAt, err = time.Parse(time.RFC3339, scannedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scanned_at for %s: %w", rec.PackageName, err)
	}
	rec.Status = mirror.ScanStatus(status)

	return &rec, nil
}
