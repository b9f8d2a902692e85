// Package ingest reads the external scanner's JSON result files and
// appends them to the scan record store. The scanner owns the files; this
// package only parses and copies them into the indexed history, where
// scanned_at becomes the authoritative timestamp (file modification times
// are never trusted).
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
)

// Appender receives parsed scan records. *store.Store satisfies it.
type Appender interface {
	// AppendScanRecord appends one record; returns false if an identical
	// record was already present.
	AppendScanRecord(rec *mirror.ScanRecord) (bool, error)
}

// Summary reports one ingestion pass.
type Summary struct {
	Ingested  int // new records appended
	Duplicate int // files whose record was already in the store
	Malformed int // files skipped as unreadable or unparsable
}

// Ingestor parses scanner result files into the scan record store.
type Ingestor struct {
	records Appender
	log     *slog.Logger
}

// New creates an Ingestor appending to the given store.
func New(records Appender, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{records: records, log: log}
}

// scanResult mirrors the scanner's JSON output document, one file per
// package per scan event.
type scanResult struct {
	PackageName    string  `json:"package_name"`
	PackageVersion string  `json:"package_version"`
	Status         string  `json:"status"`
	ScanDate       string  `json:"scan_date"`
	ScannerType    string  `json:"scanner_type"`
	CVECount       int     `json:"cve_count"`
	CVSSMax        float64 `json:"cvss_max"`
}

// scanDateFormats are tried in order when parsing scan_date. Scanners that
// log local time without a zone fall back to the second form.
var scanDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseResultFile parses one scanner result file into a ScanRecord.
func ParseResultFile(path string) (*mirror.ScanRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan result %s: %w", path, err)
	}

	var result scanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse scan result %s: %w", path, err)
	}

	if result.PackageName == "" {
		return nil, fmt.Errorf("scan result %s: missing package_name", path)
	}

	status, err := mirror.ParseScanStatus(result.Status)
	if err != nil {
		return nil, fmt.Errorf("scan result %s: %w", path, err)
	}

	var scannedAt time.Time
	parsed := false
	for _, format := range scanDateFormats {
		if t, perr := time.Parse(format, result.ScanDate); perr == nil {
			scannedAt = t
			parsed = true
			break
		}
	}
	if !parsed {
		return nil, fmt.Errorf("scan result %s: invalid scan_date %q", path, result.ScanDate)
	}

	return &mirror.ScanRecord{
		PackageName:    result.PackageName,
		PackageVersion: result.PackageVersion,
		ScannedAt:      scannedAt.UTC(),
		Status:         status,
		CVECount:       result.CVECount,
		CVSSMax:        result.CVSSMax,
		Scanner:        result.ScannerType,
		SourceFile:     filepath.Base(path),
	}, nil
}

// IngestFile parses and appends a single result file. Malformed files are
// counted, logged, and skipped, never fatal: dropping a record only
// biases toward rescanning.
func (in *Ingestor) IngestFile(path string, sum *Summary) {
	rec, err := ParseResultFile(path)
	if err != nil {
		in.log.Warn("skipping malformed scan result", "file", path, "error", err)
		sum.Malformed++
		return
	}

	inserted, err := in.records.AppendScanRecord(rec)
	if err != nil {
		in.log.Warn("failed to append scan record", "file", path, "error", err)
		sum.Malformed++
		return
	}

	if inserted {
		in.log.Debug("ingested scan record",
			"package", rec.PackageName,
			"version", rec.PackageVersion,
			"status", rec.Status,
			"scanned_at", rec.ScannedAt,
		)
		sum.Ingested++
	} else {
		sum.Duplicate++
	}
}

// IngestDir ingests every *.json file in dir, in sorted filename order.
func (in *Ingestor) IngestDir(ctx context.Context, dir string) (*Summary, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scan results in %s: %w", dir, err)
	}
	sort.Strings(matches)

	sum := &Summary{}
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in.IngestFile(path, sum)
	}

	in.log.Info("scan result ingestion complete",
		"dir", dir,
		"ingested", sum.Ingested,
		"duplicate", sum.Duplicate,
		"malformed", sum.Malformed,
	)

	return sum, nil
}
