// Package output renders mirrorgate results as terminal tables. All
// tables use ASCII layout with optional ANSI color, and sort rows so the
// same inputs always print the same text.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/mirrorgate/internal/gate"
	"github.com/blackwell-systems/mirrorgate/internal/store"
)

// ANSI color codes for status display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// RenderCandidateTable renders rescan candidates with their staleness.
func RenderCandidateTable(candidates []gate.Candidate, now time.Time) string {
	if len(candidates) == 0 {
		return "No packages need rescanning.\n"
	}

	color := IsColorEnabled()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-20s %-8s %-14s %s\n",
		"Package", "Version", "Arch", "Reason", "Last Scan"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, c := range candidates {
		lastScan := "never"
		if c.Reason == gate.ReasonStale {
			lastScan = humanize.RelTime(now.Add(-c.Age), now, "ago", "from now")
		}

		reason := string(c.Reason)
		if color {
			if c.Reason == gate.ReasonNeverScanned {
				reason = colorRed + reason + colorReset
			} else {
				reason = colorYellow + reason + colorReset
			}
		}

		sb.WriteString(fmt.Sprintf("%-24s %-20s %-8s %-14s %s\n",
			truncate(c.Key.Name, 24),
			truncate(c.Key.Version, 20),
			c.Key.Architecture,
			reason,
			lastScan))
	}

	return sb.String()
}

// RenderDiffSummary renders a one-screen summary of a snapshot comparison.
func RenderDiffSummary(res *gate.DiffResult) string {
	var added, changed int
	for _, c := range res.Changes {
		if c.Kind == gate.ChangeAdded {
			added++
		} else {
			changed++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Snapshot diff: %s -> %s\n", res.OldSnapshot, res.NewSnapshot))
	sb.WriteString(fmt.Sprintf("  added:   %d\n", added))
	sb.WriteString(fmt.Sprintf("  changed: %d\n", changed))
	sb.WriteString(fmt.Sprintf("  removed: %d (no scan required)\n", len(res.Removed)))
	return sb.String()
}

// RenderSnapshotTable renders the snapshot inventory.
func RenderSnapshotTable(snapshots []*store.Snapshot) string {
	if len(snapshots) == 0 {
		return "No snapshots imported.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-28s %-10s %-20s %s\n",
		"Snapshot", "Packages", "Imported", "Description"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, snap := range snapshots {
		sb.WriteString(fmt.Sprintf("%-28s %-10d %-20s %s\n",
			truncate(snap.Name, 28),
			snap.PackageCount,
			humanize.Time(snap.CreatedAt),
			snap.Description))
	}

	return sb.String()
}

// RenderScanStats renders the scan history summary.
func RenderScanStats(stats *store.ScanStats, maxAge time.Duration) string {
	color := IsColorEnabled()

	approved := fmt.Sprintf("%d", stats.Approved)
	blocked := fmt.Sprintf("%d", stats.Blocked)
	if color {
		approved = colorGreen + approved + colorReset
		if stats.Blocked > 0 {
			blocked = colorRed + blocked + colorReset
		}
	}

	var sb strings.Builder
	sb.WriteString("Scan record history:\n")
	sb.WriteString(fmt.Sprintf("  total:    %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("  approved: %s\n", approved))
	sb.WriteString(fmt.Sprintf("  blocked:  %s\n", blocked))
	sb.WriteString(fmt.Sprintf("  errors:   %d\n", stats.Errors))
	sb.WriteString(fmt.Sprintf("  fresh:    %d (within %s)\n", stats.Fresh, maxAge))
	return sb.String()
}

// truncate shortens a string to maxLen, appending "…" when cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return s[:maxLen]
	}
	return s[:maxLen-1] + "…"
}
