package mirror

import (
	"testing"
	"time"
)

func TestParseScanStatus(t *testing.T) {
	for _, valid := range []string{"approved", "blocked", "error"} {
		status, err := ParseScanStatus(valid)
		if err != nil {
			t.Errorf("ParseScanStatus(%q) failed: %v", valid, err)
		}
		if string(status) != valid {
			t.Errorf("ParseScanStatus(%q) = %q", valid, status)
		}
	}

	if _, err := ParseScanStatus("passed"); err == nil {
		t.Error("ParseScanStatus should reject unknown statuses")
	}
}

func TestScanRecordAge(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	rec := &ScanRecord{ScannedAt: now.Add(-30 * time.Hour)}

	if got := rec.Age(now); got != 30*time.Hour {
		t.Errorf("Age() = %s, want 30h", got)
	}
}
