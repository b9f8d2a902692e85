package gate

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/mirrorgate/internal/mirror"
)

func TestFormatReport(t *testing.T) {
	prev := key("curl", "7.0", "amd64")
	res := &DiffResult{
		OldSnapshot: "old",
		NewSnapshot: "new",
		Changes: ChangeSet{
			{Key: key("curl", "7.1", "amd64"), Kind: ChangeChanged, Previous: &prev},
			{Key: key("vim", "9.0", "amd64"), Kind: ChangeAdded},
		},
		Removed: []mirror.PackageKey{key("oldpkg", "1.0", "amd64")},
	}

	got := FormatReport(res)
	want := "!curl_7.0_amd64 -> !curl_7.1_amd64\n" +
		"+vim_9.0_amd64\n" +
		"-oldpkg_1.0_amd64\n"

	if got != want {
		t.Errorf("FormatReport() = %q, want %q", got, want)
	}
}

func TestFormatKeyList(t *testing.T) {
	cs := ChangeSet{
		{Key: key("curl", "7.1", "amd64"), Kind: ChangeChanged},
		{Key: key("vim", "9.0", "amd64"), Kind: ChangeAdded},
	}

	got := FormatKeyList(cs)
	if got != "curl_7.1_amd64\nvim_9.0_amd64\n" {
		t.Errorf("FormatKeyList() = %q", got)
	}

	if FormatKeyList(nil) != "" {
		t.Error("FormatKeyList(nil) should be empty")
	}
}

func TestFormatCandidateList(t *testing.T) {
	candidates := []Candidate{
		{Key: key("libssl", "3.0", "amd64"), Reason: ReasonStale},
		{Key: key("newpkg", "1.0", "amd64"), Reason: ReasonNeverScanned},
	}

	got := FormatCandidateList(candidates)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 || lines[0] != "libssl_3.0_amd64" || lines[1] != "newpkg_1.0_amd64" {
		t.Errorf("FormatCandidateList() = %q", got)
	}
}
