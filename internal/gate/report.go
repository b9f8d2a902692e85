package gate

import (
	"fmt"
	"strings"
)

// FormatReport renders a diff result in the textual report format consumed
// by the surrounding shell tooling:
//
//	+name_version_arch          added
//	!old_key -> !new_key        changed
//	-name_version_arch          removed
//
// The ChangeSet corresponds to the "+" and "!" lines only.
func FormatReport(res *DiffResult) string {
	var sb strings.Builder

	for _, c := range res.Changes {
		switch c.Kind {
		case ChangeChanged:
			fmt.Fprintf(&sb, "!%s -> !%s\n", c.Previous.String(), c.Key.String())
		default:
			fmt.Fprintf(&sb, "+%s\n", c.Key.String())
		}
	}
	for _, key := range res.Removed {
		fmt.Fprintf(&sb, "-%s\n", key.String())
	}

	return sb.String()
}

// FormatKeyList renders one canonical key per line, the format handed to
// the external scanner as its work list.
func FormatKeyList(cs ChangeSet) string {
	var sb strings.Builder
	for _, c := range cs {
		sb.WriteString(c.Key.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatCandidateList renders rescan candidates one key per line.
func FormatCandidateList(candidates []Candidate) string {
	var sb strings.Builder
	for _, c := range candidates {
		sb.WriteString(c.Key.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
