// Package repoid derives the repository identifiers referenced by a preview's
// mapped repository column. Only the locally held sample rows are scanned;
// full-file discovery belongs to the platform's server-side validation.
package repoid

import (
	"strings"

	"buildsight/internal/csvsniff"
)

// Partition splits the distinct non-empty values of the mapped column into
// well-formed owner/name identifiers and everything else. Order within each
// slice is first-seen order.
type Partition struct {
	WellFormed []string `json:"well_formed"`
	Malformed  []string `json:"malformed"`
}

// WellFormed reports whether s has the exact shape owner/name with both
// parts non-empty.
func WellFormed(s string) bool {
	parts := strings.Split(s, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

// Extract scans the preview's sample rows and partitions every distinct
// non-empty trimmed value of repoColumn. An empty or unknown column yields an
// empty partition.
func Extract(p *csvsniff.Preview, repoColumn string) Partition {
	out := Partition{WellFormed: []string{}, Malformed: []string{}}
	if p == nil || repoColumn == "" {
		return out
	}
	seen := make(map[string]struct{})
	for _, row := range p.SampleRows {
		v := strings.TrimSpace(row[repoColumn])
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if WellFormed(v) {
			out.WellFormed = append(out.WellFormed, v)
		} else {
			out.Malformed = append(out.Malformed, v)
		}
	}
	return out
}
