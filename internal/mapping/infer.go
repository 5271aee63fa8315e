// Package mapping guesses which preview columns carry the semantic fields the
// wizard needs (build identifier, repository name). Heuristic only; the user
// can always override the guess.
package mapping

import "strings"

// Fields is the column mapping for a dataset. Both values are names of
// columns in the current preview; empty means unmapped.
type Fields struct {
	BuildIDColumn string `json:"build_id_column"`
	RepoColumn    string `json:"repo_column"`
}

// Valid reports whether both fields are mapped to columns present in cols.
func (f Fields) Valid(cols []string) bool {
	if f.BuildIDColumn == "" || f.RepoColumn == "" {
		return false
	}
	return containsColumn(cols, f.BuildIDColumn) && containsColumn(cols, f.RepoColumn)
}

// Candidate substrings per semantic field, highest priority first. The order
// is a design parameter: "id" sits below the more specific names so a file
// with both build_id and id maps to build_id.
var (
	buildIDCandidates = []string{"build_id", "build id", "id", "workflow_run_id", "run_id", "tr_build_id"}
	repoCandidates    = []string{"repo_name", "repository", "repo", "full_name", "project", "gh_project_name", "slug"}
)

// Infer scans cols for each semantic field and returns the best guess.
// Identical column lists always produce identical guesses.
func Infer(cols []string) Fields {
	return Fields{
		BuildIDColumn: pick(cols, buildIDCandidates),
		RepoColumn:    pick(cols, repoCandidates),
	}
}

// pick walks the candidate list in priority order. Within one candidate an
// exact (case-insensitive) match beats a substring match; the first hit wins.
// The returned name keeps the column's original casing.
func pick(cols []string, candidates []string) string {
	for _, cand := range candidates {
		substr := ""
		for _, col := range cols {
			lc := strings.ToLower(strings.TrimSpace(col))
			if lc == cand {
				return col
			}
			if substr == "" && strings.Contains(lc, cand) {
				substr = col
			}
		}
		if substr != "" {
			return substr
		}
	}
	return ""
}

func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
