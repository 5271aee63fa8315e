package repoid

import (
	"testing"

	"buildsight/internal/csvsniff"
)

func previewWith(values ...string) *csvsniff.Preview {
	rows := make([]map[string]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, map[string]string{"repo": v})
	}
	return &csvsniff.Preview{Columns: []string{"repo"}, SampleRows: rows}
}

func TestExtractPartitions(t *testing.T) {
	p := previewWith("octo/hello", "bad", "/x", "y/", "a/b", "octo/hello", "  ", "a/b/c")
	got := Extract(p, "repo")

	wantWell := []string{"octo/hello", "a/b"}
	wantBad := []string{"bad", "/x", "y/", "a/b/c"}
	if len(got.WellFormed) != len(wantWell) {
		t.Fatalf("well-formed = %v, want %v", got.WellFormed, wantWell)
	}
	for i := range wantWell {
		if got.WellFormed[i] != wantWell[i] {
			t.Fatalf("well-formed = %v, want %v", got.WellFormed, wantWell)
		}
	}
	for i := range wantBad {
		if got.Malformed[i] != wantBad[i] {
			t.Fatalf("malformed = %v, want %v", got.Malformed, wantBad)
		}
	}
}

func TestExtractUnionCoversDistinctValues(t *testing.T) {
	p := previewWith("a/b", "nope", "c/d", "a/b", "nope")
	got := Extract(p, "repo")
	if len(got.WellFormed)+len(got.Malformed) != 3 {
		t.Fatalf("union size = %d, want 3 distinct values", len(got.WellFormed)+len(got.Malformed))
	}
}

func TestExtractTrimsWhitespace(t *testing.T) {
	p := previewWith("  octo/hello  ")
	got := Extract(p, "repo")
	if len(got.WellFormed) != 1 || got.WellFormed[0] != "octo/hello" {
		t.Fatalf("got %#v", got)
	}
}

func TestExtractEmptyColumn(t *testing.T) {
	p := previewWith("a/b")
	if got := Extract(p, ""); len(got.WellFormed)+len(got.Malformed) != 0 {
		t.Fatalf("want empty partition, got %#v", got)
	}
	if got := Extract(nil, "repo"); len(got.WellFormed)+len(got.Malformed) != 0 {
		t.Fatalf("want empty partition for nil preview, got %#v", got)
	}
}

func TestWellFormed(t *testing.T) {
	for s, want := range map[string]bool{
		"octo/hello": true,
		"a/b":        true,
		"ab":         false,
		"/b":         false,
		"a/":         false,
		"a/b/c":      false,
		"":           false,
	} {
		if got := WellFormed(s); got != want {
			t.Fatalf("WellFormed(%q) = %v, want %v", s, got, want)
		}
	}
}
