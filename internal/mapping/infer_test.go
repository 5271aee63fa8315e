package mapping

import "testing"

func TestInferPrefersExactBuildID(t *testing.T) {
	got := Infer([]string{"commit", "Build_ID", "id"})
	if got.BuildIDColumn != "Build_ID" {
		t.Fatalf("build id = %q, want Build_ID", got.BuildIDColumn)
	}
}

func TestInferSubstringMatch(t *testing.T) {
	got := Infer([]string{"the_build_id_col", "repository_full_name"})
	if got.BuildIDColumn != "the_build_id_col" {
		t.Fatalf("build id = %q", got.BuildIDColumn)
	}
	if got.RepoColumn != "repository_full_name" {
		t.Fatalf("repo = %q", got.RepoColumn)
	}
}

func TestInferPriorityOrder(t *testing.T) {
	// run_id outranks tr_build_id; id outranks both.
	got := Infer([]string{"tr_build_id", "run_id"})
	if got.BuildIDColumn != "tr_build_id" {
		// tr_build_id contains "build_id", the top candidate.
		t.Fatalf("build id = %q, want tr_build_id", got.BuildIDColumn)
	}

	got = Infer([]string{"workflow_run_id", "somecolumn"})
	if got.BuildIDColumn != "workflow_run_id" {
		t.Fatalf("build id = %q, want workflow_run_id", got.BuildIDColumn)
	}
}

func TestInferNoMatchLeavesEmpty(t *testing.T) {
	got := Infer([]string{"alpha", "beta"})
	if got.BuildIDColumn != "" || got.RepoColumn != "" {
		t.Fatalf("want empty mapping, got %#v", got)
	}
}

func TestInferScenarioIDRepoExtra(t *testing.T) {
	got := Infer([]string{"id", "repo", "extra"})
	if got.BuildIDColumn != "id" {
		t.Fatalf("build id = %q, want id", got.BuildIDColumn)
	}
	if got.RepoColumn != "repo" {
		t.Fatalf("repo = %q, want repo", got.RepoColumn)
	}
}

func TestInferDeterministic(t *testing.T) {
	cols := []string{"workflow_run_id", "gh_project_name", "duration"}
	first := Infer(cols)
	for i := 0; i < 5; i++ {
		if got := Infer(cols); got != first {
			t.Fatalf("inference not deterministic: %#v vs %#v", got, first)
		}
	}
}

func TestFieldsValid(t *testing.T) {
	cols := []string{"id", "repo"}
	cases := []struct {
		name string
		f    Fields
		want bool
	}{
		{"both mapped", Fields{BuildIDColumn: "id", RepoColumn: "repo"}, true},
		{"missing repo", Fields{BuildIDColumn: "id"}, false},
		{"unknown column", Fields{BuildIDColumn: "id", RepoColumn: "gone"}, false},
		{"empty", Fields{}, false},
	}
	for _, tc := range cases {
		if got := tc.f.Valid(cols); got != tc.want {
			t.Fatalf("%s: valid = %v, want %v", tc.name, got, tc.want)
		}
	}
}
