package narrative

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiffContent_EqualTreesYieldNothing(t *testing.T) {
	a := map[string]any{
		"problem": "p",
		"market":  map[string]any{"size": "large"},
	}
	b := map[string]any{
		"problem": "p",
		"market":  map[string]any{"size": "large"},
	}
	if diffs := DiffContent(a, b); diffs != nil {
		t.Fatalf("expected nil diff, got %v", diffs)
	}
}

func TestDiffContent_LeafChanges(t *testing.T) {
	a := map[string]any{"problem": "old", "solution": "same"}
	b := map[string]any{"problem": "new", "solution": "same"}

	want := []FieldDiff{
		{Field: "problem", OldValue: "old", NewValue: "new"},
	}
	if diff := cmp.Diff(want, DiffContent(a, b)); diff != "" {
		t.Fatalf("unexpected diffs (-want +got):\n%s", diff)
	}
}

func TestDiffContent_NestedAndAddedRemoved(t *testing.T) {
	a := map[string]any{
		"market":  map[string]any{"size": "large", "region": "us"},
		"removed": "gone",
	}
	b := map[string]any{
		"market": map[string]any{"size": "niche", "region": "us"},
		"added":  "here",
	}

	want := []FieldDiff{
		{Field: "added", OldValue: nil, NewValue: "here"},
		{Field: "market.size", OldValue: "large", NewValue: "niche"},
		{Field: "removed", OldValue: "gone", NewValue: nil},
	}
	if diff := cmp.Diff(want, DiffContent(a, b)); diff != "" {
		t.Fatalf("unexpected diffs (-want +got):\n%s", diff)
	}
}

func TestDiffContent_ObjectReplacedByScalar(t *testing.T) {
	a := map[string]any{"market": map[string]any{"size": "large"}}
	b := map[string]any{"market": "tbd"}

	got := DiffContent(a, b)
	if len(got) != 1 || got[0].Field != "market" {
		t.Fatalf("expected a single diff at market, got %v", got)
	}
}

func TestDiffContent_SortedPaths(t *testing.T) {
	a := map[string]any{"z": 1, "a": 1, "m": 1}
	b := map[string]any{"z": 2, "a": 2, "m": 2}

	got := DiffContent(a, b)
	order := []string{"a", "m", "z"}
	for i, field := range order {
		if got[i].Field != field {
			t.Fatalf("expected deterministic order %v, got %v", order, got)
		}
	}
}
