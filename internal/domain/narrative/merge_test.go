package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEdits_ReappliesFounderEdits(t *testing.T) {
	content := map[string]any{
		"problem":  "generated problem",
		"solution": "generated solution",
		"market": map[string]any{
			"size": "large",
		},
	}
	edits := []Edit{
		{Field: "problem", Value: "founder problem", Source: SourceFounder},
		{Field: "market.size", Value: "niche", Source: SourceFounder},
	}

	merged, applied := MergeEdits(content, edits)
	assert.Equal(t, "founder problem", merged["problem"])
	assert.Equal(t, "niche", merged["market"].(map[string]any)["size"])
	assert.Equal(t, "generated solution", merged["solution"])
	assert.Len(t, applied, 2)
}

func TestMergeEdits_IgnoresGeneratedEdits(t *testing.T) {
	content := map[string]any{"problem": "generated"}
	edits := []Edit{
		{Field: "problem", Value: "machine", Source: SourceGeneration},
	}

	merged, applied := MergeEdits(content, edits)
	assert.Equal(t, "generated", merged["problem"])
	assert.Empty(t, applied)
}

func TestMergeEdits_SkipsEditsWhoseParentVanished(t *testing.T) {
	content := map[string]any{
		"problem": "generated",
	}
	edits := []Edit{
		{Field: "market.size", Value: "niche", Source: SourceFounder},
		{Field: "problem", Value: "founder", Source: SourceFounder},
	}

	merged, applied := MergeEdits(content, edits)
	require.Len(t, applied, 1, "the edit under the missing parent is dropped")
	assert.Equal(t, "problem", applied[0].Field)
	assert.Equal(t, "founder", merged["problem"])
	assert.NotContains(t, merged, "market", "skipped edits never create structure")
}

func TestSetExistingPath(t *testing.T) {
	content := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1},
		},
		"leaf": "x",
	}

	assert.True(t, setExistingPath(content, "a.b.c", 2))
	assert.Equal(t, 2, content["a"].(map[string]any)["b"].(map[string]any)["c"])

	// The final segment may be new as long as every parent exists.
	assert.True(t, setExistingPath(content, "a.b.d", "new"))

	assert.False(t, setExistingPath(content, "a.x.c", 3), "missing parent")
	assert.False(t, setExistingPath(content, "leaf.sub", 3), "parent is not an object")
	assert.False(t, setExistingPath(content, "", 3))
}

func TestLookupPath(t *testing.T) {
	content := map[string]any{
		"a":   map[string]any{"b": "deep"},
		"top": "shallow",
	}

	val, ok := lookupPath(content, "a.b")
	require.True(t, ok)
	assert.Equal(t, "deep", val)

	val, ok = lookupPath(content, "top")
	require.True(t, ok)
	assert.Equal(t, "shallow", val)

	_, ok = lookupPath(content, "a.missing")
	assert.False(t, ok)
	_, ok = lookupPath(content, "top.sub")
	assert.False(t, ok)
	_, ok = lookupPath(content, "")
	assert.False(t, ok)
}

func TestFounderEdits(t *testing.T) {
	history := []Edit{
		{Field: "a", Source: SourceFounder},
		{Field: "b", Source: SourceGeneration},
		{Field: "c", Source: SourceFounder},
	}
	kept := founderEdits(history)
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].Field)
	assert.Equal(t, "c", kept[1].Field)
}
