package nbdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nbharness/internal/notebook"
)

func executedPair(t *testing.T) (*notebook.Notebook, *notebook.Notebook) {
	t.Helper()
	base := notebook.New()
	base.Metadata["language_info"] = map[string]any{"name": "python", "version": "3.10.4"}
	base.Append(
		&notebook.Cell{Type: notebook.MarkdownCell, Source: "# Title", Metadata: map[string]any{}},
		notebook.NewCodeCell("import numpy as np"),
		notebook.NewCodeCell("print('SENTINEL REACHED')"),
	)

	executed := base.Clone()
	one, two := 1, 2
	executed.Cells[1].ExecutionCount = &one
	executed.Cells[2].ExecutionCount = &two
	executed.Cells[2].Outputs = []notebook.Output{
		{"output_type": "stream", "name": "stdout", "text": "SENTINEL REACHED\n"},
	}
	executed.Metadata["language_info"] = map[string]any{"name": "python", "version": "3.11.2"}
	return base, executed
}

func TestValues_Maps(t *testing.T) {
	d := Values(
		map[string]any{"keep": 1, "drop": 2, "swap": "a", "nested": map[string]any{"x": 1}},
		map[string]any{"keep": 1, "swap": []any{"b"}, "nested": map[string]any{"x": 2}, "new": true},
	)

	require.Len(t, d, 4)
	assert.Equal(t, Entry{Op: OpRemove, Key: "drop"}, d[0])
	assert.Equal(t, OpPatch, d[1].Op)
	assert.Equal(t, "nested", d[1].Key)
	assert.Equal(t, Diff{{Op: OpReplace, Key: "x", Value: 2}}, d[1].Diff)
	assert.Equal(t, Entry{Op: OpAdd, Key: "new", Value: true}, d[2])
	assert.Equal(t, Entry{Op: OpReplace, Key: "swap", Value: []any{"b"}}, d[3])
}

func TestValues_Sequences(t *testing.T) {
	tests := []struct {
		name string
		a, b []any
		want Diff
	}{
		{"equal", []any{1, 2}, []any{1, 2}, nil},
		{"append", []any{}, []any{"x"}, Diff{{Op: OpAddRange, Key: 0, ValueList: []any{"x"}}}},
		{"remove middle", []any{"a", "b", "c"}, []any{"a", "c"}, Diff{{Op: OpRemoveRange, Key: 1, Length: 1}}},
		{"scalar swap", []any{"a", "b"}, []any{"a", "z"}, Diff{
			{Op: OpAddRange, Key: 1, ValueList: []any{"z"}},
			{Op: OpRemoveRange, Key: 1, Length: 1},
		}},
		{"patch element", []any{map[string]any{"k": 1}}, []any{map[string]any{"k": 2}}, Diff{
			{Op: OpPatch, Key: 0, Diff: Diff{{Op: OpReplace, Key: "k", Value: 2}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Values(tt.a, tt.b))
		})
	}
}

func TestValues_ScalarsHaveNoDiff(t *testing.T) {
	assert.Nil(t, Values("a", "b"))
	assert.Nil(t, Values(map[string]any{}, []any{}))
}

func TestNotebooks_FilteredTreeShape(t *testing.T) {
	base, executed := executedPair(t)

	raw := Notebooks(base, executed)
	filtered := Filter(raw, DefaultIgnore)

	tree := filtered.Tree()
	require.Len(t, tree, 1, "only the cells patch should survive: %v", tree)

	cells := tree[0].(map[string]any)
	assert.Equal(t, "patch", cells["op"])
	assert.Equal(t, "cells", cells["key"])

	perCell := cells["diff"].([]any)
	require.Len(t, perCell, 1, "execution counts are ignored")
	sentinel := perCell[0].(map[string]any)
	assert.Equal(t, 2, sentinel["key"])

	fields := sentinel["diff"].([]any)
	require.Len(t, fields, 1)
	outputs := fields[0].(map[string]any)
	assert.Equal(t, "outputs", outputs["key"])

	entries := outputs["diff"].([]any)
	require.Len(t, entries, 1)
	add := entries[0].(map[string]any)
	assert.Equal(t, "addrange", add["op"])
	valuelist := add["valuelist"].([]any)
	require.Len(t, valuelist, 1)
	assert.Equal(t, "SENTINEL REACHED\n", valuelist[0].(map[string]any)["text"])
}

func TestFilter(t *testing.T) {
	d := Diff{
		{Op: OpPatch, Key: "cells", Diff: Diff{
			{Op: OpPatch, Key: 0, Diff: Diff{
				{Op: OpPatch, Key: "metadata", Diff: Diff{{Op: OpAdd, Key: "tags", Value: []any{}}}},
				{Op: OpReplace, Key: "execution_count", Value: 3},
			}},
			{Op: OpPatch, Key: 1, Diff: Diff{{Op: OpReplace, Key: "source", Value: "x"}}},
		}},
		{Op: OpAdd, Key: "nbformat_minor", Value: 5},
	}

	got := Filter(d, []string{"/cells/*/metadata", "/cells/*/execution_count", "", "/nbformat_minor"})

	want := Diff{
		{Op: OpPatch, Key: "cells", Diff: Diff{
			{Op: OpPatch, Key: 1, Diff: Diff{{Op: OpReplace, Key: "source", Value: "x"}}},
		}},
	}
	assert.Equal(t, want, got)
	assert.Len(t, d[0].Diff, 2, "input is not mutated")
	assert.Equal(t, d, Filter(d, []string{"/"}), "root pattern matches nothing")
}
