// Package nbdiff computes structural diffs between notebooks.
//
// A diff is a list of entries in the shape nbdime uses: mapping keys are
// patched, added, removed or replaced; sequence positions are patched or
// have ranges inserted and removed. Sequence keys always refer to positions
// in the base value.
package nbdiff

import (
	"reflect"
	"sort"

	"git.home.luguber.info/inful/nbharness/internal/notebook"
)

// Op names a diff operation.
type Op string

const (
	OpAdd         Op = "add"
	OpRemove      Op = "remove"
	OpReplace     Op = "replace"
	OpPatch       Op = "patch"
	OpAddRange    Op = "addrange"
	OpRemoveRange Op = "removerange"
)

// Entry is one diff operation. Key is a string for mappings and an int for
// sequences.
type Entry struct {
	Op        Op
	Key       any
	Value     any
	ValueList []any
	Length    int
	Diff      Diff
}

// Diff is an ordered list of entries against a single base value.
type Diff []Entry

// Notebooks diffs the generic forms of two notebooks.
func Notebooks(base, remote *notebook.Notebook) Diff {
	return Values(base.Generic(), remote.Generic())
}

// Values diffs two generic JSON containers. Mismatched or scalar top-level
// values have no keyed representation and yield nil.
func Values(base, remote any) Diff {
	switch a := base.(type) {
	case map[string]any:
		if b, ok := remote.(map[string]any); ok {
			return diffMaps(a, b)
		}
	case []any:
		if b, ok := remote.([]any); ok {
			return diffSequences(a, b)
		}
	}
	return nil
}

func diffMaps(a, b map[string]any) Diff {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var d Diff
	for _, k := range keys {
		av, inA := a[k]
		bv, inB := b[k]
		switch {
		case !inB:
			d = append(d, Entry{Op: OpRemove, Key: k})
		case !inA:
			d = append(d, Entry{Op: OpAdd, Key: k, Value: bv})
		case reflect.DeepEqual(av, bv):
		case sameContainer(av, bv):
			if sub := Values(av, bv); len(sub) > 0 {
				d = append(d, Entry{Op: OpPatch, Key: k, Diff: sub})
			}
		default:
			d = append(d, Entry{Op: OpReplace, Key: k, Value: bv})
		}
	}
	return d
}

func diffSequences(a, b []any) Diff {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && reflect.DeepEqual(a[prefix], b[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		reflect.DeepEqual(a[len(a)-1-suffix], b[len(b)-1-suffix]) {
		suffix++
	}
	midA := a[prefix : len(a)-suffix]
	midB := b[prefix : len(b)-suffix]

	var d Diff
	paired := min(len(midA), len(midB))
	for i := 0; i < paired; i++ {
		key := prefix + i
		if sameContainer(midA[i], midB[i]) {
			if sub := Values(midA[i], midB[i]); len(sub) > 0 {
				d = append(d, Entry{Op: OpPatch, Key: key, Diff: sub})
			}
			continue
		}
		d = append(d,
			Entry{Op: OpAddRange, Key: key, ValueList: []any{midB[i]}},
			Entry{Op: OpRemoveRange, Key: key, Length: 1},
		)
	}
	switch {
	case len(midA) > paired:
		d = append(d, Entry{Op: OpRemoveRange, Key: prefix + paired, Length: len(midA) - paired})
	case len(midB) > paired:
		d = append(d, Entry{Op: OpAddRange, Key: prefix + paired, ValueList: midB[paired:]})
	}
	return d
}

func sameContainer(a, b any) bool {
	switch a.(type) {
	case map[string]any:
		_, ok := b.(map[string]any)
		return ok
	case []any:
		_, ok := b.([]any)
		return ok
	}
	return false
}

// Tree converts d to plain maps and slices, with nbdime's field names, for
// path queries and serialization.
func (d Diff) Tree() []any {
	out := make([]any, len(d))
	for i, e := range d {
		m := map[string]any{"op": string(e.Op), "key": e.Key}
		switch e.Op {
		case OpAdd, OpReplace:
			m["value"] = e.Value
		case OpAddRange:
			m["valuelist"] = e.ValueList
		case OpRemoveRange:
			m["length"] = e.Length
		case OpPatch:
			m["diff"] = e.Diff.Tree()
		}
		out[i] = m
	}
	return out
}
