// Package sentinel proves a notebook executed to completion.
//
// A code cell printing a fixed literal is appended before execution; after
// execution the literal's stream output must appear in the structural diff.
// Its absence means a cell raised, the kernel hung or the run was cut short.
package sentinel

import (
	"github.com/ohler55/ojg/jp"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
	"git.home.luguber.info/inful/nbharness/internal/regression"
)

const (
	// Literal is the text the sentinel cell prints.
	Literal = "SENTINEL REACHED"
	// Source is the sentinel cell's code.
	Source = "print('" + Literal + "')"
	// Output is the stream text the sentinel cell produces.
	Output = Literal + "\n"
)

// outputText selects the text of every inserted output of every patched cell
// field: cells -> cell -> field -> addrange entry -> value.
var outputText = jp.MustParseString("$[*].diff[*].diff[*].diff[*].valuelist[*].text")

// Inject appends the sentinel cell to nb. Existing cells are not touched.
func Inject(nb *notebook.Notebook) {
	cell := notebook.NewCodeCell(Source)
	if !nb.SupportsCellIDs() {
		cell.ID = ""
	}
	nb.Append(cell)
}

// IsSentinel reports whether c is a sentinel cell.
func IsSentinel(c *notebook.Cell) bool {
	return c != nil && c.Type == notebook.CodeCell && string(c.Source) == Source
}

// Strip removes the trailing sentinel cell from nb and reports whether
// there was one.
func Strip(nb *notebook.Notebook) bool {
	if !IsSentinel(nb.Last()) {
		return false
	}
	nb.Pop()
	return true
}

// Found reports whether the sentinel output appears in a filtered diff tree.
func Found(tree []any) bool {
	for _, v := range outputText.Get(tree) {
		if s, ok := v.(string); ok && s == Output {
			return true
		}
	}
	return false
}

// Verify returns a verification error carrying the full diff string when the
// sentinel output is missing from result's filtered diff.
func Verify(result *regression.Result) error {
	if Found(result.FilteredTree()) {
		return nil
	}
	return errors.VerificationError(result.DiffString).
		WithContext("sentinel", Literal).
		Build()
}
