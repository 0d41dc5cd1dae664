package regression

import "git.home.luguber.info/inful/nbharness/internal/notebook"

// haltAtFirstError makes final look as if execution stopped at the first
// cell that produced an unexpected error output: every later cell is reset
// to its state in initial. Cells tagged raises-exception may fail without
// stopping execution. It returns the index of the halting cell, or -1.
func haltAtFirstError(initial, final *notebook.Notebook) int {
	failed := -1
	for i, c := range final.Cells {
		if hasErrorOutput(c) {
			failed = i
			break
		}
	}
	if failed < 0 {
		return -1
	}
	for i := failed + 1; i < len(final.Cells) && i < len(initial.Cells); i++ {
		final.Cells[i] = initial.Cells[i].Clone()
	}
	return failed
}

// raisesExceptionTag marks a cell that is expected to fail.
const raisesExceptionTag = "raises-exception"

func hasErrorOutput(c *notebook.Cell) bool {
	if hasTag(c, raisesExceptionTag) {
		return false
	}
	for _, o := range c.Outputs {
		if o.OutputType() == "error" {
			return true
		}
	}
	return false
}

func hasTag(c *notebook.Cell, tag string) bool {
	switch tags := c.Metadata["tags"].(type) {
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok && s == tag {
				return true
			}
		}
	case []string:
		for _, s := range tags {
			if s == tag {
				return true
			}
		}
	}
	return false
}
