package harness

import (
	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/logfields"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
	"git.home.luguber.info/inful/nbharness/internal/sentinel"
)

// Regenerate writes a copy of final to path. With dropSentinel set the
// trailing sentinel cell is removed first; a notebook that does not end in
// the sentinel is refused and path is left untouched. final itself is not
// modified.
func Regenerate(final *notebook.Notebook, path string, dropSentinel bool) error {
	out := final.Clone()
	if dropSentinel && !sentinel.Strip(out) {
		return errors.InternalError("executed notebook does not end with the sentinel cell").
			WithContext(logfields.KeyPath, path).
			Build()
	}
	return notebook.Write(path, out)
}
