// Package docconf renders the Sphinx conf.py for the tutorial docs and
// runs sphinx-build.
//
// The only derived values are the release label and date, read from git.
// Lookup failures never surface: they degrade to UnknownVersion and
// UnknownDate.
package docconf
