package harness

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
)

const executedSuffix = ".executed" + notebook.Extension

// Locate returns the absolute path of <dir>/<name>.ipynb.
func Locate(dir, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", errors.ValidationError("invalid tutorial name").
			WithContext("tutorial", name).Build()
	}
	path, err := filepath.Abs(filepath.Join(dir, name+notebook.Extension))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "cannot resolve tutorial path").
			WithContext("tutorial", name).Build()
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFoundError("tutorial notebook not found").
				WithCause(err).
				WithContext("tutorial", name).
				WithContext("path", path).Build()
		}
		return "", errors.WrapError(err, errors.CategoryFileSystem, "cannot stat tutorial").
			WithContext("path", path).Build()
	}
	if info.IsDir() {
		return "", errors.NotFoundError("tutorial path is a directory").
			WithContext("path", path).Build()
	}
	return path, nil
}

// Discover lists the tutorial names in dir in lexical order. Hidden files
// and executor output are skipped.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("tutorials directory not found").
				WithCause(err).WithContext("path", dir).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot read tutorials directory").
			WithContext("path", dir).Build()
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || strings.HasSuffix(n, executedSuffix) {
			continue
		}
		if strings.HasSuffix(n, notebook.Extension) {
			names = append(names, strings.TrimSuffix(n, notebook.Extension))
		}
	}
	sort.Strings(names)
	return names, nil
}
