package docconf

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
)

func fakeSphinx(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "sphinx-build")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestBuild_WritesConfAndRunsSphinx(t *testing.T) {
	src := filepath.Join(t.TempDir(), "source")
	out := filepath.Join(t.TempDir(), "html")
	bin := fakeSphinx(t, `mkdir -p "$4" && echo "$1 $2" > "$4/args"`)

	require.NoError(t, Default().Build(t.Context(), &SphinxBuilder{Binary: bin}, src, out))

	conf, err := os.ReadFile(filepath.Join(src, ConfFile))
	require.NoError(t, err)
	assert.Contains(t, string(conf), `project = "CellRank"`)

	args, err := os.ReadFile(filepath.Join(out, "args"))
	require.NoError(t, err)
	assert.Equal(t, "-b html\n", string(args))
}

func TestBuild_MissingSphinxIsNotAnError(t *testing.T) {
	src := t.TempDir()
	b := &SphinxBuilder{Binary: filepath.Join(t.TempDir(), "no-sphinx")}
	require.NoError(t, Default().Build(t.Context(), b, src, t.TempDir()))
	assert.FileExists(t, filepath.Join(src, ConfFile))
}

func TestBuild_SphinxFailure(t *testing.T) {
	bin := fakeSphinx(t, "echo 'Extension error: nbsphinx' >&2\nexit 2\n")

	err := Default().Build(t.Context(), &SphinxBuilder{Binary: bin}, t.TempDir(), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDocs))
	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	output, _ := classified.Context().GetString("output")
	assert.Contains(t, output, "Extension error")
}

func TestBuild_NilBuilder(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, Default().Build(t.Context(), nil, src, t.TempDir()))
	assert.FileExists(t, filepath.Join(src, ConfFile))
}
