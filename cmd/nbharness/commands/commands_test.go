package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
)

// fakeJupyter stands in for `jupyter nbconvert`: it copies the input to the
// requested output and gives every empty code cell the sentinel's output.
const fakeJupyter = `#!/bin/sh
for a in "$@"; do
  case "$a" in
    --output-dir=*) dir="${a#--output-dir=}" ;;
    --output=*) name="${a#--output=}" ;;
  esac
  in="$a"
done
sed 's/"outputs": \[\]/"outputs": [{"name": "stdout", "output_type": "stream", "text": "SENTINEL REACHED\\n"}]/' "$in" > "$dir/$name.ipynb"
`

type cliEnv struct {
	dir    string
	config string
}

func newCLIEnv(t *testing.T, jupyterScript string) *cliEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a POSIX shell")
	}
	dir := t.TempDir()
	jupyter := filepath.Join(dir, "jupyter")
	require.NoError(t, os.WriteFile(jupyter, []byte(jupyterScript), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tutorials"), 0o750))

	cfg := "tutorials:\n  dir: tutorials\nexecutor:\n  jupyter: " + jupyter + "\ndocs:\n  probe: library\n"
	path := filepath.Join(dir, "nbharness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return &cliEnv{dir: dir, config: path}
}

func (e *cliEnv) tutorial(t *testing.T, name, title string, sources ...string) string {
	t.Helper()
	nb := notebook.New()
	nb.Append(&notebook.Cell{ID: notebook.NewCellID(), Type: notebook.MarkdownCell, Metadata: map[string]any{}, Source: notebook.MultilineString("# " + title)})
	for _, s := range sources {
		nb.Append(notebook.NewCodeCell(s))
	}
	path := filepath.Join(e.dir, "tutorials", name+notebook.Extension)
	require.NoError(t, notebook.Write(path, nb))
	return path
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(append([]string{"--config", e.config}, args...))
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

func TestCheck_PassesAndRecordsHistory(t *testing.T) {
	env := newCLIEnv(t, fakeJupyter)
	path := env.tutorial(t, "pancreas_basic", "Pancreas: basic", "import scanpy as sc")
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	metricsFile := filepath.Join(env.dir, "metrics", "nbharness.prom")

	out, err := env.run(t, "check", "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "passed pancreas_basic (2 cells")
	assert.Contains(t, out, "1/1 tutorials passed")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `nbharness_tutorial_outcomes_total{outcome="passed",tutorial="pancreas_basic"} 1`)

	out, err = env.run(t, "history", "--tutorial", "pancreas_basic")
	require.NoError(t, err)
	assert.Contains(t, out, "pancreas_basic")
	assert.Contains(t, out, "passed")
}

func TestCheck_Regenerate(t *testing.T) {
	env := newCLIEnv(t, fakeJupyter)
	path := env.tutorial(t, "pancreas_basic", "Pancreas", "x = 1", "y = 2")

	out, err := env.run(t, "check", "--regenerate", "pancreas_basic")
	require.NoError(t, err)
	assert.Contains(t, out, "regenerated")

	saved, err := notebook.Read(path)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Len())
	assert.Equal(t, "y = 2", string(saved.Last().Source))
	assert.Equal(t, "SENTINEL REACHED\n", saved.Last().Outputs[0]["text"])
}

func TestCheck_ExecutorFailure(t *testing.T) {
	env := newCLIEnv(t, "#!/bin/sh\necho 'NoSuchKernel: python3' >&2\nexit 1\n")
	env.tutorial(t, "pancreas_basic", "Pancreas", "x = 1")

	out, err := env.run(t, "check")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryExecution))
	assert.Contains(t, out, "error  pancreas_basic")
	assert.Contains(t, out, "0/1 tutorials passed")
}

func TestCheck_MissingTutorial(t *testing.T) {
	env := newCLIEnv(t, fakeJupyter)

	_, err := env.run(t, "check", "pancreas_advanced")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestList(t *testing.T) {
	env := newCLIEnv(t, fakeJupyter)
	env.tutorial(t, "pancreas_basic", "Pancreas: basic analysis", "a", "b")
	env.tutorial(t, "pancreas_advanced", "Pancreas: advanced", "a")

	out, err := env.run(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "pancreas_advanced")
	assert.Contains(t, lines[1], "Pancreas: advanced")
	assert.Contains(t, lines[2], "pancreas_basic")
	assert.Contains(t, lines[2], "3")
}

func TestHistory_Empty(t *testing.T) {
	env := newCLIEnv(t, fakeJupyter)
	out, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "no runs recorded\n", out)
}

func TestDocs(t *testing.T) {
	env := newCLIEnv(t, fakeJupyter)

	out, err := env.run(t, "docs", "conf")
	require.NoError(t, err)
	assert.Contains(t, out, `project = "CellRank"`)
	assert.Contains(t, out, `release = "<unknown>"`, "the temp dir is not a repository")

	target := filepath.Join(env.dir, "conf.py")
	_, err = env.run(t, "docs", "conf", "-o", target)
	require.NoError(t, err)
	assert.FileExists(t, target)

	out, err = env.run(t, "docs", "version")
	require.NoError(t, err)
	assert.Equal(t, "release: <unknown>\ndate: <unknown date>\n", out)
}

func TestDaemon_RefusesRegenerate(t *testing.T) {
	env := newCLIEnv(t, fakeJupyter)
	_, err := env.run(t, "daemon", "--regenerate")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDaemon))
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	env := &cliEnv{dir: dir, config: filepath.Join(dir, "nbharness.yaml")}

	out, err := env.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote configuration")
	assert.FileExists(t, env.config)

	_, err = env.run(t, "init")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = env.run(t, "init", "--force")
	require.NoError(t, err)
}
