package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.BaseDir)
	assert.Equal(t, filepath.Join(dir, "tutorials"), cfg.Tutorials.Dir)
	assert.Equal(t, "jupyter", cfg.Executor.Jupyter)
	assert.Equal(t, 10*time.Minute, cfg.Executor.Timeout.Std())
	assert.Equal(t, "CellRank", cfg.Docs.Project)
	assert.Equal(t, []string{"nbsphinx", "sphinx_copybutton"}, cfg.Docs.Extensions)
	assert.Equal(t, ProbeCLI, cfg.Docs.Probe)
	assert.Equal(t, filepath.Join(dir, ".nbharness", "history.db"), cfg.History.Path)
	assert.Equal(t, 24*time.Hour, cfg.Daemon.Every.Std())
	assert.Nil(t, cfg.Diff.Ignore)
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
tutorials:
  dir: /srv/notebooks
  names: [pancreas_basic.ipynb, " pancreas_advanced "]
executor:
  kernel: python3
  timeout: 90s
diff:
  ignore: []
docs:
  extensions: [nbsphinx]
  probe: LIBRARY
daemon:
  every: 1h
  watch: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/notebooks", cfg.Tutorials.Dir)
	assert.Equal(t, []string{"pancreas_basic", "pancreas_advanced"}, cfg.Tutorials.Names)
	assert.Equal(t, "python3", cfg.Executor.Kernel)
	assert.Equal(t, 90*time.Second, cfg.Executor.Timeout.Std())
	assert.NotNil(t, cfg.Diff.Ignore)
	assert.Empty(t, cfg.Diff.Ignore)
	assert.Equal(t, []string{"nbsphinx"}, cfg.Docs.Extensions)
	assert.Equal(t, []string{"_static"}, cfg.Docs.HTMLStaticPath, "unset lists keep defaults")
	assert.Equal(t, ProbeLibrary, cfg.Docs.Probe)
	assert.True(t, cfg.Daemon.Watch)
}

func TestLoad_ExpandsEnvFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NBH_TEST_KERNEL=ir\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("NBH_TEST_KERNEL") })
	path := writeConfig(t, dir, "executor:\n  kernel: ${NBH_TEST_KERNEL}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ir", cfg.Executor.Kernel)
}

func TestLoad_ProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NBH_TEST_JUPYTER=from-file\n"), 0o644))
	t.Setenv("NBH_TEST_JUPYTER", "from-env")
	path := writeConfig(t, dir, "executor:\n  jupyter: ${NBH_TEST_JUPYTER}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Executor.Jupyter)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		category errors.ErrorCategory
	}{
		{"unknown field", "bogus: 1\n", errors.CategoryConfig},
		{"bad duration", "executor:\n  timeout: soon\n", errors.CategoryConfig},
		{"bad probe", "docs:\n  probe: svn\n", errors.CategoryValidation},
		{"name with slash", "tutorials:\n  names: [a/b]\n", errors.CategoryValidation},
		{"negative timeout", "executor:\n  timeout: -1s\n", errors.CategoryValidation},
		{"daemon too eager", "daemon:\n  every: 5s\n", errors.CategoryValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			require.Error(t, err)
			assert.Equal(t, tt.category, errors.GetCategory(err))
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(err))
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	wd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(wd, "tutorials"), cfg.Tutorials.Dir)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"pancreas_basic", "pancreas_advanced"}, cfg.Tutorials.Names)
	assert.Equal(t, 10*time.Minute, cfg.Executor.Timeout.Std())
	assert.Equal(t, true, cfg.Docs.HTMLThemeOptions["logo_only"])

	err = Init(path, false)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
	require.NoError(t, Init(path, true))
}
