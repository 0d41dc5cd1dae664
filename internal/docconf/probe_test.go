package docconf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	tag, date       string
	tagErr, dateErr error
}

func (s stubProber) LatestTag(context.Context) (string, error)  { return s.tag, s.tagErr }
func (s stubProber) CommitDate(context.Context) (string, error) { return s.date, s.dateErr }

func TestDerive(t *testing.T) {
	m := Derive(t.Context(), stubProber{tag: "v1.0.0", date: "2026-01-02"})
	assert.Equal(t, Metadata{Version: "v1.0.0", Release: "v1.0.0", Date: "2026-01-02"}, m)

	m = Derive(t.Context(), stubProber{tagErr: errors.New("no tags"), date: "2026-01-02"})
	assert.Equal(t, UnknownVersion, m.Release)
	assert.Equal(t, UnknownVersion, m.Version)
	assert.Equal(t, "2026-01-02", m.Date)

	m = Derive(t.Context(), stubProber{tagErr: errors.New("x"), dateErr: errors.New("y")})
	assert.Equal(t, Metadata{Version: UnknownVersion, Release: UnknownVersion, Date: UnknownDate}, m)
}

func commitFile(t *testing.T, repo *git.Repository, dir, name string, when time.Time) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600))
	_, err = wt.Add(name)
	require.NoError(t, err)
	sig := &object.Signature{Name: "tester", Email: "t@example.com", When: when}
	hash, err := wt.Commit("add "+name, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	return hash
}

func TestRepoProber(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	day1 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	first := commitFile(t, repo, dir, "a.txt", day1)
	_, err = repo.CreateTag("v0.1.0", first, nil)
	require.NoError(t, err)

	second := commitFile(t, repo, dir, "b.txt", day1.Add(24*time.Hour))
	_, err = repo.CreateTag("v0.2.0", second, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "tester", Email: "t@example.com", When: day1},
		Message: "release",
	})
	require.NoError(t, err)

	commitFile(t, repo, dir, "c.txt", day1.Add(48*time.Hour))

	p := &RepoProber{Dir: dir}
	tag, err := p.LatestTag(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "v0.2.0", tag, "annotated tags resolve to their commit")

	date, err := p.CommitDate(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "2026-02-03", date)

	sub := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(sub, 0o750))
	tag, err = (&RepoProber{Dir: sub}).LatestTag(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "v0.2.0", tag, "repository found from a subdirectory")
}

func TestRepoProber_NoTags(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "a.txt", time.Now())

	_, err = (&RepoProber{Dir: dir}).LatestTag(t.Context())
	require.Error(t, err)

	m := Derive(t.Context(), &RepoProber{Dir: dir})
	assert.Equal(t, UnknownVersion, m.Release)
	assert.NotEqual(t, UnknownDate, m.Date)
}

func TestRepoProber_NotARepository(t *testing.T) {
	m := Derive(t.Context(), &RepoProber{Dir: t.TempDir()})
	assert.Equal(t, Metadata{Version: UnknownVersion, Release: UnknownVersion, Date: UnknownDate}, m)
}

func fakeGit(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "git")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestCLIProber(t *testing.T) {
	bin := fakeGit(t, `case "$1" in
describe) echo "v3.1.4" ;;
log) echo "2026-04-05" ;;
esac
`)
	m := Derive(t.Context(), &CLIProber{Git: bin})
	assert.Equal(t, Metadata{Version: "v3.1.4", Release: "v3.1.4", Date: "2026-04-05"}, m)
}

func TestCLIProber_Failures(t *testing.T) {
	failing := fakeGit(t, "echo 'fatal: No names found' >&2\nexit 128\n")
	_, err := (&CLIProber{Git: failing}).LatestTag(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No names found")

	m := Derive(t.Context(), &CLIProber{Git: filepath.Join(t.TempDir(), "missing-git")})
	assert.Equal(t, Metadata{Version: UnknownVersion, Release: UnknownVersion, Date: UnknownDate}, m)

	empty := fakeGit(t, "exit 0\n")
	_, err = (&CLIProber{Git: empty}).CommitDate(t.Context())
	require.Error(t, err)
}
