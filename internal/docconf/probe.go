package docconf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/nbharness/internal/logfields"
)

// Placeholders used when version metadata cannot be read.
const (
	UnknownVersion = "<unknown>"
	UnknownDate    = "<unknown date>"
)

// Prober reads version metadata from a repository.
type Prober interface {
	// LatestTag returns the nearest tag reachable from HEAD.
	LatestTag(ctx context.Context) (string, error)
	// CommitDate returns the HEAD committer date as YYYY-MM-DD.
	CommitDate(ctx context.Context) (string, error)
}

// Metadata is the derived version information.
type Metadata struct {
	Version string
	Release string
	Date    string
}

// Derive queries p and substitutes placeholders for anything it cannot
// answer. It never fails.
func Derive(ctx context.Context, p Prober) Metadata {
	m := Metadata{Version: UnknownVersion, Release: UnknownVersion, Date: UnknownDate}
	if tag, err := p.LatestTag(ctx); err != nil {
		slog.Debug("Version tag lookup failed, using placeholder", logfields.Error(err))
	} else {
		m.Release = tag
		m.Version = tag
	}
	if date, err := p.CommitDate(ctx); err != nil {
		slog.Debug("Commit date lookup failed, using placeholder", logfields.Error(err))
	} else {
		m.Date = date
	}
	return m
}

// CLIProber runs the git executable.
type CLIProber struct {
	// Git is the git binary; defaults to "git".
	Git string
	// Dir is the working directory for git.
	Dir string
}

func (p *CLIProber) LatestTag(ctx context.Context) (string, error) {
	return p.run(ctx, "describe", "--tags", "--abbrev=0")
}

func (p *CLIProber) CommitDate(ctx context.Context) (string, error) {
	return p.run(ctx, "log", "-1", "--format=%cs")
}

func (p *CLIProber) run(ctx context.Context, args ...string) (string, error) {
	bin := p.Git
	if bin == "" {
		bin = "git"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("git not available: %w", err)
	}
	// #nosec G204 -- path comes from exec.LookPath and args are fixed
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = p.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("git %s: empty output", strings.Join(args, " "))
	}
	return out, nil
}

// RepoProber reads the repository in-process with go-git.
type RepoProber struct {
	Dir string
}

func (p *RepoProber) open() (*git.Repository, *object.Commit, error) {
	repo, err := git.PlainOpenWithOptions(p.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, nil, fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	return repo, commit, nil
}

// LatestTag walks history breadth-first from HEAD and returns the first
// tagged commit's tag. Ties on one commit go to the greatest name.
func (p *RepoProber) LatestTag(ctx context.Context) (string, error) {
	repo, head, err := p.open()
	if err != nil {
		return "", err
	}
	tagged, err := tagsByCommit(repo)
	if err != nil {
		return "", err
	}
	if len(tagged) == 0 {
		return "", fmt.Errorf("no tags in repository")
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash, Order: git.LogOrderBSF})
	if err != nil {
		return "", fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c, err := iter.Next()
		if err != nil {
			return "", fmt.Errorf("no tag reachable from HEAD")
		}
		if name, ok := tagged[c.Hash]; ok {
			return name, nil
		}
	}
}

func (p *RepoProber) CommitDate(_ context.Context) (string, error) {
	_, head, err := p.open()
	if err != nil {
		return "", err
	}
	return head.Committer.When.Format(time.DateOnly), nil
}

func tagsByCommit(repo *git.Repository) (map[plumbing.Hash]string, error) {
	refs, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tagged := map[plumbing.Hash]string{}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if annotated, err := repo.TagObject(hash); err == nil {
			commit, err := annotated.Commit()
			if err != nil {
				return nil
			}
			hash = commit.Hash
		}
		name := ref.Name().Short()
		if existing, ok := tagged[hash]; !ok || name > existing {
			tagged[hash] = name
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve tags: %w", err)
	}
	return tagged, nil
}
