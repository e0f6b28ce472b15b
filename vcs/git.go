// Package vcs enumerates and checks out the commits of the benchmarked
// project using the git command line tool.
package vcs

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"

	// sha, strict ISO-8601 author date, raw message
	logFormat = "--format=%H%x1f%aI%x1f%B%x1e"
)

// Repository is a git worktree of the benchmarked project.
type Repository struct {
	Dir string
}

func NewRepository(dir string) *Repository { return &Repository{Dir: dir} }

// Clone clones url into dir unless dir already exists.
func Clone(ctx context.Context, url, dir string) (*Repository, error) {
	if util.FileExists(dir) {
		grip.Info(message.Fields{
			"message": "worktree exists, not cloning",
			"dir":     dir,
			"url":     url,
		})
		return NewRepository(dir), nil
	}

	if _, err := git(ctx, "", "clone", "--quiet", url, dir); err != nil {
		return nil, errors.Wrapf(err, "problem cloning %s", url)
	}
	grip.Info(message.Fields{
		"message": "cloned repository",
		"dir":     dir,
		"url":     url,
	})

	return NewRepository(dir), nil
}

// Fetch updates the worktree's remotes. A worktree without remotes has
// nothing to fetch.
func (r *Repository) Fetch(ctx context.Context) error {
	remotes, err := r.Remotes(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(remotes) == 0 {
		grip.Info(message.Fields{
			"message": "worktree has no remotes, not fetching",
			"dir":     r.Dir,
		})
		return nil
	}

	_, err = r.git(ctx, "fetch", "--quiet")
	return errors.Wrap(err, "problem fetching")
}

func (r *Repository) Remotes(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "remote")
	if err != nil {
		return nil, errors.Wrap(err, "problem listing remotes")
	}

	return strings.Fields(out), nil
}

// ListCommits returns the commits in the git range start..end, which
// excludes start itself, oldest first.
func (r *Repository) ListCommits(ctx context.Context, start, end string) ([]model.Commit, error) {
	if start == "" || end == "" {
		return nil, errors.New("listing commits requires a start and an end")
	}

	out, err := r.git(ctx, "log", logFormat, start+".."+end)
	if err != nil {
		return nil, errors.Wrapf(err, "problem listing commits %s..%s", start, end)
	}

	commits, err := parseLog(out)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}

	return commits, nil
}

// ResolveCommit returns the commit a ref points to.
func (r *Repository) ResolveCommit(ctx context.Context, ref string) (model.Commit, error) {
	out, err := r.git(ctx, "log", "-1", logFormat, ref, "--")
	if err != nil {
		return model.Commit{}, errors.Wrapf(err, "problem resolving '%s'", ref)
	}

	commits, err := parseLog(out)
	if err != nil {
		return model.Commit{}, errors.WithStack(err)
	}
	if len(commits) != 1 {
		return model.Commit{}, errors.Errorf("expected one commit for '%s', found %d", ref, len(commits))
	}

	return commits[0], nil
}

func (r *Repository) Checkout(ctx context.Context, ref string) error {
	_, err := r.git(ctx, "checkout", "--quiet", ref)
	return errors.Wrapf(err, "problem checking out '%s'", ref)
}

// CurrentRef returns the checked out branch, or the commit when the worktree
// is not on a branch, for returning to it later.
func (r *Repository) CurrentRef(ctx context.Context) (string, error) {
	ref, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errors.Wrap(err, "problem finding current branch")
	}
	if ref = strings.TrimSpace(ref); ref != "HEAD" {
		return ref, nil
	}

	ref, err = r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", errors.Wrap(err, "problem finding current commit")
	}

	return strings.TrimSpace(ref), nil
}

// IsDirty reports if tracked files have uncommitted modifications.
func (r *Repository) IsDirty(ctx context.Context) (bool, error) {
	out, err := r.git(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, errors.Wrap(err, "problem checking worktree status")
	}

	return strings.TrimSpace(out) != "", nil
}

// Remove deletes the worktree from disk.
func (r *Repository) Remove() error {
	return errors.Wrapf(os.RemoveAll(r.Dir), "problem removing worktree %s", r.Dir)
}

func (r *Repository) git(ctx context.Context, args ...string) (string, error) {
	return git(ctx, r.Dir, args...)
}

func parseLog(out string) ([]model.Commit, error) {
	commits := []model.Commit{}
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		parts := strings.SplitN(record, fieldSep, 3)
		if len(parts) != 3 {
			return nil, errors.Errorf("expected 3 fields in git log record, got %d", len(parts))
		}

		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid author date for commit %s", parts[0])
		}

		commits = append(commits, model.NewCommit(strings.TrimSpace(parts[0]), ts, strings.TrimRight(parts[2], "\n")))
	}

	return commits, nil
}
