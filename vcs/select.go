package vcs

import (
	"context"

	"github.com/evergreen-ci/commitbench/model"
	"github.com/pkg/errors"
)

// Selection is the list of commits to benchmark. When Current is set the
// single commit is the state of the worktree as found, and is benchmarked
// without a checkout.
type Selection struct {
	Commits []model.Commit
	Current bool
}

// SelectCommits resolves the start and end refs to the commits to benchmark:
// the current HEAD when start is empty, only start when end is empty, and
// the range start..end otherwise.
func SelectCommits(ctx context.Context, repo *Repository, start, end string) (*Selection, error) {
	switch {
	case start == "" && end != "":
		return nil, errors.New("cannot select commits with an end commit but no start commit")
	case start == "":
		commit, err := repo.ResolveCommit(ctx, "HEAD")
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return &Selection{Commits: []model.Commit{commit}, Current: true}, nil
	case end == "":
		commit, err := repo.ResolveCommit(ctx, start)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return &Selection{Commits: []model.Commit{commit}}, nil
	default:
		commits, err := repo.ListCommits(ctx, start, end)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return &Selection{Commits: commits}, nil
	}
}
