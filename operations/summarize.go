package operations

import (
	"context"

	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/perf"
	"github.com/evergreen-ci/commitbench/pyperf"
	"github.com/evergreen-ci/commitbench/store"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/evergreen-ci/commitbench/vcs"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Summarize returns the command that prints the result documents of
// existing harness output files.
func Summarize() cli.Command {
	return cli.Command{
		Name:      "summarize",
		Usage:     "print the result documents of harness output files as json",
		ArgsUsage: "FILE...",
		Flags: addModeFlag(addCommitFlag(cli.StringFlag{
			Name:  worktreeFlag,
			Usage: "worktree to resolve the commit in, the commit is used as given when unset",
		})...),
		Before: mergeBeforeFuncs(requireArgs(1), requireFilesExist, requireResultFileNames, requireCommitWithoutWorktree),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			commit, err := resolveCommit(ctx, c.String(worktreeFlag), c.String(commitFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			results, err := summarizeFiles(c.Args(), commit, c.String(modeFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			return errors.WithStack(util.FprintJSON(c.App.Writer, results))
		},
	}
}

// requireCommitWithoutWorktree rejects a symbolic commit ref when there is
// no worktree to resolve it in.
func requireCommitWithoutWorktree(c *cli.Context) error {
	if c.String(worktreeFlag) != "" {
		return nil
	}
	if !c.IsSet(commitFlag) || c.String(commitFlag) == "HEAD" {
		return errors.Errorf("must specify '--%s' with a sha when '--%s' is not set", commitFlag, worktreeFlag)
	}
	return nil
}

// resolveCommit looks ref up in the worktree. Without a worktree the ref is
// taken as the sha of a commit with no further metadata.
func resolveCommit(ctx context.Context, worktree, ref string) (model.Commit, error) {
	if worktree == "" {
		return model.Commit{SHA: ref}, nil
	}

	commit, err := vcs.NewRepository(worktree).ResolveCommit(ctx, ref)
	return commit, errors.WithStack(err)
}

func summarizeFiles(files []string, commit model.Commit, mode string) ([]model.BenchmarkResult, error) {
	if mode == "" {
		return store.Load(files, commit)
	}

	catcher := grip.NewBasicCatcher()
	results := []model.BenchmarkResult{}
	for _, fn := range files {
		suite, err := pyperf.Load(fn)
		if err != nil {
			catcher.Add(err)
			continue
		}
		docs, err := perf.Summarize(suite, commit, mode)
		if err != nil {
			catcher.Add(err)
			continue
		}
		results = append(results, docs...)
	}

	if catcher.HasErrors() {
		return nil, catcher.Resolve()
	}
	return results, nil
}
