// Package runner benchmarks a range of commits, one at a time.
package runner

import (
	"context"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/archive"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/store"
	"github.com/evergreen-ci/commitbench/units"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/evergreen-ci/commitbench/vcs"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	waitInterval = 100 * time.Millisecond

	// bounded by the capacity of the environment's queue
	batchSize = 512
)

// Failure is a commit that could not be benchmarked or uploaded.
type Failure struct {
	SHA   string `json:"sha" yaml:"sha"`
	Error string `json:"error" yaml:"error"`
}

// Report summarizes a run.
type Report struct {
	Commits []model.Commit `json:"commits" yaml:"commits"`
	Files   []string       `json:"files" yaml:"files"`
	Failed  []Failure      `json:"failed" yaml:"failed"`
	Seed    int64          `json:"seed" yaml:"seed"`
}

func (r *Report) HasFailures() bool { return len(r.Failed) > 0 }

// FailedSHAs lists the failed commits in the order they ran.
func (r *Report) FailedSHAs() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.SHA)
	}
	return out
}

// Shuffle reorders commits in place with a generator seeded by seed.
func Shuffle(commits []model.Commit, seed int64) {
	rand.New(rand.NewSource(seed)).Shuffle(len(commits), func(i, j int) {
		commits[i], commits[j] = commits[j], commits[i]
	})
}

// Prepare clones the worktree if needed, fetches, and selects the commits to
// benchmark according to the environment's configuration.
func Prepare(ctx context.Context, env commitbench.Environment) (*vcs.Repository, *vcs.Selection, error) {
	conf := env.GetConf()
	if conf == nil {
		return nil, nil, errors.New("environment has no configuration")
	}

	worktree, err := filepath.Abs(conf.Worktree)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "problem resolving worktree %s", conf.Worktree)
	}

	var repo *vcs.Repository
	if conf.CloneURL != "" {
		repo, err = vcs.Clone(ctx, conf.CloneURL, worktree)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
	} else {
		if !util.FileExists(worktree) {
			return nil, nil, errors.Errorf("worktree %s does not exist and no clone url is set", worktree)
		}
		repo = vcs.NewRepository(worktree)
	}

	if err = repo.Fetch(ctx); err != nil {
		return nil, nil, errors.WithStack(err)
	}

	selection, err := vcs.SelectCommits(ctx, repo, conf.StartCommit, conf.EndCommit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "problem selecting commits")
	}

	return repo, selection, nil
}

// Run benchmarks every selected commit. A commit that fails is recorded in
// the report and does not stop the run; the returned error is only set when
// the run could not start.
func Run(ctx context.Context, env commitbench.Environment) (*Report, error) {
	repo, selection, err := Prepare(ctx, env)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	conf := env.GetConf()

	report := &Report{
		Commits: selection.Commits,
		Files:   []string{},
		Failed:  []Failure{},
	}
	if conf.Randomize {
		report.Seed = conf.Seed
		if report.Seed == 0 {
			report.Seed = time.Now().UnixNano()
		}
		Shuffle(report.Commits, report.Seed)
	}

	grip.Info(message.Fields{
		"message":   "benchmarking commits",
		"worktree":  repo.Dir,
		"commits":   len(report.Commits),
		"current":   selection.Current,
		"randomize": conf.Randomize,
		"seed":      report.Seed,
	})

	originalRef := ""
	if !selection.Current {
		originalRef, err = repo.CurrentRef(ctx)
		grip.Warning(message.WrapError(err, message.Fields{
			"message":  "could not determine the current checkout, it will not be restored",
			"worktree": repo.Dir,
		}))
		dirty, err := repo.IsDirty(ctx)
		grip.Warning(message.WrapError(err, "problem checking worktree status"))
		grip.WarningWhen(dirty, message.Fields{
			"message":  "worktree has uncommitted changes, checkouts may fail",
			"worktree": repo.Dir,
		})
	}

	opts := units.BenchmarkCommitOptions{Env: env}
	uploader, err := store.New(env)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(uploader) > 0 {
		opts.Uploader = uploader
		defer func() {
			grip.Warning(message.WrapError(uploader.Close(ctx), "problem closing uploaders"))
		}()
	}
	if opts.Archiver, err = archive.New(ctx, env); err != nil {
		return nil, errors.WithStack(err)
	}

	produced := []string{}
	for start := 0; start < len(report.Commits); start += batchSize {
		end := start + batchSize
		if end > len(report.Commits) {
			end = len(report.Commits)
		}

		jobs, err := runBatch(ctx, env.GetQueue(), report.Commits, start, end, repo.Dir, !selection.Current, opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		for _, j := range jobs {
			produced = append(produced, j.Files...)
			switch {
			case !j.Status().Completed:
				report.Failed = append(report.Failed, Failure{SHA: j.Commit.SHA, Error: "benchmark did not complete"})
			case j.Error() != nil:
				grip.Error(message.WrapError(j.Error(), message.Fields{
					"message": "benchmark failed",
					"commit":  j.Commit.SHA,
				}))
				report.Failed = append(report.Failed, Failure{SHA: j.Commit.SHA, Error: j.Error().Error()})
			default:
				report.Files = append(report.Files, j.Files...)
			}
		}
	}

	cleanup(ctx, conf, repo, originalRef, produced)

	return report, nil
}

func runBatch(ctx context.Context, q amboy.Queue, commits []model.Commit, start, end int, worktree string, checkout bool, opts units.BenchmarkCommitOptions) ([]*units.BenchmarkCommitJob, error) {
	jobs := make([]*units.BenchmarkCommitJob, 0, end-start)
	for idx := start; idx < end; idx++ {
		j, err := units.NewBenchmarkCommitJob(commits[idx], worktree, checkout, idx, len(commits), opts)
		if err != nil {
			return nil, errors.Wrapf(err, "problem creating job for commit %s", commits[idx].Short())
		}
		if err = q.Put(ctx, j); err != nil {
			return nil, errors.Wrapf(err, "problem queuing job for commit %s", commits[idx].Short())
		}
		jobs = append(jobs, j)
	}

	if !amboy.WaitInterval(ctx, q, waitInterval) {
		grip.Warning(message.Fields{
			"message": "stopped waiting for benchmarks",
			"reason":  ctx.Err(),
		})
	}

	return jobs, nil
}

func cleanup(ctx context.Context, conf *commitbench.Configuration, repo *vcs.Repository, originalRef string, files []string) {
	if conf.DeleteRepo {
		grip.Info(message.Fields{
			"message":  "removing worktree",
			"worktree": repo.Dir,
		})
		grip.Error(message.WrapError(repo.Remove(), "problem removing worktree"))
	} else if conf.RestoreCheckout && originalRef != "" {
		grip.Error(message.WrapError(repo.Checkout(ctx, originalRef), message.Fields{
			"message": "problem restoring checkout",
			"ref":     originalRef,
		}))
	}

	if conf.DeleteOutputFiles {
		grip.Error(message.WrapError(util.RemoveFiles(files), "problem removing output files"))
	}
}
