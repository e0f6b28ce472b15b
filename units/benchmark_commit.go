package units

import (
	"context"
	"fmt"
	"time"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/archive"
	"github.com/evergreen-ci/commitbench/harness"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/store"
	"github.com/evergreen-ci/commitbench/vcs"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	benchmarkCommitJobName = "benchmark-commit"
)

// BenchmarkCommitOptions are the per-run dependencies shared by every
// benchmark job. Jobs built without them fall back to the environment's
// configuration.
type BenchmarkCommitOptions struct {
	Env      commitbench.Environment
	Uploader store.Uploader
	Archiver *archive.Archiver
}

// BenchmarkCommitJob runs the harness at one commit and uploads the results.
type BenchmarkCommitJob struct {
	Commit   model.Commit `bson:"commit" json:"commit" yaml:"commit"`
	Worktree string       `bson:"worktree" json:"worktree" yaml:"worktree"`
	Checkout bool         `bson:"checkout" json:"checkout" yaml:"checkout"`
	Index    int          `bson:"index" json:"index" yaml:"index"`
	Total    int          `bson:"total" json:"total" yaml:"total"`

	// Files lists the output files the harness wrote, including those of
	// modes that ran before a failure.
	Files []string `bson:"files" json:"files" yaml:"files"`

	job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	env      commitbench.Environment
	uploader store.Uploader
	archiver *archive.Archiver
}

func init() {
	registry.AddJobType(benchmarkCommitJobName, func() amboy.Job { return makeBenchmarkCommitJob() })
}

func makeBenchmarkCommitJob() *BenchmarkCommitJob {
	j := &BenchmarkCommitJob{
		Base: job.Base{
			JobType: amboy.JobType{
				Name:    benchmarkCommitJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewBenchmarkCommitJob creates a job for the commit, which is the index-th
// (zero based) of total commits in the run. When checkout is false the
// worktree is benchmarked as it is.
func NewBenchmarkCommitJob(commit model.Commit, worktree string, checkout bool, index, total int, opts BenchmarkCommitOptions) (*BenchmarkCommitJob, error) {
	j := makeBenchmarkCommitJob()
	j.Commit = commit
	j.Worktree = worktree
	j.Checkout = checkout
	j.Index = index
	j.Total = total
	j.env = opts.Env
	j.uploader = opts.Uploader
	j.archiver = opts.Archiver

	if err := j.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid benchmark commit job")
	}

	j.SetID(fmt.Sprintf("%s.%s.%d.%s", benchmarkCommitJobName, commit.SHA, index, time.Now().Format(time.RFC3339Nano)))

	return j, nil
}

func (j *BenchmarkCommitJob) validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.Add(j.Commit.Validate())
	catcher.NewWhen(j.Worktree == "", "must specify a worktree")
	catcher.ErrorfWhen(j.Total > 0 && (j.Index < 0 || j.Index >= j.Total), "index %d is out of range for %d commits", j.Index, j.Total)
	return catcher.Resolve()
}

func (j *BenchmarkCommitJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = commitbench.GetEnvironment()
	}
	conf := j.env.GetConf()
	if conf == nil {
		j.AddError(errors.New("environment has no configuration"))
		return
	}

	if j.Total > 1 {
		grip.Infof("Running bench for commit %s (%d of %d)", j.Commit.Short(), j.Index+1, j.Total)
	}

	if j.Checkout {
		if err := vcs.NewRepository(j.Worktree).Checkout(ctx, j.Commit.SHA); err != nil {
			j.AddError(errors.Wrapf(err, "problem checking out %s", j.Commit.Short()))
			return
		}
	}

	files, err := harness.New(conf.Harness).Run(ctx, j.Commit, j.Worktree)
	j.Files = files
	if err != nil {
		j.AddError(errors.WithStack(err))
		return
	}

	if j.uploader != nil {
		grip.Infof("Uploading bench for commit %s", j.Commit.Short())
		if err = store.Publish(ctx, j.uploader, j.Commit, files); err != nil {
			j.AddError(errors.WithStack(err))
			return
		}
	}

	if j.archiver != nil {
		if err = j.archiver.Archive(ctx, j.Commit, files); err != nil {
			j.AddError(errors.WithStack(err))
			return
		}
	}

	grip.Debug(message.Fields{
		"job":    j.ID(),
		"commit": j.Commit.Short(),
		"files":  files,
	})
}
