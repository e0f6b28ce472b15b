// Package store uploads benchmark result documents to the configured
// destinations.
package store

import (
	"context"
	"strings"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/perf"
	"github.com/evergreen-ci/commitbench/pyperf"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Uploader persists the results of one commit along with the commit
// document.
type Uploader interface {
	Name() string
	Upload(context.Context, model.Commit, []model.BenchmarkResult) error
	Close(context.Context) error
}

// Multi sends every upload to all of its uploaders.
type Multi []Uploader

// New returns the uploaders configured in the environment. The result is
// empty when no destination is configured.
func New(env commitbench.Environment) (Multi, error) {
	conf := env.GetConf()
	if conf == nil {
		return nil, errors.New("environment has no configuration")
	}

	out := Multi{}
	if conf.Elastic.URL != "" {
		es, err := NewElasticUploader(conf.Elastic)
		if err != nil {
			return nil, errors.Wrap(err, "problem building elasticsearch uploader")
		}
		out = append(out, es)
	}
	if conf.Mongo.URI != "" {
		db, err := NewMongoUploader(env)
		if err != nil {
			return nil, errors.Wrap(err, "problem building mongodb uploader")
		}
		out = append(out, db)
	}
	if conf.Report.Dir != "" {
		out = append(out, NewReportUploader(conf.Report))
	}

	return out, nil
}

func (m Multi) Name() string {
	names := make([]string, 0, len(m))
	for _, up := range m {
		names = append(names, up.Name())
	}
	return strings.Join(names, ",")
}

func (m Multi) Upload(ctx context.Context, commit model.Commit, results []model.BenchmarkResult) error {
	catcher := grip.NewBasicCatcher()
	for _, up := range m {
		if ctx.Err() != nil {
			catcher.Add(ctx.Err())
			break
		}
		catcher.Wrapf(up.Upload(ctx, commit, results), "problem uploading to %s", up.Name())
	}

	return catcher.Resolve()
}

func (m Multi) Close(ctx context.Context) error {
	catcher := grip.NewBasicCatcher()
	for _, up := range m {
		catcher.Wrapf(up.Close(ctx), "problem closing %s", up.Name())
	}

	return catcher.Resolve()
}

// Load reads harness output files and summarizes them into result documents
// for the commit. The mode of each file comes from its name.
func Load(files []string, commit model.Commit) ([]model.BenchmarkResult, error) {
	catcher := grip.NewBasicCatcher()
	results := []model.BenchmarkResult{}
	for _, fn := range files {
		suite, err := pyperf.Load(fn)
		if err != nil {
			catcher.Add(err)
			continue
		}

		docs, err := perf.Summarize(suite, commit, commitbench.OutputFileMode(fn))
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

// Publish loads the output files of a commit and hands the documents to the
// uploader.
func Publish(ctx context.Context, up Uploader, commit model.Commit, files []string) error {
	results, err := Load(files, commit)
	if err != nil {
		return errors.Wrapf(err, "problem loading results for commit %s", commit.Short())
	}

	grip.Info(message.Fields{
		"message":   "uploading benchmark results",
		"commit":    commit.Short(),
		"results":   len(results),
		"uploaders": up.Name(),
	})

	return errors.Wrapf(up.Upload(ctx, commit, results), "problem uploading results for commit %s", commit.Short())
}
