package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/evergreen-ci/commitbench"
	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/perf"
	"github.com/evergreen-ci/commitbench/util"
	"github.com/evergreen-ci/poplar"
	"github.com/pkg/errors"
)

// ReportUploader writes one poplar report per commit to a directory.
type ReportUploader struct {
	conf commitbench.ReportConfig
}

func NewReportUploader(conf commitbench.ReportConfig) *ReportUploader {
	return &ReportUploader{conf: conf}
}

func (r *ReportUploader) Name() string { return "report" }

// Path returns the file the report of a commit is written to.
func (r *ReportUploader) Path(commit model.Commit) string {
	return filepath.Join(r.conf.Dir, commit.SHA+".json")
}

func (r *ReportUploader) Upload(_ context.Context, commit model.Commit, results []model.BenchmarkResult) error {
	if err := os.MkdirAll(r.conf.Dir, 0755); err != nil {
		return errors.Wrapf(err, "problem creating report directory %s", r.conf.Dir)
	}

	return errors.Wrapf(util.WriteJSON(r.Path(commit), NewReport(r.conf.Project, commit, results)),
		"problem writing report for commit %s", commit.Short())
}

func (r *ReportUploader) Close(_ context.Context) error { return nil }

// NewReport converts the results of a commit into a poplar report with one
// test per result.
func NewReport(project string, commit model.Commit, results []model.BenchmarkResult) *poplar.Report {
	report := &poplar.Report{
		Project:  project,
		Version:  commit.SHA,
		TaskName: commitbench.AppName,
		Tests:    make([]poplar.Test, 0, len(results)),
	}

	for _, result := range results {
		test := poplar.Test{
			Info: poplar.TestInfo{
				TestName: result.Name,
				Tags:     reportTags(result),
			},
			CreatedAt:   result.Timestamp,
			CompletedAt: result.Timestamp,
		}
		for _, m := range perf.Metrics(result) {
			test.Metrics = append(test.Metrics, poplar.TestMetrics{
				Name:  m.Name,
				Type:  string(m.Type),
				Value: m.Value,
			})
		}
		report.Tests = append(report.Tests, test)
	}

	return report
}

func reportTags(result model.BenchmarkResult) []string {
	tags := []string{}
	for _, tag := range []string{result.Mode, result.Class} {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
