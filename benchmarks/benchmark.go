// Package benchmarks measures the result processing of commitbench itself
// with poplar benchmark suites.
package benchmarks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/perf"
	"github.com/evergreen-ci/commitbench/pyperf"
	"github.com/evergreen-ci/poplar"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

// SuiteSize describes a synthetic harness output file.
type SuiteSize struct {
	Benchmarks int
	Runs       int
	Values     int
}

func (s SuiteSize) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Benchmarks, s.Runs, s.Values)
}

// DefaultSizes range from a small harness run to a very large one.
var DefaultSizes = []SuiteSize{
	{Benchmarks: 10, Runs: 20, Values: 3},
	{Benchmarks: 100, Runs: 20, Values: 3},
	{Benchmarks: 100, Runs: 50, Values: 10},
}

// RunSummaryBenchmark runs the summary suite for every size and writes the
// combined report to results.txt under prefix.
func RunSummaryBenchmark(ctx context.Context, prefix string, sizes []SuiteSize) error {
	if err := os.MkdirAll(prefix, os.ModePerm); err != nil {
		return errors.Wrap(err, "failed to create top level directory")
	}

	var combinedReports string
	for _, size := range sizes {
		suitePrefix := filepath.Join(prefix, size.String())
		if err := os.Mkdir(suitePrefix, os.ModePerm); err != nil {
			return errors.Wrap(err, "failed to create subdirectory")
		}

		suite, err := GetSummarySuite(size)
		if err != nil {
			return errors.Wrapf(err, "problem building suite for %s", size)
		}
		results, err := suite.Run(ctx, suitePrefix)
		if err != nil {
			combinedReports += fmt.Sprintf("Suite Size: %s\n===============\nError:\n%s\n", size, err)
			continue
		}

		combinedReports += fmt.Sprintf("Suite Size: %s\n===============\n%s\n", size, results.Report())
	}

	f, err := os.Create(filepath.Join(prefix, "results.txt"))
	if err != nil {
		return errors.Wrap(err, "problem creating new file")
	}
	defer f.Close()

	_, err = f.WriteString(combinedReports)
	return errors.Wrap(err, "problem writing to file")
}

// GetSummarySuite returns cases that parse and summarize a synthetic suite
// of the given size, and compute the statistics of all of its values.
func GetSummarySuite(size SuiteSize) (poplar.BenchmarkSuite, error) {
	data, err := SyntheticSuite(size)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return poplar.BenchmarkSuite{
		{
			CaseName:         "ReadSuite",
			Bench:            getReadBenchmark(data),
			MinRuntime:       time.Millisecond,
			MaxRuntime:       10 * time.Minute,
			Timeout:          20 * time.Minute,
			IterationTimeout: 10 * time.Minute,
			Count:            1,
			MinIterations:    1,
			MaxIterations:    2,
			Recorder:         poplar.RecorderPerf,
		},
		{
			CaseName:         "SummarizeSuite",
			Bench:            getSummarizeBenchmark(data),
			MinRuntime:       time.Millisecond,
			MaxRuntime:       10 * time.Minute,
			Timeout:          20 * time.Minute,
			IterationTimeout: 10 * time.Minute,
			Count:            1,
			MinIterations:    1,
			MaxIterations:    2,
			Recorder:         poplar.RecorderPerf,
		},
	}, nil
}

func getReadBenchmark(data []byte) poplar.Benchmark {
	return func(ctx context.Context, r poplar.Recorder, _ int) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "context error while reading")
		}

		startAt := time.Now()
		r.Begin()
		if _, err := pyperf.Read(bytes.NewReader(data), "synthetic"); err != nil {
			return errors.Wrap(err, "problem reading suite")
		}
		r.End(time.Since(startAt))
		r.IncOps(1)
		r.IncSize(int64(len(data)))

		return nil
	}
}

func getSummarizeBenchmark(data []byte) poplar.Benchmark {
	commit := model.NewCommit(utility.RandomString(), time.Now(), "synthetic commit")

	return func(ctx context.Context, r poplar.Recorder, _ int) error {
		suite, err := pyperf.Read(bytes.NewReader(data), "synthetic")
		if err != nil {
			return errors.Wrap(err, "problem reading suite")
		}

		for _, bench := range suite.Benchmarks {
			if err = ctx.Err(); err != nil {
				return errors.Wrap(err, "context error while summarizing")
			}

			startAt := time.Now()
			r.Begin()
			if _, err = perf.SummarizeBenchmark(bench, commit, "time"); err != nil {
				return errors.Wrapf(err, "problem summarizing %s", bench.Name())
			}
			r.End(time.Since(startAt))
			r.IncOps(1)
		}

		return nil
	}
}

// SyntheticSuite encodes a harness output file with random values. Every
// benchmark has one calibration run followed by runs with values. Values are
// reproducible for a given size; benchmark names are not.
func SyntheticSuite(size SuiteSize) ([]byte, error) {
	start := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(int64(size.Benchmarks*1000000 + size.Runs*1000 + size.Values)))

	benchmarks := make([]map[string]interface{}, 0, size.Benchmarks)
	for b := 0; b < size.Benchmarks; b++ {
		runs := []map[string]interface{}{
			{
				"metadata": map[string]interface{}{"date": start.Format("2006-01-02 15:04:05"), "calibrate_loops": 8},
				"warmups":  [][]float64{{1, rng.Float64()}, {8, rng.Float64()}},
			},
		}
		for r := 0; r < size.Runs; r++ {
			values := make([]float64, size.Values)
			for v := range values {
				values[v] = rng.Float64() / 1000
			}
			runs = append(runs, map[string]interface{}{
				"metadata": map[string]interface{}{
					"date":   start.Add(time.Duration(r) * time.Second).Format("2006-01-02 15:04:05.999999"),
					"worker": r,
				},
				"warmups": [][]float64{{8, rng.Float64() / 1000}},
				"values":  values,
			})
		}

		benchmarks = append(benchmarks, map[string]interface{}{
			"metadata": map[string]interface{}{
				"name":  fmt.Sprintf("tests.benchmarks.bench_%d.test_%s", b, utility.RandomString()),
				"loops": 8,
			},
			"runs": runs,
		})
	}

	return json.Marshal(map[string]interface{}{
		"version": "1.0",
		"metadata": map[string]interface{}{
			"hostname":  "synthetic",
			"timestamp": start.Format(time.RFC3339),
			"unit":      "second",
		},
		"benchmarks": benchmarks,
	})
}
