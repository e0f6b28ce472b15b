// Package perf turns benchmark harness output into the result documents that
// are uploaded for each commit.
package perf

import (
	"strings"
	"time"

	"github.com/evergreen-ci/commitbench/model"
	"github.com/evergreen-ci/commitbench/pyperf"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

const (
	startDateFormat       = "2006-01-02 15:04:05"
	startDateMicroseconds = ".000000"

	unitSecond       = "second"
	unitMilliseconds = "milliseconds"
)

// Summarize converts every benchmark of a suite produced at the commit into
// a result document.
func Summarize(suite *pyperf.Suite, commit model.Commit, mode string) ([]model.BenchmarkResult, error) {
	if suite == nil {
		return nil, errors.New("cannot summarize a nil suite")
	}

	catcher := grip.NewBasicCatcher()
	results := make([]model.BenchmarkResult, 0, len(suite.Benchmarks))
	for _, bench := range suite.Benchmarks {
		result, err := SummarizeBenchmark(bench, commit, mode)
		if err != nil {
			catcher.Wrapf(err, "benchmark '%s' in %s", bench.Name(), suite.Filename)
			continue
		}
		results = append(results, result)
	}
	if catcher.HasErrors() {
		return nil, catcher.Resolve()
	}

	return results, nil
}

// SummarizeBenchmark converts a single benchmark. Timings in seconds are
// reported in milliseconds.
func SummarizeBenchmark(bench *pyperf.Benchmark, commit model.Commit, mode string) (model.BenchmarkResult, error) {
	factor := 1.0
	meta := bench.Metadata()
	if bench.Unit() == unitSecond {
		meta["unit"] = unitMilliseconds
		factor = 1000
	}

	if start, _, ok := bench.Dates(); ok {
		meta["start_date"] = formatStartDate(start)
	}

	ts := commit.Timestamp
	if raw, ok := meta["timestamp"].(string); ok {
		if parsed, ok := pyperf.ParseDate(raw); ok {
			ts = parsed
		}
	}
	delete(meta, "timestamp")
	if ts.IsZero() {
		return model.BenchmarkResult{}, errors.Errorf("benchmark '%s' has no timestamp and commit '%s' has no date", bench.Name(), commit.SHA)
	}

	fullName := bench.Name()
	delete(meta, "name")
	class := trimLastComponent(fullName)

	sample, err := Calculate(bench.Values(), model.DefaultPercentiles)
	if err != nil {
		return model.BenchmarkResult{}, errors.WithStack(err)
	}

	calibration := bench.CalibrationRuns()
	result := model.BenchmarkResult{
		Timestamp: ts,
		SHA:       commit.SHA,
		Mode:      mode,
		Name:      fullName,
		Class:     class,
		ShortName: trimLastComponent(class),
		Meta:      meta,
		Runs: model.RunCounts{
			Calibration: calibration,
			WithValues:  bench.NRun() - calibration,
			Total:       bench.NRun(),
		},
		WarmupsPerRun: bench.NWarmup(),
		ValuesPerRun:  bench.NValuePerRun(),
		Median:        sample.Median * factor,
		MedianAbsDev:  sample.MedianAbsDev * factor,
		Mean:          sample.Mean * factor,
		MeanStdDev:    sample.StdDev * factor,
		Percentiles:   make(model.Percentiles, 0, len(model.DefaultPercentiles)),
	}
	for _, p := range model.DefaultPercentiles {
		result.Percentiles = append(result.Percentiles, model.PercentileValue{P: p, Value: sample.Percentiles[p] * factor})
	}

	return result, nil
}

// formatStartDate writes all six fractional digits when the date has
// microseconds, and none otherwise.
func formatStartDate(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format(startDateFormat)
	}
	return t.Format(startDateFormat + startDateMicroseconds)
}

// trimLastComponent drops the last dotted component of a name; names
// without a dot are returned unchanged.
func trimLastComponent(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return name
}
