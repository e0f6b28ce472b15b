package pyperf

import (
	"reflect"
	"sort"
	"strings"
	"time"
)

// Warmup is a warmup value and the number of loops it was measured with.
type Warmup struct {
	Loops int
	Value float64
}

// Run is one worker process of a benchmark. Its metadata includes the
// suite and benchmark metadata.
type Run struct {
	Metadata map[string]interface{}
	Warmups  []Warmup
	Values   []float64
}

// IsCalibration reports if the run only calibrated the number of loops and
// produced no values.
func (r *Run) IsCalibration() bool { return len(r.Values) == 0 }

func (r *Run) Date() (time.Time, bool) {
	raw, ok := r.Metadata["date"].(string)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(raw)
}

// Benchmark is a single named benchmark and its runs.
type Benchmark struct {
	Runs []*Run

	metadata map[string]interface{}
}

func (b *Benchmark) Name() string {
	name, _ := b.metadata["name"].(string)
	return name
}

// Unit is the unit of the values, "second" unless the metadata says
// otherwise.
func (b *Benchmark) Unit() string {
	if unit, ok := b.Metadata()["unit"].(string); ok && unit != "" {
		return unit
	}
	return "second"
}

// Metadata returns the metadata shared by all runs: keys present in every
// run with the same value. A benchmark without runs returns its own
// metadata.
func (b *Benchmark) Metadata() map[string]interface{} {
	if len(b.Runs) == 0 {
		return mergeMetadata(b.metadata, nil)
	}

	out := mergeMetadata(b.Runs[0].Metadata, nil)
	for _, run := range b.Runs[1:] {
		for k, v := range out {
			if other, ok := run.Metadata[k]; !ok || !reflect.DeepEqual(v, other) {
				delete(out, k)
			}
		}
	}

	return out
}

func (b *Benchmark) NRun() int { return len(b.Runs) }

func (b *Benchmark) CalibrationRuns() int {
	count := 0
	for _, run := range b.Runs {
		if run.IsCalibration() {
			count++
		}
	}
	return count
}

func (b *Benchmark) Loops() int      { return b.intMetadata("loops") }
func (b *Benchmark) InnerLoops() int { return b.intMetadata("inner_loops") }

// TotalLoops is the number of times the benchmarked code ran per value.
func (b *Benchmark) TotalLoops() int { return b.Loops() * b.InnerLoops() }

func (b *Benchmark) intMetadata(key string) int {
	switch v := b.Metadata()[key].(type) {
	case float64:
		if v >= 1 {
			return int(v)
		}
	case int:
		if v >= 1 {
			return v
		}
	}
	return 1
}

// Values returns the values of every non-calibration run, in run order.
func (b *Benchmark) Values() []float64 {
	out := []float64{}
	for _, run := range b.Runs {
		out = append(out, run.Values...)
	}
	return out
}

// Dates returns the earliest and latest run dates.
func (b *Benchmark) Dates() (time.Time, time.Time, bool) {
	dates := []time.Time{}
	for _, run := range b.Runs {
		if d, ok := run.Date(); ok {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, false
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates[0], dates[len(dates)-1], true
}

// NWarmup is the number of warmups per non-calibration run; the mean when
// runs disagree.
func (b *Benchmark) NWarmup() float64 {
	return b.perRunCount(func(r *Run) int { return len(r.Warmups) })
}

// NValuePerRun is the number of values per non-calibration run; the mean
// when runs disagree.
func (b *Benchmark) NValuePerRun() float64 {
	return b.perRunCount(func(r *Run) int { return len(r.Values) })
}

func (b *Benchmark) perRunCount(count func(*Run) int) float64 {
	total, n := 0, 0
	for _, run := range b.Runs {
		if run.IsCalibration() {
			continue
		}
		total += count(run)
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ParseDate parses the ISO-8601 dates found in suite metadata. Dates without
// a zone are read as UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
