package perf

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Statistics summarizes the values of one benchmark, in the unit of the
// values.
type Statistics struct {
	Median       float64
	MedianAbsDev float64
	Mean         float64
	StdDev       float64
	Percentiles  map[float64]float64
}

// Calculate computes the summary statistics for a sample. The standard
// deviation is the sample standard deviation, and is 0 for fewer than two
// values.
func Calculate(values []float64, percentiles []float64) (*Statistics, error) {
	if len(values) == 0 {
		return nil, errors.New("cannot summarize a benchmark without values")
	}
	data := stats.Float64Data(values)

	out := &Statistics{Percentiles: make(map[float64]float64, len(percentiles))}
	var err error
	if out.Median, err = stats.Median(data); err != nil {
		return nil, errors.Wrap(err, "problem computing median")
	}
	if out.MedianAbsDev, err = stats.MedianAbsoluteDeviation(data); err != nil {
		return nil, errors.Wrap(err, "problem computing median absolute deviation")
	}
	if out.Mean, err = stats.Mean(data); err != nil {
		return nil, errors.Wrap(err, "problem computing mean")
	}
	if len(values) > 1 {
		if out.StdDev, err = stats.StandardDeviationSample(data); err != nil {
			return nil, errors.Wrap(err, "problem computing standard deviation")
		}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	for _, p := range percentiles {
		if p < 0 || p > 100 {
			return nil, errors.Errorf("percentile %v is out of range", p)
		}
		out.Percentiles[p] = Percentile(sorted, p)
	}

	return out, nil
}

// Percentile interpolates linearly between the closest ranks of a sorted
// sample. stats.Percentile uses a nearest-rank average instead, which does
// not match the values the benchmark harness itself reports.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}

	k := float64(len(sorted)-1) * p / 100
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return sorted[int(k)]
	}

	return sorted[int(f)]*(c-k) + sorted[int(c)]*(k-f)
}
