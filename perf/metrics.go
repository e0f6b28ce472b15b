package perf

import (
	"fmt"

	"github.com/evergreen-ci/commitbench/model"
)

// Metric is one named statistic of a result.
type Metric struct {
	Name  string
	Type  model.MetricType
	Value float64
}

// Metrics lists the statistics of a result document, in a stable order.
func Metrics(r model.BenchmarkResult) []Metric {
	out := []Metric{
		{Name: "median", Type: model.MetricTypeMedian, Value: r.Median},
		{Name: "median_abs_dev", Type: model.MetricTypeMedianAbsDev, Value: r.MedianAbsDev},
		{Name: "mean", Type: model.MetricTypeMean, Value: r.Mean},
		{Name: "mean_std_dev", Type: model.MetricTypeStdDev, Value: r.MeanStdDev},
	}

	for _, p := range r.Percentiles {
		mt, ok := model.PercentileMetricType(p.P)
		if !ok {
			continue
		}
		out = append(out, Metric{
			Name:  fmt.Sprintf("percentile_%s", model.PercentileKey(p.P)),
			Type:  mt,
			Value: p.Value,
		})
	}

	return out
}
