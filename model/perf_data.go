package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

type MetricType string

const (
	MetricTypeMean         MetricType = "mean"
	MetricTypeMedian       MetricType = "median"
	MetricTypeMedianAbsDev MetricType = "median-absolute-deviation"
	MetricTypeMax          MetricType = "max"
	MetricTypeMin          MetricType = "min"
	MetricTypeStdDev       MetricType = "standard-deviation"
	MetricTypePercentile99 MetricType = "percentile-99th"
	MetricTypePercentile95 MetricType = "percentile-95th"
	MetricTypePercentile75 MetricType = "percentile-75th"
	MetricTypePercentile50 MetricType = "percentile-50th"
	MetricTypePercentile25 MetricType = "percentile-25th"
	MetricTypePercentile5  MetricType = "percentile-5th"
)

func (t MetricType) Validate() error {
	switch t {
	case MetricTypeMax, MetricTypeMean, MetricTypeMedian, MetricTypeMedianAbsDev, MetricTypeMin, MetricTypeStdDev:
		return nil
	case MetricTypePercentile5, MetricTypePercentile25, MetricTypePercentile50,
		MetricTypePercentile75, MetricTypePercentile95, MetricTypePercentile99:
		return nil
	default:
		return errors.Errorf("'%s' is not a valid metric type", t)
	}
}

// DefaultPercentiles are the percentiles reported for every benchmark.
var DefaultPercentiles = []float64{0, 5, 25, 50, 75, 95, 99, 100}

// BenchmarkResult is the document uploaded for one benchmark of one harness
// run.
type BenchmarkResult struct {
	ID            string                 `bson:"_id,omitempty" json:"-"`
	Timestamp     time.Time              `bson:"timestamp" json:"@timestamp"`
	SHA           string                 `bson:"sha" json:"sha"`
	Mode          string                 `bson:"mode" json:"mode"`
	Name          string                 `bson:"benchmark" json:"benchmark"`
	Class         string                 `bson:"benchmark_class" json:"benchmark_class"`
	ShortName     string                 `bson:"benchmark_short_name" json:"benchmark_short_name"`
	Meta          map[string]interface{} `bson:"meta" json:"meta"`
	Runs          RunCounts              `bson:"runs" json:"runs"`
	WarmupsPerRun float64                `bson:"warmups_per_run" json:"warmups_per_run"`
	ValuesPerRun  float64                `bson:"values_per_run" json:"values_per_run"`
	Median        float64                `bson:"median" json:"median"`
	MedianAbsDev  float64                `bson:"median_abs_dev" json:"median_abs_dev"`
	Mean          float64                `bson:"mean" json:"mean"`
	MeanStdDev    float64                `bson:"mean_std_dev" json:"mean_std_dev"`
	Percentiles   Percentiles            `bson:"percentiles" json:"percentiles"`
}

type RunCounts struct {
	Calibration int `bson:"calibration" json:"calibration"`
	WithValues  int `bson:"with_values" json:"with_values"`
	Total       int `bson:"total" json:"total"`
}

// PercentileValue is the value at percentile P (0-100).
type PercentileValue struct {
	P     float64 `bson:"p" json:"p"`
	Value float64 `bson:"val" json:"val"`
}

// Percentiles are stored as a list in the database, since the keys of the
// JSON form contain dots, and rendered as an object keyed by "%.1f" of the
// percentile everywhere else.
type Percentiles []PercentileValue

// PercentileKey formats a percentile the way it is keyed in documents.
func PercentileKey(p float64) string { return strconv.FormatFloat(p, 'f', 1, 64) }

// Get returns the value at percentile p.
func (ps Percentiles) Get(p float64) (float64, bool) {
	for _, v := range ps {
		if v.P == p {
			return v.Value, true
		}
	}
	return 0, false
}

func (ps Percentiles) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for idx, v := range ps {
		if idx > 0 {
			buf.WriteByte(',')
		}
		val, err := json.Marshal(v.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "problem encoding percentile %s", PercentileKey(v.P))
		}
		buf.WriteString(strconv.Quote(PercentileKey(v.P)))
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (ps *Percentiles) UnmarshalJSON(data []byte) error {
	raw := map[string]float64{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "problem decoding percentiles")
	}

	out := make(Percentiles, 0, len(raw))
	for key, val := range raw {
		p, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid percentile key '%s'", key)
		}
		out = append(out, PercentileValue{P: p, Value: val})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].P < out[j].P })
	*ps = out

	return nil
}

// PercentileMetricType maps a reported percentile to its metric type, if it
// has one.
func PercentileMetricType(p float64) (MetricType, bool) {
	switch p {
	case 5:
		return MetricTypePercentile5, true
	case 25:
		return MetricTypePercentile25, true
	case 50:
		return MetricTypePercentile50, true
	case 75:
		return MetricTypePercentile75, true
	case 95:
		return MetricTypePercentile95, true
	case 99:
		return MetricTypePercentile99, true
	case 0:
		return MetricTypeMin, true
	case 100:
		return MetricTypeMax, true
	default:
		return "", false
	}
}
