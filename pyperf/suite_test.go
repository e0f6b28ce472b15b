package pyperf

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	for name, test := range map[string]func(t *testing.T){
		"Fixture": func(t *testing.T) {
			suite, err := Load(filepath.Join("testdata", "suite.json"))
			require.NoError(t, err)
			assert.Equal(t, "1.0", suite.Version)
			assert.Equal(t, "bench-host", suite.Metadata["hostname"])
			require.Len(t, suite.Benchmarks, 2)
			assert.Equal(t, "tests.benchmarks.test_client.bench_send", suite.Benchmarks[0].Name())
			assert.Equal(t, "tests.benchmarks.test_client.bench_alloc", suite.Benchmarks[1].Name())
		},
		"Gzipped": func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", "suite.json"))
			require.NoError(t, err)

			buf := &bytes.Buffer{}
			gz := gzip.NewWriter(buf)
			_, err = gz.Write(data)
			require.NoError(t, err)
			require.NoError(t, gz.Close())

			fn := filepath.Join(t.TempDir(), "suite.json.gz")
			require.NoError(t, os.WriteFile(fn, buf.Bytes(), 0644))

			suite, err := Load(fn)
			require.NoError(t, err)
			assert.Len(t, suite.Benchmarks, 2)
			assert.Equal(t, fn, suite.Filename)
		},
		"MissingFile": func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", "DNE.json"))
			assert.Error(t, err)
		},
		"InvalidJSON": func(t *testing.T) {
			_, err := Read(strings.NewReader("{"), "broken")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "broken")
		},
		"UnsupportedVersion": func(t *testing.T) {
			_, err := Read(strings.NewReader(`{"version": "0.9", "benchmarks": [{"metadata": {"name": "a"}}]}`), "old")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unsupported format version")
		},
		"NoBenchmarks": func(t *testing.T) {
			_, err := Read(strings.NewReader(`{"version": "1.0", "benchmarks": []}`), "empty")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "no benchmarks")
		},
		"UnnamedBenchmark": func(t *testing.T) {
			_, err := Read(strings.NewReader(`{"version": "1.0", "benchmarks": [{"runs": []}]}`), "unnamed")
			assert.Error(t, err)
		},
		"MalformedWarmup": func(t *testing.T) {
			_, err := Read(strings.NewReader(`{"version": "1.0", "benchmarks": [{"metadata": {"name": "a"}, "runs": [{"warmups": [[1]]}]}]}`), "warmup")
			assert.Error(t, err)
		},
	} {
		t.Run(name, test)
	}
}

func TestBenchmarkAccessors(t *testing.T) {
	suite, err := Load(filepath.Join("testdata", "suite.json"))
	require.NoError(t, err)

	t.Run("TimedBenchmark", func(t *testing.T) {
		bench := suite.Benchmarks[0]

		meta := bench.Metadata()
		assert.Equal(t, "bench-host", meta["hostname"])
		assert.Equal(t, "second", meta["unit"])
		assert.EqualValues(t, 4, meta["loops"])
		assert.NotContains(t, meta, "date")
		assert.NotContains(t, meta, "worker")
		assert.NotContains(t, meta, "calibrate_loops")

		assert.Equal(t, "second", bench.Unit())
		assert.Equal(t, 3, bench.NRun())
		assert.Equal(t, 1, bench.CalibrationRuns())
		assert.True(t, bench.Runs[0].IsCalibration())
		assert.Equal(t, 4, bench.Loops())
		assert.Equal(t, 1, bench.InnerLoops())
		assert.Equal(t, 4, bench.TotalLoops())
		assert.Equal(t, 1.0, bench.NWarmup())
		assert.Equal(t, 2.5, bench.NValuePerRun())
		assert.Equal(t, []float64{0.001, 0.002, 0.003, 0.004, 0.005}, bench.Values())
		require.Len(t, bench.Runs[0].Warmups, 3)
		assert.Equal(t, Warmup{Loops: 2, Value: 0.3}, bench.Runs[0].Warmups[1])

		start, end, ok := bench.Dates()
		require.True(t, ok)
		assert.Equal(t, time.Date(2020, 1, 1, 12, 0, 5, 0, time.UTC), start)
		assert.Equal(t, time.Date(2020, 1, 1, 12, 0, 15, 0, time.UTC), end)
	})
	t.Run("MemoryBenchmark", func(t *testing.T) {
		bench := suite.Benchmarks[1]

		assert.Equal(t, "byte", bench.Unit())
		assert.Equal(t, 1, bench.NRun())
		assert.Equal(t, 0, bench.CalibrationRuns())
		assert.Equal(t, 1, bench.Loops())
		assert.Equal(t, 2, bench.InnerLoops())
		assert.Equal(t, 0.0, bench.NWarmup())
		assert.Equal(t, 4.0, bench.NValuePerRun())
	})
	t.Run("NoRuns", func(t *testing.T) {
		bench := &Benchmark{metadata: map[string]interface{}{"name": "empty"}}
		assert.Equal(t, "empty", bench.Metadata()["name"])
		assert.Equal(t, "second", bench.Unit())
		assert.Empty(t, bench.Values())
		assert.Equal(t, 0.0, bench.NValuePerRun())
		_, _, ok := bench.Dates()
		assert.False(t, ok)
	})
}

func TestParseDate(t *testing.T) {
	for input, expected := range map[string]time.Time{
		"2020-01-01 12:00:05":              time.Date(2020, 1, 1, 12, 0, 5, 0, time.UTC),
		"2020-01-01T12:00:05":              time.Date(2020, 1, 1, 12, 0, 5, 0, time.UTC),
		"2020-01-01 12:00:05.250000":       time.Date(2020, 1, 1, 12, 0, 5, 250000000, time.UTC),
		"2020-01-01T12:00:05Z":             time.Date(2020, 1, 1, 12, 0, 5, 0, time.UTC),
		"2020-01-01T14:00:05+02:00":        time.Date(2020, 1, 1, 12, 0, 5, 0, time.UTC),
		"2020-01-01 14:00:05.000001+02:00": time.Date(2020, 1, 1, 12, 0, 5, 1000, time.UTC),
	} {
		t.Run(input, func(t *testing.T) {
			parsed, ok := ParseDate(input)
			require.True(t, ok)
			assert.True(t, expected.Equal(parsed), parsed.String())
		})
	}

	_, ok := ParseDate("last tuesday")
	assert.False(t, ok)
}
