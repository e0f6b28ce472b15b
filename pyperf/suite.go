// Package pyperf reads the JSON benchmark suites written by the pyperf
// benchmark harness.
package pyperf

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Suite is the content of one harness output file.
type Suite struct {
	Filename   string
	Version    string
	Metadata   map[string]interface{}
	Benchmarks []*Benchmark
}

type rawSuite struct {
	Version    string                 `json:"version"`
	Metadata   map[string]interface{} `json:"metadata"`
	Benchmarks []rawBenchmark         `json:"benchmarks"`
}

type rawBenchmark struct {
	Metadata map[string]interface{} `json:"metadata"`
	Runs     []rawRun               `json:"runs"`
}

type rawRun struct {
	Metadata map[string]interface{} `json:"metadata"`
	Warmups  [][]float64            `json:"warmups"`
	Values   []float64              `json:"values"`
}

// Load reads a suite from a file; files ending in .gz are decompressed.
func Load(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "problem opening suite %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "problem decompressing suite %s", path)
		}
		defer gz.Close()
		r = gz
	}

	return Read(r, path)
}

// Read decodes a suite. The name is only used to identify the suite in
// errors and results.
func Read(r io.Reader, name string) (*Suite, error) {
	raw := rawSuite{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrapf(err, "problem decoding suite %s", name)
	}

	if !strings.HasPrefix(raw.Version, "1.") {
		return nil, errors.Errorf("suite %s has unsupported format version '%s'", name, raw.Version)
	}
	if len(raw.Benchmarks) == 0 {
		return nil, errors.Errorf("suite %s has no benchmarks", name)
	}

	suite := &Suite{
		Filename:   name,
		Version:    raw.Version,
		Metadata:   raw.Metadata,
		Benchmarks: make([]*Benchmark, 0, len(raw.Benchmarks)),
	}
	if suite.Metadata == nil {
		suite.Metadata = map[string]interface{}{}
	}

	for idx, rb := range raw.Benchmarks {
		bench := &Benchmark{
			metadata: mergeMetadata(suite.Metadata, rb.Metadata),
			Runs:     make([]*Run, 0, len(rb.Runs)),
		}
		if bench.Name() == "" {
			return nil, errors.Errorf("benchmark %d of suite %s has no name", idx, name)
		}

		for _, rr := range rb.Runs {
			run := &Run{
				Metadata: mergeMetadata(bench.metadata, rr.Metadata),
				Values:   rr.Values,
			}
			for _, w := range rr.Warmups {
				if len(w) != 2 {
					return nil, errors.Errorf("benchmark %s of suite %s has a malformed warmup", bench.Name(), name)
				}
				run.Warmups = append(run.Warmups, Warmup{Loops: int(w[0]), Value: w[1]})
			}
			bench.Runs = append(bench.Runs, run)
		}

		suite.Benchmarks = append(suite.Benchmarks, bench)
	}

	return suite, nil
}

// mergeMetadata returns a copy of base with the keys of overlay set on it.
func mergeMetadata(base, overlay map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
