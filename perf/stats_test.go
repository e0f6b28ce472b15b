package perf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	five := []float64{1, 2, 3, 4, 5}
	for p, expected := range map[float64]float64{
		0:   1,
		5:   1.2,
		25:  2,
		50:  3,
		75:  4,
		95:  4.8,
		99:  4.96,
		100: 5,
	} {
		assert.InDelta(t, expected, Percentile(five, p), 1e-9, "p%v", p)
	}

	assert.Equal(t, 7.0, Percentile([]float64{7}, 99))
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestCalculate(t *testing.T) {
	for name, test := range map[string]func(t *testing.T){
		"OddSample": func(t *testing.T) {
			out, err := Calculate([]float64{5, 1, 4, 2, 3}, []float64{0, 50, 100})
			require.NoError(t, err)
			assert.Equal(t, 3.0, out.Median)
			assert.Equal(t, 1.0, out.MedianAbsDev)
			assert.Equal(t, 3.0, out.Mean)
			assert.InDelta(t, math.Sqrt(2.5), out.StdDev, 1e-9)
			assert.Equal(t, map[float64]float64{0: 1, 50: 3, 100: 5}, out.Percentiles)
		},
		"EvenSample": func(t *testing.T) {
			out, err := Calculate([]float64{400, 100, 300, 200}, []float64{25, 50, 75})
			require.NoError(t, err)
			assert.Equal(t, 250.0, out.Median)
			assert.Equal(t, 100.0, out.MedianAbsDev)
			assert.Equal(t, 250.0, out.Mean)
			assert.InDelta(t, 129.0994, out.StdDev, 1e-4)
			assert.InDelta(t, 175, out.Percentiles[25], 1e-9)
			assert.InDelta(t, 250, out.Percentiles[50], 1e-9)
			assert.InDelta(t, 325, out.Percentiles[75], 1e-9)
		},
		"SingleValueHasNoDeviation": func(t *testing.T) {
			out, err := Calculate([]float64{42}, nil)
			require.NoError(t, err)
			assert.Equal(t, 42.0, out.Median)
			assert.Equal(t, 0.0, out.StdDev)
			assert.Equal(t, 0.0, out.MedianAbsDev)
		},
		"DoesNotReorderInput": func(t *testing.T) {
			values := []float64{3, 1, 2}
			_, err := Calculate(values, []float64{50})
			require.NoError(t, err)
			assert.Equal(t, []float64{3, 1, 2}, values)
		},
		"Empty": func(t *testing.T) {
			_, err := Calculate(nil, []float64{50})
			assert.Error(t, err)
		},
		"OutOfRangePercentile": func(t *testing.T) {
			_, err := Calculate([]float64{1}, []float64{101})
			assert.Error(t, err)
		},
	} {
		t.Run(name, test)
	}
}
