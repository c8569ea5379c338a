package ensemble

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-12

var example = []float64{0.1, 0.9, 0.5, 0.3}

func TestExampleVector(t *testing.T) {
	maxScore, err := NewMax().Combine(example)
	require.NoError(t, err)
	assert.Equal(t, 0.9, maxScore)

	median, err := NewMedian().Combine(example)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, median, tolerance)

	avg, err := NewAverage(nil)
	require.NoError(t, err)
	mean, err := avg.Combine(example)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, mean, tolerance)
}

func TestMaxReturnsLargestElement(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"single", []float64{3.2}, 3.2},
		{"first", []float64{7, 1, 2}, 7},
		{"last", []float64{1, 2, 7}, 7},
		{"duplicates", []float64{4, 4, 1}, 4},
		{"negative", []float64{-3, -1, -2}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMax().Combine(tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"single", []float64{2.5}, 2.5},
		{"odd", []float64{5, 1, 3}, 3},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"even pair", []float64{1, 2}, 1.5},
		{"repeated", []float64{1, 1, 1, 9}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMedian().Combine(tt.scores)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tolerance)
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	scores := []float64{3, 1, 2}
	_, err := NewMedian().Combine(scores)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, scores)
}

func TestAverageWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    float64
	}{
		{"uniform nil", nil, 0.45},
		{"uniform empty", []float64{}, 0.45},
		{"explicit uniform", []float64{2, 2, 2, 2}, 0.45},
		{"single detector", []float64{1, 0, 0, 0}, 0.1},
		{"weighted", []float64{1, 1, 2, 0}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, err := NewAverage(tt.weights)
			require.NoError(t, err)

			got, err := avg.Combine(example)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tolerance)
		})
	}
}

func TestAverageCopiesWeights(t *testing.T) {
	weights := []float64{1, 1, 1, 1}
	avg, err := NewAverage(weights)
	require.NoError(t, err)

	weights[0] = 100
	assert.Equal(t, []float64{1, 1, 1, 1}, avg.Weights())
}

func TestAverageRejectsBadWeights(t *testing.T) {
	for name, weights := range map[string][]float64{
		"negative": {1, -1},
		"nan":      {1, math.NaN()},
		"inf":      {math.Inf(1), 1},
		"zero sum": {0, 0, 0},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewAverage(weights)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestAverageWeightLengthMismatch(t *testing.T) {
	avg, err := NewAverage([]float64{1, 2, 3})
	require.NoError(t, err)

	got, err := avg.Combine(example)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, ErrInputShape)
	assert.Zero(t, got)
}

func TestAllKindsRejectInvalidScores(t *testing.T) {
	avg, err := NewAverage(nil)
	require.NoError(t, err)
	aom, err := NewAverageOfMaximum(WithBuckets(1))
	require.NoError(t, err)
	moa, err := NewMaximumOfAverage(WithBuckets(1))
	require.NoError(t, err)

	ensemblers := []ScoreEnsembler{avg, NewMax(), NewMedian(), aom, moa}
	inputs := map[string][]float64{
		"nil":   nil,
		"empty": {},
		"nan":   {1, math.NaN()},
		"inf":   {math.Inf(-1), 1},
	}

	for _, e := range ensemblers {
		for name, scores := range inputs {
			t.Run(e.Kind().String()+"/"+name, func(t *testing.T) {
				_, err := e.Combine(scores)
				assert.ErrorIs(t, err, ErrInputShape)
			})
		}
	}
}

func TestTransformPartial(t *testing.T) {
	got, err := TransformPartial(NewMax(), example)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got)
}

func TestEnsemblersAreSafeForConcurrentUse(t *testing.T) {
	aom, err := NewAverageOfMaximum(WithBuckets(3), WithMethod(MethodDynamic), WithBootstrap(true), WithSeed(7))
	require.NoError(t, err)

	scores := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s, err := aom.Combine(scores)
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, s, 1.0)
				assert.LessOrEqual(t, s, 9.0)
			}
		}()
	}
	wg.Wait()
}
