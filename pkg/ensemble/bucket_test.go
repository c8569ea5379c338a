package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" Dynamic ")
	require.NoError(t, err)
	assert.Equal(t, MethodDynamic, m)

	_, err = ParseMethod("random")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestBucketConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []BucketOption
	}{
		{"zero buckets", []BucketOption{WithBuckets(0)}},
		{"negative buckets", []BucketOption{WithBuckets(-2)}},
		{"unknown method", []BucketOption{WithMethod("random")}},
		{"empty method", []BucketOption{WithMethod("")}},
		{"above limit", []BucketOption{WithBuckets(MaxBuckets + 1)}},
		{"bootstrap above limit", []BucketOption{WithBuckets(20_000_000), WithBootstrap(true)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAverageOfMaximum(tt.opts...)
			assert.ErrorIs(t, err, ErrConfiguration)

			_, err = NewMaximumOfAverage(tt.opts...)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestDefaultBucketConfig(t *testing.T) {
	aom, err := NewAverageOfMaximum()
	require.NoError(t, err)

	cfg := aom.Config()
	assert.Equal(t, 5, cfg.Buckets)
	assert.Equal(t, MethodStatic, cfg.Method)
	assert.False(t, cfg.Bootstrap)
}

func TestStaticPlanIsContiguousInInputOrder(t *testing.T) {
	aom, err := NewAverageOfMaximum(WithBuckets(3))
	require.NoError(t, err)

	plan, err := aom.Plan(6)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4, 5}}, plan)
}

func TestStaticSingleBucket(t *testing.T) {
	aom, err := NewAverageOfMaximum(WithBuckets(1))
	require.NoError(t, err)
	moa, err := NewMaximumOfAverage(WithBuckets(1))
	require.NoError(t, err)

	got, err := aom.Combine(example)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got)

	got, err = moa.Combine(example)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, got, tolerance)
}

func TestStaticOneDetectorPerBucket(t *testing.T) {
	aom, err := NewAverageOfMaximum(WithBuckets(len(example)))
	require.NoError(t, err)
	moa, err := NewMaximumOfAverage(WithBuckets(len(example)))
	require.NoError(t, err)

	// Each bucket holds one score: the maxima are the scores themselves and
	// so are the bucket means.
	got, err := aom.Combine(example)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, got, tolerance)

	got, err = moa.Combine(example)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got)
}

func TestStaticTwoBuckets(t *testing.T) {
	aom, err := NewAverageOfMaximum(WithBuckets(2))
	require.NoError(t, err)
	moa, err := NewMaximumOfAverage(WithBuckets(2))
	require.NoError(t, err)

	// buckets: {0.1, 0.9} and {0.5, 0.3}
	got, err := aom.Combine(example)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, got, tolerance)

	got, err = moa.Combine(example)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, tolerance)
}

func TestCombineTimeConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   []BucketOption
		scores []float64
	}{
		{"more buckets than detectors", []BucketOption{WithBuckets(5)}, example},
		{"dynamic more buckets than detectors", []BucketOption{WithBuckets(5), WithMethod(MethodDynamic)}, example},
		{"static remainder", []BucketOption{WithBuckets(3)}, example},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aom, err := NewAverageOfMaximum(tt.opts...)
			require.NoError(t, err)

			got, err := aom.Combine(tt.scores)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Zero(t, got)
		})
	}
}

func TestDynamicPlanIsPartition(t *testing.T) {
	moa, err := NewMaximumOfAverage(WithBuckets(4), WithMethod(MethodDynamic), WithSeed(42))
	require.NoError(t, err)

	for range 50 {
		plan, err := moa.Plan(11)
		require.NoError(t, err)
		require.Len(t, plan, 4)

		seen := make(map[int]int)
		for _, bucket := range plan {
			assert.NotEmpty(t, bucket)
			for _, i := range bucket {
				seen[i]++
			}
		}
		assert.Len(t, seen, 11)
		for i, n := range seen {
			assert.Equal(t, 1, n, "detector %d", i)
		}
	}
}

func TestDynamicOneBucketPerDetector(t *testing.T) {
	aom, err := NewAverageOfMaximum(WithBuckets(len(example)), WithMethod(MethodDynamic), WithSeed(3))
	require.NoError(t, err)

	got, err := aom.Combine(example)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, got, tolerance)
}

func TestBootstrapPlan(t *testing.T) {
	t.Run("static bucket size", func(t *testing.T) {
		aom, err := NewAverageOfMaximum(WithBuckets(2), WithBootstrap(true), WithSeed(1))
		require.NoError(t, err)

		plan, err := aom.Plan(6)
		require.NoError(t, err)
		require.Len(t, plan, 2)
		for _, bucket := range plan {
			assert.Len(t, bucket, 3)
			for _, i := range bucket {
				assert.GreaterOrEqual(t, i, 0)
				assert.Less(t, i, 6)
			}
		}
	})

	t.Run("more buckets than detectors", func(t *testing.T) {
		moa, err := NewMaximumOfAverage(WithBuckets(10), WithBootstrap(true), WithSeed(1))
		require.NoError(t, err)

		plan, err := moa.Plan(3)
		require.NoError(t, err)
		require.Len(t, plan, 10)
		for _, bucket := range plan {
			assert.Len(t, bucket, 1)
		}

		got, err := moa.Combine([]float64{1, 2, 3})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 1.0)
		assert.LessOrEqual(t, got, 3.0)
	})

	t.Run("dynamic sizes", func(t *testing.T) {
		aom, err := NewAverageOfMaximum(WithBuckets(3), WithMethod(MethodDynamic), WithBootstrap(true), WithSeed(9))
		require.NoError(t, err)

		for range 50 {
			plan, err := aom.Plan(5)
			require.NoError(t, err)
			require.Len(t, plan, 3)
			for _, bucket := range plan {
				assert.GreaterOrEqual(t, len(bucket), 1)
				assert.LessOrEqual(t, len(bucket), 5)
			}
		}
	})
}

func TestSeededBucketingIsReproducible(t *testing.T) {
	scores := []float64{0.2, 0.8, 0.1, 0.7, 0.4, 0.9, 0.3, 0.6}

	build := func() []ScoreEnsembler {
		aom, err := NewAverageOfMaximum(WithBuckets(3), WithMethod(MethodDynamic), WithSeed(2024))
		require.NoError(t, err)
		moa, err := NewMaximumOfAverage(WithBuckets(4), WithBootstrap(true), WithSeed(2024))
		require.NoError(t, err)
		return []ScoreEnsembler{aom, moa}
	}

	first, second := build(), build()
	for i := range first {
		for range 20 {
			a, err := first[i].Combine(scores)
			require.NoError(t, err)
			b, err := second[i].Combine(scores)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		}
	}
}

func BenchmarkAverageOfMaximum(b *testing.B) {
	scores := make([]float64, 100)
	for i := range scores {
		scores[i] = float64(i%17) / 17
	}

	for _, method := range []Method{MethodStatic, MethodDynamic} {
		b.Run(method.String(), func(b *testing.B) {
			aom, err := NewAverageOfMaximum(WithBuckets(10), WithMethod(method), WithSeed(1))
			if err != nil {
				b.Fatal(err)
			}

			for b.Loop() {
				_, _ = aom.Combine(scores)
			}
		})
	}
}

func TestBootstrapAtBucketLimit(t *testing.T) {
	moa, err := NewMaximumOfAverage(WithBuckets(MaxBuckets), WithBootstrap(true), WithSeed(5))
	require.NoError(t, err)

	got, err := moa.Combine([]float64{1, 2})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, 1.0)
	assert.LessOrEqual(t, got, 2.0)
}
