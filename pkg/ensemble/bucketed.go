package ensemble

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AverageOfMaximum splits the detectors into buckets, takes the maximum score
// of each bucket and returns the mean of those maxima.
type AverageOfMaximum struct {
	b *bucketer
}

// NewAverageOfMaximum builds an AOM ensembler. Defaults: 5 static buckets,
// no bootstrap.
func NewAverageOfMaximum(opts ...BucketOption) (*AverageOfMaximum, error) {
	b, err := newBucketer(opts)
	if err != nil {
		return nil, err
	}
	return &AverageOfMaximum{b: b}, nil
}

func (*AverageOfMaximum) Kind() Kind { return KindAverageOfMaximum }

// Config returns the bucketing parameters.
func (a *AverageOfMaximum) Config() BucketConfig { return a.b.cfg }

// Plan returns the bucket membership that would be used for n detectors.
// Randomized configurations consume the random source.
func (a *AverageOfMaximum) Plan(n int) ([][]int, error) { return a.b.plan(n) }

func (a *AverageOfMaximum) Combine(scores []float64) (float64, error) {
	return combineBuckets(a.b, scores, floats.Max, mean)
}

// MaximumOfAverage splits the detectors into buckets, averages each bucket
// and returns the largest bucket average.
type MaximumOfAverage struct {
	b *bucketer
}

// NewMaximumOfAverage builds a MOA ensembler. Defaults: 5 static buckets,
// no bootstrap.
func NewMaximumOfAverage(opts ...BucketOption) (*MaximumOfAverage, error) {
	b, err := newBucketer(opts)
	if err != nil {
		return nil, err
	}
	return &MaximumOfAverage{b: b}, nil
}

func (*MaximumOfAverage) Kind() Kind { return KindMaximumOfAverage }

func (m *MaximumOfAverage) Config() BucketConfig { return m.b.cfg }

func (m *MaximumOfAverage) Plan(n int) ([][]int, error) { return m.b.plan(n) }

func (m *MaximumOfAverage) Combine(scores []float64) (float64, error) {
	return combineBuckets(m.b, scores, mean, floats.Max)
}

func mean(x []float64) float64 { return stat.Mean(x, nil) }

// combineBuckets reduces each bucket with inner, then the per-bucket results
// with outer.
func combineBuckets(b *bucketer, scores []float64, inner, outer func([]float64) float64) (float64, error) {
	if err := checkScores(scores); err != nil {
		return 0, err
	}
	buckets, err := b.plan(len(scores))
	if err != nil {
		return 0, err
	}

	reduced := make([]float64, len(buckets))
	var members []float64
	for i, idx := range buckets {
		members = gather(scores, idx, members)
		reduced[i] = inner(members)
	}
	return outer(reduced), nil
}
