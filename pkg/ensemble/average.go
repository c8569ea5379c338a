package ensemble

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Average returns the weighted mean of the scores. Without weights every
// detector counts the same.
type Average struct {
	weights []float64
}

// NewAverage builds an Average ensembler. An empty weights slice means
// uniform weights; otherwise it must hold one finite, non-negative weight per
// detector with a positive sum.
func NewAverage(weights []float64) (*Average, error) {
	if len(weights) == 0 {
		return &Average{}, nil
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("%w: weight %d is %v", ErrConfiguration, i, w)
		}
	}
	if floats.Sum(weights) <= 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrConfiguration)
	}
	return &Average{weights: slices.Clone(weights)}, nil
}

func (a *Average) Kind() Kind { return KindAverage }

// Weights returns a copy of the configured weights, or nil for uniform weights.
func (a *Average) Weights() []float64 { return slices.Clone(a.weights) }

func (a *Average) Combine(scores []float64) (float64, error) {
	if err := checkScores(scores); err != nil {
		return 0, err
	}
	if a.weights != nil && len(a.weights) != len(scores) {
		return 0, fmt.Errorf("%w: %w: %d weights for %d scores",
			ErrConfiguration, ErrInputShape, len(a.weights), len(scores))
	}
	return stat.Mean(scores, a.weights), nil
}
