// Package ensemble combines anomaly scores produced by several detectors for a
// single timestep into one combined score.
//
// Position i of a score vector always belongs to detector i. The numeric
// reductions are delegated to gonum; this package only decides which scores
// are reduced together.
package ensemble

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrConfiguration reports invalid construction parameters, or parameters
	// that cannot be applied to the detector count seen at combine time.
	ErrConfiguration = errors.New("invalid ensembler configuration")

	// ErrInputShape reports an empty score vector, a non-finite score, or a
	// vector whose length does not match the configured weights.
	ErrInputShape = errors.New("invalid score vector")
)

// ScoreEnsembler reduces a vector of per-detector scores to one score.
type ScoreEnsembler interface {
	// Combine returns the combined score for one timestep. It never returns a
	// partial result: on error the returned score is zero.
	Combine(scores []float64) (float64, error)

	// Kind names the variant, e.g. "average" or "aom".
	Kind() Kind
}

// Kind identifies an ensembler variant.
type Kind string

const (
	KindAverage          Kind = "average"
	KindMax              Kind = "max"
	KindMedian           Kind = "median"
	KindAverageOfMaximum Kind = "aom"
	KindMaximumOfAverage Kind = "moa"
)

func (k Kind) String() string { return string(k) }

// TransformPartial combines the scores of a single timestep.
func TransformPartial(e ScoreEnsembler, scores []float64) (float64, error) {
	return e.Combine(scores)
}

func checkScores(scores []float64) error {
	if len(scores) == 0 {
		return fmt.Errorf("%w: no scores", ErrInputShape)
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: score %d is %v", ErrInputShape, i, s)
		}
	}
	return nil
}
