package ensemble

import "gonum.org/v1/gonum/floats"

// Max returns the largest score.
type Max struct{}

func NewMax() *Max { return &Max{} }

func (*Max) Kind() Kind { return KindMax }

func (*Max) Combine(scores []float64) (float64, error) {
	if err := checkScores(scores); err != nil {
		return 0, err
	}
	return floats.Max(scores), nil
}
