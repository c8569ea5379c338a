package ensemble

import "slices"

// Median returns the middle score, or the mean of the two middle scores when
// the detector count is even.
type Median struct{}

func NewMedian() *Median { return &Median{} }

func (*Median) Kind() Kind { return KindMedian }

func (*Median) Combine(scores []float64) (float64, error) {
	if err := checkScores(scores); err != nil {
		return 0, err
	}
	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return (sorted[mid-1] + sorted[mid]) / 2, nil
}
