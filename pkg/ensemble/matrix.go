package ensemble

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CombineMatrix combines every row of scores, where rows are timesteps and
// columns are detectors. It fails on the first row that cannot be combined
// and returns no partial result.
func CombineMatrix(e ScoreEnsembler, scores mat.Matrix) ([]float64, error) {
	rows, cols := scores.Dims()

	combined := make([]float64, rows)
	row := make([]float64, cols)
	for i := range rows {
		mat.Row(row, i, scores)
		s, err := e.Combine(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		combined[i] = s
	}
	return combined, nil
}

// CombineRows is CombineMatrix for a slice of score vectors. Rows must all
// have the same length.
func CombineRows(e ScoreEnsembler, rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInputShape)
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: row 0 has no scores", ErrInputShape)
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d scores, want %d", ErrInputShape, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return CombineMatrix(e, mat.NewDense(len(rows), cols, data))
}
