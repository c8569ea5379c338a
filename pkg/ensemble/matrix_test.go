package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCombineMatrix(t *testing.T) {
	scores := mat.NewDense(3, 4, []float64{
		0.1, 0.9, 0.5, 0.3,
		1, 1, 1, 1,
		4, 3, 2, 1,
	})

	got, err := CombineMatrix(NewMedian(), scores)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.4, 1, 2.5}, got, tolerance)
}

func TestCombineMatrixFailsWithoutPartialResult(t *testing.T) {
	avg, err := NewAverage([]float64{1, 1, 1})
	require.NoError(t, err)

	got, err := CombineMatrix(avg, mat.NewDense(2, 4, nil))
	assert.ErrorIs(t, err, ErrInputShape)
	assert.ErrorContains(t, err, "row 0")
	assert.Nil(t, got)
}

func TestCombineRows(t *testing.T) {
	got, err := CombineRows(NewMax(), [][]float64{{1, 2}, {5, 3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, got)

	_, err = CombineRows(NewMax(), [][]float64{{1, 2}, {5}})
	assert.ErrorIs(t, err, ErrInputShape)

	_, err = CombineRows(NewMax(), nil)
	assert.ErrorIs(t, err, ErrInputShape)

	_, err = CombineRows(NewMax(), [][]float64{{}})
	assert.ErrorIs(t, err, ErrInputShape)
}
