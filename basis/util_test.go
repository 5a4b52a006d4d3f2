package basis

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// interpolateCoefs solves the collocation system B c = y for a single curve.
func interpolateCoefs(t *testing.T, b Basis, grid, y []float64) []float64 {
	t.Helper()

	require.Equal(t, b.Dim(), len(grid))
	bm := b.Eval(grid)

	var c mat.VecDense
	err := c.SolveVec(bm, mat.NewVecDense(len(y), y))
	require.Nil(t, err)

	out := make([]float64, b.Dim())
	for i := range out {
		out[i] = c.AtVec(i)
	}
	return out
}
