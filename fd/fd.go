// Package fd represents sets of curves as coefficient matrices over a common
// basis and fits them to sampled data by roughness-penalized least squares.
package fd

import (
	"errors"
	"fmt"

	"github.com/soltanovemil/Functional-Data-Analysis/basis"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrSingularSystem    = errors.New("singular penalized least squares system")
	ErrBasisMismatch     = errors.New("functional objects use different bases")
	ErrNoData            = errors.New("no observation data")
)

// FD is a set of curves, one per coefficient column, each a linear combination
// of the functions of a shared basis. The coefficient matrix is basis
// dimension by number of curves and is not mutated after construction.
type FD struct {
	b    basis.Basis
	coef *mat.Dense
}

// New wraps a coefficient matrix in a functional object. The matrix must have
// one row per basis function.
func New(b basis.Basis, coef *mat.Dense) (*FD, error) {
	rows, cols := coef.Dims()
	if rows != b.Dim() {
		return nil, fmt.Errorf("coefficient matrix has %d rows for a basis of dimension %d, %w", rows, b.Dim(), ErrDimensionMismatch)
	}
	if cols < 1 {
		return nil, fmt.Errorf("coefficient matrix has no columns, %w", ErrDimensionMismatch)
	}
	return &FD{b: b, coef: coef}, nil
}

func (f *FD) Basis() basis.Basis { return f.b }

func (f *FD) NumCurves() int {
	_, cols := f.coef.Dims()
	return cols
}

// Coef returns a copy of the coefficient matrix.
func (f *FD) Coef() *mat.Dense {
	var c mat.Dense
	c.CloneFrom(f.coef)
	return &c
}

// RawCoef returns the underlying coefficient matrix. Callers must treat it as
// read-only.
func (f *FD) RawCoef() *mat.Dense { return f.coef }

// Eval evaluates every curve at the grid points, returning a len(grid) by
// NumCurves matrix.
func (f *FD) Eval(grid []float64) *mat.Dense {
	var res mat.Dense
	res.Mul(f.b.Eval(grid), f.coef)
	return &res
}

// EvalDeriv evaluates the deriv-th derivative of every curve at the grid
// points.
func (f *FD) EvalDeriv(grid []float64, deriv int) (*mat.Dense, error) {
	bm, err := f.b.EvalDeriv(grid, deriv)
	if err != nil {
		return nil, err
	}
	var res mat.Dense
	res.Mul(bm, f.coef)
	return &res, nil
}

// Mean returns the single-curve pointwise mean function.
func (f *FD) Mean() *FD {
	rows, cols := f.coef.Dims()
	m := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += f.coef.At(i, j)
		}
		m.Set(i, 0, sum/float64(cols))
	}
	return &FD{b: f.b, coef: m}
}

// Center subtracts the mean function from every curve.
func (f *FD) Center() *FD {
	rows, cols := f.coef.Dims()
	mean := f.Mean().coef
	c := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			c.Set(i, j, f.coef.At(i, j)-mean.At(i, 0))
		}
	}
	return &FD{b: f.b, coef: c}
}

// Curve extracts the i-th curve as a single-curve functional object.
func (f *FD) Curve(i int) (*FD, error) {
	_, cols := f.coef.Dims()
	if i < 0 || i >= cols {
		return nil, fmt.Errorf("curve index %d out of range for %d curves, %w", i, cols, ErrDimensionMismatch)
	}
	rows, _ := f.coef.Dims()
	c := mat.NewDense(rows, 1, nil)
	for r := 0; r < rows; r++ {
		c.Set(r, 0, f.coef.At(r, i))
	}
	return &FD{b: f.b, coef: c}, nil
}

// InnerProducts returns the matrix of pairwise basis inner products
// integral of f_i g_j over the domain, computed through the shared basis Gram
// matrix. Both objects must use the same basis.
func InnerProducts(f, g *FD) (*mat.Dense, error) {
	if !basis.Equal(f.b, g.b) {
		return nil, fmt.Errorf("inner product between %q and %q, %w", f.b.Key(), g.b.Key(), ErrBasisMismatch)
	}
	gram, err := f.b.Penalty(0)
	if err != nil {
		return nil, err
	}

	var wg, res mat.Dense
	wg.Mul(gram, g.coef)
	res.Mul(f.coef.T(), &wg)
	return &res, nil
}
