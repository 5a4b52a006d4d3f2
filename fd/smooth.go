package fd

import (
	"fmt"
	"sync"

	"github.com/soltanovemil/Functional-Data-Analysis/basis"
	"gonum.org/v1/gonum/mat"
)

// smoothSystem holds the shared matrices of a penalized least squares fit:
// the basis evaluation matrix at the sampling grid, its normal matrix and the
// roughness penalty. All curves of a matrix share one system.
type smoothSystem struct {
	b   *mat.Dense    // len(grid) x dim
	btb *mat.Dense    // dim x dim
	r   *mat.SymDense // dim x dim
}

// Process-wide cache of shared smoothing matrices, keyed by basis, sampling
// grid and penalty derivative order. Entries are created lazily and never
// invalidated within a run.
var (
	systemMu    sync.Mutex
	systemCache = make(map[string]*smoothSystem)
)

func sharedSystem(p Par, grid []float64) (*smoothSystem, error) {
	key := fmt.Sprintf("%s|%d|%v", p.Basis.Key(), p.Deriv, grid)

	systemMu.Lock()
	defer systemMu.Unlock()
	if sys, ok := systemCache[key]; ok {
		return sys, nil
	}

	b := p.Basis.Eval(grid)
	r, err := p.Basis.Penalty(p.Deriv)
	if err != nil {
		return nil, err
	}
	var btb mat.Dense
	btb.Mul(b.T(), b)

	sys := &smoothSystem{b: b, btb: &btb, r: r}
	systemCache[key] = sys
	return sys, nil
}

// Smooth fits one functional object to each column of y by penalized least
// squares: minimize the squared misfit at the grid points plus
// lambda times the integrated squared Deriv-th derivative. All columns reduce
// to one linear system (B'B + lambda R) C = B'Y solved jointly.
func Smooth(y *mat.Dense, grid []float64, p Par) (*FD, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rows, cols := y.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("observation matrix is %dx%d, %w", rows, cols, ErrNoData)
	}
	if len(grid) != rows {
		return nil, fmt.Errorf("grid has %d points but observation matrix has %d rows, %w", len(grid), rows, ErrDimensionMismatch)
	}
	if !basis.Covers(p.Basis, grid) {
		lo, hi := p.Basis.Domain()
		return nil, fmt.Errorf("sampling grid not covered by basis domain [%g, %g], %w", lo, hi, ErrDimensionMismatch)
	}

	sys, err := sharedSystem(p, grid)
	if err != nil {
		return nil, err
	}

	dim := p.Basis.Dim()
	m := mat.NewDense(dim, dim, nil)
	m.Copy(sys.btb)
	if p.Lambda > 0 {
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				m.Set(i, j, m.At(i, j)+p.Lambda*sys.r.At(i, j))
			}
		}
	}

	var bty mat.Dense
	bty.Mul(sys.b.T(), y)

	var coef mat.Dense
	if err := coef.Solve(m, &bty); err != nil {
		return nil, fmt.Errorf("penalized normal equations are unsolvable for basis %q with lambda %g, %w", p.Basis.Key(), p.Lambda, ErrSingularSystem)
	}
	return New(p.Basis, &coef)
}
