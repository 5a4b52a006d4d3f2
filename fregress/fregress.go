// Package fregress fits linear models whose responses are curves and whose
// coefficients are themselves functions expanded in their own bases. Scalar
// predictors get constant-in-time coefficient curves through a constant
// basis; functional predictors act pointwise on the response. One engine
// covers the single-predictor, multi-predictor and group-indicator (FANOVA)
// cases through an ordered predictor list.
package fregress

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/soltanovemil/Functional-Data-Analysis/fd"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrConfigMismatch    = errors.New("predictor list does not match beta configuration list")
	ErrRankDeficiency    = errors.New("regression design is rank deficient")
	ErrDimensionMismatch = errors.New("dimension mismatch in regression inputs")
	ErrNoPredictors      = errors.New("no predictors")
)

// Predictor is one named term of the model: either a scalar per curve or a
// functional object with one curve per response curve.
type Predictor struct {
	name   string
	scalar []float64
	fn     *fd.FD
}

// Scalar builds a predictor holding one value per response curve.
func Scalar(name string, vals []float64) Predictor {
	return Predictor{name: name, scalar: vals}
}

// Intercept builds the all-ones scalar predictor for n curves.
func Intercept(name string, n int) Predictor {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1.0
	}
	return Predictor{name: name, scalar: ones}
}

// Functional builds a predictor from a functional object whose effect on the
// response is the pointwise product with its coefficient curve.
func Functional(name string, x *fd.FD) Predictor {
	return Predictor{name: name, fn: x}
}

func (p Predictor) Name() string { return p.name }

// IsFunctional reports whether the predictor carries curves rather than
// scalars.
func (p Predictor) IsFunctional() bool { return p.fn != nil }

// BetaConfig pairs a predictor name with the functional parameter governing
// its coefficient curve. The slice passed to Fit must align with the
// predictor slice by position and name.
type BetaConfig struct {
	Name string
	Par  fd.Par
}

// Beta is a fitted coefficient curve.
type Beta struct {
	Name string
	FD   *fd.FD
}

// Result carries the fitted model. RSquared and FRatio are NaN when the
// response has no variance about its grand mean (SST of zero), which callers
// must treat as undefined rather than as a fit quality of zero.
type Result struct {
	Betas []Beta

	Fitted    *mat.Dense // grid points x curves
	Residuals *mat.Dense // grid points x curves

	SSE      float64
	SST      float64
	RSquared float64
	FRatio   float64

	// NumCoef is the total number of free coefficients across betas and
	// NumObs the total number of response evaluation points.
	NumCoef int
	NumObs  int
}

// Fit solves the penalized least squares problem for all coefficient curves
// jointly, minimizing the integrated squared residual over the sampling grid
// plus each beta's roughness penalty.
func Fit(response *fd.FD, grid []float64, preds []Predictor, betas []BetaConfig) (*Result, error) {
	if len(preds) == 0 {
		return nil, ErrNoPredictors
	}
	if len(preds) != len(betas) {
		return nil, fmt.Errorf("%d predictors with %d beta configurations, %w", len(preds), len(betas), ErrConfigMismatch)
	}
	for i := range preds {
		if preds[i].name != betas[i].Name {
			return nil, fmt.Errorf("predictor %d is %q but beta configuration is %q, %w", i, preds[i].name, betas[i].Name, ErrConfigMismatch)
		}
		if err := betas[i].Par.Validate(); err != nil {
			return nil, err
		}
	}
	if len(grid) < 2 {
		return nil, fmt.Errorf("need at least 2 grid points, got %d, %w", len(grid), ErrDimensionMismatch)
	}

	nCurves := response.NumCurves()
	nGrid := len(grid)

	// Predictor values on the grid, one nGrid x nCurves matrix per term.
	zVals := make([]*mat.Dense, len(preds))
	for j, p := range preds {
		switch {
		case p.fn != nil:
			if p.fn.NumCurves() != nCurves {
				return nil, fmt.Errorf("functional predictor %q has %d curves for %d responses, %w", p.name, p.fn.NumCurves(), nCurves, ErrDimensionMismatch)
			}
			zVals[j] = p.fn.Eval(grid)
		case p.scalar != nil:
			if len(p.scalar) != nCurves {
				return nil, fmt.Errorf("scalar predictor %q has %d values for %d responses, %w", p.name, len(p.scalar), nCurves, ErrDimensionMismatch)
			}
			z := mat.NewDense(nGrid, nCurves, nil)
			for i, v := range p.scalar {
				for g := 0; g < nGrid; g++ {
					z.Set(g, i, v)
				}
			}
			zVals[j] = z
		default:
			return nil, fmt.Errorf("predictor %q holds neither scalars nor curves, %w", p.name, ErrConfigMismatch)
		}
	}

	// Beta basis evaluations and coefficient offsets.
	offsets := make([]int, len(betas)+1)
	thetas := make([]*mat.Dense, len(betas))
	for j, bc := range betas {
		thetas[j] = bc.Par.Basis.Eval(grid)
		offsets[j+1] = offsets[j] + bc.Par.Basis.Dim()
	}
	nCoef := offsets[len(betas)]
	nObs := nCurves * nGrid
	if nCoef > nObs {
		return nil, fmt.Errorf("%d coefficients exceed %d observations, %w", nCoef, nObs, ErrRankDeficiency)
	}

	w := trapezoidWeights(grid)
	yVals := response.Eval(grid)

	// Stack the weighted design, one row per curve and grid point.
	x := mat.NewDense(nObs, nCoef, nil)
	y := mat.NewVecDense(nObs, nil)
	for i := 0; i < nCurves; i++ {
		for g := 0; g < nGrid; g++ {
			row := i*nGrid + g
			sw := math.Sqrt(w[g])
			y.SetVec(row, sw*yVals.At(g, i))
			for j := range preds {
				z := zVals[j].At(g, i)
				if z == 0 {
					continue
				}
				for k := 0; k < betas[j].Par.Basis.Dim(); k++ {
					x.Set(row, offsets[j]+k, sw*z*thetas[j].At(g, k))
				}
			}
		}
	}

	// Penalized normal equations with per-beta lambda R blocks.
	var a mat.Dense
	a.Mul(x.T(), x)
	for j, bc := range betas {
		if bc.Par.Lambda == 0 {
			continue
		}
		r, err := bc.Par.Basis.Penalty(bc.Par.Deriv)
		if err != nil {
			return nil, err
		}
		for p := 0; p < bc.Par.Basis.Dim(); p++ {
			for q := 0; q < bc.Par.Basis.Dim(); q++ {
				i0, j0 := offsets[j]+p, offsets[j]+q
				a.Set(i0, j0, a.At(i0, j0)+bc.Par.Lambda*r.At(p, q))
			}
		}
	}

	var rhs mat.VecDense
	rhs.MulVec(x.T(), y)

	var coef mat.VecDense
	if err := coef.SolveVec(&a, &rhs); err != nil {
		return nil, fmt.Errorf("combined design for %d coefficients is singular, %w", nCoef, ErrRankDeficiency)
	}

	// Slice the stacked solution back into per-term coefficient curves.
	result := &Result{
		Betas:   make([]Beta, len(betas)),
		NumCoef: nCoef,
		NumObs:  nObs,
	}
	for j, bc := range betas {
		dim := bc.Par.Basis.Dim()
		bcoef := mat.NewDense(dim, 1, nil)
		for k := 0; k < dim; k++ {
			bcoef.Set(k, 0, coef.AtVec(offsets[j]+k))
		}
		bfd, err := fd.New(bc.Par.Basis, bcoef)
		if err != nil {
			return nil, err
		}
		result.Betas[j] = Beta{Name: bc.Name, FD: bfd}
	}

	// Fitted values, residual decomposition and goodness of fit on the grid.
	fitted := mat.NewDense(nGrid, nCurves, nil)
	for j := range betas {
		betaVals := result.Betas[j].FD.Eval(grid)
		for g := 0; g < nGrid; g++ {
			bv := betaVals.At(g, 0)
			for i := 0; i < nCurves; i++ {
				fitted.Set(g, i, fitted.At(g, i)+zVals[j].At(g, i)*bv)
			}
		}
	}

	residuals := mat.NewDense(nGrid, nCurves, nil)
	grandMean := 0.0
	totalWeight := 0.0
	for g := 0; g < nGrid; g++ {
		for i := 0; i < nCurves; i++ {
			residuals.Set(g, i, yVals.At(g, i)-fitted.At(g, i))
			grandMean += w[g] * yVals.At(g, i)
			totalWeight += w[g]
		}
	}
	grandMean /= totalWeight

	var sse, sst float64
	for g := 0; g < nGrid; g++ {
		for i := 0; i < nCurves; i++ {
			r := residuals.At(g, i)
			d := yVals.At(g, i) - grandMean
			sse += w[g] * r * r
			sst += w[g] * d * d
		}
	}

	result.Fitted = fitted
	result.Residuals = residuals
	result.SSE = sse
	result.SST = sst
	result.RSquared = math.NaN()
	result.FRatio = math.NaN()
	if sst > 0 {
		result.RSquared = 1.0 - sse/sst
		if df := nObs - nCoef - 1; df > 0 {
			result.FRatio = ((sst - sse) / float64(nCoef)) / (sse / float64(df))
		}
	}
	return result, nil
}

// GroupIndicators converts categorical labels, one per curve, into
// full-indicator predictors: one column per level and no intercept, matching
// the variance decomposition model this engine is used for. Levels are
// returned in sorted order.
func GroupIndicators(labels []string) ([]Predictor, []string) {
	seen := make(map[string]bool)
	var levels []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			levels = append(levels, l)
		}
	}
	sort.Strings(levels)

	preds := make([]Predictor, len(levels))
	for j, level := range levels {
		vals := make([]float64, len(labels))
		for i, l := range labels {
			if l == level {
				vals[i] = 1.0
			}
		}
		preds[j] = Scalar(level, vals)
	}
	return preds, levels
}

func trapezoidWeights(grid []float64) []float64 {
	n := len(grid)
	w := make([]float64, n)
	for i := 0; i < n-1; i++ {
		h := (grid[i+1] - grid[i]) / 2.0
		w[i] += h
		w[i+1] += h
	}
	return w
}
