// Package register aligns curves to a reference curve by estimating a smooth
// monotone time warping per curve, separating phase variation from amplitude
// variation.
package register

import (
	"errors"
	"fmt"
	"math"

	"github.com/soltanovemil/Functional-Data-Analysis/fd"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrConvergence       = errors.New("warp estimation did not converge")
	ErrDimensionMismatch = errors.New("dimension mismatch in registration inputs")
	ErrNoTarget          = errors.New("target must be a single curve")
	ErrBadOptions        = errors.New("invalid registration options")
)

// Options bound the iterative monotone fit. On non-convergence the penalty is
// escalated by PenaltyScale and the fit retried, up to Retries times, before
// the engine reports failure. It never silently returns unaligned curves.
type Options struct {
	MaxIter      int     `json:"max_iter"`
	Tolerance    float64 `json:"tolerance"`
	Retries      int     `json:"retries"`
	PenaltyScale float64 `json:"penalty_scale"`
}

func NewDefaultOptions() *Options {
	return &Options{
		MaxIter:      100,
		Tolerance:    1e-6,
		Retries:      3,
		PenaltyScale: 10.0,
	}
}

func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.MaxIter < 1 || o.Tolerance <= 0 || o.Retries < 0 || o.PenaltyScale <= 1 {
		return nil, fmt.Errorf("iteration budget %d, tolerance %g, retries %d, penalty scale %g, %w", o.MaxIter, o.Tolerance, o.Retries, o.PenaltyScale, ErrBadOptions)
	}
	return o, nil
}

// Result holds the time-aligned curves, the per-curve warping functions and
// the final squared misfit of each warp fit.
type Result struct {
	Registered *fd.FD
	Warps      *fd.FD
	// WarpValues are the raw warped time points, grid by curves.
	WarpValues *mat.Dense
	Objective  []float64
}

// Register estimates, for each curve of x, a monotone warp
// w(t) = lo + (hi-lo) * int exp(W) / int exp(W) with W expanded in the warp
// parameter's basis, minimizing the squared difference between the warped
// curve and the target on the grid plus the warp roughness penalty. Endpoint
// constraints w(lo)=lo and w(hi)=hi hold by construction.
func Register(x *fd.FD, target *fd.FD, grid []float64, warpPar fd.Par, opt *Options) (*Result, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if err := warpPar.Validate(); err != nil {
		return nil, err
	}
	if target.NumCurves() != 1 {
		return nil, fmt.Errorf("got %d target curves, %w", target.NumCurves(), ErrNoTarget)
	}
	if len(grid) < 3 {
		return nil, fmt.Errorf("need at least 3 grid points, got %d, %w", len(grid), ErrDimensionMismatch)
	}

	lo, hi := x.Basis().Domain()
	wLo, wHi := warpPar.Basis.Domain()
	if wLo != lo || wHi != hi {
		return nil, fmt.Errorf("warp basis domain [%g, %g] differs from curve domain [%g, %g], %w", wLo, wHi, lo, hi, ErrDimensionMismatch)
	}

	targetVals := mat.Col(nil, 0, target.Eval(grid))
	quadW := trapezoidWeights(grid)
	r, err := warpPar.Basis.Penalty(warpPar.Deriv)
	if err != nil {
		return nil, err
	}

	fine := refineGrid(grid, warpRefine)
	wBasisFine := warpPar.Basis.Eval(fine)

	n := x.NumCurves()
	warpVals := mat.NewDense(len(grid), n, nil)
	regVals := mat.NewDense(len(grid), n, nil)
	objective := make([]float64, n)

	for i := 0; i < n; i++ {
		curve, err := x.Curve(i)
		if err != nil {
			return nil, err
		}

		w := &warpFit{
			curve:      curve,
			targetVals: targetVals,
			grid:       grid,
			quadW:      quadW,
			fine:       fine,
			wBasisFine: wBasisFine,
			penalty:    r,
			lo:         lo,
			hi:         hi,
		}

		coef, obj, err := w.solve(warpPar.Lambda, opt)
		if err != nil {
			return nil, fmt.Errorf("curve %d, %w", i, err)
		}

		wv := w.warpedGrid(coef)
		for g := range grid {
			warpVals.Set(g, i, wv[g])
		}
		vals := curve.Eval(wv)
		for g := range grid {
			regVals.Set(g, i, vals.At(g, 0))
		}
		objective[i] = obj
	}

	// Express the aligned values and the warping functions back as
	// functional objects with a near-interpolating smooth.
	registered, err := fd.Smooth(regVals, grid, fd.Par{Basis: x.Basis(), Deriv: warpPar.Deriv, Lambda: 1e-10})
	if err != nil {
		return nil, err
	}
	warps, err := fd.Smooth(warpVals, grid, fd.Par{Basis: warpPar.Basis, Deriv: warpPar.Deriv, Lambda: 1e-10})
	if err != nil {
		return nil, err
	}

	return &Result{
		Registered: registered,
		Warps:      warps,
		WarpValues: warpVals,
		Objective:  objective,
	}, nil
}

// warpRefine subdivides each grid interval for the cumulative integral of
// exp(W).
const warpRefine = 4

type warpFit struct {
	curve      *fd.FD
	targetVals []float64
	grid       []float64
	quadW      []float64
	fine       []float64
	wBasisFine *mat.Dense
	penalty    *mat.SymDense
	lo, hi     float64
}

// solve runs gradient descent with backtracking on the warp coefficients,
// escalating the penalty and retrying when the iteration budget runs out.
func (w *warpFit) solve(lambda float64, opt *Options) ([]float64, float64, error) {
	_, dim := w.wBasisFine.Dims()
	coef := make([]float64, dim)

	for attempt := 0; attempt <= opt.Retries; attempt++ {
		obj, converged := w.descend(coef, lambda, opt)
		if converged {
			return coef, obj, nil
		}
		lambda = math.Max(lambda, 1e-4) * opt.PenaltyScale
	}
	return nil, 0, fmt.Errorf("after %d attempts of %d iterations, %w", opt.Retries+1, opt.MaxIter, ErrConvergence)
}

func (w *warpFit) descend(coef []float64, lambda float64, opt *Options) (float64, bool) {
	dim := len(coef)
	grad := make([]float64, dim)
	trial := make([]float64, dim)

	obj := w.objective(coef, lambda)
	for iter := 0; iter < opt.MaxIter; iter++ {
		// Central-difference gradient; the coefficient space is small.
		const h = 1e-6
		for k := 0; k < dim; k++ {
			orig := coef[k]
			coef[k] = orig + h
			up := w.objective(coef, lambda)
			coef[k] = orig - h
			down := w.objective(coef, lambda)
			coef[k] = orig
			grad[k] = (up - down) / (2 * h)
		}

		gnorm := 0.0
		for _, g := range grad {
			gnorm += g * g
		}
		if gnorm == 0 {
			return obj, true
		}

		// Backtracking line search.
		step := 1.0 / math.Sqrt(gnorm)
		improved := false
		var next float64
		for ls := 0; ls < 30; ls++ {
			for k := 0; k < dim; k++ {
				trial[k] = coef[k] - step*grad[k]
			}
			next = w.objective(trial, lambda)
			if next < obj {
				improved = true
				break
			}
			step /= 2
		}
		if !improved {
			// No descent direction left at numeric precision.
			return obj, true
		}
		copy(coef, trial)
		if obj-next < opt.Tolerance*math.Max(1.0, obj) {
			return next, true
		}
		obj = next
	}
	return obj, false
}

// warpedGrid maps the sampling grid through the monotone warp defined by the
// coefficients: the normalized cumulative integral of exp(W).
func (w *warpFit) warpedGrid(coef []float64) []float64 {
	nFine := len(w.fine)
	expW := make([]float64, nFine)
	for g := 0; g < nFine; g++ {
		s := 0.0
		for k, c := range coef {
			s += c * w.wBasisFine.At(g, k)
		}
		expW[g] = math.Exp(s)
	}

	cum := make([]float64, nFine)
	for g := 1; g < nFine; g++ {
		cum[g] = cum[g-1] + (w.fine[g]-w.fine[g-1])*(expW[g]+expW[g-1])/2.0
	}
	total := cum[nFine-1]

	out := make([]float64, len(w.grid))
	for g := range w.grid {
		out[g] = w.lo + (w.hi-w.lo)*cum[g*warpRefine]/total
	}
	return out
}

func (w *warpFit) objective(coef []float64, lambda float64) float64 {
	wv := w.warpedGrid(coef)
	vals := w.curve.Eval(wv)

	obj := 0.0
	for g := range w.grid {
		d := vals.At(g, 0) - w.targetVals[g]
		obj += w.quadW[g] * d * d
	}

	if lambda > 0 {
		dim := len(coef)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				obj += lambda * coef[i] * w.penalty.At(i, j) * coef[j]
			}
		}
	}
	return obj
}

// refineGrid subdivides every interval into mult segments, keeping the
// original points at indices g*mult.
func refineGrid(grid []float64, mult int) []float64 {
	out := make([]float64, 0, (len(grid)-1)*mult+1)
	for g := 0; g < len(grid)-1; g++ {
		for s := 0; s < mult; s++ {
			frac := float64(s) / float64(mult)
			out = append(out, grid[g]+(grid[g+1]-grid[g])*frac)
		}
	}
	return append(out, grid[len(grid)-1])
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
