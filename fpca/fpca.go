// Package fpca decomposes a family of smoothed curves into orthonormal
// functional principal components and per-curve scores.
package fpca

import (
	"errors"
	"fmt"
	"math"

	"github.com/soltanovemil/Functional-Data-Analysis/fd"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInsufficientData = errors.New("insufficient data for functional PCA")
	ErrDecomposition    = errors.New("eigendecomposition failed")
)

// HarmonicSet is the result of a functional PCA: the retained harmonics as a
// functional object, every eigenvalue of the decomposition in non-increasing
// order, the proportion of variance each explains relative to the full
// spectrum, and the per-curve scores of the retained harmonics.
type HarmonicSet struct {
	Harmonics   *fd.FD
	Mean        *fd.FD
	Eigenvalues []float64
	Proportions []float64
	Scores      *mat.Dense
}

// PCA computes the top nHarm functional principal components of x under the
// basis inner product. The coefficient covariance is whitened by the basis
// Gram matrix so harmonics come out orthonormal in function space rather than
// in coefficient space.
func PCA(x *fd.FD, nHarm int) (*HarmonicSet, error) {
	n := x.NumCurves()
	dim := x.Basis().Dim()
	if n < 2 {
		return nil, fmt.Errorf("functional PCA needs at least 2 curves, got %d, %w", n, ErrInsufficientData)
	}
	if nHarm < 1 || nHarm > dim {
		return nil, fmt.Errorf("number of harmonics %d not in [1, %d], %w", nHarm, dim, ErrInsufficientData)
	}

	centered := x.Center()
	c := centered.RawCoef()

	// Coefficient covariance V = C C' / (n-1).
	var v mat.Dense
	v.Mul(c, c.T())
	v.Scale(1.0/float64(n-1), &v)

	gram, err := x.Basis().Penalty(0)
	if err != nil {
		return nil, err
	}
	wHalf, wHalfInv, err := symSqrt(gram)
	if err != nil {
		return nil, err
	}

	// Whitened covariance W^1/2 V W^1/2, symmetrized against roundoff.
	var wv, m mat.Dense
	wv.Mul(wHalf, &v)
	m.Mul(&wv, wHalf)
	sym := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, fmt.Errorf("whitened covariance of basis %q, %w", x.Basis().Key(), ErrDecomposition)
	}
	asc := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// gonum returns eigenvalues in ascending order; flip to non-increasing
	// and clamp the tiny negatives that roundoff produces.
	eigenvalues := make([]float64, dim)
	total := 0.0
	for i := 0; i < dim; i++ {
		ev := asc[dim-1-i]
		if ev < 0 {
			ev = 0
		}
		eigenvalues[i] = ev
		total += ev
	}

	proportions := make([]float64, dim)
	if total > 0 {
		for i := range eigenvalues {
			proportions[i] = eigenvalues[i] / total
		}
	}

	// Map retained eigenvectors back to basis coefficients through W^-1/2 and
	// fix signs so the dominant coefficient is positive.
	harmCoef := mat.NewDense(dim, nHarm, nil)
	u := mat.NewVecDense(dim, nil)
	for k := 0; k < nHarm; k++ {
		for i := 0; i < dim; i++ {
			u.SetVec(i, vecs.At(i, dim-1-k))
		}
		var b mat.VecDense
		b.MulVec(wHalfInv, u)

		maxAbs, sign := 0.0, 1.0
		for i := 0; i < dim; i++ {
			if a := math.Abs(b.AtVec(i)); a > maxAbs {
				maxAbs = a
				if b.AtVec(i) < 0 {
					sign = -1.0
				} else {
					sign = 1.0
				}
			}
		}
		for i := 0; i < dim; i++ {
			harmCoef.Set(i, k, sign*b.AtVec(i))
		}
	}

	harmonics, err := fd.New(x.Basis(), harmCoef)
	if err != nil {
		return nil, err
	}

	// Scores are inner products of centered curves with each harmonic.
	scores, err := fd.InnerProducts(centered, harmonics)
	if err != nil {
		return nil, err
	}

	return &HarmonicSet{
		Harmonics:   harmonics,
		Mean:        x.Mean(),
		Eigenvalues: eigenvalues,
		Proportions: proportions,
		Scores:      scores,
	}, nil
}

// symSqrt returns the symmetric square root of a positive definite matrix and
// its inverse.
func symSqrt(w *mat.SymDense) (*mat.Dense, *mat.Dense, error) {
	dim := w.SymmetricDim()

	var eig mat.EigenSym
	if !eig.Factorize(w, true) {
		return nil, nil, fmt.Errorf("basis Gram matrix, %w", ErrDecomposition)
	}
	vals := eig.Values(nil)
	var q mat.Dense
	eig.VectorsTo(&q)

	sqrt := mat.NewDense(dim, dim, nil)
	inv := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		if vals[i] <= 0 {
			return nil, nil, fmt.Errorf("basis Gram matrix is not positive definite, %w", ErrDecomposition)
		}
		sqrt.Set(i, i, math.Sqrt(vals[i]))
		inv.Set(i, i, 1.0/math.Sqrt(vals[i]))
	}

	var tmp mat.Dense
	tmp.Mul(&q, sqrt)
	sqrt.Mul(&tmp, q.T())

	tmp.Reset()
	tmp.Mul(&q, inv)
	inv.Mul(&tmp, q.T())
	return sqrt, inv, nil
}
