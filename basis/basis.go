// Package basis constructs finite-dimensional function bases over a fixed
// domain. A Basis evaluates its functions and their derivatives on a grid and
// produces the Gram and roughness penalty matrices needed for penalized
// smoothing.
package basis

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrBasisConfig = errors.New("invalid basis configuration")
	ErrDerivOrder  = errors.New("invalid derivative order")
)

type Family string

const (
	FamilyBSpline  Family = "bspline"
	FamilyFourier  Family = "fourier"
	FamilyConstant Family = "constant"
)

// Basis is a finite set of fixed functions on a common domain. Implementations
// are immutable value objects shared by reference across all curves expanded
// in them.
type Basis interface {
	Family() Family
	Dim() int
	Domain() (lo, hi float64)

	// Eval returns the len(grid) x Dim matrix of basis function values at
	// the grid points. Points are clamped to the domain.
	Eval(grid []float64) *mat.Dense

	// EvalDeriv returns the len(grid) x Dim matrix of deriv-th derivative
	// values. deriv of 0 is equivalent to Eval.
	EvalDeriv(grid []float64, deriv int) (*mat.Dense, error)

	// Penalty returns the Dim x Dim roughness penalty matrix with entries
	// integral of D^deriv phi_i times D^deriv phi_j over the domain. A deriv
	// of 0 yields the Gram matrix of the basis inner product.
	Penalty(deriv int) (*mat.SymDense, error)

	// Key uniquely identifies the basis by family, domain and dimension.
	Key() string
}

// Covers reports whether every grid point lies within the basis domain.
func Covers(b Basis, grid []float64) bool {
	lo, hi := b.Domain()
	for _, g := range grid {
		if g < lo || g > hi {
			return false
		}
	}
	return true
}

// Equal reports whether two bases describe the same family, domain and
// dimension.
func Equal(a, b Basis) bool {
	return a.Key() == b.Key()
}
