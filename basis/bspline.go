package basis

import (
	"fmt"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

// bsplineOrder is the spline order (degree + 1). Cubic splines throughout.
const bsplineOrder = 4

// BSpline is a clamped cubic B-spline basis with equally spaced interior
// knots.
type BSpline struct {
	lo, hi float64
	dim    int
	knots  []float64
}

// NewBSpline builds a cubic B-spline basis of the given dimension on [lo, hi].
// The dimension must be at least the spline order of 4.
func NewBSpline(lo, hi float64, dim int) (*BSpline, error) {
	if hi <= lo {
		return nil, fmt.Errorf("domain [%g, %g] is empty, %w", lo, hi, ErrBasisConfig)
	}
	if dim < bsplineOrder {
		return nil, fmt.Errorf("bspline dimension %d is below the minimum order %d, %w", dim, bsplineOrder, ErrBasisConfig)
	}

	// Clamped knot vector: order copies of each endpoint with dim-order
	// equally spaced interior knots.
	nInterior := dim - bsplineOrder
	knots := make([]float64, 0, dim+bsplineOrder)
	for i := 0; i < bsplineOrder; i++ {
		knots = append(knots, lo)
	}
	step := (hi - lo) / float64(nInterior+1)
	for i := 1; i <= nInterior; i++ {
		knots = append(knots, lo+float64(i)*step)
	}
	for i := 0; i < bsplineOrder; i++ {
		knots = append(knots, hi)
	}

	return &BSpline{
		lo:    lo,
		hi:    hi,
		dim:   dim,
		knots: knots,
	}, nil
}

func (b *BSpline) Family() Family             { return FamilyBSpline }
func (b *BSpline) Dim() int                   { return b.dim }
func (b *BSpline) Domain() (float64, float64) { return b.lo, b.hi }

func (b *BSpline) Key() string {
	return fmt.Sprintf("%s_%g_%g_%d", FamilyBSpline, b.lo, b.hi, b.dim)
}

func (b *BSpline) Eval(grid []float64) *mat.Dense {
	res, _ := b.EvalDeriv(grid, 0)
	return res
}

func (b *BSpline) EvalDeriv(grid []float64, deriv int) (*mat.Dense, error) {
	if deriv < 0 || deriv >= bsplineOrder {
		return nil, fmt.Errorf("derivative order %d not in [0, %d] for cubic splines, %w", deriv, bsplineOrder-1, ErrDerivOrder)
	}

	res := mat.NewDense(len(grid), b.dim, nil)
	for i, t := range grid {
		res.SetRow(i, b.derivAt(t, deriv))
	}
	return res, nil
}

// derivAt returns the deriv-th derivatives of all basis functions at t via the
// Cox-de Boor recursion: order-(k-deriv) values are built up from indicator
// functions, then each differentiation step raises the order by one.
func (b *BSpline) derivAt(t float64, deriv int) []float64 {
	if t < b.lo {
		t = b.lo
	}
	if t > b.hi {
		t = b.hi
	}

	knots := b.knots
	nKnots := len(knots)

	// Order-1 indicator functions, right-closed on the final span so the
	// domain endpoint evaluates to 1.
	vals := make([]float64, nKnots-1)
	for j := 0; j < nKnots-1; j++ {
		if knots[j] <= t && t < knots[j+1] {
			vals[j] = 1.0
		}
		if t == b.hi && knots[j] < b.hi && knots[j+1] == b.hi {
			vals[j] = 1.0
		}
	}

	// Raise to order bsplineOrder-deriv with the value recursion.
	for k := 2; k <= bsplineOrder-deriv; k++ {
		next := make([]float64, nKnots-k)
		for j := 0; j < nKnots-k; j++ {
			var v float64
			if d := knots[j+k-1] - knots[j]; d > 0 {
				v += (t - knots[j]) / d * vals[j]
			}
			if d := knots[j+k] - knots[j+1]; d > 0 {
				v += (knots[j+k] - t) / d * vals[j+1]
			}
			next[j] = v
		}
		vals = next
	}

	// Each differentiation step maps order k-1 values to order k derivative
	// values.
	for s := 1; s <= deriv; s++ {
		k := bsplineOrder - deriv + s
		next := make([]float64, nKnots-k)
		for j := 0; j < nKnots-k; j++ {
			var v float64
			if d := knots[j+k-1] - knots[j]; d > 0 {
				v += vals[j] / d
			}
			if d := knots[j+k] - knots[j+1]; d > 0 {
				v -= vals[j+1] / d
			}
			next[j] = float64(k-1) * v
		}
		vals = next
	}
	return vals
}

// Penalty integrates products of derivatives with Gauss-Legendre quadrature
// per knot span, which is exact for the piecewise polynomial integrand.
func (b *BSpline) Penalty(deriv int) (*mat.SymDense, error) {
	if deriv < 0 || deriv >= bsplineOrder {
		return nil, fmt.Errorf("penalty order %d not in [0, %d] for cubic splines, %w", deriv, bsplineOrder-1, ErrDerivOrder)
	}

	breaks := b.breakpoints()
	const nodesPerSpan = bsplineOrder
	var rule quad.Legendre

	r := mat.NewSymDense(b.dim, nil)
	x := make([]float64, nodesPerSpan)
	w := make([]float64, nodesPerSpan)
	for s := 0; s < len(breaks)-1; s++ {
		rule.FixedLocations(x, w, breaks[s], breaks[s+1])
		for q := 0; q < nodesPerSpan; q++ {
			row := b.derivAt(x[q], deriv)
			for i := 0; i < b.dim; i++ {
				if row[i] == 0 {
					continue
				}
				for j := i; j < b.dim; j++ {
					r.SetSym(i, j, r.At(i, j)+w[q]*row[i]*row[j])
				}
			}
		}
	}
	return r, nil
}

func (b *BSpline) breakpoints() []float64 {
	breaks := []float64{b.lo}
	for _, k := range b.knots[bsplineOrder : len(b.knots)-bsplineOrder] {
		breaks = append(breaks, k)
	}
	return append(breaks, b.hi)
}
