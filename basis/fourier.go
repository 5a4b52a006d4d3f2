package basis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Fourier is the basis 1, sin(w t), cos(w t), sin(2w t), cos(2w t), ... with
// period equal to the domain width.
type Fourier struct {
	lo, hi float64
	dim    int
	omega  float64
}

// NewFourier builds a Fourier basis of the given dimension on [lo, hi]. The
// dimension must be odd (the constant plus sine/cosine pairs); an even
// dimension is rounded up to the next odd value.
func NewFourier(lo, hi float64, dim int) (*Fourier, error) {
	if hi <= lo {
		return nil, fmt.Errorf("domain [%g, %g] is empty, %w", lo, hi, ErrBasisConfig)
	}
	if dim < 1 {
		return nil, fmt.Errorf("fourier dimension %d must be positive, %w", dim, ErrBasisConfig)
	}
	if dim%2 == 0 {
		dim++
	}
	return &Fourier{
		lo:    lo,
		hi:    hi,
		dim:   dim,
		omega: 2.0 * math.Pi / (hi - lo),
	}, nil
}

func (f *Fourier) Family() Family             { return FamilyFourier }
func (f *Fourier) Dim() int                   { return f.dim }
func (f *Fourier) Domain() (float64, float64) { return f.lo, f.hi }

func (f *Fourier) Key() string {
	return fmt.Sprintf("%s_%g_%g_%d", FamilyFourier, f.lo, f.hi, f.dim)
}

func (f *Fourier) Eval(grid []float64) *mat.Dense {
	res, _ := f.EvalDeriv(grid, 0)
	return res
}

func (f *Fourier) EvalDeriv(grid []float64, deriv int) (*mat.Dense, error) {
	if deriv < 0 {
		return nil, fmt.Errorf("derivative order %d is negative, %w", deriv, ErrDerivOrder)
	}

	// D^m sin(r w t) = (r w)^m sin(r w t + m pi/2), likewise for cosine, so
	// differentiation is a phase shift plus scaling.
	shift := float64(deriv) * math.Pi / 2.0
	res := mat.NewDense(len(grid), f.dim, nil)
	for i, t := range grid {
		if deriv == 0 {
			res.Set(i, 0, 1.0)
		}
		for r := 1; 2*r-1 < f.dim; r++ {
			arg := float64(r) * f.omega * (t - f.lo)
			scale := math.Pow(float64(r)*f.omega, float64(deriv))
			res.Set(i, 2*r-1, scale*math.Sin(arg+shift))
			if 2*r < f.dim {
				res.Set(i, 2*r, scale*math.Cos(arg+shift))
			}
		}
	}
	return res, nil
}

// Penalty is diagonal for a Fourier basis over its full period: distinct
// frequencies and the sine/cosine pair within a frequency are orthogonal.
func (f *Fourier) Penalty(deriv int) (*mat.SymDense, error) {
	if deriv < 0 {
		return nil, fmt.Errorf("penalty order %d is negative, %w", deriv, ErrDerivOrder)
	}

	period := f.hi - f.lo
	r := mat.NewSymDense(f.dim, nil)
	if deriv == 0 {
		r.SetSym(0, 0, period)
	}
	for k := 1; 2*k-1 < f.dim; k++ {
		v := math.Pow(float64(k)*f.omega, 2.0*float64(deriv)) * period / 2.0
		r.SetSym(2*k-1, 2*k-1, v)
		if 2*k < f.dim {
			r.SetSym(2*k, 2*k, v)
		}
	}
	return r, nil
}
