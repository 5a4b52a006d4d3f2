package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Constant is the single-function basis equal to 1 on its domain, used for
// scalar regression coefficients.
type Constant struct {
	lo, hi float64
}

func NewConstant(lo, hi float64) (*Constant, error) {
	if hi <= lo {
		return nil, fmt.Errorf("domain [%g, %g] is empty, %w", lo, hi, ErrBasisConfig)
	}
	return &Constant{lo: lo, hi: hi}, nil
}

func (c *Constant) Family() Family             { return FamilyConstant }
func (c *Constant) Dim() int                   { return 1 }
func (c *Constant) Domain() (float64, float64) { return c.lo, c.hi }

func (c *Constant) Key() string {
	return fmt.Sprintf("%s_%g_%g_1", FamilyConstant, c.lo, c.hi)
}

func (c *Constant) Eval(grid []float64) *mat.Dense {
	res, _ := c.EvalDeriv(grid, 0)
	return res
}

func (c *Constant) EvalDeriv(grid []float64, deriv int) (*mat.Dense, error) {
	if deriv < 0 {
		return nil, fmt.Errorf("derivative order %d is negative, %w", deriv, ErrDerivOrder)
	}
	res := mat.NewDense(len(grid), 1, nil)
	if deriv == 0 {
		for i := range grid {
			res.Set(i, 0, 1.0)
		}
	}
	return res, nil
}

func (c *Constant) Penalty(deriv int) (*mat.SymDense, error) {
	if deriv < 0 {
		return nil, fmt.Errorf("penalty order %d is negative, %w", deriv, ErrDerivOrder)
	}
	r := mat.NewSymDense(1, nil)
	if deriv == 0 {
		r.SetSym(0, 0, c.hi-c.lo)
	}
	return r, nil
}
