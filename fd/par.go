package fd

import (
	"errors"
	"fmt"

	"github.com/soltanovemil/Functional-Data-Analysis/basis"
)

var (
	ErrNegativeLambda = errors.New("penalty weight must be non-negative")
	ErrNegativeDeriv  = errors.New("penalty derivative order must be non-negative")
	ErrNoBasis        = errors.New("no basis in functional parameter")
)

// Par governs how curves are smoothed: the expansion basis, the derivative
// order of the roughness penalty and the penalty weight. Immutable
// configuration, validated once at use.
type Par struct {
	Basis  basis.Basis
	Deriv  int
	Lambda float64
}

// NewPar builds a functional parameter with a roughness penalty on the given
// derivative order weighted by lambda.
func NewPar(b basis.Basis, deriv int, lambda float64) (Par, error) {
	p := Par{Basis: b, Deriv: deriv, Lambda: lambda}
	if err := p.Validate(); err != nil {
		return Par{}, err
	}
	return p, nil
}

func (p Par) Validate() error {
	if p.Basis == nil {
		return ErrNoBasis
	}
	if p.Deriv < 0 {
		return fmt.Errorf("derivative order %d, %w", p.Deriv, ErrNegativeDeriv)
	}
	if p.Lambda < 0 {
		return fmt.Errorf("lambda %g, %w", p.Lambda, ErrNegativeLambda)
	}
	return nil
}
