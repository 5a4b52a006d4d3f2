package basis

import (
	"fmt"
)

// Config is the serializable description of a basis, used in analysis
// options.
type Config struct {
	Family   Family  `json:"family"`
	DomainLo float64 `json:"domain_lo"`
	DomainHi float64 `json:"domain_hi"`
	Dim      int     `json:"dim"`
}

// New constructs the basis the config describes.
func (c Config) New() (Basis, error) {
	switch c.Family {
	case FamilyBSpline:
		return NewBSpline(c.DomainLo, c.DomainHi, c.Dim)
	case FamilyFourier:
		return NewFourier(c.DomainLo, c.DomainHi, c.Dim)
	case FamilyConstant:
		return NewConstant(c.DomainLo, c.DomainHi)
	}
	return nil, fmt.Errorf("unknown basis family %q, %w", c.Family, ErrBasisConfig)
}

// ConfigOf captures the config of an existing basis.
func ConfigOf(b Basis) Config {
	lo, hi := b.Domain()
	return Config{
		Family:   b.Family(),
		DomainLo: lo,
		DomainHi: hi,
		Dim:      b.Dim(),
	}
}
