package fda

import (
	"errors"
	"fmt"

	"github.com/soltanovemil/Functional-Data-Analysis/basis"
	"github.com/soltanovemil/Functional-Data-Analysis/depth"
	"github.com/soltanovemil/Functional-Data-Analysis/fd"
	"github.com/soltanovemil/Functional-Data-Analysis/register"
)

var (
	ErrBadOptions = errors.New("invalid analysis options")
)

// SmoothingOptions configure the penalized smoothing of one channel family.
type SmoothingOptions struct {
	Basis        basis.Config `json:"basis"`
	PenaltyOrder int          `json:"penalty_order"`
	Lambda       float64      `json:"lambda"`
}

func (s SmoothingOptions) par() (fd.Par, error) {
	b, err := s.Basis.New()
	if err != nil {
		return fd.Par{}, err
	}
	return fd.NewPar(b, s.PenaltyOrder, s.Lambda)
}

// Options configure a full analysis run. Quantile thresholds for outlier and
// central-region reporting live here as caller policy; the depth engine
// itself assumes no defaults.
type Options struct {
	Count   SmoothingOptions `json:"count"`
	Weather SmoothingOptions `json:"weather"`

	NumHarmonics int `json:"num_harmonics"`

	// Beta governs the coefficient curves of the weather regression and the
	// group mean curves of the variance decomposition.
	Beta SmoothingOptions `json:"beta"`

	DepthMethod     depth.Method `json:"depth_method"`
	OutlierQuantile float64      `json:"outlier_quantile"`
	CentralQuantile float64      `json:"central_quantile"`

	// Registration aligns the count curves to their mean before PCA when
	// set. Nil disables registration.
	Registration *register.Options `json:"registration,omitempty"`
	WarpBasis    *basis.Config     `json:"warp_basis,omitempty"`
	WarpLambda   float64           `json:"warp_lambda,omitempty"`
}

// NewDefaultOptions returns options tuned for 24-sample daily curves on the
// hour grid [0, 23].
func NewDefaultOptions() *Options {
	return &Options{
		Count: SmoothingOptions{
			Basis:        basis.Config{Family: basis.FamilyBSpline, DomainLo: 0, DomainHi: 23, Dim: 12},
			PenaltyOrder: 2,
			Lambda:       0.1,
		},
		Weather: SmoothingOptions{
			Basis:        basis.Config{Family: basis.FamilyFourier, DomainLo: 0, DomainHi: 23, Dim: 9},
			PenaltyOrder: 2,
			Lambda:       0.1,
		},
		NumHarmonics: 3,
		Beta: SmoothingOptions{
			Basis:        basis.Config{Family: basis.FamilyFourier, DomainLo: 0, DomainHi: 23, Dim: 5},
			PenaltyOrder: 2,
			Lambda:       1.0,
		},
		DepthMethod:     depth.MBD,
		OutlierQuantile: 0.05,
		CentralQuantile: 0.5,
	}
}

func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.NumHarmonics < 1 {
		return nil, fmt.Errorf("number of harmonics %d must be positive, %w", o.NumHarmonics, ErrBadOptions)
	}
	if o.OutlierQuantile < 0 || o.OutlierQuantile > 1 {
		return nil, fmt.Errorf("outlier quantile %g not in [0, 1], %w", o.OutlierQuantile, ErrBadOptions)
	}
	if o.CentralQuantile < 0 || o.CentralQuantile > 1 {
		return nil, fmt.Errorf("central quantile %g not in [0, 1], %w", o.CentralQuantile, ErrBadOptions)
	}
	if o.Registration != nil && o.WarpBasis == nil {
		return nil, fmt.Errorf("registration enabled without a warp basis, %w", ErrBadOptions)
	}
	return o, nil
}
