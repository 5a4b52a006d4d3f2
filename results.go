package fda

import (
	"github.com/soltanovemil/Functional-Data-Analysis/bikeset"
	"github.com/soltanovemil/Functional-Data-Analysis/depth"
	"github.com/soltanovemil/Functional-Data-Analysis/fregress"
)

// RegressionSummary captures the goodness of fit of one functional
// regression.
type RegressionSummary struct {
	Predictors []string    `json:"predictors"`
	SSE        float64     `json:"sse"`
	SST        float64     `json:"sst"`
	RSquared   float64     `json:"r_squared"`
	FRatio     float64     `json:"f_ratio"`
	NumCoef    int         `json:"num_coef"`
	BetaCurves [][]float64 `json:"beta_curves"`
}

// Results is the serializable outcome of a fitted analysis.
type Results struct {
	Grid      []float64 `json:"grid"`
	NumDays   int       `json:"num_days"`
	MeanCurve []float64 `json:"mean_curve"`

	HarmonicCurves [][]float64 `json:"harmonic_curves"`
	Eigenvalues    []float64   `json:"eigenvalues"`
	Proportions    []float64   `json:"proportions"`

	Weather *RegressionSummary `json:"weather,omitempty"`
	FANOVA  *RegressionSummary `json:"fanova,omitempty"`

	Depths      []float64            `json:"depths"`
	MedianDay   int                  `json:"median_day"`
	OutlierDays []int                `json:"outlier_days"`
	CentralDays []int                `json:"central_days"`
	RankSum     *depth.RankSumResult `json:"depth_rank_sum,omitempty"`
}

// Results assembles the fitted artifacts into a flat, serializable report.
func (a *Analysis) Results() (*Results, error) {
	if a.harmonics == nil || a.depths == nil {
		return nil, ErrNotFitted
	}

	count := a.smoothed[bikeset.ChannelCount]
	mean := count.Mean().Eval(a.grid)
	meanCurve := make([]float64, len(a.grid))
	for g := range a.grid {
		meanCurve[g] = mean.At(g, 0)
	}

	harmVals := a.harmonics.Harmonics.Eval(a.grid)
	nHarm := a.harmonics.Harmonics.NumCurves()
	harmCurves := make([][]float64, nHarm)
	for k := 0; k < nHarm; k++ {
		harmCurves[k] = make([]float64, len(a.grid))
		for g := range a.grid {
			harmCurves[k][g] = harmVals.At(g, k)
		}
	}

	res := &Results{
		Grid:           a.grid,
		NumDays:        count.NumCurves(),
		MeanCurve:      meanCurve,
		HarmonicCurves: harmCurves,
		Eigenvalues:    a.harmonics.Eigenvalues,
		Proportions:    a.harmonics.Proportions,
		Depths:         a.depths,
		MedianDay:      a.median,
		OutlierDays:    a.outliers,
		CentralDays:    a.central,
		RankSum:        a.rankSum,
	}

	if a.weather != nil {
		res.Weather = a.summarize(a.weather, a.weatherNames)
	}
	if a.fanova != nil {
		res.FANOVA = a.summarize(a.fanova, a.fanovaLevels)
	}
	return res, nil
}

func (a *Analysis) summarize(fit *fregress.Result, names []string) *RegressionSummary {
	betaCurves := make([][]float64, len(fit.Betas))
	for i, beta := range fit.Betas {
		vals := beta.FD.Eval(a.grid)
		betaCurves[i] = make([]float64, len(a.grid))
		for g := range a.grid {
			betaCurves[i][g] = vals.At(g, 0)
		}
	}
	return &RegressionSummary{
		Predictors: names,
		SSE:        fit.SSE,
		SST:        fit.SST,
		RSquared:   fit.RSquared,
		FRatio:     fit.FRatio,
		NumCoef:    fit.NumCoef,
		BetaCurves: betaCurves,
	}
}
