package fda

import (
	"math"
	"testing"
	"time"

	"github.com/soltanovemil/Functional-Data-Analysis/basis"
	"github.com/soltanovemil/Functional-Data-Analysis/bikeset"
	"github.com/soltanovemil/Functional-Data-Analysis/register"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulated(t *testing.T, days int) *bikeset.Dataset {
	t.Helper()
	return bikeset.Simulate(days, time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC), 5.0)
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"nil uses defaults": {nil, nil},
		"valid":             {NewDefaultOptions(), nil},
		"zero harmonics": {
			&Options{NumHarmonics: 0},
			ErrBadOptions,
		},
		"bad outlier quantile": {
			&Options{NumHarmonics: 2, OutlierQuantile: 1.5},
			ErrBadOptions,
		},
		"registration without warp basis": {
			&Options{NumHarmonics: 2, Registration: register.NewDefaultOptions()},
			ErrBadOptions,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			require.NotNil(t, opt)
		})
	}
}

func TestAnalysisFitValidation(t *testing.T) {
	a, err := New(nil)
	require.Nil(t, err)

	assert.ErrorIs(t, a.Fit(nil), ErrEmptyDataset)

	noCount, err := bikeset.NewDataset(24, map[bikeset.Channel][]float64{
		bikeset.ChannelTemperature: make([]float64, 48),
	}, nil)
	require.Nil(t, err)
	assert.ErrorIs(t, a.Fit(noCount), ErrNoCountChannel)

	_, err = a.Results()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = a.Depths()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = a.Harmonics()
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestAnalysisEndToEnd(t *testing.T) {
	ds := simulated(t, 28)

	a, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, a.Fit(ds))

	res, err := a.Results()
	require.Nil(t, err)

	assert.Equal(t, 28, res.NumDays)
	assert.Len(t, res.MeanCurve, 24)
	assert.Len(t, res.HarmonicCurves, 3)
	assert.Len(t, res.Depths, 28)

	// Proportions cover the full spectrum and decrease with rank.
	sum := 0.0
	for _, p := range res.Proportions {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.GreaterOrEqual(t, res.Proportions[0], res.Proportions[1])

	// The mean curve reflects rush-hour demand: the morning commute hour
	// clearly exceeds the small hours.
	assert.Greater(t, res.MeanCurve[8], res.MeanCurve[3])

	require.NotNil(t, res.Weather)
	assert.GreaterOrEqual(t, res.Weather.RSquared, 0.0)
	assert.LessOrEqual(t, res.Weather.RSquared, 1.0)
	assert.Equal(t, []string{"intercept", "temp", "hum", "windspeed"}, res.Weather.Predictors)

	require.NotNil(t, res.FANOVA)
	assert.Equal(t, []string{bikeset.GroupWeekday, bikeset.GroupWeekend}, res.FANOVA.Predictors)
	// The two demand regimes differ strongly, so the grouping explains a
	// large share of variance.
	assert.Greater(t, res.FANOVA.RSquared, 0.5)

	require.NotNil(t, res.RankSum)
	assert.Equal(t, 28, res.RankSum.N1+res.RankSum.N2)

	assert.GreaterOrEqual(t, res.MedianDay, 0)
	assert.Less(t, res.MedianDay, 28)
	assert.NotContains(t, res.OutlierDays, res.MedianDay)
	assert.Contains(t, res.CentralDays, res.MedianDay)
}

func TestAnalysisResultsJSONRoundTrip(t *testing.T) {
	ds := simulated(t, 14)

	a, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, a.Fit(ds))

	res, err := a.Results()
	require.Nil(t, err)

	bytes, err := json.Marshal(res)
	require.Nil(t, err)

	var back Results
	require.Nil(t, json.Unmarshal(bytes, &back))
	assert.Equal(t, res.NumDays, back.NumDays)
	assert.InDeltaSlice(t, res.MeanCurve, back.MeanCurve, 1e-9)
	assert.InDeltaSlice(t, res.Depths, back.Depths, 1e-9)
}

func TestAnalysisWithRegistration(t *testing.T) {
	ds := simulated(t, 10)

	opt := NewDefaultOptions()
	opt.Registration = register.NewDefaultOptions()
	opt.WarpBasis = &basis.Config{Family: basis.FamilyBSpline, DomainLo: 0, DomainHi: 23, Dim: 5}
	opt.WarpLambda = 0.05

	a, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, a.Fit(ds))

	reg, err := a.Registration()
	require.Nil(t, err)
	assert.Equal(t, 10, reg.Registered.NumCurves())

	// Warps are monotone over the day for every curve.
	for i := 0; i < 10; i++ {
		for g := 1; g < 24; g++ {
			assert.GreaterOrEqual(t, reg.WarpValues.At(g, i), reg.WarpValues.At(g-1, i))
		}
	}
}

func TestAnalysisWithoutWeatherChannels(t *testing.T) {
	full := simulated(t, 10)
	counts, err := full.Curves(bikeset.ChannelCount)
	require.Nil(t, err)

	rows, cols := counts.Dims()
	flat := make([]float64, 0, rows*cols)
	for d := 0; d < cols; d++ {
		for r := 0; r < rows; r++ {
			flat = append(flat, counts.At(r, d))
		}
	}
	ds, err := bikeset.NewDataset(24, map[bikeset.Channel][]float64{
		bikeset.ChannelCount: flat,
	}, nil)
	require.Nil(t, err)

	a, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, a.Fit(ds))

	_, err = a.WeatherRegression()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, _, err = a.GroupDecomposition()
	assert.ErrorIs(t, err, ErrNotFitted)

	res, err := a.Results()
	require.Nil(t, err)
	assert.Nil(t, res.Weather)
	assert.Nil(t, res.FANOVA)
	assert.Nil(t, res.RankSum)
	assert.Len(t, res.Depths, 10)

	deepest, err := a.Depths()
	require.Nil(t, err)
	assert.Len(t, deepest, 10)
	var nonZero bool
	for _, d := range deepest {
		if d > 0 {
			nonZero = true
		}
		assert.False(t, math.IsNaN(d))
	}
	assert.True(t, nonZero)
}
