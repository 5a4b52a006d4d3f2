// Package fda runs the functional data analysis pipeline over hourly
// bike-share rentals: daily curves are smoothed into functional objects, then
// decomposed into principal components, regressed on weather curves, split by
// calendar group and ranked by band depth for outlier detection.
package fda

import (
	"errors"
	"fmt"

	"github.com/soltanovemil/Functional-Data-Analysis/basis"
	"github.com/soltanovemil/Functional-Data-Analysis/bikeset"
	"github.com/soltanovemil/Functional-Data-Analysis/depth"
	"github.com/soltanovemil/Functional-Data-Analysis/fd"
	"github.com/soltanovemil/Functional-Data-Analysis/fpca"
	"github.com/soltanovemil/Functional-Data-Analysis/fregress"
	"github.com/soltanovemil/Functional-Data-Analysis/register"
)

var (
	ErrEmptyDataset   = errors.New("no dataset or uninitialized")
	ErrNoCountChannel = errors.New("dataset has no rental count channel")
	ErrNotFitted      = errors.New("analysis has not been fitted")
)

// weatherChannels are the environmental channels the regression considers,
// in model order.
var weatherChannels = []bikeset.Channel{
	bikeset.ChannelTemperature,
	bikeset.ChannelHumidity,
	bikeset.ChannelWindspeed,
}

// Analysis fits the full pipeline over one dataset and exposes the derived
// functional artifacts.
type Analysis struct {
	opt *Options

	grid     []float64
	smoothed map[bikeset.Channel]*fd.FD

	harmonics    *fpca.HarmonicSet
	weather      *fregress.Result
	weatherNames []string
	fanova       *fregress.Result
	fanovaLevels []string
	registered   *register.Result

	depths   []float64
	median   int
	outliers []int
	central  []int
	rankSum  *depth.RankSumResult
}

// New creates an Analysis with the provided options, falling back to defaults
// when nil.
func New(opt *Options) (*Analysis, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Analysis{opt: opt}, nil
}

// Fit runs the pipeline: smooth every channel, decompose the count curves
// into harmonics, regress counts on the available weather curves, decompose
// variance across calendar groups and rank the days by depth. The analysis
// either completes fully or returns the first failure with no partial state.
func (a *Analysis) Fit(ds *bikeset.Dataset) error {
	if ds == nil {
		return ErrEmptyDataset
	}
	if !ds.HasChannel(bikeset.ChannelCount) {
		return ErrNoCountChannel
	}

	next := &Analysis{
		opt:      a.opt,
		grid:     ds.Grid(),
		smoothed: make(map[bikeset.Channel]*fd.FD),
	}

	if err := next.smooth(ds); err != nil {
		return err
	}
	if err := next.decompose(); err != nil {
		return err
	}
	if err := next.regressWeather(); err != nil {
		return err
	}
	if err := next.decomposeByGroup(ds); err != nil {
		return err
	}
	if err := next.rankByDepth(ds); err != nil {
		return err
	}

	*a = *next
	return nil
}

func (a *Analysis) smooth(ds *bikeset.Dataset) error {
	countPar, err := a.opt.Count.par()
	if err != nil {
		return err
	}
	weatherPar, err := a.opt.Weather.par()
	if err != nil {
		return err
	}

	countChannels := []bikeset.Channel{
		bikeset.ChannelCount, bikeset.ChannelCasual, bikeset.ChannelRegistered,
	}
	for _, ch := range countChannels {
		if !ds.HasChannel(ch) {
			continue
		}
		if err := a.smoothChannel(ds, ch, countPar); err != nil {
			return err
		}
	}
	for _, ch := range weatherChannels {
		if !ds.HasChannel(ch) {
			continue
		}
		if err := a.smoothChannel(ds, ch, weatherPar); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analysis) smoothChannel(ds *bikeset.Dataset, ch bikeset.Channel, par fd.Par) error {
	curves, err := ds.Curves(ch)
	if err != nil {
		return err
	}
	smoothed, err := fd.Smooth(curves, a.grid, par)
	if err != nil {
		return fmt.Errorf("smoothing channel %q, %w", ch, err)
	}
	a.smoothed[ch] = smoothed
	return nil
}

func (a *Analysis) decompose() error {
	count := a.smoothed[bikeset.ChannelCount]

	// Optionally remove phase variation before decomposing amplitude.
	if a.opt.Registration != nil {
		warpBasis, err := a.opt.WarpBasis.New()
		if err != nil {
			return err
		}
		warpPar, err := fd.NewPar(warpBasis, 2, a.opt.WarpLambda)
		if err != nil {
			return err
		}
		res, err := register.Register(count, count.Mean(), a.grid, warpPar, a.opt.Registration)
		if err != nil {
			return fmt.Errorf("registering count curves, %w", err)
		}
		a.registered = res
		count = res.Registered
	}

	harm, err := fpca.PCA(count, a.opt.NumHarmonics)
	if err != nil {
		return fmt.Errorf("decomposing count curves, %w", err)
	}
	a.harmonics = harm
	return nil
}

func (a *Analysis) regressWeather() error {
	count := a.smoothed[bikeset.ChannelCount]

	preds := []fregress.Predictor{fregress.Intercept("intercept", count.NumCurves())}
	for _, ch := range weatherChannels {
		w, ok := a.smoothed[ch]
		if !ok {
			continue
		}
		preds = append(preds, fregress.Functional(string(ch), w))
	}
	if len(preds) == 1 {
		// No weather channels supplied; skip the regression.
		return nil
	}

	constPar, err := a.constBetaPar()
	if err != nil {
		return err
	}
	betaPar, err := a.opt.Beta.par()
	if err != nil {
		return err
	}

	betas := make([]fregress.BetaConfig, len(preds))
	names := make([]string, len(preds))
	for i, p := range preds {
		names[i] = p.Name()
		par := betaPar
		if !p.IsFunctional() {
			par = constPar
		}
		betas[i] = fregress.BetaConfig{Name: p.Name(), Par: par}
	}

	res, err := fregress.Fit(count, a.grid, preds, betas)
	if err != nil {
		return fmt.Errorf("regressing counts on weather, %w", err)
	}
	a.weather = res
	a.weatherNames = names
	return nil
}

// decomposeByGroup runs the variance decomposition across calendar groups
// with full-indicator coding and no intercept.
func (a *Analysis) decomposeByGroup(ds *bikeset.Dataset) error {
	labels, err := ds.DayGroups()
	if err != nil {
		if errors.Is(err, bikeset.ErrNoGrouping) {
			return nil
		}
		return err
	}

	preds, levels := fregress.GroupIndicators(labels)
	if len(levels) < 2 {
		return nil
	}

	betaPar, err := a.opt.Beta.par()
	if err != nil {
		return err
	}
	betas := make([]fregress.BetaConfig, len(preds))
	for i, level := range levels {
		betas[i] = fregress.BetaConfig{Name: level, Par: betaPar}
	}

	res, err := fregress.Fit(a.smoothed[bikeset.ChannelCount], a.grid, preds, betas)
	if err != nil {
		return fmt.Errorf("decomposing variance across groups, %w", err)
	}
	a.fanova = res
	a.fanovaLevels = levels
	return nil
}

func (a *Analysis) rankByDepth(ds *bikeset.Dataset) error {
	vals := a.smoothed[bikeset.ChannelCount].Eval(a.grid)
	depths, err := depth.Compute(vals, a.opt.DepthMethod)
	if err != nil {
		return fmt.Errorf("ranking count curves by depth, %w", err)
	}
	a.depths = depths
	a.median = depth.Median(depths)

	a.outliers, err = depth.Outliers(depths, a.opt.OutlierQuantile)
	if err != nil {
		return err
	}
	a.central, err = depth.CentralRegion(depths, a.opt.CentralQuantile)
	if err != nil {
		return err
	}

	// With exactly two calendar groups, compare their depth distributions.
	labels, err := ds.DayGroups()
	if err != nil {
		return nil
	}
	_, levels := fregress.GroupIndicators(labels)
	if len(levels) != 2 {
		return nil
	}
	groups := make([]int, len(labels))
	for i, l := range labels {
		if l == levels[1] {
			groups[i] = 1
		}
	}
	rs, err := depth.RankSum(depths, groups)
	if err != nil {
		return err
	}
	a.rankSum = rs
	return nil
}

func (a *Analysis) constBetaPar() (fd.Par, error) {
	b, err := basis.NewConstant(a.opt.Beta.Basis.DomainLo, a.opt.Beta.Basis.DomainHi)
	if err != nil {
		return fd.Par{}, err
	}
	return fd.NewPar(b, 0, 0)
}

// Smoothed returns the fitted functional object of a channel.
func (a *Analysis) Smoothed(ch bikeset.Channel) (*fd.FD, error) {
	if a.smoothed == nil {
		return nil, ErrNotFitted
	}
	f, ok := a.smoothed[ch]
	if !ok {
		return nil, fmt.Errorf("channel %q, %w", ch, bikeset.ErrUnknownChannel)
	}
	return f, nil
}

// Harmonics returns the functional principal component decomposition of the
// count curves.
func (a *Analysis) Harmonics() (*fpca.HarmonicSet, error) {
	if a.harmonics == nil {
		return nil, ErrNotFitted
	}
	return a.harmonics, nil
}

// WeatherRegression returns the concurrent regression of count curves on the
// weather curves, or ErrNotFitted when no weather channels were supplied.
func (a *Analysis) WeatherRegression() (*fregress.Result, error) {
	if a.weather == nil {
		return nil, ErrNotFitted
	}
	return a.weather, nil
}

// GroupDecomposition returns the FANOVA fit and its group levels.
func (a *Analysis) GroupDecomposition() (*fregress.Result, []string, error) {
	if a.fanova == nil {
		return nil, nil, ErrNotFitted
	}
	return a.fanova, a.fanovaLevels, nil
}

// Depths returns the per-day depth scores.
func (a *Analysis) Depths() ([]float64, error) {
	if a.depths == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(a.depths))
	copy(out, a.depths)
	return out, nil
}

// Registration returns the registration result when registration was enabled.
func (a *Analysis) Registration() (*register.Result, error) {
	if a.registered == nil {
		return nil, ErrNotFitted
	}
	return a.registered, nil
}
