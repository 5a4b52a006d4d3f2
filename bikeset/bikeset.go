// Package bikeset holds aligned hourly bike-share channels and reshapes them
// into daily curve matrices for functional analysis. It is the boundary with
// the ingestion layer: channels arrive as flat numeric sequences, already
// typed and aligned, and leave as matrices with one column per day.
package bikeset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoData              = errors.New("no channel data")
	ErrDimensionMismatch   = errors.New("channel lengths are not aligned")
	ErrInvalidSamples      = errors.New("samples per day must be positive")
	ErrUnknownChannel      = errors.New("unknown channel")
	ErrNoGrouping          = errors.New("no grouping labels in dataset")
	ErrGroupingLenMismatch = errors.New("grouping labels not aligned with channels")
)

// Channel names follow the upstream dataset columns.
type Channel string

const (
	ChannelCount       Channel = "cnt"
	ChannelCasual      Channel = "casual"
	ChannelRegistered  Channel = "registered"
	ChannelTemperature Channel = "temp"
	ChannelHumidity    Channel = "hum"
	ChannelWindspeed   Channel = "windspeed"
)

// AssembleCurves reshapes a flat per-hour sequence into a matrix with
// samplesPerDay rows and one column per day, element (r, d) being
// vals[d*samplesPerDay+r]. A trailing partial day is silently dropped.
func AssembleCurves(vals []float64, samplesPerDay int) (*mat.Dense, error) {
	if samplesPerDay <= 0 {
		return nil, fmt.Errorf("got %d, %w", samplesPerDay, ErrInvalidSamples)
	}
	if len(vals) == 0 {
		return nil, ErrNoData
	}
	days := len(vals) / samplesPerDay
	if days == 0 {
		return nil, fmt.Errorf("%d values cannot fill a day of %d samples, %w", len(vals), samplesPerDay, ErrDimensionMismatch)
	}

	m := mat.NewDense(samplesPerDay, days, nil)
	for d := 0; d < days; d++ {
		for r := 0; r < samplesPerDay; r++ {
			m.Set(r, d, vals[d*samplesPerDay+r])
		}
	}
	return m, nil
}

// Dataset is an immutable collection of aligned hourly channels plus an
// optional categorical grouping sequence at the same per-hour granularity.
type Dataset struct {
	samplesPerDay int
	channels      map[Channel][]float64
	groups        []string
}

// NewDataset validates that every channel, and the grouping if present, has
// the same length and copies them into the dataset.
func NewDataset(samplesPerDay int, channels map[Channel][]float64, groups []string) (*Dataset, error) {
	if samplesPerDay <= 0 {
		return nil, fmt.Errorf("got %d, %w", samplesPerDay, ErrInvalidSamples)
	}
	if len(channels) == 0 {
		return nil, ErrNoData
	}

	n := -1
	for name, vals := range channels {
		if len(vals) == 0 {
			return nil, fmt.Errorf("channel %q is empty, %w", name, ErrNoData)
		}
		if n == -1 {
			n = len(vals)
			continue
		}
		if len(vals) != n {
			return nil, fmt.Errorf("channel %q has %d values, expected %d, %w", name, len(vals), n, ErrDimensionMismatch)
		}
	}
	if groups != nil && len(groups) != n {
		return nil, fmt.Errorf("%d grouping labels for %d samples, %w", len(groups), n, ErrGroupingLenMismatch)
	}

	copied := make(map[Channel][]float64, len(channels))
	for name, vals := range channels {
		c := make([]float64, len(vals))
		copy(c, vals)
		copied[name] = c
	}
	var g []string
	if groups != nil {
		g = make([]string, len(groups))
		copy(g, groups)
	}

	return &Dataset{
		samplesPerDay: samplesPerDay,
		channels:      copied,
		groups:        g,
	}, nil
}

func (d *Dataset) SamplesPerDay() int { return d.samplesPerDay }

// NumDays is the number of whole days the channels cover.
func (d *Dataset) NumDays() int {
	for _, vals := range d.channels {
		return len(vals) / d.samplesPerDay
	}
	return 0
}

// Channels lists the available channel names.
func (d *Dataset) Channels() []Channel {
	names := make([]Channel, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	return names
}

func (d *Dataset) HasChannel(ch Channel) bool {
	_, ok := d.channels[ch]
	return ok
}

// Curves assembles the named channel into its daily curve matrix.
func (d *Dataset) Curves(ch Channel) (*mat.Dense, error) {
	vals, ok := d.channels[ch]
	if !ok {
		return nil, fmt.Errorf("channel %q, %w", ch, ErrUnknownChannel)
	}
	return AssembleCurves(vals, d.samplesPerDay)
}

// DayMeans returns the per-day mean of the named channel, for use as a scalar
// predictor.
func (d *Dataset) DayMeans(ch Channel) ([]float64, error) {
	vals, ok := d.channels[ch]
	if !ok {
		return nil, fmt.Errorf("channel %q, %w", ch, ErrUnknownChannel)
	}
	days := len(vals) / d.samplesPerDay
	means := make([]float64, days)
	for day := 0; day < days; day++ {
		sum := 0.0
		for r := 0; r < d.samplesPerDay; r++ {
			sum += vals[day*d.samplesPerDay+r]
		}
		means[day] = sum / float64(d.samplesPerDay)
	}
	return means, nil
}

// DayGroups collapses the per-hour grouping sequence to one label per day,
// taken from the first sample of the day.
func (d *Dataset) DayGroups() ([]string, error) {
	if d.groups == nil {
		return nil, ErrNoGrouping
	}
	days := len(d.groups) / d.samplesPerDay
	labels := make([]string, days)
	for day := 0; day < days; day++ {
		labels[day] = d.groups[day*d.samplesPerDay]
	}
	return labels, nil
}

// Grid is the time-of-day sampling grid 0..samplesPerDay-1 shared by every
// channel matrix.
func (d *Dataset) Grid() []float64 {
	grid := make([]float64, d.samplesPerDay)
	for i := range grid {
		grid[i] = float64(i)
	}
	return grid
}
