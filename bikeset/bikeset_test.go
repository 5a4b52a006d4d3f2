package bikeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleCurves(t *testing.T) {
	testData := map[string]struct {
		vals          []float64
		samplesPerDay int
		expRows       int
		expCols       int
		err           error
	}{
		"two whole days": {
			vals:          []float64{0, 1, 2, 3, 4, 5},
			samplesPerDay: 3,
			expRows:       3,
			expCols:       2,
		},
		"trailing partial day dropped": {
			vals:          []float64{0, 1, 2, 3, 4, 5, 6, 7},
			samplesPerDay: 3,
			expRows:       3,
			expCols:       2,
		},
		"empty input":          {vals: nil, samplesPerDay: 3, err: ErrNoData},
		"zero samples per day": {vals: []float64{1, 2}, samplesPerDay: 0, err: ErrInvalidSamples},
		"negative samples":     {vals: []float64{1, 2}, samplesPerDay: -24, err: ErrInvalidSamples},
		"less than one day":    {vals: []float64{1, 2}, samplesPerDay: 3, err: ErrDimensionMismatch},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := AssembleCurves(td.vals, td.samplesPerDay)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			rows, cols := m.Dims()
			assert.Equal(t, td.expRows, rows)
			assert.Equal(t, td.expCols, cols)

			// Row r, day d holds input[d*samplesPerDay+r].
			for d := 0; d < cols; d++ {
				for r := 0; r < rows; r++ {
					assert.Equal(t, td.vals[d*td.samplesPerDay+r], m.At(r, d))
				}
			}
		})
	}
}

func TestNewDataset(t *testing.T) {
	testData := map[string]struct {
		samplesPerDay int
		channels      map[Channel][]float64
		groups        []string
		err           error
	}{
		"valid": {
			samplesPerDay: 2,
			channels: map[Channel][]float64{
				ChannelCount:       {1, 2, 3, 4},
				ChannelTemperature: {10, 11, 12, 13},
			},
			groups: []string{"a", "a", "b", "b"},
		},
		"no channels":   {samplesPerDay: 2, channels: nil, err: ErrNoData},
		"empty channel": {samplesPerDay: 2, channels: map[Channel][]float64{ChannelCount: {}}, err: ErrNoData},
		"length mismatch": {
			samplesPerDay: 2,
			channels: map[Channel][]float64{
				ChannelCount:       {1, 2, 3, 4},
				ChannelTemperature: {10, 11},
			},
			err: ErrDimensionMismatch,
		},
		"grouping mismatch": {
			samplesPerDay: 2,
			channels:      map[Channel][]float64{ChannelCount: {1, 2, 3, 4}},
			groups:        []string{"a"},
			err:           ErrGroupingLenMismatch,
		},
		"bad samples per day": {
			samplesPerDay: 0,
			channels:      map[Channel][]float64{ChannelCount: {1, 2}},
			err:           ErrInvalidSamples,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := NewDataset(td.samplesPerDay, td.channels, td.groups)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, 2, ds.NumDays())
			assert.True(t, ds.HasChannel(ChannelCount))
			assert.False(t, ds.HasChannel(ChannelWindspeed))
		})
	}
}

func TestDatasetAccessors(t *testing.T) {
	ds, err := NewDataset(3, map[Channel][]float64{
		ChannelCount: {1, 2, 3, 10, 20, 30},
	}, []string{"wd", "wd", "wd", "we", "we", "we"})
	require.Nil(t, err)

	curves, err := ds.Curves(ChannelCount)
	require.Nil(t, err)
	rows, cols := curves.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)

	means, err := ds.DayMeans(ChannelCount)
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{2, 20}, means, 1e-12)

	labels, err := ds.DayGroups()
	require.Nil(t, err)
	assert.Equal(t, []string{"wd", "we"}, labels)

	assert.Equal(t, []float64{0, 1, 2}, ds.Grid())

	_, err = ds.Curves(ChannelHumidity)
	assert.ErrorIs(t, err, ErrUnknownChannel)
	_, err = ds.DayMeans(ChannelHumidity)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestDatasetNoGrouping(t *testing.T) {
	ds, err := NewDataset(2, map[Channel][]float64{ChannelCount: {1, 2, 3, 4}}, nil)
	require.Nil(t, err)

	_, err = ds.DayGroups()
	assert.ErrorIs(t, err, ErrNoGrouping)
}

func TestDatasetCopiesInputs(t *testing.T) {
	vals := []float64{1, 2, 3, 4}
	ds, err := NewDataset(2, map[Channel][]float64{ChannelCount: vals}, nil)
	require.Nil(t, err)

	vals[0] = 99
	curves, err := ds.Curves(ChannelCount)
	require.Nil(t, err)
	assert.Equal(t, 1.0, curves.At(0, 0))
}
