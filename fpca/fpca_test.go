package fpca

import (
	"math"
	"testing"

	"github.com/soltanovemil/Functional-Data-Analysis/basis"
	"github.com/soltanovemil/Functional-Data-Analysis/fd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sinusoidFamily(t *testing.T) *fd.FD {
	t.Helper()

	b, err := basis.NewFourier(0, 24, 5)
	require.Nil(t, err)

	// Six curves varying almost entirely along the first-order sine with a
	// touch of cosine variation.
	sinAmp := []float64{-3, -2, -1, 1, 2, 3}
	cosAmp := []float64{0.1, -0.1, 0.05, -0.05, 0.02, -0.02}
	coef := mat.NewDense(5, 6, nil)
	for j := 0; j < 6; j++ {
		coef.Set(0, j, 100.0)
		coef.Set(1, j, sinAmp[j])
		coef.Set(2, j, cosAmp[j])
	}
	x, err := fd.New(b, coef)
	require.Nil(t, err)
	return x
}

func TestPCAValidation(t *testing.T) {
	x := sinusoidFamily(t)

	single, err := x.Curve(0)
	require.Nil(t, err)

	testData := map[string]struct {
		x     *fd.FD
		nHarm int
		err   error
	}{
		"valid":          {x, 2, nil},
		"single curve":   {single, 1, ErrInsufficientData},
		"zero harmonics": {x, 0, ErrInsufficientData},
		"too many":       {x, 6, ErrInsufficientData},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := PCA(td.x, td.nHarm)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.nHarm, res.Harmonics.NumCurves())
		})
	}
}

func TestPCAHarmonicsOrthonormal(t *testing.T) {
	res, err := PCA(sinusoidFamily(t), 3)
	require.Nil(t, err)

	ip, err := fd.InnerProducts(res.Harmonics, res.Harmonics)
	require.Nil(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, ip.At(i, j), 1e-8)
		}
	}
}

func TestPCAEigenvalueOrderAndProportions(t *testing.T) {
	res, err := PCA(sinusoidFamily(t), 2)
	require.Nil(t, err)

	require.Len(t, res.Eigenvalues, 5)
	for i := 1; i < len(res.Eigenvalues); i++ {
		assert.LessOrEqual(t, res.Eigenvalues[i], res.Eigenvalues[i-1])
		assert.GreaterOrEqual(t, res.Eigenvalues[i], 0.0)
	}

	// Proportions are taken against the full spectrum and must sum to 1.
	sum := 0.0
	for _, p := range res.Proportions {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-10)

	// Nearly all variance sits on the sine direction.
	assert.Greater(t, res.Proportions[0], 0.99)
}

func TestPCAScoresRecoverAmplitudes(t *testing.T) {
	x := sinusoidFamily(t)
	res, err := PCA(x, 1)
	require.Nil(t, err)

	rows, cols := res.Scores.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 1, cols)

	// The first harmonic is the normalized sine, so scores are the centered
	// sine amplitudes scaled by its norm sqrt(12).
	sinAmp := []float64{-3, -2, -1, 1, 2, 3}
	norm := math.Sqrt(12.0)
	for i, a := range sinAmp {
		assert.InDelta(t, a*norm, res.Scores.At(i, 0), 0.05)
	}

	// Scores of the retained harmonics reproduce the eigenvalues as score
	// variance.
	var sq float64
	for i := 0; i < rows; i++ {
		sq += res.Scores.At(i, 0) * res.Scores.At(i, 0)
	}
	assert.InDelta(t, res.Eigenvalues[0], sq/float64(rows-1), 1e-6)
}
