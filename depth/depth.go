// Package depth ranks curves by centrality within a curve population using
// the band depth family, and derives the central region, the median curve and
// low-depth outliers from the ranking.
package depth

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/combin"
)

var (
	ErrInsufficientData = errors.New("band depth needs at least 3 curves")
	ErrUnknownMethod    = errors.New("unknown depth method")
	ErrBadQuantile      = errors.New("quantile must be in [0, 1]")
)

type Method string

const (
	// BD2 counts the fraction of curve pairs whose envelope contains the
	// whole curve.
	BD2 Method = "bd2"
	// MBD averages, over curve pairs, the fraction of time points at which
	// the curve lies inside the pair envelope.
	MBD Method = "mbd"
)

// Compute returns one depth score per curve of y (rows are time points,
// columns are curves). Scores are in [0, 1], higher meaning more central, and
// are equivariant under relabeling of the curves.
func Compute(y *mat.Dense, method Method) ([]float64, error) {
	nGrid, n := y.Dims()
	if n < 3 {
		return nil, fmt.Errorf("got %d curves, %w", n, ErrInsufficientData)
	}
	if method != BD2 && method != MBD {
		return nil, fmt.Errorf("method %q, %w", method, ErrUnknownMethod)
	}

	depths := make([]float64, n)
	nPairs := float64(combin.Binomial(n, 2))
	for i := 0; i < n; i++ {
		total := 0.0
		for j1 := 0; j1 < n-1; j1++ {
			for j2 := j1 + 1; j2 < n; j2++ {
				inside := 0
				for g := 0; g < nGrid; g++ {
					lo, hi := y.At(g, j1), y.At(g, j2)
					if lo > hi {
						lo, hi = hi, lo
					}
					v := y.At(g, i)
					if v >= lo && v <= hi {
						inside++
					}
				}
				switch method {
				case BD2:
					if inside == nGrid {
						total += 1.0
					}
				case MBD:
					total += float64(inside) / float64(nGrid)
				}
			}
		}
		depths[i] = total / nPairs
	}
	return depths, nil
}

// Median returns the index of the deepest curve, the functional median. Ties
// resolve to the lowest index.
func Median(depths []float64) int {
	best := 0
	for i, d := range depths {
		if d > depths[best] {
			best = i
		}
	}
	return best
}

// CentralRegion returns the indices of curves whose depth is at or above the
// q-th quantile of the depth distribution, the deepest (1-q) share of the
// sample.
func CentralRegion(depths []float64, q float64) ([]int, error) {
	cut, err := depthQuantile(depths, q)
	if err != nil {
		return nil, err
	}
	var idx []int
	for i, d := range depths {
		if d >= cut {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

// Outliers returns the indices of curves whose depth falls strictly below the
// threshold quantile. The threshold is a reporting policy chosen by the
// caller; this package assumes no default.
func Outliers(depths []float64, threshold float64) ([]int, error) {
	cut, err := depthQuantile(depths, threshold)
	if err != nil {
		return nil, err
	}
	var idx []int
	for i, d := range depths {
		if d < cut {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

func depthQuantile(depths []float64, q float64) (float64, error) {
	if q < 0 || q > 1 {
		return 0, fmt.Errorf("got %g, %w", q, ErrBadQuantile)
	}
	sorted := make([]float64, len(depths))
	copy(sorted, depths)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil), nil
}
