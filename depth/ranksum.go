package depth

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

var ErrBadGrouping = errors.New("rank-sum comparison needs exactly two non-empty groups")

// RankSumResult is a two-sample Wilcoxon rank-sum comparison of depth
// distributions between two groups of curves.
type RankSumResult struct {
	N1, N2 int
	// W is the rank sum of the first group (lower group label).
	W float64
	// Z is the tie-corrected normal approximation statistic.
	Z float64
	// PValue is the two-sided p-value under the normal approximation.
	PValue float64
}

// RankSum compares the depth distributions of two groups of curves with the
// Wilcoxon rank-sum test, using midranks for ties and the tie-corrected
// normal approximation for the p-value. The group slice assigns each curve a
// label; exactly two distinct labels must be present.
func RankSum(depths []float64, groups []int) (*RankSumResult, error) {
	if len(depths) != len(groups) {
		return nil, fmt.Errorf("%d depths with %d group labels, %w", len(depths), len(groups), ErrBadGrouping)
	}

	labels := make([]int, 0, 2)
	for _, g := range groups {
		found := false
		for _, l := range labels {
			if l == g {
				found = true
				break
			}
		}
		if !found {
			labels = append(labels, g)
		}
	}
	if len(labels) != 2 {
		return nil, fmt.Errorf("found %d distinct labels, %w", len(labels), ErrBadGrouping)
	}
	sort.Ints(labels)

	n := len(depths)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return depths[order[a]] < depths[order[b]]
	})

	// Midranks for ties, accumulating the tie correction term.
	ranks := make([]float64, n)
	tieCorrection := 0.0
	for i := 0; i < n; {
		j := i
		for j < n && depths[order[j]] == depths[order[i]] {
			j++
		}
		mid := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[order[k]] = mid
		}
		if t := float64(j - i); t > 1 {
			tieCorrection += t*t*t - t
		}
		i = j
	}

	var n1, n2 int
	var w float64
	for i, g := range groups {
		if g == labels[0] {
			n1++
			w += ranks[i]
		} else {
			n2++
		}
	}

	fn1, fn2, fn := float64(n1), float64(n2), float64(n)
	mean := fn1 * (fn + 1) / 2.0
	variance := fn1 * fn2 / 12.0 * (fn + 1 - tieCorrection/(fn*(fn-1)))
	if variance <= 0 {
		return nil, fmt.Errorf("depth ranks are fully tied, %w", ErrBadGrouping)
	}

	z := (w - mean) / math.Sqrt(variance)
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2.0 * norm.CDF(-math.Abs(z))

	return &RankSumResult{
		N1:     n1,
		N2:     n2,
		W:      w,
		Z:      z,
		PValue: p,
	}, nil
}
