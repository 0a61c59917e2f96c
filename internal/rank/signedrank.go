package rank

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// maxExactN is the largest sample size for which the exact null distribution
// of the signed-rank statistic is used when there are no ties.
const maxExactN = 50

// SignedRankTest performs a two-sided Wilcoxon signed-rank test of the
// hypothesis that x is centred at zero. Zeros in x must already be removed.
//
// Without ties and with len(x) <= 50 the p-value comes from the exact null
// distribution; otherwise a normal approximation with tie correction (and no
// continuity correction) is used.
//
// ok is false when the test is undefined: x is empty, all values are equal, or
// the variance of the statistic is zero.
func SignedRankTest(x []float64) (p float64, ok bool) {
	n := len(x)
	if n == 0 || allEqual(x) {
		return 0, false
	}

	ranks, tieGroups := absRanks(x)

	var rPlus, rMinus float64
	for i, v := range x {
		if v > 0 {
			rPlus += ranks[i]
		} else {
			rMinus += ranks[i]
		}
	}
	t := math.Min(rPlus, rMinus)

	if n <= maxExactN && len(tieGroups) == 0 {
		return clip01(2 * exactSignedRankCDF(n, int(t))), true
	}

	nf := float64(n)
	mean := nf * (nf + 1) / 4
	variance := nf * (nf + 1) * (2*nf + 1)
	for _, size := range tieGroups {
		s := float64(size)
		variance -= 0.5 * s * (s*s - 1)
	}
	variance /= 24
	if variance <= 0 {
		return 0, false
	}

	z := (t - mean) / math.Sqrt(variance)
	return clip01(2 * distuv.UnitNormal.Survival(math.Abs(z))), true
}

// absRanks ranks |x| ascending with average ranks for ties. It also returns
// the sizes of tie groups larger than one.
func absRanks(x []float64) (ranks []float64, tieGroups []int) {
	n := len(x)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(x[order[a]]) < math.Abs(x[order[b]])
	})

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && math.Abs(x[order[j]]) == math.Abs(x[order[i]]) {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		if j-i > 1 {
			tieGroups = append(tieGroups, j-i)
		}
		i = j
	}
	return ranks, tieGroups
}

// exactSignedRankCDF returns P(T <= t) for the signed-rank statistic of n
// untied observations under the null hypothesis.
func exactSignedRankCDF(n, t int) float64 {
	maxSum := n * (n + 1) / 2
	if t >= maxSum {
		return 1
	}
	if t < 0 {
		return 0
	}

	// counts[s] is the number of subsets of {1..k} whose ranks sum to s.
	counts := make([]float64, maxSum+1)
	counts[0] = 1
	for k := 1; k <= n; k++ {
		for s := k * (k + 1) / 2; s >= k; s-- {
			counts[s] += counts[s-k]
		}
	}

	var below float64
	for s := 0; s <= t; s++ {
		below += counts[s]
	}
	return below / math.Exp2(float64(n))
}

func allEqual(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

func clip01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
