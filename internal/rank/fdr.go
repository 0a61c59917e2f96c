package rank

import "gonum.org/v1/gonum/floats"

// BenjaminiHochberg returns FDR-adjusted p-values in the order of pvals.
// The adjustment is defined over the whole family, so it must be applied to
// every tested row at once.
func BenjaminiHochberg(pvals []float64) []float64 {
	n := len(pvals)
	if n == 0 {
		return nil
	}

	sorted := make([]float64, n)
	copy(sorted, pvals)
	idx := make([]int, n)
	floats.ArgsortStable(sorted, idx)

	fdr := make([]float64, n)
	minP := 1.0
	for i := n - 1; i >= 0; i-- {
		adjusted := sorted[i] * float64(n) / float64(i+1)
		if adjusted < minP {
			minP = adjusted
		}
		fdr[idx[i]] = clip01(minP)
	}

	return fdr
}
