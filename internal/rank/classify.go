package rank

import (
	"sort"

	"github.com/inodb/vibe-rank/internal/matrix"
)

// Classify applies the significance filter to stats and splits the surviving
// rows into the negative and positive groups by median sign and by the excess
// of direction-consistent samples.
func Classify(m *matrix.Matrix, stats []RowStat, th Thresholds) Result {
	var res Result

	for _, s := range stats {
		if !(s.PValue < th.PValue && s.FDR < th.FDR) {
			continue
		}
		row, ok := m.Lookup(s.ID)
		if !ok {
			continue
		}

		neg, pos := DirectionCounts(row, th.Fold)
		c := Classified{RowStat: s, NegCount: neg, PosCount: pos}

		switch {
		case s.Median < -th.Median && neg-pos >= th.Count:
			res.Negative = append(res.Negative, c)
		case s.Median > th.Median && pos-neg >= th.Count:
			res.Positive = append(res.Positive, c)
		}
	}

	sort.SliceStable(res.Negative, func(i, j int) bool {
		return res.Negative[i].Median < res.Negative[j].Median
	})
	sort.SliceStable(res.Positive, func(i, j int) bool {
		return res.Positive[i].Median > res.Positive[j].Median
	})

	return res
}
