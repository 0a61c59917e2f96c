package rank

import (
	"github.com/montanaflynn/stats"

	"github.com/inodb/vibe-rank/internal/matrix"
)

// TestRow computes the median of the present values of a row (zeros included)
// and the signed-rank p-value over its present non-zero values.
// ok is false when the row has no defined p-value.
func TestRow(row []matrix.Cell) (median, p float64, ok bool) {
	present := make([]float64, 0, len(row))
	nonZero := make([]float64, 0, len(row))
	for _, c := range row {
		switch c.Kind {
		case matrix.Zero:
			present = append(present, 0)
		case matrix.NonZero:
			present = append(present, c.Value)
			nonZero = append(nonZero, c.Value)
		}
	}

	p, ok = SignedRankTest(nonZero)
	if !ok {
		return 0, 0, false
	}

	median, err := stats.Median(present)
	if err != nil {
		return 0, 0, false
	}
	return median, p, true
}

// DirectionCounts returns the number of present values below -fold and above fold.
func DirectionCounts(row []matrix.Cell, fold float64) (neg, pos int) {
	for _, c := range row {
		if !c.Present() {
			continue
		}
		switch {
		case c.Value < -fold:
			neg++
		case c.Value > fold:
			pos++
		}
	}
	return neg, pos
}
