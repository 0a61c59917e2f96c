// Package rank tests matrix rows against a zero centre and classifies the
// significant ones by direction.
package rank

// RowStat holds the test results for one matrix row.
// FDR is only meaningful once the whole tested collection has been corrected.
type RowStat struct {
	ID     string
	Median float64
	PValue float64
	FDR    float64
}

// Thresholds configures filtering and classification.
type Thresholds struct {
	// PValue and FDR are strict upper bounds for significance.
	PValue float64 `mapstructure:"p"`
	FDR    float64 `mapstructure:"q"`
	// NullFraction is the largest tolerated fraction of missing cells in a row.
	NullFraction float64 `mapstructure:"null"`
	// Fold is the magnitude a sample must exceed to count toward a direction.
	Fold float64 `mapstructure:"fold"`
	// Count is the minimum excess of same-direction over opposite-direction samples.
	Count int `mapstructure:"count"`
	// Median is the magnitude the row median must exceed.
	Median float64 `mapstructure:"median"`
}

// DefaultThresholds returns the default classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PValue:       0.05,
		FDR:          0.05,
		NullFraction: 0.05,
		Fold:         2,
		Count:        3,
		Median:       0.5,
	}
}

// Direction is the group a classified row belongs to.
type Direction string

const (
	Negative Direction = "Negative"
	Positive Direction = "Positive"
)

// Classified is a row that passed significance and consistency filters.
type Classified struct {
	RowStat
	NegCount int
	PosCount int
}

// Result holds the two classified groups. Negative is ordered by median
// ascending and Positive by median descending.
type Result struct {
	Negative []Classified
	Positive []Classified
}

// Len returns the total number of classified rows.
func (r *Result) Len() int {
	return len(r.Negative) + len(r.Positive)
}

// IDs returns the classified row IDs, negative group first.
func (r *Result) IDs() []string {
	ids := make([]string, 0, r.Len())
	for _, c := range r.Negative {
		ids = append(ids, c.ID)
	}
	for _, c := range r.Positive {
		ids = append(ids, c.ID)
	}
	return ids
}

// Group returns the rows of the given direction.
func (r *Result) Group(d Direction) []Classified {
	if d == Negative {
		return r.Negative
	}
	return r.Positive
}

// Ranking is the output of ComputeRanking.
type Ranking struct {
	// Stats holds every tested row in matrix order, before significance filtering.
	Stats  []RowStat
	Result Result
	// Degenerate counts rows excluded because their test was undefined.
	Degenerate int
}
