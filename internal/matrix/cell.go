package matrix

import "math"

// CellKind distinguishes a missing cell from a present zero and a present non-zero value.
type CellKind uint8

const (
	Missing CellKind = iota
	Zero
	NonZero
)

// String returns a short name for the kind.
func (k CellKind) String() string {
	switch k {
	case Zero:
		return "zero"
	case NonZero:
		return "nonzero"
	default:
		return "missing"
	}
}

// Cell is a single matrix entry.
type Cell struct {
	Kind  CellKind
	Value float64
}

// Value returns a present cell holding v. NaN is treated as missing.
func Value(v float64) Cell {
	switch {
	case math.IsNaN(v):
		return Cell{Kind: Missing}
	case v == 0:
		return Cell{Kind: Zero}
	default:
		return Cell{Kind: NonZero, Value: v}
	}
}

// NA returns a missing cell.
func NA() Cell {
	return Cell{Kind: Missing}
}

// Present reports whether the cell holds a value (zero or non-zero).
func (c Cell) Present() bool {
	return c.Kind != Missing
}

// Float returns the cell value, or NaN for a missing cell.
func (c Cell) Float() float64 {
	if c.Kind == Missing {
		return math.NaN()
	}
	return c.Value
}

// Cells builds a row from float values, mapping NaN to missing.
func Cells(values ...float64) []Cell {
	row := make([]Cell, len(values))
	for i, v := range values {
		row[i] = Value(v)
	}
	return row
}
