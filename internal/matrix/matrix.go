// Package matrix loads gene-by-sample expression matrices and filters their rows.
package matrix

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when no row survives filtering.
var ErrEmpty = errors.New("no rows left after filtering")

// Matrix is an immutable table of cells indexed by row ID and sample ID.
// Callers must not modify slices returned by its accessors.
type Matrix struct {
	samples []string
	ids     []string
	rows    [][]Cell
	index   map[string]int
}

// New builds a matrix from row IDs and rows. Every row must have one cell per
// sample and row IDs must be unique.
func New(samples, ids []string, rows [][]Cell) (*Matrix, error) {
	if len(ids) != len(rows) {
		return nil, fmt.Errorf("matrix has %d row IDs but %d rows", len(ids), len(rows))
	}
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("duplicate row ID %q", id)
		}
		if len(rows[i]) != len(samples) {
			return nil, fmt.Errorf("row %q has %d cells, expected %d", id, len(rows[i]), len(samples))
		}
		index[id] = i
	}
	return &Matrix{samples: samples, ids: ids, rows: rows, index: index}, nil
}

// NumRows returns the number of rows.
func (m *Matrix) NumRows() int {
	return len(m.ids)
}

// NumSamples returns the number of sample columns.
func (m *Matrix) NumSamples() int {
	return len(m.samples)
}

// Samples returns the sample IDs in column order.
func (m *Matrix) Samples() []string {
	return m.samples
}

// RowIDs returns the row IDs in row order.
func (m *Matrix) RowIDs() []string {
	return m.ids
}

// Row returns the cells of row i.
func (m *Matrix) Row(i int) []Cell {
	return m.rows[i]
}

// Lookup returns the cells of the row with the given ID.
func (m *Matrix) Lookup(id string) ([]Cell, bool) {
	i, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return m.rows[i], true
}

// MissingFraction returns the fraction of missing cells in row i.
// It is 1 for a matrix without sample columns.
func (m *Matrix) MissingFraction(i int) float64 {
	if len(m.samples) == 0 {
		return 1
	}
	missing := 0
	for _, c := range m.rows[i] {
		if c.Kind == Missing {
			missing++
		}
	}
	return float64(missing) / float64(len(m.samples))
}

// Filter returns a matrix holding the rows whose missing fraction is at most
// nullFraction and, when restrict is non-nil, whose ID is in restrict.
// Row order is preserved. ErrEmpty is returned when nothing survives.
func (m *Matrix) Filter(nullFraction float64, restrict GeneSet) (*Matrix, error) {
	out := &Matrix{
		samples: m.samples,
		index:   make(map[string]int),
	}
	for i, id := range m.ids {
		if len(m.samples) == 0 || m.MissingFraction(i) > nullFraction {
			continue
		}
		if restrict != nil && !restrict.Contains(id) {
			continue
		}
		out.index[id] = len(out.ids)
		out.ids = append(out.ids, id)
		out.rows = append(out.rows, m.rows[i])
	}
	if len(out.ids) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Subset returns a matrix with only the given rows, in the given order.
// Unknown IDs are skipped.
func (m *Matrix) Subset(ids []string) *Matrix {
	out := &Matrix{
		samples: m.samples,
		index:   make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		i, ok := m.index[id]
		if !ok {
			continue
		}
		if _, dup := out.index[id]; dup {
			continue
		}
		out.index[id] = len(out.ids)
		out.ids = append(out.ids, id)
		out.rows = append(out.rows, m.rows[i])
	}
	return out
}
