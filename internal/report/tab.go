package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-rank/internal/matrix"
	"github.com/inodb/vibe-rank/internal/rank"
)

// TabWriter writes row statistics in tab-delimited format, optionally
// followed by the row's sample values.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
	samples int
}

// NewTabWriter creates a new tab-delimited writer. Pass the matrix sample IDs
// to append sample values to each row, or nil for statistics only.
func NewTabWriter(w io.Writer, samples []string) *TabWriter {
	columns := append([]string{}, statColumns...)
	columns = append(columns, samples...)
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
		samples: len(samples),
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single row. cells is ignored when the writer has no sample
// columns.
func (tw *TabWriter) Write(s rank.RowStat, cells []matrix.Cell) error {
	values := make([]string, 0, len(tw.columns))
	values = append(values,
		s.ID,
		formatFloat(s.Median),
		formatFloat(s.PValue),
		formatFloat(s.FDR),
	)

	if tw.samples > 0 {
		for i := 0; i < tw.samples; i++ {
			if i < len(cells) && cells[i].Present() {
				values = append(values, formatFloat(cells[i].Value))
			} else {
				values = append(values, "")
			}
		}
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
