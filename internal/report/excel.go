package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/inodb/vibe-rank/internal/matrix"
	"github.com/inodb/vibe-rank/internal/rank"
)

const (
	statsSheet = "Sheet1"

	medianNumFmt = "#,##0.000"
	statNumFmt   = "0.00E+00"

	sheetZoom = 200.0
)

// statColumns are the leading columns of every table.
var statColumns = []string{"gene", "med", "p", "FDR"}

// WriteStatsWorkbook writes the per-row statistics of every tested row.
func WriteStatsWorkbook(path string, stats []rank.RowStat) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeTable(f, statsSheet, nil, stats, nil); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save stats workbook: %w", err)
	}
	return nil
}

// WriteRankingWorkbook writes the classified rows to the "Negative" and
// "Positive" sheets, followed by their sample values from m.
func WriteRankingWorkbook(path string, m *matrix.Matrix, res rank.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(statsSheet, string(rank.Negative)); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(string(rank.Positive)); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	for _, d := range []rank.Direction{rank.Negative, rank.Positive} {
		group := res.Group(d)
		stats := make([]rank.RowStat, len(group))
		for i, c := range group {
			stats[i] = c.RowStat
		}
		if err := writeTable(f, string(d), m.Samples(), stats, m); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save ranking workbook: %w", err)
	}
	return nil
}

// writeTable writes a header row and one row per stat. Sample values are
// appended when m is non-nil; missing cells are left blank.
func writeTable(f *excelize.File, sheet string, samples []string, stats []rank.RowStat, m *matrix.Matrix) error {
	header := make([]any, 0, len(statColumns)+len(samples))
	for _, c := range statColumns {
		header = append(header, c)
	}
	for _, s := range samples {
		header = append(header, s)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, s := range stats {
		values := []any{s.ID, s.Median, s.PValue, s.FDR}
		if m != nil {
			row, ok := m.Lookup(s.ID)
			if !ok {
				return fmt.Errorf("row %q not found in matrix", s.ID)
			}
			for _, c := range row {
				if c.Present() {
					values = append(values, c.Value)
				} else {
					values = append(values, nil)
				}
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %q: %w", s.ID, err)
		}
	}

	return formatSheet(f, sheet)
}

// formatSheet applies the number formats and zoom, and freezes the header row and the
// ID column.
func formatSheet(f *excelize.File, sheet string) error {
	medFmt := medianNumFmt
	medStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &medFmt,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	statFmt := statNumFmt
	statStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &statFmt,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetColStyle(sheet, "B", medStyle); err != nil {
		return fmt.Errorf("set column style: %w", err)
	}
	if err := f.SetColStyle(sheet, "C:D", statStyle); err != nil {
		return fmt.Errorf("set column style: %w", err)
	}

	zoom := sheetZoom
	if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{ZoomScale: &zoom}); err != nil {
		return fmt.Errorf("set sheet view: %w", err)
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}
