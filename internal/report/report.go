// Package report writes ranking results as workbooks or tab-separated files.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/inodb/vibe-rank/internal/matrix"
	"github.com/inodb/vibe-rank/internal/rank"
)

// Format selects the output file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatTSV  Format = "tsv"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatXLSX, "":
		return FormatXLSX, nil
	case FormatTSV:
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// StatsPath returns the statistics report path for an output prefix.
func StatsPath(prefix string, format Format) string {
	return prefix + ".stat." + string(format)
}

// RankingPaths returns the ranked report paths for an output prefix.
// The workbook format holds both groups in one file.
func RankingPaths(prefix string, format Format) []string {
	if format == FormatTSV {
		return []string{
			prefix + "." + string(rank.Negative) + ".tsv",
			prefix + "." + string(rank.Positive) + ".tsv",
		}
	}
	return []string{prefix + ".xlsx"}
}

// WriteStats writes the statistics of every tested row and returns the path written.
func WriteStats(prefix string, format Format, stats []rank.RowStat) (string, error) {
	path := StatsPath(prefix, format)
	if format == FormatXLSX {
		return path, WriteStatsWorkbook(path, stats)
	}
	return path, writeTabFile(path, nil, stats, nil)
}

// WriteRanking writes the classified groups and returns the paths written.
func WriteRanking(prefix string, format Format, m *matrix.Matrix, res rank.Result) ([]string, error) {
	paths := RankingPaths(prefix, format)
	if format == FormatXLSX {
		return paths, WriteRankingWorkbook(paths[0], m, res)
	}

	for i, d := range []rank.Direction{rank.Negative, rank.Positive} {
		group := res.Group(d)
		stats := make([]rank.RowStat, len(group))
		for j, c := range group {
			stats[j] = c.RowStat
		}
		if err := writeTabFile(paths[i], m.Samples(), stats, m); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func writeTabFile(path string, samples []string, stats []rank.RowStat, m *matrix.Matrix) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer out.Close()

	tw := NewTabWriter(out, samples)
	if err := tw.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range stats {
		var cells []matrix.Cell
		if m != nil {
			cells, _ = m.Lookup(s.ID)
		}
		if err := tw.Write(s, cells); err != nil {
			return fmt.Errorf("write row %q: %w", s.ID, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return out.Close()
}
