package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-rank/internal/rank"
)

// Run describes one ranking run.
type Run struct {
	ID         string
	StartedAt  time.Time
	GeneSet    FileFingerprint
	Matrix     FileFingerprint
	Thresholds rank.Thresholds
	Tested     int
	Degenerate int
}

// SameInputs reports whether two runs used the same files and thresholds.
func (r Run) SameInputs(other Run) bool {
	return r.GeneSet.Same(other.GeneSet) &&
		r.Matrix.Same(other.Matrix) &&
		r.Thresholds == other.Thresholds
}

// GeneRecord is one recorded row statistic for a gene.
type GeneRecord struct {
	RunID     string
	StartedAt time.Time
	Stat      rank.RowStat
	// Direction is empty when the gene was tested but not classified.
	Direction rank.Direction
	Position  int
}

// WriteRun records a run with its row statistics and classified genes.
func (s *Store) WriteRun(run Run, ranking *rank.Ranking) error {
	th := run.Thresholds
	if _, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(),
		run.GeneSet.Path, run.GeneSet.Size, run.GeneSet.ModTime,
		run.Matrix.Path, run.Matrix.Size, run.Matrix.ModTime,
		th.PValue, th.FDR, th.NullFraction, th.Fold, int64(th.Count), th.Median,
		int64(run.Tested), int64(run.Degenerate),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if err := appendRows(conn.Raw, "row_stats", func(a *goduckdb.Appender) error {
		for _, st := range ranking.Stats {
			if err := a.AppendRow(run.ID, st.ID, st.Median, st.PValue, st.FDR); err != nil {
				return fmt.Errorf("append row stat: %w", err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return appendRows(conn.Raw, "ranked_genes", func(a *goduckdb.Appender) error {
		for _, d := range []rank.Direction{rank.Negative, rank.Positive} {
			for i, c := range ranking.Result.Group(d) {
				if err := a.AppendRow(run.ID, c.ID, string(d), int64(i+1),
					int64(c.NegCount), int64(c.PosCount)); err != nil {
					return fmt.Errorf("append ranked gene: %w", err)
				}
			}
		}
		return nil
	})
}

// appendRows opens an Appender on table, runs fill and flushes.
func appendRows(raw func(func(any) error) error, table string, fill func(*goduckdb.Appender) error) error {
	var appender *goduckdb.Appender
	if err := raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	if err := fill(appender); err != nil {
		return err
	}
	return appender.Flush()
}

// ListRuns returns every recorded run, oldest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, started_at,
		gene_set_path, gene_set_size, gene_set_mtime,
		matrix_path, matrix_size, matrix_mtime,
		p_threshold, q_threshold, null_threshold, fold_threshold, count_threshold, median_threshold,
		tested, degenerate
		FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var count, tested, degenerate int64
		if err := rows.Scan(
			&r.ID, &r.StartedAt,
			&r.GeneSet.Path, &r.GeneSet.Size, &r.GeneSet.ModTime,
			&r.Matrix.Path, &r.Matrix.Size, &r.Matrix.ModTime,
			&r.Thresholds.PValue, &r.Thresholds.FDR, &r.Thresholds.NullFraction,
			&r.Thresholds.Fold, &count, &r.Thresholds.Median,
			&tested, &degenerate,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Thresholds.Count = int(count)
		r.Tested = int(tested)
		r.Degenerate = int(degenerate)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LookupGene returns every recorded statistic for a gene, oldest run first.
func (s *Store) LookupGene(gene string) ([]GeneRecord, error) {
	rows, err := s.db.Query(`SELECT
		s.run_id, r.started_at, s.median, s.p_value, s.fdr,
		COALESCE(g.direction, ''), COALESCE(g.position, 0)
		FROM row_stats s
		JOIN runs r ON r.run_id = s.run_id
		LEFT JOIN ranked_genes g ON g.run_id = s.run_id AND g.gene = s.gene
		WHERE s.gene = ?
		ORDER BY r.started_at, s.run_id`, gene)
	if err != nil {
		return nil, fmt.Errorf("query gene: %w", err)
	}
	defer rows.Close()

	var records []GeneRecord
	for rows.Next() {
		rec := GeneRecord{Stat: rank.RowStat{ID: gene}}
		var direction string
		var position int64
		if err := rows.Scan(
			&rec.RunID, &rec.StartedAt,
			&rec.Stat.Median, &rec.Stat.PValue, &rec.Stat.FDR,
			&direction, &position,
		); err != nil {
			return nil, fmt.Errorf("scan gene record: %w", err)
		}
		rec.Direction = rank.Direction(direction)
		rec.Position = int(position)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gene records: %w", err)
	}
	return records, nil
}
