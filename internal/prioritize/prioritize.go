// Package prioritize runs the gene ranking pipeline end to end: load the gene
// set and matrix, rank, write reports and optionally record the run.
package prioritize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-rank/internal/duckdb"
	"github.com/inodb/vibe-rank/internal/matrix"
	"github.com/inodb/vibe-rank/internal/rank"
	"github.com/inodb/vibe-rank/internal/report"
)

// Config holds everything a run needs.
type Config struct {
	GeneSetPath string
	MatrixPath  string
	// OutputPrefix defaults to GeneSetPath + ".rank".
	OutputPrefix string
	Format       report.Format
	Thresholds   rank.Thresholds
	Workers      int
	// DBPath enables recording the run in a DuckDB database.
	DBPath string
}

// Outcome summarises a run.
type Outcome struct {
	RunID string
	// Empty is set when no row survived filtering and nothing was ranked.
	Empty   bool
	Ranking *rank.Ranking
	Files   []string
}

// Prioritizer runs the pipeline for one Config.
type Prioritizer struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a prioritizer.
func New(cfg Config) *Prioritizer {
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = cfg.GeneSetPath + ".rank"
	}
	if cfg.Format == "" {
		cfg.Format = report.FormatXLSX
	}
	return &Prioritizer{
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}
}

// SetLogger sets the logger for progress messages.
func (p *Prioritizer) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Run executes the pipeline. A matrix with no row left after filtering is
// not an error: the returned Outcome has Empty set and no file is written.
func (p *Prioritizer) Run(ctx context.Context) (*Outcome, error) {
	started := p.now().UTC().Truncate(time.Microsecond)
	out := &Outcome{RunID: uuid.NewString()}

	m, err := p.load(ctx)
	if errors.Is(err, matrix.ErrEmpty) {
		p.logger.Info("nothing to rank")
		out.Empty = true
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	p.logger.Info("after restriction",
		zap.Int("rows", m.NumRows()),
		zap.Int("samples", m.NumSamples()))

	ranker := rank.NewRanker(p.cfg.Thresholds)
	ranker.SetWorkers(p.cfg.Workers)
	ranker.SetLogger(p.logger)

	ranking, err := ranker.Rank(ctx, m)
	if err != nil {
		return nil, err
	}
	out.Ranking = ranking

	files, err := p.writeReports(m, ranking)
	if err != nil {
		return nil, err
	}
	out.Files = files

	if p.cfg.DBPath != "" {
		if err := p.record(out.RunID, started, ranking); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// load reads the gene set and the matrix concurrently, then filters the matrix.
func (p *Prioritizer) load(ctx context.Context) (*matrix.Matrix, error) {
	var (
		genes matrix.GeneSet
		raw   *matrix.Matrix
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		genes, err = matrix.LoadGeneSet(p.cfg.GeneSetPath)
		return err
	})
	g.Go(func() error {
		var err error
		raw, err = matrix.Read(p.cfg.MatrixPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("loaded inputs",
		zap.Int("genes", len(genes)),
		zap.Int("rows", raw.NumRows()),
		zap.Int("samples", raw.NumSamples()))

	return raw.Filter(p.cfg.Thresholds.NullFraction, genes)
}

// writeReports writes the statistics and ranking reports concurrently.
func (p *Prioritizer) writeReports(m *matrix.Matrix, ranking *rank.Ranking) ([]string, error) {
	var (
		statsPath    string
		rankingPaths []string
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		statsPath, err = report.WriteStats(p.cfg.OutputPrefix, p.cfg.Format, ranking.Stats)
		if err != nil {
			return fmt.Errorf("write stats report: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rankingPaths, err = report.WriteRanking(p.cfg.OutputPrefix, p.cfg.Format, m, ranking.Result)
		if err != nil {
			return fmt.Errorf("write ranking report: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := append([]string{statsPath}, rankingPaths...)
	for _, f := range files {
		p.logger.Info("wrote report", zap.String("path", f))
	}
	return files, nil
}

// record stores the run in the configured DuckDB database.
func (p *Prioritizer) record(runID string, started time.Time, ranking *rank.Ranking) error {
	geneSet, err := duckdb.StatFile(p.cfg.GeneSetPath)
	if err != nil {
		return fmt.Errorf("stat gene set: %w", err)
	}
	mat, err := duckdb.StatFile(p.cfg.MatrixPath)
	if err != nil {
		return fmt.Errorf("stat matrix: %w", err)
	}

	store, err := duckdb.Open(p.cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := duckdb.Run{
		ID:         runID,
		StartedAt:  started,
		GeneSet:    geneSet,
		Matrix:     mat,
		Thresholds: p.cfg.Thresholds,
		Tested:     len(ranking.Stats),
		Degenerate: ranking.Degenerate,
	}

	previous, err := store.ListRuns()
	if err != nil {
		return err
	}
	for _, prev := range previous {
		if prev.SameInputs(run) {
			p.logger.Info("inputs match an earlier run", zap.String("run", prev.ID))
			break
		}
	}

	if err := store.WriteRun(run, ranking); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	p.logger.Info("recorded run", zap.String("run", runID), zap.String("db", p.cfg.DBPath))
	return nil
}
