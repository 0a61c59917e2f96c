package rank

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-rank/internal/matrix"
)

// Ranker runs the row tests, the FDR correction and the classification.
type Ranker struct {
	thresholds Thresholds
	workers    int
	logger     *zap.Logger
}

// NewRanker creates a ranker with the given thresholds.
func NewRanker(th Thresholds) *Ranker {
	return &Ranker{
		thresholds: th,
		logger:     zap.NewNop(),
	}
}

// SetWorkers sets the number of row-testing workers. Zero means one per CPU.
func (r *Ranker) SetWorkers(n int) {
	r.workers = n
}

// SetLogger sets the logger for progress messages.
func (r *Ranker) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Rank tests every row of m, drops rows without a defined p-value, corrects
// the p-values of the remaining rows jointly and classifies them.
func (r *Ranker) Rank(ctx context.Context, m *matrix.Matrix) (*Ranking, error) {
	items := make(chan WorkItem, 2*max(r.workers, 1))

	go func() {
		defer close(items)
		for i, id := range m.RowIDs() {
			select {
			case items <- WorkItem{Seq: i, ID: id, Cells: m.Row(i)}:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := ParallelTest(items, r.workers)

	ranking := &Ranking{}
	if err := OrderedCollect(results, func(res WorkResult) error {
		if !res.OK {
			ranking.Degenerate++
			r.logger.Debug("row has no defined p-value", zap.String("id", res.ID))
			return nil
		}
		ranking.Stats = append(ranking.Stats, RowStat{
			ID:     res.ID,
			Median: res.Median,
			PValue: res.PValue,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rank rows: %w", err)
	}

	pvals := make([]float64, len(ranking.Stats))
	for i, s := range ranking.Stats {
		pvals[i] = s.PValue
	}
	for i, q := range BenjaminiHochberg(pvals) {
		ranking.Stats[i].FDR = q
	}

	r.logger.Info("tested rows",
		zap.Int("tested", len(ranking.Stats)),
		zap.Int("degenerate", ranking.Degenerate))

	ranking.Result = Classify(m, ranking.Stats, r.thresholds)
	r.logger.Info("classified rows",
		zap.Int("negative", len(ranking.Result.Negative)),
		zap.Int("positive", len(ranking.Result.Positive)))

	return ranking, nil
}

// ComputeRanking ranks m with default workers and no logging.
func ComputeRanking(ctx context.Context, m *matrix.Matrix, th Thresholds) (*Ranking, error) {
	return NewRanker(th).Rank(ctx, m)
}
