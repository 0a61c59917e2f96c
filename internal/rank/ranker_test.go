package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inodb/vibe-rank/internal/matrix"
)

func TestComputeRanking_Scenario(t *testing.T) {
	m := newMatrix(t, map[string][]float64{
		"G1": {-5, -4, -6, -5, 0, 0},
		"G2": {1, 1, 1, 1, 1, 1},
	}, "G1", "G2")
	m, err := m.Filter(0.05, matrix.NewGeneSet("G1", "G2"))
	require.NoError(t, err)

	// Four non-zero observations cannot reach p < 0.05 in a two-sided
	// signed-rank test (the smallest attainable p here is ~0.066), so the
	// significance thresholds are relaxed for this cohort size.
	th := DefaultThresholds()
	th.PValue = 0.1
	th.FDR = 0.1

	ranking, err := ComputeRanking(context.Background(), m, th)
	require.NoError(t, err)

	require.Len(t, ranking.Stats, 1)
	assert.Equal(t, "G1", ranking.Stats[0].ID)
	assert.Equal(t, 1, ranking.Degenerate)

	require.Len(t, ranking.Result.Negative, 1)
	g1 := ranking.Result.Negative[0]
	assert.Equal(t, "G1", g1.ID)
	assert.Equal(t, -4.5, g1.Median)
	assert.Equal(t, 4, g1.NegCount)
	assert.Equal(t, 0, g1.PosCount)
	assert.Empty(t, ranking.Result.Positive)
	assert.NotContains(t, ranking.Result.IDs(), "G2")
}

func TestComputeRanking_DefaultThresholds(t *testing.T) {
	m := newMatrix(t, map[string][]float64{
		"G1": {-5, -4, -6, -5, -3, -7, -8, -2.5, 0, 0},
		"G2": {1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		"G3": {4, 5, 6, 3, 7, 2.5, 8, 5, 0, 0},
		"G4": {-1, 1, -2, 2, -3, 3, 0.5, -0.5, 4, -4},
	}, "G1", "G2", "G3", "G4")

	ranker := NewRanker(DefaultThresholds())
	ranker.SetWorkers(3)
	ranker.SetLogger(zap.NewNop())

	ranking, err := ranker.Rank(context.Background(), m)
	require.NoError(t, err)

	ids := make([]string, len(ranking.Stats))
	for i, s := range ranking.Stats {
		ids[i] = s.ID
		assert.GreaterOrEqual(t, s.FDR, s.PValue)
	}
	assert.Equal(t, []string{"G1", "G3", "G4"}, ids)

	require.Len(t, ranking.Result.Negative, 1)
	assert.Equal(t, "G1", ranking.Result.Negative[0].ID)
	assert.Equal(t, -4.5, ranking.Result.Negative[0].Median)
	assert.InEpsilon(t, 0.011616044899262483, ranking.Result.Negative[0].PValue, 1e-9)

	require.Len(t, ranking.Result.Positive, 1)
	assert.Equal(t, "G3", ranking.Result.Positive[0].ID)
	assert.Equal(t, 4.5, ranking.Result.Positive[0].Median)
}

func TestComputeRanking_FDRUsesWholeFamily(t *testing.T) {
	m := newMatrix(t, map[string][]float64{
		"A": {-5, -4, -6, -5, -3, -7, -8, -2.5},
		"B": {1, -2, 3, -4, 5, -6, 7, -8},
		"C": {1, -2, 3, -4, 5, -6, 7, 8},
	}, "A", "B", "C")

	ranking, err := ComputeRanking(context.Background(), m, DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, ranking.Stats, 3)

	pvals := []float64{ranking.Stats[0].PValue, ranking.Stats[1].PValue, ranking.Stats[2].PValue}
	want := BenjaminiHochberg(pvals)
	for i, s := range ranking.Stats {
		assert.Equal(t, want[i], s.FDR)
	}
}

func TestComputeRanking_Cancelled(t *testing.T) {
	m := newMatrix(t, map[string][]float64{"A": {-5, -4, -6, -5}}, "A")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ComputeRanking(ctx, m, DefaultThresholds())
	assert.ErrorIs(t, err, context.Canceled)
}
