package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-rank/internal/rank"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string, started time.Time) Run {
	return Run{
		ID:        id,
		StartedAt: started,
		GeneSet: FileFingerprint{
			Path: "/data/genes.txt", Size: 120,
			ModTime: time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC),
		},
		Matrix: FileFingerprint{
			Path: "/data/merge_immunotherapy.expression.gz", Size: 1 << 20,
			ModTime: time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC),
		},
		Thresholds: rank.DefaultThresholds(),
		Tested:     3,
		Degenerate: 1,
	}
}

func testRanking() *rank.Ranking {
	return &rank.Ranking{
		Stats: []rank.RowStat{
			{ID: "CD274", Median: -4.5, PValue: 0.001, FDR: 0.003},
			{ID: "PDCD1", Median: 3, PValue: 0.002, FDR: 0.003},
			{ID: "CTLA4", Median: 0.1, PValue: 0.7, FDR: 0.7},
		},
		Result: rank.Result{
			Negative: []rank.Classified{
				{RowStat: rank.RowStat{ID: "CD274", Median: -4.5, PValue: 0.001, FDR: 0.003}, NegCount: 8},
			},
			Positive: []rank.Classified{
				{RowStat: rank.RowStat{ID: "PDCD1", Median: 3, PValue: 0.002, FDR: 0.003}, PosCount: 6, NegCount: 1},
			},
		},
		Degenerate: 1,
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Equal(t, "", s.Path())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}

func TestWriteRunAndLookupGene(t *testing.T) {
	s := openInMemory(t)

	started := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.WriteRun(testRun("run-1", started), testRanking()))

	recs, err := s.LookupGene("CD274")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "run-1", recs[0].RunID)
	assert.True(t, started.Equal(recs[0].StartedAt))
	assert.Equal(t, -4.5, recs[0].Stat.Median)
	assert.Equal(t, 0.001, recs[0].Stat.PValue)
	assert.Equal(t, rank.Negative, recs[0].Direction)
	assert.Equal(t, 1, recs[0].Position)

	recs, err = s.LookupGene("CTLA4")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rank.Direction(""), recs[0].Direction)
	assert.Equal(t, 0, recs[0].Position)

	recs, err = s.LookupGene("NOTEXIST")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLookupGene_AcrossRuns(t *testing.T) {
	s := openInMemory(t)

	t1 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	require.NoError(t, s.WriteRun(testRun("run-b", t2), testRanking()))
	require.NoError(t, s.WriteRun(testRun("run-a", t1), testRanking()))

	recs, err := s.LookupGene("PDCD1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "run-a", recs[0].RunID)
	assert.Equal(t, "run-b", recs[1].RunID)
	assert.Equal(t, rank.Positive, recs[1].Direction)
}

func TestListRuns(t *testing.T) {
	s := openInMemory(t)

	run := testRun("run-1", time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.WriteRun(run, testRanking()))

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 3, got.Tested)
	assert.Equal(t, 1, got.Degenerate)
	assert.Equal(t, rank.DefaultThresholds(), got.Thresholds)
	assert.True(t, got.SameInputs(run))

	other := run
	other.Thresholds.Count = 4
	assert.False(t, got.SameInputs(other))
}

func TestWriteRun_DuplicateID(t *testing.T) {
	s := openInMemory(t)

	run := testRun("run-1", time.Now().UTC())
	require.NoError(t, s.WriteRun(run, testRanking()))
	assert.Error(t, s.WriteRun(run, testRanking()))
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genes.txt")
	require.NoError(t, os.WriteFile(path, []byte("CD274\n"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(6), fp.Size)
	assert.True(t, filepath.IsAbs(fp.Path))

	again, err := StatFile(path)
	require.NoError(t, err)
	assert.True(t, fp.Same(again))

	_, err = StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
