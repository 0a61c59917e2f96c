package prioritize

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inodb/vibe-rank/internal/duckdb"
	"github.com/inodb/vibe-rank/internal/rank"
	"github.com/inodb/vibe-rank/internal/report"
)

const testMatrix = "gene\tS1\tS2\tS3\tS4\tS5\tS6\tS7\tS8\tS9\tS10\n" +
	"G1\t-5\t-4\t-6\t-5\t-3\t-7\t-8\t-2.5\t0\t0\n" +
	"G2\t1\t1\t1\t1\t1\t1\t1\t1\t1\t1\n" +
	"G3\t4\t5\t6\t3\t7\t2.5\t8\t5\t0\t0\n" +
	"G4\t-1\t1\t-2\t2\t-3\t3\t0.5\t-0.5\t4\t-4\n" +
	"G5\tNA\tNA\t1\t2\t3\t4\t5\t6\t7\t8\n"

func writeInputs(t *testing.T, genes string) (dir, geneSet, matrixPath string) {
	t.Helper()
	dir = t.TempDir()
	geneSet = filepath.Join(dir, "genes.txt")
	matrixPath = filepath.Join(dir, "expression.tsv")
	require.NoError(t, os.WriteFile(geneSet, []byte(genes), 0644))
	require.NoError(t, os.WriteFile(matrixPath, []byte(testMatrix), 0644))
	return dir, geneSet, matrixPath
}

func TestRun_TSV(t *testing.T) {
	_, geneSet, matrixPath := writeInputs(t, "G1\tG2\tG3\n\tG4\tG5\n")

	p := New(Config{
		GeneSetPath: geneSet,
		MatrixPath:  matrixPath,
		Format:      report.FormatTSV,
		Thresholds:  rank.DefaultThresholds(),
		Workers:     2,
	})
	p.SetLogger(zap.NewNop())

	out, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Empty)
	assert.NotEmpty(t, out.RunID)

	// G5 has 20% missing values and is dropped before testing; G2 is degenerate.
	ids := make([]string, len(out.Ranking.Stats))
	for i, s := range out.Ranking.Stats {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"G1", "G3", "G4"}, ids)
	assert.Equal(t, 1, out.Ranking.Degenerate)
	assert.Equal(t, []string{"G1", "G3"}, out.Ranking.Result.IDs())

	prefix := geneSet + ".rank"
	assert.Equal(t, []string{
		prefix + ".stat.tsv",
		prefix + ".Negative.tsv",
		prefix + ".Positive.tsv",
	}, out.Files)

	for _, f := range out.Files {
		assert.FileExists(t, f)
	}

	data, err := os.ReadFile(prefix + ".Negative.tsv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "G1\t-4.5\t"))
}

func TestRun_XLSX(t *testing.T) {
	dir, geneSet, matrixPath := writeInputs(t, "G1\tG3\n")

	out, err := New(Config{
		GeneSetPath:  geneSet,
		MatrixPath:   matrixPath,
		OutputPrefix: filepath.Join(dir, "custom"),
		Thresholds:   rank.DefaultThresholds(),
	}).Run(context.Background())
	require.NoError(t, err)

	prefix := filepath.Join(dir, "custom")
	assert.Equal(t, []string{prefix + ".stat.xlsx", prefix + ".xlsx"}, out.Files)
	for _, f := range out.Files {
		assert.FileExists(t, f)
	}
}

func TestRun_NothingToRank(t *testing.T) {
	dir, geneSet, matrixPath := writeInputs(t, "NOTINMATRIX\n")

	out, err := New(Config{
		GeneSetPath: geneSet,
		MatrixPath:  matrixPath,
		Thresholds:  rank.DefaultThresholds(),
	}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Empty)
	assert.Nil(t, out.Ranking)
	assert.Empty(t, out.Files)
	assert.NoFileExists(t, filepath.Join(dir, "genes.txt.rank.xlsx"))
}

func TestRun_MissingInputs(t *testing.T) {
	dir, geneSet, matrixPath := writeInputs(t, "G1\n")

	_, err := New(Config{
		GeneSetPath: filepath.Join(dir, "missing.txt"),
		MatrixPath:  matrixPath,
		Thresholds:  rank.DefaultThresholds(),
	}).Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = New(Config{
		GeneSetPath: geneSet,
		MatrixPath:  filepath.Join(dir, "missing.tsv"),
		Thresholds:  rank.DefaultThresholds(),
	}).Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_RecordsToDuckDB(t *testing.T) {
	dir, geneSet, matrixPath := writeInputs(t, "G1\tG2\tG3\tG4\n")
	dbPath := filepath.Join(dir, "runs.duckdb")

	cfg := Config{
		GeneSetPath: geneSet,
		MatrixPath:  matrixPath,
		Format:      report.FormatTSV,
		Thresholds:  rank.DefaultThresholds(),
		DBPath:      dbPath,
	}

	first, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	second, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].SameInputs(runs[1]))
	assert.Equal(t, 3, runs[0].Tested)
	assert.Equal(t, 1, runs[0].Degenerate)

	recs, err := store.LookupGene("G3")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, rank.Positive, rec.Direction)
		assert.Equal(t, 1, rec.Position)
		assert.Equal(t, 4.5, rec.Stat.Median)
	}

	recs, err = store.LookupGene("G2")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
