package matrix

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeneSet(t *testing.T) {
	input := "CD274\tPDCD1\n" +
		"CTLA4\n" +
		"\n" +
		"  LAG3\tHAVCR2\t\n" +
		"PDCD1\tTIGIT"

	set, err := parseGeneSet(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"CD274", "CTLA4", "HAVCR2", "LAG3", "PDCD1", "TIGIT"}, set.Sorted())
	assert.False(t, set.Contains(""))
}

func TestLoadGeneSet(t *testing.T) {
	path := writeFile(t, "genes.txt", "A\tB\nC\n")

	set, err := LoadGeneSet(path)
	require.NoError(t, err)
	assert.Len(t, set, 3)
	assert.True(t, set.Contains("C"))

	_, err = LoadGeneSet(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestCellKinds(t *testing.T) {
	assert.Equal(t, Zero, Value(0).Kind)
	assert.Equal(t, NonZero, Value(-0.1).Kind)
	assert.Equal(t, Missing, Value(math.NaN()).Kind)
	assert.True(t, math.IsNaN(NA().Float()))
	assert.Equal(t, 0.0, Value(0).Float())
	assert.Equal(t, "missing", Missing.String())
	assert.Equal(t, "zero", Zero.String())
	assert.Equal(t, "nonzero", NonZero.String())
}
