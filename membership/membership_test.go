package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mudgo/index"
)

func buildMatrix(t *testing.T) (*index.Index, *Matrix) {
	t.Helper()

	global := index.Union(
		[]string{"a", "b", "c"},
		[]string{"b", "c", "d"},
	)
	m := Build(global, []Source{
		{Name: "rna", Names: []string{"a", "b", "c"}},
		{Name: "atac", Names: []string{"b", "c", "d"}},
	})
	return global, m
}

func TestBuild(t *testing.T) {
	global, m := buildMatrix(t)

	assert.Equal(t, global.Len(), m.Len())
	assert.Equal(t, 2, m.NumColumns())
	assert.Equal(t, []string{"rna", "atac"}, m.ColumnNames())

	// global order: a b c d
	assert.True(t, m.Contains(0, 0))
	assert.False(t, m.Contains(0, 1))
	assert.True(t, m.Contains(1, 0))
	assert.True(t, m.Contains(1, 1))
	assert.False(t, m.Contains(3, 0))
	assert.True(t, m.Contains(3, 1))

	assert.True(t, m.ContainsName(0, "rna"))
	assert.False(t, m.ContainsName(0, "atac"))
	assert.False(t, m.ContainsName(0, "missing"))
}

func TestCountMatchesSourceLength(t *testing.T) {
	_, m := buildMatrix(t)

	assert.Equal(t, uint64(3), m.Count(0))
	assert.Equal(t, uint64(3), m.Count(1))
	assert.Equal(t, uint64(3), m.CountName("rna"))
	assert.Equal(t, uint64(0), m.CountName("missing"))
}

func TestBools(t *testing.T) {
	_, m := buildMatrix(t)

	assert.Equal(t, []bool{true, true, true, false}, m.Bools(0))
	assert.Equal(t, []bool{false, true, true, true}, m.Bools(1))
}

func TestEmpty(t *testing.T) {
	m := Empty(5)
	assert.Equal(t, 5, m.Len())
	assert.Equal(t, 0, m.NumColumns())
	assert.Empty(t, m.ColumnNames())
}

func TestAppendColumn(t *testing.T) {
	_, src := buildMatrix(t)

	m := Empty(src.Len())
	for j, name := range src.ColumnNames() {
		raw, err := src.MarshalColumn(j)
		require.NoError(t, err)
		bits, err := UnmarshalColumn(raw)
		require.NoError(t, err)
		require.NoError(t, m.AppendColumn(name, bits))
	}

	assert.True(t, m.Equal(src))

	bits, err := UnmarshalColumn([]byte{})
	if err == nil {
		err = m.AppendColumn("rna", bits)
	}
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	_, m := buildMatrix(t)

	raw, err := m.MarshalColumn(1)
	require.NoError(t, err)
	bits, err := UnmarshalColumn(raw)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), bits.GetCardinality())
	assert.True(t, bits.Contains(1))
	assert.True(t, bits.Contains(2))
	assert.True(t, bits.Contains(3))
}

func TestEqual(t *testing.T) {
	_, a := buildMatrix(t)
	_, b := buildMatrix(t)
	assert.True(t, a.Equal(b))

	global := index.Union([]string{"a", "b", "c", "d"})
	c := Build(global, []Source{
		{Name: "rna", Names: []string{"a"}},
		{Name: "atac", Names: []string{"b", "c", "d"}},
	})
	assert.False(t, a.Equal(c))

	assert.False(t, a.Equal(Empty(a.Len())))
}
