package annot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumn(t *testing.T) {
	t.Run("Types", func(t *testing.T) {
		assert.Equal(t, ColumnTypeString, Strings([]string{"x"}).Type())
		assert.Equal(t, ColumnTypeInt, Ints([]int64{1}).Type())
		assert.Equal(t, ColumnTypeFloat, Floats([]float64{1.5}).Type())
		assert.Equal(t, ColumnTypeBool, Bools([]bool{true}).Type())
	})

	t.Run("Len", func(t *testing.T) {
		assert.Equal(t, 3, Strings([]string{"a", "b", "c"}).Len())
		assert.Equal(t, 0, Ints(nil).Len())
	})

	t.Run("Equal", func(t *testing.T) {
		assert.True(t, Ints([]int64{1, 2}).Equal(Ints([]int64{1, 2})))
		assert.False(t, Ints([]int64{1, 2}).Equal(Ints([]int64{2, 1})))
		assert.False(t, Ints([]int64{1}).Equal(Floats([]float64{1})))

		nan := math.NaN()
		assert.True(t, Floats([]float64{nan, 1}).Equal(Floats([]float64{nan, 1})))
	})
}

func TestTable(t *testing.T) {
	t.Run("SetAndGet", func(t *testing.T) {
		tab := NewTable(2)
		require.NoError(t, tab.SetColumn("label", Strings([]string{"x", "y"})))
		require.NoError(t, tab.SetColumn("count", Ints([]int64{1, 2})))

		assert.Equal(t, []string{"label", "count"}, tab.ColumnNames())

		col, ok := tab.Column("label")
		require.True(t, ok)
		assert.Equal(t, []string{"x", "y"}, col.StringValues())

		_, ok = tab.Column("missing")
		assert.False(t, ok)
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		tab := NewTable(2)
		err := tab.SetColumn("bad", Strings([]string{"only-one"}))
		assert.Error(t, err)
	})

	t.Run("Replace", func(t *testing.T) {
		tab := NewTable(1)
		require.NoError(t, tab.SetColumn("c", Ints([]int64{1})))
		require.NoError(t, tab.SetColumn("c", Ints([]int64{2})))

		assert.Equal(t, []string{"c"}, tab.ColumnNames())
		col, _ := tab.Column("c")
		assert.Equal(t, []int64{2}, col.IntValues())
	})

	t.Run("Delete", func(t *testing.T) {
		tab := NewTable(1)
		require.NoError(t, tab.SetColumn("a", Ints([]int64{1})))
		require.NoError(t, tab.SetColumn("b", Ints([]int64{2})))

		tab.DeleteColumn("a")
		assert.Equal(t, []string{"b"}, tab.ColumnNames())

		tab.DeleteColumn("missing") // no-op
		assert.Equal(t, []string{"b"}, tab.ColumnNames())
	})

	t.Run("Reindex", func(t *testing.T) {
		tab := NewTable(3)
		require.NoError(t, tab.SetColumn("s", Strings([]string{"a", "b", "c"})))
		require.NoError(t, tab.SetColumn("f", Floats([]float64{1, 2, 3})))
		require.NoError(t, tab.SetColumn("b", Bools([]bool{true, false, true})))

		// keep c, a; append one new row
		tab.Reindex([]int{2, 0, -1})
		assert.Equal(t, 3, tab.Len())

		s, _ := tab.Column("s")
		assert.Equal(t, []string{"c", "a", ""}, s.StringValues())

		f, _ := tab.Column("f")
		assert.Equal(t, 3.0, f.FloatValues()[0])
		assert.Equal(t, 1.0, f.FloatValues()[1])
		assert.True(t, math.IsNaN(f.FloatValues()[2]))

		b, _ := tab.Column("b")
		assert.Equal(t, []bool{true, true, false}, b.BoolValues())
	})
}

func TestMatrix(t *testing.T) {
	m := NewMatrix(2, 3)
	m.Set(0, 0, 1)
	m.Set(1, 2, 6)

	assert.Equal(t, float32(1), m.At(0, 0))
	assert.Equal(t, float32(6), m.At(1, 2))
	assert.Equal(t, float32(0), m.At(0, 1))

	assert.True(t, m.Equal(m))
	assert.False(t, m.Equal(NewMatrix(2, 3)))
	assert.False(t, m.Equal(NewMatrix(3, 2)))
}

func TestFrame(t *testing.T) {
	t.Run("Matrices", func(t *testing.T) {
		f := NewFrame(2)

		emb := NewMatrix(2, 4)
		require.NoError(t, f.SetMatrix("pca", emb))
		assert.Equal(t, []string{"pca"}, f.MatrixNames())

		got, ok := f.Matrix("pca")
		require.True(t, ok)
		assert.Equal(t, emb, got)

		assert.Error(t, f.SetMatrix("bad", NewMatrix(3, 4)))
	})

	t.Run("Pairwise", func(t *testing.T) {
		f := NewFrame(2)

		require.NoError(t, f.SetPairwise("dist", NewMatrix(2, 2)))
		assert.Equal(t, []string{"dist"}, f.PairwiseNames())

		assert.Error(t, f.SetPairwise("bad", NewMatrix(2, 3)))
	})

	t.Run("Reindex", func(t *testing.T) {
		f := NewFrame(2)
		require.NoError(t, f.Table().SetColumn("s", Strings([]string{"a", "b"})))

		emb := NewMatrix(2, 2)
		emb.Set(0, 0, 10)
		emb.Set(1, 0, 20)
		require.NoError(t, f.SetMatrix("pca", emb))

		pw := NewMatrix(2, 2)
		pw.Set(0, 1, 7)
		require.NoError(t, f.SetPairwise("dist", pw))

		// swap rows, append a new identifier
		f.Reindex([]int{1, 0, -1})
		assert.Equal(t, 3, f.Len())

		s, _ := f.Table().Column("s")
		assert.Equal(t, []string{"b", "a", ""}, s.StringValues())

		got, _ := f.Matrix("pca")
		assert.Equal(t, float32(20), got.At(0, 0))
		assert.Equal(t, float32(10), got.At(1, 0))
		assert.True(t, math.IsNaN(float64(got.At(2, 0))))

		gpw, _ := f.Pairwise("dist")
		assert.Equal(t, 3, gpw.Rows)
		assert.Equal(t, float32(7), gpw.At(1, 0))
		assert.True(t, math.IsNaN(float64(gpw.At(2, 2))))
	})

	t.Run("Equal", func(t *testing.T) {
		a := NewFrame(1)
		b := NewFrame(1)
		assert.True(t, a.Equal(b))

		require.NoError(t, a.Table().SetColumn("c", Ints([]int64{1})))
		assert.False(t, a.Equal(b))
	})
}
