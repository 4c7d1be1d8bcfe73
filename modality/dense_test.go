package modality

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mudgo/annot"
	"github.com/hupe1980/mudgo/blobstore"
	"github.com/hupe1980/mudgo/index"
)

func TestNewDense(t *testing.T) {
	t.Run("WithData", func(t *testing.T) {
		d, err := NewDense([]string{"o1", "o2"}, []string{"v1", "v2", "v3"}, []float32{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)

		assert.Equal(t, Shape{Obs: 2, Vars: 3}, d.Shape())
		assert.Equal(t, float32(6), d.At(1, 2))
		assert.Equal(t, FormatDense, d.Format())
		assert.False(t, d.IsBacked())
	})

	t.Run("NilDataAllocatesZeros", func(t *testing.T) {
		d, err := NewDense([]string{"o1"}, []string{"v1", "v2"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0}, d.Data())
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		_, err := NewDense([]string{"o1"}, []string{"v1"}, []float32{1, 2})
		assert.Error(t, err)
	})

	t.Run("DuplicateObs", func(t *testing.T) {
		_, err := NewDense([]string{"o1", "o1"}, []string{"v1"}, nil)
		var dupErr *index.ErrDuplicateNames
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, []string{"o1"}, dupErr.Names)
	})
}

func TestDenseLayers(t *testing.T) {
	d, err := NewDense([]string{"o1", "o2"}, []string{"v1"}, []float32{1, 2})
	require.NoError(t, err)

	require.NoError(t, d.SetLayer("raw", []float32{10, 20}))
	assert.Error(t, d.SetLayer("bad", []float32{1}))

	layer, ok := d.Layer("raw")
	require.True(t, ok)
	assert.Equal(t, []float32{10, 20}, layer)
	assert.Equal(t, []string{"raw"}, d.LayerNames())
}

func TestSelector(t *testing.T) {
	current := []string{"a", "b", "c", "d"}

	t.Run("ByNames", func(t *testing.T) {
		// order follows the axis, not the selector
		keep, err := ByNames("d", "b").Apply(current)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, keep)
	})

	t.Run("ByNamesUnknownIgnored", func(t *testing.T) {
		keep, err := ByNames("b", "zzz").Apply(current)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, keep)
	})

	t.Run("ByMask", func(t *testing.T) {
		keep, err := ByMask([]bool{true, false, false, true}).Apply(current)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 3}, keep)
	})

	t.Run("MaskLengthMismatch", func(t *testing.T) {
		_, err := ByMask([]bool{true}).Apply(current)
		assert.Error(t, err)
	})

	t.Run("BothSet", func(t *testing.T) {
		_, err := Selector{Names: []string{"a"}, Mask: []bool{true, true, true, true}}.Apply(current)
		assert.Error(t, err)
	})

	t.Run("NeitherSet", func(t *testing.T) {
		_, err := Selector{}.Apply(current)
		assert.Error(t, err)
	})

	t.Run("EmptyNamesSelectsNothing", func(t *testing.T) {
		keep, err := ByNames().Apply(current)
		require.NoError(t, err)
		assert.Empty(t, keep)
	})
}

func TestDenseFilter(t *testing.T) {
	ctx := context.Background()

	newFixture := func(t *testing.T) *Dense {
		t.Helper()
		d, err := NewDense(
			[]string{"o1", "o2", "o3"},
			[]string{"v1", "v2"},
			[]float32{1, 2, 3, 4, 5, 6},
		)
		require.NoError(t, err)
		require.NoError(t, d.SetLayer("raw", []float32{10, 20, 30, 40, 50, 60}))
		require.NoError(t, d.Obs().Table().SetColumn("label", annot.Strings([]string{"a", "b", "c"})))
		require.NoError(t, d.Var().Table().SetColumn("kind", annot.Strings([]string{"x", "y"})))
		return d
	}

	t.Run("Obs", func(t *testing.T) {
		d := newFixture(t)
		require.NoError(t, d.Filter(ctx, AxisObs, ByNames("o3", "o1")))

		assert.Equal(t, []string{"o1", "o3"}, d.ObsNames())
		assert.Equal(t, []float32{1, 2, 5, 6}, d.Data())

		layer, _ := d.Layer("raw")
		assert.Equal(t, []float32{10, 20, 50, 60}, layer)

		col, _ := d.Obs().Table().Column("label")
		assert.Equal(t, []string{"a", "c"}, col.StringValues())
	})

	t.Run("Vars", func(t *testing.T) {
		d := newFixture(t)
		require.NoError(t, d.Filter(ctx, AxisVar, ByNames("v2")))

		assert.Equal(t, []string{"v2"}, d.VarNames())
		assert.Equal(t, []float32{2, 4, 6}, d.Data())

		layer, _ := d.Layer("raw")
		assert.Equal(t, []float32{20, 40, 60}, layer)

		col, _ := d.Var().Table().Column("kind")
		assert.Equal(t, []string{"y"}, col.StringValues())
	})

	t.Run("ObsMask", func(t *testing.T) {
		d := newFixture(t)
		require.NoError(t, d.Filter(ctx, AxisObs, ByMask([]bool{false, true, true})))
		assert.Equal(t, []string{"o2", "o3"}, d.ObsNames())
	})
}

func TestDenseWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()

	d, err := NewDense(
		[]string{"o1", "o2"},
		[]string{"v1", "v2", "v3"},
		[]float32{1, 2, 3, 4, 5, 6},
	)
	require.NoError(t, err)
	require.NoError(t, d.SetLayer("raw", []float32{7, 8, 9, 10, 11, 12}))
	require.NoError(t, d.Obs().Table().SetColumn("label", annot.Strings([]string{"a", "b"})))

	store := blobstore.NewMemoryStore()
	g := blobstore.NewGroup(store, "mod/test")
	require.NoError(t, d.WriteTo(ctx, g))

	meta, err := ReadMeta(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, FormatDense, meta.Format)
	assert.Equal(t, []string{"o1", "o2"}, meta.ObsNames)
	assert.Equal(t, []string{"raw"}, meta.LayerNames)

	got, err := ReadDense(ctx, g)
	require.NoError(t, err)

	assert.Equal(t, d.ObsNames(), got.ObsNames())
	assert.Equal(t, d.VarNames(), got.VarNames())
	assert.Equal(t, d.Data(), got.Data())

	layer, ok := got.Layer("raw")
	require.True(t, ok)
	assert.Equal(t, []float32{7, 8, 9, 10, 11, 12}, layer)

	col, ok := got.Obs().Table().Column("label")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, col.StringValues())
}

func TestFormatRegistry(t *testing.T) {
	ctx := context.Background()

	d, err := NewDense([]string{"o1"}, []string{"v1"}, []float32{42})
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	g := blobstore.NewGroup(store, "mod/x")
	require.NoError(t, d.WriteTo(ctx, g))

	m, err := Read(ctx, g, FormatDense)
	require.NoError(t, err)
	assert.Equal(t, Shape{Obs: 1, Vars: 1}, m.Shape())

	_, err = Read(ctx, g, "no-such-format")
	assert.Error(t, err)
}
