package modality

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hupe1980/mudgo/annot"
	"github.com/hupe1980/mudgo/blobstore"
	"github.com/hupe1980/mudgo/index"
	"github.com/hupe1980/mudgo/persistence"
)

// FormatDense is the registered format name of Dense.
const FormatDense = "dense"

// Blob names inside a dense modality group. MetaBlob is loaded eagerly in
// backed mode; the others on demand.
const (
	MetaBlob  = "meta.bin"
	DataBlob  = "data.bin"
	AnnotBlob = "annot.bin"
)

func init() {
	RegisterFormat(FormatDense, func(ctx context.Context, g *blobstore.Group) (Modality, error) {
		return ReadDense(ctx, g)
	})
}

// Dense is a fully in-memory annotated matrix: a row-major float32 payload
// plus named layers of identical shape, and per-modality annotation frames
// for both axes.
type Dense struct {
	obsNames []string
	varNames []string
	data     []float32
	layers   map[string][]float32
	lnames   []string
	obs      *annot.Frame
	vars     *annot.Frame

	compression persistence.CompressionType
}

// NewDense creates a Dense modality. data is row-major with len equal to
// len(obsNames) * len(varNames); nil allocates zeros. Axis names must be
// duplicate-free.
func NewDense(obsNames, varNames []string, data []float32) (*Dense, error) {
	if dups := index.Duplicates(obsNames); len(dups) > 0 {
		return nil, &index.ErrDuplicateNames{Names: dups}
	}
	if dups := index.Duplicates(varNames); len(dups) > 0 {
		return nil, &index.ErrDuplicateNames{Names: dups}
	}

	n := len(obsNames) * len(varNames)
	if data == nil {
		data = make([]float32, n)
	}
	if len(data) != n {
		return nil, fmt.Errorf("modality: data has %d values, shape %dx%d needs %d", len(data), len(obsNames), len(varNames), n)
	}

	return &Dense{
		obsNames:    append([]string(nil), obsNames...),
		varNames:    append([]string(nil), varNames...),
		data:        data,
		layers:      make(map[string][]float32),
		obs:         annot.NewFrame(len(obsNames)),
		vars:        annot.NewFrame(len(varNames)),
		compression: persistence.CompressionZSTD,
	}, nil
}

// SetCompression selects the block compression used when the modality
// serializes itself.
func (d *Dense) SetCompression(ct persistence.CompressionType) {
	d.compression = ct
}

// Format returns FormatDense.
func (d *Dense) Format() string {
	return FormatDense
}

// ObsNames returns a copy of the observation index.
func (d *Dense) ObsNames() []string {
	return append([]string(nil), d.obsNames...)
}

// VarNames returns a copy of the variable index.
func (d *Dense) VarNames() []string {
	return append([]string(nil), d.varNames...)
}

// Shape returns the current extent.
func (d *Dense) Shape() Shape {
	return Shape{Obs: len(d.obsNames), Vars: len(d.varNames)}
}

// IsBacked always reports false.
func (d *Dense) IsBacked() bool {
	return false
}

// Data returns the backing row-major payload. Mutations are visible to the
// container only through shape/index changes followed by an update.
func (d *Dense) Data() []float32 {
	return d.data
}

// At returns the value at observation i, variable j.
func (d *Dense) At(i, j int) float32 {
	return d.data[i*len(d.varNames)+j]
}

// Set assigns the value at observation i, variable j.
func (d *Dense) Set(i, j int, v float32) {
	d.data[i*len(d.varNames)+j] = v
}

// SetLayer adds or replaces a named layer of the same shape as the payload.
func (d *Dense) SetLayer(name string, values []float32) error {
	if len(values) != len(d.data) {
		return fmt.Errorf("modality: layer %q has %d values, payload has %d", name, len(values), len(d.data))
	}
	if _, ok := d.layers[name]; !ok {
		d.lnames = append(d.lnames, name)
	}
	d.layers[name] = values
	return nil
}

// Layer returns the named layer.
func (d *Dense) Layer(name string) ([]float32, bool) {
	values, ok := d.layers[name]
	return values, ok
}

// LayerNames returns layer names in insertion order.
func (d *Dense) LayerNames() []string {
	return append([]string(nil), d.lnames...)
}

// Obs returns the observation-axis annotation frame.
func (d *Dense) Obs() *annot.Frame {
	return d.obs
}

// Var returns the variable-axis annotation frame.
func (d *Dense) Var() *annot.Frame {
	return d.vars
}

// Filter restricts one axis in place, preserving the relative order of the
// surviving identifiers. Annotation frames are reindexed alongside.
func (d *Dense) Filter(_ context.Context, axis Axis, sel Selector) error {
	switch axis {
	case AxisObs:
		keep, err := sel.Apply(d.obsNames)
		if err != nil {
			return err
		}
		d.filterObs(keep)
	case AxisVar:
		keep, err := sel.Apply(d.varNames)
		if err != nil {
			return err
		}
		d.filterVars(keep)
	default:
		return fmt.Errorf("modality: unknown axis %d", axis)
	}
	return nil
}

func (d *Dense) filterObs(keep []int) {
	cols := len(d.varNames)

	names := make([]string, len(keep))
	data := make([]float32, len(keep)*cols)
	for i, j := range keep {
		names[i] = d.obsNames[j]
		copy(data[i*cols:(i+1)*cols], d.data[j*cols:(j+1)*cols])
	}
	for name, layer := range d.layers {
		out := make([]float32, len(keep)*cols)
		for i, j := range keep {
			copy(out[i*cols:(i+1)*cols], layer[j*cols:(j+1)*cols])
		}
		d.layers[name] = out
	}

	d.obsNames = names
	d.data = data
	d.obs.Reindex(keep)
}

func (d *Dense) filterVars(keep []int) {
	oldCols := len(d.varNames)
	rows := len(d.obsNames)

	names := make([]string, len(keep))
	for i, j := range keep {
		names[i] = d.varNames[j]
	}

	project := func(src []float32) []float32 {
		out := make([]float32, rows*len(keep))
		for r := 0; r < rows; r++ {
			for i, j := range keep {
				out[r*len(keep)+i] = src[r*oldCols+j]
			}
		}
		return out
	}

	d.data = project(d.data)
	for name, layer := range d.layers {
		d.layers[name] = project(layer)
	}

	d.varNames = names
	d.vars.Reindex(keep)
}

// WriteTo serializes the modality into its group: eager metadata, the
// compressed payload, and the annotation frames.
func (d *Dense) WriteTo(ctx context.Context, g *blobstore.Group) error {
	var meta bytes.Buffer
	mw := persistence.NewWriter(&meta, persistence.CompressionNone)
	if err := mw.WriteHeader(persistence.KindMeta); err != nil {
		return err
	}
	if err := mw.WriteString(FormatDense); err != nil {
		return err
	}
	if err := mw.WriteStringSlice(d.obsNames); err != nil {
		return err
	}
	if err := mw.WriteStringSlice(d.varNames); err != nil {
		return err
	}
	if err := mw.WriteStringSlice(d.lnames); err != nil {
		return err
	}
	if err := mw.Finish(); err != nil {
		return err
	}
	if err := g.Put(ctx, MetaBlob, meta.Bytes()); err != nil {
		return err
	}

	dataBlob, err := g.Create(ctx, DataBlob)
	if err != nil {
		return err
	}
	dw := persistence.NewWriter(dataBlob, d.compression)
	if err := writeAll(
		func() error { return dw.WriteHeader(persistence.KindDense) },
		func() error { return dw.WriteFloat32Block(d.data) },
		func() error {
			for _, name := range d.lnames {
				if err := dw.WriteFloat32Block(d.layers[name]); err != nil {
					return err
				}
			}
			return nil
		},
		dw.Finish,
	); err != nil {
		_ = dataBlob.Close()
		return err
	}
	if err := dataBlob.Close(); err != nil {
		return err
	}

	var an bytes.Buffer
	aw := persistence.NewWriter(&an, d.compression)
	if err := writeAll(
		func() error { return aw.WriteHeader(persistence.KindAnnot) },
		func() error { return persistence.WriteFrame(aw, d.obs) },
		func() error { return persistence.WriteFrame(aw, d.vars) },
		aw.Finish,
	); err != nil {
		return err
	}
	return g.Put(ctx, AnnotBlob, an.Bytes())
}

func writeAll(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Meta is the eagerly loaded part of a serialized dense modality.
type Meta struct {
	Format     string
	ObsNames   []string
	VarNames   []string
	LayerNames []string
}

// ReadMeta reads the eager metadata blob of a dense modality group.
func ReadMeta(ctx context.Context, g *blobstore.Group) (*Meta, error) {
	raw, err := g.ReadAll(ctx, MetaBlob)
	if err != nil {
		return nil, err
	}
	r, err := persistence.NewReader(raw)
	if err != nil {
		return nil, err
	}
	if err := r.ReadHeader(persistence.KindMeta); err != nil {
		return nil, err
	}

	m := &Meta{}
	if m.Format, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.ObsNames, err = r.ReadStringSlice(); err != nil {
		return nil, err
	}
	if m.VarNames, err = r.ReadStringSlice(); err != nil {
		return nil, err
	}
	if m.LayerNames, err = r.ReadStringSlice(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadDense fully materializes a dense modality from its group.
func ReadDense(ctx context.Context, g *blobstore.Group) (*Dense, error) {
	meta, err := ReadMeta(ctx, g)
	if err != nil {
		return nil, err
	}

	d, err := NewDense(meta.ObsNames, meta.VarNames, nil)
	if err != nil {
		return nil, err
	}

	raw, err := g.ReadAll(ctx, DataBlob)
	if err != nil {
		return nil, err
	}
	dr, err := persistence.NewReader(raw)
	if err != nil {
		return nil, err
	}
	if err := dr.ReadHeader(persistence.KindDense); err != nil {
		return nil, err
	}
	data, err := dr.ReadFloat32Block()
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = make([]float32, 0)
	}
	if len(data) != len(meta.ObsNames)*len(meta.VarNames) {
		return nil, fmt.Errorf("modality: payload has %d values, expected %d", len(data), len(meta.ObsNames)*len(meta.VarNames))
	}
	d.data = data
	for _, name := range meta.LayerNames {
		layer, err := dr.ReadFloat32Block()
		if err != nil {
			return nil, err
		}
		if err := d.SetLayer(name, layer); err != nil {
			return nil, err
		}
	}

	annots, err := g.ReadAll(ctx, AnnotBlob)
	if err != nil {
		return nil, err
	}
	ar, err := persistence.NewReader(annots)
	if err != nil {
		return nil, err
	}
	if err := ar.ReadHeader(persistence.KindAnnot); err != nil {
		return nil, err
	}
	if d.obs, err = persistence.ReadFrame(ar); err != nil {
		return nil, err
	}
	if d.vars, err = persistence.ReadFrame(ar); err != nil {
		return nil, err
	}

	return d, nil
}
