package persistence

import (
	"fmt"

	"github.com/hupe1980/mudgo/annot"
)

// WriteFrame encodes an annotation frame (table, embedding matrices,
// pairwise matrices) into an open section.
func WriteFrame(w *Writer, f *annot.Frame) error {
	table := f.Table()
	if err := w.WriteUint32(uint32(table.Len())); err != nil {
		return err
	}

	names := table.ColumnNames()
	if err := w.WriteStringSlice(names); err != nil {
		return err
	}
	for _, name := range names {
		col, _ := table.Column(name)
		if err := w.WriteUint32(uint32(col.Type())); err != nil {
			return err
		}
		var err error
		switch col.Type() {
		case annot.ColumnTypeString:
			err = w.WriteStringSlice(col.StringValues())
		case annot.ColumnTypeInt:
			err = w.WriteInt64Block(col.IntValues())
		case annot.ColumnTypeFloat:
			err = w.WriteFloat64Block(col.FloatValues())
		case annot.ColumnTypeBool:
			err = w.WriteBoolBlock(col.BoolValues())
		}
		if err != nil {
			return err
		}
	}

	writeMatrices := func(names []string, get func(string) (*annot.Matrix, bool)) error {
		if err := w.WriteStringSlice(names); err != nil {
			return err
		}
		for _, name := range names {
			m, _ := get(name)
			if err := w.WriteUint32(uint32(m.Rows)); err != nil {
				return err
			}
			if err := w.WriteUint32(uint32(m.Cols)); err != nil {
				return err
			}
			if err := w.WriteFloat32Block(m.Data); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeMatrices(f.MatrixNames(), f.Matrix); err != nil {
		return err
	}
	return writeMatrices(f.PairwiseNames(), f.Pairwise)
}

// ReadFrame decodes a frame written by WriteFrame.
func ReadFrame(r *Reader) (*annot.Frame, error) {
	length, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	f := annot.NewFrame(int(length))

	names, err := r.ReadStringSlice()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		typ, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		var col *annot.Column
		switch annot.ColumnType(typ) {
		case annot.ColumnTypeString:
			values, err := r.ReadStringSlice()
			if err != nil {
				return nil, err
			}
			if values == nil {
				values = []string{}
			}
			col = annot.Strings(values)
		case annot.ColumnTypeInt:
			values, err := r.ReadInt64Block()
			if err != nil {
				return nil, err
			}
			if values == nil {
				values = []int64{}
			}
			col = annot.Ints(values)
		case annot.ColumnTypeFloat:
			values, err := r.ReadFloat64Block()
			if err != nil {
				return nil, err
			}
			if values == nil {
				values = []float64{}
			}
			col = annot.Floats(values)
		case annot.ColumnTypeBool:
			values, err := r.ReadBoolBlock()
			if err != nil {
				return nil, err
			}
			if values == nil {
				values = []bool{}
			}
			col = annot.Bools(values)
		default:
			return nil, fmt.Errorf("persistence: unknown column type %d", typ)
		}
		if err := f.Table().SetColumn(name, col); err != nil {
			return nil, err
		}
	}

	readMatrices := func(set func(string, *annot.Matrix) error) error {
		names, err := r.ReadStringSlice()
		if err != nil {
			return err
		}
		for _, name := range names {
			rows, err := r.ReadUint32()
			if err != nil {
				return err
			}
			cols, err := r.ReadUint32()
			if err != nil {
				return err
			}
			data, err := r.ReadFloat32Block()
			if err != nil {
				return err
			}
			if len(data) != int(rows)*int(cols) {
				return fmt.Errorf("persistence: matrix %q has %d values, shape %dx%d needs %d", name, len(data), rows, cols, int(rows)*int(cols))
			}
			m := &annot.Matrix{Rows: int(rows), Cols: int(cols), Data: data}
			if m.Data == nil {
				m.Data = make([]float32, 0)
			}
			if err := set(name, m); err != nil {
				return err
			}
		}
		return nil
	}

	if err := readMatrices(f.SetMatrix); err != nil {
		return nil, err
	}
	if err := readMatrices(f.SetPairwise); err != nil {
		return nil, err
	}
	return f, nil
}
