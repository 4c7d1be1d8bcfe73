// Package annot provides annotation storage keyed by a global axis index:
// typed column tables, embedding matrices (n x k) and pairwise matrices
// (n x n). It is shape-aware but identifier-agnostic; reindexing against a
// new global index is driven by a position mapping computed by the caller.
package annot

import (
	"fmt"
	"math"
)

// Table is an ordered collection of named typed columns of equal length.
type Table struct {
	length int
	names  []string
	cols   map[string]*Column
}

// NewTable creates an empty table for an axis of the given length.
func NewTable(length int) *Table {
	return &Table{length: length, cols: make(map[string]*Column)}
}

// Len returns the row count.
func (t *Table) Len() int {
	return t.length
}

// ColumnNames returns the column names in insertion order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// SetColumn adds or replaces a column. The column length must match the
// table length.
func (t *Table) SetColumn(name string, col *Column) error {
	if col.Len() != t.length {
		return fmt.Errorf("annot: column %q has %d entries, table has %d rows", name, col.Len(), t.length)
	}
	if _, ok := t.cols[name]; !ok {
		t.names = append(t.names, name)
	}
	t.cols[name] = col
	return nil
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	col, ok := t.cols[name]
	return col, ok
}

// DeleteColumn removes the named column if present.
func (t *Table) DeleteColumn(name string) {
	if _, ok := t.cols[name]; !ok {
		return
	}
	delete(t.cols, name)
	for i, n := range t.names {
		if n == name {
			t.names = append(t.names[:i], t.names[i+1:]...)
			break
		}
	}
}

// Reindex rewrites every column against a new axis ordering. mapping[i] is
// the old row feeding new row i, or -1 for rows that did not exist before
// (filled with missing values).
func (t *Table) Reindex(mapping []int) {
	for name, col := range t.cols {
		t.cols[name] = col.reindex(mapping)
	}
	t.length = len(mapping)
}

// Equal reports whether two tables have the same columns in the same order
// with equal values.
func (t *Table) Equal(other *Table) bool {
	if t.length != other.length || len(t.names) != len(other.names) {
		return false
	}
	for i, name := range t.names {
		if other.names[i] != name {
			return false
		}
		if !t.cols[name].Equal(other.cols[name]) {
			return false
		}
	}
	return true
}

// Matrix is a dense row-major float32 matrix used for embeddings and
// pairwise relations.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// Set assigns the element at row i, column j.
func (m *Matrix) Set(i, j int, v float32) {
	m.Data[i*m.Cols+j] = v
}

// reindexRows builds a new matrix whose row i comes from old row mapping[i];
// rows mapped from -1 are filled with NaN.
func (m *Matrix) reindexRows(mapping []int) *Matrix {
	out := NewMatrix(len(mapping), m.Cols)
	nan := float32(math.NaN())
	for i, j := range mapping {
		dst := out.Data[i*m.Cols : (i+1)*m.Cols]
		if j < 0 {
			for k := range dst {
				dst[k] = nan
			}
			continue
		}
		copy(dst, m.Data[j*m.Cols:(j+1)*m.Cols])
	}
	return out
}

// reindexPairwise reindexes both dimensions of a square matrix.
func (m *Matrix) reindexPairwise(mapping []int) *Matrix {
	out := NewMatrix(len(mapping), len(mapping))
	nan := float32(math.NaN())
	for i, oi := range mapping {
		for j, oj := range mapping {
			if oi < 0 || oj < 0 {
				out.Data[i*out.Cols+j] = nan
				continue
			}
			out.Data[i*out.Cols+j] = m.Data[oi*m.Cols+oj]
		}
	}
	return out
}

// Equal reports element-wise equality; NaN entries compare equal.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return false
	}
	for i, v := range m.Data {
		w := other.Data[i]
		if math.IsNaN(float64(v)) && math.IsNaN(float64(w)) {
			continue
		}
		if v != w {
			return false
		}
	}
	return true
}

// Frame bundles the per-axis global annotations: a column table, named
// embedding matrices (rows = axis length) and named pairwise matrices
// (square over the axis).
type Frame struct {
	table    *Table
	matrices map[string]*Matrix
	mnames   []string
	pairwise map[string]*Matrix
	pnames   []string
}

// NewFrame creates an empty frame for an axis of the given length.
func NewFrame(length int) *Frame {
	return &Frame{
		table:    NewTable(length),
		matrices: make(map[string]*Matrix),
		pairwise: make(map[string]*Matrix),
	}
}

// Len returns the axis length the frame is keyed by.
func (f *Frame) Len() int {
	return f.table.length
}

// Table returns the column table.
func (f *Frame) Table() *Table {
	return f.table
}

// SetMatrix adds or replaces a named embedding matrix. Row count must match
// the axis length.
func (f *Frame) SetMatrix(name string, m *Matrix) error {
	if m.Rows != f.table.length {
		return fmt.Errorf("annot: matrix %q has %d rows, axis has %d", name, m.Rows, f.table.length)
	}
	if _, ok := f.matrices[name]; !ok {
		f.mnames = append(f.mnames, name)
	}
	f.matrices[name] = m
	return nil
}

// Matrix returns the named embedding matrix.
func (f *Frame) Matrix(name string) (*Matrix, bool) {
	m, ok := f.matrices[name]
	return m, ok
}

// MatrixNames returns embedding matrix names in insertion order.
func (f *Frame) MatrixNames() []string {
	out := make([]string, len(f.mnames))
	copy(out, f.mnames)
	return out
}

// SetPairwise adds or replaces a named pairwise matrix. It must be square
// over the axis length.
func (f *Frame) SetPairwise(name string, m *Matrix) error {
	if m.Rows != f.table.length || m.Cols != f.table.length {
		return fmt.Errorf("annot: pairwise %q is %dx%d, axis has %d", name, m.Rows, m.Cols, f.table.length)
	}
	if _, ok := f.pairwise[name]; !ok {
		f.pnames = append(f.pnames, name)
	}
	f.pairwise[name] = m
	return nil
}

// Pairwise returns the named pairwise matrix.
func (f *Frame) Pairwise(name string) (*Matrix, bool) {
	m, ok := f.pairwise[name]
	return m, ok
}

// PairwiseNames returns pairwise matrix names in insertion order.
func (f *Frame) PairwiseNames() []string {
	out := make([]string, len(f.pnames))
	copy(out, f.pnames)
	return out
}

// Reindex rewrites the whole frame against a new axis ordering. mapping[i]
// is the old position feeding new position i, or -1 for identifiers that are
// new to the axis.
func (f *Frame) Reindex(mapping []int) {
	f.table.Reindex(mapping)
	for name, m := range f.matrices {
		f.matrices[name] = m.reindexRows(mapping)
	}
	for name, m := range f.pairwise {
		f.pairwise[name] = m.reindexPairwise(mapping)
	}
}

// Equal reports deep equality of tables and matrices.
func (f *Frame) Equal(other *Frame) bool {
	if !f.table.Equal(other.table) {
		return false
	}
	if len(f.mnames) != len(other.mnames) || len(f.pnames) != len(other.pnames) {
		return false
	}
	for i, name := range f.mnames {
		if other.mnames[i] != name || !f.matrices[name].Equal(other.matrices[name]) {
			return false
		}
	}
	for i, name := range f.pnames {
		if other.pnames[i] != name || !f.pairwise[name].Equal(other.pairwise[name]) {
			return false
		}
	}
	return true
}
