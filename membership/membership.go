// Package membership implements the per-axis boolean membership matrix:
// rows = global index entries, columns = modalities in registry order.
//
// Columns are Roaring bitmaps over global positions, so a full matrix over
// 10^6 identifiers and a handful of modalities stays small and each
// membership probe is O(1) on the bitmap container level.
package membership

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/mudgo/index"
)

// Source is one modality's axis index used to build a column.
type Source struct {
	Name  string
	Names []string
}

// Matrix is the boolean membership matrix for one axis.
type Matrix struct {
	length  int
	names   []string
	columns []*roaring.Bitmap
	pos     map[string]int
}

// Build constructs the matrix for the given global index. Column order
// follows the order of sources. Entry [i, j] is set iff global name i occurs
// in source j.
func Build(global *index.Index, sources []Source) *Matrix {
	m := &Matrix{
		length: global.Len(),
		names:  make([]string, 0, len(sources)),
		pos:    make(map[string]int, len(sources)),
	}

	for _, src := range sources {
		present := make(map[string]struct{}, len(src.Names))
		for _, name := range src.Names {
			present[name] = struct{}{}
		}

		bits := roaring.New()
		for i := 0; i < global.Len(); i++ {
			if _, ok := present[global.Name(i)]; ok {
				bits.Add(uint32(i))
			}
		}

		m.pos[src.Name] = len(m.columns)
		m.names = append(m.names, src.Name)
		m.columns = append(m.columns, bits)
	}

	return m
}

// Empty returns a matrix with the given length and no columns.
func Empty(length int) *Matrix {
	return &Matrix{length: length, pos: make(map[string]int)}
}

// Len returns the global axis length (row count).
func (m *Matrix) Len() int {
	return m.length
}

// NumColumns returns the number of modality columns.
func (m *Matrix) NumColumns() int {
	return len(m.columns)
}

// ColumnNames returns the modality names in column order.
func (m *Matrix) ColumnNames() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Contains reports whether global entry i is present in column j.
func (m *Matrix) Contains(i, j int) bool {
	return m.columns[j].Contains(uint32(i))
}

// ContainsName reports whether global entry i is present in the named
// modality column.
func (m *Matrix) ContainsName(i int, modality string) bool {
	j, ok := m.pos[modality]
	if !ok {
		return false
	}
	return m.Contains(i, j)
}

// Count returns the number of set entries in column j.
func (m *Matrix) Count(j int) uint64 {
	return m.columns[j].GetCardinality()
}

// CountName returns the number of set entries in the named column, or 0 if
// the column does not exist.
func (m *Matrix) CountName(modality string) uint64 {
	j, ok := m.pos[modality]
	if !ok {
		return 0
	}
	return m.Count(j)
}

// Bools materializes column j as a dense boolean slice of global length.
func (m *Matrix) Bools(j int) []bool {
	out := make([]bool, m.length)
	it := m.columns[j].Iterator()
	for it.HasNext() {
		out[it.Next()] = true
	}
	return out
}

// AppendColumn appends a pre-built column. Used by deserialization.
func (m *Matrix) AppendColumn(name string, bits *roaring.Bitmap) error {
	if _, ok := m.pos[name]; ok {
		return fmt.Errorf("membership: duplicate column %q", name)
	}
	m.pos[name] = len(m.columns)
	m.names = append(m.names, name)
	m.columns = append(m.columns, bits)
	return nil
}

// MarshalColumn returns the portable roaring serialization of column j.
func (m *Matrix) MarshalColumn(j int) ([]byte, error) {
	return m.columns[j].MarshalBinary()
}

// UnmarshalColumn decodes a column serialized with MarshalColumn.
func UnmarshalColumn(data []byte) (*roaring.Bitmap, error) {
	bits := roaring.New()
	if err := bits.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return bits, nil
}

// Equal reports whether two matrices have identical shape, column order and
// set entries.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.length != other.length || len(m.columns) != len(other.columns) {
		return false
	}
	for j := range m.columns {
		if m.names[j] != other.names[j] {
			return false
		}
		if !m.columns[j].Equals(other.columns[j]) {
			return false
		}
	}
	return true
}
