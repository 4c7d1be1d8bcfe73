package annot

import "math"

// ColumnType identifies the element type of a Column.
type ColumnType uint8

const (
	// ColumnTypeString holds string values.
	ColumnTypeString ColumnType = iota
	// ColumnTypeInt holds int64 values.
	ColumnTypeInt
	// ColumnTypeFloat holds float64 values.
	ColumnTypeFloat
	// ColumnTypeBool holds bool values.
	ColumnTypeBool
)

// String returns a human-readable type name.
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "String"
	case ColumnTypeInt:
		return "Int"
	case ColumnTypeFloat:
		return "Float"
	case ColumnTypeBool:
		return "Bool"
	default:
		return "Unknown"
	}
}

// Column is a typed annotation column. Exactly one of the value slices is
// populated, matching the column type.
type Column struct {
	typ     ColumnType
	strings []string
	ints    []int64
	floats  []float64
	bools   []bool
}

// Strings creates a string column.
func Strings(values []string) *Column {
	return &Column{typ: ColumnTypeString, strings: values}
}

// Ints creates an int64 column.
func Ints(values []int64) *Column {
	return &Column{typ: ColumnTypeInt, ints: values}
}

// Floats creates a float64 column.
func Floats(values []float64) *Column {
	return &Column{typ: ColumnTypeFloat, floats: values}
}

// Bools creates a bool column.
func Bools(values []bool) *Column {
	return &Column{typ: ColumnTypeBool, bools: values}
}

// Type returns the column type.
func (c *Column) Type() ColumnType {
	return c.typ
}

// Len returns the number of entries.
func (c *Column) Len() int {
	switch c.typ {
	case ColumnTypeString:
		return len(c.strings)
	case ColumnTypeInt:
		return len(c.ints)
	case ColumnTypeFloat:
		return len(c.floats)
	case ColumnTypeBool:
		return len(c.bools)
	default:
		return 0
	}
}

// StringValues returns the backing slice of a string column (nil otherwise).
func (c *Column) StringValues() []string { return c.strings }

// IntValues returns the backing slice of an int column (nil otherwise).
func (c *Column) IntValues() []int64 { return c.ints }

// FloatValues returns the backing slice of a float column (nil otherwise).
func (c *Column) FloatValues() []float64 { return c.floats }

// BoolValues returns the backing slice of a bool column (nil otherwise).
func (c *Column) BoolValues() []bool { return c.bools }

// reindex builds a new column where entry i comes from position mapping[i]
// of the old column. mapping[i] < 0 yields the missing value for the type:
// "", 0, NaN, false.
func (c *Column) reindex(mapping []int) *Column {
	out := &Column{typ: c.typ}
	switch c.typ {
	case ColumnTypeString:
		out.strings = make([]string, len(mapping))
		for i, j := range mapping {
			if j >= 0 {
				out.strings[i] = c.strings[j]
			}
		}
	case ColumnTypeInt:
		out.ints = make([]int64, len(mapping))
		for i, j := range mapping {
			if j >= 0 {
				out.ints[i] = c.ints[j]
			}
		}
	case ColumnTypeFloat:
		out.floats = make([]float64, len(mapping))
		for i, j := range mapping {
			if j >= 0 {
				out.floats[i] = c.floats[j]
			} else {
				out.floats[i] = math.NaN()
			}
		}
	case ColumnTypeBool:
		out.bools = make([]bool, len(mapping))
		for i, j := range mapping {
			if j >= 0 {
				out.bools[i] = c.bools[j]
			}
		}
	}
	return out
}

// Equal reports whether two columns have the same type and values.
// Float NaN entries compare equal to each other.
func (c *Column) Equal(other *Column) bool {
	if c.typ != other.typ || c.Len() != other.Len() {
		return false
	}
	switch c.typ {
	case ColumnTypeString:
		for i, v := range c.strings {
			if other.strings[i] != v {
				return false
			}
		}
	case ColumnTypeInt:
		for i, v := range c.ints {
			if other.ints[i] != v {
				return false
			}
		}
	case ColumnTypeFloat:
		for i, v := range c.floats {
			w := other.floats[i]
			if math.IsNaN(v) && math.IsNaN(w) {
				continue
			}
			if v != w {
				return false
			}
		}
	case ColumnTypeBool:
		for i, v := range c.bools {
			if other.bools[i] != v {
				return false
			}
		}
	}
	return true
}
