package entity

import (
	"fmt"
	"strconv"
	"time"
)

// ColumnKey is the hierarchical column identifier of a wide table: a field
// name paired with a zone id. Zone 0 means the column is zoneless (calendar
// fields, or an already-flattened column).
type ColumnKey struct {
	Field string
	Zone  int
}

// String renders the flattened form of the key: "field_zone", or just
// "field" when the key is zoneless (no trailing separator).
func (k ColumnKey) String() string {
	if k.Zone == 0 {
		return k.Field
	}
	return k.Field + "_" + strconv.Itoa(k.Zone)
}

// ColumnKind discriminates the value storage of a Column.
type ColumnKind int

const (
	// ColumnFloat stores float64 values (measurements, rolling means).
	ColumnFloat ColumnKind = iota
	// ColumnInt stores int64 values (calendar fields).
	ColumnInt
	// ColumnString stores string values (the retained ID field).
	ColumnString
)

// Column is one column of a wide table. Exactly one of the value slices is
// populated, selected by Kind; the others stay nil.
type Column struct {
	Key     ColumnKey
	Kind    ColumnKind
	Floats  []float64
	Ints    []int64
	Strings []string
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case ColumnInt:
		return len(c.Ints)
	case ColumnString:
		return len(c.Strings)
	default:
		return len(c.Floats)
	}
}

// Value returns the value at row i as an interface{}, typed per Kind.
func (c *Column) Value(i int) interface{} {
	switch c.Kind {
	case ColumnInt:
		return c.Ints[i]
	case ColumnString:
		return c.Strings[i]
	default:
		return c.Floats[i]
	}
}

// WideTable is the pivoted, one-row-per-timestamp table. Columns are kept in
// a deterministic order; Timestamps carries the (ascending) row order even
// after the raw timestamp is dropped from the column schema.
type WideTable struct {
	Timestamps []time.Time
	Columns    []*Column
}

// FlatTable is a WideTable whose column keys are all zoneless, i.e. the
// hierarchical (field, zone) keys have been joined into flat string names.
// Produced by reshape.Flatten for output formats without hierarchical
// headers.
type FlatTable = WideTable

// NumRows returns the number of rows in the table.
func (t *WideTable) NumRows() int {
	return len(t.Timestamps)
}

// Column returns the column with the given key, or nil if absent.
func (t *WideTable) Column(key ColumnKey) *Column {
	for _, c := range t.Columns {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// AddColumn appends a column to the table. It panics if the column length
// disagrees with the row count; table construction is a programming error
// domain, not an input error domain.
func (t *WideTable) AddColumn(c *Column) {
	if c.Len() != t.NumRows() {
		panic(fmt.Sprintf("column %s has %d values for %d rows", c.Key, c.Len(), t.NumRows()))
	}
	t.Columns = append(t.Columns, c)
}

// ColumnNames returns the flattened names of all columns, in column order.
func (t *WideTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Key.String()
	}
	return names
}
