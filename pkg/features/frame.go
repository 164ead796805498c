package features

import (
	"fmt"
	"sort"
	"time"
)

// Kind classifies a column's payload type.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
	KindBoolean
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindBoolean:
		return "boolean"
	case KindDatetime:
		return "datetime"
	}
	return "unknown"
}

// Column is one typed column of a Frame. Exactly one payload slice is
// populated according to Kind; Missing marks cells with no stored value.
type Column struct {
	Name    string
	Kind    Kind
	Values  []float64
	Labels  []string
	Bools   []bool
	Times   []time.Time
	Missing []bool
}

// MissingRatio returns the fraction of missing cells in the column.
func (c *Column) MissingRatio() float64 {
	if len(c.Missing) == 0 {
		return 0
	}
	missing := 0
	for _, m := range c.Missing {
		if m {
			missing++
		}
	}
	return float64(missing) / float64(len(c.Missing))
}

// Frame is a rectangular table with a deterministic column order. Column
// order is fixed at construction time and preserved by every pipeline step,
// which is what makes training-time and serving-time vectors line up.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewFrame creates an empty frame with the given row count.
func NewFrame(rows int) *Frame {
	return &Frame{index: make(map[string]int), rows: rows}
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.rows }

// NumColumns returns the number of columns.
func (f *Frame) NumColumns() int { return len(f.columns) }

// ColumnNames returns column names in frame order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or nil if absent.
func (f *Frame) Column(name string) *Column {
	if i, ok := f.index[name]; ok {
		return f.columns[i]
	}
	return nil
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Columns returns the columns in frame order.
func (f *Frame) Columns() []*Column { return f.columns }

// AddColumn appends a column. The payload length must match the frame's
// row count.
func (f *Frame) AddColumn(c *Column) error {
	if _, exists := f.index[c.Name]; exists {
		return fmt.Errorf("column %s already exists", c.Name)
	}
	n := 0
	switch c.Kind {
	case KindNumeric:
		n = len(c.Values)
	case KindCategorical:
		n = len(c.Labels)
	case KindBoolean:
		n = len(c.Bools)
	case KindDatetime:
		n = len(c.Times)
	}
	if n != f.rows {
		return fmt.Errorf("column %s has %d rows, frame has %d", c.Name, n, f.rows)
	}
	if c.Missing == nil {
		c.Missing = make([]bool, f.rows)
	}
	f.index[c.Name] = len(f.columns)
	f.columns = append(f.columns, c)
	return nil
}

// Drop removes the named column, preserving the order of the rest.
func (f *Frame) Drop(name string) {
	i, ok := f.index[name]
	if !ok {
		return
	}
	f.columns = append(f.columns[:i], f.columns[i+1:]...)
	delete(f.index, name)
	for j := i; j < len(f.columns); j++ {
		f.index[f.columns[j].Name] = j
	}
}

// FromRows builds a frame from flat (already flattened) row documents.
// Column order is first-seen order across a forward scan of the rows, so the
// result is deterministic for a given input. A column's kind is inferred
// from its first non-nil value; cells that are absent, nil, or fail coercion
// are marked missing.
func FromRows(rows []map[string]interface{}) *Frame {
	f := NewFrame(len(rows))
	// Map iteration is unordered, so keys within a row are sorted before
	// first-seen ordering is applied across rows.
	var order []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, key := range sortedKeys(row) {
			if !seen[key] {
				seen[key] = true
				order = append(order, key)
			}
		}
	}

	for _, name := range order {
		col := buildColumn(name, rows)
		f.index[name] = len(f.columns)
		f.columns = append(f.columns, col)
	}
	return f
}

func buildColumn(name string, rows []map[string]interface{}) *Column {
	kind := KindNumeric
	for _, row := range rows {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		kind = inferKind(v)
		break
	}

	col := &Column{Name: name, Kind: kind, Missing: make([]bool, len(rows))}
	switch kind {
	case KindNumeric:
		col.Values = make([]float64, len(rows))
	case KindCategorical:
		col.Labels = make([]string, len(rows))
	case KindBoolean:
		col.Bools = make([]bool, len(rows))
	case KindDatetime:
		col.Times = make([]time.Time, len(rows))
	}

	for i, row := range rows {
		v, ok := row[name]
		if !ok || v == nil {
			col.Missing[i] = true
			continue
		}
		switch kind {
		case KindNumeric:
			fv, ok := toFloat(v)
			if !ok {
				col.Missing[i] = true
				continue
			}
			col.Values[i] = fv
		case KindCategorical:
			s, ok := v.(string)
			if !ok {
				col.Missing[i] = true
				continue
			}
			col.Labels[i] = s
		case KindBoolean:
			b, ok := v.(bool)
			if !ok {
				col.Missing[i] = true
				continue
			}
			col.Bools[i] = b
		case KindDatetime:
			ts, ok := v.(time.Time)
			if !ok {
				col.Missing[i] = true
				continue
			}
			col.Times[i] = ts
		}
	}
	return col
}

func sortedKeys(row map[string]interface{}) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func inferKind(v interface{}) Kind {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return KindNumeric
	case bool:
		return KindBoolean
	case string:
		return KindCategorical
	case time.Time:
		return KindDatetime
	}
	return KindCategorical
}

// toFloat coerces the numeric types the mongo driver produces.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
