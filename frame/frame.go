// Package frame implements the ordered columnar container the pipeline is
// built on: named columns, ordered rows, typed scalar cells. All transforms
// return new frames; nothing mutates its receiver.
package frame

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn reports a column required by an operation that is
	// absent from the frame. For join keys this is fatal to the load.
	ErrMissingColumn = errors.New("column not found")
	// ErrColumnExists reports an attempt to create a column that already
	// exists without requesting overwrite.
	ErrColumnExists = errors.New("column already exists")
	// ErrBadReplacement reports a replacement frame that violates the
	// ReplaceRows precondition. It signals a programming error in a
	// processor, not a data-quality issue.
	ErrBadReplacement = errors.New("invalid replacement frame")
)

// Frame is an ordered sequence of rows sharing one column set.
type Frame struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New creates an empty frame with the given column names.
func New(cols ...string) *Frame {
	f := &Frame{cols: append([]string(nil), cols...)}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.index[c] = i
	}
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return len(f.rows) }

// HasColumn reports whether the frame carries the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) colIndex(name string) (int, error) {
	i, ok := f.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return i, nil
}

// Value returns the cell at the given row for the named column. It panics on
// an unknown column; callers validate columns up front.
func (f *Frame) Value(row int, col string) Value {
	i, ok := f.index[col]
	if !ok {
		panic(fmt.Sprintf("frame: no column %q", col))
	}
	return f.rows[row][i]
}

// AppendRow adds a row. The number of values must match the column count.
func (f *Frame) AppendRow(vals ...Value) error {
	if len(vals) != len(f.cols) {
		return fmt.Errorf("frame: row has %d values, frame has %d columns", len(vals), len(f.cols))
	}
	f.rows = append(f.rows, append([]Value(nil), vals...))
	return nil
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := New(f.cols...)
	out.rows = make([][]Value, len(f.rows))
	for i, r := range f.rows {
		out.rows[i] = append([]Value(nil), r...)
	}
	return out
}

// Select returns a projection holding exactly the named columns, in the
// given order.
func (f *Frame) Select(cols ...string) (*Frame, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, err := f.colIndex(c)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	out := New(cols...)
	for _, r := range f.rows {
		row := make([]Value, len(idx))
		for i, j := range idx {
			row[i] = r[j]
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// Drop returns a copy without the named columns. Unknown names are ignored,
// mirroring the tolerance of the sources this pipeline consumes.
func (f *Frame) Drop(cols ...string) *Frame {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	var keep []string
	for _, c := range f.cols {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := f.Select(keep...)
	return out
}

// Rename returns a copy with columns renamed according to mapping. Names not
// present in the mapping are kept as-is.
func (f *Frame) Rename(mapping map[string]string) *Frame {
	out := f.Clone()
	for i, c := range out.cols {
		if n, ok := mapping[c]; ok {
			out.cols[i] = n
		}
	}
	out.reindex()
	return out
}

// Row is a read-only view of one row, handed to filters and converters.
type Row struct {
	f   *Frame
	idx int
}

// Value returns the cell for the named column of this row.
func (r Row) Value(col string) Value { return r.f.Value(r.idx, col) }

// Filter returns the rows for which pred is true, preserving order.
func (f *Frame) Filter(pred func(Row) bool) *Frame {
	out := New(f.cols...)
	for i, r := range f.rows {
		if pred(Row{f: f, idx: i}) {
			out.rows = append(out.rows, append([]Value(nil), r...))
		}
	}
	return out
}

// ConvertColumn passes every cell of the named column through conv and
// returns the converted frame.
func (f *Frame) ConvertColumn(col string, conv func(Value) (Value, error)) (*Frame, error) {
	i, err := f.colIndex(col)
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	for _, r := range out.rows {
		v, err := conv(r[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		r[i] = v
	}
	return out, nil
}

// ParseDates converts a string column into dates using the given layout.
func (f *Frame) ParseDates(col string, layout string) (*Frame, error) {
	return f.ConvertColumn(col, func(v Value) (Value, error) {
		if v.Kind() == KindDate || v.IsNull() {
			return v, nil
		}
		return ParseDate(strings.TrimSpace(v.String()), layout)
	})
}

// Concat appends the rows of others to f. All frames must share the same
// column set; columns are matched by name.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return New(), nil
	}
	out := frames[0].Clone()
	for _, f := range frames[1:] {
		idx := make([]int, len(out.cols))
		for i, c := range out.cols {
			j, err := f.colIndex(c)
			if err != nil {
				return nil, err
			}
			idx[i] = j
		}
		if len(f.cols) != len(out.cols) {
			return nil, fmt.Errorf("frame: cannot concat %d columns with %d", len(f.cols), len(out.cols))
		}
		for _, r := range f.rows {
			row := make([]Value, len(idx))
			for i, j := range idx {
				row[i] = r[j]
			}
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}

// UniqueStrings returns the distinct non-null values of a column rendered as
// strings, in first-seen order.
func (f *Frame) UniqueStrings(col string) ([]string, error) {
	i, err := f.colIndex(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range f.rows {
		if r[i].IsNull() {
			continue
		}
		s := r[i].String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// RowKey returns a canonical key for the given row over the named columns,
// usable as a grouping map key. Values that compare Equal yield equal keys.
func (f *Frame) RowKey(row int, cols ...string) (string, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, err := f.colIndex(c)
		if err != nil {
			return "", err
		}
		idx[i] = j
	}
	return f.keyOf(f.rows[row], idx), nil
}

func (f *Frame) keyOf(row []Value, idx []int) string {
	var b strings.Builder
	for n, i := range idx {
		if n > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(row[i].key())
	}
	return b.String()
}
