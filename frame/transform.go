package frame

import "fmt"

// FillRequired renames columns according to rename, then returns a projection
// of exactly the required columns, synthesizing an all-null column for every
// name the source did not carry. The result always exposes the full expected
// schema no matter which optional columns the source included.
func (f *Frame) FillRequired(required []string, rename map[string]string) *Frame {
	src := f
	if len(rename) > 0 {
		src = f.Rename(rename)
	}
	out := New(required...)
	idx := make([]int, len(required))
	for i, c := range required {
		if j, ok := src.index[c]; ok {
			idx[i] = j
		} else {
			idx[i] = -1
		}
	}
	for _, r := range src.rows {
		row := make([]Value, len(required))
		for i, j := range idx {
			if j < 0 {
				row[i] = Null()
			} else {
				row[i] = r[j]
			}
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// SubtractPrevious computes out[i] = value[i] - value[i-1] within each group,
// in existing row order; callers are expected to have sorted by date. The
// first row of each group has no lag and yields null. Negative differences
// are clamped to zero: cumulative counters in the wild occasionally regress,
// and the policy is to never report a negative increment.
func (f *Frame) SubtractPrevious(valueCol, groupCol, outCol string) (*Frame, error) {
	vi, err := f.colIndex(valueCol)
	if err != nil {
		return nil, fmt.Errorf("subtract_previous: %w", err)
	}
	gi, err := f.colIndex(groupCol)
	if err != nil {
		return nil, fmt.Errorf("subtract_previous: %w", err)
	}

	out := f.Clone()
	oi, ok := out.index[outCol]
	if !ok {
		out.cols = append(out.cols, outCol)
		out.reindex()
		oi = out.index[outCol]
		for i, r := range out.rows {
			out.rows[i] = append(r, Null())
		}
	}

	prev := make(map[string]Value)
	for _, r := range out.rows {
		gk := r[gi].key()
		cur := r[vi]
		last, seen := prev[gk]
		prev[gk] = cur
		if !seen || cur.IsNull() || last.IsNull() {
			r[oi] = Null()
			continue
		}
		a, _ := cur.Numeric()
		b, _ := last.Numeric()
		d := a - b
		if d < 0 {
			d = 0
		}
		if cur.Kind() == KindInt && last.Kind() == KindInt {
			r[oi] = Int(int64(d))
		} else {
			r[oi] = Float(d)
		}
	}
	return out, nil
}

// ReplaceRows substitutes every row where col equals value with the rows of
// replacement. Every replacement row must itself carry value in col, and the
// replacement must have one row per replaced row; anything else is a caller
// error, never a silent partial replace.
func (f *Frame) ReplaceRows(col string, value Value, replacement *Frame) (*Frame, error) {
	ci, err := f.colIndex(col)
	if err != nil {
		return nil, fmt.Errorf("replace_rows: %w", err)
	}
	ri, err := replacement.colIndex(col)
	if err != nil {
		return nil, fmt.Errorf("replace_rows: replacement: %w", err)
	}
	for _, r := range replacement.rows {
		if !r[ri].Equal(value) {
			return nil, fmt.Errorf("%w: row with %s=%q differs from %q",
				ErrBadReplacement, col, r[ri].String(), value.String())
		}
	}

	idx := make([]int, len(f.cols))
	for i, c := range f.cols {
		j, err := replacement.colIndex(c)
		if err != nil {
			return nil, fmt.Errorf("replace_rows: replacement: %w", err)
		}
		idx[i] = j
	}

	var targets []int
	for i, r := range f.rows {
		if r[ci].Equal(value) {
			targets = append(targets, i)
		}
	}
	if len(targets) != replacement.NumRows() {
		return nil, fmt.Errorf("%w: %d rows to replace, %d replacement rows",
			ErrBadReplacement, len(targets), replacement.NumRows())
	}

	out := f.Clone()
	for n, t := range targets {
		row := make([]Value, len(out.cols))
		for i, j := range idx {
			row[i] = replacement.rows[n][j]
		}
		out.rows[t] = row
	}
	return out, nil
}

// CreateColumn adds a column filled with a constant value. It fails if the
// column exists and overwrite is false.
func (f *Frame) CreateColumn(name string, fill Value, overwrite bool) (*Frame, error) {
	return f.CreateColumnFunc(name, func(fr *Frame) ([]Value, error) {
		vals := make([]Value, fr.NumRows())
		for i := range vals {
			vals[i] = fill
		}
		return vals, nil
	}, overwrite)
}

// CreateColumnFunc adds a column computed once by producer, which receives
// the frame and must return one value per row.
func (f *Frame) CreateColumnFunc(name string, producer func(*Frame) ([]Value, error), overwrite bool) (*Frame, error) {
	if f.HasColumn(name) && !overwrite {
		return nil, fmt.Errorf("%w: %q", ErrColumnExists, name)
	}
	vals, err := producer(f)
	if err != nil {
		return nil, fmt.Errorf("create_column %q: %w", name, err)
	}
	if len(vals) != f.NumRows() {
		return nil, fmt.Errorf("create_column %q: producer returned %d values for %d rows",
			name, len(vals), f.NumRows())
	}
	out := f.Clone()
	if i, ok := out.index[name]; ok {
		for n, r := range out.rows {
			r[i] = vals[n]
		}
		return out, nil
	}
	out.cols = append(out.cols, name)
	out.reindex()
	for n, r := range out.rows {
		out.rows[n] = append(r, vals[n])
	}
	return out, nil
}

// Melt reshapes a wide frame into long form: one output row per
// (idVars, valueVar) pair, with the source column name under varName and the
// cell under valueName. This is how the one-row-per-location, date-per-column
// primary series becomes one row per (location, date).
func (f *Frame) Melt(idVars, valueVars []string, varName, valueName string) (*Frame, error) {
	idIdx := make([]int, len(idVars))
	for i, c := range idVars {
		j, err := f.colIndex(c)
		if err != nil {
			return nil, fmt.Errorf("melt: %w", err)
		}
		idIdx[i] = j
	}
	valIdx := make([]int, len(valueVars))
	for i, c := range valueVars {
		j, err := f.colIndex(c)
		if err != nil {
			return nil, fmt.Errorf("melt: %w", err)
		}
		valIdx[i] = j
	}

	cols := append(append([]string(nil), idVars...), varName, valueName)
	out := New(cols...)
	for _, r := range f.rows {
		for i, j := range valIdx {
			row := make([]Value, 0, len(cols))
			for _, k := range idIdx {
				row = append(row, r[k])
			}
			row = append(row, String(valueVars[i]), r[j])
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}

// DropDuplicates keeps one row per distinct key tuple. When keepLast is true
// the last-seen row wins, otherwise the first.
func (f *Frame) DropDuplicates(keys []string, keepLast bool) (*Frame, error) {
	kidx := make([]int, len(keys))
	for i, k := range keys {
		j, err := f.colIndex(k)
		if err != nil {
			return nil, fmt.Errorf("drop_duplicates: %w", err)
		}
		kidx[i] = j
	}
	chosen := make(map[string]int)
	var order []string
	for i, r := range f.rows {
		k := f.keyOf(r, kidx)
		if _, ok := chosen[k]; !ok {
			order = append(order, k)
			chosen[k] = i
		} else if keepLast {
			chosen[k] = i
		}
	}
	out := New(f.cols...)
	for _, k := range order {
		out.rows = append(out.rows, append([]Value(nil), f.rows[chosen[k]]...))
	}
	return out, nil
}
