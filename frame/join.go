package frame

import "fmt"

// join merges left and right on the key columns. Every key column must exist
// on both sides. Matched rows pair up (one output row per left/right
// pairing); unmatched left rows keep nulls for the right-only columns. When
// outer is true, unmatched right rows are retained too, with nulls filling
// the left-only columns.
func join(left, right *Frame, keys []string, outer bool) (*Frame, error) {
	lk := make([]int, len(keys))
	rk := make([]int, len(keys))
	for i, k := range keys {
		var err error
		if lk[i], err = left.colIndex(k); err != nil {
			return nil, fmt.Errorf("join key on left side: %w", err)
		}
		if rk[i], err = right.colIndex(k); err != nil {
			return nil, fmt.Errorf("join key on right side: %w", err)
		}
	}

	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}
	var rightExtra []int
	cols := append([]string(nil), left.cols...)
	for i, c := range right.cols {
		if !keySet[c] {
			rightExtra = append(rightExtra, i)
			cols = append(cols, c)
		}
	}

	byKey := make(map[string][]int, len(right.rows))
	for i, r := range right.rows {
		k := right.keyOf(r, rk)
		byKey[k] = append(byKey[k], i)
	}

	out := New(cols...)
	matched := make([]bool, len(right.rows))
	for _, lr := range left.rows {
		k := left.keyOf(lr, lk)
		rights := byKey[k]
		if len(rights) == 0 {
			row := append([]Value(nil), lr...)
			for range rightExtra {
				row = append(row, Null())
			}
			out.rows = append(out.rows, row)
			continue
		}
		for _, ri := range rights {
			matched[ri] = true
			row := append([]Value(nil), lr...)
			for _, j := range rightExtra {
				row = append(row, right.rows[ri][j])
			}
			out.rows = append(out.rows, row)
		}
	}

	if outer {
		for ri, rr := range right.rows {
			if matched[ri] {
				continue
			}
			row := make([]Value, len(left.cols))
			for i := range row {
				row[i] = Null()
			}
			for i := range keys {
				row[lk[i]] = rr[rk[i]]
			}
			for _, j := range rightExtra {
				row = append(row, rr[j])
			}
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}

// OuterJoin keeps rows unmatched on either side, filling the missing side
// with nulls.
func OuterJoin(left, right *Frame, keys ...string) (*Frame, error) {
	return join(left, right, keys, true)
}

// LeftJoin keeps every left row and drops unmatched right rows.
func LeftJoin(left, right *Frame, keys ...string) (*Frame, error) {
	return join(left, right, keys, false)
}
