package frame

import "fmt"

// AggMode selects how grouped numeric columns collapse.
type AggMode int

const (
	AggSum AggMode = iota
	AggMean
)

// GroupAggregate groups rows by the key columns and collapses every numeric
// column to one value per group, either summed or averaged. Non-numeric
// columns outside the key set are dropped. Output order is first-seen group
// order. Applying it to an already unique-keyed frame returns an equal frame.
func (f *Frame) GroupAggregate(keys []string, mode AggMode) (*Frame, error) {
	kidx := make([]int, len(keys))
	for i, k := range keys {
		j, err := f.colIndex(k)
		if err != nil {
			return nil, fmt.Errorf("group_aggregate: %w", err)
		}
		kidx[i] = j
	}

	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}
	// A column aggregates if every non-null cell is numeric.
	var vidx []int
	for i, c := range f.cols {
		if keySet[c] {
			continue
		}
		numeric := true
		for _, r := range f.rows {
			if r[i].IsNull() {
				continue
			}
			if _, ok := r[i].Numeric(); !ok {
				numeric = false
				break
			}
		}
		if numeric {
			vidx = append(vidx, i)
		}
	}

	cols := append([]string(nil), keys...)
	for _, i := range vidx {
		cols = append(cols, f.cols[i])
	}

	type group struct {
		key   []Value
		sums  []float64
		count []int
		isInt []bool
	}
	var order []string
	groups := make(map[string]*group)
	for _, r := range f.rows {
		k := f.keyOf(r, kidx)
		g, ok := groups[k]
		if !ok {
			g = &group{
				sums:  make([]float64, len(vidx)),
				count: make([]int, len(vidx)),
				isInt: make([]bool, len(vidx)),
			}
			for _, i := range kidx {
				g.key = append(g.key, r[i])
			}
			for n := range g.isInt {
				g.isInt[n] = true
			}
			groups[k] = g
			order = append(order, k)
		}
		for n, i := range vidx {
			v := r[i]
			if v.IsNull() {
				continue
			}
			num, _ := v.Numeric()
			g.sums[n] += num
			g.count[n]++
			if v.Kind() != KindInt {
				g.isInt[n] = false
			}
		}
	}

	out := New(cols...)
	for _, k := range order {
		g := groups[k]
		row := append([]Value(nil), g.key...)
		for n := range vidx {
			if g.count[n] == 0 {
				row = append(row, Null())
				continue
			}
			switch mode {
			case AggMean:
				row = append(row, Float(g.sums[n]/float64(g.count[n])))
			default:
				if g.isInt[n] {
					row = append(row, Int(int64(g.sums[n])))
				} else {
					row = append(row, Float(g.sums[n]))
				}
			}
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}
