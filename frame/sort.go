package frame

import "sort"

// rowSorter orders rows lexicographically over a set of key columns.
type rowSorter struct {
	rows [][]Value
	keys []int
}

func (s *rowSorter) Len() int      { return len(s.rows) }
func (s *rowSorter) Swap(i, j int) { s.rows[i], s.rows[j] = s.rows[j], s.rows[i] }

func (s *rowSorter) Less(i, j int) bool {
	for _, k := range s.keys {
		a, b := s.rows[i][k], s.rows[j][k]
		if a.Less(b) {
			return true
		}
		if b.Less(a) {
			return false
		}
	}
	return false
}

// Sort returns a copy sorted ascending by the given key columns. The sort is
// stable so ties keep their existing order.
func (f *Frame) Sort(keys ...string) (*Frame, error) {
	idx := make([]int, len(keys))
	for i, k := range keys {
		j, err := f.colIndex(k)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	out := f.Clone()
	sort.Stable(&rowSorter{rows: out.rows, keys: idx})
	return out, nil
}
