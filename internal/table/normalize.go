package table

import "sort"

// Normalize returns a canonicalized copy of t: columns reordered
// lexicographically by name, rows sorted by the full tuple of column values in
// that column order, and rows re-indexed 0..n-1. NULL sorts before any value.
// Normalize(Normalize(t)) == Normalize(t).
//
// Every value in a table is text, so the row tuple ordering is always total;
// downstream comparison is key-set based and unaffected by row order either way.
func Normalize(t *Table) *Table {
	if t == nil {
		return New()
	}

	cols := append([]string(nil), t.Columns...)
	sort.Strings(cols)

	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Clone()
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return lessTuple(rows[i], rows[j], cols)
	})

	return &Table{Columns: cols, Rows: rows}
}

// lessTuple compares two rows by their value tuple over cols.
func lessTuple(a, b Row, cols []string) bool {
	for _, c := range cols {
		av, bv := a[c], b[c]
		switch {
		case av == nil && bv == nil:
			continue
		case av == nil:
			return true
		case bv == nil:
			return false
		case *av != *bv:
			return *av < *bv
		}
	}
	return false
}
