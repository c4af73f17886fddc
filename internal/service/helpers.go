package service

import (
	"github.com/fortuna/vesta/internal/ingest/bbref"
	"github.com/fortuna/vesta/internal/table"
)

// careerRecord returns the career row as a record, or an empty record.
func careerRecord(ds *bbref.Dataset) map[string]any {
	if !ds.HasCareer {
		return map[string]any{}
	}
	return ds.Career.Record()
}

// argMax finds the first row holding the largest numeric value of col among
// the rows accepted by keep. Rows whose value does not coerce are skipped.
func argMax(t table.Table, col string, keep func(table.Row) bool) (int, float64, bool) {
	best, bestVal, found := -1, 0.0, false
	for i := range t.Rows {
		row := t.Row(i)
		if keep != nil && !keep(row) {
			continue
		}
		v, ok := row.Float(col)
		if !ok {
			continue
		}
		if !found || v > bestVal {
			best, bestVal, found = i, v, true
		}
	}
	return best, bestVal, found
}

// minAttempts keeps rows whose attempts column exceeds floor.
func minAttempts(col string, floor float64) func(table.Row) bool {
	return func(r table.Row) bool {
		v, ok := r.Float(col)
		return ok && v > floor
	}
}

// valueOr returns the cell under col, or def when the column is absent.
func valueOr(row table.Row, col string, def any) any {
	c, ok := row.Get(col)
	if !ok {
		return def
	}
	return c.Any()
}

// countWhere counts rows accepted by keep.
func countWhere(t table.Table, keep func(table.Row) bool) int {
	n := 0
	for i := range t.Rows {
		if keep(t.Row(i)) {
			n++
		}
	}
	return n
}

// deltas compares numeric columns of two rows. Columns missing or
// non-numeric on either side are left out.
func deltas(a, b table.Row, cols []string, build func(va, vb float64) map[string]any) map[string]any {
	out := map[string]any{}
	for _, col := range cols {
		va, okA := a.Float(col)
		vb, okB := b.Float(col)
		if !okA || !okB {
			continue
		}
		out[col] = build(va, vb)
	}
	return out
}
