// Package table holds the tabular model scraped from basketball-reference and
// the normalizer that turns a raw extract into canonical season rows.
package table

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Canonical column names shared by every category.
const (
	ColSeason = "SEASON"
	ColAge    = "AGE"
	ColTeam   = "TEAM"
	ColLeague = "LEAGUE"
	ColPos    = "POS"
	ColAwards = "AWARDS"

	// CareerLabel is the SEASON value of the career aggregate row.
	CareerLabel = "Career"
)

var seasonLabelPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Cell is a single table value. Valid is false when the source cell was empty.
type Cell struct {
	Text  string
	Valid bool
}

// Value builds a present cell.
func Value(text string) Cell {
	return Cell{Text: text, Valid: true}
}

// Missing builds an empty cell.
func Missing() Cell {
	return Cell{}
}

// Float coerces the cell to a number. ok is false for missing or non-numeric text.
func (c Cell) Float() (float64, bool) {
	if !c.Valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Any returns the JSON-friendly form of the cell: nil, float64 or string.
func (c Cell) Any() any {
	if !c.Valid {
		return nil
	}
	if f, ok := c.Float(); ok {
		return f
	}
	return c.Text
}

// Table is an ordered set of rows aligned to Columns. Raw tables may repeat a
// column label; canonical tables never do. Index carries the row positions the
// rows had in the table they were cut from.
type Table struct {
	Columns []string
	Rows    [][]Cell
	Index   []int
}

// New builds a table with a dense index. Short rows are padded with missing cells.
func New(columns []string, rows [][]Cell) Table {
	t := Table{Columns: append([]string(nil), columns...)}
	for i, row := range rows {
		t.Rows = append(t.Rows, pad(row, len(columns)))
		t.Index = append(t.Index, i)
	}
	return t
}

func pad(row []Cell, width int) []Cell {
	out := make([]Cell, width)
	copy(out, row)
	return out
}

// Len reports the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// ColumnIndex returns the position of the first column named name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column named name exists.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Row returns row i as a name-addressable view.
func (t Table) Row(i int) Row {
	return Row{columns: t.Columns, cells: t.Rows[i]}
}

// Season returns the SEASON value of row i, or "" when there is no such column.
func (t Table) Season(i int) string {
	idx := t.ColumnIndex(ColSeason)
	if idx < 0 || !t.Rows[i][idx].Valid {
		return ""
	}
	return t.Rows[i][idx].Text
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Index:   append([]int(nil), t.Index...),
		Rows:    make([][]Cell, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]Cell(nil), row...)
	}
	return out
}

// Filter keeps the rows for which keep returns true. Index entries follow their rows.
func (t Table) Filter(keep func(Row) bool) Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	for i := range t.Rows {
		if keep(t.Row(i)) {
			out.Rows = append(out.Rows, append([]Cell(nil), t.Rows[i]...))
			out.Index = append(out.Index, t.indexAt(i))
		}
	}
	return out
}

// WhereSeason keeps rows whose SEASON equals label.
func (t Table) WhereSeason(label string) Table {
	return t.Filter(func(r Row) bool { return r.String(ColSeason) == label })
}

// Records converts the table into JSON-friendly rows.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for i := range t.Rows {
		out = append(out, t.Row(i).Record())
	}
	return out
}

func (t Table) indexAt(i int) int {
	if i < len(t.Index) {
		return t.Index[i]
	}
	return i
}

// Row is a read-only view of one table row.
type Row struct {
	columns []string
	cells   []Cell
}

// Get returns the cell under name. ok is false when the column does not exist.
func (r Row) Get(name string) (Cell, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.cells[i], true
		}
	}
	return Cell{}, false
}

// String returns the text under name, or "" when absent or missing.
func (r Row) String(name string) string {
	c, ok := r.Get(name)
	if !ok || !c.Valid {
		return ""
	}
	return c.Text
}

// Float returns the numeric value under name.
func (r Row) Float(name string) (float64, bool) {
	c, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	return c.Float()
}

// Record converts the row into a JSON-friendly map.
func (r Row) Record() map[string]any {
	rec := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		rec[c] = r.cells[i].Any()
	}
	return rec
}

// SeasonLabel renders the season ending in year as "YYYY-YY" (2023 -> "2022-23").
func SeasonLabel(year int) string {
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}

// IsSeasonLabel reports whether s is a "YYYY-YY" season label.
func IsSeasonLabel(s string) bool {
	return seasonLabelPattern.MatchString(s)
}
