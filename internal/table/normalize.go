package table

import (
	"fmt"
	"strings"
)

// Options selects how a raw table is cut into canonical rows.
type Options struct {
	Category Category
	// Playoffs only tells the caller which source table to fetch; it has no
	// effect on normalization.
	Playoffs bool
	// CareerOnly keeps the rows the source places after the career aggregate
	// instead of the season rows before it.
	CareerOnly bool
}

var columnRenames = map[string]string{
	"Season": ColSeason,
	"Age":    ColAge,
	"Tm":     ColTeam,
	"Lg":     ColLeague,
	"Pos":    ColPos,
	"Awards": ColAwards,
}

// Positional duplicates that carry a percentage. The first occurrence of a
// repeated label is the count column.
var percentRenames = map[string]string{
	"FG.1": "FG%",
	"FT.1": "FT%",
	"eFG":  "eFG%",
}

// Games and minutes duplicate the primary tables and are dropped from advanced.
var advancedDrops = map[string]bool{"G": true, "MP": true}

// Normalizer repairs tables extracted from basketball-reference player pages.
// The zero value is ready to use and safe for concurrent use.
type Normalizer struct{}

// Normalize implements the canonical cut of raw. It never fails; an empty raw
// table yields an empty table.
func (Normalizer) Normalize(raw Table, opts Options) Table {
	return Normalize(raw, opts)
}

// Career returns the career aggregate row of raw with the same column
// vocabulary Normalize produces for opts.
func (Normalizer) Career(raw Table, opts Options) (Row, bool) {
	return Career(raw, opts)
}

// Split normalizes raw once and returns both the season rows and the career
// aggregate row. It is Normalize and Career in a single pass.
func (Normalizer) Split(raw Table, opts Options) (Table, Row, bool) {
	return normalize(raw, opts)
}

// Normalize is the function form of Normalizer.Normalize.
func Normalize(raw Table, opts Options) Table {
	seasons, _, _ := normalize(raw, opts)
	return seasons
}

// Career is the function form of Normalizer.Career.
func Career(raw Table, opts Options) (Row, bool) {
	_, career, ok := normalize(raw, opts)
	return career, ok
}

// RenameColumns applies the fixed label mapping. It is idempotent.
func RenameColumns(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		if renamed, ok := columnRenames[c]; ok {
			c = renamed
		}
		out[i] = c
	}
	return out
}

// Disambiguate suffixes repeated labels with their occurrence number ("FG",
// "FG.1", ...) and renames the positional percentage duplicates.
func Disambiguate(columns []string) []string {
	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, c := range columns {
		n := seen[c]
		seen[c] = n + 1
		if n > 0 {
			c = fmt.Sprintf("%s.%d", c, n)
		}
		if renamed, ok := percentRenames[c]; ok {
			c = renamed
		}
		out[i] = c
	}
	return out
}

func normalize(raw Table, opts Options) (Table, Row, bool) {
	columns := Disambiguate(RenameColumns(raw.Columns))

	rows := raw.Rows
	index := make([]int, len(rows))
	for i := range rows {
		index[i] = raw.indexAt(i)
	}

	var careerCells []Cell
	if k := careerIndex(columns, rows); k >= 0 {
		careerCells = rows[k]
		if opts.CareerOnly {
			start := min(k+2, len(rows))
			rows, index = rows[start:], index[start:]
		} else {
			rows, index = rows[:k], index[:k]
		}
	}

	// A blank cell in the first remaining row marks a percentage column whose
	// header the source leaves unlabeled.
	if len(rows) > 0 {
		first := rows[0]
		for j := range columns {
			if j < len(first) && !first[j].Valid {
				columns[j] = strings.ToUpper(columns[j]) + "%"
			}
		}
	}

	keep := make([]int, 0, len(columns))
	for j, c := range columns {
		if opts.Category == Advanced && advancedDrops[c] {
			continue
		}
		keep = append(keep, j)
	}

	out := Table{Columns: project(columns, keep)}
	for i, row := range rows {
		out.Rows = append(out.Rows, projectCells(row, keep))
		if opts.CareerOnly {
			out.Index = append(out.Index, index[i])
		} else {
			out.Index = append(out.Index, i)
		}
	}

	if careerCells == nil {
		return out, Row{}, false
	}
	return out, Row{columns: out.Columns, cells: projectCells(careerCells, keep)}, true
}

func careerIndex(columns []string, rows [][]Cell) int {
	season := -1
	for j, c := range columns {
		if c == ColSeason {
			season = j
			break
		}
	}
	if season < 0 {
		return -1
	}
	for i, row := range rows {
		if season < len(row) && row[season].Valid && row[season].Text == CareerLabel {
			return i
		}
	}
	return -1
}

func project(columns []string, keep []int) []string {
	out := make([]string, len(keep))
	for i, j := range keep {
		out[i] = columns[j]
	}
	return out
}

func projectCells(row []Cell, keep []int) []Cell {
	out := make([]Cell, len(keep))
	for i, j := range keep {
		if j < len(row) {
			out[i] = row[j]
		}
	}
	return out
}
