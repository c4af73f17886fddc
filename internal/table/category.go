package table

import (
	"fmt"
	"strings"
)

// Category is the statistical basis of a table.
type Category string

const (
	PerGame       Category = "PER_GAME"
	Totals        Category = "TOTALS"
	PerMinute     Category = "PER_MINUTE"
	PerPossession Category = "PER_POSS"
	Advanced      Category = "ADVANCED"
)

// Categories lists every supported category in display order.
var Categories = []Category{PerGame, Totals, PerMinute, PerPossession, Advanced}

var tableIDs = map[Category]string{
	PerGame:       "per_game_stats",
	Totals:        "totals_stats",
	PerMinute:     "per_minute_stats",
	PerPossession: "per_poss_stats",
	Advanced:      "advanced",
}

// ParseCategory accepts the tool-facing names case-insensitively.
// PER_POSSESSION is accepted as an alias of PER_POSS.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "PER_GAME":
		return PerGame, nil
	case "TOTALS":
		return Totals, nil
	case "PER_MINUTE", "PER_36":
		return PerMinute, nil
	case "PER_POSS", "PER_POSSESSION":
		return PerPossession, nil
	case "ADVANCED":
		return Advanced, nil
	default:
		return "", fmt.Errorf("unknown stat type %q", s)
	}
}

// TableID returns the element id of the category's table on a player page.
func (c Category) TableID(playoffs bool) string {
	id, ok := tableIDs[c]
	if !ok {
		id = strings.ToLower(string(c))
	}
	if playoffs {
		return id + "_post"
	}
	return id
}

// Rendered reports whether the table is injected client-side and needs a
// headless browser to appear in the DOM.
func (c Category) Rendered(playoffs bool) bool {
	if playoffs {
		return true
	}
	return c == PerMinute || c == PerPossession
}

func (c Category) String() string { return string(c) }

// CategoryNames returns the names of Categories.
func CategoryNames() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}
