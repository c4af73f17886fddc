package service

import (
	"context"

	"github.com/fortuna/vesta/internal/table"
)

var comparedStats = []string{"PTS", "AST", "TRB", "STL", "BLK", "FG%", "FT%", "3P%"}

// ComparePlayers sets two players side by side for one season, or compares
// their careers. Career deltas are only computed for per-game tables.
func (s *PlayerStatsService) ComparePlayers(ctx context.Context, player1, player2 string, category table.Category, season int) (Result, error) {
	first, err := s.fetch(ctx, player1, category, false)
	if err != nil {
		return nil, err
	}
	second, err := s.fetch(ctx, player2, category, false)
	if err != nil {
		return nil, err
	}
	if first.Empty() || second.Empty() {
		return notFound("Could not find stats for one or both players"), nil
	}

	if season != 0 {
		label := table.SeasonLabel(season)
		r1 := first.Seasons.WhereSeason(label)
		r2 := second.Seasons.WhereSeason(label)
		if r1.Empty() || r2.Empty() {
			return notFound("One or both players didn't play in %s", label), nil
		}
		return Result{
			"season":    label,
			"stat_type": category.String(),
			"player1":   map[string]any{"name": player1, "stats": r1.Row(0).Record()},
			"player2":   map[string]any{"name": player2, "stats": r2.Row(0).Record()},
		}, nil
	}

	comparison := map[string]any{}
	if category == table.PerGame && first.HasCareer && second.HasCareer {
		comparison = deltas(first.Career, second.Career, comparedStats, func(a, b float64) map[string]any {
			return map[string]any{player1: a, player2: b, "difference": a - b}
		})
	}

	return Result{
		"comparison_type": "career",
		"stat_type":       category.String(),
		"player1": map[string]any{
			"name":          player1,
			"career_stats":  careerRecord(first),
			"total_seasons": first.Seasons.Len(),
		},
		"player2": map[string]any{
			"name":          player2,
			"career_stats":  careerRecord(second),
			"total_seasons": second.Seasons.Len(),
		},
		"statistical_comparison": comparison,
	}, nil
}
