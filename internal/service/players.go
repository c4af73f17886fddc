package service

import (
	"context"
	"strings"

	"github.com/fortuna/vesta/internal/table"
)

// CareerStats returns every regular-season row of a category with the
// career aggregate, plus playoff rows when the player has any.
func (s *PlayerStatsService) CareerStats(ctx context.Context, player string, category table.Category) (Result, error) {
	regular, err := s.fetch(ctx, player, category, false)
	if err != nil {
		return nil, err
	}
	if regular.Empty() {
		return notFound("No stats found for %s", player), nil
	}

	var best any
	if category == table.PerGame {
		if i, _, ok := argMax(regular.Seasons, "PTS", nil); ok {
			best = regular.Seasons.Row(i).Record()
		}
	}

	result := Result{
		"player_name":           player,
		"stat_type":             category.String(),
		"career_regular_season": careerRecord(regular),
		"seasons":               regular.Seasons.Records(),
		"total_seasons":         regular.Seasons.Len(),
		"best_scoring_season":   best,
	}

	playoffs, err := s.fetch(ctx, player, category, true)
	if err != nil {
		return nil, err
	}
	if !playoffs.Empty() {
		result["career_playoffs"] = careerRecord(playoffs)
		result["playoff_seasons"] = playoffs.Seasons.Records()
	}

	return result, nil
}

// SeasonStats returns one season's row, and the playoff row for the same
// season when requested and present.
func (s *PlayerStatsService) SeasonStats(ctx context.Context, player string, season int, category table.Category, includePlayoffs bool) (Result, error) {
	regular, err := s.fetch(ctx, player, category, false)
	if err != nil {
		return nil, err
	}
	if regular.Empty() {
		return notFound("No stats found for %s", player), nil
	}

	label := table.SeasonLabel(season)
	rows := regular.Seasons.WhereSeason(label)
	if rows.Empty() {
		return notFound("No stats found for %s in %s season", player, label), nil
	}

	result := Result{
		"player_name":    player,
		"season":         label,
		"stat_type":      category.String(),
		"regular_season": rows.Row(0).Record(),
	}

	if includePlayoffs {
		playoffs, err := s.fetch(ctx, player, category, true)
		if err != nil {
			return nil, err
		}
		if p := playoffs.Seasons.WhereSeason(label); !p.Empty() {
			result["playoffs"] = p.Row(0).Record()
		}
	}

	return result, nil
}

// PlayoffStats returns playoff rows and, for per-game tables, how the
// playoff career compares to the regular-season career.
func (s *PlayerStatsService) PlayoffStats(ctx context.Context, player string, category table.Category) (Result, error) {
	playoffs, err := s.fetch(ctx, player, category, true)
	if err != nil {
		return nil, err
	}
	if playoffs.Empty() {
		return Result{
			"player_name":         player,
			"message":             player + " has no playoff statistics",
			"playoff_appearances": 0,
		}, nil
	}

	regular, err := s.fetch(ctx, player, category, false)
	if err != nil {
		return nil, err
	}

	comparison := map[string]any{}
	if category == table.PerGame && playoffs.HasCareer && regular.HasCareer {
		comparison = deltas(playoffs.Career, regular.Career,
			[]string{"PTS", "AST", "TRB", "FG%", "3P%", "FT%"},
			func(p, r float64) map[string]any {
				return map[string]any{"playoffs": p, "regular_season": r, "difference": p - r}
			})
	}

	return Result{
		"player_name":               player,
		"stat_type":                 category.String(),
		"career_playoff_stats":      careerRecord(playoffs),
		"playoff_appearances":       playoffs.Seasons.Len(),
		"playoff_seasons":           playoffs.Seasons.Records(),
		"playoff_vs_regular_season": comparison,
	}, nil
}

// HeadshotURL returns the player's headshot image location.
func (s *PlayerStatsService) HeadshotURL(ctx context.Context, player string) (Result, error) {
	url, err := s.source.Headshot(ctx, player)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return notFound("No player found matching %s", player), nil
	}
	return Result{
		"player_name":  player,
		"headshot_url": url,
		"source":       Source,
	}, nil
}

var seasonHighs = []struct {
	col  string
	name string
}{
	{"PTS", "points_per_game"},
	{"TRB", "rebounds_per_game"},
	{"AST", "assists_per_game"},
	{"STL", "steals_per_game"},
	{"BLK", "blocks_per_game"},
	{"FG%", "field_goal_percentage"},
	{"3P%", "three_point_percentage"},
}

// CareerHighlights summarizes a career from the per-game, totals and
// advanced tables.
func (s *PlayerStatsService) CareerHighlights(ctx context.Context, player string) (Result, error) {
	perGame, err := s.fetch(ctx, player, table.PerGame, false)
	if err != nil {
		return nil, err
	}
	if perGame.Empty() {
		return notFound("No stats found for %s", player), nil
	}

	totals, err := s.fetch(ctx, player, table.Totals, false)
	if err != nil {
		return nil, err
	}
	advanced, err := s.fetch(ctx, player, table.Advanced, false)
	if err != nil {
		return nil, err
	}

	careerPG := careerRecord(perGame)
	careerTotals := careerRecord(totals)
	orZero := func(rec map[string]any, key string) any {
		if v, ok := rec[key]; ok {
			return v
		}
		return 0
	}

	seasons := perGame.Seasons
	highs := map[string]any{}
	for _, h := range seasonHighs {
		if !seasons.HasColumn(h.col) {
			continue
		}
		var keep func(table.Row) bool
		if h.col == "3P%" {
			keep = minAttempts("3PA", 1.0)
		}
		if i, v, ok := argMax(seasons, h.col, keep); ok {
			highs[h.name] = map[string]any{"value": v, "season": seasons.Season(i)}
		}
	}

	result := Result{
		"player_name": player,
		"career_overview": map[string]any{
			"seasons_played": seasons.Len(),
			"games_played":   orZero(careerTotals, "G"),
			"career_ppg":     orZero(careerPG, "PTS"),
			"career_rpg":     orZero(careerPG, "TRB"),
			"career_apg":     orZero(careerPG, "AST"),
			"total_points":   orZero(careerTotals, "PTS"),
		},
		"single_season_highs": highs,
		"seasons_20plus_ppg": countWhere(seasons, func(r table.Row) bool {
			v, ok := r.Float("PTS")
			return ok && v >= 20.0
		}),
	}

	if seasons.HasColumn(table.ColAwards) {
		result["all_star_appearances"] = countWhere(seasons, func(r table.Row) bool {
			return strings.Contains(r.String(table.ColAwards), "AS")
		})
	}

	if advanced.Seasons.HasColumn("PER") {
		if i, v, ok := argMax(advanced.Seasons, "PER", nil); ok {
			result["best_per_season"] = map[string]any{"value": v, "season": advanced.Seasons.Season(i)}
		}
	}

	return result, nil
}
