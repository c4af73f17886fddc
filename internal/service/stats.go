package service

import (
	"context"

	"github.com/fortuna/vesta/internal/table"
)

var advancedLeaders = []string{"PER", "TS%", "WS", "BPM", "VORP"}

// AdvancedStats returns advanced metrics for one season, or every season
// with the career line and the best season per headline metric. A zero
// season means all seasons.
func (s *PlayerStatsService) AdvancedStats(ctx context.Context, player string, season int) (Result, error) {
	ds, err := s.fetch(ctx, player, table.Advanced, false)
	if err != nil {
		return nil, err
	}
	if ds.Empty() {
		return notFound("No advanced stats found for %s", player), nil
	}

	if season != 0 {
		label := table.SeasonLabel(season)
		rows := ds.Seasons.WhereSeason(label)
		if rows.Empty() {
			return notFound("No advanced stats found for %s in %s", player, label), nil
		}
		return Result{
			"player_name":    player,
			"season":         label,
			"advanced_stats": rows.Row(0).Record(),
		}, nil
	}

	best := map[string]any{}
	for _, metric := range advancedLeaders {
		if i, v, ok := argMax(ds.Seasons, metric, nil); ok {
			best["best_"+metric+"_season"] = map[string]any{
				"season": ds.Seasons.Season(i),
				"value":  v,
			}
		}
	}

	return Result{
		"player_name":     player,
		"career_advanced": careerRecord(ds),
		"seasons":         ds.Seasons.Records(),
		"best_seasons":    best,
	}, nil
}

// Per36Stats returns per-36-minute rows for one season or the whole career.
func (s *PlayerStatsService) Per36Stats(ctx context.Context, player string, season int) (Result, error) {
	ds, err := s.fetch(ctx, player, table.PerMinute, false)
	if err != nil {
		return nil, err
	}
	if ds.Empty() {
		return notFound("No per-36 stats found for %s", player), nil
	}

	if season != 0 {
		label := table.SeasonLabel(season)
		rows := ds.Seasons.WhereSeason(label)
		if rows.Empty() {
			return notFound("No per-36 stats found for %s in %s", player, label), nil
		}
		return Result{
			"player_name":  player,
			"season":       label,
			"per_36_stats": rows.Row(0).Record(),
		}, nil
	}

	return Result{
		"player_name":   player,
		"career_per_36": careerRecord(ds),
		"seasons":       ds.Seasons.Records(),
	}, nil
}

// Totals returns season totals, or the career totals with milestone seasons.
func (s *PlayerStatsService) Totals(ctx context.Context, player string, season int) (Result, error) {
	ds, err := s.fetch(ctx, player, table.Totals, false)
	if err != nil {
		return nil, err
	}
	if ds.Empty() {
		return notFound("No stats found for %s", player), nil
	}

	if season != 0 {
		label := table.SeasonLabel(season)
		rows := ds.Seasons.WhereSeason(label)
		if rows.Empty() {
			return notFound("No stats found for %s in %s", player, label), nil
		}
		return Result{
			"player_name": player,
			"season":      label,
			"totals":      rows.Row(0).Record(),
		}, nil
	}

	milestones := map[string]any{}
	for i := range ds.Seasons.Rows {
		if pts, ok := ds.Seasons.Row(i).Float("PTS"); ok && pts >= 1000 {
			milestones["first_1000_point_season"] = ds.Seasons.Season(i)
			break
		}
	}
	if i, v, ok := argMax(ds.Seasons, "PTS", nil); ok {
		milestones["highest_scoring_season"] = map[string]any{
			"season": ds.Seasons.Season(i),
			"points": v,
		}
	}

	return Result{
		"player_name":   player,
		"career_totals": careerRecord(ds),
		"seasons":       ds.Seasons.Records(),
		"milestones":    milestones,
	}, nil
}

var shootingBests = []struct {
	pct      string
	attempts string
	name     string
}{
	{"FG%", "FGA", "field_goal"},
	{"3P%", "3PA", "three_point"},
	{"FT%", "FTA", "free_throw"},
}

// ShootingSplits breaks a per-game row into shot types. Without a season it
// uses the career line and adds the best season per percentage; three-point
// bests only count seasons above one attempt per game.
func (s *PlayerStatsService) ShootingSplits(ctx context.Context, player string, season int) (Result, error) {
	ds, err := s.fetch(ctx, player, table.PerGame, false)
	if err != nil {
		return nil, err
	}
	if ds.Empty() {
		return notFound("No stats found for %s", player), nil
	}

	if season != 0 {
		label := table.SeasonLabel(season)
		rows := ds.Seasons.WhereSeason(label)
		if rows.Empty() {
			return notFound("No stats found for %s in %s", player, label), nil
		}
		row := rows.Row(0)
		splits := shootingBreakdown(row)
		splits["true_shooting_percentage"] = valueOr(row, "TS%", nil)
		return Result{
			"player_name":    player,
			"season":         label,
			"shooting_stats": splits,
		}, nil
	}

	if !ds.HasCareer {
		return notFound("No career stats found"), nil
	}

	best := map[string]any{}
	for _, b := range shootingBests {
		if !ds.Seasons.HasColumn(b.pct) {
			continue
		}
		var keep func(table.Row) bool
		if b.pct == "3P%" {
			keep = minAttempts(b.attempts, 1.0)
		}
		if i, v, ok := argMax(ds.Seasons, b.pct, keep); ok {
			row := ds.Seasons.Row(i)
			best["best_"+b.name+"_season"] = map[string]any{
				"season":            ds.Seasons.Season(i),
				"percentage":        v,
				"attempts_per_game": valueOr(row, b.attempts, nil),
			}
		}
	}

	return Result{
		"player_name":           player,
		"career_shooting":       shootingBreakdown(ds.Career),
		"best_shooting_seasons": best,
	}, nil
}

func shootingBreakdown(row table.Row) map[string]any {
	group := func(pct, made, attempted string) map[string]any {
		return map[string]any{
			"percentage":         valueOr(row, pct, 0),
			"made_per_game":      valueOr(row, made, 0),
			"attempted_per_game": valueOr(row, attempted, 0),
		}
	}
	return map[string]any{
		"field_goals":             group("FG%", "FG", "FGA"),
		"three_pointers":          group("3P%", "3P", "3PA"),
		"two_pointers":            group("2P%", "2P", "2PA"),
		"free_throws":             group("FT%", "FT", "FTA"),
		"effective_fg_percentage": valueOr(row, "eFG%", 0),
	}
}
