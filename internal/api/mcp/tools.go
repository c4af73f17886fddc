package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fortuna/vesta/internal/service"
	"github.com/fortuna/vesta/internal/table"
)

func playerArg(desc string) mcp.ToolOption {
	return mcp.WithString("player_name", mcp.Required(), mcp.Description(desc))
}

func statTypeArg() mcp.ToolOption {
	return mcp.WithString("stat_type",
		mcp.Description("Type of stats"),
		mcp.Enum(table.CategoryNames()...),
		mcp.DefaultString(string(table.PerGame)),
	)
}

func optionalSeasonArg(desc string) mcp.ToolOption {
	return mcp.WithNumber("season", mcp.Description(desc))
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(service.ToolCareerStats,
		mcp.WithDescription("Get complete career statistics for an NBA player, regular season and playoffs, with a season-by-season breakdown."),
		playerArg(`The player's name (e.g., "LeBron James")`),
		statTypeArg(),
	), s.careerStats)

	s.mcp.AddTool(mcp.NewTool(service.ToolSeasonStats,
		mcp.WithDescription("Get statistics for a specific season."),
		playerArg(`The player's name (e.g., "LeBron James")`),
		mcp.WithNumber("season", mcp.Required(), mcp.Description("Season end year (e.g., 2023 for the 2022-23 season)")),
		statTypeArg(),
		mcp.WithBoolean("include_playoffs", mcp.Description("Include playoff stats if available"), mcp.DefaultBool(true)),
	), s.seasonStats)

	s.mcp.AddTool(mcp.NewTool(service.ToolAdvancedStats,
		mcp.WithDescription("Get advanced statistics for a player (PER, TS%, WS, BPM, VORP, etc.)."),
		playerArg(`The player's name (e.g., "LeBron James")`),
		optionalSeasonArg("Specific season end year (e.g., 2023). Omit for all seasons."),
	), s.advancedStats)

	s.mcp.AddTool(mcp.NewTool(service.ToolPer36Stats,
		mcp.WithDescription("Get per-36-minute statistics for a player."),
		playerArg(`The player's name (e.g., "LeBron James")`),
		optionalSeasonArg("Specific season end year (e.g., 2023). Omit for all seasons."),
	), s.per36Stats)

	s.mcp.AddTool(mcp.NewTool(service.ToolComparePlayers,
		mcp.WithDescription("Compare statistics between two NBA players, for one season or across careers."),
		mcp.WithString("player1_name", mcp.Required(), mcp.Description(`First player's name (e.g., "LeBron James")`)),
		mcp.WithString("player2_name", mcp.Required(), mcp.Description(`Second player's name (e.g., "Kevin Durant")`)),
		statTypeArg(),
		optionalSeasonArg("Specific season end year to compare. Omit to compare careers."),
	), s.comparePlayers)

	s.mcp.AddTool(mcp.NewTool(service.ToolShootingSplits,
		mcp.WithDescription("Get detailed shooting percentages and volume for a player."),
		playerArg(`The player's name (e.g., "Stephen Curry")`),
		optionalSeasonArg("Specific season end year (e.g., 2023). Omit for career shooting."),
	), s.shootingSplits)

	s.mcp.AddTool(mcp.NewTool(service.ToolTotals,
		mcp.WithDescription("Get total statistics (not averages) for a player, with career milestones."),
		playerArg(`The player's name (e.g., "LeBron James")`),
		optionalSeasonArg("Specific season end year (e.g., 2023). Omit for career totals."),
	), s.totals)

	s.mcp.AddTool(mcp.NewTool(service.ToolPlayoffStats,
		mcp.WithDescription("Get playoff statistics for a player and how they compare to the regular season."),
		playerArg(`The player's name (e.g., "LeBron James")`),
		statTypeArg(),
	), s.playoffStats)

	s.mcp.AddTool(mcp.NewTool(service.ToolHeadshotURL,
		mcp.WithDescription("Get the basketball-reference.com headshot URL for a player."),
		playerArg(`The player's name (e.g., "LeBron James")`),
	), s.headshotURL)

	s.mcp.AddTool(mcp.NewTool(service.ToolCareerHighlights,
		mcp.WithDescription("Get career highlights for a player: best seasons, single-season highs and achievements."),
		playerArg(`The player's name (e.g., "LeBron James")`),
	), s.careerHighlights)
}

func category(req mcp.CallToolRequest) (table.Category, error) {
	return table.ParseCategory(req.GetString("stat_type", string(table.PerGame)))
}

// optionalSeason returns 0 when no season is given.
func optionalSeason(req mcp.CallToolRequest) (int, error) {
	if v, ok := req.GetArguments()["season"]; !ok || v == nil {
		return 0, nil
	}
	season, err := req.RequireInt("season")
	if err != nil {
		return 0, err
	}
	if season <= 0 {
		return 0, fmt.Errorf("season must be a positive year, got %d", season)
	}
	return season, nil
}

func (s *Server) careerStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := req.RequireString("player_name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	cat, err := category(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return s.invoke(ctx, service.ToolCareerStats, req, []string{player}, func() (service.Result, error) {
		return s.queries.CareerStats(ctx, player, cat)
	})
}

func (s *Server) seasonStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := req.RequireString("player_name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	season, err := req.RequireInt("season")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if season <= 0 {
		return errorResult(fmt.Sprintf("season must be a positive year, got %d", season)), nil
	}
	cat, err := category(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	includePlayoffs := req.GetBool("include_playoffs", true)
	return s.invoke(ctx, service.ToolSeasonStats, req, []string{player}, func() (service.Result, error) {
		return s.queries.SeasonStats(ctx, player, season, cat, includePlayoffs)
	})
}

func (s *Server) advancedStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.playerSeason(ctx, req, service.ToolAdvancedStats, s.queries.AdvancedStats)
}

func (s *Server) per36Stats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.playerSeason(ctx, req, service.ToolPer36Stats, s.queries.Per36Stats)
}

func (s *Server) shootingSplits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.playerSeason(ctx, req, service.ToolShootingSplits, s.queries.ShootingSplits)
}

func (s *Server) totals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.playerSeason(ctx, req, service.ToolTotals, s.queries.Totals)
}

// playerSeason handles the tools taking a player and an optional season.
func (s *Server) playerSeason(
	ctx context.Context,
	req mcp.CallToolRequest,
	tool string,
	query func(ctx context.Context, player string, season int) (service.Result, error),
) (*mcp.CallToolResult, error) {
	player, err := req.RequireString("player_name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	season, err := optionalSeason(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return s.invoke(ctx, tool, req, []string{player}, func() (service.Result, error) {
		return query(ctx, player, season)
	})
}

func (s *Server) comparePlayers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player1, err := req.RequireString("player1_name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	player2, err := req.RequireString("player2_name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	cat, err := category(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	season, err := optionalSeason(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return s.invoke(ctx, service.ToolComparePlayers, req, []string{player1, player2}, func() (service.Result, error) {
		return s.queries.ComparePlayers(ctx, player1, player2, cat, season)
	})
}

func (s *Server) playoffStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := req.RequireString("player_name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	cat, err := category(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return s.invoke(ctx, service.ToolPlayoffStats, req, []string{player}, func() (service.Result, error) {
		return s.queries.PlayoffStats(ctx, player, cat)
	})
}

func (s *Server) headshotURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := req.RequireString("player_name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return s.invoke(ctx, service.ToolHeadshotURL, req, []string{player}, func() (service.Result, error) {
		return s.queries.HeadshotURL(ctx, player)
	})
}

func (s *Server) careerHighlights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := req.RequireString("player_name")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return s.invoke(ctx, service.ToolCareerHighlights, req, []string{player}, func() (service.Result, error) {
		return s.queries.CareerHighlights(ctx, player)
	})
}
