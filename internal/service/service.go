// Package service answers player statistics queries from canonical tables.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/vesta/internal/ingest/bbref"
	"github.com/fortuna/vesta/internal/logging"
	"github.com/fortuna/vesta/internal/table"
)

// Tool names shared by the MCP and REST surfaces.
const (
	ToolCareerStats      = "get_player_career_stats"
	ToolSeasonStats      = "get_player_season_stats"
	ToolAdvancedStats    = "get_player_advanced_stats"
	ToolPer36Stats       = "get_player_per36_stats"
	ToolComparePlayers   = "compare_players"
	ToolShootingSplits   = "get_player_shooting_splits"
	ToolTotals           = "get_player_totals"
	ToolPlayoffStats     = "get_player_playoff_stats"
	ToolHeadshotURL      = "get_player_headshot_url"
	ToolCareerHighlights = "get_player_career_highlights"
)

// Source is the site the data comes from.
const Source = "basketball-reference.com"

// Result is a JSON-ready response. Not-found answers carry a single "error" key.
type Result = map[string]any

// StatsSource supplies canonical player tables.
type StatsSource interface {
	Fetch(ctx context.Context, player string, category table.Category, playoffs bool) (*bbref.Dataset, error)
	Headshot(ctx context.Context, player string) (string, error)
}

// Queries is the operation set exposed to tool and REST callers.
type Queries interface {
	CareerStats(ctx context.Context, player string, category table.Category) (Result, error)
	SeasonStats(ctx context.Context, player string, season int, category table.Category, includePlayoffs bool) (Result, error)
	AdvancedStats(ctx context.Context, player string, season int) (Result, error)
	Per36Stats(ctx context.Context, player string, season int) (Result, error)
	ComparePlayers(ctx context.Context, player1, player2 string, category table.Category, season int) (Result, error)
	ShootingSplits(ctx context.Context, player string, season int) (Result, error)
	Totals(ctx context.Context, player string, season int) (Result, error)
	PlayoffStats(ctx context.Context, player string, category table.Category) (Result, error)
	HeadshotURL(ctx context.Context, player string) (Result, error)
	CareerHighlights(ctx context.Context, player string) (Result, error)
}

var _ Queries = (*PlayerStatsService)(nil)

// PlayerStatsService implements the player query operations. Every call
// fetches its own tables; nothing is shared between calls.
type PlayerStatsService struct {
	source StatsSource
	logger *logrus.Entry
}

// NewPlayerStatsService creates a new player stats service
func NewPlayerStatsService(source StatsSource, logger logrus.FieldLogger) *PlayerStatsService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PlayerStatsService{
		source: source,
		logger: logging.Component(logger, "service"),
	}
}

func (s *PlayerStatsService) fetch(ctx context.Context, player string, category table.Category, playoffs bool) (*bbref.Dataset, error) {
	ds, err := s.source.Fetch(ctx, player, category, playoffs)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"player":   player,
			"category": category,
			"playoffs": playoffs,
		}).Debug("fetch failed")
		return nil, err
	}
	if ds == nil {
		ds = &bbref.Dataset{}
	}
	return ds, nil
}

func notFound(format string, args ...any) Result {
	return Result{"error": fmt.Sprintf(format, args...)}
}
