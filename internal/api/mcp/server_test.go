package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/vesta/internal/audit"
	"github.com/fortuna/vesta/internal/ingest/bbref"
	"github.com/fortuna/vesta/internal/service"
	"github.com/fortuna/vesta/internal/table"
)

type call struct {
	method   string
	players  []string
	season   int
	category table.Category
	playoffs bool
}

type stubQueries struct {
	calls  []call
	result service.Result
	err    error
}

func (q *stubQueries) answer(c call) (service.Result, error) {
	q.calls = append(q.calls, c)
	if q.err != nil {
		return nil, q.err
	}
	if q.result != nil {
		return q.result, nil
	}
	return service.Result{"player_name": c.players[0]}, nil
}

func (q *stubQueries) CareerStats(_ context.Context, player string, cat table.Category) (service.Result, error) {
	return q.answer(call{method: "career", players: []string{player}, category: cat})
}

func (q *stubQueries) SeasonStats(_ context.Context, player string, season int, cat table.Category, playoffs bool) (service.Result, error) {
	return q.answer(call{method: "season", players: []string{player}, season: season, category: cat, playoffs: playoffs})
}

func (q *stubQueries) AdvancedStats(_ context.Context, player string, season int) (service.Result, error) {
	return q.answer(call{method: "advanced", players: []string{player}, season: season})
}

func (q *stubQueries) Per36Stats(_ context.Context, player string, season int) (service.Result, error) {
	return q.answer(call{method: "per36", players: []string{player}, season: season})
}

func (q *stubQueries) ComparePlayers(_ context.Context, p1, p2 string, cat table.Category, season int) (service.Result, error) {
	return q.answer(call{method: "compare", players: []string{p1, p2}, season: season, category: cat})
}

func (q *stubQueries) ShootingSplits(_ context.Context, player string, season int) (service.Result, error) {
	return q.answer(call{method: "shooting", players: []string{player}, season: season})
}

func (q *stubQueries) Totals(_ context.Context, player string, season int) (service.Result, error) {
	return q.answer(call{method: "totals", players: []string{player}, season: season})
}

func (q *stubQueries) PlayoffStats(_ context.Context, player string, cat table.Category) (service.Result, error) {
	return q.answer(call{method: "playoffs", players: []string{player}, category: cat})
}

func (q *stubQueries) HeadshotURL(_ context.Context, player string) (service.Result, error) {
	return q.answer(call{method: "headshot", players: []string{player}})
}

func (q *stubQueries) CareerHighlights(_ context.Context, player string) (service.Result, error) {
	return q.answer(call{method: "highlights", players: []string{player}})
}

type events struct{ got []audit.Event }

func (e *events) Record(_ context.Context, ev audit.Event) error {
	e.got = append(e.got, ev)
	return nil
}

func request(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func decode(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestToolsList(t *testing.T) {
	s := NewServer(&stubQueries{}, nil, "test", nil)
	resp := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var body struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				InputSchema struct {
					Required   []string                  `json:"required"`
					Properties map[string]map[string]any `json:"properties"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))

	names := make(map[string]bool)
	for _, tool := range body.Result.Tools {
		names[tool.Name] = true
		if tool.Name == service.ToolSeasonStats {
			assert.ElementsMatch(t, []string{"player_name", "season"}, tool.InputSchema.Required)
			assert.Len(t, tool.InputSchema.Properties["stat_type"]["enum"], len(table.CategoryNames()))
		}
	}
	for _, name := range []string{
		service.ToolCareerStats, service.ToolSeasonStats, service.ToolAdvancedStats,
		service.ToolPer36Stats, service.ToolComparePlayers, service.ToolShootingSplits,
		service.ToolTotals, service.ToolPlayoffStats, service.ToolHeadshotURL,
		service.ToolCareerHighlights,
	} {
		assert.True(t, names[name], "missing tool %s", name)
	}
	assert.Len(t, names, 10)
}

func TestToolHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("Should pass arguments through and record the call", func(t *testing.T) {
		q := &stubQueries{}
		rec := &events{}
		s := NewServer(q, rec, "test", nil)

		res, err := s.seasonStats(ctx, request(service.ToolSeasonStats, map[string]any{
			"player_name":      "LeBron James",
			"season":           float64(2016),
			"stat_type":        "TOTALS",
			"include_playoffs": false,
		}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "LeBron James", decode(t, res)["player_name"])

		require.Len(t, q.calls, 1)
		assert.Equal(t, call{method: "season", players: []string{"LeBron James"}, season: 2016, category: table.Totals}, q.calls[0])

		require.Len(t, rec.got, 1)
		assert.Equal(t, service.ToolSeasonStats, rec.got[0].Tool)
		assert.Equal(t, audit.OutcomeOK, rec.got[0].Outcome)
	})

	t.Run("Should apply defaults for optional arguments", func(t *testing.T) {
		q := &stubQueries{}
		s := NewServer(q, nil, "test", nil)

		_, err := s.careerStats(ctx, request(service.ToolCareerStats, map[string]any{"player_name": "Stephen Curry"}))
		require.NoError(t, err)
		_, err = s.totals(ctx, request(service.ToolTotals, map[string]any{"player_name": "Stephen Curry"}))
		require.NoError(t, err)
		_, err = s.seasonStats(ctx, request(service.ToolSeasonStats, map[string]any{"player_name": "Stephen Curry", "season": 2016}))
		require.NoError(t, err)

		require.Len(t, q.calls, 3)
		assert.Equal(t, table.PerGame, q.calls[0].category)
		assert.Zero(t, q.calls[1].season)
		assert.True(t, q.calls[2].playoffs)
	})

	t.Run("Should route both players to compare", func(t *testing.T) {
		q := &stubQueries{}
		rec := &events{}
		s := NewServer(q, rec, "test", nil)

		_, err := s.comparePlayers(ctx, request(service.ToolComparePlayers, map[string]any{
			"player1_name": "LeBron James",
			"player2_name": "Kevin Durant",
			"season":       float64(2014),
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"LeBron James", "Kevin Durant"}, q.calls[0].players)
		assert.Equal(t, []string{"LeBron James", "Kevin Durant"}, rec.got[0].Players)
	})

	t.Run("Should reject missing or invalid arguments without querying", func(t *testing.T) {
		q := &stubQueries{}
		s := NewServer(q, nil, "test", nil)

		res, err := s.headshotURL(ctx, request(service.ToolHeadshotURL, map[string]any{}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, decode(t, res), "error")

		res, err = s.playoffStats(ctx, request(service.ToolPlayoffStats, map[string]any{
			"player_name": "LeBron James",
			"stat_type":   "PER_FORTNIGHT",
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)

		res, err = s.seasonStats(ctx, request(service.ToolSeasonStats, map[string]any{"player_name": "LeBron James"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)

		assert.Empty(t, q.calls)
	})

	t.Run("Should reject non-positive optional seasons", func(t *testing.T) {
		q := &stubQueries{}
		s := NewServer(q, nil, "test", nil)

		res, err := s.totals(ctx, request(service.ToolTotals, map[string]any{
			"player_name": "LeBron James",
			"season":      float64(-5),
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, decode(t, res)["error"], "season must be a positive year")

		res, err = s.comparePlayers(ctx, request(service.ToolComparePlayers, map[string]any{
			"player1_name": "LeBron James",
			"player2_name": "Kevin Durant",
			"season":       float64(0),
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)

		assert.Empty(t, q.calls)
	})

	t.Run("Should treat a null season as omitted", func(t *testing.T) {
		q := &stubQueries{}
		s := NewServer(q, nil, "test", nil)

		res, err := s.per36Stats(ctx, request(service.ToolPer36Stats, map[string]any{
			"player_name": "LeBron James",
			"season":      nil,
		}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		require.Len(t, q.calls, 1)
		assert.Zero(t, q.calls[0].season)
	})

	t.Run("Should return not-found payloads as ordinary results", func(t *testing.T) {
		q := &stubQueries{result: service.Result{"error": "No stats found for Nobody"}}
		rec := &events{}
		s := NewServer(q, rec, "test", nil)

		res, err := s.careerHighlights(ctx, request(service.ToolCareerHighlights, map[string]any{"player_name": "Nobody"}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "No stats found for Nobody", decode(t, res)["error"])
		assert.Equal(t, audit.OutcomeNotFound, rec.got[0].Outcome)
	})

	t.Run("Should flag upstream failures as tool errors", func(t *testing.T) {
		q := &stubQueries{err: errors.New("upstream unavailable")}
		rec := &events{}
		s := NewServer(q, rec, "test", nil)

		res, err := s.advancedStats(ctx, request(service.ToolAdvancedStats, map[string]any{"player_name": "LeBron James"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "upstream unavailable", decode(t, res)["error"])
		assert.Equal(t, audit.OutcomeError, rec.got[0].Outcome)
	})
}

type failingSource struct{ err error }

func (f failingSource) Fetch(context.Context, string, table.Category, bool) (*bbref.Dataset, error) {
	return nil, f.err
}

func (f failingSource) Headshot(context.Context, string) (string, error) {
	return "", f.err
}

func TestUpstreamFailureLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	queries := service.NewPlayerStatsService(failingSource{err: bbref.ErrUpstream}, logger)
	rec := audit.NewFanout(logger).Add("log", audit.LogRecorder(logger))
	s := NewServer(queries, rec, "test", logger)

	res, err := s.advancedStats(context.Background(), request(service.ToolAdvancedStats, map[string]any{"player_name": "LeBron James"}))
	require.NoError(t, err)
	require.True(t, res.IsError)

	var loud []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level <= logrus.WarnLevel {
			loud = append(loud, e)
		}
	}
	require.Len(t, loud, 1)
	assert.Equal(t, "tool failed", loud[0].Message)
	assert.Equal(t, service.ToolAdvancedStats, loud[0].Data["tool"])
}
