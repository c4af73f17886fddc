package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/vesta/internal/audit"
	"github.com/fortuna/vesta/internal/ingest/bbref"
	"github.com/fortuna/vesta/internal/service"
	"github.com/fortuna/vesta/internal/store"
	"github.com/fortuna/vesta/internal/table"
)

// InvocationLog reads stored tool invocations.
type InvocationLog interface {
	Recent(ctx context.Context, limit int) ([]*store.Invocation, error)
	UsageSince(ctx context.Context, since time.Time) ([]store.ToolUsage, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	queries     service.Queries
	recorder    audit.Recorder
	invocations InvocationLog
	checks      map[string]func(context.Context) error
	version     string
}

// NewHandler creates a new handler
func NewHandler(queries service.Queries) *Handler {
	return &Handler{
		queries: queries,
		checks:  make(map[string]func(context.Context) error),
		version: "dev",
	}
}

// HealthCheck reports the service status and every configured dependency.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]any{
		"status":       state,
		"service":      "vesta",
		"version":      h.version,
		"dependencies": deps,
	})
}

// GetCareerStats returns a player's season-by-season and career lines.
func (h *Handler) GetCareerStats(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["name"]
	cat, err := categoryParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid stat_type", err)
		return
	}
	args := map[string]any{"player_name": player, "stat_type": string(cat)}
	h.run(w, r, service.ToolCareerStats, []string{player}, args, func(ctx context.Context) (service.Result, error) {
		return h.queries.CareerStats(ctx, player, cat)
	})
}

// GetSeasonStats returns one season for a player.
func (h *Handler) GetSeasonStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	player := vars["name"]

	season, err := strconv.Atoi(vars["season"])
	if err != nil || season <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid season (use the end year, e.g. 2023)", err)
		return
	}
	cat, err := categoryParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid stat_type", err)
		return
	}
	includePlayoffs := true
	if v := r.URL.Query().Get("include_playoffs"); v != "" {
		includePlayoffs, err = strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid include_playoffs", err)
			return
		}
	}

	args := map[string]any{
		"player_name":      player,
		"season":           season,
		"stat_type":        string(cat),
		"include_playoffs": includePlayoffs,
	}
	h.run(w, r, service.ToolSeasonStats, []string{player}, args, func(ctx context.Context) (service.Result, error) {
		return h.queries.SeasonStats(ctx, player, season, cat, includePlayoffs)
	})
}

// GetAdvancedStats returns advanced metrics.
func (h *Handler) GetAdvancedStats(w http.ResponseWriter, r *http.Request) {
	h.playerSeason(w, r, service.ToolAdvancedStats, h.queries.AdvancedStats)
}

// GetPer36Stats returns per-36-minute lines.
func (h *Handler) GetPer36Stats(w http.ResponseWriter, r *http.Request) {
	h.playerSeason(w, r, service.ToolPer36Stats, h.queries.Per36Stats)
}

// GetShootingSplits returns shooting percentages and volume.
func (h *Handler) GetShootingSplits(w http.ResponseWriter, r *http.Request) {
	h.playerSeason(w, r, service.ToolShootingSplits, h.queries.ShootingSplits)
}

// GetTotals returns counting totals and milestones.
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	h.playerSeason(w, r, service.ToolTotals, h.queries.Totals)
}

func (h *Handler) playerSeason(
	w http.ResponseWriter,
	r *http.Request,
	tool string,
	query func(ctx context.Context, player string, season int) (service.Result, error),
) {
	player := mux.Vars(r)["name"]
	season, err := seasonParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season (use the end year, e.g. 2023)", err)
		return
	}
	args := map[string]any{"player_name": player}
	if season > 0 {
		args["season"] = season
	}
	h.run(w, r, tool, []string{player}, args, func(ctx context.Context) (service.Result, error) {
		return query(ctx, player, season)
	})
}

// GetPlayoffStats returns playoff lines against the regular season.
func (h *Handler) GetPlayoffStats(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["name"]
	cat, err := categoryParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid stat_type", err)
		return
	}
	args := map[string]any{"player_name": player, "stat_type": string(cat)}
	h.run(w, r, service.ToolPlayoffStats, []string{player}, args, func(ctx context.Context) (service.Result, error) {
		return h.queries.PlayoffStats(ctx, player, cat)
	})
}

// GetHeadshotURL returns the player's headshot image URL.
func (h *Handler) GetHeadshotURL(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["name"]
	args := map[string]any{"player_name": player}
	h.run(w, r, service.ToolHeadshotURL, []string{player}, args, func(ctx context.Context) (service.Result, error) {
		return h.queries.HeadshotURL(ctx, player)
	})
}

// GetCareerHighlights returns best seasons and milestones.
func (h *Handler) GetCareerHighlights(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["name"]
	args := map[string]any{"player_name": player}
	h.run(w, r, service.ToolCareerHighlights, []string{player}, args, func(ctx context.Context) (service.Result, error) {
		return h.queries.CareerHighlights(ctx, player)
	})
}

// ComparePlayers compares two players, by season or career.
func (h *Handler) ComparePlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	player1, player2 := q.Get("player1"), q.Get("player2")
	if player1 == "" || player2 == "" {
		respondError(w, http.StatusBadRequest, "player1 and player2 are required", nil)
		return
	}
	cat, err := categoryParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid stat_type", err)
		return
	}
	season, err := seasonParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season (use the end year, e.g. 2023)", err)
		return
	}

	args := map[string]any{"player1_name": player1, "player2_name": player2, "stat_type": string(cat)}
	if season > 0 {
		args["season"] = season
	}
	h.run(w, r, service.ToolComparePlayers, []string{player1, player2}, args, func(ctx context.Context) (service.Result, error) {
		return h.queries.ComparePlayers(ctx, player1, player2, cat, season)
	})
}

// GetRecentInvocations lists the latest recorded tool calls.
func (h *Handler) GetRecentInvocations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}

	invocations, err := h.invocations.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch invocations", err)
		return
	}
	respondJSON(w, http.StatusOK, invocations)
}

// GetToolUsage aggregates calls per tool over a trailing window.
func (h *Handler) GetToolUsage(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid window (use a duration such as 24h)", err)
			return
		}
		window = d
	}

	since := time.Now().Add(-window)
	usage, err := h.invocations.UsageSince(r.Context(), since)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to aggregate tool usage", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"since": since.UTC(),
		"tools": usage,
	})
}

// run executes and records a query. Not-found answers map to 404 with the
// query's own payload; upstream failures map to 502, or 503 while the
// circuit is open.
func (h *Handler) run(
	w http.ResponseWriter,
	r *http.Request,
	tool string,
	players []string,
	args map[string]any,
	fn func(ctx context.Context) (service.Result, error),
) {
	ctx := r.Context()
	result, err := audit.Track(ctx, h.recorder, tool, players, args, func() (map[string]any, error) {
		return fn(ctx)
	})
	switch {
	case errors.Is(err, bbref.ErrCircuitOpen):
		respondError(w, http.StatusServiceUnavailable, "Upstream temporarily unavailable", err)
	case err != nil:
		respondError(w, http.StatusBadGateway, "Upstream request failed", err)
	case result["error"] != nil:
		respondJSON(w, http.StatusNotFound, result)
	default:
		respondJSON(w, http.StatusOK, result)
	}
}

func categoryParam(r *http.Request) (table.Category, error) {
	v := r.URL.Query().Get("stat_type")
	if v == "" {
		return table.PerGame, nil
	}
	return table.ParseCategory(v)
}

// seasonParam returns 0 when no season is given.
func seasonParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("season")
	if v == "" {
		return 0, nil
	}
	season, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if season <= 0 {
		return 0, fmt.Errorf("season must be positive, got %d", season)
	}
	return season, nil
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
