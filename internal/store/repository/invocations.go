package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/vesta/internal/audit"
	"github.com/fortuna/vesta/internal/store"
)

// InvocationRepository handles tool invocation audit rows
type InvocationRepository struct {
	db *store.Database
}

// NewInvocationRepository creates a new invocation repository
func NewInvocationRepository(db *store.Database) *InvocationRepository {
	return &InvocationRepository{db: db}
}

// Record implements audit.Recorder.
func (r *InvocationRepository) Record(ctx context.Context, e audit.Event) error {
	args, err := json.Marshal(e.Arguments)
	if err != nil {
		return fmt.Errorf("encoding arguments: %w", err)
	}
	if e.Arguments == nil {
		args = []byte("{}")
	}

	players := e.Players
	if players == nil {
		players = []string{}
	}

	var errText sql.NullString
	if e.Error != "" {
		errText = sql.NullString{String: e.Error, Valid: true}
	}

	query := `
		INSERT INTO tool_invocations (
			invocation_id, tool, players, arguments, outcome, error, duration_ms, invoked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (invocation_id) DO NOTHING
	`
	_, err = r.db.DB().ExecContext(ctx, query,
		e.ID, e.Tool, pq.Array(players), string(args), string(e.Outcome), errText, e.DurationMs, e.At,
	)
	if err != nil {
		return fmt.Errorf("inserting invocation: %w", err)
	}
	return nil
}

// Recent returns the latest invocations, newest first.
func (r *InvocationRepository) Recent(ctx context.Context, limit int) ([]*store.Invocation, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT invocation_id, tool, players, arguments, outcome, error, duration_ms, invoked_at
		FROM tool_invocations
		ORDER BY invoked_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying invocations: %w", err)
	}
	defer rows.Close()

	var out []*store.Invocation
	for rows.Next() {
		inv := &store.Invocation{}
		var args []byte
		var errText sql.NullString
		err := rows.Scan(
			&inv.InvocationID, &inv.Tool, pq.Array(&inv.Players), &args,
			&inv.Outcome, &errText, &inv.DurationMs, &inv.InvokedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning invocation: %w", err)
		}
		inv.Arguments = json.RawMessage(args)
		if errText.Valid {
			inv.Error = &errText.String
		}
		out = append(out, inv)
	}

	return out, rows.Err()
}

// UsageSince aggregates invocations per tool since the given time.
func (r *InvocationRepository) UsageSince(ctx context.Context, since time.Time) ([]store.ToolUsage, error) {
	query := `
		SELECT tool,
			COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'error'),
			COUNT(*) FILTER (WHERE outcome = 'not_found'),
			COALESCE(AVG(duration_ms), 0)
		FROM tool_invocations
		WHERE invoked_at >= $1
		GROUP BY tool
		ORDER BY COUNT(*) DESC, tool
	`

	rows, err := r.db.DB().QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("querying tool usage: %w", err)
	}
	defer rows.Close()

	var out []store.ToolUsage
	for rows.Next() {
		var u store.ToolUsage
		if err := rows.Scan(&u.Tool, &u.Calls, &u.Errors, &u.NotFound, &u.AvgDurationMs); err != nil {
			return nil, fmt.Errorf("scanning tool usage: %w", err)
		}
		out = append(out, u)
	}

	return out, rows.Err()
}
