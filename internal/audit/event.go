// Package audit records one event per tool invocation and fans it out to the
// configured sinks.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies a finished invocation.
type Outcome string

// Invocation outcomes.
const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// Event describes one tool invocation.
type Event struct {
	ID         string         `json:"id"`
	Tool       string         `json:"tool"`
	Players    []string       `json:"players"`
	Arguments  map[string]any `json:"arguments"`
	Outcome    Outcome        `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	At         time.Time      `json:"at"`
}

// Duration returns the invocation latency.
func (e Event) Duration() time.Duration {
	return time.Duration(e.DurationMs) * time.Millisecond
}

// Recorder consumes invocation events.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, e Event) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, e Event) error { return f(ctx, e) }

// Track runs fn as the named tool and records its outcome. A result carrying
// an "error" key is a not-found answer rather than a failure. rec may be nil.
func Track(
	ctx context.Context,
	rec Recorder,
	tool string,
	players []string,
	args map[string]any,
	fn func() (map[string]any, error),
) (map[string]any, error) {
	start := time.Now()
	result, err := fn()

	e := Event{
		ID:         uuid.NewString(),
		Tool:       tool,
		Players:    players,
		Arguments:  args,
		Outcome:    OutcomeOK,
		DurationMs: time.Since(start).Milliseconds(),
		At:         start.UTC(),
	}
	switch {
	case err != nil:
		e.Outcome = OutcomeError
		e.Error = err.Error()
	case result["error"] != nil:
		e.Outcome = OutcomeNotFound
		if msg, ok := result["error"].(string); ok {
			e.Error = msg
		}
	}

	if rec != nil {
		// Recorded even if the caller went away mid-request.
		_ = rec.Record(context.WithoutCancel(ctx), e)
	}
	return result, err
}
