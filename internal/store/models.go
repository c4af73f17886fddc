package store

import (
	"encoding/json"
	"time"
)

type migration struct {
	version string
	sql     string
}

var migrations = []migration{
	{
		version: "001_create_tool_invocations",
		sql: `
			CREATE TABLE IF NOT EXISTS tool_invocations (
				invocation_id UUID PRIMARY KEY,
				tool VARCHAR(64) NOT NULL,
				players TEXT[] NOT NULL DEFAULT '{}',
				arguments JSONB NOT NULL DEFAULT '{}'::jsonb,
				outcome VARCHAR(16) NOT NULL,
				error TEXT,
				duration_ms BIGINT NOT NULL,
				invoked_at TIMESTAMPTZ NOT NULL
			)
		`,
	},
	{
		version: "002_index_tool_invocations",
		sql: `
			CREATE INDEX IF NOT EXISTS idx_tool_invocations_invoked_at
				ON tool_invocations (invoked_at DESC);
			CREATE INDEX IF NOT EXISTS idx_tool_invocations_tool
				ON tool_invocations (tool, invoked_at DESC)
		`,
	},
}

// Invocation is a stored tool invocation.
type Invocation struct {
	InvocationID string          `json:"id"`
	Tool         string          `json:"tool"`
	Players      []string        `json:"players"`
	Arguments    json.RawMessage `json:"arguments"`
	Outcome      string          `json:"outcome"`
	Error        *string         `json:"error,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	InvokedAt    time.Time       `json:"invoked_at"`
}

// ToolUsage aggregates invocations of one tool.
type ToolUsage struct {
	Tool          string  `json:"tool"`
	Calls         int64   `json:"calls"`
	Errors        int64   `json:"errors"`
	NotFound      int64   `json:"not_found"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}
