package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/vesta/internal/audit"
)

// InvocationStream receives one entry per tool invocation.
const InvocationStream = "tools.invocations.basketball_nba"

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// Option configures a RedisStreamPublisher.
type Option func(*RedisStreamPublisher)

// WithStream overrides the stream name.
func WithStream(name string) Option {
	return func(p *RedisStreamPublisher) {
		if name != "" {
			p.stream = name
		}
	}
}

// WithMaxLen caps the stream at roughly n entries. Zero leaves it unbounded.
func WithMaxLen(n int64) Option {
	return func(p *RedisStreamPublisher) { p.maxLen = n }
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client, opts ...Option) *RedisStreamPublisher {
	p := &RedisStreamPublisher{
		client: client,
		stream: InvocationStream,
		maxLen: 10000,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Record implements audit.Recorder.
func (p *RedisStreamPublisher) Record(ctx context.Context, e audit.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding invocation: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"tool":      e.Tool,
			"outcome":   string(e.Outcome),
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.stream, err)
	}
	return nil
}
