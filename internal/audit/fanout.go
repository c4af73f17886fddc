package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/vesta/internal/logging"
	"github.com/fortuna/vesta/internal/metrics"
)

type sink struct {
	name string
	rec  Recorder
}

// Fanout delivers each event to every sink. A failing sink is logged and does
// not stop delivery to the others.
type Fanout struct {
	sinks  []sink
	logger *logrus.Entry
}

// NewFanout creates an empty Fanout.
func NewFanout(logger logrus.FieldLogger) *Fanout {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Fanout{logger: logging.Component(logger, "audit")}
}

// Add registers a sink. Nil recorders are ignored.
func (f *Fanout) Add(name string, rec Recorder) *Fanout {
	if rec != nil {
		f.sinks = append(f.sinks, sink{name: name, rec: rec})
	}
	return f
}

// Len reports the number of sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

// Record implements Recorder. It always returns nil.
func (f *Fanout) Record(ctx context.Context, e Event) error {
	for _, s := range f.sinks {
		if err := s.rec.Record(ctx, e); err != nil {
			f.logger.WithError(err).WithFields(logrus.Fields{
				"sink":     s.name,
				"tool":     e.Tool,
				"event_id": e.ID,
			}).Warn("failed to record invocation")
		}
	}
	return nil
}

// MetricsRecorder counts events in Prometheus.
func MetricsRecorder(m *metrics.Manager) Recorder {
	if m == nil {
		return nil
	}
	return RecorderFunc(func(_ context.Context, e Event) error {
		m.RecordToolInvocation(e.Tool, string(e.Outcome), e.Duration())
		return nil
	})
}

// LogRecorder writes a line per event.
func LogRecorder(logger logrus.FieldLogger) Recorder {
	return RecorderFunc(func(_ context.Context, e Event) error {
		entry := logger.WithFields(logrus.Fields{
			"tool":        e.Tool,
			"players":     e.Players,
			"outcome":     e.Outcome,
			"duration_ms": e.DurationMs,
		})
		if e.Outcome == OutcomeError {
			entry.WithField("error", e.Error).Warn("tool failed")
			return nil
		}
		entry.Info("tool invoked")
		return nil
	})
}
