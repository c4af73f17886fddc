package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/vesta/internal/audit"
	"github.com/fortuna/vesta/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the feed carries no credentials
	},
}

// Server streams invocation events to websocket subscribers.
type Server struct {
	hub    *Hub
	logger *logrus.Entry
}

// NewServer creates a new WebSocket server
func NewServer(logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		hub:    NewHub(),
		logger: logging.Component(logger, "websocket"),
	}
}

// Run starts the hub and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// HandleInvocations upgrades the request and subscribes it to the feed.
func (s *Server) HandleInvocations(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		_ = conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// HandleHealth returns WebSocket server health status
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// ClientCount returns the number of subscribers.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Record implements audit.Recorder by broadcasting the event as JSON.
func (s *Server) Record(_ context.Context, e audit.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding invocation: %w", err)
	}
	if !s.hub.Broadcast(data) {
		s.logger.WithField("event_id", e.ID).Debug("feed saturated, event dropped")
	}
	return nil
}
