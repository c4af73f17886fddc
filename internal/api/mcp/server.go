// Package mcp exposes the player queries as MCP tools over stdio and
// streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/vesta/internal/audit"
	"github.com/fortuna/vesta/internal/logging"
	"github.com/fortuna/vesta/internal/service"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "nba-player-stats"

const instructions = `NBA Player Stats - statistics for NBA players from basketball-reference.com.

Tools cover career and single-season lines (per game, totals, per 36 minutes,
per 100 possessions), advanced metrics (PER, TS%, WS, BPM, VORP), playoff
versus regular season splits, shooting percentages, career highs and
milestones, and head-to-head player comparisons.`

// Server hosts the MCP tool set.
type Server struct {
	queries  service.Queries
	recorder audit.Recorder
	mcp      *server.MCPServer
	logger   *logrus.Entry
}

// NewServer registers every tool. rec may be nil.
func NewServer(queries service.Queries, rec audit.Recorder, version string, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		queries:  queries,
		recorder: rec,
		logger:   logging.Component(logger, "mcp"),
	}

	s.mcp = server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithLogging(),
		server.WithInstructions(instructions),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio speaks MCP over the given streams until ctx is cancelled or
// in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(s.logger.WriterLevel(logrus.ErrorLevel), "", 0))
	s.logger.Info("serving MCP over stdio")
	return stdio.Listen(ctx, in, out)
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// invoke runs a query, records it and renders the JSON text result. Query
// failures become an {"error": ...} payload flagged as a tool error.
func (s *Server) invoke(
	ctx context.Context,
	tool string,
	req mcp.CallToolRequest,
	players []string,
	fn func() (service.Result, error),
) (*mcp.CallToolResult, error) {
	result, err := audit.Track(ctx, s.recorder, tool, players, req.GetArguments(), fn)
	if err != nil {
		s.logger.WithError(err).WithField("tool", tool).Debug("tool failed")
		return errorResult(err.Error()), nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return errorResult("encoding result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func errorResult(msg string) *mcp.CallToolResult {
	body, _ := json.Marshal(map[string]string{"error": msg})
	res := mcp.NewToolResultText(string(body))
	res.IsError = true
	return res
}
