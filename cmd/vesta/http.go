package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/vesta/internal/api/rest"
)

func newHTTPCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the REST API, MCP over HTTP, the invocation feed and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.cfg.HTTPAddr = addr
			}

			opts := []rest.Option{
				rest.WithLogger(a.logger),
				rest.WithMetrics(a.metrics),
				rest.WithRecorder(a.recorder),
				rest.WithMCP(a.mcp.HTTPHandler()),
				rest.WithVersion(serviceVersion),
			}
			if a.redis != nil {
				opts = append(opts, rest.WithHealthCheck("redis", a.redis.HealthCheck))
			}
			if a.db != nil {
				opts = append(opts,
					rest.WithHealthCheck("atlas", a.db.HealthCheck),
					rest.WithInvocationLog(a.invocations),
				)
			}
			if a.ws != nil {
				go a.ws.Run(ctx)
				opts = append(opts, rest.WithWebsocket(a.ws))
			}

			server := rest.NewServer(a.cfg.HTTPAddr, a.queries, opts...)
			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			a.logger.WithField("addr", a.cfg.HTTPAddr).Infof("%s v%s started", serviceName, serviceVersion)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.WithError(err).Error("REST server shutdown error")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http_addr)")
	return cmd
}
