// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package serve implements the serve command: the MCP stdio tool server.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/seqbridge/internal/commands/shared"
	"github.com/tombee/seqbridge/internal/log"
	"github.com/tombee/seqbridge/internal/mcp/server"
	"github.com/tombee/seqbridge/internal/tracing"
)

// NewCommand creates the serve command
func NewCommand() *cobra.Command {
	var (
		metricsAddr string
		sessionID   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve seq tools over MCP (stdio)",
		Long: `Start the seqbridge MCP server on stdin/stdout.

Every seq tool in the client-side catalog is exposed as an MCP tool. Calls
are forwarded to seqd and, when ingest targets are configured, each call is
recorded as a span and exported in batches.

Logs are written to stderr so the MCP stream on stdout stays clean.

Configuration example for an MCP client:
  {
    "mcpServers": {
      "seq": {
        "command": "seqbridge",
        "args": ["serve"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, metricsAddr, sessionID)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve exporter metrics on this address (e.g. 127.0.0.1:9464)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id for all calls (default: mcp.session_id or a random id)")

	return cmd
}

func runServe(cmd *cobra.Command, metricsAddr, sessionID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := shared.NewRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	client, err := rt.Dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if sessionID == "" {
		sessionID = rt.Config.MCP.SessionID
	}
	versionStr, _, _ := shared.GetVersion()

	srv, err := server.NewServer(server.ServerConfig{
		Name:      "seqbridge",
		Version:   versionStr,
		SessionID: sessionID,
		RateLimit: rt.Config.MCP.RateLimit,
		Logger:    rt.Logger,
		Tracer:    rt.Tracer("github.com/tombee/seqbridge/internal/mcp/server"),
	}, rt.Bridge(client))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if metricsAddr != "" {
		if rt.Exporter == nil {
			rt.Logger.Warn("--metrics-addr ignored: telemetry is disabled")
		} else {
			_, shutdown, err := startMetrics(metricsAddr, rt.Config.Telemetry.ServiceName, versionStr, rt.Exporter, rt.Logger)
			if err != nil {
				return err
			}
			defer shutdown()
		}
	}

	return srv.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// startMetrics serves /metrics on addr. It returns the bound address and a
// function that stops the server.
func startMetrics(addr, serviceName, version string, source tracing.StatsSource, logger *slog.Logger) (net.Addr, func(), error) {
	metrics, err := tracing.NewPrometheusMetrics(serviceName, version, source)
	if err != nil {
		return nil, nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = metrics.Shutdown(context.Background())
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", log.Error(err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	return ln.Addr(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
		_ = metrics.Shutdown(ctx)
	}, nil
}
