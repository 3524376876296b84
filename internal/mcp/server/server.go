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

// Package server exposes the seq tool catalog as an MCP server over stdio.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/seqbridge/internal/bridge"
	"github.com/tombee/seqbridge/internal/log"
)

// DefaultRateLimit is the default number of tool calls allowed per minute.
const DefaultRateLimit = 100

// Executor runs one tool call. *bridge.Bridge implements it.
type Executor interface {
	Execute(ctx context.Context, sessionID, eventID string, call bridge.ToolCall) bridge.ToolResult
}

// Server wraps the MCP server and routes tool calls to an Executor.
type Server struct {
	mcpServer   *server.MCPServer
	name        string
	version     string
	sessionID   string
	executor    Executor
	rateLimiter *RateLimiter
	middleware  *log.ToolCallMiddleware
	logger      *slog.Logger
	tracer      trace.Tracer
	tools       []string
	newID       func() string
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name (default: "seqbridge")
	Name string

	// Version is the seqbridge version
	Version string

	// SessionID is used as the run id of every call. A random id is used
	// when empty.
	SessionID string

	// RateLimit is the maximum tool calls per minute. Zero disables
	// limiting.
	RateLimit int

	// Logger receives server logs. It must not write to stdout.
	Logger *slog.Logger

	// Tracer, when set, records a server span around every tools/call
	// request.
	Tracer trace.Tracer
}

// NewServer creates a server exposing every tool in the client-side
// catalog.
func NewServer(config ServerConfig, executor Executor) (*Server, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if config.Name == "" {
		config.Name = "seqbridge"
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	if config.SessionID == "" {
		config.SessionID = uuid.NewString()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = log.WithComponent(logger, "mcp")

	s := &Server{
		mcpServer:   server.NewMCPServer(config.Name, config.Version, server.WithToolCapabilities(false)),
		name:        config.Name,
		version:     config.Version,
		sessionID:   config.SessionID,
		executor:    executor,
		rateLimiter: NewRateLimiter(config.RateLimit),
		middleware:  log.NewToolCallMiddleware(logger),
		logger:      logger,
		tracer:      config.Tracer,
		newID:       uuid.NewString,
	}

	for _, def := range bridge.ClientSideToolDefinitions() {
		s.mcpServer.AddTool(
			mcp.NewToolWithRawSchema(def.Name, def.Description, def.Parameters),
			s.handleToolCall,
		)
		s.tools = append(s.tools, def.Name)
	}

	return s, nil
}

// SessionID returns the session id attached to every call.
func (s *Server) SessionID() string {
	return s.sessionID
}

// Tools returns the registered tool names in catalog order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Run serves MCP over stdin/stdout until ctx is cancelled or stdin closes.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.logger.Info("starting seqbridge MCP server",
		slog.String("version", s.version),
		slog.String(log.SessionIDKey, s.sessionID),
		slog.Int("tools", len(s.tools)))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	if err := stdio.Listen(ctx, stdin, stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func (s *Server) handleToolCall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.Params.Name

	if !s.rateLimiter.AllowCall() {
		s.logger.Warn("tool call rate limited", slog.String("tool", name))
		return mcp.NewToolResultError("Rate limit exceeded. Please try again later."), nil
	}

	var args json.RawMessage
	if raw := request.GetArguments(); len(raw) > 0 {
		data, err := json.Marshal(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		args = data
	}

	var result bridge.ToolResult
	call := bridge.ToolCall{ID: s.newID(), Name: name, Arguments: args}
	op, _ := bridge.MapToolNameToOp(name)
	req := &log.ToolCallRequest{
		ToolName:   name,
		Op:         op,
		SessionID:  s.sessionID,
		EventID:    s.newID(),
		ToolCallID: call.ID,
	}

	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "mcp.tools/call",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("mcp.tool.name", name),
				attribute.String("everruns.session_id", req.SessionID),
				attribute.String("everruns.tool_call_id", call.ID),
			))
		defer span.End()
		defer func() {
			if result.OK() {
				span.SetStatus(codes.Ok, "")
			} else {
				span.SetStatus(codes.Error, result.Error)
			}
		}()
	}

	s.middleware.Handler(req, func() (bool, string) {
		result = s.executor.Execute(ctx, req.SessionID, req.EventID, call)
		return result.OK(), result.Error
	})

	if !result.OK() {
		return mcp.NewToolResultError(result.Error), nil
	}
	return mcp.NewToolResultText(string(result.Result)), nil
}
