// Package host exposes the analysis engine over MCP stdio, the surface
// an editor extension talks to.
package host

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/indexer"
	"github.com/gnana997/flowlens/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// DefaultAnalysisTimeout bounds one tool call's analysis. A call that
// exceeds it still answers, with whatever the index already holds.
const DefaultAnalysisTimeout = 5 * time.Second

// Server is the MCP server exposing component analysis tools.
type Server struct {
	mcpServer *server.MCPServer
	analyzer  *analyzer.Analyzer
	index     *indexer.Index
	calls     *mcplog.Logger
	logger    *slog.Logger
	timeout   time.Duration
}

// NewServer creates an MCP server over the given analyzer and index.
// calls may be nil to disable tool-call logging; index may be nil, in
// which case every tool call analyzes from scratch.
func NewServer(a *analyzer.Analyzer, idx *indexer.Index, calls *mcplog.Logger, logger *slog.Logger, timeout time.Duration) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultAnalysisTimeout
	}

	s := &Server{
		analyzer: a,
		index:    idx,
		calls:    calls,
		logger:   logger,
		timeout:  timeout,
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if calls != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("flowlens", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: analyzeComponentTool(), Handler: s.handleAnalyzeComponent},
		server.ServerTool{Tool: getDiagramTool(), Handler: s.handleGetDiagram},
		server.ServerTool{Tool: listHooksTool(), Handler: s.handleListHooks},
		server.ServerTool{Tool: getFileStatusTool(), Handler: s.handleGetFileStatus},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
