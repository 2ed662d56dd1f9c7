package host

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/indexer"
)

func (s *Server) handleAnalyzeComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyze(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleGetDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyze(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result.Mermaid()), nil
}

func (s *Server) handleListHooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyze(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result.Hooks)
}

// FileStatus is the get_file_status response payload.
type FileStatus struct {
	Path        string `json:"path"`
	Indexed     bool   `json:"indexed"`
	Stale       bool   `json:"stale"`
	ContentHash string `json:"contentHash,omitempty"`
	AnalyzedAt  int64  `json:"analyzedAt,omitempty"`
	Hooks       int    `json:"hooks"`
	Processes   int    `json:"processes"`
	Diagnostics int    `json:"diagnostics"`
}

func (s *Server) handleGetFileStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := FileStatus{Path: path}
	if s.index != nil {
		if fa, stale, found := s.index.Get(path); found {
			status.Indexed = true
			status.Stale = stale
			status.ContentHash = fa.ContentHash
			status.AnalyzedAt = fa.Timestamp
			status.Hooks = len(fa.Result.Hooks)
			status.Processes = len(fa.Result.Processes)
			status.Diagnostics = len(fa.Result.Diagnostics)
		}
	}
	return jsonResult(status)
}

// analyze runs one file through the engine, bounded by the server
// timeout. A fresh index entry short-circuits. On timeout the call still
// answers: a cached result if one exists, otherwise an empty result, in
// both cases carrying a diagnostic naming the timeout.
func (s *Server) analyze(ctx context.Context, path string) (*analyzer.Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	hash := indexer.ComputeContentHash(content)
	if s.index != nil {
		if fa, ok := s.index.Fresh(path, hash); ok {
			return fa.Result, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		result *analyzer.Result
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		result, err := s.analyzer.AnalyzeSource(ctx, content, path)
		ch <- outcome{result, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, out.err
		}
		if s.index != nil {
			s.index.Put(path, hash, out.result)
		}
		return out.result, nil

	case <-ctx.Done():
		diag := fmt.Sprintf("analysis of %s did not finish within %s", path, s.timeout)
		s.logger.Warn("analysis timed out", "file", path, "timeout", s.timeout)

		if s.index != nil {
			if fa, _, found := s.index.Get(path); found {
				stale := *fa.Result
				stale.Diagnostics = append(append([]string(nil), stale.Diagnostics...), diag)
				return &stale, nil
			}
		}
		return &analyzer.Result{FilePath: path, Diagnostics: []string{diag}}, nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
