package host

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/indexer"
	"github.com/gnana997/flowlens/pkg/parser"
	"github.com/gnana997/flowlens/pkg/util"
)

const counterSource = `import { useState } from 'react';

export function Counter() {
  const [count, setCount] = useState(0);
  const inc = () => setCount(count + 1);
  return <button onClick={inc}>{count}</button>;
}
`

func testServer(t *testing.T) (*Server, *indexer.Index) {
	t.Helper()
	logger := util.NewLogger(util.LoggerConfig{Level: util.LevelError, Format: util.FormatText})
	pm := parser.NewManager(logger)
	t.Cleanup(func() { pm.Close() })

	a := analyzer.New(pm, nil, nil, nil, logger)
	idx := indexer.NewIndex(indexer.DefaultIndexConfig(), logger)
	t.Cleanup(idx.Close)

	return NewServer(a, idx, nil, logger, 10*time.Second), idx
}

func writeComponent(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case "analyze_component":
		handler = s.handleAnalyzeComponent
	case "get_diagram":
		handler = s.handleGetDiagram
	case "list_hooks":
		handler = s.handleListHooks
	case "get_file_status":
		handler = s.handleGetFileStatus
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

func TestHandleAnalyzeComponent(t *testing.T) {
	s, _ := testServer(t)
	path := writeComponent(t, "Counter.tsx", counterSource)

	result := callTool(t, s, makeRequest("analyze_component", map[string]any{"path": path}))
	assert.False(t, result.IsError)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
	assert.Equal(t, "react", res["framework"])

	hooks, ok := res["hooks"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, hooks)
	first := hooks[0].(map[string]any)
	assert.Equal(t, "useState", first["hookName"])
	assert.Equal(t, true, first["isReadWritePair"])
}

func TestHandleAnalyzeComponent_MissingPath(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("analyze_component", nil))
	assert.True(t, result.IsError)
}

func TestHandleAnalyzeComponent_FileNotFound(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("analyze_component", map[string]any{
		"path": filepath.Join(t.TempDir(), "missing.tsx"),
	}))
	assert.True(t, result.IsError)
}

func TestHandleAnalyzeComponent_PopulatesIndex(t *testing.T) {
	s, idx := testServer(t)
	path := writeComponent(t, "Counter.tsx", counterSource)

	callTool(t, s, makeRequest("analyze_component", map[string]any{"path": path}))

	fa, stale, found := idx.Get(path)
	require.True(t, found)
	assert.False(t, stale)
	assert.NotEmpty(t, fa.Result.Hooks)
}

func TestHandleGetDiagram(t *testing.T) {
	s, _ := testServer(t)
	path := writeComponent(t, "Counter.tsx", counterSource)

	result := callTool(t, s, makeRequest("get_diagram", map[string]any{"path": path}))
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "flowchart TD")
	assert.Contains(t, text, "count")
}

func TestHandleListHooks(t *testing.T) {
	s, _ := testServer(t)
	path := writeComponent(t, "Counter.tsx", counterSource)

	result := callTool(t, s, makeRequest("list_hooks", map[string]any{"path": path}))
	assert.False(t, result.IsError)

	var hooks []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &hooks))
	require.Len(t, hooks, 1)
	assert.Equal(t, "useState", hooks[0]["hookName"])
	assert.Equal(t, []any{"count", "setCount"}, hooks[0]["variables"])
}

func TestHandleGetFileStatus(t *testing.T) {
	s, idx := testServer(t)
	path := writeComponent(t, "Counter.tsx", counterSource)

	result := callTool(t, s, makeRequest("get_file_status", map[string]any{"path": path}))
	var status FileStatus
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &status))
	assert.False(t, status.Indexed, "status never triggers analysis")

	callTool(t, s, makeRequest("analyze_component", map[string]any{"path": path}))
	idx.Invalidate(path)

	result = callTool(t, s, makeRequest("get_file_status", map[string]any{"path": path}))
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &status))
	assert.True(t, status.Indexed)
	assert.True(t, status.Stale)
	assert.Equal(t, 1, status.Hooks)
	assert.Equal(t, 1, status.Processes)
}

func TestAnalyze_ReusesFreshIndexEntry(t *testing.T) {
	s, idx := testServer(t)
	path := writeComponent(t, "Counter.tsx", counterSource)

	callTool(t, s, makeRequest("analyze_component", map[string]any{"path": path}))
	before := idx.Stats().AnalyzedFiles

	callTool(t, s, makeRequest("list_hooks", map[string]any{"path": path}))
	assert.Equal(t, before, idx.Stats().AnalyzedFiles, "unchanged content is served from the index")
}
