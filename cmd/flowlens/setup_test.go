package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDetection replaces the PATH and filesystem probes for one test.
func stubDetection(t *testing.T, binaries map[string]bool, markers map[string]bool) {
	t.Helper()
	origLook := lookPathFunc
	origStat := statFunc
	lookPathFunc = func(file string) (string, error) {
		if binaries[file] {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("not found")
	}
	statFunc = func(name string) (os.FileInfo, error) {
		if markers[name] {
			return os.Stat(".") // any real FileInfo will do
		}
		return nil, os.ErrNotExist
	}
	t.Cleanup(func() {
		lookPathFunc = origLook
		statFunc = origStat
	})
}

func agentByID(t *testing.T, id string) agent {
	t.Helper()
	for _, ag := range knownAgents {
		if ag.id == id {
			return ag
		}
	}
	t.Fatalf("unknown agent id %q", id)
	return agent{}
}

func TestServeArgs(t *testing.T) {
	assert.Equal(t, []string{"serve", "--project", "."}, serveArgs(nil))

	cfg := &ProjectConfig{Snapshot: ".flowlens/index.msgpack"}
	assert.Equal(t,
		[]string{"serve", "--project", ".", "--snapshot", ".flowlens/index.msgpack"},
		serveArgs(cfg))
}

func TestServerEntry(t *testing.T) {
	entry := serverEntry(nil, nil)
	assert.Equal(t, "flowlens", entry["command"])
	assert.Equal(t, []any{"serve", "--project", "."}, entry["args"])
	assert.NotContains(t, entry, "type")

	// Extra fields and the configured snapshot both land in the entry
	cfg := &ProjectConfig{Snapshot: "cache/idx.msgpack"}
	entry = serverEntry(cfg, map[string]string{"type": "stdio"})
	assert.Equal(t, "stdio", entry["type"])
	assert.Contains(t, entry["args"], any("cache/idx.msgpack"))
}

func TestMergeServerEntry_EmptyFile(t *testing.T) {
	out, err := mergeServerEntry(nil, "mcpServers", serverEntry(nil, nil))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, strings.HasSuffix(string(out), "\n"), "merged JSON should end with a newline")

	var config map[string]any
	require.NoError(t, json.Unmarshal(out, &config))
	servers := config["mcpServers"].(map[string]any)
	entry := servers["flowlens"].(map[string]any)
	assert.Equal(t, "flowlens", entry["command"])
	assert.Equal(t, []any{"serve", "--project", "."}, entry["args"])
}

func TestMergeServerEntry_PreservesExisting(t *testing.T) {
	existing := []byte(`{
  "mcpServers": {
    "other": {"command": "other-tool", "args": []}
  },
  "unrelated": {"keep": true}
}`)
	out, err := mergeServerEntry(existing, "mcpServers", serverEntry(nil, nil))
	require.NoError(t, err)
	require.NotNil(t, out)

	var config map[string]any
	require.NoError(t, json.Unmarshal(out, &config))
	servers := config["mcpServers"].(map[string]any)
	assert.Contains(t, servers, "other")
	assert.Contains(t, servers, "flowlens")
	assert.Contains(t, config, "unrelated")
}

func TestMergeServerEntry_AlreadyConfigured(t *testing.T) {
	existing := []byte(`{"mcpServers": {"flowlens": {"command": "flowlens"}}}`)
	out, err := mergeServerEntry(existing, "mcpServers", serverEntry(nil, nil))
	require.NoError(t, err)
	assert.Nil(t, out, "already-configured merge should be a no-op")
}

func TestMergeServerEntry_InvalidJSON(t *testing.T) {
	_, err := mergeServerEntry([]byte("{not json"), "mcpServers", serverEntry(nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestHasServerEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp.json")

	assert.False(t, hasServerEntry(path, "mcpServers"), "missing file is not configured")

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))
	assert.False(t, hasServerEntry(path, "mcpServers"), "invalid JSON is not configured")

	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"flowlens": {}}}`), 0644))
	assert.True(t, hasServerEntry(path, "mcpServers"))

	assert.False(t, hasServerEntry(path, "servers"), "wrong key is not configured")
}

func TestDetectAgents_CLIOnly(t *testing.T) {
	stubDetection(t, map[string]bool{"claude": true}, nil)
	t.Chdir(t.TempDir()) // no .mcp.json here

	agents := detectAgents()
	require.Len(t, agents, 1)
	assert.Equal(t, "claude_code", agents[0].agent.id)
	assert.False(t, agents[0].configured)
}

func TestDetectAgents_FileAgents(t *testing.T) {
	stubDetection(t, nil, map[string]bool{".cursor": true, ".vscode": true})
	t.Chdir(t.TempDir())

	agents := detectAgents()
	require.Len(t, agents, 2)
	assert.Equal(t, "cursor", agents[0].agent.id)
	assert.Equal(t, "vscode_copilot", agents[1].agent.id)
}

func TestDetectAgents_MarksConfigured(t *testing.T) {
	stubDetection(t, nil, map[string]bool{".cursor": true})
	t.Chdir(t.TempDir())

	require.NoError(t, os.MkdirAll(".cursor", 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(".cursor", "mcp.json"),
		[]byte(`{"mcpServers": {"flowlens": {"command": "flowlens"}}}`), 0644))

	agents := detectAgents()
	require.Len(t, agents, 1)
	assert.True(t, agents[0].configured)
}

func TestRegisterFile(t *testing.T) {
	t.Chdir(t.TempDir())
	ag := agentByID(t, "cursor")
	cfg := &ProjectConfig{Snapshot: ".flowlens/index.msgpack"}

	require.NoError(t, registerFile(ag, cfg))

	data, err := os.ReadFile(ag.configPath)
	require.NoError(t, err)

	var config map[string]any
	require.NoError(t, json.Unmarshal(data, &config))
	entry := config["mcpServers"].(map[string]any)["flowlens"].(map[string]any)
	assert.Equal(t, "flowlens", entry["command"])
	assert.Equal(t,
		[]any{"serve", "--project", ".", "--snapshot", ".flowlens/index.msgpack"},
		entry["args"])

	// Second registration leaves the file untouched
	require.NoError(t, registerFile(ag, cfg))
	again, err := os.ReadFile(ag.configPath)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRegisterFile_VSCodeEntryShape(t *testing.T) {
	t.Chdir(t.TempDir())
	ag := agentByID(t, "vscode_copilot")

	require.NoError(t, registerFile(ag, nil))

	data, err := os.ReadFile(ag.configPath)
	require.NoError(t, err)

	var config map[string]any
	require.NoError(t, json.Unmarshal(data, &config))
	entry := config["servers"].(map[string]any)["flowlens"].(map[string]any)
	assert.Equal(t, "stdio", entry["type"])
}

func TestPromptYesNo(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"no\n", false},
		{"", true}, // EOF defaults to yes
	}

	for _, tc := range testCases {
		t.Run(strings.TrimSpace(tc.input)+"_input", func(t *testing.T) {
			var out bytes.Buffer
			got := promptYesNo(strings.NewReader(tc.input), &out, "Proceed? [Y/n]")
			assert.Equal(t, tc.expected, got)
			assert.Contains(t, out.String(), "Proceed?")
		})
	}
}

func TestPromptScope(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"1\n", "project"},
		{"\n", "project"},
		{"2\n", "user"},
		{"3\n", ""},
		{"garbage\n", ""},
		{"", "project"}, // EOF defaults to project
	}

	for _, tc := range testCases {
		t.Run(tc.expected+"_"+strings.TrimSpace(tc.input), func(t *testing.T) {
			var out bytes.Buffer
			got := promptScope(strings.NewReader(tc.input), &out, "Claude Code")
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExecuteSetup_NoAgents(t *testing.T) {
	stubDetection(t, nil, nil)

	var out bytes.Buffer
	executeSetup(strings.NewReader(""), &out, nil, false)
	assert.Contains(t, out.String(), "No supported AI agents detected")
}

func TestExecuteSetup_DeclinedGlobalPrompt(t *testing.T) {
	stubDetection(t, nil, map[string]bool{".cursor": true})
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	executeSetup(strings.NewReader("n\n"), &out, nil, false)

	assert.Contains(t, out.String(), "Cursor")
	_, err := os.Stat(filepath.Join(".cursor", "mcp.json"))
	assert.True(t, os.IsNotExist(err), "declining should not write any config")
}

func TestExecuteSetup_AutoConfiguresFileAgent(t *testing.T) {
	stubDetection(t, nil, map[string]bool{".cursor": true})
	t.Chdir(t.TempDir())

	cfg := &ProjectConfig{Snapshot: "state/index.msgpack"}
	var out bytes.Buffer
	executeSetup(strings.NewReader(""), &out, cfg, true)

	assert.Contains(t, out.String(), "+ Cursor configured")

	data, err := os.ReadFile(filepath.Join(".cursor", "mcp.json"))
	require.NoError(t, err)
	var config map[string]any
	require.NoError(t, json.Unmarshal(data, &config))
	entry := config["mcpServers"].(map[string]any)["flowlens"].(map[string]any)
	assert.Contains(t, entry["args"], any("state/index.msgpack"))
}

func TestExecuteSetup_SkipsConfiguredAgent(t *testing.T) {
	stubDetection(t, nil, map[string]bool{".cursor": true})
	t.Chdir(t.TempDir())

	require.NoError(t, os.MkdirAll(".cursor", 0755))
	original := []byte(`{"mcpServers": {"flowlens": {"command": "flowlens"}}}`)
	require.NoError(t, os.WriteFile(filepath.Join(".cursor", "mcp.json"), original, 0644))

	var out bytes.Buffer
	executeSetup(strings.NewReader(""), &out, nil, true)

	assert.Contains(t, out.String(), "already configured, skipping")
	data, err := os.ReadFile(filepath.Join(".cursor", "mcp.json"))
	require.NoError(t, err)
	assert.Equal(t, original, data)
}
