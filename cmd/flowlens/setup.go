package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// agentMethod selects how an agent records MCP server configuration.
type agentMethod int

const (
	// methodCLI agents register servers through their own binary.
	methodCLI agentMethod = iota
	// methodFile agents read a JSON config file inside the project.
	methodFile
)

// agent describes one editor integration the analyzer can register with.
// Only agents with a per-project footprint are listed: the index snapshot
// and config live under the project root, so a global registration would
// point every workspace at the same analysis state.
type agent struct {
	id         string
	name       string
	method     agentMethod
	binary     string            // methodCLI: binary expected on PATH
	marker     string            // methodFile: directory indicating presence
	configPath string            // methodFile: config file to merge into
	serversKey string            // JSON key holding the server map
	extra      map[string]string // static fields the agent requires per entry
	scoped     bool              // methodCLI: supports project/user scope
}

// detected pairs an agent with its on-disk state.
type detected struct {
	agent      agent
	configured bool
}

// Replaceable for testing.
var lookPathFunc = exec.LookPath
var statFunc = os.Stat

var knownAgents = []agent{
	{
		id: "claude_code", name: "Claude Code",
		method: methodCLI, binary: "claude", scoped: true,
	},
	{
		id: "cursor", name: "Cursor",
		method: methodFile, marker: ".cursor",
		configPath: filepath.Join(".cursor", "mcp.json"),
		serversKey: "mcpServers",
	},
	{
		id: "vscode_copilot", name: "VS Code Copilot",
		method: methodFile, marker: ".vscode",
		configPath: filepath.Join(".vscode", "mcp.json"),
		serversKey: "servers",
		extra:      map[string]string{"type": "stdio"},
	},
}

// serveArgs builds the arguments the agent launches the server with. The
// project root is passed so the watcher keeps the index fresh across edits,
// and a configured snapshot path survives server restarts.
func serveArgs(cfg *ProjectConfig) []string {
	args := []string{"serve", "--project", "."}
	if cfg != nil && cfg.Snapshot != "" {
		args = append(args, "--snapshot", cfg.Snapshot)
	}
	return args
}

// serverEntry returns the MCP server object written into file-based agent
// configs.
func serverEntry(cfg *ProjectConfig, extra map[string]string) map[string]any {
	sargs := serveArgs(cfg)
	args := make([]any, 0, len(sargs))
	for _, a := range sargs {
		args = append(args, a)
	}
	entry := map[string]any{
		"command": "flowlens",
		"args":    args,
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// detectAgents reports which known agents have a footprint in this project.
func detectAgents() []detected {
	var found []detected
	for _, ag := range knownAgents {
		switch ag.method {
		case methodCLI:
			if _, err := lookPathFunc(ag.binary); err != nil {
				continue
			}
			found = append(found, detected{
				agent:      ag,
				configured: hasServerEntry(".mcp.json", "mcpServers"),
			})
		case methodFile:
			if _, err := statFunc(ag.marker); err != nil {
				continue
			}
			found = append(found, detected{
				agent:      ag,
				configured: hasServerEntry(ag.configPath, ag.serversKey),
			})
		}
	}
	return found
}

// hasServerEntry reports whether a flowlens server already exists under
// serversKey in the JSON file at path. Unreadable or invalid files count as
// not configured.
func hasServerEntry(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return false
	}
	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		return false
	}
	_, exists := servers["flowlens"]
	return exists
}

// mergeServerEntry adds entry as the "flowlens" server under serversKey,
// preserving everything else in the existing JSON. Returns nil, nil when a
// flowlens entry is already present.
func mergeServerEntry(existing []byte, serversKey string, entry map[string]any) ([]byte, error) {
	config := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers["flowlens"]; exists {
		return nil, nil
	}
	servers["flowlens"] = entry
	config[serversKey] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// registerCLI runs `<binary> mcp add` with the chosen scope.
func registerCLI(ag agent, scope string, cfg *ProjectConfig) error {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, "flowlens", "--", "flowlens")
	args = append(args, serveArgs(cfg)...)
	cmd := exec.Command(ag.binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// registerFile merges the server entry into the agent's JSON config file.
func registerFile(ag agent, cfg *ProjectConfig) error {
	if err := os.MkdirAll(filepath.Dir(ag.configPath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var existing []byte
	if data, err := os.ReadFile(ag.configPath); err == nil {
		existing = data
	}

	merged, err := mergeServerEntry(existing, ag.serversKey, serverEntry(cfg, ag.extra))
	if err != nil {
		return err
	}
	if merged == nil {
		return nil // already configured
	}
	return os.WriteFile(ag.configPath, merged, 0644)
}

// --- Interactive prompts ---

// promptYesNo prints a question and reads Y/n. Returns true for yes (default).
func promptYesNo(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s ", question)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return true // default yes on EOF
	}
	answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return answer == "" || answer == "y" || answer == "yes"
}

// promptScope prints scope options and reads 1/2/3.
// Returns "project", "user", or "" (skip).
func promptScope(r io.Reader, w io.Writer, agentName string) string {
	fmt.Fprintf(w, "\n%s: add flowlens MCP server?\n", agentName)
	fmt.Fprintln(w, "  [1] Project scope (shared with team)")
	fmt.Fprintln(w, "  [2] User scope (personal, global)")
	fmt.Fprintln(w, "  [3] Skip")
	fmt.Fprintf(w, "  > ")

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return "project" // default on EOF
	}
	switch strings.TrimSpace(scanner.Text()) {
	case "1", "":
		return "project"
	case "2":
		return "user"
	default:
		return "" // skip
	}
}

// --- Orchestration ---

// runSetup is the entry point for `flowlens setup`. The project config is
// loaded up front so registered server entries carry the configured
// snapshot path.
func runSetup(args []string) {
	cfg, err := loadProjectConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	executeSetup(os.Stdin, os.Stdout, cfg, hasFlag(args, "--auto"))
}

// executeSetup contains the testable core logic, parameterized on I/O.
func executeSetup(r io.Reader, w io.Writer, cfg *ProjectConfig, auto bool) {
	agents := detectAgents()
	if len(agents) == 0 {
		fmt.Fprintln(w, "No supported AI agents detected in this project.")
		return
	}

	fmt.Fprintln(w, "Detected AI agents:")
	for _, d := range agents {
		if d.configured {
			fmt.Fprintf(w, "  * %s (already configured)\n", d.agent.name)
		} else {
			fmt.Fprintf(w, "  * %s\n", d.agent.name)
		}
	}
	fmt.Fprintln(w)

	if !auto {
		if !promptYesNo(r, w, "Configure agents? [Y/n]") {
			return
		}
	}

	for _, d := range agents {
		if d.configured {
			fmt.Fprintf(w, "\n%s: already configured, skipping\n", d.agent.name)
			continue
		}
		registerAgent(r, w, d.agent, cfg, auto)
	}
}

func registerAgent(r io.Reader, w io.Writer, ag agent, cfg *ProjectConfig, auto bool) {
	switch ag.method {
	case methodCLI:
		scope := "project" // default for --auto
		if !auto && ag.scoped {
			scope = promptScope(r, w, ag.name)
			if scope == "" {
				fmt.Fprintln(w, "  skipped")
				return
			}
		}
		if err := registerCLI(ag, scope, cfg); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", ag.name, err)
			return
		}
		fmt.Fprintf(w, "  + %s configured (scope: %s)\n", ag.name, scope)

	case methodFile:
		if !auto {
			if !promptYesNo(r, w, fmt.Sprintf("\n%s: add to %s? [Y/n]", ag.name, ag.configPath)) {
				fmt.Fprintln(w, "  skipped")
				return
			}
		}
		if err := registerFile(ag, cfg); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", ag.name, err)
			return
		}
		fmt.Fprintf(w, "  + %s configured (%s)\n", ag.name, ag.configPath)
	}
}
