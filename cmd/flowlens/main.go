package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/host"
	"github.com/gnana997/flowlens/pkg/indexer"
	"github.com/gnana997/flowlens/pkg/mcplog"
	"github.com/gnana997/flowlens/pkg/parser"
	"github.com/gnana997/flowlens/pkg/util"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "serve":
		runServe(os.Args[2:])
	case "analyze":
		runAnalyze(os.Args[2:])
	case "inspect":
		runInspect(os.Args[2:])
	case "scan":
		runScan(os.Args[2:])
	case "setup":
		runSetup(os.Args[2:])
	case "version":
		fmt.Printf("flowlens %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: flowlens <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve      Start MCP server on stdio")
	fmt.Println("  analyze    Analyze a component file, print Mermaid (or --json)")
	fmt.Println("  inspect    Print a human-readable analysis summary")
	fmt.Println("  scan       Analyze every component under a directory")
	fmt.Println("  setup      Configure AI agents to use the MCP server")
	fmt.Println("  version    Print version")
	fmt.Println("  help       Show this help message")
}

// buildLogger applies the config fallback chain for log level.
func buildLogger(cfg *ProjectConfig) *slog.Logger {
	lc := util.DefaultLoggerConfig()
	if cfg != nil && cfg.LogLevel != "" {
		lc.Level = util.LogLevel(cfg.LogLevel)
	}
	logger := util.NewLogger(lc)
	util.SetDefault(logger)
	return logger
}

// buildAnalyzer assembles the engine stack shared by every command.
func buildAnalyzer(logger *slog.Logger) (*analyzer.Analyzer, func()) {
	pm := parser.NewManager(logger)
	files := util.NewFileCache(util.DefaultFileCacheConfig())
	a := analyzer.New(pm, nil, nil, files, logger)
	cleanup := func() {
		files.Close()
		pm.Close()
	}
	return a, cleanup
}

func runServe(args []string) {
	cfg, err := loadProjectConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := buildLogger(cfg)

	a, cleanup := buildAnalyzer(logger)
	defer cleanup()

	idx := indexer.NewIndex(indexer.DefaultIndexConfig(), logger)
	defer idx.Close()

	snapshotFlag := flagValue(args, "--snapshot")
	snapshotPath := resolveSnapshotPath(snapshotFlag)
	if _, err := idx.LoadSnapshot(snapshotPath); err != nil {
		logger.Debug("no usable snapshot", "path", snapshotPath, "error", err)
	}

	var calls *mcplog.Logger
	if cfg != nil && cfg.CallsLog != "" {
		calls, err = mcplog.NewLogger(cfg.CallsLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open call log: %v\n", err)
			os.Exit(1)
		}
		if calls != nil {
			defer calls.Close()
		}
	}

	timeout := host.DefaultAnalysisTimeout
	if cfg != nil && cfg.AnalysisTimeoutMs > 0 {
		timeout = time.Duration(cfg.AnalysisTimeoutMs) * time.Millisecond
	}

	if project := flagValue(args, "--project"); project != "" {
		watcher, err := indexer.NewFileWatcher(a, idx, indexer.DefaultWatchOptions(), logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create watcher: %v\n", err)
			os.Exit(1)
		}
		if err := watcher.Start(project); err != nil {
			fmt.Fprintf(os.Stderr, "failed to watch %s: %v\n", project, err)
			os.Exit(1)
		}
		defer watcher.Stop()
	}

	srv := host.NewServer(a, idx, calls, logger, timeout)
	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	if err := idx.SaveSnapshot(snapshotPath); err != nil {
		logger.Warn("failed to save snapshot", "path", snapshotPath, "error", err)
	}
}

func runAnalyze(args []string) {
	path, rest := firstPositional(args)
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: flowlens analyze <file> [--json]")
		os.Exit(1)
	}

	cfg, _ := loadProjectConfig()
	logger := buildLogger(cfg)

	a, cleanup := buildAnalyzer(logger)
	defer cleanup()

	result, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if hasFlag(rest, "--json") {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}
	fmt.Print(result.Mermaid())
}

func runInspect(args []string) {
	path, _ := firstPositional(args)
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: flowlens inspect <file>")
		os.Exit(1)
	}

	cfg, _ := loadProjectConfig()
	logger := buildLogger(cfg)

	a, cleanup := buildAnalyzer(logger)
	defer cleanup()

	result, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}
	printResultHuman(result)
}

func runScan(args []string) {
	root, rest := firstPositional(args)
	if root == "" {
		root = "."
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := buildLogger(cfg)

	a, cleanup := buildAnalyzer(logger)
	defer cleanup()

	idx := indexer.NewIndex(indexer.DefaultIndexConfig(), logger)
	defer idx.Close()

	options := indexer.DefaultScanOptions()
	if cfg != nil {
		if len(cfg.Include) > 0 {
			options.Include = cfg.Include
		}
		if len(cfg.Exclude) > 0 {
			options.Exclude = cfg.Exclude
		}
	}

	scanner := indexer.NewProjectScanner(a, idx, logger)
	stats, err := scanner.Scan(root, options, func(analyzed, total int, file string) {
		fmt.Fprintf(os.Stderr, "\r%d/%d %s", analyzed, total, file)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nscan failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr)

	fmt.Printf("Scanned %d files in %dms (%d analyzed, %d failed)\n",
		stats.FilesDiscovered, stats.TotalTimeMs, stats.FilesAnalyzed, stats.FilesFailed)
	fmt.Printf("Found %d hooks and %d processes\n", stats.HooksFound, stats.ProcessesFound)
	for _, fe := range stats.Errors {
		fmt.Printf("  ! %s: %v\n", fe.FilePath, fe.Error)
	}

	snapshotPath := resolveSnapshotPath(flagValue(rest, "--snapshot"))
	if err := idx.SaveSnapshot(snapshotPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot written to %s\n", snapshotPath)
}

// valueFlags take a separate value argument; their values are not
// positionals.
var valueFlags = map[string]bool{
	"--snapshot": true,
	"--project":  true,
}

// firstPositional returns the first non-flag argument and the remaining
// arguments.
func firstPositional(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg[0] == '-' {
			if valueFlags[arg] {
				i++
			}
			continue
		}
		rest := make([]string, 0, len(args)-1)
		rest = append(rest, args[:i]...)
		rest = append(rest, args[i+1:]...)
		return arg, rest
	}
	return "", args
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == name {
			return true
		}
	}
	return false
}

func flagValue(args []string, name string) string {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
