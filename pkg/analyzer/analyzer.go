// Package analyzer recovers a data-flow model from component sources:
// hook occurrences, executable processes and render structure, resolved
// into diagram nodes and edges through the processor registry.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/flowlens/pkg/classify"
	"github.com/gnana997/flowlens/pkg/graph"
	"github.com/gnana997/flowlens/pkg/model"
	"github.com/gnana997/flowlens/pkg/parser"
	"github.com/gnana997/flowlens/pkg/position"
	"github.com/gnana997/flowlens/pkg/registry"
	"github.com/gnana997/flowlens/pkg/util"
	"github.com/gnana997/flowlens/pkg/vuetpl"
)

// Result is the complete analysis of one component source.
type Result struct {
	FilePath  string `json:"filePath" msgpack:"filePath"`
	Framework string `json:"framework" msgpack:"framework"`

	// ContentKey is the sha256 of the analyzed source, used as the cache
	// identity for classification and result reuse.
	ContentKey string `json:"contentKey" msgpack:"contentKey"`

	Hooks     []model.Hook    `json:"hooks,omitempty" msgpack:"hooks"`
	Processes []model.Process `json:"processes,omitempty" msgpack:"processes"`
	Renders   []model.Render  `json:"renders,omitempty" msgpack:"renders"`

	Nodes []graph.Node `json:"nodes,omitempty" msgpack:"nodes"`
	Edges []graph.Edge `json:"edges,omitempty" msgpack:"edges"`

	// Diagnostics records occurrences that were skipped after a processor
	// failure; analysis is always partial-tolerant.
	Diagnostics []string `json:"diagnostics,omitempty" msgpack:"diagnostics"`
}

// Mermaid renders the result's graph as a Mermaid flowchart.
func (r *Result) Mermaid() string {
	return graph.Mermaid(r.Nodes, r.Edges)
}

// Analyzer ties the pipeline together: parse, extract, classify,
// dispatch. Safe for concurrent use.
type Analyzer struct {
	parsers    *parser.Manager
	classifier *classify.Classifier
	registry   *registry.Registry
	files      util.FileCache
	logger     *slog.Logger
}

// New builds an Analyzer. classifier may be nil to skip type-informed
// classification; files may be nil when only AnalyzeSource is used.
func New(parsers *parser.Manager, classifier *classify.Classifier, reg *registry.Registry, files util.FileCache, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = registry.Default(logger)
	}
	return &Analyzer{
		parsers:    parsers,
		classifier: classifier,
		registry:   reg,
		files:      files,
		logger:     logger,
	}
}

// AnalyzeFile loads a component source through the file cache and
// analyzes it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, filePath string) (*Result, error) {
	if a.files == nil {
		return nil, fmt.Errorf("analyzer has no file cache configured")
	}
	source, err := a.files.ReadAll(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return a.AnalyzeSource(ctx, source, filePath)
}

// AnalyzeSource analyzes in-memory component source. Vue single-file
// components are carved into script and template blocks first; script
// positions keep their original SFC line numbers.
func (a *Analyzer) AnalyzeSource(ctx context.Context, source []byte, filePath string) (*Result, error) {
	if parser.IsVueFile(filePath) {
		return a.analyzeVue(ctx, source, filePath)
	}

	res := &Result{
		FilePath:   filePath,
		Framework:  "react",
		ContentKey: contentKey(source),
	}
	tree, err := a.parsers.ParseFile(source, filePath)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	lines := position.NewLineIndex(source)
	a.analyzeScript(ctx, tree.RootNode(), source, lines, res)
	return res, nil
}

// analyzeVue carves an SFC, analyzes the script block with the original
// line offset and merges in template-derived structure.
func (a *Analyzer) analyzeVue(ctx context.Context, source []byte, filePath string) (*Result, error) {
	res := &Result{
		FilePath:   filePath,
		Framework:  "vue",
		ContentKey: contentKey(source),
	}

	script, ok := vuetpl.ExtractScript(source)
	if ok {
		scriptBytes := []byte(script.Content)
		tree, err := a.parsers.Parse(scriptBytes, parser.LanguageTypeScript, false)
		if err != nil {
			return nil, err
		}
		defer tree.Close()

		lines := position.NewLineIndex(scriptBytes).WithLineOffset(script.StartLine)
		a.analyzeScript(ctx, tree.RootNode(), scriptBytes, lines, res)
	}

	if tpl, ok := vuetpl.ExtractTemplate(source); ok {
		tplRes := vuetpl.ParseTemplate(tpl.Content, tpl.StartLine)
		res.Renders = append(res.Renders, tplRes.Renders...)
		res.Processes = append(res.Processes, tplRes.Handlers...)
	}
	return res, nil
}

// analyzeScript runs the extraction passes over a parsed script and fills
// the result.
func (a *Analyzer) analyzeScript(ctx context.Context, root *ts.Node, source []byte, lines *position.LineIndex, res *Result) {
	imports := collectImports(root, source)
	body := componentBody(root, source)

	rawHooks := collectHooks(body, source, lines)
	res.Processes = append(collectProcesses(body, source, lines), res.Processes...)
	if renders := collectRenderStructure(body, source); len(renders) > 0 {
		res.Renders = append(renders, res.Renders...)
	}

	res.Hooks = a.enrichHooks(ctx, rawHooks, imports, res)
	a.dispatch(res)
	a.emitProcessNodes(res)
}

// enrichHooks runs library attribution and variable classification over
// the raw occurrences.
func (a *Analyzer) enrichHooks(ctx context.Context, raws []model.RawHook, imports map[string]string, res *Result) []model.Hook {
	hooks := make([]model.Hook, 0, len(raws))
	for _, raw := range raws {
		library := a.libraryFor(raw, imports)

		var types map[string]model.VarKind
		switch {
		case raw.HookName == "useReducer":
			// Fixed positional roles; classification never runs.
			types = reducerTypes(raw.Variables)
		case raw.IsReadWritePair:
			types = pairTypes(raw.Variables)
		case a.classifier != nil && len(raw.Variables) > 0:
			types = a.classifier.ClassifyHook(ctx, res.FilePath, res.ContentKey, raw.HookName, varRefs(raw))
		}
		hooks = append(hooks, model.NewHook(raw, library, types))
	}
	return hooks
}

// libraryFor resolves the canonical library of a hook occurrence from the
// file's imports: the imported local name is the callee root (the hook
// itself for bare calls, the chain root for member calls).
func (a *Analyzer) libraryFor(raw model.RawHook, imports map[string]string) string {
	local := raw.HookName
	if raw.CalleePath != "" {
		local = pathRoot(raw.CalleePath)
	}
	module, ok := imports[local]
	if !ok {
		return ""
	}
	// Unclaimed modules (local custom hooks, unknown packages) leave the
	// library empty so name-only dispatch still applies.
	return a.registry.LibraryForImport(module)
}

// dispatch routes every hook through the registry with one shared session
// per analysis. A panicking processor voids only its own occurrence.
func (a *Analyzer) dispatch(res *Result) {
	session := registry.NewSession()
	for i := range res.Hooks {
		h := &res.Hooks[i]
		proc := a.registry.FindProcessor(h)
		if proc == nil {
			continue
		}
		out, err := a.safeProcess(proc, session, h)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("%s at line %d: %v", h.HookName, h.Line, err))
			continue
		}
		if !out.Handled {
			continue
		}
		res.Nodes = append(res.Nodes, out.Nodes...)
		res.Edges = append(res.Edges, out.Edges...)
	}
}

// safeProcess isolates processor panics so one bad occurrence cannot void
// the analysis.
func (a *Analyzer) safeProcess(proc registry.Processor, session *registry.Session, h *model.Hook) (out registry.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("processor panicked",
				"processor", proc.Metadata().ID,
				"hook", h.HookName,
				"line", h.Line,
				"panic", r)
			err = fmt.Errorf("processor %s panicked: %v", proc.Metadata().ID, r)
		}
	}()
	return proc.Process(session, h), nil
}

// emitProcessNodes adds a process node per extracted process, with edges
// to the external entities it calls.
func (a *Analyzer) emitProcessNodes(res *Result) {
	for _, p := range res.Processes {
		node := graph.Node{
			ID:     graph.NodeID(graph.KindProcess, p.Name, p.Line),
			Kind:   graph.KindProcess,
			Label:  p.Name,
			Line:   p.Line,
			Column: p.Column,
			Meta:   map[string]any{"processType": string(p.Type)},
		}
		res.Nodes = append(res.Nodes, node)

		for _, ec := range p.ExternalCalls {
			ext := graph.Node{
				ID:    graph.NodeID(graph.KindExternalOutput, ec.Name, p.Line),
				Kind:  graph.KindExternalOutput,
				Label: ec.Name,
				Line:  p.Line,
			}
			res.Nodes = append(res.Nodes, ext)
			res.Edges = append(res.Edges, graph.Edge{From: node.ID, To: ext.ID, Label: "call"})
		}
	}
}

// componentBody locates the statement scope holding the component's
// hooks: an exported or capitalized function containing JSX, a
// capitalized arrow const, or the program itself (script setup, plain
// scripts).
func componentBody(root *ts.Node, source []byte) *ts.Node {
	for i := uint(0); i < uint(root.ChildCount()); i++ {
		stmt := root.Child(i)
		if stmt.Kind() == "export_statement" {
			for j := uint(0); j < uint(stmt.ChildCount()); j++ {
				if body := functionComponentBody(stmt.Child(j), source); body != nil {
					return body
				}
			}
			continue
		}
		if body := functionComponentBody(stmt, source); body != nil {
			return body
		}
	}
	return root
}

// functionComponentBody matches one candidate statement.
func functionComponentBody(stmt *ts.Node, source []byte) *ts.Node {
	if stmt == nil {
		return nil
	}
	switch stmt.Kind() {
	case "function_declaration":
		name := stmt.ChildByFieldName("name")
		body := stmt.ChildByFieldName("body")
		if name != nil && body != nil && isCapitalized(name.Utf8Text(source)) {
			return body
		}
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < uint(stmt.ChildCount()); i++ {
			declarator := stmt.Child(i)
			if declarator.Kind() != "variable_declarator" {
				continue
			}
			name := declarator.ChildByFieldName("name")
			if name == nil || name.Kind() != "identifier" || !isCapitalized(name.Utf8Text(source)) {
				continue
			}
			value := unwrapExpression(declarator.ChildByFieldName("value"))
			if fn := unwrapComponentWrapper(value, source); fn != nil {
				if body := fn.ChildByFieldName("body"); body != nil && body.Kind() == "statement_block" {
					return body
				}
			}
		}
	}
	return nil
}

// unwrapComponentWrapper sees through memo(...) and forwardRef(...) to the
// inner function literal.
func unwrapComponentWrapper(value *ts.Node, source []byte) *ts.Node {
	if value == nil {
		return nil
	}
	if isFunctionNode(value) {
		return value
	}
	if value.Kind() != "call_expression" {
		return nil
	}
	callee, _ := calleeName(value, source)
	switch callee {
	case "memo", "forwardRef", "observer", "defineComponent":
	default:
		return nil
	}
	args := value.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	for i := uint(0); i < uint(args.ChildCount()); i++ {
		arg := args.Child(i)
		if !arg.IsNamed() {
			continue
		}
		if inner := unwrapExpression(arg); inner != nil && isFunctionNode(inner) {
			return inner
		}
	}
	return nil
}

func isCapitalized(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

func pathRoot(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}

func reducerTypes(vars []string) map[string]model.VarKind {
	types := make(map[string]model.VarKind, len(vars))
	for i, v := range vars {
		if i == 1 {
			types[v] = model.VarFunction
			continue
		}
		types[v] = model.VarData
	}
	return types
}

func pairTypes(vars []string) map[string]model.VarKind {
	return map[string]model.VarKind{
		vars[0]: model.VarData,
		vars[1]: model.VarFunction,
	}
}

func varRefs(raw model.RawHook) []classify.VarRef {
	refs := make([]classify.VarRef, 0, len(raw.Variables))
	for _, v := range raw.Variables {
		refs = append(refs, classify.VarRef{Name: v, Line: raw.Line, Column: raw.Column})
	}
	return refs
}

func contentKey(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}
