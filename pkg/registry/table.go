package registry

import (
	"github.com/gnana997/flowlens/pkg/graph"
	"github.com/gnana997/flowlens/pkg/model"
)

// EmitStrategy selects how a hook occurrence maps onto diagram nodes.
type EmitStrategy int

const (
	// EmitConsolidated produces one node per call site carrying all matched
	// properties as metadata, the common "library hook" box.
	EmitConsolidated EmitStrategy = iota

	// EmitSplit produces one node per classified variable, with data and
	// action variables going to separate subgraphs. Used for context,
	// custom hooks and store libraries.
	EmitSplit
)

// ResourceKind pairs a hook node with an external resource node.
type ResourceKind int

const (
	// ResourceNone emits no resource node.
	ResourceNone ResourceKind = iota
	// ResourceFetch emits an input resource with an edge resource → hook.
	ResourceFetch
	// ResourceMutate emits an output resource with an edge hook → resource.
	ResourceMutate
)

// hookRule is one row of a processor's return-value mapping table.
type hookRule struct {
	emit     EmitStrategy
	resource ResourceKind

	// meta is static metadata copied onto the hook node.
	meta map[string]any

	// resourceLabel overrides the default resource label (first literal
	// argument, then first identifier argument, then the hook name).
	resourceLabel func(h *model.Hook) string
}

// TableProcessor interprets a per-hook rule table. Most library processors
// are pure "map named properties to node kinds" strategies and compress
// into this one implementation; genuinely unique emission logic (router
// singletons, tRPC paths) gets its own type.
type TableProcessor struct {
	md          Metadata
	rules       map[string]hookRule
	defaultRule *hookRule
}

// NewTableProcessor builds a table-driven processor.
func NewTableProcessor(md Metadata, rules map[string]hookRule, defaultRule *hookRule) *TableProcessor {
	return &TableProcessor{md: md, rules: rules, defaultRule: defaultRule}
}

// Metadata implements Processor.
func (t *TableProcessor) Metadata() Metadata { return t.md }

// ShouldHandle implements Processor using the shared metadata contract.
func (t *TableProcessor) ShouldHandle(h *model.Hook) bool {
	return t.md.Accepts(h)
}

// Process implements Processor.
func (t *TableProcessor) Process(s *Session, h *model.Hook) Result {
	rule, ok := t.rules[h.HookName]
	if !ok {
		if t.defaultRule == nil {
			return Result{}
		}
		rule = *t.defaultRule
	}

	switch rule.emit {
	case EmitSplit:
		return t.emitSplit(h)
	default:
		return t.emitConsolidated(s, h, rule)
	}
}

// emitConsolidated produces the single "library hook" node, optionally
// paired with an external resource node.
func (t *TableProcessor) emitConsolidated(s *Session, h *model.Hook, rule hookRule) Result {
	var res Result

	hookNode := graph.Node{
		ID:     graph.NodeID(graph.KindDataStore, h.HookName, h.Line),
		Kind:   graph.KindDataStore,
		Label:  hookLabel(h),
		Line:   h.Line,
		Column: h.Column,
		Meta:   consolidatedMeta(t.md.Library, h, rule.meta),
	}

	if t.md.Merge {
		key := t.md.ID + ":" + h.HookName
		if id, ok := s.MergedNode(key); ok {
			// Subsequent call sites fold into the first node.
			res.Handled = true
			res.Edges = t.resourceEdges(s, h, rule, id, &res)
			return res
		}
		s.RememberMerged(key, hookNode.ID)
	}

	res.Nodes = append(res.Nodes, hookNode)
	res.Edges = t.resourceEdges(s, h, rule, hookNode.ID, &res)
	res.Handled = true
	return res
}

// resourceEdges emits the paired resource node and its directed edge.
func (t *TableProcessor) resourceEdges(s *Session, h *model.Hook, rule hookRule, hookNodeID string, res *Result) []graph.Edge {
	edges := res.Edges
	if rule.resource == ResourceNone {
		return edges
	}

	label := resourceLabel(h, rule)
	switch rule.resource {
	case ResourceFetch:
		n := graph.Node{
			ID:    graph.NodeID(graph.KindExternalInput, label, h.Line),
			Kind:  graph.KindExternalInput,
			Label: label,
			Line:  h.Line,
		}
		res.Nodes = append(res.Nodes, n)
		edges = append(edges, graph.Edge{From: n.ID, To: hookNodeID, Label: "fetch"})
	case ResourceMutate:
		n := graph.Node{
			ID:    graph.NodeID(graph.KindExternalOutput, label, h.Line),
			Kind:  graph.KindExternalOutput,
			Label: label,
			Line:  h.Line,
		}
		res.Nodes = append(res.Nodes, n)
		edges = append(edges, graph.Edge{From: hookNodeID, To: n.ID, Label: "mutate"})
	}
	return edges
}

// emitSplit produces one node per classified variable.
func (t *TableProcessor) emitSplit(h *model.Hook) Result {
	var res Result
	for _, v := range h.Variables {
		kind := h.VariableTypes[v]
		switch kind {
		case model.VarFunction:
			res.Nodes = append(res.Nodes, graph.Node{
				ID:     graph.NodeID(graph.KindProcess, v, h.Line),
				Kind:   graph.KindProcess,
				Label:  v,
				Line:   h.Line,
				Column: h.Column,
				Meta: map[string]any{
					"library":  t.md.Library,
					"hook":     h.HookName,
					"subgraph": "actions",
				},
			})
		default:
			// Unclassified variables default to data.
			res.Nodes = append(res.Nodes, graph.Node{
				ID:     graph.NodeID(graph.KindDataStore, v, h.Line),
				Kind:   graph.KindDataStore,
				Label:  v,
				Line:   h.Line,
				Column: h.Column,
				Meta: map[string]any{
					"library":  t.md.Library,
					"hook":     h.HookName,
					"subgraph": "data",
				},
			})
		}
	}
	res.Handled = len(res.Nodes) > 0
	return res
}

// hookLabel prefers the first bound variable as a human label, falling back
// to the hook name for bare calls.
func hookLabel(h *model.Hook) string {
	if len(h.Variables) > 0 {
		return h.Variables[0]
	}
	return h.HookName
}

// resourceLabel picks the label for the paired resource node.
func resourceLabel(h *model.Hook, rule hookRule) string {
	if rule.resourceLabel != nil {
		if label := rule.resourceLabel(h); label != "" {
			return label
		}
	}
	for _, arg := range h.Arguments {
		if arg.Kind == model.LiteralString && arg.Value != "" {
			return arg.Value
		}
	}
	if len(h.ArgumentIdents) > 0 {
		return h.ArgumentIdents[0]
	}
	return h.HookName
}

// consolidatedMeta assembles the metadata bag for a consolidated hook node.
func consolidatedMeta(library string, h *model.Hook, static map[string]any) map[string]any {
	meta := map[string]any{
		"library":   library,
		"hook":      h.HookName,
		"variables": append([]string(nil), h.Variables...),
	}
	for _, v := range h.Variables {
		switch v {
		case "isLoading", "loading", "isValidating", "isFetching", "isPending", "isMutating":
			meta["isLoading"] = true
		case "isError", "error":
			meta["isError"] = true
		}
	}
	if len(h.Dependencies) > 0 {
		meta["dependencies"] = append([]string(nil), h.Dependencies...)
	}
	for k, v := range static {
		meta[k] = v
	}
	if kinds := varKindMeta(h); len(kinds) > 0 {
		meta["variableTypes"] = kinds
	}
	return meta
}

func varKindMeta(h *model.Hook) map[string]string {
	if len(h.VariableTypes) == 0 {
		return nil
	}
	out := make(map[string]string, len(h.VariableTypes))
	for name, kind := range h.VariableTypes {
		out[name] = string(kind)
	}
	return out
}
