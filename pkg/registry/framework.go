package registry

import (
	"github.com/gnana997/flowlens/pkg/graph"
	"github.com/gnana997/flowlens/pkg/model"
)

// reactCoreProcessor handles React's own state hooks. Emission differs per
// hook (setter metadata for useState, dispatch → state edge for useReducer),
// so this stays a distinct code path rather than a table.
type reactCoreProcessor struct {
	md Metadata
}

func newReactCoreProcessor() Processor {
	return &reactCoreProcessor{md: Metadata{
		ID:            "react-core",
		Library:       "react",
		ImportSources: []string{"react", "preact/hooks"},
		HookNames: []string{
			"useState", "useReducer", "useRef", "useContext",
			"useMemo", "useDeferredValue", "useTransition", "useId",
		},
		Priority: 60,
	}}
}

func (p *reactCoreProcessor) Metadata() Metadata { return p.md }

func (p *reactCoreProcessor) ShouldHandle(h *model.Hook) bool {
	return p.md.Accepts(h)
}

func (p *reactCoreProcessor) Process(s *Session, h *model.Hook) Result {
	switch h.HookName {
	case "useState":
		return p.emitState(h)
	case "useReducer":
		return p.emitReducer(h)
	case "useContext":
		return p.emitContext(h)
	default:
		return p.emitValue(h)
	}
}

// emitState produces one data-store node for the state value; the setter is
// recorded as metadata, not a node of its own.
func (p *reactCoreProcessor) emitState(h *model.Hook) Result {
	name := hookLabel(h)
	meta := map[string]any{"library": p.md.Library, "hook": h.HookName}
	if h.IsReadWritePair {
		meta["setter"] = h.Variables[1]
	}
	if h.InitialValue != "" {
		meta["initialValue"] = h.InitialValue
	}
	if h.TypeParameter != "" {
		meta["type"] = h.TypeParameter
	}
	return Result{
		Nodes: []graph.Node{{
			ID:     graph.NodeID(graph.KindDataStore, name, h.Line),
			Kind:   graph.KindDataStore,
			Label:  name,
			Line:   h.Line,
			Column: h.Column,
			Meta:   meta,
		}},
		Handled: true,
	}
}

// emitReducer produces a state node plus a dispatch process node with a
// dispatch → state edge. No per-variable classification is consulted: the
// first variable is always state, the second always dispatch.
func (p *reactCoreProcessor) emitReducer(h *model.Hook) Result {
	stateName := "state"
	if len(h.Variables) > 0 && h.Variables[0] != "" {
		stateName = h.Variables[0]
	}
	dispatchName := "dispatch"
	if len(h.Variables) > 1 {
		dispatchName = h.Variables[1]
	}

	stateMeta := map[string]any{"library": p.md.Library, "hook": h.HookName}
	if len(h.StateProperties) > 0 {
		stateMeta["stateProperties"] = append([]string(nil), h.StateProperties...)
	}

	stateNode := graph.Node{
		ID:     graph.NodeID(graph.KindDataStore, stateName, h.Line),
		Kind:   graph.KindDataStore,
		Label:  stateName,
		Line:   h.Line,
		Column: h.Column,
		Meta:   stateMeta,
	}
	dispatchNode := graph.Node{
		ID:    graph.NodeID(graph.KindProcess, dispatchName, h.Line),
		Kind:  graph.KindProcess,
		Label: dispatchName,
		Line:  h.Line,
		Meta:  map[string]any{"library": p.md.Library, "hook": h.HookName},
	}
	return Result{
		Nodes:   []graph.Node{stateNode, dispatchNode},
		Edges:   []graph.Edge{{From: dispatchNode.ID, To: stateNode.ID, Label: "dispatch"}},
		Handled: true,
	}
}

// emitContext splits destructured context members into per-variable nodes.
func (p *reactCoreProcessor) emitContext(h *model.Hook) Result {
	table := TableProcessor{md: p.md, defaultRule: &hookRule{emit: EmitSplit}}
	res := table.Process(nil, h)
	if ctx := firstNonEmpty(h.ArgumentIdents); ctx != "" {
		for i := range res.Nodes {
			res.Nodes[i].Meta["context"] = ctx
		}
	}
	return res
}

// emitValue covers useRef/useMemo and the other single-value hooks.
func (p *reactCoreProcessor) emitValue(h *model.Hook) Result {
	name := hookLabel(h)
	meta := map[string]any{"library": p.md.Library, "hook": h.HookName}
	if h.HookName == "useRef" {
		meta["isRef"] = true
	}
	if h.HookName == "useMemo" {
		meta["derived"] = true
	}
	if len(h.Dependencies) > 0 {
		meta["dependencies"] = append([]string(nil), h.Dependencies...)
	}
	return Result{
		Nodes: []graph.Node{{
			ID:     graph.NodeID(graph.KindDataStore, name, h.Line),
			Kind:   graph.KindDataStore,
			Label:  name,
			Line:   h.Line,
			Column: h.Column,
			Meta:   meta,
		}},
		Handled: true,
	}
}

// vueCoreProcessor handles Vue composition-API state plus the compiler
// macros. defineProps/defineEmits share singleton "props"/"emits" resource
// nodes across call sites in one component (session-merged).
type vueCoreProcessor struct {
	md Metadata
}

func newVueCoreProcessor() Processor {
	return &vueCoreProcessor{md: Metadata{
		ID:            "vue-core",
		Library:       "vue",
		ImportSources: []string{"vue", "@vue/runtime-core"},
		HookNames: []string{
			"ref", "reactive", "computed", "shallowRef", "toRef", "toRefs",
			"inject", "provide", "defineProps", "defineEmits", "defineModel",
		},
		Priority: 65,
		Merge:    true,
	}}
}

func (p *vueCoreProcessor) Metadata() Metadata { return p.md }

func (p *vueCoreProcessor) ShouldHandle(h *model.Hook) bool {
	return p.md.Accepts(h)
}

func (p *vueCoreProcessor) Process(s *Session, h *model.Hook) Result {
	switch h.HookName {
	case "defineProps", "defineModel":
		return p.emitProps(s, h)
	case "defineEmits":
		return p.emitEmits(s, h)
	case "inject":
		return p.emitInject(h)
	case "provide":
		return p.emitProvide(h)
	default:
		return p.emitReactive(h)
	}
}

// emitReactive covers ref/reactive/computed values.
func (p *vueCoreProcessor) emitReactive(h *model.Hook) Result {
	name := hookLabel(h)
	meta := map[string]any{"library": p.md.Library, "hook": h.HookName}
	if h.HookName == "computed" {
		meta["derived"] = true
	}
	if h.InitialValue != "" {
		meta["initialValue"] = h.InitialValue
	}
	return Result{
		Nodes: []graph.Node{{
			ID:     graph.NodeID(graph.KindDataStore, name, h.Line),
			Kind:   graph.KindDataStore,
			Label:  name,
			Line:   h.Line,
			Column: h.Column,
			Meta:   meta,
		}},
		Handled: true,
	}
}

// emitProps emits the shared props input node plus one data node per bound
// prop, each fed from props.
func (p *vueCoreProcessor) emitProps(s *Session, h *model.Hook) Result {
	var res Result

	propsID, ok := s.MergedNode("vue-core:props")
	if !ok {
		propsNode := graph.Node{
			ID:    graph.NodeID(graph.KindExternalInput, "props", h.Line),
			Kind:  graph.KindExternalInput,
			Label: "props",
			Line:  h.Line,
		}
		res.Nodes = append(res.Nodes, propsNode)
		s.RememberMerged("vue-core:props", propsNode.ID)
		propsID = propsNode.ID
	}

	names := h.Variables
	if len(names) == 0 {
		names = h.StateProperties
	}
	for _, v := range names {
		n := graph.Node{
			ID:    graph.NodeID(graph.KindDataStore, v, h.Line),
			Kind:  graph.KindDataStore,
			Label: v,
			Line:  h.Line,
			Meta:  map[string]any{"library": p.md.Library, "hook": h.HookName, "source": "props"},
		}
		res.Nodes = append(res.Nodes, n)
		res.Edges = append(res.Edges, graph.Edge{From: propsID, To: n.ID, Label: "prop"})
	}
	res.Handled = true
	return res
}

// emitEmits emits the shared emits output node plus the emit function node.
func (p *vueCoreProcessor) emitEmits(s *Session, h *model.Hook) Result {
	var res Result

	emitsID, ok := s.MergedNode("vue-core:emits")
	if !ok {
		emitsNode := graph.Node{
			ID:    graph.NodeID(graph.KindExternalOutput, "emits", h.Line),
			Kind:  graph.KindExternalOutput,
			Label: "emits",
			Line:  h.Line,
		}
		res.Nodes = append(res.Nodes, emitsNode)
		s.RememberMerged("vue-core:emits", emitsNode.ID)
		emitsID = emitsNode.ID
	}

	name := "emit"
	if len(h.Variables) > 0 {
		name = h.Variables[0]
	}
	n := graph.Node{
		ID:    graph.NodeID(graph.KindProcess, name, h.Line),
		Kind:  graph.KindProcess,
		Label: name,
		Line:  h.Line,
		Meta:  map[string]any{"library": p.md.Library, "hook": h.HookName},
	}
	res.Nodes = append(res.Nodes, n)
	res.Edges = append(res.Edges, graph.Edge{From: n.ID, To: emitsID, Label: "emit"})
	res.Handled = true
	return res
}

// emitInject pairs the injected value with an input node named by the
// injection key.
func (p *vueCoreProcessor) emitInject(h *model.Hook) Result {
	key := h.HookName
	if len(h.Arguments) > 0 && h.Arguments[0].Kind == model.LiteralString {
		key = h.Arguments[0].Value
	} else if len(h.ArgumentIdents) > 0 {
		key = h.ArgumentIdents[0]
	}

	in := graph.Node{
		ID:    graph.NodeID(graph.KindExternalInput, key, h.Line),
		Kind:  graph.KindExternalInput,
		Label: key,
		Line:  h.Line,
		Meta:  map[string]any{"library": p.md.Library, "hook": h.HookName},
	}
	res := Result{Nodes: []graph.Node{in}, Handled: true}

	if len(h.Variables) > 0 {
		n := graph.Node{
			ID:    graph.NodeID(graph.KindDataStore, h.Variables[0], h.Line),
			Kind:  graph.KindDataStore,
			Label: h.Variables[0],
			Line:  h.Line,
			Meta:  map[string]any{"library": p.md.Library, "hook": h.HookName},
		}
		res.Nodes = append(res.Nodes, n)
		res.Edges = append(res.Edges, graph.Edge{From: in.ID, To: n.ID, Label: "inject"})
	}
	return res
}

// emitProvide records the provided key as an output node.
func (p *vueCoreProcessor) emitProvide(h *model.Hook) Result {
	key := "provide"
	if len(h.Arguments) > 0 && h.Arguments[0].Kind == model.LiteralString {
		key = h.Arguments[0].Value
	} else if len(h.ArgumentIdents) > 0 {
		key = h.ArgumentIdents[0]
	}
	return Result{
		Nodes: []graph.Node{{
			ID:    graph.NodeID(graph.KindExternalOutput, key, h.Line),
			Kind:  graph.KindExternalOutput,
			Label: key,
			Line:  h.Line,
			Meta:  map[string]any{"library": p.md.Library, "hook": h.HookName},
		}},
		Handled: true,
	}
}

func firstNonEmpty(list []string) string {
	for _, s := range list {
		if s != "" {
			return s
		}
	}
	return ""
}
