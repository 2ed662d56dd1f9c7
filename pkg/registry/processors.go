package registry

import (
	"regexp"
	"strings"

	"github.com/gnana997/flowlens/pkg/graph"
	"github.com/gnana997/flowlens/pkg/model"
)

var (
	rtkHookPattern    = regexp.MustCompile(`^use\w+(Query|Mutation)$`)
	storeHookPattern  = regexp.MustCompile(`^use\w*Store$`)
	customHookPattern = regexp.MustCompile(`^use[A-Z]\w*$`)
)

// defaultProcessors returns the built-in processor set in no particular
// order; the registry sorts by priority.
func defaultProcessors() []Processor {
	return []Processor{
		newTRPCProcessor(),
		newRouterProcessor(),
		newRTKQueryProcessor(),
		newSWRProcessor(),
		newTanStackQueryProcessor(),
		newApolloProcessor(),
		newHookFormProcessor(),
		newReduxProcessor(),
		newZustandProcessor(),
		newPiniaProcessor(),
		newVueCoreProcessor(),
		newReactCoreProcessor(),
		newCustomHookProcessor(),
	}
}

func newSWRProcessor() Processor {
	return NewTableProcessor(
		Metadata{
			ID:            "swr",
			Library:       "swr",
			ImportSources: []string{"swr", "swr/mutation"},
			HookNames:     []string{"useSWR", "useSWRMutation", "useSWRImmutable"},
			Priority:      80,
		},
		map[string]hookRule{
			"useSWR":          {emit: EmitConsolidated, resource: ResourceFetch},
			"useSWRImmutable": {emit: EmitConsolidated, resource: ResourceFetch, meta: map[string]any{"immutable": true}},
			"useSWRMutation":  {emit: EmitConsolidated, resource: ResourceMutate, meta: map[string]any{"isMutation": true}},
		},
		nil,
	)
}

func newTanStackQueryProcessor() Processor {
	return NewTableProcessor(
		Metadata{
			ID:            "tanstack-query",
			Library:       "@tanstack/react-query",
			ImportSources: []string{"@tanstack/react-query", "react-query", "@tanstack/vue-query"},
			HookNames:     []string{"useQuery", "useMutation", "useInfiniteQuery", "useQueryClient", "useQueries"},
			Priority:      78,
		},
		map[string]hookRule{
			"useQuery":         {emit: EmitConsolidated, resource: ResourceFetch},
			"useInfiniteQuery": {emit: EmitConsolidated, resource: ResourceFetch, meta: map[string]any{"infinite": true}},
			"useQueries":       {emit: EmitConsolidated, resource: ResourceFetch},
			"useMutation":      {emit: EmitConsolidated, resource: ResourceMutate, meta: map[string]any{"isMutation": true}},
		},
		&hookRule{emit: EmitConsolidated},
	)
}

func newApolloProcessor() Processor {
	// The resource is the GraphQL operation document, conventionally passed
	// as the first identifier argument (useQuery(GET_USERS)).
	gqlDoc := func(h *model.Hook) string {
		if len(h.ArgumentIdents) > 0 {
			return h.ArgumentIdents[0]
		}
		return ""
	}
	return NewTableProcessor(
		Metadata{
			ID:            "apollo",
			Library:       "@apollo/client",
			ImportSources: []string{"@apollo/client", "@apollo/react-hooks"},
			HookNames:     []string{"useQuery", "useMutation", "useLazyQuery", "useSubscription", "useApolloClient"},
			Priority:      76,
		},
		map[string]hookRule{
			"useQuery":        {emit: EmitConsolidated, resource: ResourceFetch, resourceLabel: gqlDoc, meta: map[string]any{"graphql": true}},
			"useLazyQuery":    {emit: EmitConsolidated, resource: ResourceFetch, resourceLabel: gqlDoc, meta: map[string]any{"graphql": true, "lazy": true}},
			"useSubscription": {emit: EmitConsolidated, resource: ResourceFetch, resourceLabel: gqlDoc, meta: map[string]any{"graphql": true, "subscription": true}},
			"useMutation":     {emit: EmitConsolidated, resource: ResourceMutate, resourceLabel: gqlDoc, meta: map[string]any{"graphql": true, "isMutation": true}},
		},
		&hookRule{emit: EmitConsolidated},
	)
}

func newHookFormProcessor() Processor {
	return NewTableProcessor(
		Metadata{
			ID:            "react-hook-form",
			Library:       "react-hook-form",
			ImportSources: []string{"react-hook-form"},
			HookNames:     []string{"useForm", "useFieldArray", "useFormContext", "useWatch", "useController"},
			Priority:      74,
			Merge:         true,
		},
		map[string]hookRule{
			"useForm": {emit: EmitConsolidated, meta: map[string]any{"isForm": true}},
		},
		&hookRule{emit: EmitConsolidated, meta: map[string]any{"isForm": true}},
	)
}

func newReduxProcessor() Processor {
	return NewTableProcessor(
		Metadata{
			ID:            "react-redux",
			Library:       "react-redux",
			ImportSources: []string{"react-redux"},
			HookNames:     []string{"useSelector", "useDispatch", "useStore"},
			Priority:      72,
		},
		map[string]hookRule{
			"useSelector": {
				emit:          EmitConsolidated,
				resource:      ResourceFetch,
				resourceLabel: func(*model.Hook) string { return "store" },
			},
			"useDispatch": {emit: EmitSplit},
			"useStore":    {emit: EmitSplit},
		},
		nil,
	)
}

func newZustandProcessor() Processor {
	return NewTableProcessor(
		Metadata{
			ID:            "zustand",
			Library:       "zustand",
			ImportSources: []string{"zustand"},
			HookPatterns:  []*regexp.Regexp{storeHookPattern},
			Priority:      70,
		},
		nil,
		&hookRule{emit: EmitSplit},
	)
}

func newPiniaProcessor() Processor {
	return NewTableProcessor(
		Metadata{
			ID:            "pinia",
			Library:       "pinia",
			ImportSources: []string{"pinia"},
			HookNames:     []string{"storeToRefs"},
			HookPatterns:  []*regexp.Regexp{storeHookPattern},
			Priority:      68,
		},
		nil,
		&hookRule{emit: EmitSplit},
	)
}

// newCustomHookProcessor is the generic fallback for the useXxx convention.
// Lowest priority: it only sees occurrences no library processor claimed.
func newCustomHookProcessor() Processor {
	return NewTableProcessor(
		Metadata{
			ID:           "custom-hook",
			Library:      "custom",
			HookPatterns: []*regexp.Regexp{customHookPattern},
			Priority:     10,
		},
		nil,
		&hookRule{emit: EmitSplit},
	)
}

// rtkQueryProcessor handles code-generated RTK Query hooks
// (useGetPokemonQuery, useUpdatePostMutation). The endpoint name is encoded
// in the hook name itself, so this cannot be a pure table row.
type rtkQueryProcessor struct {
	md Metadata
}

func newRTKQueryProcessor() Processor {
	return &rtkQueryProcessor{md: Metadata{
		ID:            "rtk-query",
		Library:       "@reduxjs/toolkit",
		ImportSources: []string{"@reduxjs/toolkit/query/react", "@reduxjs/toolkit/query"},
		HookPatterns:  []*regexp.Regexp{rtkHookPattern},
		Priority:      85,
	}}
}

func (p *rtkQueryProcessor) Metadata() Metadata { return p.md }

func (p *rtkQueryProcessor) ShouldHandle(h *model.Hook) bool {
	// Generated hooks are imported from generated API modules, so the
	// import source rarely names the library; the name shape is the signal.
	if !rtkHookPattern.MatchString(h.HookName) {
		return false
	}
	// Plain useQuery/useMutation belong to other processors.
	return h.HookName != "useQuery" && h.HookName != "useMutation"
}

func (p *rtkQueryProcessor) Process(s *Session, h *model.Hook) Result {
	endpoint, isMutation := rtkEndpoint(h.HookName)

	rule := hookRule{
		emit:          EmitConsolidated,
		resource:      ResourceFetch,
		resourceLabel: func(*model.Hook) string { return endpoint },
		meta:          map[string]any{"endpoint": endpoint},
	}
	if isMutation {
		rule.resource = ResourceMutate
		rule.meta["isMutation"] = true
	}

	table := TableProcessor{md: p.md, rules: map[string]hookRule{h.HookName: rule}}
	return table.Process(s, h)
}

// rtkEndpoint recovers the endpoint name from a generated hook name:
// useGetPokemonQuery → ("getPokemon", false).
func rtkEndpoint(hookName string) (string, bool) {
	name := strings.TrimPrefix(hookName, "use")
	isMutation := strings.HasSuffix(name, "Mutation")
	name = strings.TrimSuffix(name, "Query")
	name = strings.TrimSuffix(name, "Mutation")
	if name == "" {
		return hookName, isMutation
	}
	return strings.ToLower(name[:1]) + name[1:], isMutation
}

// trpcProcessor handles trpc.<path...>.useQuery / .useMutation calls. The
// procedure path lives in the member-access chain, not the hook name.
type trpcProcessor struct {
	md Metadata
}

func newTRPCProcessor() Processor {
	return &trpcProcessor{md: Metadata{
		ID:            "trpc",
		Library:       "@trpc/react-query",
		ImportSources: []string{"@trpc/react-query", "@trpc/client"},
		HookNames:     []string{"useQuery", "useMutation", "useSubscription", "useInfiniteQuery"},
		Priority:      95,
	}}
}

func (p *trpcProcessor) Metadata() Metadata { return p.md }

func (p *trpcProcessor) ShouldHandle(h *model.Hook) bool {
	return trpcPath(h.CalleePath) != ""
}

func (p *trpcProcessor) Process(s *Session, h *model.Hook) Result {
	path := trpcPath(h.CalleePath)
	isMutation := h.HookName == "useMutation"

	rule := hookRule{
		emit:          EmitConsolidated,
		resource:      ResourceFetch,
		resourceLabel: func(*model.Hook) string { return path },
		meta:          map[string]any{"trpc": true, "procedure": path},
	}
	if isMutation {
		rule.resource = ResourceMutate
		rule.meta["isMutation"] = true
	}

	table := TableProcessor{md: p.md, rules: map[string]hookRule{h.HookName: rule}}
	return table.Process(s, h)
}

// trpcPath extracts "user.getById" from "trpc.user.getById.useQuery".
// Returns "" when the callee is not a tRPC client chain.
func trpcPath(calleePath string) string {
	if calleePath == "" {
		return ""
	}
	parts := strings.Split(calleePath, ".")
	if len(parts) < 3 {
		return ""
	}
	root := parts[0]
	if root != "trpc" && root != "api" && !strings.HasSuffix(root, "Trpc") {
		return ""
	}
	tail := parts[len(parts)-1]
	if !strings.HasPrefix(tail, "use") {
		return ""
	}
	return strings.Join(parts[1:len(parts)-1], ".")
}

// routerProcessor handles navigation/URL hooks across React Router and the
// Next.js router. All URL-reading hooks in one component share a single
// "URL input" node, and all navigation hooks share a single "URL output"
// node; the shared ids live in the Session.
type routerProcessor struct {
	md Metadata
}

func newRouterProcessor() Processor {
	return &routerProcessor{md: Metadata{
		ID:            "router",
		Library:       "react-router-dom",
		ImportSources: []string{"react-router-dom", "react-router", "next/router", "next/navigation"},
		HookNames: []string{
			"useNavigate", "useHistory", "useLocation", "useParams",
			"useSearchParams", "useRouter", "usePathname",
		},
		Priority: 90,
	}}
}

func (p *routerProcessor) Metadata() Metadata { return p.md }

func (p *routerProcessor) ShouldHandle(h *model.Hook) bool {
	return p.md.Accepts(h)
}

func (p *routerProcessor) Process(s *Session, h *model.Hook) Result {
	switch h.HookName {
	case "useNavigate", "useHistory":
		return p.emitWriter(s, h)
	case "useSearchParams":
		return p.emitSearchParams(s, h)
	default:
		return p.emitReader(s, h)
	}
}

// emitReader connects URL → data node(s) for location/params style hooks.
func (p *routerProcessor) emitReader(s *Session, h *model.Hook) Result {
	var res Result
	urlNode, created := s.URLInput(h.Line)
	if created {
		res.Nodes = append(res.Nodes, urlNode)
	}

	names := h.Variables
	if len(names) == 0 {
		names = []string{h.HookName}
	}
	for _, v := range names {
		n := graph.Node{
			ID:     graph.NodeID(graph.KindDataStore, v, h.Line),
			Kind:   graph.KindDataStore,
			Label:  v,
			Line:   h.Line,
			Column: h.Column,
			Meta:   map[string]any{"library": p.md.Library, "hook": h.HookName},
		}
		res.Nodes = append(res.Nodes, n)
		res.Edges = append(res.Edges, graph.Edge{From: urlNode.ID, To: n.ID, Label: "url"})
	}
	res.Handled = true
	return res
}

// emitWriter connects a navigate function node → URL output.
func (p *routerProcessor) emitWriter(s *Session, h *model.Hook) Result {
	var res Result
	urlNode, created := s.URLOutput(h.Line)
	if created {
		res.Nodes = append(res.Nodes, urlNode)
	}

	name := "navigate"
	if len(h.Variables) > 0 {
		name = h.Variables[0]
	}
	n := graph.Node{
		ID:     graph.NodeID(graph.KindProcess, name, h.Line),
		Kind:   graph.KindProcess,
		Label:  name,
		Line:   h.Line,
		Column: h.Column,
		Meta:   map[string]any{"library": p.md.Library, "hook": h.HookName},
	}
	res.Nodes = append(res.Nodes, n)
	res.Edges = append(res.Edges, graph.Edge{From: n.ID, To: urlNode.ID, Label: "navigate"})
	res.Handled = true
	return res
}

// emitSearchParams maps the positional [params, setParams] pair: index 0
// reads from the URL input, index 1 writes to the URL output.
func (p *routerProcessor) emitSearchParams(s *Session, h *model.Hook) Result {
	var res Result

	if len(h.Variables) > 0 {
		in, created := s.URLInput(h.Line)
		if created {
			res.Nodes = append(res.Nodes, in)
		}
		n := graph.Node{
			ID:    graph.NodeID(graph.KindDataStore, h.Variables[0], h.Line),
			Kind:  graph.KindDataStore,
			Label: h.Variables[0],
			Line:  h.Line,
			Meta:  map[string]any{"library": p.md.Library, "hook": h.HookName},
		}
		res.Nodes = append(res.Nodes, n)
		res.Edges = append(res.Edges, graph.Edge{From: in.ID, To: n.ID, Label: "url"})
	}
	if len(h.Variables) > 1 {
		out, created := s.URLOutput(h.Line)
		if created {
			res.Nodes = append(res.Nodes, out)
		}
		n := graph.Node{
			ID:    graph.NodeID(graph.KindProcess, h.Variables[1], h.Line),
			Kind:  graph.KindProcess,
			Label: h.Variables[1],
			Line:  h.Line,
			Meta:  map[string]any{"library": p.md.Library, "hook": h.HookName},
		}
		res.Nodes = append(res.Nodes, n)
		res.Edges = append(res.Edges, graph.Edge{From: n.ID, To: out.ID, Label: "navigate"})
	}
	res.Handled = len(res.Nodes) > 0
	return res
}
