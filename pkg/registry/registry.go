package registry

import (
	"log/slog"
	"sort"

	"github.com/gnana997/flowlens/pkg/model"
)

// Registry holds registered processors and resolves dispatch.
type Registry struct {
	// all is the full list, sorted by priority descending; ties keep
	// registration order.
	all []Processor

	// byHookName indexes processors by each exact hook name they declare,
	// in priority order.
	byHookName map[string][]Processor

	// byLibrary indexes processors by canonical library name.
	byLibrary map[string][]Processor

	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byHookName: make(map[string][]Processor),
		byLibrary:  make(map[string][]Processor),
		logger:     logger,
	}
}

// Default creates a registry populated with the built-in processor set.
func Default(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	for _, p := range defaultProcessors() {
		r.Register(p)
	}
	return r
}

// Register adds a processor and re-sorts the dispatch order. Registration
// happens once at process start; Register is not safe for concurrent use
// with FindProcessor.
func (r *Registry) Register(p Processor) {
	r.all = append(r.all, p)
	sort.SliceStable(r.all, func(i, j int) bool {
		return r.all[i].Metadata().Priority > r.all[j].Metadata().Priority
	})

	md := p.Metadata()
	for _, name := range md.HookNames {
		r.byHookName[name] = insertByPriority(r.byHookName[name], p)
	}
	r.byLibrary[md.Library] = insertByPriority(r.byLibrary[md.Library], p)

	r.logger.Debug("registered processor",
		"id", md.ID,
		"library", md.Library,
		"priority", md.Priority)
}

// insertByPriority keeps an index slice sorted by priority descending with
// stable ties.
func insertByPriority(list []Processor, p Processor) []Processor {
	list = append(list, p)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Metadata().Priority > list[j].Metadata().Priority
	})
	return list
}

// FindProcessor resolves the processor for a hook occurrence.
//
// Phase 1 probes the exact-name index in priority order. Phase 2 falls back
// to the full priority-ordered list, skipping processors already ruled out
// in phase 1, so pattern-only processors still participate. Returns nil
// when nothing matches.
func (r *Registry) FindProcessor(h *model.Hook) Processor {
	probed := make(map[Processor]struct{})

	for _, p := range r.byHookName[h.HookName] {
		probed[p] = struct{}{}
		if p.ShouldHandle(h) {
			return p
		}
	}

	for _, p := range r.all {
		if _, done := probed[p]; done {
			continue
		}
		if !p.Metadata().MatchesHookName(h.HookName) {
			continue
		}
		if p.ShouldHandle(h) {
			return p
		}
	}
	return nil
}

// ForLibrary returns the processors registered under a canonical library
// name, in priority order.
func (r *Registry) ForLibrary(name string) []Processor {
	return r.byLibrary[name]
}

// LibraryForImport maps a module specifier seen in an import statement to
// the canonical library name of the highest-priority processor claiming it.
// Returns "" when no processor claims the source.
func (r *Registry) LibraryForImport(source string) string {
	for _, p := range r.all {
		md := p.Metadata()
		if md.MatchesLibrary(source) {
			return md.Library
		}
	}
	return ""
}

// Processors returns the full dispatch order, for diagnostics.
func (r *Registry) Processors() []Processor {
	out := make([]Processor, len(r.all))
	copy(out, r.all)
	return out
}
