// Package registry dispatches recognized hook occurrences to per-library
// processors that translate each library's return shapes into diagram
// nodes and edges.
//
// Dispatch is priority-ordered with a two-phase lookup: an exact
// hook-name index keeps the common case O(1), and a fallback scan lets
// pattern-matching processors (generated RTK Query hooks, tRPC nested
// paths, the generic custom-hook convention) participate without being
// probed on every call.
package registry

import (
	"regexp"

	"github.com/gnana997/flowlens/pkg/graph"
	"github.com/gnana997/flowlens/pkg/model"
)

// Metadata describes a registered processor. Immutable after registration.
type Metadata struct {
	// ID uniquely identifies the processor.
	ID string

	// Library is the canonical library name ("swr", "@tanstack/react-query").
	Library string

	// ImportSources are module specifiers that attribute a hook to this
	// library during import detection.
	ImportSources []string

	// HookNames are exact hook-name strings indexed for the fast path.
	HookNames []string

	// HookPatterns match hook names the exact index cannot cover.
	HookPatterns []*regexp.Regexp

	// Priority orders dispatch; higher wins. Ties break by registration
	// order.
	Priority int

	// Merge requests one shared node across multiple call sites of the
	// same hook within a component.
	Merge bool
}

// MatchesHookName reports whether the metadata's names or patterns cover
// the given hook name.
func (m Metadata) MatchesHookName(name string) bool {
	for _, n := range m.HookNames {
		if n == name {
			return true
		}
	}
	for _, p := range m.HookPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// MatchesLibrary reports whether the detected library name belongs to this
// processor.
func (m Metadata) MatchesLibrary(library string) bool {
	if library == m.Library {
		return true
	}
	for _, src := range m.ImportSources {
		if src == library {
			return true
		}
	}
	return false
}

// Accepts implements the common shouldHandle contract: either the
// occurrence's detected library matches, or upstream library detection
// failed and the hook name alone matches. Import-based detection is
// best-effort, so the name-only fallback is load-bearing, not a corner case.
func (m Metadata) Accepts(h *model.Hook) bool {
	if h.Library != "" {
		return m.MatchesLibrary(h.Library) && m.MatchesHookName(h.HookName)
	}
	return m.MatchesHookName(h.HookName)
}

// Result is a processor's contribution to the diagram.
type Result struct {
	Nodes   []graph.Node
	Edges   []graph.Edge
	Handled bool
}

// Processor is one registered per-library strategy.
type Processor interface {
	// Metadata returns the immutable registration record.
	Metadata() Metadata

	// ShouldHandle reports whether this processor wants the occurrence.
	ShouldHandle(h *model.Hook) bool

	// Process translates the occurrence into nodes and edges. Any state
	// shared across call sites within one component lives in the Session,
	// never in processor fields.
	Process(s *Session, h *model.Hook) Result
}
