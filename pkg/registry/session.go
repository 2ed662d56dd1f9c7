package registry

import "github.com/gnana997/flowlens/pkg/graph"

// Session holds the mutable state scoped to one component's analysis:
// singleton node ids shared across call sites and merged per-processor
// nodes. A fresh Session per analysis removes the cross-component
// state-leak bug class an external reset() contract would invite.
type Session struct {
	urlInputID  string
	urlOutputID string
	merged      map[string]string
}

// NewSession creates an empty per-analysis session.
func NewSession() *Session {
	return &Session{merged: make(map[string]string)}
}

// URLInput returns the shared "URL input" node, creating it on first use.
// The first occurrence of any URL-reading hook in a component creates the
// node; subsequent occurrences reuse its id and get created=false.
func (s *Session) URLInput(line int) (graph.Node, bool) {
	if s.urlInputID != "" {
		return graph.Node{ID: s.urlInputID, Kind: graph.KindExternalInput, Label: "URL"}, false
	}
	n := graph.Node{
		ID:    graph.NodeID(graph.KindExternalInput, "url", line),
		Kind:  graph.KindExternalInput,
		Label: "URL",
		Line:  line,
	}
	s.urlInputID = n.ID
	return n, true
}

// URLOutput returns the shared "URL output" node, creating it on first use.
func (s *Session) URLOutput(line int) (graph.Node, bool) {
	if s.urlOutputID != "" {
		return graph.Node{ID: s.urlOutputID, Kind: graph.KindExternalOutput, Label: "URL"}, false
	}
	n := graph.Node{
		ID:    graph.NodeID(graph.KindExternalOutput, "url", line),
		Kind:  graph.KindExternalOutput,
		Label: "URL",
		Line:  line,
	}
	s.urlOutputID = n.ID
	return n, true
}

// MergedNode returns the remembered node id for a merge key, if one exists.
func (s *Session) MergedNode(key string) (string, bool) {
	id, ok := s.merged[key]
	return id, ok
}

// RememberMerged records the node id for a merge key.
func (s *Session) RememberMerged(key, id string) {
	s.merged[key] = id
}
