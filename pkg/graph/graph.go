// Package graph defines the typed node/edge output consumed by the diagram
// builder. The analyzer and library processors emit these records; the host
// renders them (see Mermaid).
package graph

import (
	"fmt"
	"strings"
)

// NodeKind tags the visual role of a diagram node.
type NodeKind string

const (
	// KindDataStore is reactive state or a derived data value.
	KindDataStore NodeKind = "data-store"
	// KindExternalInput is an external resource read by the component
	// (network endpoint, URL params, store).
	KindExternalInput NodeKind = "external-entity-input"
	// KindExternalOutput is an external resource written by the component
	// (mutation endpoint, navigation target).
	KindExternalOutput NodeKind = "external-entity-output"
	// KindProcess is an executable unit: effect body, handler, callback.
	KindProcess NodeKind = "process"
)

// Node is one diagram node with a stable generated id and a free-form
// metadata bag whose keys are consumed by the downstream builder.
type Node struct {
	ID     string         `json:"id" msgpack:"id"`
	Kind   NodeKind       `json:"kind" msgpack:"kind"`
	Label  string         `json:"label" msgpack:"label"`
	Line   int            `json:"line,omitempty" msgpack:"line"`
	Column int            `json:"column,omitempty" msgpack:"column"`
	Meta   map[string]any `json:"meta,omitempty" msgpack:"meta"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From  string `json:"from" msgpack:"from"`
	To    string `json:"to" msgpack:"to"`
	Label string `json:"label,omitempty" msgpack:"label"`
}

// NodeID builds a deterministic node id from kind, label and source line.
// The same occurrence always produces the same id within one analysis.
func NodeID(kind NodeKind, label string, line int) string {
	prefix := "node"
	switch kind {
	case KindDataStore:
		prefix = "data"
	case KindExternalInput:
		prefix = "in"
	case KindExternalOutput:
		prefix = "out"
	case KindProcess:
		prefix = "proc"
	}
	return fmt.Sprintf("%s_%s_%d", prefix, sanitize(label), line)
}

// sanitize reduces a label to an identifier-safe fragment.
func sanitize(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.', r == '-', r == ' ', r == '/':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}
