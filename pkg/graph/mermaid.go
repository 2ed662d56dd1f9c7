package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Mermaid renders nodes and edges as a Mermaid flowchart.
//
// Node shapes follow kind: data stores are rounded, external inputs/outputs
// are parallelograms, processes are rectangles. Output is deterministic:
// nodes render in id order, edges in declaration order.
func Mermaid(nodes []Node, edges []Edge) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, n := range sorted {
		b.WriteString("    ")
		b.WriteString(nodeDecl(n))
		b.WriteByte('\n')
	}
	for _, e := range edges {
		b.WriteString("    ")
		if e.Label != "" {
			fmt.Fprintf(&b, "%s -->|%s| %s", e.From, escapeLabel(e.Label), e.To)
		} else {
			fmt.Fprintf(&b, "%s --> %s", e.From, e.To)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func nodeDecl(n Node) string {
	label := escapeLabel(n.Label)
	switch n.Kind {
	case KindDataStore:
		return fmt.Sprintf("%s(%q)", n.ID, label)
	case KindExternalInput:
		return fmt.Sprintf("%s[/%q/]", n.ID, label)
	case KindExternalOutput:
		return fmt.Sprintf("%s[\\%q\\]", n.ID, label)
	default:
		return fmt.Sprintf("%s[%q]", n.ID, label)
	}
}

// escapeLabel strips characters that break Mermaid label syntax.
func escapeLabel(s string) string {
	r := strings.NewReplacer("\"", "'", "\n", " ", "|", "/", "[", "(", "]", ")")
	return r.Replace(s)
}
