package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID(t *testing.T) {
	testCases := []struct {
		kind     NodeKind
		label    string
		line     int
		expected string
	}{
		{KindDataStore, "count", 4, "data_count_4"},
		{KindProcess, "effect@12", 12, "proc_effect12_12"},
		{KindExternalInput, "/api/users", 7, "in__api_users_7"},
		{KindExternalOutput, "router.push", 20, "out_router_push_20"},
		{KindDataStore, "***", 1, "data_x_1"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, NodeID(tc.kind, tc.label, tc.line))
		})
	}

	// Same occurrence always produces the same id
	assert.Equal(t, NodeID(KindProcess, "handleClick", 9), NodeID(KindProcess, "handleClick", 9))
}

func TestMermaid_NodeShapes(t *testing.T) {
	nodes := []Node{
		{ID: "data_count_1", Kind: KindDataStore, Label: "count"},
		{ID: "in_api_2", Kind: KindExternalInput, Label: "GET /api"},
		{ID: "out_api_3", Kind: KindExternalOutput, Label: "POST /api"},
		{ID: "proc_effect_4", Kind: KindProcess, Label: "effect"},
	}

	out := Mermaid(nodes, nil)
	require.True(t, strings.HasPrefix(out, "flowchart TD\n"))

	assert.Contains(t, out, `data_count_1("count")`)
	assert.Contains(t, out, `in_api_2[/"GET /api"/]`)
	assert.Contains(t, out, `out_api_3[\"POST /api"\]`)
	assert.Contains(t, out, `proc_effect_4["effect"]`)
}

func TestMermaid_Edges(t *testing.T) {
	nodes := []Node{
		{ID: "data_count_1", Kind: KindDataStore, Label: "count"},
		{ID: "proc_effect_2", Kind: KindProcess, Label: "effect"},
	}
	edges := []Edge{
		{From: "data_count_1", To: "proc_effect_2", Label: "reads"},
		{From: "proc_effect_2", To: "data_count_1"},
	}

	out := Mermaid(nodes, edges)
	assert.Contains(t, out, "data_count_1 -->|reads| proc_effect_2")
	assert.Contains(t, out, "proc_effect_2 --> data_count_1")
}

func TestMermaid_Deterministic(t *testing.T) {
	// Node declaration order must not depend on input order
	a := []Node{
		{ID: "b_node", Kind: KindProcess, Label: "b"},
		{ID: "a_node", Kind: KindProcess, Label: "a"},
	}
	reversed := []Node{a[1], a[0]}

	assert.Equal(t, Mermaid(a, nil), Mermaid(reversed, nil))

	out := Mermaid(a, nil)
	assert.Less(t, strings.Index(out, "a_node"), strings.Index(out, "b_node"))
}

func TestMermaid_EscapesLabels(t *testing.T) {
	nodes := []Node{
		{ID: "proc_x_1", Kind: KindProcess, Label: `fetch("url") | items[0]`},
	}

	out := Mermaid(nodes, nil)
	assert.NotContains(t, out, `fetch("url")`)
	assert.Contains(t, out, "fetch('url') / items(0)")
}
