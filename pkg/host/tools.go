package host

import "github.com/mark3labs/mcp-go/mcp"

func analyzeComponentTool() mcp.Tool {
	return mcp.NewTool("analyze_component",
		mcp.WithDescription("Analyze a component file and return its data-flow model: hooks, processes, render structure, graph nodes and edges."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the component source file (.tsx, .jsx, .ts, .js, .vue)"),
		),
	)
}

func getDiagramTool() mcp.Tool {
	return mcp.NewTool("get_diagram",
		mcp.WithDescription("Analyze a component file and return its data-flow graph as a Mermaid flowchart."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the component source file"),
		),
	)
}

func listHooksTool() mcp.Tool {
	return mcp.NewTool("list_hooks",
		mcp.WithDescription("Analyze a component file and return only its hook occurrences with variables, dependencies and classifications."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the component source file"),
		),
	)
}

func getFileStatusTool() mcp.Tool {
	return mcp.NewTool("get_file_status",
		mcp.WithDescription("Report the index state for a file: whether a cached analysis exists, whether it is stale, and summary counts. Never triggers analysis."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the component source file"),
		),
	)
}
