package analyzer

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/flowlens/pkg/model"
)

// collectRenderStructure recovers conditional rendering and list iteration
// from the JSX returned by a component body. Structures nested inside a
// recognized branch are consumed by that branch and not reported twice.
func collectRenderStructure(body *ts.Node, source []byte) []model.Render {
	root := returnedJSX(body)
	if root == nil {
		return nil
	}
	return jsxStructures(root, source)
}

// returnedJSX finds the JSX tree produced by the component body: either a
// top-level return statement or an expression-bodied arrow.
func returnedJSX(body *ts.Node) *ts.Node {
	if body == nil {
		return nil
	}
	if isJSXNode(body) {
		return body
	}
	if body.Kind() != "statement_block" && body.Kind() != "program" {
		if inner := unwrapExpression(body); inner != nil && isJSXNode(inner) {
			return inner
		}
		return nil
	}
	for i := uint(0); i < uint(body.ChildCount()); i++ {
		stmt := body.Child(i)
		if stmt.Kind() != "return_statement" {
			continue
		}
		if jsx := unwrapExpression(firstNamedChild(stmt)); jsx != nil && isJSXNode(jsx) {
			return jsx
		}
	}
	return nil
}

func isJSXNode(node *ts.Node) bool {
	switch node.Kind() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}

// jsxStructures walks a JSX subtree collecting conditionals and loops from
// embedded expressions.
func jsxStructures(node *ts.Node, source []byte) []model.Render {
	var out []model.Render
	var walk func(n *ts.Node)
	walk = func(n *ts.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "jsx_expression" {
			if r, ok := structureFromExpression(firstNamedChild(n), source); ok {
				out = append(out, r)
				return
			}
		}
		for i := uint(0); i < uint(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.IsNamed() {
				walk(child)
			}
		}
	}
	walk(node)
	return out
}

// structureFromExpression matches the three renderable expression shapes:
// ternary, short-circuit and .map iteration.
func structureFromExpression(expr *ts.Node, source []byte) (model.Render, bool) {
	expr = unwrapExpression(expr)
	if expr == nil {
		return model.Render{}, false
	}

	switch expr.Kind() {
	case "ternary_expression":
		cond := expr.ChildByFieldName("condition")
		c := &model.Conditional{
			Expr:      condText(cond, source),
			Refs:      collectIdentifiers(cond, source),
			WhenTrue:  renderOf(expr.ChildByFieldName("consequence"), source),
			WhenFalse: renderOf(expr.ChildByFieldName("alternative"), source),
		}
		return model.Render{Kind: model.RenderConditional, Conditional: c}, true

	case "binary_expression":
		op := expr.ChildByFieldName("operator")
		if op == nil {
			return model.Render{}, false
		}
		left := expr.ChildByFieldName("left")
		right := expr.ChildByFieldName("right")
		switch op.Kind() {
		case "&&":
			c := &model.Conditional{
				Expr:     condText(left, source),
				Refs:     collectIdentifiers(left, source),
				WhenTrue: renderOf(right, source),
			}
			return model.Render{Kind: model.RenderConditional, Conditional: c}, true
		case "||":
			c := &model.Conditional{
				Expr:      condText(left, source),
				Refs:      collectIdentifiers(left, source),
				WhenFalse: renderOf(right, source),
			}
			return model.Render{Kind: model.RenderConditional, Conditional: c}, true
		}
		return model.Render{}, false

	case "call_expression":
		return loopFromMapCall(expr, source)
	}
	return model.Render{}, false
}

// loopFromMapCall matches items.map(item => <li>...</li>).
func loopFromMapCall(call *ts.Node, source []byte) (model.Render, bool) {
	fn := unwrapExpression(call.ChildByFieldName("function"))
	if fn == nil || fn.Kind() != "member_expression" {
		return model.Render{}, false
	}
	prop := fn.ChildByFieldName("property")
	if prop == nil || prop.Utf8Text(source) != "map" {
		return model.Render{}, false
	}

	loop := &model.Loop{Source: rootIdentifier(fn.ChildByFieldName("object"), source)}

	args := call.ChildByFieldName("arguments")
	if args != nil {
		for i := uint(0); i < uint(args.ChildCount()); i++ {
			arg := args.Child(i)
			if !arg.IsNamed() {
				continue
			}
			inner := unwrapExpression(arg)
			if inner == nil || !isFunctionNode(inner) {
				continue
			}
			loop.Item = firstParamName(inner, source)
			loop.Body = renderOf(inner.ChildByFieldName("body"), source)
			break
		}
	}
	if loop.Source == "" {
		return model.Render{}, false
	}
	return model.Render{Kind: model.RenderLoop, Loop: loop}, true
}

func firstParamName(fn *ts.Node, source []byte) string {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		params = fn.ChildByFieldName("parameter")
	}
	if params == nil {
		return ""
	}
	if params.Kind() == "identifier" {
		return params.Utf8Text(source)
	}
	for i := uint(0); i < uint(params.ChildCount()); i++ {
		child := params.Child(i)
		if !child.IsNamed() {
			continue
		}
		switch child.Kind() {
		case "identifier":
			return child.Utf8Text(source)
		case "required_parameter":
			if inner := firstNamedChild(child); inner != nil {
				return inner.Utf8Text(source)
			}
		case "object_pattern", "array_pattern":
			if names := bindingNames(child, source); len(names) > 0 {
				return names[0]
			}
		}
	}
	return ""
}

// renderOf converts a branch/body expression to a Render. JSX becomes an
// element; nested conditionals and loops recurse; null/undefined branches
// yield nil.
func renderOf(node *ts.Node, source []byte) *model.Render {
	node = unwrapExpression(node)
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "null", "undefined", "false":
		return nil
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return &model.Render{Kind: model.RenderElement, Element: elementOf(node, source)}
	case "statement_block":
		// Arrow body with an explicit return.
		for i := uint(0); i < uint(node.ChildCount()); i++ {
			stmt := node.Child(i)
			if stmt.Kind() == "return_statement" {
				return renderOf(firstNamedChild(stmt), source)
			}
		}
		return nil
	}
	if r, ok := structureFromExpression(node, source); ok {
		return &r
	}
	return nil
}

// elementOf summarizes a JSX element: its tag plus the root identifiers of
// expressions interpolated anywhere beneath it.
func elementOf(node *ts.Node, source []byte) *model.Element {
	el := &model.Element{Tag: jsxTag(node, source)}
	seen := make(map[string]struct{})
	var walk func(n *ts.Node)
	walk = func(n *ts.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "jsx_expression" {
			for _, id := range collectIdentifiers(firstNamedChild(n), source) {
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					el.Refs = append(el.Refs, id)
				}
			}
			return
		}
		for i := uint(0); i < uint(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.IsNamed() {
				walk(child)
			}
		}
	}
	walk(node)
	return el
}

// jsxTag returns the element name of a JSX node; fragments report "<>".
func jsxTag(node *ts.Node, source []byte) string {
	switch node.Kind() {
	case "jsx_fragment":
		return "<>"
	case "jsx_self_closing_element":
		if name := node.ChildByFieldName("name"); name != nil {
			return name.Utf8Text(source)
		}
	case "jsx_element":
		for i := uint(0); i < uint(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Kind() == "jsx_opening_element" {
				if name := child.ChildByFieldName("name"); name != nil {
					return name.Utf8Text(source)
				}
			}
		}
	}
	return ""
}

// condText renders a condition expression for use as a diagram label.
func condText(node *ts.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}
