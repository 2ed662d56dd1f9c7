package analyzer

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/flowlens/pkg/model"
)

// unwrapExpression strips TypeScript assertion/satisfies wrappers and
// parentheses so matchers see the underlying expression.
func unwrapExpression(node *ts.Node) *ts.Node {
	for node != nil {
		switch node.Kind() {
		case "as_expression", "satisfies_expression", "non_null_expression":
			node = node.Child(0)
		case "parenthesized_expression":
			inner := firstNamedChild(node)
			if inner == nil {
				return node
			}
			node = inner
		default:
			return node
		}
	}
	return nil
}

// firstNamedChild returns the first named child, or nil.
func firstNamedChild(node *ts.Node) *ts.Node {
	for i := uint(0); i < uint(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.IsNamed() {
			return child
		}
	}
	return nil
}

// calleeName extracts the hook name and full access path from a call's
// callee. A bare identifier yields (name, ""); a member access yields the
// final property as name and the full text as path
// ("trpc.user.getById.useQuery" → "useQuery", full text).
func calleeName(call *ts.Node, source []byte) (string, string) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", ""
	}
	fn = unwrapExpression(fn)
	switch fn.Kind() {
	case "identifier":
		return fn.Utf8Text(source), ""
	case "member_expression":
		prop := fn.ChildByFieldName("property")
		if prop == nil {
			return "", ""
		}
		return prop.Utf8Text(source), fn.Utf8Text(source)
	}
	return "", ""
}

// isFunctionNode reports whether a node is a function literal of any form.
func isFunctionNode(node *ts.Node) bool {
	switch node.Kind() {
	case "arrow_function", "function_expression", "function", "generator_function":
		return true
	}
	return false
}

// literalValue converts a literal expression node into a typed Literal.
// Returns false for non-literal nodes.
func literalValue(node *ts.Node, source []byte) (model.Literal, bool) {
	switch node.Kind() {
	case "string":
		return model.Literal{Kind: model.LiteralString, Value: stringContent(node, source)}, true
	case "number":
		return model.Literal{Kind: model.LiteralNumber, Value: node.Utf8Text(source)}, true
	case "true", "false":
		return model.Literal{Kind: model.LiteralBoolean, Value: node.Utf8Text(source)}, true
	case "template_string", "null", "undefined":
		return model.Literal{Kind: model.LiteralUnknown, Value: node.Utf8Text(source)}, true
	}
	return model.Literal{}, false
}

// stringContent returns a string literal's content without quotes.
func stringContent(node *ts.Node, source []byte) string {
	for i := uint(0); i < uint(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Kind() == "string_fragment" {
			return child.Utf8Text(source)
		}
	}
	return strings.Trim(node.Utf8Text(source), "'\"`")
}

// bindingNames collects the bound names of a declarator name pattern in
// source order. Object patterns yield member names; deeper nesting falls
// back to a placeholder so positional order is preserved.
func bindingNames(pattern *ts.Node, source []byte) []string {
	if pattern == nil {
		return nil
	}
	switch pattern.Kind() {
	case "identifier", "shorthand_property_identifier_pattern", "shorthand_property_identifier":
		return []string{pattern.Utf8Text(source)}
	case "array_pattern":
		var names []string
		for i := uint(0); i < uint(pattern.ChildCount()); i++ {
			child := pattern.Child(i)
			if !child.IsNamed() {
				continue
			}
			names = append(names, bindingElementName(child, source))
		}
		return names
	case "object_pattern":
		var names []string
		for i := uint(0); i < uint(pattern.ChildCount()); i++ {
			child := pattern.Child(i)
			if !child.IsNamed() {
				continue
			}
			switch child.Kind() {
			case "shorthand_property_identifier_pattern", "shorthand_property_identifier":
				names = append(names, child.Utf8Text(source))
			case "pair_pattern":
				// { data: user } binds "user"; nested patterns keep the key
				// as the best available name.
				value := child.ChildByFieldName("value")
				if value != nil && value.Kind() == "identifier" {
					names = append(names, value.Utf8Text(source))
				} else if key := child.ChildByFieldName("key"); key != nil {
					names = append(names, key.Utf8Text(source))
				}
			case "object_assignment_pattern":
				if left := child.ChildByFieldName("left"); left != nil {
					names = append(names, left.Utf8Text(source))
				}
			case "rest_pattern":
				if inner := firstNamedChild(child); inner != nil {
					names = append(names, inner.Utf8Text(source))
				}
			}
		}
		return names
	}
	return nil
}

// bindingElementName names one element of an array pattern.
func bindingElementName(elem *ts.Node, source []byte) string {
	switch elem.Kind() {
	case "identifier":
		return elem.Utf8Text(source)
	case "object_pattern", "array_pattern":
		// Destructured in place; the caller may record member names
		// separately (see stateProperties).
		return "state"
	case "assignment_pattern":
		if left := elem.ChildByFieldName("left"); left != nil {
			return left.Utf8Text(source)
		}
	}
	return elem.Utf8Text(source)
}

// objectPatternMembers lists the member names of an object pattern, one
// level deep. Members destructured further than one level get a synthetic
// placeholder name.
func objectPatternMembers(pattern *ts.Node, source []byte) []string {
	if pattern == nil || pattern.Kind() != "object_pattern" {
		return nil
	}
	var members []string
	for i := uint(0); i < uint(pattern.ChildCount()); i++ {
		child := pattern.Child(i)
		if !child.IsNamed() {
			continue
		}
		switch child.Kind() {
		case "shorthand_property_identifier_pattern", "shorthand_property_identifier":
			members = append(members, child.Utf8Text(source))
		case "pair_pattern":
			value := child.ChildByFieldName("value")
			if value != nil && (value.Kind() == "object_pattern" || value.Kind() == "array_pattern") {
				members = append(members, "nested")
				continue
			}
			if key := child.ChildByFieldName("key"); key != nil {
				members = append(members, key.Utf8Text(source))
			}
		}
	}
	return members
}

// collectIdentifiers gathers identifier references in an expression
// subtree, in source order, without descending into function literals.
// Member accesses contribute their root object identifier only.
func collectIdentifiers(node *ts.Node, source []byte) []string {
	var out []string
	seen := make(map[string]struct{})
	var walk func(n *ts.Node)
	walk = func(n *ts.Node) {
		if n == nil || isFunctionNode(n) {
			return
		}
		switch n.Kind() {
		case "identifier":
			name := n.Utf8Text(source)
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				out = append(out, name)
			}
			return
		case "member_expression", "subscript_expression":
			walk(n.ChildByFieldName("object"))
			if n.Kind() == "subscript_expression" {
				walk(n.ChildByFieldName("index"))
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
	return out
}

// rootIdentifier returns the leftmost identifier of a (possibly chained)
// member/call expression: "items.filter(x).map" → "items".
func rootIdentifier(node *ts.Node, source []byte) string {
	for node != nil {
		switch node.Kind() {
		case "identifier":
			return node.Utf8Text(source)
		case "member_expression", "subscript_expression":
			node = node.ChildByFieldName("object")
		case "call_expression":
			node = node.ChildByFieldName("function")
		case "parenthesized_expression", "as_expression", "non_null_expression":
			node = firstNamedChild(node)
		default:
			return ""
		}
	}
	return ""
}
