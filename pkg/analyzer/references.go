package analyzer

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/flowlens/pkg/model"
)

// externalRoots are callee prefixes treated as calls out of the component:
// service objects, API clients, telemetry.
var externalRoots = []string{
	"api.", "fetch.", "http.", "axios.", "logger.", "analytics.",
	"service.", "client.", "router.",
}

// builtinRoots are runtime globals whose member calls never count as
// external entities.
var builtinRoots = []string{
	"console.", "Math.", "Object.", "JSON.", "Array.", "Number.",
	"String.", "Date.", "Promise.", "window.", "document.", "Reflect.",
	"localStorage.", "sessionStorage.",
}

// bodyInfo is everything a single function body contributes to a process.
type bodyInfo struct {
	references []string
	writes     []string
	externals  []model.ExternalCall
	imperative []model.ImperativeCall
}

// bodyExtractor walks one function body. Identifiers declared inside the
// body (or bound as parameters) are locals and never surface as
// references. Nested function literals are opaque except for callbacks
// passed directly to external calls.
type bodyExtractor struct {
	source []byte
	locals map[string]struct{}

	refs     []string
	refSet   map[string]struct{}
	writes   []string
	writeSet map[string]struct{}

	externals  []model.ExternalCall
	imperative []model.ImperativeCall
}

// extractBody analyzes a function node (arrow, expression or declaration)
// and returns its outward-facing data flow.
func extractBody(fn *ts.Node, source []byte) bodyInfo {
	ex := &bodyExtractor{
		source:   source,
		locals:   make(map[string]struct{}),
		refSet:   make(map[string]struct{}),
		writeSet: make(map[string]struct{}),
	}
	ex.bindParams(fn)

	body := fn.ChildByFieldName("body")
	if body == nil {
		return bodyInfo{}
	}
	if body.Kind() == "statement_block" {
		for i := uint(0); i < uint(body.ChildCount()); i++ {
			child := body.Child(i)
			if child.IsNamed() {
				ex.walkStatement(child)
			}
		}
	} else {
		// Expression-bodied arrow.
		ex.walkExpression(body)
	}
	return bodyInfo{
		references: ex.refs,
		writes:     ex.writes,
		externals:  ex.externals,
		imperative: ex.imperative,
	}
}

func (ex *bodyExtractor) bindParams(fn *ts.Node) {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		params = fn.ChildByFieldName("parameter")
	}
	if params == nil {
		return
	}
	for _, name := range ex.paramNames(params) {
		ex.locals[name] = struct{}{}
	}
}

func (ex *bodyExtractor) paramNames(params *ts.Node) []string {
	switch params.Kind() {
	case "identifier":
		return []string{params.Utf8Text(ex.source)}
	case "formal_parameters":
		var names []string
		for i := uint(0); i < uint(params.ChildCount()); i++ {
			child := params.Child(i)
			if !child.IsNamed() {
				continue
			}
			names = append(names, ex.paramNames(child)...)
		}
		return names
	case "required_parameter", "optional_parameter", "rest_pattern":
		if inner := firstNamedChild(params); inner != nil {
			return ex.paramNames(inner)
		}
	case "object_pattern", "array_pattern":
		return bindingNames(params, ex.source)
	case "assignment_pattern":
		if left := params.ChildByFieldName("left"); left != nil {
			return ex.paramNames(left)
		}
	}
	return nil
}

func (ex *bodyExtractor) addRef(name string) {
	if name == "" {
		return
	}
	if _, local := ex.locals[name]; local {
		return
	}
	if _, dup := ex.refSet[name]; dup {
		return
	}
	ex.refSet[name] = struct{}{}
	ex.refs = append(ex.refs, name)
}

func (ex *bodyExtractor) addWrite(name string) {
	if name == "" {
		return
	}
	if _, local := ex.locals[name]; local {
		return
	}
	if _, dup := ex.writeSet[name]; !dup {
		ex.writeSet[name] = struct{}{}
		ex.writes = append(ex.writes, name)
	}
	ex.addRef(name)
}

// walkStatement handles declarations and control flow at statement level.
func (ex *bodyExtractor) walkStatement(stmt *ts.Node) {
	switch stmt.Kind() {
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < uint(stmt.ChildCount()); i++ {
			declarator := stmt.Child(i)
			if declarator.Kind() != "variable_declarator" {
				continue
			}
			if value := declarator.ChildByFieldName("value"); value != nil {
				ex.walkExpression(value)
			}
			for _, name := range bindingNames(declarator.ChildByFieldName("name"), ex.source) {
				ex.locals[name] = struct{}{}
			}
		}
	case "function_declaration":
		// Inner named functions are opaque; only the name becomes local.
		if name := stmt.ChildByFieldName("name"); name != nil {
			ex.locals[name.Utf8Text(ex.source)] = struct{}{}
		}
	case "return_statement":
		// A returned function literal is a cleanup body handled by the
		// process pass, not a reference source.
		if arg := firstNamedChild(stmt); arg != nil && !isFunctionNode(unwrapExpression(arg)) {
			ex.walkExpression(arg)
		}
	case "expression_statement":
		if expr := firstNamedChild(stmt); expr != nil {
			ex.walkExpression(expr)
		}
	case "statement_block":
		for i := uint(0); i < uint(stmt.ChildCount()); i++ {
			child := stmt.Child(i)
			if child.IsNamed() {
				ex.walkStatement(child)
			}
		}
	default:
		for i := uint(0); i < uint(stmt.ChildCount()); i++ {
			child := stmt.Child(i)
			if !child.IsNamed() {
				continue
			}
			if child.Kind() == "statement_block" || child.Kind() == "else_clause" || strings.HasSuffix(child.Kind(), "_statement") {
				ex.walkStatement(child)
			} else {
				ex.walkExpression(child)
			}
		}
	}
}

// walkExpression handles reads, writes and call classification.
func (ex *bodyExtractor) walkExpression(node *ts.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "arrow_function", "function_expression", "function", "generator_function":
		// Opaque unless an external call adopts it as a callback.
		return
	case "identifier":
		ex.addRef(node.Utf8Text(ex.source))
		return
	case "member_expression":
		ex.walkExpression(node.ChildByFieldName("object"))
		return
	case "subscript_expression":
		ex.walkExpression(node.ChildByFieldName("object"))
		ex.walkExpression(node.ChildByFieldName("index"))
		return
	case "assignment_expression", "augmented_assignment_expression":
		ex.addWrite(rootIdentifier(node.ChildByFieldName("left"), ex.source))
		ex.walkExpression(node.ChildByFieldName("right"))
		return
	case "update_expression":
		ex.addWrite(rootIdentifier(node.ChildByFieldName("argument"), ex.source))
		return
	case "call_expression":
		ex.walkCall(node)
		return
	case "await_expression", "unary_expression", "parenthesized_expression",
		"as_expression", "satisfies_expression", "non_null_expression":
		ex.walkExpression(unwrapInner(node))
		return
	case "statement_block":
		ex.walkStatement(node)
		return
	}
	for i := uint(0); i < uint(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() {
			continue
		}
		if child.Kind() == "property_identifier" {
			continue
		}
		ex.walkExpression(child)
	}
}

// unwrapInner peels one wrapper level (await, unary, parens, assertions).
func unwrapInner(node *ts.Node) *ts.Node {
	if arg := node.ChildByFieldName("argument"); arg != nil {
		return arg
	}
	return firstNamedChild(node)
}

// walkCall classifies a call as external, imperative, builtin or an
// ordinary reference, then walks the arguments accordingly.
func (ex *bodyExtractor) walkCall(call *ts.Node) {
	fn := unwrapExpression(call.ChildByFieldName("function"))
	args := call.ChildByFieldName("arguments")

	if fn == nil {
		ex.walkArgs(args)
		return
	}

	switch fn.Kind() {
	case "identifier":
		name := fn.Utf8Text(ex.source)
		if name == "fetch" || name == "axios" {
			ex.recordExternal(name, args)
			return
		}
		ex.addRef(name)
		ex.walkArgs(args)
	case "member_expression":
		calleeText := fn.Utf8Text(ex.source)

		// Promise chains hang callbacks off the inner call:
		// api.get('x').then(cb) folds cb into the api.get record.
		if prop := fn.ChildByFieldName("property"); prop != nil && isPromiseMethod(prop.Utf8Text(ex.source)) {
			if obj := unwrapExpression(fn.ChildByFieldName("object")); obj != nil && obj.Kind() == "call_expression" {
				before := len(ex.externals)
				ex.walkCall(obj)
				if len(ex.externals) > before {
					ex.foldCallbacks(&ex.externals[len(ex.externals)-1], args)
				} else {
					ex.walkArgs(args)
				}
				return
			}
		}

		if ref, method, ok := imperativeTarget(fn, ex.source); ok {
			ex.imperative = append(ex.imperative, model.ImperativeCall{RefName: ref, MethodName: method})
			ex.addRef(ref)
			ex.walkArgs(args)
			return
		}
		if hasAnyPrefix(calleeText, builtinRoots) {
			ex.walkArgs(args)
			return
		}
		if hasAnyPrefix(calleeText, externalRoots) {
			ex.recordExternal(calleeText, args)
			return
		}
		ex.walkExpression(fn.ChildByFieldName("object"))
		ex.walkArgs(args)
	default:
		ex.walkExpression(fn)
		ex.walkArgs(args)
	}
}

// walkArgs walks call arguments, keeping function literals opaque.
func (ex *bodyExtractor) walkArgs(args *ts.Node) {
	if args == nil {
		return
	}
	for i := uint(0); i < uint(args.ChildCount()); i++ {
		arg := args.Child(i)
		if arg.IsNamed() {
			ex.walkExpression(arg)
		}
	}
}

// recordExternal captures an external call with argument summaries. A
// callback argument is folded: its references surface both on the call
// record and in the surrounding process.
func (ex *bodyExtractor) recordExternal(name string, args *ts.Node) {
	ec := model.ExternalCall{Name: name}
	ex.foldCallbacks(&ec, args)
	ex.externals = append(ex.externals, ec)
}

// foldCallbacks records an external call's arguments: function literals
// contribute their reference sets, everything else is summarized as text.
func (ex *bodyExtractor) foldCallbacks(ec *model.ExternalCall, args *ts.Node) {
	if args == nil {
		return
	}
	for i := uint(0); i < uint(args.ChildCount()); i++ {
		arg := args.Child(i)
		if !arg.IsNamed() {
			continue
		}
		inner := unwrapExpression(arg)
		if inner == nil {
			continue
		}
		if isFunctionNode(inner) {
			info := extractBody(inner, ex.source)
			ec.CallbackRefs = append(ec.CallbackRefs, info.references...)
			for _, r := range info.references {
				ex.addRef(r)
			}
			for _, w := range info.writes {
				ex.addWrite(w)
			}
			continue
		}
		if lit, ok := literalValue(inner, ex.source); ok {
			ec.Args = append(ec.Args, lit.Value)
			continue
		}
		if root := rootIdentifier(inner, ex.source); root != "" {
			ec.Args = append(ec.Args, root)
			ex.walkExpression(inner)
		}
	}
}

func isPromiseMethod(name string) bool {
	switch name {
	case "then", "catch", "finally":
		return true
	}
	return false
}

// imperativeTarget recognizes the xRef.current.method() shape.
func imperativeTarget(member *ts.Node, source []byte) (string, string, bool) {
	method := member.ChildByFieldName("property")
	inner := member.ChildByFieldName("object")
	if method == nil || inner == nil || inner.Kind() != "member_expression" {
		return "", "", false
	}
	currentProp := inner.ChildByFieldName("property")
	refNode := inner.ChildByFieldName("object")
	if currentProp == nil || refNode == nil || refNode.Kind() != "identifier" {
		return "", "", false
	}
	if currentProp.Utf8Text(source) != "current" {
		return "", "", false
	}
	ref := refNode.Utf8Text(source)
	if !strings.HasSuffix(ref, "Ref") && !strings.HasSuffix(ref, "ref") {
		return "", "", false
	}
	return ref, method.Utf8Text(source), true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
