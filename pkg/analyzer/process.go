package analyzer

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/flowlens/pkg/model"
	"github.com/gnana997/flowlens/pkg/position"
)

// collectProcesses gathers every process occurrence from a component body:
// effect hooks, useCallback values, named functions, arrow consts and
// inline JSX event handlers.
func collectProcesses(body *ts.Node, source []byte, lines *position.LineIndex) []model.Process {
	var procs []model.Process

	for i := uint(0); i < uint(body.ChildCount()); i++ {
		stmt := body.Child(i)
		switch stmt.Kind() {
		case "function_declaration":
			if p, ok := namedFunctionProcess(stmt, source, lines); ok {
				procs = append(procs, p)
			}
		case "lexical_declaration", "variable_declaration":
			procs = append(procs, declarationProcesses(stmt, source, lines)...)
		case "expression_statement":
			expr := unwrapExpression(firstNamedChild(stmt))
			if expr == nil || expr.Kind() != "call_expression" {
				continue
			}
			if p, ok := effectProcess(expr, source, lines); ok {
				procs = append(procs, p)
			}
		}
	}

	procs = append(procs, inlineHandlerProcesses(body, source, lines)...)
	return procs
}

// namedFunctionProcess turns `function save() { ... }` into a
// custom-function process.
func namedFunctionProcess(fn *ts.Node, source []byte, lines *position.LineIndex) (model.Process, bool) {
	name := fn.ChildByFieldName("name")
	if name == nil {
		return model.Process{}, false
	}
	start := int(fn.StartByte())
	p := model.Process{
		Name:   name.Utf8Text(source),
		Type:   model.ProcessCustomFunction,
		Line:   lines.Line(start),
		Column: lines.Column(start),
	}
	applyBody(&p, extractBody(fn, source))
	return p, true
}

// declarationProcesses matches arrow consts and useCallback declarations.
func declarationProcesses(decl *ts.Node, source []byte, lines *position.LineIndex) []model.Process {
	var procs []model.Process
	for i := uint(0); i < uint(decl.ChildCount()); i++ {
		declarator := decl.Child(i)
		if declarator.Kind() != "variable_declarator" {
			continue
		}
		name := declarator.ChildByFieldName("name")
		value := unwrapExpression(declarator.ChildByFieldName("value"))
		if name == nil || value == nil || name.Kind() != "identifier" {
			continue
		}
		start := int(value.StartByte())

		if isFunctionNode(value) {
			p := model.Process{
				Name:   name.Utf8Text(source),
				Type:   model.ProcessCustomFunction,
				Line:   lines.Line(start),
				Column: lines.Column(start),
			}
			applyBody(&p, extractBody(value, source))
			procs = append(procs, p)
			continue
		}

		if value.Kind() == "call_expression" {
			callee, _ := calleeName(value, source)
			if callee != "useCallback" {
				continue
			}
			p := model.Process{
				Name:   name.Utf8Text(source),
				Type:   "useCallback",
				Line:   lines.Line(start),
				Column: lines.Column(start),
			}
			fn, deps := callbackAndDeps(value, source)
			p.Dependencies = deps
			if fn != nil {
				applyBody(&p, extractBody(fn, source))
			}
			procs = append(procs, p)
		}
	}
	return procs
}

// effectProcess matches effect and lifecycle hook calls used as bare
// statements: useEffect, watch, onMounted and friends.
func effectProcess(call *ts.Node, source []byte, lines *position.LineIndex) (model.Process, bool) {
	name, _ := calleeName(call, source)
	if name == "" {
		return model.Process{}, false
	}
	if _, ok := processHookNames[name]; !ok {
		return model.Process{}, false
	}
	if name == "useCallback" {
		// Only meaningful when its return value is bound.
		return model.Process{}, false
	}
	start := int(call.StartByte())

	if name == "useImperativeHandle" {
		return imperativeHandleProcess(call, source, lines)
	}

	p := model.Process{
		Name:   name,
		Type:   model.ProcessType(name),
		Line:   lines.Line(start),
		Column: lines.Column(start),
	}
	fn, deps := callbackAndDeps(call, source)
	p.Dependencies = deps
	if fn != nil {
		applyBody(&p, extractBody(fn, source))
		if cleanup := cleanupProcess(fn, name, source, lines); cleanup != nil {
			p.Cleanup = cleanup
		}
	}

	// watch(source, cb): the watched value is a dependency.
	if name == "watch" && len(p.Dependencies) == 0 {
		if src := firstNonFunctionArg(call, source); src != "" {
			p.Dependencies = []string{src}
		}
	}
	return p, true
}

// callbackAndDeps returns the first function-literal argument and the
// identifiers of the trailing dependency array. A literal `[]` yields nil.
func callbackAndDeps(call *ts.Node, source []byte) (*ts.Node, []string) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil, nil
	}
	var fn *ts.Node
	var deps []string
	for i := uint(0); i < uint(args.ChildCount()); i++ {
		arg := args.Child(i)
		if !arg.IsNamed() {
			continue
		}
		inner := unwrapExpression(arg)
		if inner == nil {
			continue
		}
		if fn == nil && isFunctionNode(inner) {
			fn = inner
			continue
		}
		if inner.Kind() == "array" {
			deps = dependencyNames(inner, source)
		}
	}
	return fn, deps
}

// firstNonFunctionArg returns the root identifier of the first argument
// that is not a function literal.
func firstNonFunctionArg(call *ts.Node, source []byte) string {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := uint(0); i < uint(args.ChildCount()); i++ {
		arg := args.Child(i)
		if !arg.IsNamed() {
			continue
		}
		inner := unwrapExpression(arg)
		if inner == nil || isFunctionNode(inner) {
			continue
		}
		return rootIdentifier(inner, source)
	}
	return ""
}

// cleanupProcess extracts the function returned from an effect body as a
// nested cleanup process.
func cleanupProcess(effectFn *ts.Node, effectName string, source []byte, lines *position.LineIndex) *model.Process {
	body := effectFn.ChildByFieldName("body")
	if body == nil || body.Kind() != "statement_block" {
		return nil
	}
	for i := uint(0); i < uint(body.ChildCount()); i++ {
		stmt := body.Child(i)
		if stmt.Kind() != "return_statement" {
			continue
		}
		returned := unwrapExpression(firstNamedChild(stmt))
		if returned == nil || !isFunctionNode(returned) {
			return nil
		}
		start := int(returned.StartByte())
		p := &model.Process{
			Name:   effectName + "_cleanup",
			Type:   model.ProcessCleanup,
			Line:   lines.Line(start),
			Column: lines.Column(start),
		}
		applyBody(p, extractBody(returned, source))
		return p
	}
	return nil
}

// imperativeHandleProcess models useImperativeHandle(ref, () => ({...}))
// as a process whose handlers are the exposed methods.
func imperativeHandleProcess(call *ts.Node, source []byte, lines *position.LineIndex) (model.Process, bool) {
	start := int(call.StartByte())
	p := model.Process{
		Name:   "useImperativeHandle",
		Type:   "useImperativeHandle",
		Line:   lines.Line(start),
		Column: lines.Column(start),
	}
	fn, deps := callbackAndDeps(call, source)
	p.Dependencies = deps
	if fn == nil {
		return p, true
	}
	applyBody(&p, extractBody(fn, source))

	if obj := returnedObject(fn); obj != nil {
		for i := uint(0); i < uint(obj.ChildCount()); i++ {
			member := obj.Child(i)
			if !member.IsNamed() {
				continue
			}
			if h, ok := handlerFromMember(member, source); ok {
				p.Handlers = append(p.Handlers, h)
			}
		}
	}
	return p, true
}

// returnedObject finds the object literal produced by a handle factory,
// either as an expression body `() => ({...})` or a return statement.
func returnedObject(fn *ts.Node) *ts.Node {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	if body.Kind() != "statement_block" {
		if obj := unwrapExpression(body); obj != nil && obj.Kind() == "object" {
			return obj
		}
		return nil
	}
	for i := uint(0); i < uint(body.ChildCount()); i++ {
		stmt := body.Child(i)
		if stmt.Kind() != "return_statement" {
			continue
		}
		if obj := unwrapExpression(firstNamedChild(stmt)); obj != nil && obj.Kind() == "object" {
			return obj
		}
	}
	return nil
}

// handlerFromMember converts one object member into a Handler.
func handlerFromMember(member *ts.Node, source []byte) (model.Handler, bool) {
	switch member.Kind() {
	case "method_definition":
		name := member.ChildByFieldName("name")
		if name == nil {
			return model.Handler{}, false
		}
		h := model.Handler{
			Name:      name.Utf8Text(source),
			Async:     hasAsyncKeyword(member, source),
			HasReturn: blockHasReturn(member.ChildByFieldName("body")),
		}
		h.Params = handlerParams(member.ChildByFieldName("parameters"), source)
		return h, true
	case "pair":
		key := member.ChildByFieldName("key")
		value := unwrapExpression(member.ChildByFieldName("value"))
		if key == nil || value == nil || !isFunctionNode(value) {
			return model.Handler{}, false
		}
		h := model.Handler{
			Name:      key.Utf8Text(source),
			Async:     hasAsyncKeyword(value, source),
			HasReturn: functionHasReturn(value),
		}
		params := value.ChildByFieldName("parameters")
		if params == nil {
			params = value.ChildByFieldName("parameter")
		}
		h.Params = handlerParams(params, source)
		return h, true
	}
	return model.Handler{}, false
}

func handlerParams(params *ts.Node, source []byte) []string {
	if params == nil {
		return nil
	}
	if params.Kind() == "identifier" {
		return []string{params.Utf8Text(source)}
	}
	var names []string
	for i := uint(0); i < uint(params.ChildCount()); i++ {
		child := params.Child(i)
		if !child.IsNamed() {
			continue
		}
		switch child.Kind() {
		case "identifier":
			names = append(names, child.Utf8Text(source))
		case "required_parameter", "optional_parameter":
			if inner := firstNamedChild(child); inner != nil && inner.Kind() == "identifier" {
				names = append(names, inner.Utf8Text(source))
			}
		}
	}
	return names
}

func hasAsyncKeyword(fn *ts.Node, source []byte) bool {
	for i := uint(0); i < uint(fn.ChildCount()); i++ {
		child := fn.Child(i)
		if child.Kind() == "async" {
			return true
		}
		if child.IsNamed() {
			break
		}
	}
	return false
}

func blockHasReturn(block *ts.Node) bool {
	if block == nil {
		return false
	}
	for i := uint(0); i < uint(block.ChildCount()); i++ {
		stmt := block.Child(i)
		if stmt.Kind() == "return_statement" && firstNamedChild(stmt) != nil {
			return true
		}
	}
	return false
}

func functionHasReturn(fn *ts.Node) bool {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return false
	}
	if body.Kind() != "statement_block" {
		return true
	}
	return blockHasReturn(body)
}

// inlineHandlerProcesses finds arrow functions bound directly to JSX event
// attributes and names them by attribute and line.
func inlineHandlerProcesses(body *ts.Node, source []byte, lines *position.LineIndex) []model.Process {
	var procs []model.Process
	var walk func(n *ts.Node)
	walk = func(n *ts.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "jsx_attribute" {
			if p, ok := inlineHandlerFromAttribute(n, source, lines); ok {
				procs = append(procs, p)
			}
		}
		for i := uint(0); i < uint(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.IsNamed() {
				walk(child)
			}
		}
	}
	walk(body)
	return procs
}

func inlineHandlerFromAttribute(attr *ts.Node, source []byte, lines *position.LineIndex) (model.Process, bool) {
	name := firstNamedChild(attr)
	if name == nil {
		return model.Process{}, false
	}
	attrName := name.Utf8Text(source)
	if !isEventAttribute(attrName) {
		return model.Process{}, false
	}

	var fn *ts.Node
	for i := uint(0); i < uint(attr.ChildCount()); i++ {
		child := attr.Child(i)
		if child.Kind() != "jsx_expression" {
			continue
		}
		if inner := unwrapExpression(firstNamedChild(child)); inner != nil && isFunctionNode(inner) {
			fn = inner
		}
	}
	if fn == nil {
		return model.Process{}, false
	}

	start := int(fn.StartByte())
	p := model.Process{
		Name:   fmt.Sprintf("inline_%s_%d", attrName, lines.Line(start)),
		Type:   model.ProcessEventHandler,
		Line:   lines.Line(start),
		Column: lines.Column(start),
	}
	applyBody(&p, extractBody(fn, source))
	return p, true
}

// isEventAttribute matches React's onXxx handler convention.
func isEventAttribute(name string) bool {
	if !strings.HasPrefix(name, "on") || len(name) < 3 {
		return false
	}
	c := name[2]
	return c >= 'A' && c <= 'Z'
}

func applyBody(p *model.Process, info bodyInfo) {
	p.References = info.references
	p.Writes = info.writes
	p.ExternalCalls = info.externals
	p.ImperativeCalls = info.imperative
}
