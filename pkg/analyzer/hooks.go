package analyzer

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/flowlens/pkg/model"
	"github.com/gnana997/flowlens/pkg/position"
)

// stateHookNames are the framework calls that always produce state, even
// when their name escapes the use-prefix convention (Vue composition API).
var stateHookNames = map[string]struct{}{
	"useState": {}, "useReducer": {}, "useContext": {}, "useRef": {},
	"useMemo": {}, "useDeferredValue": {}, "useTransition": {}, "useId": {},
	"ref": {}, "reactive": {}, "computed": {}, "shallowRef": {},
	"toRef": {}, "toRefs": {}, "inject": {}, "provide": {},
	"defineProps": {}, "defineEmits": {}, "defineModel": {},
	"storeToRefs": {},
}

// processHookNames are hook calls whose payload is a function body rather
// than returned state. They are matched by the process pass, never here.
var processHookNames = map[string]struct{}{
	"useEffect": {}, "useLayoutEffect": {}, "useInsertionEffect": {},
	"useCallback": {}, "useImperativeHandle": {},
	"watch": {}, "watchEffect": {}, "watchPostEffect": {},
	"onMounted": {}, "onBeforeMount": {}, "onUnmounted": {},
	"onBeforeUnmount": {}, "onUpdated": {},
}

// initialValueHooks record their first identifier argument as the initial
// value of the produced state.
var initialValueHooks = map[string]struct{}{
	"useState": {}, "useRef": {}, "ref": {}, "reactive": {}, "shallowRef": {},
}

// isHookCall decides whether a call name belongs to the state-hook pass.
func isHookCall(name string) bool {
	if _, ok := processHookNames[name]; ok {
		return false
	}
	if _, ok := stateHookNames[name]; ok {
		return true
	}
	return model.HookNamePattern(name)
}

// collectHooks walks the statements of a component body and returns the
// raw hook occurrences in source order.
func collectHooks(body *ts.Node, source []byte, lines *position.LineIndex) []model.RawHook {
	var hooks []model.RawHook
	for i := uint(0); i < uint(body.ChildCount()); i++ {
		stmt := body.Child(i)
		switch stmt.Kind() {
		case "lexical_declaration", "variable_declaration":
			hooks = append(hooks, hooksFromDeclaration(stmt, source, lines)...)
		case "expression_statement":
			expr := unwrapExpression(firstNamedChild(stmt))
			if expr == nil || expr.Kind() != "call_expression" {
				continue
			}
			if raw, ok := matchHookCall(expr, nil, source, lines); ok {
				hooks = append(hooks, raw)
			}
		case "export_statement":
			// `export const x = useFoo()` inside script setup.
			for j := uint(0); j < uint(stmt.ChildCount()); j++ {
				child := stmt.Child(j)
				if child.Kind() == "lexical_declaration" || child.Kind() == "variable_declaration" {
					hooks = append(hooks, hooksFromDeclaration(child, source, lines)...)
				}
			}
		}
	}
	return hooks
}

// hooksFromDeclaration matches every declarator of a const/let/var
// statement against the hook-call shape.
func hooksFromDeclaration(decl *ts.Node, source []byte, lines *position.LineIndex) []model.RawHook {
	var hooks []model.RawHook
	for i := uint(0); i < uint(decl.ChildCount()); i++ {
		declarator := decl.Child(i)
		if declarator.Kind() != "variable_declarator" {
			continue
		}
		value := unwrapExpression(declarator.ChildByFieldName("value"))
		if value == nil || value.Kind() != "call_expression" {
			continue
		}
		if raw, ok := matchHookCall(value, declarator.ChildByFieldName("name"), source, lines); ok {
			hooks = append(hooks, raw)
		}
	}
	return hooks
}

// matchHookCall builds a RawHook from a call expression and its binding
// pattern. Returns false when the callee is not a recognized hook.
func matchHookCall(call *ts.Node, pattern *ts.Node, source []byte, lines *position.LineIndex) (model.RawHook, bool) {
	name, path := calleeName(call, source)
	if name == "" || !isHookCall(name) {
		return model.RawHook{}, false
	}

	start := int(call.StartByte())
	raw := model.RawHook{
		HookName:   name,
		CalleePath: path,
		Line:       lines.Line(start),
		Column:     lines.Column(start),
	}

	raw.Variables = bindingNames(pattern, source)
	raw.IsReadWritePair = model.IsReadWritePair(raw.Variables)
	raw.StateProperties = statePropertiesOf(pattern, source)

	if ta := call.ChildByFieldName("type_arguments"); ta != nil {
		if param := firstNamedChild(ta); param != nil {
			raw.TypeParameter = param.Utf8Text(source)
		}
	}

	args := call.ChildByFieldName("arguments")
	fillArguments(&raw, args, source)
	return raw, true
}

// statePropertiesOf surfaces member names when the state slot of an array
// pattern is itself destructured: `const [{ count, step }, dispatch] = ...`.
func statePropertiesOf(pattern *ts.Node, source []byte) []string {
	if pattern == nil {
		return nil
	}
	if pattern.Kind() == "array_pattern" {
		if first := firstNamedChild(pattern); first != nil && first.Kind() == "object_pattern" {
			return objectPatternMembers(first, source)
		}
		return nil
	}
	if pattern.Kind() == "object_pattern" {
		return objectPatternMembers(pattern, source)
	}
	return nil
}

// fillArguments records literal and identifier arguments plus the trailing
// dependency array. A literal `[]` dependency list is normalized to nil so
// "empty" and "absent" stay indistinguishable downstream.
func fillArguments(raw *model.RawHook, args *ts.Node, source []byte) {
	if args == nil {
		return
	}
	index := 0
	for i := uint(0); i < uint(args.ChildCount()); i++ {
		arg := args.Child(i)
		if !arg.IsNamed() {
			continue
		}
		arg = unwrapExpression(arg)
		if arg == nil {
			continue
		}

		// A trailing array argument is a dependency list; a leading one is
		// just an initial value.
		if arg.Kind() == "array" && index > 0 {
			raw.Dependencies = dependencyNames(arg, source)
			index++
			continue
		}
		if lit, ok := literalValue(arg, source); ok {
			raw.Arguments = append(raw.Arguments, lit)
			index++
			continue
		}
		if arg.Kind() == "identifier" {
			text := arg.Utf8Text(source)
			raw.ArgumentIdents = append(raw.ArgumentIdents, text)
			if index == 0 {
				if _, wantsInit := initialValueHooks[raw.HookName]; wantsInit {
					raw.InitialValue = text
				}
			}
		}
		index++
	}
}

// dependencyNames extracts identifier roots from a dependency array.
// Empty arrays yield nil.
func dependencyNames(array *ts.Node, source []byte) []string {
	var deps []string
	for i := uint(0); i < uint(array.ChildCount()); i++ {
		elem := array.Child(i)
		if !elem.IsNamed() {
			continue
		}
		if root := rootIdentifier(elem, source); root != "" {
			deps = append(deps, root)
		}
	}
	return deps
}
