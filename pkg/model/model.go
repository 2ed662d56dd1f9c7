// Package model defines the occurrence records produced by the analysis
// engine and consumed by the classification and registry stages.
//
// Records come in two stages: RawHook is the purely syntactic extraction a
// matcher produces, and Hook is the fully enriched record built only after
// library detection and classification have run. Keeping the stages as
// distinct types means no consumer ever sees a half-populated occurrence.
package model

import (
	"strings"
	"unicode"
)

// VarKind classifies a destructured hook variable.
type VarKind string

const (
	// VarData marks a variable holding reactive state or fetched data.
	VarData VarKind = "data"
	// VarFunction marks a variable holding a callable action.
	VarFunction VarKind = "function"
)

// LiteralKind tags the type of a literal-valued call argument.
type LiteralKind string

const (
	LiteralString  LiteralKind = "string"
	LiteralNumber  LiteralKind = "number"
	LiteralBoolean LiteralKind = "boolean"
	LiteralUnknown LiteralKind = "unknown"
)

// Literal is a literal-valued call argument with its source text.
// String literals are stored without their surrounding quotes.
type Literal struct {
	Kind  LiteralKind `json:"kind" msgpack:"kind"`
	Value string      `json:"value" msgpack:"value"`
}

// RawHook is one recognized state/data-producing call site, as extracted by
// a pattern matcher. It carries only syntactic facts; classification and
// library attribution happen later (see Hook).
type RawHook struct {
	// HookName is the called identifier, or the final property of a
	// member-access callee ("React.useState" matches as "useState").
	HookName string `json:"hookName" msgpack:"hookName"`

	// CalleePath is the full callee text when the callee was a member
	// access ("trpc.user.getById.useQuery"); empty for bare identifiers.
	// Processors that encode meaning in the access path (tRPC) read this.
	CalleePath string `json:"calleePath,omitempty" msgpack:"calleePath"`

	// Variables are the destructured/bound names in source order. Order is
	// semantically significant for positional libraries (router hooks,
	// useState pairs).
	Variables []string `json:"variables,omitempty" msgpack:"variables"`

	// Dependencies holds identifier names from a dependency-array argument.
	// nil means no dependency array was present OR the array was empty;
	// an empty literal array is treated as "no tracked dependencies".
	Dependencies []string `json:"dependencies,omitempty" msgpack:"dependencies"`

	// IsReadWritePair is true when there are exactly two variables and the
	// second equals "set" + capitalize(first).
	IsReadWritePair bool `json:"isReadWritePair" msgpack:"isReadWritePair"`

	// Arguments are the literal-valued call arguments.
	Arguments []Literal `json:"arguments,omitempty" msgpack:"arguments"`

	// ArgumentIdents are the identifier-valued call arguments.
	ArgumentIdents []string `json:"argumentIdents,omitempty" msgpack:"argumentIdents"`

	// TypeParameter is the explicit generic type name, when present.
	TypeParameter string `json:"typeParameter,omitempty" msgpack:"typeParameter"`

	// InitialValue is the initializer's identifier for state hooks whose
	// first argument is itself an identifier. Literal initializers leave
	// this empty.
	InitialValue string `json:"initialValue,omitempty" msgpack:"initialValue"`

	// StateProperties lists object-pattern member names when a reducer-style
	// state variable is destructured in place.
	StateProperties []string `json:"stateProperties,omitempty" msgpack:"stateProperties"`

	Line   int `json:"line" msgpack:"line"`
	Column int `json:"column" msgpack:"column"`
}

// Hook is a fully enriched hook occurrence: the syntactic extraction plus
// library attribution and per-variable classification. Built by the
// analyzer's second pass; immutable afterwards.
type Hook struct {
	RawHook

	// Library is the canonical library name detected from imports, or empty
	// when import-based detection failed.
	Library string `json:"library,omitempty" msgpack:"library"`

	// VariableTypes maps each variable to its classification. A missing
	// entry means unclassified; consumers apply their own default.
	VariableTypes map[string]VarKind `json:"variableTypes,omitempty" msgpack:"variableTypes"`
}

// NewHook builds the enriched occurrence from its parts.
func NewHook(raw RawHook, library string, types map[string]VarKind) Hook {
	return Hook{RawHook: raw, Library: library, VariableTypes: types}
}

// IsReadWritePair reports whether vars follow the [value, setValue] state
// hook convention: exactly two names where the second is "set" plus the
// capitalized first.
func IsReadWritePair(vars []string) bool {
	if len(vars) != 2 {
		return false
	}
	return vars[1] == "set"+Capitalize(vars[0])
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ProcessType tags the flavor of an extracted executable unit.
type ProcessType string

const (
	// ProcessCleanup is a function returned from an effect body.
	ProcessCleanup ProcessType = "cleanup"
	// ProcessCustomFunction is a named function declaration or arrow const.
	ProcessCustomFunction ProcessType = "custom-function"
	// ProcessEventHandler is an inline JSX/template callback.
	ProcessEventHandler ProcessType = "event-handler"
	// Effect-like hooks keep their hook name as the type
	// (e.g. "useEffect", "useCallback", "watch").
)

// ExternalCall is one recognized call to an external-service object.
type ExternalCall struct {
	// Name is the full callee text, e.g. "api.getUser".
	Name string `json:"name" msgpack:"name"`

	// Args are the literal/identifier arguments, as source text.
	Args []string `json:"args,omitempty" msgpack:"args"`

	// CallbackRefs holds the reference set of a function-literal argument,
	// when one was passed. These are also folded into the enclosing
	// process's References.
	CallbackRefs []string `json:"callbackRefs,omitempty" msgpack:"callbackRefs"`
}

// ImperativeCall is an identifier.current.method() invocation against a ref
// exposing an imperative handle.
type ImperativeCall struct {
	RefName    string `json:"refName" msgpack:"refName"`
	MethodName string `json:"methodName" msgpack:"methodName"`
}

// Handler is one named method exported through an imperative-handle hook.
type Handler struct {
	Name      string   `json:"name" msgpack:"name"`
	Params    []string `json:"params,omitempty" msgpack:"params"`
	HasReturn bool     `json:"hasReturn" msgpack:"hasReturn"`
	Async     bool     `json:"async" msgpack:"async"`
}

// Process is one extracted executable unit: an effect/memo/callback hook
// body, a named function, or an inline JSX callback.
//
// References, Writes and ExternalCalls never include names bound only inside
// a nested non-callback function literal; nested bodies are opaque except
// when passed as a callback argument to a recognized external call.
type Process struct {
	// Name is the explicit or synthesized name (e.g. "inline_onClick_3").
	Name string `json:"name" msgpack:"name"`

	Type ProcessType `json:"type" msgpack:"type"`

	// Dependencies follows the same convention as RawHook.Dependencies.
	Dependencies []string `json:"dependencies,omitempty" msgpack:"dependencies"`

	// References is the ordered set of free variables read.
	References []string `json:"references,omitempty" msgpack:"references"`

	ExternalCalls   []ExternalCall   `json:"externalCalls,omitempty" msgpack:"externalCalls"`
	ImperativeCalls []ImperativeCall `json:"imperativeCalls,omitempty" msgpack:"imperativeCalls"`

	// Writes is the ordered set of variables mutated via assignment or
	// update expressions.
	Writes []string `json:"writes,omitempty" msgpack:"writes"`

	// Cleanup is the nested process for a function returned from an effect.
	Cleanup *Process `json:"cleanup,omitempty" msgpack:"cleanup"`

	// Handlers lists methods exported via useImperativeHandle.
	Handlers []Handler `json:"handlers,omitempty" msgpack:"handlers"`

	Line   int `json:"line" msgpack:"line"`
	Column int `json:"column" msgpack:"column"`
}

// RenderKind tags one node of the recovered render structure.
type RenderKind string

const (
	RenderElement     RenderKind = "element"
	RenderConditional RenderKind = "conditional"
	RenderLoop        RenderKind = "loop"
)

// Render is one node of the hierarchical template/JSX structure. Exactly one
// of Element, Conditional or Loop is set, matching Kind.
type Render struct {
	Kind        RenderKind   `json:"kind" msgpack:"kind"`
	Element     *Element     `json:"element,omitempty" msgpack:"element"`
	Conditional *Conditional `json:"conditional,omitempty" msgpack:"conditional"`
	Loop        *Loop        `json:"loop,omitempty" msgpack:"loop"`
}

// Element is a plain rendered element and the variables interpolated into it.
type Element struct {
	Tag  string   `json:"tag" msgpack:"tag"`
	Refs []string `json:"refs,omitempty" msgpack:"refs"`
}

// Conditional is a conditional-rendering branch point. Multi-branch chains
// (if / else-if / else) are folded into nested Conditionals on WhenFalse.
type Conditional struct {
	// Expr is a best-effort string rendering of the condition, for labels.
	Expr string `json:"expr" msgpack:"expr"`

	// Refs are the free variables the condition depends on.
	Refs []string `json:"refs,omitempty" msgpack:"refs"`

	WhenTrue  *Render `json:"whenTrue,omitempty" msgpack:"whenTrue"`
	WhenFalse *Render `json:"whenFalse,omitempty" msgpack:"whenFalse"`
}

// Loop is an iteration construct (.map() or v-for).
type Loop struct {
	// Source is the root identifier of the iterated collection.
	Source string `json:"source" msgpack:"source"`

	// Item is the loop-item binding name, when syntactically available.
	Item string `json:"item,omitempty" msgpack:"item"`

	// Condition holds a co-located conditional expression (v-for + v-if on
	// the same element); such elements are excluded from the
	// conditional-only pass to avoid double counting.
	Condition string `json:"condition,omitempty" msgpack:"condition"`

	Body *Render `json:"body,omitempty" msgpack:"body"`
}

// HookNamePattern reports whether name follows the custom-hook convention
// (use followed by an uppercase letter).
func HookNamePattern(name string) bool {
	if !strings.HasPrefix(name, "use") || len(name) < 4 {
		return false
	}
	return unicode.IsUpper(rune(name[3]))
}
