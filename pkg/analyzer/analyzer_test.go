package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/flowlens/pkg/graph"
	"github.com/gnana997/flowlens/pkg/model"
	"github.com/gnana997/flowlens/pkg/parser"
	"github.com/gnana997/flowlens/pkg/registry"
	"github.com/gnana997/flowlens/pkg/util"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	logger := util.NewLogger(util.LoggerConfig{Level: util.LevelError, Format: util.FormatText})
	pm := parser.NewManager(logger)
	t.Cleanup(func() { pm.Close() })
	return New(pm, nil, nil, nil, logger)
}

func analyze(t *testing.T, src, path string) *Result {
	t.Helper()
	a := newTestAnalyzer(t)
	res, err := a.AnalyzeSource(context.Background(), []byte(src), path)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestAnalyze_StateAndCustomFunction(t *testing.T) {
	src := `import { useState } from 'react';

function Counter() {
  const [count, setCount] = useState(0);
  function inc() {
    setCount(count + 1);
  }
  return <button onClick={inc}>{count}</button>;
}
`
	res := analyze(t, src, "Counter.tsx")

	require.Len(t, res.Hooks, 1)
	h := res.Hooks[0]
	assert.Equal(t, "useState", h.HookName)
	assert.Equal(t, []string{"count", "setCount"}, h.Variables)
	assert.True(t, h.IsReadWritePair)
	assert.Empty(t, h.InitialValue)
	assert.Equal(t, "react", h.Library)
	assert.Equal(t, 4, h.Line)

	require.Len(t, res.Processes, 1)
	p := res.Processes[0]
	assert.Equal(t, "inc", p.Name)
	assert.Equal(t, model.ProcessCustomFunction, p.Type)
	assert.Equal(t, []string{"setCount", "count"}, p.References)
	assert.Empty(t, p.Writes)
}

func TestAnalyze_EmptyDepsArrayIsAbsent(t *testing.T) {
	src := `import { useMemo } from 'react';

function View() {
  const a = useMemo(() => compute(), []);
  const b = useMemo(() => combine(x, y), [x, y]);
  return <div>{a}{b}</div>;
}
`
	res := analyze(t, src, "View.tsx")
	require.Len(t, res.Hooks, 2)
	assert.Nil(t, res.Hooks[0].Dependencies)
	assert.Equal(t, []string{"x", "y"}, res.Hooks[1].Dependencies)
}

func TestAnalyze_RenamedDestructuring(t *testing.T) {
	src := `import useSWR from 'swr';

function Profile() {
  const { data: user, error } = useSWR('/api/user');
  return <div>{user}</div>;
}
`
	res := analyze(t, src, "Profile.tsx")
	require.Len(t, res.Hooks, 1)
	assert.Equal(t, []string{"user", "error"}, res.Hooks[0].Variables)
	assert.Equal(t, "swr", res.Hooks[0].Library)
	require.Len(t, res.Hooks[0].Arguments, 1)
	assert.Equal(t, "/api/user", res.Hooks[0].Arguments[0].Value)
}

func TestAnalyze_TypeAssertionWrapper(t *testing.T) {
	src := `import { useState } from 'react';

function Flag() {
  const [open, setOpen] = useState(initial) as [boolean, (v: boolean) => void];
  return <div>{open}</div>;
}
`
	res := analyze(t, src, "Flag.ts")
	require.Len(t, res.Hooks, 1)
	assert.Equal(t, "useState", res.Hooks[0].HookName)
	assert.Equal(t, "initial", res.Hooks[0].InitialValue)
}

func TestAnalyze_TRPCCalleePath(t *testing.T) {
	src := `import { trpc } from '../utils/trpc';

function UserCard() {
  const { data } = trpc.user.getById.useQuery({ id: 1 });
  return <div>{data}</div>;
}
`
	res := analyze(t, src, "UserCard.tsx")
	require.Len(t, res.Hooks, 1)
	assert.Equal(t, "useQuery", res.Hooks[0].HookName)
	assert.Equal(t, "trpc.user.getById.useQuery", res.Hooks[0].CalleePath)

	var found bool
	for _, n := range res.Nodes {
		if n.Kind == graph.KindExternalInput && n.Label == "user.getById" {
			found = true
		}
	}
	assert.True(t, found, "expected a user.getById resource node")
}

func TestAnalyze_EffectWithCleanup(t *testing.T) {
	src := `import { useEffect, useState } from 'react';

function Ticker() {
  const [tick, setTick] = useState(0);
  useEffect(() => {
    const id = setInterval(() => setTick(t => t + 1), 1000);
    return () => {
      clearInterval(id);
    };
  }, [tick]);
  return <span>{tick}</span>;
}
`
	res := analyze(t, src, "Ticker.tsx")

	var effect *model.Process
	for i := range res.Processes {
		if res.Processes[i].Type == "useEffect" {
			effect = &res.Processes[i]
		}
	}
	require.NotNil(t, effect)
	assert.Equal(t, []string{"tick"}, effect.Dependencies)
	require.NotNil(t, effect.Cleanup)
	assert.Equal(t, model.ProcessCleanup, effect.Cleanup.Type)
	assert.Contains(t, effect.Cleanup.References, "clearInterval")
}

func TestAnalyze_InlineHandlerName(t *testing.T) {
	src := `import { useState } from 'react';

function Toggle() {
  const [on, setOn] = useState(false);
  return <button onClick={() => setOn(!on)}>go</button>;
}
`
	res := analyze(t, src, "Toggle.tsx")

	var handler *model.Process
	for i := range res.Processes {
		if res.Processes[i].Type == model.ProcessEventHandler {
			handler = &res.Processes[i]
		}
	}
	require.NotNil(t, handler)
	assert.Equal(t, "inline_onClick_5", handler.Name)
	assert.Equal(t, []string{"setOn", "on"}, handler.References)
}

func TestAnalyze_ExternalCallWithCallback(t *testing.T) {
	src := `import { useState } from 'react';

function Loader() {
  const [items, setItems] = useState(null);
  function load() {
    api.getItems('all').then(data => setItems(data));
    console.log(items);
  }
  return <div>{items}</div>;
}
`
	res := analyze(t, src, "Loader.tsx")

	var load *model.Process
	for i := range res.Processes {
		if res.Processes[i].Name == "load" {
			load = &res.Processes[i]
		}
	}
	require.NotNil(t, load)
	require.Len(t, load.ExternalCalls, 1)
	assert.Equal(t, "api.getItems", load.ExternalCalls[0].Name)
	assert.Equal(t, []string{"all"}, load.ExternalCalls[0].Args)
	assert.Contains(t, load.ExternalCalls[0].CallbackRefs, "setItems")
	// console.* stays internal.
	for _, ec := range load.ExternalCalls {
		assert.NotContains(t, ec.Name, "console")
	}
	assert.Contains(t, load.References, "setItems")
}

func TestAnalyze_ImperativeRefCall(t *testing.T) {
	src := `import { useRef } from 'react';

function Player() {
  const videoRef = useRef(null);
  function play() {
    videoRef.current.play();
  }
  return <video ref={videoRef} />;
}
`
	res := analyze(t, src, "Player.tsx")

	var play *model.Process
	for i := range res.Processes {
		if res.Processes[i].Name == "play" {
			play = &res.Processes[i]
		}
	}
	require.NotNil(t, play)
	require.Len(t, play.ImperativeCalls, 1)
	assert.Equal(t, "videoRef", play.ImperativeCalls[0].RefName)
	assert.Equal(t, "play", play.ImperativeCalls[0].MethodName)
}

func TestAnalyze_RenderStructure(t *testing.T) {
	src := `import { useState } from 'react';

function List() {
  const [items, setItems] = useState(null);
  const [busy, setBusy] = useState(false);
  return (
    <div>
      {busy ? <Spinner /> : <Ready />}
      {items && <span>{items}</span>}
      <ul>{items.map(item => <li>{item}</li>)}</ul>
    </div>
  );
}
`
	res := analyze(t, src, "List.tsx")
	require.Len(t, res.Renders, 3)

	cond := res.Renders[0]
	require.Equal(t, model.RenderConditional, cond.Kind)
	assert.Equal(t, "busy", cond.Conditional.Expr)
	assert.Equal(t, []string{"busy"}, cond.Conditional.Refs)
	require.NotNil(t, cond.Conditional.WhenTrue)
	assert.Equal(t, "Spinner", cond.Conditional.WhenTrue.Element.Tag)
	require.NotNil(t, cond.Conditional.WhenFalse)
	assert.Equal(t, "Ready", cond.Conditional.WhenFalse.Element.Tag)

	short := res.Renders[1]
	require.Equal(t, model.RenderConditional, short.Kind)
	assert.Nil(t, short.Conditional.WhenFalse)
	assert.Equal(t, "span", short.Conditional.WhenTrue.Element.Tag)

	loop := res.Renders[2]
	require.Equal(t, model.RenderLoop, loop.Kind)
	assert.Equal(t, "items", loop.Loop.Source)
	assert.Equal(t, "item", loop.Loop.Item)
	require.NotNil(t, loop.Loop.Body)
	assert.Equal(t, "li", loop.Loop.Body.Element.Tag)
}

func TestAnalyze_ReducerFixedRoles(t *testing.T) {
	src := `import { useReducer } from 'react';

function Cart() {
  const [{ total, lines }, dispatch] = useReducer(reducer, initial);
  return <div>{total}</div>;
}
`
	res := analyze(t, src, "Cart.tsx")
	require.Len(t, res.Hooks, 1)
	h := res.Hooks[0]
	assert.Equal(t, []string{"total", "lines"}, h.StateProperties)
	assert.Equal(t, model.VarFunction, h.VariableTypes["dispatch"])
}

func TestAnalyze_ProcessorPanicIsIsolated(t *testing.T) {
	logger := util.NewLogger(util.LoggerConfig{Level: util.LevelError, Format: util.FormatText})
	pm := parser.NewManager(logger)
	t.Cleanup(func() { pm.Close() })

	reg := registry.Default(logger)
	reg.Register(panickingProcessor{})
	a := New(pm, nil, reg, nil, logger)

	src := `import { useState } from 'react';

function Mixed() {
  const [ok, setOk] = useState(true);
  const boom = useBoom();
  return <div>{ok}</div>;
}
`
	res, err := a.AnalyzeSource(context.Background(), []byte(src), "Mixed.tsx")
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "useBoom")

	// The healthy occurrence still produced its node.
	var stateNodes int
	for _, n := range res.Nodes {
		if n.Kind == graph.KindDataStore && n.Label == "ok" {
			stateNodes++
		}
	}
	assert.Equal(t, 1, stateNodes)
}

type panickingProcessor struct{}

func (panickingProcessor) Metadata() registry.Metadata {
	return registry.Metadata{ID: "boom", HookNames: []string{"useBoom"}, Priority: 200}
}
func (panickingProcessor) ShouldHandle(h *model.Hook) bool { return h.HookName == "useBoom" }
func (panickingProcessor) Process(s *registry.Session, h *model.Hook) registry.Result {
	panic("unreachable table entry")
}

func TestAnalyze_VueSFC(t *testing.T) {
	src := `<script setup lang="ts">
import { ref, computed } from 'vue';

const count = ref(0);
const doubled = computed(() => count.value * 2);
function inc() {
  count.value++;
}
</script>
<template>
  <p v-if="count > 0">{{ doubled }}</p>
  <p v-else>empty</p>
  <li v-for="item in items">{{ item.name }}</li>
  <button @click="inc">+</button>
</template>
`
	res := analyze(t, src, "Counter.vue")
	assert.Equal(t, "vue", res.Framework)

	require.Len(t, res.Hooks, 2)
	assert.Equal(t, "ref", res.Hooks[0].HookName)
	// Script lines keep their SFC positions.
	assert.Equal(t, 4, res.Hooks[0].Line)
	assert.Equal(t, "computed", res.Hooks[1].HookName)

	var chain *model.Conditional
	var loop *model.Loop
	for _, r := range res.Renders {
		switch r.Kind {
		case model.RenderConditional:
			chain = r.Conditional
		case model.RenderLoop:
			loop = r.Loop
		}
	}
	require.NotNil(t, chain)
	assert.Equal(t, "count > 0", chain.Expr)
	require.NotNil(t, chain.WhenFalse, "v-else should fold into the chain")
	require.NotNil(t, loop)
	assert.Equal(t, "items", loop.Source)
	assert.Equal(t, "item", loop.Item)

	var handler *model.Process
	for i := range res.Processes {
		if res.Processes[i].Type == model.ProcessEventHandler {
			handler = &res.Processes[i]
		}
	}
	require.NotNil(t, handler)
	assert.Equal(t, "inc", handler.Name)
}

func TestAnalyze_WritesViaUpdateExpression(t *testing.T) {
	src := `import { ref } from 'vue';

const total = ref(0);
function bump() {
  total.value++;
}
`
	a := newTestAnalyzer(t)
	res, err := a.AnalyzeSource(context.Background(), []byte(src), "store.ts")
	require.NoError(t, err)

	var bump *model.Process
	for i := range res.Processes {
		if res.Processes[i].Name == "bump" {
			bump = &res.Processes[i]
		}
	}
	require.NotNil(t, bump)
	assert.Equal(t, []string{"total"}, bump.Writes)
}

func TestAnalyze_ImperativeHandleHandlers(t *testing.T) {
	src := `import { useImperativeHandle, useState } from 'react';

function Field(props, ref) {
  const [value, setValue] = useState('');
  useImperativeHandle(ref, () => ({
    focus() {
      inputEl.focus();
    },
    getValue: async (trim) => {
      return trim ? value.trim() : value;
    },
  }), [value]);
  return <input />;
}
`
	res := analyze(t, src, "Field.tsx")

	var handle *model.Process
	for i := range res.Processes {
		if res.Processes[i].Type == "useImperativeHandle" {
			handle = &res.Processes[i]
		}
	}
	require.NotNil(t, handle)
	assert.Equal(t, []string{"value"}, handle.Dependencies)

	// Both member styles expose handlers: method definitions and
	// function-valued pairs.
	require.Len(t, handle.Handlers, 2)

	focus := handle.Handlers[0]
	assert.Equal(t, "focus", focus.Name)
	assert.False(t, focus.Async)
	assert.False(t, focus.HasReturn)
	assert.Empty(t, focus.Params)

	getValue := handle.Handlers[1]
	assert.Equal(t, "getValue", getValue.Name)
	assert.True(t, getValue.Async)
	assert.True(t, getValue.HasReturn)
	assert.Equal(t, []string{"trim"}, getValue.Params)
}

func TestAnalyze_MermaidOutput(t *testing.T) {
	src := `import { useState } from 'react';

function Tiny() {
  const [n, setN] = useState(0);
  return <i>{n}</i>;
}
`
	res := analyze(t, src, "Tiny.tsx")
	out := res.Mermaid()
	assert.Contains(t, out, "flowchart TD")
	assert.Contains(t, out, "n")
}
