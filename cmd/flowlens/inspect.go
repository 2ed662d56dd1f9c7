package main

import (
	"fmt"
	"strings"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/model"
)

const maxWidth = 80

// printResultHuman prints a human-readable analysis summary to stdout.
func printResultHuman(res *analyzer.Result) {
	fmt.Printf("%s  [%s]\n", res.FilePath, res.Framework)

	fmt.Println()
	printHooksSection(res.Hooks)

	fmt.Println()
	printProcessesSection(res.Processes)

	fmt.Println()
	if len(res.Renders) == 0 {
		fmt.Println("Render structure  (none)")
	} else {
		fmt.Println("Render structure")
		for _, r := range res.Renders {
			printRender(&r, 1)
		}
	}

	if len(res.Diagnostics) > 0 {
		fmt.Println()
		fmt.Println("Diagnostics")
		for _, d := range res.Diagnostics {
			fmt.Printf("  ! %s\n", d)
		}
	}
}

// printHooksSection renders the hooks table with dynamic column widths.
func printHooksSection(hooks []model.Hook) {
	if len(hooks) == 0 {
		fmt.Println("Hooks  (none)")
		return
	}

	fmt.Println("Hooks")

	nameW := len("HOOK")
	libW := len("LIBRARY")
	varsW := len("VARIABLES")
	for _, h := range hooks {
		if len(h.HookName) > nameW {
			nameW = len(h.HookName)
		}
		lib := h.Library
		if lib == "" {
			lib = "local"
		}
		if len(lib) > libW {
			libW = len(lib)
		}
		vars := strings.Join(h.Variables, ", ")
		if len(vars) > varsW {
			varsW = len(vars)
		}
	}

	sepLen := nameW + 6 + libW + varsW + 6
	fmt.Printf("  %-*s  %-4s  %-*s  %-*s\n", nameW, "HOOK", "LINE", libW, "LIBRARY", varsW, "VARIABLES")
	fmt.Printf("  %s\n", strings.Repeat("-", sepLen))

	for _, h := range hooks {
		lib := h.Library
		if lib == "" {
			lib = "local"
		}
		vars := strings.Join(h.Variables, ", ")
		fmt.Printf("  %-*s  %-4d  %-*s  %-*s\n", nameW, h.HookName, h.Line, libW, lib, varsW, vars)

		if len(h.Dependencies) > 0 {
			fmt.Printf("  %s  deps: %s\n", strings.Repeat(" ", nameW), strings.Join(h.Dependencies, ", "))
		}
	}
}

func printProcessesSection(processes []model.Process) {
	if len(processes) == 0 {
		fmt.Println("Processes  (none)")
		return
	}

	fmt.Println("Processes")
	for _, p := range processes {
		fmt.Printf("  %s  [%s] line %d\n", p.Name, p.Type, p.Line)
		if len(p.References) > 0 {
			printWrapped("reads: "+strings.Join(p.References, ", "), 4, maxWidth)
		}
		if len(p.Writes) > 0 {
			printWrapped("writes: "+strings.Join(p.Writes, ", "), 4, maxWidth)
		}
		for _, ec := range p.ExternalCalls {
			detail := ec.Name
			if len(ec.Args) > 0 {
				detail += "(" + strings.Join(ec.Args, ", ") + ")"
			}
			fmt.Printf("    calls: %s\n", detail)
		}
		for _, ic := range p.ImperativeCalls {
			fmt.Printf("    imperative: %s.%s()\n", ic.RefName, ic.MethodName)
		}
		if p.Cleanup != nil {
			fmt.Printf("    cleanup: %s\n", p.Cleanup.Name)
		}
	}
}

func printRender(r *model.Render, depth int) {
	indent := strings.Repeat("  ", depth)
	switch r.Kind {
	case model.RenderElement:
		refs := ""
		if len(r.Element.Refs) > 0 {
			refs = "  {" + strings.Join(r.Element.Refs, ", ") + "}"
		}
		fmt.Printf("%s<%s>%s\n", indent, r.Element.Tag, refs)

	case model.RenderConditional:
		fmt.Printf("%sif %s\n", indent, r.Conditional.Expr)
		if r.Conditional.WhenTrue != nil {
			printRender(r.Conditional.WhenTrue, depth+1)
		}
		if r.Conditional.WhenFalse != nil {
			fmt.Printf("%selse\n", indent)
			printRender(r.Conditional.WhenFalse, depth+1)
		}

	case model.RenderLoop:
		item := r.Loop.Item
		if item == "" {
			item = "_"
		}
		fmt.Printf("%sfor %s in %s\n", indent, item, r.Loop.Source)
		if r.Loop.Body != nil {
			printRender(r.Loop.Body, depth+1)
		}
	}
}

// printWrapped prints text word-wrapped at maxWidth with the given left indent.
func printWrapped(text string, indent, width int) {
	words := strings.Fields(text)
	prefix := strings.Repeat(" ", indent)
	line := prefix
	for _, word := range words {
		if len(line)+len(word)+1 > width && line != prefix {
			fmt.Println(line)
			line = prefix + word
		} else {
			if line == prefix {
				line += word
			} else {
				line += " " + word
			}
		}
	}
	if line != prefix {
		fmt.Println(line)
	}
}
