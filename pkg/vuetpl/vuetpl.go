// Package vuetpl carves Vue single-file components into their script and
// template blocks and recovers render structure from template directives.
//
// Template analysis is regex-based over the markup: directive-bearing
// opening tags are matched in order, and v-if/v-else-if/v-else chains are
// merged when the elements are textually contiguous (nothing but
// whitespace and closing tags between them).
package vuetpl

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gnana997/flowlens/pkg/model"
)

var (
	scriptBlockRe   = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)
	templateBlockRe = regexp.MustCompile(`(?s)<template[^>]*>(.*)</template>`)

	openTagRe       = regexp.MustCompile(`<([a-zA-Z][\w-]*)((?:[^>"']|"[^"]*"|'[^']*')*?)/?>`)
	vIfRe           = regexp.MustCompile(`\bv-if="([^"]*)"`)
	vElseIfRe       = regexp.MustCompile(`\bv-else-if="([^"]*)"`)
	vElseRe         = regexp.MustCompile(`\bv-else\b`)
	vForRe          = regexp.MustCompile(`\bv-for="\s*\(?\s*([\w$]+)[^)"]*\)?\s+(?:in|of)\s+([\w$.]+)\s*"`)
	eventRe         = regexp.MustCompile(`[@]([\w-]+)="([^"]*)"`)
	interpolationRe = regexp.MustCompile(`\{\{([^}]*)\}\}`)
	identRe         = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

	// closingGap matches text made only of whitespace and closing tags,
	// the contiguity condition for chain merging.
	closingGap = regexp.MustCompile(`^(?:\s|</[\w-]+>)*$`)
)

// Block is a carved SFC section with the 1-based line its content starts on.
type Block struct {
	Content   string
	StartLine int
}

// ExtractScript returns the <script> block of an SFC.
func ExtractScript(source []byte) (Block, bool) {
	return extractBlock(source, scriptBlockRe)
}

// ExtractTemplate returns the <template> block of an SFC.
func ExtractTemplate(source []byte) (Block, bool) {
	return extractBlock(source, templateBlockRe)
}

func extractBlock(source []byte, re *regexp.Regexp) (Block, bool) {
	loc := re.FindSubmatchIndex(source)
	if loc == nil {
		return Block{}, false
	}
	contentStart := loc[2]
	line := 1 + strings.Count(string(source[:contentStart]), "\n")
	return Block{
		Content:   string(source[loc[2]:loc[3]]),
		StartLine: line,
	}, true
}

// TemplateResult is everything recovered from one template block.
type TemplateResult struct {
	// Renders holds the conditional and loop structures.
	Renders []model.Render

	// Handlers holds processes synthesized from @event bindings.
	Handlers []model.Process

	// Refs lists identifiers read by {{ }} interpolations, in order.
	Refs []string
}

// directive is one directive-bearing opening tag, positioned in the
// template text.
type directive struct {
	tag      string
	attrs    string
	start    int
	end      int
	vIf      string
	vElseIf  string
	vElse    bool
	forItem  string
	forSrc   string
	hasVFor  bool
	selfEnd  bool
	elemEnd  int
}

// ParseTemplate analyzes template markup for directives, event bindings
// and interpolations.
func ParseTemplate(tpl string, startLine int) TemplateResult {
	var res TemplateResult

	dirs := findDirectives(tpl)
	res.Renders = buildRenders(tpl, dirs)
	res.Handlers = buildHandlers(tpl, startLine)
	res.Refs = interpolationRefs(tpl)
	return res
}

func findDirectives(tpl string) []directive {
	var dirs []directive
	for _, m := range openTagRe.FindAllStringSubmatchIndex(tpl, -1) {
		tag := tpl[m[2]:m[3]]
		attrs := tpl[m[4]:m[5]]
		d := directive{tag: tag, attrs: attrs, start: m[0], end: m[1]}
		if f := vForRe.FindStringSubmatch(attrs); f != nil {
			d.hasVFor = true
			d.forItem = f[1]
			d.forSrc = rootOf(f[2])
		}
		if f := vElseIfRe.FindStringSubmatch(attrs); f != nil {
			d.vElseIf = f[1]
		} else if f := vIfRe.FindStringSubmatch(attrs); f != nil {
			d.vIf = f[1]
		}
		d.vElse = vElseRe.MatchString(attrs)
		d.selfEnd = strings.HasSuffix(tpl[m[0]:m[1]], "/>")
		d.elemEnd = elementEnd(tpl, d)
		if d.hasVFor || d.vIf != "" || d.vElseIf != "" || d.vElse {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// elementEnd approximates where the element's markup ends: self-closing
// tags end at the opening tag; otherwise the first matching closing tag.
// Nested same-tag elements are rare enough in directive chains that the
// first close is an acceptable heuristic.
func elementEnd(tpl string, d directive) int {
	if d.selfEnd {
		return d.end
	}
	closing := "</" + d.tag + ">"
	if idx := strings.Index(tpl[d.end:], closing); idx >= 0 {
		return d.end + idx + len(closing)
	}
	return d.end
}

// buildRenders turns directives into loops and merged conditional chains.
func buildRenders(tpl string, dirs []directive) []model.Render {
	var out []model.Render
	for i := 0; i < len(dirs); i++ {
		d := dirs[i]

		if d.hasVFor {
			loop := &model.Loop{
				Source:    d.forSrc,
				Item:      d.forItem,
				Condition: d.vIf,
				Body:      &model.Render{Kind: model.RenderElement, Element: &model.Element{Tag: d.tag}},
			}
			out = append(out, model.Render{Kind: model.RenderLoop, Loop: loop})
			continue
		}

		if d.vIf == "" {
			// Orphan v-else-if / v-else outside a chain start; either
			// consumed by a previous chain or dropped.
			continue
		}

		cond := &model.Conditional{
			Expr:     d.vIf,
			Refs:     exprIdents(d.vIf),
			WhenTrue: &model.Render{Kind: model.RenderElement, Element: &model.Element{Tag: d.tag}},
		}
		tail := cond
		prev := d

		// Fold contiguous v-else-if / v-else siblings into WhenFalse.
		for i+1 < len(dirs) {
			next := dirs[i+1]
			if next.hasVFor || (next.vElseIf == "" && !next.vElse) {
				break
			}
			if !contiguous(tpl, prev, next) {
				break
			}
			if next.vElseIf != "" {
				nested := &model.Conditional{
					Expr:     next.vElseIf,
					Refs:     exprIdents(next.vElseIf),
					WhenTrue: &model.Render{Kind: model.RenderElement, Element: &model.Element{Tag: next.tag}},
				}
				tail.WhenFalse = &model.Render{Kind: model.RenderConditional, Conditional: nested}
				tail = nested
				prev = next
				i++
				continue
			}
			// v-else terminates the chain.
			tail.WhenFalse = &model.Render{Kind: model.RenderElement, Element: &model.Element{Tag: next.tag}}
			i++
			break
		}
		out = append(out, model.Render{Kind: model.RenderConditional, Conditional: cond})
	}
	return out
}

// contiguous reports whether only whitespace and closing tags separate the
// end of prev's element from the start of next's opening tag.
func contiguous(tpl string, prev, next directive) bool {
	if next.start < prev.elemEnd {
		return false
	}
	return closingGap.MatchString(tpl[prev.elemEnd:next.start])
}

// buildHandlers synthesizes event-handler processes from @event bindings.
// A bare identifier references a named handler; an inline expression gets
// a synthetic name from the event and line.
func buildHandlers(tpl string, startLine int) []model.Process {
	var procs []model.Process
	for _, m := range eventRe.FindAllStringSubmatchIndex(tpl, -1) {
		event := tpl[m[2]:m[3]]
		expr := tpl[m[4]:m[5]]
		line := startLine + strings.Count(tpl[:m[0]], "\n")

		p := model.Process{
			Type: model.ProcessEventHandler,
			Line: line,
		}
		idents := exprIdents(expr)
		if identRe.FindString(expr) == strings.TrimSpace(expr) {
			p.Name = strings.TrimSpace(expr)
			p.References = idents
		} else {
			p.Name = "inline_" + event + "_" + strconv.Itoa(line)
			p.References = idents
		}
		procs = append(procs, p)
	}
	return procs
}

// interpolationRefs lists identifier roots read by {{ }} expressions.
func interpolationRefs(tpl string) []string {
	var refs []string
	seen := make(map[string]struct{})
	for _, m := range interpolationRe.FindAllStringSubmatch(tpl, -1) {
		for _, id := range exprIdents(m[1]) {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				refs = append(refs, id)
			}
		}
	}
	return refs
}

// exprIdents extracts identifier roots from a template expression,
// skipping JS keywords and member tails.
func exprIdents(expr string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, loc := range identRe.FindAllStringIndex(expr, -1) {
		name := expr[loc[0]:loc[1]]
		if loc[0] > 0 && expr[loc[0]-1] == '.' {
			continue
		}
		if isTemplateKeyword(name) {
			continue
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func isTemplateKeyword(name string) bool {
	switch name {
	case "true", "false", "null", "undefined", "in", "of", "typeof", "new":
		return true
	}
	return false
}

func rootOf(path string) string {
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		return path[:idx]
	}
	return path
}
