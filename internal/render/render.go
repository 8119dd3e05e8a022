// Copyright 2024 Lua Type Checker Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package render turns a check.CheckReport into the presentable text an LSP
// front end shows a user: hover markdown, inlay hint labels, and a flat
// diagnostic listing — the same role the teacher's internal/core/export
// package plays turning an evaluated *adt.Vertex tree back into printable
// CUE source, here turning a span-indexed types.Type back into printable
// LuaCATS-flavoured text via internal/types.Pretty.
package render

import (
	"fmt"

	"github.com/lua-ls/core/internal/check"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/types"
)

// Hover is the rendered form of spec §4.5 "hover(position) ->
// Option<HoverInfo>": the Markdown an LSP client shows in a hover popup,
// plus the exact span it applies to.
type Hover struct {
	Span     span.Span
	Markdown string
}

// RenderHover formats the type found at pos, if any, as a fenced LuaCATS
// code block — the same "```lua\n...\n```" convention the teacher's CLI
// uses for pretty-printed CUE values (internal/core/export renders a value,
// the caller decides how to frame it for its output format).
func RenderHover(r *check.CheckReport, pos span.Pos) (Hover, bool) {
	t, sp, ok := r.Hover(pos)
	if !ok {
		return Hover{}, false
	}
	return Hover{Span: sp, Markdown: codeBlock(types.Pretty(t))}, true
}

// InlayLabel is the rendered form of one synthesized inlay hint: the
// ": type" suffix an editor inserts after a local's name (spec §4.5
// "inlay_hints").
type InlayLabel struct {
	Span  span.Span
	Label string
}

// RenderInlayHints formats every hint in r, in the order r lists them.
func RenderInlayHints(r *check.CheckReport) []InlayLabel {
	out := make([]InlayLabel, len(r.InlayHints))
	for i, h := range r.InlayHints {
		out[i] = InlayLabel{Span: h.Span, Label: ": " + types.Pretty(h.Type)}
	}
	return out
}

// RenderDiagnostics formats r's diagnostics as one line per entry, as
// "name:offset: severity: message [code]", where offset is the span's start
// Pos (not a line/column pair), suitable for a terminal or a smoke-test
// harness that has no LSP client to hand findings to.
func RenderDiagnostics(name string, r *check.CheckReport) []string {
	out := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, fmt.Sprintf("%s:%d: %s: %s [%s]", name, d.Span.Start, severityText(d.Severity), d.Message, d.Code))
	}
	return out
}

func severityText(s diag.Severity) string {
	switch s {
	case diag.Error:
		return "error"
	case diag.Warning:
		return "warning"
	case diag.Information:
		return "information"
	case diag.Hint:
		return "hint"
	}
	return "unknown"
}

func codeBlock(s string) string {
	return "```lua\n" + s + "\n```"
}
