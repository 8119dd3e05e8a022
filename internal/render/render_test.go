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

package render_test

import (
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/lua-ls/core/internal/check"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/render"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/types"
)

func testSpan(text string, start, end int) span.Span {
	f := span.NewFile("t.lua", 0, len(text))
	return f.Span(start, end)
}

func TestRenderHover(t *testing.T) {
	text := "local x = 1"
	sp := testSpan(text, 6, 7) // "x"
	report := &check.CheckReport{
		TypeInfos: map[span.Span]types.Type{sp: types.Integer},
	}

	hov, ok := render.RenderHover(report, sp.Start)
	if !ok {
		t.Fatal("expected a hover result")
	}
	if !strings.Contains(hov.Markdown, "integer") {
		t.Errorf("hover markdown %q does not mention integer", hov.Markdown)
	}
	if !strings.HasPrefix(hov.Markdown, "```lua\n") {
		t.Errorf("hover markdown not fenced: %q", hov.Markdown)
	}
}

func TestRenderHoverMiss(t *testing.T) {
	report := &check.CheckReport{TypeInfos: map[span.Span]types.Type{}}
	if _, ok := render.RenderHover(report, span.Pos(0)); ok {
		t.Fatal("expected no hover result for an empty report")
	}
}

func TestRenderInlayHints(t *testing.T) {
	text := "local x = 1"
	sp := testSpan(text, 6, 7)
	report := &check.CheckReport{
		InlayHints: []check.InlayHint{{Span: sp, Type: types.Integer}},
	}

	labels := render.RenderInlayHints(report)
	if len(labels) != 1 {
		t.Fatalf("got %d labels, want 1", len(labels))
	}
	if labels[0].Label != ": integer" {
		t.Errorf("label = %q, want %q", labels[0].Label, ": integer")
	}
}

func TestRenderInlayHintsPreservesOrder(t *testing.T) {
	text := "local a, b = 1, true"
	spA := testSpan(text, 6, 7)
	spB := testSpan(text, 9, 10)
	report := &check.CheckReport{
		InlayHints: []check.InlayHint{
			{Span: spA, Type: types.Integer},
			{Span: spB, Type: types.Boolean},
		},
	}

	got := render.RenderInlayHints(report)
	want := []render.InlayLabel{
		{Span: spA, Label: ": integer"},
		{Span: spB, Label: ": boolean"},
	}
	if diff := pretty.Diff(want, got); len(diff) != 0 {
		t.Errorf("RenderInlayHints order/content mismatch: %v", diff)
	}
}

func TestRenderDiagnostics(t *testing.T) {
	text := "x = nil"
	sp := testSpan(text, 0, 1)
	report := &check.CheckReport{
		Diagnostics: []*diag.Diagnostic{
			diag.Newf(diag.AssignTypeMismatch, sp, "cannot assign %s to declared type %s", types.Nil, types.Integer),
		},
	}

	lines := render.RenderDiagnostics("t.lua", report)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "error") || !strings.Contains(lines[0], string(diag.AssignTypeMismatch)) {
		t.Errorf("diagnostic line missing expected fields: %q", lines[0])
	}
}
