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

package check

import (
	"github.com/lua-ls/core/internal/bind"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/types"
)

// InlayHint is a synthetic type annotation for a local declaration that has
// no explicit @type (spec §4.5 "inlay_hints").
type InlayHint struct {
	Span span.Span
	Type types.Type
}

// CheckReport is the outcome of Check (spec §6 "Outputs the core
// exposes"). TypeInfos and SymbolIndex are keyed by the exact span of the
// expression/identifier they describe; internal/render turns them into
// presentable hover/inlay text, and resolve_definition is just
// SymbolIndex[sp].DeclSpan since bind.Symbol already records where it was
// declared.
type CheckReport struct {
	Diagnostics []*diag.Diagnostic
	TypeInfos   map[span.Span]types.Type
	InlayHints  []InlayHint
	SymbolIndex map[span.Span]*bind.Symbol
}

// TypeAt returns the type recorded for the expression spanning exactly sp.
func (r *CheckReport) TypeAt(sp span.Span) (types.Type, bool) {
	t, ok := r.TypeInfos[sp]
	return t, ok
}

// Hover implements spec §4.5 "hover(position) -> Option<HoverInfo>": the
// type last inferred for the symbol at position. Since CheckReport records
// one entry per expression node rather than a position-indexed interval
// tree, Hover scans for the smallest recorded span containing pos — the
// same "most specific wins" rule a containment search over nested spans
// naturally gives.
func (r *CheckReport) Hover(pos span.Pos) (types.Type, span.Span, bool) {
	var best span.Span
	var bestType types.Type
	found := false
	for sp, t := range r.TypeInfos {
		if pos < sp.Start || pos >= sp.End {
			continue
		}
		if !found || (sp.End-sp.Start) < (best.End-best.Start) {
			best, bestType, found = sp, t, true
		}
	}
	return bestType, best, found
}

// ResolveDefinition implements spec §6 "resolve_definition(span) ->
// Option<SourceLocation>".
func (r *CheckReport) ResolveDefinition(sp span.Span) (span.Span, bool) {
	sym, ok := r.SymbolIndex[sp]
	if !ok || sym == nil {
		return span.Span{}, false
	}
	return sym.DeclSpan, true
}
