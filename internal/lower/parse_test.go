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

package lower_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lua-ls/core/internal/lower"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/types"
)

func lowerText(t *testing.T, text string, resolve lower.AliasResolver) types.Type {
	t.Helper()
	sp := span.NewFile("t.lua", 0, len(text)).Span(0, len(text))
	got, diags := lower.Lower(text, sp, resolve)
	if len(diags) != 0 {
		t.Fatalf("Lower(%q) diagnostics: %v", text, diags)
	}
	return got
}

func TestLowerPrimitivesAndUnion(t *testing.T) {
	cases := map[string]string{
		"number":         "number",
		"integer":        "integer",
		"string?":        "string?",
		"number|string":  "number|string",
		"number[]":       "number[]",
		"(number|string)[]": "(number|string)[]",
	}
	for text, want := range cases {
		got := lowerText(t, text, nil).String()
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Lower(%q) mismatch (-want +got):\n%s", text, diff)
		}
	}
}

func TestLowerTuple(t *testing.T) {
	got := lowerText(t, "[number, string?]", nil)
	tup, ok := got.(*types.Tuple)
	if !ok {
		t.Fatalf("Lower([number, string?]) = %T, want *types.Tuple", got)
	}
	if diff := cmp.Diff([]string{"number", "string?"}, []string{tup.Elems[0].String(), tup.Elems[1].String()}); diff != "" {
		t.Errorf("tuple element mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerMapAndTableSugar(t *testing.T) {
	got := lowerText(t, "table<string, number>", nil)
	m, ok := got.(*types.Map)
	if !ok {
		t.Fatalf("Lower(table<string, number>) = %T, want *types.Map", got)
	}
	if m.Key.String() != "string" || m.Value.String() != "number" {
		t.Fatalf("unexpected map key/value: %s/%s", m.Key, m.Value)
	}

	// Bare "table" (no generic args) widens to Any, the untyped escape
	// hatch (spec §4.2).
	if bare := lowerText(t, "table", nil); bare != types.Any {
		t.Fatalf("Lower(table) = %v, want Any", bare)
	}
}

func TestLowerRecordLiteral(t *testing.T) {
	got := lowerText(t, "{x: number, y: string}", nil)
	rec, ok := got.(*types.Record)
	if !ok {
		t.Fatalf("Lower record = %T, want *types.Record", got)
	}
	if !rec.Sealed {
		t.Fatalf("expected a braced record literal to be sealed")
	}
	if v, ok := rec.Lookup("x"); !ok || v.String() != "number" {
		t.Fatalf("Lookup(x) = (%v, %v), want (number, true)", v, ok)
	}
}

func TestLowerFunctionSignature(t *testing.T) {
	got := lowerText(t, "fun(a: number, b?: string): boolean", nil)
	fn, ok := got.(*types.Function)
	if !ok {
		t.Fatalf("Lower(fun...) = %T, want *types.Function", got)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" || !fn.Params[1].Optional {
		t.Fatalf("unexpected params: %+v", fn.Params)
	}
	if fn.Returns == nil || len(fn.Returns.Elems) != 1 || fn.Returns.Elems[0].String() != "boolean" {
		t.Fatalf("unexpected returns: %+v", fn.Returns)
	}
}

func TestLowerBacktickVarsShareIdentity(t *testing.T) {
	vars := map[string]*types.Var{}
	sp := span.NewFile("t.lua", 0, 10).Span(0, 1)
	a, diagsA := lower.LowerWithVars("`T`", sp, nil, vars)
	b, diagsB := lower.LowerWithVars("`T`", sp, nil, vars)
	if len(diagsA) != 0 || len(diagsB) != 0 {
		t.Fatalf("unexpected diagnostics: %v / %v", diagsA, diagsB)
	}
	va, okA := a.(*types.Var)
	vb, okB := b.(*types.Var)
	if !okA || !okB {
		t.Fatalf("Lower(`T`) = %T, %T, want *types.Var both", a, b)
	}
	if va != vb {
		t.Fatalf("two `T` lowerings with a shared vars map produced distinct *Var identities")
	}
}

func TestLowerUnresolvedAliasIsUnknownKindButKeepsName(t *testing.T) {
	got := lowerText(t, "Widget", nil)
	alias, ok := got.(*types.Alias)
	if !ok {
		t.Fatalf("Lower(Widget) with nil resolver = %T, want *types.Alias", got)
	}
	if alias.Name != "Widget" {
		t.Fatalf("Alias.Name = %q, want Widget", alias.Name)
	}
	if alias.Kind() != types.TopKind {
		t.Fatalf("unresolved Alias.Kind() = %v, want TopKind", alias.Kind())
	}
}

func TestLowerResolvedAliasRendersAsTarget(t *testing.T) {
	resolve := func(name string) func() (types.Type, bool) {
		if name != "Widget" {
			return nil
		}
		return func() (types.Type, bool) { return types.String, true }
	}
	got := lowerText(t, "Widget", resolve)
	if got.String() != "Widget" {
		t.Fatalf("Alias node's own String() = %q, want literal name Widget", got.String())
	}
	if types.Pretty(got) != "string" {
		t.Fatalf("Pretty(resolved alias) = %q, want string (resolved target)", types.Pretty(got))
	}
}

func TestLowerMalformedInputReturnsUnknownAndDiagnostic(t *testing.T) {
	sp := span.NewFile("t.lua", 0, 5).Span(0, 1)
	got, diags := lower.Lower("|", sp, nil)
	if len(diags) == 0 {
		t.Fatalf("expected at least one diagnostic for malformed input")
	}
	if got != types.Unknown {
		t.Fatalf("Lower(malformed) = %v, want Unknown", got)
	}
}
