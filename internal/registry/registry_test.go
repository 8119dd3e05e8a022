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

package registry_test

import (
	"testing"

	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/registry"
	"github.com/lua-ls/core/internal/types"
)

func TestBuildClassInheritanceAndFields(t *testing.T) {
	shape := annotate.Block{Records: []annotate.Record{
		annotate.ClassAnno{Name: "Shape"},
	}}
	point := annotate.Block{Records: []annotate.Record{
		annotate.ClassAnno{Name: "Point", Exact: true, Parent: "Shape"},
		annotate.FieldAnno{Name: "x", TypeText: "number"},
		annotate.FieldAnno{Name: "y", TypeText: "number", Optional: true},
	}}

	reg, diags, err := registry.Build([]registry.File{{Name: "t.lua", Blocks: []annotate.Block{shape, point}}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	cls, ok := reg.Class("Point")
	if !ok {
		t.Fatalf("Point not registered")
	}
	if !cls.Sealed {
		t.Fatalf("expected (exact) Point to be Sealed")
	}
	if cls.Parent == nil || cls.Parent.Name != "Shape" {
		t.Fatalf("expected Point.Parent to resolve to Shape, got %v", cls.Parent)
	}
	xt, ok := cls.Lookup("x")
	if !ok || xt.String() != "number" {
		t.Fatalf("Lookup(x) = (%v, %v), want (number, true)", xt, ok)
	}
	yt, ok := cls.Lookup("y")
	if !ok || yt.String() != "number?" {
		t.Fatalf("Lookup(y) = (%v, %v), want (number?, true)", yt, ok)
	}
}

func TestBuildDuplicateDeclarationKeepsFirst(t *testing.T) {
	first := annotate.Block{Records: []annotate.Record{annotate.ClassAnno{Name: "Foo"}}}
	second := annotate.Block{Records: []annotate.Record{annotate.AliasAnno{Name: "Foo", TypeText: "string"}}}

	reg, diags, err := registry.Build([]registry.File{{Name: "t.lua", Blocks: []annotate.Block{first, second}}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(diags) != 1 || diags[0].Code != diag.DuplicateDeclaration {
		t.Fatalf("got diags %v, want exactly one duplicate-declaration", diags)
	}
	if _, ok := reg.Class("Foo"); !ok {
		t.Fatalf("expected the first (class) declaration of Foo to win")
	}
}

func TestBuildClassParentCycleDiagnoses(t *testing.T) {
	// A's parent is B and B's parent is A: resolveClass recurses into its
	// parent synchronously, so this cycle is caught mid-walk.
	a := annotate.Block{Records: []annotate.Record{annotate.ClassAnno{Name: "A", Parent: "B"}}}
	b := annotate.Block{Records: []annotate.Record{annotate.ClassAnno{Name: "B", Parent: "A"}}}

	reg, diags, err := registry.Build([]registry.File{{Name: "t.lua", Blocks: []annotate.Block{a, b}}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var cyclic int
	for _, d := range diags {
		if d.Code == diag.CyclicAlias {
			cyclic++
		}
	}
	if cyclic == 0 {
		t.Fatalf("expected at least one cyclic-alias diagnostic for the parent cycle, got %v", diags)
	}
	if _, ok := reg.Class("A"); !ok {
		t.Fatalf("expected class A to still register despite the cycle")
	}
	if _, ok := reg.Class("B"); !ok {
		t.Fatalf("expected class B to still register despite the cycle")
	}
}

func TestBuildAliasCycleDiagnosesAndResolvesUnknown(t *testing.T) {
	// A = B, B = A: a pure mutual alias cycle with no class/enum anywhere in
	// the chain. aliasResolveFn forces each reference to resolve eagerly
	// (rather than only building a lazy *types.Alias.Resolve closure a later
	// consumer might never call before looping), so the re-entrant resolve
	// for A trips the resolving-status check mid-walk, exactly like the
	// class-parent cycle above.
	a := annotate.Block{Records: []annotate.Record{annotate.AliasAnno{Name: "A", TypeText: "B"}}}
	b := annotate.Block{Records: []annotate.Record{annotate.AliasAnno{Name: "B", TypeText: "A"}}}

	reg, diags, err := registry.Build([]registry.File{{Name: "t.lua", Blocks: []annotate.Block{a, b}}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var cyclic int
	for _, d := range diags {
		if d.Code == diag.CyclicAlias {
			cyclic++
		}
	}
	if cyclic != 2 {
		t.Fatalf("expected exactly two cyclic-alias diagnostics (one per participant), got %d: %v", cyclic, diags)
	}

	aAlias, ok := reg.Alias("A")
	if !ok {
		t.Fatalf("A not registered")
	}
	if aAlias.Kind() != types.TopKind {
		t.Fatalf("A.Kind() = %v, want TopKind (Unknown's kind)", aAlias.Kind())
	}
	if types.Pretty(aAlias) != "unknown" {
		t.Fatalf("Pretty(A) = %q, want %q", types.Pretty(aAlias), "unknown")
	}
	bAlias, ok := reg.Alias("B")
	if !ok {
		t.Fatalf("B not registered")
	}
	if bAlias.Kind() != types.TopKind {
		t.Fatalf("B.Kind() = %v, want TopKind (Unknown's kind)", bAlias.Kind())
	}
	if types.Pretty(bAlias) != "unknown" {
		t.Fatalf("Pretty(B) = %q, want %q", types.Pretty(bAlias), "unknown")
	}
}

func TestBuildAliasChainResolvesThroughIndirection(t *testing.T) {
	x := annotate.Block{Records: []annotate.Record{annotate.AliasAnno{Name: "X", TypeText: "string"}}}
	y := annotate.Block{Records: []annotate.Record{annotate.AliasAnno{Name: "Y", TypeText: "X"}}}

	reg, diags, err := registry.Build([]registry.File{{Name: "t.lua", Blocks: []annotate.Block{x, y}}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	yAlias, ok := reg.Alias("Y")
	if !ok {
		t.Fatalf("Y not registered")
	}
	if types.Pretty(yAlias) != "string" {
		t.Fatalf("Pretty(Y) = %q, want the fully-indirected string", types.Pretty(yAlias))
	}
}

func TestBuildUnknownParentDiagnosesAndOmitsInheritance(t *testing.T) {
	orphan := annotate.Block{Records: []annotate.Record{
		annotate.ClassAnno{Name: "Orphan", Parent: "NoSuchClass"},
	}}

	reg, diags, err := registry.Build([]registry.File{{Name: "t.lua", Blocks: []annotate.Block{orphan}}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	found := false
	for _, d := range diags {
		if d.Code == diag.UnknownName {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an unknown-name diagnostic for the unresolved parent, got %v", diags)
	}
	cls, ok := reg.Class("Orphan")
	if !ok || cls.Parent != nil {
		t.Fatalf("expected Orphan to register with no parent, got %v (ok=%v)", cls, ok)
	}
}

func TestResolverResolvesClassAndAliasNames(t *testing.T) {
	class := annotate.Block{Records: []annotate.Record{annotate.ClassAnno{Name: "Widget"}}}
	alias := annotate.Block{Records: []annotate.Record{annotate.AliasAnno{Name: "Id", TypeText: "string"}}}

	reg, _, err := registry.Build([]registry.File{{Name: "t.lua", Blocks: []annotate.Block{class, alias}}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	resolver := reg.Resolver()

	if fn := resolver("Widget"); fn == nil {
		t.Fatalf("resolver(Widget) = nil, want a resolve func")
	} else if t2, ok := fn(); !ok || t2.String() != "Widget" {
		t.Fatalf("resolver(Widget)() = (%v, %v), want (Widget, true)", t2, ok)
	}

	if fn := resolver("Id"); fn == nil {
		t.Fatalf("resolver(Id) = nil, want a resolve func")
	} else if t2, ok := fn(); !ok || t2.String() != "string" {
		t.Fatalf("resolver(Id)() = (%v, %v), want (string, true)", t2, ok)
	}

	if resolver("Nope") != nil {
		t.Fatalf("resolver(Nope) = non-nil, want nil for an undeclared name")
	}
}
