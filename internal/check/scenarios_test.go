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

// scenarios_test.go runs the end-to-end literal inputs named S1-S9, each
// built by hand into a syntax tree (no real Lua parser is available to this
// module) and driven through the whole pipeline: annotate.Extract,
// registry.Build, bind.Bind, check.Check.
package check_test

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/lua-ls/core/config"
	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/bind"
	"github.com/lua-ls/core/internal/check"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/registry"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/syntax/synthetic"
	"github.com/lua-ls/core/internal/types"
)

// word returns the span of the occurrence'th (0-based) whole-word match of
// tok anywhere in src's text, including inside comments — the literal S1-S6
// inputs reuse short names like x/v/a/b/e/p/f that are also substrings of
// keywords ("number" contains "b" and "e"), so a plain substring search
// (synthetic.Source.Span) is not safe for them; \b anchors to real token
// boundaries instead.
func word(t *testing.T, src *synthetic.Source, tok string, occurrence int) span.Span {
	t.Helper()
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(tok) + `\b`)
	idx := re.FindAllStringIndex(src.Text, -1)
	if occurrence >= len(idx) {
		t.Fatalf("word %q occurrence %d not found in %q", tok, occurrence, src.Text)
	}
	return src.File.Span(idx[occurrence][0], idx[occurrence][1])
}

func ident(t *testing.T, src *synthetic.Source, name string, occurrence int) *syntax.Ident {
	id := &syntax.Ident{Name: name}
	id.Sp = word(t, src, name, occurrence)
	return id
}

func number(t *testing.T, src *synthetic.Source, text string, occurrence int) *syntax.NumberLit {
	n := &syntax.NumberLit{Text: text}
	n.Sp = word(t, src, text, occurrence)
	return n
}

func nilLit(t *testing.T, src *synthetic.Source, occurrence int) *syntax.NilLit {
	n := &syntax.NilLit{}
	n.Sp = word(t, src, "nil", occurrence)
	return n
}

// pipeline runs the four real pipeline stages over body and returns the
// resulting report alongside every diagnostic raised before checking even
// started (extraction, lowering, registry construction), merged the way a
// real front end would present them.
func pipeline(t *testing.T, src *synthetic.Source, body []syntax.Stmt) *check.CheckReport {
	t.Helper()
	return pipelineWithConfig(t, src, body, config.Default())
}

// pipelineWithConfig is pipeline with an explicit *config.Config, for
// scenarios that exercise a non-default runtime option (spec §6).
func pipelineWithConfig(t *testing.T, src *synthetic.Source, body []syntax.Stmt, cfg *config.Config) *check.CheckReport {
	t.Helper()
	file := src.File2(body)
	extracted := annotate.Extract(file)

	reg, regDiags, err := registry.Build([]registry.File{{Name: src.Name, Syntax: file, Blocks: extracted.Blocks}}, nil)
	if err != nil {
		t.Fatalf("registry.Build: %v", err)
	}

	bf, bindDiags := bind.Bind(file, extracted.Blocks, reg.Resolver())

	var pre []*diag.Diagnostic
	pre = append(pre, extracted.Diags...)
	pre = append(pre, regDiags...)
	pre = append(pre, bindDiags...)

	return check.Check(context.Background(), file, bf, extracted.Blocks, reg, cfg, pre)
}

func requireHover(t *testing.T, r *check.CheckReport, sp span.Span, want string) {
	t.Helper()
	got, _, ok := r.Hover(sp.Start)
	if !ok {
		t.Fatalf("no hover result at %v", sp)
	}
	if got.String() != want {
		t.Fatalf("hover = %s, want %s", got, want)
	}
}

func requireNoDiags(t *testing.T, r *check.CheckReport) {
	t.Helper()
	if len(r.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.Diagnostics)
	}
}

// S1. Assignment mismatch.
// ---@type number
// local x = 1
// x = "hello"
func TestScenarioS1AssignmentMismatch(t *testing.T) {
	text := "---@type number\nlocal x = 1\nx = \"hello\"\n"
	src := synthetic.NewSource("s1.lua", text)

	localStmt := &syntax.LocalStmt{
		Names:  []*syntax.Ident{ident(t, src, "x", 0)},
		Values: []syntax.Expr{number(t, src, "1", 0)},
	}
	localStmt.Sp = src.Span("local x = 1", 0)

	helloSpan := src.Span(`"hello"`, 0)
	assign := &syntax.AssignStmt{
		Targets: []syntax.Expr{ident(t, src, "x", 1)},
		Values:  []syntax.Expr{&syntax.StringLit{Value: "hello"}},
	}
	assign.Values[0].(*syntax.StringLit).Sp = helloSpan
	assign.Sp = src.Span(`x = "hello"`, 0)

	r := pipeline(t, src, []syntax.Stmt{localStmt, assign})

	if len(r.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(r.Diagnostics), r.Diagnostics)
	}
	d := r.Diagnostics[0]
	if d.Code != diag.AssignTypeMismatch {
		t.Fatalf("code = %s, want %s", d.Code, diag.AssignTypeMismatch)
	}
	if d.Span != helloSpan {
		t.Fatalf("diagnostic span = %v, want span of %q (%v)", d.Span, "hello", helloSpan)
	}
	for _, want := range []string{"number", "string"} {
		if !strings.Contains(d.Message, want) {
			t.Errorf("message %q does not mention %q", d.Message, want)
		}
	}
}

// S2. Optional narrowing.
// ---@type string?
// local s
// if s ~= nil then print(s:upper()) end
func TestScenarioS2OptionalNarrowing(t *testing.T) {
	text := "---@type string?\nlocal s\nif s ~= nil then print(s:upper()) end\n"
	src := synthetic.NewSource("s2.lua", text)

	localStmt := &syntax.LocalStmt{Names: []*syntax.Ident{ident(t, src, "s", 0)}}
	localStmt.Sp = src.Span("local s", 0)

	cond := &syntax.BinaryExpr{Op: "~=", X: ident(t, src, "s", 1), Y: nilLit(t, src, 0)}
	cond.Sp = src.Span("s ~= nil", 0)

	innerCall := &syntax.CallExpr{Fn: ident(t, src, "s", 2), Method: "upper"}
	innerCall.Sp = src.Span("s:upper()", 0)
	outerCall := &syntax.CallExpr{Fn: ident(t, src, "print", 0), Args: []syntax.Expr{innerCall}}
	outerCall.Sp = src.Span("print(s:upper())", 0)
	callStmt := &syntax.CallStmt{Call: outerCall}
	callStmt.Sp = outerCall.Sp

	ifStmt := &syntax.IfStmt{Cond: cond, Then: []syntax.Stmt{callStmt}}
	ifStmt.Sp = src.Span("if s ~= nil then print(s:upper()) end", 0)

	r := pipeline(t, src, []syntax.Stmt{localStmt, ifStmt})

	requireNoDiags(t, r)
	requireHover(t, r, innerCall.Fn.Span(), "string")
}

// S3. Type-guard narrowing.
// ---@type number|string
// local v = 1
// if type(v) == "string" then local a = v else local b = v end
func TestScenarioS3TypeGuardNarrowing(t *testing.T) {
	text := `---@type number|string
local v = 1
if type(v) == "string" then local a = v else local b = v end
`
	src := synthetic.NewSource("s3.lua", text)

	localV := &syntax.LocalStmt{
		Names:  []*syntax.Ident{ident(t, src, "v", 0)},
		Values: []syntax.Expr{number(t, src, "1", 0)},
	}
	localV.Sp = src.Span("local v = 1", 0)

	// occurrence 0 of "type" is the leading "---@type" annotation tag; the
	// call's own identifier is occurrence 1.
	typeCall := &syntax.CallExpr{Fn: ident(t, src, "type", 1), Args: []syntax.Expr{ident(t, src, "v", 1)}}
	typeCall.Sp = src.Span("type(v)", 0)
	strLit := &syntax.StringLit{Value: "string"}
	strLit.Sp = src.Span(`"string"`, 0)
	cond := &syntax.BinaryExpr{Op: "==", X: typeCall, Y: strLit}
	cond.Sp = src.Span(`type(v) == "string"`, 0)

	localA := &syntax.LocalStmt{
		Names:  []*syntax.Ident{ident(t, src, "a", 0)},
		Values: []syntax.Expr{ident(t, src, "v", 2)},
	}
	localA.Sp = src.Span("local a = v", 0)

	localB := &syntax.LocalStmt{
		Names:  []*syntax.Ident{ident(t, src, "b", 0)},
		Values: []syntax.Expr{ident(t, src, "v", 3)},
	}
	localB.Sp = src.Span("local b = v", 0)

	ifStmt := &syntax.IfStmt{Cond: cond, Then: []syntax.Stmt{localA}, Else: []syntax.Stmt{localB}}
	ifStmt.Sp = src.Span(`if type(v) == "string" then local a = v else local b = v end`, 0)

	r := pipeline(t, src, []syntax.Stmt{localV, ifStmt})

	requireNoDiags(t, r)
	requireHover(t, r, localA.Names[0].Span(), "string")
	requireHover(t, r, localB.Names[0].Span(), "number")
}

// S4. Sealed record unknown field.
// ---@class (exact) P
// ---@field x number
// ---@field y number
// local p = {}
// p.x = 1
// p.y = 2
// p.z = 3
func TestScenarioS4SealedRecordUnknownField(t *testing.T) {
	text := `---@class (exact) P
---@field x number
---@field y number
local p = {}
p.x = 1
p.y = 2
p.z = 3
`
	src := synthetic.NewSource("s4.lua", text)

	table := &syntax.TableExpr{}
	table.Sp = src.Span("{}", 0)
	localP := &syntax.LocalStmt{
		Names:  []*syntax.Ident{ident(t, src, "p", 0)},
		Values: []syntax.Expr{table},
	}
	localP.Sp = src.Span("local p = {}", 0)

	assignField := func(field string, occurrence int, valueText string) *syntax.AssignStmt {
		fx := &syntax.FieldExpr{X: ident(t, src, "p", occurrence), Name: field}
		fx.Sp = src.Span("p."+field, 0)
		val := number(t, src, valueText, 0)
		a := &syntax.AssignStmt{Targets: []syntax.Expr{fx}, Values: []syntax.Expr{val}}
		a.Sp = src.Span(fmt.Sprintf("p.%s = %s", field, valueText), 0)
		return a
	}

	assignX := assignField("x", 1, "1")
	assignY := assignField("y", 2, "2")
	assignZ := assignField("z", 3, "3")

	r := pipeline(t, src, []syntax.Stmt{localP, assignX, assignY, assignZ})

	if len(r.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(r.Diagnostics), r.Diagnostics)
	}
	d := r.Diagnostics[0]
	if d.Code != diag.FieldTypeMismatch {
		t.Fatalf("code = %s, want %s", d.Code, diag.FieldTypeMismatch)
	}
	wantSpan := src.Span("p.z", 0)
	if d.Span != wantSpan {
		t.Fatalf("diagnostic span = %v, want span of p.z (%v)", d.Span, wantSpan)
	}
}

// S5. Generic identity.
// ---@generic T
// ---@param x T
// ---@return T
// local function id(x) return x end
// local a = id(1)
// local b = id("hi")
func TestScenarioS5GenericIdentity(t *testing.T) {
	text := `---@generic T
---@param x T
---@return T
local function id(x) return x end
local a = id(1)
local b = id("hi")
`
	src := synthetic.NewSource("s5.lua", text)

	ret := &syntax.ReturnStmt{Values: []syntax.Expr{ident(t, src, "x", 2)}}
	ret.Sp = src.Span("return x end", 0)
	fnExpr := &syntax.FunctionExpr{
		Params: []*syntax.Ident{ident(t, src, "x", 1)},
		Body:   []syntax.Stmt{ret},
	}
	fnExpr.Sp = src.Span("function id(x) return x end", 0)
	fnDecl := &syntax.FunctionDeclStmt{
		Name:  syntax.FuncName{Base: ident(t, src, "id", 0)},
		Local: true,
		Func:  fnExpr,
	}
	fnDecl.Sp = src.Span("local function id(x) return x end", 0)

	callA := &syntax.CallExpr{Fn: ident(t, src, "id", 1), Args: []syntax.Expr{number(t, src, "1", 0)}}
	callA.Sp = src.Span("id(1)", 0)
	localA := &syntax.LocalStmt{Names: []*syntax.Ident{ident(t, src, "a", 0)}, Values: []syntax.Expr{callA}}
	localA.Sp = src.Span("local a = id(1)", 0)

	hiLit := &syntax.StringLit{Value: "hi"}
	hiLit.Sp = src.Span(`"hi"`, 0)
	callB := &syntax.CallExpr{Fn: ident(t, src, "id", 2), Args: []syntax.Expr{hiLit}}
	callB.Sp = src.Span(`id("hi")`, 0)
	localB := &syntax.LocalStmt{Names: []*syntax.Ident{ident(t, src, "b", 0)}, Values: []syntax.Expr{callB}}
	localB.Sp = src.Span(`local b = id("hi")`, 0)

	r := pipeline(t, src, []syntax.Stmt{fnDecl, localA, localB})

	requireNoDiags(t, r)
	requireHover(t, r, localA.Names[0].Span(), "integer")
	requireHover(t, r, localB.Names[0].Span(), "string")
}

// S6. Multi-return destructuring.
// ---@return number?, string?
// local function f() return 1, nil end
// local v, e = f()
func TestScenarioS6MultiReturnDestructuring(t *testing.T) {
	text := `---@return number?, string?
local function f() return 1, nil end
local v, e = f()
`
	src := synthetic.NewSource("s6.lua", text)

	ret := &syntax.ReturnStmt{Values: []syntax.Expr{number(t, src, "1", 0), nilLit(t, src, 0)}}
	ret.Sp = src.Span("return 1, nil", 0)
	fnExpr := &syntax.FunctionExpr{Body: []syntax.Stmt{ret}}
	fnExpr.Sp = src.Span("function f() return 1, nil end", 0)
	fnDecl := &syntax.FunctionDeclStmt{
		Name:  syntax.FuncName{Base: ident(t, src, "f", 0)},
		Local: true,
		Func:  fnExpr,
	}
	fnDecl.Sp = src.Span("local function f() return 1, nil end", 0)

	call := &syntax.CallExpr{Fn: ident(t, src, "f", 1)}
	call.Sp = src.Span("f()", 0)
	localVE := &syntax.LocalStmt{
		Names:  []*syntax.Ident{ident(t, src, "v", 0), ident(t, src, "e", 0)},
		Values: []syntax.Expr{call},
	}
	localVE.Sp = src.Span("local v, e = f()", 0)

	r := pipeline(t, src, []syntax.Stmt{fnDecl, localVE})

	requireNoDiags(t, r)
	requireHover(t, r, localVE.Names[0].Span(), "number?")
	requireHover(t, r, localVE.Names[1].Span(), "string?")
}

// S7. Overload resolution (spec §4.5 "Calls": "If f has an @overload set,
// attempt each alternative in declaration order").
// ---@overload fun(x: number): string
// ---@param x string
// ---@return number
// local function f(x) return 1 end
// local a = f(1)
// local b = f("hi")
func TestScenarioS7OverloadResolution(t *testing.T) {
	text := `---@overload fun(x: number): string
---@param x string
---@return number
local function f(x) return 1 end
local a = f(1)
local b = f("hi")
`
	src := synthetic.NewSource("s7.lua", text)

	ret := &syntax.ReturnStmt{Values: []syntax.Expr{number(t, src, "1", 0)}}
	ret.Sp = src.Span("return 1 end", 0)
	fnExpr := &syntax.FunctionExpr{
		Params: []*syntax.Ident{ident(t, src, "x", 2)},
		Body:   []syntax.Stmt{ret},
	}
	fnExpr.Sp = src.Span("function f(x) return 1 end", 0)
	fnDecl := &syntax.FunctionDeclStmt{
		Name:  syntax.FuncName{Base: ident(t, src, "f", 0)},
		Local: true,
		Func:  fnExpr,
	}
	fnDecl.Sp = src.Span("local function f(x) return 1 end", 0)

	callA := &syntax.CallExpr{Fn: ident(t, src, "f", 1), Args: []syntax.Expr{number(t, src, "1", 1)}}
	callA.Sp = src.Span("f(1)", 0)
	localA := &syntax.LocalStmt{Names: []*syntax.Ident{ident(t, src, "a", 0)}, Values: []syntax.Expr{callA}}
	localA.Sp = src.Span("local a = f(1)", 0)

	hiLit := &syntax.StringLit{Value: "hi"}
	hiLit.Sp = src.Span(`"hi"`, 0)
	callB := &syntax.CallExpr{Fn: ident(t, src, "f", 2), Args: []syntax.Expr{hiLit}}
	callB.Sp = src.Span(`f("hi")`, 0)
	localB := &syntax.LocalStmt{Names: []*syntax.Ident{ident(t, src, "b", 0)}, Values: []syntax.Expr{callB}}
	localB.Sp = src.Span(`local b = f("hi")`, 0)

	r := pipeline(t, src, []syntax.Stmt{fnDecl, localA, localB})

	requireNoDiags(t, r)
	requireHover(t, r, localA.Names[0].Span(), "string")
	requireHover(t, r, localB.Names[0].Span(), "number")
}

// S8. inferParamType (spec §6): an unannotated parameter used in
// arithmetic directly in its own function body is guessed as number when
// the option is on, and stays any (the spec default) when it is off.
// local function double(x) return x + x end
func buildDoubleFunc(t *testing.T, src *synthetic.Source) (*syntax.FunctionDeclStmt, *syntax.Ident) {
	xInBody := ident(t, src, "x", 1)
	plus := &syntax.BinaryExpr{Op: "+", X: xInBody, Y: ident(t, src, "x", 2)}
	plus.Sp = src.Span("x + x", 0)
	ret := &syntax.ReturnStmt{Values: []syntax.Expr{plus}}
	ret.Sp = src.Span("return x + x end", 0)
	fnExpr := &syntax.FunctionExpr{
		Params: []*syntax.Ident{ident(t, src, "x", 0)},
		Body:   []syntax.Stmt{ret},
	}
	fnExpr.Sp = src.Span("function double(x) return x + x end", 0)
	fnDecl := &syntax.FunctionDeclStmt{
		Name:  syntax.FuncName{Base: ident(t, src, "double", 0)},
		Local: true,
		Func:  fnExpr,
	}
	fnDecl.Sp = src.Span("local function double(x) return x + x end", 0)
	return fnDecl, xInBody
}

func TestScenarioS8InferParamTypeOffDefaultsToAny(t *testing.T) {
	text := "local function double(x) return x + x end\n"
	src := synthetic.NewSource("s8a.lua", text)
	fnDecl, xInBody := buildDoubleFunc(t, src)

	r := pipelineWithConfig(t, src, []syntax.Stmt{fnDecl}, config.Default())

	requireHover(t, r, xInBody.Span(), "any")
}

func TestScenarioS8InferParamTypeOnInfersNumberFromArithmeticUse(t *testing.T) {
	text := "local function double(x) return x + x end\n"
	src := synthetic.NewSource("s8b.lua", text)
	fnDecl, xInBody := buildDoubleFunc(t, src)

	cfg := config.Default()
	cfg.InferParamType = true
	r := pipelineWithConfig(t, src, []syntax.Stmt{fnDecl}, cfg)

	requireHover(t, r, xInBody.Span(), "number")
}

// S9. checkTableShape (spec §6): an open (non-exact) class with a known
// field set rejects an unknown field write only when the option is on.
// ---@class P
// ---@field x number
// local p = {}
// p.z = 3
func buildOpenClassFieldWrite(t *testing.T, src *synthetic.Source) []syntax.Stmt {
	table := &syntax.TableExpr{}
	table.Sp = src.Span("{}", 0)
	localP := &syntax.LocalStmt{
		Names:  []*syntax.Ident{ident(t, src, "p", 0)},
		Values: []syntax.Expr{table},
	}
	localP.Sp = src.Span("local p = {}", 0)

	fz := &syntax.FieldExpr{X: ident(t, src, "p", 1), Name: "z"}
	fz.Sp = src.Span("p.z", 0)
	val := number(t, src, "3", 0)
	assignZ := &syntax.AssignStmt{Targets: []syntax.Expr{fz}, Values: []syntax.Expr{val}}
	assignZ.Sp = src.Span("p.z = 3", 0)

	return []syntax.Stmt{localP, assignZ}
}

func TestScenarioS9CheckTableShapeOffAllowsUnknownFieldOnOpenClass(t *testing.T) {
	text := "---@class P\n---@field x number\nlocal p = {}\np.z = 3\n"
	src := synthetic.NewSource("s9a.lua", text)
	body := buildOpenClassFieldWrite(t, src)

	r := pipelineWithConfig(t, src, body, config.Default())

	requireNoDiags(t, r)
}

func TestScenarioS9CheckTableShapeOnRejectsUnknownFieldOnOpenClass(t *testing.T) {
	text := "---@class P\n---@field x number\nlocal p = {}\np.z = 3\n"
	src := synthetic.NewSource("s9b.lua", text)
	body := buildOpenClassFieldWrite(t, src)

	cfg := config.Default()
	cfg.CheckTableShape = true
	r := pipelineWithConfig(t, src, body, cfg)

	if len(r.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(r.Diagnostics), r.Diagnostics)
	}
	if r.Diagnostics[0].Code != diag.FieldTypeMismatch {
		t.Fatalf("code = %s, want %s", r.Diagnostics[0].Code, diag.FieldTypeMismatch)
	}
}
