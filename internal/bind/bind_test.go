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

package bind_test

import (
	"testing"

	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/bind"
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/syntax/synthetic"
)

// buildLocalAndFunc mirrors:
//
//	local zzzlocalvar = "hi"
//	function zzzfunc(zzzparam1, zzzparam2)
//	  return zzzparam1
//	end
//	zzzglobal = zzzfunc(1, 2)
//
// Identifier spellings are chosen so none is a substring of another or of
// any keyword, since synthetic.Source.Span finds nodes by text occurrence.
func buildLocalAndFunc(src *synthetic.Source) *syntax.File {
	localStmt := &syntax.LocalStmt{
		Names:  []*syntax.Ident{src.Ident("zzzlocalvar", 0)},
		Values: []syntax.Expr{src.String(`"hi"`, "hi", 0)},
	}
	fnBody := []syntax.Stmt{&syntax.ReturnStmt{Values: []syntax.Expr{src.Ident("zzzparam1", 1)}}}
	fnDecl := &syntax.FunctionDeclStmt{
		Name: syntax.FuncName{Base: src.Ident("zzzfunc", 0)},
		Func: &syntax.FunctionExpr{
			Params: []*syntax.Ident{src.Ident("zzzparam1", 0), src.Ident("zzzparam2", 0)},
			Body:   fnBody,
		},
	}
	assign := &syntax.AssignStmt{
		Targets: []syntax.Expr{src.Ident("zzzglobal", 0)},
		Values: []syntax.Expr{&syntax.CallExpr{
			Fn:   src.Ident("zzzfunc", 1),
			Args: []syntax.Expr{src.Number("1", 0), src.Number("2", 0)},
		}},
	}
	return src.File2([]syntax.Stmt{localStmt, fnDecl, assign})
}

func TestBindDeclaresLocalsParamsAndGlobals(t *testing.T) {
	text := `local zzzlocalvar = "hi"
function zzzfunc(zzzparam1, zzzparam2)
  return zzzparam1
end
zzzglobal = zzzfunc(1, 2)
`
	src := synthetic.NewSource("t.lua", text)
	file := buildLocalAndFunc(src)

	f, diags := bind.Bind(file, nil, nil)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if _, ok := f.Chunk.Scope.Own("zzzlocalvar"); !ok {
		t.Fatalf("expected zzzlocalvar to be declared as a local in the chunk scope")
	}

	if len(f.Funcs) != 2 {
		t.Fatalf("expected chunk + one nested function, got %d", len(f.Funcs))
	}
	fn := f.Funcs[1]
	if len(fn.Params) != 2 || fn.Params[0].Name != "zzzparam1" || fn.Params[1].Name != "zzzparam2" {
		t.Fatalf("unexpected params: %+v", fn.Params)
	}
	if fn.Params[0].Kind != bind.SymParam {
		t.Fatalf("expected param kind, got %v", fn.Params[0].Kind)
	}

	if _, ok := f.Globals.Own("zzzglobal"); !ok {
		t.Fatalf("expected zzzglobal to be registered as a global symbol")
	}
	if _, ok := f.Globals.Own("zzzfunc"); !ok {
		t.Fatalf("expected zzzfunc (non-local function decl) to be registered as a global symbol")
	}
}

func TestBindParamAnnotationsAttachDeclaredTypes(t *testing.T) {
	text := `---@param zzznum number
---@param zzzstr string?
---@return boolean
function zzzfn(zzznum, zzzstr)
  return true
end
`
	src := synthetic.NewSource("t.lua", text)
	fnDecl := &syntax.FunctionDeclStmt{
		Name: syntax.FuncName{Base: src.Ident("zzzfn", 0)},
		Func: &syntax.FunctionExpr{
			Params: []*syntax.Ident{src.Ident("zzznum", 1), src.Ident("zzzstr", 1)},
			Body:   []syntax.Stmt{&syntax.ReturnStmt{}},
		},
	}
	// The annotation extractor's association algorithm compares statement
	// and comment spans by start offset (internal/annotate "Association
	// algorithm"), so the declaration statement needs a real span spanning
	// at least its own keyword, or every annotation but the first would be
	// attached past it to the file level instead.
	fnDecl.Sp = src.Span("function zzzfn", 0)
	file := src.File2([]syntax.Stmt{fnDecl})
	result := annotate.Extract(file)
	if len(result.Diags) != 0 {
		t.Fatalf("unexpected extraction diagnostics: %v", result.Diags)
	}

	f, diags := bind.Bind(file, result.Blocks, nil)
	if len(diags) != 0 {
		t.Fatalf("unexpected bind diagnostics: %v", diags)
	}
	if len(f.Funcs) != 2 {
		t.Fatalf("expected chunk + one function, got %d", len(f.Funcs))
	}
	fn := f.Funcs[1]
	if fn.Params[0].Declared == nil || fn.Params[0].Declared.String() != "number" {
		t.Fatalf("expected param zzznum to be declared number, got %v", fn.Params[0].Declared)
	}
	if !fn.Params[1].Optional {
		t.Fatalf("expected param zzzstr to be optional")
	}
	if fn.Returns == nil || len(fn.Returns.Elems) != 1 || fn.Returns.Elems[0].String() != "boolean" {
		t.Fatalf("expected declared return [boolean], got %v", fn.Returns)
	}
}
