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

package bind

import (
	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/lower"
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/types"
)

// Func is one function's binder output: its own top scope (holding params
// and vararg), the declared signature pulled from its annotation block (if
// any), and the block-tree for its body.
type Func struct {
	Node     *syntax.FunctionExpr // nil for the file's top-level chunk
	DeclStmt syntax.Stmt          // statement the annotation block (if any) attaches to
	Scope    *Scope
	Params   []*Symbol
	Vararg   *Symbol // nil if the function/chunk takes no ...
	Generics []*types.Var
	Returns  *types.Tuple // declared from @return annotations; nil if none given
	// Overloads holds every @overload signature declared on this function
	// (spec §4.5 "Calls"), lowered in declaration order.
	Overloads []*types.Function
	Body      *Block
}

// File is the complete binder output for one source file.
type File struct {
	Globals *Scope
	Chunk   *Func   // the top-level file body, modelled as a vararg function
	Funcs   []*Func // every function in the file, chunk first, outer-to-inner declaration order
}

// Binder accumulates the File result while walking the syntax tree once.
type Binder struct {
	byStmt  map[syntax.Stmt]annotate.Block
	resolve lower.AliasResolver
	globals *Scope
	funcs   []*Func
	diags   []*diag.Diagnostic
}

// Bind runs the Binder over file using blocks (the Annotation Extractor's
// output for the same file) to recover declared parameter/return/generic
// types, and resolve to lower any type text found in those annotations
// (typically registry.Registry.Resolver()).
func Bind(file *syntax.File, blocks []annotate.Block, resolve lower.AliasResolver) (*File, []*diag.Diagnostic) {
	b := &Binder{
		byStmt:  map[syntax.Stmt]annotate.Block{},
		resolve: resolve,
		globals: newScope(nil),
	}
	for _, blk := range blocks {
		if blk.Stmt != nil {
			b.byStmt[blk.Stmt] = blk
		}
	}

	chunk := &Func{Scope: newScope(nil), Vararg: &Symbol{Name: "...", Kind: SymVararg, Declared: types.Any}}
	chunk.Scope.Declare(chunk.Vararg)
	b.funcs = append(b.funcs, chunk)
	chunk.Body = b.buildBlock(BlockChunk, chunk.Scope, file.Body)

	return &File{Globals: b.globals, Chunk: chunk, Funcs: b.funcs}, b.diags
}

// declareLocals binds each name in a `local a, b = ...` to a fresh Symbol
// in scope, pulling an explicit `---@type T` from the statement's
// annotation block if present (spec §4.4, §4.5 "Assignment checking"). A
// `---@class Foo` written directly above the local (rather than a
// `---@type`) declares the first name's type as Foo instead — the
// "class documents the module table beneath it" idiom a real LuaCATS
// codebase uses for `---@class Foo\nlocal M = {}`.
func (b *Binder) declareLocals(scope *Scope, s *syntax.LocalStmt) {
	var declared types.Type
	if blk, ok := b.byStmt[s]; ok {
		for _, r := range blk.Records {
			switch rec := r.(type) {
			case annotate.TypeAnno:
				t, diags := lower.Lower(rec.TypeText, rec.Span(), b.resolve)
				b.diags = append(b.diags, diags...)
				declared = t
			case annotate.ClassAnno:
				if resolve := b.resolve; resolve != nil {
					if fn := resolve(rec.Name); fn != nil {
						if t, ok := fn(); ok {
							declared = t
						}
					}
				}
			}
		}
	}
	for i, n := range s.Names {
		d := declared
		if i > 0 {
			d = nil
		}
		scope.Declare(&Symbol{Name: n.Name, Kind: SymLocal, Declared: d, DeclSpan: n.Span()})
	}
}

// declareFunctionName binds the name a `[local] function name(...)`
// declaration introduces: a new local for `local function f`, or resolves
// (and implicitly globalizes) a plain `function f`/`function t.f` name. A
// method declaration (`function Class:m`) does not declare anything in Lua
// scope — it assigns into an existing table/class, handled by the registry.
func (b *Binder) declareFunctionName(scope *Scope, s *syntax.FunctionDeclStmt) {
	if s.Name.Method != "" || len(s.Name.Path) > 0 {
		return
	}
	if s.Local {
		scope.Declare(&Symbol{Name: s.Name.Base.Name, Kind: SymLocal, DeclSpan: s.Name.Base.Span()})
		return
	}
	b.Resolve(scope, s.Name.Base.Name)
}

// bindFunction builds a *Func for a function literal (whether introduced by
// a FunctionDeclStmt or appearing as a value elsewhere), recording it in
// b.funcs in declaration order.
func (b *Binder) bindFunction(fn *syntax.FunctionExpr, enclosing *Scope, declStmt syntax.Stmt) *Func {
	top := newScope(enclosing)
	f := &Func{Node: fn, DeclStmt: declStmt, Scope: top}

	vars := map[string]*types.Var{}
	paramAnnos := map[string]annotate.ParamAnno{}
	var returnAnnos []annotate.ReturnAnno
	var varargAnno *annotate.VarargAnno
	var overloadAnnos []annotate.OverloadAnno
	if blk, ok := b.byStmt[declStmt]; ok {
		for _, r := range blk.Records {
			switch rec := r.(type) {
			case annotate.ParamAnno:
				paramAnnos[rec.Name] = rec
			case annotate.ReturnAnno:
				returnAnnos = append(returnAnnos, rec)
			case annotate.VarargAnno:
				v := rec
				varargAnno = &v
			case annotate.GenericAnno:
				for _, name := range rec.Names {
					f.Generics = append(f.Generics, types.NewVar(name))
					vars[name] = f.Generics[len(f.Generics)-1]
				}
			case annotate.OverloadAnno:
				overloadAnnos = append(overloadAnnos, rec)
			}
		}
	}

	for _, p := range fn.Params {
		sym := &Symbol{Name: p.Name, Kind: SymParam, DeclSpan: p.Span()}
		if pa, ok := paramAnnos[p.Name]; ok {
			t, diags := lower.LowerWithVars(pa.TypeText, pa.Span(), b.resolve, vars)
			b.diags = append(b.diags, diags...)
			if pa.Optional {
				t = types.Optional(t)
			}
			sym.Declared, sym.Optional = t, pa.Optional
		}
		top.Declare(sym)
		f.Params = append(f.Params, sym)
	}
	if fn.Vararg {
		vt := types.Type(types.Any)
		if varargAnno != nil {
			t, diags := lower.LowerWithVars(varargAnno.TypeText, varargAnno.Span(), b.resolve, vars)
			b.diags = append(b.diags, diags...)
			vt = t
		}
		f.Vararg = &Symbol{Name: "...", Kind: SymVararg, Declared: vt}
		top.Declare(f.Vararg)
	}
	if len(returnAnnos) > 0 {
		f.Returns = &types.Tuple{}
		for _, ra := range returnAnnos {
			t, diags := lower.LowerWithVars(ra.TypeText, ra.Span(), b.resolve, vars)
			b.diags = append(b.diags, diags...)
			f.Returns.Elems = append(f.Returns.Elems, t)
		}
	}
	for _, oa := range overloadAnnos {
		t, diags := lower.LowerWithVars(oa.SignatureText, oa.Span(), b.resolve, vars)
		b.diags = append(b.diags, diags...)
		if sig, ok := t.(*types.Function); ok {
			f.Overloads = append(f.Overloads, sig)
		}
	}

	f.Body = b.buildBlock(BlockFunction, top, fn.Body)
	b.funcs = append(b.funcs, f)
	return f
}

// collectNestedFuncs finds FunctionExpr literals reachable from exprs
// (without descending into their own bodies — bindFunction does that) and
// binds each one against declStmt's annotation block, so a function value
// assigned via `local f = function(...) ... end` still picks up the
// @param/@return written on the enclosing local statement.
func (b *Binder) collectNestedFuncs(scope *Scope, declStmt syntax.Stmt, exprs ...syntax.Expr) {
	for _, e := range exprs {
		walkExpr(e, func(ex syntax.Expr) {
			if fn, ok := ex.(*syntax.FunctionExpr); ok {
				b.bindFunction(fn, scope, declStmt)
			}
		})
	}
}

// Resolve looks up name starting at scope and falling back to a (possibly
// newly created) global symbol, the name-resolution rule of spec §4.4.
func (b *Binder) Resolve(scope *Scope, name string) *Symbol {
	if sym, ok := scope.Lookup(name); ok {
		return sym
	}
	if sym, ok := b.globals.Own(name); ok {
		return sym
	}
	sym := &Symbol{Name: name, Kind: SymGlobal}
	b.globals.Declare(sym)
	return sym
}
