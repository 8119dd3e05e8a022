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

// Package check implements the Type Checker/Evaluator (spec §4.5): it
// types every statement and expression of a bound file, narrows a
// persistent environment across branches and loops, resolves calls and
// generics, and reports diagnostics plus the state (type_infos,
// inlay_hints, symbol_index) an LSP front end renders from (internal/render
// turns that state into hover/inlay text).
//
// This is the pipeline's evaluator stage, grounded the way the teacher's
// internal/core/eval/eval.go walks a *adt.Vertex tree lazily computing and
// caching each node's value: here the "vertex" is an expression span, the
// "value" is a types.Type, and disjunct.go's backtracking trial of
// alternatives is mirrored by the overload resolver in call.go trying
// declared @overload signatures in order.
package check

import (
	"context"
	"time"

	"github.com/lua-ls/core/config"
	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/bind"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/registry"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/types"
)

// Checker holds the state accumulated while checking one file. It is not
// safe for concurrent use — spec §5 specifies the core as "a single-
// threaded, purely synchronous function"; parallelism happens across
// independent Checker instances over disjoint files, never within one.
type Checker struct {
	cfg  *config.Config
	opts types.Options
	reg  *registry.Registry
	bf   *bind.File

	byStmt      map[syntax.Stmt]annotate.Block
	funcsByNode map[*syntax.FunctionExpr]*bind.Func
	funcSig     map[*bind.Func]*types.Function

	// curFunc/curReturns track the function currently being checked, so
	// that ReturnStmt can validate against its declared signature and, for
	// an undeclared return type, accumulate the tuples checkFunc uses to
	// infer one (spec §4.5 "Function typing ... otherwise inferred from
	// the union of its return statements").
	curFunc     *bind.Func
	curReturns  *[]*types.Tuple

	diags       *diag.Bag
	typeInfos   map[span.Span]types.Type
	symbolIndex map[span.Span]*bind.Symbol
	inlayHints  []InlayHint

	ctx      context.Context
	deadline time.Time
}

// Check runs the full checking pass over file (spec §4.5 "check(file) ->
// CheckReport"): bf and blocks are the Binder's and Annotation Extractor's
// outputs for the same file, reg the workspace Type Registry, cfg the
// recognised runtime options (spec §6), and precedingDiags the
// diagnostics already raised by the earlier pipeline stages (extraction,
// lowering, registry construction) that CheckReport.Diagnostics merges
// alongside the checker's own, kept in the single non-decreasing-span
// order spec §5 requires end to end.
func Check(ctx context.Context, file *syntax.File, bf *bind.File, blocks []annotate.Block, reg *registry.Registry, cfg *config.Config, precedingDiags []*diag.Diagnostic) *CheckReport {
	if cfg == nil {
		cfg = config.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Checker{
		cfg:         cfg,
		opts:        cfg.TypeOptions(),
		reg:         reg,
		bf:          bf,
		byStmt:      map[syntax.Stmt]annotate.Block{},
		funcsByNode: map[*syntax.FunctionExpr]*bind.Func{},
		funcSig:     map[*bind.Func]*types.Function{},
		diags:       diag.NewBag(),
		typeInfos:   map[span.Span]types.Type{},
		symbolIndex: map[span.Span]*bind.Symbol{},
		ctx:         ctx,
	}
	if cfg.Budget > 0 {
		c.deadline = time.Now().Add(cfg.Budget)
	}
	for _, blk := range blocks {
		if blk.Stmt != nil {
			c.byStmt[blk.Stmt] = blk
		}
	}

	for _, d := range precedingDiags {
		c.diags.Add(d)
	}
	if bf != nil {
		// Every function's preliminary signature (params/vararg/declared
		// returns) is known before any body is checked, so a call to a
		// function declared later in the same file still types against a
		// real Function rather than Unknown (spec §4.5 "Calls").
		for _, f := range bf.Funcs {
			if f.Node != nil {
				c.funcsByNode[f.Node] = f
			}
			c.funcSig[f] = c.preliminarySignature(f)
		}
		for _, f := range bf.Funcs {
			c.checkFunc(f)
		}
	}

	return &CheckReport{
		Diagnostics: c.diags.Sorted(),
		TypeInfos:   c.typeInfos,
		InlayHints:  c.inlayHints,
		SymbolIndex: c.symbolIndex,
	}
}

// checkFunc types one function (or the top-level chunk, modelled by
// bind.Bind as a vararg function) from a fresh environment seeded by each
// parameter's call-site type (Env.Lookup would otherwise fall back to
// Symbol.Declared, which is nil for a parameter inferParamType guessed a
// type for, since that guess lives in funcSig, not the binder's Symbol).
func (c *Checker) checkFunc(f *bind.Func) {
	if c.budgetExceeded() {
		c.diags.Add(diag.Newf(diag.TypeckBudgetExceeded, c.funcSpan(f), "type inference budget exceeded before this function could be checked"))
		return
	}
	prevFunc, prevReturns := c.curFunc, c.curReturns
	var collected []*types.Tuple
	c.curFunc, c.curReturns = f, &collected
	env := NewEnv()
	if sig := c.funcSig[f]; sig != nil {
		for i, p := range f.Params {
			if p.Declared == nil && i < len(sig.Params) {
				env = env.With(p, sig.Params[i].Type)
			}
		}
	}
	c.checkBlock(f.Body, env)
	c.curFunc, c.curReturns = prevFunc, prevReturns

	if f.Returns == nil {
		sig := c.funcSig[f]
		c.funcSig[f] = &types.Function{Params: sig.Params, Vararg: sig.Vararg, Generics: sig.Generics, Overloads: sig.Overloads, Returns: mergeReturnTuples(collected)}
	}
}

// preliminarySignature builds f's call-site type from its declared shape
// alone (params, vararg, @return if present), before its body has been
// checked — see the ordering note in Check.
func (c *Checker) preliminarySignature(f *bind.Func) *types.Function {
	fn := &types.Function{Generics: f.Generics, Overloads: f.Overloads}
	for _, p := range f.Params {
		t := p.Declared
		if t == nil {
			t = types.Any
			if c.cfg.InferParamType && f.Node != nil {
				if hint, ok := inferParamType(p.Name, f.Node.Body); ok {
					t = hint
				}
			}
		}
		fn.Params = append(fn.Params, types.Param{Name: p.Name, Type: t, Optional: p.Optional})
	}
	if f.Vararg != nil {
		fn.Vararg = f.Vararg.Declared
	}
	if f.Returns != nil {
		fn.Returns = f.Returns
	} else {
		fn.Returns = &types.Tuple{Elems: []types.Type{types.Unknown}}
	}
	return fn
}

// mergeReturnTuples combines every return statement's tuple shape seen
// while checking a function with no declared @return into one Tuple: at
// each position i, the union of every collected tuple's i'th component
// (spec §4.5 "inferred from the union of its return statements"), Nil
// standing in for a tuple that returned fewer values.
func mergeReturnTuples(collected []*types.Tuple) *types.Tuple {
	maxLen := 0
	for _, t := range collected {
		if len(t.Elems) > maxLen {
			maxLen = len(t.Elems)
		}
	}
	if maxLen == 0 {
		return &types.Tuple{}
	}
	elems := make([]types.Type, maxLen)
	for i := 0; i < maxLen; i++ {
		var members []types.Type
		for _, t := range collected {
			members = append(members, t.At(i))
		}
		elems[i] = types.NewUnion(members...)
	}
	return &types.Tuple{Elems: elems}
}

// functionType returns fn's current call-site signature.
func (c *Checker) functionType(fn *bind.Func) *types.Function {
	if fn == nil {
		return nil
	}
	return c.funcSig[fn]
}

// resolver returns a lower.AliasResolver bound to the registry in use,
// tolerating a nil registry (e.g. a single-file check run outside a
// workspace) the way an empty one would behave.
func (c *Checker) resolver() func(string) func() (types.Type, bool) {
	if c.reg == nil {
		return func(string) func() (types.Type, bool) { return nil }
	}
	return c.reg.Resolver()
}

func (c *Checker) funcSpan(f *bind.Func) span.Span {
	if f.DeclStmt != nil {
		return f.DeclStmt.Span()
	}
	if f.Node != nil {
		return f.Node.Span()
	}
	return span.Span{}
}

// budgetExceeded polls the caller's cancellation token and the per-file
// wall-clock budget (spec §5 "Cancellation and timeout"); it is checked at
// statement-boundary checkpoints (the loop in checkBlock) and once per
// function before that function's body is entered.
func (c *Checker) budgetExceeded() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
	}
	return !c.deadline.IsZero() && time.Now().After(c.deadline)
}

// lookup resolves sym's current type in env, defaulting to Any when
// neither the environment nor the symbol's declared type says otherwise
// (spec §4.5 "Function typing ... otherwise parameters default to Any").
func (c *Checker) lookup(env *Env, sym *bind.Symbol) types.Type {
	if sym == nil {
		return types.Unknown
	}
	if t, ok := env.Lookup(sym); ok {
		return t
	}
	return types.Any
}

// resolveIdent finds the symbol name refers to starting at scope and
// falling back to the file's globals, the same rule bind.Binder.Resolve
// uses when a name is first written to.
func (c *Checker) resolveIdent(name string, scope *bind.Scope) (*bind.Symbol, bool) {
	if scope != nil {
		if sym, ok := scope.Lookup(name); ok {
			return sym, true
		}
	}
	if c.bf != nil {
		if sym, ok := c.bf.Globals.Own(name); ok {
			return sym, true
		}
	}
	return nil, false
}

// record stores t as the type of expression e and, when e is an
// identifier that resolved to a symbol, indexes that span for
// resolve_definition/hover symbol identity (spec §6, §8 invariant 1:
// "For every expression node ... type_infos[span] is defined").
func (c *Checker) record(e syntax.Expr, t types.Type, sym *bind.Symbol) types.Type {
	c.typeInfos[e.Span()] = t
	if sym != nil {
		c.symbolIndex[e.Span()] = sym
	}
	return t
}
