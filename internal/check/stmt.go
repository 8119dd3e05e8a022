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
	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/bind"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/lower"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/types"
)

// checkBlock types every statement of b in order, threading env forward and
// returning the environment that holds after the last statement (spec §4.5
// "Statement checking"). Each block gets its own diagnostic suppression
// scope (spec §7 push/pop), opened on entry and closed on exit, so a
// ---@diagnostic disable written inside an if/while/for body never leaks
// past its closing end.
func (c *Checker) checkBlock(b *bind.Block, env *Env) *Env {
	if b == nil {
		return env
	}
	c.diags.Push()
	defer c.diags.Pop()

	childIdx := 0
	for _, st := range b.Stmts {
		if c.budgetExceeded() {
			c.diags.Add(diag.Newf(diag.TypeckBudgetExceeded, st.Span(), "type inference budget exceeded"))
			break
		}
		env = c.checkStmt(st, b, &childIdx, env)
		env = c.applyCasts(st, env, b.Scope)
	}
	return env
}

// checkStmt types one statement of parent, consuming from parent.Children
// exactly the number of nested blocks that statement kind introduces, in the
// statement order bind's buildBlock appends them to Block.Children.
func (c *Checker) checkStmt(st syntax.Stmt, parent *bind.Block, childIdx *int, env *Env) *Env {
	scope := parent.Scope
	switch s := st.(type) {
	case *syntax.IfStmt:
		return c.checkIf(s, parent, childIdx, env)
	case *syntax.WhileStmt:
		body := parent.Children[*childIdx]
		*childIdx++
		return c.checkLoop(body, s.Cond, env, true)
	case *syntax.RepeatStmt:
		body := parent.Children[*childIdx]
		*childIdx++
		return c.checkLoop(body, s.Cond, env, false)
	case *syntax.NumericForStmt:
		body := parent.Children[*childIdx]
		*childIdx++
		return c.checkNumericFor(s, body, env)
	case *syntax.GenericForStmt:
		body := parent.Children[*childIdx]
		*childIdx++
		return c.checkGenericFor(s, body, env)
	case *syntax.DoStmt:
		body := parent.Children[*childIdx]
		*childIdx++
		return c.checkBlock(body, env)
	case *syntax.LocalStmt:
		return c.checkLocal(s, scope, env)
	case *syntax.AssignStmt:
		return c.checkAssign(s, scope, env)
	case *syntax.FunctionDeclStmt:
		return c.checkFunctionDecl(s, scope, env)
	case *syntax.ReturnStmt:
		c.checkReturn(s, scope, env)
		return env
	case *syntax.CallStmt:
		c.checkCall(s.Call, env, scope)
		return env
	case *syntax.BreakStmt:
		return env
	}
	return env
}

// checkIf types the condition (recording its narrowed then/else
// environments), each branch against its own narrowed entry, and joins
// every branch's exit environment back together (spec §4.5 "Narrowing ...
// join point").
func (c *Checker) checkIf(s *syntax.IfStmt, parent *bind.Block, childIdx *int, env *Env) *Env {
	scope := parent.Scope
	thenEnv, elseEnv := c.narrow(s.Cond, env, scope)

	thenBlk := parent.Children[*childIdx]
	*childIdx++
	out := c.checkBlock(thenBlk, thenEnv)
	branches := []*Env{out}

	cur := elseEnv
	for _, ei := range s.ElseIf {
		eiBlk := parent.Children[*childIdx]
		*childIdx++
		eiThen, eiElse := c.narrow(ei.Cond, cur, scope)
		branches = append(branches, c.checkBlock(eiBlk, eiThen))
		cur = eiElse
	}

	if s.Else != nil {
		elseBlk := parent.Children[*childIdx]
		*childIdx++
		branches = append(branches, c.checkBlock(elseBlk, cur))
	} else {
		branches = append(branches, cur)
	}

	merged := branches[0]
	for _, br := range branches[1:] {
		merged = Join(env, merged, br)
	}
	return merged
}

// checkLoop types a while/repeat body to a bounded fixed point (spec §4.5
// "Loops ... iterate until a fixed point is reached, or a small fixed
// bound"): up to three speculative passes run with diagnostics and inlay
// hints discarded (dryRun), each re-joined against the loop's entry
// environment, stopping early once a pass changes nothing; one final pass
// then runs for real so its diagnostics/hints are kept exactly once.
// isWhile distinguishes a pre-tested loop (while: body only runs when cond
// is true, exits false) from a post-tested one (repeat: body always runs
// once, exits when cond becomes true).
func (c *Checker) checkLoop(body *bind.Block, cond syntax.Expr, env *Env, isWhile bool) *Env {
	scope := body.Scope
	cur := env
	for i := 0; i < 3; i++ {
		var next *Env
		c.dryRun(func() {
			entry := cur
			if isWhile {
				entry, _ = c.narrow(cond, entry, scope)
			}
			out := c.checkBlock(body, entry)
			if isWhile {
				next = out
			} else {
				next, _ = c.narrow(cond, out, scope)
			}
		})
		joined := Join(env, cur, next)
		converged := equalSince(env, cur, joined)
		cur = joined
		if converged {
			break
		}
	}

	if isWhile {
		thenEnv, elseEnv := c.narrow(cond, cur, scope)
		c.checkBlock(body, thenEnv)
		return Join(env, cur, elseEnv)
	}
	out := c.checkBlock(body, cur)
	thenEnv, _ := c.narrow(cond, out, scope)
	return Join(env, cur, thenEnv)
}

// checkNumericFor types `for i = start, stop[, step] do`: the loop
// variable is Integer when start/stop/step (step defaults to the integer
// literal 1) are all Integer, Number otherwise (spec §4.5, matching Lua
// 5.4's own rule), converged the same bounded way as checkLoop.
func (c *Checker) checkNumericFor(s *syntax.NumericForStmt, body *bind.Block, env *Env) *Env {
	scope := body.Scope
	startT := c.typeOf(s.Start, env, scope)
	stopT := c.typeOf(s.Stop, env, scope)
	stepT := types.Integer
	if s.Step != nil {
		stepT = c.typeOf(s.Step, env, scope)
	}
	varT := types.Number
	if c.isIntegerOnly(startT) && c.isIntegerOnly(stopT) && c.isIntegerOnly(stepT) {
		varT = types.Integer
	}

	entry := env
	if sym, ok := scope.Own(s.Var.Name); ok {
		entry = entry.With(sym, varT)
	}

	cur := c.convergeLoopBody(body, entry, env)
	return Join(env, env, cur)
}

// checkGenericFor types `for names in exprs do`: the iterator expression's
// declared return tuple gives each loop variable's type (spec §4.5
// "Generic for ... best effort: loop variables take the iterator's
// declared return types when known").
func (c *Checker) checkGenericFor(s *syntax.GenericForStmt, body *bind.Block, env *Env) *Env {
	scope := body.Scope
	iterVals := c.evalMultiValues(s.Exprs, env, scope)
	var iterFn *types.Function
	if len(iterVals) > 0 {
		iterFn = asFunction(iterVals[0])
	}

	entry := env
	for i, name := range s.Names {
		sym, ok := scope.Own(name.Name)
		if !ok {
			continue
		}
		t := types.Unknown
		if iterFn != nil && iterFn.Returns != nil {
			t = iterFn.Returns.At(i)
		}
		entry = entry.With(sym, t)
	}

	cur := c.convergeLoopBody(body, entry, env)
	return Join(env, env, cur)
}

// convergeLoopBody runs body to a bounded fixed point from entry, re-joined
// against base at each step, the way checkLoop does for its own body — used
// by the two for-loop forms, whose loop variable type never itself changes
// across iterations.
func (c *Checker) convergeLoopBody(body *bind.Block, entry, base *Env) *Env {
	cur := entry
	for i := 0; i < 3; i++ {
		var out *Env
		c.dryRun(func() { out = c.checkBlock(body, cur) })
		joined := Join(base, cur, out)
		converged := equalSince(base, cur, joined)
		cur = joined
		if converged {
			break
		}
	}
	c.checkBlock(body, cur)
	return cur
}

// dryRun runs f with diagnostics and inlay hints redirected to scratch
// storage that is discarded afterwards, so a speculative convergence pass
// never duplicates a real diagnostic or hint (spec §4.5 "Loops"); typeInfos
// and symbolIndex are left live since the final real pass overwrites the
// same spans with the same values.
func (c *Checker) dryRun(f func()) {
	savedDiags, savedHints := c.diags, c.inlayHints
	c.diags = diag.NewBag()
	c.inlayHints = nil
	f()
	c.diags, c.inlayHints = savedDiags, savedHints
}

// checkLocal types `local a, b <attrib> = e1, e2` (spec §4.5 "Assignment
// checking"): an explicit `---@type` wins and any incompatible initialiser
// is diagnosed; an undeclared local's type is inferred from its initialiser
// and recorded as an inlay hint (spec §4.5 "inlay_hints").
func (c *Checker) checkLocal(s *syntax.LocalStmt, scope *bind.Scope, env *Env) *Env {
	vals := c.evalMultiValues(s.Values, env, scope)
	for i, n := range s.Names {
		sym, ok := scope.Own(n.Name)
		if !ok {
			continue
		}
		valT := nthOr(vals, i, types.Nil)
		if sym.Declared != nil {
			fits := types.Subsumes(valT, sym.Declared, c.opts)
			// A table constructor initialising a @class-typed local builds that
			// class's instance: it fits when each field it sets is a member of
			// compatible type (or, for an open class, not a member at all).
			rec, isRec := valT.(*types.Record)
			if cls, isClass := sym.Declared.(*types.Class); isRec && isClass && !fits {
				fits = true
				for _, f := range rec.Fields {
					if ft, has := cls.Lookup(f.Name); (has && !types.Subsumes(f.Type, ft, c.opts)) || (!has && cls.Sealed) {
						fits = false
					}
				}
			}
			if !fits {
				c.diags.Add(diag.Newf(diag.AssignTypeMismatch, valueSpan(s.Values, i, n.Span()), "cannot assign %s to declared type %s", valT, sym.Declared))
			}
			env = env.With(sym, sym.Declared)
			c.record(n, sym.Declared, sym)
			continue
		}
		c.inlayHints = append(c.inlayHints, InlayHint{Span: n.Span(), Type: valT})
		env = env.With(sym, valT)
		c.record(n, valT, sym)
	}
	return env
}

// valueSpan returns the span of the i'th expression in values — the span an
// assignment mismatch diagnostic anchors to (spec §8 S1: the offending
// value's span, not the target's) — falling back to fallback when i has no
// corresponding expression (fewer values than names, or a name threaded in
// from a multi-return whose source expression doesn't sit at index i).
func valueSpan(values []syntax.Expr, i int, fallback span.Span) span.Span {
	if i >= 0 && i < len(values) {
		return values[i].Span()
	}
	return fallback
}

// checkAssign types `a, b = e1, e2` against whatever a/b already resolve
// to: a plain name checks against its declared type (if any) the same way
// a local does; an index/field target checks against the container's
// element/field type without otherwise updating env (spec §9's
// environments track locals, not table contents).
func (c *Checker) checkAssign(s *syntax.AssignStmt, scope *bind.Scope, env *Env) *Env {
	vals := c.evalMultiValues(s.Values, env, scope)
	for i, target := range s.Targets {
		valT := nthOr(vals, i, types.Nil)
		env = c.assignTarget(target, valT, valueSpan(s.Values, i, target.Span()), scope, env)
	}
	return env
}

func (c *Checker) assignTarget(target syntax.Expr, valT types.Type, valSp span.Span, scope *bind.Scope, env *Env) *Env {
	switch t := target.(type) {
	case *syntax.Ident:
		sym, ok := c.resolveIdent(t.Name, scope)
		if !ok {
			return env
		}
		if sym.Declared != nil {
			if !types.Subsumes(valT, sym.Declared, c.opts) {
				c.diags.Add(diag.Newf(diag.AssignTypeMismatch, valSp, "cannot assign %s to declared type %s", valT, sym.Declared))
			}
			return env.With(sym, sym.Declared)
		}
		return env.With(sym, valT)
	case *syntax.IndexExpr:
		xt := c.typeOf(t.X, env, scope)
		it := c.typeOf(t.Index, env, scope)
		c.checkElementWrite(xt, it, valT, t.Span())
		return env
	case *syntax.FieldExpr:
		xt := c.typeOf(t.X, env, scope)
		c.checkFieldWrite(xt, t.Name, valT, t.Span())
		return env
	}
	return env
}

// checkElementWrite diagnoses writing valT through x[idx] when x's element
// type rejects it; a receiver shape this algebra can't model (not an
// Array/Map) is accepted without comment, the same unmodeled-mismatch rule
// operator.go documents for arithmetic.
func (c *Checker) checkElementWrite(xt, idx, valT types.Type, sp span.Span) {
	switch x := xt.(type) {
	case *types.Array:
		if !types.Subsumes(valT, x.Elem, c.opts) {
			c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "cannot assign %s to element type %s", valT, x.Elem))
		}
	case *types.Map:
		if !types.Subsumes(idx, x.Key, c.opts) {
			c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "key %s does not satisfy %s", idx, x.Key))
		}
		if !types.Subsumes(valT, x.Value, c.opts) {
			c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "cannot assign %s to value type %s", valT, x.Value))
		}
	}
}

// checkFieldWrite diagnoses writing valT into x.name when a sealed
// Record/Class either lacks the field or rejects the value's type; an open
// Record/Class accepts an unknown field without comment, matching the read
// side's rule in fieldType — unless cfg.CheckTableShape is set and x
// already carries a known shape (it is an inferred class/record, not a
// table literal still accumulating its first fields), in which case an
// open shape is checked exactly as a sealed one would be (spec §6
// "checkTableShape: toggles sealed-record field checks on open records
// when their class is inferred").
func (c *Checker) checkFieldWrite(xt types.Type, name string, valT types.Type, sp span.Span) {
	switch x := xt.(type) {
	case *types.Record:
		ft, ok := x.Lookup(name)
		if !ok {
			if x.Sealed || c.shapeChecked(len(x.Fields)) {
				c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "sealed record has no field %q", name))
			}
			return
		}
		if !types.Subsumes(valT, ft, c.opts) {
			c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "cannot assign %s to field %q of type %s", valT, name, ft))
		}
	case *types.Class:
		ft, ok := x.Lookup(name)
		if !ok {
			if x.Sealed || c.shapeChecked(len(x.Fields)+len(x.Methods)) {
				c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "%s has no field %q", x.Name, name))
			}
			return
		}
		if !types.Subsumes(valT, ft, c.opts) {
			c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "cannot assign %s to field %q of type %s", valT, name, ft))
		}
	}
}

// shapeChecked reports whether an open record/class with knownFieldCount
// declared fields should still be checked as if sealed: only when
// cfg.CheckTableShape is enabled and the shape is non-empty, i.e. it came
// from an inferred @class/@field declaration rather than being a bare `{}`
// literal still accumulating its first writes.
func (c *Checker) shapeChecked(knownFieldCount int) bool {
	return c.cfg.CheckTableShape && knownFieldCount > 0
}

// checkFunctionDecl updates env for a plain `[local] function name(...)`
// declaration's name (a dotted or method name assigns into an existing
// table/class instead and declares nothing new, spec §4.4, mirrored from
// bind.declareFunctionName's own condition).
func (c *Checker) checkFunctionDecl(s *syntax.FunctionDeclStmt, scope *bind.Scope, env *Env) *Env {
	if s.Name.Method != "" || len(s.Name.Path) > 0 {
		return env
	}
	sym, ok := c.resolveIdent(s.Name.Base.Name, scope)
	if !ok {
		return env
	}
	fn := c.functionType(c.funcsByNode[s.Func])
	if fn == nil {
		return env
	}
	return env.With(sym, fn)
}

// checkReturn validates a return statement's value tuple against the
// enclosing function's declared @return (spec §4.5 "Function typing"), or
// accumulates it for return-type inference when none was declared.
func (c *Checker) checkReturn(s *syntax.ReturnStmt, scope *bind.Scope, env *Env) {
	tuple := &types.Tuple{Elems: c.evalMultiValues(s.Values, env, scope)}
	if c.curFunc == nil {
		return
	}
	if c.curFunc.Returns != nil {
		for i, want := range c.curFunc.Returns.Elems {
			got := tuple.At(i)
			if !types.Subsumes(got, want, c.opts) {
				c.diags.Add(diag.Newf(diag.ReturnTypeMismatch, s.Span(), "return value %d: %s does not satisfy %s", i+1, got, want))
			}
		}
		return
	}
	if c.curReturns != nil {
		*c.curReturns = append(*c.curReturns, tuple)
	}
}

// applyCasts runs every ---@cast/---@diagnostic annotation attached to st
// (spec §4.5 "Cast application", §7 push/pop/disable/enable), in source
// order, immediately after st itself has been checked.
func (c *Checker) applyCasts(st syntax.Stmt, env *Env, scope *bind.Scope) *Env {
	blk, ok := c.byStmt[st]
	if !ok {
		return env
	}
	for _, r := range blk.Records {
		switch rec := r.(type) {
		case annotate.CastAnno:
			env = c.applyCast(rec, scope, env)
		case annotate.DiagnosticAnno:
			c.applyDiagnosticAction(rec)
		}
	}
	return env
}

func (c *Checker) applyCast(rec annotate.CastAnno, scope *bind.Scope, env *Env) *Env {
	sym, ok := c.resolveIdent(rec.Name, scope)
	if !ok {
		return env
	}
	cur := c.lookup(env, sym)
	switch rec.Kind {
	case annotate.CastReplace:
		t, diags := lower.Lower(rec.TypeText, rec.Span(), c.resolver())
		for _, d := range diags {
			c.diags.Add(d)
		}
		return env.With(sym, t)
	case annotate.CastAdd:
		t, diags := lower.Lower(rec.TypeText, rec.Span(), c.resolver())
		for _, d := range diags {
			c.diags.Add(d)
		}
		return env.With(sym, types.NewUnion(cur, t))
	case annotate.CastRemove:
		t, diags := lower.Lower(rec.TypeText, rec.Span(), c.resolver())
		for _, d := range diags {
			c.diags.Add(d)
		}
		return env.With(sym, types.RemoveFromUnion(cur, func(m types.Type) bool { return types.Equal(m, t) }))
	case annotate.CastRemoveNil:
		return env.With(sym, types.RemoveFromUnion(cur, isNilType))
	}
	return env
}

func (c *Checker) applyDiagnosticAction(rec annotate.DiagnosticAnno) {
	switch rec.Action {
	case annotate.DiagPush:
		c.diags.Push()
	case annotate.DiagPop:
		c.diags.Pop()
	case annotate.DiagDisable:
		for _, code := range rec.Codes {
			c.diags.Disable(diag.Code(code))
		}
	case annotate.DiagEnable:
		for _, code := range rec.Codes {
			c.diags.Enable(diag.Code(code))
		}
	}
}
