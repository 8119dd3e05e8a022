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
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/types"
)

// narrow splits env into the environment that holds when e is truthy and
// the one that holds when e is falsy (spec §4.5 "Narrowing"). It always
// records e's own type first, so callers never need a separate typeOf
// call on the condition itself.
func (c *Checker) narrow(e syntax.Expr, env *Env, scope *bind.Scope) (thenEnv, elseEnv *Env) {
	c.typeOf(e, env, scope)

	switch x := e.(type) {
	case *syntax.ParenExpr:
		return c.narrow(x.X, env, scope)
	case *syntax.UnaryExpr:
		if x.Op == "not" {
			t, f := c.narrow(x.X, env, scope)
			return f, t
		}
	case *syntax.BinaryExpr:
		switch x.Op {
		case "and":
			t1, e1 := c.narrow(x.X, env, scope)
			t2, e2 := c.narrow(x.Y, t1, scope)
			return t2, Join(env, e1, e2)
		case "or":
			t1, e1 := c.narrow(x.X, env, scope)
			t2, e2 := c.narrow(x.Y, e1, scope)
			return Join(env, t1, t2), e2
		case "==", "~=":
			if sym, ok := c.nilCheckSide(x.X, x.Y, scope); ok {
				cur := c.lookup(env, sym)
				eqEnv := env.With(sym, types.Nil)
				neEnv := env.With(sym, types.RemoveFromUnion(cur, isNilType))
				if x.Op == "==" {
					return eqEnv, neEnv
				}
				return neEnv, eqEnv
			}
			if sym, prim, ok := c.typeGuardSide(x.X, x.Y, scope); ok {
				cur := c.lookup(env, sym)
				eqEnv := env.With(sym, prim)
				neEnv := env.With(sym, types.RemoveFromUnion(cur, func(m types.Type) bool { return types.Equal(m, prim) }))
				if x.Op == "==" {
					return eqEnv, neEnv
				}
				return neEnv, eqEnv
			}
		}
	}
	return c.narrowTruthy(e, env, scope)
}

// narrowTruthy is the fallback rule: when e names a symbol directly (or
// through parens), the then-branch keeps its truthy part and the
// else-branch its falsy part (spec §4.5 "the default when no more specific
// rule applies"); otherwise narrowing has no effect.
func (c *Checker) narrowTruthy(e syntax.Expr, env *Env, scope *bind.Scope) (*Env, *Env) {
	sym := c.symbolOf(e, scope)
	if sym == nil {
		return env, env
	}
	t := c.lookup(env, sym)
	return env.With(sym, truthyPart(t)), env.With(sym, falsyPart(t))
}

// symbolOf returns the symbol e refers to directly (through any number of
// parens), or nil if e is not simply a name.
func (c *Checker) symbolOf(e syntax.Expr, scope *bind.Scope) *bind.Symbol {
	switch x := e.(type) {
	case *syntax.Ident:
		sym, _ := c.resolveIdent(x.Name, scope)
		return sym
	case *syntax.ParenExpr:
		return c.symbolOf(x.X, scope)
	}
	return nil
}

func asNilLit(e syntax.Expr) bool {
	switch x := e.(type) {
	case *syntax.NilLit:
		return true
	case *syntax.ParenExpr:
		return asNilLit(x.X)
	}
	return false
}

// nilCheckSide recognises `x == nil`/`nil == x` (either operand order) and
// returns the symbol x names.
func (c *Checker) nilCheckSide(a, b syntax.Expr, scope *bind.Scope) (*bind.Symbol, bool) {
	if asNilLit(b) {
		if sym := c.symbolOf(a, scope); sym != nil {
			return sym, true
		}
	}
	if asNilLit(a) {
		if sym := c.symbolOf(b, scope); sym != nil {
			return sym, true
		}
	}
	return nil, false
}

// narrowPrimitive maps the string literal Lua's built-in type() returns to
// the internal Type it implies. "function" and "table" are deliberately
// absent: neither corresponds to a single internal Type (a table may be an
// Array, Map, Record or Class; a function value's exact signature can't be
// recovered from its name alone), so a type() guard on either is not
// narrowed (spec §4.5 names only the primitive-returning cases).
func narrowPrimitive(name string) (types.Type, bool) {
	switch name {
	case "nil":
		return types.Nil, true
	case "boolean":
		return types.Boolean, true
	case "number":
		return types.Number, true
	case "string":
		return types.String, true
	case "thread":
		return types.Thread, true
	case "userdata":
		return types.Userdata, true
	}
	return nil, false
}

// typeGuardSide recognises `type(x) == "primitivename"` (either operand
// order) and returns the symbol x names plus the Type the literal implies.
func (c *Checker) typeGuardSide(a, b syntax.Expr, scope *bind.Scope) (*bind.Symbol, types.Type, bool) {
	if sym, prim, ok := c.matchTypeGuard(a, b, scope); ok {
		return sym, prim, ok
	}
	return c.matchTypeGuard(b, a, scope)
}

func (c *Checker) matchTypeGuard(callSide, litSide syntax.Expr, scope *bind.Scope) (*bind.Symbol, types.Type, bool) {
	call, ok := callSide.(*syntax.CallExpr)
	if !ok || call.Method != "" || len(call.Args) != 1 {
		return nil, nil, false
	}
	fnIdent, ok := call.Fn.(*syntax.Ident)
	if !ok || fnIdent.Name != "type" {
		return nil, nil, false
	}
	lit, ok := litSide.(*syntax.StringLit)
	if !ok {
		return nil, nil, false
	}
	prim, ok := narrowPrimitive(lit.Value)
	if !ok {
		return nil, nil, false
	}
	sym := c.symbolOf(call.Args[0], scope)
	if sym == nil {
		return nil, nil, false
	}
	return sym, prim, true
}
