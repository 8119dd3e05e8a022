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
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/types"
)

// typeOf computes and records e's single-value type (spec §4.5 "typing
// every expression"); a multi-valued expression (a call, `...`) used here
// contributes only its first component, per spec §4.5 "Calls ... in a
// non-trailing, single-value context only the first result is used".
func (c *Checker) typeOf(e syntax.Expr, env *Env, scope *bind.Scope) types.Type {
	if e == nil {
		return types.Nil
	}
	switch x := e.(type) {
	case *syntax.NilLit:
		return c.record(e, types.Nil, nil)
	case *syntax.TrueLit:
		return c.record(e, types.Boolean, nil)
	case *syntax.FalseLit:
		return c.record(e, types.Boolean, nil)
	case *syntax.NumberLit:
		return c.record(e, c.numberLitType(x), nil)
	case *syntax.StringLit:
		return c.record(e, types.String, nil)
	case *syntax.VarargExpr:
		sym, _ := scope.Lookup("...")
		return c.record(e, c.lookup(env, sym), sym)
	case *syntax.Ident:
		sym, ok := c.resolveIdent(x.Name, scope)
		if !ok {
			switch x.Name {
			case "print", "type", "tostring", "tonumber", "pairs", "ipairs", "next",
				"select", "error", "assert", "pcall", "xpcall", "require", "unpack",
				"setmetatable", "getmetatable", "rawget", "rawset", "rawequal", "rawlen",
				"string", "table", "math", "io", "os", "coroutine", "debug", "utf8", "_G":
				// Lua's standard-library globals are bound by the runtime, not by
				// any file, so reading one is not an unknown name; it types as Any.
				return c.record(e, types.Any, nil)
			}
			c.diags.Add(diag.Newf(diag.UnknownName, e.Span(), "unknown name %q", x.Name))
			return c.record(e, types.Unknown, nil)
		}
		return c.record(e, c.lookup(env, sym), sym)
	case *syntax.ParenExpr:
		return c.record(e, c.typeOf(x.X, env, scope), nil)
	case *syntax.UnaryExpr:
		return c.record(e, c.unaryType(x, env, scope), nil)
	case *syntax.BinaryExpr:
		return c.record(e, c.binaryType(x, env, scope), nil)
	case *syntax.FunctionExpr:
		return c.record(e, c.functionType(c.funcsByNode[x]), nil)
	case *syntax.CallExpr:
		return c.record(e, c.checkCall(x, env, scope).First(), nil)
	case *syntax.IndexExpr:
		xt := c.typeOf(x.X, env, scope)
		it := c.typeOf(x.Index, env, scope)
		return c.record(e, c.indexType(xt, it), nil)
	case *syntax.FieldExpr:
		xt := c.typeOf(x.X, env, scope)
		return c.record(e, c.fieldType(xt, x.Name, e.Span()), nil)
	case *syntax.TableExpr:
		return c.record(e, c.tableType(x, env, scope), nil)
	}
	return types.Unknown
}

// typeOfMulti computes e's full multi-value shape: a call's declared
// return tuple, or a single-element tuple for anything else (spec §4.5
// "Multi-return propagation ... only in the last position of an argument
// list, return statement or table constructor").
func (c *Checker) typeOfMulti(e syntax.Expr, env *Env, scope *bind.Scope) *types.Tuple {
	switch x := e.(type) {
	case *syntax.CallExpr:
		return c.checkCall(x, env, scope)
	default:
		return &types.Tuple{Elems: []types.Type{c.typeOf(x, env, scope)}}
	}
}

// evalMultiValues types a value list the way Lua evaluates one: every
// expression but the last contributes one value, the last is expanded in
// full (spec §4.5 "Multi-return propagation").
func (c *Checker) evalMultiValues(values []syntax.Expr, env *Env, scope *bind.Scope) []types.Type {
	var out []types.Type
	for i, v := range values {
		if i == len(values)-1 {
			out = append(out, c.typeOfMulti(v, env, scope).Elems...)
		} else {
			out = append(out, c.typeOf(v, env, scope))
		}
	}
	return out
}

func nthOr(vals []types.Type, i int, fallback types.Type) types.Type {
	if i < 0 || i >= len(vals) {
		return fallback
	}
	return vals[i]
}

func (c *Checker) unaryType(x *syntax.UnaryExpr, env *Env, scope *bind.Scope) types.Type {
	switch x.Op {
	case "not":
		c.typeOf(x.X, env, scope)
		return types.Boolean
	case "-":
		t := c.typeOf(x.X, env, scope)
		switch {
		case c.isIntegerOnly(t):
			return types.Integer
		case c.isNumeric(t):
			return types.Number
		}
		if r, ok := c.metamethodDispatch("unm", t, t); ok {
			return r
		}
		return types.Unknown
	case "#":
		t := c.typeOf(x.X, env, scope)
		return c.lengthType(t)
	}
	return types.Unknown
}

func (c *Checker) binaryType(x *syntax.BinaryExpr, env *Env, scope *bind.Scope) types.Type {
	switch x.Op {
	case "and":
		left := c.typeOf(x.X, env, scope)
		thenEnv, _ := c.narrow(x.X, env, scope)
		right := c.typeOf(x.Y, thenEnv, scope)
		return logicalAnd(left, right)
	case "or":
		left := c.typeOf(x.X, env, scope)
		_, elseEnv := c.narrow(x.X, env, scope)
		right := c.typeOf(x.Y, elseEnv, scope)
		return logicalOr(left, right)
	case "..":
		l, r := c.typeOf(x.X, env, scope), c.typeOf(x.Y, env, scope)
		return c.concatType(l, r)
	case "==", "~=":
		c.typeOf(x.X, env, scope)
		c.typeOf(x.Y, env, scope)
		return types.Boolean
	case "<", "<=", ">", ">=":
		l, r := c.typeOf(x.X, env, scope), c.typeOf(x.Y, env, scope)
		return c.comparisonType(l, r)
	default:
		l, r := c.typeOf(x.X, env, scope), c.typeOf(x.Y, env, scope)
		return c.arithmeticType(x.Op, l, r)
	}
}

// indexType implements `x[i]` (spec §4.5 "Index/Field access").
func (c *Checker) indexType(xt, idx types.Type) types.Type {
	switch x := xt.(type) {
	case *types.Array:
		return x.Elem
	case *types.Map:
		return x.Value
	}
	if t, ok := c.metamethodDispatch("index", xt, idx); ok {
		return t
	}
	return types.Unknown
}

// fieldType implements `x.name`. A sealed Record or Class with no such
// member is diagnosed; an open Record's unknown field reads as Unknown
// without complaint, matching Lua's permissive table-field semantics.
func (c *Checker) fieldType(xt types.Type, name string, sp span.Span) types.Type {
	switch x := xt.(type) {
	case *types.Record:
		if t, ok := x.Lookup(name); ok {
			return t
		}
		if x.Sealed {
			c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "sealed record has no field %q", name))
		}
		return types.Unknown
	case *types.Class:
		if t, ok := x.Lookup(name); ok {
			return t
		}
		if x.Sealed {
			c.diags.Add(diag.Newf(diag.FieldTypeMismatch, sp, "%s has no member %q", x.Name, name))
		}
		return types.Unknown
	case *types.Map:
		return x.Value
	}
	return types.Unknown
}

// tableType infers a table constructor's shape (spec §4.5 "Table
// constructors"): every entry named (by `.name` or bare `name = v` sugar)
// produces a Record; every entry positional produces an Array (element
// type is the union of the first InferTableSize elements' types, spec §6);
// anything mixed (explicit `[k] = v` keys alongside the others, or a blend
// of named and positional) produces a Map over the union of observed key
// and value types.
func (c *Checker) tableType(x *syntax.TableExpr, env *Env, scope *bind.Scope) types.Type {
	if len(x.Fields) == 0 {
		return &types.Record{}
	}

	allNamed, allPositional := true, true
	for _, f := range x.Fields {
		if f.Key != nil {
			allNamed, allPositional = false, false
			break
		}
		if f.Name == "" {
			allNamed = false
		} else {
			allPositional = false
		}
	}

	if allNamed {
		rec := &types.Record{}
		for _, f := range x.Fields {
			rec.Fields = append(rec.Fields, types.Field{Name: f.Name, Type: c.typeOf(f.Value, env, scope)})
		}
		return rec
	}

	if allPositional {
		var elems []types.Type
		limit := c.cfg.InferTableSize
		for i, f := range x.Fields {
			t := c.typeOf(f.Value, env, scope)
			if limit <= 0 || i < limit {
				elems = append(elems, t)
			}
		}
		return &types.Array{Elem: types.NewUnion(elems...)}
	}

	var keys, vals []types.Type
	for _, f := range x.Fields {
		vals = append(vals, c.typeOf(f.Value, env, scope))
		switch {
		case f.Key != nil:
			keys = append(keys, c.typeOf(f.Key, env, scope))
		case f.Name != "":
			keys = append(keys, types.String)
		default:
			keys = append(keys, types.Integer)
		}
	}
	return &types.Map{Key: types.NewUnion(keys...), Value: types.NewUnion(vals...)}
}
