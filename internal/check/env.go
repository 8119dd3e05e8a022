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
	"github.com/lua-ls/core/internal/types"
)

// Env is a persistent type environment (spec §5 "Environments are treated
// as persistent (functional) structures: a with_binding operation returns
// a new environment sharing structure with its parent"). It is a
// singly-linked overlay, one frame per narrowed/assigned symbol, rather
// than a copy-on-write map: forking for a branch is simply holding onto
// the pointer both branches extend from, and nothing already built is
// ever mutated.
type Env struct {
	parent *Env
	sym    *bind.Symbol
	typ    types.Type
}

// NewEnv returns the empty environment.
func NewEnv() *Env { return nil }

// With returns a new environment identical to e except that sym now maps
// to t — the narrowing/assignment primitive every branch and reassignment
// goes through.
func (e *Env) With(sym *bind.Symbol, t types.Type) *Env {
	return &Env{parent: e, sym: sym, typ: t}
}

// Lookup finds the most recently bound type for sym, falling back to
// sym.Declared (its binder-derived static type) if the environment never
// overlaid it.
func (e *Env) Lookup(sym *bind.Symbol) (types.Type, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.sym == sym {
			return cur.typ, true
		}
	}
	if sym != nil && sym.Declared != nil {
		return sym.Declared, true
	}
	return nil, false
}

// touchedSince collects, in no particular order, every distinct symbol
// overlaid by e since (and not including) base. It is the mechanism join
// uses to find which symbols might differ between two branches without
// needing to enumerate every symbol in scope.
func (e *Env) touchedSince(base *Env) []*bind.Symbol {
	seen := map[*bind.Symbol]bool{}
	var out []*bind.Symbol
	for cur := e; cur != nil && cur != base; cur = cur.parent {
		if !seen[cur.sym] {
			seen[cur.sym] = true
			out = append(out, cur.sym)
		}
	}
	return out
}

// Join implements spec §4.5 "Narrowing ... At the join point the
// per-symbol type is the union of incoming branches": for every symbol
// touched by either then or els since their common ancestor base, the
// joined environment binds it to Union(then's type, els's type). A symbol
// untouched in both branches is left exactly as base had it (spec
// invariant 5: joining when no assignment occurred leaves the type
// unchanged, since NewUnion(T, T) canonicalises back to T).
func Join(base, then, els *Env) *Env {
	touched := map[*bind.Symbol]bool{}
	var order []*bind.Symbol
	for _, sym := range then.touchedSince(base) {
		if !touched[sym] {
			touched[sym] = true
			order = append(order, sym)
		}
	}
	for _, sym := range els.touchedSince(base) {
		if !touched[sym] {
			touched[sym] = true
			order = append(order, sym)
		}
	}
	out := base
	for _, sym := range order {
		tt, tok := then.Lookup(sym)
		et, eok := els.Lookup(sym)
		switch {
		case tok && eok:
			out = out.With(sym, types.NewUnion(tt, et))
		case tok:
			out = out.With(sym, tt)
		case eok:
			out = out.With(sym, et)
		}
	}
	return out
}

// equalSince reports whether a and b agree on every symbol touched by
// either since base — used by the loop fixed-point iteration to detect
// convergence (spec §4.5 "Loops ... until a fixed point is reached").
func equalSince(base, a, b *Env) bool {
	seen := map[*bind.Symbol]bool{}
	check := func(sym *bind.Symbol) bool {
		if seen[sym] {
			return true
		}
		seen[sym] = true
		at, aok := a.Lookup(sym)
		bt, bok := b.Lookup(sym)
		if aok != bok {
			return false
		}
		if !aok {
			return true
		}
		return types.Equal(at, bt)
	}
	for _, sym := range a.touchedSince(base) {
		if !check(sym) {
			return false
		}
	}
	for _, sym := range b.touchedSince(base) {
		if !check(sym) {
			return false
		}
	}
	return true
}
