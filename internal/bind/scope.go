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

// Package bind implements the Binder (spec §4.4): a per-function symbol
// table plus a block-tree enriched with branch and loop-back edges. The
// Binder never types anything — it only decides, for each identifier
// occurrence, which declaration it refers to; internal/check consumes the
// Scope/Symbol graph built here to maintain its own flow-sensitive type
// environment during checking.
package bind

import (
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/types"
)

// SymbolKind distinguishes why a Symbol exists.
type SymbolKind int

const (
	SymLocal SymbolKind = iota
	SymParam
	SymVararg
	SymForVar
	SymGlobal
)

// Symbol is one declared (or implicitly global) name.
type Symbol struct {
	Name string
	Kind SymbolKind
	// Declared is the type an explicit ---@type annotation (for a local) or
	// ---@param/---@generic-derived parameter type gives this symbol, or nil
	// when the checker must infer it from the initializer instead (spec
	// §4.5 "Assignment checking ... otherwise the right-hand side becomes
	// the inferred type").
	Declared types.Type
	Optional bool // only meaningful for SymParam: declared via `name?`
	DeclSpan span.Span
}

// Scope is one lexical scope: a do/while/for/repeat/function body, or the
// file's top-level chunk. Lookup walks Parent links only; the fallback to
// the shared globals scope (spec §4.4 "A name resolved without a matching
// local becomes a global symbol in the top-level scope") is done by
// Binder.Resolve, not by Lookup.
type Scope struct {
	Parent  *Scope
	symbols map[string]*Symbol
}

func newScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, symbols: map[string]*Symbol{}}
}

// Declare adds sym to s, shadowing any outer declaration of the same name
// (Lua scoping: a `local x` always introduces a new binding, never mutates
// an outer one).
func (s *Scope) Declare(sym *Symbol) {
	s.symbols[sym.Name] = sym
}

// Lookup resolves name starting at s and walking outward through Parent
// links. It does not fall back to globals — callers that want the "or
// become a global" behaviour use Binder.Resolve instead, since only the
// Binder knows the shared global scope.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Own reports the symbol declared directly in s (not an ancestor).
func (s *Scope) Own(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}
