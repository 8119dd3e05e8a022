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

package types

import (
	"sort"

	"github.com/mpvl/unique"
)

// Union is spec §3 Union(ordered set of Type, canonicalised). Construct one
// with NewUnion rather than a composite literal so the canonical-form
// invariant (flattened, deduped, Any-absorbing, Never-vanishing, stably
// sorted) always holds — every other package may assume any *Union in hand
// is already canonical (spec invariant 2/4).
type Union struct {
	base
	Members []Type
}

func (u *Union) Kind() Kind {
	var k Kind
	for _, m := range u.Members {
		k |= m.Kind()
	}
	return k
}

func (u *Union) String() string { return Pretty(u) }

// NewUnion flattens nested unions, drops Never, lets Any absorb everything
// else, de-duplicates structurally-equal members and sorts by a stable key
// (spec §3 "Canonical form"). A canonical union of zero members is Never; a
// canonical union of one member is that member itself, never a *Union —
// Optional reconstruction and pretty-printing both rely on there being no
// single-member unions in circulation.
func NewUnion(members ...Type) Type {
	flat := make([]Type, 0, len(members))
	flatten(members, &flat)

	for _, m := range flat {
		if _, ok := m.(*AnyType); ok {
			return Any
		}
	}

	kept := flat[:0]
	for _, m := range flat {
		if _, ok := m.(*NeverType); ok {
			continue
		}
		kept = append(kept, m)
	}
	flat = kept

	if len(flat) == 0 {
		return Never
	}

	sortable := &unionSort{members: dedupStructural(flat)}
	unique.Sort(sortable)
	flat = sortable.members

	if len(flat) == 1 {
		return flat[0]
	}
	return &Union{Members: flat}
}

func flatten(in []Type, out *[]Type) {
	for _, t := range in {
		if u, ok := t.(*Union); ok {
			flatten(u.Members, out)
			continue
		}
		*out = append(*out, t)
	}
}

// dedupStructural removes members that are structurally Equal to an
// earlier member, preserving first-seen order (the subsequent unique.Sort
// call handles ordering; this pre-pass exists because unique.Sort requires
// its input already free of O(n^2) duplicate growth is not a concern for
// the typical annotation-sized unions this checker sees).
func dedupStructural(in []Type) []Type {
	out := make([]Type, 0, len(in))
	for _, t := range in {
		dup := false
		for _, seen := range out {
			if Equal(t, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// sortKey produces the stable ordering key used to canonicalise union
// member order (spec §3). Primitives sort before compound types; within a
// kind, structural String() breaks ties. This makes Equal on two Unions a
// plain slice-wise comparison instead of needing set semantics.
func sortKey(t Type) (rank int, text string) {
	switch t.(type) {
	case *NilType:
		return 0, ""
	case *BooleanType:
		return 1, ""
	case *IntegerType:
		return 2, ""
	case *NumberType:
		return 3, ""
	case *StringType:
		return 4, ""
	case *ThreadType:
		return 5, ""
	case *UserdataType:
		return 6, ""
	case *LightUserdataType:
		return 7, ""
	case *UnknownType:
		return 8, ""
	case *Array:
		return 9, t.String()
	case *Tuple:
		return 10, t.String()
	case *Map:
		return 11, t.String()
	case *Record:
		return 12, t.String()
	case *Function:
		return 13, t.String()
	case *Class:
		return 14, t.String()
	case *Alias:
		return 15, t.String()
	case *Var:
		return 16, t.String()
	default:
		return 99, t.String()
	}
}

type unionSort struct{ members []Type }

func (s *unionSort) Len() int      { return len(s.members) }
func (s *unionSort) Swap(i, j int) { s.members[i], s.members[j] = s.members[j], s.members[i] }
func (s *unionSort) Less(i, j int) bool {
	ri, ti := sortKey(s.members[i])
	rj, tj := sortKey(s.members[j])
	if ri != rj {
		return ri < rj
	}
	return ti < tj
}
func (s *unionSort) Equal(i, j int) bool {
	return Equal(s.members[i], s.members[j])
}
func (s *unionSort) Truncate(n int) { s.members = s.members[:n] }

var _ sort.Interface = (*unionSort)(nil)

// Optional is sugar for Union(T, Nil), canonicalised away during lowering
// (spec §3) but reconstructed by the pretty-printer whenever a union is
// exactly {T, Nil}.
func Optional(t Type) Type { return NewUnion(t, Nil) }

// IncludesNil reports whether Nil is a disjunct of t after
// canonicalisation (spec invariant 3).
func IncludesNil(t Type) bool {
	if u, ok := t.(*Union); ok {
		for _, m := range u.Members {
			if _, ok := m.(*NilType); ok {
				return true
			}
		}
		return false
	}
	_, ok := t.(*NilType)
	return ok
}

// AsOptionalElem reports whether t is canonically {U, Nil} for some U, and
// if so returns U. Used by the pretty-printer to emit "U?".
func AsOptionalElem(t Type) (Type, bool) {
	u, ok := t.(*Union)
	if !ok || len(u.Members) != 2 {
		return nil, false
	}
	if _, ok := u.Members[0].(*NilType); ok {
		return u.Members[1], true
	}
	if _, ok := u.Members[1].(*NilType); ok {
		return u.Members[0], true
	}
	return nil, false
}

// Disjuncts returns the member list of t: t's own Members if t is a Union,
// or the single-element slice {t} otherwise. Useful for algorithms stated
// over "every disjunct of T" (spec §4.5 subtyping rules).
func Disjuncts(t Type) []Type {
	if u, ok := t.(*Union); ok {
		return u.Members
	}
	return []Type{t}
}

// RemoveFromUnion returns t with every member matching pred dropped,
// re-canonicalising the result. Used by truthy-part/falsy-part narrowing
// (spec §4.5 "Logical and/or").
func RemoveFromUnion(t Type, pred func(Type) bool) Type {
	keep := make([]Type, 0, len(Disjuncts(t)))
	for _, m := range Disjuncts(t) {
		if !pred(m) {
			keep = append(keep, m)
		}
	}
	if len(keep) == 0 {
		return Never
	}
	return NewUnion(keep...)
}

// FilterUnion returns only the members of t matching pred.
func FilterUnion(t Type, pred func(Type) bool) Type {
	return RemoveFromUnion(t, func(m Type) bool { return !pred(m) })
}
