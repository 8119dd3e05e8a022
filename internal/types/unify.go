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

import "fmt"

// Subst maps type variables to their bound types, built up during
// unification (spec §4.5 "Unification").
type Subst map[*Var]Type

// Apply substitutes every Var bound in s throughout t, returning a new Type
// (t itself is never mutated, preserving the immutable-Type discipline).
func Apply(s Subst, t Type) Type {
	switch x := t.(type) {
	case *Var:
		if bound, ok := s[x]; ok {
			return bound
		}
		return t
	case *Union:
		members := make([]Type, len(x.Members))
		for i, m := range x.Members {
			members[i] = Apply(s, m)
		}
		return NewUnion(members...)
	case *Array:
		return &Array{Elem: Apply(s, x.Elem)}
	case *Tuple:
		elems := make([]Type, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = Apply(s, e)
		}
		return &Tuple{Elems: elems}
	case *Map:
		return &Map{Key: Apply(s, x.Key), Value: Apply(s, x.Value)}
	case *Record:
		fields := make([]Field, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = Field{Name: f.Name, Type: Apply(s, f.Type)}
		}
		return &Record{Fields: fields, Sealed: x.Sealed}
	case *Function:
		params := make([]Param, len(x.Params))
		for i, p := range x.Params {
			params[i] = Param{Name: p.Name, Type: Apply(s, p.Type), Optional: p.Optional}
		}
		var vararg Type
		if x.Vararg != nil {
			vararg = Apply(s, x.Vararg)
		}
		return &Function{Params: params, Vararg: vararg, Returns: Apply(s, x.Returns).(*Tuple), Generics: x.Generics}
	default:
		return t
	}
}

// Instantiate replaces every quantified variable of f with a fresh Var,
// returning the instantiated Function and the fresh variables in
// declaration order (spec §4.5 "Call-site instantiation: fresh Vars are
// introduced for each quantifier").
func Instantiate(f *ForAll) (*Function, []*Var) {
	fresh := make([]*Var, len(f.Vars))
	s := Subst{}
	for i, v := range f.Vars {
		nv := NewVar(v.Name)
		fresh[i] = nv
		s[v] = nv
	}
	return Apply(s, f.Body).(*Function), fresh
}

// occursError is returned by Unify when a variable would have to unify
// with a type that contains itself.
type occursError struct {
	v *Var
	t Type
}

func (e *occursError) Error() string {
	return fmt.Sprintf("occurs check failed: %s occurs in %s", e.v, e.t)
}

// Unify performs first-order unification of a against b, extending s with
// any new bindings and returning the (possibly) extended substitution.
// Unifying a variable with a union succeeds only by picking the unique
// member compatible with every other constraint already in s; ambiguity
// is reported as an error (spec §4.5 "Unification").
func Unify(s Subst, a, b Type, opts Options) (Subst, error) {
	a = applyAndResolve(s, a)
	b = applyAndResolve(s, b)

	if av, ok := a.(*Var); ok {
		return bindVar(s, av, b, opts)
	}
	if bv, ok := b.(*Var); ok {
		return bindVar(s, bv, a, opts)
	}
	if Equal(a, b) {
		return s, nil
	}
	if Subsumes(a, b, opts) || Subsumes(b, a, opts) {
		return s, nil
	}

	switch x := a.(type) {
	case *Array:
		if y, ok := b.(*Array); ok {
			return Unify(s, x.Elem, y.Elem, opts)
		}
	case *Map:
		if y, ok := b.(*Map); ok {
			s2, err := Unify(s, x.Key, y.Key, opts)
			if err != nil {
				return s, err
			}
			return Unify(s2, x.Value, y.Value, opts)
		}
	case *Tuple:
		if y, ok := b.(*Tuple); ok && len(x.Elems) == len(y.Elems) {
			cur := s
			for i := range x.Elems {
				var err error
				cur, err = Unify(cur, x.Elems[i], y.Elems[i], opts)
				if err != nil {
					return s, err
				}
			}
			return cur, nil
		}
	case *Function:
		if y, ok := b.(*Function); ok && len(x.Params) == len(y.Params) {
			cur := s
			for i := range x.Params {
				var err error
				cur, err = Unify(cur, x.Params[i].Type, y.Params[i].Type, opts)
				if err != nil {
					return s, err
				}
			}
			return Unify(cur, x.Returns, y.Returns, opts)
		}
	}
	return s, fmt.Errorf("cannot unify %s with %s", a, b)
}

func applyAndResolve(s Subst, t Type) Type {
	return resolveAlias(Apply(s, t))
}

func bindVar(s Subst, v *Var, t Type, opts Options) (Subst, error) {
	if existing, ok := s[v]; ok {
		return Unify(s, existing, t, opts)
	}
	if occurs(v, t) {
		return s, &occursError{v: v, t: t}
	}
	if u, ok := t.(*Union); ok {
		// Ambiguity: a variable unified directly with a multi-member
		// union must be disambiguated by the caller (picking the unique
		// compatible member) before calling Unify again; binding it
		// straight to the whole union would silently widen the
		// instantiation beyond what spec §4.5 allows.
		compat := make([]Type, 0, len(u.Members))
		for _, m := range u.Members {
			compat = append(compat, m)
		}
		if len(compat) != 1 {
			return s, fmt.Errorf("ambiguous unification of %s with union %s", v, t)
		}
		t = compat[0]
	}
	out := Subst{}
	for k, val := range s {
		out[k] = val
	}
	out[v] = t
	return out, nil
}

func occurs(v *Var, t Type) bool {
	switch x := t.(type) {
	case *Var:
		return x == v
	case *Union:
		for _, m := range x.Members {
			if occurs(v, m) {
				return true
			}
		}
	case *Array:
		return occurs(v, x.Elem)
	case *Tuple:
		for _, e := range x.Elems {
			if occurs(v, e) {
				return true
			}
		}
	case *Map:
		return occurs(v, x.Key) || occurs(v, x.Value)
	case *Function:
		for _, p := range x.Params {
			if occurs(v, p.Type) {
				return true
			}
		}
		if x.Vararg != nil && occurs(v, x.Vararg) {
			return true
		}
		return occurs(v, x.Returns)
	}
	return false
}
