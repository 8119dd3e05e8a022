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

// Options adjusts subtyping per spec §6 configuration knobs. The zero value
// is the strict v1 default.
type Options struct {
	// CastNumberToInteger makes Number <= Integer hold (spec §4.5
	// "Integer <= Number holds unconditionally; the reverse holds only
	// when ... enabled").
	CastNumberToInteger bool
	// WeakUnionCheck makes T <= U1|U2 succeed if T is compatible with any
	// disjunct, even when T is itself a union that is not entirely
	// contained (spec §6).
	WeakUnionCheck bool
	// WeakNilCheck silently accepts T? <= T (spec §6).
	WeakNilCheck bool
}

// Subsumes reports whether sub <= super under opts: every value described
// by sub is also described by super. This is the subtyping relation of
// spec §4.5; it is reflexive and transitive, with Never the bottom and Any
// the top (spec invariant 3).
func Subsumes(sub, super Type, opts Options) bool {
	sub = resolveAlias(sub)
	super = resolveAlias(super)

	if _, ok := super.(*AnyType); ok {
		return true
	}
	if _, ok := super.(*UnknownType); ok {
		return true
	}
	if _, ok := sub.(*NeverType); ok {
		return true
	}
	if _, ok := sub.(*AnyType); ok {
		// Any is only a subtype of Any/Unknown, both handled above.
		return false
	}

	if opts.WeakNilCheck {
		if elem, ok := AsOptionalElem(sub); ok && Subsumes(elem, super, opts) {
			return true
		}
	}

	// T1 <= U iff every disjunct of T1 is a subtype of U. In weak mode
	// (spec §6 "weakUnionCheck") this loosens to requiring only one
	// disjunct to be a subtype of U, matching a LuaCATS codebase's common
	// practice of narrowing a union value against a single expected
	// disjunct instead of proving the whole union is accepted.
	if subU, ok := sub.(*Union); ok {
		if opts.WeakUnionCheck {
			for _, m := range subU.Members {
				if Subsumes(m, super, opts) {
					return true
				}
			}
			return false
		}
		for _, m := range subU.Members {
			if !Subsumes(m, super, opts) {
				return false
			}
		}
		return true
	}

	// T <= U1|U2|... iff T equals/subtypes some disjunct, or (weak mode)
	// is compatible with any disjunct.
	if superU, ok := super.(*Union); ok {
		for _, m := range superU.Members {
			if Subsumes(sub, m, opts) {
				return true
			}
		}
		return false
	}

	if Equal(sub, super) {
		return true
	}

	switch x := sub.(type) {
	case *IntegerType:
		if _, ok := super.(*NumberType); ok {
			return true
		}
	case *NumberType:
		if opts.CastNumberToInteger {
			if _, ok := super.(*IntegerType); ok {
				return true
			}
		}
	case *Array:
		if y, ok := super.(*Array); ok {
			// Covariant by design choice; write-site mutation is
			// reported separately as assign-type-mismatch (spec §4.5).
			return Subsumes(x.Elem, y.Elem, opts)
		}
	case *Tuple:
		if y, ok := super.(*Tuple); ok {
			if len(x.Elems) != len(y.Elems) {
				return false
			}
			for i := range x.Elems {
				if !Subsumes(x.Elems[i], y.Elems[i], opts) {
					return false
				}
			}
			return true
		}
	case *Map:
		if y, ok := super.(*Map); ok {
			// Invariant in both parameters (spec §4.5).
			return Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
		}
	case *Record:
		if y, ok := super.(*Record); ok {
			for _, g := range y.Fields {
				f, ok := x.Lookup(g.Name)
				if !ok || !Subsumes(f, g.Type, opts) {
					return false
				}
			}
			if y.Sealed {
				for _, f := range x.Fields {
					if _, ok := y.Lookup(f.Name); !ok {
						return false
					}
				}
			}
			return true
		}
	case *Function:
		if y, ok := super.(*Function); ok {
			return functionSubsumes(x, y, opts)
		}
	case *Class:
		if y, ok := super.(*Class); ok {
			return x.IsSubclassOf(y)
		}
	}
	return false
}

// functionSubsumes implements contravariance in parameters, covariance in
// returns (spec §4.5 "Function: contravariant in parameters, covariant in
// returns; vararg on the supertype accepts excess actuals").
func functionSubsumes(sub, super *Function, opts Options) bool {
	n := len(super.Params)
	if len(sub.Params) > n && sub.Vararg == nil {
		return false
	}
	for i := 0; i < n; i++ {
		var subParamType Type
		switch {
		case i < len(sub.Params):
			subParamType = sub.Params[i].Type
		case sub.Vararg != nil:
			subParamType = sub.Vararg
		default:
			return false
		}
		// Contravariant: the supertype's parameter type must accept
		// anything the subtype's parameter type accepts, i.e. super's
		// param <= sub's param.
		if !Subsumes(super.Params[i].Type, subParamType, opts) {
			return false
		}
		if super.Params[i].Optional && !sub.Params[i].Optional && i < len(sub.Params) {
			return false
		}
	}
	if super.Vararg != nil {
		if sub.Vararg == nil || !Subsumes(super.Vararg, sub.Vararg, opts) {
			return false
		}
	}
	return Subsumes(sub.Returns, super.Returns, opts)
}
