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

// Equal reports whether a and b are the same type modulo alias resolution:
// an Alias is compared as whatever it currently resolves to (or as itself,
// by name, if unresolved). This is the notion of "structural equality"
// referred to by spec §3's canonical-union invariant.
func Equal(a, b Type) bool {
	a = resolveAlias(a)
	b = resolveAlias(b)

	switch x := a.(type) {
	case *NilType:
		_, ok := b.(*NilType)
		return ok
	case *BooleanType:
		_, ok := b.(*BooleanType)
		return ok
	case *NumberType:
		_, ok := b.(*NumberType)
		return ok
	case *IntegerType:
		_, ok := b.(*IntegerType)
		return ok
	case *StringType:
		_, ok := b.(*StringType)
		return ok
	case *ThreadType:
		_, ok := b.(*ThreadType)
		return ok
	case *UserdataType:
		_, ok := b.(*UserdataType)
		return ok
	case *LightUserdataType:
		_, ok := b.(*LightUserdataType)
		return ok
	case *AnyType:
		_, ok := b.(*AnyType)
		return ok
	case *UnknownType:
		_, ok := b.(*UnknownType)
		return ok
	case *NeverType:
		_, ok := b.(*NeverType)
		return ok
	case *Array:
		y, ok := b.(*Array)
		return ok && Equal(x.Elem, y.Elem)
	case *Tuple:
		y, ok := b.(*Tuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		return ok && Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case *Record:
		y, ok := b.(*Record)
		if !ok || x.Sealed != y.Sealed || len(x.Fields) != len(y.Fields) {
			return false
		}
		for _, f := range x.Fields {
			yt, ok := y.Lookup(f.Name)
			if !ok || !Equal(f.Type, yt) {
				return false
			}
		}
		return true
	case *Function:
		y, ok := b.(*Function)
		if !ok || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if x.Params[i].Optional != y.Params[i].Optional {
				return false
			}
			if !Equal(x.Params[i].Type, y.Params[i].Type) {
				return false
			}
		}
		if (x.Vararg == nil) != (y.Vararg == nil) {
			return false
		}
		if x.Vararg != nil && !Equal(x.Vararg, y.Vararg) {
			return false
		}
		return Equal(x.Returns, y.Returns)
	case *Class:
		y, ok := b.(*Class)
		return ok && x == y // classes are nominal: same declaration, same pointer
	case *Var:
		y, ok := b.(*Var)
		return ok && x == y
	case *Union:
		y, ok := b.(*Union)
		if !ok || len(x.Members) != len(y.Members) {
			return false
		}
		for i := range x.Members {
			if !Equal(x.Members[i], y.Members[i]) {
				return false
			}
		}
		return true
	case *Alias:
		// Both sides failed to resolve (resolveAlias is a no-op on an
		// unresolved Alias); compare by name.
		y, ok := b.(*Alias)
		return ok && x.Name == y.Name
	default:
		return false
	}
}

func resolveAlias(t Type) Type {
	for {
		a, ok := t.(*Alias)
		if !ok {
			return t
		}
		r, ok := a.resolved()
		if !ok {
			return t
		}
		t = r
	}
}
