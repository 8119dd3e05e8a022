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

import "strings"

// Pretty renders t using the display rules of spec §4.5 "State for LSP
// outputs": T? for exactly {T, Nil}, T[] for arrays, {[K]: V} for maps, and
// parenthesised unions inside array/optional contexts. It is the single
// rendering implementation; every compound Type's String() method forwards
// here so hover text and inlay hints always agree byte-for-byte.
func Pretty(t Type) string {
	return prettyAt(t, false)
}

// prettyAt renders t; nested reports whether t sits inside an array/optional
// context, where a union must be parenthesised to stay unambiguous
// (e.g. (string|number)[] rather than string|number[]).
func prettyAt(t Type, nested bool) string {
	switch x := t.(type) {
	case *Union:
		if elem, ok := AsOptionalElem(t); ok {
			return prettyAt(elem, true) + "?"
		}
		parts := make([]string, len(x.Members))
		for i, m := range x.Members {
			parts[i] = prettyAt(m, false)
		}
		s := strings.Join(parts, "|")
		if nested {
			return "(" + s + ")"
		}
		return s
	case *Array:
		return prettyAt(x.Elem, true) + "[]"
	case *Tuple:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = prettyAt(e, false)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		return "{[" + prettyAt(x.Key, false) + "]: " + prettyAt(x.Value, false) + "}"
	case *Record:
		parts := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			parts[i] = f.Name + ": " + prettyAt(f.Type, false)
		}
		prefix := "{"
		if x.Sealed {
			prefix = "{(exact) "
		}
		return prefix + strings.Join(parts, ", ") + "}"
	case *Function:
		params := make([]string, len(x.Params))
		for i, p := range x.Params {
			opt := ""
			if p.Optional {
				opt = "?"
			}
			name := p.Name
			if name == "" {
				name = "_"
			}
			params[i] = name + opt + ": " + prettyAt(p.Type, false)
		}
		if x.Vararg != nil {
			params = append(params, "...: "+prettyAt(x.Vararg, false))
		}
		s := "fun(" + strings.Join(params, ", ") + ")"
		if x.Returns != nil && len(x.Returns.Elems) > 0 {
			rets := make([]string, len(x.Returns.Elems))
			for i, r := range x.Returns.Elems {
				rets[i] = prettyAt(r, false)
			}
			s += ": " + strings.Join(rets, ", ")
		}
		return s
	case *Alias:
		if r, ok := x.resolved(); ok {
			return prettyAt(r, nested)
		}
		return x.Name
	default:
		return t.String()
	}
}
