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

import "github.com/lua-ls/core/internal/types"

var arithIntegralOps = map[string]bool{"+": true, "-": true, "*": true, "//": true, "%": true}

// arithOps is every operator spec §4.5 "Arithmetic" requires numeric
// operands for, integrality-preserving or not ("/" and "^" always produce
// Number but still demand numeric operands).
var arithOps = map[string]bool{"+": true, "-": true, "*": true, "//": true, "%": true, "/": true, "^": true}

func (c *Checker) isNumeric(t types.Type) bool {
	return types.Subsumes(t, types.Number, c.opts)
}

func (c *Checker) isIntegerOnly(t types.Type) bool {
	return types.Subsumes(t, types.Integer, c.opts)
}

func (c *Checker) isStringy(t types.Type) bool {
	return types.Subsumes(t, types.String, c.opts)
}

// arithmeticType implements spec §4.5 "Arithmetic": Integer result when
// both operands are Integer and the operator preserves integrality,
// Number otherwise; "/" and "^" always produce Number. When neither
// operand is numeric, a class @operator metamethod (spec §4.5 "Metamethod
// operator dispatch") may still teach the operator; otherwise the
// expression degrades to Unknown with no diagnostic, since the closed v1
// taxonomy (spec §7) has no dedicated code for operand-type mismatches on
// arithmetic/relational/concatenation operators.
func (c *Checker) arithmeticType(op string, left, right types.Type) types.Type {
	if c.isNumeric(left) && c.isNumeric(right) {
		if op != "/" && op != "^" && arithIntegralOps[op] && c.isIntegerOnly(left) && c.isIntegerOnly(right) {
			return types.Integer
		}
		return types.Number
	}
	if t, ok := c.metamethodDispatch(op, left, right); ok {
		return t
	}
	return types.Unknown
}

// comparisonType implements spec §4.5 "Comparison": both operands numeric,
// or both string.
func (c *Checker) comparisonType(left, right types.Type) types.Type {
	if (c.isNumeric(left) && c.isNumeric(right)) || (c.isStringy(left) && c.isStringy(right)) {
		return types.Boolean
	}
	return types.Unknown
}

// concatType implements spec §4.5 "Concatenation": operands must be
// String, Number, or Integer.
func (c *Checker) concatType(left, right types.Type) types.Type {
	ok := func(t types.Type) bool { return c.isStringy(t) || c.isNumeric(t) }
	if ok(left) && ok(right) {
		return types.String
	}
	if t, res := c.metamethodDispatch("concat", left, right); res {
		return t
	}
	return types.Unknown
}

// lengthType implements spec §4.5 "Length": on Array, String, Map.
func (c *Checker) lengthType(t types.Type) types.Type {
	if t.Kind().IsAnyOf(types.LengthableKind) {
		return types.Integer
	}
	return types.Unknown
}

// opMetaNames maps a source-level binary operator spelling to the @operator
// annotation name used to look up a class metamethod.
var opMetaNames = map[string]string{
	"+": "add", "-": "sub", "*": "mul", "/": "div",
	"//": "idiv", "%": "mod", "^": "pow", "..": "concat",
}

// metamethodDispatch teaches op to succeed when left is a class declaring
// a matching @operator and right is a subtype of that metamethod's second
// parameter (spec §4.5 "Metamethod operator dispatch").
func (c *Checker) metamethodDispatch(op string, left, right types.Type) (types.Type, bool) {
	name, ok := opMetaNames[op]
	if !ok {
		name = op
	}
	cls, ok := left.(*types.Class)
	if !ok {
		return nil, false
	}
	fn, ok := cls.LookupOperator(name)
	if !ok || len(fn.Params) < 2 {
		return nil, false
	}
	if !types.Subsumes(right, fn.Params[1].Type, c.opts) {
		return nil, false
	}
	return fn.Returns.First(), true
}

// truthyPart removes the statically-decidable falsy component (Nil) from t
// (spec §4.5 "truthy-part(T) removes Nil and Boolean(false) when
// statically decidable"; Boolean(false) is not separable from Boolean at
// the type level since this algebra has no literal-boolean subtypes, so
// only the Nil component is ever decidably removable here).
func truthyPart(t types.Type) types.Type {
	return types.RemoveFromUnion(t, isNilType)
}

// falsyPart returns the part of t that could be observed as falsy: Nil,
// plus Boolean itself (since a Boolean value might be false).
func falsyPart(t types.Type) types.Type {
	return types.FilterUnion(t, func(m types.Type) bool {
		return isNilType(m) || isBooleanType(m)
	})
}

// canBeFalsy reports whether t's falsy part is non-empty.
func canBeFalsy(t types.Type) bool {
	return falsyPart(t) != types.Never
}

func isNilType(t types.Type) bool {
	_, ok := t.(*types.NilType)
	return ok
}

func isBooleanType(t types.Type) bool {
	_, ok := t.(*types.BooleanType)
	return ok
}

// logicalAnd implements spec §4.5 "Logical and: Union(truthy-part(left), right)".
func logicalAnd(left, right types.Type) types.Type {
	return types.NewUnion(truthyPart(left), right)
}

// logicalOr implements spec §4.5 "Logical or".
func logicalOr(left, right types.Type) types.Type {
	if !canBeFalsy(left) {
		return left
	}
	return types.NewUnion(truthyPart(left), right)
}
