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
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/types"
)

// inferParamType implements the spec §6 "inferParamType" policy: an
// unannotated parameter's declared type is guessed from the first
// arithmetic use of the bare parameter name directly in the function's own
// statement list (spec §4.5 "Arithmetic" requires both operands numeric,
// so such a use unambiguously pins the parameter to Number). The scan is
// deliberately shallow — it does not descend into nested if/while/for
// blocks or table constructors — this is a best-effort hint for the
// common "first line does arithmetic on the parameter" case, not a full
// flow analysis; a parameter with no such use still defaults to Any.
func inferParamType(name string, body []syntax.Stmt) (types.Type, bool) {
	for _, s := range body {
		for _, e := range directExprs(s) {
			if t, ok := arithmeticUseHint(name, e); ok {
				return t, true
			}
		}
	}
	return nil, false
}

// directExprs returns the expressions a statement directly evaluates at
// its own level (its right-hand sides, call arguments, or returned
// values) — the set inferParamType scans.
func directExprs(s syntax.Stmt) []syntax.Expr {
	switch st := s.(type) {
	case *syntax.LocalStmt:
		return st.Values
	case *syntax.AssignStmt:
		return st.Values
	case *syntax.ReturnStmt:
		return st.Values
	case *syntax.CallStmt:
		if st.Call == nil {
			return nil
		}
		return append([]syntax.Expr{st.Call}, st.Call.Args...)
	}
	return nil
}

// arithmeticUseHint reports Number when e is a binary arithmetic
// expression (spec §4.5 "Arithmetic") with name as either bare operand, or
// recurses into a call's arguments (through nested calls too) to catch
// `f(x + 1)`.
func arithmeticUseHint(name string, e syntax.Expr) (types.Type, bool) {
	switch x := e.(type) {
	case *syntax.BinaryExpr:
		if arithOps[x.Op] && (identNamed(x.X, name) || identNamed(x.Y, name)) {
			return types.Number, true
		}
	case *syntax.CallExpr:
		for _, a := range x.Args {
			if t, ok := arithmeticUseHint(name, a); ok {
				return t, true
			}
		}
	}
	return nil, false
}

func identNamed(e syntax.Expr, name string) bool {
	id, ok := e.(*syntax.Ident)
	return ok && id.Name == name
}
