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

package bind

import "github.com/lua-ls/core/internal/syntax"

// walkExpr visits every FunctionExpr reachable from e through nested
// operators, calls, indexing and table constructors, without descending
// into a found FunctionExpr's own body — the caller (bindFunction, via
// buildBlock) walks each function body as its own statement list.
func walkExpr(e syntax.Expr, visit func(syntax.Expr)) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case *syntax.FunctionExpr:
		visit(x)
	case *syntax.BinaryExpr:
		walkExpr(x.X, visit)
		walkExpr(x.Y, visit)
	case *syntax.UnaryExpr:
		walkExpr(x.X, visit)
	case *syntax.ParenExpr:
		walkExpr(x.X, visit)
	case *syntax.CallExpr:
		walkExpr(x.Fn, visit)
		for _, a := range x.Args {
			walkExpr(a, visit)
		}
	case *syntax.IndexExpr:
		walkExpr(x.X, visit)
		walkExpr(x.Index, visit)
	case *syntax.FieldExpr:
		walkExpr(x.X, visit)
	case *syntax.TableExpr:
		for _, f := range x.Fields {
			if f.Key != nil {
				walkExpr(f.Key, visit)
			}
			walkExpr(f.Value, visit)
		}
	}
}
