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
	"github.com/lua-ls/core/internal/numeric"
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/types"
)

// numberLitType classifies a NumberLit's exact lexical form into Integer or
// Number (spec §4.5 "numeric literals distinguish Integer ... from
// Number"), honouring the configured dialect's integer support (spec §6
// scenario S5 note).
func (c *Checker) numberLitType(n *syntax.NumberLit) types.Type {
	lit, err := numeric.Parse(n.Text)
	if err != nil {
		return types.Number
	}
	if lit.IsInteger && c.cfg.Syntax.HasIntegers() {
		return types.Integer
	}
	return types.Number
}
