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

package annotate

import "strings"

// tailScanner tokenizes one directive's tail (the text after "@name ") into
// whitespace-separated tokens, except that a token may itself contain
// spaces when they occur inside balanced (), [], {}, <> or backtick quotes
// — needed so a type expression like "fun(a: string, b: number): boolean"
// or "{ x: number, y: number }" scans as a single token.
type tailScanner struct {
	s   string
	pos int
}

func newTailScanner(s string) *tailScanner { return &tailScanner{s: s} }

func (t *tailScanner) skipSpace() {
	for t.pos < len(t.s) && t.s[t.pos] == ' ' {
		t.pos++
	}
}

// Rest returns everything from the current position to end of input,
// trimmed of surrounding spaces (used for free-text descriptions).
func (t *tailScanner) Rest() string {
	t.skipSpace()
	return strings.TrimRight(t.s[t.pos:], " \t")
}

// Eof reports whether the scanner has consumed the whole tail.
func (t *tailScanner) Eof() bool {
	t.skipSpace()
	return t.pos >= len(t.s)
}

// Token reads one balanced-delimiter-aware whitespace-separated token.
func (t *tailScanner) Token() string {
	t.skipSpace()
	start := t.pos
	depth := 0
	inBacktick := false
	for t.pos < len(t.s) {
		c := t.s[t.pos]
		switch {
		case inBacktick:
			if c == '`' {
				inBacktick = false
			}
		case c == '`':
			inBacktick = true
		case c == '(' || c == '[' || c == '{' || c == '<':
			depth++
		case c == ')' || c == ']' || c == '}' || c == '>':
			if depth > 0 {
				depth--
			}
		case c == ' ' && depth == 0:
			return t.s[start:t.pos]
		}
		t.pos++
	}
	return t.s[start:t.pos]
}

// directiveName splits a directive comment tail ("@param x T desc") into
// the directive name ("param") and the remaining tail ("x T desc").
func directiveName(tail string) (name, rest string) {
	i := 0
	for i < len(tail) && (isIdentByte(tail[i])) {
		i++
	}
	name = tail[:i]
	rest = strings.TrimLeft(tail[i:], " ")
	return name, rest
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	return true
}

// splitOptional splits a "name?" token into ("name", true) or leaves it
// unchanged with false.
func splitOptional(tok string) (string, bool) {
	if strings.HasSuffix(tok, "?") {
		return strings.TrimSuffix(tok, "?"), true
	}
	return tok, false
}
