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

// Package synthetic builds internal/syntax trees directly from literal
// source text, without parsing Lua grammar. It exists solely so this
// module's own tests (including the spec's literal S1-S6 scenarios) can
// construct a syntax.File without depending on a real Lua parser, which
// spec §1 names as an external, out-of-scope collaborator.
package synthetic

import (
	"strconv"
	"strings"

	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/syntax"
)

// Source wraps one file's text together with the span.File used to convert
// byte offsets into line/column pairs, and collects comment trivia found by
// ScanComments so a test can assemble a syntax.File.
type Source struct {
	Name string
	Text string
	File *span.File

	comments []*syntax.CommentGroup
}

// NewSource registers a new file named name with content text.
func NewSource(name, text string) *Source {
	f := span.NewFile(name, 0, len(text))
	for i, b := range []byte(text) {
		if b == '\n' {
			f.AddLine(i + 1)
		}
	}
	return &Source{Name: name, Text: text, File: f}
}

// Span returns the half-open span of the occurrence'th (0-based)
// occurrence of needle in the source text.
func (s *Source) Span(needle string, occurrence int) span.Span {
	start := -1
	from := 0
	for i := 0; i <= occurrence; i++ {
		idx := strings.Index(s.Text[from:], needle)
		if idx < 0 {
			return span.Span{}
		}
		start = from + idx
		from = start + 1
	}
	return s.File.Span(start, start+len(needle))
}

// Line returns the 1-based source line containing byte offset off.
func (s *Source) Line(off int) int {
	return s.File.Position(s.File.Pos(off)).Line
}

// ScanComments scans the source text for every line comment ("--...", not
// "---"-prefixed long comments) and block comment ("--[[...]]") and
// records it in source order, returning the built groups. Triple-dash
// annotation comments ("---@...") are ordinary comments at this layer;
// internal/annotate is what gives them meaning.
func (s *Source) ScanComments() []*syntax.CommentGroup {
	s.comments = nil
	text := s.Text
	i := 0
	for i < len(text) {
		if strings.HasPrefix(text[i:], "--") {
			if strings.HasPrefix(text[i+2:], "[[") {
				end := strings.Index(text[i:], "]]")
				if end < 0 {
					end = len(text) - i
				} else {
					end += 2
				}
				raw := text[i : i+end]
				c := &syntax.Comment{
					Text:  strings.TrimSuffix(strings.TrimPrefix(raw, "--[["), "]]"),
					Block: true,
					Line:  s.Line(i),
				}
				c.Sp = s.File.Span(i, i+end)
				s.comments = append(s.comments, &syntax.CommentGroup{List: []*syntax.Comment{c}})
				i += end
				continue
			}
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text) - i
			}
			raw := text[i : i+end]
			c := &syntax.Comment{
				Text: strings.TrimPrefix(raw, "--"),
				Line: s.Line(i),
			}
			c.Sp = s.File.Span(i, i+end)
			s.comments = append(s.comments, &syntax.CommentGroup{List: []*syntax.Comment{c}})
			i += end
			continue
		}
		i++
	}
	return s.comments
}

// File2 builds a syntax.File with the scanned comments and the given
// top-level statements.
func (s *Source) File2(body []syntax.Stmt) *syntax.File {
	if s.comments == nil {
		s.ScanComments()
	}
	return &syntax.File{
		Name:     s.Name,
		Comments: s.comments,
		Body:     body,
	}
}

// Ident builds an identifier expression spanning its occurrence'th textual
// occurrence of name.
func (s *Source) Ident(name string, occurrence int) *syntax.Ident {
	id := &syntax.Ident{Name: name}
	id.Sp = s.Span(name, occurrence)
	return id
}

// Number builds a numeric literal from its literal text.
func (s *Source) Number(text string, occurrence int) *syntax.NumberLit {
	n := &syntax.NumberLit{Text: text}
	n.Sp = s.Span(text, occurrence)
	return n
}

// String builds a string literal; needle should be the quoted source text
// (e.g. `"hello"`) and value the unescaped content.
func (s *Source) String(needle, value string, occurrence int) *syntax.StringLit {
	lit := &syntax.StringLit{Value: value}
	lit.Sp = s.Span(needle, occurrence)
	return lit
}

// Unquote is a convenience wrapper for tests that have a quoted Lua string
// literal and want its Go string value.
func Unquote(s string) string {
	if v, err := strconv.Unquote(s); err == nil {
		return v
	}
	return strings.Trim(s, `"'`)
}
