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

import (
	"strings"

	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/syntax"
)

// Result is the extractor's output: the ordered annotation blocks plus any
// diagnostics raised by malformed directive tails (spec §4.1 "Contract").
type Result struct {
	Blocks []Block
	Diags  []*diag.Diagnostic
}

// Extract walks f's comment trivia and statements and produces the ordered
// annotation blocks described by spec §4.1.
func Extract(f *syntax.File) Result {
	e := &extractor{file: f}
	e.run()
	return Result{Blocks: e.blocks, Diags: e.diags}
}

type extractor struct {
	file   *syntax.File
	blocks []Block
	diags  []*diag.Diagnostic
}

// annotationLine is one recognised `---@...` (or inline `--[[@as ...]]`)
// comment, prior to directive parsing.
type annotationLine struct {
	comment *syntax.Comment
	tail    string // text after the leading "@", directive name onward
	inline  bool   // true for --[[@as T]] block comments
}

func (e *extractor) run() {
	// Flatten comment groups into individual comments in source order —
	// the association algorithm (spec §4.1) operates on comments, not
	// groups, since a parser's own grouping of adjacent line comments is
	// not necessarily how LuaCATS blocks are delimited.
	var comments []*syntax.Comment
	for _, g := range e.file.Comments {
		comments = append(comments, g.List...)
	}

	// Statements in source order, by start offset, used to find "the
	// nearest following statement on a subsequent line".
	stmts := e.file.Body

	var pending []annotationLine
	si := 0 // index into stmts of the next not-yet-passed statement

	flush := func(attachTo syntax.Stmt) {
		if len(pending) == 0 {
			return
		}
		block := Block{Stmt: attachTo}
		for _, l := range pending {
			block.Records = append(block.Records, e.parseDirective(l))
		}
		e.blocks = append(e.blocks, block)
		pending = nil
	}

	for _, c := range comments {
		// Advance si past any statement that starts before this comment;
		// such a statement terminates whatever block was pending.
		for si < len(stmts) && stmts[si].Span().Start < c.Span().Start {
			flush(stmts[si])
			si++
		}

		if line, ok := recognise(c); ok {
			pending = append(pending, line)
			continue
		}
		// An ordinary comment does not break an in-progress block (spec
		// §4.1 "possibly separated by ... ordinary comments").
	}
	// Any block still pending after the last comment attaches to the next
	// statement if one remains, else to the file itself.
	if si < len(stmts) {
		flush(stmts[si])
	} else {
		flush(nil)
	}
}

// recognise reports whether c is an annotation comment and, if so, returns
// its directive tail (the text after "@").
func recognise(c *syntax.Comment) (annotationLine, bool) {
	if c.Block {
		body := strings.TrimSpace(c.Text)
		if strings.HasPrefix(body, "@as ") || body == "@as" {
			return annotationLine{comment: c, tail: strings.TrimSpace(strings.TrimPrefix(body, "@as")), inline: true}, true
		}
		return annotationLine{}, false
	}
	// c.Text already has the comment's leading "--" stripped; a
	// triple-dash annotation comment therefore still carries its third
	// dash as the first byte of Text.
	if !strings.HasPrefix(c.Text, "-") {
		return annotationLine{}, false
	}
	rest := strings.TrimLeft(c.Text[1:], " ")
	if !strings.HasPrefix(rest, "@") {
		return annotationLine{}, false
	}
	return annotationLine{comment: c, tail: rest[1:]}, true
}

func (e *extractor) parseDirective(l annotationLine) Record {
	sp := l.comment.Span()
	if l.inline {
		return InlineAsAnno{recBase: recBase{sp}, TypeText: l.tail}
	}

	name, rest := directiveName(l.tail)
	switch name {
	case "type":
		return TypeAnno{recBase{sp}, rest}
	case "param":
		return e.parseParam(sp, rest)
	case "return":
		return e.parseReturn(sp, rest)
	case "class":
		return e.parseClass(sp, rest)
	case "field":
		return e.parseField(sp, rest)
	case "alias":
		return e.parseAlias(sp, rest)
	case "enum":
		t := newTailScanner(rest)
		n := t.Token()
		if n == "" {
			return e.bad(sp, name, "missing enum name")
		}
		return EnumAnno{recBase{sp}, n}
	case "generic":
		return e.parseGeneric(sp, rest)
	case "overload":
		return OverloadAnno{recBase{sp}, strings.TrimSpace(rest)}
	case "cast":
		return e.parseCast(sp, rest)
	case "operator":
		return e.parseOperator(sp, rest)
	case "vararg":
		t := newTailScanner(rest)
		ty := t.Token()
		if ty == "" {
			return e.bad(sp, name, "missing vararg type")
		}
		return VarargAnno{recBase{sp}, ty}
	case "nodiscard":
		return NodiscardAnno{recBase{sp}}
	case "deprecated":
		return DeprecatedAnno{recBase{sp}, strings.TrimSpace(rest)}
	case "private", "protected", "package":
		return VisibilityAnno{recBase{sp}, name}
	case "diagnostic":
		return e.parseDiagnostic(sp, rest)
	default:
		return e.bad(sp, name, "unrecognised directive")
	}
}

// bad records a BadAnno record and also appends a Warning-severity
// diagnostic, then returns the record so parseDirective can return a
// single Record value uniformly (spec §4.1 "Failures produce a diagnostic
// ... but do not halt extraction").
func (e *extractor) bad(sp span.Span, directive, reason string) Record {
	e.diags = append(e.diags, diag.Warnf(diag.BadAnnotation, sp, "@%s: %s", directive, reason))
	return BadAnno{recBase{sp}, directive, reason}
}
