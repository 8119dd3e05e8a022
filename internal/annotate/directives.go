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

	"github.com/lua-ls/core/internal/span"
)

func (e *extractor) parseParam(sp span.Span, rest string) Record {
	t := newTailScanner(rest)
	nameTok := t.Token()
	if nameTok == "" {
		return e.bad(sp, "param", "missing parameter name")
	}
	name, optional := splitOptional(nameTok)
	ty := t.Token()
	if ty == "" {
		return e.bad(sp, "param", "missing parameter type")
	}
	return ParamAnno{recBase{sp}, name, optional, ty, t.Rest()}
}

func (e *extractor) parseReturn(sp span.Span, rest string) Record {
	t := newTailScanner(rest)
	ty := t.Token()
	if ty == "" {
		return e.bad(sp, "return", "missing return type")
	}
	name := ""
	if !t.Eof() {
		save := t.pos
		tok := t.Token()
		if isValidIdent(tok) {
			name = tok
		} else {
			t.pos = save
		}
	}
	return ReturnAnno{recBase{sp}, ty, name, t.Rest()}
}

func (e *extractor) parseClass(sp span.Span, rest string) Record {
	t := newTailScanner(rest)
	exact := false
	save := t.pos
	tok := t.Token()
	if tok == "(exact)" {
		exact = true
	} else {
		t.pos = save
	}
	name := t.Token()
	if name == "" {
		return e.bad(sp, "class", "missing class name")
	}
	parent := ""
	remainder := strings.TrimSpace(t.Rest())
	if strings.HasPrefix(remainder, ":") {
		parent = strings.TrimSpace(strings.TrimPrefix(remainder, ":"))
	}
	return ClassAnno{recBase{sp}, name, exact, parent}
}

func (e *extractor) parseField(sp span.Span, rest string) Record {
	t := newTailScanner(rest)
	tok := t.Token()
	if tok == "" {
		return e.bad(sp, "field", "missing field name")
	}
	scope := ""
	switch tok {
	case "private", "protected", "package":
		scope = tok
		tok = t.Token()
	}
	if tok == "" {
		return e.bad(sp, "field", "missing field name")
	}
	name, optional := splitOptional(tok)
	ty := t.Token()
	if ty == "" {
		return e.bad(sp, "field", "missing field type")
	}
	return FieldAnno{recBase{sp}, scope, name, optional, ty, t.Rest()}
}

func (e *extractor) parseAlias(sp span.Span, rest string) Record {
	t := newTailScanner(rest)
	name := t.Token()
	if name == "" {
		return e.bad(sp, "alias", "missing alias name")
	}
	ty := t.Rest()
	if ty == "" {
		return e.bad(sp, "alias", "missing aliased type")
	}
	return AliasAnno{recBase{sp}, name, ty}
}

func (e *extractor) parseGeneric(sp span.Span, rest string) Record {
	parts := strings.Split(rest, ",")
	var names []string
	for _, p := range parts {
		n := strings.TrimSpace(p)
		if n == "" {
			continue
		}
		// Accept an optional LuaCATS "T: upper-bound" constraint tail by
		// keeping only the variable name; constraint checking beyond the
		// quantifier list itself is not part of this v1 grammar.
		if i := strings.IndexAny(n, ": "); i >= 0 {
			n = n[:i]
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return e.bad(sp, "generic", "missing generic parameter list")
	}
	return GenericAnno{recBase{sp}, names}
}

func (e *extractor) parseCast(sp span.Span, rest string) Record {
	t := newTailScanner(rest)
	name := t.Token()
	if name == "" {
		return e.bad(sp, "cast", "missing cast target name")
	}
	spec := t.Token()
	switch {
	case spec == "-?":
		return CastAnno{recBase{sp}, name, CastRemoveNil, ""}
	case strings.HasPrefix(spec, "+"):
		return CastAnno{recBase{sp}, name, CastAdd, spec[1:]}
	case strings.HasPrefix(spec, "-"):
		return CastAnno{recBase{sp}, name, CastRemove, spec[1:]}
	case spec != "":
		return CastAnno{recBase{sp}, name, CastReplace, spec}
	default:
		return e.bad(sp, "cast", "missing cast specifier")
	}
}

func (e *extractor) parseOperator(sp span.Span, rest string) Record {
	i := strings.Index(rest, ":")
	if i < 0 {
		return e.bad(sp, "operator", "missing ':' before signature")
	}
	op := strings.TrimSpace(rest[:i])
	sig := strings.TrimSpace(rest[i+1:])
	if op == "" || sig == "" {
		return e.bad(sp, "operator", "missing operator name or signature")
	}
	return OperatorAnno{recBase{sp}, op, sig}
}

func (e *extractor) parseDiagnostic(sp span.Span, rest string) Record {
	t := newTailScanner(rest)
	tok := t.Token()
	action := ""
	codesText := ""
	if i := strings.IndexByte(tok, '='); i >= 0 {
		action = tok[:i]
		codesText = tok[i+1:]
	} else {
		action = tok
	}
	var act DiagnosticAction
	switch action {
	case "disable":
		act = DiagDisable
	case "enable":
		act = DiagEnable
	case "push":
		act = DiagPush
	case "pop":
		act = DiagPop
	default:
		return e.bad(sp, "diagnostic", "unknown action "+action)
	}
	var codes []string
	if codesText != "" {
		for _, c := range strings.Split(codesText, ",") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
	}
	return DiagnosticAnno{recBase{sp}, act, codes}
}
