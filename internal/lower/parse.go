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

package lower

import (
	"fmt"

	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/types"
)

// AliasResolver supplies the lazy resolution callback for a bare name that
// isn't a recognised primitive; the Type Registry (spec §4.3) implements
// this once it has collected every declared class/alias/enum. A nil
// resolver (used when lowering a type expression outside of any registry,
// e.g. in isolated tests) makes every such name permanently unresolved.
type AliasResolver func(name string) func() (types.Type, bool)

var primitives = map[string]types.Type{
	"nil":           types.Nil,
	"any":           types.Any,
	"boolean":       types.Boolean,
	"number":        types.Number,
	"integer":       types.Integer,
	"string":        types.String,
	"thread":        types.Thread,
	"userdata":      types.Userdata,
	"lightuserdata": types.LightUserdata,
	"unknown":       types.Unknown,
	"never":         types.Never,
	// "function" and "table" without arguments are the untyped-escape
	// hatches LuaCATS allows; both widen to Any rather than gaining a
	// dedicated nullary Type, since an annotated `fun(...)`/`table<K,V>`
	// already has a precise representation.
	"function": types.Any,
	"table":    types.Any,
}

// Lower parses text (the captured tail of a @type/@param/@return/... type
// expression) into a types.Type. It never fails outright: on a syntax
// error it returns a diagnostic together with whatever type the parse
// recovered (Unknown in place of a token that starts no type), so a
// malformed annotation degrades one site rather than aborting the whole pass.
func Lower(text string, base span.Span, resolve AliasResolver) (types.Type, []*diag.Diagnostic) {
	return LowerWithVars(text, base, resolve, map[string]*types.Var{})
}

// LowerWithVars is Lower, but backtick-quoted generic captures are looked up
// and recorded in vars instead of a fresh map private to this call, and a
// bare name already present in vars (a @generic name) lowers to that Var
// rather than to an Alias. Pass the
// same vars map across every @param/@return/@generic type expression of one
// function signature so that `` `T` `` occurring in a parameter and again in
// a return type resolves to the identical *types.Var — required for
// unification to treat them as one quantifier rather than two unrelated
// ones (spec §4.5 "Generics").
func LowerWithVars(text string, base span.Span, resolve AliasResolver, vars map[string]*types.Var) (types.Type, []*diag.Diagnostic) {
	p := &parser{toks: lex(text), resolve: resolve, base: base, vars: vars}
	t := p.parseUnion()
	if p.cur().kind != tokEOF {
		p.errorf("unexpected trailing input %q", p.cur().text)
	}
	return t, p.diags
}

type parser struct {
	toks    []token
	i       int
	resolve AliasResolver
	base    span.Span
	diags   []*diag.Diagnostic
	// vars caches one *types.Var per generic name, shared by every
	// LowerWithVars call given the same map, so that `T` occurring twice in the same signature
	// (e.g. "fun(a: `T`): `T`") refers to the same variable rather than two
	// distinct ones — Var identity, not name, is what Equal/Unify compare.
	vars map[string]*types.Var
}

func (p *parser) cur() token  { return p.toks[p.i] }
func (p *parser) advance() token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.diags = append(p.diags, diag.Warnf(diag.BadAnnotation, p.base, format, args...))
}

// parseUnion is T := Atom ('|' Atom)* ['?'].
func (p *parser) parseUnion() types.Type {
	members := []types.Type{p.parseAtomWithSuffix()}
	for p.cur().kind == tokPipe {
		p.advance()
		members = append(members, p.parseAtomWithSuffix())
	}
	t := types.NewUnion(members...)
	if p.cur().kind == tokQuestion {
		p.advance()
		t = types.Optional(t)
	}
	return t
}

// parseAtomWithSuffix handles the Array suffix: Atom ('[]')*.
func (p *parser) parseAtomWithSuffix() types.Type {
	t := p.parseAtom()
	for p.cur().kind == tokArray {
		p.advance()
		t = &types.Array{Elem: t}
	}
	return t
}

func (p *parser) parseAtom() types.Type {
	switch p.cur().kind {
	case tokLParen:
		p.advance()
		t := p.parseUnion()
		p.expect(tokRParen)
		return t
	case tokLBrack:
		return p.parseTuple()
	case tokLBrace:
		return p.parseMapOrRecord()
	case tokBacktickIdent:
		tok := p.advance()
		return p.varFor(tok.text)
	case tokIdent:
		return p.parseNameOrFun()
	default:
		p.errorf("unexpected token %q", p.cur().text)
		p.advance()
		return types.Unknown
	}
}

func (p *parser) parseNameOrFun() types.Type {
	tok := p.advance()
	if tok.text == "fun" && p.cur().kind == tokLParen {
		return p.parseFun()
	}
	if prim, ok := primitives[tok.text]; ok {
		if p.cur().kind == tokLt && tok.text != "table" {
			// A primitive with generic args only makes sense for table<K,V>
			// (spec §4.2 "table<K,V> ≡ Map(K,V)"); any other case still
			// consumes the argument list so parsing stays in sync.
			p.advance()
			p.parseUnion()
			for p.cur().kind == tokComma {
				p.advance()
				p.parseUnion()
			}
			p.expect(tokGt)
		}
		if tok.text == "table" && p.cur().kind == tokLt {
			return p.parseTableArgs()
		}
		return prim
	}
	if tok.text == "table" {
		return types.Any
	}
	if v, ok := p.vars[tok.text]; ok {
		return v
	}
	if p.cur().kind == tokLt {
		p.advance()
		args := []types.Type{p.parseUnion()}
		for p.cur().kind == tokComma {
			p.advance()
			args = append(args, p.parseUnion())
		}
		p.expect(tokGt)
		// No generic-alias application in the Type algebra beyond the
		// table<K,V> special case above (see SPEC_FULL/DESIGN: full
		// generic inference over annotated schemes only, spec §1
		// non-goals); the arguments are still parsed (for diagnostics on
		// malformed sub-expressions) but the result is the bare Alias.
		_ = args
	}
	return p.alias(tok.text)
}

func (p *parser) parseTableArgs() types.Type {
	p.expect(tokLt)
	k := p.parseUnion()
	p.expect(tokComma)
	v := p.parseUnion()
	p.expect(tokGt)
	return &types.Map{Key: k, Value: v}
}

func (p *parser) varFor(name string) *types.Var {
	if v, ok := p.vars[name]; ok {
		return v
	}
	if p.vars == nil {
		p.vars = make(map[string]*types.Var)
	}
	v := types.NewVar(name)
	p.vars[name] = v
	return v
}

func (p *parser) alias(name string) types.Type {
	var resolveFn func() (types.Type, bool)
	if p.resolve != nil {
		resolveFn = p.resolve(name)
	}
	return &types.Alias{Name: name, Resolve: resolveFn}
}

// parseTuple is Tuple := '[' T (',' T)* ']'.
func (p *parser) parseTuple() types.Type {
	p.expect(tokLBrack)
	if p.cur().kind == tokRBrack {
		p.advance()
		return &types.Tuple{}
	}
	elems := []types.Type{p.parseUnion()}
	for p.cur().kind == tokComma {
		p.advance()
		elems = append(elems, p.parseUnion())
	}
	p.expect(tokRBrack)
	return &types.Tuple{Elems: elems}
}

// parseMapOrRecord is Map := '{' '[' T ']' ':' T '}' | '{' Field (',' Field)* '}'.
func (p *parser) parseMapOrRecord() types.Type {
	p.expect(tokLBrace)
	if p.cur().kind == tokRBrace {
		p.advance()
		return &types.Record{Sealed: false}
	}
	if p.cur().kind == tokLBrack {
		p.advance()
		k := p.parseUnion()
		p.expect(tokRBrack)
		p.expect(tokColon)
		v := p.parseUnion()
		p.expect(tokRBrace)
		return &types.Map{Key: k, Value: v}
	}
	var fields []types.Field
	for {
		if p.cur().kind != tokIdent {
			p.errorf("expected field name, got %q", p.cur().text)
			break
		}
		name := p.advance().text
		p.expect(tokColon)
		ty := p.parseUnion()
		fields = append(fields, types.Field{Name: name, Type: ty})
		if p.cur().kind != tokComma {
			break
		}
		p.advance()
	}
	p.expect(tokRBrace)
	return &types.Record{Fields: fields, Sealed: true}
}

// parseFun is Fun := 'fun' '(' [Param (',' Param)*] ')' [':' T (',' T)*].
func (p *parser) parseFun() types.Type {
	p.expect(tokLParen)
	var params []types.Param
	var vararg types.Type
	if p.cur().kind != tokRParen {
		for {
			if p.cur().kind == tokEllipsis {
				p.advance()
				if p.cur().kind == tokColon {
					p.advance()
					vararg = p.parseUnion()
				} else {
					vararg = types.Any
				}
			} else {
				name := ""
				optional := false
				if p.cur().kind == tokIdent && p.peekIsParamName() {
					name = p.advance().text
					if p.cur().kind == tokQuestion {
						p.advance()
						optional = true
					}
					p.expect(tokColon)
				}
				ty := p.parseUnion()
				params = append(params, types.Param{Name: name, Type: ty, Optional: optional})
			}
			if p.cur().kind != tokComma {
				break
			}
			p.advance()
		}
	}
	p.expect(tokRParen)
	var rets []types.Type
	if p.cur().kind == tokColon {
		p.advance()
		rets = append(rets, p.parseUnion())
		for p.cur().kind == tokComma {
			p.advance()
			rets = append(rets, p.parseUnion())
		}
	}
	return &types.Function{Params: params, Vararg: vararg, Returns: &types.Tuple{Elems: rets}}
}

// peekIsParamName reports whether the current identifier token is followed
// by '?' ':' or ':' directly, i.e. is a parameter name rather than the
// start of a bare type (Param := [Ident [?] ':'] T).
func (p *parser) peekIsParamName() bool {
	j := p.i + 1
	if j < len(p.toks) && p.toks[j].kind == tokQuestion {
		j++
	}
	return j < len(p.toks) && p.toks[j].kind == tokColon
}

func (p *parser) expect(k tokenKind) {
	if p.cur().kind != k {
		p.errorf("expected %s, got %q", tokenName(k), p.cur().text)
		return
	}
	p.advance()
}

func tokenName(k tokenKind) string {
	switch k {
	case tokRParen:
		return "')'"
	case tokRBrack:
		return "']'"
	case tokRBrace:
		return "'}'"
	case tokColon:
		return "':'"
	case tokGt:
		return "'>'"
	case tokLt:
		return "'<'"
	case tokLBrace:
		return "'{'"
	case tokLBrack:
		return "'['"
	case tokLParen:
		return "'('"
	default:
		return fmt.Sprintf("token(%d)", k)
	}
}
