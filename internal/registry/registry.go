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

// Package registry implements the workspace-wide Type Registry (spec §4.3):
// a deterministic two-phase collect/resolve pass over every file's
// top-level class/alias/enum annotations, producing a frozen, read-only
// name table that the checker shares across every file it visits —
// the same frozen-shared-index discipline the teacher's runtime.Runtime
// gives its index: built once, then only ever read concurrently.
package registry

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/lower"
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/types"
)

// vertexStatus tracks a declaration's place in the resolve phase's
// depth-first walk, mirroring the collect/resolving/resolved/cyclic states
// the teacher's adt.VertexStatus state machine uses to detect reference
// cycles during evaluation.
type vertexStatus int

const (
	unresolved vertexStatus = iota
	resolving
	resolved
)

// classDecl is a collected, not-yet-resolved @class declaration.
type classDecl struct {
	name       string
	exact      bool
	parentName string
	fields     []annotate.FieldAnno
	operators  []annotate.OperatorAnno
	methods    []methodDecl
	span       span.Span
	status     vertexStatus
	resolvedAs *types.Class
}

type methodDecl struct {
	name    string
	block   annotate.Block
	fn      *syntax.FunctionExpr
	span    span.Span
}

// aliasDecl is a collected, not-yet-resolved @alias declaration.
type aliasDecl struct {
	name   string
	text   string
	span   span.Span
	status vertexStatus
	value  types.Type
}

// enumDecl is a collected @enum declaration. Member typing is out of scope
// (spec §4.3 only requires "a map from declared names ... to resolved
// schemes"); an enum is registered as an opaque sealed nominal type so that
// references to it at least resolve rather than becoming unknown-name.
type enumDecl struct {
	name string
	span span.Span
}

// Registry is the frozen, read-only result of Build. Every exported lookup
// is safe to call concurrently from multiple checking goroutines once
// Build has returned.
type Registry struct {
	classes map[string]*types.Class
	aliases map[string]*types.Alias
}

// Class looks up a registered class by name.
func (r *Registry) Class(name string) (*types.Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// Alias looks up a registered alias by name. The returned *types.Alias
// already carries a working Resolve closure.
func (r *Registry) Alias(name string) (*types.Alias, bool) {
	a, ok := r.aliases[name]
	return a, ok
}

// Resolver returns a lower.AliasResolver bound to this registry, suitable
// for lowering any type expression that may reference a registered
// class/alias/enum name.
func (r *Registry) Resolver() lower.AliasResolver {
	return func(name string) func() (types.Type, bool) {
		if c, ok := r.classes[name]; ok {
			return func() (types.Type, bool) { return c, true }
		}
		if a, ok := r.aliases[name]; ok {
			return func() (types.Type, bool) { return a.Resolve() }
		}
		return nil
	}
}

// File is one workspace file's parsed syntax tree plus its extracted
// annotation blocks, the two inputs Build needs per file.
type File struct {
	Name   string
	Syntax *syntax.File
	Blocks []annotate.Block
}

// Build runs the collect/resolve pass over files and returns the frozen
// Registry plus every diagnostic raised along the way (duplicate
// declarations, cyclic aliases, unresolved parents). Build never returns an
// error for malformed Lua-level input; ioErr, when non-nil, is a
// collaborator-supplied failure (e.g. a file that could not be read before
// reaching Build) that Build wraps with context while preserving the
// original cause, the way the teacher's runtime wraps loader errors.
func Build(files []File, ioErr error) (*Registry, []*diag.Diagnostic, error) {
	if ioErr != nil {
		return nil, nil, errors.Wrap(ioErr, "registry: reading workspace files")
	}

	b := &builder{
		classes: map[string]*classDecl{},
		aliases: map[string]*aliasDecl{},
		enums:   map[string]*enumDecl{},
	}
	b.collect(files)
	b.resolve()

	reg := &Registry{
		classes: map[string]*types.Class{},
		aliases: map[string]*types.Alias{},
	}
	for name, cd := range b.classes {
		reg.classes[name] = cd.resolvedAs
	}
	for name, ed := range b.enums {
		reg.classes[name] = &types.Class{Name: ed.name, Sealed: true}
	}
	for name, ad := range b.aliases {
		v := ad.value
		reg.aliases[name] = &types.Alias{Name: name, Resolve: func() (types.Type, bool) { return v, v != nil }}
	}
	return reg, b.diags, nil
}

type builder struct {
	classes map[string]*classDecl
	aliases map[string]*aliasDecl
	enums   map[string]*enumDecl
	diags   []*diag.Diagnostic
}

func (b *builder) addf(code diag.Code, sp span.Span, format string, args ...interface{}) *diag.Diagnostic {
	d := diag.Newf(code, sp, format, args...)
	b.diags = append(b.diags, d)
	return d
}

// collect is phase 1 (spec §4.3 "Collect"): scan every file's top-level
// class/alias/enum annotations, keyed by declared name, first-wins.
func (b *builder) collect(files []File) {
	// Declarations are collected across the whole file list before methods
	// are attached, so a method declared in one file on a class declared in
	// another resolves regardless of file processing order.
	byStmtPerFile := make([]map[syntax.Stmt]annotate.Block, len(files))
	for i, f := range files {
		byStmt := map[syntax.Stmt]annotate.Block{}
		for _, blk := range f.Blocks {
			if blk.Stmt != nil {
				byStmt[blk.Stmt] = blk
			}
			b.collectBlock(blk)
		}
		byStmtPerFile[i] = byStmt
	}
	for i, f := range files {
		b.collectMethods(f, byStmtPerFile[i])
	}
}

// collectBlock scans blk's records for a @class/@alias/@enum declaration.
// Such a block is not necessarily file-level (blk.Stmt == nil): the common
// LuaCATS idiom documents a module table with the class immediately above
// it (spec §4.3, e.g. "---@class Foo\nlocal M = {}"), so the declaration's
// block attaches to that local statement the same way any other annotation
// would; declareLocals is what gives the local itself the declared type.
func (b *builder) collectBlock(blk annotate.Block) {
	for _, r := range blk.Records {
		switch rec := r.(type) {
		case annotate.ClassAnno:
			b.declClass(rec, blk)
		case annotate.AliasAnno:
			b.declAlias(rec)
		case annotate.EnumAnno:
			b.declEnum(rec)
		}
	}
}

func (b *builder) declClass(rec annotate.ClassAnno, blk annotate.Block) {
	if b.duplicate(rec.Name, rec.Span()) {
		return
	}
	cd := &classDecl{name: rec.Name, exact: rec.Exact, parentName: rec.Parent, span: rec.Span()}
	for _, r := range blk.Records {
		switch rr := r.(type) {
		case annotate.FieldAnno:
			cd.fields = append(cd.fields, rr)
		case annotate.OperatorAnno:
			cd.operators = append(cd.operators, rr)
		}
	}
	b.classes[rec.Name] = cd
}

func (b *builder) declAlias(rec annotate.AliasAnno) {
	if b.duplicate(rec.Name, rec.Span()) {
		return
	}
	b.aliases[rec.Name] = &aliasDecl{name: rec.Name, text: rec.TypeText, span: rec.Span()}
}

func (b *builder) declEnum(rec annotate.EnumAnno) {
	if b.duplicate(rec.Name, rec.Span()) {
		return
	}
	b.enums[rec.Name] = &enumDecl{name: rec.Name, span: rec.Span()}
}

// duplicate reports (and diagnoses) whether name was already declared as a
// class, alias or enum, keeping the first declaration (spec §4.3 "Duplicate
// names issue a diagnostic at the second declaration and keep the first").
func (b *builder) duplicate(name string, sp span.Span) bool {
	var first span.Span
	var have bool
	if cd, ok := b.classes[name]; ok {
		first, have = cd.span, true
	} else if ad, ok := b.aliases[name]; ok {
		first, have = ad.span, true
	} else if ed, ok := b.enums[name]; ok {
		first, have = ed.span, true
	}
	if !have {
		return false
	}
	b.addf(diag.DuplicateDeclaration, sp, "%q is already declared", name).WithRelated(first, "first declared here")
	return true
}

// collectMethods finds `function Class:method(...)` / `function Class.method(...)`
// declarations whose base identifier names a class collected above, and
// records them as pending methods to be lowered during resolve. This is how
// Class.Methods (spec §3 "Class{..., methods, ...}") gets populated, since
// methods are ordinary function declarations elsewhere in the file, not
// part of the @class annotation block itself.
func (b *builder) collectMethods(f File, byStmt map[syntax.Stmt]annotate.Block) {
	if f.Syntax == nil {
		return
	}
	for _, stmt := range f.Syntax.Body {
		fd, ok := stmt.(*syntax.FunctionDeclStmt)
		if !ok || fd.Name.Method == "" {
			continue
		}
		cd, ok := b.classes[fd.Name.Base.Name]
		if !ok {
			continue
		}
		cd.methods = append(cd.methods, methodDecl{
			name:  fd.Name.Method,
			block: byStmt[stmt],
			fn:    fd.Func,
			span:  fd.Span(),
		})
	}
}

// resolve is phase 2 (spec §4.3 "Resolve"): walk each entry resolving Alias
// nodes (cycles become Unknown plus a cycle diagnostic at every participant)
// and Class parents (unknown parent: diagnostic, no inheritance).
func (b *builder) resolve() {
	resolver := &resolverCtx{b: b}
	// Deterministic iteration order keeps diagnostic ordering stable across
	// runs independent of map iteration, even though diag.Bag.Sorted()
	// re-sorts by span at the very end anyway.
	for _, name := range sortedKeys(b.aliases) {
		resolver.resolveAlias(name, nil)
	}
	for _, name := range sortedKeys(b.classes) {
		resolver.resolveClass(name, nil)
	}
}

func sortedKeys(m interface{}) []string {
	var keys []string
	switch mm := m.(type) {
	case map[string]*aliasDecl:
		for k := range mm {
			keys = append(keys, k)
		}
	case map[string]*classDecl:
		for k := range mm {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

type resolverCtx struct {
	b *builder
}

func (c *resolverCtx) resolveAlias(name string, stack []string) types.Type {
	ad, ok := c.b.aliases[name]
	if !ok {
		return nil
	}
	switch ad.status {
	case resolved:
		return ad.value
	case resolving:
		// stack is the chain of aliases currently being resolved, and by
		// construction (aliasResolveFn appends its own name before
		// recursing) always already contains name itself — reporting it
		// again after the loop would double-diagnose the alias that closed
		// the cycle.
		for _, p := range stack {
			c.b.addf(diag.CyclicAlias, c.b.aliases[p].span, "alias %q participates in a cycle", p)
		}
		ad.status = resolved
		ad.value = types.Unknown
		return ad.value
	}
	ad.status = resolving
	t, diags := lower.Lower(ad.text, ad.span, c.aliasResolveFn(stack, name))
	c.b.diags = append(c.b.diags, diags...)
	if ad.status == resolved {
		// A reference further down this same Lower call already looped back
		// to name (the resolving case above fired reentrantly) and fixed
		// ad.value to Unknown; that already-reported cycle result wins over
		// the chain that led into it.
		return ad.value
	}
	ad.status = resolved
	ad.value = t
	return t
}

// aliasResolveFn builds the AliasResolver passed to lower.Lower while
// resolving alias name, threading the in-progress stack so a reference back
// to an ancestor alias is detected as a cycle rather than infinite-looping.
func (c *resolverCtx) aliasResolveFn(stack []string, name string) lower.AliasResolver {
	next := append(append([]string{}, stack...), name)
	return func(ref string) func() (types.Type, bool) {
		if _, ok := c.b.classes[ref]; ok {
			return func() (types.Type, bool) {
				cls, ok := c.b.classes[ref]
				if !ok || cls.resolvedAs == nil {
					return nil, false
				}
				return cls.resolvedAs, true
			}
		}
		if _, ok := c.b.enums[ref]; ok {
			return func() (types.Type, bool) { return &types.Class{Name: ref, Sealed: true}, true }
		}
		if _, ok := c.b.aliases[ref]; !ok {
			return nil
		}
		// Resolve ref now, while name's own "resolving" stack frame is
		// still live, rather than deferring into the *types.Alias.Resolve
		// closure a later consumer (Subsumes, Kind) would call lazily: by
		// then every alias on the chain has already flipped to resolved
		// and a pure mutual cycle (A -> B -> A) would never re-enter the
		// resolving case above, looping or recursing forever instead of
		// being diagnosed.
		t := c.resolveAlias(ref, next)
		return func() (types.Type, bool) { return t, t != nil }
	}
}

func (c *resolverCtx) resolveClass(name string, stack []string) *types.Class {
	cd, ok := c.b.classes[name]
	if !ok {
		return nil
	}
	if cd.status == resolved {
		return cd.resolvedAs
	}
	if cd.status == resolving {
		c.b.addf(diag.CyclicAlias, cd.span, "class %q participates in a parent cycle", name)
		cd.status = resolved
		cd.resolvedAs = &types.Class{Name: name, Sealed: cd.exact}
		return cd.resolvedAs
	}
	cd.status = resolving

	var parent *types.Class
	if cd.parentName != "" {
		if _, ok := c.b.classes[cd.parentName]; ok {
			parent = c.resolveClass(cd.parentName, append(stack, name))
		} else {
			c.b.addf(diag.UnknownName, cd.span, "unknown parent class %q", cd.parentName)
		}
	}

	cls := &types.Class{Name: name, Parent: parent, Sealed: cd.exact}
	cd.resolvedAs = cls // published before fields/methods so self-reference resolves
	cd.status = resolved

	resolve := c.classMemberResolver()
	for _, fa := range cd.fields {
		t, diags := lower.Lower(fa.TypeText, fa.Span(), resolve)
		c.b.diags = append(c.b.diags, diags...)
		if fa.Optional {
			t = types.Optional(t)
		}
		cls.Fields = append(cls.Fields, types.Field{Name: fa.Name, Type: t})
	}
	for _, md := range cd.methods {
		cls.Methods = append(cls.Methods, types.Field{Name: md.name, Type: c.lowerMethodSignature(md, resolve)})
	}
	for _, oa := range cd.operators {
		t, diags := lower.Lower(oa.SignatureText, oa.Span(), resolve)
		c.b.diags = append(c.b.diags, diags...)
		fn, ok := t.(*types.Function)
		if !ok {
			c.b.addf(diag.BadAnnotation, oa.Span(), "@operator %s signature must be a fun(...) type, got %s", oa.Op, t)
			continue
		}
		if cls.Operators == nil {
			cls.Operators = map[string]*types.Function{}
		}
		cls.Operators[oa.Op] = fn
	}
	return cls
}

// classMemberResolver is the AliasResolver used while lowering @field/method
// types: it reaches every class and alias in the registry, without needing
// the in-progress-stack cycle bookkeeping resolveAlias uses for aliases that
// reference each other (field/method types are not part of the alias-cycle
// check; a field of type an not-yet-resolved class resolves lazily via the
// class's own Resolve closure instead).
func (c *resolverCtx) classMemberResolver() lower.AliasResolver {
	return func(ref string) func() (types.Type, bool) {
		if _, ok := c.b.classes[ref]; ok {
			return func() (types.Type, bool) {
				cls := c.resolveClass(ref, nil)
				return cls, cls != nil
			}
		}
		if _, ok := c.b.enums[ref]; ok {
			return func() (types.Type, bool) { return &types.Class{Name: ref, Sealed: true}, true }
		}
		if _, ok := c.b.aliases[ref]; ok {
			return func() (types.Type, bool) {
				t := c.resolveAlias(ref, nil)
				return t, t != nil
			}
		}
		return nil
	}
}

// lowerMethodSignature builds a *types.Function for a method from its
// annotation block's @param/@return records (spec §4.5 "Function typing");
// the implicit receiver (the `self` consumed by `obj:method(...)` call
// syntax) is not itself a Param — the checker supplies it from the call's
// receiver expression, matching how the colon-call desugars in Lua itself.
func (c *resolverCtx) lowerMethodSignature(md methodDecl, resolve lower.AliasResolver) *types.Function {
	fn := &types.Function{Returns: &types.Tuple{}}
	paramTypes := map[string]annotate.ParamAnno{}
	var rets []annotate.ReturnAnno
	for _, r := range md.block.Records {
		switch rec := r.(type) {
		case annotate.ParamAnno:
			paramTypes[rec.Name] = rec
		case annotate.ReturnAnno:
			rets = append(rets, rec)
		case annotate.VarargAnno:
			t, diags := lower.Lower(rec.TypeText, rec.Span(), resolve)
			c.b.diags = append(c.b.diags, diags...)
			fn.Vararg = t
		}
	}
	if md.fn != nil {
		for _, ident := range md.fn.Params {
			pa, ok := paramTypes[ident.Name]
			if !ok {
				fn.Params = append(fn.Params, types.Param{Name: ident.Name, Type: types.Any})
				continue
			}
			t, diags := lower.Lower(pa.TypeText, pa.Span(), resolve)
			c.b.diags = append(c.b.diags, diags...)
			if pa.Optional {
				t = types.Optional(t)
			}
			fn.Params = append(fn.Params, types.Param{Name: pa.Name, Type: t, Optional: pa.Optional})
		}
		if md.fn.Vararg && fn.Vararg == nil {
			fn.Vararg = types.Any
		}
	}
	for _, r := range rets {
		t, diags := lower.Lower(r.TypeText, r.Span(), resolve)
		c.b.diags = append(c.b.diags, diags...)
		fn.Returns.Elems = append(fn.Returns.Elems, t)
	}
	return fn
}
