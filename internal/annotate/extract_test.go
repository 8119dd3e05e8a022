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

package annotate_test

import (
	"testing"

	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/syntax"
	"github.com/lua-ls/core/internal/syntax/synthetic"
)

func TestExtractClassFieldAssociatesWithFollowingStatement(t *testing.T) {
	text := "---@class (exact) Point : Shape\n---@field x number\n---@field y? number\nlocal p = {}\n"
	src := synthetic.NewSource("t.lua", text)
	localStmt := &syntax.LocalStmt{Names: []*syntax.Ident{src.Ident("p", 0)}}
	localStmt.Sp = src.Span("local p = {}", 0)
	file := src.File2([]syntax.Stmt{localStmt})

	result := annotate.Extract(file)
	if len(result.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", result.Diags)
	}
	if len(result.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(result.Blocks))
	}
	blk := result.Blocks[0]
	if blk.Stmt != localStmt {
		t.Fatalf("block attached to %v, want the local statement", blk.Stmt)
	}
	if len(blk.Records) != 3 {
		t.Fatalf("got %d records, want 3 (class, field x, field y)", len(blk.Records))
	}

	class, ok := blk.Records[0].(annotate.ClassAnno)
	if !ok {
		t.Fatalf("records[0] = %T, want ClassAnno", blk.Records[0])
	}
	if class.Name != "Point" || !class.Exact || class.Parent != "Shape" {
		t.Fatalf("unexpected ClassAnno: %+v", class)
	}

	fx, ok := blk.Records[1].(annotate.FieldAnno)
	if !ok {
		t.Fatalf("records[1] = %T, want FieldAnno", blk.Records[1])
	}
	if fx.Name != "x" || fx.Optional || fx.TypeText != "number" {
		t.Fatalf("unexpected field x: %+v", fx)
	}

	fy, ok := blk.Records[2].(annotate.FieldAnno)
	if !ok {
		t.Fatalf("records[2] = %T, want FieldAnno", blk.Records[2])
	}
	if fy.Name != "y" || !fy.Optional {
		t.Fatalf("unexpected field y: %+v", fy)
	}
}

func TestExtractBlockWithNoFollowingStatementAttachesToFile(t *testing.T) {
	text := "---@alias Id string\n"
	src := synthetic.NewSource("t.lua", text)
	file := src.File2(nil)

	result := annotate.Extract(file)
	if len(result.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(result.Blocks))
	}
	if result.Blocks[0].Stmt != nil {
		t.Fatalf("expected a file-level block (nil Stmt), got %v", result.Blocks[0].Stmt)
	}
	alias, ok := result.Blocks[0].Records[0].(annotate.AliasAnno)
	if !ok || alias.Name != "Id" || alias.TypeText != "string" {
		t.Fatalf("unexpected alias record: %+v (ok=%v)", result.Blocks[0].Records[0], ok)
	}
}

func TestExtractStatementBeforeCommentTerminatesPriorBlock(t *testing.T) {
	// The ---@type belongs to nothing (it trails after "local a = 1" on
	// its own, with the next statement "local b = 2" starting on a later
	// line) and must attach to "local b = 2", never to "local a = 1" which
	// already closed before the comment appeared.
	text := "local a = 1\n---@type number\nlocal b = 2\n"
	src := synthetic.NewSource("t.lua", text)
	a := &syntax.LocalStmt{Names: []*syntax.Ident{src.Ident("a", 0)}, Values: []syntax.Expr{src.Number("1", 0)}}
	a.Sp = src.Span("local a = 1", 0)
	b := &syntax.LocalStmt{Names: []*syntax.Ident{src.Ident("b", 0)}, Values: []syntax.Expr{src.Number("2", 0)}}
	b.Sp = src.Span("local b = 2", 0)
	file := src.File2([]syntax.Stmt{a, b})

	result := annotate.Extract(file)
	if len(result.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(result.Blocks))
	}
	if result.Blocks[0].Stmt != b {
		t.Fatalf("block attached to %v, want statement b", result.Blocks[0].Stmt)
	}
}

func TestExtractCastVariants(t *testing.T) {
	text := "---@cast x string\n---@cast y +number\n---@cast z -nil\n---@cast w -?\nlocal p = {}\n"
	src := synthetic.NewSource("t.lua", text)
	p := &syntax.LocalStmt{Names: []*syntax.Ident{src.Ident("p", 0)}}
	p.Sp = src.Span("local p = {}", 0)
	file := src.File2([]syntax.Stmt{p})

	result := annotate.Extract(file)
	if len(result.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", result.Diags)
	}
	blk := result.Blocks[0]
	if len(blk.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(blk.Records))
	}
	wantKinds := []annotate.CastKind{annotate.CastReplace, annotate.CastAdd, annotate.CastRemove, annotate.CastRemoveNil}
	for i, want := range wantKinds {
		c, ok := blk.Records[i].(annotate.CastAnno)
		if !ok {
			t.Fatalf("records[%d] = %T, want CastAnno", i, blk.Records[i])
		}
		if c.Kind != want {
			t.Errorf("records[%d].Kind = %v, want %v", i, c.Kind, want)
		}
	}
}

func TestExtractDiagnosticDirective(t *testing.T) {
	text := "---@diagnostic disable=unknown-name,cast-type-mismatch\nlocal x = 1\n"
	src := synthetic.NewSource("t.lua", text)
	x := &syntax.LocalStmt{Names: []*syntax.Ident{src.Ident("x", 0)}, Values: []syntax.Expr{src.Number("1", 0)}}
	x.Sp = src.Span("local x = 1", 0)
	file := src.File2([]syntax.Stmt{x})

	result := annotate.Extract(file)
	d, ok := result.Blocks[0].Records[0].(annotate.DiagnosticAnno)
	if !ok {
		t.Fatalf("records[0] = %T, want DiagnosticAnno", result.Blocks[0].Records[0])
	}
	if d.Action != annotate.DiagDisable {
		t.Fatalf("Action = %v, want disable", d.Action)
	}
	if len(d.Codes) != 2 || d.Codes[0] != "unknown-name" || d.Codes[1] != "cast-type-mismatch" {
		t.Fatalf("unexpected codes: %v", d.Codes)
	}
}

func TestExtractUnrecognisedDirectiveProducesBadAnnoAndDiagnostic(t *testing.T) {
	text := "---@bogus whatever\nlocal x = 1\n"
	src := synthetic.NewSource("t.lua", text)
	x := &syntax.LocalStmt{Names: []*syntax.Ident{src.Ident("x", 0)}, Values: []syntax.Expr{src.Number("1", 0)}}
	x.Sp = src.Span("local x = 1", 0)
	file := src.File2([]syntax.Stmt{x})

	result := annotate.Extract(file)
	if len(result.Diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(result.Diags))
	}
	bad, ok := result.Blocks[0].Records[0].(annotate.BadAnno)
	if !ok || bad.Directive != "bogus" {
		t.Fatalf("unexpected record: %+v (ok=%v)", result.Blocks[0].Records[0], ok)
	}
}

func TestExtractOrdinaryCommentDoesNotBreakBlock(t *testing.T) {
	text := "---@type number\n-- just a remark\nlocal x = 1\n"
	src := synthetic.NewSource("t.lua", text)
	x := &syntax.LocalStmt{Names: []*syntax.Ident{src.Ident("x", 0)}, Values: []syntax.Expr{src.Number("1", 0)}}
	x.Sp = src.Span("local x = 1", 0)
	file := src.File2([]syntax.Stmt{x})

	result := annotate.Extract(file)
	if len(result.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1 (ordinary comment must not split the block)", len(result.Blocks))
	}
	if len(result.Blocks[0].Records) != 1 {
		t.Fatalf("got %d records, want 1", len(result.Blocks[0].Records))
	}
}
