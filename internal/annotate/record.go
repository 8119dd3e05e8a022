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

// Package annotate implements the Annotation Extractor (spec §4.1): it
// walks comment trivia, recognises LuaCATS triple-dash directives and
// parses each into a typed AnnotationRecord, associated with the statement
// or file it documents.
package annotate

import (
	"github.com/lua-ls/core/internal/span"
	"github.com/lua-ls/core/internal/syntax"
)

// Record is implemented by every recognised directive's parsed form. Each
// carries the exact source span of the comment that produced it (spec
// §4.1 "Contract").
type Record interface {
	Span() span.Span
	annotationNode()
}

type recBase struct{ Sp span.Span }

func (r recBase) Span() span.Span { return r.Sp }
func (recBase) annotationNode()   {}

// TypeAnno is `---@type T`.
type TypeAnno struct {
	recBase
	TypeText string
}

// ParamAnno is `---@param name[?] T [desc]`.
type ParamAnno struct {
	recBase
	Name     string
	Optional bool
	TypeText string
	Desc     string
}

// ReturnAnno is `---@return T [name] [desc]`.
type ReturnAnno struct {
	recBase
	TypeText string
	Name     string
	Desc     string
}

// ClassAnno is `---@class [(exact)] Name [: Parent]`.
type ClassAnno struct {
	recBase
	Name   string
	Exact  bool
	Parent string // "" if none
}

// FieldAnno is `---@field [scope] name[?] T [desc]`.
type FieldAnno struct {
	recBase
	Scope    string // "", "private", "protected", "package"
	Name     string
	Optional bool
	TypeText string
	Desc     string
}

// AliasAnno is `---@alias Name T`.
type AliasAnno struct {
	recBase
	Name     string
	TypeText string
}

// EnumAnno is `---@enum Name`.
type EnumAnno struct {
	recBase
	Name string
}

// GenericAnno is `---@generic T[, U...]`.
type GenericAnno struct {
	recBase
	Names []string
}

// OverloadAnno is `---@overload fun(...): ...`; SignatureText is lowered
// by internal/lower into a Function type.
type OverloadAnno struct {
	recBase
	SignatureText string
}

// CastKind distinguishes the four forms of ---@cast spec (T, +T, -T, -?).
type CastKind int

const (
	CastReplace  CastKind = iota // name T
	CastAdd                      // name +T
	CastRemove                   // name -T
	CastRemoveNil                // name -?
)

// CastAnno is `---@cast name (T|+T|-T|-?)`.
type CastAnno struct {
	recBase
	Name     string
	Kind     CastKind
	TypeText string // empty for CastRemoveNil
}

// OperatorAnno is `---@operator op: fun(self, rhs: T): U`.
type OperatorAnno struct {
	recBase
	Op            string
	SignatureText string
}

// VarargAnno is `---@vararg T`.
type VarargAnno struct {
	recBase
	TypeText string
}

// NodiscardAnno is `---@nodiscard`.
type NodiscardAnno struct{ recBase }

// DeprecatedAnno is `---@deprecated [msg]`.
type DeprecatedAnno struct {
	recBase
	Message string
}

// VisibilityAnno is `---@private`/`---@protected`/`---@package`.
type VisibilityAnno struct {
	recBase
	Kind string
}

// DiagnosticAction is the action of a ---@diagnostic directive.
type DiagnosticAction string

const (
	DiagDisable DiagnosticAction = "disable"
	DiagEnable  DiagnosticAction = "enable"
	DiagPush    DiagnosticAction = "push"
	DiagPop     DiagnosticAction = "pop"
)

// DiagnosticAnno is `---@diagnostic (disable|enable|push|pop)[=id,...]`.
type DiagnosticAnno struct {
	recBase
	Action DiagnosticAction
	Codes  []string
}

// InlineAsAnno is the inline `--[[@as T]]` cast comment.
type InlineAsAnno struct {
	recBase
	TypeText string
}

// BadAnno records a directive whose tail failed to parse. Extraction keeps
// going after one of these (spec §4.1 "Failures ... do not halt extraction
// of following directives").
type BadAnno struct {
	recBase
	Directive string
	Reason    string
}

// Block is one annotation block (spec §4.1 "Association algorithm") plus
// the node it documents: Stmt is nil when the block is attached to the
// file itself (top-level standalone class/alias/enum declarations).
type Block struct {
	Stmt    syntax.Stmt
	Records []Record
}
