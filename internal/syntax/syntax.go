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

// Package syntax defines the external collaborator contract named in spec
// §6: "a parsed syntax tree per file, with per-node source spans, leading
// and trailing comment trivia preserved verbatim, and a typed variant for
// each Lua construct sufficient to distinguish the forms listed in §4".
//
// This module does not implement a Lua parser (that is an explicit
// non-goal, spec §1); the node set below is the shape a real parser is
// expected to hand the core. internal/syntax/synthetic offers a small
// builder this module's own tests use to construct trees directly.
package syntax

import "github.com/lua-ls/core/internal/span"

// Node is implemented by every syntax tree element that carries a span.
type Node interface {
	Span() span.Span
}

// loc is embedded by every concrete node to supply Span().
type loc struct{ Sp span.Span }

func (l loc) Span() span.Span { return l.Sp }

// Comment is one `--...` or `--[[...]]` comment.
type Comment struct {
	loc
	Text  string // content with the leading "--"/"--[[" and trailing "]]" stripped
	Block bool   // true for --[[ ]] long comments
	Line  int    // 1-based source line the comment starts on
}

// CommentGroup is a maximal run of comments with no non-comment token
// between them; the Annotation Extractor (spec §4.1) merges *adjacent*
// annotation comments across blank lines into a single annotation block,
// but a CommentGroup here is only ever the parser's own grouping (typically
// one comment per group for line comments).
type CommentGroup struct {
	loc
	List []*Comment
}

// File is the root of one parsed source file.
type File struct {
	loc
	Name     string
	Comments []*CommentGroup // every comment in the file, source order
	Body     []Stmt
}

// ---- Statements ----

// Stmt is implemented by every statement form.
type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct{ loc }

func (stmtBase) stmtNode() {}

// LocalStmt is `local a, b <attrib> = e1, e2`.
type LocalStmt struct {
	stmtBase
	Names   []*Ident
	Attribs []string // parallel to Names; "" if no <attrib>, else "const"/"close"
	Values  []Expr
}

// AssignStmt is `a, b = e1, e2` (targets are Ident/IndexExpr/FieldExpr).
type AssignStmt struct {
	stmtBase
	Targets []Expr
	Values  []Expr
}

// IfStmt is `if c then ... elseif c2 then ... else ... end`.
type IfStmt struct {
	stmtBase
	Cond   Expr
	Then   []Stmt
	ElseIf []ElseIfClause
	Else   []Stmt // nil if no else branch
}

type ElseIfClause struct {
	Cond Expr
	Body []Stmt
}

// WhileStmt is `while c do ... end`.
type WhileStmt struct {
	stmtBase
	Cond Expr
	Body []Stmt
}

// RepeatStmt is `repeat ... until c`. Note the condition can see locals
// declared in Body (spec §4.4 "Loops").
type RepeatStmt struct {
	stmtBase
	Body []Stmt
	Cond Expr
}

// NumericForStmt is `for i = start, stop[, step] do ... end`.
type NumericForStmt struct {
	stmtBase
	Var   *Ident
	Start Expr
	Stop  Expr
	Step  Expr // nil if omitted
	Body  []Stmt
}

// GenericForStmt is `for k, v in iter(...) do ... end`.
type GenericForStmt struct {
	stmtBase
	Names []*Ident
	Exprs []Expr
	Body  []Stmt
}

// DoStmt is a bare `do ... end` block, introducing its own scope.
type DoStmt struct {
	stmtBase
	Body []Stmt
}

// FuncName is the (possibly dotted, possibly method) name on the left of a
// `function a.b:c(...) ... end` declaration.
type FuncName struct {
	Base     *Ident
	Path     []string // dotted path segments after Base, e.g. {"b"}
	Method   string   // non-empty for `:c` method declarations
}

// FunctionDeclStmt is `[local] function name(...) ... end`.
type FunctionDeclStmt struct {
	stmtBase
	Name  FuncName
	Local bool
	Func  *FunctionExpr
}

// ReturnStmt is `return e1, e2`.
type ReturnStmt struct {
	stmtBase
	Values []Expr
}

// BreakStmt is `break`.
type BreakStmt struct{ stmtBase }

// CallStmt is a bare call used as a statement, e.g. `f(x)` or `obj:m()`.
type CallStmt struct {
	stmtBase
	Call *CallExpr
}

// ---- Expressions ----

// Expr is implemented by every expression form.
type Expr interface {
	Node
	exprNode()
}

type exprBase struct{ loc }

func (exprBase) exprNode() {}

type NilLit struct{ exprBase }
type TrueLit struct{ exprBase }
type FalseLit struct{ exprBase }
type VarargExpr struct{ exprBase }

// NumberLit preserves the exact lexical form (spec §4.5 distinguishes
// Integer from Number based on the literal's written form).
type NumberLit struct {
	exprBase
	Text string
}

type StringLit struct {
	exprBase
	Value string
}

type Ident struct {
	exprBase
	Name string
}

type BinaryExpr struct {
	exprBase
	Op   string // "+","-","*","/","//","%","^","..","==","~=","<","<=",">",">=","and","or"
	X, Y Expr
}

type UnaryExpr struct {
	exprBase
	Op string // "-","not","#"
	X  Expr
}

type ParenExpr struct {
	exprBase
	X Expr
}

type FunctionExpr struct {
	exprBase
	Params []*Ident
	Vararg bool
	Body   []Stmt
}

// CallExpr is `fn(args)` or, when Method != "", `recv:Method(args)`.
type CallExpr struct {
	exprBase
	Fn     Expr
	Method string
	Args   []Expr
}

// IndexExpr is `x[i]`.
type IndexExpr struct {
	exprBase
	X     Expr
	Index Expr
}

// FieldExpr is `x.name`.
type FieldExpr struct {
	exprBase
	X    Expr
	Name string
}

// TableField is one entry of a table constructor: exactly one of Key,
// Name is set for a keyed/named entry; both nil for a positional entry.
type TableField struct {
	Key   Expr // `[k] = v` form
	Name  string
	Value Expr
}

type TableExpr struct {
	exprBase
	Fields []TableField
}
