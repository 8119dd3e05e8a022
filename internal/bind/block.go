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

package bind

import "github.com/lua-ls/core/internal/syntax"

// BlockKind names why a Block exists, i.e. which Lua construct introduced
// it (spec §4.4 "Each do/while/for/repeat/function body introduces a
// scope").
type BlockKind int

const (
	BlockChunk BlockKind = iota
	BlockFunction
	BlockDo
	BlockThen
	BlockElseIf
	BlockElse
	BlockWhile
	BlockRepeat
	BlockNumericFor
	BlockGenericFor
)

// Block is one node of the block-tree: a straight-line run of statements
// plus the nested blocks that branch or loop out of it. Branch children
// (Then/ElseIf/Else) are ordinary forward edges; loop children additionally
// set LoopBack to mark the back-edge the checker's loop fixed-point join
// (spec §4.5 "Loops") iterates over.
type Block struct {
	Kind     BlockKind
	Scope    *Scope // the scope this block introduces, nil if it reuses its parent's
	Stmts    []syntax.Stmt
	Children []*Block
	LoopBack bool
	// Cond is the branching/loop condition, nil for blocks that are not
	// conditional (BlockChunk, BlockFunction, BlockDo).
	Cond syntax.Expr
}

// buildBlock walks a statement list depth-first, creating a child Block for
// every nested control-flow construct and leaving everything else (locals,
// assignments, calls, returns, breaks) in Stmts for the checker to type
// in order.
func (b *Binder) buildBlock(kind BlockKind, scope *Scope, stmts []syntax.Stmt) *Block {
	blk := &Block{Kind: kind, Scope: scope}
	for _, st := range stmts {
		switch s := st.(type) {
		case *syntax.IfStmt:
			blk.Stmts = append(blk.Stmts, st)
			then := b.buildBlock(BlockThen, newScope(scope), s.Then)
			then.Cond = s.Cond
			blk.Children = append(blk.Children, then)
			for _, ei := range s.ElseIf {
				c := b.buildBlock(BlockElseIf, newScope(scope), ei.Body)
				c.Cond = ei.Cond
				blk.Children = append(blk.Children, c)
			}
			if s.Else != nil {
				blk.Children = append(blk.Children, b.buildBlock(BlockElse, newScope(scope), s.Else))
			}
		case *syntax.WhileStmt:
			blk.Stmts = append(blk.Stmts, st)
			body := b.buildBlock(BlockWhile, newScope(scope), s.Body)
			body.Cond = s.Cond
			body.LoopBack = true
			blk.Children = append(blk.Children, body)
		case *syntax.RepeatStmt:
			blk.Stmts = append(blk.Stmts, st)
			// repeat's own scope is visible to Cond too (spec §4.4 "the
			// condition can see body locals"), so Cond is attached to the
			// same Block rather than evaluated in the parent scope.
			body := b.buildBlock(BlockRepeat, newScope(scope), s.Body)
			body.Cond = s.Cond
			body.LoopBack = true
			blk.Children = append(blk.Children, body)
		case *syntax.NumericForStmt:
			blk.Stmts = append(blk.Stmts, st)
			loopScope := newScope(scope)
			loopScope.Declare(&Symbol{Name: s.Var.Name, Kind: SymForVar, Declared: nil, DeclSpan: s.Var.Span()})
			body := b.buildBlock(BlockNumericFor, loopScope, s.Body)
			body.LoopBack = true
			blk.Children = append(blk.Children, body)
		case *syntax.GenericForStmt:
			blk.Stmts = append(blk.Stmts, st)
			loopScope := newScope(scope)
			for _, n := range s.Names {
				loopScope.Declare(&Symbol{Name: n.Name, Kind: SymForVar, DeclSpan: n.Span()})
			}
			body := b.buildBlock(BlockGenericFor, loopScope, s.Body)
			body.LoopBack = true
			blk.Children = append(blk.Children, body)
		case *syntax.DoStmt:
			blk.Stmts = append(blk.Stmts, st)
			blk.Children = append(blk.Children, b.buildBlock(BlockDo, newScope(scope), s.Body))
		case *syntax.LocalStmt:
			blk.Stmts = append(blk.Stmts, st)
			b.declareLocals(scope, s)
			b.collectNestedFuncs(scope, st, s.Values...)
		case *syntax.AssignStmt:
			blk.Stmts = append(blk.Stmts, st)
			for _, tgt := range s.Targets {
				if id, ok := tgt.(*syntax.Ident); ok {
					b.Resolve(scope, id.Name)
				}
			}
			b.collectNestedFuncs(scope, st, s.Values...)
		case *syntax.FunctionDeclStmt:
			blk.Stmts = append(blk.Stmts, st)
			b.declareFunctionName(scope, s)
			b.bindFunction(s.Func, scope, st)
		case *syntax.ReturnStmt:
			blk.Stmts = append(blk.Stmts, st)
			b.collectNestedFuncs(scope, st, s.Values...)
		case *syntax.CallStmt:
			blk.Stmts = append(blk.Stmts, st)
			b.collectNestedFuncs(scope, st, s.Call)
		default:
			blk.Stmts = append(blk.Stmts, st)
		}
	}
	return blk
}
