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

// Package diag implements the closed diagnostic taxonomy of the checker and
// an accumulator that keeps emission order deterministic, modelled on the
// teacher's cue/errors accumulate-and-continue discipline: a pass never
// stops at the first error, it records one and keeps going.
package diag

import (
	"fmt"
	"sort"

	"github.com/lua-ls/core/internal/span"
)

// Code is one member of the closed diagnostic taxonomy (spec §7).
type Code string

const (
	AssignTypeMismatch   Code = "assign-type-mismatch"
	ParamTypeMismatch    Code = "param-type-mismatch"
	ReturnTypeMismatch   Code = "return-type-mismatch"
	FieldTypeMismatch    Code = "field-type-mismatch"
	CastTypeMismatch     Code = "cast-type-mismatch"
	UnknownName          Code = "unknown-name"
	OverloadNoMatch      Code = "overload-no-match"
	OverloadAmbiguous    Code = "overload-ambiguous"
	DuplicateDeclaration Code = "duplicate-declaration"
	CyclicAlias          Code = "cyclic-alias"
	TypeckBudgetExceeded Code = "typeck-budget-exceeded"

	// BadAnnotation is not part of the frozen v1 wire taxonomy of spec §7,
	// but the extractor (§4.1) needs a code for a malformed directive tail
	// that does not fit any of the above; it is surfaced at Warning
	// severity so it never fails a build on its own.
	BadAnnotation Code = "bad-annotation"
)

// Severity mirrors the LSP DiagnosticSeverity enum named in spec §6.
type Severity int

const (
	Error Severity = iota + 1
	Warning
	Information
	Hint
)

// Related is a secondary span attached to a Diagnostic, e.g. the location
// of a conflicting overload candidate or the other participant in a cycle.
type Related struct {
	Span    span.Span
	Message string
}

// Diagnostic is the wire shape described in spec §6/§7.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Span     span.Span
	Message  string
	Related  []Related
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Code, d.Message)
}

// Newf builds a Diagnostic at Error severity with a formatted message.
func Newf(code Code, sp span.Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Severity: Error, Span: sp, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a Diagnostic at Warning severity.
func Warnf(code Code, sp span.Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Severity: Warning, Span: sp, Message: fmt.Sprintf(format, args...)}
}

// WithRelated appends a related span and returns d for chaining.
func (d *Diagnostic) WithRelated(sp span.Span, format string, args ...interface{}) *Diagnostic {
	d.Related = append(d.Related, Related{Span: sp, Message: fmt.Sprintf(format, args...)})
	return d
}

// Bag accumulates diagnostics across a pass (or several passes over the same
// file) and can suppress codes, honouring ---@diagnostic disable/enable and
// push/pop scoping (spec §7). It is intentionally not safe for concurrent
// writes from multiple goroutines: one Bag belongs to one single-threaded
// check of one file, matching the pure-function contract of spec §5.
type Bag struct {
	diags      []*Diagnostic
	suppressed []map[Code]bool // stack of active suppression sets, for push/pop
}

// NewBag returns an empty Bag with the base (file-level) suppression scope.
func NewBag() *Bag {
	return &Bag{suppressed: []map[Code]bool{{}}}
}

// Add records d unless its code is currently suppressed.
func (b *Bag) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	if b.isSuppressed(d.Code) {
		return
	}
	b.diags = append(b.diags, d)
}

// Disable suppresses code in the current scope.
func (b *Bag) Disable(code Code) {
	top := b.suppressed[len(b.suppressed)-1]
	top[code] = true
}

// Enable un-suppresses code in the current scope.
func (b *Bag) Enable(code Code) {
	top := b.suppressed[len(b.suppressed)-1]
	delete(top, code)
}

// Push opens a new nested suppression scope, inheriting the current one.
func (b *Bag) Push() {
	top := b.suppressed[len(b.suppressed)-1]
	next := make(map[Code]bool, len(top))
	for k, v := range top {
		next[k] = v
	}
	b.suppressed = append(b.suppressed, next)
}

// Pop closes the most recently pushed suppression scope. Popping the base
// scope is a no-op: an unbalanced pop must not panic on malformed source.
func (b *Bag) Pop() {
	if len(b.suppressed) > 1 {
		b.suppressed = b.suppressed[:len(b.suppressed)-1]
	}
}

func (b *Bag) isSuppressed(code Code) bool {
	return b.suppressed[len(b.suppressed)-1][code]
}

// Sorted returns the accumulated diagnostics ordered by start span and then
// by code, the ordering guarantee required by spec §5/§8.
func (b *Bag) Sorted() []*Diagnostic {
	out := make([]*Diagnostic, len(b.diags))
	copy(out, b.diags)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Span, out[j].Span
		if si.Start != sj.Start {
			return si.Start < sj.Start
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Len reports the number of diagnostics recorded so far, ignoring order.
func (b *Bag) Len() int { return len(b.diags) }
