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

// Package config holds the runtime configuration surface spec §6 names:
// options a workspace/LSP front end is expected to expose, bound here to a
// pflag.FlagSet the way the teacher's cue/build options bind to build
// flags, so an embedding CLI or server never has to know the option names
// by hand.
package config

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/lua-ls/core/internal/types"
)

// Syntax selects the Lua dialect, which controls bitwise operator
// availability and whether a distinct Integer subtype exists at all
// (spec §6 "syntax ∈ {Lua5.1, Lua5.2, Lua5.3, Lua5.4, LuaJIT}").
type Syntax string

const (
	Lua51  Syntax = "Lua5.1"
	Lua52  Syntax = "Lua5.2"
	Lua53  Syntax = "Lua5.3"
	Lua54  Syntax = "Lua5.4"
	LuaJIT Syntax = "LuaJIT"
)

// HasIntegers reports whether this dialect distinguishes Integer from
// Number at all; Lua only gained a native integer subtype in 5.3, and
// LuaJIT's stock number type remains a single float (spec §4.5 scenario
// S5's "(or number if integer disabled by syntax)" note).
func (s Syntax) HasIntegers() bool {
	return s == Lua53 || s == Lua54
}

// Config is the recognised option set of spec §6.
type Config struct {
	Syntax              Syntax
	CastNumberToInteger bool
	WeakUnionCheck      bool
	WeakNilCheck        bool
	InferParamType      bool
	CheckTableShape     bool
	InferTableSize      int
	// Budget bounds per-file checking wall-clock time (spec §5 "A per-file
	// wall-clock budget (default 200 ms) bounds unification depth").
	Budget time.Duration

	// syntaxPtr is set by RegisterFlags so ApplyFlags can read the bound
	// string flag value back into the typed Syntax field after fs.Parse.
	syntaxPtr *string
}

// Default returns the spec's documented defaults: strict v1 subtyping,
// Lua 5.4 dialect, a 200ms budget, and a 200-element array-constructor
// inference cap.
func Default() *Config {
	return &Config{
		Syntax:         Lua54,
		InferTableSize: 200,
		Budget:         200 * time.Millisecond,
	}
}

// RegisterFlags binds every option above to fs, so an embedding CLI can
// expose them as ordinary flags without depending on this package's field
// names directly.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	var syntax string
	fs.StringVar(&syntax, "syntax", string(c.Syntax), "Lua dialect: Lua5.1, Lua5.2, Lua5.3, Lua5.4, LuaJIT")
	fs.BoolVar(&c.CastNumberToInteger, "cast-number-to-integer", c.CastNumberToInteger, "allow Number where Integer is expected")
	fs.BoolVar(&c.WeakUnionCheck, "weak-union-check", c.WeakUnionCheck, "accept a value compatible with any union disjunct, not just full containment")
	fs.BoolVar(&c.WeakNilCheck, "weak-nil-check", c.WeakNilCheck, "silently accept assignment from T? to T")
	fs.BoolVar(&c.InferParamType, "infer-param-type", c.InferParamType, "infer unannotated parameter types instead of defaulting to any")
	fs.BoolVar(&c.CheckTableShape, "check-table-shape", c.CheckTableShape, "check sealed-record field writes on open records with an inferred class")
	fs.IntVar(&c.InferTableSize, "infer-table-size", c.InferTableSize, "max array-constructor elements scanned for the element-type union")
	fs.DurationVar(&c.Budget, "budget", c.Budget, "per-file checking wall-clock budget")
	c.syntaxPtr = &syntax
}

// ApplyFlags copies back the string-typed syntax flag registered by
// RegisterFlags into c.Syntax. Call it after fs.Parse(args).
func (c *Config) ApplyFlags() {
	if c.syntaxPtr != nil {
		c.Syntax = Syntax(*c.syntaxPtr)
	}
}

// TypeOptions projects the subset of Config that internal/types' subtyping
// relation (types.Subsumes) consumes.
func (c *Config) TypeOptions() types.Options {
	return types.Options{
		CastNumberToInteger: c.CastNumberToInteger,
		WeakUnionCheck:      c.WeakUnionCheck,
		WeakNilCheck:        c.WeakNilCheck,
	}
}
