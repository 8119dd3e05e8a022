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

// Package cmd wires the luacheck demonstration command, modelled on the
// teacher's cmd/cue-cmd/cmd.NewCommand: a single cobra.Command built once by
// the caller's main, flags bound directly to a shared options struct rather
// than looked up by name at run time.
package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lua-ls/core/config"
	"github.com/lua-ls/core/internal/annotate"
	"github.com/lua-ls/core/internal/diag"
	"github.com/lua-ls/core/internal/registry"
	"github.com/lua-ls/core/internal/syntax/synthetic"
	"github.com/lua-ls/core/internal/types"
)

// NewCommand builds the root luacheck command.
func NewCommand() *cobra.Command {
	cfg := config.Default()

	root := &cobra.Command{
		Use:   "luacheck <file.lua>",
		Short: "Scan a Lua file's LuaCATS annotations and print the resulting type registry",
		Long: `luacheck extracts ---@... annotations from a single Lua file, lowers its
@class/@alias/@enum declarations into the type registry, and reports any
diagnostic raised while doing so.

It is a demonstration harness for the annotation pipeline, not the project's
language server: it does not discover a workspace, does not honour
.gitignore, and does not speak any editor transport.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg.ApplyFlags()
			return run(args[0], cfg)
		},
	}
	cfg.RegisterFlags(root.Flags())
	return root
}

func run(path string, cfg *config.Config) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("luacheck: %w", err)
	}

	fmt.Printf("%s: dialect %s (budget %s)\n", path, cfg.Syntax, cfg.Budget)

	src := synthetic.NewSource(path, string(text))
	src.ScanComments()
	file := src.File2(nil)

	extracted := annotate.Extract(file)

	reg, regDiags, err := registry.Build([]registry.File{{
		Name:   path,
		Syntax: file,
		Blocks: extracted.Blocks,
	}}, nil)
	if err != nil {
		return fmt.Errorf("luacheck: %w", err)
	}

	bag := diag.NewBag()
	for _, d := range extracted.Diags {
		bag.Add(d)
	}
	for _, d := range regDiags {
		bag.Add(d)
	}

	printRegistry(path, reg, declaredNames(extracted.Blocks))
	printDiagnostics(path, bag.Sorted())
	return nil
}

// declaredNames collects every name introduced by a @class, @alias or
// @enum directive, in source order; Registry itself deliberately exposes
// no enumeration method (spec §4.3 names only per-name lookups as its
// public contract), so the names to look up have to come from the same
// extraction pass that fed the registry.
func declaredNames(blocks []annotate.Block) []string {
	var names []string
	for _, blk := range blocks {
		for _, r := range blk.Records {
			switch rec := r.(type) {
			case annotate.ClassAnno:
				names = append(names, rec.Name)
			case annotate.AliasAnno:
				names = append(names, rec.Name)
			case annotate.EnumAnno:
				names = append(names, rec.Name)
			}
		}
	}
	return names
}

func printRegistry(path string, reg *registry.Registry, names []string) {
	if len(names) == 0 {
		fmt.Printf("%s: no @class/@alias/@enum declarations found\n", path)
		return
	}
	sort.Strings(names)
	for _, name := range names {
		if cls, ok := reg.Class(name); ok {
			fmt.Printf("%s: class %s\n", path, types.Pretty(cls))
			continue
		}
		if a, ok := reg.Alias(name); ok {
			if t, ok := a.Resolve(); ok {
				fmt.Printf("%s: alias %s = %s\n", path, name, types.Pretty(t))
				continue
			}
		}
		fmt.Printf("%s: %s did not resolve\n", path, name)
	}
}

func printDiagnostics(path string, diags []*diag.Diagnostic) {
	for _, d := range diags {
		fmt.Printf("%s:%s: %s: %s\n", path, d.Span, d.Code, d.Message)
	}
	if len(diags) == 0 {
		fmt.Printf("%s: no diagnostics\n", path)
	}
}
