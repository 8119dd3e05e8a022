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

// Command luacheck is a thin smoke-test harness over the core pipeline: it
// scans one file's comment trivia for LuaCATS annotations, lowers and
// registers the @class/@alias/@enum declarations it finds, and prints the
// resulting registry plus any diagnostics raised along the way.
//
// It is not the project's LSP front end: it has no workspace discovery, no
// .gitignore handling, no transport, and (having no real Lua statement
// parser to hand it, a collaborator this module deliberately treats as
// external) no Binder/Checker pass over a file's executable statements. It
// exists to let a developer point the core at a real .lua file and see the
// annotation pipeline's output without standing up an editor.
package main

import (
	"fmt"
	"os"

	"github.com/lua-ls/core/cmd/luacheck/cmd"
)

func main() {
	if err := cmd.NewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
