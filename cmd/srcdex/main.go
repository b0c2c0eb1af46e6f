// Copyright 2025 The Srcdex Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the srcdex CLI for ingesting extracted source
// packages and querying the content index.
//
// Usage:
//
//	srcdex init                       Create .srcdex/config.yaml and the index
//	srcdex ingest <pkg/ver> ...       Hash and index package versions
//	srcdex search <sha256> [--json]   Find packages carrying a file content
//	srcdex status [--json]            Show index statistics
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/srcdex/srcdex/internal/config"
	"github.com/srcdex/srcdex/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags carries the flags every command respects.
type GlobalFlags struct {
	ConfigPath string
	Quiet      bool
	NoColor    bool
}

// main parses global flags and dispatches to command handlers.
//
// Global flags:
//   - --version: display version information and exit
//   - --config: path to .srcdex/config.yaml
//   - --quiet: suppress progress output
//   - --no-color: disable colored output
//
// Commands:
//   - init: create configuration and the index database
//   - ingest: hash and index extracted package versions
//   - remove: drop package versions from the index
//   - search: find packages by file content checksum
//   - resolve: locate a package path on disk
//   - ls: list versions of a package or a directory inside one
//   - status: show index statistics
//   - reset: delete the index database (destructive!)
func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .srcdex/config.yaml (default: ./.srcdex/config.yaml)")
		quiet       = flag.Bool("quiet", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `srcdex - source package content index

srcdex ingests extracted source packages, records a SHA256 checksum for
every file they carry, and answers content-addressed queries: which
packages ship a file with this hash, and where does a package path live
on disk.

Usage:
  srcdex <command> [options]

Commands:
  init          Create .srcdex/config.yaml and the index database
  ingest        Hash and index extracted package versions
  remove        Drop package versions from the index
  search        Find packages by file content checksum
  resolve       Locate a package path on disk
  ls            List versions of a package, or a directory inside one
  status        Show index statistics
  reset         Delete the index database (destructive!)

Global Options:
  --config      Path to .srcdex/config.yaml
  --quiet       Suppress progress output
  --no-color    Disable colored output
  --version     Show version and exit

Examples:
  srcdex init --data-dir /srv/srcdex
  srcdex ingest zlib/1.2.8 --area main --suite bookworm
  srcdex search 18b2f... --package zlib --json
  srcdex resolve zlib 1.2.8 src/inflate.c
  srcdex ls zlib
  srcdex status --json

Getting Started:
  1. Initialize the deployment:  srcdex init
  2. Ingest extracted packages:  srcdex ingest <pkg/ver>
  3. Query by content:           srcdex search <sha256>

For detailed command help: srcdex <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("srcdex version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	ui.InitColors(*noColor)

	globals := GlobalFlags{
		ConfigPath: *configPath,
		Quiet:      *quiet,
		NoColor:    *noColor,
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "ingest":
		runIngest(cmdArgs, globals)
	case "remove":
		runRemove(cmdArgs, globals)
	case "search":
		runSearch(cmdArgs, globals)
	case "resolve":
		runResolve(cmdArgs, globals)
	case "ls":
		runLs(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

// loadConfig resolves the configuration path (flag value or the default
// location under the working directory) and loads it.
func loadConfig(globals GlobalFlags) (config.Config, error) {
	path := globals.ConfigPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("get working directory: %w", err)
		}
		path = config.Path(cwd)
	}
	return config.Load(path)
}

// newLogger builds the CLI's structured logger. Debug switches the level;
// quiet mode keeps warnings and errors only.
func newLogger(debug, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
