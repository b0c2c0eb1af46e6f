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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/srcdex/srcdex/internal/bootstrap"
	"github.com/srcdex/srcdex/internal/errors"
	"github.com/srcdex/srcdex/internal/output"
	"github.com/srcdex/srcdex/internal/ui"
)

// StatusResult represents the index status for JSON output.
type StatusResult struct {
	DBPath     string    `json:"db_path"`
	SourcesDir string    `json:"sources_dir"`
	Packages   int64     `json:"packages"`
	Versions   int64     `json:"versions"`
	Files      int64     `json:"files"`
	Checksums  int64     `json:"checksums"`
	Suites     int64     `json:"suites"`
	Timestamp  time.Time `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, displaying index row
// counts.
//
// Flags:
//   - --json: output results as JSON (default: false)
//
// Examples:
//
//	srcdex status           Display formatted status
//	srcdex status --json    Output as JSON for programmatic use
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: srcdex status [options]

Shows the row counts of the index: packages, versions, files,
checksums and suite mappings.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(globals)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load srcdex configuration", err.Error(),
			"Run 'srcdex init' to create a new configuration", err,
		), *jsonOutput)
	}

	store, err := bootstrap.OpenStore(cfg, newLogger(false, true))
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open the index database", err.Error(),
			"Run 'srcdex init' first", err,
		), *jsonOutput)
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot read index statistics", err.Error(), "", err,
		), *jsonOutput)
	}

	if *jsonOutput {
		result := StatusResult{
			DBPath:     cfg.DBPath,
			SourcesDir: cfg.SourcesDir,
			Packages:   stats.Packages,
			Versions:   stats.Versions,
			Files:      stats.Files,
			Checksums:  stats.Checksums,
			Suites:     stats.Suites,
			Timestamp:  time.Now(),
		}
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	ui.Header("Srcdex Index Status")
	fmt.Printf("%s %s\n", ui.Label("Database:"), ui.DimText(cfg.DBPath))
	fmt.Printf("%s %s\n", ui.Label("Archive:"), ui.DimText(cfg.SourcesDir))
	fmt.Println()
	fmt.Printf("  Packages:  %s\n", ui.CountText(int(stats.Packages)))
	fmt.Printf("  Versions:  %s\n", ui.CountText(int(stats.Versions)))
	fmt.Printf("  Files:     %s\n", ui.CountText(int(stats.Files)))
	fmt.Printf("  Checksums: %s\n", ui.CountText(int(stats.Checksums)))
	fmt.Printf("  Suites:    %s\n", ui.CountText(int(stats.Suites)))
}
