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
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/srcdex/srcdex/internal/bootstrap"
	"github.com/srcdex/srcdex/internal/config"
	"github.com/srcdex/srcdex/internal/errors"
	"github.com/srcdex/srcdex/internal/ui"
)

// runInit executes the 'init' CLI command, creating the configuration
// file and the index database.
//
// Flags:
//   - --force: overwrite an existing configuration (default: false)
//   - --data-dir: root for the database, archive and cache directories
//   - --sources-dir: archive root (overrides the data-dir default)
//   - --static-dir: public serving prefix for raw links
//
// Examples:
//
//	srcdex init                             Defaults under ./srcdex-data
//	srcdex init --data-dir /srv/srcdex      Explicit data root
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	dataDir := fs.String("data-dir", "", "Data root (default: ./srcdex-data)")
	sourcesDir := fs.String("sources-dir", "", "Archive root (default: <data-dir>/sources)")
	staticDir := fs.String("static-dir", "", "Public serving prefix for raw links")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: srcdex init [options]

Creates the .srcdex/config.yaml configuration file, the archive and
cache directories, and the index database with its schema. Running init
on an existing deployment is safe: nothing is overwritten unless
--force is given.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot determine working directory", err.Error(), "", err), false)
	}

	configPath := globals.ConfigPath
	if configPath == "" {
		configPath = config.Path(cwd)
	}

	if _, err := os.Stat(configPath); err == nil && !*force {
		errors.FatalError(errors.NewConfigError(
			"Configuration already exists",
			fmt.Sprintf("%s is already present", configPath),
			"Pass --force to overwrite it, or remove the file first",
			nil,
		), false)
	}

	root := *dataDir
	if root == "" {
		root = filepath.Join(cwd, "srcdex-data")
	}

	cfg := config.Default(root)
	if *sourcesDir != "" {
		cfg.SourcesDir = *sourcesDir
	}
	if *staticDir != "" {
		cfg.StaticDir = *staticDir
	}

	if err := config.Save(configPath, cfg); err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot write configuration",
			err.Error(),
			"Check permissions on the target directory",
			err,
		), false)
	}

	logger := newLogger(false, globals.Quiet)
	info, err := bootstrap.InitDeployment(cfg, logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot create the index database",
			err.Error(),
			"Check permissions on the data directory",
			err,
		), false)
	}

	ui.Successf("Configuration written to %s", configPath)
	ui.Successf("Index database created at %s", info.DBPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Extract source packages under", ui.DimText(info.SourcesDir))
	fmt.Println("  2. Ingest them:", ui.DimText("srcdex ingest <package>/<version>"))
	fmt.Println("  3. Inspect the index:", ui.DimText("srcdex status"))
}
