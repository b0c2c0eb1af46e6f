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
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/srcdex/srcdex/internal/bootstrap"
	"github.com/srcdex/srcdex/internal/errors"
	"github.com/srcdex/srcdex/internal/ui"
	"github.com/srcdex/srcdex/pkg/ingest"
	"github.com/srcdex/srcdex/pkg/lookup"
)

// runRemove executes the 'remove' CLI command: delete the sidecar
// artifacts and index rows of one or more package versions. The
// extracted trees themselves are left on disk.
//
// Flags:
//   - --area: distribution area of the packages (default: main)
//   - --debug: enable debug logging
//
// Examples:
//
//	srcdex remove zlib/1.2.8
//	srcdex remove zlib/1.2.8 sed/4.9-2
func runRemove(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	area := fs.String("area", "main", "Distribution area of the packages")
	debug := fs.Bool("debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: srcdex remove [options] <package>/<version> ...

Deletes the checksum sidecars and every index row of the named package
versions: checksums, files, suite mappings and the version itself. The
extracted source trees stay on disk; paths under them keep resolving
through the filesystem fallback.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	specs := fs.Args()
	if len(specs) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(globals)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load srcdex configuration", err.Error(),
			"Run 'srcdex init' to create a new configuration", err,
		), false)
	}

	logger := newLogger(*debug, globals.Quiet)

	tasks := make([]ingest.Task, 0, len(specs))
	for _, spec := range specs {
		name, version, err := parseSpec(spec)
		if err != nil {
			errors.FatalError(errors.NewInputError(
				"Invalid package spec", err.Error(),
				"Use the form <package>/<version>, e.g. zlib/1.2.8",
			), false)
		}
		tasks = append(tasks, ingest.Task{
			Pkg: ingest.PackageMeta{
				Name:    name,
				Version: version,
				Area:    *area,
			},
			Dir:    filepath.Join(cfg.SourcesDir, *area, lookup.PkgPrefix(name), name, version),
			Remove: true,
		})
	}

	store, err := bootstrap.OpenStore(cfg, logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open the index database", err.Error(),
			"Run 'srcdex init' first", err,
		), false)
	}
	defer store.Close()

	orch := ingest.NewOrchestrator(ingest.Config{
		Passes:   cfg.Passes,
		Excludes: cfg.Excludes,
		Logger:   logger,
	})
	if err := orch.Register(ingest.NewChecksumPlugin(orch.Config())); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot register the checksums plugin", err.Error(), "", err), false)
	}

	runner := ingest.NewRunner(orch, store, cfg.Workers)
	failures := runner.Run(context.Background(), tasks)

	if !globals.Quiet {
		ui.Successf("Removed %d of %d package versions", len(tasks)-len(failures), len(tasks))
	}
	if len(failures) > 0 {
		for _, f := range failures {
			ui.Errorf("%s: %v", f.Task.Pkg, f.Err)
		}
		os.Exit(1)
	}
}
