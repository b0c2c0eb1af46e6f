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
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/srcdex/srcdex/internal/bootstrap"
	"github.com/srcdex/srcdex/internal/errors"
	"github.com/srcdex/srcdex/internal/ui"
	"github.com/srcdex/srcdex/pkg/ingest"
	"github.com/srcdex/srcdex/pkg/lookup"
)

// parseSpec splits a "name/version" argument. The version part may
// itself contain slashes only in theory; the first separator wins.
func parseSpec(arg string) (name, version string, err error) {
	i := strings.Index(arg, "/")
	if i <= 0 || i == len(arg)-1 {
		return "", "", fmt.Errorf("expected <package>/<version>, got %q", arg)
	}
	return arg[:i], arg[i+1:], nil
}

// runIngest executes the 'ingest' CLI command: hash the files of one or
// more extracted package versions, write their checksum sidecars, and
// record everything in the index.
//
// Flags:
//   - --area: distribution area of the packages (default: main)
//   - --suite: suite to map the versions into (repeatable)
//   - --pass: restrict to one processing pass, fs or db (repeatable)
//   - --dir: explicit package directory (single spec only)
//   - --workers: override the configured pool size
//   - --debug: enable debug logging
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//
// Examples:
//
//	srcdex ingest zlib/1.2.8
//	srcdex ingest zlib/1.2.8 sed/4.9-2 --suite bookworm
//	srcdex ingest zlib/1.2.8 --pass fs        Sidecars only, no index rows
func runIngest(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	area := fs.String("area", "main", "Distribution area of the packages")
	suites := fs.StringSlice("suite", nil, "Suite to map the versions into (repeatable)")
	passes := fs.StringSlice("pass", nil, "Restrict to a processing pass: fs or db (repeatable)")
	dir := fs.String("dir", "", "Explicit package directory (single spec only)")
	workers := fs.Int("workers", 0, "Worker pool size (default: from config)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: srcdex ingest [options] <package>/<version> ...

Hashes every file of the named package versions, writes a .checksums
sidecar next to each package directory, and records packages, versions,
files and checksums in the index. Versions already carrying checksums
are skipped; re-running ingest is safe.

Package directories are expected under the archive root at
<area>/<prefix>/<package>/<version> unless --dir points elsewhere.

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
	if *dir != "" && len(specs) > 1 {
		errors.FatalError(errors.NewInputError(
			"--dir only applies to a single package",
			"An explicit directory cannot be shared by several versions",
			"Ingest the packages one at a time, or drop --dir",
		), false)
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
		pkgdir := *dir
		if pkgdir == "" {
			pkgdir = filepath.Join(cfg.SourcesDir, *area, lookup.PkgPrefix(name), name, version)
		}
		tasks = append(tasks, ingest.Task{
			Pkg: ingest.PackageMeta{
				Name:    name,
				Version: version,
				Area:    *area,
				Suites:  *suites,
			},
			Dir: pkgdir,
		})
	}

	// Optional Prometheus endpoint for long batch runs.
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	store, err := bootstrap.OpenStore(cfg, logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open the index database", err.Error(),
			"Run 'srcdex init' first", err,
		), false)
	}
	defer store.Close()

	orch := ingest.NewOrchestrator(ingest.Config{
		Passes:   mergePasses(cfg.Passes, *passes),
		Excludes: cfg.Excludes,
		Logger:   logger,
	})
	if err := orch.Register(ingest.NewChecksumPlugin(orch.Config())); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot register the checksums plugin", err.Error(), "", err), false)
	}

	poolSize := cfg.Workers
	if *workers > 0 {
		poolSize = *workers
	}
	runner := ingest.NewRunner(orch, store, poolSize)

	bar := NewProgressBar(NewProgressConfig(globals), int64(len(tasks)), "ingesting")
	if bar != nil {
		runner.OnDone = func(ingest.Task, error) { _ = bar.Add(1) }
	}

	failures := runner.Run(ctx, tasks)
	if bar != nil {
		_ = bar.Finish()
	}

	if !globals.Quiet {
		ui.Successf("Ingested %d of %d package versions (run %s)",
			len(tasks)-len(failures), len(tasks), runner.RunID())
	}
	if len(failures) > 0 {
		for _, f := range failures {
			ui.Errorf("%s: %v", f.Task.Pkg, f.Err)
		}
		os.Exit(1)
	}
}

// mergePasses narrows the configured passes by the command-line ones.
// Flag passes win when given.
func mergePasses(configured, flags []string) []string {
	if len(flags) > 0 {
		return flags
	}
	return configured
}
