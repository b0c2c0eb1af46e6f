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
	"errors"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/srcdex/srcdex/internal/bootstrap"
	uerrors "github.com/srcdex/srcdex/internal/errors"
	"github.com/srcdex/srcdex/internal/output"
	"github.com/srcdex/srcdex/pkg/index"
	"github.com/srcdex/srcdex/pkg/lookup"
)

// runLs executes the 'ls' CLI command. With a bare package name it
// lists the indexed versions, oldest first, ordered by Debian version
// comparison rules. With <package>/<version>[/path] it lists the
// directory behind that location.
//
// Flags:
//   - --prefixes: list the archive's bucket directories instead
//   - --suites: include suite mappings in the version listing
//   - --json: output as JSON
//
// Examples:
//
//	srcdex ls zlib                 Versions of zlib, oldest first
//	srcdex ls zlib/1.2.8           Top-level directory of that version
//	srcdex ls zlib/1.2.8/src       A subdirectory
//	srcdex ls --prefixes           Bucket directories (a, b, ..., liba, ...)
func runLs(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	prefixes := fs.Bool("prefixes", false, "List the archive's bucket directories")
	withSuites := fs.Bool("suites", false, "Include suite mappings in the version listing")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: srcdex ls [options] [<package>[/<version>[/path]]]

Lists indexed versions of a package, or the contents of a directory
inside one extracted version. Version ordering follows Debian version
comparison rules, not lexical order.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(globals)
	if err != nil {
		uerrors.FatalError(uerrors.NewConfigError(
			"Cannot load srcdex configuration", err.Error(),
			"Run 'srcdex init' to create a new configuration", err,
		), *jsonOutput)
	}

	if *prefixes {
		list := lookup.PkgPrefixes(cfg.CacheDir)
		if *jsonOutput {
			_ = output.JSON(list)
			return
		}
		for _, p := range list {
			fmt.Println(p)
		}
		return
	}

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	arg := fs.Arg(0)

	store, err := bootstrap.OpenStore(cfg, newLogger(false, true))
	if err != nil {
		uerrors.FatalError(uerrors.NewDatabaseError(
			"Cannot open the index database", err.Error(),
			"Run 'srcdex init' first", err,
		), *jsonOutput)
	}
	defer store.Close()

	ctx := context.Background()

	if !strings.Contains(arg, "/") {
		lsVersions(ctx, store, arg, *withSuites, *jsonOutput)
		return
	}

	// <package>/<version>[/path]: a directory listing.
	parts := strings.SplitN(arg, "/", 3)
	pkg, version := parts[0], parts[1]
	var path string
	if len(parts) == 3 {
		path = parts[2]
	}

	resolver := lookup.NewResolver(store, cfg.SourcesDir, cfg.StaticDir)
	loc, err := resolver.Resolve(ctx, pkg, version, path)
	if err != nil {
		fatalLookupError(err, pkg, version, *jsonOutput)
	}

	entries, err := lookup.Listing(loc)
	if err != nil {
		var notFound *index.NotFoundError
		if errors.As(err, &notFound) {
			uerrors.FatalError(uerrors.NewNotFoundError(
				"Not a directory",
				fmt.Sprintf("%s cannot be listed", notFound.Path),
				"Use 'srcdex resolve' for files",
			), *jsonOutput)
		}
		uerrors.FatalError(uerrors.NewDatabaseError(
			"Listing failed", err.Error(), "", err), *jsonOutput)
	}

	if *jsonOutput {
		if err := output.JSON(entries); err != nil {
			uerrors.FatalError(err, true)
		}
		return
	}
	for _, e := range entries {
		name := e.Name
		if e.Type == "symlink" && e.Symlink != "" {
			name += " -> " + e.Symlink
		}
		fmt.Printf("%s %8d  %s\n", e.Perms, e.Size, name)
	}
}

// lsVersions prints the version listing of one package.
func lsVersions(ctx context.Context, store index.Store, pkg string, withSuites, jsonOutput bool) {
	versions, err := lookup.ListVersions(ctx, store, pkg)
	if err != nil {
		fatalLookupError(err, pkg, "", jsonOutput)
	}

	type versionLine struct {
		Version string   `json:"version"`
		Area    string   `json:"area"`
		Suites  []string `json:"suites,omitempty"`
	}
	lines := make([]versionLine, 0, len(versions))
	for _, v := range versions {
		line := versionLine{Version: v.VNumber, Area: v.Area}
		if withSuites {
			suites, err := store.SuitesFor(ctx, v.ID)
			if err != nil {
				uerrors.FatalError(uerrors.NewDatabaseError(
					"Suite lookup failed", err.Error(), "", err), jsonOutput)
			}
			line.Suites = suites
		}
		lines = append(lines, line)
	}

	if jsonOutput {
		if err := output.JSON(lines); err != nil {
			uerrors.FatalError(err, true)
		}
		return
	}
	for _, line := range lines {
		if len(line.Suites) > 0 {
			fmt.Printf("%s (%s) [%s]\n", line.Version, line.Area, strings.Join(line.Suites, ", "))
		} else {
			fmt.Printf("%s (%s)\n", line.Version, line.Area)
		}
	}
}

// fatalLookupError converts lookup-layer errors into user errors.
func fatalLookupError(err error, pkg, version string, jsonOutput bool) {
	var invalid *index.InvalidPackageOrVersionError
	var notFound *index.NotFoundError
	switch {
	case errors.As(err, &invalid):
		what := pkg
		if version != "" {
			what = pkg + " " + version
		}
		uerrors.FatalError(uerrors.NewNotFoundError(
			"Unknown package or version",
			fmt.Sprintf("%s is neither indexed nor extracted on disk", what),
			"Run 'srcdex status' to inspect the index",
		), jsonOutput)
	case errors.As(err, &notFound):
		uerrors.FatalError(uerrors.NewNotFoundError(
			"Path not found",
			fmt.Sprintf("%s does not exist on disk", notFound.Path),
			"The index may be ahead of the filesystem snapshot",
		), jsonOutput)
	default:
		uerrors.FatalError(uerrors.NewDatabaseError(
			"Lookup failed", err.Error(), "", err), jsonOutput)
	}
}
