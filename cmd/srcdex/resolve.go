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

	flag "github.com/spf13/pflag"

	"github.com/srcdex/srcdex/internal/bootstrap"
	uerrors "github.com/srcdex/srcdex/internal/errors"
	"github.com/srcdex/srcdex/internal/output"
	"github.com/srcdex/srcdex/pkg/lookup"
)

// ResolveResult is the machine-readable answer of the resolve command.
type ResolveResult struct {
	Package     string `json:"package"`
	Version     string `json:"version"`
	Path        string `json:"path,omitempty"`
	Area        string `json:"area"`
	SourcesPath string `json:"sources_path"`
	StaticPath  string `json:"static_path"`
	Type        string `json:"type"`
	Digest      string `json:"digest,omitempty"`
}

// runResolve executes the 'resolve' CLI command: map a (package,
// version, path) triple onto the archive on disk.
//
// Flags:
//   - --digest: also print the indexed checksum of the file
//   - --json: output as JSON
//
// Examples:
//
//	srcdex resolve zlib 1.2.8
//	srcdex resolve zlib 1.2.8 src/inflate.c --digest
func runResolve(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	withDigest := fs.Bool("digest", false, "Also print the indexed checksum of the file")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: srcdex resolve [options] <package> <version> [path]

Locates a path inside one package version. The distribution area comes
from the index when the version is known; versions purged from the
index but still extracted on disk are found by probing the areas in
priority order.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 2 || fs.NArg() > 3 {
		fs.Usage()
		os.Exit(1)
	}
	pkg, version := fs.Arg(0), fs.Arg(1)
	var path string
	if fs.NArg() == 3 {
		path = fs.Arg(2)
	}

	cfg, err := loadConfig(globals)
	if err != nil {
		uerrors.FatalError(uerrors.NewConfigError(
			"Cannot load srcdex configuration", err.Error(),
			"Run 'srcdex init' to create a new configuration", err,
		), *jsonOutput)
	}

	store, err := bootstrap.OpenStore(cfg, newLogger(false, true))
	if err != nil {
		uerrors.FatalError(uerrors.NewDatabaseError(
			"Cannot open the index database", err.Error(),
			"Run 'srcdex init' first", err,
		), *jsonOutput)
	}
	defer store.Close()

	ctx := context.Background()
	resolver := lookup.NewResolver(store, cfg.SourcesDir, cfg.StaticDir)

	loc, err := resolver.Resolve(ctx, pkg, version, path)
	if err != nil {
		fatalLookupError(err, pkg, version, *jsonOutput)
	}

	kind := "file"
	switch {
	case loc.IsSymlink():
		kind = "symlink"
	case loc.IsDir():
		kind = "dir"
	}

	result := ResolveResult{
		Package:     loc.Package,
		Version:     loc.Version,
		Path:        loc.Path,
		Area:        loc.Area,
		SourcesPath: loc.SourcesPath,
		StaticPath:  loc.StaticPath,
		Type:        kind,
	}

	if *withDigest && kind == "file" {
		d, err := lookup.NewSearch(store).DigestOf(ctx, pkg, version, path)
		if err != nil {
			uerrors.FatalError(uerrors.NewDatabaseError(
				"Checksum lookup failed", err.Error(), "", err), *jsonOutput)
		}
		result.Digest = d
	}

	if *jsonOutput {
		if err := output.JSON(result); err != nil {
			uerrors.FatalError(err, true)
		}
		return
	}

	fmt.Printf("%s (%s, %s)\n", loc.SourcesPath, loc.Area, kind)
	if result.Digest != "" {
		fmt.Printf("sha256: %s\n", result.Digest)
	}
}
