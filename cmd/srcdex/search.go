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
	"github.com/srcdex/srcdex/internal/errors"
	"github.com/srcdex/srcdex/internal/output"
	"github.com/srcdex/srcdex/pkg/index"
	"github.com/srcdex/srcdex/pkg/lookup"
)

// SearchResult is the machine-readable answer of the search command.
type SearchResult struct {
	Digest  string         `json:"digest"`
	Total   int            `json:"total"`
	Matches []index.Result `json:"matches"`
}

// runSearch executes the 'search' CLI command: list the (package,
// version, path) triples whose file content hashes to the given SHA256
// digest.
//
// Flags:
//   - --package: restrict matches to one package name
//   - --offset/--limit: pagination window over the ordered matches
//   - --count: print only the number of matches
//   - --json: output as JSON
//
// Examples:
//
//	srcdex search 18b2f...cd41
//	srcdex search 18b2f...cd41 --package zlib --json
//	srcdex search 18b2f...cd41 --count
func runSearch(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	pkg := fs.String("package", "", "Restrict matches to this package name")
	offset := fs.Int("offset", 0, "Skip this many matches")
	limit := fs.Int("limit", 0, "Return at most this many matches (0 = all)")
	countOnly := fs.Bool("count", false, "Print only the number of matches")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: srcdex search [options] <sha256>

Finds every indexed file whose content hashes to the given digest,
across all packages and versions. Matches are ordered by package name,
version and path; --offset/--limit window that order. The total count
always reflects the unwindowed match set.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	digest := fs.Arg(0)

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

	ctx := context.Background()
	search := lookup.NewSearch(store)

	total, err := search.Count(ctx, digest, *pkg)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Invalid checksum",
			err.Error(),
			"Pass the full 64-character hex digest, e.g. from sha256sum",
		), *jsonOutput)
	}

	if *countOnly {
		if *jsonOutput {
			_ = output.JSON(map[string]int{"total": total})
		} else {
			fmt.Println(total)
		}
		return
	}

	opts := index.FindOpts{Package: *pkg}
	if *limit > 0 || *offset > 0 {
		end := total
		if *limit > 0 {
			end = *offset + *limit
		}
		opts.Slice = &index.Slice{Start: *offset, End: end}
	}

	matches, err := search.Find(ctx, digest, opts)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Search failed", err.Error(), "", err), *jsonOutput)
	}

	if *jsonOutput {
		if err := output.JSON(SearchResult{Digest: digest, Total: total, Matches: matches}); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	for _, m := range matches {
		fmt.Printf("%s/%s/%s\n", m.Package, m.Version, m.Path)
	}
	if total > len(matches) {
		fmt.Printf("(%d of %d matches shown)\n", len(matches), total)
	}
}
