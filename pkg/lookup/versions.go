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

package lookup

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pault.ag/go/debian/version"

	"github.com/srcdex/srcdex/pkg/index"
)

// ListVersions returns every indexed version of pkg, oldest first,
// ordered by Debian version comparison rules rather than lexically.
// Version strings that fail to parse sort among themselves as plain
// strings, after the parseable ones.
func ListVersions(ctx context.Context, store index.Store, pkg string) ([]index.Version, error) {
	versions, err := store.VersionsOf(ctx, pkg)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return compareVNumbers(versions[i].VNumber, versions[j].VNumber) < 0
	})
	return versions, nil
}

func compareVNumbers(a, b string) int {
	va, errA := version.Parse(a)
	vb, errB := version.Parse(b)
	switch {
	case errA == nil && errB == nil:
		return version.Compare(va, vb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// DefaultPrefixes is the directory-sharding bucket set used when no
// prefix cache exists: one bucket per initial letter plus one per
// library-style four-character prefix.
func DefaultPrefixes() []string {
	var prefixes []string
	for c := 'a'; c <= 'z'; c++ {
		prefixes = append(prefixes, string(c))
		prefixes = append(prefixes, "lib"+string(c))
	}
	sort.Strings(prefixes)
	return prefixes
}

// PkgPrefixes returns the bucket directories of the archive: the cached
// pkg-prefixes listing when cacheDir holds one, DefaultPrefixes
// otherwise.
func PkgPrefixes(cacheDir string) []string {
	f, err := os.Open(filepath.Join(cacheDir, "pkg-prefixes"))
	if err != nil {
		return DefaultPrefixes()
	}
	defer f.Close()

	var prefixes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			prefixes = append(prefixes, line)
		}
	}
	if scanner.Err() != nil || len(prefixes) == 0 {
		return DefaultPrefixes()
	}
	return prefixes
}
