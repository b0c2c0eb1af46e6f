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

package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/srcdex/srcdex/pkg/index"
)

// SetupTestStore creates an index store backed by a database file in a
// temporary directory. The store is closed when the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    store := testing.SetupTestStore(t)
//
//	    // Store is ready with the schema created
//	    v := testing.SeedVersion(t, store, "zlib", "1.2.8", "main")
//
//	    // Run your tests...
//	}
func SetupTestStore(t *testing.T) *index.SQLiteStore {
	t.Helper()

	store, err := index.Open(index.Config{
		Path: filepath.Join(t.TempDir(), "index.db"),
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// SeedVersion inserts a package version into the store, creating the
// package row as needed, and returns the version.
//
// Example:
//
//	v := testing.SeedVersion(t, store, "zlib", "1.2.8", "main")
func SeedVersion(t *testing.T, store index.Store, pkg, vnumber, area string) index.Version {
	t.Helper()

	v, err := store.CreateVersion(context.Background(), pkg, index.Version{
		VNumber: vnumber,
		Area:    area,
	})
	if err != nil {
		t.Fatalf("failed to seed version %s/%s: %v", pkg, vnumber, err)
	}
	return v
}

// SeedFiles registers the given relative paths as file rows of the
// version.
func SeedFiles(t *testing.T, store index.Store, versionID int64, paths ...string) {
	t.Helper()

	raw := make([][]byte, len(paths))
	for i, p := range paths {
		raw[i] = []byte(p)
	}
	if err := store.CreateFiles(context.Background(), versionID, raw); err != nil {
		t.Fatalf("failed to seed files: %v", err)
	}
}

// SeedChecksums records path→digest pairs for the version. The paths
// must already be seeded as file rows.
func SeedChecksums(t *testing.T, store index.Store, versionID int64, sums map[string]string) {
	t.Helper()

	pairs := make([]index.FileSum, 0, len(sums))
	for p, d := range sums {
		pairs = append(pairs, index.FileSum{Path: []byte(p), SHA256: d})
	}
	if _, err := store.AddChecksums(context.Background(), versionID, pairs); err != nil {
		t.Fatalf("failed to seed checksums: %v", err)
	}
}

// WriteTree materializes files under root. Keys are slash-separated
// relative paths, values file contents. Parent directories are created
// as needed. Returns root for chaining.
//
// Example:
//
//	dir := testing.WriteTree(t, t.TempDir(), map[string]string{
//	    "zlib.h":        "#define ZLIB_VERSION ...\n",
//	    "src/inflate.c": "...",
//	})
func WriteTree(t *testing.T, root string, files map[string]string) string {
	t.Helper()

	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
	return root
}

// WritePackageTree lays the files out as an extracted package version
// under an archive root: <root>/<area>/<prefix>/<pkg>/<version>/...
// prefix follows the archive's sharding rule for pkg. Returns the
// version directory.
func WritePackageTree(t *testing.T, root, area, prefix, pkg, version string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(root, area, prefix, pkg, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create package directory: %v", err)
	}
	return WriteTree(t, dir, files)
}
