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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srcdex/srcdex/pkg/index"
)

func openTestStore(t *testing.T) *index.SQLiteStore {
	t.Helper()
	store, err := index.Open(index.Config{Path: filepath.Join(t.TempDir(), "index.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// writeSourceTree lays out <root>/<area>/<prefix>/<pkg>/<version> with
// the given relative files, the way extracted packages sit on disk.
func writeSourceTree(t *testing.T, root, area, pkg, version string, files ...string) string {
	t.Helper()
	dir := filepath.Join(root, area, PkgPrefix(pkg), pkg, version)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, f := range files {
		full := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(f+"\n"), 0o644))
	}
	return dir
}

func TestPkgPrefix(t *testing.T) {
	cases := map[string]string{
		"zlib":        "z",
		"sed":         "s",
		"libpng":      "libp",
		"libc6":       "libc",
		"lib":         "lib",
		"li":          "l",
		"2vcard":      "2",
		"":            "",
		"libreoffice": "libr",
	}
	for name, want := range cases {
		assert.Equal(t, want, PkgPrefix(name), "prefix of %q", name)
	}
}

func TestResolveFromIndex(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	sources := t.TempDir()
	writeSourceTree(t, sources, "main", "zlib", "1.2.8", "zlib.h", "src/inflate.c")

	_, err := store.CreateVersion(ctx, "zlib", index.Version{VNumber: "1.2.8", Area: "main"})
	require.NoError(t, err)

	r := NewResolver(store, sources, "/data/sources")
	loc, err := r.Resolve(ctx, "zlib", "1.2.8", "src/inflate.c")
	require.NoError(t, err)

	assert.Equal(t, "main", loc.Area)
	assert.Equal(t, filepath.Join(sources, "main", "z", "zlib", "1.2.8", "src", "inflate.c"), loc.SourcesPath)
	assert.Equal(t, filepath.Join("/data/sources", "main", "z", "zlib", "1.2.8", "src", "inflate.c"), loc.StaticPath)
	assert.Equal(t, "zlib/1.2.8/src/inflate.c", loc.PathTo())
	assert.True(t, loc.IsFile())
	assert.False(t, loc.IsDir())
}

// A version purged from the index but still extracted on disk must
// still resolve, by probing the areas in priority order.
func TestResolveDiskFallback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	sources := t.TempDir()
	writeSourceTree(t, sources, "contrib", "vice", "3.7", "README")

	r := NewResolver(store, sources, "/static")
	loc, err := r.Resolve(ctx, "vice", "3.7", "README")
	require.NoError(t, err)
	assert.Equal(t, "contrib", loc.Area)
}

// When a package sits in several areas on disk, the fallback picks the
// first area in priority order, deterministically.
func TestResolveFallbackAreaPriority(t *testing.T) {
	store := openTestStore(t)
	sources := t.TempDir()
	writeSourceTree(t, sources, "non-free", "dup", "1.0", "a")
	writeSourceTree(t, sources, "main", "dup", "1.0", "a")

	r := NewResolver(store, sources, "/static")
	loc, err := r.Resolve(context.Background(), "dup", "1.0", "")
	require.NoError(t, err)
	assert.Equal(t, "main", loc.Area)
}

func TestResolveUnknownVersion(t *testing.T) {
	store := openTestStore(t)
	r := NewResolver(store, t.TempDir(), "/static")

	_, err := r.Resolve(context.Background(), "nosuch", "0.1", "README")
	var invalid *index.InvalidPackageOrVersionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "nosuch", invalid.Package)
	assert.Equal(t, "0.1", invalid.Version)
}

// Index says the version exists but the tree is gone from disk: that is
// a stale-index miss on the path, not an unknown version.
func TestResolveStaleIndex(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.CreateVersion(ctx, "gone", index.Version{VNumber: "2.0", Area: "main"})
	require.NoError(t, err)

	r := NewResolver(store, t.TempDir(), "/static")
	_, err = r.Resolve(ctx, "gone", "2.0", "README")
	var notFound *index.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "gone/2.0/README", notFound.Path)
}

func TestResolveMissingPathInsideVersion(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	sources := t.TempDir()
	writeSourceTree(t, sources, "main", "zlib", "1.2.8", "zlib.h")

	_, err := store.CreateVersion(ctx, "zlib", index.Version{VNumber: "1.2.8", Area: "main"})
	require.NoError(t, err)

	r := NewResolver(store, sources, "/static")
	_, err = r.Resolve(ctx, "zlib", "1.2.8", "missing.c")
	var notFound *index.NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestResolveVersionDirectory(t *testing.T) {
	store := openTestStore(t)
	sources := t.TempDir()
	writeSourceTree(t, sources, "main", "sed", "4.9", "sed.c")

	r := NewResolver(store, sources, "/static")
	loc, err := r.Resolve(context.Background(), "sed", "4.9", "")
	require.NoError(t, err)
	assert.True(t, loc.IsDir())
	assert.Equal(t, "sed/4.9", loc.PathTo())
}
