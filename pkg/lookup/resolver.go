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
	"strings"

	"github.com/srcdex/srcdex/pkg/index"
)

// PkgPrefix returns the directory-sharding bucket for a package name:
// up to four characters for library-style names (a "lib" prefix), the
// first character otherwise. The bucket keeps any single archive
// directory from holding too many package subdirectories.
func PkgPrefix(name string) string {
	if strings.HasPrefix(name, "lib") {
		return name[:min(len(name), 4)]
	}
	if name == "" {
		return ""
	}
	return name[:1]
}

// Location is where a package version path lives on disk. It is derived
// per request from the index and the filesystem, never stored.
type Location struct {
	Package string
	Version string
	Path    string
	Area    string

	// SourcesPath is the absolute location under the archive root.
	SourcesPath string

	// StaticPath is the same suffix under the public serving root, for
	// raw links rendered by a presentation layer.
	StaticPath string
}

// PathTo is the package-relative identifier "package/version/path",
// without a trailing slash.
func (l Location) PathTo() string {
	return strings.TrimRight(filepath.ToSlash(filepath.Join(l.Package, l.Version, l.Path)), "/")
}

// IsDir reports whether the location is a directory on disk.
func (l Location) IsDir() bool {
	info, err := os.Stat(l.SourcesPath)
	return err == nil && info.IsDir()
}

// IsFile reports whether the location is a regular file on disk.
func (l Location) IsFile() bool {
	info, err := os.Stat(l.SourcesPath)
	return err == nil && info.Mode().IsRegular()
}

// IsSymlink reports whether the location itself is a symbolic link.
func (l Location) IsSymlink() bool {
	info, err := os.Lstat(l.SourcesPath)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// Resolver maps (package, version, path) triples onto the archive on
// disk. Resolution is index-first with a deterministic filesystem
// fallback: packages can outlive their index rows, because extracted
// trees are kept longer for external consumers that still link to them.
type Resolver struct {
	store      index.Store
	sourcesDir string
	staticDir  string
}

// NewResolver creates a resolver rooted at sourcesDir for the archive
// and staticDir for the public serving prefix.
func NewResolver(store index.Store, sourcesDir, staticDir string) *Resolver {
	return &Resolver{store: store, sourcesDir: sourcesDir, staticDir: staticDir}
}

// Resolve locates path inside one package version. version and path may
// be empty to resolve the version directory or the package bucket level.
//
// The distribution area comes from the index when the version is known;
// otherwise each area is probed on disk in fixed priority order, at most
// one stat per area. When neither source yields the version, Resolve
// fails with *index.InvalidPackageOrVersionError. A resolved identity
// whose final path is absent on disk fails with *index.NotFoundError:
// the index can be stale relative to the filesystem snapshot.
func (r *Resolver) Resolve(ctx context.Context, pkg, version, path string) (Location, error) {
	prefix := PkgPrefix(pkg)

	area, err := r.store.AreaOf(ctx, pkg, version)
	if err != nil {
		var invalid *index.InvalidPackageOrVersionError
		if !errors.As(err, &invalid) {
			return Location{}, err
		}
		area = r.probeArea(prefix, pkg, version)
		if area == "" {
			return Location{}, &index.InvalidPackageOrVersionError{Package: pkg, Version: version}
		}
	}

	loc := Location{
		Package:     pkg,
		Version:     version,
		Path:        path,
		Area:        area,
		SourcesPath: filepath.Join(r.sourcesDir, area, prefix, pkg, version, path),
		StaticPath:  filepath.Join(r.staticDir, area, prefix, pkg, version, path),
	}
	if _, err := os.Stat(loc.SourcesPath); err != nil {
		return Location{}, &index.NotFoundError{Path: loc.PathTo()}
	}
	return loc, nil
}

// probeArea stats each known area for the version directory and returns
// the first hit, or "".
func (r *Resolver) probeArea(prefix, pkg, version string) string {
	for _, area := range index.Areas {
		if _, err := os.Stat(filepath.Join(r.sourcesDir, area, prefix, pkg, version)); err == nil {
			return area
		}
	}
	return ""
}
