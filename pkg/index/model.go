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

package index

import "fmt"

// Areas lists the distribution areas a package version can live in, in the
// priority order used when probing the filesystem for a version whose
// metadata is no longer indexed.
var Areas = []string{"main", "contrib", "non-free"}

// VCSTypes lists the version-control systems a Version may reference.
var VCSTypes = []string{"arch", "bzr", "cvs", "darcs", "git", "hg", "mtn", "svn"}

// Package is a source package. It owns an ordered set of versions;
// deleting a package deletes its versions.
type Package struct {
	ID   int64
	Name string
}

// Version is one version of a source package.
//
// VNumber is an opaque version string. The store never interprets or
// orders it; callers that need history order compare with Debian version
// rules (see pkg/lookup).
type Version struct {
	ID        int64
	PackageID int64
	VNumber   string
	Area      string

	// Optional VCS metadata from the package's control data.
	VCSType    string
	VCSURL     string
	VCSBrowser string
}

// File is a single file inside a package version. Path is relative to the
// version's root directory and is kept as raw bytes: package trees are not
// guaranteed to contain valid UTF-8 filenames.
type File struct {
	ID        int64
	VersionID int64
	Path      []byte
}

// Checksum links a file in a version to the sha256 hex digest of its
// content. At most one checksum exists per (version, file).
type Checksum struct {
	ID        int64
	VersionID int64
	FileID    int64
	SHA256    string
}

// FileSum pairs a relative path with its digest, as read from a sidecar
// checksums listing.
type FileSum struct {
	Path   []byte
	SHA256 string
}

// Result is one hit of a checksum search: the package, version and
// relative path of a file whose content matches the searched digest.
type Result struct {
	Package string `json:"package"`
	Version string `json:"version"`
	Path    string `json:"path"`
}

// Slice selects the half-open range [Start, End) of an ordered result
// list, for pagination.
type Slice struct {
	Start int
	End   int
}

// FindOpts narrows and paginates a checksum search.
type FindOpts struct {
	// Package restricts results to this exact package name. Empty means
	// all packages.
	Package string

	// Slice, when non-nil, selects a contiguous sub-range of the ordered
	// results. Counting is never affected by slicing.
	Slice *Slice
}

// Stats summarizes index contents.
type Stats struct {
	Packages  int64 `json:"packages"`
	Versions  int64 `json:"versions"`
	Files     int64 `json:"files"`
	Checksums int64 `json:"checksums"`
	Suites    int64 `json:"suites"`
}

// InvalidPackageOrVersionError reports that a (package, version) pair is
// not resolvable at all: it is neither indexed nor present on disk.
type InvalidPackageOrVersionError struct {
	Package string
	Version string
}

func (e *InvalidPackageOrVersionError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("unknown package: %s", e.Package)
	}
	return fmt.Sprintf("unknown package or version: %s %s", e.Package, e.Version)
}

// NotFoundError reports that a package version resolved fine but the
// requested path inside it does not exist on disk. This happens when the
// index is stale relative to the filesystem snapshot.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}
