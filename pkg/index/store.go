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

import "context"

// Store is the interface all index store implementations must satisfy.
// It provides row-level access to packages, versions, files and checksums,
// plus the query surface consumed by the search and resolution layers.
//
// Read methods are safe for concurrent use from any number of callers.
// Write methods are safe across distinct package versions; callers must
// not run two ingestion passes for the same version concurrently.
type Store interface {
	// CreatePackage inserts a package, or returns the existing row when a
	// package with that name is already indexed.
	CreatePackage(ctx context.Context, name string) (Package, error)

	// GetPackage looks up a package by exact name. Returns
	// *InvalidPackageOrVersionError when no such package is indexed.
	GetPackage(ctx context.Context, name string) (Package, error)

	// DeletePackage removes a package and, in the same transaction, all of
	// its versions, files, checksums and suite mappings.
	DeletePackage(ctx context.Context, name string) error

	// CreateVersion inserts a version of pkg, creating the package row if
	// needed. Returns the existing row when (package, vnumber) is already
	// indexed.
	CreateVersion(ctx context.Context, pkg string, v Version) (Version, error)

	// GetVersion looks up a version by exact (package, vnumber). Returns
	// *InvalidPackageOrVersionError when either is unknown.
	GetVersion(ctx context.Context, pkg, vnumber string) (Version, error)

	// VersionsOf returns all indexed versions of pkg, in no particular
	// order. Returns *InvalidPackageOrVersionError for unknown packages.
	VersionsOf(ctx context.Context, pkg string) ([]Version, error)

	// DeleteVersion removes one version and, in the same transaction, its
	// files, checksums and suite mappings.
	DeleteVersion(ctx context.Context, pkg, vnumber string) error

	// AreaOf returns the distribution area recorded for (pkg, vnumber).
	// Returns *InvalidPackageOrVersionError when the pair is not indexed.
	AreaOf(ctx context.Context, pkg, vnumber string) (string, error)

	// CreateFiles inserts file rows for a version in one transaction.
	// Paths already present for the version are left untouched.
	CreateFiles(ctx context.Context, versionID int64, paths [][]byte) error

	// FileByPath looks up the file row for (version, path). The second
	// return value reports whether the row exists.
	FileByPath(ctx context.Context, versionID int64, path []byte) (File, bool, error)

	// HasChecksums reports whether at least one checksum row exists for
	// the version. Because AddChecksums inserts all of a version's
	// checksums in a single transaction, one existing row implies the
	// whole version was already processed.
	HasChecksums(ctx context.Context, versionID int64) (bool, error)

	// AddChecksums inserts checksum rows for a version in a single
	// transaction. Sums whose path has no file row are skipped, not an
	// error (file indexing may not have run for them). Returns the number
	// of rows inserted.
	AddChecksums(ctx context.Context, versionID int64, sums []FileSum) (int, error)

	// DeleteChecksums removes every checksum row of a version and returns
	// the number of rows removed.
	DeleteChecksums(ctx context.Context, versionID int64) (int64, error)

	// FindChecksum returns the files whose content digest equals digest,
	// ordered by (package name, version string, path). The order is plain
	// lexical: this is a flat listing across packages, not a version
	// history.
	FindChecksum(ctx context.Context, digest string, opts FindOpts) ([]Result, error)

	// CountChecksum returns the unsliced cardinality of FindChecksum for
	// the same digest and package filter.
	CountChecksum(ctx context.Context, digest, pkg string) (int, error)

	// DigestOf returns the recorded digest of one file, or "" when the
	// file has no checksum row.
	DigestOf(ctx context.Context, pkg, vnumber string, path []byte) (string, error)

	// AddSuite records that a version is part of a distribution suite.
	AddSuite(ctx context.Context, versionID int64, suite string) error

	// SuitesFor returns the suites a version is part of, sorted.
	SuitesFor(ctx context.Context, versionID int64) ([]string, error)

	// Stats returns row counts for all tables.
	Stats(ctx context.Context) (Stats, error)

	// Close releases the store's resources.
	Close() error
}
