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

// Package testing provides test helpers for srcdex tests.
//
// It bundles index-store setup and data seeding utilities so tests in
// other packages do not repeat the same boilerplate.
//
// # Quick Start
//
// Use SetupTestStore to create a store with the schema in place:
//
//	func TestMyFeature(t *testing.T) {
//	    store := testing.SetupTestStore(t)
//
//	    v := testing.SeedVersion(t, store, "zlib", "1.2.8", "main")
//	    testing.SeedFiles(t, store, v.ID, "zlib.h", "src/inflate.c")
//
//	    // Query and verify...
//	}
//
// # Seeding Test Data
//
// Helpers for common rows:
//   - SeedVersion: insert a package version (creates the package row)
//   - SeedFiles: register file paths of a version
//   - SeedChecksums: record path→digest pairs
//
// # Filesystem Fixtures
//
// WriteTree materializes a file tree in a temporary directory, and
// WritePackageTree lays one out the way an extracted package sits under
// the archive root.
package testing
