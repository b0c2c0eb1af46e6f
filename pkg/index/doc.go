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

// Package index provides the metadata store for srcdex.
//
// The index records which source packages exist, which versions of each
// package have been ingested, every file inside each version, and the
// content checksum of every file. It is the authoritative half of the
// system; the other half is the extracted package trees on disk, which
// the index references but does not own.
//
// # Data Model
//
// Four row kinds, parent to child:
//
//   - Package: unique name, owns an ordered set of versions
//   - Version: version string, distribution area, optional VCS metadata
//   - File: path (raw bytes) relative to the version's root
//   - Checksum: sha256 hex digest, one per (version, file)
//
// Deletion cascades are implemented in the store itself, not delegated to
// the database engine: deleting a package removes its versions, files and
// checksums inside a single transaction.
//
// # Store Implementations
//
// Store is the interface consumed by the ingestion and lookup layers.
// SQLiteStore is the embedded implementation:
//
//	store, err := index.Open(index.Config{Path: "/var/lib/srcdex/index.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
package index
