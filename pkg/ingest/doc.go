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

// Package ingest drives the per-package processing passes of srcdex.
//
// An ingestion run is organized around a named-event bus: plugins
// register handlers for the add-package and rm-package events, and the
// Orchestrator fires those events once per package version, in
// registration order. Each plugin's work is attributed to its title so
// failures name the stage that raised them.
//
// # Pipeline Overview
//
// For one package version the checksums plugin runs four strictly
// sequential steps:
//
//  1. Walk: enumerate the regular files of the extracted package tree
//  2. Hash: compute the sha256 digest of each file, streaming
//  3. Sidecar: write the digest listing next to the package directory,
//     atomically (temp file + rename)
//  4. Persist: link digests to indexed file rows in one transaction,
//     gated by an existence check so re-runs write nothing
//
// Separate package versions share no mutable state and are processed
// concurrently by the Runner's worker pool; within a version the steps
// above stay sequential because each consumes the previous step's
// output.
package ingest
