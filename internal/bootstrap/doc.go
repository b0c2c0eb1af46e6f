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

// Package bootstrap handles srcdex deployment initialization and setup.
//
// It creates the directory layout and the index database a deployment
// needs before any ingestion or lookup can run, and opens the store for
// the other commands.
//
// # Initialization Workflow
//
// A typical workflow for setting up a new deployment:
//
//	cfg := config.Default("/srv/srcdex")
//	info, err := bootstrap.InitDeployment(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Index created at: %s\n", info.DBPath)
//
//	// Later, open the index for queries or ingestion
//	store, err := bootstrap.OpenStore(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Idempotency
//
// InitDeployment is idempotent: calling it multiple times on the same
// deployment is safe and will not corrupt existing data. This makes it
// suitable for scripts and automated workflows.
package bootstrap
