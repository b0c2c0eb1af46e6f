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

package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/srcdex/srcdex/internal/config"
	"github.com/srcdex/srcdex/pkg/index"
)

// DeploymentInfo holds the locations a deployment was initialized with.
type DeploymentInfo struct {
	DBPath     string
	SourcesDir string
	CacheDir   string
}

// InitDeployment prepares a srcdex deployment described by cfg: the
// archive and cache directories exist afterwards and the index database
// is created with its schema. Calling it on an existing deployment is
// safe and changes nothing.
func InitDeployment(cfg config.Config, logger *slog.Logger) (*DeploymentInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("bootstrap.init.start",
		"db_path", cfg.DBPath,
		"sources_dir", cfg.SourcesDir,
	)

	for _, dir := range []string{cfg.SourcesDir, cfg.CacheDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	// Opening the store creates the database file and its schema.
	store, err := index.Open(index.Config{Path: cfg.DBPath, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = store.Close() }()

	logger.Info("bootstrap.init.done", "db_path", cfg.DBPath)

	return &DeploymentInfo{
		DBPath:     cfg.DBPath,
		SourcesDir: cfg.SourcesDir,
		CacheDir:   cfg.CacheDir,
	}, nil
}

// OpenStore opens the index database of an initialized deployment. The
// caller owns the returned store and must close it.
func OpenStore(cfg config.Config, logger *slog.Logger) (*index.SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("index not found: %s (run 'srcdex init' first)", cfg.DBPath)
	}

	logger.Debug("bootstrap.open", "db_path", cfg.DBPath)

	store, err := index.Open(index.Config{Path: cfg.DBPath, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return store, nil
}
