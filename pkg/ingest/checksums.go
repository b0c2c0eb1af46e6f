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

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/srcdex/srcdex/pkg/index"
)

// ChecksumPlugin computes and persists a content digest for every file of
// a package version. Its sidecar artifact is the digest listing next to
// the package directory (see SumsPath).
type ChecksumPlugin struct {
	cfg    Config
	logger *slog.Logger
}

// NewChecksumPlugin creates the plugin for one run's configuration.
func NewChecksumPlugin(cfg Config) *ChecksumPlugin {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChecksumPlugin{cfg: cfg, logger: logger}
}

// Title identifies the plugin in failure attribution and logs.
func (p *ChecksumPlugin) Title() string { return "checksums" }

// Ext is the sidecar extension the plugin owns.
func (p *ChecksumPlugin) Ext() string { return ChecksumExt }

// AddPackage runs the checksum extraction pass for one package version.
//
// The filesystem pass produces the sidecar listing if it does not already
// exist. The index pass persists the listing only when the version has no
// checksum rows yet: rows are inserted in a single transaction, so one
// existing row means an earlier pass already completed and the whole pass
// is a no-op. Re-running over an unchanged version therefore performs
// zero additional writes.
func (p *ChecksumPlugin) AddPackage(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error {
	p.logger.Debug("checksums.add", "package", pkg.Name, "version", pkg.Version)
	sumsFile := SumsPath(pkgdir)

	if p.cfg.PassEnabled(PassFS) {
		if _, err := os.Stat(sumsFile); os.IsNotExist(err) {
			start := time.Now()
			sums, err := p.computeSums(pkgdir)
			if err != nil {
				return err
			}
			if err := WriteSumsFile(sumsFile, sums); err != nil {
				return err
			}
			ingMetrics.observeHash(time.Since(start), len(sums))
			ingMetrics.sidecarWritten()
		} else if err != nil {
			return fmt.Errorf("stat sums file: %w", err)
		} else {
			ingMetrics.sidecarReused()
		}
	}

	if p.cfg.PassEnabled(PassDB) {
		version, err := store.GetVersion(ctx, pkg.Name, pkg.Version)
		if err != nil {
			return err
		}
		has, err := store.HasChecksums(ctx, version.ID)
		if err != nil {
			return err
		}
		if has {
			p.logger.Debug("checksums.add.skip", "package", pkg.Name, "version", pkg.Version)
			ingMetrics.versionSkipped()
			return nil
		}

		sums, err := ParseSumsFile(sumsFile)
		if err != nil {
			return err
		}
		start := time.Now()
		inserted, err := store.AddChecksums(ctx, version.ID, sums)
		if err != nil {
			return err
		}
		ingMetrics.observePersist(time.Since(start), inserted)
		p.logger.Info("checksums.add.done",
			"package", pkg.Name, "version", pkg.Version,
			"files", len(sums), "rows", inserted)
	}
	return nil
}

// RemovePackage deletes the sidecar listing if present and every checksum
// row of the version.
func (p *ChecksumPlugin) RemovePackage(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error {
	p.logger.Debug("checksums.remove", "package", pkg.Name, "version", pkg.Version)

	if p.cfg.PassEnabled(PassFS) {
		sumsFile := SumsPath(pkgdir)
		if err := os.Remove(sumsFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove sums file: %w", err)
		}
	}

	if p.cfg.PassEnabled(PassDB) {
		version, err := store.GetVersion(ctx, pkg.Name, pkg.Version)
		if err != nil {
			return err
		}
		deleted, err := store.DeleteChecksums(ctx, version.ID)
		if err != nil {
			return err
		}
		ingMetrics.rowsDeleted(deleted)
		p.logger.Info("checksums.remove.done",
			"package", pkg.Name, "version", pkg.Version, "rows", deleted)
	}
	return nil
}

// computeSums walks the package tree and hashes each regular file.
func (p *ChecksumPlugin) computeSums(pkgdir string) ([]index.FileSum, error) {
	files, err := WalkPackageFiles(pkgdir, p.cfg.Excludes)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", pkgdir, err)
	}
	sums := make([]index.FileSum, 0, len(files))
	for _, rel := range files {
		digest, err := FileDigest(filepath.Join(pkgdir, rel))
		if err != nil {
			return nil, err
		}
		sums = append(sums, index.FileSum{Path: []byte(rel), SHA256: digest})
	}
	return sums, nil
}
