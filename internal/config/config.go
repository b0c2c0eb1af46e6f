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

// Package config loads and saves the srcdex configuration file.
//
// The file lives at .srcdex/config.yaml relative to the working
// directory, created by 'srcdex init' and read by every other command.
// A --config flag can point at a different path.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultWorkers is the ingestion pool size used when the file does not
// set one.
const DefaultWorkers = 4

// Config is the on-disk configuration of a srcdex deployment.
type Config struct {
	// DBPath is the SQLite index database file.
	DBPath string `yaml:"db_path"`

	// SourcesDir is the root of the extracted source archive:
	// <area>/<prefix>/<package>/<version> trees.
	SourcesDir string `yaml:"sources_dir"`

	// StaticDir is the public serving prefix mapped onto SourcesDir,
	// used to build raw links.
	StaticDir string `yaml:"static_dir"`

	// CacheDir holds derived artifacts such as the pkg-prefixes list.
	CacheDir string `yaml:"cache_dir"`

	// Passes restricts which ingestion passes run. Empty means all.
	Passes []string `yaml:"passes,omitempty"`

	// Workers bounds ingestion concurrency.
	Workers int `yaml:"workers"`

	// Excludes are glob patterns for paths skipped during walks.
	Excludes []string `yaml:"excludes,omitempty"`
}

// Default returns the configuration 'srcdex init' writes when the user
// accepts every default, rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		DBPath:     filepath.Join(dataDir, "srcdex.db"),
		SourcesDir: filepath.Join(dataDir, "sources"),
		StaticDir:  "/data/sources",
		CacheDir:   filepath.Join(dataDir, "cache"),
		Workers:    DefaultWorkers,
	}
}

// Path returns the configuration file location under dir.
func Path(dir string) string {
	return filepath.Join(dir, ".srcdex", "config.yaml")
}

// Load reads and validates the configuration at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.SourcesDir == "" {
		return fmt.Errorf("sources_dir is required")
	}
	return nil
}
