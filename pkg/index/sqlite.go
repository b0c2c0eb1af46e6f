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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// schema creates all index tables. Foreign keys carry no ON DELETE
// CASCADE on purpose: deletions are performed top-down by the store so
// the cascade behavior is visible in code and portable across engines.
const schema = `
CREATE TABLE IF NOT EXISTS packages (
	id      INTEGER PRIMARY KEY,
	name    TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS versions (
	id          INTEGER PRIMARY KEY,
	package_id  INTEGER NOT NULL REFERENCES packages(id),
	vnumber     TEXT NOT NULL,
	area        TEXT NOT NULL DEFAULT '',
	vcs_type    TEXT NOT NULL DEFAULT '',
	vcs_url     TEXT NOT NULL DEFAULT '',
	vcs_browser TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS ix_versions_package_vnumber
	ON versions(package_id, vnumber);

CREATE TABLE IF NOT EXISTS files (
	id         INTEGER PRIMARY KEY,
	version_id INTEGER NOT NULL REFERENCES versions(id),
	path       BLOB NOT NULL,
	UNIQUE (version_id, path)
);

CREATE TABLE IF NOT EXISTS checksums (
	id         INTEGER PRIMARY KEY,
	version_id INTEGER NOT NULL REFERENCES versions(id),
	file_id    INTEGER NOT NULL REFERENCES files(id),
	sha256     TEXT NOT NULL,
	UNIQUE (version_id, file_id)
);
CREATE INDEX IF NOT EXISTS ix_checksums_sha256 ON checksums(sha256);

CREATE TABLE IF NOT EXISTS suites (
	id         INTEGER PRIMARY KEY,
	version_id INTEGER NOT NULL REFERENCES versions(id),
	suite      TEXT NOT NULL,
	UNIQUE (version_id, suite)
);
`

// Config configures the embedded SQLite store.
type Config struct {
	// Path is the database file location. Parent directories are created
	// as needed. ":memory:" opens a throwaway in-memory database.
	Path string

	// Logger is optional; nil uses slog.Default().
	Logger *slog.Logger
}

// SQLiteStore is the embedded Store implementation, backed by a single
// SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if necessary) the index database and ensures the
// schema exists. The returned store is safe for concurrent use.
func Open(cfg Config) (*SQLiteStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("index: database path is required")
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	// SQLite supports one writer at a time; keep the pool at a single
	// connection so writes serialize in-process instead of failing with
	// SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Debug("store.open", "path", cfg.Path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the underlying database. Further calls on the store fail.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("index: store is closed")
	}
	return nil
}

// CreatePackage inserts a package row, returning the existing one when the
// name is already indexed.
func (s *SQLiteStore) CreatePackage(ctx context.Context, name string) (Package, error) {
	if err := s.checkOpen(); err != nil {
		return Package{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO packages (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return Package{}, fmt.Errorf("insert package: %w", err)
	}
	return s.GetPackage(ctx, name)
}

// GetPackage looks up a package by exact name.
func (s *SQLiteStore) GetPackage(ctx context.Context, name string) (Package, error) {
	if err := s.checkOpen(); err != nil {
		return Package{}, err
	}
	var p Package
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM packages WHERE name = ?`, name).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Package{}, &InvalidPackageOrVersionError{Package: name}
	}
	if err != nil {
		return Package{}, fmt.Errorf("get package: %w", err)
	}
	return p, nil
}

// DeletePackage removes a package and all of its child rows in one
// transaction. Deleting an unknown package is not an error.
func (s *SQLiteStore) DeletePackage(ctx context.Context, name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var pkgID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM packages WHERE name = ?`, name).Scan(&pkgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get package: %w", err)
	}

	if err := deleteVersionChildren(ctx, tx,
		`SELECT id FROM versions WHERE package_id = ?`, pkgID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM versions WHERE package_id = ?`, pkgID); err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, pkgID); err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	return tx.Commit()
}

// deleteVersionChildren removes checksum, file and suite rows for every
// version selected by the given query. Checksums go before files so the
// foreign keys stay satisfied at each step.
func deleteVersionChildren(ctx context.Context, tx *sql.Tx, versionQuery string, arg int64) error {
	for _, stmt := range []struct{ table, sql string }{
		{"checksums", `DELETE FROM checksums WHERE version_id IN (` + versionQuery + `)`},
		{"files", `DELETE FROM files WHERE version_id IN (` + versionQuery + `)`},
		{"suites", `DELETE FROM suites WHERE version_id IN (` + versionQuery + `)`},
	} {
		if _, err := tx.ExecContext(ctx, stmt.sql, arg); err != nil {
			return fmt.Errorf("delete %s: %w", stmt.table, err)
		}
	}
	return nil
}

// CreateVersion inserts a version of pkg, creating the package row when
// needed. An already-indexed (package, vnumber) pair is returned as-is.
func (s *SQLiteStore) CreateVersion(ctx context.Context, pkg string, v Version) (Version, error) {
	p, err := s.CreatePackage(ctx, pkg)
	if err != nil {
		return Version{}, err
	}
	if existing, err := s.GetVersion(ctx, pkg, v.VNumber); err == nil {
		return existing, nil
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO versions (package_id, vnumber, area, vcs_type, vcs_url, vcs_browser)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, v.VNumber, v.Area, v.VCSType, v.VCSURL, v.VCSBrowser)
	if err != nil {
		return Version{}, fmt.Errorf("insert version: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Version{}, fmt.Errorf("version id: %w", err)
	}
	v.ID = id
	v.PackageID = p.ID
	return v, nil
}

// GetVersion looks up one version by exact (package, vnumber).
func (s *SQLiteStore) GetVersion(ctx context.Context, pkg, vnumber string) (Version, error) {
	if err := s.checkOpen(); err != nil {
		return Version{}, err
	}
	var v Version
	err := s.db.QueryRowContext(ctx,
		`SELECT v.id, v.package_id, v.vnumber, v.area, v.vcs_type, v.vcs_url, v.vcs_browser
		 FROM versions v JOIN packages p ON p.id = v.package_id
		 WHERE p.name = ? AND v.vnumber = ?`, pkg, vnumber).
		Scan(&v.ID, &v.PackageID, &v.VNumber, &v.Area, &v.VCSType, &v.VCSURL, &v.VCSBrowser)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, &InvalidPackageOrVersionError{Package: pkg, Version: vnumber}
	}
	if err != nil {
		return Version{}, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// VersionsOf returns every indexed version of pkg.
func (s *SQLiteStore) VersionsOf(ctx context.Context, pkg string) ([]Version, error) {
	p, err := s.GetPackage(ctx, pkg)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, package_id, vnumber, area, vcs_type, vcs_url, vcs_browser
		 FROM versions WHERE package_id = ?`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.PackageID, &v.VNumber, &v.Area,
			&v.VCSType, &v.VCSURL, &v.VCSBrowser); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// DeleteVersion removes one version and its child rows in one
// transaction. Unknown versions are not an error.
func (s *SQLiteStore) DeleteVersion(ctx context.Context, pkg, vnumber string) error {
	v, err := s.GetVersion(ctx, pkg, vnumber)
	if err != nil {
		var invalid *InvalidPackageOrVersionError
		if errors.As(err, &invalid) {
			return nil
		}
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteVersionChildren(ctx, tx, `SELECT ?`, v.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM versions WHERE id = ?`, v.ID); err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	return tx.Commit()
}

// AreaOf returns the area recorded for (pkg, vnumber).
func (s *SQLiteStore) AreaOf(ctx context.Context, pkg, vnumber string) (string, error) {
	v, err := s.GetVersion(ctx, pkg, vnumber)
	if err != nil {
		return "", err
	}
	return v.Area, nil
}

// CreateFiles inserts file rows for a version in one transaction. Paths
// already present are left untouched.
func (s *SQLiteStore) CreateFiles(ctx context.Context, versionID int64, paths [][]byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO files (version_id, path) VALUES (?, ?)
		 ON CONFLICT(version_id, path) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range paths {
		if _, err := stmt.ExecContext(ctx, versionID, p); err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
	}
	return tx.Commit()
}

// FileByPath looks up the file row for (version, path).
func (s *SQLiteStore) FileByPath(ctx context.Context, versionID int64, path []byte) (File, bool, error) {
	if err := s.checkOpen(); err != nil {
		return File{}, false, err
	}
	f := File{VersionID: versionID, Path: path}
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM files WHERE version_id = ? AND path = ?`, versionID, path).Scan(&f.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return File{}, false, nil
	}
	if err != nil {
		return File{}, false, fmt.Errorf("get file: %w", err)
	}
	return f, true, nil
}

// HasChecksums reports whether any checksum row exists for the version.
//
// AddChecksums writes all of a version's checksums inside one
// transaction, so a single existing row implies the version was fully
// processed by an earlier pass.
func (s *SQLiteStore) HasChecksums(ctx context.Context, versionID int64) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM checksums WHERE version_id = ? LIMIT 1`, versionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check checksums: %w", err)
	}
	return true, nil
}

// AddChecksums links each sum to its file row and inserts all resulting
// checksum rows in a single transaction. Sums whose path has no file row
// are skipped.
func (s *SQLiteStore) AddChecksums(ctx context.Context, versionID int64, sums []FileSum) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	lookup, err := tx.PrepareContext(ctx,
		`SELECT id FROM files WHERE version_id = ? AND path = ?`)
	if err != nil {
		return 0, fmt.Errorf("prepare lookup: %w", err)
	}
	defer lookup.Close()

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO checksums (version_id, file_id, sha256) VALUES (?, ?, ?)
		 ON CONFLICT(version_id, file_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	inserted := 0
	for _, sum := range sums {
		var fileID int64
		err := lookup.QueryRowContext(ctx, versionID, sum.Path).Scan(&fileID)
		if errors.Is(err, sql.ErrNoRows) {
			continue // path not indexed as a file; nothing to link
		}
		if err != nil {
			return 0, fmt.Errorf("lookup file: %w", err)
		}
		if _, err := insert.ExecContext(ctx, versionID, fileID, sum.SHA256); err != nil {
			return 0, fmt.Errorf("insert checksum: %w", err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// DeleteChecksums removes all checksum rows of a version.
func (s *SQLiteStore) DeleteChecksums(ctx context.Context, versionID int64) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM checksums WHERE version_id = ?`, versionID)
	if err != nil {
		return 0, fmt.Errorf("delete checksums: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// findQuery is the equality join behind FindChecksum and CountChecksum.
const findQuery = `
	FROM checksums c
	JOIN files f    ON f.id = c.file_id
	JOIN versions v ON v.id = c.version_id
	JOIN packages p ON p.id = v.package_id
	WHERE c.sha256 = ?`

// FindChecksum returns every (package, version, path) whose file content
// digest equals digest, ordered by (package name, version string, path).
func (s *SQLiteStore) FindChecksum(ctx context.Context, digest string, opts FindOpts) ([]Result, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	query := `SELECT p.name, v.vnumber, f.path` + findQuery
	args := []any{digest}
	if opts.Package != "" {
		query += ` AND p.name = ?`
		args = append(args, opts.Package)
	}
	query += ` ORDER BY p.name, v.vnumber, f.path`
	if opts.Slice != nil {
		limit := opts.Slice.End - opts.Slice.Start
		if limit <= 0 {
			// Empty or inverted window. A negative LIMIT would mean
			// "unbounded" to SQLite.
			return nil, nil
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, opts.Slice.Start)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find checksum: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var path []byte
		if err := rows.Scan(&r.Package, &r.Version, &path); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Path = string(path)
		results = append(results, r)
	}
	return results, rows.Err()
}

// CountChecksum returns the unsliced result cardinality for digest.
func (s *SQLiteStore) CountChecksum(ctx context.Context, digest, pkg string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	query := `SELECT COUNT(*)` + findQuery
	args := []any{digest}
	if pkg != "" {
		query += ` AND p.name = ?`
		args = append(args, pkg)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count checksum: %w", err)
	}
	return count, nil
}

// DigestOf returns the recorded digest of one file, or "" when the file
// has no checksum row.
func (s *SQLiteStore) DigestOf(ctx context.Context, pkg, vnumber string, path []byte) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	var digest string
	err := s.db.QueryRowContext(ctx,
		`SELECT c.sha256
		 FROM checksums c
		 JOIN files f    ON f.id = c.file_id
		 JOIN versions v ON v.id = c.version_id
		 JOIN packages p ON p.id = v.package_id
		 WHERE p.name = ? AND v.vnumber = ? AND f.path = ?`,
		pkg, vnumber, path).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get digest: %w", err)
	}
	return digest, nil
}

// AddSuite records that a version is part of a suite. Duplicate mappings
// are ignored.
func (s *SQLiteStore) AddSuite(ctx context.Context, versionID int64, suite string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suites (version_id, suite) VALUES (?, ?)
		 ON CONFLICT(version_id, suite) DO NOTHING`, versionID, suite)
	if err != nil {
		return fmt.Errorf("insert suite: %w", err)
	}
	return nil
}

// SuitesFor returns the suites a version is part of, sorted.
func (s *SQLiteStore) SuitesFor(ctx context.Context, versionID int64) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT suite FROM suites WHERE version_id = ? ORDER BY suite`, versionID)
	if err != nil {
		return nil, fmt.Errorf("list suites: %w", err)
	}
	defer rows.Close()

	var suites []string
	for rows.Next() {
		var suite string
		if err := rows.Scan(&suite); err != nil {
			return nil, fmt.Errorf("scan suite: %w", err)
		}
		suites = append(suites, suite)
	}
	return suites, rows.Err()
}

// Stats returns row counts for all tables.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	if err := s.checkOpen(); err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, c := range []struct {
		table string
		dst   *int64
	}{
		{"packages", &stats.Packages},
		{"versions", &stats.Versions},
		{"files", &stats.Files},
		{"checksums", &stats.Checksums},
		{"suites", &stats.Suites},
	} {
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return stats, nil
}
