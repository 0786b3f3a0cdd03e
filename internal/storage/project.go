/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "preworkbench/internal/log"
	"preworkbench/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// ProjectDBFileName is the fixed name of the database file inside a project
// directory. Its presence marks a directory as a project.
const ProjectDBFileName = ".pre_workbench"

// ProjectDBPath returns the full path of the project database file for a
// project directory.
func ProjectDBPath(dir string) string {
	return filepath.Join(dir, ProjectDBFileName)
}

// IsProjectDir reports whether dir already contains a project database file.
func IsProjectDir(dir string) bool {
	fi, err := os.Stat(ProjectDBPath(dir))
	return err == nil && fi.Mode().IsRegular()
}

// Project is a handle to one open project. It owns the database connection
// exclusively; the connection lives until Close. All methods are direct,
// synchronous database calls.
type Project struct {
	Dir    string
	DBPath string
	db     *sql.DB
}

// Open opens (creating if absent) the project database inside dir, ensures
// the schema exists and probes the file for corruption. dir must be an
// existing directory.
func Open(dir string) (*Project, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "project_open").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: project directory is required", ErrStorageUnavailable)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		l.Error("stat project dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStorageUnavailable, dir)
	}

	path := ProjectDBPath(dir)
	// Convert to forward slashes for the SQLite URI and set a busy timeout so
	// a transiently locked file fails late instead of immediately.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrStorageUnavailable, err)
	}
	// Single connection for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		// A pre-existing non-empty file that rejects the first statement is a
		// corrupt database, not an environment problem.
		if fi, serr := os.Stat(path); serr == nil && fi.Size() > 0 {
			return nil, fmt.Errorf("%w: enable WAL: %v", ErrStorageCorrupt, err)
		}
		return nil, fmt.Errorf("%w: enable WAL: %v", ErrStorageUnavailable, err)
	}

	// quick_check distinguishes a corrupt file from an unopenable one.
	var chk string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check;").Scan(&chk); err != nil {
		_ = db.Close()
		l.Error("quick_check failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: quick_check: %v", ErrStorageCorrupt, err)
	}
	if !strings.Contains(strings.ToLower(chk), "ok") {
		_ = db.Close()
		l.Error("quick_check reported corruption", slog.String("result", chk))
		return nil, fmt.Errorf("%w: quick_check: %s", ErrStorageCorrupt, chk)
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("project open", slog.String("db", path))
	return &Project{Dir: dir, DBPath: path, db: db}, nil
}

// Close releases the database connection. The handle must not be used afterwards.
func (p *Project) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// RelativePath returns absolutePath relative to the project directory. Paths
// outside the project directory are returned unchanged, so stored references
// stay portable for files inside the project and exact for files elsewhere.
func (p *Project) RelativePath(absolutePath string) string {
	rel, err := filepath.Rel(p.Dir, absolutePath)
	if err != nil {
		return absolutePath
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return absolutePath
	}
	return rel
}

// ensureSchema creates the project tables if they do not exist and records
// the application version in the meta table.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS annotations (
			rowid    INTEGER PRIMARY KEY,
			set_name TEXT    NOT NULL,
			start    INTEGER NOT NULL,
			end      INTEGER NOT NULL,
			meta     TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_set ON annotations(set_name);`,
		`CREATE TABLE IF NOT EXISTS options (
			name  TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: create table: %v", ErrStorageCorrupt, err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO meta (key, value) VALUES ('created_at', ?)`, now); err != nil {
		return fmt.Errorf("%w: seed meta: %v", ErrStorageCorrupt, err)
	}
	if _, err := db.ExecContext(ctx, `REPLACE INTO meta (key, value) VALUES ('app_version', ?)`, version.String()); err != nil {
		return fmt.Errorf("%w: update meta: %v", ErrStorageCorrupt, err)
	}
	return nil
}

// CreatedAt returns the timestamp recorded when the project database was
// first created, or the zero time when the meta row is missing.
func (p *Project) CreatedAt(ctx context.Context) (time.Time, error) {
	var s string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='created_at'`).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: read meta: %v", ErrStorageCorrupt, err)
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, nil
	}
	return ts, nil
}
