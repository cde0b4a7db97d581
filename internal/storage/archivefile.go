// Copyright 2025 JulesFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
	_ "github.com/tursodatabase/go-libsql"
)

// ArchiveFile is a SQLite-backed archive database file.
type ArchiveFile struct {
	path string
	db   *sql.DB
	adb  *ArchiveDB
}

// execPragma runs a PRAGMA statement using Query (not Exec) because libsql
// returns rows for PRAGMA statements. The result rows are drained and closed.
func execPragma(db *sql.DB, pragma string) error {
	rows, err := db.Query(pragma)
	if err != nil {
		return err
	}
	return rows.Close()
}

// applyPragmas sets essential PRAGMAs after opening a libsql connection.
// libsql ignores DSN-based _pragma=value parameters, so all PRAGMAs must be
// set explicitly via SQL statements after the connection is opened.
func applyPragmas(db *sql.DB) error {
	// Busy timeout first: journal_mode=WAL below needs exclusive access and
	// must wait for locks instead of failing with "database is locked".
	if err := execPragma(db, fmt.Sprintf("PRAGMA busy_timeout = %d", GetBusyTimeout())); err != nil {
		return fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if err := execPragma(db, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to set journal_mode=WAL: %w", err)
	}
	// WAL with NORMAL sync is safe against process crashes; avoids an fsync
	// on every commit.
	if err := execPragma(db, "PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous=NORMAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

// execStatements executes a multi-statement SQL script one statement at a
// time for libsql compatibility. Args are applied to statements containing
// placeholders, in order.
func execStatements(db *sql.DB, script string, args ...any) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		var stmtArgs []any
		for n := strings.Count(stmt, "?"); n > 0 && len(args) > 0; n-- {
			stmtArgs = append(stmtArgs, args[0])
			args = args[1:]
		}
		if _, err := db.Exec(stmt, stmtArgs...); err != nil {
			return fmt.Errorf("statement %q: %w", stmt, err)
		}
	}
	return nil
}

// Create creates a new archive file. Creation is guarded by a sibling lock
// file so two processes initializing the same path do not interleave schema
// statements.
func Create(path string) (*ArchiveFile, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file already exists: %s", path)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(path + ".lock")
	}()

	// Re-check under the lock: a concurrent creator may have won.
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file already exists: %s", path)
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		os.Remove(path)
		return nil, err
	}

	if err := execStatements(db, archiveSchema); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := execStatements(db, initSchemaInfo, SchemaVersion); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to initialize schema info: %w", err)
	}

	return &ArchiveFile{path: path, db: db, adb: NewArchiveDB(db)}, nil
}

// Open opens an existing archive file.
func Open(path string) (*ArchiveFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	adb := NewArchiveDB(db)
	fileType, err := adb.GetSchemaInfo(context.Background(), "type")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema info: %w", err)
	}
	if fileType != "archive" {
		db.Close()
		return nil, fmt.Errorf("not an archive file (type=%s)", fileType)
	}

	return &ArchiveFile{path: path, db: db, adb: adb}, nil
}

// OpenOrCreate opens the archive at path, creating it if absent.
func OpenOrCreate(path string) (*ArchiveFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Create(path)
	}
	return Open(path)
}

// Path returns the file path of the archive.
func (f *ArchiveFile) Path() string { return f.path }

// DB returns the underlying *sql.DB.
func (f *ArchiveFile) DB() *sql.DB { return f.db }

// ArchiveDB returns the bun query layer.
func (f *ArchiveFile) ArchiveDB() *ArchiveDB { return f.adb }

// Close closes the underlying database.
func (f *ArchiveFile) Close() error {
	return f.db.Close()
}
