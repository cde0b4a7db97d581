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

// Package storage persists the archive item graph, its permission rows and
// the blob table in a single SQLite file accessed through bun.
package storage

import (
	"os"
	"strconv"
)

const SchemaVersion = "1"

// Default busy_timeout in milliseconds (30 seconds)
const DefaultBusyTimeout = 30000

// EnvBusyTimeout overrides the SQLite busy_timeout for all connections.
const EnvBusyTimeout = "JULESFS_BUSY_TIMEOUT"

// GetBusyTimeout returns the busy_timeout to apply, preferring the
// environment override.
func GetBusyTimeout() int {
	if val := os.Getenv(EnvBusyTimeout); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil && timeout > 0 {
			return timeout
		}
	}
	return DefaultBusyTimeout
}

// Schema SQL for an archive file. The unique index on items.path is the
// concurrency backstop: two transactions racing to materialize the same
// canonical path resolve to exactly one winner at commit.
const archiveSchema = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Files and folders, keyed by canonical absolute path
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    name TEXT NOT NULL,
    is_folder INTEGER NOT NULL,
    parent_id TEXT,
    file_metadata_id TEXT,
    created_on INTEGER NOT NULL,
    created_by TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_path ON items(path);
CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);

-- One row per file item, none for folders
CREATE TABLE IF NOT EXISTS file_metadata (
    id TEXT PRIMARY KEY,
    size INTEGER NOT NULL DEFAULT 0,
    mime_type TEXT NOT NULL DEFAULT '',
    content_token TEXT NOT NULL DEFAULT ''
);

-- Per-user capability bitmask on one item
CREATE TABLE IF NOT EXISTS permissions (
    id TEXT PRIMARY KEY,
    item_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    permission_bitmask INTEGER NOT NULL,
    created_on INTEGER NOT NULL,
    created_by TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_permissions_item_user ON permissions(item_id, user_id);
CREATE INDEX IF NOT EXISTS idx_permissions_user ON permissions(user_id);

-- Token-addressed raw byte storage (blob collaborator)
CREATE TABLE IF NOT EXISTS blobs (
    id TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    mime_type TEXT NOT NULL DEFAULT '',
    created_on INTEGER NOT NULL,
    created_by TEXT NOT NULL
);
`

// Initialization statements run once at archive creation.
const initSchemaInfo = `
INSERT INTO schema_info (key, value) VALUES ('type', 'archive');
INSERT INTO schema_info (key, value) VALUES ('version', ?);
`
