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
	"github.com/uptrace/bun"
)

// Bun ORM models for the archive database tables.
// Times are stored as Unix timestamps.

// SchemaInfoModel represents the schema_info table
type SchemaInfoModel struct {
	bun.BaseModel `bun:"table:schema_info"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}

// ItemModel represents one file or folder row. Path is the canonical
// absolute identifier and is globally unique. ParentID is empty only for a
// per-user root folder.
type ItemModel struct {
	bun.BaseModel `bun:"table:items"`

	ID             string `bun:"id,pk"`
	Path           string `bun:"path,notnull"`
	Name           string `bun:"name,notnull"`
	IsFolder       bool   `bun:"is_folder,notnull"`
	ParentID       string `bun:"parent_id,nullzero"`
	FileMetadataID string `bun:"file_metadata_id,nullzero"`
	CreatedOn      int64  `bun:"created_on,notnull"`
	CreatedBy      string `bun:"created_by,notnull"`
}

// FileMetadataModel exists iff the owning item is a file.
type FileMetadataModel struct {
	bun.BaseModel `bun:"table:file_metadata"`

	ID           string `bun:"id,pk"`
	Size         int64  `bun:"size,notnull"`
	MimeType     string `bun:"mime_type,notnull"`
	ContentToken string `bun:"content_token,notnull"`
}

// PermissionModel grants one user a capability bitmask on one item.
type PermissionModel struct {
	bun.BaseModel `bun:"table:permissions"`

	ID        string `bun:"id,pk"`
	ItemID    string `bun:"item_id,notnull"`
	UserID    string `bun:"user_id,notnull"`
	Bitmask   int64  `bun:"permission_bitmask,notnull"`
	CreatedOn int64  `bun:"created_on,notnull"`
	CreatedBy string `bun:"created_by,notnull"`
}

// BlobModel represents one token-addressed byte payload.
type BlobModel struct {
	bun.BaseModel `bun:"table:blobs"`

	ID        string `bun:"id,pk"`
	Data      []byte `bun:"data,notnull"`
	Size      int64  `bun:"size,notnull"`
	MimeType  string `bun:"mime_type,notnull"`
	CreatedOn int64  `bun:"created_on,notnull"`
	CreatedBy string `bun:"created_by,notnull"`
}
