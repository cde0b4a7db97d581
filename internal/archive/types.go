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

package archive

import (
	"time"

	"julesfs/internal/storage"
)

// Item is the record returned for a file or folder.
type Item struct {
	ID       string
	Path     string
	Name     string
	IsFolder bool
	// Size, MimeType and ContentToken are zero for folders. ContentToken is
	// an opaque reference into the blob store; the archive never inspects it.
	Size         int64
	MimeType     string
	ContentToken string
	CreatedOn    time.Time
	CreatedBy    string
}

// FileDescriptor carries the metadata of a file to be created. The bytes
// themselves live in the blob store, addressed by ContentToken.
type FileDescriptor struct {
	Name         string
	MimeType     string
	Size         int64
	ContentToken string
}

// KindFilter selects which item kinds a listing returns.
type KindFilter int

const (
	KindBoth KindFilter = iota
	KindFoldersOnly
	KindFilesOnly
)

// isFolder maps the filter to the nullable boolean shape the storage
// queries take.
func (k KindFilter) isFolder() *bool {
	switch k {
	case KindFoldersOnly:
		t := true
		return &t
	case KindFilesOnly:
		f := false
		return &f
	default:
		return nil
	}
}

func itemFromModel(m *storage.ItemModel, meta *storage.FileMetadataModel) Item {
	it := Item{
		ID:        m.ID,
		Path:      m.Path,
		Name:      m.Name,
		IsFolder:  m.IsFolder,
		CreatedOn: time.Unix(m.CreatedOn, 0),
		CreatedBy: m.CreatedBy,
	}
	if meta != nil {
		it.Size = meta.Size
		it.MimeType = meta.MimeType
		it.ContentToken = meta.ContentToken
	}
	return it
}

func itemFromRow(r storage.ItemRow) Item {
	return Item{
		ID:           r.ID,
		Path:         r.Path,
		Name:         r.Name,
		IsFolder:     r.IsFolder,
		Size:         r.Size,
		MimeType:     r.MimeType,
		ContentToken: r.ContentToken,
		CreatedOn:    time.Unix(r.CreatedOn, 0),
		CreatedBy:    r.CreatedBy,
	}
}
