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

// Package manager composes the archive namespace and the blob store into
// the file-level operations the CLI consumes: upload, download, listing
// and delete with payload cleanup.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	log "github.com/sirupsen/logrus"

	"julesfs/internal/archive"
	"julesfs/internal/blob"
	"julesfs/internal/common"
	"julesfs/internal/security"
)

// FileContent is a named byte payload crossing the manager boundary.
type FileContent struct {
	FileName string
	MimeType string
	Data     []byte
}

// Manager drives the archive and the blob store as one unit.
type Manager struct {
	archive *archive.Archive
	blobs   *blob.Store
	log     *log.Entry
}

// New creates a Manager over the given archive and blob store.
func New(a *archive.Archive, blobs *blob.Store) *Manager {
	return &Manager{
		archive: a,
		blobs:   blobs,
		log:     log.WithField("component", "manager"),
	}
}

// CreateFile stores the payload in the blob store and creates the file item
// carrying its token. The MIME type is sniffed from the bytes when the
// caller does not supply one. When the target folder already exists the
// CreateFile bit is checked before any blob row is written; a missing
// folder is materialized (and authorized) inside the archive transaction,
// and the orphaned blob is cleaned up if that fails.
func (m *Manager) CreateFile(ctx context.Context, user security.User, folderPath string, fc FileContent) (archive.Item, error) {
	ok, err := m.archive.HasPrivilege(ctx, user, folderPath, security.PermCreateFile)
	switch {
	case errors.Is(err, common.ErrNotFound):
		// Folder not materialized yet; the archive decides below.
	case err != nil:
		return archive.Item{}, err
	case !ok:
		return archive.Item{}, fmt.Errorf("create file in %s: %w", folderPath, common.ErrUnauthorized)
	}

	mime := fc.MimeType
	if mime == "" {
		mime = mimetype.Detect(fc.Data).String()
	}

	token, err := m.blobs.Create(ctx, user, fc.Data, mime)
	if err != nil {
		return archive.Item{}, fmt.Errorf("store payload: %w", err)
	}

	item, err := m.archive.CreateFile(ctx, user, folderPath, archive.FileDescriptor{
		Name:         fc.FileName,
		MimeType:     mime,
		Size:         int64(len(fc.Data)),
		ContentToken: token,
	})
	if err != nil {
		if derr := m.blobs.Delete(ctx, token); derr != nil {
			m.log.WithError(derr).Warn("orphaned blob not cleaned up")
		}
		return archive.Item{}, err
	}
	return item, nil
}

// CreateFolder creates the folder, materializing missing ancestors.
func (m *Manager) CreateFolder(ctx context.Context, user security.User, path string) (archive.Item, error) {
	return m.archive.CreateFolder(ctx, user, path)
}

// Download returns the payload of the file at the path. Folders cannot be
// downloaded.
func (m *Manager) Download(ctx context.Context, user security.User, path string) (FileContent, error) {
	item, err := m.archive.GetFile(ctx, user, path)
	if err != nil {
		return FileContent{}, err
	}
	b, err := m.blobs.Read(ctx, item.ContentToken)
	if err != nil {
		return FileContent{}, fmt.Errorf("payload of %s: %w", item.Path, err)
	}
	return FileContent{
		FileName: item.Name,
		MimeType: b.MimeType,
		Data:     b.Data,
	}, nil
}

// ListItems enumerates the subtree below folderPath, both kinds, sorted by
// canonical path.
func (m *Manager) ListItems(ctx context.Context, user security.User, folderPath string) ([]archive.Item, error) {
	items, err := m.archive.ListChildren(ctx, user, folderPath, archive.KindBoth)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// Stat returns the item at the path, file or folder.
func (m *Manager) Stat(ctx context.Context, user security.User, path string) (archive.Item, error) {
	item, err := m.archive.GetFile(ctx, user, path)
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInvalidItemKind) {
		return m.archive.GetFolder(ctx, user, path)
	}
	return item, err
}

// Delete removes the item (and, for a folder, its whole subtree) from the
// namespace, then deletes the payloads of the files that went with it.
// Payload cleanup runs after the namespace transaction commits and is best
// effort: a failure leaves unreferenced blob rows, never a broken
// namespace.
func (m *Manager) Delete(ctx context.Context, user security.User, path string) error {
	tokens, err := m.collectTokens(ctx, user, path)
	if err != nil {
		return err
	}

	if err := m.archive.Delete(ctx, user, path); err != nil {
		return err
	}

	if err := m.blobs.BulkDelete(ctx, tokens); err != nil {
		m.log.WithError(err).WithField("path", path).Warn("payloads of deleted subtree not cleaned up")
	}
	return nil
}

// collectTokens gathers the content tokens the delete will orphan. A file
// the caller cannot read still gets deleted; only its payload lingers.
func (m *Manager) collectTokens(ctx context.Context, user security.User, path string) ([]string, error) {
	item, err := m.archive.GetFile(ctx, user, path)
	switch {
	case err == nil:
		return []string{item.ContentToken}, nil
	case errors.Is(err, common.ErrInvalidItemKind) || errors.Is(err, common.ErrNotFound):
		files, err := m.archive.ListChildren(ctx, user, path, archive.KindFilesOnly)
		if err != nil {
			return nil, err
		}
		tokens := make([]string, 0, len(files))
		for _, f := range files {
			tokens = append(tokens, f.ContentToken)
		}
		return tokens, nil
	case errors.Is(err, common.ErrUnauthorized):
		return nil, nil
	default:
		return nil, err
	}
}
