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

// Package archive implements the hierarchical virtual namespace over the
// flat item store: canonical path resolution, lazy ancestor
// materialization, bitflag authorization, owner bootstrap on creation,
// cascading subtree delete and ACL-filtered child enumeration.
//
// Every operation runs in exactly one database transaction. Planned items
// staged during an operation become visible to other transactions only when
// that transaction commits; an authorization failure anywhere in the chain
// discards the whole staged batch.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"julesfs/internal/common"
	"julesfs/internal/security"
	"julesfs/internal/storage"
)

// Archive is the namespace and authorization engine.
type Archive struct {
	db  *storage.ArchiveDB
	log *log.Entry
}

// New creates an Archive over the given store.
func New(db *storage.ArchiveDB) *Archive {
	return &Archive{
		db:  db,
		log: log.WithField("component", "archive"),
	}
}

// CreateFile creates a file item in the given folder, materializing any
// missing ancestor folders. The acting user needs the CreateFile bit on the
// resolved parent. Fails with common.ErrConflict if the computed canonical
// path is already occupied.
func (a *Archive) CreateFile(ctx context.Context, user security.User, folderPath string, fd FileDescriptor) (Item, error) {
	name := strings.Trim(fd.Name, "/")
	if name == "" {
		return Item{}, fmt.Errorf("empty file name: %w", common.ErrInvalidPath)
	}

	folder, err := canonicalFolder(folderPath)
	if err != nil {
		return Item{}, err
	}
	filePath := common.BuildPath(folder, name, false)

	var created Item
	err = a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		st := newStage(a.db, tx, user)

		exists, err := a.db.ItemExistsWith(tx, ctx, filePath)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("create file %s: %w", filePath, common.ErrConflict)
		}

		parent, err := st.ensureAncestor(ctx, folder)
		if err != nil {
			return err
		}
		ok, err := st.hasPrivilege(ctx, parent, security.PermCreateFile)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("create file in %s requires %s: %w",
				folder, security.PermCreateFile, common.ErrUnauthorized)
		}

		leaf := st.plan(filePath, name, false, parent)
		leaf.meta = newFileMetadata(fd)

		if err := st.commit(ctx); err != nil {
			return err
		}
		created = itemFromModel(leaf.item, leaf.meta)
		return nil
	})
	if err != nil {
		return Item{}, err
	}

	a.log.WithFields(log.Fields{"path": created.Path, "user": user.Name}).Debug("file created")
	return created, nil
}

// CreateFolder creates a folder at the given path, materializing missing
// ancestors. Idempotent: if the folder already exists it is returned
// unchanged and no authorization check runs.
func (a *Archive) CreateFolder(ctx context.Context, user security.User, path string) (Item, error) {
	folder, err := canonicalFolder(path)
	if err != nil {
		return Item{}, err
	}
	if common.IsRoot(folder) {
		return Item{}, fmt.Errorf("namespace root is not a folder item: %w", common.ErrInvalidPath)
	}

	var created Item
	err = a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		st := newStage(a.db, tx, user)

		n, err := st.ensureAncestor(ctx, folder)
		if err != nil {
			return err
		}
		if !n.planned {
			// Already persisted: nothing to commit.
			created = itemFromModel(n.item, nil)
			return nil
		}
		if err := st.commit(ctx); err != nil {
			return err
		}
		created = itemFromModel(n.item, nil)
		return nil
	})
	if err != nil {
		return Item{}, err
	}

	a.log.WithFields(log.Fields{"path": created.Path, "user": user.Name}).Debug("folder ensured")
	return created, nil
}

// GetFile returns the file item at the path. Fails with ErrNotFound if
// absent, ErrInvalidItemKind if the path names a folder, ErrUnauthorized
// without the Read bit.
func (a *Archive) GetFile(ctx context.Context, user security.User, path string) (Item, error) {
	canonical, err := common.Canonicalize(path)
	if err != nil {
		return Item{}, err
	}

	item, err := a.db.GetItemByPath(ctx, canonical)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Item{}, fmt.Errorf("file %s: %w", canonical, common.ErrNotFound)
		}
		return Item{}, err
	}
	if item.IsFolder {
		return Item{}, fmt.Errorf("%s is a folder, not a file: %w", canonical, common.ErrInvalidItemKind)
	}
	if err := a.requirePrivilege(ctx, user, item, security.PermRead); err != nil {
		return Item{}, err
	}

	var meta *storage.FileMetadataModel
	if item.FileMetadataID != "" {
		if meta, err = a.db.GetFileMetadata(ctx, item.FileMetadataID); err != nil {
			return Item{}, err
		}
	}
	return itemFromModel(item, meta), nil
}

// GetFolder returns the folder item at the path. Fails with ErrNotFound if
// absent, ErrInvalidItemKind if the path names a file, ErrUnauthorized
// without the Read bit.
func (a *Archive) GetFolder(ctx context.Context, user security.User, path string) (Item, error) {
	canonical, err := canonicalFolder(path)
	if err != nil {
		return Item{}, err
	}

	item, err := a.db.GetItemByPath(ctx, canonical)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Item{}, fmt.Errorf("folder %s: %w", canonical, common.ErrNotFound)
		}
		return Item{}, err
	}
	if !item.IsFolder {
		return Item{}, fmt.Errorf("%s is a file, not a folder: %w", canonical, common.ErrInvalidItemKind)
	}
	if err := a.requirePrivilege(ctx, user, item, security.PermRead); err != nil {
		return Item{}, err
	}
	return itemFromModel(item, nil), nil
}

// HasPrivilege reports whether the user holds the flag on the item at the
// path. Fails with ErrNotFound if no item exists there.
func (a *Archive) HasPrivilege(ctx context.Context, user security.User, path string, flag security.Permission) (bool, error) {
	item, err := a.resolveItem(ctx, path)
	if err != nil {
		return false, err
	}
	if user.IsAdmin() {
		return true, nil
	}
	return a.db.HasPermissionWith(a.db.DB, ctx, item.ID, user.ID, int64(flag))
}

// Delete removes the item at the path together with its whole descendant
// subtree and every permission row referencing any of them, in one
// transaction. The Delete bit is required on the subtree root only.
func (a *Archive) Delete(ctx context.Context, user security.User, path string) error {
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		item, err := a.resolveItemWith(tx, ctx, path)
		if err != nil {
			return err
		}
		if !user.IsAdmin() {
			ok, err := a.db.HasPermissionWith(tx, ctx, item.ID, user.ID, int64(security.PermDelete))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("delete %s requires %s: %w",
					item.Path, security.PermDelete, common.ErrUnauthorized)
			}
		}

		subtree := []storage.ItemModel{*item}
		if item.IsFolder {
			if subtree, err = a.db.ListSubtreeWith(tx, ctx, item.Path); err != nil {
				return err
			}
		}

		itemIDs := make([]string, 0, len(subtree))
		var metadataIDs []string
		for _, it := range subtree {
			itemIDs = append(itemIDs, it.ID)
			if it.FileMetadataID != "" {
				metadataIDs = append(metadataIDs, it.FileMetadataID)
			}
		}
		return a.db.DeleteSubtreeWith(tx, ctx, itemIDs, metadataIDs)
	})
	if err != nil {
		return err
	}

	a.log.WithFields(log.Fields{"path": path, "user": user.Name}).Debug("subtree deleted")
	return nil
}

// ListChildren enumerates every item in the subtree below parentPath
// (path-prefix match at any depth, not one hierarchy level), filtered by
// kind. Admin callers see everything; regular callers only the items on
// which they hold the Read bit. No ordering is guaranteed.
func (a *Archive) ListChildren(ctx context.Context, user security.User, parentPath string, kind KindFilter) ([]Item, error) {
	prefix, err := canonicalFolder(parentPath)
	if err != nil {
		return nil, err
	}

	var rows []storage.ItemRow
	if user.IsAdmin() {
		rows, err = a.db.ListItemsByPrefix(ctx, prefix, kind.isFolder())
	} else {
		rows, err = a.db.ListItemsByPrefixForUser(ctx, prefix, kind.isFolder(), user.ID, int64(security.PermRead))
	}
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, itemFromRow(r))
	}
	return items, nil
}

// requirePrivilege checks a persisted item against the gate and wraps the
// refusal with path and flag.
func (a *Archive) requirePrivilege(ctx context.Context, user security.User, item *storage.ItemModel, flag security.Permission) error {
	if user.IsAdmin() {
		return nil
	}
	ok, err := a.db.HasPermissionWith(a.db.DB, ctx, item.ID, user.ID, int64(flag))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s on %s: %w", flag, item.Path, common.ErrUnauthorized)
	}
	return nil
}

// resolveItem loads the item at the canonical path. A path given without a
// trailing separator also matches a folder at the same location, so callers
// of Delete and HasPrivilege need not know the item kind up front.
func (a *Archive) resolveItem(ctx context.Context, path string) (*storage.ItemModel, error) {
	return a.resolveItemWith(a.db.DB, ctx, path)
}

func (a *Archive) resolveItemWith(idb bun.IDB, ctx context.Context, path string) (*storage.ItemModel, error) {
	canonical, err := common.Canonicalize(path)
	if err != nil {
		return nil, err
	}
	item, err := a.db.GetItemByPathWith(idb, ctx, canonical)
	if errors.Is(err, common.ErrNotFound) && !common.IsFolderPath(canonical) {
		item, err = a.db.GetItemByPathWith(idb, ctx, canonical+"/")
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("item %s: %w", canonical, common.ErrNotFound)
	}
	return item, err
}

// canonicalFolder canonicalizes a path and forces the folder form.
func canonicalFolder(path string) (string, error) {
	canonical, err := common.Canonicalize(path)
	if err != nil {
		return "", err
	}
	if !common.IsFolderPath(canonical) {
		canonical += "/"
	}
	return canonical, nil
}

func newFileMetadata(fd FileDescriptor) *storage.FileMetadataModel {
	return &storage.FileMetadataModel{
		ID:           uuid.NewString(),
		Size:         fd.Size,
		MimeType:     fd.MimeType,
		ContentToken: fd.ContentToken,
	}
}
