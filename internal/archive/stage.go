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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"julesfs/internal/common"
	"julesfs/internal/security"
	"julesfs/internal/storage"
)

// node is one item visible to a transaction: either a persisted row loaded
// from the store, or a planned item staged in memory. Parent/child links are
// expressed as node references resolved through the stage, never as object
// cycles.
type node struct {
	item    *storage.ItemModel
	meta    *storage.FileMetadataModel
	parent  *node // nil only for a per-user root folder
	planned bool
}

// stage is the in-memory staging area of one archive transaction. Planned
// items are invisible to other transactions until commit; within this
// transaction they satisfy existence and authorization checks.
type stage struct {
	db   *storage.ArchiveDB
	tx   bun.Tx
	user security.User

	// planned nodes in creation order; ancestors always precede descendants
	nodes  []*node
	byPath map[string]*node
}

func newStage(db *storage.ArchiveDB, tx bun.Tx, user security.User) *stage {
	return &stage{
		db:     db,
		tx:     tx,
		user:   user,
		byPath: make(map[string]*node),
	}
}

// lookup returns the node at the canonical path, consulting planned items
// first and the store second. Returns common.ErrNotFound when neither holds
// an item there.
func (st *stage) lookup(ctx context.Context, path string) (*node, error) {
	if n, ok := st.byPath[path]; ok {
		return n, nil
	}
	item, err := st.db.GetItemByPathWith(st.tx, ctx, path)
	if err != nil {
		return nil, err
	}
	n := &node{item: item}
	st.byPath[path] = n
	return n, nil
}

// plan stages a new folder or file item under the given parent.
func (st *stage) plan(path, name string, isFolder bool, parent *node) *node {
	n := &node{
		item: &storage.ItemModel{
			ID:       uuid.NewString(),
			Path:     path,
			Name:     name,
			IsFolder: isFolder,
		},
		parent:  parent,
		planned: true,
	}
	st.nodes = append(st.nodes, n)
	st.byPath[path] = n
	return n
}

// ensureAncestor returns the item at the canonical folder path, lazily
// planning it and any missing ancestors. At the namespace root boundary
// only the acting user's own root folder (or any folder, for an admin) may
// be planned. Authorization is checked against an ancestor only if it was
// already persisted before this call: a folder planned earlier in the same
// chain is trusted by construction, because its own persisted parent was
// checked when it was planned.
func (st *stage) ensureAncestor(ctx context.Context, path string) (*node, error) {
	if common.IsRoot(path) {
		// The root boundary owns no item; only per-user roots live below it.
		return nil, fmt.Errorf("cannot create items at the namespace root: %w", common.ErrUnauthorized)
	}

	n, err := st.lookup(ctx, path)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	name := common.Leaf(path)
	parentPath := common.ParentPath(path)

	if common.IsRoot(parentPath) {
		if name != st.user.Name && !st.user.IsAdmin() {
			return nil, fmt.Errorf("cannot create root folder %s for user %s: %w",
				path, st.user.Name, common.ErrUnauthorized)
		}
		return st.plan(path, name, true, nil), nil
	}

	parent, err := st.ensureAncestor(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	if !parent.planned {
		ok, err := st.hasPrivilege(ctx, parent, security.PermCreateFolder)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("create folder under %s requires %s: %w",
				parent.item.Path, security.PermCreateFolder, common.ErrUnauthorized)
		}
	}
	return st.plan(path, name, true, parent), nil
}

// hasPrivilege is the authorization gate. Admins bypass every check;
// planned items are implicitly authorized for their creator (ownership is
// granted at commit); otherwise a permission row for (item, user) must
// intersect the requested flag. No side effects.
func (st *stage) hasPrivilege(ctx context.Context, n *node, flag security.Permission) (bool, error) {
	if st.user.IsAdmin() {
		return true, nil
	}
	if n.planned {
		return true, nil
	}
	return st.db.HasPermissionWith(st.tx, ctx, n.item.ID, st.user.ID, int64(flag))
}

// commit is the pre-commit pipeline. It runs over all planned items once,
// immediately before the enclosing transaction commits:
//
//  1. recompute each canonical path from the (possibly also planned) parent
//     chain, root to leaf;
//  2. stamp createdOn/createdBy and synthesize one Owner permission row per
//     new item for the acting user;
//  3. bulk-insert metadata, items and permissions.
//
// A canonical-path uniqueness violation surfaces as common.ErrConflict and
// aborts the transaction, so no row of the batch survives.
func (st *stage) commit(ctx context.Context) error {
	if len(st.nodes) == 0 {
		return nil
	}

	now := time.Now().Unix()
	items := make([]*storage.ItemModel, 0, len(st.nodes))
	perms := make([]*storage.PermissionModel, 0, len(st.nodes))
	var metas []*storage.FileMetadataModel

	for _, n := range st.nodes {
		n.item.Path = st.resolvePath(n)
		n.item.CreatedOn = now
		n.item.CreatedBy = st.user.ID
		if n.parent != nil {
			n.item.ParentID = n.parent.item.ID
		}
		if n.meta != nil {
			n.item.FileMetadataID = n.meta.ID
			metas = append(metas, n.meta)
		}
		items = append(items, n.item)
		perms = append(perms, &storage.PermissionModel{
			ID:        uuid.NewString(),
			ItemID:    n.item.ID,
			UserID:    st.user.ID,
			Bitmask:   int64(security.PermOwner),
			CreatedOn: now,
			CreatedBy: st.user.ID,
		})
	}

	if err := st.db.InsertFileMetadataWith(st.tx, ctx, metas); err != nil {
		return fmt.Errorf("insert file metadata: %w", err)
	}
	if err := st.db.InsertItemsWith(st.tx, ctx, items); err != nil {
		if storage.IsUniqueViolation(err) {
			return fmt.Errorf("canonical path already taken: %w", common.ErrConflict)
		}
		return fmt.Errorf("insert items: %w", err)
	}
	if err := st.db.InsertPermissionsWith(st.tx, ctx, perms); err != nil {
		return fmt.Errorf("insert permissions: %w", err)
	}
	return nil
}

// resolvePath recomputes a node's canonical path from its parent chain.
// Persisted nodes keep their stored path; planned nodes derive theirs
// top-down, which makes the pass order-independent even though nodes are
// appended ancestors-first.
func (st *stage) resolvePath(n *node) string {
	if !n.planned {
		return n.item.Path
	}
	parentPath := ""
	if n.parent != nil {
		parentPath = st.resolvePath(n.parent)
	}
	return common.BuildPath(parentPath, n.item.Name, n.item.IsFolder)
}
