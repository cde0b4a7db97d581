package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"julesfs/internal/common"
)

// ArchiveDB wraps a Bun database instance for type-safe queries over the
// archive tables. Methods with a ...With variant accept any bun.IDB so they
// run either on the root connection or inside a transaction.
type ArchiveDB struct {
	*bun.DB
}

// NewArchiveDB wraps an existing *sql.DB with Bun's query builder.
func NewArchiveDB(sqlDB *sql.DB) *ArchiveDB {
	return &ArchiveDB{DB: bun.NewDB(sqlDB, sqlitedialect.New())}
}

// IsUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The archive maps this to common.ErrConflict at commit time.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Schema Info Operations ---

// GetSchemaInfo retrieves a schema info value by key.
func (db *ArchiveDB) GetSchemaInfo(ctx context.Context, key string) (string, error) {
	var info SchemaInfoModel
	err := db.NewSelect().
		Model(&info).
		Where("key = ?", key).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return info.Value, nil
}

// --- Item Operations ---

// GetItemByPath retrieves the item at a canonical path.
// Returns common.ErrNotFound if no item exists there.
func (db *ArchiveDB) GetItemByPath(ctx context.Context, path string) (*ItemModel, error) {
	return db.GetItemByPathWith(db.DB, ctx, path)
}

// GetItemByPathWith is like GetItemByPath but uses the provided bun.IDB.
func (db *ArchiveDB) GetItemByPathWith(idb bun.IDB, ctx context.Context, path string) (*ItemModel, error) {
	var item ItemModel
	err := idb.NewSelect().
		Model(&item).
		Where("path = ?", path).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemExistsWith reports whether any item occupies the canonical path.
func (db *ArchiveDB) ItemExistsWith(idb bun.IDB, ctx context.Context, path string) (bool, error) {
	return idb.NewSelect().
		Model((*ItemModel)(nil)).
		Where("path = ?", path).
		Exists(ctx)
}

// InsertItemsWith bulk-inserts item rows inside the given bun.IDB.
func (db *ArchiveDB) InsertItemsWith(idb bun.IDB, ctx context.Context, items []*ItemModel) error {
	if len(items) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&items).Exec(ctx)
	return err
}

// subtreeUpperBound returns the smallest string ordering after every path
// that starts with prefix, so subtree matching can run as a collation-exact
// range scan over the unique path index. LIKE would not do here: it is
// ASCII case-insensitive and treats % and _ in the prefix as wildcards.
func subtreeUpperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// ListSubtreeWith retrieves the item at the canonical path plus every
// descendant (exact path-prefix match).
func (db *ArchiveDB) ListSubtreeWith(idb bun.IDB, ctx context.Context, prefix string) ([]ItemModel, error) {
	var items []ItemModel
	q := idb.NewSelect().
		Model(&items).
		Where("path >= ?", prefix)
	if ub := subtreeUpperBound(prefix); ub != "" {
		q = q.Where("path < ?", ub)
	}
	err := q.Scan(ctx)
	return items, err
}

// ItemRow is an item joined with its optional file metadata, as returned by
// the prefix listing queries.
type ItemRow struct {
	ID           string `bun:"id"`
	Path         string `bun:"path"`
	Name         string `bun:"name"`
	IsFolder     bool   `bun:"is_folder"`
	ParentID     string `bun:"parent_id"`
	CreatedOn    int64  `bun:"created_on"`
	CreatedBy    string `bun:"created_by"`
	Size         int64  `bun:"size"`
	MimeType     string `bun:"mime_type"`
	ContentToken string `bun:"content_token"`
}

// ListItemsByPrefix retrieves every item whose path starts with prefix,
// excluding the prefix folder itself, optionally filtered by kind (nil =
// both kinds), with file metadata joined in. Used for admin listing.
func (db *ArchiveDB) ListItemsByPrefix(ctx context.Context, prefix string, isFolder *bool) ([]ItemRow, error) {
	var rows []ItemRow
	err := db.NewRaw(`
		SELECT i.id, i.path, i.name, i.is_folder, COALESCE(i.parent_id, '') AS parent_id,
		       i.created_on, i.created_by,
		       COALESCE(m.size, 0) AS size,
		       COALESCE(m.mime_type, '') AS mime_type,
		       COALESCE(m.content_token, '') AS content_token
		FROM items i
		LEFT JOIN file_metadata m ON i.file_metadata_id = m.id
		WHERE i.path > ? AND i.path < ?
		  AND (? OR i.is_folder = ?)
	`, prefix, subtreeUpperBound(prefix), isFolder == nil, isFolder != nil && *isFolder).Scan(ctx, &rows)
	return rows, err
}

// ListItemsByPrefixForUser retrieves every prefix-matched item on which the
// user holds at least one bit of flag (regular-caller listing).
func (db *ArchiveDB) ListItemsByPrefixForUser(ctx context.Context, prefix string, isFolder *bool, userID string, flag int64) ([]ItemRow, error) {
	var rows []ItemRow
	err := db.NewRaw(`
		SELECT i.id, i.path, i.name, i.is_folder, COALESCE(i.parent_id, '') AS parent_id,
		       i.created_on, i.created_by,
		       COALESCE(m.size, 0) AS size,
		       COALESCE(m.mime_type, '') AS mime_type,
		       COALESCE(m.content_token, '') AS content_token
		FROM items i
		INNER JOIN permissions p ON p.item_id = i.id
		LEFT JOIN file_metadata m ON i.file_metadata_id = m.id
		WHERE p.user_id = ?
		  AND p.permission_bitmask & ? != 0
		  AND i.path > ? AND i.path < ?
		  AND (? OR i.is_folder = ?)
	`, userID, flag, prefix, subtreeUpperBound(prefix), isFolder == nil, isFolder != nil && *isFolder).Scan(ctx, &rows)
	return rows, err
}

// --- Permission Operations ---

// HasPermissionWith reports whether a permission row exists for
// (itemID, userID) whose bitmask intersects flag.
func (db *ArchiveDB) HasPermissionWith(idb bun.IDB, ctx context.Context, itemID, userID string, flag int64) (bool, error) {
	return idb.NewSelect().
		Model((*PermissionModel)(nil)).
		Where("item_id = ?", itemID).
		Where("user_id = ?", userID).
		Where("permission_bitmask & ? != 0", flag).
		Exists(ctx)
}

// InsertPermissionsWith bulk-inserts permission rows inside the given bun.IDB.
func (db *ArchiveDB) InsertPermissionsWith(idb bun.IDB, ctx context.Context, perms []*PermissionModel) error {
	if len(perms) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&perms).Exec(ctx)
	return err
}

// ListPermissionsForItem retrieves all permission rows for one item.
func (db *ArchiveDB) ListPermissionsForItem(ctx context.Context, itemID string) ([]PermissionModel, error) {
	var perms []PermissionModel
	err := db.NewSelect().
		Model(&perms).
		Where("item_id = ?", itemID).
		Scan(ctx)
	return perms, err
}

// --- File Metadata Operations ---

// InsertFileMetadataWith bulk-inserts file metadata rows inside the given bun.IDB.
func (db *ArchiveDB) InsertFileMetadataWith(idb bun.IDB, ctx context.Context, metas []*FileMetadataModel) error {
	if len(metas) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&metas).Exec(ctx)
	return err
}

// GetFileMetadata retrieves the metadata row for a file item.
func (db *ArchiveDB) GetFileMetadata(ctx context.Context, id string) (*FileMetadataModel, error) {
	return db.GetFileMetadataWith(db.DB, ctx, id)
}

// GetFileMetadataWith is like GetFileMetadata but uses the provided bun.IDB.
func (db *ArchiveDB) GetFileMetadataWith(idb bun.IDB, ctx context.Context, id string) (*FileMetadataModel, error) {
	var meta FileMetadataModel
	err := idb.NewSelect().
		Model(&meta).
		Where("id = ?", id).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// --- Subtree Delete ---

// DeleteSubtreeWith removes item rows, their metadata rows and every
// permission row referencing them, in dependency order, inside one
// transaction's bun.IDB.
func (db *ArchiveDB) DeleteSubtreeWith(idb bun.IDB, ctx context.Context, itemIDs, metadataIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	if _, err := idb.NewDelete().
		Model((*PermissionModel)(nil)).
		Where("item_id IN (?)", bun.In(itemIDs)).
		Exec(ctx); err != nil {
		return err
	}
	if len(metadataIDs) > 0 {
		if _, err := idb.NewDelete().
			Model((*FileMetadataModel)(nil)).
			Where("id IN (?)", bun.In(metadataIDs)).
			Exec(ctx); err != nil {
			return err
		}
	}
	if _, err := idb.NewDelete().
		Model((*ItemModel)(nil)).
		Where("id IN (?)", bun.In(itemIDs)).
		Exec(ctx); err != nil {
		return err
	}
	return nil
}

// --- Blob Operations ---

// InsertBlob inserts a blob row.
func (db *ArchiveDB) InsertBlob(ctx context.Context, blob *BlobModel) error {
	_, err := db.NewInsert().Model(blob).Exec(ctx)
	return err
}

// GetBlob retrieves a blob row by id.
// Returns common.ErrNotFound if no blob exists.
func (db *ArchiveDB) GetBlob(ctx context.Context, id string) (*BlobModel, error) {
	var blob BlobModel
	err := db.NewSelect().
		Model(&blob).
		Where("id = ?", id).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &blob, nil
}

// DeleteBlobs removes blob rows by id.
func (db *ArchiveDB) DeleteBlobs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.NewDelete().
		Model((*BlobModel)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return err
}
