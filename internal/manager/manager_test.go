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

package manager

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"julesfs/internal/archive"
	"julesfs/internal/blob"
	"julesfs/internal/common"
	"julesfs/internal/security"
	"julesfs/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *blob.Store) {
	t.Helper()

	f, err := storage.Create(filepath.Join(t.TempDir(), "test.jfs"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	codec, err := blob.NewCodec(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)
	blobs := blob.NewStore(f.ArchiveDB(), codec)

	return New(archive.New(f.ArchiveDB()), blobs), blobs
}

func TestManager_CreateDownloadRoundTrip(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	alice := security.NewUser("alice")
	payload := []byte("quarterly numbers")

	item, err := m.CreateFile(ctx, alice, "file:///alice/docs/", FileContent{
		FileName: "q1.txt",
		MimeType: "text/plain",
		Data:     payload,
	})
	require.NoError(t, err)
	assert.Equal(t, "file:///alice/docs/q1.txt", item.Path)
	assert.Equal(t, int64(len(payload)), item.Size)
	require.NotEmpty(t, item.ContentToken)

	fc, err := m.Download(ctx, alice, item.Path)
	require.NoError(t, err)
	assert.Equal(t, "q1.txt", fc.FileName)
	assert.Equal(t, "text/plain", fc.MimeType)
	assert.Equal(t, payload, fc.Data)
}

func TestManager_CreateFileSniffsMimeType(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	item, err := m.CreateFile(ctx, alice, "file:///alice/", FileContent{
		FileName: "page.html",
		Data:     []byte("<!DOCTYPE html><html><body>hi</body></html>"),
	})
	require.NoError(t, err)
	assert.Contains(t, item.MimeType, "text/html")
}

func TestManager_CreateFileUnauthorizedWritesNoBlob(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	alice := security.NewUser("alice")
	bob := security.NewUser("bob")

	_, err := m.CreateFolder(ctx, alice, "file:///alice/shared/")
	require.NoError(t, err)

	// Persisted folder, no CreateFile bit: refused before the payload is
	// stored.
	_, err = m.CreateFile(ctx, bob, "file:///alice/shared/", FileContent{FileName: "x.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// Unmaterialized foreign root: refused inside the archive transaction,
	// after which the just-written blob is removed again.
	_, err = m.CreateFile(ctx, bob, "file:///alice/elsewhere/", FileContent{FileName: "x.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestManager_DownloadFolderRejected(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	_, err := m.CreateFolder(ctx, alice, "file:///alice/docs/")
	require.NoError(t, err)

	_, err = m.Download(ctx, alice, "file:///alice/docs/")
	assert.ErrorIs(t, err, common.ErrInvalidItemKind)
}

func TestManager_ListItemsSortedByPath(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	for _, name := range []string{"zeta.txt", "alpha.txt", "mid.txt"} {
		_, err := m.CreateFile(ctx, alice, "file:///alice/docs/", FileContent{FileName: name, Data: []byte(name)})
		require.NoError(t, err)
	}

	items, err := m.ListItems(ctx, alice, "file:///alice/")
	require.NoError(t, err)
	require.Len(t, items, 4)

	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	assert.Equal(t, []string{
		"file:///alice/docs/",
		"file:///alice/docs/alpha.txt",
		"file:///alice/docs/mid.txt",
		"file:///alice/docs/zeta.txt",
	}, paths)
}

func TestManager_StatFileAndFolder(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	file, err := m.CreateFile(ctx, alice, "file:///alice/docs/", FileContent{FileName: "a.txt", Data: []byte("a")})
	require.NoError(t, err)

	got, err := m.Stat(ctx, alice, file.Path)
	require.NoError(t, err)
	assert.False(t, got.IsFolder)

	got, err = m.Stat(ctx, alice, "file:///alice/docs")
	require.NoError(t, err)
	assert.True(t, got.IsFolder)

	_, err = m.Stat(ctx, alice, "file:///alice/ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestManager_DeleteCleansPayloads(t *testing.T) {
	t.Parallel()

	m, blobs := newTestManager(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	file, err := m.CreateFile(ctx, alice, "file:///alice/docs/", FileContent{FileName: "a.txt", Data: []byte("a")})
	require.NoError(t, err)
	keep, err := m.CreateFile(ctx, alice, "file:///alice/", FileContent{FileName: "keep.txt", Data: []byte("k")})
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, alice, "file:///alice/docs/"))

	_, err = m.Stat(ctx, alice, "file:///alice/docs")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = blobs.Read(ctx, file.ContentToken)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// The sibling and its payload survive.
	fc, err := m.Download(ctx, alice, keep.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("k"), fc.Data)
}

func TestManager_DeleteSingleFile(t *testing.T) {
	t.Parallel()

	m, blobs := newTestManager(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	file, err := m.CreateFile(ctx, alice, "file:///alice/", FileContent{FileName: "a.txt", Data: []byte("a")})
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, alice, file.Path))

	_, err = blobs.Read(ctx, file.ContentToken)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
