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

package blob

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"julesfs/internal/common"
	"julesfs/internal/security"
	"julesfs/internal/storage"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	f, err := storage.Create(filepath.Join(t.TempDir(), "test.jfs"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	codec, err := NewCodec(testKey)
	require.NoError(t, err)

	return NewStore(f.ArchiveDB(), codec)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	alice := security.NewUser("alice")
	payload := []byte("hello, archive")

	token, err := s.Create(ctx, alice, payload, "text/plain")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := s.Read(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, payload, got.Data)
	assert.Equal(t, "text/plain", got.MimeType)
	assert.Equal(t, int64(len(payload)), got.Size)
	assert.Equal(t, alice.ID, got.CreatedBy)
}

func TestStore_TokensAreOpaqueAndUnique(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	t1, err := s.Create(ctx, alice, []byte("a"), "text/plain")
	require.NoError(t, err)
	t2, err := s.Create(ctx, alice, []byte("a"), "text/plain")
	require.NoError(t, err)

	// Same payload, distinct rows, distinct tokens.
	assert.NotEqual(t, t1, t2)
}

func TestStore_InvalidToken(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for _, token := range []string{"", "not!!base64", "AAAA", "dG9vLXNob3J0"} {
		_, err := s.Read(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestStore_ForeignKeyTokenRejected(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	token, err := s.Create(ctx, alice, []byte("a"), "text/plain")
	require.NoError(t, err)

	other, err := NewCodec(bytes.Repeat([]byte{0x24}, 32))
	require.NoError(t, err)
	foreign := NewStore(s.db, other)

	_, err = foreign.Read(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStore_DeleteAndBulkDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	alice := security.NewUser("alice")

	t1, err := s.Create(ctx, alice, []byte("one"), "text/plain")
	require.NoError(t, err)
	t2, err := s.Create(ctx, alice, []byte("two"), "text/plain")
	require.NoError(t, err)
	t3, err := s.Create(ctx, alice, []byte("three"), "text/plain")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, t1))
	_, err = s.Read(ctx, t1)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.BulkDelete(ctx, []string{t2, t3}))
	_, err = s.Read(ctx, t2)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.Read(ctx, t3)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Empty batch is a no-op.
	assert.NoError(t, s.BulkDelete(ctx, nil))
}
