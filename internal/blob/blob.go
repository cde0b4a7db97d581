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

// Package blob is the token-addressed byte store. It holds file payloads in
// the blobs table, outside the namespace: the archive core stores only the
// opaque token and never looks in here.
package blob

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"julesfs/internal/security"
	"julesfs/internal/storage"
)

// Blob is one stored payload.
type Blob struct {
	Data      []byte
	MimeType  string
	Size      int64
	CreatedOn time.Time
	CreatedBy string
}

// Store manages blob rows and their access tokens.
type Store struct {
	db    *storage.ArchiveDB
	codec *Codec
	log   *log.Entry
}

// NewStore creates a Store over the given database and token codec.
func NewStore(db *storage.ArchiveDB, codec *Codec) *Store {
	return &Store{
		db:    db,
		codec: codec,
		log:   log.WithField("component", "blob"),
	}
}

// Create stores the payload and returns the token addressing it.
func (s *Store) Create(ctx context.Context, user security.User, data []byte, mimeType string) (string, error) {
	row := &storage.BlobModel{
		ID:        uuid.NewString(),
		Data:      data,
		Size:      int64(len(data)),
		MimeType:  mimeType,
		CreatedOn: time.Now().Unix(),
		CreatedBy: user.ID,
	}
	if err := s.db.InsertBlob(ctx, row); err != nil {
		return "", err
	}
	return s.codec.Seal(row.ID)
}

// Read returns the payload addressed by the token. Fails with
// ErrInvalidToken on a malformed token and common.ErrNotFound when the
// token opens but no row exists for it.
func (s *Store) Read(ctx context.Context, token string) (Blob, error) {
	id, err := s.codec.Open(token)
	if err != nil {
		return Blob{}, err
	}
	row, err := s.db.GetBlob(ctx, id)
	if err != nil {
		return Blob{}, err
	}
	return Blob{
		Data:      row.Data,
		MimeType:  row.MimeType,
		Size:      row.Size,
		CreatedOn: time.Unix(row.CreatedOn, 0),
		CreatedBy: row.CreatedBy,
	}, nil
}

// Delete removes the blob addressed by the token.
func (s *Store) Delete(ctx context.Context, token string) error {
	id, err := s.codec.Open(token)
	if err != nil {
		return err
	}
	return s.db.DeleteBlobs(ctx, []string{id})
}

// BulkDelete removes every blob addressed by the tokens in one statement.
// All tokens must open; a single malformed token fails the batch before
// any row is touched.
func (s *Store) BulkDelete(ctx context.Context, tokens []string) error {
	ids := make([]string, 0, len(tokens))
	for _, t := range tokens {
		id, err := s.codec.Open(t)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := s.db.DeleteBlobs(ctx, ids); err != nil {
		return err
	}
	s.log.WithField("count", len(ids)).Debug("blobs deleted")
	return nil
}
