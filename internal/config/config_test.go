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

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	t.Setenv("JULESFS_CONFIG_DIR", t.TempDir())

	cfg, err := NewDefault("alice")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "alice", cfg.User.Name)
	assert.NotEmpty(t, cfg.User.ID)
	assert.Equal(t, filepath.Join(ConfigDir(), "archive.jfs"), cfg.Archive)

	key, err := cfg.BlobKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestNewDefault_IDIsNotTheName(t *testing.T) {
	t.Setenv("JULESFS_CONFIG_DIR", t.TempDir())

	cfg, err := NewDefault("alice")
	require.NoError(t, err)
	assert.NotEqual(t, cfg.User.Name, cfg.User.ID)
}

func TestApplyDefaults_DoesNotMintUserID(t *testing.T) {
	t.Setenv("JULESFS_CONFIG_DIR", t.TempDir())

	// A hand-written config without an id must not be given one implicitly:
	// the id is the principal permission rows key on, and a value minted at
	// load time would differ on every run.
	cfg := Config{User: UserConfig{Name: "alice"}, BlobKey: "AAAA"}
	cfg.ApplyDefaults()

	assert.Empty(t, cfg.User.ID)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user.id")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JULESFS_CONFIG_DIR", dir)

	cfg, err := NewDefault("alice")
	require.NoError(t, err)
	cfg.User.Roles = []string{"admin"}
	require.NoError(t, cfg.Save(""))

	loaded, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cfg.User, loaded.User)
	assert.Equal(t, cfg.BlobKey, loaded.BlobKey)
	assert.True(t, loaded.ActingUser().IsAdmin())
}

func TestLoad_MissingFileIsNil(t *testing.T) {
	t.Setenv("JULESFS_CONFIG_DIR", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing user",
			cfg:     Config{BlobKey: "AAAA"},
			wantErr: "user.name",
		},
		{
			name:    "missing id",
			cfg:     Config{User: UserConfig{Name: "alice"}, BlobKey: "AAAA"},
			wantErr: "user.id",
		},
		{
			name:    "missing key",
			cfg:     Config{User: UserConfig{ID: "u-1", Name: "alice"}},
			wantErr: "blob-key",
		},
		{
			name:    "bad base64",
			cfg:     Config{User: UserConfig{ID: "u-1", Name: "alice"}, BlobKey: "!!!"},
			wantErr: "base64",
		},
		{
			name:    "bad key length",
			cfg:     Config{User: UserConfig{ID: "u-1", Name: "alice"}, BlobKey: "AAAA"},
			wantErr: "16, 24 or 32",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
