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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_InitializesSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.jfs")
	f, err := Create(path)
	require.NoError(t, err)
	defer f.Close()

	ctx := context.Background()
	fileType, err := f.ArchiveDB().GetSchemaInfo(ctx, "type")
	require.NoError(t, err)
	assert.Equal(t, "archive", fileType)

	version, err := f.ArchiveDB().GetSchemaInfo(ctx, "version")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	// The creation lock file does not linger.
	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err))
}

func TestCreate_RefusesExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.jfs")
	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Create(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestOpen_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.jfs")
	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, path, f.Path())
}

func TestOpen_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "absent.jfs"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOpenOrCreate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.jfs")

	f, err := OpenOrCreate(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Second call opens the same file instead of failing.
	f, err = OpenOrCreate(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestGetBusyTimeout(t *testing.T) {
	t.Setenv(EnvBusyTimeout, "")
	assert.Equal(t, DefaultBusyTimeout, GetBusyTimeout())

	t.Setenv(EnvBusyTimeout, "5000")
	assert.Equal(t, 5000, GetBusyTimeout())

	t.Setenv(EnvBusyTimeout, "not-a-number")
	assert.Equal(t, DefaultBusyTimeout, GetBusyTimeout())
}
