/***************************************************************
 *
 * Copyright (C) 2026, Clipforge Project
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid-file", func(t *testing.T) {
		path := filepath.Join(dir, "ok.mp4")
		require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
		assert.NoError(t, ValidateInputFile(path))
	})

	t.Run("missing-file", func(t *testing.T) {
		err := ValidateInputFile(filepath.Join(dir, "missing.mp4"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("directory", func(t *testing.T) {
		err := ValidateInputFile(dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("empty-file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.mp4")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		err := ValidateInputFile(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestEnsureDir(t *testing.T) {
	base := t.TempDir()

	t.Run("creates-nested", func(t *testing.T) {
		path := filepath.Join(base, "a", "b", "c")
		require.NoError(t, EnsureDir(path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing-dir-is-fine", func(t *testing.T) {
		require.NoError(t, EnsureDir(base))
	})

	t.Run("file-in-the-way", func(t *testing.T) {
		path := filepath.Join(base, "file")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		err := EnsureDir(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestTempFilename(t *testing.T) {
	path, err := TempFilename("clipforge", ".mp4")
	require.NoError(t, err)
	defer os.Remove(path)

	assert.True(t, strings.HasSuffix(path, ".mp4"))
	assert.Contains(t, filepath.Base(path), "clipforge")
	_, err = os.Stat(path)
	assert.NoError(t, err, "temp path is reserved on disk")

	other, err := TempFilename("clipforge", ".mp4")
	require.NoError(t, err)
	defer os.Remove(other)
	assert.NotEqual(t, path, other)
}

func TestAtomicMove(t *testing.T) {
	t.Run("moves-and-creates-destination-dir", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "src.mp4")
		require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

		dst := filepath.Join(dir, "out", "final.mp4")
		require.NoError(t, AtomicMove(src, dst))

		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))

		_, err = os.Stat(src)
		assert.True(t, os.IsNotExist(err), "source is gone after move")
	})

	t.Run("missing-source", func(t *testing.T) {
		err := AtomicMove(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "dst"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, make([]byte, 1234), 0o644))

	size, err := FileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), size)

	_, err = FileSize(path + ".missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()

	// Zero requirement still needs the safety buffer, which any CI
	// filesystem should have.
	assert.NoError(t, CheckDiskSpace(dir, 0))

	// An absurd requirement must trip the check.
	err := CheckDiskSpace(dir, 1<<62)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientDiskSpace)
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "My_Video_ Part_1.mp4", SafeFilename("My_Video: Part_1.mp4"))
	assert.Equal(t, "a_b_c", SafeFilename(`a/b\c`))
	assert.Equal(t, "name", SafeFilename("  name. "))

	long := strings.Repeat("x", 300) + ".mp4"
	safe := SafeFilename(long)
	assert.LessOrEqual(t, len(safe), 200)
	assert.True(t, strings.HasSuffix(safe, ".mp4"))
}

func TestCleanupFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("x"), 0o644))

	// Missing files and empty paths are ignored.
	CleanupFiles(a, b, filepath.Join(dir, "missing"), "")

	_, err := os.Stat(a)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(b)
	assert.True(t, os.IsNotExist(err))
}
