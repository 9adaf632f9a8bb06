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

// Package utils holds filesystem helpers shared by the media operations:
// input validation, temp file management, atomic moves, and disk space
// checks.
package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput          = errors.New("invalid input file")
	ErrInsufficientDiskSpace = errors.New("insufficient disk space")
)

// diskSpaceBufferBytes is headroom kept free beyond the estimated output
// size, so a transcode never fills the disk completely.
const diskSpaceBufferBytes = 1 << 30

// ValidateInputFile checks that path names an existing, readable,
// non-empty regular file.
func ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrInvalidInput, "file does not exist: %s", path)
		}
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrInvalidInput, "path is a directory, not a file: %s", path)
	}
	if info.Size() == 0 {
		return errors.Wrapf(ErrInvalidInput, "file is empty: %s", path)
	}

	// Readability is only settled by opening.
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(ErrInvalidInput, "file is not readable: %s", path)
	}
	return f.Close()
}

// EnsureDir creates the directory (and parents) if missing. An existing
// non-directory at path is an error.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return errors.Errorf("path exists but is not a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", path)
	}
	log.Debugf("Created directory: %s", path)
	return nil
}

// TempFilename reserves a unique file in the system temp directory and
// returns its path. The caller owns cleanup.
func TempFilename(prefix, suffix string) (string, error) {
	f, err := os.CreateTemp("", prefix+"_*"+suffix)
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp file")
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close temp file %s", path)
	}
	return path, nil
}

// AtomicMove moves src to dst without leaving a partial destination:
// rename when possible, otherwise copy to a sibling temp file and rename
// that into place. Destination directories are created as needed.
func AtomicMove(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrInvalidInput, "source file does not exist: %s", src)
		}
		return errors.Wrapf(err, "failed to stat %s", src)
	}
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err == nil {
		log.Debugf("Moved file: %s -> %s", src, dst)
		return nil
	}

	// Rename fails across filesystems; fall back to copy + rename.
	if err := copyToTempAndRename(src, dst); err != nil {
		return errors.Wrapf(err, "failed to move %s to %s", src, dst)
	}
	if err := os.Remove(src); err != nil {
		log.Warnf("Failed to remove source file after move: %s: %v", src, err)
	}
	log.Debugf("Moved file across filesystems: %s -> %s", src, dst)
	return nil
}

func copyToTempAndRename(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".clipforge-move-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// FileSize returns the size of the file at path in bytes.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Wrapf(ErrInvalidInput, "file does not exist: %s", path)
		}
		return 0, errors.Wrapf(err, "failed to stat %s", path)
	}
	return info.Size(), nil
}

// CheckDiskSpace verifies the filesystem holding path has room for
// requiredBytes plus a fixed safety buffer.
func CheckDiskSpace(path string, requiredBytes int64) error {
	free, err := freeDiskSpace(path)
	if err != nil {
		return errors.Wrapf(err, "failed to check disk space for %s", path)
	}

	needed := requiredBytes + diskSpaceBufferBytes
	if free < needed {
		return errors.Wrapf(ErrInsufficientDiskSpace,
			"required %.2f GB (with buffer), available %.2f GB",
			float64(needed)/(1<<30), float64(free)/(1<<30))
	}
	return nil
}

// SafeFilename replaces characters that are unsafe in filenames and trims
// the result to a portable length.
func SafeFilename(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)
	safe = strings.Trim(safe, ". ")

	if len(safe) > 200 {
		ext := filepath.Ext(safe)
		safe = safe[:200-len(ext)] + ext
	}
	return safe
}

// CleanupFiles removes the given files, logging failures rather than
// propagating them. Used for best-effort temp file cleanup.
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warnf("Failed to clean up file %s: %v", path, err)
		}
	}
}
