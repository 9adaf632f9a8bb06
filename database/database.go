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

// Package database is the persistent job store: a SQLite-backed record of
// every submitted operation and its lifecycle, plus an append-only log per
// job. It knows nothing about what executes jobs; callers record lifecycle
// events against it by id.
package database

import (
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrJobNotFound is returned when an operation references an unknown
	// job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidState is returned when a job is not in a state that
	// permits the requested operation (e.g. retrying a non-failed job).
	ErrInvalidState = errors.New("job is not in a valid state for this operation")
)

// Store owns all Job and JobLog records. Every write is a single atomic
// transaction, so concurrent CLI invocations and worker processes may share
// one store without external locking; reads return detached copies.
type Store struct {
	db *gorm.DB
}

// Open initializes (and migrates) the job database at the given path,
// creating parent directories as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create database directory %s", dir)
		}
	}

	log.Debugln("Initializing job database:", dbPath)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open job database %s", dbPath)
	}

	// Serialize writers instead of failing fast on a locked database;
	// multiple CLI invocations may race on the same file.
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, errors.Wrap(err, "failed to enable foreign key constraints")
	}

	if err := db.AutoMigrate(&Job{}, &JobLog{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate job database schema")
	}

	return &Store{db: db}, nil
}

// OpenInMemory opens a throwaway store, used by tests and dry runs.
func OpenInMemory() (*Store, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open in-memory job database")
	}
	// Each new connection to :memory: is a fresh, empty database; pin the
	// pool to one connection so all sessions share it.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database instance from gorm")
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Job{}, &JobLog{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate job database schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database instance from gorm")
	}
	return sqlDB.Close()
}

func nowPtr() *time.Time {
	now := time.Now()
	return &now
}
