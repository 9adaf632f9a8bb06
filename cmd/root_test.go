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

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/database"
	"github.com/clipforge/clipforge/ops"
)

func TestCommandsRegistered(t *testing.T) {
	expected := []string{"cut", "concat", "info", "audio", "profile", "job", "worker"}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "command %q is not registered", name)
	}
}

func TestWorkerSubcommandsRegistered(t *testing.T) {
	registered := make(map[string]bool)
	for _, cmd := range workerCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range []string{"run", "drain", "status"} {
		assert.True(t, registered[name], "worker subcommand %q is not registered", name)
	}
}

func TestPersistentFlagsRegistered(t *testing.T) {
	for _, name := range []string{"config", "debug", "log", "json", "dry-run", "version"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %q is not registered", name)
	}
}

func TestParseRanges(t *testing.T) {
	t.Run("valid-ranges", func(t *testing.T) {
		ranges, err := parseRanges("0-300, 300-600.5")
		require.NoError(t, err)
		require.Len(t, ranges, 2)
		assert.Equal(t, ops.TimeRange{Start: 0, End: 300}, ranges[0])
		assert.Equal(t, ops.TimeRange{Start: 300, End: 600.5}, ranges[1])
	})

	t.Run("missing-separator", func(t *testing.T) {
		_, err := parseRanges("300")
		require.Error(t, err)
	})

	t.Run("non-numeric", func(t *testing.T) {
		_, err := parseRanges("abc-300")
		require.Error(t, err)
	})
}

func TestParseJobID(t *testing.T) {
	id, err := parseJobID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = parseJobID("banana")
	require.Error(t, err)
	_, err = parseJobID("-1")
	require.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "3.5m", formatDuration(3*time.Minute+30*time.Second))
	assert.Equal(t, "1.5h", formatDuration(90*time.Minute))
}

func TestJobDuration(t *testing.T) {
	started := time.Now().Add(-30 * time.Second)
	finished := started.Add(10 * time.Second)

	assert.Equal(t, "-", jobDuration(&database.Job{}))
	assert.Equal(t, "10s", jobDuration(&database.Job{StartedAt: &started, CompletedAt: &finished}))
}

func TestVersionFlagHandledDirectly(t *testing.T) {
	// The trailing --version check short-circuits before cobra parsing, so
	// it must succeed even without a valid subcommand.
	require.NoError(t, handleCLI([]string{"clipforge", "--version"}))
}
