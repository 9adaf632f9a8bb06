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

package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/database"
	"github.com/clipforge/clipforge/ffmpeg"
	"github.com/clipforge/clipforge/ops"
	"github.com/clipforge/clipforge/profiles"
)

// fakeTool satisfies ops.Tool without external binaries. It creates the
// output file named by the last argument.
type fakeTool struct {
	mu   sync.Mutex
	runs int
	fail bool
}

func (f *fakeTool) Run(_ context.Context, args []string, _ ffmpeg.RunOptions) (*ffmpeg.Result, error) {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if f.fail {
		return &ffmpeg.Result{Success: false, ExitCode: 1, Stderr: "simulated encoder failure"}, nil
	}
	if err := os.WriteFile(args[len(args)-1], []byte("media"), 0o644); err != nil {
		return nil, err
	}
	return &ffmpeg.Result{Success: true}, nil
}

func (f *fakeTool) Probe(context.Context, string) (*ffmpeg.MediaInfo, error) {
	return &ffmpeg.MediaInfo{Duration: 60, VideoCodec: "h264", Width: 1280, Height: 720}, nil
}

func setupPool(t *testing.T, tool ops.Tool) (*Pool, *database.Store) {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	set, err := profiles.LoadDefault()
	require.NoError(t, err)

	return &Pool{
		Store:        store,
		Tool:         tool,
		Profiles:     set,
		Workers:      2,
		PollInterval: 20 * time.Millisecond,
	}, store
}

func queueExtractJob(t *testing.T, store *database.Store, dir string) uint {
	t.Helper()
	input := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(input, []byte("media"), 0o644))

	id, err := store.CreateJob(ops.JobTypeExtractAudio, []string{input}, map[string]any{
		"output": filepath.Join(dir, "audio.m4a"),
		"codec":  "copy",
	})
	require.NoError(t, err)
	return id
}

func TestPoolProcessesQueuedJobs(t *testing.T) {
	tool := &fakeTool{}
	pool, store := setupPool(t, tool)
	id := queueExtractJob(t, store, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	require.Eventually(t, func() bool {
		job, err := store.GetJob(id)
		return err == nil && job.Status == database.JobCompleted
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	job, err := store.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, 100.0, job.Progress)
	require.Len(t, job.OutputFiles, 1)
	_, err = os.Stat(job.OutputFiles[0])
	assert.NoError(t, err)

	// The worker's pickup is in the job log.
	logs, err := store.GetJobLogs(id)
	require.NoError(t, err)
	var pickedUp bool
	for _, entry := range logs {
		if strings.HasPrefix(entry.Message, "Picked up") {
			pickedUp = true
		}
	}
	assert.True(t, pickedUp)
}

func TestPoolRecordsFailure(t *testing.T) {
	tool := &fakeTool{fail: true}
	pool, store := setupPool(t, tool)
	id := queueExtractJob(t, store, t.TempDir())

	processed, err := pool.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	job, err := store.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, database.JobFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "simulated encoder failure")
	require.NotNil(t, job.CompletedAt)
}

func TestRunOnceDrainsQueue(t *testing.T) {
	tool := &fakeTool{}
	pool, store := setupPool(t, tool)

	dir := t.TempDir()
	input := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(input, []byte("media"), 0o644))

	var ids []uint
	for i := 0; i < 3; i++ {
		id, err := store.CreateJob(ops.JobTypeExtractAudio, []string{input}, map[string]any{
			"output": filepath.Join(dir, "audio.m4a"),
			"codec":  "copy",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	processed, err := pool.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	for _, id := range ids {
		job, err := store.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, database.JobCompleted, job.Status)
	}
}

func TestPoolIdleShutdown(t *testing.T) {
	pool, _ := setupPool(t, &fakeTool{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not shut down after cancellation")
	}
}

func TestRetriedJobIsNotReclaimed(t *testing.T) {
	// Retry moves a job straight to Running; a polling worker must not
	// claim it again.
	pool, store := setupPool(t, &fakeTool{fail: true})
	id := queueExtractJob(t, store, t.TempDir())

	_, err := pool.RunOnce(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.RetryJob(id))

	processed, err := pool.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	job, err := store.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, database.JobRunning, job.Status)
	assert.Equal(t, 1, job.RetryCount)
}
