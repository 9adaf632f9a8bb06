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

package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/database"
	"github.com/clipforge/clipforge/ffmpeg"
	"github.com/clipforge/clipforge/profiles"
)

func TestExecuteJob(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "movie.mp4")
	set, err := profiles.LoadDefault()
	require.NoError(t, err)

	t.Run("cut-job", func(t *testing.T) {
		outDir := filepath.Join(dir, "cut")
		tool := &stubTool{
			probes: map[string]*ffmpeg.MediaInfo{input: {Duration: 90}},
		}
		tool.onRun = touchOutputs(t,
			filepath.Join(outDir, "part_001.mp4"),
			filepath.Join(outDir, "part_002.mp4"),
		)

		job := &database.Job{
			JobType:    JobTypeCut,
			InputFiles: []string{input},
			Config: map[string]any{
				"output_dir": outDir,
				// Numbers arrive as float64 after the JSON round-trip
				// through the store.
				"segment_duration": float64(60),
				"copy_codec":       true,
			},
		}

		outputs, err := ExecuteJob(context.Background(), tool, job, set, 0, nil)
		require.NoError(t, err)
		assert.Len(t, outputs, 2)
	})

	t.Run("cut-job-wrong-input-count", func(t *testing.T) {
		job := &database.Job{
			JobType:    JobTypeCut,
			InputFiles: []string{input, input},
		}
		_, err := ExecuteJob(context.Background(), &stubTool{}, job, set, 0, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one input")
	})

	t.Run("concat-job-with-profile", func(t *testing.T) {
		a := writeInput(t, dir, "a.mp4")
		b := writeInput(t, dir, "b.mp4")
		output := filepath.Join(dir, "joined.mp4")

		tool := &stubTool{}
		tool.onRun = func(args []string, opts ffmpeg.RunOptions) *ffmpeg.Result {
			require.NoError(t, os.WriteFile(args[len(args)-1], []byte("m"), 0o644))
			return &ffmpeg.Result{Success: true}
		}

		job := &database.Job{
			JobType:    JobTypeConcat,
			InputFiles: []string{a, b},
			Config: map[string]any{
				"output":  output,
				"profile": "clip_720p",
			},
		}

		outputs, err := ExecuteJob(context.Background(), tool, job, set, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{output}, outputs)
		assert.Contains(t, tool.runs[0], "1280x720", "profile resolution applied")
	})

	t.Run("unknown-profile", func(t *testing.T) {
		job := &database.Job{
			JobType:    JobTypeCut,
			InputFiles: []string{input},
			Config:     map[string]any{"profile": "nope"},
		}
		_, err := ExecuteJob(context.Background(), &stubTool{}, job, set, 0, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, profiles.ErrProfileNotFound)
	})

	t.Run("extract-audio-job", func(t *testing.T) {
		output := filepath.Join(dir, "audio.m4a")
		tool := &stubTool{}
		tool.onRun = createsLastArg(t)

		job := &database.Job{
			JobType:    JobTypeExtractAudio,
			InputFiles: []string{input},
			Config:     map[string]any{"output": output, "codec": "copy"},
		}

		outputs, err := ExecuteJob(context.Background(), tool, job, set, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{output}, outputs)
	})

	t.Run("replace-audio-job", func(t *testing.T) {
		voice := writeInput(t, dir, "voice.m4a")
		output := filepath.Join(dir, "dubbed.mp4")
		tool := &stubTool{}
		tool.onRun = createsLastArg(t)

		job := &database.Job{
			JobType:    JobTypeReplaceAudio,
			InputFiles: []string{input, voice},
			Config:     map[string]any{"output": output, "copy_codec": true},
		}

		outputs, err := ExecuteJob(context.Background(), tool, job, set, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{output}, outputs)
	})

	t.Run("mix-audio-job", func(t *testing.T) {
		voice := writeInput(t, dir, "v2.m4a")
		music := writeInput(t, dir, "m2.m4a")
		output := filepath.Join(dir, "mixed.m4a")
		tool := &stubTool{}
		tool.onRun = createsLastArg(t)

		job := &database.Job{
			JobType:    JobTypeMixAudio,
			InputFiles: []string{voice, music},
			Config:     map[string]any{"output": output},
		}

		outputs, err := ExecuteJob(context.Background(), tool, job, set, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{output}, outputs)
	})

	t.Run("unknown-job-type", func(t *testing.T) {
		job := &database.Job{JobType: "transmogrify"}
		_, err := ExecuteJob(context.Background(), &stubTool{}, job, set, 0, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown job type")
	})
}
