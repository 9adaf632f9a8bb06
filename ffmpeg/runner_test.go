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

package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeTool drops an executable shell script standing in for ffmpeg.
func writeFakeTool(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunToolNotFound(t *testing.T) {
	result, err := Run(context.Background(), []string{"-i", "in.mp4", "out.mp4"},
		RunOptions{Binary: "clipforge-test-no-such-binary"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Nil(t, result)
}

func TestRunEmptyArgs(t *testing.T) {
	result, err := Run(context.Background(), nil, RunOptions{})
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestRunSuccessStreamsProgress(t *testing.T) {
	tool := writeFakeTool(t, "fakeffmpeg", `
echo "configuration: --enable-libx264" 1>&2
echo "frame=   10 fps=30.0 q=28.0 size=     256kB time=00:00:01.00 bitrate=2097.2kbits/s speed=1.0x" 1>&2
echo "frame=   20 fps=30.0 q=28.0 size=     512kB time=00:00:02.00 bitrate=2097.2kbits/s speed=1.0x" 1>&2
echo "frame=   30 fps=30.0 q=28.0 size=     768kB time=00:00:03.00 bitrate=2097.2kbits/s speed=1.0x" 1>&2
echo "done"
exit 0
`)

	var events []Progress
	result, err := Run(context.Background(), []string{"-i", "in.mp4", "out.mp4"}, RunOptions{
		Binary:     tool,
		OnProgress: func(p Progress) { events = append(events, p) },
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "done")
	assert.Contains(t, result.Stderr, "frame=   30")

	// Only the three stats lines carry tokens; the configuration banner
	// must not be forwarded.
	require.Len(t, events, 3)
	for i, event := range events {
		require.NotNil(t, event.Frame)
		assert.Equal(t, int64((i+1)*10), *event.Frame)
		require.NotNil(t, event.TimeSeconds)
		assert.Equal(t, float64(i+1), *event.TimeSeconds)
	}

	require.NotNil(t, result.LastProgress)
	assert.Equal(t, int64(30), *result.LastProgress.Frame)
}

func TestRunCarriageReturnSeparatedStats(t *testing.T) {
	tool := writeFakeTool(t, "fakeffmpeg", `
printf "frame=    5 fps=25.0 time=00:00:00.20 speed=1.0x\rframe=   10 fps=25.0 time=00:00:00.40 speed=1.0x\r\n" 1>&2
exit 0
`)

	var events []Progress
	result, err := Run(context.Background(), []string{"-i", "in.mp4"}, RunOptions{
		Binary:     tool,
		OnProgress: func(p Progress) { events = append(events, p) },
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, events, 2)
	assert.Equal(t, int64(5), *events[0].Frame)
	assert.Equal(t, int64(10), *events[1].Frame)
}

func TestRunOversizedStderrLine(t *testing.T) {
	// One stderr "line" past the scanner cap must not stall the run: the
	// child keeps writing, and a full pipe would block it forever. The
	// remainder is drained unparsed and the tail diagnostics survive.
	tool := writeFakeTool(t, "fakeffmpeg", `
echo "frame=    1 fps=1.0 time=00:00:00.10 speed=0.1x" 1>&2
head -c 4194304 /dev/zero | tr '\0' 'x' 1>&2
printf "\nconversion aborted: demuxer error\n" 1>&2
exit 0
`)

	done := make(chan struct{})
	var result *Result
	var err error
	go func() {
		defer close(done)
		result, err = Run(context.Background(), []string{"-i", "in.mp4"}, RunOptions{Binary: tool})
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return on oversized stderr output")
	}

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.False(t, result.TimedOut)

	// Progress parsed before the oversized line is kept, and the text
	// written after it is still collected.
	require.NotNil(t, result.LastProgress)
	assert.Contains(t, result.Stderr, "progress parsing stopped")
	assert.Contains(t, result.Stderr, "conversion aborted: demuxer error")
}

func TestRunCollectsAllStdout(t *testing.T) {
	// 256 KB of stdout followed by an immediate exit; nothing may be lost
	// to the process teardown.
	tool := writeFakeTool(t, "fakeffmpeg", `
head -c 262144 /dev/zero | tr '\0' 'y'
echo "tail-marker"
exit 0
`)

	result, err := Run(context.Background(), []string{"-i", "in.mp4"}, RunOptions{Binary: tool})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.GreaterOrEqual(t, len(result.Stdout), 262144)
	assert.Contains(t, result.Stdout, "tail-marker")
}

func TestRunToolReportedFailure(t *testing.T) {
	tool := writeFakeTool(t, "fakeffmpeg", `
echo "in.mp4: No such file or directory" 1>&2
exit 1
`)

	result, err := Run(context.Background(), []string{"-i", "in.mp4", "out.mp4"},
		RunOptions{Binary: tool})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "No such file or directory")
	assert.Nil(t, result.LastProgress)

	runErr := result.Err()
	require.Error(t, runErr)
	var failure *RunFailure
	require.ErrorAs(t, runErr, &failure)
	assert.Equal(t, 1, failure.ExitCode)
	assert.Contains(t, failure.Stderr, "No such file or directory")
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	tool := writeFakeTool(t, "fakeffmpeg", `
echo "frame=    1 fps=1.0 time=00:00:00.10 speed=0.1x" 1>&2
exec sleep 30
`)

	start := time.Now()
	result, err := Run(context.Background(), []string{"-i", "in.mp4"}, RunOptions{
		Binary:  tool,
		Timeout: 300 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.True(t, result.TimedOut)
	assert.Equal(t, KilledExitCode, result.ExitCode)
	assert.Less(t, elapsed, 5*time.Second, "timed-out run must return promptly")

	// Partial stderr collected before the kill is preserved.
	assert.Contains(t, result.Stderr, "frame=    1")
	require.NotNil(t, result.LastProgress)
}

func TestRunCallerCancellation(t *testing.T) {
	tool := writeFakeTool(t, "fakeffmpeg", "sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	result, err := Run(ctx, []string{"-i", "in.mp4"}, RunOptions{Binary: tool})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.TimedOut)
	assert.Equal(t, KilledExitCode, result.ExitCode)
}

func TestRunPanickingCallbackDoesNotAbort(t *testing.T) {
	tool := writeFakeTool(t, "fakeffmpeg", `
echo "frame=    1 fps=1.0 time=00:00:00.10 speed=0.1x" 1>&2
echo "frame=    2 fps=1.0 time=00:00:00.20 speed=0.1x" 1>&2
exit 0
`)

	calls := 0
	result, err := Run(context.Background(), []string{"-i", "in.mp4"}, RunOptions{
		Binary: tool,
		OnProgress: func(p Progress) {
			calls++
			panic("consumer bug")
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, 2, calls, "stream keeps flowing past a panicking callback")
	require.NotNil(t, result.LastProgress)
	assert.Equal(t, int64(2), *result.LastProgress.Frame)
}

func TestDetectVersion(t *testing.T) {
	dir := t.TempDir()
	script := `#!/bin/sh
echo "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers"
echo "built with gcc"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(script), 0o755))
	t.Setenv("PATH", dir)

	version, ok := DetectVersion()
	require.True(t, ok)
	assert.Equal(t, "6.1.1", version)
}

func TestDetectVersionMissingTool(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, ok := DetectVersion()
	assert.False(t, ok)
}

func TestVerifyTools(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	}
	t.Setenv("PATH", dir)
	assert.NoError(t, VerifyTools())

	t.Setenv("PATH", t.TempDir())
	err := VerifyTools()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
}
