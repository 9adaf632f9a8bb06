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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrToolNotFound indicates the external binary is absent from PATH. It is
// the one spawn failure reported as an error rather than a Result: nothing
// was executed, so there is no exit code or diagnostic text to carry.
var ErrToolNotFound = errors.New("tool not found in PATH")

// KilledExitCode is the exit-code sentinel used when the child was killed
// (timeout or cancellation) rather than exiting on its own.
const KilledExitCode = -1

// Result is the outcome of one ffmpeg invocation. A non-zero exit is not an
// error at this layer: bad codecs and incompatible containers are frequent,
// content-dependent outcomes that callers inspect rather than unwind on.
type Result struct {
	Success      bool
	ExitCode     int
	Stdout       string
	Stderr       string
	TimedOut     bool
	LastProgress *Progress
}

// Err converts a failed result into an error carrying the tool's own
// diagnostic text verbatim. Returns nil for successful runs.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	return &RunFailure{ExitCode: r.ExitCode, Stderr: r.Stderr, TimedOut: r.TimedOut}
}

// RunFailure is the error form of a non-zero exit or killed run. The stderr
// text is the primary diagnostic and is preserved unmodified.
type RunFailure struct {
	ExitCode int
	Stderr   string
	TimedOut bool
}

func (e *RunFailure) Error() string {
	if e.TimedOut {
		return "ffmpeg timed out and was killed"
	}
	msg := fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	if tail := lastStderrLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func lastStderrLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// RunOptions control one invocation.
type RunOptions struct {
	// Timeout bounds the run; the child is killed when exceeded. Zero means
	// no bound, in which case a hung tool hangs the call.
	Timeout time.Duration

	// OnProgress, if set, receives every non-empty progress event parsed
	// from stderr, in line order. A panicking callback is recovered and
	// logged; it never aborts the run.
	OnProgress ProgressFunc

	// Binary overrides the executable name. Defaults to "ffmpeg".
	Binary string
}

// Run invokes ffmpeg with the given argument vector (not including the
// binary name), streaming stderr line by line as it arrives. ffmpeg writes
// both progress and final diagnostics exclusively to stderr; stdout is
// drained but carries no progress semantics.
//
// Arguments are forwarded verbatim: any rejection of a malformed vector
// comes from ffmpeg's own exit code, not from validation here.
func Run(ctx context.Context, args []string, opts RunOptions) (*Result, error) {
	if len(args) == 0 {
		return nil, errors.New("empty argument vector")
	}

	binary := opts.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.Wrapf(ErrToolNotFound, "%s", binary)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	log.Debugf("Executing %s %s", binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, path, args...)
	// ffmpeg's stdout carries no progress semantics; buffer it directly so
	// it is fully collected before Wait closes the descriptors.
	var stdoutBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", binary)
	}

	var stderrBuf strings.Builder
	var last *Progress

	scanner := bufio.NewScanner(stderrPipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanStatsLines)
	for scanner.Scan() {
		line := scanner.Text()
		stderrBuf.WriteString(line)
		stderrBuf.WriteByte('\n')

		progress := ParseProgress(line)
		if progress.Empty() {
			continue
		}
		last = &progress
		if opts.OnProgress != nil {
			forwardProgress(opts.OnProgress, progress)
		}
	}

	// A pathological line exceeding the scanner cap stops Scan while the
	// child may still be writing; keep draining the pipe raw so the child
	// never blocks on a full buffer, and preserve the tail diagnostics.
	if scanErr := scanner.Err(); scanErr != nil {
		log.Warnf("Stopped parsing %s stderr (%v); draining remainder unparsed", binary, scanErr)
		stderrBuf.WriteString("[progress parsing stopped: " + scanErr.Error() + "]\n")
		if _, err := io.Copy(&stderrBuf, stderrPipe); err != nil {
			log.Warnf("Failed to drain %s stderr: %v", binary, err)
		}
	}

	waitErr := cmd.Wait()

	result := &Result{
		Stdout:       stdoutBuf.String(),
		Stderr:       stderrBuf.String(),
		LastProgress: last,
	}

	switch {
	case waitErr == nil:
		result.Success = true
		result.ExitCode = 0
	case ctx.Err() != nil:
		// Killed by us. Deadline expiry is a timeout; anything else is a
		// caller cancellation, reported the same way minus the flag.
		result.ExitCode = KilledExitCode
		result.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		if result.TimedOut {
			log.Warnf("%s killed after exceeding %s timeout", binary, opts.Timeout)
		}
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return nil, errors.Wrapf(waitErr, "failed waiting on %s", binary)
		}
	}

	return result, nil
}

// forwardProgress shields the read loop from a misbehaving callback.
func forwardProgress(fn ProgressFunc, p Progress) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("Progress callback panicked: %v", r)
		}
	}()
	fn(p)
}

// scanStatsLines splits on \n or \r. ffmpeg rewrites its stats line in place
// with bare carriage returns, so a newline-only scanner would see one giant
// line arrive at exit instead of a progress stream.
func scanStatsLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		// Treat \r\n as one terminator.
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
