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
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var versionRegex = regexp.MustCompile(`ffmpeg version (\S+)`)

// DetectVersion probes the installed ffmpeg for its version token. It is
// best-effort and never fails: a missing binary, a timed-out probe, or
// unparseable output all report ok=false.
func DetectVersion() (version string, ok bool) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return "", false
	}

	firstLine, _, _ := strings.Cut(string(out), "\n")
	if m := versionRegex.FindStringSubmatch(firstLine); m != nil {
		return m[1], true
	}
	firstLine = strings.TrimSpace(firstLine)
	if firstLine == "" {
		return "", false
	}
	return firstLine, true
}

// VerifyTools checks that both ffmpeg and ffprobe are resolvable on PATH.
func VerifyTools() error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return errors.Wrapf(ErrToolNotFound, "%s", tool)
		}
	}
	return nil
}
