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
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultProbeTimeout bounds ffprobe runs; metadata extraction on a healthy
// file takes well under a second.
const DefaultProbeTimeout = 30 * time.Second

// MediaInfo is the subset of ffprobe's JSON output the rest of the tool
// consumes.
type MediaInfo struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	VideoCodec string  `json:"video_codec"`
	AudioCodec string  `json:"audio_codec"`
	BitRate    int64   `json:"bit_rate"`
	FPS        float64 `json:"fps"`
	Format     string  `json:"format"`
}

type probeFormat struct {
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

// Probe runs ffprobe against a local file and returns the container and
// first-stream metadata. The file must contain at least one video stream.
func Probe(ctx context.Context, path string) (*MediaInfo, error) {
	binPath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, errors.Wrap(ErrToolNotFound, "ffprobe")
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	log.Debugf("Executing ffprobe %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, binPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Errorf("ffprobe timed out on %s", path)
		}
		return nil, errors.Wrapf(err, "ffprobe failed on %s: %s", path, strings.TrimSpace(stderr.String()))
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse ffprobe output")
	}

	var video, audio *probeStream
	for i := range parsed.Streams {
		stream := &parsed.Streams[i]
		switch stream.CodecType {
		case "video":
			if video == nil {
				video = stream
			}
		case "audio":
			if audio == nil {
				audio = stream
			}
		}
	}
	if video == nil {
		return nil, errors.Errorf("no video stream found in %s", path)
	}

	info := &MediaInfo{
		Width:      video.Width,
		Height:     video.Height,
		VideoCodec: video.CodecName,
		AudioCodec: "none",
		Format:     parsed.Format.FormatName,
		FPS:        parseFrameRate(video.RFrameRate),
	}
	if audio != nil {
		info.AudioCodec = audio.CodecName
	}
	if parsed.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(parsed.Format.Duration, 64)
	}
	if parsed.Format.BitRate != "" {
		info.BitRate, _ = strconv.ParseInt(parsed.Format.BitRate, 10, 64)
	}

	log.Debugf("Probed %s: %.2fs %dx%d %s", path, info.Duration, info.Width, info.Height, info.VideoCodec)
	return info, nil
}

// parseFrameRate converts ffprobe's rational frame rate ("30/1",
// "30000/1001") to frames per second; 0 when absent or malformed.
func parseFrameRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	if !found {
		return 0
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
