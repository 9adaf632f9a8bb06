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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/clipforge/clipforge/utils"
)

// defaultAudioBitrates are applied when re-encoding without an explicit
// bitrate. flac is lossless and takes none.
var defaultAudioBitrates = map[string]string{
	"aac":  "128k",
	"mp3":  "192k",
	"opus": "128k",
}

var validExtractCodecs = map[string]bool{
	"copy": true, "aac": true, "mp3": true, "opus": true, "flac": true,
}

// ExtractAudioOptions configure ExtractAudio.
type ExtractAudioOptions struct {
	OutputPath string
	Codec      string // "copy" (default) or a re-encode codec
	Bitrate    string // only used when re-encoding
	Timeout    time.Duration
	OnPercent  PercentFunc
}

// ExtractAudio strips the video stream and writes the audio track to its
// own file, optionally re-encoding it.
func ExtractAudio(ctx context.Context, tool Tool, inputPath string, opts ExtractAudioOptions) (string, error) {
	if err := utils.ValidateInputFile(inputPath); err != nil {
		return "", err
	}

	codec := opts.Codec
	if codec == "" {
		codec = "copy"
	}
	if !validExtractCodecs[codec] {
		return "", errors.Wrapf(utils.ErrInvalidInput, "invalid audio codec %q", codec)
	}

	if err := utils.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return "", err
	}

	var totalDuration float64
	if opts.OnPercent != nil {
		if info, err := tool.Probe(ctx, inputPath); err == nil {
			totalDuration = info.Duration
		}
	}

	args := []string{"-i", inputPath, "-vn", "-acodec", codec}
	if codec != "copy" {
		bitrate := opts.Bitrate
		if bitrate == "" {
			bitrate = defaultAudioBitrates[codec]
		}
		if bitrate != "" {
			args = append(args, "-b:a", bitrate)
		}
	}
	args = append(args, opts.OutputPath)

	if err := runTool(ctx, tool, args, opts.Timeout, percentReporter(totalDuration, opts.OnPercent)); err != nil {
		return "", errors.Wrapf(err, "failed to extract audio from %s", inputPath)
	}
	if _, err := os.Stat(opts.OutputPath); err != nil {
		return "", errors.New("output audio file was not created")
	}

	log.Infof("Extracted audio to %s", opts.OutputPath)
	return opts.OutputPath, nil
}

// ReplaceAudioOptions configure ReplaceAudio.
type ReplaceAudioOptions struct {
	OutputPath string
	CopyCodecs bool
	Timeout    time.Duration
	OnPercent  PercentFunc
}

// ReplaceAudio swaps a video's audio track for the given audio file. The
// output ends at the shorter of the two inputs.
func ReplaceAudio(ctx context.Context, tool Tool, videoPath, audioPath string, opts ReplaceAudioOptions) (string, error) {
	if err := utils.ValidateInputFile(videoPath); err != nil {
		return "", err
	}
	if err := utils.ValidateInputFile(audioPath); err != nil {
		return "", err
	}

	var totalDuration float64
	if info, err := tool.Probe(ctx, videoPath); err == nil {
		totalDuration = info.Duration
	}

	if err := utils.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return "", err
	}

	args := []string{"-i", videoPath, "-i", audioPath}
	if opts.CopyCodecs {
		args = append(args, "-c:v", "copy", "-c:a", "copy")
	} else {
		args = append(args, encodeArgs(nil)...)
	}
	args = append(args,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		opts.OutputPath,
	)

	if err := runTool(ctx, tool, args, opts.Timeout, percentReporter(totalDuration, opts.OnPercent)); err != nil {
		return "", errors.Wrapf(err, "failed to replace audio in %s", videoPath)
	}
	if _, err := os.Stat(opts.OutputPath); err != nil {
		return "", errors.New("output video file was not created")
	}

	log.Infof("Replaced audio: %s", opts.OutputPath)
	return opts.OutputPath, nil
}

// MixAudioOptions configure MixAudio.
type MixAudioOptions struct {
	OutputPath string
	Codec      string // output codec, defaults to aac
	Bitrate    string // output bitrate, defaults to 192k
	Timeout    time.Duration
}

// MixAudio overlays two or more audio files into one track with the amix
// filter; the output lasts as long as the longest input.
func MixAudio(ctx context.Context, tool Tool, audioFiles []string, opts MixAudioOptions) (string, error) {
	if len(audioFiles) < 2 {
		return "", errors.Wrap(utils.ErrInvalidInput, "at least 2 audio files are required for mixing")
	}
	for _, audio := range audioFiles {
		if err := utils.ValidateInputFile(audio); err != nil {
			return "", err
		}
	}

	codec := opts.Codec
	if codec == "" {
		codec = "aac"
	}
	bitrate := opts.Bitrate
	if bitrate == "" {
		bitrate = "192k"
	}

	if err := utils.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return "", err
	}

	var args []string
	var filter strings.Builder
	for i, audio := range audioFiles {
		args = append(args, "-i", audio)
		fmt.Fprintf(&filter, "[%d:a]", i)
	}
	fmt.Fprintf(&filter, "amix=inputs=%d:duration=longest", len(audioFiles))

	args = append(args,
		"-filter_complex", filter.String(),
		"-c:a", codec,
		"-b:a", bitrate,
		opts.OutputPath,
	)

	if err := runTool(ctx, tool, args, opts.Timeout, nil); err != nil {
		return "", errors.Wrap(err, "failed to mix audio tracks")
	}
	if _, err := os.Stat(opts.OutputPath); err != nil {
		return "", errors.New("output audio file was not created")
	}

	log.Infof("Mixed %d audio tracks into %s", len(audioFiles), opts.OutputPath)
	return opts.OutputPath, nil
}
