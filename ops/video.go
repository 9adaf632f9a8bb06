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
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/clipforge/clipforge/profiles"
	"github.com/clipforge/clipforge/utils"
)

// SegmentPlan previews how a video splits for a given segment duration.
type SegmentPlan struct {
	TotalDuration       float64
	SegmentDuration     int
	NumSegments         int
	LastSegmentDuration float64
}

// PlanSegments computes the segmentation arithmetic without touching the
// file. The final segment absorbs the remainder, so it is shorter unless
// the duration divides evenly.
func PlanSegments(totalDuration float64, segmentDuration int) (SegmentPlan, error) {
	if segmentDuration <= 0 {
		return SegmentPlan{}, errors.Wrapf(utils.ErrInvalidInput, "segment duration must be positive, got %d", segmentDuration)
	}
	if totalDuration <= 0 {
		return SegmentPlan{}, errors.Wrapf(utils.ErrInvalidInput, "video has invalid duration %.2f", totalDuration)
	}

	plan := SegmentPlan{
		TotalDuration:   totalDuration,
		SegmentDuration: segmentDuration,
		NumSegments:     int(math.Ceil(totalDuration / float64(segmentDuration))),
	}
	plan.LastSegmentDuration = math.Mod(totalDuration, float64(segmentDuration))
	if plan.LastSegmentDuration == 0 {
		plan.LastSegmentDuration = float64(segmentDuration)
	}
	return plan, nil
}

// CutOptions configure CutByDuration.
type CutOptions struct {
	OutputDir       string
	SegmentDuration int // seconds per segment
	CopyCodec       bool
	Prefix          string // output filename prefix, defaults to "part"
	StartNumber     int    // first segment number, defaults to 1
	Profile         *profiles.Profile
	Timeout         time.Duration
	OnPercent       PercentFunc
}

// CutByDuration splits a video into fixed-length segments using ffmpeg's
// segment muxer, one invocation for the whole file. Output files are named
// prefix_NNN with the input's extension. Returns the segments created.
func CutByDuration(ctx context.Context, tool Tool, inputPath string, opts CutOptions) ([]string, error) {
	if err := utils.ValidateInputFile(inputPath); err != nil {
		return nil, err
	}

	info, err := tool.Probe(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	plan, err := PlanSegments(info.Duration, opts.SegmentDuration)
	if err != nil {
		return nil, err
	}
	log.Infof("Splitting %.1fs video into %d segments of %ds each",
		plan.TotalDuration, plan.NumSegments, plan.SegmentDuration)

	if err := utils.EnsureDir(opts.OutputDir); err != nil {
		return nil, err
	}

	// Segments of a copy roughly total the input size; 1.2x covers
	// container overhead and re-encode growth.
	inputSize, err := utils.FileSize(inputPath)
	if err != nil {
		return nil, err
	}
	if err := utils.CheckDiskSpace(opts.OutputDir, inputSize*12/10); err != nil {
		return nil, err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "part"
	}
	startNumber := opts.StartNumber
	if startNumber <= 0 {
		startNumber = 1
	}
	ext := filepath.Ext(inputPath)
	pattern := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%%03d%s", prefix, ext))

	args := []string{
		"-i", inputPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(opts.SegmentDuration),
		"-segment_start_number", strconv.Itoa(startNumber),
		"-reset_timestamps", "1",
	}
	if opts.CopyCodec {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, encodeArgs(opts.Profile)...)
	}
	args = append(args, pattern)

	if err := runTool(ctx, tool, args, opts.Timeout, percentReporter(plan.TotalDuration, opts.OnPercent)); err != nil {
		return nil, errors.Wrapf(err, "failed to cut %s", inputPath)
	}

	// The muxer decides the actual segment count; collect what exists.
	var outputs []string
	for i := 0; i < plan.NumSegments; i++ {
		segment := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%03d%s", prefix, startNumber+i, ext))
		if _, err := os.Stat(segment); err == nil {
			outputs = append(outputs, segment)
		} else {
			log.Warnf("Expected segment not found: %s", segment)
		}
	}
	if len(outputs) == 0 {
		return nil, errors.New("no output segments were created")
	}

	log.Infof("Created %d segments in %s", len(outputs), opts.OutputDir)
	return outputs, nil
}

// TimeRange is one (start, end) cut window in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// CutTimestampsOptions configure CutByTimestamps.
type CutTimestampsOptions struct {
	OutputDir string
	Ranges    []TimeRange
	CopyCodec bool
	Prefix    string
	Profile   *profiles.Profile
	Timeout   time.Duration
	OnPercent PercentFunc
}

// CutByTimestamps extracts one segment per time range, each with its own
// ffmpeg invocation. Progress covers the whole batch.
func CutByTimestamps(ctx context.Context, tool Tool, inputPath string, opts CutTimestampsOptions) ([]string, error) {
	if err := utils.ValidateInputFile(inputPath); err != nil {
		return nil, err
	}
	if len(opts.Ranges) == 0 {
		return nil, errors.Wrap(utils.ErrInvalidInput, "timestamps list cannot be empty")
	}
	for i, r := range opts.Ranges {
		if r.Start < 0 || r.End < 0 {
			return nil, errors.Wrapf(utils.ErrInvalidInput, "timestamp %d: negative values not allowed", i)
		}
		if r.End <= r.Start {
			return nil, errors.Wrapf(utils.ErrInvalidInput, "timestamp %d: end must be greater than start", i)
		}
	}

	if err := utils.EnsureDir(opts.OutputDir); err != nil {
		return nil, err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "part"
	}
	ext := filepath.Ext(inputPath)

	var outputs []string
	for i, r := range opts.Ranges {
		output := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%03d%s", prefix, i+1, ext))
		duration := r.End - r.Start
		log.Infof("Cutting segment %d: %.1fs to %.1fs", i+1, r.Start, r.End)

		args := []string{
			"-i", inputPath,
			"-ss", formatSeconds(r.Start),
			"-t", formatSeconds(duration),
		}
		if opts.CopyCodec {
			args = append(args, "-c", "copy")
		} else {
			args = append(args, encodeArgs(opts.Profile)...)
		}
		args = append(args, output)

		segIndex := i
		onProgress := percentReporter(duration, func(percent float64) {
			if opts.OnPercent != nil {
				opts.OnPercent((float64(segIndex)*100 + percent) / float64(len(opts.Ranges)))
			}
		})
		if err := runTool(ctx, tool, args, opts.Timeout, onProgress); err != nil {
			return nil, errors.Wrapf(err, "failed to create segment %d", i+1)
		}
		if _, err := os.Stat(output); err == nil {
			outputs = append(outputs, output)
		} else {
			log.Warnf("Output file not created: %s", output)
		}
	}

	if len(outputs) == 0 {
		return nil, errors.New("no output segments were created")
	}
	return outputs, nil
}

// ConcatOptions configure Concat.
type ConcatOptions struct {
	OutputPath     string
	CopyCodec      bool
	SkipValidation bool // skip the codec/resolution compatibility probe
	Profile        *profiles.Profile
	Timeout        time.Duration
	OnPercent      PercentFunc
}

// Concat joins two or more videos with ffmpeg's concat demuxer. In copy
// mode a video codec mismatch between inputs is fatal; a resolution
// mismatch is only warned about since the demuxer tolerates it poorly but
// does not reject it.
func Concat(ctx context.Context, tool Tool, inputFiles []string, opts ConcatOptions) (string, error) {
	if len(inputFiles) < 2 {
		return "", errors.Wrap(utils.ErrInvalidInput, "at least 2 input files are required for concatenation")
	}
	for _, input := range inputFiles {
		if err := utils.ValidateInputFile(input); err != nil {
			return "", err
		}
	}

	var totalDuration float64
	if !opts.SkipValidation {
		first, err := tool.Probe(ctx, inputFiles[0])
		if err != nil {
			return "", err
		}
		totalDuration = first.Duration

		for i, input := range inputFiles[1:] {
			info, err := tool.Probe(ctx, input)
			if err != nil {
				return "", err
			}
			totalDuration += info.Duration

			if info.VideoCodec != first.VideoCodec {
				if opts.CopyCodec {
					return "", errors.Wrapf(utils.ErrInvalidInput,
						"videos have incompatible codecs (%s vs %s); re-encode or align the inputs",
						info.VideoCodec, first.VideoCodec)
				}
				log.Warnf("Video %d has different codec: %s vs %s", i+1, info.VideoCodec, first.VideoCodec)
			}
			if info.Width != first.Width || info.Height != first.Height {
				log.Warnf("Video %d has different resolution: %dx%d vs %dx%d",
					i+1, info.Width, info.Height, first.Width, first.Height)
			}
		}
	}

	if err := utils.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return "", err
	}

	listFile, err := writeConcatList(inputFiles)
	if err != nil {
		return "", err
	}
	defer utils.CleanupFiles(listFile)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	if opts.CopyCodec {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, encodeArgs(opts.Profile)...)
	}
	args = append(args, opts.OutputPath)

	if err := runTool(ctx, tool, args, opts.Timeout, percentReporter(totalDuration, opts.OnPercent)); err != nil {
		return "", errors.Wrap(err, "failed to concatenate videos")
	}
	if _, err := os.Stat(opts.OutputPath); err != nil {
		return "", errors.New("output file was not created")
	}

	log.Infof("Concatenated %d videos into %s", len(inputFiles), opts.OutputPath)
	return opts.OutputPath, nil
}

// writeConcatList writes the concat demuxer's file list. Paths are made
// absolute and single quotes escaped per the demuxer's quoting rules.
func writeConcatList(inputFiles []string) (string, error) {
	listFile, err := utils.TempFilename("concat", ".txt")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, input := range inputFiles {
		abs, err := filepath.Abs(input)
		if err != nil {
			utils.CleanupFiles(listFile)
			return "", errors.Wrapf(err, "failed to resolve %s", input)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}

	if err := os.WriteFile(listFile, []byte(b.String()), 0o644); err != nil {
		utils.CleanupFiles(listFile)
		return "", errors.Wrap(err, "failed to write concat file list")
	}
	return listFile, nil
}

// formatSeconds renders a duration for ffmpeg without trailing float noise.
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
