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

// Package ops implements the media operations: cutting videos into
// segments, concatenation, and audio extraction/replacement/mixing. Each
// operation validates its inputs, builds an ffmpeg argument vector, and
// executes it through a Tool, reporting progress as a percentage of the
// probed input duration.
package ops

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/clipforge/clipforge/database"
	"github.com/clipforge/clipforge/ffmpeg"
	"github.com/clipforge/clipforge/profiles"
)

// Job types persisted in the job store.
const (
	JobTypeCut          = "cut"
	JobTypeConcat       = "concat"
	JobTypeExtractAudio = "extract_audio"
	JobTypeReplaceAudio = "replace_audio"
	JobTypeMixAudio     = "mix_audio"
)

// Tool abstracts the ffmpeg/ffprobe binaries so operations can be tested
// without media files or the tools installed.
type Tool interface {
	Run(ctx context.Context, args []string, opts ffmpeg.RunOptions) (*ffmpeg.Result, error)
	Probe(ctx context.Context, path string) (*ffmpeg.MediaInfo, error)
}

type ffmpegTool struct{}

func (ffmpegTool) Run(ctx context.Context, args []string, opts ffmpeg.RunOptions) (*ffmpeg.Result, error) {
	return ffmpeg.Run(ctx, args, opts)
}

func (ffmpegTool) Probe(ctx context.Context, path string) (*ffmpeg.MediaInfo, error) {
	return ffmpeg.Probe(ctx, path)
}

// DefaultTool returns the Tool backed by the real binaries on PATH.
func DefaultTool() Tool {
	return ffmpegTool{}
}

// PercentFunc receives coarse progress as a 0-100 percentage.
type PercentFunc func(percent float64)

// encodeArgs returns the codec flags for re-encode mode: the profile's
// settings, or the stock H.264/AAC configuration when no profile is given.
func encodeArgs(profile *profiles.Profile) []string {
	if profile == nil {
		return []string{
			"-c:v", "libx264",
			"-preset", "medium",
			"-crf", "23",
			"-c:a", "aac",
			"-b:a", "128k",
		}
	}
	return profile.CodecArgs()
}

// percentReporter converts time-based progress events into a percentage of
// the total duration. A zero or unknown duration disables reporting.
func percentReporter(totalDuration float64, onPercent PercentFunc) ffmpeg.ProgressFunc {
	if onPercent == nil || totalDuration <= 0 {
		return nil
	}
	return func(p ffmpeg.Progress) {
		if p.TimeSeconds == nil {
			return
		}
		percent := *p.TimeSeconds / totalDuration * 100
		if percent > 100 {
			percent = 100
		}
		onPercent(percent)
	}
}

// runTool executes one ffmpeg invocation and folds a tool-reported failure
// into the returned error.
func runTool(ctx context.Context, tool Tool, args []string, timeout time.Duration, onProgress ffmpeg.ProgressFunc) error {
	result, err := tool.Run(ctx, args, ffmpeg.RunOptions{
		Timeout:    timeout,
		OnProgress: onProgress,
	})
	if err != nil {
		return err
	}
	return result.Err()
}

// ExecuteJob runs a previously queued job. The job's Config carries the
// operation parameters recorded at submission time; output files are
// returned for the caller to persist against the job record.
func ExecuteJob(ctx context.Context, tool Tool, job *database.Job, set *profiles.Set, timeout time.Duration, onPercent PercentFunc) ([]string, error) {
	cfg := jobConfig(job.Config)

	profile, err := cfg.profile(set)
	if err != nil {
		return nil, err
	}

	switch job.JobType {
	case JobTypeCut:
		if len(job.InputFiles) != 1 {
			return nil, errors.Errorf("cut job expects exactly one input, got %d", len(job.InputFiles))
		}
		return CutByDuration(ctx, tool, job.InputFiles[0], CutOptions{
			OutputDir:       cfg.str("output_dir"),
			SegmentDuration: cfg.num("segment_duration"),
			CopyCodec:       cfg.boolean("copy_codec"),
			Prefix:          cfg.str("prefix"),
			StartNumber:     cfg.num("start_number"),
			Profile:         profile,
			Timeout:         timeout,
			OnPercent:       onPercent,
		})

	case JobTypeConcat:
		output, err := Concat(ctx, tool, job.InputFiles, ConcatOptions{
			OutputPath:     cfg.str("output"),
			CopyCodec:      cfg.boolean("copy_codec"),
			SkipValidation: cfg.boolean("skip_validation"),
			Profile:        profile,
			Timeout:        timeout,
			OnPercent:      onPercent,
		})
		if err != nil {
			return nil, err
		}
		return []string{output}, nil

	case JobTypeExtractAudio:
		if len(job.InputFiles) != 1 {
			return nil, errors.Errorf("extract_audio job expects exactly one input, got %d", len(job.InputFiles))
		}
		output, err := ExtractAudio(ctx, tool, job.InputFiles[0], ExtractAudioOptions{
			OutputPath: cfg.str("output"),
			Codec:      cfg.str("codec"),
			Bitrate:    cfg.str("bitrate"),
			Timeout:    timeout,
			OnPercent:  onPercent,
		})
		if err != nil {
			return nil, err
		}
		return []string{output}, nil

	case JobTypeReplaceAudio:
		if len(job.InputFiles) != 2 {
			return nil, errors.Errorf("replace_audio job expects video and audio inputs, got %d", len(job.InputFiles))
		}
		output, err := ReplaceAudio(ctx, tool, job.InputFiles[0], job.InputFiles[1], ReplaceAudioOptions{
			OutputPath: cfg.str("output"),
			CopyCodecs: cfg.boolean("copy_codec"),
			Timeout:    timeout,
			OnPercent:  onPercent,
		})
		if err != nil {
			return nil, err
		}
		return []string{output}, nil

	case JobTypeMixAudio:
		output, err := MixAudio(ctx, tool, job.InputFiles, MixAudioOptions{
			OutputPath: cfg.str("output"),
			Codec:      cfg.str("codec"),
			Bitrate:    cfg.str("bitrate"),
			Timeout:    timeout,
		})
		if err != nil {
			return nil, err
		}
		return []string{output}, nil
	}

	return nil, errors.Errorf("unknown job type %q", job.JobType)
}

// jobConfig wraps the loosely typed job Config map. Numbers round-trip
// through JSON as float64, so numeric lookups accept both forms.
type jobConfig map[string]any

func (c jobConfig) str(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c jobConfig) num(key string) int {
	switch v := c[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (c jobConfig) boolean(key string) bool {
	v, _ := c[key].(bool)
	return v
}

func (c jobConfig) profile(set *profiles.Set) (*profiles.Profile, error) {
	name := c.str("profile")
	if name == "" {
		return nil, nil
	}
	if set == nil {
		return nil, errors.Errorf("job references profile %q but no profiles are loaded", name)
	}
	return set.Get(name)
}
