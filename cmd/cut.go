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
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/ffmpeg"
	"github.com/clipforge/clipforge/ops"
	"github.com/clipforge/clipforge/profiles"
)

var (
	cutCmd = &cobra.Command{
		Use:   "cut",
		Short: "Cut a video into segments",
		Long: `Cut a video into fixed-length segments, or into explicit time ranges
with --ranges. By default codecs are copied without re-encoding; use
--no-copy with an optional --profile to re-encode.`,
		Example: `  clipforge cut -i movie.mp4 -o ./output --duration 11
  clipforge cut -i movie.mp4 -o ./output --ranges 0-300,300-600
  clipforge cut -i movie.mp4 -o ./output --no-copy --profile clip_720p`,
		RunE: cutMain,
	}

	cutInput       string
	cutOutputDir   string
	cutDuration    int
	cutPrefix      string
	cutStartNumber int
	cutNoCopy      bool
	cutProfile     string
	cutRanges      string
	cutAsync       bool
)

func init() {
	cutCmd.Flags().StringVarP(&cutInput, "input", "i", "", "Input video file")
	cutCmd.Flags().StringVarP(&cutOutputDir, "output-dir", "o", "", "Output directory for segments")
	cutCmd.Flags().IntVar(&cutDuration, "duration", 11, "Duration of each segment in minutes")
	cutCmd.Flags().StringVarP(&cutPrefix, "prefix", "p", "part", "Prefix for output filenames")
	cutCmd.Flags().IntVar(&cutStartNumber, "start-number", 1, "Starting number for segment numbering")
	cutCmd.Flags().BoolVar(&cutNoCopy, "no-copy", false, "Force re-encode instead of codec copy")
	cutCmd.Flags().StringVar(&cutProfile, "profile", "", "Encoding profile to use (if re-encoding)")
	cutCmd.Flags().StringVar(&cutRanges, "ranges", "", "Comma-separated start-end pairs in seconds (e.g. 0-300,300-600)")
	cutCmd.Flags().BoolVar(&cutAsync, "async", false, "Submit job to queue for background processing")

	if err := cutCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
	if err := cutCmd.MarkFlagRequired("output-dir"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(cutCmd)
}

func cutMain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if dryRun {
		return cutDryRun(cmd)
	}
	if err := requireTools(); err != nil {
		return err
	}

	set, err := loadProfiles()
	if err != nil {
		return err
	}
	var profile *profiles.Profile
	if cutProfile != "" {
		if profile, err = set.Get(cutProfile); err != nil {
			return err
		}
	}

	if cutRanges != "" {
		ranges, err := parseRanges(cutRanges)
		if err != nil {
			return err
		}
		printer := &progressPrinter{}
		outputs, err := ops.CutByTimestamps(ctx, ops.DefaultTool(), cutInput, ops.CutTimestampsOptions{
			OutputDir: cutOutputDir,
			Ranges:    ranges,
			CopyCodec: !cutNoCopy,
			Prefix:    cutPrefix,
			Profile:   profile,
			Timeout:   config.JobTimeout(),
			OnPercent: printer.Update,
		})
		printer.Finish()
		if err != nil {
			return err
		}
		return reportSegments(outputs)
	}

	if cutAsync {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		jobID, err := store.CreateJob(ops.JobTypeCut, []string{cutInput}, map[string]any{
			"output_dir":       cutOutputDir,
			"segment_duration": cutDuration * 60,
			"copy_codec":       !cutNoCopy,
			"prefix":           cutPrefix,
			"start_number":     cutStartNumber,
			"profile":          cutProfile,
		})
		if err != nil {
			return err
		}
		submittedJobHint(jobID)
		return nil
	}

	printer := &progressPrinter{}
	outputs, err := ops.CutByDuration(ctx, ops.DefaultTool(), cutInput, ops.CutOptions{
		OutputDir:       cutOutputDir,
		SegmentDuration: cutDuration * 60,
		CopyCodec:       !cutNoCopy,
		Prefix:          cutPrefix,
		StartNumber:     cutStartNumber,
		Profile:         profile,
		Timeout:         config.JobTimeout(),
		OnPercent:       printer.Update,
	})
	printer.Finish()
	if err != nil {
		return err
	}
	return reportSegments(outputs)
}

func cutDryRun(cmd *cobra.Command) error {
	info, err := ffmpeg.Probe(cmd.Context(), cutInput)
	if err != nil {
		return err
	}
	plan, err := ops.PlanSegments(info.Duration, cutDuration*60)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(plan)
	}
	fmt.Printf("Video duration: %.1f seconds\n", plan.TotalDuration)
	fmt.Printf("Segment duration: %d seconds\n", plan.SegmentDuration)
	fmt.Printf("Number of segments: %d\n", plan.NumSegments)
	fmt.Printf("Last segment: %.1f seconds\n", plan.LastSegmentDuration)
	fmt.Println("Would create files:")
	ext := filepath.Ext(cutInput)
	for i := 0; i < plan.NumSegments; i++ {
		fmt.Printf("  - %s\n", filepath.Join(cutOutputDir,
			fmt.Sprintf("%s_%03d%s", cutPrefix, cutStartNumber+i, ext)))
	}
	return nil
}

func reportSegments(outputs []string) error {
	if outputJSON {
		return printJSON(map[string]any{"output_files": outputs})
	}
	fmt.Printf("Created %d segments:\n", len(outputs))
	for _, output := range outputs {
		fmt.Printf("  %s\n", output)
	}
	return nil
}

// parseRanges parses "0-300,300-600" into time ranges.
func parseRanges(spec string) ([]ops.TimeRange, error) {
	var ranges []ops.TimeRange
	for _, part := range strings.Split(spec, ",") {
		start, end, found := strings.Cut(strings.TrimSpace(part), "-")
		if !found {
			return nil, errors.Errorf("malformed range %q (expected start-end)", part)
		}
		startSec, err := strconv.ParseFloat(start, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed range start %q", start)
		}
		endSec, err := strconv.ParseFloat(end, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed range end %q", end)
		}
		ranges = append(ranges, ops.TimeRange{Start: startSec, End: endSec})
	}
	return ranges, nil
}
