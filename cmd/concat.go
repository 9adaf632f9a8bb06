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

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/ops"
	"github.com/clipforge/clipforge/profiles"
)

var (
	concatCmd = &cobra.Command{
		Use:   "concat",
		Short: "Concatenate multiple videos into one",
		Long: `Concatenate two or more videos into a single file. Inputs are checked
for codec compatibility before joining; in copy mode a codec mismatch is
an error, so either re-encode with --no-copy or align the inputs.`,
		Example: `  clipforge concat -i part1.mp4 -i part2.mp4 -i part3.mp4 -o final.mp4
  clipforge concat -i a.mp4 -i b.mp4 -o out.mp4 --no-copy --profile clip_1080p`,
		RunE: concatMain,
	}

	concatInputs     []string
	concatOutput     string
	concatNoCopy     bool
	concatNoValidate bool
	concatProfile    string
	concatAsync      bool
)

func init() {
	concatCmd.Flags().StringArrayVarP(&concatInputs, "inputs", "i", nil, "Input video files (can specify multiple times)")
	concatCmd.Flags().StringVarP(&concatOutput, "output", "o", "", "Output video file")
	concatCmd.Flags().BoolVar(&concatNoCopy, "no-copy", false, "Force re-encode instead of codec copy")
	concatCmd.Flags().BoolVar(&concatNoValidate, "no-validate", false, "Skip codec compatibility validation")
	concatCmd.Flags().StringVar(&concatProfile, "profile", "", "Encoding profile to use (if re-encoding)")
	concatCmd.Flags().BoolVar(&concatAsync, "async", false, "Submit job to queue for background processing")

	if err := concatCmd.MarkFlagRequired("inputs"); err != nil {
		panic(err)
	}
	if err := concatCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(concatCmd)
}

func concatMain(cmd *cobra.Command, args []string) error {
	if dryRun {
		fmt.Printf("Would concatenate %d files into %s:\n", len(concatInputs), concatOutput)
		for i, input := range concatInputs {
			fmt.Printf("  %d. %s\n", i+1, input)
		}
		return nil
	}
	if err := requireTools(); err != nil {
		return err
	}

	if concatAsync {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		jobID, err := store.CreateJob(ops.JobTypeConcat, concatInputs, map[string]any{
			"output":          concatOutput,
			"copy_codec":      !concatNoCopy,
			"skip_validation": concatNoValidate,
			"profile":         concatProfile,
		})
		if err != nil {
			return err
		}
		submittedJobHint(jobID)
		return nil
	}

	set, err := loadProfiles()
	if err != nil {
		return err
	}
	var profile *profiles.Profile
	if concatProfile != "" {
		if profile, err = set.Get(concatProfile); err != nil {
			return err
		}
	}

	printer := &progressPrinter{}
	output, err := ops.Concat(cmd.Context(), ops.DefaultTool(), concatInputs, ops.ConcatOptions{
		OutputPath:     concatOutput,
		CopyCodec:      !concatNoCopy,
		SkipValidation: concatNoValidate,
		Profile:        profile,
		Timeout:        config.JobTimeout(),
		OnPercent:      printer.Update,
	})
	printer.Finish()
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(map[string]string{"output": output})
	}
	fmt.Println("Created:", output)
	return nil
}
