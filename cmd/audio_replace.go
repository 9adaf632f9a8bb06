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
)

var (
	audioReplaceCmd = &cobra.Command{
		Use:   "replace",
		Short: "Replace a video's audio track",
		Long: `Replace the audio track of a video with a different audio file. The
output ends at the shorter of the two inputs.`,
		Example: `  clipforge audio replace -v movie.mp4 -a narration.m4a -o dubbed.mp4`,
		RunE:    audioReplaceMain,
	}

	audioReplaceVideo  string
	audioReplaceAudio  string
	audioReplaceOutput string
	audioReplaceNoCopy bool
	audioReplaceAsync  bool
)

func init() {
	audioReplaceCmd.Flags().StringVarP(&audioReplaceVideo, "video", "v", "", "Input video file")
	audioReplaceCmd.Flags().StringVarP(&audioReplaceAudio, "audio", "a", "", "Replacement audio file")
	audioReplaceCmd.Flags().StringVarP(&audioReplaceOutput, "output", "o", "", "Output video file")
	audioReplaceCmd.Flags().BoolVar(&audioReplaceNoCopy, "no-copy", false, "Force re-encode instead of codec copy")
	audioReplaceCmd.Flags().BoolVar(&audioReplaceAsync, "async", false, "Submit job to queue for background processing")

	for _, flag := range []string{"video", "audio", "output"} {
		if err := audioReplaceCmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
	audioCmd.AddCommand(audioReplaceCmd)
}

func audioReplaceMain(cmd *cobra.Command, args []string) error {
	if dryRun {
		fmt.Printf("Would replace audio in %s with %s, writing %s\n",
			audioReplaceVideo, audioReplaceAudio, audioReplaceOutput)
		return nil
	}
	if err := requireTools(); err != nil {
		return err
	}

	if audioReplaceAsync {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		jobID, err := store.CreateJob(ops.JobTypeReplaceAudio,
			[]string{audioReplaceVideo, audioReplaceAudio}, map[string]any{
				"output":     audioReplaceOutput,
				"copy_codec": !audioReplaceNoCopy,
			})
		if err != nil {
			return err
		}
		submittedJobHint(jobID)
		return nil
	}

	printer := &progressPrinter{}
	output, err := ops.ReplaceAudio(cmd.Context(), ops.DefaultTool(), audioReplaceVideo, audioReplaceAudio, ops.ReplaceAudioOptions{
		OutputPath: audioReplaceOutput,
		CopyCodecs: !audioReplaceNoCopy,
		Timeout:    config.JobTimeout(),
		OnPercent:  printer.Update,
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
