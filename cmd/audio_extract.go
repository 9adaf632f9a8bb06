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
	audioExtractCmd = &cobra.Command{
		Use:   "extract",
		Short: "Extract audio from a video",
		Example: `  clipforge audio extract -i movie.mp4 -o audio.m4a
  clipforge audio extract -i movie.mp4 -o audio.mp3 --codec mp3 --bitrate 192k`,
		RunE: audioExtractMain,
	}

	audioExtractInput   string
	audioExtractOutput  string
	audioExtractCodec   string
	audioExtractBitrate string
	audioExtractAsync   bool
)

func init() {
	audioExtractCmd.Flags().StringVarP(&audioExtractInput, "input", "i", "", "Input video file")
	audioExtractCmd.Flags().StringVarP(&audioExtractOutput, "output", "o", "", "Output audio file")
	audioExtractCmd.Flags().StringVarP(&audioExtractCodec, "codec", "c", "copy", "Audio codec (copy, aac, mp3, opus, flac)")
	audioExtractCmd.Flags().StringVarP(&audioExtractBitrate, "bitrate", "b", "", "Audio bitrate (e.g. 192k)")
	audioExtractCmd.Flags().BoolVar(&audioExtractAsync, "async", false, "Submit job to queue for background processing")

	if err := audioExtractCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
	if err := audioExtractCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
	audioCmd.AddCommand(audioExtractCmd)
}

func audioExtractMain(cmd *cobra.Command, args []string) error {
	if dryRun {
		fmt.Printf("Would extract audio from %s to %s (codec %s)\n",
			audioExtractInput, audioExtractOutput, audioExtractCodec)
		return nil
	}
	if err := requireTools(); err != nil {
		return err
	}

	if audioExtractAsync {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		jobID, err := store.CreateJob(ops.JobTypeExtractAudio, []string{audioExtractInput}, map[string]any{
			"output":  audioExtractOutput,
			"codec":   audioExtractCodec,
			"bitrate": audioExtractBitrate,
		})
		if err != nil {
			return err
		}
		submittedJobHint(jobID)
		return nil
	}

	printer := &progressPrinter{}
	output, err := ops.ExtractAudio(cmd.Context(), ops.DefaultTool(), audioExtractInput, ops.ExtractAudioOptions{
		OutputPath: audioExtractOutput,
		Codec:      audioExtractCodec,
		Bitrate:    audioExtractBitrate,
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
