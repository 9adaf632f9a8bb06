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
	audioMixCmd = &cobra.Command{
		Use:   "mix",
		Short: "Mix multiple audio tracks into one",
		Long: `Overlay two or more audio files into a single track. The output lasts
as long as the longest input.`,
		Example: `  clipforge audio mix -i voice.m4a -i music.mp3 -o mixed.m4a
  clipforge audio mix -i a.m4a -i b.m4a -i c.m4a -o out.mp3 --codec mp3 --bitrate 256k`,
		RunE: audioMixMain,
	}

	audioMixInputs  []string
	audioMixOutput  string
	audioMixCodec   string
	audioMixBitrate string
	audioMixAsync   bool
)

func init() {
	audioMixCmd.Flags().StringArrayVarP(&audioMixInputs, "inputs", "i", nil, "Input audio files (can specify multiple times)")
	audioMixCmd.Flags().StringVarP(&audioMixOutput, "output", "o", "", "Output audio file")
	audioMixCmd.Flags().StringVarP(&audioMixCodec, "codec", "c", "aac", "Output audio codec")
	audioMixCmd.Flags().StringVarP(&audioMixBitrate, "bitrate", "b", "192k", "Output audio bitrate")
	audioMixCmd.Flags().BoolVar(&audioMixAsync, "async", false, "Submit job to queue for background processing")

	if err := audioMixCmd.MarkFlagRequired("inputs"); err != nil {
		panic(err)
	}
	if err := audioMixCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
	audioCmd.AddCommand(audioMixCmd)
}

func audioMixMain(cmd *cobra.Command, args []string) error {
	if dryRun {
		fmt.Printf("Would mix %d audio files into %s (codec %s, bitrate %s)\n",
			len(audioMixInputs), audioMixOutput, audioMixCodec, audioMixBitrate)
		return nil
	}
	if err := requireTools(); err != nil {
		return err
	}

	if audioMixAsync {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		jobID, err := store.CreateJob(ops.JobTypeMixAudio, audioMixInputs, map[string]any{
			"output":  audioMixOutput,
			"codec":   audioMixCodec,
			"bitrate": audioMixBitrate,
		})
		if err != nil {
			return err
		}
		submittedJobHint(jobID)
		return nil
	}

	output, err := ops.MixAudio(cmd.Context(), ops.DefaultTool(), audioMixInputs, ops.MixAudioOptions{
		OutputPath: audioMixOutput,
		Codec:      audioMixCodec,
		Bitrate:    audioMixBitrate,
		Timeout:    config.JobTimeout(),
	})
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(map[string]string{"output": output})
	}
	fmt.Println("Created:", output)
	return nil
}
