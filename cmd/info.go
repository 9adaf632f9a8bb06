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

	"github.com/clipforge/clipforge/ffmpeg"
	"github.com/clipforge/clipforge/utils"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Display media file information",
	Args:  cobra.ExactArgs(1),
	RunE:  infoMain,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func infoMain(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := utils.ValidateInputFile(path); err != nil {
		return err
	}

	info, err := ffmpeg.Probe(cmd.Context(), path)
	if err != nil {
		return err
	}
	size, err := utils.FileSize(path)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(map[string]any{"file": path, "size_bytes": size, "media": info})
	}

	hours := int(info.Duration) / 3600
	minutes := (int(info.Duration) % 3600) / 60
	seconds := int(info.Duration) % 60

	fmt.Println("File:        ", path)
	fmt.Println("Format:      ", info.Format)
	fmt.Printf("Duration:     %02d:%02d:%02d (%.1fs)\n", hours, minutes, seconds, info.Duration)
	fmt.Printf("Resolution:   %dx%d\n", info.Width, info.Height)
	fmt.Println("Video Codec: ", info.VideoCodec)
	if info.BitRate > 0 {
		fmt.Printf("Bitrate:      %d b/s\n", info.BitRate)
	}
	if info.FPS > 0 {
		fmt.Printf("FPS:          %.2f\n", info.FPS)
	}
	fmt.Println("Audio Codec: ", info.AudioCodec)
	fmt.Printf("File Size:    %.2f MB\n", float64(size)/(1024*1024))
	return nil
}
