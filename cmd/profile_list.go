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
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available encoding profiles",
	RunE:  profileListMain,
}

func init() {
	profileCmd.AddCommand(profileListCmd)
}

func profileListMain(cmd *cobra.Command, args []string) error {
	set, err := loadProfiles()
	if err != nil {
		return err
	}

	defaultName := set.Default().Name
	if outputJSON {
		entries := make([]map[string]any, 0, len(set.Names()))
		for _, name := range set.Names() {
			profile, err := set.Get(name)
			if err != nil {
				return err
			}
			entries = append(entries, map[string]any{
				"name":        name,
				"default":     name == defaultName,
				"description": profile.Description,
				"video_codec": profile.VideoCodec,
				"audio_codec": profile.AudioCodec,
				"resolution":  profile.Resolution,
				"hw_accel":    profile.UsesHardwareAccel(),
			})
		}
		return printJSON(entries)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tVIDEO\tAUDIO\tRESOLUTION\tHW\tDESCRIPTION")
	for _, name := range set.Names() {
		profile, err := set.Get(name)
		if err != nil {
			return err
		}
		display := name
		if name == defaultName {
			display += " (default)"
		}
		hw := ""
		if profile.UsesHardwareAccel() {
			hw = "yes"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			display, profile.VideoCodec, profile.AudioCodec,
			profile.Resolution, hw, profile.Description)
	}
	return writer.Flush()
}
