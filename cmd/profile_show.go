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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/profiles"
)

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one profile's settings",
	Args:  cobra.ExactArgs(1),
	RunE:  profileShowMain,
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
}

func profileShowMain(cmd *cobra.Command, args []string) error {
	set, err := loadProfiles()
	if err != nil {
		return err
	}
	profile, err := set.Get(args[0])
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			return errors.Wrap(err, "run 'clipforge profile list' to see available profiles")
		}
		return err
	}

	if outputJSON {
		return printJSON(profile)
	}
	fmt.Print(profile.Summary())
	return nil
}
