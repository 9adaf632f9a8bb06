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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	jobCleanCmd = &cobra.Command{
		Use:   "clean",
		Short: "Delete old completed and failed jobs",
		Long: `Delete completed and failed jobs (and their logs) whose completion is
older than the cutoff. Pending and running jobs are never removed.`,
		RunE: jobCleanMain,
	}

	jobCleanOlderThan int
	jobCleanForce     bool
)

func init() {
	jobCleanCmd.Flags().IntVar(&jobCleanOlderThan, "older-than", 30, "Remove jobs that finished more than this many days ago")
	jobCleanCmd.Flags().BoolVarP(&jobCleanForce, "force", "f", false, "Skip the confirmation prompt")
	jobCmd.AddCommand(jobCleanCmd)
}

func jobCleanMain(cmd *cobra.Command, args []string) error {
	if !jobCleanForce {
		fmt.Printf("Delete all completed/failed jobs older than %d days? [y/N] ", jobCleanOlderThan)
		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		if answer = strings.ToLower(strings.TrimSpace(answer)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.CleanupJobs(jobCleanOlderThan)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(map[string]any{"removed": removed})
	}
	fmt.Printf("Removed %d job(s)\n", removed)
	return nil
}
