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
)

var jobLogsCmd = &cobra.Command{
	Use:   "logs <id>",
	Short: "Show a job's log entries",
	Args:  cobra.ExactArgs(1),
	RunE:  jobLogsMain,
}

func init() {
	jobCmd.AddCommand(jobLogsCmd)
}

func jobLogsMain(cmd *cobra.Command, args []string) error {
	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// Fail with a clear error when the job doesn't exist, rather than
	// printing an empty log.
	if _, err := store.GetJob(id); err != nil {
		return err
	}
	logs, err := store.GetJobLogs(id)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(logs)
	}
	for _, entry := range logs {
		fmt.Printf("%s [%s] %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Level, entry.Message)
	}
	return nil
}
