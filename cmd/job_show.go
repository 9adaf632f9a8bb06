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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var jobShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one job's details",
	Args:  cobra.ExactArgs(1),
	RunE:  jobShowMain,
}

func init() {
	jobCmd.AddCommand(jobShowCmd)
}

func jobShowMain(cmd *cobra.Command, args []string) error {
	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	job, err := store.GetJob(id)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(job)
	}

	fmt.Printf("Job ID:       %d\n", job.ID)
	fmt.Printf("Type:         %s\n", job.JobType)
	fmt.Printf("Status:       %s\n", job.Status)
	fmt.Printf("Progress:     %.0f%%\n", job.Progress)
	fmt.Printf("Retries:      %d\n", job.RetryCount)
	fmt.Printf("Created:      %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	if job.StartedAt != nil {
		fmt.Printf("Started:      %s\n", job.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if job.CompletedAt != nil {
		fmt.Printf("Completed:    %s\n", job.CompletedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Duration:     %s\n", jobDuration(job))
	}
	if job.ErrorMessage != "" {
		fmt.Printf("Error:        %s\n", job.ErrorMessage)
	}

	fmt.Println("Input Files:")
	for _, input := range job.InputFiles {
		fmt.Printf("  %s\n", input)
	}
	if len(job.OutputFiles) > 0 {
		fmt.Println("Output Files:")
		for _, output := range job.OutputFiles {
			fmt.Printf("  %s\n", output)
		}
	}
	if len(job.Config) > 0 {
		cfg, err := json.MarshalIndent(job.Config, "  ", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("Config:\n  %s\n", cfg)
	}
	return nil
}
