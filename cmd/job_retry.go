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
	"github.com/clipforge/clipforge/database"
	"github.com/clipforge/clipforge/ops"
)

var jobRetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Retry a failed job",
	Long: `Retry a failed job in place. The job keeps its id, its retry counter
is incremented, and it is re-executed immediately with the parameters
recorded at submission time.`,
	Args: cobra.ExactArgs(1),
	RunE: jobRetryMain,
}

func init() {
	jobCmd.AddCommand(jobRetryCmd)
}

func jobRetryMain(cmd *cobra.Command, args []string) error {
	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	if err := requireTools(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	set, err := loadProfiles()
	if err != nil {
		return err
	}

	if err := store.RetryJob(id); err != nil {
		return err
	}
	job, err := store.GetJob(id)
	if err != nil {
		return err
	}
	fmt.Printf("Retrying job %d (%s), attempt %d\n", job.ID, job.JobType, job.RetryCount)

	printer := &progressPrinter{}
	outputs, err := ops.ExecuteJob(cmd.Context(), ops.DefaultTool(), job, set, config.JobTimeout(), printer.Update)
	printer.Finish()
	if err != nil {
		if updateErr := store.UpdateJobStatus(id, database.JobFailed, database.StatusUpdate{
			ErrorMessage: err.Error(),
		}); updateErr != nil {
			return updateErr
		}
		return err
	}

	progress := 100.0
	if err := store.UpdateJobStatus(id, database.JobCompleted, database.StatusUpdate{
		Progress:    &progress,
		OutputFiles: outputs,
	}); err != nil {
		return err
	}

	if outputJSON {
		return printJSON(map[string]any{"job_id": id, "output_files": outputs})
	}
	fmt.Printf("Job %d completed, %d output file(s)\n", id, len(outputs))
	return nil
}
