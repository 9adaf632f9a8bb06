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
	"time"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/database"
)

var (
	jobListCmd = &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		Example: `  clipforge job list
  clipforge job list --status failed --limit 50`,
		RunE: jobListMain,
	}

	jobListStatus string
	jobListLimit  int
)

func init() {
	jobListCmd.Flags().StringVarP(&jobListStatus, "status", "s", "", "Filter by status (pending, running, completed, failed)")
	jobListCmd.Flags().IntVar(&jobListLimit, "limit", 20, "Maximum number of jobs to show")
	jobCmd.AddCommand(jobListCmd)
}

func jobListMain(cmd *cobra.Command, args []string) error {
	var status database.JobStatus
	if jobListStatus != "" {
		var err error
		if status, err = database.ParseJobStatus(jobListStatus); err != nil {
			return err
		}
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	jobs, err := store.ListJobs(status, jobListLimit)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(jobs)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTYPE\tSTATUS\tPROGRESS\tRETRIES\tCREATED\tDURATION")
	for _, job := range jobs {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%.0f%%\t%d\t%s\t%s\n",
			job.ID, job.JobType, job.Status, job.Progress, job.RetryCount,
			job.CreatedAt.Format("2006-01-02 15:04"), jobDuration(&job))
	}
	return writer.Flush()
}

// jobDuration reports how long a job ran (or has been running).
func jobDuration(job *database.Job) string {
	if job.StartedAt == nil {
		return "-"
	}
	end := time.Now()
	if job.CompletedAt != nil {
		end = *job.CompletedAt
	}
	return formatDuration(end.Sub(*job.StartedAt))
}
