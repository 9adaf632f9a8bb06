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
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/database"
	"github.com/clipforge/clipforge/ops"
	"github.com/clipforge/clipforge/worker"
)

var (
	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "Run background job workers",
	}

	workerRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run workers until interrupted",
		Long: `Start a pool of workers that claim pending jobs from the queue and
execute them. Runs until SIGINT or SIGTERM.`,
		RunE: workerRunMain,
	}

	workerDrainCmd = &cobra.Command{
		Use:   "drain",
		Short: "Process all pending jobs, then exit",
		RunE:  workerDrainMain,
	}

	workerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show queue status",
		Long: `Report how many jobs sit in each lifecycle state. A non-zero running
count while no worker process is up indicates jobs orphaned by a crash;
retry them with 'clipforge job retry'.`,
		RunE: workerStatusMain,
	}

	workerCount        int
	workerPollInterval time.Duration
)

func init() {
	workerRunCmd.Flags().IntVarP(&workerCount, "workers", "w", 0, "Number of concurrent workers (defaults from config)")
	workerRunCmd.Flags().DurationVar(&workerPollInterval, "poll-interval", 0, "Idle queue poll interval (defaults from config)")

	workerCmd.AddCommand(workerRunCmd)
	workerCmd.AddCommand(workerDrainCmd)
	workerCmd.AddCommand(workerStatusCmd)
	rootCmd.AddCommand(workerCmd)
}

func buildPool() (*worker.Pool, error) {
	if err := requireTools(); err != nil {
		return nil, err
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	set, err := loadProfiles()
	if err != nil {
		store.Close()
		return nil, err
	}

	workers := workerCount
	if workers <= 0 {
		workers = config.WorkerCount()
	}
	poll := workerPollInterval
	if poll <= 0 {
		poll = config.WorkerPollInterval()
	}

	return &worker.Pool{
		Store:        store,
		Tool:         ops.DefaultTool(),
		Profiles:     set,
		Workers:      workers,
		PollInterval: poll,
		JobTimeout:   config.JobTimeout(),
	}, nil
}

func workerRunMain(cmd *cobra.Command, args []string) error {
	pool, err := buildPool()
	if err != nil {
		return err
	}
	defer pool.Store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return pool.Run(ctx)
}

func workerStatusMain(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.CountJobs()
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(counts)
	}
	fmt.Printf("Pending:    %d\n", counts[database.JobPending])
	fmt.Printf("Running:    %d\n", counts[database.JobRunning])
	fmt.Printf("Completed:  %d\n", counts[database.JobCompleted])
	fmt.Printf("Failed:     %d\n", counts[database.JobFailed])
	return nil
}

func workerDrainMain(cmd *cobra.Command, args []string) error {
	pool, err := buildPool()
	if err != nil {
		return err
	}
	defer pool.Store.Close()

	processed, err := pool.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(map[string]any{"processed": processed})
	}
	fmt.Printf("Processed %d job(s)\n", processed)
	return nil
}
