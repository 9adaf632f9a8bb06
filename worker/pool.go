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

// Package worker drains the job queue: a pool of goroutines claims pending
// jobs from the store, executes them through the ops package, and records
// the outcome. Claims are atomic at the store level, so several workers
// (or several worker processes on one database) never run the same job.
package worker

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/clipforge/clipforge/database"
	"github.com/clipforge/clipforge/ops"
	"github.com/clipforge/clipforge/profiles"
)

const (
	DefaultWorkers      = 2
	DefaultPollInterval = 2 * time.Second

	// progressStep is the minimum percentage gain between persisted
	// progress updates, keeping the job log readable on long encodes.
	progressStep = 10.0
)

// Pool runs queued jobs until its context is cancelled.
type Pool struct {
	Store    *database.Store
	Tool     ops.Tool
	Profiles *profiles.Set

	// Workers is the number of concurrent executors; DefaultWorkers when
	// zero.
	Workers int

	// PollInterval is how long an idle worker sleeps between queue checks;
	// DefaultPollInterval when zero.
	PollInterval time.Duration

	// JobTimeout bounds each ffmpeg invocation. Zero means unbounded.
	JobTimeout time.Duration
}

// Run blocks, processing jobs until ctx is cancelled. A job in flight at
// cancellation is killed via its context and recorded as failed. Returns
// nil on a clean shutdown.
func (p *Pool) Run(ctx context.Context) error {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	poll := p.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	log.Infof("Starting %d workers (poll interval %s)", workers, poll)

	egrp, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		id := i + 1
		egrp.Go(func() error {
			p.loop(ctx, id, poll)
			return nil
		})
	}
	err := egrp.Wait()
	log.Info("All workers stopped")
	return err
}

// RunOnce drains the queue once without polling: it claims and executes
// jobs until none remain, then returns the number processed.
func (p *Pool) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	for ctx.Err() == nil {
		job, err := p.Store.ClaimPendingJob()
		if err != nil {
			return processed, err
		}
		if job == nil {
			break
		}
		p.execute(ctx, 0, job)
		processed++
	}
	return processed, nil
}

func (p *Pool) loop(ctx context.Context, id int, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		for ctx.Err() == nil {
			job, err := p.Store.ClaimPendingJob()
			if err != nil {
				log.Errorf("Worker %d failed to claim a job: %v", id, err)
				break
			}
			if job == nil {
				break
			}
			p.execute(ctx, id, job)
		}

		select {
		case <-ctx.Done():
			log.Debugf("Worker %d shutting down", id)
			return
		case <-ticker.C:
		}
	}
}

// execute runs one claimed job to a terminal state. Execution errors land
// in the job record, not in the worker's control flow.
func (p *Pool) execute(ctx context.Context, id int, job *database.Job) {
	log.Infof("Worker %d executing job %d (%s)", id, job.ID, job.JobType)
	if err := p.Store.AddJobLog(job.ID, database.LogInfo,
		fmt.Sprintf("Picked up by worker %d", id)); err != nil {
		log.Warnf("Failed to log job pickup: %v", err)
	}

	lastPersisted := 0.0
	onPercent := func(percent float64) {
		if percent-lastPersisted < progressStep && percent < 100 {
			return
		}
		lastPersisted = percent
		update := database.StatusUpdate{Progress: &percent}
		if err := p.Store.UpdateJobStatus(job.ID, database.JobRunning, update); err != nil {
			log.Warnf("Failed to persist progress for job %d: %v", job.ID, err)
		}
	}

	outputs, err := ops.ExecuteJob(ctx, p.Tool, job, p.Profiles, p.JobTimeout, onPercent)
	if err != nil {
		log.Errorf("Job %d failed: %v", job.ID, err)
		if dbErr := p.Store.UpdateJobStatus(job.ID, database.JobFailed, database.StatusUpdate{
			ErrorMessage: err.Error(),
		}); dbErr != nil {
			log.Errorf("Failed to record job %d failure: %v", job.ID, dbErr)
		}
		return
	}

	done := 100.0
	if err := p.Store.UpdateJobStatus(job.ID, database.JobCompleted, database.StatusUpdate{
		Progress:    &done,
		OutputFiles: outputs,
	}); err != nil {
		log.Errorf("Failed to record job %d completion: %v", job.ID, err)
		return
	}
	log.Infof("Job %d completed with %d output file(s)", job.ID, len(outputs))
}
