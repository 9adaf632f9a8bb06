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

package database

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// JobStatus is the lifecycle state of a job. Legal transitions are
// Pending -> Running -> {Completed, Failed}; a Failed job may be retried,
// which reuses the same id for a fresh Running attempt.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ParseJobStatus maps a user-supplied status string to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobPending, JobRunning, JobCompleted, JobFailed:
		return JobStatus(s), nil
	}
	return "", errors.Errorf("unknown job status %q (expected pending, running, completed, or failed)", s)
}

// Job is one asynchronous unit of work. The store treats JobType and Config
// as opaque; their meaning belongs to whatever executes the job.
type Job struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	JobType      string         `gorm:"not null" json:"job_type"`
	Status       JobStatus      `gorm:"not null;index" json:"status"`
	InputFiles   []string       `gorm:"serializer:json;not null" json:"input_files"`
	OutputFiles  []string       `gorm:"serializer:json" json:"output_files,omitempty"`
	Config       map[string]any `gorm:"serializer:json" json:"config,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	RetryCount   int            `gorm:"not null;default:0" json:"retry_count"`
	Progress     float64        `gorm:"not null;default:0" json:"progress"`
}

// JobLog is one append-only diagnostic line attached to a job. Entries are
// never mutated; they are removed only when the parent job is cleaned up.
type JobLog struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	JobID     uint      `gorm:"index;not null" json:"job_id"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	Level     string    `gorm:"not null" json:"level"`
	Message   string    `gorm:"not null" json:"message"`
}

// Log levels for JobLog entries.
const (
	LogInfo    = "INFO"
	LogWarning = "WARNING"
	LogError   = "ERROR"
)

// StatusUpdate carries the optional fields of a status transition. Nil/empty
// members leave the stored value untouched.
type StatusUpdate struct {
	Progress     *float64
	OutputFiles  []string
	ErrorMessage string
}

// CreateJob inserts a new pending job and returns its id.
func (s *Store) CreateJob(jobType string, inputFiles []string, config map[string]any) (uint, error) {
	job := Job{
		JobType:    jobType,
		Status:     JobPending,
		InputFiles: inputFiles,
		Config:     config,
		CreatedAt:  time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return errors.Wrap(err, "failed to insert job")
		}
		return tx.Create(&JobLog{
			JobID:     job.ID,
			Timestamp: time.Now(),
			Level:     LogInfo,
			Message:   "Job created: " + jobType,
		}).Error
	})
	if err != nil {
		return 0, err
	}

	log.Debugf("Created job %d (%s)", job.ID, jobType)
	return job.ID, nil
}

// UpdateJobStatus transitions a job to a new status and applies the optional
// update fields. StartedAt is stamped on the first transition to Running;
// CompletedAt is stamped on any transition to Completed or Failed.
//
// The store does not validate successor legality: transition ordering is the
// caller's responsibility. Concurrent writers racing on the same id resolve
// last-writer-wins (each call is one serialized SQLite transaction); the job
// log preserves both writers' entries for postmortem.
func (s *Store) UpdateJobStatus(id uint, status JobStatus, update StatusUpdate) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var job Job
		if err := tx.First(&job, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(ErrJobNotFound, "job %d", id)
			}
			return errors.Wrapf(err, "failed to load job %d", id)
		}

		job.Status = status
		if update.Progress != nil {
			job.Progress = *update.Progress
		}
		if update.OutputFiles != nil {
			job.OutputFiles = update.OutputFiles
		}
		if update.ErrorMessage != "" {
			job.ErrorMessage = update.ErrorMessage
		}

		switch status {
		case JobRunning:
			if job.StartedAt == nil {
				job.StartedAt = nowPtr()
			}
		case JobCompleted, JobFailed:
			job.CompletedAt = nowPtr()
		}

		if err := tx.Save(&job).Error; err != nil {
			return errors.Wrapf(err, "failed to update job %d", id)
		}

		message := "Status updated: " + string(status)
		if update.Progress != nil {
			message += fmt.Sprintf(" (%.1f%%)", *update.Progress)
		}
		if err := tx.Create(&JobLog{
			JobID: id, Timestamp: time.Now(), Level: LogInfo, Message: message,
		}).Error; err != nil {
			return errors.Wrap(err, "failed to append job log")
		}

		if status == JobFailed && update.ErrorMessage != "" {
			if err := tx.Create(&JobLog{
				JobID: id, Timestamp: time.Now(), Level: LogError, Message: update.ErrorMessage,
			}).Error; err != nil {
				return errors.Wrap(err, "failed to append job error log")
			}
		}
		return nil
	})
}

// RetryJob resubmits a failed job as a fresh running attempt on the same id:
// the retry counter is incremented, progress and error text are reset, and
// the start timestamp is renewed. Only Failed jobs are retryable.
func (s *Store) RetryJob(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var job Job
		if err := tx.First(&job, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(ErrJobNotFound, "job %d", id)
			}
			return errors.Wrapf(err, "failed to load job %d", id)
		}
		if job.Status != JobFailed {
			return errors.Wrapf(ErrInvalidState, "job %d has status %s, only failed jobs can be retried", id, job.Status)
		}

		job.Status = JobRunning
		job.RetryCount++
		job.ErrorMessage = ""
		job.Progress = 0
		job.StartedAt = nowPtr()
		job.CompletedAt = nil

		if err := tx.Save(&job).Error; err != nil {
			return errors.Wrapf(err, "failed to update job %d for retry", id)
		}
		return tx.Create(&JobLog{
			JobID:     id,
			Timestamp: time.Now(),
			Level:     LogInfo,
			Message:   fmt.Sprintf("Retry attempt %d started", job.RetryCount),
		}).Error
	})
}

// GetJob returns a detached copy of the job, or ErrJobNotFound.
func (s *Store) GetJob(id uint) (*Job, error) {
	var job Job
	if err := s.db.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrJobNotFound, "job %d", id)
		}
		return nil, errors.Wrapf(err, "failed to load job %d", id)
	}
	return &job, nil
}

// ListJobs returns jobs newest-first, optionally restricted to one status.
// An empty status lists everything.
func (s *Store) ListJobs(status JobStatus, limit int) ([]Job, error) {
	query := s.db.Order("created_at DESC, id DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var jobs []Job
	if err := query.Find(&jobs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list jobs")
	}
	return jobs, nil
}

// CountJobs returns the number of jobs in each status. Statuses with no
// jobs are absent from the map.
func (s *Store) CountJobs() (map[JobStatus]int64, error) {
	var rows []struct {
		Status JobStatus
		Count  int64
	}
	err := s.db.Model(&Job{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count jobs")
	}

	counts := make(map[JobStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ClaimPendingJob atomically takes the oldest pending job and marks it
// running, so multiple polling workers never double-claim. Returns
// (nil, nil) when the queue is empty.
func (s *Store) ClaimPendingJob() (*Job, error) {
	var claimed *Job
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var job Job
		err := tx.Where("status = ?", JobPending).Order("created_at ASC, id ASC").First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to query pending jobs")
		}

		job.Status = JobRunning
		if job.StartedAt == nil {
			job.StartedAt = nowPtr()
		}
		if err := tx.Save(&job).Error; err != nil {
			return errors.Wrapf(err, "failed to claim job %d", job.ID)
		}
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// AddJobLog appends one diagnostic entry to an existing job.
func (s *Store) AddJobLog(jobID uint, level, message string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Job{}).Where("id = ?", jobID).Count(&count).Error; err != nil {
			return errors.Wrapf(err, "failed to check job %d", jobID)
		}
		if count == 0 {
			return errors.Wrapf(ErrJobNotFound, "job %d", jobID)
		}
		return tx.Create(&JobLog{
			JobID:     jobID,
			Timestamp: time.Now(),
			Level:     level,
			Message:   message,
		}).Error
	})
}

// GetJobLogs returns a job's log entries oldest-first.
func (s *Store) GetJobLogs(jobID uint) ([]JobLog, error) {
	var logs []JobLog
	err := s.db.Where("job_id = ?", jobID).Order("timestamp ASC, id ASC").Find(&logs).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load logs for job %d", jobID)
	}
	return logs, nil
}

// CleanupJobs deletes terminal jobs (and their logs, in the same
// transaction) whose completion is older than the cutoff. Jobs that never
// completed are kept regardless of age: a stuck Running row is evidence,
// not garbage. Returns the number of jobs removed.
func (s *Store) CleanupJobs(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	var removed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		err := tx.Model(&Job{}).
			Where("status IN ?", []JobStatus{JobCompleted, JobFailed}).
			Where("completed_at IS NOT NULL AND completed_at < ?", cutoff).
			Pluck("id", &ids).Error
		if err != nil {
			return errors.Wrap(err, "failed to query expired jobs")
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("job_id IN ?", ids).Delete(&JobLog{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete expired job logs")
		}
		result := tx.Where("id IN ?", ids).Delete(&Job{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to delete expired jobs")
		}
		removed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		log.Infof("Cleaned up %d jobs older than %d days", removed, olderThanDays)
	}
	return removed, nil
}
