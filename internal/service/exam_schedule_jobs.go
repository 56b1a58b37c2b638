package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-scheduler/internal/dto"
	"github.com/noah-isme/sma-exam-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/sma-exam-scheduler/pkg/errors"
	"github.com/noah-isme/sma-exam-scheduler/pkg/jobs"
)

// GenerateAsync validates the request and queues it for a background worker.
func (s *ExamScheduleService) GenerateAsync(_ context.Context, req dto.GenerateExamScheduleRequest) (*dto.GenerateJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam schedule generation payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue unavailable")
	}
	id := uuid.NewString()
	s.tracker.Create(id, ExamScheduleJobType)
	if err := s.queue.Enqueue(jobs.Job{ID: id, Type: ExamScheduleJobType, Payload: req}); err != nil {
		s.tracker.Update(id, func(st *jobs.Status) {
			st.State = jobs.StateFailed
			st.Error = err.Error()
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue exam schedule generation")
	}
	return &dto.GenerateJobResponse{JobID: id}, nil
}

// JobStatus returns the tracked status of a generation job.
func (s *ExamScheduleService) JobStatus(id string) (*jobs.Status, error) {
	st, ok := s.tracker.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found or expired")
	}
	return &st, nil
}

// HandleJob runs one queued generation. Domain failures are final; infrastructure failures are
// handed back to the queue for retry.
func (s *ExamScheduleService) HandleJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateExamScheduleRequest)
	if !ok {
		err := jobs.Permanent(fmt.Errorf("unexpected payload %T", job.Payload))
		s.failJob(job.ID, err)
		return err
	}
	s.tracker.Update(job.ID, func(st *jobs.Status) {
		st.State = jobs.StateRunning
		st.Detail = nil
	})

	resp, err := s.generate(ctx, req, func(p scheduler.Progress) {
		s.tracker.Update(job.ID, func(st *jobs.Status) {
			if p.Total > 0 {
				st.Progress = float64(p.Placed) / float64(p.Total)
			}
			st.Detail = p
		})
	})
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= 500 && appErr.Code != appErrors.ErrCancelled.Code {
			s.tracker.Update(job.ID, func(st *jobs.Status) {
				st.State = jobs.StateQueued
				st.Error = appErr
			})
			return err
		}
		s.failJob(job.ID, err)
		return jobs.Permanent(err)
	}

	s.tracker.Update(job.ID, func(st *jobs.Status) {
		st.State = jobs.StateSucceeded
		st.Progress = 1
		st.Detail = nil
		st.Error = nil
		st.Result = resp
	})
	s.logger.Info("exam schedule job finished", zap.String("job_id", job.ID), zap.String("proposal_id", resp.ProposalID))
	return nil
}

// JobGaveUp marks a job failed once the queue stops retrying it.
func (s *ExamScheduleService) JobGaveUp(job jobs.Job, err error) {
	s.failJob(job.ID, err)
}

func (s *ExamScheduleService) failJob(id string, err error) {
	appErr := appErrors.FromError(err)
	s.tracker.Update(id, func(st *jobs.Status) {
		if st.State == jobs.StateFailed {
			return
		}
		st.State = jobs.StateFailed
		st.Error = appErr
	})
}
