package services

import (
	"context"
	"fmt"

	"linkhive/internal/models"
	"linkhive/internal/store"
)

// JobsService reads the background job ledger.
type JobsService struct {
	jobStore store.JobStore
}

func NewJobsService(js store.JobStore) *JobsService {
	return &JobsService{jobStore: js}
}

// ListJobs returns recorded background jobs, newest first.
func (s *JobsService) ListJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	jobs, err := s.jobStore.ListJobs(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}
