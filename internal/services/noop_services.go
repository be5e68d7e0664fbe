package services

import (
	"context"
)

// NoopSummaryService stands in when summarization is disabled or no
// API key is configured. It always returns an empty summary, which the
// worker treats as "nothing to add".
type NoopSummaryService struct{}

func (s *NoopSummaryService) Summarize(context.Context, string, string, string) (string, error) {
	return "", nil
}

func NewNoopSummaryService() SummaryService {
	return &NoopSummaryService{}
}
