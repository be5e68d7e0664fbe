package services

import (
	"context"
	"fmt"

	"linkhive/internal/models"
	"linkhive/internal/store"
)

// CostService exposes recorded AI spend.
type CostService struct {
	store store.CostTrackingStore
}

func NewCostService(store store.CostTrackingStore) *CostService {
	return &CostService{store: store}
}

// ListUsage returns individual usage records, newest first.
func (s *CostService) ListUsage(ctx context.Context, limit, offset int) ([]*models.AIUsageLog, error) {
	logs, err := s.store.ListUsage(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage logs: %w", err)
	}
	return logs, nil
}

// CostReport is the per provider/service rollup plus grand totals.
type CostReport struct {
	Lines             []*models.UsageSummary `json:"lines"`
	TotalCost         float64                `json:"totalCost"`
	TotalInputTokens  int64                  `json:"totalInputTokens"`
	TotalOutputTokens int64                  `json:"totalOutputTokens"`
}

// Summary aggregates usage by provider and service type.
func (s *CostService) Summary(ctx context.Context) (*CostReport, error) {
	lines, err := s.store.SummarizeUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	report := &CostReport{Lines: lines}
	for _, line := range lines {
		report.TotalCost += line.Cost
		report.TotalInputTokens += line.InputTokens
		report.TotalOutputTokens += line.OutputTokens
	}
	return report, nil
}
