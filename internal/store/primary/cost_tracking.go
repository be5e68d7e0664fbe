package primary

import (
	"context"
	"fmt"
	"time"

	"linkhive/internal/models"
	"linkhive/internal/store"

	"github.com/jackc/pgx/v5"
)

// --- Cost Tracking Implementation ---

// RecordUsage inserts a new AI usage log entry.
func (s *StoreImpl) RecordUsage(ctx context.Context, usage *models.AIUsageLog) error {
	query := `
		INSERT INTO ai_usage_logs (
			timestamp, provider_name, service_type, model_name,
			input_tokens, output_tokens, cost,
			related_link_id, related_job_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	if usage.Timestamp.IsZero() {
		usage.Timestamp = time.Now()
	}
	err := s.db.QueryRow(ctx, query,
		usage.Timestamp,
		usage.ProviderName,
		usage.ServiceType,
		usage.ModelName,
		usage.InputTokens,
		usage.OutputTokens,
		usage.Cost,
		usage.RelatedLinkID,
		usage.RelatedJobID,
	).Scan(&usage.ID)
	if err != nil {
		return fmt.Errorf("failed to insert ai_usage_log: %w", err)
	}
	return nil
}

// ListUsage returns AI usage logs, newest first.
func (s *StoreImpl) ListUsage(ctx context.Context, limit, offset int) ([]*models.AIUsageLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT id, timestamp, provider_name, service_type, model_name,
		       input_tokens, output_tokens, cost, related_link_id, related_job_id
		FROM ai_usage_logs
		ORDER BY timestamp DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query ai_usage_logs: %w", err)
	}
	defer rows.Close()

	logs, err := pgx.CollectRows[*models.AIUsageLog](rows, func(row pgx.CollectableRow) (*models.AIUsageLog, error) {
		var usage models.AIUsageLog
		err := row.Scan(
			&usage.ID,
			&usage.Timestamp,
			&usage.ProviderName,
			&usage.ServiceType,
			&usage.ModelName,
			&usage.InputTokens,
			&usage.OutputTokens,
			&usage.Cost,
			&usage.RelatedLinkID,
			&usage.RelatedJobID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ai_usage_log: %w", err)
		}
		return &usage, nil
	})

	return logs, err
}

// SummarizeUsage aggregates usage per provider and service type.
func (s *StoreImpl) SummarizeUsage(ctx context.Context) ([]*models.UsageSummary, error) {
	query := `
		SELECT provider_name, service_type,
		       COUNT(*) AS calls,
		       COALESCE(SUM(input_tokens), 0) AS input_tokens,
		       COALESCE(SUM(output_tokens), 0) AS output_tokens,
		       COALESCE(SUM(cost), 0) AS cost
		FROM ai_usage_logs
		GROUP BY provider_name, service_type
		ORDER BY provider_name, service_type
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize ai_usage_logs: %w", err)
	}
	defer rows.Close()

	summaries, err := pgx.CollectRows[*models.UsageSummary](rows, func(row pgx.CollectableRow) (*models.UsageSummary, error) {
		var sum models.UsageSummary
		err := row.Scan(
			&sum.ProviderName,
			&sum.ServiceType,
			&sum.Calls,
			&sum.InputTokens,
			&sum.OutputTokens,
			&sum.Cost,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		return &sum, nil
	})

	return summaries, err
}

// Ensure StoreImpl satisfies the CostTrackingStore interface
var _ store.CostTrackingStore = (*StoreImpl)(nil)
