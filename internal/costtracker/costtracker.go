package costtracker

import (
	"context"
	"time"

	"linkhive/internal/models"
	"linkhive/internal/store"

	"github.com/google/uuid"
)

// CostEvent represents a single AI usage event and its computed cost.
type CostEvent struct {
	Provider     string
	Service      string // e.g. "embedding", "categorization", "summarization"
	Model        string
	InputTokens  int
	OutputTokens int
	AmountUSD    float64
	LinkID       *string
	JobID        *uuid.UUID
}

// CostTracker records AI usage events.
type CostTracker interface {
	RecordCost(ctx context.Context, event CostEvent) error
}

// NewStoreTracker returns a tracker that persists events through the
// cost-tracking store.
func NewStoreTracker(s store.CostTrackingStore) CostTracker {
	return &storeTracker{store: s}
}

type storeTracker struct {
	store store.CostTrackingStore
}

func (t *storeTracker) RecordCost(ctx context.Context, event CostEvent) error {
	entry := &models.AIUsageLog{
		Timestamp:     time.Now(),
		ProviderName:  event.Provider,
		ServiceType:   event.Service,
		ModelName:     event.Model,
		InputTokens:   event.InputTokens,
		OutputTokens:  event.OutputTokens,
		Cost:          event.AmountUSD,
		RelatedLinkID: event.LinkID,
		RelatedJobID:  event.JobID,
	}
	return t.store.RecordUsage(ctx, entry)
}

// NewNoop returns a tracker that drops every event, for configurations
// without a cost store.
func NewNoop() CostTracker {
	return &noopTracker{}
}

type noopTracker struct{}

func (n *noopTracker) RecordCost(ctx context.Context, event CostEvent) error { return nil }
