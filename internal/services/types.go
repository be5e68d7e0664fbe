package services

import (
	"context"
	"sync"

	"linkhive/internal/store"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingProvider is a single embedding backend. Implementations
// report their fixed output dimension so providers can be checked for
// interchangeability up front.
type EmbeddingProvider interface {
	Name() string
	ModelName() string
	Status() store.ProviderStatus
	GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([]pgvector.Vector, error)
	Dimension() int
}

// RetryStrategy decides how long to wait before retrying a failed
// provider call, in milliseconds. A negative return means stop
// retrying this provider.
type RetryStrategy interface {
	NextBackoff(attempt int) int64
}

// SimpleRetryStrategy is exponential backoff capped at 30 seconds.
type SimpleRetryStrategy struct {
	MaxAttempts int
	BaseDelayMs int64
}

func (s *SimpleRetryStrategy) NextBackoff(attempt int) int64 {
	if s.MaxAttempts <= 0 || attempt >= s.MaxAttempts {
		return -1
	}
	backoff := s.BaseDelayMs * (1 << attempt)
	const maxDelayMs = 30000
	if backoff > maxDelayMs {
		return maxDelayMs
	}
	return backoff
}

// FallbackEmbeddingService fronts an ordered list of providers. Calls
// go to the active provider with retries; when it is exhausted the
// service rotates to the next one and stays there, so a flaky primary
// does not get re-tried on every request.
type FallbackEmbeddingService struct {
	Providers      []EmbeddingProvider
	ActiveProvider int
	RetryStrategy  RetryStrategy
	mu             sync.RWMutex
}

var _ store.EmbeddingService = (*FallbackEmbeddingService)(nil)

// ModelName reports the active provider's model, or "" when no
// provider is usable.
func (s *FallbackEmbeddingService) ModelName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Providers) == 0 || s.ActiveProvider < 0 || s.ActiveProvider >= len(s.Providers) {
		return ""
	}
	return s.Providers[s.ActiveProvider].ModelName()
}

// Name reports the active provider's name, or "" when no provider is
// usable.
func (s *FallbackEmbeddingService) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Providers) == 0 || s.ActiveProvider < 0 || s.ActiveProvider >= len(s.Providers) {
		return ""
	}
	return s.Providers[s.ActiveProvider].Name()
}

func (s *FallbackEmbeddingService) Status() store.ProviderStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Providers) == 0 || s.ActiveProvider < 0 || s.ActiveProvider >= len(s.Providers) {
		return store.ProviderStatusDisabled
	}
	return s.Providers[s.ActiveProvider].Status()
}

// Dimension is shared by all providers; the constructor enforces that.
func (s *FallbackEmbeddingService) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Providers) == 0 {
		return 0
	}
	return s.Providers[s.ActiveProvider].Dimension()
}
