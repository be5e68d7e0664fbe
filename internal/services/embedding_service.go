package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	log "github.com/sirupsen/logrus"
)

func NewFallbackEmbeddingService(providers []EmbeddingProvider, strategy RetryStrategy) (*FallbackEmbeddingService, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one embedding provider is required")
	}
	if strategy == nil {
		strategy = &SimpleRetryStrategy{MaxAttempts: 3, BaseDelayMs: 100}
	}
	dim := providers[0].Dimension()
	for _, p := range providers[1:] {
		if p.Dimension() != dim {
			return nil, fmt.Errorf("all embedding providers must share one dimension: %s has %d, want %d",
				p.Name(), p.Dimension(), dim)
		}
	}
	return &FallbackEmbeddingService{
		Providers:     providers,
		RetryStrategy: strategy,
	}, nil
}

func (s *FallbackEmbeddingService) GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error) {
	var vec pgvector.Vector
	err := s.withFallback(ctx, func(p EmbeddingProvider) error {
		v, err := p.GenerateEmbedding(ctx, text)
		if err == nil {
			vec = v
		}
		return err
	})
	return vec, err
}

func (s *FallbackEmbeddingService) GenerateEmbeddings(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	var vecs []pgvector.Vector
	err := s.withFallback(ctx, func(p EmbeddingProvider) error {
		v, err := p.GenerateEmbeddings(ctx, texts)
		if err != nil {
			return err
		}
		if len(v) != len(texts) {
			return fmt.Errorf("provider returned %d vectors for %d texts", len(v), len(texts))
		}
		vecs = v
		return nil
	})
	return vecs, err
}

// withFallback runs call against the active provider, retrying per the
// strategy, then rotates to the next provider and starts its retry
// cycle fresh. Rotation stops once it would return to where this call
// started, so every provider gets exactly one full turn.
func (s *FallbackEmbeddingService) withFallback(ctx context.Context, call func(EmbeddingProvider) error) error {
	s.mu.RLock()
	if len(s.Providers) == 0 {
		s.mu.RUnlock()
		return fmt.Errorf("no embedding providers configured")
	}
	start := s.ActiveProvider
	s.mu.RUnlock()

	var lastErr error
	attempt := 0
	for {
		s.mu.RLock()
		provider := s.Providers[s.ActiveProvider]
		s.mu.RUnlock()

		err := call(provider)
		if ctx.Err() != nil {
			return fmt.Errorf("embedding generation cancelled: %w", ctx.Err())
		}
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("provider %s failed: %w", provider.Name(), err)
		log.Warnf("embedding provider %s (%s) failed: %v", provider.Name(), provider.ModelName(), err)

		backoffMs := s.RetryStrategy.NextBackoff(attempt)
		if backoffMs < 0 {
			s.mu.Lock()
			next := (s.ActiveProvider + 1) % len(s.Providers)
			if next == start {
				s.mu.Unlock()
				return fmt.Errorf("all embedding providers failed: %w", lastErr)
			}
			s.ActiveProvider = next
			log.Infof("switching embedding provider to %s", s.Providers[next].Name())
			s.mu.Unlock()
			attempt = 0
			continue
		}

		select {
		case <-time.After(time.Duration(backoffMs) * time.Millisecond):
			attempt++
		case <-ctx.Done():
			return fmt.Errorf("embedding retry wait cancelled: %w", ctx.Err())
		}
	}
}

// EmbeddingText is the canonical text embedded for a link: title,
// description and domain, separated by newlines, skipping what is
// missing. Empty when the link has nothing worth embedding beyond its
// URL.
func EmbeddingText(title, description *string, domain string) string {
	var out string
	if title != nil && *title != "" {
		out = *title
	}
	if description != nil && *description != "" {
		if out != "" {
			out += "\n"
		}
		out += *description
	}
	if out != "" && domain != "" {
		out += "\n" + domain
	}
	return out
}
