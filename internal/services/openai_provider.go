package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"linkhive/internal/config"
	"linkhive/internal/models"
	"linkhive/internal/store"

	"github.com/pgvector/pgvector-go"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// OpenAIProvider generates embeddings through the OpenAI API and
// records token spend when a cost store is wired.
type OpenAIProvider struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dim       int
	costStore store.CostTrackingStore
	pricing   map[string]config.PricingInfo
}

var _ EmbeddingProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds the provider. Without an API key (argument
// or OPENAI_API_KEY) it comes up disabled rather than failing, so a
// fallback chain can still be assembled.
func NewOpenAIProvider(apiKey, modelID string, costStore store.CostTrackingStore, pricing map[string]config.PricingInfo) (*OpenAIProvider, error) {
	if modelID == "" {
		modelID = "text-embedding-3-small"
	}
	var dim int
	switch modelID {
	case string(openai.AdaEmbeddingV2), "text-embedding-3-small":
		dim = 1536
	case "text-embedding-3-large":
		dim = 3072
	default:
		log.Warnf("unknown OpenAI embedding model '%s', assuming dimension 1536", modelID)
		dim = 1536
	}

	p := &OpenAIProvider{
		model:     openai.EmbeddingModel(modelID),
		dim:       dim,
		costStore: costStore,
		pricing:   pricing,
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		log.Warn("no OpenAI API key configured, openai embedding provider disabled")
		return p, nil
	}
	p.client = openai.NewClient(apiKey)
	log.Infof("openai embedding provider ready: model %s, dimension %d", modelID, dim)
	return p, nil
}

func (p *OpenAIProvider) Name() string      { return "openai" }
func (p *OpenAIProvider) ModelName() string { return string(p.model) }
func (p *OpenAIProvider) Dimension() int    { return p.dim }

func (p *OpenAIProvider) Status() store.ProviderStatus {
	if p.client == nil {
		return store.ProviderStatusDisabled
	}
	return store.ProviderStatusActive
}

func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error) {
	if p.client == nil {
		return pgvector.Vector{}, fmt.Errorf("openai provider is not initialized (missing API key)")
	}
	if text == "" {
		return pgvector.NewVector(make([]float32, p.dim)), nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: p.model,
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("openai embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("openai returned no embedding data")
	}
	if got := len(resp.Data[0].Embedding); got != p.dim {
		return pgvector.Vector{}, fmt.Errorf("openai returned dimension %d, want %d", got, p.dim)
	}

	p.recordUsage(ctx, resp.Usage.TotalTokens)
	return pgvector.NewVector(resp.Data[0].Embedding), nil
}

func (p *OpenAIProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	if p.client == nil {
		return nil, fmt.Errorf("openai provider is not initialized (missing API key)")
	}
	if len(texts) == 0 {
		return []pgvector.Vector{}, nil
	}

	// Empty inputs get zero vectors locally; only the rest go to the
	// API, and results are mapped back to their original positions.
	valid := make([]string, 0, len(texts))
	originals := make([]int, 0, len(texts))
	for i, t := range texts {
		if t != "" {
			valid = append(valid, t)
			originals = append(originals, i)
		}
	}

	results := make([]pgvector.Vector, len(texts))
	for i := range results {
		results[i] = pgvector.NewVector(make([]float32, p.dim))
	}
	if len(valid) == 0 {
		return results, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: valid,
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai batch embedding request failed: %w", err)
	}
	if len(resp.Data) != len(valid) {
		return nil, fmt.Errorf("openai returned %d embeddings, want %d", len(resp.Data), len(valid))
	}

	for i, data := range resp.Data {
		if len(data.Embedding) != p.dim {
			return nil, fmt.Errorf("openai returned dimension %d at index %d, want %d", len(data.Embedding), i, p.dim)
		}
		results[originals[i]] = pgvector.NewVector(data.Embedding)
	}

	p.recordUsage(ctx, resp.Usage.TotalTokens)
	return results, nil
}

// recordUsage writes one cost line for an embedding call. Embeddings
// bill input tokens only. Failures are logged, never propagated.
func (p *OpenAIProvider) recordUsage(ctx context.Context, totalTokens int) {
	if p.costStore == nil || totalTokens == 0 {
		return
	}
	price, ok := p.pricing[p.ModelName()]
	if !ok {
		log.Warnf("no pricing configured for model '%s', cost not recorded", p.ModelName())
		return
	}
	entry := &models.AIUsageLog{
		Timestamp:    time.Now(),
		ProviderName: p.Name(),
		ServiceType:  "embedding",
		ModelName:    p.ModelName(),
		InputTokens:  totalTokens,
		Cost:         float64(totalTokens) * price.InputPerToken,
	}
	if err := p.costStore.RecordUsage(ctx, entry); err != nil {
		log.Errorf("failed to record embedding usage: %v", err)
	}
}
