package services

import (
	"context"
	"fmt"
	"os"

	"linkhive/internal/store"

	"github.com/google/generative-ai-go/genai"
	"github.com/pgvector/pgvector-go"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GeminiProvider generates embeddings through the Google Gemini API.
// Usually the second entry in the fallback chain behind OpenAI.
type GeminiProvider struct {
	client *genai.Client
	model  string
	dim    int
}

var _ EmbeddingProvider = (*GeminiProvider)(nil)

// NewGeminiProvider builds the provider. Without an API key (argument
// or GEMINI_API_KEY) it comes up disabled rather than failing.
func NewGeminiProvider(apiKey, modelName string) (*GeminiProvider, error) {
	if modelName == "" {
		modelName = "models/embedding-001"
	}
	var dim int
	switch modelName {
	case "models/embedding-001", "models/text-embedding-004":
		dim = 768
	default:
		log.Warnf("unknown Gemini embedding model '%s', assuming dimension 768", modelName)
		dim = 768
	}

	p := &GeminiProvider{model: modelName, dim: dim}
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		log.Warn("no Gemini API key configured, gemini embedding provider disabled")
		return p, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	log.Infof("gemini embedding provider ready: model %s, dimension %d", modelName, dim)
	return p, nil
}

func (p *GeminiProvider) Name() string      { return "gemini" }
func (p *GeminiProvider) ModelName() string { return p.model }
func (p *GeminiProvider) Dimension() int    { return p.dim }

func (p *GeminiProvider) Status() store.ProviderStatus {
	if p.client == nil {
		return store.ProviderStatusDisabled
	}
	return store.ProviderStatusActive
}

func (p *GeminiProvider) GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error) {
	if p.client == nil {
		return pgvector.Vector{}, fmt.Errorf("gemini provider is not initialized (missing API key)")
	}
	if text == "" {
		return pgvector.NewVector(make([]float32, p.dim)), nil
	}

	em := p.client.EmbeddingModel(p.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return pgvector.Vector{}, fmt.Errorf("gemini returned no embedding data")
	}
	if got := len(res.Embedding.Values); got != p.dim {
		return pgvector.Vector{}, fmt.Errorf("gemini returned dimension %d, want %d", got, p.dim)
	}
	return pgvector.NewVector(res.Embedding.Values), nil
}

// GenerateEmbeddings embeds texts one by one; the Gemini API has no
// batch endpoint in this client. Any failure fails the whole batch.
func (p *GeminiProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	if p.client == nil {
		return nil, fmt.Errorf("gemini provider is not initialized (missing API key)")
	}
	results := make([]pgvector.Vector, len(texts))
	for i, text := range texts {
		vec, err := p.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("gemini embedding failed at index %d: %w", i, err)
		}
		results[i] = vec
	}
	return results, nil
}

func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
