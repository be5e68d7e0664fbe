package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"linkhive/internal/config"
	"linkhive/internal/costtracker"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// DefaultPromptTemplate is used when no prompt override is configured.
// Placeholders: {{CATEGORIES}}, {{URL}}, {{TITLE}}, {{DESCRIPTION}}.
const DefaultPromptTemplate = `You are classifying a saved link into exactly one category.

Allowed categories: {{CATEGORIES}}

Link URL: {{URL}}
Link title: {{TITLE}}
Link description: {{DESCRIPTION}}

Respond with a single JSON object and nothing else:
{"category": "<one allowed category, or \"none\" if nothing fits>", "confidence": <0.0-1.0>, "reason": "<one short sentence>"}`

// LLMCategorizer classifies links with an OpenAI-compatible chat model,
// constrained to the static catalog. Responses naming a category outside
// the catalog are treated as an abstention, not an error.
type LLMCategorizer struct {
	client interface {
		CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	}
	model          string
	promptTemplate string

	costTracker costtracker.CostTracker
	pricing     map[string]config.PricingInfo
}

// NewLLMCategorizer creates a catalog-constrained categorizer on top of
// an OpenAI-compatible client. costTracker and pricing are optional.
func NewLLMCategorizer(client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}, model, prompt string, costTracker costtracker.CostTracker, pricing map[string]config.PricingInfo) *LLMCategorizer {
	if prompt == "" {
		prompt = DefaultPromptTemplate
	}
	return &LLMCategorizer{
		client:         client,
		model:          model,
		promptTemplate: prompt,
		costTracker:    costTracker,
		pricing:        pricing,
	}
}

var _ LinkCategorizer = (*LLMCategorizer)(nil)

func (c *LLMCategorizer) Name() string { return "llm" }

func (c *LLMCategorizer) Categorize(ctx context.Context, in Input) (*CategoryMatch, error) {
	if c.client == nil {
		return nil, fmt.Errorf("LLM categorizer is not initialized with an OpenAI client")
	}

	prompt := c.promptTemplate
	prompt = strings.ReplaceAll(prompt, "{{CATEGORIES}}", strings.Join(CategoryNames(), ", "))
	prompt = strings.ReplaceAll(prompt, "{{URL}}", in.URL)
	prompt = strings.ReplaceAll(prompt, "{{TITLE}}", in.Title)
	prompt = strings.ReplaceAll(prompt, "{{DESCRIPTION}}", in.Description)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	var parsed struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w\nResponse content: %s", err, content)
	}

	c.recordUsage(ctx, in, resp.Usage)

	name := strings.TrimSpace(parsed.Category)
	if name == "" || strings.EqualFold(name, "none") {
		return nil, nil
	}
	def, ok := CategoryByName(name)
	if !ok {
		log.Warnf("LLM returned category %q outside the catalog, treating as abstention", name)
		return nil, nil
	}

	reason := parsed.Reason
	if reason == "" {
		reason = "model classification"
	}
	return &CategoryMatch{
		Category:   def.Name,
		Confidence: clamp01(parsed.Confidence),
		Reasons:    []string{reason},
	}, nil
}

func (c *LLMCategorizer) recordUsage(ctx context.Context, in Input, usage openai.Usage) {
	if c.costTracker == nil || usage.TotalTokens == 0 {
		return
	}
	priceInfo, ok := c.pricing[c.model]
	if !ok {
		log.Warnf("Pricing info not found for model '%s'. Cannot record cost for categorization.", c.model)
		return
	}
	cost := float64(usage.PromptTokens)*priceInfo.InputPerToken +
		float64(usage.CompletionTokens)*priceInfo.OutputPerToken

	event := costtracker.CostEvent{
		Provider:     "openai",
		Service:      "categorization",
		Model:        c.model,
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		AmountUSD:    cost,
	}
	if err := c.costTracker.RecordCost(ctx, event); err != nil {
		log.Errorf("Failed to record AI usage for categorization of %s: %v", in.URL, err)
	}
}
