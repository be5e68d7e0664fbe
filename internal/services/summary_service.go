package services

import (
	"context"
	"fmt"
	"time"

	"linkhive/internal/config"
	"linkhive/internal/models"
	"linkhive/internal/store"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// SummaryService produces a short description of page text. The
// preview worker uses it as a last resort when a page exposes no usable
// metadata. linkID and jobID give cost records something to point at;
// either may be empty.
type SummaryService interface {
	Summarize(ctx context.Context, text, linkID, jobID string) (string, error)
}

// DefaultSummaryPrompt is the system prompt used when none is
// configured.
const DefaultSummaryPrompt = "You write concise link descriptions. " +
	"Given text from a web page, reply with one or two plain sentences describing what the page is about. " +
	"No markdown, no quoting, no preamble."

// OpenAISummaryService implements SummaryService with OpenAI chat
// completions.
type OpenAISummaryService struct {
	client    *openai.Client
	model     string
	prompt    string
	costStore store.CostTrackingStore
	pricing   map[string]config.PricingInfo
}

var _ SummaryService = (*OpenAISummaryService)(nil)

func NewOpenAISummaryService(apiKey, model, prompt string, costStore store.CostTrackingStore, pricing map[string]config.PricingInfo) *OpenAISummaryService {
	if apiKey == "" {
		log.Warn("no OpenAI API key configured for summarization, service disabled")
		return &OpenAISummaryService{}
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if prompt == "" {
		prompt = DefaultSummaryPrompt
	}
	return &OpenAISummaryService{
		client:    openai.NewClient(apiKey),
		model:     model,
		prompt:    prompt,
		costStore: costStore,
		pricing:   pricing,
	}
}

func (s *OpenAISummaryService) Summarize(ctx context.Context, text, linkID, jobID string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("summary service is not initialized (missing API key)")
	}
	if text == "" {
		return "", nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.prompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Describe this page:\n\n%s", text)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	s.recordUsage(ctx, resp.Usage, linkID, jobID)
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAISummaryService) recordUsage(ctx context.Context, usage openai.Usage, linkID, jobID string) {
	if s.costStore == nil || usage.TotalTokens == 0 {
		return
	}
	price, ok := s.pricing[s.model]
	if !ok {
		log.Warnf("no pricing configured for model '%s', summarization cost not recorded", s.model)
		return
	}
	entry := &models.AIUsageLog{
		Timestamp:    time.Now(),
		ProviderName: "openai",
		ServiceType:  "summarization",
		ModelName:    s.model,
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		Cost: float64(usage.PromptTokens)*price.InputPerToken +
			float64(usage.CompletionTokens)*price.OutputPerToken,
	}
	if linkID != "" {
		entry.RelatedLinkID = &linkID
	}
	if jid, err := uuid.Parse(jobID); err == nil {
		entry.RelatedJobID = &jid
	}
	if err := s.costStore.RecordUsage(ctx, entry); err != nil {
		log.Errorf("failed to record summarization usage: %v", err)
	}
}
