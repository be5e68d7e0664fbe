package categorizer

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock OpenAI Client ---

type mockOpenAIClient struct {
	mockResponse openai.ChatCompletionResponse
	mockError    error
	lastRequest  openai.ChatCompletionRequest
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.lastRequest = req
	if m.mockError != nil {
		return openai.ChatCompletionResponse{}, m.mockError
	}
	return m.mockResponse, nil
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

// --- End Mock OpenAI Client ---

func TestLLMCategorizerParsesValidResponse(t *testing.T) {
	mockClient := &mockOpenAIClient{
		mockResponse: chatResponse(`{"category": "Development", "confidence": 0.85, "reason": "hosted on a code forge"}`),
	}
	c := NewLLMCategorizer(mockClient, "gpt-test", "", nil, nil)

	match, err := c.Categorize(context.Background(), Input{
		URL:   "https://github.com/golang/go",
		Title: "The Go repository",
	})

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "Development", match.Category)
	assert.Equal(t, 0.85, match.Confidence)
	assert.Equal(t, []string{"hosted on a code forge"}, match.Reasons)
}

func TestLLMCategorizerSubstitutesPromptPlaceholders(t *testing.T) {
	mockClient := &mockOpenAIClient{
		mockResponse: chatResponse(`{"category": "none"}`),
	}
	c := NewLLMCategorizer(mockClient, "gpt-test",
		"categories={{CATEGORIES}} url={{URL}} title={{TITLE}} desc={{DESCRIPTION}}", nil, nil)

	_, err := c.Categorize(context.Background(), Input{
		URL:         "https://example.org/a",
		Title:       "A title",
		Description: "A description",
	})
	require.NoError(t, err)

	require.Len(t, mockClient.lastRequest.Messages, 1)
	prompt := mockClient.lastRequest.Messages[0].Content
	assert.Contains(t, prompt, "url=https://example.org/a")
	assert.Contains(t, prompt, "title=A title")
	assert.Contains(t, prompt, "desc=A description")
	assert.Contains(t, prompt, "Development")
	assert.NotContains(t, prompt, "{{")
}

func TestLLMCategorizerAbstains(t *testing.T) {
	testCases := []struct {
		name     string
		response string
	}{
		{name: "explicit none", response: `{"category": "none", "confidence": 0.9}`},
		{name: "empty category", response: `{"confidence": 0.4}`},
		{name: "category outside the catalog", response: `{"category": "Astrology", "confidence": 0.99}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockClient := &mockOpenAIClient{mockResponse: chatResponse(tc.response)}
			c := NewLLMCategorizer(mockClient, "gpt-test", "", nil, nil)

			match, err := c.Categorize(context.Background(), Input{URL: "https://example.org/x"})

			require.NoError(t, err, "abstention is a valid nil result, not an error")
			assert.Nil(t, match)
		})
	}
}

func TestLLMCategorizerNormalizesResponse(t *testing.T) {
	testCases := []struct {
		name         string
		response     string
		expectedCat  string
		expectedConf float64
		expectedWhy  string
	}{
		{
			name:         "case-insensitive category lookup",
			response:     `{"category": "social media", "confidence": 0.7, "reason": "it is a tweet"}`,
			expectedCat:  "Social Media",
			expectedConf: 0.7,
			expectedWhy:  "it is a tweet",
		},
		{
			name:         "confidence above one clamps",
			response:     `{"category": "Video", "confidence": 1.7}`,
			expectedCat:  "Video",
			expectedConf: 1.0,
			expectedWhy:  "model classification",
		},
		{
			name:         "negative confidence clamps",
			response:     `{"category": "News", "confidence": -0.2}`,
			expectedCat:  "News",
			expectedConf: 0.0,
			expectedWhy:  "model classification",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockClient := &mockOpenAIClient{mockResponse: chatResponse(tc.response)}
			c := NewLLMCategorizer(mockClient, "gpt-test", "", nil, nil)

			match, err := c.Categorize(context.Background(), Input{URL: "https://example.org/x"})

			require.NoError(t, err)
			require.NotNil(t, match)
			assert.Equal(t, tc.expectedCat, match.Category)
			assert.Equal(t, tc.expectedConf, match.Confidence)
			assert.Equal(t, []string{tc.expectedWhy}, match.Reasons)
		})
	}
}

func TestLLMCategorizerInvalidJSON(t *testing.T) {
	invalid := `This is just plain text, not JSON.`
	mockClient := &mockOpenAIClient{mockResponse: chatResponse(invalid)}
	c := NewLLMCategorizer(mockClient, "gpt-test", "", nil, nil)

	_, err := c.Categorize(context.Background(), Input{URL: "https://example.org/x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse LLM response as JSON")
	assert.Contains(t, err.Error(), invalid, "the raw content helps debugging bad prompts")
}

func TestLLMCategorizerAPIError(t *testing.T) {
	mockErr := errors.New("simulated API error 429 Too Many Requests")
	mockClient := &mockOpenAIClient{mockError: mockErr}
	c := NewLLMCategorizer(mockClient, "gpt-test", "", nil, nil)

	_, err := c.Categorize(context.Background(), Input{URL: "https://example.org/x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, mockErr)
	assert.Contains(t, err.Error(), "openai chat completion failed")
}

func TestLLMCategorizerEmptyResponse(t *testing.T) {
	mockClient := &mockOpenAIClient{
		mockResponse: openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{}},
	}
	c := NewLLMCategorizer(mockClient, "gpt-test", "", nil, nil)

	_, err := c.Categorize(context.Background(), Input{URL: "https://example.org/x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices returned from OpenAI")
}
