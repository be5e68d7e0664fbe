package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Defines constants for task types used in Asynq.

const (
	// TypePreviewFetch is the task type for fetching page previews.
	TypePreviewFetch = "preview:fetch"
	// TypeEmbeddingJob is the task type for generating link embeddings.
	TypeEmbeddingJob = "embedding:generate"
)

// PreviewFetchPayload is the payload for a preview:fetch task.
type PreviewFetchPayload struct {
	LinkID string `json:"link_id"`
}

// EmbeddingPayload is the payload for an embedding:generate task.
type EmbeddingPayload struct {
	LinkID string `json:"link_id"`
}

// NewPreviewFetchTask creates a task to fetch the preview for a link.
func NewPreviewFetchTask(linkID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PreviewFetchPayload{LinkID: linkID})
	if err != nil {
		return nil, fmt.Errorf("marshal preview fetch payload: %w", err)
	}
	return asynq.NewTask(TypePreviewFetch, payload), nil
}

// NewEmbeddingTask creates a task to generate the embedding for a link.
func NewEmbeddingTask(linkID string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmbeddingPayload{LinkID: linkID})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding payload: %w", err)
	}
	return asynq.NewTask(TypeEmbeddingJob, payload), nil
}
