package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Preview fetch states for Link.PreviewState.
const (
	PreviewPending = "pending"
	PreviewFetched = "fetched"
	PreviewFailed  = "failed"
	PreviewSkipped = "skipped"
)

// Link is a saved URL belonging to a user. Title, description and image
// are nullable because they usually arrive later, from the preview
// fetcher rather than the save request.
type Link struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"userId"`
	URL          string     `db:"url" json:"url"`
	Domain       string     `db:"domain" json:"domain"`
	Title        *string    `db:"title" json:"title,omitempty"`
	Description  *string    `db:"description" json:"description,omitempty"`
	ImageURL     *string    `db:"image_url" json:"imageUrl,omitempty"`
	CollectionID *string    `db:"collection_id" json:"collectionId,omitempty"`
	SavedVia     string     `db:"saved_via" json:"savedVia"`
	PreviewState string     `db:"preview_state" json:"previewState"`
	EmbeddingID  *uuid.UUID `db:"embedding_id" json:"-"`
	IsEmbedded   bool       `db:"is_embedded" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// TitleOrURL is what list views render when no title has been fetched yet.
func (l *Link) TitleOrURL() string {
	if l.Title != nil && *l.Title != "" {
		return *l.Title
	}
	return l.URL
}

type Collection struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsPinned    bool      `db:"is_pinned" json:"isPinned"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	// LinkCount is populated by list queries, not stored.
	LinkCount int `db:"-" json:"linkCount"`
}

type EmbeddingEntry struct {
	ID        uuid.UUID       `db:"id"`
	LinkID    string          `db:"link_id"`
	Text      string          `db:"text"`
	Vector    pgvector.Vector `db:"vector"`
	Metadata  json.RawMessage `db:"metadata"`
	CreatedAt time.Time       `db:"created_at"`
}

// AIUsageLog records one AI API call for cost tracking.
type AIUsageLog struct {
	ID            int64      `db:"id"`
	Timestamp     time.Time  `db:"timestamp"`
	ProviderName  string     `db:"provider_name"`
	ServiceType   string     `db:"service_type"` // e.g. "embedding", "categorization", "summarization"
	ModelName     string     `db:"model_name"`
	InputTokens   int        `db:"input_tokens"`
	OutputTokens  int        `db:"output_tokens"`
	Cost          float64    `db:"cost"`
	RelatedLinkID *string    `db:"related_link_id"`
	RelatedJobID  *uuid.UUID `db:"related_job_id"`
}

// UsageSummary aggregates AIUsageLog rows per provider/service pair.
type UsageSummary struct {
	ProviderName string  `db:"provider_name"`
	ServiceType  string  `db:"service_type"`
	Calls        int     `db:"calls"`
	InputTokens  int64   `db:"input_tokens"`
	OutputTokens int64   `db:"output_tokens"`
	Cost         float64 `db:"cost"`
}

// BackgroundJob mirrors the background_jobs table schema.
type BackgroundJob struct {
	ID                int64           `db:"id"`
	JobID             uuid.UUID       `db:"job_id"` // asynq task id
	TaskType          string          `db:"task_type"`
	Payload           json.RawMessage `db:"payload"`
	Queue             string          `db:"queue"`
	Status            string          `db:"status"`
	RelatedEntityType *string         `db:"related_entity_type"`
	RelatedEntityID   *string         `db:"related_entity_id"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}
