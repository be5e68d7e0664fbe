package store

import (
	"context"

	"linkhive/internal/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/pgvector/pgvector-go"
)

// --- Provider Status ---

type ProviderStatus int

const (
	ProviderStatusUnknown  ProviderStatus = iota
	ProviderStatusActive                  // provider is operational
	ProviderStatusInactive                // temporarily unavailable (network, rate limit)
	ProviderStatusDisabled                // not configured or explicitly disabled
)

// --- Job Client ---

type JobClient interface {
	// Enqueue includes related entity info for job-record bookkeeping.
	Enqueue(ctx context.Context, task *asynq.Task, relatedEntityType, relatedEntityID string, opts ...asynq.Option) (*asynq.TaskInfo, error)
	EnqueuePreviewJob(ctx context.Context, linkID string) error
	EnqueueEmbeddingJob(ctx context.Context, linkID string) error
	Close() error
}

// --- Link Store ---

type LinkStore interface {
	CreateLink(ctx context.Context, link *models.Link) error
	GetLink(ctx context.Context, id string) (*models.Link, error)
	FindLinkByURL(ctx context.Context, userID, url string) (*models.Link, error)
	ListLinks(ctx context.Context, userID string, limit, offset int) ([]*models.Link, error)
	ListLinksByCollection(ctx context.Context, collectionID string, limit, offset int) ([]*models.Link, error)

	// ListLinksWithoutCollection returns the user's unfiled links, oldest
	// first, so backlog scans drain in save order.
	ListLinksWithoutCollection(ctx context.Context, userID string, limit int) ([]*models.Link, error)

	// ListRecentLinks returns the user's most recently saved links,
	// newest first.
	ListRecentLinks(ctx context.Context, userID string, limit int) ([]*models.Link, error)

	UpdateLinkPreview(ctx context.Context, id string, title, description, imageURL *string, state string) error
	AssignLinkCollection(ctx context.Context, linkID string, collectionID *string) error
	UpdateLinkEmbeddingStatus(ctx context.Context, linkID string, embeddingID uuid.UUID, isEmbedded bool) error
	DeleteLink(ctx context.Context, id string) error
	CountLinks(ctx context.Context, userID string) (int64, error)

	Ping(ctx context.Context) error
}

// --- Collection Store ---

type CollectionStore interface {
	CreateCollection(ctx context.Context, collection *models.Collection) error
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	GetCollectionByName(ctx context.Context, userID, name string) (*models.Collection, error)
	ListCollections(ctx context.Context, userID string, pinned *bool) ([]*models.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
}

// --- Keyword Search ---

type KeywordSearcher interface {
	KeywordSearchLinks(ctx context.Context, userID, query string, limit int) ([]*models.Link, error)
}

// --- Vector Store ---

// VectorResult is one similarity hit: a link id and its distance score
// (smaller is closer).
type VectorResult struct {
	LinkID         string
	RelevanceScore float64
}

type VectorStore interface {
	AddEmbedding(ctx context.Context, entry *models.EmbeddingEntry) error
	GetEmbedding(ctx context.Context, id uuid.UUID) (*models.EmbeddingEntry, error)
	DeleteEmbeddingsByLinkID(ctx context.Context, linkID string) error
	SimilaritySearch(ctx context.Context, queryVector pgvector.Vector, k int) ([]VectorResult, error)

	Ping(ctx context.Context) error
	Close() error
}

// --- Embedding Service ---

type EmbeddingService interface {
	GenerateEmbedding(ctx context.Context, text string) (pgvector.Vector, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([]pgvector.Vector, error)
	Dimension() int
	ModelName() string
	Name() string
	Status() ProviderStatus
}

// --- Job Store ---

// JobRecordParams holds parameters for recording a job enqueue event.
type JobRecordParams struct {
	JobID             uuid.UUID
	TaskType          string
	Payload           []byte
	Queue             string
	Status            string
	RelatedEntityType string // e.g. "link"
	RelatedEntityID   string // e.g. link.ID
}

type JobStore interface {
	RecordJobEnqueue(ctx context.Context, params JobRecordParams) error
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status string) error
	ListJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error)
}

// --- Cost Tracking Store ---

type CostTrackingStore interface {
	RecordUsage(ctx context.Context, log *models.AIUsageLog) error
	ListUsage(ctx context.Context, limit, offset int) ([]*models.AIUsageLog, error)
	SummarizeUsage(ctx context.Context) ([]*models.UsageSummary, error)
}
