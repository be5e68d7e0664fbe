package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkhive/internal/models"
	"linkhive/internal/store"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	log "github.com/sirupsen/logrus"
)

type StoreImpl struct {
	db *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (store.VectorStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("vector store DSN cannot be empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vector store DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping vector store: %w", err)
	}
	log.Debug("Successfully connected to PostgreSQL vector store")
	return &StoreImpl{db: pool}, nil
}

func (vs *StoreImpl) Close() error {
	if vs.db != nil {
		vs.db.Close()
	}
	return nil
}

func (vs *StoreImpl) Ping(ctx context.Context) error {
	if vs.db == nil {
		return fmt.Errorf("vector store connection is not initialized")
	}
	return vs.db.Ping(ctx)
}

func (vs *StoreImpl) AddEmbedding(ctx context.Context, entry *models.EmbeddingEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query := `INSERT INTO embeddings (id, link_id, text, vector, metadata) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := vs.db.QueryRow(ctx, query, entry.ID, entry.LinkID, entry.Text, pgvector.NewVector(entry.Vector.Slice()), entry.Metadata).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("add embedding: %w", err)
	}
	return nil
}

func (vs *StoreImpl) GetEmbedding(ctx context.Context, id uuid.UUID) (*models.EmbeddingEntry, error) {
	query := `SELECT id, link_id, text, vector, metadata, created_at FROM embeddings WHERE id = $1`
	entry := &models.EmbeddingEntry{}
	var vec pgvector.Vector
	err := vs.db.QueryRow(ctx, query, id).Scan(&entry.ID, &entry.LinkID, &entry.Text, &vec, &entry.Metadata, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	entry.Vector = vec
	return entry, nil
}

// DeleteEmbeddingsByLinkID removes every embedding row for a link. Used
// when a link is deleted or about to be re-embedded.
func (vs *StoreImpl) DeleteEmbeddingsByLinkID(ctx context.Context, linkID string) error {
	query := `DELETE FROM embeddings WHERE link_id = $1`
	_, err := vs.db.Exec(ctx, query, linkID)
	if err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}
	return nil
}

func (vs *StoreImpl) SimilaritySearch(ctx context.Context, queryVector pgvector.Vector, k int) ([]store.VectorResult, error) {
	query := `SELECT link_id, (vector <-> $1) as score
             FROM embeddings ORDER BY vector <-> $1 LIMIT $2`

	rows, err := vs.db.Query(ctx, query, queryVector, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search query: %w", err)
	}
	defer rows.Close()

	var results []store.VectorResult
	for rows.Next() {
		var linkID string
		var score float64
		if err := rows.Scan(&linkID, &score); err != nil {
			return nil, fmt.Errorf("scan similarity search row: %w", err)
		}
		results = append(results, store.VectorResult{
			LinkID:         linkID,
			RelevanceScore: score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity search rows: %w", err)
	}
	return results, nil
}

// Ensure StoreImpl satisfies the VectorStore interface
var _ store.VectorStore = (*StoreImpl)(nil)
