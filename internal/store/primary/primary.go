package primary

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkhive/internal/models"
)

// StoreImpl implements the link, collection, job and cost-tracking
// store interfaces on PostgreSQL.
type StoreImpl struct {
	db *pgxpool.Pool
}

// NewPrimaryStore creates a new PostgreSQL primary store implementation.
func NewPrimaryStore(ctx context.Context, dsn string) (*StoreImpl, error) {
	if dsn == "" {
		return nil, errors.New("database DSN cannot be empty")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database DSN: %w", err)
	}

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &StoreImpl{db: dbpool}, nil
}

// Ping checks the database connection.
func (s *StoreImpl) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection pool.
func (s *StoreImpl) Close() {
	s.db.Close()
}

// --- Helper Functions ---

// linkColumns is the canonical column list for queries returning links.
// scanLink expects exactly this order.
const linkColumns = `id, user_id, url, domain, title, description, image_url, collection_id, saved_via, preview_state, embedding_id, is_embedded, created_at, updated_at`

func scanLink(row pgx.Row, dest *models.Link) error {
	return row.Scan(
		&dest.ID,
		&dest.UserID,
		&dest.URL,
		&dest.Domain,
		&dest.Title,
		&dest.Description,
		&dest.ImageURL,
		&dest.CollectionID,
		&dest.SavedVia,
		&dest.PreviewState,
		&dest.EmbeddingID,
		&dest.IsEmbedded,
		&dest.CreatedAt,
		&dest.UpdatedAt,
	)
}
