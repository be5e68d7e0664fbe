package primary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkhive/internal/models"
	"linkhive/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- Collection Management ---

func (s *StoreImpl) CreateCollection(ctx context.Context, collection *models.Collection) error {
	if collection.ID == "" {
		collection.ID = uuid.New().String()
	}

	query := `
		INSERT INTO collections (id, user_id, name, description, is_pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	now := time.Now()
	err := s.db.QueryRow(ctx, query,
		collection.ID, collection.UserID, collection.Name,
		collection.Description, collection.IsPinned, now, now,
	).Scan(&collection.CreatedAt, &collection.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on (user_id, name)
			return fmt.Errorf("collection with name '%s' already exists: %w", collection.Name, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	return nil
}

func (s *StoreImpl) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	query := `SELECT id, user_id, name, description, is_pinned, created_at, updated_at FROM collections WHERE id = $1`
	c := &models.Collection{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPinned, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get collection by id %s: %w", id, err)
	}
	return c, nil
}

func (s *StoreImpl) GetCollectionByName(ctx context.Context, userID, name string) (*models.Collection, error) {
	query := `SELECT id, user_id, name, description, is_pinned, created_at, updated_at FROM collections WHERE user_id = $1 AND name = $2`
	c := &models.Collection{}
	err := s.db.QueryRow(ctx, query, userID, name).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPinned, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get collection by name '%s': %w", name, err)
	}
	return c, nil
}

func (s *StoreImpl) ListCollections(ctx context.Context, userID string, pinned *bool) ([]*models.Collection, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.description, c.is_pinned, c.created_at, c.updated_at,
		       COUNT(l.id) AS link_count
		FROM collections c
		LEFT JOIN links l ON l.collection_id = c.id
		WHERE c.user_id = $1`
	args := []interface{}{userID}
	if pinned != nil {
		query += ` AND c.is_pinned = $2`
		args = append(args, *pinned)
	}
	query += ` GROUP BY c.id ORDER BY c.name ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		c := &models.Collection{}
		err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPinned, &c.CreatedAt, &c.UpdatedAt,
			&c.LinkCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection row: %w", err)
		}
		collections = append(collections, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection rows: %w", err)
	}
	return collections, nil
}

func (s *StoreImpl) DeleteCollection(ctx context.Context, id string) error {
	// Unfile the collection's links first so they return to the backlog.
	unassign := `UPDATE links SET collection_id = NULL, updated_at = $1 WHERE collection_id = $2`
	if _, err := s.db.Exec(ctx, unassign, time.Now(), id); err != nil {
		return fmt.Errorf("failed to unassign links for collection %s: %w", id, err)
	}

	query := `DELETE FROM collections WHERE id = $1`
	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Ensure StoreImpl satisfies the CollectionStore interface
var _ store.CollectionStore = (*StoreImpl)(nil)
