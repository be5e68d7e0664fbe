package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"linkhive/internal/models"
	"linkhive/internal/store"

	"github.com/google/uuid"
)

// --- Collection Management ---

func (s *Store) CreateCollection(ctx context.Context, collection *models.Collection) error {
	if collection.ID == "" {
		collection.ID = uuid.New().String()
	}
	now := time.Now()
	collection.CreatedAt = now
	collection.UpdatedAt = now

	query := `
		INSERT INTO collections (id, user_id, name, description, is_pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		collection.ID, collection.UserID, collection.Name,
		collection.Description, collection.IsPinned, collection.CreatedAt, collection.UpdatedAt,
	)
	if err != nil {
		return mapConstraintErr(err, fmt.Sprintf("failed to insert collection '%s'", collection.Name))
	}
	return nil
}

func (s *Store) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	query := `SELECT id, user_id, name, description, is_pinned, created_at, updated_at FROM collections WHERE id = ?`
	c := &models.Collection{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPinned, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get collection by id %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) GetCollectionByName(ctx context.Context, userID, name string) (*models.Collection, error) {
	query := `SELECT id, user_id, name, description, is_pinned, created_at, updated_at FROM collections WHERE user_id = ? AND name = ?`
	c := &models.Collection{}
	err := s.db.QueryRowContext(ctx, query, userID, name).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.IsPinned, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get collection by name '%s': %w", name, err)
	}
	return c, nil
}

func (s *Store) ListCollections(ctx context.Context, userID string, pinned *bool) ([]*models.Collection, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.description, c.is_pinned, c.created_at, c.updated_at,
		       COUNT(l.id) AS link_count
		FROM collections c
		LEFT JOIN links l ON l.collection_id = c.id
		WHERE c.user_id = ?`
	args := []interface{}{userID}
	if pinned != nil {
		query += ` AND c.is_pinned = ?`
		args = append(args, *pinned)
	}
	query += ` GROUP BY c.id ORDER BY c.name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	// Unfile the collection's links first so they return to the backlog.
	unassign := `UPDATE links SET collection_id = NULL, updated_at = ? WHERE collection_id = ?`
	if _, err := s.db.ExecContext(ctx, unassign, time.Now(), id); err != nil {
		return fmt.Errorf("failed to unassign links for collection %s: %w", id, err)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", id, err)
	}
	return requireRowAffected(res)
}

// Ensure Store satisfies the CollectionStore interface
var _ store.CollectionStore = (*Store)(nil)
