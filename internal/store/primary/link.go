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

// --- Link Management ---

func (s *StoreImpl) CreateLink(ctx context.Context, link *models.Link) error {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	if link.PreviewState == "" {
		link.PreviewState = models.PreviewPending
	}

	query := `
		INSERT INTO links (id, user_id, url, domain, title, description, image_url, collection_id, saved_via, preview_state, is_embedded, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	now := time.Now()
	err := s.db.QueryRow(ctx, query,
		link.ID, link.UserID, link.URL, link.Domain,
		link.Title, link.Description, link.ImageURL,
		link.CollectionID, link.SavedVia, link.PreviewState,
		link.IsEmbedded, now, now,
	).Scan(&link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation on (user_id, url)
				return fmt.Errorf("link '%s' already saved for user '%s': %w", link.URL, link.UserID, store.ErrDuplicate)
			case "23503": // foreign_key_violation on collection_id
				return fmt.Errorf("collection for link '%s' does not exist: %w", link.URL, store.ErrForeignKeyViolation)
			}
		}
		return fmt.Errorf("failed to insert link: %w", err)
	}
	return nil
}

func (s *StoreImpl) GetLink(ctx context.Context, id string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`
	link := &models.Link{}
	if err := scanLink(s.db.QueryRow(ctx, query, id), link); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link by id %s: %w", id, err)
	}
	return link, nil
}

func (s *StoreImpl) FindLinkByURL(ctx context.Context, userID, url string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 AND url = $2`
	link := &models.Link{}
	if err := scanLink(s.db.QueryRow(ctx, query, userID, url), link); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link by url '%s': %w", url, err)
	}
	return link, nil
}

func (s *StoreImpl) ListLinks(ctx context.Context, userID string, limit, offset int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return s.queryLinks(ctx, query, userID, limit, offset)
}

func (s *StoreImpl) ListLinksByCollection(ctx context.Context, collectionID string, limit, offset int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + linkColumns + ` FROM links WHERE collection_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return s.queryLinks(ctx, query, collectionID, limit, offset)
}

func (s *StoreImpl) ListLinksWithoutCollection(ctx context.Context, userID string, limit int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 50
	}
	// Oldest first so repeated backlog scans drain in save order.
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 AND collection_id IS NULL ORDER BY created_at ASC LIMIT $2`
	return s.queryLinks(ctx, query, userID, limit)
}

func (s *StoreImpl) ListRecentLinks(ctx context.Context, userID string, limit int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	return s.queryLinks(ctx, query, userID, limit)
}

func (s *StoreImpl) queryLinks(ctx context.Context, query string, args ...interface{}) ([]*models.Link, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []*models.Link
	for rows.Next() {
		link := &models.Link{}
		if err := scanLink(rows, link); err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		links = append(links, link)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}
	return links, nil
}

func (s *StoreImpl) UpdateLinkPreview(ctx context.Context, id string, title, description, imageURL *string, state string) error {
	query := `
		UPDATE links
		SET title = COALESCE($1, title),
		    description = COALESCE($2, description),
		    image_url = COALESCE($3, image_url),
		    preview_state = $4,
		    updated_at = $5
		WHERE id = $6`

	cmdTag, err := s.db.Exec(ctx, query, title, description, imageURL, state, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update link preview for %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *StoreImpl) AssignLinkCollection(ctx context.Context, linkID string, collectionID *string) error {
	query := `UPDATE links SET collection_id = $1, updated_at = $2 WHERE id = $3`
	cmdTag, err := s.db.Exec(ctx, query, collectionID, time.Now(), linkID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("collection does not exist: %w", store.ErrForeignKeyViolation)
		}
		return fmt.Errorf("failed to assign link %s to collection: %w", linkID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *StoreImpl) UpdateLinkEmbeddingStatus(ctx context.Context, linkID string, embeddingID uuid.UUID, isEmbedded bool) error {
	query := `UPDATE links SET embedding_id = $1, is_embedded = $2, updated_at = $3 WHERE id = $4`
	cmdTag, err := s.db.Exec(ctx, query, embeddingID, isEmbedded, time.Now(), linkID)
	if err != nil {
		return fmt.Errorf("failed to update embedding status for link %s: %w", linkID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *StoreImpl) DeleteLink(ctx context.Context, id string) error {
	query := `DELETE FROM links WHERE id = $1`
	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete link %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *StoreImpl) CountLinks(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links for user '%s': %w", userID, err)
	}
	return count, nil
}

// Ensure StoreImpl satisfies the LinkStore interface
var _ store.LinkStore = (*StoreImpl)(nil)
