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

// --- Link Management ---

const linkColumns = "id, user_id, url, domain, title, description, image_url, collection_id, saved_via, preview_state, embedding_id, is_embedded, created_at, updated_at"

func scanLink(row interface{ Scan(...interface{}) error }, link *models.Link) error {
	return row.Scan(
		&link.ID, &link.UserID, &link.URL, &link.Domain,
		&link.Title, &link.Description, &link.ImageURL,
		&link.CollectionID, &link.SavedVia, &link.PreviewState,
		&link.EmbeddingID, &link.IsEmbedded,
		&link.CreatedAt, &link.UpdatedAt,
	)
}

func (s *Store) CreateLink(ctx context.Context, link *models.Link) error {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	if link.PreviewState == "" {
		link.PreviewState = models.PreviewPending
	}
	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now

	query := `
		INSERT INTO links (id, user_id, url, domain, title, description, image_url, collection_id, saved_via, preview_state, is_embedded, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		link.ID, link.UserID, link.URL, link.Domain,
		link.Title, link.Description, link.ImageURL,
		link.CollectionID, link.SavedVia, link.PreviewState,
		link.IsEmbedded, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return mapConstraintErr(err, fmt.Sprintf("failed to insert link '%s'", link.URL))
	}
	return nil
}

func (s *Store) GetLink(ctx context.Context, id string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = ?`
	link := &models.Link{}
	if err := scanLink(s.db.QueryRowContext(ctx, query, id), link); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link by id %s: %w", id, err)
	}
	return link, nil
}

func (s *Store) FindLinkByURL(ctx context.Context, userID, url string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = ? AND url = ?`
	link := &models.Link{}
	if err := scanLink(s.db.QueryRowContext(ctx, query, userID, url), link); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link by url '%s': %w", url, err)
	}
	return link, nil
}

func (s *Store) ListLinks(ctx context.Context, userID string, limit, offset int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return s.queryLinks(ctx, query, userID, limit, offset)
}

func (s *Store) ListLinksByCollection(ctx context.Context, collectionID string, limit, offset int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + linkColumns + ` FROM links WHERE collection_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return s.queryLinks(ctx, query, collectionID, limit, offset)
}

func (s *Store) ListLinksWithoutCollection(ctx context.Context, userID string, limit int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 50
	}
	// Oldest first so repeated backlog scans drain in save order.
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = ? AND collection_id IS NULL ORDER BY created_at ASC LIMIT ?`
	return s.queryLinks(ctx, query, userID, limit)
}

func (s *Store) ListRecentLinks(ctx context.Context, userID string, limit int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	return s.queryLinks(ctx, query, userID, limit)
}

func (s *Store) queryLinks(ctx context.Context, query string, args ...interface{}) ([]*models.Link, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *Store) UpdateLinkPreview(ctx context.Context, id string, title, description, imageURL *string, state string) error {
	query := `
		UPDATE links
		SET title = COALESCE(?, title),
		    description = COALESCE(?, description),
		    image_url = COALESCE(?, image_url),
		    preview_state = ?,
		    updated_at = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, title, description, imageURL, state, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update link preview for %s: %w", id, err)
	}
	return requireRowAffected(res)
}

func (s *Store) AssignLinkCollection(ctx context.Context, linkID string, collectionID *string) error {
	query := `UPDATE links SET collection_id = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, collectionID, time.Now(), linkID)
	if err != nil {
		return mapConstraintErr(err, fmt.Sprintf("failed to assign link %s to collection", linkID))
	}
	return requireRowAffected(res)
}

func (s *Store) UpdateLinkEmbeddingStatus(ctx context.Context, linkID string, embeddingID uuid.UUID, isEmbedded bool) error {
	query := `UPDATE links SET embedding_id = ?, is_embedded = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, embeddingID.String(), isEmbedded, time.Now(), linkID)
	if err != nil {
		return fmt.Errorf("failed to update embedding status for link %s: %w", linkID, err)
	}
	return requireRowAffected(res)
}

func (s *Store) DeleteLink(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link %s: %w", id, err)
	}
	return requireRowAffected(res)
}

func (s *Store) CountLinks(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links for user '%s': %w", userID, err)
	}
	return count, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Ensure Store satisfies the LinkStore interface
var _ store.LinkStore = (*Store)(nil)
