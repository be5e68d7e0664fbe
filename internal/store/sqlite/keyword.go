package sqlite

import (
	"context"
	"fmt"

	"linkhive/internal/models"
	"linkhive/internal/store"
)

// --- Keyword Search ---

func (s *Store) KeywordSearchLinks(ctx context.Context, userID, query string, limit int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	// sqlite LIKE is case-insensitive for ASCII, matching the ILIKE
	// behavior of the postgres backend closely enough for link search.
	pattern := "%" + query + "%"
	sqlQuery := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE user_id = ?
		  AND (url LIKE ? OR title LIKE ? OR description LIKE ?)
		ORDER BY created_at DESC
		LIMIT ?`

	links, err := s.queryLinks(ctx, sqlQuery, userID, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search for '%s' failed: %w", query, err)
	}
	return links, nil
}

// Ensure Store satisfies the KeywordSearcher interface
var _ store.KeywordSearcher = (*Store)(nil)
