package primary

import (
	"context"
	"fmt"

	"linkhive/internal/models"
	"linkhive/internal/store"
)

// --- Keyword Search ---

func (s *StoreImpl) KeywordSearchLinks(ctx context.Context, userID, query string, limit int) ([]*models.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	sqlQuery := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE user_id = $1
		  AND (url ILIKE $2 OR title ILIKE $2 OR description ILIKE $2)
		ORDER BY created_at DESC
		LIMIT $3`

	links, err := s.queryLinks(ctx, sqlQuery, userID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search for '%s' failed: %w", query, err)
	}
	return links, nil
}

// Ensure StoreImpl satisfies the KeywordSearcher interface
var _ store.KeywordSearcher = (*StoreImpl)(nil)
