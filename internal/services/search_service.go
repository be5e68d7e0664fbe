package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"linkhive/internal/models"
	"linkhive/internal/store"

	log "github.com/sirupsen/logrus"
)

// SemanticResultItem pairs a link with its similarity score (distance,
// smaller is closer).
type SemanticResultItem struct {
	Link  *models.Link `json:"link"`
	Score float64      `json:"score"`
}

type SearchService struct {
	links    store.LinkStore
	keyword  store.KeywordSearcher
	vectors  store.VectorStore
	embedder store.EmbeddingService
}

// NewSearchService wires the search paths. vectors and embedder may be
// nil in local mode; semantic queries then report themselves
// unavailable instead of failing at startup.
func NewSearchService(links store.LinkStore, keyword store.KeywordSearcher, vectors store.VectorStore, embedder store.EmbeddingService) *SearchService {
	return &SearchService{
		links:    links,
		keyword:  keyword,
		vectors:  vectors,
		embedder: embedder,
	}
}

func (s *SearchService) KeywordSearch(ctx context.Context, userID, query string, limit int) ([]*models.Link, error) {
	if s.keyword == nil {
		return nil, fmt.Errorf("keyword searcher is not initialized")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	results, err := s.keyword.KeywordSearchLinks(ctx, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	return results, nil
}

// SemanticSearch embeds the query and ranks the user's links by vector
// distance.
func (s *SearchService) SemanticSearch(ctx context.Context, userID, query string, limit int) ([]SemanticResultItem, error) {
	if s.vectors == nil {
		return nil, fmt.Errorf("vector store is not initialized")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("embedding service is not initialized")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	queryVector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	hits, err := s.vectors.SimilaritySearch(ctx, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector similarity search failed: %w", err)
	}
	return s.hydrate(ctx, userID, hits, "", limit), nil
}

// RelatedLinks ranks the user's other links by similarity to the given
// one. The source link must have been embedded already.
func (s *SearchService) RelatedLinks(ctx context.Context, userID, linkID string, limit int) ([]SemanticResultItem, error) {
	if s.vectors == nil {
		return nil, fmt.Errorf("vector store is not initialized")
	}
	if limit <= 0 {
		limit = 10
	}

	source, err := s.links.GetLink(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("get source link %s: %w", linkID, err)
	}
	if source.UserID != userID {
		return nil, fmt.Errorf("get source link %s: %w", linkID, store.ErrNotFound)
	}
	if !source.IsEmbedded || source.EmbeddingID == nil {
		return nil, fmt.Errorf("link %s: %w", linkID, models.ErrNotEmbedded)
	}

	entry, err := s.vectors.GetEmbedding(ctx, *source.EmbeddingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("embedding %s for link %s is missing from the vector store", source.EmbeddingID, linkID)
		}
		return nil, fmt.Errorf("load embedding for link %s: %w", linkID, err)
	}

	// One extra so the source itself can be dropped from its own
	// neighbourhood.
	hits, err := s.vectors.SimilaritySearch(ctx, entry.Vector, limit+1)
	if err != nil {
		return nil, fmt.Errorf("vector similarity search failed: %w", err)
	}
	return s.hydrate(ctx, userID, hits, linkID, limit), nil
}

// hydrate loads the links behind similarity hits, in hit order.
// Embeddings are not user-scoped, so ownership is enforced here; hits
// whose link has since been deleted are skipped.
func (s *SearchService) hydrate(ctx context.Context, userID string, hits []store.VectorResult, excludeID string, limit int) []SemanticResultItem {
	results := make([]SemanticResultItem, 0, len(hits))
	for _, hit := range hits {
		if hit.LinkID == excludeID {
			continue
		}
		link, err := s.links.GetLink(ctx, hit.LinkID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Warnf("similarity hit %s could not be loaded: %v", hit.LinkID, err)
			}
			continue
		}
		if link.UserID != userID {
			continue
		}
		results = append(results, SemanticResultItem{Link: link, Score: hit.RelevanceScore})
		if len(results) == limit {
			break
		}
	}
	return results
}
