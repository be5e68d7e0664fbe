package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"linkhive/internal/config"
	"linkhive/internal/models"
	"linkhive/internal/preview"
	"linkhive/internal/store"
	"linkhive/internal/util"
	"linkhive/pkg/categorizer"

	log "github.com/sirupsen/logrus"
)

type SaveLinkParams struct {
	UserID      string
	URL         string
	Title       string
	Description string
	Via         string // "cli", "api", "import"
	Collect     bool   // process inline even when a job queue is available
}

type LinkStats struct {
	TotalLinks  int64             `json:"totalLinks"`
	Unfiled     int64             `json:"unfiled"`
	Collections []CollectionCount `json:"collections"`
}

type CollectionCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type LinkServiceDeps struct {
	Links       store.LinkStore
	Collections store.CollectionStore
	Jobs        store.JobClient   // nil in local mode
	Vectors     store.VectorStore // nil in local mode
	Fetcher     preview.Fetcher   // nil when previews are disabled
	AutoCollect *AutoCollectService
	Config      *config.Config
}

// LinkService owns the save pipeline. In postgres mode preview and
// embedding work is deferred to queue workers; in local mode (or when a
// save asks for it) the same steps run inline.
type LinkService struct {
	links       store.LinkStore
	collections store.CollectionStore
	jobs        store.JobClient
	vectors     store.VectorStore
	fetcher     preview.Fetcher
	autoCollect *AutoCollectService
	cfg         *config.Config
}

func NewLinkService(deps LinkServiceDeps) *LinkService {
	return &LinkService{
		links:       deps.Links,
		collections: deps.Collections,
		jobs:        deps.Jobs,
		vectors:     deps.Vectors,
		fetcher:     deps.Fetcher,
		autoCollect: deps.AutoCollect,
		cfg:         deps.Config,
	}
}

// SaveLink persists a new link, or returns the user's existing one for
// the same URL with created=false. Preview, embedding and auto-collect
// work never fails the save.
func (s *LinkService) SaveLink(ctx context.Context, params SaveLinkParams) (*models.Link, bool, error) {
	if params.UserID == "" {
		return nil, false, fmt.Errorf("%w: user id is required", models.ErrValidation)
	}
	normalized, err := normalizeURL(params.URL)
	if err != nil {
		return nil, false, err
	}

	if existing, err := s.links.FindLinkByURL(ctx, params.UserID, normalized); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup of '%s' failed: %w", normalized, err)
	}

	link := &models.Link{
		UserID:       params.UserID,
		URL:          normalized,
		Domain:       categorizer.NormalizeHost(normalized),
		Title:        cleanOptional(params.Title),
		Description:  cleanOptional(params.Description),
		SavedVia:     savedVia(params.Via),
		PreviewState: models.PreviewPending,
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Concurrent save of the same URL; hand back the winner.
			existing, ferr := s.links.FindLinkByURL(ctx, params.UserID, normalized)
			if ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("create link: %w", err)
	}

	if s.jobs != nil && !params.Collect {
		s.enqueueProcessing(ctx, link)
	} else {
		s.processInline(ctx, link)
	}

	log.Debugf("saved link %s (%s) via %s", link.ID, link.Domain, link.SavedVia)
	return link, true, nil
}

// enqueueProcessing hands the link to the background pipeline. Enqueue
// failures are logged, not returned: the link is already saved and the
// backlog commands can pick it up later.
func (s *LinkService) enqueueProcessing(ctx context.Context, link *models.Link) {
	if s.cfg == nil || s.cfg.Preview.Enabled {
		if err := s.jobs.EnqueuePreviewJob(ctx, link.ID); err != nil {
			log.Warnf("enqueue preview job for link %s: %v", link.ID, err)
		}
	}
	if s.cfg != nil && s.cfg.Embedding.Enabled {
		if err := s.jobs.EnqueueEmbeddingJob(ctx, link.ID); err != nil {
			log.Warnf("enqueue embedding job for link %s: %v", link.ID, err)
		}
	}
}

// processInline runs the preview fetch and auto-collection in the save
// call. Used in local mode and for saves that asked to collect now.
func (s *LinkService) processInline(ctx context.Context, link *models.Link) {
	if s.fetcher != nil && (s.cfg == nil || s.cfg.Preview.Enabled) {
		s.fetchPreviewInline(ctx, link)
	}
	if s.autoCollect == nil || (s.cfg != nil && !s.cfg.AutoCollect.Enabled) {
		return
	}
	existing, err := s.collections.ListCollections(ctx, link.UserID, nil)
	if err != nil {
		log.Warnf("auto-collect skipped for link %s: list collections: %v", link.ID, err)
		return
	}
	res, err := s.autoCollect.ProcessLink(ctx, link, existing)
	if err != nil {
		log.Warnf("auto-collect failed for link %s: %v", link.ID, err)
		return
	}
	if res.CollectionID != "" {
		link.CollectionID = &res.CollectionID
	}
}

func (s *LinkService) fetchPreviewInline(ctx context.Context, link *models.Link) {
	p, err := s.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		log.Debugf("preview fetch failed for %s: %v", link.URL, err)
		if uerr := s.links.UpdateLinkPreview(ctx, link.ID, nil, nil, nil, models.PreviewFailed); uerr != nil {
			log.Warnf("mark preview failed for link %s: %v", link.ID, uerr)
		}
		link.PreviewState = models.PreviewFailed
		return
	}
	if err := s.links.UpdateLinkPreview(ctx, link.ID, p.Title, p.Description, p.ImageURL, models.PreviewFetched); err != nil {
		log.Warnf("store preview for link %s: %v", link.ID, err)
		return
	}
	// Keep the in-memory copy current so auto-collection sees the
	// fetched title and description.
	if p.Title != nil {
		link.Title = p.Title
	}
	if p.Description != nil {
		link.Description = p.Description
	}
	if p.ImageURL != nil {
		link.ImageURL = p.ImageURL
	}
	link.PreviewState = models.PreviewFetched
}

// GetLink returns the link only when it belongs to userID.
func (s *LinkService) GetLink(ctx context.Context, userID, id string) (*models.Link, error) {
	link, err := s.links.GetLink(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get link %s: %w", id, err)
	}
	if link.UserID != userID {
		return nil, fmt.Errorf("get link %s: %w", id, store.ErrNotFound)
	}
	return link, nil
}

func (s *LinkService) ListLinks(ctx context.Context, userID string, limit, offset int) ([]*models.Link, error) {
	links, err := s.links.ListLinks(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *LinkService) RecentLinks(ctx context.Context, userID string, limit int) ([]*models.Link, error) {
	links, err := s.links.ListRecentLinks(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent links: %w", err)
	}
	return links, nil
}

// DeleteLink removes the link and, when a vector store is wired, its
// embeddings first so no orphaned vectors survive the row.
func (s *LinkService) DeleteLink(ctx context.Context, userID, id string) error {
	if _, err := s.GetLink(ctx, userID, id); err != nil {
		return err
	}
	if s.vectors != nil {
		if err := s.vectors.DeleteEmbeddingsByLinkID(ctx, id); err != nil {
			return fmt.Errorf("delete embeddings for link %s: %w", id, err)
		}
	}
	if err := s.links.DeleteLink(ctx, id); err != nil {
		return fmt.Errorf("delete link %s: %w", id, err)
	}
	return nil
}

// Stats reports the user's totals and per-collection counts.
func (s *LinkService) Stats(ctx context.Context, userID string) (*LinkStats, error) {
	total, err := s.links.CountLinks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}
	collections, err := s.collections.ListCollections(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	stats := &LinkStats{TotalLinks: total, Collections: []CollectionCount{}}
	var filed int64
	for _, c := range collections {
		stats.Collections = append(stats.Collections, CollectionCount{Name: c.Name, Count: c.LinkCount})
		filed += int64(c.LinkCount)
	}
	stats.Unfiled = total - filed
	return stats, nil
}

// normalizeURL validates the URL and fills in a https scheme for bare
// hosts like "example.com". Only http and https survive.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url is required", models.ErrValidation)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid url '%s': %v", models.ErrValidation, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported url scheme '%s'", models.ErrValidation, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: url '%s' has no host", models.ErrValidation, raw)
	}
	return parsed.String(), nil
}

func cleanOptional(text string) *string {
	cleaned := util.CleanText(text)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func savedVia(via string) string {
	if via == "" {
		return "cli"
	}
	return via
}
