package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"linkhive/internal/config"
	"linkhive/internal/models"
	"linkhive/internal/preview"
	"linkhive/internal/services"
	"linkhive/internal/store"
	"linkhive/internal/tasks"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// Deps bundles the collaborators the background handlers need. Fetcher
// and Links are required for preview tasks; Embedder and Vectors for
// embedding tasks. Summary and AutoCollect are optional extras the
// preview handler uses when present.
type Deps struct {
	Links       store.LinkStore
	Collections store.CollectionStore
	Vectors     store.VectorStore
	Embedder    store.EmbeddingService
	Fetcher     preview.Fetcher
	AutoCollect *services.AutoCollectService
	Summary     services.SummaryService
}

// RegisterHandlers wires the task handlers onto the mux. Handlers whose
// dependencies are missing are skipped with a warning so a partially
// configured worker still drains the queues it can serve.
func RegisterHandlers(mux *asynq.ServeMux, deps Deps, cfg *config.Config) {
	if deps.Links == nil {
		log.Warn("Link store is nil, no worker handlers registered")
		return
	}

	if deps.Fetcher != nil {
		mux.HandleFunc(tasks.TypePreviewFetch, HandlePreviewFetch(deps, cfg))
	} else {
		log.Warnf("Preview fetcher is nil, skipping registration of %s handler", tasks.TypePreviewFetch)
	}

	if deps.Embedder != nil && deps.Vectors != nil {
		mux.HandleFunc(tasks.TypeEmbeddingJob, HandleEmbeddingJob(deps))
	} else {
		log.Warnf("Embedding service or vector store is nil, skipping registration of %s handler", tasks.TypeEmbeddingJob)
	}
}

// HandlePreviewFetch returns the handler for preview:fetch tasks. It
// fetches page metadata for the link, stores it, and runs
// auto-collection afterwards when enabled and the link is still
// unfiled. Permanent fetch failures (non-HTML, 4xx) mark the preview
// failed and are not retried.
func HandlePreviewFetch(deps Deps, cfg *config.Config) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p tasks.PreviewFetchPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}

		link, err := deps.Links.GetLink(ctx, p.LinkID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warnf("Preview task for link %s: link no longer exists, skipping", p.LinkID)
				return fmt.Errorf("link %s not found: %w", p.LinkID, asynq.SkipRetry)
			}
			return fmt.Errorf("load link %s: %w", p.LinkID, err)
		}

		pv, err := deps.Fetcher.Fetch(ctx, link.URL)
		if err != nil {
			if preview.IsPermanent(err) {
				if uerr := deps.Links.UpdateLinkPreview(ctx, link.ID, nil, nil, nil, models.PreviewFailed); uerr != nil {
					log.Warnf("Failed to mark preview failed for link %s: %v", link.ID, uerr)
				}
				return fmt.Errorf("preview for link %s failed permanently: %v: %w", link.ID, err, asynq.SkipRetry)
			}
			return fmt.Errorf("fetch preview for link %s: %w", link.ID, err)
		}

		description := pv.Description
		if description == nil {
			description = summarizeDescription(ctx, deps, cfg, link, pv, taskID(t))
		}

		if err := deps.Links.UpdateLinkPreview(ctx, link.ID, pv.Title, description, pv.ImageURL, models.PreviewFetched); err != nil {
			return fmt.Errorf("store preview for link %s: %w", link.ID, err)
		}
		log.Infof("Preview fetched for link %s (%s)", link.ID, link.Domain)

		// Categorization sees the freshly fetched metadata, not just
		// whatever the save request carried.
		if pv.Title != nil {
			link.Title = pv.Title
		}
		if description != nil {
			link.Description = description
		}
		autoCollect(ctx, deps, cfg, link)
		return nil
	}
}

// summarizeDescription asks the summary service for a one-line
// description when the page itself offered none. Best effort: any
// failure leaves the description empty.
func summarizeDescription(ctx context.Context, deps Deps, cfg *config.Config, link *models.Link, pv *preview.Preview, jobID string) *string {
	if deps.Summary == nil || cfg == nil || !cfg.Summarization.Enabled {
		return nil
	}
	var parts []string
	if pv.Title != nil {
		parts = append(parts, *pv.Title)
	} else if link.Title != nil {
		parts = append(parts, *link.Title)
	}
	parts = append(parts, link.URL)
	summary, err := deps.Summary.Summarize(ctx, strings.Join(parts, "\n"), link.ID, jobID)
	if err != nil {
		log.Warnf("Summary fallback for link %s failed: %v", link.ID, err)
		return nil
	}
	if summary == "" {
		return nil
	}
	return &summary
}

// autoCollect files the link into a collection when auto-collection is
// enabled and the link has none yet. Failures are logged, never
// returned: the preview result is already persisted and retrying the
// task would refetch the page.
func autoCollect(ctx context.Context, deps Deps, cfg *config.Config, link *models.Link) {
	if deps.AutoCollect == nil || deps.Collections == nil || cfg == nil || !cfg.AutoCollect.Enabled {
		return
	}
	if link.CollectionID != nil {
		return
	}
	existing, err := deps.Collections.ListCollections(ctx, link.UserID, nil)
	if err != nil {
		log.Warnf("Auto-collect for link %s: listing collections failed: %v", link.ID, err)
		return
	}
	result, err := deps.AutoCollect.ProcessLink(ctx, link, existing)
	if err != nil {
		log.Warnf("Auto-collect for link %s failed: %v", link.ID, err)
		return
	}
	if result.CollectionID != "" {
		log.Infof("Auto-collect filed link %s into '%s' (created=%t, confidence=%.2f)",
			link.ID, result.CollectionName, result.WasCreated, result.Confidence)
	} else {
		log.Debugf("Auto-collect left link %s unfiled: %s", link.ID, result.Reason)
	}
}

// HandleEmbeddingJob returns the handler for embedding:generate tasks.
// It embeds the link's text and records the vector. Already embedded
// links are skipped; a re-run replaces any previous vector for the
// link.
func HandleEmbeddingJob(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p tasks.EmbeddingPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}

		link, err := deps.Links.GetLink(ctx, p.LinkID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warnf("Embedding task for link %s: link no longer exists, skipping", p.LinkID)
				return fmt.Errorf("link %s not found: %w", p.LinkID, asynq.SkipRetry)
			}
			return fmt.Errorf("load link %s: %w", p.LinkID, err)
		}
		if link.IsEmbedded {
			log.Debugf("Link %s is already embedded, skipping", link.ID)
			return nil
		}

		text := services.EmbeddingText(link.Title, link.Description, link.Domain)
		if text == "" {
			text = link.URL
		}

		vector, err := deps.Embedder.GenerateEmbedding(ctx, text)
		if err != nil {
			return fmt.Errorf("generate embedding for link %s: %w", link.ID, err)
		}

		if err := deps.Vectors.DeleteEmbeddingsByLinkID(ctx, link.ID); err != nil {
			return fmt.Errorf("clear old embeddings for link %s: %w", link.ID, err)
		}
		entry := &models.EmbeddingEntry{
			LinkID: link.ID,
			Text:   text,
			Vector: vector,
		}
		if err := deps.Vectors.AddEmbedding(ctx, entry); err != nil {
			return fmt.Errorf("store embedding for link %s: %w", link.ID, err)
		}

		if err := deps.Links.UpdateLinkEmbeddingStatus(ctx, link.ID, entry.ID, true); err != nil {
			return fmt.Errorf("update embedding status for link %s: %w", link.ID, err)
		}
		log.Infof("Embedded link %s with %s (%d dims)", link.ID, deps.Embedder.ModelName(), deps.Embedder.Dimension())
		return nil
	}
}

// taskID extracts the asynq task id for job bookkeeping. Tasks created
// outside a server context (tests) have no result writer.
func taskID(t *asynq.Task) string {
	if w := t.ResultWriter(); w != nil {
		return w.TaskID()
	}
	return ""
}
