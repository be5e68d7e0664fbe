package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"linkhive/internal/models"
	"linkhive/internal/store"
	"linkhive/pkg/categorizer"

	log "github.com/sirupsen/logrus"
)

// Confidence thresholds for automatic filing. A match below the
// consider threshold is ignored outright; between consider and create
// the link may only join a collection that already exists; at or above
// the create threshold a missing collection is created.
const (
	considerThreshold   = 0.3
	backlogThreshold    = 0.4
	autoCreateThreshold = 0.5

	smartGroupMinLinks   = 3
	smartSuggestionLimit = 6
	smartPreviewLimit    = 3
	smartRecentWindow    = 50
)

// AutoCollectResult reports what happened to one link.
type AutoCollectResult struct {
	LinkID         string  `json:"linkId"`
	CollectionID   string  `json:"collectionId,omitempty"`
	CollectionName string  `json:"collectionName,omitempty"`
	WasCreated     bool    `json:"wasCreated"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason"`
}

// LinkSuggestion is one backlog entry worth filing.
type LinkSuggestion struct {
	LinkID         string  `json:"linkId"`
	URL            string  `json:"url"`
	Title          string  `json:"title,omitempty"`
	Category       string  `json:"category"`
	CollectionName string  `json:"collectionName"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason,omitempty"`
}

type BacklogSuggestions struct {
	Suggestions    []LinkSuggestion `json:"suggestions"`
	TotalProcessed int              `json:"totalProcessed"`
}

type PreviewLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SmartSuggestion proposes a collection for a cluster of recent links.
type SmartSuggestion struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	EstimatedLinks int           `json:"estimatedLinks"`
	Confidence     float64       `json:"confidence"`
	Preview        []PreviewLink `json:"preview"`
}

// AutoCollectService files links into collections based on categorizer
// matches. All I/O goes through the store interfaces; the categorizer
// itself never touches storage.
type AutoCollectService struct {
	categorizer categorizer.LinkCategorizer
	collections store.CollectionStore
	links       store.LinkStore
}

func NewAutoCollectService(cat categorizer.LinkCategorizer, collections store.CollectionStore, links store.LinkStore) *AutoCollectService {
	return &AutoCollectService{
		categorizer: cat,
		collections: collections,
		links:       links,
	}
}

// ProcessLink categorizes one link and files it when confidence allows.
// existing is consulted for name resolution; pass the user's current
// collections. Storage failures come back as a failed result, not an
// error; the error return is reserved for categorizer failures.
func (s *AutoCollectService) ProcessLink(ctx context.Context, link *models.Link, existing []*models.Collection) (*AutoCollectResult, error) {
	res, _, err := s.process(ctx, link, existing)
	return res, err
}

// process additionally returns the collection the link was filed into
// (created or reused) so BatchProcess can extend its accumulator.
func (s *AutoCollectService) process(ctx context.Context, link *models.Link, existing []*models.Collection) (*AutoCollectResult, *models.Collection, error) {
	res := &AutoCollectResult{LinkID: link.ID}

	match, err := s.categorize(ctx, link)
	if err != nil {
		return nil, nil, fmt.Errorf("categorize link %s: %w", link.ID, err)
	}
	if match == nil {
		res.Reason = "no category matched"
		return res, nil, nil
	}
	res.Confidence = match.Confidence
	if match.Confidence < considerThreshold {
		res.Reason = "confidence too low"
		return res, nil, nil
	}

	def, ok := categorizer.CategoryByName(match.Category)
	if !ok {
		// Categorizers are catalog-backed, so an unknown name means a
		// misbehaving implementation; treat it as an abstention.
		log.Warnf("categorizer %s returned unknown category '%s'", s.categorizer.Name(), match.Category)
		res.Reason = "no category matched"
		return res, nil, nil
	}

	name, reuse := resolveTarget(def, existing)
	if reuse != nil {
		if err := s.links.AssignLinkCollection(ctx, link.ID, &reuse.ID); err != nil {
			res.Reason = "storage error: " + err.Error()
			return res, nil, nil
		}
		res.CollectionID = reuse.ID
		res.CollectionName = reuse.Name
		res.Reason = "matched existing collection"
		return res, reuse, nil
	}

	if match.Confidence < autoCreateThreshold {
		res.Reason = "confidence not high enough to auto-create"
		return res, nil, nil
	}

	coll, raced, err := s.createCollection(ctx, link.UserID, name, def)
	if err != nil {
		res.Reason = "storage error: " + err.Error()
		return res, nil, nil
	}
	if err := s.links.AssignLinkCollection(ctx, link.ID, &coll.ID); err != nil {
		// The collection exists now even though this item failed;
		// return it so batch callers still learn about it.
		res.Reason = "storage error: " + err.Error()
		return res, coll, nil
	}
	res.CollectionID = coll.ID
	res.CollectionName = coll.Name
	res.WasCreated = !raced
	if raced {
		res.Reason = "matched existing collection"
	} else {
		res.Reason = "created new collection"
	}
	return res, coll, nil
}

// BatchProcess runs ProcessLink over links strictly in order. Created
// collections are added to a working copy of existing so later links
// with the same suggestion reuse them: at most one creation per
// suggested name per batch. Per-item failures are logged and recorded;
// the batch always continues.
func (s *AutoCollectService) BatchProcess(ctx context.Context, links []*models.Link, existing []*models.Collection) []*AutoCollectResult {
	working := make([]*models.Collection, len(existing))
	copy(working, existing)

	results := make([]*AutoCollectResult, 0, len(links))
	for _, link := range links {
		res, coll, err := s.process(ctx, link, working)
		if err != nil {
			log.Warnf("auto-collect failed for link %s: %v", link.ID, err)
			results = append(results, &AutoCollectResult{
				LinkID: link.ID,
				Reason: "categorization failed: " + err.Error(),
			})
			continue
		}
		if coll != nil && findCollection(working, coll.Name) == nil {
			working = append(working, coll)
		}
		results = append(results, res)
	}
	return results
}

// SuggestForBacklog categorizes up to batchSize unfiled links and
// reports those confident enough to act on. Read-only.
func (s *AutoCollectService) SuggestForBacklog(ctx context.Context, userID string, batchSize int) (*BacklogSuggestions, error) {
	if batchSize <= 0 {
		batchSize = 20
	}
	links, err := s.links.ListLinksWithoutCollection(ctx, userID, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load backlog links: %w", err)
	}
	existing, err := s.collections.ListCollections(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}

	out := &BacklogSuggestions{
		Suggestions:    []LinkSuggestion{},
		TotalProcessed: len(links),
	}
	for _, link := range links {
		match, err := s.categorize(ctx, link)
		if err != nil {
			log.Warnf("backlog suggestion: categorize failed for link %s: %v", link.ID, err)
			continue
		}
		if match == nil || match.Confidence < backlogThreshold {
			continue
		}
		def, ok := categorizer.CategoryByName(match.Category)
		if !ok {
			continue
		}
		name, _ := resolveTarget(def, existing)
		reason := ""
		if len(match.Reasons) > 0 {
			reason = match.Reasons[0]
		}
		out.Suggestions = append(out.Suggestions, LinkSuggestion{
			LinkID:         link.ID,
			URL:            link.URL,
			Title:          strVal(link.Title),
			Category:       match.Category,
			CollectionName: name,
			Confidence:     match.Confidence,
			Reason:         reason,
		})
	}
	return out, nil
}

// ApplyBacklog runs auto-collection over up to batchSize of the user's
// unfiled links. The write-side counterpart of SuggestForBacklog.
func (s *AutoCollectService) ApplyBacklog(ctx context.Context, userID string, batchSize int) ([]*AutoCollectResult, error) {
	if batchSize <= 0 {
		batchSize = 20
	}
	links, err := s.links.ListLinksWithoutCollection(ctx, userID, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load backlog links: %w", err)
	}
	existing, err := s.collections.ListCollections(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	return s.BatchProcess(ctx, links, existing), nil
}

// SmartSuggestions clusters the user's recent links by category and
// proposes collections for the strongest clusters. Read-only and
// deterministic for a fixed link set.
func (s *AutoCollectService) SmartSuggestions(ctx context.Context, userID string) ([]*SmartSuggestion, error) {
	links, err := s.links.ListRecentLinks(ctx, userID, smartRecentWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent links: %w", err)
	}

	type group struct {
		def   categorizer.CategoryDefinition
		links []*models.Link
		max   float64
	}
	groups := make(map[string]*group)

	for _, link := range links {
		match, err := s.categorize(ctx, link)
		if err != nil {
			log.Warnf("smart suggestions: categorize failed for link %s: %v", link.ID, err)
			continue
		}
		if match == nil {
			continue
		}
		def, ok := categorizer.CategoryByName(match.Category)
		if !ok {
			continue
		}
		g := groups[def.Name]
		if g == nil {
			g = &group{def: def}
			groups[def.Name] = g
		}
		g.links = append(g.links, link)
		if match.Confidence > g.max {
			g.max = match.Confidence
		}
	}

	var ranked []*group
	for _, g := range groups {
		if len(g.links) >= smartGroupMinLinks {
			ranked = append(ranked, g)
		}
	}
	// Rank by count x max confidence; equal scores fall back to
	// catalog order so the output never depends on map iteration.
	sort.SliceStable(ranked, func(i, j int) bool {
		si := float64(len(ranked[i].links)) * ranked[i].max
		sj := float64(len(ranked[j].links)) * ranked[j].max
		if si != sj {
			return si > sj
		}
		return categorizer.CategoryRank(ranked[i].def.Name) < categorizer.CategoryRank(ranked[j].def.Name)
	})
	if len(ranked) > smartSuggestionLimit {
		ranked = ranked[:smartSuggestionLimit]
	}

	suggestions := make([]*SmartSuggestion, 0, len(ranked))
	for _, g := range ranked {
		sg := &SmartSuggestion{
			Name:           g.def.Name,
			Description:    g.def.Description,
			EstimatedLinks: len(g.links),
			Confidence:     g.max,
		}
		for _, link := range g.links {
			if len(sg.Preview) == smartPreviewLimit {
				break
			}
			sg.Preview = append(sg.Preview, PreviewLink{Title: link.TitleOrURL(), URL: link.URL})
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions, nil
}

func (s *AutoCollectService) categorize(ctx context.Context, link *models.Link) (*categorizer.CategoryMatch, error) {
	return s.categorizer.Categorize(ctx, categorizer.Input{
		URL:         link.URL,
		Title:       strVal(link.Title),
		Description: strVal(link.Description),
	})
}

// createCollection inserts the collection, tagging it with the
// category description so later runs can recognize it as auto-created.
// Losing a duplicate-name race falls back to the winner's row; raced
// reports that case.
func (s *AutoCollectService) createCollection(ctx context.Context, userID, name string, def categorizer.CategoryDefinition) (coll *models.Collection, raced bool, err error) {
	desc := def.Description
	c := &models.Collection{
		UserID:      userID,
		Name:        name,
		Description: &desc,
	}
	if err := s.collections.CreateCollection(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			winner, qerr := s.collections.GetCollectionByName(ctx, userID, name)
			if qerr != nil {
				return nil, false, fmt.Errorf("collection '%s' exists but could not be loaded: %w", name, qerr)
			}
			return winner, true, nil
		}
		return nil, false, err
	}
	return c, false, nil
}

// resolveTarget walks "name", "name 2", "name 3", ... against existing
// collections. It returns either a free name to create, or the
// collection to reuse when a taken name carries this category's
// description (the auto-created marker). Names held by unrelated
// collections advance the counter.
func resolveTarget(def categorizer.CategoryDefinition, existing []*models.Collection) (string, *models.Collection) {
	for counter := 1; ; counter++ {
		name := def.Name
		if counter > 1 {
			name = fmt.Sprintf("%s %d", def.Name, counter)
		}
		held := findCollection(existing, name)
		if held == nil {
			return name, nil
		}
		if held.Description != nil && *held.Description == def.Description {
			return held.Name, held
		}
	}
}

func findCollection(existing []*models.Collection, name string) *models.Collection {
	for _, c := range existing {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
