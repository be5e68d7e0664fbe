package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkhive/internal/models"
	"linkhive/internal/preview"
	"linkhive/internal/store"
	"linkhive/pkg/categorizer"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/pgvector/pgvector-go"
)

// stubCategorizer returns canned matches keyed by URL.
type stubCategorizer struct {
	matches map[string]*categorizer.CategoryMatch
	errs    map[string]error
}

func (s *stubCategorizer) Name() string { return "stub" }

func (s *stubCategorizer) Categorize(_ context.Context, in categorizer.Input) (*categorizer.CategoryMatch, error) {
	if err := s.errs[in.URL]; err != nil {
		return nil, err
	}
	m := s.matches[in.URL]
	if m == nil {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

// fakeLinkStore keeps links in insertion order in memory. Only the
// methods the services touch are implemented; the embedded interface
// panics on anything else.
type fakeLinkStore struct {
	store.LinkStore
	links      []*models.Link
	assigned   map[string]*string
	failAssign map[string]error
	backlog    []*models.Link
	recent     []*models.Link
	nextID     int
}

func (f *fakeLinkStore) CreateLink(_ context.Context, link *models.Link) error {
	for _, l := range f.links {
		if l.UserID == link.UserID && l.URL == link.URL {
			return fmt.Errorf("fake insert: %w", store.ErrDuplicate)
		}
	}
	f.nextID++
	link.ID = fmt.Sprintf("link-%d", f.nextID)
	link.CreatedAt = time.Now()
	link.UpdatedAt = link.CreatedAt
	f.links = append(f.links, link)
	return nil
}

func (f *fakeLinkStore) GetLink(_ context.Context, id string) (*models.Link, error) {
	for _, l := range f.links {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeLinkStore) FindLinkByURL(_ context.Context, userID, url string) (*models.Link, error) {
	for _, l := range f.links {
		if l.UserID == userID && l.URL == url {
			return l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeLinkStore) ListLinks(_ context.Context, userID string, limit, offset int) ([]*models.Link, error) {
	var out []*models.Link
	for _, l := range f.links {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLinkStore) ListLinksByCollection(_ context.Context, collectionID string, limit, offset int) ([]*models.Link, error) {
	var out []*models.Link
	for _, l := range f.links {
		if l.CollectionID != nil && *l.CollectionID == collectionID {
			out = append(out, l)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLinkStore) DeleteLink(_ context.Context, id string) error {
	for i, l := range f.links {
		if l.ID == id {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeLinkStore) UpdateLinkPreview(_ context.Context, id string, title, description, imageURL *string, state string) error {
	link, err := f.GetLink(context.Background(), id)
	if err != nil {
		return err
	}
	if title != nil {
		link.Title = title
	}
	if description != nil {
		link.Description = description
	}
	if imageURL != nil {
		link.ImageURL = imageURL
	}
	link.PreviewState = state
	return nil
}

func (f *fakeLinkStore) AssignLinkCollection(_ context.Context, linkID string, collectionID *string) error {
	if err := f.failAssign[linkID]; err != nil {
		return err
	}
	if f.assigned == nil {
		f.assigned = make(map[string]*string)
	}
	f.assigned[linkID] = collectionID
	if link, err := f.GetLink(context.Background(), linkID); err == nil {
		link.CollectionID = collectionID
	}
	return nil
}

func (f *fakeLinkStore) UpdateLinkEmbeddingStatus(_ context.Context, linkID string, embeddingID uuid.UUID, isEmbedded bool) error {
	link, err := f.GetLink(context.Background(), linkID)
	if err != nil {
		return err
	}
	id := embeddingID
	link.EmbeddingID = &id
	link.IsEmbedded = isEmbedded
	return nil
}

func (f *fakeLinkStore) ListLinksWithoutCollection(_ context.Context, _ string, limit int) ([]*models.Link, error) {
	if limit > 0 && limit < len(f.backlog) {
		return f.backlog[:limit], nil
	}
	return f.backlog, nil
}

func (f *fakeLinkStore) ListRecentLinks(_ context.Context, _ string, limit int) ([]*models.Link, error) {
	if limit > 0 && limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeLinkStore) CountLinks(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, l := range f.links {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeCollectionStore struct {
	store.CollectionStore
	collections []*models.Collection
	createErr   error
	nextID      int
}

func (f *fakeCollectionStore) CreateCollection(_ context.Context, c *models.Collection) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, held := range f.collections {
		if held.UserID == c.UserID && strings.EqualFold(held.Name, c.Name) {
			return fmt.Errorf("fake insert: %w", store.ErrDuplicate)
		}
	}
	f.nextID++
	c.ID = fmt.Sprintf("coll-%d", f.nextID)
	f.collections = append(f.collections, c)
	return nil
}

func (f *fakeCollectionStore) GetCollection(_ context.Context, id string) (*models.Collection, error) {
	for _, c := range f.collections {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeCollectionStore) GetCollectionByName(_ context.Context, userID, name string) (*models.Collection, error) {
	for _, c := range f.collections {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeCollectionStore) ListCollections(_ context.Context, userID string, _ *bool) ([]*models.Collection, error) {
	var out []*models.Collection
	for _, c := range f.collections {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCollectionStore) DeleteCollection(_ context.Context, id string) error {
	for i, c := range f.collections {
		if c.ID == id {
			f.collections = append(f.collections[:i], f.collections[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeJobClient struct {
	previews   []string
	embeddings []string
	enqueueErr error
}

func (f *fakeJobClient) Enqueue(context.Context, *asynq.Task, string, string, ...asynq.Option) (*asynq.TaskInfo, error) {
	return nil, f.enqueueErr
}

func (f *fakeJobClient) EnqueuePreviewJob(_ context.Context, linkID string) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.previews = append(f.previews, linkID)
	return nil
}

func (f *fakeJobClient) EnqueueEmbeddingJob(_ context.Context, linkID string) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.embeddings = append(f.embeddings, linkID)
	return nil
}

func (f *fakeJobClient) Close() error { return nil }

type fakeVectorStore struct {
	store.VectorStore
	entries []*models.EmbeddingEntry
	deleted []string
	results []store.VectorResult
}

func (f *fakeVectorStore) AddEmbedding(_ context.Context, entry *models.EmbeddingEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeVectorStore) GetEmbedding(_ context.Context, id uuid.UUID) (*models.EmbeddingEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeVectorStore) DeleteEmbeddingsByLinkID(_ context.Context, linkID string) error {
	f.deleted = append(f.deleted, linkID)
	return nil
}

func (f *fakeVectorStore) SimilaritySearch(_ context.Context, _ pgvector.Vector, k int) ([]store.VectorResult, error) {
	if k > 0 && k < len(f.results) {
		return f.results[:k], nil
	}
	return f.results, nil
}

type fakeKeywordSearcher struct {
	results []*models.Link
	err     error
	queries []string
}

func (f *fakeKeywordSearcher) KeywordSearchLinks(_ context.Context, _ string, query string, _ int) ([]*models.Link, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeEmbedder struct {
	vec pgvector.Vector
	err error
}

func (f *fakeEmbedder) GenerateEmbedding(context.Context, string) (pgvector.Vector, error) {
	return f.vec, f.err
}

func (f *fakeEmbedder) GenerateEmbeddings(_ context.Context, texts []string) ([]pgvector.Vector, error) {
	out := make([]pgvector.Vector, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, f.err
}

func (f *fakeEmbedder) Dimension() int               { return 3 }
func (f *fakeEmbedder) ModelName() string            { return "fake-embedding-model" }
func (f *fakeEmbedder) Name() string                 { return "fake" }
func (f *fakeEmbedder) Status() store.ProviderStatus { return store.ProviderStatusActive }

type fakeFetcher struct {
	preview *preview.Preview
	err     error
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*preview.Preview, error) {
	f.fetched = append(f.fetched, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.preview, nil
}

func testLink(id, url string, title string) *models.Link {
	l := &models.Link{ID: id, UserID: "user-1", URL: url}
	if title != "" {
		l.Title = &title
	}
	return l
}

// autoCreated builds a collection carrying the catalog description for
// name, which is how the auto-collect service marks its own creations.
func autoCreated(id, name string) *models.Collection {
	def, ok := categorizer.CategoryByName(name)
	if !ok {
		panic("unknown category " + name)
	}
	desc := def.Description
	return &models.Collection{ID: id, UserID: "user-1", Name: def.Name, Description: &desc}
}

func match(category string, confidence float64, reasons ...string) *categorizer.CategoryMatch {
	return &categorizer.CategoryMatch{Category: category, Confidence: confidence, Reasons: reasons}
}
