package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"linkhive/internal/config"
	"linkhive/internal/models"
	"linkhive/internal/preview"
	"linkhive/internal/services"
	"linkhive/internal/store"
	"linkhive/internal/tasks"
	"linkhive/pkg/categorizer"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type previewUpdate struct {
	linkID      string
	title       *string
	description *string
	imageURL    *string
	state       string
}

type embedUpdate struct {
	linkID      string
	embeddingID uuid.UUID
	isEmbedded  bool
}

type fakeLinks struct {
	store.LinkStore
	links        map[string]*models.Link
	previewCalls []previewUpdate
	assigned     map[string]*string
	embedCalls   []embedUpdate
}

func newFakeLinks(links ...*models.Link) *fakeLinks {
	f := &fakeLinks{links: map[string]*models.Link{}, assigned: map[string]*string{}}
	for _, l := range links {
		f.links[l.ID] = l
	}
	return f
}

func (f *fakeLinks) GetLink(_ context.Context, id string) (*models.Link, error) {
	l, ok := f.links[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return l, nil
}

func (f *fakeLinks) UpdateLinkPreview(_ context.Context, id string, title, description, imageURL *string, state string) error {
	f.previewCalls = append(f.previewCalls, previewUpdate{id, title, description, imageURL, state})
	return nil
}

func (f *fakeLinks) AssignLinkCollection(_ context.Context, linkID string, collectionID *string) error {
	f.assigned[linkID] = collectionID
	return nil
}

func (f *fakeLinks) UpdateLinkEmbeddingStatus(_ context.Context, linkID string, embeddingID uuid.UUID, isEmbedded bool) error {
	f.embedCalls = append(f.embedCalls, embedUpdate{linkID, embeddingID, isEmbedded})
	return nil
}

type fakeCollections struct {
	store.CollectionStore
	collections []*models.Collection
	created     []*models.Collection
}

func (f *fakeCollections) ListCollections(_ context.Context, userID string, _ *bool) ([]*models.Collection, error) {
	var out []*models.Collection
	for _, c := range f.collections {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCollections) GetCollectionByName(_ context.Context, userID, name string) (*models.Collection, error) {
	for _, c := range f.collections {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeCollections) CreateCollection(_ context.Context, c *models.Collection) error {
	c.ID = uuid.NewString()
	f.collections = append(f.collections, c)
	f.created = append(f.created, c)
	return nil
}

type fakeVectors struct {
	store.VectorStore
	added   []*models.EmbeddingEntry
	cleared []string
}

func (f *fakeVectors) AddEmbedding(_ context.Context, entry *models.EmbeddingEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.added = append(f.added, entry)
	return nil
}

func (f *fakeVectors) DeleteEmbeddingsByLinkID(_ context.Context, linkID string) error {
	f.cleared = append(f.cleared, linkID)
	return nil
}

type fakeEmbedder struct {
	texts  []string
	vector pgvector.Vector
	err    error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) (pgvector.Vector, error) {
	if f.err != nil {
		return pgvector.Vector{}, f.err
	}
	f.texts = append(f.texts, text)
	return f.vector, nil
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	out := make([]pgvector.Vector, 0, len(texts))
	for _, t := range texts {
		v, err := f.GenerateEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int               { return 3 }
func (f *fakeEmbedder) ModelName() string            { return "fake-embedding-model" }
func (f *fakeEmbedder) Name() string                 { return "fake" }
func (f *fakeEmbedder) Status() store.ProviderStatus { return store.ProviderStatusActive }

type fakeFetcher struct {
	pv   *preview.Preview
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*preview.Preview, error) {
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return f.pv, nil
}

type fakeSummary struct {
	texts []string
	out   string
	err   error
}

func (f *fakeSummary) Summarize(_ context.Context, text, _, _ string) (string, error) {
	f.texts = append(f.texts, text)
	return f.out, f.err
}

func workerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AutoCollect.Enabled = true
	return cfg
}

func strPtr(s string) *string { return &s }

func TestHandlePreviewFetchStoresMetadataAndAutoCollects(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://github.com/facebook/react", Domain: "github.com"}
	links := newFakeLinks(link)
	colls := &fakeCollections{}
	fetcher := &fakeFetcher{pv: &preview.Preview{
		Title:       strPtr("facebook/react"),
		Description: strPtr("The library for web and native user interfaces."),
		ImageURL:    strPtr("https://github.com/og.png"),
	}}
	deps := Deps{
		Links:       links,
		Collections: colls,
		Fetcher:     fetcher,
		AutoCollect: services.NewAutoCollectService(categorizer.NewRuleCategorizer(), colls, links),
	}

	task, err := tasks.NewPreviewFetchTask("l1")
	require.NoError(t, err)
	require.NoError(t, HandlePreviewFetch(deps, workerConfig())(context.Background(), task))

	require.Len(t, links.previewCalls, 1)
	call := links.previewCalls[0]
	assert.Equal(t, models.PreviewFetched, call.state)
	assert.Equal(t, "facebook/react", *call.title)
	assert.Equal(t, "The library for web and native user interfaces.", *call.description)
	assert.Equal(t, "https://github.com/og.png", *call.imageURL)

	require.Len(t, colls.created, 1)
	assert.Equal(t, "Development", colls.created[0].Name)
	require.NotNil(t, links.assigned["l1"])
	assert.Equal(t, colls.created[0].ID, *links.assigned["l1"])
}

func TestHandlePreviewFetchHonorsAutoCollectToggle(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://github.com/golang/go", Domain: "github.com"}
	links := newFakeLinks(link)
	colls := &fakeCollections{}
	deps := Deps{
		Links:       links,
		Collections: colls,
		Fetcher:     &fakeFetcher{pv: &preview.Preview{Title: strPtr("golang/go")}},
		AutoCollect: services.NewAutoCollectService(categorizer.NewRuleCategorizer(), colls, links),
	}
	cfg := workerConfig()
	cfg.AutoCollect.Enabled = false

	task, err := tasks.NewPreviewFetchTask("l1")
	require.NoError(t, err)
	require.NoError(t, HandlePreviewFetch(deps, cfg)(context.Background(), task))

	require.Len(t, links.previewCalls, 1)
	assert.Empty(t, colls.created)
	assert.Empty(t, links.assigned)
}

func TestHandlePreviewFetchPermanentFailure(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://example.org/gone"}
	links := newFakeLinks(link)
	deps := Deps{
		Links:   links,
		Fetcher: &fakeFetcher{err: &preview.StatusError{StatusCode: 404}},
	}

	task, err := tasks.NewPreviewFetchTask("l1")
	require.NoError(t, err)
	handlerErr := HandlePreviewFetch(deps, workerConfig())(context.Background(), task)

	require.Error(t, handlerErr)
	assert.ErrorIs(t, handlerErr, asynq.SkipRetry)
	require.Len(t, links.previewCalls, 1)
	assert.Equal(t, models.PreviewFailed, links.previewCalls[0].state)
}

func TestHandlePreviewFetchTransientFailureRetries(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://example.org/slow"}
	links := newFakeLinks(link)
	deps := Deps{
		Links:   links,
		Fetcher: &fakeFetcher{err: errors.New("connection timed out")},
	}

	task, err := tasks.NewPreviewFetchTask("l1")
	require.NoError(t, err)
	handlerErr := HandlePreviewFetch(deps, workerConfig())(context.Background(), task)

	require.Error(t, handlerErr)
	assert.False(t, errors.Is(handlerErr, asynq.SkipRetry))
	assert.Empty(t, links.previewCalls, "transient failures leave the preview state untouched")
}

func TestHandlePreviewFetchMissingLinkSkipsRetry(t *testing.T) {
	deps := Deps{Links: newFakeLinks(), Fetcher: &fakeFetcher{pv: &preview.Preview{}}}

	task, err := tasks.NewPreviewFetchTask("ghost")
	require.NoError(t, err)
	handlerErr := HandlePreviewFetch(deps, workerConfig())(context.Background(), task)

	assert.ErrorIs(t, handlerErr, asynq.SkipRetry)
}

func TestHandlePreviewFetchSummaryFallback(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://widgets.example/weekly"}
	links := newFakeLinks(link)
	summary := &fakeSummary{out: "Covers quantum widget news."}
	deps := Deps{
		Links:   links,
		Fetcher: &fakeFetcher{pv: &preview.Preview{Title: strPtr("Quantum Widgets Weekly")}},
		Summary: summary,
	}
	cfg := workerConfig()
	cfg.Summarization.Enabled = true

	task, err := tasks.NewPreviewFetchTask("l1")
	require.NoError(t, err)
	require.NoError(t, HandlePreviewFetch(deps, cfg)(context.Background(), task))

	require.Len(t, links.previewCalls, 1)
	require.NotNil(t, links.previewCalls[0].description)
	assert.Equal(t, "Covers quantum widget news.", *links.previewCalls[0].description)
	require.Len(t, summary.texts, 1)
	assert.Contains(t, summary.texts[0], "Quantum Widgets Weekly")
	assert.Contains(t, summary.texts[0], "https://widgets.example/weekly")
}

func TestHandlePreviewFetchMalformedPayload(t *testing.T) {
	deps := Deps{Links: newFakeLinks(), Fetcher: &fakeFetcher{pv: &preview.Preview{}}}

	handlerErr := HandlePreviewFetch(deps, workerConfig())(context.Background(), asynq.NewTask(tasks.TypePreviewFetch, []byte("{")))

	assert.ErrorIs(t, handlerErr, asynq.SkipRetry)
}

func TestHandleEmbeddingJobEmbedsLink(t *testing.T) {
	link := &models.Link{
		ID:          "l1",
		UserID:      "user-1",
		URL:         "https://golang.org/doc/tutorial",
		Domain:      "golang.org",
		Title:       strPtr("Go tutorial"),
		Description: strPtr("Learn Go step by step"),
	}
	links := newFakeLinks(link)
	vectors := &fakeVectors{}
	embedder := &fakeEmbedder{vector: pgvector.NewVector([]float32{0.1, 0.2, 0.3})}
	deps := Deps{Links: links, Vectors: vectors, Embedder: embedder}

	task, err := tasks.NewEmbeddingTask("l1")
	require.NoError(t, err)
	require.NoError(t, HandleEmbeddingJob(deps)(context.Background(), task))

	wantText := "Go tutorial\nLearn Go step by step\ngolang.org"
	assert.Equal(t, []string{wantText}, embedder.texts)
	assert.Equal(t, []string{"l1"}, vectors.cleared)
	require.Len(t, vectors.added, 1)
	assert.Equal(t, "l1", vectors.added[0].LinkID)
	assert.Equal(t, wantText, vectors.added[0].Text)
	assert.NotEqual(t, uuid.Nil, vectors.added[0].ID)

	require.Len(t, links.embedCalls, 1)
	assert.Equal(t, embedUpdate{linkID: "l1", embeddingID: vectors.added[0].ID, isEmbedded: true}, links.embedCalls[0])
}

func TestHandleEmbeddingJobSkipsEmbeddedLink(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://golang.org", IsEmbedded: true}
	links := newFakeLinks(link)
	vectors := &fakeVectors{}
	embedder := &fakeEmbedder{vector: pgvector.NewVector([]float32{0.1, 0.2, 0.3})}
	deps := Deps{Links: links, Vectors: vectors, Embedder: embedder}

	task, err := tasks.NewEmbeddingTask("l1")
	require.NoError(t, err)
	require.NoError(t, HandleEmbeddingJob(deps)(context.Background(), task))

	assert.Empty(t, embedder.texts)
	assert.Empty(t, vectors.added)
	assert.Empty(t, links.embedCalls)
}

func TestHandleEmbeddingJobFallsBackToURL(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://example.org/page", Domain: "example.org"}
	links := newFakeLinks(link)
	vectors := &fakeVectors{}
	embedder := &fakeEmbedder{vector: pgvector.NewVector([]float32{0.1, 0.2, 0.3})}
	deps := Deps{Links: links, Vectors: vectors, Embedder: embedder}

	task, err := tasks.NewEmbeddingTask("l1")
	require.NoError(t, err)
	require.NoError(t, HandleEmbeddingJob(deps)(context.Background(), task))

	assert.Equal(t, []string{"https://example.org/page"}, embedder.texts)
}

func TestHandleEmbeddingJobMissingLinkSkipsRetry(t *testing.T) {
	deps := Deps{Links: newFakeLinks(), Vectors: &fakeVectors{}, Embedder: &fakeEmbedder{}}

	task, err := tasks.NewEmbeddingTask("ghost")
	require.NoError(t, err)
	handlerErr := HandleEmbeddingJob(deps)(context.Background(), task)

	assert.ErrorIs(t, handlerErr, asynq.SkipRetry)
}

func TestHandleEmbeddingJobGeneratorFailureRetries(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://golang.org", Title: strPtr("Go")}
	links := newFakeLinks(link)
	vectors := &fakeVectors{}
	deps := Deps{Links: links, Vectors: vectors, Embedder: &fakeEmbedder{err: errors.New("rate limited")}}

	task, err := tasks.NewEmbeddingTask("l1")
	require.NoError(t, err)
	handlerErr := HandleEmbeddingJob(deps)(context.Background(), task)

	require.Error(t, handlerErr)
	assert.False(t, errors.Is(handlerErr, asynq.SkipRetry))
	assert.Empty(t, vectors.added)
	assert.Empty(t, links.embedCalls)
}

func TestRegisterHandlersDispatchesTasks(t *testing.T) {
	link := &models.Link{ID: "l1", UserID: "user-1", URL: "https://example.org", Domain: "example.org"}
	links := newFakeLinks(link)
	deps := Deps{
		Links:    links,
		Vectors:  &fakeVectors{},
		Embedder: &fakeEmbedder{vector: pgvector.NewVector([]float32{0.1, 0.2, 0.3})},
		Fetcher:  &fakeFetcher{pv: &preview.Preview{Title: strPtr("Example")}},
	}

	mux := asynq.NewServeMux()
	RegisterHandlers(mux, deps, workerConfig())

	previewTask, err := tasks.NewPreviewFetchTask("l1")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), previewTask))
	assert.Len(t, links.previewCalls, 1)

	embeddingTask, err := tasks.NewEmbeddingTask("l1")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), embeddingTask))
	assert.Len(t, links.embedCalls, 1)
}

func TestRegisterHandlersSkipsUnwiredHandlers(t *testing.T) {
	mux := asynq.NewServeMux()
	RegisterHandlers(mux, Deps{Links: newFakeLinks()}, workerConfig())

	previewTask, err := tasks.NewPreviewFetchTask("l1")
	require.NoError(t, err)
	assert.Error(t, mux.ProcessTask(context.Background(), previewTask), "no handler registered without a fetcher")
}
