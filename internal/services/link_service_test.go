package services

import (
	"context"
	"fmt"
	"testing"

	"linkhive/internal/config"
	"linkhive/internal/models"
	"linkhive/internal/preview"
	"linkhive/internal/store"
	"linkhive/pkg/categorizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Preview.Enabled = true
	cfg.AutoCollect.Enabled = true
	return cfg
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "passes through https", in: "https://example.com/a?b=1", want: "https://example.com/a?b=1"},
		{name: "passes through http", in: "http://example.com", want: "http://example.com"},
		{name: "bare host gets https", in: "example.com/path", want: "https://example.com/path"},
		{name: "trims whitespace", in: "  example.com  ", want: "https://example.com"},
		{name: "rejects empty", in: "", wantErr: true},
		{name: "rejects blank", in: "   ", wantErr: true},
		{name: "rejects ftp", in: "ftp://example.com/file", wantErr: true},
		{name: "rejects scheme without host", in: "https://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveLinkPersistsAndDeduplicates(t *testing.T) {
	links := &fakeLinkStore{}
	svc := NewLinkService(LinkServiceDeps{
		Links:       links,
		Collections: &fakeCollectionStore{},
		Config:      localConfig(),
	})

	link, created, err := svc.SaveLink(context.Background(), SaveLinkParams{
		UserID: "user-1",
		URL:    "example.com/article",
		Title:  "  An   Article  ",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "https://example.com/article", link.URL)
	assert.Equal(t, "example.com", link.Domain)
	require.NotNil(t, link.Title)
	assert.Equal(t, "An Article", *link.Title)
	assert.Equal(t, "cli", link.SavedVia)
	assert.Equal(t, models.PreviewPending, link.PreviewState)

	// Saving the same URL again returns the original row.
	again, created, err := svc.SaveLink(context.Background(), SaveLinkParams{
		UserID: "user-1",
		URL:    "https://example.com/article",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, link.ID, again.ID)
	require.Len(t, links.links, 1)
}

func TestSaveLinkRejectsInvalidURL(t *testing.T) {
	svc := NewLinkService(LinkServiceDeps{
		Links:       &fakeLinkStore{},
		Collections: &fakeCollectionStore{},
		Config:      localConfig(),
	})

	_, _, err := svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: "ftp://example.com"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, _, err = svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: ""})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, _, err = svc.SaveLink(context.Background(), SaveLinkParams{URL: "https://example.com"})
	assert.ErrorIs(t, err, models.ErrValidation, "user id is required")
}

func TestSaveLinkEnqueuesBackgroundJobs(t *testing.T) {
	links := &fakeLinkStore{}
	jobs := &fakeJobClient{}
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Preview.Enabled = true
	cfg.Embedding.Enabled = true
	svc := NewLinkService(LinkServiceDeps{
		Links:       links,
		Collections: &fakeCollectionStore{},
		Jobs:        jobs,
		Config:      cfg,
	})

	link, created, err := svc.SaveLink(context.Background(), SaveLinkParams{
		UserID: "user-1",
		URL:    "https://example.com/a",
		Via:    "api",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "api", link.SavedVia)

	assert.Equal(t, []string{link.ID}, jobs.previews)
	assert.Equal(t, []string{link.ID}, jobs.embeddings)
	// Background mode leaves preview state untouched for the worker.
	assert.Equal(t, models.PreviewPending, link.PreviewState)
}

func TestSaveLinkSkipsEmbeddingJobWhenDisabled(t *testing.T) {
	jobs := &fakeJobClient{}
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Preview.Enabled = true
	svc := NewLinkService(LinkServiceDeps{
		Links:       &fakeLinkStore{},
		Collections: &fakeCollectionStore{},
		Jobs:        jobs,
		Config:      cfg,
	})

	_, _, err := svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.Len(t, jobs.previews, 1)
	assert.Empty(t, jobs.embeddings)
}

func TestSaveLinkFetchesPreviewInline(t *testing.T) {
	title := "Fetched Title"
	desc := "Fetched description."
	links := &fakeLinkStore{}
	fetcher := &fakeFetcher{preview: &preview.Preview{Title: &title, Description: &desc}}
	svc := NewLinkService(LinkServiceDeps{
		Links:       links,
		Collections: &fakeCollectionStore{},
		Fetcher:     fetcher,
		Config:      localConfig(),
	})

	link, _, err := svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: "https://example.com/post"})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/post"}, fetcher.fetched)
	assert.Equal(t, models.PreviewFetched, link.PreviewState)
	require.NotNil(t, link.Title)
	assert.Equal(t, title, *link.Title)

	stored, err := links.GetLink(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PreviewFetched, stored.PreviewState)
	assert.Equal(t, &desc, stored.Description)
}

func TestSaveLinkSurvivesPreviewFailure(t *testing.T) {
	links := &fakeLinkStore{}
	fetcher := &fakeFetcher{err: fmt.Errorf("connect timeout")}
	svc := NewLinkService(LinkServiceDeps{
		Links:       links,
		Collections: &fakeCollectionStore{},
		Fetcher:     fetcher,
		Config:      localConfig(),
	})

	link, created, err := svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: "https://down.example.com"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.PreviewFailed, link.PreviewState)
}

func TestSaveLinkAutoCollectsInline(t *testing.T) {
	links := &fakeLinkStore{}
	colls := &fakeCollectionStore{}
	ac := NewAutoCollectService(categorizer.NewRuleCategorizer(), colls, links)
	svc := NewLinkService(LinkServiceDeps{
		Links:       links,
		Collections: colls,
		AutoCollect: ac,
		Config:      localConfig(),
	})

	link, _, err := svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: "https://github.com/golang/go"})
	require.NoError(t, err)

	require.NotNil(t, link.CollectionID)
	require.Len(t, colls.collections, 1)
	assert.Equal(t, "Development", colls.collections[0].Name)
	assert.Equal(t, colls.collections[0].ID, *link.CollectionID)
}

func TestSaveLinkCollectFlagForcesInlineProcessing(t *testing.T) {
	links := &fakeLinkStore{}
	colls := &fakeCollectionStore{}
	jobs := &fakeJobClient{}
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.AutoCollect.Enabled = true
	ac := NewAutoCollectService(categorizer.NewRuleCategorizer(), colls, links)
	svc := NewLinkService(LinkServiceDeps{
		Links:       links,
		Collections: colls,
		Jobs:        jobs,
		AutoCollect: ac,
		Config:      cfg,
	})

	link, _, err := svc.SaveLink(context.Background(), SaveLinkParams{
		UserID:  "user-1",
		URL:     "https://github.com/golang/go",
		Collect: true,
	})
	require.NoError(t, err)

	assert.Empty(t, jobs.previews)
	require.NotNil(t, link.CollectionID)
}

func TestGetLinkEnforcesOwnership(t *testing.T) {
	links := &fakeLinkStore{}
	svc := NewLinkService(LinkServiceDeps{Links: links, Collections: &fakeCollectionStore{}, Config: localConfig()})

	link, _, err := svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: "https://example.com/a"})
	require.NoError(t, err)

	got, err := svc.GetLink(context.Background(), "user-1", link.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)

	_, err = svc.GetLink(context.Background(), "someone-else", link.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteLinkDropsEmbeddingsFirst(t *testing.T) {
	links := &fakeLinkStore{}
	vectors := &fakeVectorStore{}
	svc := NewLinkService(LinkServiceDeps{
		Links:       links,
		Collections: &fakeCollectionStore{},
		Vectors:     vectors,
		Config:      localConfig(),
	})

	link, _, err := svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: "https://example.com/a"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLink(context.Background(), "user-1", link.ID))
	assert.Equal(t, []string{link.ID}, vectors.deleted)
	_, err = links.GetLink(context.Background(), link.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting someone else's link is a not-found, and nothing is
	// touched.
	link2, _, err := svc.SaveLink(context.Background(), SaveLinkParams{UserID: "user-1", URL: "https://example.com/b"})
	require.NoError(t, err)
	err = svc.DeleteLink(context.Background(), "someone-else", link2.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Len(t, vectors.deleted, 1)
}

func TestStats(t *testing.T) {
	links := &fakeLinkStore{}
	colls := &fakeCollectionStore{collections: []*models.Collection{
		{ID: "c1", UserID: "user-1", Name: "Development", LinkCount: 2},
		{ID: "c2", UserID: "user-1", Name: "News", LinkCount: 1},
	}}
	svc := NewLinkService(LinkServiceDeps{Links: links, Collections: colls, Config: localConfig()})

	for i := 0; i < 5; i++ {
		_, _, err := svc.SaveLink(context.Background(), SaveLinkParams{
			UserID: "user-1",
			URL:    fmt.Sprintf("https://example.com/%d", i),
		})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalLinks)
	assert.Equal(t, int64(2), stats.Unfiled)
	require.Len(t, stats.Collections, 2)
	assert.Equal(t, "Development", stats.Collections[0].Name)
	assert.Equal(t, 2, stats.Collections[0].Count)
}
