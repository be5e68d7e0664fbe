package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkhive/internal/app"
	"linkhive/internal/config"
	"linkhive/internal/services"
)

// Integration coverage for the wired application in local (sqlite)
// mode: config validation, store and service wiring, and the full
// save, collect, search, delete flow through the real services.

func localConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLite.Path = ":memory:"
	cfg.Preview.Enabled = false
	cfg.Categorizer.Type = "rules"
	cfg.AutoCollect.Enabled = true
	cfg.Search.DefaultLimit = 20
	cfg.API.DefaultUser = "local"
	return cfg
}

func TestNewAppLocalMode(t *testing.T) {
	a, err := app.NewApp(localConfig())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.LinkStore)
	require.NotNil(t, a.CollectionStore)
	require.NotNil(t, a.KeywordSearcher)
	require.NotNil(t, a.LinkService)
	require.NotNil(t, a.CollectionService)
	require.NotNil(t, a.SearchService)
	require.NotNil(t, a.AutoCollectService)
	require.NotNil(t, a.Categorizer)
	require.NotNil(t, a.CostTracker)

	// Local mode runs without a queue, vectors or the postgres-only
	// services.
	assert.Nil(t, a.JobClient)
	assert.Nil(t, a.VectorStore)
	assert.Nil(t, a.EmbeddingService)
	assert.Nil(t, a.JobsService)
	assert.Nil(t, a.CostService)
	assert.Nil(t, a.Fetcher)

	assert.NoError(t, a.LinkStore.Ping(context.Background()))
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "missing sqlite path",
			mutate:  func(c *config.Config) { c.Database.SQLite.Path = "" },
			wantErr: "database.sqlite.path",
		},
		{
			name:    "embedding in sqlite mode",
			mutate:  func(c *config.Config) { c.Embedding.Enabled = true },
			wantErr: "postgres mode",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *config.Config) { c.Database.Driver = "mysql" },
			wantErr: "database.driver",
		},
		{
			name:    "llm categorizer without model",
			mutate:  func(c *config.Config) { c.Categorizer.Type = "llm"; c.Categorizer.Provider = "openai" },
			wantErr: "categorizer.model",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := localConfig()
			tc.mutate(cfg)
			_, err := app.NewApp(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSaveCollectSearchDeleteFlow(t *testing.T) {
	a, err := app.NewApp(localConfig())
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	user := a.Config.API.DefaultUser

	link, created, err := a.LinkService.SaveLink(ctx, services.SaveLinkParams{
		UserID: user,
		URL:    "https://github.com/golang/go",
		Title:  "The Go programming language",
		Via:    "cli",
	})
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, "github.com", link.Domain)

	// Local mode files inline, and github.com is a Development domain.
	require.NotNil(t, link.CollectionID)
	coll, err := a.CollectionService.GetCollection(ctx, user, *link.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, "Development", coll.Name)

	found, err := a.SearchService.KeywordSearch(ctx, user, "programming", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, link.ID, found[0].ID)

	again, created, err := a.LinkService.SaveLink(ctx, services.SaveLinkParams{
		UserID: user,
		URL:    "https://github.com/golang/go",
		Via:    "cli",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, link.ID, again.ID)

	require.NoError(t, a.LinkService.DeleteLink(ctx, user, link.ID))
	_, err = a.LinkService.GetLink(ctx, user, link.ID)
	assert.Error(t, err)
}

func TestStatsCountCollections(t *testing.T) {
	a, err := app.NewApp(localConfig())
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	user := a.Config.API.DefaultUser

	for i := 0; i < 2; i++ {
		_, _, err := a.LinkService.SaveLink(ctx, services.SaveLinkParams{
			UserID: user,
			URL:    fmt.Sprintf("https://github.com/org/repo-%d", i),
			Via:    "cli",
		})
		require.NoError(t, err)
	}
	_, _, err = a.LinkService.SaveLink(ctx, services.SaveLinkParams{
		UserID: user,
		URL:    "https://example.com/unclassifiable",
		Via:    "cli",
	})
	require.NoError(t, err)

	stats, err := a.LinkService.Stats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalLinks)
	assert.Equal(t, int64(1), stats.Unfiled)
	require.Len(t, stats.Collections, 1)
	assert.Equal(t, "Development", stats.Collections[0].Name)
	assert.Equal(t, 2, stats.Collections[0].Count)
}

func TestUsersAreIsolated(t *testing.T) {
	a, err := app.NewApp(localConfig())
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()

	link, _, err := a.LinkService.SaveLink(ctx, services.SaveLinkParams{
		UserID: "alice",
		URL:    "https://news.ycombinator.com/item?id=1",
		Via:    "cli",
	})
	require.NoError(t, err)

	_, err = a.LinkService.GetLink(ctx, "bob", link.ID)
	assert.Error(t, err)

	links, err := a.LinkService.ListLinks(ctx, "bob", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, links)
}
