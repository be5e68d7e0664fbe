package app

import (
	"context"
	"fmt"
	"time"

	"linkhive/internal/config"
	"linkhive/internal/costtracker"
	"linkhive/internal/preview"
	"linkhive/internal/services"
	"linkhive/internal/store"
	"linkhive/internal/store/primary"
	"linkhive/internal/store/sqlite"
	"linkhive/internal/store/vector"
	"linkhive/pkg/categorizer"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// App wires stores and services for the configured mode. Postgres mode
// carries the full pipeline (job queue, vector search, cost tracking);
// sqlite mode runs everything inline against a single file and leaves
// the queue and vector fields nil.
type App struct {
	Config *config.Config

	LinkStore       store.LinkStore
	CollectionStore store.CollectionStore
	KeywordSearcher store.KeywordSearcher
	VectorStore     store.VectorStore
	JobStore        store.JobStore
	CostStore       store.CostTrackingStore
	JobClient       store.JobClient

	EmbeddingService store.EmbeddingService
	Fetcher          preview.Fetcher
	Categorizer      categorizer.LinkCategorizer
	CostTracker      costtracker.CostTracker
	SummaryService   services.SummaryService

	LinkService        *services.LinkService
	CollectionService  *services.CollectionService
	SearchService      *services.SearchService
	AutoCollectService *services.AutoCollectService
	JobsService        *services.JobsService
	CostService        *services.CostService

	// concrete handles kept for Close
	pg   *primary.StoreImpl
	lite *sqlite.Store
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	a := &App{Config: cfg}

	if err := a.initStores(ctx); err != nil {
		return nil, err
	}
	a.initCostTracker()
	if err := a.initEmbeddingService(); err != nil {
		a.cleanupPartialInit()
		return nil, err
	}
	if err := a.initSummaryService(); err != nil {
		a.cleanupPartialInit()
		return nil, err
	}
	if err := a.initCategorizer(); err != nil {
		a.cleanupPartialInit()
		return nil, err
	}
	a.initFetcher()
	a.initServices()

	log.Debugf("app initialized with driver %s", driverName(cfg))
	return a, nil
}

func driverName(cfg *config.Config) string {
	if cfg.PostgresMode() {
		return "postgres"
	}
	return "sqlite"
}

func (a *App) initStores(ctx context.Context) error {
	if a.Config.PostgresMode() {
		ps, err := primary.NewPrimaryStore(ctx, a.Config.Database.Primary.DSN)
		if err != nil {
			return fmt.Errorf("failed to initialize primary store: %w", err)
		}
		a.pg = ps
		a.LinkStore = ps
		a.CollectionStore = ps
		a.KeywordSearcher = ps
		a.JobStore = ps
		a.CostStore = ps

		if a.Config.Embedding.Enabled {
			vs, err := vector.NewStore(ctx, a.Config.Database.Vector.DSN)
			if err != nil {
				return fmt.Errorf("failed to initialize vector store: %w", err)
			}
			a.VectorStore = vs
		}

		jc, err := store.NewAsynqJobClient(a.Config.Redis.Address, a.JobStore)
		if err != nil {
			return fmt.Errorf("failed to initialize job client: %w", err)
		}
		a.JobClient = jc
		return nil
	}

	ls, err := sqlite.NewStore(a.Config.Database.SQLite.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize sqlite store: %w", err)
	}
	a.lite = ls
	a.LinkStore = ls
	a.CollectionStore = ls
	a.KeywordSearcher = ls
	return nil
}

func (a *App) initCostTracker() {
	if a.CostStore != nil {
		a.CostTracker = costtracker.NewStoreTracker(a.CostStore)
		return
	}
	a.CostTracker = costtracker.NewNoop()
}

// initEmbeddingService assembles the provider fallback chain. A
// provider without an API key is skipped, not fatal; only a chain the
// constructor rejects outright fails startup.
func (a *App) initEmbeddingService() error {
	if !a.Config.Embedding.Enabled {
		return nil
	}

	var providers []services.EmbeddingProvider
	if p, err := services.NewOpenAIProvider(a.Config.Embedding.OpenaiApiKey, a.Config.Embedding.Model, a.CostStore, a.openaiPricing()); err != nil {
		log.Warnf("openai embedding provider unavailable: %v", err)
	} else if p.Status() == store.ProviderStatusActive {
		providers = append(providers, p)
	}
	if p, err := services.NewGeminiProvider(a.Config.Embedding.GoogleApiKey, a.Config.Embedding.GeminiModelName); err != nil {
		log.Warnf("gemini embedding provider unavailable: %v", err)
	} else if p.Status() == store.ProviderStatusActive {
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		log.Warn("embedding enabled but no provider has an API key, semantic features unavailable")
		return nil
	}

	strategy := &services.SimpleRetryStrategy{MaxAttempts: 3, BaseDelayMs: 200}
	svc, err := services.NewFallbackEmbeddingService(providers, strategy)
	if err != nil {
		// Mixed-dimension providers cannot rotate; keep the primary.
		log.Warnf("embedding fallback chain rejected: %v; using %s alone", err, providers[0].Name())
		svc, err = services.NewFallbackEmbeddingService(providers[:1], strategy)
		if err != nil {
			return fmt.Errorf("failed to initialize embedding service: %w", err)
		}
	}
	if dim := a.Config.Embedding.Dimension; dim > 0 && svc.Dimension() != dim {
		log.Warnf("embedding provider emits %d dimensions but embedding.dimension is %d; the embeddings table must match the provider", svc.Dimension(), dim)
	}
	a.EmbeddingService = svc
	return nil
}

func (a *App) initSummaryService() error {
	if !a.Config.Summarization.Enabled {
		a.SummaryService = services.NewNoopSummaryService()
		return nil
	}

	prompt, err := config.ResolvePrompt(a.Config.Summarization.Prompt, services.DefaultSummaryPrompt)
	if err != nil {
		return fmt.Errorf("failed to load summarization prompt: %w", err)
	}

	switch a.Config.Summarization.Provider {
	case "openai":
		key := a.openaiKey()
		if key == "" {
			log.Warn("summarization enabled without an OpenAI API key, summaries disabled")
			a.SummaryService = services.NewNoopSummaryService()
			return nil
		}
		a.SummaryService = services.NewOpenAISummaryService(key, a.Config.Summarization.Model, prompt, a.CostStore, a.openaiPricing())
	default:
		log.Warnf("unknown summarization provider '%s', summaries disabled", a.Config.Summarization.Provider)
		a.SummaryService = services.NewNoopSummaryService()
	}
	return nil
}

func (a *App) initCategorizer() error {
	switch a.Config.Categorizer.Type {
	case "", "rules":
		a.Categorizer = categorizer.NewRuleCategorizer()
		return nil
	case "llm":
		if a.Config.Categorizer.Provider != "openai" {
			return fmt.Errorf("unsupported categorizer provider '%s'", a.Config.Categorizer.Provider)
		}
		prompt, err := config.ResolvePrompt(a.Config.Categorizer.PromptTemplate, categorizer.DefaultPromptTemplate)
		if err != nil {
			return fmt.Errorf("failed to load categorizer prompt: %w", err)
		}
		client := openai.NewClient(a.Config.Categorizer.OpenaiApiKey)
		a.Categorizer = categorizer.NewLLMCategorizer(client, a.Config.Categorizer.Model, prompt, a.CostTracker, a.openaiPricing())
		return nil
	default:
		return fmt.Errorf("unknown categorizer type '%s'", a.Config.Categorizer.Type)
	}
}

func (a *App) initFetcher() {
	if !a.Config.Preview.Enabled {
		return
	}
	var opts []preview.Option
	if ua := a.Config.Preview.UserAgent; ua != "" {
		opts = append(opts, preview.WithUserAgent(ua))
	}
	if max := a.Config.Preview.MaxBodyBytes; max > 0 {
		opts = append(opts, preview.WithMaxBytes(max))
	}
	a.Fetcher = preview.NewHTTPFetcher(time.Duration(a.Config.Preview.TimeoutSeconds)*time.Second, opts...)
}

func (a *App) initServices() {
	a.AutoCollectService = services.NewAutoCollectService(a.Categorizer, a.CollectionStore, a.LinkStore)
	a.LinkService = services.NewLinkService(services.LinkServiceDeps{
		Links:       a.LinkStore,
		Collections: a.CollectionStore,
		Jobs:        a.JobClient,
		Vectors:     a.VectorStore,
		Fetcher:     a.Fetcher,
		AutoCollect: a.AutoCollectService,
		Config:      a.Config,
	})
	a.CollectionService = services.NewCollectionService(a.CollectionStore, a.LinkStore)
	a.SearchService = services.NewSearchService(a.LinkStore, a.KeywordSearcher, a.VectorStore, a.EmbeddingService)
	if a.JobStore != nil {
		a.JobsService = services.NewJobsService(a.JobStore)
	}
	if a.CostStore != nil {
		a.CostService = services.NewCostService(a.CostStore)
	}
}

// openaiKey finds the OpenAI key wherever it was configured; the
// summarization section has no key field of its own.
func (a *App) openaiKey() string {
	if k := a.Config.Categorizer.OpenaiApiKey; k != "" {
		return k
	}
	return a.Config.Embedding.OpenaiApiKey
}

func (a *App) openaiPricing() map[string]config.PricingInfo {
	return a.Config.Pricing["openai"]
}

// cleanupPartialInit closes whatever initStores had opened when a later
// init step fails.
func (a *App) cleanupPartialInit() {
	if a.JobClient != nil {
		if err := a.JobClient.Close(); err != nil {
			log.Errorf("cleanup: closing job client: %v", err)
		}
	}
	if a.VectorStore != nil {
		if err := a.VectorStore.Close(); err != nil {
			log.Errorf("cleanup: closing vector store: %v", err)
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.lite != nil {
		if err := a.lite.Close(); err != nil {
			log.Errorf("cleanup: closing sqlite store: %v", err)
		}
	}
}

// Close releases every connection the app holds.
func (a *App) Close() {
	a.cleanupPartialInit()
}
