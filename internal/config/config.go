package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// PricingInfo holds cost details per token for a specific model.
type PricingInfo struct {
	InputPerToken  float64 `mapstructure:"input_per_token"`
	OutputPerToken float64 `mapstructure:"output_per_token"`
}

type Config struct {
	Database struct {
		// Driver selects the deployment mode: "postgres" (full
		// pipeline with jobs and vector search) or "sqlite"
		// (single-file local mode, inline processing).
		Driver  string `mapstructure:"driver"`
		Primary struct {
			DSN string `mapstructure:"dsn"`
		} `mapstructure:"primary"`
		Vector struct {
			DSN string `mapstructure:"dsn"`
		} `mapstructure:"vector"`
		SQLite struct {
			Path string `mapstructure:"path"`
		} `mapstructure:"sqlite"`
	} `mapstructure:"database"`

	Preview struct {
		Enabled        bool   `mapstructure:"enabled"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
		UserAgent      string `mapstructure:"user_agent"`
		MaxBodyBytes   int64  `mapstructure:"max_body_bytes"`
	} `mapstructure:"preview"`

	Categorizer struct {
		Type           string `mapstructure:"type"` // "rules" or "llm"
		Provider       string `mapstructure:"provider"`
		Model          string `mapstructure:"model"`
		OpenaiApiKey   string `mapstructure:"openai_api_key"`
		PromptTemplate string `mapstructure:"prompt_template"` // Path to a prompt file or the template itself
	} `mapstructure:"categorizer"`

	AutoCollect struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"autocollect"`

	Embedding struct {
		Enabled         bool   `mapstructure:"enabled"`
		Model           string `mapstructure:"model"`
		OpenaiApiKey    string `mapstructure:"openai_api_key"`
		GoogleApiKey    string `mapstructure:"google_api_key"`
		GeminiModelName string `mapstructure:"gemini_model_name"`
		Dimension       int    `mapstructure:"dimension"`
	} `mapstructure:"embedding"`

	Summarization struct {
		Enabled  bool   `mapstructure:"enabled"`
		Provider string `mapstructure:"provider"`
		Model    string `mapstructure:"model"`
		Prompt   string `mapstructure:"prompt"` // Path to a prompt file or the prompt itself
	} `mapstructure:"summarization"`

	Search struct {
		DefaultLimit int `mapstructure:"default_limit"`
	} `mapstructure:"search"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`

	API struct {
		Address     string `mapstructure:"address"`
		DefaultUser string `mapstructure:"default_user"`
	} `mapstructure:"api"`

	// Pricing: map[provider][model] = per-token costs
	Pricing map[string]map[string]PricingInfo `mapstructure:"pricing"`
}

// PostgresMode reports whether the full pipeline (jobs, vector search)
// is in play.
func (c *Config) PostgresMode() bool {
	return c.Database.Driver != "sqlite"
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.linkhive")

	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.sqlite.path", "linkhive.db")
	viper.SetDefault("preview.enabled", true)
	viper.SetDefault("preview.timeout_seconds", 10)
	viper.SetDefault("preview.user_agent", "linkhive/1.0 (+link preview fetcher)")
	viper.SetDefault("preview.max_body_bytes", 2<<20)
	viper.SetDefault("categorizer.type", "rules")
	viper.SetDefault("autocollect.enabled", true)
	viper.SetDefault("search.default_limit", 20)
	viper.SetDefault("worker.concurrency", 5)
	viper.SetDefault("worker.queues", map[string]int{"default": 5, "previews": 3, "embeddings": 2})
	viper.SetDefault("api.address", ":8080")
	viper.SetDefault("api.default_user", "local")

	viper.AutomaticEnv()

	// Explicit bindings so the usual env vars work without a prefix.
	viper.BindEnv("database.primary.dsn", "LINKHIVE_DATABASE_DSN")
	viper.BindEnv("database.vector.dsn", "LINKHIVE_VECTOR_DSN")
	viper.BindEnv("redis.address", "LINKHIVE_REDIS_ADDR")
	viper.BindEnv("categorizer.openai_api_key", "OPENAI_API_KEY")
	viper.BindEnv("embedding.openai_api_key", "OPENAI_API_KEY")
	viper.BindEnv("embedding.google_api_key", "GOOGLE_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
