package config

import (
	"errors"
	"fmt"
)

// Validate checks field combinations for the selected mode. Postgres
// mode needs DSNs, Redis and worker settings; sqlite mode only needs a
// database path.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "":
		if c.Database.Primary.DSN == "" {
			return errors.New("database.primary.dsn is required in postgres mode")
		}
		if c.Redis.Address == "" {
			return errors.New("redis.address is required in postgres mode")
		}
		if c.Worker.Concurrency <= 0 {
			return errors.New("worker.concurrency must be a positive integer")
		}
		if len(c.Worker.Queues) == 0 {
			return errors.New("worker.queues must define at least one queue")
		}
		for name, priority := range c.Worker.Queues {
			if name == "" {
				return errors.New("worker.queues contains an empty queue name")
			}
			if priority <= 0 {
				return fmt.Errorf("worker.queues priority for queue '%s' must be positive", name)
			}
		}
		if c.Embedding.Enabled && c.Database.Vector.DSN == "" {
			return errors.New("database.vector.dsn is required when embedding is enabled")
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return errors.New("database.sqlite.path is required in sqlite mode")
		}
		if c.Embedding.Enabled {
			return errors.New("embedding requires postgres mode (pgvector)")
		}
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got '%s'", c.Database.Driver)
	}

	if c.Preview.Enabled {
		if c.Preview.TimeoutSeconds <= 0 {
			return errors.New("preview.timeout_seconds must be a positive integer")
		}
		if c.Preview.MaxBodyBytes <= 0 {
			return errors.New("preview.max_body_bytes must be positive")
		}
	}

	switch c.Categorizer.Type {
	case "rules", "":
	case "llm":
		if c.Categorizer.Provider == "" {
			return errors.New("categorizer.provider is required when categorizer.type is 'llm'")
		}
		if c.Categorizer.Model == "" {
			return errors.New("categorizer.model is required when categorizer.type is 'llm'")
		}
		if c.Categorizer.Provider == "openai" && c.Categorizer.OpenaiApiKey == "" {
			return errors.New("categorizer.openai_api_key is required for the openai categorizer")
		}
	default:
		return fmt.Errorf("categorizer.type must be 'rules' or 'llm', got '%s'", c.Categorizer.Type)
	}

	if c.Embedding.Enabled {
		if c.Embedding.Dimension <= 0 {
			return errors.New("embedding.dimension must be a positive integer")
		}
		if c.Embedding.GeminiModelName != "" && c.Embedding.GoogleApiKey == "" {
			return errors.New("embedding.google_api_key is required when embedding.gemini_model_name is set")
		}
	}

	if c.Summarization.Enabled {
		if c.Summarization.Provider == "" {
			return errors.New("summarization.provider is required when summarization is enabled")
		}
		if c.Summarization.Model == "" {
			return errors.New("summarization.model is required when summarization is enabled")
		}
	}

	return nil
}
