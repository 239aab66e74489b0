// Package config holds the process configuration, built once at startup and
// passed explicitly to every component.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/storage"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SPECRAG"

// Config is the full runtime configuration.
type Config struct {
	OllamaURL      string        `yaml:"ollama_url" envconfig:"OLLAMA_URL"`
	OllamaTimeout  time.Duration `yaml:"ollama_timeout" envconfig:"OLLAMA_TIMEOUT"`
	EmbeddingModel string        `yaml:"embedding_model" envconfig:"EMBEDDING_MODEL"`
	LLMModel       string        `yaml:"llm_model" envconfig:"LLM_MODEL"`

	StorageDriver   string `yaml:"storage_driver" envconfig:"STORAGE_DRIVER"`
	SQLitePath      string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	PostgresDSN     string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	MongoDBURI      string `yaml:"mongodb_uri" envconfig:"MONGODB_URI"`
	MongoDBDatabase string `yaml:"mongodb_database" envconfig:"MONGODB_DATABASE"`
	CollectionName  string `yaml:"collection_name" envconfig:"COLLECTION"`
	DistanceMetric  string `yaml:"distance_metric" envconfig:"DISTANCE_METRIC"`

	TopK                    int     `yaml:"top_k" envconfig:"TOP_K"`
	RerankTopN              int     `yaml:"rerank_top_n" envconfig:"RERANK_TOP_N"`
	SimilarityThreshold     float64 `yaml:"similarity_threshold" envconfig:"SIMILARITY_THRESHOLD"`
	HighConfidenceThreshold float64 `yaml:"high_confidence_threshold" envconfig:"HIGH_CONFIDENCE_THRESHOLD"`

	Temperature float64 `yaml:"temperature" envconfig:"TEMPERATURE"`
	MaxTokens   int     `yaml:"max_tokens" envconfig:"MAX_TOKENS"`

	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`
	Addr      string `yaml:"addr" envconfig:"ADDR"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		OllamaURL:               "http://localhost:11434",
		OllamaTimeout:           0,
		EmbeddingModel:          "nomic-embed-text",
		LLMModel:                "gpt-oss:20b",
		StorageDriver:           storage.DriverSQLite,
		SQLitePath:              ".specrag/index.db",
		MongoDBDatabase:         storage.DefaultMongoDatabase,
		CollectionName:          "api_spec_endpoints",
		DistanceMetric:          "cosine",
		TopK:                    5,
		RerankTopN:              3,
		SimilarityThreshold:     0.5,
		HighConfidenceThreshold: 0.7,
		Temperature:             0.1,
		MaxTokens:               2000,
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":8080",
	}
}

// Load layers defaults, an optional YAML/JSON file and SPECRAG_* environment
// variables, then validates the result.
func Load(path string) (Config, error) {
	return Resolve(path, nil)
}

// Resolve is Load with a final override layer, applied after the environment
// and before validation. The CLI passes its changed flags here.
func Resolve(path string, override func(*Config) error) (Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, apperr.Wrap(apperr.KindValidation, err, "failed to read config file %q", path)
		}
		if err := cfg.applyFile(data); err != nil {
			return cfg, apperr.Wrap(apperr.KindValidation, err, "failed to parse config file %q", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, apperr.Wrap(apperr.KindValidation, err, "failed to read environment")
	}
	if override != nil {
		if err := override(&cfg); err != nil {
			return cfg, err
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) normalize() {
	c.OllamaURL = strings.TrimRight(strings.TrimSpace(c.OllamaURL), "/")
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.DistanceMetric = strings.ToLower(strings.TrimSpace(c.DistanceMetric))
	c.CollectionName = strings.TrimSpace(c.CollectionName)
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.OllamaURL == "" {
		return apperr.New(apperr.KindValidation, "ollama_url is required")
	}
	if c.OllamaTimeout < 0 {
		return apperr.New(apperr.KindValidation, "ollama_timeout must not be negative, got %s", c.OllamaTimeout)
	}
	if c.EmbeddingModel == "" || c.LLMModel == "" {
		return apperr.New(apperr.KindValidation, "embedding_model and llm_model are required")
	}
	if c.CollectionName == "" {
		return apperr.New(apperr.KindValidation, "collection_name is required")
	}
	if c.TopK < 1 || c.TopK > 20 {
		return apperr.New(apperr.KindValidation, "top_k must be between 1 and 20, got %d", c.TopK)
	}
	if c.RerankTopN < 1 {
		return apperr.New(apperr.KindValidation, "rerank_top_n must be at least 1, got %d", c.RerankTopN)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return apperr.New(apperr.KindValidation, "similarity_threshold must be in [0,1], got %g", c.SimilarityThreshold)
	}
	if c.HighConfidenceThreshold < 0 || c.HighConfidenceThreshold > 1 {
		return apperr.New(apperr.KindValidation, "high_confidence_threshold must be in [0,1], got %g", c.HighConfidenceThreshold)
	}
	if c.MaxTokens < 1 {
		return apperr.New(apperr.KindValidation, "max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.DistanceMetric != "cosine" {
		return apperr.New(apperr.KindValidation, "unsupported distance_metric %q (only cosine)", c.DistanceMetric)
	}
	if !slices.Contains(storage.Drivers(), c.StorageDriver) {
		return apperr.New(apperr.KindValidation, "unknown storage_driver %q (allowed: %s)", c.StorageDriver, strings.Join(storage.Drivers(), ", "))
	}
	return nil
}

// String renders the settings shown by the info command.
func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ollama_url: %s\n", c.OllamaURL)
	fmt.Fprintf(&b, "embedding_model: %s\n", c.EmbeddingModel)
	fmt.Fprintf(&b, "llm_model: %s\n", c.LLMModel)
	fmt.Fprintf(&b, "storage_driver: %s\n", c.StorageDriver)
	fmt.Fprintf(&b, "collection_name: %s\n", c.CollectionName)
	fmt.Fprintf(&b, "distance_metric: %s\n", c.DistanceMetric)
	fmt.Fprintf(&b, "top_k: %d\n", c.TopK)
	fmt.Fprintf(&b, "rerank_top_n: %d\n", c.RerankTopN)
	fmt.Fprintf(&b, "similarity_threshold: %.2f\n", c.SimilarityThreshold)
	fmt.Fprintf(&b, "high_confidence_threshold: %.2f\n", c.HighConfidenceThreshold)
	fmt.Fprintf(&b, "temperature: %.2f\n", c.Temperature)
	fmt.Fprintf(&b, "max_tokens: %d\n", c.MaxTokens)
	return b.String()
}
