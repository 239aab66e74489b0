package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/client"
	"github.com/MereWhiplash/specrag/internal/config"
	"github.com/MereWhiplash/specrag/internal/embedder"
	"github.com/MereWhiplash/specrag/internal/llm"
	"github.com/MereWhiplash/specrag/internal/logging"
	"github.com/MereWhiplash/specrag/internal/ollama"
	"github.com/MereWhiplash/specrag/internal/service"
	"github.com/MereWhiplash/specrag/internal/storage"
)

// openService builds the local pipeline. Tests replace it.
var openService = func(ctx context.Context, cfg config.Config, logger *slog.Logger) (*service.Service, error) {
	store, err := storage.New(ctx, storage.Config{
		Driver:          cfg.StorageDriver,
		SQLitePath:      cfg.SQLitePath,
		PostgresDSN:     cfg.PostgresDSN,
		MongoDBURI:      cfg.MongoDBURI,
		MongoDBDatabase: cfg.MongoDBDatabase,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVectorStore, err, "failed to open %s storage", cfg.StorageDriver)
	}

	oc := ollama.New(cfg.OllamaURL, cfg.OllamaTimeout)
	emb := embedder.NewOllama(oc, cfg.EmbeddingModel)
	chat := llm.NewOllama(oc, cfg.LLMModel)

	return service.New(cfg, store, emb, chat, oc, logger), nil
}

// runtime is the resolved configuration and logger of one invocation.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(configPath, func(c *config.Config) error {
		return applyFlagOverrides(cmd.Flags(), c)
	})
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, newUsageError(err.Error())
	}
	return &runtime{cfg: cfg, logger: logger}, nil
}

// stringOverrides maps persistent flags onto config fields.
func stringOverrides(c *config.Config) map[string]*string {
	return map[string]*string{
		"ollama-url":      &c.OllamaURL,
		"embedding-model": &c.EmbeddingModel,
		"llm-model":       &c.LLMModel,
		"storage-driver":  &c.StorageDriver,
		"sqlite-path":     &c.SQLitePath,
		"postgres-dsn":    &c.PostgresDSN,
		"mongodb-uri":     &c.MongoDBURI,
		"collection":      &c.CollectionName,
		"log-level":       &c.LogLevel,
		"log-format":      &c.LogFormat,
		"addr":            &c.Addr,
	}
}

func applyFlagOverrides(flags *pflag.FlagSet, c *config.Config) error {
	for name, field := range stringOverrides(c) {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*field = strings.TrimSpace(value)
	}
	return nil
}

// pipeline returns the remote client when --remote is set, else the local
// service. done releases whichever was opened.
func (r *runtime) pipeline(ctx context.Context, cmd *cobra.Command) (p service.Pipeline, done func() error, err error) {
	remote, _ := cmd.Flags().GetString("remote")
	if remote = strings.TrimSpace(remote); remote != "" {
		return client.New(remote, r.cfg.OllamaTimeout), func() error { return nil }, nil
	}

	svc, err := openService(ctx, r.cfg, r.logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, svc.Close, nil
}
