// internal/service/service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/chunker"
	"github.com/MereWhiplash/specrag/internal/config"
	"github.com/MereWhiplash/specrag/internal/embedder"
	"github.com/MereWhiplash/specrag/internal/generation"
	"github.com/MereWhiplash/specrag/internal/index"
	"github.com/MereWhiplash/specrag/internal/llm"
	"github.com/MereWhiplash/specrag/internal/ollama"
	"github.com/MereWhiplash/specrag/internal/rerank"
	"github.com/MereWhiplash/specrag/internal/retrieval"
	"github.com/MereWhiplash/specrag/internal/specparse"
	"github.com/MereWhiplash/specrag/internal/storage"
	"github.com/MereWhiplash/specrag/internal/types"
	"github.com/MereWhiplash/specrag/internal/validation"
)

// ModelLister reports the models installed on the model server
type ModelLister interface {
	ListModels(ctx context.Context) ([]ollama.Model, error)
}

// Pipeline is the operation set shared by the local Service and the HTTP client
type Pipeline interface {
	Ingest(ctx context.Context, path string, force bool) (*IngestReport, error)
	Query(ctx context.Context, opts QueryOptions) (*QueryResult, error)
	Info(ctx context.Context) (index.Info, error)
}

var _ Pipeline = (*Service)(nil)

// Service runs the ingest and query pipelines
type Service struct {
	cfg       config.Config
	store     storage.Storage
	embedder  embedder.Embedder
	models    ModelLister
	logger    *slog.Logger
	queries   *retrieval.QueryProcessor
	reranker  *rerank.Reranker
	generator *generation.Client
}

// New creates a new Service
func New(cfg config.Config, store storage.Storage, emb embedder.Embedder, chat llm.StreamChatter, models ModelLister, logger *slog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		embedder:  emb,
		models:    models,
		logger:    logger,
		queries:   retrieval.NewQueryProcessor(cfg.TopK),
		reranker:  rerank.New(chat, logger),
		generator: generation.NewClient(chat, cfg.Temperature, cfg.MaxTokens),
	}
}

func (s *Service) openIndex(ctx context.Context, reset bool) (*index.Index, error) {
	return index.Open(ctx, s.store, s.cfg.CollectionName, index.Meta{
		EmbeddingModel: s.cfg.EmbeddingModel,
		DistanceMetric: s.cfg.DistanceMetric,
	}, reset, s.logger)
}

// IngestReport summarizes one ingestion
type IngestReport struct {
	Title      string `json:"title"`
	Version    string `json:"version"`
	Paths      int    `json:"paths"`
	Operations int    `json:"operations"`
	Chunks     int    `json:"chunks"`
	Collection string `json:"collection"`
}

// Ingest parses the spec file at path and indexes one chunk per operation.
// With force the collection is emptied first.
func (s *Service) Ingest(ctx context.Context, path string, force bool) (*IngestReport, error) {
	spec, err := specparse.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, spec, force)
}

// IngestData is Ingest for an in-memory document.
func (s *Service) IngestData(ctx context.Context, data []byte, format specparse.Format, force bool) (*IngestReport, error) {
	spec, err := specparse.Parse(ctx, data, format)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, spec, force)
}

func (s *Service) ingest(ctx context.Context, spec *types.OpenAPISpec, force bool) (*IngestReport, error) {
	if err := specparse.Validate(spec); err != nil {
		return nil, err
	}
	s.logger.Info("ingest parsed", "spec", specparse.Describe(spec))

	chunks, err := chunker.Chunk(spec)
	if err != nil {
		return nil, err
	}

	vectors, err := embedder.EmbedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindEmbedding, err, "failed to embed chunks")
	}

	idx, err := s.openIndex(ctx, force)
	if err != nil {
		return nil, err
	}
	if err := idx.IndexChunks(ctx, chunks, vectors); err != nil {
		return nil, err
	}
	s.logger.Info("ingest indexed", "collection", idx.Name(), "chunks", len(chunks))

	return &IngestReport{
		Title:      spec.Info.Title,
		Version:    spec.Info.Version,
		Paths:      len(spec.Paths),
		Operations: spec.OperationCount(),
		Chunks:     len(chunks),
		Collection: idx.Name(),
	}, nil
}

// QueryOptions controls one query run
type QueryOptions struct {
	Text    string
	TopK    int
	Filters types.Filters
	// Validate runs the syntax, compliance and confidence checks.
	Validate bool
	// SpecPath, when set, restores full endpoint detail to retrieved chunks.
	SpecPath string
	// Strict turns an insufficient-information reply into an error.
	Strict bool
	// OnFragment, when set, streams the reply.
	OnFragment func(string) error
}

// QueryResult carries every stage's output for one query
type QueryResult struct {
	Request        types.QueryRequest       `json:"request"`
	Retrieved      []types.RetrievalResult  `json:"retrieved"`
	Reranked       []types.RetrievalResult  `json:"reranked"`
	Generation     types.GenerationResponse `json:"generation"`
	Syntax         *types.ValidationResult  `json:"syntax,omitempty"`
	Compliance     *types.ComplianceResult  `json:"compliance,omitempty"`
	Confidence     *types.ConfidenceScore   `json:"confidence,omitempty"`
	Explanation    string                   `json:"confidence_explanation,omitempty"`
	HighSimilarity bool                     `json:"high_similarity"`
}

// Best returns the top-ranked endpoint after reranking.
func (r *QueryResult) Best() types.RetrievalResult {
	return r.Reranked[0]
}

// Query answers a natural-language question with a curl command.
func (s *Service) Query(ctx context.Context, opts QueryOptions) (*QueryResult, error) {
	req, err := s.queries.ProcessQuery(opts.Text, opts.Filters, opts.TopK)
	if err != nil {
		return nil, err
	}

	idx, err := s.openIndex(ctx, false)
	if err != nil {
		return nil, err
	}

	retrieved, err := retrieval.NewRetriever(s.embedder, idx, s.cfg.SimilarityThreshold, s.logger).Retrieve(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(retrieved.Results) == 0 {
		return nil, apperr.New(apperr.KindRetrieval, "no relevant endpoints found for %q", req.Query)
	}
	s.logger.Info("query retrieved", "query", req.Query, "results", len(retrieved.Results), "top", retrieved.Results[0].Chunk.ID)

	results := retrieved.Results
	if opts.SpecPath != "" {
		if results, err = s.hydrate(ctx, opts.SpecPath, results); err != nil {
			return nil, err
		}
	}

	reranked := s.reranker.Rerank(ctx, req.Query, results, s.cfg.RerankTopN)
	result := &QueryResult{
		Request:   req,
		Retrieved: results,
		Reranked:  reranked,
	}
	best := result.Best()
	result.HighSimilarity = best.Similarity >= s.cfg.HighConfidenceThreshold

	chunks := make([]types.EndpointChunk, len(reranked))
	for i, r := range reranked {
		chunks[i] = r.Chunk
	}
	prompt := generation.Build(req.Query, chunks)

	var text string
	if opts.OnFragment != nil {
		text, err = s.generator.GenerateStream(ctx, prompt, opts.OnFragment)
	} else {
		text, err = s.generator.Generate(ctx, prompt)
	}
	if err != nil {
		return nil, err
	}

	gen, err := generation.Parse(text, best.Chunk.ID)
	if err != nil {
		return nil, err
	}
	result.Generation = gen
	s.logger.Info("query generated", "source", best.Chunk.ID, "refused", gen.Refused())

	if gen.Refused() {
		if opts.Strict {
			return nil, apperr.InsufficientInformation(gen.MissingInfo)
		}
		return result, nil
	}

	if opts.Validate {
		syntax := validation.ValidateCommand(gen.Curl.Command)
		compliance := validation.ValidateAgainstSpec(validation.Decompose(gen.Curl.Command), best.Chunk)
		score := validation.Score(best.Similarity, compliance.Completeness, syntax.Valid, compliance.Valid)

		result.Syntax = &syntax
		result.Compliance = &compliance
		result.Confidence = &score
		result.Explanation = validation.Explain(score)
	}

	return result, nil
}

// hydrate swaps reconstructed chunks for the full chunks parsed from the
// spec at path. Chunks missing from that spec are kept as retrieved.
func (s *Service) hydrate(ctx context.Context, path string, results []types.RetrievalResult) ([]types.RetrievalResult, error) {
	spec, err := specparse.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	chunks, err := chunker.Chunk(spec)
	if err != nil {
		return nil, err
	}
	byID := chunker.ByID(chunks)

	out := make([]types.RetrievalResult, len(results))
	for i, r := range results {
		if full, ok := byID[r.Chunk.ID]; ok {
			r.Chunk = full
		} else {
			s.logger.Warn("retrieved endpoint not found in spec", "id", r.Chunk.ID, "spec", path)
		}
		out[i] = r
	}
	return out, nil
}

// Info reports the collection's name, size and creation metadata.
func (s *Service) Info(ctx context.Context) (index.Info, error) {
	idx, err := s.openIndex(ctx, false)
	if err != nil {
		return index.Info{}, err
	}
	return idx.Info(ctx)
}

// ModelStatus reports whether a required model is installed
type ModelStatus struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
}

// CheckReport lists installed models against the configured ones
type CheckReport struct {
	Installed []ollama.Model `json:"installed"`
	Embedding ModelStatus    `json:"embedding"`
	LLM       ModelStatus    `json:"llm"`
}

// Ready reports whether both required models are installed.
func (r CheckReport) Ready() bool {
	return r.Embedding.Present && r.LLM.Present
}

// Check lists installed models and flags the embedding and generation
// models as present or missing.
func (s *Service) Check(ctx context.Context) (*CheckReport, error) {
	models, err := s.models.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return &CheckReport{
		Installed: models,
		Embedding: ModelStatus{Name: s.cfg.EmbeddingModel, Present: installed(models, s.cfg.EmbeddingModel)},
		LLM:       ModelStatus{Name: s.cfg.LLMModel, Present: installed(models, s.cfg.LLMModel)},
	}, nil
}

// installed matches name exactly, or as name:latest when name has no tag.
func installed(models []ollama.Model, name string) bool {
	for _, m := range models {
		if m.Name == name || m.Name == fmt.Sprintf("%s:latest", name) {
			return true
		}
	}
	return false
}

// Close cleans up resources
func (s *Service) Close() error {
	return s.store.Close()
}
