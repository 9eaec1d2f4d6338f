// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package grounder

import (
	"log/slog"

	"github.com/poiesic/grounder/ai"
	"github.com/poiesic/grounder/ai/openai"
	"github.com/poiesic/grounder/diag"
	"github.com/poiesic/grounder/drift"
	"github.com/poiesic/grounder/ingestion"
	"github.com/poiesic/grounder/match"
	"github.com/poiesic/grounder/rank"
	"github.com/poiesic/grounder/storage"
	"github.com/poiesic/grounder/storage/badger"
)

// Engine wires the storage backend, the AI provider, and the retrieval
// components into one handle. It is the composition root used by the
// CLI and by embedding applications.
type Engine struct {
	backend    *badger.Backend
	chunkRepo  storage.ChunkRepository
	anchorRepo storage.AnchorRepository
	logRepo    storage.GroundingLogRepository
	driftRepo  storage.DriftRepository
	provider   ai.AIProvider
	embedder   *ai.CachedEmbedder
	matcher    *match.Matcher
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
}

// WithAIConfig sets the AI service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// provider construction. Useful for tests with mock services.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory, discarding all data
// on Close.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// Open opens (or creates) a grounding engine at the given path.
func Open(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	anchorRepo, err := badger.NewAnchorRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	logRepo, err := badger.NewGroundingLogRepository(backend)
	if err != nil {
		anchorRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	driftRepo, err := badger.NewDriftRepository(backend)
	if err != nil {
		logRepo.Close()
		anchorRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			driftRepo.Close()
			logRepo.Close()
			anchorRepo.Close()
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	embedder, err := ai.NewCachedEmbedder(provider.Embedder())
	if err != nil {
		provider.Close()
		driftRepo.Close()
		logRepo.Close()
		anchorRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:    backend,
		chunkRepo:  chunkRepo,
		anchorRepo: anchorRepo,
		logRepo:    logRepo,
		driftRepo:  driftRepo,
		provider:   provider,
		embedder:   embedder,
		matcher:    match.NewMatcher(),
		logger:     slog.Default(),
	}, nil
}

// Close releases the AI provider, the repositories, and the backend.
func (e *Engine) Close() error {
	e.embedder.Close()
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.driftRepo.Close(); err != nil {
		e.logger.Error("error closing drift repository", "err", err)
		return err
	}
	if err := e.logRepo.Close(); err != nil {
		e.logger.Error("error closing grounding log repository", "err", err)
		return err
	}
	if err := e.anchorRepo.Close(); err != nil {
		e.logger.Error("error closing anchor repository", "err", err)
		return err
	}
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// ChunkRepository returns the chunk store.
func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

// AnchorRepository returns the anchor registry.
func (e *Engine) AnchorRepository() storage.AnchorRepository {
	return e.anchorRepo
}

// GroundingLogRepository returns the append-only grounding log sink.
func (e *Engine) GroundingLogRepository() storage.GroundingLogRepository {
	return e.logRepo
}

// DriftRepository returns the drift observation cache.
func (e *Engine) DriftRepository() storage.DriftRepository {
	return e.driftRepo
}

// NewRanker builds a retrieval ranker backed by the engine's
// repositories and cached embedder.
func (e *Engine) NewRanker(opts ...rank.Option) (*rank.Ranker, error) {
	opts = append([]rank.Option{rank.WithMatcher(e.matcher)}, opts...)
	return rank.NewRanker(e.chunkRepo, e.anchorRepo, e.logRepo, e.embedder, opts...)
}

// NewIngestionPipeline builds a chunk ingestion pipeline.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithMatcher(e.matcher)}, opts...)
	return ingestion.NewPipeline(e.chunkRepo, e.anchorRepo, e.provider, opts...)
}

// NewDriftAnalyzer builds a drift analyzer over the engine's grounding log.
func (e *Engine) NewDriftAnalyzer(config *drift.Config, opts ...drift.Option) (*drift.Analyzer, error) {
	return drift.NewAnalyzer(e.anchorRepo, e.logRepo, e.driftRepo, e.provider.SuggestionGenerator(), config, opts...)
}

// NewDiagnosticsHarness builds a diagnostics replay harness. The ranker
// may be nil, in which case a default one is constructed.
func (e *Engine) NewDiagnosticsHarness(ranker *rank.Ranker, opts ...diag.Option) (*diag.Harness, error) {
	if ranker == nil {
		var err error
		ranker, err = e.NewRanker()
		if err != nil {
			return nil, err
		}
	}
	return diag.NewHarness(e.anchorRepo, ranker, opts...)
}
