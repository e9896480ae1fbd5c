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


package answerit

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/openai"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/ingest"
	"github.com/poiesic/answerit/orchestrate"
	"github.com/poiesic/answerit/retrieval"
	"github.com/poiesic/answerit/storage"
	"github.com/poiesic/answerit/storage/badger"
	"github.com/poiesic/answerit/summarize"
)

// Service wires storage, AI services and the turn engine into a single
// conversational endpoint. Turns against the same thread are serialized
// internally, so callers may invoke Chat concurrently.
type Service struct {
	backend    *badger.Backend
	threadRepo storage.ThreadRepository
	docRepo    storage.DocumentRepository
	provider   ai.AIProvider
	retriever  *retrieval.Retriever
	engine     *orchestrate.Engine
	summarizer *summarize.Summarizer
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig       *ai.Config
	threadRepo     storage.ThreadRepository
	webSearcher    ai.WebSearcher
	consolidate    bool
	summarizerOpts []summarize.Option
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithThreadRepository substitutes an external thread repository, e.g.
// a Redis-backed one, for the default badger repository. Documents stay
// in badger regardless.
func WithThreadRepository(repo storage.ThreadRepository) ServiceOption {
	return func(o *serviceOptions) {
		o.threadRepo = repo
	}
}

// WithWebSearcher sets the web search backend. Without one, search
// requests resolve to placeholder results.
func WithWebSearcher(searcher ai.WebSearcher) ServiceOption {
	return func(o *serviceOptions) {
		o.webSearcher = searcher
	}
}

// WithConsolidation enables the evidence consolidation stage.
func WithConsolidation() ServiceOption {
	return func(o *serviceOptions) {
		o.consolidate = true
	}
}

// WithSummarizerOptions forwards options to the background summarizer.
func WithSummarizerOptions(opts ...summarize.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.summarizerOpts = append(o.summarizerOpts, opts...)
	}
}

// disabledSearcher stands in when no web search backend is configured.
type disabledSearcher struct{}

func (disabledSearcher) Search(ctx context.Context, query string) ([]ai.SearchHit, error) {
	return nil, errors.New("web search is not configured")
}

func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	// Apply options
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create thread repository unless one was injected
	threadRepo := options.threadRepo
	if threadRepo == nil {
		threadRepo, err = badger.NewThreadRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	// Create document repository
	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		threadRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		docRepo.Close()
		threadRepo.Close()
		backend.Close()
		return nil, err
	}

	svc, err := assemble(backend, threadRepo, docRepo, provider, options)
	if err != nil {
		provider.Close()
		docRepo.Close()
		threadRepo.Close()
		backend.Close()
		return nil, err
	}
	return svc, nil
}

// assemble builds the retrieval and orchestration layers on top of the
// already-open storage and provider.
func assemble(
	backend *badger.Backend,
	threadRepo storage.ThreadRepository,
	docRepo storage.DocumentRepository,
	provider ai.AIProvider,
	options *serviceOptions,
) (*Service, error) {
	retriever, err := retrieval.NewRetriever(provider.Embedder(), docRepo)
	if err != nil {
		return nil, err
	}

	searcher := options.webSearcher
	if searcher == nil {
		searcher = disabledSearcher{}
	}

	engineOpts := []orchestrate.EngineOption{}
	if options.consolidate {
		engineOpts = append(engineOpts,
			orchestrate.WithConsolidator(orchestrate.NewConsolidator(provider.UtilityModel())))
	}

	engine, err := orchestrate.NewEngine(
		threadRepo,
		orchestrate.NewIntentClassifier(provider.Scorer()),
		orchestrate.NewDecomposer(provider.UtilityModel()),
		retriever,
		retrieval.NewReranker(provider.Scorer()),
		orchestrate.NewWebSearchAdapter(searcher),
		orchestrate.NewGenerator(provider.ChatModel()),
		engineOpts...,
	)
	if err != nil {
		retriever.Release()
		return nil, err
	}

	summarizer, err := summarize.NewSummarizer(threadRepo, provider.UtilityModel(), options.summarizerOpts...)
	if err != nil {
		retriever.Release()
		return nil, err
	}

	return &Service{
		backend:    backend,
		threadRepo: threadRepo,
		docRepo:    docRepo,
		provider:   provider,
		retriever:  retriever,
		engine:     engine,
		summarizer: summarizer,
		logger:     slog.Default(),
	}, nil
}

// lockFor returns the mutex serializing turns for one thread key.
func (s *Service) lockFor(key core.ThreadKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.locks[key.String()]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key.String()] = lock
	}
	return lock
}

// Chat runs one turn and returns the assistant's answer. After the
// answer is persisted, a summarization check for the thread is scheduled
// in the background.
func (s *Service) Chat(ctx context.Context, req orchestrate.TurnRequest) (string, error) {
	return s.chat(ctx, req, nil)
}

// ChatStream is the streaming variant of Chat. fn receives incremental
// answer text as it is generated.
func (s *Service) ChatStream(ctx context.Context, req orchestrate.TurnRequest, fn orchestrate.StreamFunc) (string, error) {
	return s.chat(ctx, req, fn)
}

func (s *Service) chat(ctx context.Context, req orchestrate.TurnRequest, fn orchestrate.StreamFunc) (string, error) {
	key := core.ThreadKey{UserID: req.UserID, ThreadID: req.ThreadID}
	if err := core.ValidateThreadKey(key); err != nil {
		return "", err
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	var answer string
	var err error
	if fn != nil {
		answer, err = s.engine.RunTurnStream(ctx, req, fn)
	} else {
		answer, err = s.engine.RunTurn(ctx, req)
	}
	if err != nil {
		return "", err
	}

	s.summarizer.Schedule(key)
	return answer, nil
}

// DeleteThread removes the thread's messages, summary and indexed
// documents.
func (s *Service) DeleteThread(ctx context.Context, key core.ThreadKey) error {
	if err := core.ValidateThreadKey(key); err != nil {
		return err
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if err := s.threadRepo.DeleteThread(ctx, key); err != nil {
		return err
	}
	return s.docRepo.DeleteByFilter(ctx, storage.Filter{UserID: key.UserID, ThreadID: key.ThreadID})
}

// DeleteUser removes every thread and indexed document belonging to the
// user across all threads.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}
	if err := s.threadRepo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	return s.docRepo.DeleteByFilter(ctx, storage.Filter{UserID: userID})
}

func (s *Service) ThreadRepository() storage.ThreadRepository {
	return s.threadRepo
}

func (s *Service) DocumentRepository() storage.DocumentRepository {
	return s.docRepo
}

func (s *Service) NewIngestionPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(s.docRepo, s.provider.Embedder(), opts...)
}

// Summarize runs the thread's summarization check synchronously. Useful
// for tests and batch maintenance; normal operation relies on the
// background schedule after each turn.
func (s *Service) Summarize(ctx context.Context, key core.ThreadKey) (bool, error) {
	return s.summarizer.Run(ctx, key)
}

func (s *Service) Close() error {
	s.summarizer.Release()
	s.retriever.Release()

	// Close AI provider first
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := s.docRepo.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := s.threadRepo.Close(); err != nil {
		s.logger.Error("error closing thread repository", "err", err)
		return err
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
