package orchestrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/retrieval"
	"github.com/poiesic/answerit/storage"
)

// TurnRequest is one user turn against a thread.
type TurnRequest struct {
	UserID        string
	ThreadID      string
	Query         string
	UseAttachment bool
	UseSearch     bool
}

// StreamFunc receives incremental answer text during a streaming turn.
type StreamFunc func(chunk string) error

// Engine drives turns through the stage machine. It is single-writer
// per thread: the caller must not run concurrent turns against the same
// thread key.
type Engine struct {
	threads      storage.ThreadRepository
	classifier   *IntentClassifier
	decomposer   *Decomposer
	retriever    *retrieval.Retriever
	reranker     *retrieval.Reranker
	webSearch    *WebSearchAdapter
	consolidator *Consolidator
	generator    *Generator
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConsolidator enables the optional evidence consolidation stage.
func WithConsolidator(c *Consolidator) EngineOption {
	return func(e *Engine) {
		e.consolidator = c
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a turn engine. All listed collaborators are required;
// the consolidator is opt-in via WithConsolidator.
func NewEngine(
	threads storage.ThreadRepository,
	classifier *IntentClassifier,
	decomposer *Decomposer,
	retriever *retrieval.Retriever,
	reranker *retrieval.Reranker,
	webSearch *WebSearchAdapter,
	generator *Generator,
	opts ...EngineOption,
) (*Engine, error) {
	if threads == nil || classifier == nil || decomposer == nil ||
		retriever == nil || reranker == nil || webSearch == nil || generator == nil {
		return nil, ErrMissingDependency
	}

	e := &Engine{
		threads:    threads,
		classifier: classifier,
		decomposer: decomposer,
		retriever:  retriever,
		reranker:   reranker,
		webSearch:  webSearch,
		generator:  generator,
		logger:     slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunTurn executes one turn and returns the assistant's answer.
// Persistence failures are returned as errors wrapping ErrPersistence;
// every other failure degrades to an apology answer.
func (e *Engine) RunTurn(ctx context.Context, req TurnRequest) (string, error) {
	return e.run(ctx, req, nil)
}

// RunTurnStream is the streaming variant of RunTurn. fn receives
// incremental answer text; the full answer is returned when the turn
// finishes.
func (e *Engine) RunTurnStream(ctx context.Context, req TurnRequest, fn StreamFunc) (string, error) {
	return e.run(ctx, req, fn)
}

func (e *Engine) run(ctx context.Context, req TurnRequest, stream StreamFunc) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		if stream != nil {
			if err := stream(noQueryMessage); err != nil {
				return "", err
			}
		}
		return noQueryMessage, nil
	}

	key := core.ThreadKey{UserID: req.UserID, ThreadID: req.ThreadID}
	if err := core.ValidateThreadKey(key); err != nil {
		return "", err
	}

	persisted, err := e.threads.LoadState(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	state := core.ConversationState{
		Key:                 key,
		RecentMessages:      persisted.Messages,
		UserQuery:           req.Query,
		ConversationSummary: persisted.Summary,
		DoRetrieval:         req.UseAttachment,
		DoSearch:            req.UseSearch,
	}

	userMsg := core.NewMessage(core.RoleHuman, req.Query)
	state, err = e.apply(ctx, state, core.Delta{AppendMessages: []core.Message{userMsg}})
	if err != nil {
		return "", err
	}

	var answer string
	for stage := StageClassify; stage != StageDone; stage = nextStage(stage, state) {
		var delta core.Delta
		delta, answer = e.runStage(ctx, stage, state, stream, answer)
		state, err = e.apply(ctx, state, delta)
		if err != nil {
			return "", err
		}
	}

	state, err = e.apply(ctx, state, core.Delta{
		AppendMessages: []core.Message{core.NewMessage(core.RoleAI, answer)},
	})
	if err != nil {
		return "", err
	}

	e.logger.Debug("turn complete",
		"thread", key.String(),
		"tasks", len(state.Tasks),
		"docs", len(state.RetrievedDocs),
		"web_results", len(state.WebSearchResults))
	return answer, nil
}

// runStage executes one stage and returns its delta. The generate stage
// additionally returns the answer text; other stages pass the prior
// answer through.
func (e *Engine) runStage(ctx context.Context, stage Stage, state core.ConversationState, stream StreamFunc, answer string) (core.Delta, string) {
	switch stage {
	case StageClassify:
		doRetrieval, doSearch := e.classifier.Classify(ctx, state.UserQuery, state.DoRetrieval, state.DoSearch)
		return core.Delta{
			DoRetrieval: core.BoolPtr(doRetrieval),
			DoSearch:    core.BoolPtr(doSearch),
		}, answer

	case StageDecompose:
		// The current user message sits at the end of the tail; history
		// for pronoun resolution is everything before it.
		history := state.RecentMessages
		if n := len(history); n > 0 {
			history = history[:n-1]
		}
		return core.Delta{
			Tasks: e.decomposer.Decompose(ctx, history, state.UserQuery),
		}, answer

	case StageGather:
		return e.gather(ctx, state), answer

	case StageRefine:
		docs := e.reranker.Rerank(ctx, state.UserQuery, state.FusedDocs, len(state.Tasks))
		if e.consolidator != nil {
			docs = e.consolidator.Consolidate(ctx, docs)
		}
		if docs == nil {
			docs = []core.Document{}
		}
		return core.Delta{RetrievedDocs: docs}, answer

	case StageAggregate:
		return core.Delta{FinalContext: core.StringPtr(BuildContext(state))}, answer

	case StageGenerate:
		return core.Delta{}, e.generate(ctx, state, stream)

	default:
		return core.Delta{}, answer
	}
}

// gather runs the retrieval and web search branches concurrently and
// joins them. A branch failure degrades to an empty contribution.
func (e *Engine) gather(ctx context.Context, state core.ConversationState) core.Delta {
	var (
		wg    sync.WaitGroup
		fused []core.Document
		web   []core.WebResult
	)

	if state.DoRetrieval {
		wg.Add(1)
		go func() {
			defer wg.Done()
			docs, err := e.retriever.Retrieve(ctx, state.Tasks, state.Key)
			if err != nil {
				e.logger.Warn("retrieval branch failed",
					"thread", state.Key.String(),
					"error", err)
				return
			}
			fused = docs
		}()
	}

	if state.DoSearch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			web = e.webSearch.Search(ctx, state.Tasks)
		}()
	}

	wg.Wait()

	delta := core.Delta{}
	if state.DoRetrieval {
		if fused == nil {
			fused = []core.Document{}
		}
		delta.FusedDocs = fused
	}
	if state.DoSearch {
		if web == nil {
			web = []core.WebResult{}
		}
		delta.WebSearchResults = web
	}
	return delta
}

// generate produces the answer, degrading to the apology message on any
// model failure.
func (e *Engine) generate(ctx context.Context, state core.ConversationState, stream StreamFunc) string {
	var (
		text string
		err  error
	)
	if stream != nil {
		text, err = e.generator.GenerateStream(ctx, state, stream)
	} else {
		text, err = e.generator.Generate(ctx, state)
	}
	if err != nil {
		e.logger.Error("answer generation failed",
			"thread", state.Key.String(),
			"error", err)
		return apologyMessage
	}
	return text
}

// apply merges a delta into the state and persists its durable fields.
// Message appends and summary changes go straight to the thread
// repository; a write failure is fatal to the turn.
func (e *Engine) apply(ctx context.Context, state core.ConversationState, delta core.Delta) (core.ConversationState, error) {
	if len(delta.AppendMessages) > 0 {
		if err := e.threads.AppendMessages(ctx, state.Key, delta.AppendMessages...); err != nil {
			return state, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	if delta.ConversationSummary != nil {
		if err := e.threads.ApplySummary(ctx, state.Key, *delta.ConversationSummary, delta.RemoveMessageIds); err != nil {
			return state, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	return state.Apply(delta), nil
}
