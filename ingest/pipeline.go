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


// Package ingest turns user documents into indexed chunks. Text is
// split recursively, deduplicated by content hash against the existing
// index, embedded concurrently, and upserted into the thread's scope of
// the document repository.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize    = 2000
	defaultChunkOverlap = 200
)

// ErrEmptyDocument indicates the input contained no indexable text.
var ErrEmptyDocument = errors.New("document contains no text")

// Pipeline ingests documents into the index.
type Pipeline struct {
	docs         storage.DocumentRepository
	embedder     ai.Embedder
	pool         *ants.Pool
	splitter     textsplitter.TextSplitter
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChunkSize overrides the splitter chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) {
		p.chunkSize = size
	}
}

// WithChunkOverlap overrides the splitter chunk overlap in characters.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) {
		p.chunkOverlap = overlap
	}
}

// NewPipeline creates an ingestion pipeline. Caller must call Release
// when done.
func NewPipeline(docs storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		docs:         docs,
		embedder:     embedder,
		pool:         pool,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		logger:       slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
	return p, nil
}

// Release releases the worker pool. The pipeline should not be used
// after calling Release.
func (p *Pipeline) Release() {
	p.pool.Release()
}

// IngestFile reads a file and indexes its contents into the thread's
// scope. The file's base name becomes the source locator.
func (p *Pipeline) IngestFile(ctx context.Context, key core.ThreadKey, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return p.IngestText(ctx, key, filepath.Base(path), string(data))
}

// IngestText splits, embeds and indexes a document. Chunks whose content
// hash is already indexed in the thread's scope are skipped, so
// re-ingesting the same document is idempotent. Returns the number of
// newly indexed chunks.
func (p *Pipeline) IngestText(ctx context.Context, key core.ThreadKey, locator, text string) (int, error) {
	if err := core.ValidateThreadKey(key); err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyDocument
	}

	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return 0, err
	}

	filter := storage.Filter{UserID: key.UserID, ThreadID: key.ThreadID}
	var fresh []string
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		exists, err := p.docs.Exists(ctx, filter, core.IDFromContent(chunk))
		if err != nil {
			return 0, err
		}
		if !exists {
			fresh = append(fresh, chunk)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	docs := make([]*core.IndexedDocument, len(fresh))
	errs := make([]error, len(fresh))

	var wg sync.WaitGroup
	for i, chunk := range fresh {
		wg.Add(1)
		embed := func() {
			defer wg.Done()
			vector, err := p.embedder.EmbedText(ctx, chunk)
			if err != nil {
				errs[i] = err
				return
			}
			docs[i] = &core.IndexedDocument{
				UserID:        key.UserID,
				ThreadID:      key.ThreadID,
				SourceLocator: locator,
				Content:       chunk,
				Vector:        vector,
			}
		}
		if err := p.pool.Submit(embed); err != nil {
			embed()
		}
	}
	wg.Wait()

	var indexable []*core.IndexedDocument
	for i, doc := range docs {
		if errs[i] != nil {
			p.logger.Warn("chunk embedding failed, skipping chunk",
				"locator", locator,
				"error", errs[i])
			continue
		}
		indexable = append(indexable, doc)
	}
	if len(indexable) == 0 {
		return 0, errors.Join(errs...)
	}

	if err := p.docs.Upsert(ctx, indexable...); err != nil {
		return 0, err
	}

	p.logger.Info("document ingested",
		"thread", key.String(),
		"locator", locator,
		"chunks", len(indexable),
		"skipped", len(chunks)-len(indexable))
	return len(indexable), nil
}
