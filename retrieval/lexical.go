package retrieval

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

// BM25 parameters, standard Robertson/Walker values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// lexicalIndex is an in-memory BM25 index over one scope's chunks.
type lexicalIndex struct {
	docs      []*core.IndexedDocument
	docTokens []map[string]int
	docLens   []int
	df        map[string]int
	avgDocLen float64
}

// tokenize lowercases text and splits it on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// buildLexicalIndex constructs a BM25 index from a corpus scan.
func buildLexicalIndex(docs []*core.IndexedDocument) *lexicalIndex {
	idx := &lexicalIndex{
		docs: docs,
		df:   make(map[string]int),
	}

	var totalLen int
	for _, doc := range docs {
		tokens := tokenize(doc.Content)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for tok := range freqs {
			idx.df[tok]++
		}
		idx.docTokens = append(idx.docTokens, freqs)
		idx.docLens = append(idx.docLens, len(tokens))
		totalLen += len(tokens)
	}
	if len(docs) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(docs))
	}
	return idx
}

// search scores every document against the query and returns the top k
// matches ordered by score descending. Documents sharing no terms with
// the query are omitted.
func (idx *lexicalIndex) search(query string, k int) []core.IndexMatch {
	terms := tokenize(query)
	if len(terms) == 0 || len(idx.docs) == 0 {
		return nil
	}

	n := float64(len(idx.docs))
	var matches []core.IndexMatch
	for i, doc := range idx.docs {
		var score float64
		for _, term := range terms {
			tf := float64(idx.docTokens[i][term])
			if tf == 0 {
				continue
			}
			df := float64(idx.df[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := bm25K1 * (1 - bm25B + bm25B*float64(idx.docLens[i])/idx.avgDocLen)
			score += idf * tf * (bm25K1 + 1) / (tf + norm)
		}
		if score > 0 {
			matches = append(matches, core.IndexMatch{Doc: doc, Score: float32(score)})
		}
	}

	slices.SortStableFunc(matches, func(a, b core.IndexMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// cachedIndex pairs a built index with the corpus version it was built at.
type cachedIndex struct {
	version uint64
	index   *lexicalIndex
}

// LexicalSearcher serves BM25 searches over repository scopes, rebuilding
// the per-scope index only when the scope's version counter moves.
type LexicalSearcher struct {
	repo  storage.DocumentRepository
	mu    sync.Mutex
	cache map[string]*cachedIndex
}

// NewLexicalSearcher creates a lexical searcher over a document repository.
func NewLexicalSearcher(repo storage.DocumentRepository) *LexicalSearcher {
	return &LexicalSearcher{
		repo:  repo,
		cache: make(map[string]*cachedIndex),
	}
}

// Search runs a BM25 search within the filter scope.
func (s *LexicalSearcher) Search(ctx context.Context, query string, filter storage.Filter, k int) ([]core.IndexMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	idx, err := s.indexFor(ctx, filter)
	if err != nil {
		return nil, err
	}
	return idx.search(query, k), nil
}

// indexFor returns the cached index for a scope, rebuilding it if the
// scope's contents changed since the last build.
func (s *LexicalSearcher) indexFor(ctx context.Context, filter storage.Filter) (*lexicalIndex, error) {
	version, err := s.repo.Version(ctx, filter)
	if err != nil {
		return nil, err
	}

	cacheKey := filter.UserID + "/" + filter.ThreadID

	s.mu.Lock()
	cached, ok := s.cache[cacheKey]
	s.mu.Unlock()
	if ok && cached.version == version {
		return cached.index, nil
	}

	docs, err := s.repo.Scan(ctx, filter)
	if err != nil {
		return nil, err
	}
	idx := buildLexicalIndex(docs)

	s.mu.Lock()
	s.cache[cacheKey] = &cachedIndex{version: version, index: idx}
	s.mu.Unlock()

	return idx, nil
}
