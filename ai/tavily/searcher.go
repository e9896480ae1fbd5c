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


package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/answerit/ai"
)

const defaultBaseURL = "https://api.tavily.com"

// ErrAPIKeyRequired is returned when no API key is provided.
var ErrAPIKeyRequired = errors.New("tavily API key required")

// Searcher implements ai.WebSearcher against the Tavily search API.
type Searcher struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(url string) Option {
	return func(s *Searcher) {
		s.baseURL = url
	}
}

// WithMaxResults sets how many hits a single search requests.
// Default is 3.
func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Searcher) {
		if client != nil {
			s.client = client
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSearcher creates a Tavily-backed web searcher.
//
// Returns ai.WebSearcher interface to enforce abstraction.
func NewSearcher(apiKey string, opts ...Option) (ai.WebSearcher, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	s := &Searcher{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxResults: 3,
		client:     &http.Client{Timeout: 20 * time.Second},
		logger:     slog.Default().With("component", "tavily-searcher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search queries Tavily and returns its ranked hits in order.
func (s *Searcher) Search(ctx context.Context, query string) ([]ai.SearchHit, error) {
	body, err := json.Marshal(searchRequest{
		Query:       query,
		MaxResults:  s.maxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("search request failed", "query", query, "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Error("search returned non-OK status", "status", resp.StatusCode, "body", string(data))
		return nil, fmt.Errorf("tavily search: unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]ai.SearchHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hits = append(hits, ai.SearchHit{URL: r.URL, Content: r.Content})
	}
	s.logger.Debug("search completed", "query", query, "hits", len(hits))
	return hits, nil
}
