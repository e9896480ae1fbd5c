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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Host is the base URL for the OpenAI-compatible API.
	// Example: "http://localhost:11434/v1" for a local server.
	Host string

	// Token is the API token. Local OpenAI-compatible services that do
	// not require authentication accept any non-empty value.
	Token string

	// EmbeddingModel is the model identifier for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// ChatModel is the model identifier for answer generation.
	ChatModel string

	// UtilityModel is the model identifier for cheap structured calls
	// (decomposition, consolidation, summarization). Defaults to ChatModel
	// when empty.
	UtilityModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the API host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the answer-generation model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithUtilityModel sets the utility model identifier.
func WithUtilityModel(model string) ConfigOption {
	return func(c *Config) {
		c.UtilityModel = model
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		Host:           "http://localhost:11434/v1",
		Token:          "none",
		EmbeddingModel: "embeddinggemma",
		ChatModel:      "qwen2.5:7b",
		UtilityModel:   "qwen2.5:3b",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434/v1"),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required by
// most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc), and falls
// back to ChatModel when no utility model is configured.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.UtilityModel == "" {
		c.UtilityModel = c.ChatModel
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Config validation errors.
var (
	ErrHostRequired           = errors.New("host required")
	ErrEmbeddingModelRequired = errors.New("embedding model required")
	ErrChatModelRequired      = errors.New("chat model required")
)

// Validate checks that required fields are present and normalizes the
// config as a side effect.
func (c *Config) Validate() error {
	c.Normalize()
	if c.Host == "" {
		return ErrHostRequired
	}
	if c.EmbeddingModel == "" {
		return ErrEmbeddingModelRequired
	}
	if c.ChatModel == "" {
		return ErrChatModelRequired
	}
	return nil
}
