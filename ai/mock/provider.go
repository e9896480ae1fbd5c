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


package mock

import "github.com/poiesic/answerit/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock service instances.
type MockProvider struct {
	embedder     *MockEmbedder
	scorer       *MockScorer
	chatModel    *MockChatModel
	utilityModel *MockChatModel
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use the GetMockXxx accessors to reach concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:     NewMockEmbedder(),
		scorer:       NewMockScorer(),
		chatModel:    NewMockChatModel(),
		utilityModel: NewMockChatModel(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Scorer returns the mock scorer.
func (p *MockProvider) Scorer() ai.RelevanceScorer {
	return p.scorer
}

// ChatModel returns the mock answer-generation model.
func (p *MockProvider) ChatModel() ai.ChatModel {
	return p.chatModel
}

// UtilityModel returns the mock utility model.
func (p *MockProvider) UtilityModel() ai.ChatModel {
	return p.utilityModel
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockScorer returns the underlying mock scorer for test assertions.
func (p *MockProvider) GetMockScorer() *MockScorer {
	return p.scorer
}

// GetMockChatModel returns the underlying mock chat model for test assertions.
func (p *MockProvider) GetMockChatModel() *MockChatModel {
	return p.chatModel
}

// GetMockUtilityModel returns the underlying mock utility model for test assertions.
func (p *MockProvider) GetMockUtilityModel() *MockChatModel {
	return p.utilityModel
}
