package mock

import (
	"context"
	"encoding/json"

	"github.com/poiesic/answerit/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, messages []ai.PromptMessage) (string, error)

	// CompleteJSONFunc is called by CompleteJSON if set.
	CompleteJSONFunc func(ctx context.Context, messages []ai.PromptMessage, out any) error

	// StreamFunc is called by Stream if set.
	StreamFunc func(ctx context.Context, messages []ai.PromptMessage, fn func(chunk string) error) (string, error)

	// Calls records the messages of every invocation, in order.
	Calls [][]ai.PromptMessage
}

// NewMockChatModel creates a mock chat model with default canned behavior.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete returns a canned response unless CompleteFunc is set.
func (m *MockChatModel) Complete(ctx context.Context, messages []ai.PromptMessage) (string, error) {
	m.Calls = append(m.Calls, messages)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "mock response", nil
}

// CompleteJSON unmarshals an empty object unless CompleteJSONFunc is set.
// Callers relying on structured output see their fallback paths exercised.
func (m *MockChatModel) CompleteJSON(ctx context.Context, messages []ai.PromptMessage, out any) error {
	m.Calls = append(m.Calls, messages)

	if m.CompleteJSONFunc != nil {
		return m.CompleteJSONFunc(ctx, messages, out)
	}
	return json.Unmarshal([]byte("{}"), out)
}

// Stream emits the Complete result as a single chunk unless StreamFunc is set.
func (m *MockChatModel) Stream(ctx context.Context, messages []ai.PromptMessage, fn func(chunk string) error) (string, error) {
	if m.StreamFunc != nil {
		m.Calls = append(m.Calls, messages)
		return m.StreamFunc(ctx, messages, fn)
	}

	text, err := m.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	if err := fn(text); err != nil {
		return "", err
	}
	return text, nil
}

// LastCall returns the messages of the most recent invocation, or nil.
func (m *MockChatModel) LastCall() []ai.PromptMessage {
	if len(m.Calls) == 0 {
		return nil
	}
	return m.Calls[len(m.Calls)-1]
}
