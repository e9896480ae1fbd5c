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


package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/answerit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrNoChoices indicates the model returned no completion choices.
var ErrNoChoices = errors.New("model returned no choices")

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client llms.Model
	model  string
	logger *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage instances for both main and utility models.
func newChatModel(config *ai.Config, model string) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "openai-chat", "model", model),
	}, nil
}

// NewChatModel creates a chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config, model string) (ai.ChatModel, error) {
	return newChatModel(config, model)
}

func toContent(messages []ai.PromptMessage) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case ai.PromptRoleSystem:
			role = llms.ChatMessageTypeSystem
		case ai.PromptRoleAI:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}
	return content
}

// Complete generates text for the given messages.
func (m *ChatModel) Complete(ctx context.Context, messages []ai.PromptMessage) (string, error) {
	response, err := m.client.GenerateContent(ctx, toContent(messages), llms.WithTemperature(0.3))
	if err != nil {
		m.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ErrNoChoices
	}
	return response.Choices[0].Content, nil
}

// CompleteJSON generates structured output and unmarshals it into out.
// Malformed JSON is repaired and retried up to 3 times before failing.
func (m *ChatModel) CompleteJSON(ctx context.Context, messages []ai.PromptMessage, out any) error {
	content := toContent(messages)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := m.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			m.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return err
		}

		if len(response.Choices) < 1 {
			return ErrNoChoices
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			m.logger.Warn("error parsing structured response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		return nil
	}

	m.logger.Error("failed to parse structured response after retries", "err", lastErr)
	return lastErr
}

// Stream generates text incrementally, invoking fn for each chunk.
func (m *ChatModel) Stream(ctx context.Context, messages []ai.PromptMessage, fn func(chunk string) error) (string, error) {
	var sb strings.Builder
	response, err := m.client.GenerateContent(ctx, toContent(messages),
		llms.WithTemperature(0.3),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			sb.Write(chunk)
			return fn(string(chunk))
		}),
	)
	if err != nil {
		m.logger.Error("failed to stream content", "err", err)
		return "", err
	}

	// Some backends populate the final choice, others only the stream.
	if len(response.Choices) > 0 && response.Choices[0].Content != "" {
		return response.Choices[0].Content, nil
	}
	return sb.String(), nil
}
