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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatClient implements ai.Extractor, ai.Completer and ai.ImageDescriber
// using OpenAI-compatible chat completion APIs.
type ChatClient struct {
	client      llms.Model
	vision      llms.Model
	timeout     time.Duration
	maxAttempts int
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// extraction mirrors core.Extraction with pointer fields so that keys the
// model omitted can be told apart from empty values.
type extraction struct {
	Timestamp   *string        `json:"timestamp"`
	RawInput    *string        `json:"raw_input"`
	QA          *[]core.QAPair `json:"qa"`
	TopicLabels *[]string      `json:"topic_labels"`
}

// newChatClient is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatClient(config *ai.Config) (*ChatClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.Token()),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	vision, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.Token()),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}

	return &ChatClient{
		client:      client,
		vision:      vision,
		timeout:     config.RequestTimeout,
		maxAttempts: config.MaxAttempts,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewExtractor creates a structured extractor using the provided configuration.
//
// Returns ai.Extractor interface to enforce abstraction.
func NewExtractor(config *ai.Config) (ai.Extractor, error) {
	return newChatClient(config)
}

// NewCompleter creates a text completer using the provided configuration.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newChatClient(config)
}

// Extract turns a chunk of text into a normalized extraction record.
// Malformed responses are re-requested up to the configured attempt count.
func (c *ChatClient) Extract(ctx context.Context, text string) (*core.Extraction, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildExtractionSystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, buildExtractionUserPrompt(text)),
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		responseText, err := c.generate(ctx, c.client, content, llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		result, err := parseExtraction(responseText)
		if err != nil {
			lastErr = err
			c.logger.Warn("error parsing extraction response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		if result.RawInput == "" {
			result.RawInput = text
		}
		c.logger.Debug("extracted chunk",
			"qa", len(result.QA),
			"labels", len(result.TopicLabels))
		return result, nil
	}

	c.logger.Error("failed to parse extraction response after retries", "err", lastErr)
	return nil, lastErr
}

// Complete answers a user prompt under a system prompt.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	answer, err := c.generate(ctx, c.client, content)
	if err != nil {
		c.logger.Error("failed to generate completion", "err", err)
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// DescribeImage asks the vision model for a textual description of an image.
func (c *ChatClient) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(imageDescriptionPrompt),
				llms.ImageURLPart(dataURL),
			},
		},
	}
	description, err := c.generate(ctx, c.vision, content)
	if err != nil {
		c.logger.Error("failed to describe image", "mime", mimeType, "size", len(data), "err", err)
		return "", err
	}
	return strings.TrimSpace(description), nil
}

func (c *ChatClient) generate(ctx context.Context, model llms.Model, content []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts = append(opts, llms.WithTemperature(c.temperature), llms.WithMaxTokens(c.maxTokens))
	response, err := model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 || strings.TrimSpace(response.Choices[0].Content) == "" {
		return "", ai.ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}

// parseExtraction cleans and decodes a model response. Every key of the
// extraction record except timestamp must be present.
func parseExtraction(responseText string) (*core.Extraction, error) {
	responseText = repairJSON(cleanResponse(responseText))

	var raw extraction
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	if raw.RawInput == nil {
		return nil, fmt.Errorf("%w: missing raw_input", ai.ErrMalformedResponse)
	}
	if raw.QA == nil {
		return nil, fmt.Errorf("%w: missing qa", ai.ErrMalformedResponse)
	}
	if raw.TopicLabels == nil {
		return nil, fmt.Errorf("%w: missing topic_labels", ai.ErrMalformedResponse)
	}

	result := &core.Extraction{
		Timestamp:   raw.Timestamp,
		RawInput:    *raw.RawInput,
		QA:          *raw.QA,
		TopicLabels: make([]string, 0, len(*raw.TopicLabels)),
	}
	for _, label := range *raw.TopicLabels {
		if label = strings.TrimSpace(label); label != "" {
			result.TopicLabels = append(result.TopicLabels, label)
		}
	}
	return result, nil
}
