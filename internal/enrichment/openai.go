// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/tomtom215/moodlog/internal/models"
)

const sentimentPrompt = `You classify the overall mood of a personal journal entry.

Answer with exactly one word: POSITIVE, NEGATIVE, or NEUTRAL.
Do not explain your answer.`

// ChatCompleter is the subset of *openai.Client used by OpenAIClassifier.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig configures OpenAIClassifier.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIClassifier labels text with a chat completion.
type OpenAIClassifier struct {
	client ChatCompleter
	model  string
}

// NewOpenAIClassifier creates a classifier using the OpenAI API or a
// compatible endpoint when BaseURL is set.
func NewOpenAIClassifier(cfg OpenAIConfig) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewOpenAIClassifierWithClient(openai.NewClientWithConfig(clientCfg), cfg.Model), nil
}

// NewOpenAIClassifierWithClient wraps an existing client.
func NewOpenAIClassifierWithClient(client ChatCompleter, model string) *OpenAIClassifier {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClassifier{client: client, model: model}
}

// Classify implements Classifier.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: sentimentPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0,
		MaxTokens:   4,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: calling OpenAI: %v", ErrClassification, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from OpenAI", ErrClassification)
	}
	return parseLabel(resp.Choices[0].Message.Content)
}

// parseLabel accepts a bare label, tolerating case, whitespace and trailing
// punctuation. Anything else is a failure.
func parseLabel(content string) (models.Sentiment, error) {
	word := strings.TrimRight(strings.TrimSpace(content), ".!")
	s, err := models.ParseSentiment(word)
	if err != nil || !s.IsLabel() {
		return "", fmt.Errorf("%w: unexpected label %q", ErrClassification, content)
	}
	return s, nil
}
