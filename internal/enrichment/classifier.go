// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/moodlog/internal/config"
	"github.com/tomtom215/moodlog/internal/models"
)

// ErrClassification is wrapped by classifier failures that are not timeouts.
var ErrClassification = errors.New("classification failed")

// Classifier labels text. Implementations may be slow or fail; the worker
// applies timeouts and retries.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Sentiment, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (models.Sentiment, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	return f(ctx, text)
}

// NewClassifier builds the classifier selected by cfg.Classifier.
func NewClassifier(cfg config.EnrichmentConfig) (Classifier, string, error) {
	switch cfg.Classifier {
	case "", "lexicon":
		return NewLexiconClassifier(), "lexicon", nil
	case "openai":
		c, err := NewOpenAIClassifier(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		return c, "openai", nil
	default:
		return nil, "", fmt.Errorf("unknown sentiment classifier %q", cfg.Classifier)
	}
}
