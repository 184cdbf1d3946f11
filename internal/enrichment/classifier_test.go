// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/tomtom215/moodlog/internal/config"
	"github.com/tomtom215/moodlog/internal/models"
)

func TestLexiconClassifier(t *testing.T) {
	t.Parallel()

	c := NewLexiconClassifier()
	tests := []struct {
		text string
		want models.Sentiment
	}{
		{"Today was a wonderful, sunny day and I felt happy.", models.SentimentPositive},
		{"I felt sad and tired after the awful meeting.", models.SentimentNegative},
		{"Went to the store. Bought milk.", models.SentimentNeutral},
		{"", models.SentimentNeutral},
		{"I was not happy about it.", models.SentimentNegative},
		{"Never sad when the sun is out", models.SentimentPositive},
		{"good day, bad night", models.SentimentNeutral},
	}
	for _, tt := range tests {
		got, err := c.Classify(context.Background(), tt.text)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestLexiconClassifierCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLexiconClassifier().Classify(ctx, "happy"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// fakeChat returns a canned completion.
type fakeChat struct {
	content string
	err     error
	req     openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content}},
		},
	}, nil
}

func TestOpenAIClassifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content string
		want    models.Sentiment
		wantErr bool
	}{
		{"POSITIVE", models.SentimentPositive, false},
		{" negative.\n", models.SentimentNegative, false},
		{"Neutral", models.SentimentNeutral, false},
		{"PENDING", "", true},
		{"FAILED", "", true},
		{"I think it is positive", "", true},
	}
	for _, tt := range tests {
		chat := &fakeChat{content: tt.content}
		c := NewOpenAIClassifierWithClient(chat, "")
		got, err := c.Classify(context.Background(), "entry text")
		if tt.wantErr {
			if !errors.Is(err, ErrClassification) {
				t.Errorf("Classify(%q) err = %v, want ErrClassification", tt.content, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Classify(%q) = (%s, %v), want %s", tt.content, got, err, tt.want)
		}
		if chat.req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q, want default gpt-4o-mini", chat.req.Model)
		}
		if len(chat.req.Messages) != 2 || chat.req.Messages[1].Content != "entry text" {
			t.Errorf("messages = %+v", chat.req.Messages)
		}
	}
}

func TestOpenAIClassifierErrors(t *testing.T) {
	t.Parallel()

	c := NewOpenAIClassifierWithClient(&fakeChat{err: errors.New("429 too many requests")}, "gpt-4o")
	if _, err := c.Classify(context.Background(), "x"); !errors.Is(err, ErrClassification) {
		t.Errorf("err = %v, want ErrClassification", err)
	}

	if _, err := NewOpenAIClassifier(OpenAIConfig{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestNewClassifier(t *testing.T) {
	t.Parallel()

	c, name, err := NewClassifier(config.EnrichmentConfig{Classifier: "lexicon"})
	if err != nil || name != "lexicon" {
		t.Fatalf("NewClassifier(lexicon) = (%T, %q, %v)", c, name, err)
	}
	if _, ok := c.(*LexiconClassifier); !ok {
		t.Errorf("classifier = %T", c)
	}

	c, name, err = NewClassifier(config.EnrichmentConfig{Classifier: "openai", OpenAIAPIKey: "sk-test"})
	if err != nil || name != "openai" {
		t.Fatalf("NewClassifier(openai) = (%T, %q, %v)", c, name, err)
	}

	if _, _, err := NewClassifier(config.EnrichmentConfig{Classifier: "vader"}); err == nil {
		t.Error("expected error for unknown classifier")
	}
}

func TestClassifierFunc(t *testing.T) {
	t.Parallel()

	f := ClassifierFunc(func(ctx context.Context, text string) (models.Sentiment, error) {
		return models.SentimentPositive, nil
	})
	if got, _ := f.Classify(context.Background(), ""); got != models.SentimentPositive {
		t.Errorf("got %s", got)
	}
}
