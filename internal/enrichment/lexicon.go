// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"
	"strings"
	"unicode"

	"github.com/tomtom215/moodlog/internal/models"
)

var positiveWords = []string{
	"happy", "glad", "joy", "joyful", "great", "good", "wonderful", "love",
	"loved", "excited", "grateful", "thankful", "calm", "peaceful", "proud",
	"fun", "amazing", "awesome", "relaxed", "hopeful", "content", "cheerful",
	"delighted", "sunny", "beautiful", "success", "smile", "laughed", "better",
}

var negativeWords = []string{
	"sad", "angry", "upset", "bad", "terrible", "awful", "hate", "hated",
	"anxious", "worried", "stress", "stressed", "tired", "lonely", "afraid",
	"scared", "miserable", "depressed", "frustrated", "annoyed", "cry",
	"cried", "pain", "sick", "worse", "fail", "failed", "gloomy", "hurt",
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "didn't": true,
	"isn't": true, "wasn't": true, "can't": true, "couldn't": true,
}

// LexiconClassifier scores text against fixed word lists. A negator flips
// the polarity of the next word. Equal scores are NEUTRAL.
type LexiconClassifier struct {
	positive map[string]bool
	negative map[string]bool
}

// NewLexiconClassifier creates the default word-list classifier.
func NewLexiconClassifier() *LexiconClassifier {
	c := &LexiconClassifier{
		positive: make(map[string]bool, len(positiveWords)),
		negative: make(map[string]bool, len(negativeWords)),
	}
	for _, w := range positiveWords {
		c.positive[w] = true
	}
	for _, w := range negativeWords {
		c.negative[w] = true
	}
	return c
}

// Classify implements Classifier.
func (c *LexiconClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	score := 0
	negate := false
	for _, w := range words {
		if negators[w] {
			negate = true
			continue
		}
		delta := 0
		switch {
		case c.positive[w]:
			delta = 1
		case c.negative[w]:
			delta = -1
		}
		if negate {
			delta = -delta
			negate = false
		}
		score += delta
	}

	switch {
	case score > 0:
		return models.SentimentPositive, nil
	case score < 0:
		return models.SentimentNegative, nil
	default:
		return models.SentimentNeutral, nil
	}
}
