package moderation

import (
	"context"
	"strings"
)

// KeywordClassifier flags text by keyword category. It needs no network or
// API key, which makes it the classifier of choice for local development.
type KeywordClassifier struct {
	categories map[string][]string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		categories: map[string][]string{
			"hate speech": {
				"go back to your country", "subhuman", "vermin",
			},
			"severe toxicity": {
				"kill yourself", "nobody would miss you", "waste of oxygen",
			},
			"vulgarity": {
				"fuck", "shit", "bitch", "asshole",
			},
		},
	}
}

func (c *KeywordClassifier) Name() string { return "keyword" }

func (c *KeywordClassifier) Classify(_ context.Context, text string) (Result, error) {
	lower := strings.ToLower(text)

	for category, patterns := range c.categories {
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				return Result{IsSafe: false, Reason: category}, nil
			}
		}
	}

	return Result{IsSafe: true}, nil
}
