package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenhq/raven/internal/config"
)

type stubClassifier struct {
	result Result
	err    error
}

func (s *stubClassifier) Classify(context.Context, string) (Result, error) {
	return s.result, s.err
}

func (s *stubClassifier) Name() string { return "stub" }

func TestClientFailOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("UnconfiguredAllowsEverything", func(t *testing.T) {
		c := New(config.ModerationConfig{})
		assert.False(t, c.Enabled())
		assert.True(t, c.Classify(ctx, "anything at all").IsSafe)
	})

	t.Run("ClassifierErrorAllows", func(t *testing.T) {
		c := &Client{classifier: &stubClassifier{err: errors.New("upstream down")}}
		res := c.Classify(ctx, "text")
		assert.True(t, res.IsSafe)
		assert.Empty(t, res.Reason)
	})

	t.Run("UnsafeVerdictPassesThrough", func(t *testing.T) {
		c := &Client{classifier: &stubClassifier{result: Result{IsSafe: false, Reason: "toxicity"}}}
		res := c.Classify(ctx, "text")
		assert.False(t, res.IsSafe)
		assert.Equal(t, "toxicity", res.Reason)
	})

	t.Run("UnknownProviderDisablesModeration", func(t *testing.T) {
		c := New(config.ModerationConfig{Provider: "carrier-pigeon"})
		assert.False(t, c.Enabled())
	})

	t.Run("KeywordProviderNeedsNoKey", func(t *testing.T) {
		c := New(config.ModerationConfig{Provider: "keyword"})
		assert.True(t, c.Enabled())
	})
}

func TestParseResult(t *testing.T) {
	t.Run("PlainJSON", func(t *testing.T) {
		res, err := parseResult(`{"isSafe": false, "reason": "vulgarity"}`)
		require.NoError(t, err)
		assert.False(t, res.IsSafe)
		assert.Equal(t, "vulgarity", res.Reason)
	})

	t.Run("FencedJSON", func(t *testing.T) {
		res, err := parseResult("```json\n{\"isSafe\": true}\n```")
		require.NoError(t, err)
		assert.True(t, res.IsSafe)
	})

	t.Run("MalformedOutput", func(t *testing.T) {
		_, err := parseResult("I think this text is fine.")
		require.Error(t, err)
	})
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	t.Run("FlagsByCategory", func(t *testing.T) {
		res, err := c.Classify(ctx, "honestly, kill yourself")
		require.NoError(t, err)
		assert.False(t, res.IsSafe)
		assert.Equal(t, "severe toxicity", res.Reason)
	})

	t.Run("AllowsCleanText", func(t *testing.T) {
		res, err := c.Classify(ctx, "meeting moved to noon")
		require.NoError(t, err)
		assert.True(t, res.IsSafe)
	})
}
