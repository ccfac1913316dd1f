// Package moderation classifies message text for community safety.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ravenhq/raven/internal/config"
)

// Result is the classification contract: whether the text may be posted,
// and a short reason when it may not.
type Result struct {
	IsSafe bool   `json:"isSafe"`
	Reason string `json:"reason,omitempty"`
}

// Classifier evaluates one text payload. Implementations carry no message
// or thread context; correlation is the caller's job.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
	Name() string
}

// Client wraps a Classifier with the fail-open policy.
//
// Fail-open is a deliberate trust trade-off: when the classifier is
// unconfigured, unreachable, or returns output that cannot be parsed, the
// text is reported safe. Availability is prioritized over recall so that a
// moderation outage never blocks communication. Each call is a single
// attempt with no retry.
type Client struct {
	classifier Classifier
	timeout    time.Duration
}

// New builds a Client from config. An empty provider yields a client with
// no classifier, which allows everything.
func New(cfg config.ModerationConfig) *Client {
	c := &Client{timeout: cfg.Timeout}

	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIKey != "" {
			c.classifier = NewOpenAIClassifier(cfg.OpenAIKey, cfg.Model)
		}
	case "anthropic":
		if cfg.AnthropicKey != "" {
			c.classifier = NewAnthropicClassifier(cfg.AnthropicKey, cfg.Model)
		}
	case "keyword":
		c.classifier = NewKeywordClassifier()
	case "":
		// moderation disabled
	default:
		slog.Warn("unknown moderation provider, moderation disabled", "provider", cfg.Provider)
	}

	return c
}

// Enabled reports whether a classifier is configured.
func (c *Client) Enabled() bool {
	return c.classifier != nil
}

// Classify evaluates the text. It never returns an error: any failure
// degrades to a safe result.
func (c *Client) Classify(ctx context.Context, text string) Result {
	if c.classifier == nil {
		return Result{IsSafe: true}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.classifier.Classify(ctx, text)
	if err != nil {
		slog.Warn("moderation unavailable, allowing message",
			"classifier", c.classifier.Name(),
			"error", err,
		)
		return Result{IsSafe: true}
	}
	return res
}

// classifyPrompt is the instruction shared by the LLM-backed classifiers.
const classifyPrompt = `Evaluate the following text for community safety (hate speech, severe toxicity, vulgarity).
Respond with only a JSON object of the form {"isSafe": boolean, "reason": "short reason if the text is unsafe"}.
Text: %q`

// parseResult decodes a model reply into a Result, tolerating markdown
// code fences around the JSON.
func parseResult(raw string) (Result, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	var res Result
	if err := json.Unmarshal([]byte(s), &res); err != nil {
		return Result{}, fmt.Errorf("malformed classifier output: %w", err)
	}
	return res, nil
}
