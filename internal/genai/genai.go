// Package genai classifies free-form messages that no command, menu label,
// or quick-entry shorthand matched, using the OpenAI API.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNoChoicesReturned indicates the API responded without any choices.
var ErrNoChoicesReturned = errors.New("no choices returned")

// chatService defines the minimal interface for chat completions.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat chatService
}

// Opts holds configuration for the client.
type Opts struct {
	APIKey string
}

// Option configures the client.
type Option func(*Opts)

// WithAPIKey sets the API key explicitly instead of reading the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// NewClient initializes a client from options, falling back to the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{chat: &cli.Chat.Completions}, nil
}

// Suggestion is the structured reading of a free-form message.
type Suggestion struct {
	// Intent is one of "task", "expense", "income", "unknown".
	Intent string `json:"intent"`

	// Title is the cleaned-up task title when Intent is "task".
	Title string `json:"title,omitempty"`

	// Amount is the detected sum when Intent is "expense" or "income".
	Amount string `json:"amount,omitempty"`

	// Note is the remaining description for money intents.
	Note string `json:"note,omitempty"`
}

const classifierPrompt = `You read one message sent to a personal task and finance assistant.
Classify it and answer with a single JSON object, no prose:
{"intent":"task|expense|income|unknown","title":"...","amount":"...","note":"..."}
Use "task" for things to do, "expense"/"income" when a money amount is present,
"unknown" otherwise. Amounts are plain decimal strings without currency.`

// Interpret classifies one free-form message.
func (c *Client) Interpret(ctx context.Context, text string) (*Suggestion, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrNoChoicesReturned
	}

	var s Suggestion
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(extractJSON(content)), &s); err != nil {
		return nil, fmt.Errorf("parse classifier response %q: %w", content, err)
	}
	if s.Intent == "" {
		s.Intent = "unknown"
	}
	return &s, nil
}

// extractJSON tolerates models that wrap the object in code fences or prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
