package generation

import (
	"context"
	"strings"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/llm"
	"github.com/MereWhiplash/specrag/internal/types"
)

// Client sends rendered prompts to a generative model.
type Client struct {
	chat llm.StreamChatter
	opts llm.Options
}

// NewClient creates a generation client with fixed sampling options.
func NewClient(chat llm.StreamChatter, temperature float64, maxTokens int) *Client {
	return &Client{chat: chat, opts: llm.Options{Temperature: temperature, MaxTokens: maxTokens}}
}

func messages(req types.GenerationRequest) []llm.Message {
	var msgs []llm.Message
	if req.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: req.UserPrompt})
}

// Generate returns the model's complete reply.
func (c *Client) Generate(ctx context.Context, req types.GenerationRequest) (string, error) {
	text, err := c.chat.Chat(ctx, messages(req), c.opts)
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, err, "failed to generate text")
	}
	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.KindGeneration, "empty response from model")
	}
	return text, nil
}

// GenerateStream passes each reply fragment to fn as it arrives and returns
// the accumulated reply.
func (c *Client) GenerateStream(ctx context.Context, req types.GenerationRequest, fn func(string) error) (string, error) {
	var b strings.Builder
	err := c.chat.ChatStream(ctx, messages(req), c.opts, func(fragment string) error {
		b.WriteString(fragment)
		return fn(fragment)
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, err, "failed to generate stream")
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", apperr.New(apperr.KindGeneration, "empty response from model")
	}
	return b.String(), nil
}
