// Package llm abstracts the generative model behind a small chat interface.
package llm

import (
	"context"

	"github.com/MereWhiplash/specrag/internal/ollama"
)

// Roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Options control sampling.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Chatter returns a complete reply for a conversation.
type Chatter interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}

// StreamChatter additionally delivers the reply as successive fragments.
type StreamChatter interface {
	Chatter
	ChatStream(ctx context.Context, messages []Message, opts Options, fn func(string) error) error
}

// Ollama implements StreamChatter with an Ollama model.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates a chat adapter for model.
func NewOllama(client *ollama.Client, model string) *Ollama {
	return &Ollama{client: client, model: model}
}

// Model returns the model name.
func (o *Ollama) Model() string {
	return o.model
}

func (o *Ollama) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	return o.client.Chat(ctx, o.request(messages, opts))
}

func (o *Ollama) ChatStream(ctx context.Context, messages []Message, opts Options, fn func(string) error) error {
	return o.client.ChatStream(ctx, o.request(messages, opts), fn)
}

func (o *Ollama) request(messages []Message, opts Options) ollama.ChatRequest {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}
	return ollama.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Options: ollama.Options{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}
}
