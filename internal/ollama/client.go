// Package ollama is a small HTTP client for the local Ollama server:
// batch embeddings, chat (optionally streamed) and the installed model list.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MereWhiplash/specrag/internal/apperr"
)

// Client talks to one Ollama server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Message is a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are per-request sampling options.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ChatRequest is the body of /api/chat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  Options   `json:"options"`
}

type chatResponse struct {
	Message *Message `json:"message"`
	Done    bool     `json:"done"`
	Error   string   `json:"error,omitempty"`
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Model is an installed model.
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

// New creates a client. A zero timeout means no client-side limit.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Embed embeds every input in one round trip.
func (c *Client) Embed(ctx context.Context, model string, input []string) ([][]float32, error) {
	resp, err := c.post(ctx, apperr.KindEmbedding, "/api/embed", embedRequest{Model: model, Input: input})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return embResp.Embeddings, nil
}

// Chat sends a non-streaming chat request and returns the reply content.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	req.Stream = false
	resp, err := c.post(ctx, apperr.KindGeneration, "/api/chat", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if chat.Error != "" {
		return "", fmt.Errorf("ollama error: %s", chat.Error)
	}
	if chat.Message == nil {
		return "", fmt.Errorf("no response from Ollama")
	}
	return chat.Message.Content, nil
}

// ChatStream sends a streaming chat request and calls fn with each content
// fragment in arrival order. Returning an error from fn stops the stream.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, fn func(string) error) error {
	req.Stream = true
	resp, err := c.post(ctx, apperr.KindGeneration, "/api/chat", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama error: %s", chunk.Error)
		}
		if chunk.Message != nil && chunk.Message.Content != "" {
			if err := fn(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return c.classify(ctx, apperr.KindGeneration, err)
	}
	return apperr.New(apperr.KindGeneration, "chat stream ended before the model finished")
}

// ListModels returns the installed models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.do(req, apperr.KindConnectivity)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return tags.Models, nil
}

func (c *Client) post(ctx context.Context, kind apperr.Kind, path string, body any) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, kind)
}

// do sends req. kind labels a request that timed out.
func (c *Client) do(req *http.Request, kind apperr.Kind) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(req.Context(), kind, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// classify sorts a transport failure. A cancelled or expired ctx is returned
// as is, a client timeout becomes a kind error, and anything else is a
// connectivity error with the remedy.
func (c *Client) classify(ctx context.Context, kind apperr.Kind, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ollama request aborted: %w", ctxErr)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &apperr.Error{
			Kind:    kind,
			Message: fmt.Sprintf("Ollama at %s did not answer within %s (raise ollama_timeout, or 0 for no limit)", c.baseURL, c.http.Timeout),
			Cause:   err,
		}
	}
	return &apperr.Error{
		Kind:    apperr.KindConnectivity,
		Message: fmt.Sprintf("failed to connect to Ollama at %s; start the local model server (ollama serve)", c.baseURL),
		Cause:   err,
	}
}
