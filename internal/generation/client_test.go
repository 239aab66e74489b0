package generation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/generation"
	"github.com/MereWhiplash/specrag/internal/llm"
	"github.com/MereWhiplash/specrag/internal/types"
)

type mockChat struct {
	reply     string
	fragments []string
	err       error
	got       []llm.Message
	opts      llm.Options
}

func (m *mockChat) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	m.got, m.opts = messages, opts
	return m.reply, m.err
}

func (m *mockChat) ChatStream(ctx context.Context, messages []llm.Message, opts llm.Options, fn func(string) error) error {
	m.got, m.opts = messages, opts
	for _, f := range m.fragments {
		if err := fn(f); err != nil {
			return err
		}
	}
	return m.err
}

var request = types.GenerationRequest{SystemPrompt: "sys", UserPrompt: "user"}

func TestGenerate(t *testing.T) {
	chat := &mockChat{reply: "curl https://x.test"}
	text, err := generation.NewClient(chat, 0.1, 2000).Generate(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, "curl https://x.test", text)
	assert.Equal(t, []llm.Message{{Role: llm.RoleSystem, Content: "sys"}, {Role: llm.RoleUser, Content: "user"}}, chat.got)
	assert.Equal(t, llm.Options{Temperature: 0.1, MaxTokens: 2000}, chat.opts)
}

func TestGenerate_OmitsEmptySystemPrompt(t *testing.T) {
	chat := &mockChat{reply: "ok"}
	_, err := generation.NewClient(chat, 0.1, 2000).Generate(context.Background(), types.GenerationRequest{UserPrompt: "u"})
	require.NoError(t, err)
	assert.Len(t, chat.got, 1)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := generation.NewClient(&mockChat{reply: "  \n"}, 0.1, 2000).Generate(context.Background(), request)
	assert.True(t, errors.Is(err, apperr.ErrGeneration))

	_, err = generation.NewClient(&mockChat{err: errors.New("bad json")}, 0.1, 2000).Generate(context.Background(), request)
	assert.True(t, errors.Is(err, apperr.ErrGeneration))

	down := apperr.New(apperr.KindConnectivity, "failed to connect to Ollama")
	_, err = generation.NewClient(&mockChat{err: down}, 0.1, 2000).Generate(context.Background(), request)
	assert.True(t, errors.Is(err, apperr.ErrConnectivity))
}

func TestGenerateStream(t *testing.T) {
	chat := &mockChat{fragments: []string{"curl ", "https://x.test"}}
	var seen []string

	text, err := generation.NewClient(chat, 0.1, 2000).GenerateStream(context.Background(), request, func(f string) error {
		seen = append(seen, f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "curl https://x.test", text)
	assert.Equal(t, []string{"curl ", "https://x.test"}, seen)
}

func TestGenerateStream_Empty(t *testing.T) {
	_, err := generation.NewClient(&mockChat{}, 0.1, 2000).GenerateStream(context.Background(), request, func(string) error { return nil })
	assert.True(t, errors.Is(err, apperr.ErrGeneration))
}
