// Package rerank asks a generative model to pick the best of several
// retrieved endpoints.
package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/MereWhiplash/specrag/internal/llm"
	"github.com/MereWhiplash/specrag/internal/types"
)

const (
	temperature    = 0.3
	maxTokens      = 200
	descriptionMax = 100
)

const systemPrompt = `You are an API endpoint matching expert. 당신은 API 엔드포인트 매칭 전문가입니다.

Given a user query and a numbered list of API endpoints, pick the single most relevant endpoint.

Matching rules:
- "승인" / approve → approve, POST
- "취소" / cancel → cancel, DELETE
- "조회" / status, get → status/get, GET
- "생성/등록" / create, register → create, POST
- "수정/변경" / update, change → update, PUT
- "삭제/제거" / delete, remove → delete, DELETE

Output format:
best match number: N
reason: [one line]`

var (
	choicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)best match number:\s*(\d+)`),
		regexp.MustCompile(`가장 관련있는 번호:\s*(\d+)`),
	}
	firstInteger = regexp.MustCompile(`\d+`)
)

// Reranker reorders retrieval results with a model's pick for the best match.
type Reranker struct {
	chat   llm.Chatter
	logger *slog.Logger
}

// New creates a reranker.
func New(chat llm.Chatter, logger *slog.Logger) *Reranker {
	return &Reranker{chat: chat, logger: logger}
}

// Rerank moves the model's chosen result to rank 1 and returns the first n.
// It never fails: any model or parsing problem keeps the retrieval order.
func (r *Reranker) Rerank(ctx context.Context, query string, results []types.RetrievalResult, n int) []types.RetrievalResult {
	if len(results) <= 1 {
		return results
	}

	reply, err := r.chat.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(query, results)},
	}, llm.Options{Temperature: temperature, MaxTokens: maxTokens})
	if err != nil {
		r.logger.Warn("reranking failed, keeping retrieval order", "error", err)
		return renumber(head(results, n))
	}

	choice := ParseChoice(reply, len(results))
	r.logger.Debug("reranked", "choice", choice, "candidates", len(results))
	return head(Apply(results, choice), n)
}

// BuildPrompt lists the candidates as numbered lines under the query.
func BuildPrompt(query string, results []types.RetrievalResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %q\n\nAPI endpoints:\n", query)
	for i, res := range results {
		c := res.Chunk
		fmt.Fprintf(&b, "%d. %s %s", i+1, c.Method, c.Path)
		if c.Summary != "" {
			b.WriteString(" - " + c.Summary)
		}
		if c.Description != "" {
			b.WriteString("\n   Description: " + truncate(c.Description, descriptionMax))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nSelect the endpoint most relevant to the query above.")
	return b.String()
}

// ParseChoice extracts the 1-based candidate number from a reply. It returns 0
// when the reply names no valid candidate out of k.
func ParseChoice(reply string, k int) int {
	for _, re := range choicePatterns {
		if m := re.FindStringSubmatch(reply); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= k {
				return n
			}
		}
	}
	if m := firstInteger.FindString(reply); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= k {
			return n
		}
	}
	return 0
}

// Apply moves the chosen result to the front and renumbers ranks from 1.
// A zero choice keeps the original order.
func Apply(results []types.RetrievalResult, choice int) []types.RetrievalResult {
	out := make([]types.RetrievalResult, 0, len(results))
	if choice >= 1 && choice <= len(results) {
		out = append(out, results[choice-1])
	}
	for i, res := range results {
		if i+1 != choice {
			out = append(out, res)
		}
	}
	return renumber(out)
}

func renumber(results []types.RetrievalResult) []types.RetrievalResult {
	out := make([]types.RetrievalResult, len(results))
	for i, res := range results {
		res.Rank = i + 1
		out[i] = res
	}
	return out
}

func head(results []types.RetrievalResult, n int) []types.RetrievalResult {
	if n < 0 || n > len(results) {
		return results
	}
	return results[:n]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
