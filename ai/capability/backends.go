package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/czapol/multi-agent-playground/ai/core/llm"
	"github.com/czapol/multi-agent-playground/ai/core/websearch"
	"github.com/czapol/multi-agent-playground/store"
)

// ChatBackend sends the instructions plus the conversation to a provider.
type ChatBackend struct {
	LLM llm.Service
}

func NewChatBackend(svc llm.Service) *ChatBackend {
	return &ChatBackend{LLM: svc}
}

func (b *ChatBackend) Call(ctx context.Context, instructions string, messages []llm.Message) (string, error) {
	return complete(ctx, b.LLM, withSystem(instructions, "", messages))
}

// FileSearchBackend grounds the answer in the local document index.
type FileSearchBackend struct {
	Searcher store.DocumentSearcher
	LLM      llm.Service
	Limit    int
}

func NewFileSearchBackend(searcher store.DocumentSearcher, svc llm.Service) *FileSearchBackend {
	return &FileSearchBackend{Searcher: searcher, LLM: svc, Limit: store.DefaultSearchLimit}
}

func (b *FileSearchBackend) Call(ctx context.Context, instructions string, messages []llm.Message) (string, error) {
	query := llm.LastUserContent(messages)
	hits, err := b.Searcher.SearchDocuments(ctx, &store.FindDocument{Query: query, Limit: b.Limit})
	if err != nil {
		return "", fmt.Errorf("document search: %w", err)
	}
	return complete(ctx, b.LLM, withSystem(instructions, formatHits(hits), messages))
}

func formatHits(hits []*store.DocumentHit) string {
	if len(hits) == 0 {
		return "Local document search returned no matches. Say so instead of guessing."
	}
	var sb strings.Builder
	sb.WriteString("Local document search results:\n")
	for i, h := range hits {
		fmt.Fprintf(&sb, "[%d] %s (%s)\n%s\n", i+1, h.Title, h.Path, h.Snippet)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// WebSearcher is satisfied by *websearch.Client.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}

// WebSearchBackend grounds the answer in live web results.
type WebSearchBackend struct {
	Searcher WebSearcher
	LLM      llm.Service
}

func NewWebSearchBackend(searcher WebSearcher, svc llm.Service) *WebSearchBackend {
	return &WebSearchBackend{Searcher: searcher, LLM: svc}
}

func (b *WebSearchBackend) Call(ctx context.Context, instructions string, messages []llm.Message) (string, error) {
	results, err := b.Searcher.Search(ctx, llm.LastUserContent(messages))
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	note := "Web search returned no results. Say so instead of guessing."
	if len(results) > 0 {
		note = "Web search results:\n" + websearch.Format(results)
	}
	return complete(ctx, b.LLM, withSystem(instructions, note, messages))
}

func withSystem(instructions, note string, messages []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages)+2)
	if instructions != "" {
		out = append(out, llm.SystemPrompt(instructions))
	}
	if note != "" {
		out = append(out, llm.SystemPrompt(note))
	}
	return append(out, messages...)
}

func complete(ctx context.Context, svc llm.Service, messages []llm.Message) (string, error) {
	answer, _, err := svc.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return answer, nil
}
