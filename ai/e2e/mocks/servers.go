package mocks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ChatServer fakes an OpenAI-compatible /chat/completions endpoint.
// It answers "<model>: <last user message>" so tests can tell which
// provider served a query.
type ChatServer struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	requests []ChatRequest
}

// ChatRequest is the part of a completion request tests inspect.
type ChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// NewChatServer starts a ChatServer closed at test cleanup.
func NewChatServer(t testing.TB) *ChatServer {
	t.Helper()
	cs := &ChatServer{status: http.StatusOK}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.Close)
	return cs
}

// FailWith makes every following request return status.
func (cs *ChatServer) FailWith(status int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.status = status
}

// Requests returns the completion requests received so far.
func (cs *ChatServer) Requests() []ChatRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]ChatRequest(nil), cs.requests...)
}

// BaseURL is the value to configure as the provider base URL.
func (cs *ChatServer) BaseURL() string {
	return cs.URL + "/v1"
}

func (cs *ChatServer) handle(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cs.mu.Lock()
	cs.requests = append(cs.requests, req)
	status := cs.status
	cs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"error":{"message":"status %d","type":"test"}}`, status)
		return
	}

	last := ""
	for _, m := range req.Messages {
		if m.Role == "user" {
			last = m.Content
		}
	}
	resp := map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": req.Model + ": " + last},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// SearchResultsPage is a DuckDuckGo-style HTML results page with two hits.
const SearchResultsPage = `<html><body>
<div class="result">
  <h2><a class="result__a" href="https://example.com/ai-news">AI news today</a></h2>
  <a class="result__snippet">The latest developments in AI.</a>
</div>
<div class="result">
  <h2><a class="result__a" href="https://example.org/weekly">Weekly roundup</a></h2>
  <a class="result__snippet">Everything that happened this week.</a>
</div>
</body></html>`

// NewSearchServer serves SearchResultsPage for every request.
func NewSearchServer(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(SearchResultsPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}
