package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"newsrec/internal/domain"
	"newsrec/internal/port"
)

func testChat(t *testing.T, handler http.Handler) *OpenAIChat {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("TEST_CHAT_KEY", "secret")
	c, err := NewOpenAICompatibleChat("TEST_CHAT_KEY", "deepseek-chat", srv.URL, 100, 0.7, zerolog.Nop())
	if err != nil {
		t.Fatalf("construct chat: %v", err)
	}
	return c
}

func TestOpenAIChat_Complete(t *testing.T) {
	c := testChat(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "deepseek-chat" || req.Stream {
			t.Errorf("request = %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		resp := chatResponse{Choices: []chatChoice{
			{Message: port.Message{Role: "assistant", Content: "1,3,2"}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))

	got, err := c.Complete(context.Background(), port.UserMessage("rank these"), port.CompletionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1,3,2" {
		t.Errorf("content = %q", got)
	}
}

func TestOpenAIChat_OptionsOverrideDefaults(t *testing.T) {
	c := testChat(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "other-model" {
			t.Errorf("model = %q, want override", req.Model)
		}
		if req.MaxTokens != 42 {
			t.Errorf("max_tokens = %d, want 42", req.MaxTokens)
		}
		resp := chatResponse{Choices: []chatChoice{{Message: port.Message{Role: "assistant", Content: "ok"}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))

	_, err := c.Complete(context.Background(), port.UserMessage("hi"), port.CompletionOptions{Model: "other-model", MaxTokens: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAIChat_NoChoices(t *testing.T) {
	c := testChat(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))

	_, err := c.Complete(context.Background(), port.UserMessage("hi"), port.CompletionOptions{})
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
}

func TestOpenAIChat_HTTPErrorStatus(t *testing.T) {
	c := testChat(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))

	if _, err := c.Complete(context.Background(), port.UserMessage("hi"), port.CompletionOptions{}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestOpenAIChat_Stream(t *testing.T) {
	c := testChat(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("stream flag must be set")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			``,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`: keep-alive comment`,
			`data: {"choices":[{"delta":{"content":""}}]}`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"ignored"}}]}`,
		}
		for _, line := range chunks {
			_, _ = w.Write([]byte(line + "\n"))
		}
	}))

	ch, err := c.Stream(context.Background(), port.UserMessage("hi"), port.CompletionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parts []string
	for part := range ch {
		parts = append(parts, part)
	}
	if got := strings.Join(parts, ""); got != "Hello" {
		t.Errorf("streamed content = %q, want Hello", got)
	}
}

func TestOpenAIChat_MissingKey(t *testing.T) {
	t.Setenv("TEST_CHAT_MISSING", "")
	if _, err := NewOpenAICompatibleChat("TEST_CHAT_MISSING", "m", "http://x", 0, 0, zerolog.Nop()); err == nil {
		t.Error("expected error for missing API key")
	}
}
