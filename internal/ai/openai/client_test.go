package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "gpt-test"}, zap.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{APIKey: "  "}, nil); err == nil {
		t.Fatal("expected error for empty api key")
	}

	c, err := New(Config{APIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model() != defaultModel || c.baseURL != defaultBaseURL {
		t.Fatalf("unexpected defaults: model=%s base=%s", c.Model(), c.baseURL)
	}
}

func TestCompleteSendsTranscript(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected authorization header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": " What is a goroutine? "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 7, "total_tokens": 27}
		}`))
	})

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: "interviewer"},
		{Role: ai.RoleUser, Content: "hi"},
	}

	completion, err := c.Complete(context.Background(), messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if completion.Text != "What is a goroutine?" {
		t.Fatalf("unexpected text: %q", completion.Text)
	}
	if completion.TotalTokens != 27 {
		t.Fatalf("expected 27 tokens, got %d", completion.TotalTokens)
	}

	if got.Model != "gpt-test" {
		t.Fatalf("unexpected model: %s", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0] != messages[0] || got.Messages[1] != messages[1] {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestCompleteFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error": {"message": "Incorrect API key provided"}}`, wantErr: "Incorrect API key"},
		{name: "quota", status: http.StatusTooManyRequests, body: `rate limited`, wantErr: "429"},
		{name: "malformed body", status: http.StatusOK, body: `{"choices": [`, wantErr: "decode chat response"},
		{name: "no choices", status: http.StatusOK, body: `{"choices": []}`, wantErr: "no choices"},
		{name: "empty content", status: http.StatusOK, body: `{"choices": [{"message": {"content": "  "}}]}`, wantErr: "empty response"},
		{name: "missing usage", status: http.StatusOK, body: `{"choices": [{"message": {"content": "hi"}}]}`, wantErr: "no usage"},
		{name: "error payload", status: http.StatusOK, body: `{"error": {"message": "model overloaded"}}`, wantErr: "model overloaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Complete(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCompleteHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Complete(ctx, []ai.Message{{Role: ai.RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestCompleteRejectsEmptyTranscript(t *testing.T) {
	c, err := New(Config{APIKey: "k"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
