package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAIProviderComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.MaxTokens != 1000 {
			t.Errorf("expected max_tokens 1000, got %d", req.MaxTokens)
		}
		if req.Temperature != 0.7 {
			t.Errorf("expected temperature 0.7, got %f", req.Temperature)
		}
		if len(req.Messages) == 0 || req.Messages[0].Role != RoleSystem {
			t.Errorf("expected system message first, got %+v", req.Messages)
		}

		var resp chatResponse
		resp.Choices = append(resp.Choices, struct {
			Message Message `json:"message"`
		}{Message: Message{Role: RoleAssistant, Content: "You may contest the citation."}})
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL, "test-model", time.Second)
	reply, err := p.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are a traffic attorney."},
		{Role: RoleUser, Content: "Can I fight this ticket?"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "You may contest the citation." {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestOpenAIProviderErrors(t *testing.T) {
	t.Run("no messages", func(t *testing.T) {
		p := NewOpenAIProvider("test-key", "http://unused.invalid", "test-model", time.Second)
		if _, err := p.Complete(context.Background(), nil); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("api error payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
		}))
		defer server.Close()

		p := NewOpenAIProvider("test-key", server.URL, "test-model", time.Second)
		if _, err := p.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		p := NewOpenAIProvider("test-key", server.URL, "test-model", time.Second)
		if _, err := p.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider("canned reply")
	reply, err := p.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "canned reply" {
		t.Errorf("unexpected reply: %q", reply)
	}
}
