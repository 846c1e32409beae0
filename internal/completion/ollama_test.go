package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewOllama_Defaults(t *testing.T) {
	o, err := NewOllama(Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}
	if o.model != "llama3.2" {
		t.Errorf("expected model 'llama3.2', got %q", o.model)
	}
	if o.baseURL != "http://localhost:11434" {
		t.Errorf("expected baseURL 'http://localhost:11434', got %q", o.baseURL)
	}
	if o.timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %v", o.timeout)
	}
}

func TestNewOllama_StripsV1Suffix(t *testing.T) {
	o, err := NewOllama(Config{BaseURL: "http://ollama:11434/v1/"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}
	if o.baseURL != "http://ollama:11434" {
		t.Errorf("expected '/v1' suffix removed, got %q", o.baseURL)
	}
}

func TestOllama_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)

		if req["model"] != "llama3.2" {
			t.Errorf("expected model 'llama3.2', got %v", req["model"])
		}
		if req["stream"] != false {
			t.Error("expected stream=false")
		}
		if req["prompt"] != "Rewrite this" {
			t.Errorf("unexpected prompt %v", req["prompt"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model":    "llama3.2",
			"response": "The harbour woke slowly.",
			"done":     true,
		})
	}))
	defer server.Close()

	o, err := NewOllama(Config{BaseURL: server.URL, Model: "llama3.2"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}

	result, err := o.Complete(context.Background(), "Rewrite this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "The harbour woke slowly." {
		t.Errorf("expected 'The harbour woke slowly.', got %q", result)
	}
}

func TestOllama_Complete_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"model": "llama3.2", "response": "", "done": true})
	}))
	defer server.Close()

	o, _ := NewOllama(Config{BaseURL: server.URL}, zap.NewNop())

	_, err := o.Complete(context.Background(), "Rewrite this")
	if !errors.Is(err, ErrCompletionFailed) {
		t.Errorf("expected ErrCompletionFailed for empty response, got %v", err)
	}
}

func TestOllama_Complete_StoppedAtLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"model":       "llama3.2",
			"response":    "The storm broke at dawn and the",
			"done":        true,
			"done_reason": "length",
		})
	}))
	defer server.Close()

	o, _ := NewOllama(Config{BaseURL: server.URL}, zap.NewNop())

	result, err := o.Complete(context.Background(), "Rewrite this")
	if !errors.Is(err, ErrCompletionFailed) {
		t.Errorf("expected ErrCompletionFailed for a length-limited response, got %v", err)
	}
	if result != "" {
		t.Errorf("expected no text for a cut-off response, got %q", result)
	}
}

func TestOllama_Complete_DoneReasonStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"model":       "llama3.2",
			"response":    "The storm broke at dawn.",
			"done":        true,
			"done_reason": "stop",
		})
	}))
	defer server.Close()

	o, _ := NewOllama(Config{BaseURL: server.URL}, zap.NewNop())

	result, err := o.Complete(context.Background(), "Rewrite this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "The storm broke at dawn." {
		t.Errorf("unexpected result %q", result)
	}
}

func TestOllama_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer server.Close()

	o, _ := NewOllama(Config{BaseURL: server.URL}, zap.NewNop())

	_, err := o.Complete(context.Background(), "Rewrite this")
	if !errors.Is(err, ErrCompletionFailed) {
		t.Errorf("expected ErrCompletionFailed, got %v", err)
	}
}

func TestOllama_Complete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	o, _ := NewOllama(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, zap.NewNop())

	_, err := o.Complete(context.Background(), "Rewrite this")
	if !errors.Is(err, ErrCompletionFailed) {
		t.Errorf("expected ErrCompletionFailed on timeout, got %v", err)
	}
}

func TestOllamaCompleterInterface(t *testing.T) {
	var _ Completer = (*Ollama)(nil)
}
