package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"text2cypher/internal/testutil"
)

func TestNewOpenRouterClientErrors(t *testing.T) {
	if _, err := NewOpenRouterClient(OpenRouterOptions{APIKey: "key"}); err == nil {
		t.Fatalf("expected missing model error")
	}
	if _, err := NewOpenRouterClient(OpenRouterOptions{Model: "model"}); err == nil {
		t.Fatalf("expected missing api key error")
	}
}

func TestOpenRouterCompleteSendsRequest(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" {\"query\": \"RETURN 1\"} "},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewOpenRouterClient(OpenRouterOptions{APIKey: "key", Model: "google/gemini-2.0-flash-001", BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	seed := 7
	text, err := client.Complete(testutil.Context(t, 0), Request{System: "sys", User: "question", Seed: &seed, JSON: true})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != `{"query": "RETURN 1"}` {
		t.Fatalf("unexpected completion %q", text)
	}
	if received["model"] != "google/gemini-2.0-flash-001" {
		t.Fatalf("unexpected model %v", received["model"])
	}
	if received["seed"] != float64(7) {
		t.Fatalf("expected seed to be forwarded, got %v", received["seed"])
	}
	format, _ := received["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json response format, got %v", received["response_format"])
	}
	messages, _ := received["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", messages)
	}
}

func TestOpenRouterCompleteClassifiesErrors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		reason    Reason
		retryable bool
	}{
		{name: "rate limit", status: http.StatusTooManyRequests, reason: ReasonRateLimit, retryable: true},
		{name: "server", status: http.StatusBadGateway, reason: ReasonServerError, retryable: true},
		{name: "auth", status: http.StatusUnauthorized, reason: ReasonAuth, retryable: false},
		{name: "bad request", status: http.StatusBadRequest, reason: ReasonInvalidRequest, retryable: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"error":{"message":"nope","type":"error"}}`)
			}))
			t.Cleanup(server.Close)
			client, err := NewOpenRouterClient(OpenRouterOptions{APIKey: "key", Model: "m", BaseURL: server.URL, HTTPClient: server.Client()})
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			_, err = client.Complete(testutil.Context(t, 0), Request{User: "q"})
			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if providerErr.Reason != tc.reason || providerErr.Status != tc.status {
				t.Fatalf("unexpected error %+v", providerErr)
			}
			if IsRetryable(err) != tc.retryable {
				t.Fatalf("expected retryable=%v", tc.retryable)
			}
		})
	}
}

func TestOpenRouterCompleteTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	client, err := NewOpenRouterClient(OpenRouterOptions{APIKey: "key", Model: "m", BaseURL: server.URL, HTTPClient: server.Client(), RequestTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Complete(testutil.Context(t, 0), Request{User: "q"})
	if !IsRetryable(err) {
		t.Fatalf("expected retryable timeout, got %v", err)
	}
}

func TestOpenRouterCompleteHonorsCancellation(t *testing.T) {
	client, err := NewOpenRouterClient(OpenRouterOptions{APIKey: "key", Model: "m", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Complete(ctx, Request{User: "q"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrEmptyCompletion) {
		t.Fatalf("expected empty completion to be retryable")
	}
	if IsRetryable(errors.New("schema mismatch")) {
		t.Fatalf("expected unknown error to be final")
	}
	if !IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)) {
		t.Fatalf("expected deadline to be retryable")
	}
}
