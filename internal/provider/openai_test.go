package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"flowboard/internal/chat"
)

func newTestProvider(url string, retries int) *OpenAIProvider {
	return NewOpenAIProvider(Config{
		BaseURL:    url + "/v1/",
		APIKey:     "test-key",
		Model:      "test-model",
		TimeoutMS:  5000,
		MaxRetries: retries,
	})
}

func TestDecideReturnsToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization=%q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["stream"] == true {
			t.Errorf("decision call requested streaming")
		}
		if tools, _ := body["tools"].([]any); len(tools) != 1 {
			t.Errorf("tools=%v", body["tools"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"create_task","arguments":"{\"title\":\"Draft roadmap\"}"}}]}}]}`)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, 0)
	dec, err := p.Decide(context.Background(), ChatRequest{
		Messages: []chat.Message{{Role: "user", Content: "add Draft roadmap"}},
		Tools:    []chat.ToolDef{{Type: "function", Function: chat.ToolFunction{Name: "create_task", Parameters: map[string]any{"type": "object"}}}},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !dec.WantsTools() || dec.ToolCalls[0].Function.Arguments != `{"title":"Draft roadmap"}` {
		t.Fatalf("unexpected decision: %+v", dec)
	}
}

func TestDecideClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusPaymentRequired, KindQuotaExhausted},
		{http.StatusBadRequest, KindGatewayError},
	}
	for _, tc := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, `{"error":{"message":"upstream says no","type":"x"}}`)
		}))
		p := newTestProvider(srv.URL, 2)
		_, err := p.Decide(context.Background(), ChatRequest{Messages: []chat.Message{{Role: "user", Content: "hi"}}})
		srv.Close()

		var ue *UpstreamError
		if !errors.As(err, &ue) {
			t.Fatalf("status %d: err=%v, want UpstreamError", tc.status, err)
		}
		if ue.Kind != tc.want || ue.Status != tc.status {
			t.Fatalf("status %d: kind=%s status=%d", tc.status, ue.Kind, ue.Status)
		}
	}
}

func TestOpenStreamRelaysBodyUntouched(t *testing.T) {
	const upstream = "data: {\"choices\":[{\"delta\":{\"content\":\"你\"}}]}\n\ndata: [DONE]\n\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body compatChatRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !body.Stream || body.Model != "test-model" || len(body.Tools) != 0 {
			t.Errorf("unexpected request: %+v", body)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, upstream)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL, 0)
	rc, err := p.OpenStream(context.Background(), ChatRequest{Messages: []chat.Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != upstream {
		t.Fatalf("body=%q, want %q", got, upstream)
	}
}

func TestOpenStreamRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	rc, err := newTestProvider(srv.URL, 1).OpenStream(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	_ = rc.Close()
	if hits.Load() != 2 {
		t.Fatalf("hits=%d, want 2", hits.Load())
	}
}

func TestOpenStreamDoesNotRetryRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL, 3).OpenStream(context.Background(), ChatRequest{})
	if KindOf(err) != KindRateLimited {
		t.Fatalf("err=%v, want rate limited", err)
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Body != "slow down" {
		t.Fatalf("body not captured: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("hits=%d, want 1", hits.Load())
	}
}

func TestMissingAPIKey(t *testing.T) {
	p := NewOpenAIProvider(Config{BaseURL: "http://127.0.0.1:1/v1", Model: "m"})
	if _, err := p.Decide(context.Background(), ChatRequest{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Decide err=%v", err)
	}
	if _, err := p.OpenStream(context.Background(), ChatRequest{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("OpenStream err=%v", err)
	}
}
