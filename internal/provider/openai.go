package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"flowboard/internal/chat"
)

// --- OpenAI-compatible streaming (compat) ---

type compatChatRequest struct {
	Model      string         `json:"model"`
	Messages   []chat.Message `json:"messages"`
	Stream     bool           `json:"stream"`
	Tools      []chat.ToolDef `json:"tools,omitempty"`
	ToolChoice any            `json:"tool_choice,omitempty"`
}

// OpenStream 发起流式请求并把上游响应体原样交给调用方
// OpenStream posts the request with stream enabled and hands back the
// upstream body untouched. The caller must close it. Non-success statuses are
// turned into *UpstreamError before any byte is returned.
func (p *OpenAIProvider) OpenStream(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	if p.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	model := req.Model
	if model == "" {
		model = p.CurrentModel()
	}
	body := compatChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   true,
		Tools:    req.Tools,
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	var stream io.ReadCloser
	err := p.withRetry(ctx, func() error {
		rc, err := p.openCompatStream(ctx, body)
		if err != nil {
			return err
		}
		stream = rc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (p *OpenAIProvider) openCompatStream(ctx context.Context, req compatChatRequest) (io.ReadCloser, error) {
	if p.cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	client := p.streamClient
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UpstreamError{Kind: KindGatewayError, Err: fmt.Errorf("http do: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp.Body, nil
}
