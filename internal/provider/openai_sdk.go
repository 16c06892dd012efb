package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"flowboard/internal/chat"
)

// OpenAIProvider 基于 go-openai SDK 与兼容 HTTP 流的 Provider 实现
// OpenAIProvider implements Provider with the go-openai SDK for decisions
// and an OpenAI-compatible raw HTTP call for streaming.
type OpenAIProvider struct {
	client *openai.Client
	// httpClient serves the decision call and carries the overall timeout.
	httpClient *http.Client
	// streamClient only bounds the wait for response headers, so long streams are not cut off.
	streamClient *http.Client
	cfg          Config
}

// Config provider 配置 / Config is the provider configuration
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	TimeoutMS  int
	MaxRetries int
}

// NewOpenAIProvider 创建 provider / NewOpenAIProvider creates a provider
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	httpClient := &http.Client{}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TimeoutMS > 0 {
		timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
		httpClient.Timeout = timeout
		transport.ResponseHeaderTimeout = timeout
	}
	config.HTTPClient = httpClient

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(config),
		httpClient:   httpClient,
		streamClient: &http.Client{Transport: transport},
		cfg:          cfg,
	}
}

func (p *OpenAIProvider) CurrentModel() string {
	return p.cfg.Model
}

// Close drops idle upstream connections.
func (p *OpenAIProvider) Close() {
	p.httpClient.CloseIdleConnections()
	p.streamClient.CloseIdleConnections()
}

// Decide 非流式调用 / Decide runs the non-streaming call with the tool schema attached.
func (p *OpenAIProvider) Decide(ctx context.Context, req ChatRequest) (Decision, error) {
	if p.cfg.APIKey == "" {
		return Decision{}, ErrMissingAPIKey
	}
	model := req.Model
	if model == "" {
		model = p.CurrentModel()
	}
	sdkReq := buildSDKRequest(model, req)

	var dec Decision
	err := p.withRetry(ctx, func() error {
		resp, err := p.client.CreateChatCompletion(ctx, sdkReq)
		if err != nil {
			return classifySDKError(err)
		}
		if len(resp.Choices) == 0 {
			return &UpstreamError{Kind: KindGatewayError, Status: http.StatusOK, Err: errors.New("chat response has no choices")}
		}
		choice := resp.Choices[0]
		dec = Decision{
			Content:      choice.Message.Content,
			ToolCalls:    convertToolCalls(choice.Message.ToolCalls),
			FinishReason: string(choice.FinishReason),
		}
		return nil
	})
	return dec, err
}

func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(150*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		// 不可重试的错误 / Non-retryable errors
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

func classifySDKError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &UpstreamError{
			Kind:   kindForStatus(apiErr.HTTPStatusCode),
			Status: apiErr.HTTPStatusCode,
			Body:   apiErr.Message,
			Err:    err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &UpstreamError{
			Kind:   kindForStatus(reqErr.HTTPStatusCode),
			Status: reqErr.HTTPStatusCode,
			Body:   string(reqErr.Body),
			Err:    err,
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &UpstreamError{Kind: KindGatewayError, Err: fmt.Errorf("chat completion: %w", err)}
}

func buildSDKRequest(model string, req ChatRequest) openai.ChatCompletionRequest {
	sdkReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		sdkReq.Tools = convertTools(req.Tools)
		sdkReq.ToolChoice = "auto"
	}
	return sdkReq
}

func convertToolCalls(calls []openai.ToolCall) []chat.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]chat.ToolCall, 0, len(calls))
	for i, tc := range calls {
		id := strings.TrimSpace(tc.ID)
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		typ := strings.TrimSpace(string(tc.Type))
		if typ == "" {
			typ = "function"
		}
		out = append(out, chat.ToolCall{
			ID:   id,
			Type: typ,
			Function: chat.ToolCallFunction{
				Name:      strings.TrimSpace(tc.Function.Name),
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}

// --- Message / Tool Conversion ---

func convertMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		if len(m.ToolCalls) > 0 {
			msg.ToolCalls = make([]openai.ToolCall, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolType(tc.Type),
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		}
		out = append(out, msg)
	}
	return out
}

func convertTools(tools []chat.ToolDef) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}
