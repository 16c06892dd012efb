package provider

import (
	"context"
	"io"

	"flowboard/internal/chat"
)

// ChatRequest 封装一次模型请求
// ChatRequest wraps a single model call
type ChatRequest struct {
	Model    string
	Messages []chat.Message
	Tools    []chat.ToolDef
}

// Decision 非流式决策调用的结果
// Decision is the result of the non-streaming decision call
type Decision struct {
	Content      string
	ToolCalls    []chat.ToolCall
	FinishReason string
}

// WantsTools reports whether the model asked for at least one tool call.
func (d Decision) WantsTools() bool {
	return len(d.ToolCalls) > 0
}

// Provider 模型后端接口
// Provider is the model backend used by the gateway
type Provider interface {
	// Decide 非流式调用，用于判断模型是否要调用工具
	// Decide performs the non-streaming call that reveals tool calls
	Decide(ctx context.Context, req ChatRequest) (Decision, error)

	// OpenStream 以流式方式重发请求，返回未经修改的上游 SSE 字节流
	// OpenStream re-issues the request with stream enabled and returns the raw upstream SSE body
	OpenStream(ctx context.Context, req ChatRequest) (io.ReadCloser, error)

	// CurrentModel 返回当前模型
	// CurrentModel returns the configured model
	CurrentModel() string
}
