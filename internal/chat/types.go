package chat

import "encoding/json"

// 消息角色 / Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolFunction describes an OpenAI-compatible function tool definition.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDef describes one function tool exposed to the model.
type ToolDef struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolCallFunction is the function payload of a model tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is an OpenAI-compatible tool call.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// Message is an OpenAI-compatible chat message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ActionRecord 一次工具执行的记录，随 tasks_changed 事件下发给客户端
// ActionRecord describes one executed tool call, reported to the client in the tasks_changed event
type ActionRecord struct {
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args"`
	Result json.RawMessage `json:"result"`
}

// TasksChangedEvent is the synthetic control frame prepended to the relayed stream.
type TasksChangedEvent struct {
	TasksChanged bool           `json:"tasks_changed"`
	Actions      []ActionRecord `json:"actions"`
}

// ChatRequest is the body accepted by POST /chat.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}
