package tools

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"flowboard/internal/chat"
	"flowboard/internal/permission"
)

// Dispatcher 顺序执行一轮内的全部工具调用
// Dispatcher runs every tool call of one model turn, strictly in order.
type Dispatcher struct {
	registry *Registry
	policy   *permission.Policy
	logger   *zap.Logger
	// Observe, when set, is called once per executed call.
	Observe func(tool string, success bool)
}

func NewDispatcher(registry *Registry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, policy: permission.Allow(), logger: logger}
}

// WithPolicy 设置工具权限策略 / WithPolicy replaces the tool permission policy.
func (d *Dispatcher) WithPolicy(p *permission.Policy) *Dispatcher {
	if p != nil {
		d.policy = p
	}
	return d
}

// Definitions lists the tools the policy lets the model see.
func (d *Dispatcher) Definitions() []chat.ToolDef {
	all := d.registry.Definitions()
	out := make([]chat.ToolDef, 0, len(all))
	for _, def := range all {
		if d.policy.Allowed(def.Function.Name) {
			out = append(out, def)
		}
	}
	return out
}

// Dispatch executes calls in the order given and returns one tool message per
// call, keyed by the call id, plus the matching action records. A failed call
// does not stop the ones after it.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []chat.ToolCall) ([]chat.Message, []chat.ActionRecord) {
	msgs := make([]chat.Message, 0, len(calls))
	actions := make([]chat.ActionRecord, 0, len(calls))
	for _, call := range calls {
		name := call.Function.Name
		args := argsJSON(call.Function.Arguments)

		var res Result
		if decision := d.policy.Decide(name); decision.Decision != permission.DecisionAllow && d.registry.Has(name) {
			res = failure("Tool %s is not permitted on this board", name)
		} else {
			res = d.registry.Execute(ctx, name, json.RawMessage(call.Function.Arguments))
		}
		payload := res.JSON()
		if res.Success {
			d.logger.Info("tool call executed", zap.String("tool", name), zap.String("call_id", call.ID))
		} else {
			d.logger.Warn("tool call failed",
				zap.String("tool", name),
				zap.String("call_id", call.ID),
				zap.String("error", res.Error),
			)
		}
		if d.Observe != nil {
			d.Observe(name, res.Success)
		}

		msgs = append(msgs, chat.Message{
			Role:       chat.RoleTool,
			Content:    payload,
			ToolCallID: call.ID,
		})
		actions = append(actions, chat.ActionRecord{
			Name:   name,
			Args:   args,
			Result: json.RawMessage(payload),
		})
	}
	return msgs, actions
}

// argsJSON keeps well-formed arguments as an object and falls back to the raw
// text as a JSON string when the model sent something unparseable.
func argsJSON(raw string) json.RawMessage {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return json.RawMessage("{}")
	}
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(raw)
	return quoted
}
