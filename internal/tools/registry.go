package tools

import (
	"context"
	"encoding/json"
	"sort"

	"flowboard/internal/chat"
)

// Registry 工具分发表 / Registry maps a function name to its handler.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry(ts ...Tool) *Registry {
	m := make(map[string]Tool, len(ts))
	for _, t := range ts {
		m[t.Name()] = t
	}
	return &Registry{tools: m}
}

// NewBoardRegistry registers create_task, update_task and delete_task.
func NewBoardRegistry(svc BoardService) *Registry {
	return NewRegistry(
		NewCreateTaskTool(svc),
		NewUpdateTaskTool(svc),
		NewDeleteTaskTool(svc),
	)
}

func (r *Registry) Definitions() []chat.ToolDef {
	out := make([]chat.ToolDef, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name].Definition())
	}
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Execute validates args against the tool's declared parameters before
// running it. Unknown names and invalid arguments become failed results.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) Result {
	t, ok := r.tools[name]
	if !ok {
		return failure("Unknown tool")
	}
	if _, err := validateArgs(t.Definition().Function.Parameters, args); err != nil {
		return failure("invalid arguments: %s", err.Error())
	}
	return t.Execute(ctx, args)
}
