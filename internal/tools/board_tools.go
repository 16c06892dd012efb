package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"flowboard/internal/board"
	"flowboard/internal/chat"
)

var (
	statusEnum   = []string{string(board.StatusTodo), string(board.StatusInProgress), string(board.StatusDone)}
	priorityEnum = []string{string(board.PriorityLow), string(board.PriorityMedium), string(board.PriorityHigh), string(board.PriorityUrgent)}
)

func labelsDescription() string {
	return "Labels like " + strings.Join(board.LabelOptions, ", ")
}

func functionDef(name, description string, props map[string]any, required ...string) chat.ToolDef {
	return chat.ToolDef{
		Type: "function",
		Function: chat.ToolFunction{
			Name:        name,
			Description: description,
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           props,
				"required":             required,
				"additionalProperties": false,
			},
		},
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp(description string, values []string) map[string]any {
	return map[string]any{"type": "string", "enum": values, "description": description}
}

func labelsProp(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

// CreateTaskTool appends a task to the end of its column.
type CreateTaskTool struct {
	svc BoardService
}

func NewCreateTaskTool(svc BoardService) *CreateTaskTool {
	return &CreateTaskTool{svc: svc}
}

func (t *CreateTaskTool) Name() string {
	return "create_task"
}

func (t *CreateTaskTool) Definition() chat.ToolDef {
	return functionDef(t.Name(), "Create a new task on the user's Kanban board.", map[string]any{
		"title":       stringProp("Task title"),
		"description": stringProp("Task description"),
		"status":      enumProp("Task status column", statusEnum),
		"priority":    enumProp("Task priority", priorityEnum),
		"due_date":    stringProp("Due date in YYYY-MM-DD format"),
		"labels":      labelsProp(labelsDescription()),
	}, "title")
}

func (t *CreateTaskTool) Execute(ctx context.Context, args json.RawMessage) Result {
	var in struct {
		Title       string   `json:"title"`
		Description *string  `json:"description"`
		Status      *string  `json:"status"`
		Priority    *string  `json:"priority"`
		DueDate     *string  `json:"due_date"`
		Labels      []string `json:"labels"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return failure("invalid arguments: %s", err.Error())
	}
	task, err := t.svc.Create(ctx, board.NewTask{
		Title:       in.Title,
		Description: deref(in.Description),
		Status:      board.Status(deref(in.Status)),
		Priority:    board.Priority(deref(in.Priority)),
		DueDate:     in.DueDate,
		Labels:      in.Labels,
	})
	if err != nil {
		return failure("%s", err.Error())
	}
	return Result{Success: true, Task: &task}
}

// UpdateTaskTool patches the first task whose title matches current_title.
type UpdateTaskTool struct {
	svc BoardService
}

func NewUpdateTaskTool(svc BoardService) *UpdateTaskTool {
	return &UpdateTaskTool{svc: svc}
}

func (t *UpdateTaskTool) Name() string {
	return "update_task"
}

func (t *UpdateTaskTool) Definition() chat.ToolDef {
	return functionDef(t.Name(), "Update an existing task. Identify the task by its current title.", map[string]any{
		"current_title": stringProp("The current title of the task to update"),
		"title":         stringProp("New title"),
		"description":   stringProp("New description"),
		"status":        enumProp("New status", statusEnum),
		"priority":      enumProp("New priority", priorityEnum),
		"due_date":      stringProp("New due date in YYYY-MM-DD format"),
		"labels":        labelsProp("New labels"),
	}, "current_title")
}

func (t *UpdateTaskTool) Execute(ctx context.Context, args json.RawMessage) Result {
	var in struct {
		CurrentTitle string `json:"current_title"`
		board.TaskPatch
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return failure("invalid arguments: %s", err.Error())
	}
	found, err := t.svc.FindByTitle(ctx, in.CurrentTitle)
	if err != nil {
		if errors.Is(err, board.ErrNotFound) || board.IsValidation(err) {
			return notFound(in.CurrentTitle)
		}
		return failure("%s", err.Error())
	}
	if in.TaskPatch.Empty() {
		return Result{Success: true, Task: &found}
	}
	updated, err := t.svc.Update(ctx, found.ID, in.TaskPatch)
	if err != nil {
		return failure("%s", err.Error())
	}
	return Result{Success: true, Task: &updated}
}

// DeleteTaskTool removes the first task whose title matches.
type DeleteTaskTool struct {
	svc BoardService
}

func NewDeleteTaskTool(svc BoardService) *DeleteTaskTool {
	return &DeleteTaskTool{svc: svc}
}

func (t *DeleteTaskTool) Name() string {
	return "delete_task"
}

func (t *DeleteTaskTool) Definition() chat.ToolDef {
	return functionDef(t.Name(), "Delete a task from the board by its title.", map[string]any{
		"title": stringProp("Title of the task to delete"),
	}, "title")
}

func (t *DeleteTaskTool) Execute(ctx context.Context, args json.RawMessage) Result {
	var in struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return failure("invalid arguments: %s", err.Error())
	}
	found, err := t.svc.FindByTitle(ctx, in.Title)
	if err != nil {
		if errors.Is(err, board.ErrNotFound) || board.IsValidation(err) {
			return notFound(in.Title)
		}
		return failure("%s", err.Error())
	}
	if err := t.svc.Delete(ctx, found.ID); err != nil {
		if errors.Is(err, board.ErrNotFound) {
			return notFound(in.Title)
		}
		return failure("%s", err.Error())
	}
	return Result{Success: true, Deleted: in.Title}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
