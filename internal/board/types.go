package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status 看板列 / Status is the board column a task lives in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every column in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus normalizes s and rejects values outside the column set.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", invalidf("status %q must be one of todo, in_progress, done", s)
	}
	return st, nil
}

// Priority 优先级 / Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", invalidf("priority %q must be one of low, medium, high, urgent", s)
	}
	return p, nil
}

// Column 看板列展示信息 / Column describes how a status is shown on the board.
type Column struct {
	ID    Status `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

var Columns = []Column{
	{ID: StatusTodo, Title: "To Do", Icon: "📋"},
	{ID: StatusInProgress, Title: "In Progress", Icon: "⚡"},
	{ID: StatusDone, Title: "Done", Icon: "✅"},
}

// LabelOptions are the labels the board UI offers. Other labels are allowed.
var LabelOptions = []string{
	"Bug", "Feature", "Design", "Backend", "Frontend", "Documentation", "Testing", "DevOps",
}

// DateLayout is the only accepted due date format.
const DateLayout = "2006-01-02"

// Task 看板任务 / Task is one card on the board.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	DueDate     *string  `json:"due_date"`
	Labels      []string `json:"labels"`
	Position    int      `json:"position"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// NewTask 创建任务的输入 / NewTask is the input of Service.Create.
// Empty Status and Priority fall back to todo and medium.
type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Optional 区分字段缺省、显式 null 与具体值
// Optional distinguishes an absent JSON key, an explicit null and a value.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present Optional holding JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked for keys present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// TaskPatch 部分更新 / TaskPatch is a partial update. Unset fields are left alone.
//
// Title, Status and Priority only apply when present with a non-empty value.
// Labels apply whenever present and not null, so [] clears them. Description
// and DueDate apply whenever present, so an explicit "" or null clears them.
type TaskPatch struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[string]   `json:"description"`
	Status      Optional[string]   `json:"status"`
	Priority    Optional[string]   `json:"priority"`
	DueDate     Optional[string]   `json:"due_date"`
	Labels      Optional[[]string] `json:"labels"`
}

// Empty reports whether the patch would change nothing.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set &&
		!p.Priority.Set && !p.DueDate.Set && !p.Labels.Set
}

// Stats 看板统计 / Stats summarizes the board.
type Stats struct {
	Total             int              `json:"total"`
	ByStatus          map[Status]int   `json:"by_status"`
	ByPriority        map[Priority]int `json:"by_priority"`
	PriorityPercent   map[Priority]int `json:"priority_percent"`
	CompletionPercent int              `json:"completion_percent"`
}

func validateDueDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", invalidf("due_date %q must be YYYY-MM-DD", s)
	}
	return s, nil
}

func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := map[string]struct{}{}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		key := strings.ToLower(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

func (t Task) String() string {
	return fmt.Sprintf("%s [%s/%s #%d]", t.Title, t.Status, t.Priority, t.Position)
}
