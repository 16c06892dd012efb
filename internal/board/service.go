package board

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Service 看板业务操作 / Service implements board operations on top of a Store.
//
// Position assignment is read-then-write: two concurrent creates in the same
// column can compute the same position. Ordering stays deterministic because
// the store breaks ties by creation time and id.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]Task, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Service) Get(ctx context.Context, id string) (Task, error) {
	return s.store.GetTask(ctx, strings.TrimSpace(id))
}

// NextPosition is 1 + the highest position in the column, or 0 when it is empty.
func (s *Service) NextPosition(ctx context.Context, status Status) (int, error) {
	pos, ok, err := s.store.MaxPosition(ctx, status)
	if err != nil {
		return 0, fmt.Errorf("max position: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return pos + 1, nil
}

// Create 新建任务并放到列尾 / Create inserts a task at the end of its column.
func (s *Service) Create(ctx context.Context, in NewTask) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, invalidf("title is required")
	}
	status := StatusTodo
	if strings.TrimSpace(string(in.Status)) != "" {
		st, err := ParseStatus(string(in.Status))
		if err != nil {
			return Task{}, err
		}
		status = st
	}
	priority := PriorityMedium
	if strings.TrimSpace(string(in.Priority)) != "" {
		p, err := ParsePriority(string(in.Priority))
		if err != nil {
			return Task{}, err
		}
		priority = p
	}
	var due *string
	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		d, err := validateDueDate(*in.DueDate)
		if err != nil {
			return Task{}, err
		}
		due = &d
	}

	position, err := s.NextPosition(ctx, status)
	if err != nil {
		return Task{}, err
	}
	created, err := s.store.InsertTask(ctx, Task{
		Title:       title,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     due,
		Labels:      normalizeLabels(in.Labels),
		Position:    position,
	})
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

// Update 按补丁更新任务 / Update applies a partial patch to the task with id.
func (s *Service) Update(ctx context.Context, id string, patch TaskPatch) (Task, error) {
	current, err := s.store.GetTask(ctx, strings.TrimSpace(id))
	if err != nil {
		return Task{}, err
	}
	next, err := applyPatch(current, patch)
	if err != nil {
		return Task{}, err
	}
	// Position is left alone even when the status changes; use Move to reorder.
	updated, err := s.store.UpdateTask(ctx, next)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	return updated, nil
}

func applyPatch(t Task, p TaskPatch) (Task, error) {
	if p.Title.Set && !p.Title.Null {
		if title := strings.TrimSpace(p.Title.Value); title != "" {
			t.Title = title
		}
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Status.Set && !p.Status.Null && strings.TrimSpace(p.Status.Value) != "" {
		st, err := ParseStatus(p.Status.Value)
		if err != nil {
			return Task{}, err
		}
		t.Status = st
	}
	if p.Priority.Set && !p.Priority.Null && strings.TrimSpace(p.Priority.Value) != "" {
		pr, err := ParsePriority(p.Priority.Value)
		if err != nil {
			return Task{}, err
		}
		t.Priority = pr
	}
	if p.DueDate.Set {
		if p.DueDate.Null || strings.TrimSpace(p.DueDate.Value) == "" {
			t.DueDate = nil
		} else {
			d, err := validateDueDate(p.DueDate.Value)
			if err != nil {
				return Task{}, err
			}
			t.DueDate = &d
		}
	}
	if p.Labels.Set && !p.Labels.Null {
		t.Labels = normalizeLabels(p.Labels.Value)
	}
	return t, nil
}

// Delete removes the task with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, strings.TrimSpace(id))
}

// Move 拖拽到某列 / Move puts a task at the end of the target column.
//
// The new position is the number of other tasks already in that column.
// Moving a task where it already sits is a no-op.
func (s *Service) Move(ctx context.Context, id string, status Status) (Task, error) {
	if !status.Valid() {
		return Task{}, invalidf("status %q must be one of todo, in_progress, done", status)
	}
	current, err := s.store.GetTask(ctx, strings.TrimSpace(id))
	if err != nil {
		return Task{}, err
	}
	position, err := s.store.CountInStatus(ctx, status, current.ID)
	if err != nil {
		return Task{}, fmt.Errorf("count column: %w", err)
	}
	if current.Status == status && current.Position == position {
		return current, nil
	}
	current.Status = status
	current.Position = position
	moved, err := s.store.UpdateTask(ctx, current)
	if err != nil {
		return Task{}, fmt.Errorf("move task: %w", err)
	}
	return moved, nil
}

// FindByTitle 按标题查找（不区分大小写，精确或子串，首个匹配）
// FindByTitle looks a task up by title, case-insensitively. Exact matches win
// over substring matches; otherwise the first match in board order is returned.
// It does not guarantee uniqueness.
func (s *Service) FindByTitle(ctx context.Context, title string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, invalidf("title is required")
	}
	t, err := s.store.FindTaskByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

// Stats 统计各列与优先级 / Stats counts tasks per column and per priority.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(tasks), nil
}

func ComputeStats(tasks []Task) Stats {
	st := Stats{
		Total:           len(tasks),
		ByStatus:        make(map[Status]int, len(Statuses)),
		ByPriority:      make(map[Priority]int, len(Priorities)),
		PriorityPercent: make(map[Priority]int, len(Priorities)),
	}
	for _, s := range Statuses {
		st.ByStatus[s] = 0
	}
	for _, p := range Priorities {
		st.ByPriority[p] = 0
	}
	for _, t := range tasks {
		st.ByStatus[t.Status]++
		st.ByPriority[t.Priority]++
	}
	for _, p := range Priorities {
		st.PriorityPercent[p] = percent(st.ByPriority[p], st.Total)
	}
	st.CompletionPercent = percent(st.ByStatus[StatusDone], st.Total)
	return st
}

func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}
