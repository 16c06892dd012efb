package board

import "context"

// Store 任务持久化接口 / Store is the persistence collaborator of the board.
//
// Implementations keep ordering deterministic: ListTasks sorts by position,
// then creation time, then id.
type Store interface {
	ListTasks(ctx context.Context) ([]Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	// MaxPosition returns the highest position in a column; ok is false for an empty column.
	MaxPosition(ctx context.Context, status Status) (pos int, ok bool, err error)
	// CountInStatus counts tasks in a column, ignoring excludeID.
	CountInStatus(ctx context.Context, status Status, excludeID string) (int, error)
	InsertTask(ctx context.Context, t Task) (Task, error)
	UpdateTask(ctx context.Context, t Task) (Task, error)
	DeleteTask(ctx context.Context, id string) error
	// FindTaskByTitle does a case-insensitive exact-or-substring lookup, limit 1.
	FindTaskByTitle(ctx context.Context, title string) (Task, error)
}
