package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flowboard/internal/board"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的任务存储
// SQLiteStore implements board.Store using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ board.Store = (*SQLiteStore)(nil)

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath, now: time.Now}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'todo',
		priority    TEXT NOT NULL DEFAULT 'medium',
		due_date    TEXT,
		labels      TEXT NOT NULL DEFAULT '[]',
		position    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status_position ON tasks(status, position);
	CREATE INDEX IF NOT EXISTS idx_tasks_position ON tasks(position);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// timestampLayout is fixed-width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const taskColumns = `id, title, description, status, priority, due_date, labels, position, created_at, updated_at`

// --- Task Operations ---

func (s *SQLiteStore) ListTasks(ctx context.Context) ([]board.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks ORDER BY position ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]board.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (board.Task, error) {
	if id == "" {
		return board.Task{}, board.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Task{}, board.ErrNotFound
	}
	return t, err
}

func (s *SQLiteStore) MaxPosition(ctx context.Context, status board.Status) (int, bool, error) {
	var pos int
	err := s.db.QueryRowContext(ctx, `
		SELECT position FROM tasks WHERE status=?
		ORDER BY position DESC LIMIT 1`, string(status)).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query max position: %w", err)
	}
	return pos, true, nil
}

func (s *SQLiteStore) CountInStatus(ctx context.Context, status board.Status, excludeID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks WHERE status=? AND id<>?`, string(status), excludeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) InsertTask(ctx context.Context, t board.Task) (board.Task, error) {
	if strings.TrimSpace(t.ID) == "" {
		t.ID = uuid.NewString()
	}
	now := s.nowUTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Labels == nil {
		t.Labels = []string{}
	}
	labels, err := json.Marshal(t.Labels)
	if err != nil {
		return board.Task{}, fmt.Errorf("marshal labels: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		nullableString(t.DueDate), string(labels), t.Position, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return board.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, t board.Task) (board.Task, error) {
	if t.Labels == nil {
		t.Labels = []string{}
	}
	labels, err := json.Marshal(t.Labels)
	if err != nil {
		return board.Task{}, fmt.Errorf("marshal labels: %w", err)
	}
	t.UpdatedAt = s.nowUTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title=?, description=?, status=?, priority=?, due_date=?,
			labels=?, position=?, updated_at=?
		WHERE id=?`,
		t.Title, t.Description, string(t.Status), string(t.Priority),
		nullableString(t.DueDate), string(labels), t.Position, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return board.Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return board.Task{}, board.ErrNotFound
	}
	return s.GetTask(ctx, t.ID)
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return board.ErrNotFound
	}
	return nil
}

// FindTaskByTitle 不区分大小写匹配标题：精确匹配优先，其次子串，按看板顺序取第一个
// FindTaskByTitle matches case-insensitively: exact before substring, then
// board order. Folding happens in Go because SQLite's lower() is ASCII only.
func (s *SQLiteStore) FindTaskByTitle(ctx context.Context, title string) (board.Task, error) {
	needle := strings.TrimSpace(title)
	if needle == "" {
		return board.Task{}, board.ErrNotFound
	}
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return board.Task{}, err
	}
	folded := strings.ToLower(needle)
	substring := -1
	for i, t := range tasks {
		if strings.EqualFold(t.Title, needle) {
			return t, nil
		}
		if substring < 0 && strings.Contains(strings.ToLower(t.Title), folded) {
			substring = i
		}
	}
	if substring < 0 {
		return board.Task{}, board.ErrNotFound
	}
	return tasks[substring], nil
}

// --- Helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (board.Task, error) {
	var (
		t        board.Task
		status   string
		priority string
		due      sql.NullString
		labels   string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority,
		&due, &labels, &t.Position, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return board.Task{}, err
		}
		return board.Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.Status = board.Status(status)
	t.Priority = board.Priority(priority)
	if due.Valid && due.String != "" {
		d := due.String
		t.DueDate = &d
	}
	t.Labels = []string{}
	if labels != "" && labels != "[]" {
		if err := json.Unmarshal([]byte(labels), &t.Labels); err != nil {
			t.Labels = []string{}
		}
	}
	return t, nil
}

func (s *SQLiteStore) nowUTC() string {
	return s.now().UTC().Format(timestampLayout)
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
