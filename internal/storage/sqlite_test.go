package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"flowboard/internal/board"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insert(t *testing.T, store *SQLiteStore, title string, status board.Status, pos int) board.Task {
	t.Helper()
	task, err := store.InsertTask(context.Background(), board.Task{
		Title:    title,
		Status:   status,
		Priority: board.PriorityMedium,
		Position: pos,
	})
	if err != nil {
		t.Fatalf("InsertTask(%q): %v", title, err)
	}
	return task
}

func TestSQLiteStore_TaskCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	due := "2025-03-01"
	created, err := store.InsertTask(ctx, board.Task{
		Title:       "Draft roadmap",
		Description: "first draft",
		Status:      board.StatusTodo,
		Priority:    board.PriorityHigh,
		DueDate:     &due,
		Labels:      []string{"Documentation"},
	})
	if err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("InsertTask should assign an id")
	}
	if created.CreatedAt == "" || created.UpdatedAt == "" {
		t.Fatalf("timestamps not set: %+v", created)
	}

	loaded, err := store.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if loaded.Title != "Draft roadmap" || loaded.Priority != board.PriorityHigh {
		t.Fatalf("loaded=%+v", loaded)
	}
	if loaded.DueDate == nil || *loaded.DueDate != due {
		t.Fatalf("DueDate=%v, want %s", loaded.DueDate, due)
	}
	if len(loaded.Labels) != 1 || loaded.Labels[0] != "Documentation" {
		t.Fatalf("Labels=%v", loaded.Labels)
	}

	loaded.Description = ""
	loaded.DueDate = nil
	updated, err := store.UpdateTask(ctx, loaded)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Description != "" || updated.DueDate != nil {
		t.Fatalf("UpdateTask did not clear fields: %+v", updated)
	}

	if err := store.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := store.GetTask(ctx, created.ID); !errors.Is(err, board.ErrNotFound) {
		t.Fatalf("GetTask after delete err=%v, want ErrNotFound", err)
	}
	if err := store.DeleteTask(ctx, created.ID); !errors.Is(err, board.ErrNotFound) {
		t.Fatalf("second DeleteTask err=%v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_ListOrderedByPosition(t *testing.T) {
	store := newTestStore(t)
	insert(t, store, "c", board.StatusTodo, 2)
	insert(t, store, "a", board.StatusTodo, 0)
	insert(t, store, "b", board.StatusDone, 1)

	tasks, err := store.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("ListTasks count=%d, want 3", len(tasks))
	}
	got := tasks[0].Title + tasks[1].Title + tasks[2].Title
	if got != "abc" {
		t.Fatalf("order=%q, want abc", got)
	}
}

func TestSQLiteStore_MaxPositionAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.MaxPosition(ctx, board.StatusTodo); err != nil || ok {
		t.Fatalf("empty column: ok=%v err=%v", ok, err)
	}
	insert(t, store, "a", board.StatusTodo, 0)
	b := insert(t, store, "b", board.StatusTodo, 4)
	insert(t, store, "c", board.StatusDone, 9)

	pos, ok, err := store.MaxPosition(ctx, board.StatusTodo)
	if err != nil || !ok || pos != 4 {
		t.Fatalf("MaxPosition=%d ok=%v err=%v, want 4", pos, ok, err)
	}
	n, err := store.CountInStatus(ctx, board.StatusTodo, b.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountInStatus=%d err=%v, want 1", n, err)
	}
}

func TestSQLiteStore_FindTaskByTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insert(t, store, "Fix login bug", board.StatusTodo, 0)
	insert(t, store, "Login", board.StatusTodo, 1)
	insert(t, store, "Deploy", board.StatusDone, 0)

	tests := []struct {
		query string
		want  string
	}{
		{"login", "Login"},
		{"LOGIN BUG", "Fix login bug"},
		{"deplo", "Deploy"},
	}
	for _, tc := range tests {
		got, err := store.FindTaskByTitle(ctx, tc.query)
		if err != nil {
			t.Fatalf("FindTaskByTitle(%q): %v", tc.query, err)
		}
		if got.Title != tc.want {
			t.Fatalf("FindTaskByTitle(%q)=%q, want %q", tc.query, got.Title, tc.want)
		}
	}
	if _, err := store.FindTaskByTitle(ctx, "nonexistent"); !errors.Is(err, board.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_FindTaskByTitleNonASCII(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insert(t, store, "Überprüfung Q3", board.StatusTodo, 0)
	insert(t, store, "Ответ клиенту", board.StatusTodo, 1)
	insert(t, store, "ÉTÉ planning", board.StatusDone, 0)

	tests := []struct {
		query string
		want  string
	}{
		{"Überprüfung Q3", "Überprüfung Q3"},
		{"überprüfung q3", "Überprüfung Q3"},
		{"ÜBERPRÜFUNG Q3", "Überprüfung Q3"},
		{"ПРÜFUNG", ""},
		{"ответ", "Ответ клиенту"},
		{"été", "ÉTÉ planning"},
	}
	for _, tc := range tests {
		got, err := store.FindTaskByTitle(ctx, tc.query)
		if tc.want == "" {
			if !errors.Is(err, board.ErrNotFound) {
				t.Fatalf("FindTaskByTitle(%q) err=%v, want ErrNotFound", tc.query, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("FindTaskByTitle(%q): %v", tc.query, err)
		}
		if got.Title != tc.want {
			t.Fatalf("FindTaskByTitle(%q)=%q, want %q", tc.query, got.Title, tc.want)
		}
	}
}

func TestSQLiteStore_FindTaskByTitlePrefersExact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insert(t, store, "Écrire la doc complète", board.StatusTodo, 0)
	insert(t, store, "écrire la doc", board.StatusTodo, 1)

	got, err := store.FindTaskByTitle(ctx, "ÉCRIRE LA DOC")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "écrire la doc" {
		t.Fatalf("got %q, want the exact match over the earlier substring match", got.Title)
	}
}

func TestImportJSON(t *testing.T) {
	store := newTestStore(t)
	svc := board.NewService(store)
	ctx := context.Background()
	if _, err := svc.Create(ctx, board.NewTask{Title: "Existing"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[
		{"title": "existing"},
		{"title": "Ship it", "status": "in_progress", "priority": "urgent", "labels": ["DevOps"]},
		{"title": ""},
		{"title": "Review", "status": "bogus"}
	]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := ImportJSON(ctx, path, svc)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if report.Imported != 1 || report.Duplicates != 1 {
		t.Fatalf("report=%+v, want 1 imported and 1 duplicate", report)
	}
	if len(report.Skipped) != 2 || report.Skipped[0].Index != 2 || report.Skipped[1].Title != "Review" {
		t.Fatalf("skipped=%+v", report.Skipped)
	}
	var verr *board.ValidationError
	if !errors.As(report.Skipped[1].Reason, &verr) {
		t.Fatalf("skip reason=%v, want ValidationError", report.Skipped[1].Reason)
	}
	tasks, _ := svc.List(ctx)
	if len(tasks) != 2 {
		t.Fatalf("tasks=%d, want 2", len(tasks))
	}
}

func TestImportJSONMissingFile(t *testing.T) {
	svc := board.NewService(newTestStore(t))
	report, err := ImportJSON(context.Background(), filepath.Join(t.TempDir(), "missing.json"), svc)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v, want ErrNotExist", err)
	}
	if report.Imported != 0 {
		t.Fatalf("report=%+v", report)
	}
	if _, err := ImportJSON(context.Background(), "  ", svc); err == nil {
		t.Fatal("empty path should fail")
	}
}
