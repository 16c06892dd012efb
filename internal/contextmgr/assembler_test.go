package contextmgr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"flowboard/internal/board"
	"flowboard/internal/chat"
	"flowboard/internal/defaults"
)

type fakeLister struct {
	tasks []board.Task
	err   error
}

func (f fakeLister) List(context.Context) ([]board.Task, error) {
	return f.tasks, f.err
}

func TestBuildEmbedsBoardSnapshot(t *testing.T) {
	due := "2025-03-01"
	lister := fakeLister{tasks: []board.Task{
		{Title: "Draft roadmap", Status: board.StatusTodo, Priority: board.PriorityMedium},
		{Title: "Ship", Status: board.StatusDone, Priority: board.PriorityHigh, Description: "v1", DueDate: &due, Labels: []string{"DevOps", "Backend"}},
	}}
	a := New("", lister, estimatingTokenizer(), 0, nil)

	msgs := a.Build(context.Background(), []chat.Message{{Role: "user", Content: "hi"}})
	if len(msgs) != 2 || msgs[0].Role != chat.RoleSystem {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	sys := msgs[0].Content
	if !strings.HasPrefix(sys, defaults.SystemPrompt) {
		t.Fatalf("system prompt missing persona")
	}
	want := `1. "Draft roadmap" — Status: todo, Priority: medium` + "\n" +
		`2. "Ship" — Status: done, Priority: high, Description: v1, Due: 2025-03-01, Labels: DevOps, Backend`
	if !strings.HasSuffix(sys, want) {
		t.Fatalf("unexpected board summary:\n%s", sys)
	}
}

func TestBuildTreatsReadFailureAsEmptyBoard(t *testing.T) {
	a := New("persona", fakeLister{err: errors.New("db locked")}, estimatingTokenizer(), 0, nil)
	msgs := a.Build(context.Background(), nil)
	if msgs[0].Content != "persona"+defaults.EmptyBoardNote {
		t.Fatalf("system=%q", msgs[0].Content)
	}
}

func TestFitHistoryDropsOldestAndKeepsNewest(t *testing.T) {
	tok := estimatingTokenizer()
	system := chat.Message{Role: chat.RoleSystem, Content: "sys"}
	long := strings.Repeat("word ", 200)
	history := []chat.Message{
		{Role: "user", Content: long},
		{Role: "assistant", Content: long},
		{Role: "user", Content: long},
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "latest"},
	}
	budget := tok.Count([]chat.Message{system}) + tok.Count(history[2:])
	kept := FitHistory(tok, system, history, budget)
	if len(kept) != 3 || kept[0].Role != "user" || kept[2].Content != "latest" {
		t.Fatalf("kept=%+v", kept)
	}

	kept = FitHistory(tok, system, history, 1)
	if len(kept) != 1 || kept[0].Content != "latest" {
		t.Fatalf("newest message must survive: %+v", kept)
	}

	if got := FitHistory(tok, system, history, 0); len(got) != len(history) {
		t.Fatalf("limit 0 should not trim")
	}
}

func TestFitHistorySkipsLeadingAssistant(t *testing.T) {
	tok := estimatingTokenizer()
	system := chat.Message{Role: chat.RoleSystem}
	long := strings.Repeat("x", 400)
	history := []chat.Message{
		{Role: "user", Content: long},
		{Role: "assistant", Content: "a"},
		{Role: "user", Content: "b"},
	}
	budget := tok.Count([]chat.Message{system}) + tok.Count(history[1:])
	kept := FitHistory(tok, system, history, budget)
	if len(kept) != 1 || kept[0].Content != "b" {
		t.Fatalf("kept=%+v", kept)
	}
}
