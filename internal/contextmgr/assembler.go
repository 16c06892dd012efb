package contextmgr

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"flowboard/internal/board"
	"flowboard/internal/chat"
	"flowboard/internal/defaults"
)

// TaskLister reads the board snapshot embedded into the system message.
type TaskLister interface {
	List(ctx context.Context) ([]board.Task, error)
}

// Assembler 组装发给模型的消息：系统提示 + 看板快照 + 客户端历史
// Assembler builds the model-facing messages: persona and board snapshot
// in one system message, then the client history.
type Assembler struct {
	SystemPrompt string
	Tasks        TaskLister
	Tokenizer    *Tokenizer
	// TokenLimit caps system + history; 0 disables trimming.
	TokenLimit int
	logger     *zap.Logger
}

func New(systemPrompt string, tasks TaskLister, tok *Tokenizer, tokenLimit int, logger *zap.Logger) *Assembler {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaults.SystemPrompt
	}
	if tok == nil {
		tok = DefaultTokenizer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		SystemPrompt: strings.TrimSpace(systemPrompt),
		Tasks:        tasks,
		Tokenizer:    tok,
		TokenLimit:   tokenLimit,
		logger:       logger,
	}
}

// Build returns [system] + history. A failed board read is logged and
// rendered the same way as an empty board.
func (a *Assembler) Build(ctx context.Context, history []chat.Message) []chat.Message {
	var tasks []board.Task
	if a.Tasks != nil {
		list, err := a.Tasks.List(ctx)
		if err != nil {
			a.logger.Warn("board snapshot unavailable, assuming empty board", zap.Error(err))
		} else {
			tasks = list
		}
	}
	system := chat.Message{Role: chat.RoleSystem, Content: a.SystemPrompt + RenderTasks(tasks)}

	kept := FitHistory(a.Tokenizer, system, history, a.TokenLimit)
	if dropped := len(history) - len(kept); dropped > 0 {
		a.logger.Info("trimmed conversation history",
			zap.Int("dropped", dropped),
			zap.Int("token_limit", a.TokenLimit),
		)
	}

	out := make([]chat.Message, 0, len(kept)+1)
	out = append(out, system)
	out = append(out, kept...)
	return out
}

// RenderTasks 把看板快照渲染成系统提示后缀
// RenderTasks renders the snapshot as the suffix of the system prompt, one
// numbered line per task in board order.
func RenderTasks(tasks []board.Task) string {
	if len(tasks) == 0 {
		return defaults.EmptyBoardNote
	}
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		lines = append(lines, taskLine(i+1, t))
	}
	return defaults.BoardHeader + strings.Join(lines, "\n")
}

func taskLine(n int, t board.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. \"%s\" — Status: %s, Priority: %s", n, t.Title, t.Status, t.Priority)
	if t.Description != "" {
		b.WriteString(", Description: ")
		b.WriteString(t.Description)
	}
	if t.DueDate != nil && *t.DueDate != "" {
		b.WriteString(", Due: ")
		b.WriteString(*t.DueDate)
	}
	if len(t.Labels) > 0 {
		b.WriteString(", Labels: ")
		b.WriteString(strings.Join(t.Labels, ", "))
	}
	return b.String()
}

// FitHistory drops the oldest history messages until system + history fits
// within limit tokens. The newest message is always kept, and the result never
// starts with an assistant message when an earlier cut would leave one dangling.
func FitHistory(tok *Tokenizer, system chat.Message, history []chat.Message, limit int) []chat.Message {
	if limit <= 0 || len(history) == 0 {
		return history
	}
	budget := limit - tok.Count([]chat.Message{system})
	sizes := make([]int, len(history))
	total := 0
	for i, m := range history {
		sizes[i] = tok.CountMessage(m)
		total += sizes[i]
	}

	start := 0
	for total > budget && start < len(history)-1 {
		total -= sizes[start]
		start++
	}
	if start == 0 {
		return history
	}
	for start < len(history)-1 && history[start].Role == chat.RoleAssistant {
		start++
	}
	return history[start:]
}
