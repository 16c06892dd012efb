package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"flowboard/internal/board"
	"flowboard/internal/chat"
	"flowboard/internal/chatclient"
	"flowboard/internal/i18n"
	"flowboard/internal/tui"
)

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[90m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
)

var replCommands = []struct {
	name string
	key  string
}{
	{"/board", "cmd.board"},
	{"/stats", "cmd.stats"},
	{"/clear", "cmd.clear"},
	{"/help", "cmd.help"},
	{"/exit", "cmd.exit"},
}

// Options 构造 Loop 的依赖 / Options wires a Loop.
type Options struct {
	Client   *chatclient.Client
	Input    LineInput
	Out      io.Writer
	Messages *i18n.I18n
	// Width is the render width for markdown, 0 means 80.
	Width int
	// Color enables ANSI styling and glamour rendering.
	Color bool
}

// Loop holds REPL state: gateway client, transcript and output.
// Loop 持有 REPL 状态：网关客户端、对话记录与输出。
type Loop struct {
	client     *chatclient.Client
	input      LineInput
	out        io.Writer
	msgs       *i18n.I18n
	width      int
	color      bool
	transcript chatclient.Transcript
}

// NewLoop builds a REPL loop.
func NewLoop(opts Options) *Loop {
	l := &Loop{
		client: opts.Client,
		input:  opts.Input,
		out:    opts.Out,
		msgs:   opts.Messages,
		width:  opts.Width,
		color:  opts.Color,
	}
	if l.out == nil {
		l.out = os.Stdout
	}
	if l.msgs == nil {
		l.msgs = i18n.Global()
	}
	if l.width <= 0 {
		l.width = 80
	}
	return l
}

// Run reads lines until EOF or /exit. Ctrl+C clears the current line.
func (l *Loop) Run(ctx context.Context) error {
	if l.client == nil || l.input == nil {
		return fmt.Errorf("repl: client and input are required")
	}
	l.printCommands()
	for {
		line, err := l.input.ReadLine(l.prompt())
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(l.out)
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}
		exit, err := l.HandleLine(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.printError(err)
		}
		if exit {
			return nil
		}
	}
}

// HandleLine runs one command or chat turn and reports whether to exit.
func (l *Loop) HandleLine(ctx context.Context, line string) (bool, error) {
	input := strings.TrimSpace(line)
	if input == "" {
		return false, nil
	}
	if strings.HasPrefix(input, "/") {
		if handled, exit, err := l.handleCommand(ctx, input); handled {
			return exit, err
		}
	}
	return false, l.turn(ctx, input)
}

func (l *Loop) handleCommand(ctx context.Context, input string) (handled, exit bool, err error) {
	switch strings.Fields(input)[0] {
	case "/exit", "/quit":
		return true, true, nil
	case "/help":
		l.printCommands()
		return true, false, nil
	case "/clear":
		l.transcript.Reset()
		return true, false, nil
	case "/board":
		return true, false, l.printBoard(ctx)
	case "/stats":
		return true, false, l.printStats(ctx)
	}
	return false, false, nil
}

func (l *Loop) turn(ctx context.Context, input string) error {
	var actions []chat.ActionRecord
	changed := false
	err := l.client.Send(ctx, &l.transcript, input, chatclient.HandlerFuncs{
		Content: func(fragment string) {
			_, _ = io.WriteString(l.out, fragment)
		},
		TasksChanged: func(a []chat.ActionRecord) {
			changed = true
			actions = append(actions, a...)
		},
	})
	fmt.Fprintln(l.out)
	if err != nil {
		return err
	}
	if changed {
		l.printDim(l.msgs.T("status.tasks_changed", len(actions)))
		return l.printBoard(ctx)
	}
	return nil
}

func (l *Loop) printBoard(ctx context.Context) error {
	tasks, err := l.client.Tasks(ctx)
	if err != nil {
		return err
	}
	l.printMarkdown(boardMarkdown(tasks, l.msgs, l.width))
	return nil
}

func (l *Loop) printStats(ctx context.Context) error {
	stats, err := l.client.Stats(ctx)
	if err != nil {
		return err
	}
	l.printMarkdown(tui.StatsMarkdown(stats, l.msgs))
	return nil
}

func (l *Loop) printMarkdown(md string) {
	if l.color {
		md = tui.RenderMarkdown(md, l.width)
	}
	fmt.Fprintln(l.out, md)
}

func (l *Loop) prompt() string {
	if l.color {
		return ansiGreen + "flowboard> " + ansiReset
	}
	return "flowboard> "
}

func (l *Loop) printCommands() {
	fmt.Fprintln(l.out, "commands:")
	for _, c := range replCommands {
		fmt.Fprintf(l.out, "  %-8s %s\n", c.name, l.msgs.T(c.key))
	}
}

func (l *Loop) printDim(msg string) {
	if l.color {
		fmt.Fprintf(l.out, "%s%s%s\n", ansiDim, msg, ansiReset)
		return
	}
	fmt.Fprintln(l.out, msg)
}

func (l *Loop) printError(err error) {
	if l.color {
		fmt.Fprintf(l.out, "%serror: %v%s\n", ansiRed, err, ansiReset)
		return
	}
	fmt.Fprintf(l.out, "error: %v\n", err)
}

// boardMarkdown lists tasks per column; titles are cut to fit width.
func boardMarkdown(tasks []board.Task, msgs *i18n.I18n, width int) string {
	var b strings.Builder
	for _, col := range board.Columns {
		var inCol []board.Task
		for _, t := range tasks {
			if t.Status == col.ID {
				inCol = append(inCol, t)
			}
		}
		fmt.Fprintf(&b, "## %s %s (%d)\n\n", col.Icon, msgs.T("column."+string(col.ID)), len(inCol))
		if len(inCol) == 0 {
			fmt.Fprintf(&b, "_%s_\n\n", msgs.T("board.empty"))
			continue
		}
		for _, t := range inCol {
			fmt.Fprintf(&b, "- **%s** · %s", truncateWidth(t.Title, width-20), t.Priority)
			if t.DueDate != nil {
				fmt.Fprintf(&b, " · %s", *t.DueDate)
			}
			if len(t.Labels) > 0 {
				fmt.Fprintf(&b, " · `%s`", strings.Join(t.Labels, "` `"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// UseColor reports whether the terminal should get ANSI styling.
func UseColor() bool {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("FLOWBOARD_NO_COLOR")) != "" {
		return false
	}
	return strings.ToLower(strings.TrimSpace(os.Getenv("TERM"))) != "dumb"
}
