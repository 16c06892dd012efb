package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flowboard/internal/board"
	"flowboard/internal/chat"
	"flowboard/internal/chatclient"
	"flowboard/internal/i18n"
)

// PanelID 面板标识
// PanelID identifies the focused panel
type PanelID int

const (
	PanelChat PanelID = iota
	PanelBoard
)

// --- Tea Messages ---

// TasksLoadedMsg 看板数据加载完成
// TasksLoadedMsg carries a fresh copy of the board
type TasksLoadedMsg struct {
	Tasks []board.Task
	Err   error
}

// ContentMsg 流式文本块
// ContentMsg is a streamed assistant fragment
type ContentMsg struct{ Text string }

// TasksChangedMsg 助手修改了看板
// TasksChangedMsg reports the actions the assistant applied
type TasksChangedMsg struct{ Actions []chat.ActionRecord }

// TurnDoneMsg 回合完成
// TurnDoneMsg indicates a turn is done
type TurnDoneMsg struct{ Err error }

// streamEvent pairs a turn message with the channel it came from.
type streamEvent struct {
	msg tea.Msg
	ch  <-chan tea.Msg
}

// App Bubble Tea 主 Model
// App is the main Bubble Tea model: board on the left, chat on the right.
type App struct {
	ctx    context.Context
	client *chatclient.Client

	// 布局 / Layout
	width  int
	height int

	focus    PanelID
	chatView viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// 数据 / Data
	tasks      []board.Task
	selected   int
	transcript *chatclient.Transcript

	// 状态 / State
	streaming bool
	status    string
	lastError string
	gateway   string

	// 配置 / Config
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建 TUI 应用
// NewApp creates a new TUI application
func NewApp(ctx context.Context, client *chatclient.Client, gateway string, locale *i18n.I18n) App {
	if locale == nil {
		locale = i18n.Global()
	}
	ti := textinput.New()
	ti.Placeholder = locale.T("input.placeholder")
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		ctx:        ctx,
		client:     client,
		focus:      PanelChat,
		input:      ti,
		spinner:    sp,
		transcript: &chatclient.Transcript{},
		gateway:    gateway,
		theme:      DefaultTheme(),
		keys:       DefaultKeyMap(),
		locale:     locale,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.loadTasks())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.SwitchFocus):
			a.toggleFocus()
			return a, nil
		case key.Matches(msg, a.keys.Refresh):
			return a, a.loadTasks()
		case key.Matches(msg, a.keys.PageUp):
			a.chatView.HalfViewUp()
			return a, nil
		case key.Matches(msg, a.keys.PageDown):
			a.chatView.HalfViewDown()
			return a, nil
		}
		if a.focus == PanelBoard {
			switch {
			case key.Matches(msg, a.keys.CardUp):
				a.moveSelection(-1)
			case key.Matches(msg, a.keys.CardDown):
				a.moveSelection(1)
			}
			return a, nil
		}
		if key.Matches(msg, a.keys.Submit) {
			return a.submit()
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case TasksLoadedMsg:
		if msg.Err != nil {
			a.lastError = a.locale.T("status.refresh_error", msg.Err)
			return a, nil
		}
		a.lastError = ""
		a.tasks = msg.Tasks
		a.clampSelection()
		return a, nil

	case streamEvent:
		next, cmd := a.Update(msg.msg)
		app := next.(App)
		if _, done := msg.msg.(TurnDoneMsg); done {
			return app, cmd
		}
		return app, tea.Batch(cmd, waitForStream(msg.ch))

	case ContentMsg:
		a.refreshChat()
		return a, nil

	case TasksChangedMsg:
		a.status = a.locale.T("status.tasks_changed", len(msg.Actions))
		return a, a.loadTasks()

	case TurnDoneMsg:
		a.streaming = false
		if msg.Err != nil {
			a.lastError = msg.Err.Error()
		}
		a.refreshChat()
		return a, nil

	case spinner.TickMsg:
		if !a.streaming {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// 更新输入区 / Update input area
	if a.focus == PanelChat {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// submit starts a chat turn. The send affordance is disabled while streaming.
func (a App) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.input.Value())
	if text == "" {
		return a, nil
	}
	if a.streaming {
		a.status = a.locale.T("chat.busy")
		return a, nil
	}
	a.input.Reset()
	a.streaming = true
	a.status = ""
	a.lastError = ""

	ch := make(chan tea.Msg, 64)
	ctx, client, tr := a.ctx, a.client, a.transcript
	go func() {
		defer close(ch)
		err := client.Send(ctx, tr, text, chatclient.HandlerFuncs{
			Content:      func(s string) { ch <- ContentMsg{Text: s} },
			TasksChanged: func(actions []chat.ActionRecord) { ch <- TasksChangedMsg{Actions: actions} },
		})
		ch <- TurnDoneMsg{Err: err}
	}()

	// The user turn is already in the transcript once Send starts; show it
	// right away even before the first fragment arrives.
	a.refreshChatWithPending(text)
	return a, tea.Batch(waitForStream(ch), a.spinner.Tick)
}

func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return streamEvent{msg: msg, ch: ch}
	}
}

func (a App) loadTasks() tea.Cmd {
	ctx, client := a.ctx, a.client
	return func() tea.Msg {
		tasks, err := client.Tasks(ctx)
		return TasksLoadedMsg{Tasks: tasks, Err: err}
	}
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	boardWidth, chatWidth := a.splitWidths()
	statusHeight := 1
	bodyHeight := a.height - statusHeight
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	selectedID := ""
	if a.focus == PanelBoard && a.selected < len(a.tasks) {
		selectedID = a.orderedTasks()[a.selected].ID
	}
	boardView := renderBoard(a.tasks, boardWidth, bodyHeight, selectedID, a.theme, a.locale)

	chatTitle := a.theme.TitleStyle.Render(" " + a.locale.T("panel.chat"))
	chatPanel := lipgloss.JoinVertical(lipgloss.Left,
		chatTitle,
		a.chatView.View(),
		a.theme.InputStyle.Width(chatWidth).Render(a.input.View()),
	)
	chatPanel = a.theme.SidebarStyle.Width(chatWidth).Height(bodyHeight).Render(chatPanel)

	main := lipgloss.JoinHorizontal(lipgloss.Top, boardView, chatPanel)
	return lipgloss.JoinVertical(lipgloss.Left, main, a.renderStatusBar(a.width))
}

// --- 内部方法 / Internal methods ---

func (a App) splitWidths() (boardWidth, chatWidth int) {
	chatWidth = a.width * 35 / 100
	if chatWidth < 30 {
		chatWidth = 30
	}
	if chatWidth > 60 {
		chatWidth = 60
	}
	boardWidth = a.width - chatWidth - 1
	if boardWidth < 48 {
		boardWidth = 48
	}
	return boardWidth, chatWidth
}

func (a *App) relayout() {
	_, chatWidth := a.splitWidths()
	panelHeight := a.height - 6
	if panelHeight < 3 {
		panelHeight = 3
	}
	a.chatView = viewport.New(chatWidth-2, panelHeight)
	a.input.Width = chatWidth - 6
	a.refreshChat()
}

func (a *App) toggleFocus() {
	if a.focus == PanelChat {
		a.focus = PanelBoard
		a.input.Blur()
		return
	}
	a.focus = PanelChat
	a.input.Focus()
}

// orderedTasks lists tasks column by column, the order cards are drawn in.
func (a App) orderedTasks() []board.Task {
	out := make([]board.Task, 0, len(a.tasks))
	for _, col := range board.Columns {
		for _, t := range a.tasks {
			if t.Status == col.ID {
				out = append(out, t)
			}
		}
	}
	return out
}

func (a *App) moveSelection(delta int) {
	if len(a.tasks) == 0 {
		a.selected = 0
		return
	}
	a.selected = (a.selected + delta + len(a.tasks)) % len(a.tasks)
}

func (a *App) clampSelection() {
	if a.selected >= len(a.tasks) {
		a.selected = max(len(a.tasks)-1, 0)
	}
}

func (a *App) refreshChat() {
	a.refreshChatWithPending("")
}

// refreshChatWithPending renders the transcript; pending is a user line that
// may not have reached the transcript yet.
func (a *App) refreshChatWithPending(pending string) {
	msgs := a.transcript.Messages()
	if pending != "" {
		if n := len(msgs); n == 0 || msgs[n-1].Role != chat.RoleUser || msgs[n-1].Content != pending {
			msgs = append(msgs, chat.Message{Role: chat.RoleUser, Content: pending})
		}
	}
	a.chatView.SetContent(a.renderChat(msgs))
	a.chatView.GotoBottom()
}

func (a App) renderChat(msgs []chat.Message) string {
	width := a.chatView.Width
	if len(msgs) == 0 {
		return a.theme.MutedStyle.Width(max(width, 20)).Render(a.locale.T("chat.welcome"))
	}
	parts := make([]string, 0, len(msgs)+1)
	for i, m := range msgs {
		switch m.Role {
		case chat.RoleUser:
			parts = append(parts, a.theme.UserStyle.Render("👤 ")+m.Content)
		case chat.RoleAssistant:
			// The message still being streamed is shown raw; glamour runs once it completes.
			if a.streaming && i == len(msgs)-1 {
				parts = append(parts, "🤖 "+m.Content)
				continue
			}
			parts = append(parts, RenderMarkdown(m.Content, width))
		}
	}
	if a.streaming && msgs[len(msgs)-1].Role == chat.RoleUser {
		parts = append(parts, a.spinner.View()+" "+a.locale.T("status.thinking"))
	}
	return strings.Join(parts, "\n\n")
}

func (a App) renderStatusBar(width int) string {
	status := a.locale.T("status.ready")
	switch {
	case a.lastError != "":
		status = a.theme.ErrorStyle.Render(a.lastError)
	case a.streaming:
		status = a.spinner.View() + " " + a.locale.T("status.thinking")
	case a.status != "":
		status = a.status
	}

	left := fmt.Sprintf(" %s · %s", status, strings.Join([]string{
		a.locale.T("keys.tab"), a.locale.T("keys.enter"), a.locale.T("keys.ctrl_r"), a.locale.T("keys.esc"),
	}, " · "))
	right := fmt.Sprintf("%s  ", a.gateway)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := left + strings.Repeat(" ", gap) + right
	return a.theme.StatusBarStyle.Width(width).Render(bar)
}

// Run 启动 Bubble Tea TUI
// Run starts the Bubble Tea TUI application
func Run(ctx context.Context, client *chatclient.Client, gateway string, locale *i18n.I18n) error {
	app := NewApp(ctx, client, gateway, locale)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
