package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"flowboard/internal/board"
	"flowboard/internal/i18n"
)

// RenderMarkdown 使用 Glamour 渲染 markdown 文本
// RenderMarkdown renders markdown text using Glamour
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

var priorityOrder = []board.Priority{
	board.PriorityUrgent, board.PriorityHigh, board.PriorityMedium, board.PriorityLow,
}

// StatsMarkdown 看板统计的 markdown 摘要
// StatsMarkdown summarizes board statistics as markdown.
func StatsMarkdown(stats board.Stats, msgs *i18n.I18n) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", msgs.T("panel.stats"))
	fmt.Fprintf(&b, "- %s\n", msgs.T("stats.total", stats.Total))
	fmt.Fprintf(&b, "- %s\n", msgs.T("stats.completion", stats.CompletionPercent))
	for _, col := range board.Columns {
		fmt.Fprintf(&b, "- %s %s: %d\n", col.Icon, msgs.T("column."+string(col.ID)), stats.ByStatus[col.ID])
	}
	b.WriteString("\n")
	for _, p := range priorityOrder {
		fmt.Fprintf(&b, "- %s\n", msgs.T("stats.priority", p, stats.ByPriority[p], stats.PriorityPercent[p]))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderCard draws one task; width is the column's inner width.
func renderCard(t board.Task, width int, selected bool, theme Theme) string {
	style := theme.CardStyle
	if selected {
		style = theme.SelectedStyle
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(t.Title),
	}
	meta := theme.PriorityStyle(t.Priority).Render(string(t.Priority))
	if t.DueDate != nil {
		meta += theme.MutedStyle.Render(" · " + *t.DueDate)
	}
	lines = append(lines, meta)
	if len(t.Labels) > 0 {
		lines = append(lines, theme.MutedStyle.Render(strings.Join(t.Labels, ", ")))
	}
	return style.Width(width - 1).Render(strings.Join(lines, "\n"))
}

// renderBoard lays the three columns side by side. selectedID may be empty.
func renderBoard(tasks []board.Task, width, height int, selectedID string, theme Theme, msgs *i18n.I18n) string {
	cols := len(board.Columns)
	colWidth := width / cols
	if colWidth < 16 {
		colWidth = 16
	}
	inner := colWidth - 4 // border + padding

	rendered := make([]string, 0, cols)
	for _, col := range board.Columns {
		var cards []string
		for _, t := range tasks {
			if t.Status != col.ID {
				continue
			}
			cards = append(cards, renderCard(t, inner, t.ID == selectedID, theme))
		}
		header := theme.HeaderStyle(col.ID).Render(fmt.Sprintf("%s %s (%d)", col.Icon, msgs.T("column."+string(col.ID)), len(cards)))
		body := theme.MutedStyle.Render(msgs.T("board.empty"))
		if len(cards) > 0 {
			body = strings.Join(cards, "\n")
		}
		box := theme.ColumnStyle.
			Width(colWidth - 2).
			Height(max(height-2, 3)).
			MaxHeight(max(height, 3)).
			Render(header + "\n\n" + body)
		rendered = append(rendered, box)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
