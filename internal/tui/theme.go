package tui

import (
	"github.com/charmbracelet/lipgloss"

	"flowboard/internal/board"
)

// palette 的颜色同时适配亮/暗终端背景
// palette colors adapt to light and dark terminal backgrounds.
type palette struct {
	Brand    lipgloss.AdaptiveColor
	Info     lipgloss.AdaptiveColor
	Progress lipgloss.AdaptiveColor
	Done     lipgloss.AdaptiveColor
	Urgent   lipgloss.AdaptiveColor
	High     lipgloss.AdaptiveColor
	Text     lipgloss.AdaptiveColor
	Muted    lipgloss.AdaptiveColor
	Border   lipgloss.AdaptiveColor
	Bar      lipgloss.AdaptiveColor
}

var defaultPalette = palette{
	Brand:    lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#8B5CF6"},
	Info:     lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"},
	Progress: lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"},
	Done:     lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"},
	Urgent:   lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
	High:     lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"},
	Text:     lipgloss.AdaptiveColor{Light: "#111827", Dark: "#E5E7EB"},
	Muted:    lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
	Border:   lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"},
	Bar:      lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
}

// Theme holds the styles of the board screen.
type Theme struct {
	colors palette

	TitleStyle     lipgloss.Style
	StatusBarStyle lipgloss.Style
	SidebarStyle   lipgloss.Style
	InputStyle     lipgloss.Style
	ErrorStyle     lipgloss.Style
	MutedStyle     lipgloss.Style
	ColumnStyle    lipgloss.Style
	CardStyle      lipgloss.Style
	SelectedStyle  lipgloss.Style
	UserStyle      lipgloss.Style
}

func DefaultTheme() Theme {
	c := defaultPalette
	t := Theme{colors: c}

	t.TitleStyle = lipgloss.NewStyle().Foreground(c.Brand).Bold(true)
	t.StatusBarStyle = lipgloss.NewStyle().Foreground(c.Muted).Background(c.Bar)
	t.SidebarStyle = lipgloss.NewStyle().
		Foreground(c.Text).
		BorderLeft(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(c.Border)
	t.InputStyle = lipgloss.NewStyle().
		Foreground(c.Text).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(c.Border)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(c.Urgent).Bold(true)
	t.MutedStyle = lipgloss.NewStyle().Foreground(c.Muted)

	t.ColumnStyle = lipgloss.NewStyle().
		Foreground(c.Text).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c.Border).
		Padding(0, 1)
	t.CardStyle = lipgloss.NewStyle().
		Foreground(c.Text).
		BorderLeft(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(c.Border).
		PaddingLeft(1)
	// Selection only recolors the bar so card height never changes.
	t.SelectedStyle = t.CardStyle.BorderForeground(c.Brand)

	t.UserStyle = lipgloss.NewStyle().Foreground(c.Info).Bold(true)
	return t
}

// PriorityStyle 优先级徽标颜色 / PriorityStyle colors a priority badge.
func (t Theme) PriorityStyle(p board.Priority) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch p {
	case board.PriorityUrgent:
		return style.Foreground(t.colors.Urgent)
	case board.PriorityHigh:
		return style.Foreground(t.colors.High)
	case board.PriorityMedium:
		return style.Foreground(t.colors.Info)
	default:
		return style.Foreground(t.colors.Muted)
	}
}

// HeaderStyle colors a column header after its status.
func (t Theme) HeaderStyle(s board.Status) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch s {
	case board.StatusInProgress:
		return style.Foreground(t.colors.Progress)
	case board.StatusDone:
		return style.Foreground(t.colors.Done)
	default:
		return style.Foreground(t.colors.Brand)
	}
}
