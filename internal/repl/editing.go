package repl

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateWidth shortens s to at most width terminal cells, marking the cut
// with an ellipsis. Wide runes count as two cells.
//
// truncateWidth 按终端显示列宽截断字符串，中文等宽字符按 2 列计算。
func truncateWidth(s string, width int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(s, width, "…")
}
