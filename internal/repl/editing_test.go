package repl

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "fits", in: "Draft roadmap", width: 20, want: "Draft roadmap"},
		{name: "no_limit", in: "Draft roadmap", width: 0, want: "Draft roadmap"},
		{name: "ascii_cut", in: "Write the full roadmap", width: 8, want: "Write t…"},
		{name: "newline_flattened", in: "a\nb", width: 10, want: "a b"},
		{name: "one_cell", in: "abc", width: 1, want: "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateWidth(tt.in, tt.width); got != tt.want {
				t.Fatalf("truncateWidth(%q, %d)=%q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncateWidth_WideRunes(t *testing.T) {
	got := truncateWidth("修复登录页面的样式问题", 9)
	if w := runewidth.StringWidth(got); w > 9 {
		t.Fatalf("width=%d > 9 for %q", w, got)
	}
	if got == "" || []rune(got)[len([]rune(got))-1] != '…' {
		t.Fatalf("want trailing ellipsis, got %q", got)
	}
}
