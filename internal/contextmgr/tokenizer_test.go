package contextmgr

import (
	"testing"

	"flowboard/internal/chat"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "empty_still_one", in: "", want: 1},
		{name: "ascii", in: "Draft roadmap", want: 4},
		{name: "cjk", in: "整理路线图", want: 7},
		{name: "mixed", in: "Ship 发布", want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateTokens(tt.in); got != tt.want {
				t.Fatalf("estimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestEstimatingTokenizerCounts(t *testing.T) {
	tok := estimatingTokenizer()
	if tok.IsPrecise() {
		t.Fatal("estimating tokenizer should not report precise counts")
	}
	if tok.CountText("") != 0 {
		t.Fatal("empty text should cost nothing")
	}

	m := chat.Message{Role: chat.RoleUser, Content: "Draft roadmap"}
	one := tok.CountMessage(m)
	if one != perMessageTokens+tok.CountText("user")+tok.CountText("Draft roadmap") {
		t.Fatalf("CountMessage = %d", one)
	}
	if got := tok.Count([]chat.Message{m, m}); got != replyPrimingTokens+2*one {
		t.Fatalf("Count = %d, want %d", got, replyPrimingTokens+2*one)
	}
	if tok.Count(nil) != 0 {
		t.Fatal("no messages should cost nothing")
	}
}

func TestEncodingForModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"google/gemini-3-flash-preview", "cl100k_base"},
		{"openai/gpt-4o-mini", "o200k_base"},
		{"openai/gpt-5-mini", "o200k_base"},
		{"gpt-3.5-turbo", "cl100k_base"},
		{"o3-mini", "o200k_base"},
		{"  GPT-4.1  ", "o200k_base"},
		{"", "cl100k_base"},
	}
	for _, tt := range tests {
		if got := encodingForModel(tt.model); got != tt.want {
			t.Errorf("encodingForModel(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}
