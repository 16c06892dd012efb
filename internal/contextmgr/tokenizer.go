package contextmgr

import (
	"strings"
	"sync"
	"unicode"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"flowboard/internal/chat"
)

const (
	defaultEncoding = "cl100k_base"

	// perMessageTokens is the framing cost of one chat message.
	perMessageTokens = 4
	// replyPrimingTokens is charged once per request for the assistant reply header.
	replyPrimingTokens = 3
)

// Tokenizer 估算历史消息占用的 token 数
// Tokenizer measures chat messages in tokens. Without a BPE table (offline,
// unknown encoding) it estimates from the script of each rune instead.
type Tokenizer struct {
	mu       sync.Mutex
	enc      *tiktoken.Tiktoken
	encoding string
}

var defaultTokenizer = sync.OnceValue(func() *Tokenizer {
	return NewTokenizer(defaultEncoding)
})

// DefaultTokenizer returns a shared cl100k_base tokenizer.
func DefaultTokenizer() *Tokenizer {
	return defaultTokenizer()
}

// NewTokenizer loads encoding, falling back to the estimate when it cannot be loaded.
func NewTokenizer(encoding string) *Tokenizer {
	t := &Tokenizer{encoding: encoding}
	if enc, err := tiktoken.GetEncoding(encoding); err == nil {
		t.enc = enc
	}
	return t
}

// NewTokenizerForModel 按模型名挑选编码 / picks the encoding for a gateway model name.
func NewTokenizerForModel(model string) *Tokenizer {
	return NewTokenizer(encodingForModel(model))
}

func estimatingTokenizer() *Tokenizer {
	return &Tokenizer{encoding: defaultEncoding}
}

// IsPrecise reports whether counts come from the BPE table.
func (t *Tokenizer) IsPrecise() bool {
	return t.enc != nil
}

func (t *Tokenizer) Encoding() string {
	return t.encoding
}

// Count 返回一次请求中这些消息的 token 总数
// Count is the cost of sending messages as one request, reply priming included.
func (t *Tokenizer) Count(messages []chat.Message) int {
	if len(messages) == 0 {
		return 0
	}
	total := replyPrimingTokens
	for _, m := range messages {
		total += t.CountMessage(m)
	}
	return total
}

// CountMessage is the cost of a single message. History reaching the
// assembler only carries role and content.
func (t *Tokenizer) CountMessage(m chat.Message) int {
	return perMessageTokens + t.CountText(m.Role) + t.CountText(m.Content)
}

func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.enc == nil {
		return estimateTokens(text)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// estimateTokens charges ideographic and syllabic scripts about 1.5 tokens
// per rune and everything else about 4 bytes per token.
func estimateTokens(text string) int {
	var wide, narrow int
	for _, r := range text {
		if isWideScript(r) {
			wide++
		} else {
			narrow++
		}
	}
	n := (wide*3)/2 + (narrow+3)/4
	if n < 1 {
		n = 1
	}
	return n
}

func isWideScript(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
		(r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF)
}

// encodingForModel maps a model name to its tiktoken encoding. Gateway names
// such as openai/gpt-4o-mini carry a vendor prefix; non-OpenAI models are
// approximated with cl100k_base.
func encodingForModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	switch {
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "chatgpt-4o"),
		strings.HasPrefix(m, "gpt-4.1"), strings.HasPrefix(m, "gpt-5"),
		strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return "o200k_base"
	default:
		return defaultEncoding
	}
}
