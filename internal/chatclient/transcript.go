package chatclient

import (
	"strings"
	"sync"

	"flowboard/internal/chat"
)

// Transcript is the client-side conversation sent with every turn.
type Transcript struct {
	mu       sync.Mutex
	messages []chat.Message
}

// AppendUser adds a user turn.
func (t *Transcript) AppendUser(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, chat.Message{Role: chat.RoleUser, Content: content})
}

// UpsertAssistant extends the trailing assistant message in place, or starts
// a new one when the last message is not from the assistant.
func (t *Transcript) UpsertAssistant(fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.messages); n > 0 && t.messages[n-1].Role == chat.RoleAssistant {
		t.messages[n-1].Content += fragment
		return
	}
	t.messages = append(t.messages, chat.Message{Role: chat.RoleAssistant, Content: fragment})
}

// Messages returns a copy of the conversation.
func (t *Transcript) Messages() []chat.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]chat.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// LastAssistant returns the content of the trailing assistant message, if any.
func (t *Transcript) LastAssistant() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.messages); n > 0 && t.messages[n-1].Role == chat.RoleAssistant {
		return t.messages[n-1].Content
	}
	return ""
}

// Reset forgets the conversation.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func trimInput(s string) string {
	return strings.TrimSpace(s)
}
