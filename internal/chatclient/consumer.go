package chatclient

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"flowboard/internal/chat"
)

const (
	dataPrefix = "data: "
	doneToken  = "[DONE]"

	// maxPendingBytes caps a payload held back for reassembly.
	maxPendingBytes = 1 << 20
)

// Handler receives the two channels multiplexed on the chat stream.
type Handler interface {
	// OnContent is called with each assistant text fragment, in order.
	OnContent(fragment string)
	// OnTasksChanged is called when the gateway reports board mutations.
	OnTasksChanged(actions []chat.ActionRecord)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are ignored.
type HandlerFuncs struct {
	Content      func(fragment string)
	TasksChanged func(actions []chat.ActionRecord)
}

func (h HandlerFuncs) OnContent(fragment string) {
	if h.Content != nil {
		h.Content(fragment)
	}
}

func (h HandlerFuncs) OnTasksChanged(actions []chat.ActionRecord) {
	if h.TasksChanged != nil {
		h.TasksChanged(actions)
	}
}

// Consumer 增量解析网关的 SSE 字节流
// Consumer parses the gateway's event stream incrementally. A data line whose
// JSON does not parse is assumed to be cut short and is held back, then
// retried joined with the next line. It is never reported as an error.
type Consumer struct {
	handler Handler
	pending string
	done    bool
}

// NewConsumer creates a consumer delivering frames to h.
func NewConsumer(h Handler) *Consumer {
	if h == nil {
		h = HandlerFuncs{}
	}
	return &Consumer{handler: h}
}

// Consume reads body until the terminator token or EOF. Only transport
// errors are returned.
func (c *Consumer) Consume(body io.Reader) error {
	reader := bufio.NewReader(body)
	for !c.done {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read chat stream: %w", err)
		}
		// At EOF line holds whatever trailed the last newline.
		if line != "" {
			c.processLine(line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	c.pending = ""
	return nil
}

// Done reports whether the terminator token was seen.
func (c *Consumer) Done() bool {
	return c.done
}

func (c *Consumer) processLine(line string) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	if c.pending != "" {
		joined := c.pending + "\n" + line
		if gjson.Valid(joined) {
			c.pending = ""
			c.handlePayload(joined)
			return
		}
		if !isDataLine(line) && len(joined) <= maxPendingBytes {
			c.pending = joined
			return
		}
		// A fresh frame started, the held-back one was never going to parse.
		c.pending = ""
	}

	if strings.HasPrefix(line, ":") || strings.TrimSpace(line) == "" {
		return
	}
	if !isDataLine(line) {
		return
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneToken {
		c.done = true
		return
	}
	if !gjson.Valid(payload) {
		c.pending = payload
		return
	}
	c.handlePayload(payload)
}

func (c *Consumer) handlePayload(payload string) {
	if gjson.Get(payload, "tasks_changed").Bool() {
		c.handler.OnTasksChanged(decodeActions(gjson.Get(payload, "actions")))
		return
	}
	if content := gjson.Get(payload, "choices.0.delta.content").String(); content != "" {
		c.handler.OnContent(content)
	}
}

func decodeActions(v gjson.Result) []chat.ActionRecord {
	if !v.IsArray() {
		return nil
	}
	var actions []chat.ActionRecord
	if err := json.Unmarshal([]byte(v.Raw), &actions); err != nil {
		return nil
	}
	return actions
}

func isDataLine(line string) bool {
	return strings.HasPrefix(line, dataPrefix)
}
