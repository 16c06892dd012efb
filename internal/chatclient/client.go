package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"flowboard/internal/board"
	"flowboard/internal/chat"
	"flowboard/internal/i18n"
)

// ErrBusy is returned by Send while a previous answer is still streaming.
var ErrBusy = errors.New("a message is already being answered")

// Config 客户端配置 / Config configures a Client.
type Config struct {
	GatewayURL string
	HTTPClient *http.Client
	Messages   *i18n.I18n
	Logger     *zap.Logger
}

// Client talks to the FlowBoard gateway.
type Client struct {
	baseURL string
	http    *http.Client
	msgs    *i18n.I18n
	logger  *zap.Logger
	busy    atomic.Bool
}

// New creates a gateway client.
func New(cfg Config) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.GatewayURL), "/"),
		http:    cfg.HTTPClient,
		msgs:    cfg.Messages,
		logger:  cfg.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.msgs == nil {
		c.msgs = i18n.Global()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Busy reports whether a Send is in flight.
func (c *Client) Busy() bool {
	return c.busy.Load()
}

// Send 发送一轮对话并流式接收回复
// Send appends input to the transcript, posts the conversation and streams
// the answer into the transcript, mirroring every fragment to h. Failures
// are rendered as a single canned assistant message rather than returned;
// only ErrBusy and a cancelled ctx surface as errors.
func (c *Client) Send(ctx context.Context, tr *Transcript, input string, h Handler) error {
	input = trimInput(input)
	if input == "" {
		return nil
	}
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)
	if h == nil {
		h = HandlerFuncs{}
	}

	tr.AppendUser(input)
	emit := func(fragment string) {
		tr.UpsertAssistant(fragment)
		h.OnContent(fragment)
	}

	resp, err := c.postChat(ctx, tr.Messages())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("chat request failed", zap.Error(err))
		emit(c.msgs.T("chat.connection_error"))
		return nil
	}
	defer resp.Body.Close()

	if msg, ok := c.statusMessage(resp.StatusCode); !ok {
		c.logger.Warn("chat request rejected", zap.Int("status", resp.StatusCode))
		emit(msg)
		return nil
	}

	consumer := NewConsumer(HandlerFuncs{
		Content:      emit,
		TasksChanged: h.OnTasksChanged,
	})
	if err := consumer.Consume(resp.Body); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("chat stream broke", zap.Error(err))
		emit(c.msgs.T("chat.connection_error"))
	}
	return nil
}

// statusMessage returns the canned text for a failed status, ok is true on 2xx.
func (c *Client) statusMessage(status int) (string, bool) {
	switch {
	case status == http.StatusTooManyRequests:
		return c.msgs.T("chat.rate_limited"), false
	case status == http.StatusPaymentRequired:
		return c.msgs.T("chat.credits_out"), false
	case status < 200 || status >= 300:
		return c.msgs.T("chat.failed"), false
	}
	return "", true
}

func (c *Client) postChat(ctx context.Context, messages []chat.Message) (*http.Response, error) {
	payload, err := json.Marshal(chat.ChatRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	return c.http.Do(req)
}

// Tasks fetches the board, used to re-render after a tasks_changed event.
func (c *Client) Tasks(ctx context.Context) ([]board.Task, error) {
	var tasks []board.Task
	if err := c.getJSON(ctx, "/tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Stats fetches the board statistics.
func (c *Client) Stats(ctx context.Context) (board.Stats, error) {
	var stats board.Stats
	err := c.getJSON(ctx, "/tasks/stats", &stats)
	return stats, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
