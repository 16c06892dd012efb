package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"flowboard/internal/chat"
)

const relayBufferSize = 32 * 1024

// tasksChangedFrame encodes the control frame that precedes the model stream
// whenever tools ran: data: {"tasks_changed":true,"actions":[...]}\n\n
func tasksChangedFrame(actions []chat.ActionRecord) ([]byte, error) {
	if actions == nil {
		actions = []chat.ActionRecord{}
	}
	payload, err := json.Marshal(chat.TasksChangedEvent{TasksChanged: true, Actions: actions})
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// relay 把上游 SSE 字节原样转发给客户端
// relay copies the upstream body to the client as bytes arrive, flushing
// after every read. prefix, when set, goes out before the first upstream byte.
// The body is closed on return.
func (s *Server) relay(ctx context.Context, w http.ResponseWriter, prefix []byte, body io.ReadCloser) {
	defer body.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	flush := func() {
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			s.logger.Debug("flush failed", zap.Error(err))
		}
	}

	if len(prefix) > 0 {
		if _, err := w.Write(prefix); err != nil {
			s.logger.Debug("client closed before control frame", zap.Error(err))
			return
		}
		flush()
	}

	buf := make([]byte, relayBufferSize)
	total := 0
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				s.logger.Debug("client closed during relay", zap.Int("bytes", total), zap.Error(werr))
				return
			}
			total += n
			s.metrics.AddRelayBytes(n)
			flush()
		}
		if err == io.EOF {
			s.logger.Debug("relay finished", zap.Int("bytes", total))
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("upstream stream broke", zap.Int("bytes", total), zap.Error(err))
			}
			return
		}
	}
}

// contentFrames renders text as one content delta plus the terminator, in
// the same framing the model backend streams.
func contentFrames(text string) []byte {
	chunk, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{
			"index": 0,
			"delta": map[string]string{"content": text},
		}},
	})
	out := make([]byte, 0, len(chunk)+32)
	out = append(out, "data: "...)
	out = append(out, chunk...)
	out = append(out, "\n\ndata: [DONE]\n\n"...)
	return out
}
