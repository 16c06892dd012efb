package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"flowboard/internal/chat"
	"flowboard/internal/metrics"
	"flowboard/internal/provider"
)

// followUpFailedText is streamed after the tasks_changed frame when the
// mutations went through but the narrated answer could not be opened.
const followUpFailedText = "Your board was updated, but I couldn't finish my reply. Please try again."

// handleChat 处理 POST /chat
// handleChat runs one conversation turn: assemble context, decide, execute
// tools if asked, then relay the streamed answer.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	outcome := metrics.OutcomeError
	defer func() { s.metrics.ObserveChat(outcome, started) }()

	ctx := r.Context()
	var req chat.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		outcome = metrics.OutcomeBadRequest
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	history := s.clientHistory(req.Messages)
	if len(history) == 0 {
		outcome = metrics.OutcomeBadRequest
		writeError(w, http.StatusBadRequest, "messages must contain at least one user or assistant message")
		return
	}

	msgs := s.assembler.Build(ctx, history)
	dec, err := s.provider.Decide(ctx, provider.ChatRequest{
		Messages: msgs,
		Tools:    s.dispatcher.Definitions(),
	})
	if err != nil {
		outcome = s.writeUpstreamError(ctx, w, err)
		return
	}

	if !dec.WantsTools() {
		stream, err := s.provider.OpenStream(ctx, provider.ChatRequest{Messages: msgs})
		if err != nil {
			outcome = s.writeUpstreamError(ctx, w, err)
			return
		}
		outcome = metrics.OutcomeStream
		s.relay(ctx, w, nil, stream)
		return
	}

	toolMsgs, actions := s.dispatcher.Dispatch(ctx, dec.ToolCalls)
	followUp := make([]chat.Message, 0, len(msgs)+1+len(toolMsgs))
	followUp = append(followUp, msgs...)
	followUp = append(followUp, chat.Message{
		Role:      chat.RoleAssistant,
		Content:   dec.Content,
		ToolCalls: dec.ToolCalls,
	})
	followUp = append(followUp, toolMsgs...)

	frame, err := s.encodeFrame(actions)
	if err != nil {
		// The tools already ran, so say so in the log before failing the turn.
		s.logger.Error("encode tasks_changed frame",
			zap.Int("actions", len(actions)),
			zap.Strings("tools", actionNames(actions)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Could not report board changes")
		return
	}
	outcome = metrics.OutcomeTools

	stream, err := s.provider.OpenStream(ctx, provider.ChatRequest{Messages: followUp})
	if err != nil {
		s.logUpstreamError(err)
		if ctx.Err() != nil {
			return
		}
		s.relay(ctx, w, frame, io.NopCloser(bytes.NewReader(contentFrames(followUpFailedText))))
		return
	}
	s.relay(ctx, w, frame, stream)
}

func actionNames(actions []chat.ActionRecord) []string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.Name)
	}
	return names
}

// clientHistory keeps user and assistant turns only; clients never send the
// system message and any tool plumbing is rebuilt server-side.
func (s *Server) clientHistory(in []chat.Message) []chat.Message {
	out := make([]chat.Message, 0, len(in))
	dropped := 0
	for _, m := range in {
		switch m.Role {
		case chat.RoleUser, chat.RoleAssistant:
			out = append(out, chat.Message{Role: m.Role, Content: m.Content})
		default:
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Warn("dropped client messages with unsupported roles", zap.Int("count", dropped))
	}
	return out
}

// writeUpstreamError maps a provider failure to 429, 402 or 500 and returns the metrics outcome.
func (s *Server) writeUpstreamError(ctx context.Context, w http.ResponseWriter, err error) string {
	if ctx.Err() != nil {
		s.logger.Debug("client went away before the answer", zap.Error(err))
		return metrics.OutcomeError
	}
	s.logUpstreamError(err)
	if errors.Is(err, provider.ErrMissingAPIKey) {
		writeError(w, http.StatusInternalServerError, provider.ErrMissingAPIKey.Error())
		return metrics.OutcomeError
	}
	switch provider.KindOf(err) {
	case provider.KindRateLimited:
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return metrics.OutcomeRateLimited
	case provider.KindQuotaExhausted:
		writeError(w, http.StatusPaymentRequired, "Payment required")
		return metrics.OutcomeQuota
	default:
		writeError(w, http.StatusInternalServerError, "AI gateway error")
		return metrics.OutcomeError
	}
}

func (s *Server) logUpstreamError(err error) {
	if errors.Is(err, provider.ErrMissingAPIKey) {
		s.logger.Error("provider credential missing", zap.Error(err))
		return
	}
	kind := provider.KindOf(err)
	s.metrics.ObserveUpstreamError(string(kind))

	var ue *provider.UpstreamError
	if errors.As(err, &ue) {
		s.logger.Error("AI gateway error",
			zap.String("kind", string(ue.Kind)),
			zap.Int("status", ue.Status),
			zap.String("body", ue.Body),
			zap.Error(err),
		)
		return
	}
	s.logger.Error("AI gateway error", zap.String("kind", string(kind)), zap.Error(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
