package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"flowboard/internal/board"
	"flowboard/internal/chat"
	"flowboard/internal/contextmgr"
	"flowboard/internal/metrics"
	"flowboard/internal/provider"
	"flowboard/internal/tools"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	maxRequestBodyBytes    = 1 << 20
)

// Options wires the gateway's collaborators.
type Options struct {
	Provider       provider.Provider
	Board          *board.Service
	Assembler      *contextmgr.Assembler
	Dispatcher     *tools.Dispatcher
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	AllowedHeaders []string
}

// Server 无状态聊天网关 + 任务 REST 接口
// Server is the stateless chat gateway plus the task REST API. Every request
// stands alone; nothing is shared between requests except the collaborators.
type Server struct {
	provider       provider.Provider
	board          *board.Service
	assembler      *contextmgr.Assembler
	dispatcher     *tools.Dispatcher
	metrics        *metrics.Metrics
	logger         *zap.Logger
	allowedHeaders string
	// encodeFrame builds the tasks_changed frame; tests swap it.
	encodeFrame func([]chat.ActionRecord) ([]byte, error)

	shutdownTimeout time.Duration
	handler         http.Handler
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tools.NewDispatcher(tools.NewBoardRegistry(opts.Board), logger)
	}
	if dispatcher.Observe == nil {
		dispatcher.Observe = m.ObserveToolCall
	}
	assembler := opts.Assembler
	if assembler == nil {
		assembler = contextmgr.New("", opts.Board, nil, 0, logger)
	}
	headers := opts.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"authorization", "x-client-info", "apikey", "content-type"}
	}

	s := &Server{
		provider:        opts.Provider,
		board:           opts.Board,
		assembler:       assembler,
		dispatcher:      dispatcher,
		metrics:         m,
		logger:          logger,
		allowedHeaders:  strings.Join(headers, ", "),
		encodeFrame:     tasksChangedFrame,
		shutdownTimeout: defaultShutdownTimeout,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)

	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("GET /tasks/stats", s.handleTaskStats)
	mux.HandleFunc("PATCH /tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /tasks/{id}/move", s.handleMoveTask)

	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return s.withCORS(s.withRecover(mux))
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// SetShutdownTimeout bounds how long Run waits for in-flight streams on shutdown.
func (s *Server) SetShutdownTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	s.shutdownTimeout = timeout
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown error", zap.Error(err))
		}
	}()

	s.logger.Info("gateway listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
