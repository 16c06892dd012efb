package gateway

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// withCORS allows every origin and answers preflight requests with an empty body.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", s.allowedHeaders)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRecover is the single top-level catch of a request: it logs the panic
// and answers 500 unless the response has already started.
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			msg := fmt.Sprint(rec)
			if err, ok := rec.(error); ok {
				msg = err.Error()
			}
			s.logger.Error("request panicked",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("panic", msg),
				zap.Stack("stack"),
			)
			if !rw.wroteHeader {
				writeError(rw, http.StatusInternalServerError, msg)
			}
		}()
		next.ServeHTTP(rw, r)
	})
}

// responseWriter remembers whether headers went out.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

// Unwrap lets http.ResponseController reach the underlying Flusher.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
