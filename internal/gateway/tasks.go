package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"flowboard/internal/board"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.board.List(r.Context())
	if err != nil {
		s.taskError(w, "list", err)
		return
	}
	if tasks == nil {
		tasks = []board.Task{}
	}
	s.taskJSON(w, "list", http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in board.NewTask
	if !s.decodeTaskBody(w, r, "create", &in) {
		return
	}
	task, err := s.board.Create(r.Context(), in)
	if err != nil {
		s.taskError(w, "create", err)
		return
	}
	s.logger.Info("task created", zap.String("id", task.ID), zap.String("status", string(task.Status)))
	s.taskJSON(w, "create", http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch board.TaskPatch
	if !s.decodeTaskBody(w, r, "update", &patch) {
		return
	}
	task, err := s.board.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.taskError(w, "update", err)
		return
	}
	s.taskJSON(w, "update", http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.board.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.taskError(w, "delete", err)
		return
	}
	s.metrics.ObserveTaskRequest("delete", http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status board.Status `json:"status"`
	}
	if !s.decodeTaskBody(w, r, "move", &in) {
		return
	}
	task, err := s.board.Move(r.Context(), r.PathValue("id"), in.Status)
	if err != nil {
		s.taskError(w, "move", err)
		return
	}
	s.taskJSON(w, "move", http.StatusOK, task)
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.board.Stats(r.Context())
	if err != nil {
		s.taskError(w, "stats", err)
		return
	}
	s.taskJSON(w, "stats", http.StatusOK, stats)
}

func (s *Server) decodeTaskBody(w http.ResponseWriter, r *http.Request, route string, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(v); err != nil {
		s.metrics.ObserveTaskRequest(route, http.StatusBadRequest)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) taskJSON(w http.ResponseWriter, route string, status int, v any) {
	s.metrics.ObserveTaskRequest(route, status)
	writeJSON(w, status, v)
}

// taskError maps validation failures to 400, missing tasks to 404 and anything else to 500.
func (s *Server) taskError(w http.ResponseWriter, route string, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case board.IsValidation(err):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, board.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	default:
		s.logger.Error("task request failed", zap.String("route", route), zap.Error(err))
	}
	s.metrics.ObserveTaskRequest(route, status)
	writeError(w, status, msg)
}
