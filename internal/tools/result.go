package tools

import (
	"encoding/json"
	"fmt"

	"flowboard/internal/board"
)

// Result is the fixed JSON shape every tool reports back to the model.
type Result struct {
	Success bool        `json:"success"`
	Task    *board.Task `json:"task,omitempty"`
	Deleted string      `json:"deleted,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func failure(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

func notFound(title string) Result {
	return failure(`Task "%s" not found`, title)
}

// JSON encodes the result for a tool message.
func (r Result) JSON() string {
	return mustJSON(r)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"marshal result: %s"}`, err.Error())
	}
	return string(data)
}
