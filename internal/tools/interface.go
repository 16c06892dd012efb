package tools

import (
	"context"
	"encoding/json"

	"flowboard/internal/board"
	"flowboard/internal/chat"
)

// Tool 模型可调用的看板函数 / Tool is one board function the model may call.
//
// Execute receives arguments that already passed schema validation and never
// returns an error: failures are reported through Result.
type Tool interface {
	Name() string
	Definition() chat.ToolDef
	Execute(ctx context.Context, args json.RawMessage) Result
}

// BoardService is the part of board.Service the tools need.
type BoardService interface {
	Create(ctx context.Context, in board.NewTask) (board.Task, error)
	Update(ctx context.Context, id string, patch board.TaskPatch) (board.Task, error)
	Delete(ctx context.Context, id string) error
	FindByTitle(ctx context.Context, title string) (board.Task, error)
}
