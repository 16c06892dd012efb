package storage

import (
	"io"

	"flowboard/internal/board"
)

// Store 任务存储后端 / Store is a closable board store backend
type Store interface {
	board.Store
	io.Closer
}

// Open opens the default SQLite backend at dbPath.
func Open(dbPath string) (Store, error) {
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	return s, nil
}
