package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"flowboard/internal/board"
)

// SkippedTask is an import row the board rejected.
type SkippedTask struct {
	Index  int
	Title  string
	Reason error
}

// ImportReport 汇总一次导入 / ImportReport summarizes one import run.
type ImportReport struct {
	Imported int
	// Duplicates counts rows whose title was already on the board.
	Duplicates int
	Skipped    []SkippedTask
}

// ImportJSON 从 JSON 文件导入任务（跳过已存在的标题）
// ImportJSON seeds the board from a JSON array of tasks, skipping titles
// already on the board. Rows failing validation are reported, not fatal.
func ImportJSON(ctx context.Context, path string, svc *board.Service) (ImportReport, error) {
	var report ImportReport
	path = strings.TrimSpace(path)
	if path == "" {
		return report, errors.New("import path is empty")
	}

	var incoming []board.NewTask
	if err := readJSON(path, &incoming); err != nil {
		return report, fmt.Errorf("read import file: %w", err)
	}

	existing, err := svc.List(ctx)
	if err != nil {
		return report, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[strings.ToLower(strings.TrimSpace(t.Title))] = struct{}{}
	}

	for i, in := range incoming {
		key := strings.ToLower(strings.TrimSpace(in.Title))
		if _, ok := seen[key]; ok {
			report.Duplicates++
			continue
		}
		if _, err := svc.Create(ctx, in); err != nil {
			report.Skipped = append(report.Skipped, SkippedTask{Index: i, Title: in.Title, Reason: err})
			continue
		}
		seen[key] = struct{}{}
		report.Imported++
	}
	return report, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
