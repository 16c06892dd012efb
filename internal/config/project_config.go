package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InitProjectConfigScaffold 在 dir 下生成 flowboard.config.json 模板，已存在则保留
// InitProjectConfigScaffold writes a flowboard.config.json template into dir.
// An existing file is left untouched. It reports the path and whether it was created.
func InitProjectConfigScaffold(dir string) (string, bool, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", false, fmt.Errorf("get current working directory: %w", err)
		}
		dir = cwd
	}
	path := filepath.Join(dir, ProjectConfigName)

	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return "", false, fmt.Errorf("project config path is a directory: %s", path)
		}
		return path, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("stat project config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	// The credential stays out of files; it comes from FLOWBOARD_API_KEY.
	cfg := Default()
	cfg.Provider.APIKey = ""
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", false, fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", false, fmt.Errorf("write project config: %w", err)
	}
	return path, true, nil
}
