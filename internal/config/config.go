package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type ProviderConfig struct {
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	APIKey     string `json:"api_key,omitempty"`
	TimeoutMS  int    `json:"timeout_ms"`
	MaxRetries int    `json:"max_retries"`
}

type ServerConfig struct {
	Addr           string   `json:"addr"`
	AllowedHeaders []string `json:"allowed_headers"`
}

type StorageConfig struct {
	DBPath string `json:"db_path"`
}

type RuntimeConfig struct {
	ContextTokenLimit int `json:"context_token_limit"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type ClientConfig struct {
	GatewayURL string `json:"gateway_url"`
	// Locale 为空时按环境变量自动检测 / empty means detect from the environment
	Locale string `json:"locale"`
}

// PermissionConfig 控制模型可调用的看板工具 / PermissionConfig gates the board tools the model may call.
type PermissionConfig struct {
	// Default applies to tools without an explicit rule: "allow" or "deny".
	Default string            `json:"default"`
	Tools   map[string]string `json:"tools,omitempty"`
}

type Config struct {
	Provider   ProviderConfig   `json:"provider"`
	Server     ServerConfig     `json:"server"`
	Storage    StorageConfig    `json:"storage"`
	Runtime    RuntimeConfig    `json:"runtime"`
	Log        LogConfig        `json:"log"`
	Client     ClientConfig     `json:"client"`
	Permission PermissionConfig `json:"permission"`
}

type fileProviderConfig struct {
	BaseURL    *string `json:"base_url"`
	Model      *string `json:"model"`
	APIKey     *string `json:"api_key"`
	TimeoutMS  *int    `json:"timeout_ms"`
	MaxRetries *int    `json:"max_retries"`
}

type fileConfig struct {
	Provider   *fileProviderConfig `json:"provider"`
	Server     *ServerConfig       `json:"server"`
	Storage    *StorageConfig      `json:"storage"`
	Runtime    *RuntimeConfig      `json:"runtime"`
	Log        *LogConfig          `json:"log"`
	Client     *ClientConfig       `json:"client"`
	Permission *PermissionConfig   `json:"permission"`
}

func Default() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:    DefaultBaseURL,
			Model:      DefaultModel,
			TimeoutMS:  DefaultTimeoutMS,
			MaxRetries: DefaultMaxRetries,
		},
		Server: ServerConfig{
			Addr:           DefaultServerAddr,
			AllowedHeaders: append([]string(nil), DefaultAllowedHeaders...),
		},
		Storage:    StorageConfig{DBPath: DefaultDBPath},
		Runtime:    RuntimeConfig{ContextTokenLimit: DefaultRuntimeContextTokenLimit},
		Log:        LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Client:     ClientConfig{GatewayURL: DefaultGatewayURL},
		Permission: PermissionConfig{Default: DefaultPermission},
	}
}

// Load 依次合并默认值、全局配置、项目配置与环境变量
// Load layers defaults, the global file, the project file and the environment, in that order
func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("FLOWBOARD_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".flowboard", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		ProjectConfigName,
		".flowboard/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := ExpandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Provider != nil {
		cfg.Provider = mergeProvider(cfg.Provider, *fc.Provider)
	}
	if fc.Server != nil {
		if strings.TrimSpace(fc.Server.Addr) != "" {
			cfg.Server.Addr = fc.Server.Addr
		}
		if len(fc.Server.AllowedHeaders) > 0 {
			cfg.Server.AllowedHeaders = append([]string(nil), fc.Server.AllowedHeaders...)
		}
	}
	if fc.Storage != nil && strings.TrimSpace(fc.Storage.DBPath) != "" {
		cfg.Storage.DBPath = fc.Storage.DBPath
	}
	if fc.Runtime != nil && fc.Runtime.ContextTokenLimit > 0 {
		cfg.Runtime.ContextTokenLimit = fc.Runtime.ContextTokenLimit
	}
	if fc.Log != nil {
		if strings.TrimSpace(fc.Log.Level) != "" {
			cfg.Log.Level = fc.Log.Level
		}
		if strings.TrimSpace(fc.Log.Format) != "" {
			cfg.Log.Format = fc.Log.Format
		}
	}
	if fc.Client != nil {
		if strings.TrimSpace(fc.Client.GatewayURL) != "" {
			cfg.Client.GatewayURL = fc.Client.GatewayURL
		}
		if strings.TrimSpace(fc.Client.Locale) != "" {
			cfg.Client.Locale = fc.Client.Locale
		}
	}
	if fc.Permission != nil {
		cfg.Permission = mergePermission(cfg.Permission, *fc.Permission)
	}
}

func mergePermission(base PermissionConfig, override PermissionConfig) PermissionConfig {
	if strings.TrimSpace(override.Default) != "" {
		base.Default = override.Default
	}
	if len(override.Tools) > 0 {
		merged := make(map[string]string, len(base.Tools)+len(override.Tools))
		for k, v := range base.Tools {
			merged[k] = v
		}
		for k, v := range override.Tools {
			merged[k] = v
		}
		base.Tools = merged
	}
	return base
}

func mergeProvider(base ProviderConfig, override fileProviderConfig) ProviderConfig {
	if override.BaseURL != nil && strings.TrimSpace(*override.BaseURL) != "" {
		base.BaseURL = *override.BaseURL
	}
	if override.Model != nil && strings.TrimSpace(*override.Model) != "" {
		base.Model = *override.Model
	}
	if override.APIKey != nil && strings.TrimSpace(*override.APIKey) != "" {
		base.APIKey = *override.APIKey
	}
	if override.TimeoutMS != nil && *override.TimeoutMS > 0 {
		base.TimeoutMS = *override.TimeoutMS
	}
	// max_retries 可以显式设为 0 / max_retries may be set to 0 explicitly
	if override.MaxRetries != nil {
		base.MaxRetries = *override.MaxRetries
	}
	return base
}

func normalize(cfg *Config) error {
	cfg.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Provider.BaseURL), "/")
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultBaseURL
	}
	cfg.Provider.Model = strings.TrimSpace(cfg.Provider.Model)
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	cfg.Provider.APIKey = strings.TrimSpace(cfg.Provider.APIKey)
	if cfg.Provider.TimeoutMS <= 0 {
		cfg.Provider.TimeoutMS = DefaultTimeoutMS
	}
	if cfg.Provider.MaxRetries < 0 {
		cfg.Provider.MaxRetries = 0
	}

	cfg.Server.Addr = strings.TrimSpace(cfg.Server.Addr)
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	cfg.Server.AllowedHeaders = normalizeHeaderList(cfg.Server.AllowedHeaders)
	if len(cfg.Server.AllowedHeaders) == 0 {
		cfg.Server.AllowedHeaders = append([]string(nil), DefaultAllowedHeaders...)
	}

	if strings.TrimSpace(cfg.Storage.DBPath) == "" {
		cfg.Storage.DBPath = DefaultDBPath
	}
	dbPath, err := ExpandPath(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	cfg.Storage.DBPath = dbPath

	if cfg.Runtime.ContextTokenLimit <= 0 {
		cfg.Runtime.ContextTokenLimit = DefaultRuntimeContextTokenLimit
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	switch cfg.Log.Format {
	case "json", "console":
	case "":
		cfg.Log.Format = DefaultLogFormat
	default:
		return fmt.Errorf("invalid log.format %q: want json or console", cfg.Log.Format)
	}

	cfg.Client.GatewayURL = strings.TrimRight(strings.TrimSpace(cfg.Client.GatewayURL), "/")
	if cfg.Client.GatewayURL == "" {
		cfg.Client.GatewayURL = DefaultGatewayURL
	}
	cfg.Client.Locale = strings.TrimSpace(cfg.Client.Locale)

	cfg.Permission.Default = strings.ToLower(strings.TrimSpace(cfg.Permission.Default))
	if cfg.Permission.Default == "" {
		cfg.Permission.Default = DefaultPermission
	}
	if !validPermission(cfg.Permission.Default) {
		return fmt.Errorf("invalid permission.default %q: want allow or deny", cfg.Permission.Default)
	}
	if len(cfg.Permission.Tools) > 0 {
		rules := make(map[string]string, len(cfg.Permission.Tools))
		for name, rule := range cfg.Permission.Tools {
			rule = strings.ToLower(strings.TrimSpace(rule))
			if !validPermission(rule) {
				return fmt.Errorf("invalid permission rule %q for tool %q: want allow or deny", rule, name)
			}
			rules[strings.ToLower(strings.TrimSpace(name))] = rule
		}
		cfg.Permission.Tools = rules
	}
	return nil
}

func validPermission(v string) bool {
	return v == "allow" || v == "deny"
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_BASE_URL")); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_MODEL")); v != "" {
		cfg.Provider.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("LOVABLE_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_MAX_RETRIES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid FLOWBOARD_MAX_RETRIES: %q", v)
		}
		cfg.Provider.MaxRetries = n
	}
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_DB_PATH")); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_GATEWAY_URL")); v != "" {
		cfg.Client.GatewayURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWBOARD_LOCALE")); v != "" {
		cfg.Client.Locale = v
	}

	return cfg, normalize(&cfg)
}

func normalizeHeaderList(headers []string) []string {
	out := make([]string, 0, len(headers))
	seen := map[string]struct{}{}
	for _, h := range headers {
		trimmed := strings.ToLower(strings.TrimSpace(h))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

// stripJSONComments 去掉 JSONC 中的 // 与 /* */ 注释
// stripJSONComments removes // and /* */ comments outside of strings
func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
