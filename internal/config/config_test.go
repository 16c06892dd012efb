package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"FLOWBOARD_CONFIG_PATH", "FLOWBOARD_BASE_URL", "FLOWBOARD_MODEL", "FLOWBOARD_API_KEY",
		"LOVABLE_API_KEY", "FLOWBOARD_MAX_RETRIES", "FLOWBOARD_ADDR", "FLOWBOARD_DB_PATH",
		"FLOWBOARD_GATEWAY_URL", "FLOWBOARD_LOG_LEVEL", "FLOWBOARD_LOCALE",
	} {
		t.Setenv(key, "")
	}
	work = t.TempDir()
	oldwd, _ := os.Getwd()
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	return home, work
}

func TestLoadDefaults(t *testing.T) {
	home, _ := isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Model != DefaultModel || cfg.Provider.MaxRetries != DefaultMaxRetries {
		t.Fatalf("provider=%+v", cfg.Provider)
	}
	if cfg.Provider.APIKey != "" {
		t.Fatalf("api key should be empty by default")
	}
	want := filepath.Join(home, ".flowboard", "flowboard.db")
	if cfg.Storage.DBPath != want {
		t.Fatalf("db_path=%q, want %q", cfg.Storage.DBPath, want)
	}
	if len(cfg.Server.AllowedHeaders) != len(DefaultAllowedHeaders) {
		t.Fatalf("allowed_headers=%v", cfg.Server.AllowedHeaders)
	}
}

func TestLoadJSONCAndPrecedence(t *testing.T) {
	home, _ := isolate(t)

	globalDir := filepath.Join(home, ".flowboard")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	globalCfg := `{
  // global
  "provider": {"model": "global-model", "max_retries": 5},
  "log": {"level": "debug"}
}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	projectCfg := `{
  /* project wins */
  "provider": {"model": "project-model", "max_retries": 0},
  "server": {"addr": ":9000", "allowed_headers": ["Content-Type", "content-type", " X-Trace "]}
}`
	if err := os.WriteFile(ProjectConfigName, []byte(projectCfg), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Model != "project-model" {
		t.Fatalf("model=%q", cfg.Provider.Model)
	}
	if cfg.Provider.MaxRetries != 0 {
		t.Fatalf("max_retries=%d, want explicit 0", cfg.Provider.MaxRetries)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log.level=%q", cfg.Log.Level)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("addr=%q", cfg.Server.Addr)
	}
	if strings.Join(cfg.Server.AllowedHeaders, ",") != "content-type,x-trace" {
		t.Fatalf("allowed_headers=%v", cfg.Server.AllowedHeaders)
	}
}

func TestEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("FLOWBOARD_MODEL", "env-model")
	t.Setenv("LOVABLE_API_KEY", "legacy-key")
	t.Setenv("FLOWBOARD_GATEWAY_URL", "http://example.test/")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Model != "env-model" {
		t.Fatalf("model=%q", cfg.Provider.Model)
	}
	if cfg.Provider.APIKey != "legacy-key" {
		t.Fatalf("api_key=%q", cfg.Provider.APIKey)
	}
	if cfg.Client.GatewayURL != "http://example.test" {
		t.Fatalf("gateway_url=%q", cfg.Client.GatewayURL)
	}

	t.Setenv("FLOWBOARD_API_KEY", "primary-key")
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.APIKey != "primary-key" {
		t.Fatalf("api_key=%q", cfg.Provider.APIKey)
	}
}

func TestInvalidEnvAndFormat(t *testing.T) {
	isolate(t)
	t.Setenv("FLOWBOARD_MAX_RETRIES", "-1")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for negative retries")
	}

	t.Setenv("FLOWBOARD_MAX_RETRIES", "")
	path := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(path, []byte(`{"log":{"format":"xml"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for log.format xml")
	}
}

func TestStripJSONCommentsKeepsStrings(t *testing.T) {
	in := `{"url": "http://x//y", /* c */ "a": "/* not */"} // tail`
	got := string(stripJSONComments([]byte(in)))
	if !strings.Contains(got, `"http://x//y"`) || !strings.Contains(got, `"/* not */"`) {
		t.Fatalf("strings were altered: %s", got)
	}
	if strings.Contains(got, "tail") || strings.Contains(got, " c ") {
		t.Fatalf("comments survived: %s", got)
	}
}

func TestInitProjectConfigScaffold(t *testing.T) {
	dir := t.TempDir()
	path, created, err := InitProjectConfigScaffold(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !created || filepath.Base(path) != ProjectConfigName {
		t.Fatalf("path=%q created=%v", path, created)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "api_key") {
		t.Fatalf("scaffold must not contain api_key: %s", data)
	}

	_, created, err = InitProjectConfigScaffold(dir)
	if err != nil || created {
		t.Fatalf("second call created=%v err=%v", created, err)
	}
}

func TestPermissionMerge(t *testing.T) {
	home, _ := isolate(t)
	globalDir := filepath.Join(home, ".flowboard")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"),
		[]byte(`{"permission": {"tools": {"delete_task": "deny"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ProjectConfigName,
		[]byte(`{"permission": {"default": " ALLOW ", "tools": {"Update_Task": "Deny"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Permission.Default != "allow" {
		t.Fatalf("permission.default=%q", cfg.Permission.Default)
	}
	if cfg.Permission.Tools["delete_task"] != "deny" || cfg.Permission.Tools["update_task"] != "deny" {
		t.Fatalf("permission.tools=%v", cfg.Permission.Tools)
	}
}

func TestInvalidPermission(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(ProjectConfigName, []byte(`{"permission": {"default": "ask"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "permission.default") {
		t.Fatalf("err=%v, want permission.default error", err)
	}
}
