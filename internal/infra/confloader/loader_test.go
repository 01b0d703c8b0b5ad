package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server string `koanf:"server"`
	Auth   struct {
		Mode       string `koanf:"mode"`
		CookieName string `koanf:"cookie_name"`
	} `koanf:"auth"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admin.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
	if l.IsLoaded() {
		t.Error("new loader should not be loaded")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, "server: https://yeti.example.com\nauth:\n  mode: bearer\n")

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := l.GetString("server"); got != "https://yeti.example.com" {
		t.Errorf("server = %q", got)
	}
	if got := l.GetString("auth.mode"); got != "bearer" {
		t.Errorf("auth.mode = %q", got)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	if err := NewLoader().LoadFile("/nonexistent/admin.yaml"); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}
}

func TestLoader_LoadFile_Optional(t *testing.T) {
	l := NewLoader(WithOptionalFile())
	if err := l.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Errorf("LoadFile() optional missing file error = %v", err)
	}
}

func TestLoader_LoadFile_Invalid(t *testing.T) {
	path := writeConfig(t, "server: [unterminated\n")
	if err := NewLoader(WithOptionalFile()).LoadFile(path); err == nil {
		t.Error("LoadFile() expected parse error")
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("YETI_SERVER", "http://env:9925")
	t.Setenv("YETI_LOG_LEVEL", "debug")
	t.Setenv("YETI_AUTH_COOKIE_NAME", "sid")

	l := NewLoader(WithEnvKeys("auth.cookie_name"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if got := l.GetString("server"); got != "http://env:9925" {
		t.Errorf("server = %q", got)
	}
	if got := l.GetString("log.level"); got != "debug" {
		t.Errorf("log.level = %q", got)
	}
	if got := l.GetString("auth.cookie_name"); got != "sid" {
		t.Errorf("auth.cookie_name = %q", got)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER", "x")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.GetString("server"); got != "x" {
		t.Errorf("server = %q, want x", got)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, "server: http://file:9925\nlog:\n  level: info\n")
	t.Setenv("YETI_SERVER", "http://env:9925")

	l := NewLoader(WithConfigFile(path))
	if err := l.LoadMap(map[string]any{"server": "http://default:9925", "auth.mode": "cookie"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server != "http://env:9925" {
		t.Errorf("Server = %q, env should win over file", cfg.Server)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want file value", cfg.Log.Level)
	}
	if cfg.Auth.Mode != "cookie" {
		t.Errorf("Auth.Mode = %q, want default", cfg.Auth.Mode)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load")
	}

	// Flags are layered last.
	if err := l.LoadMap(map[string]any{"server": "http://flag:9925"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.GetString("server"); got != "http://flag:9925" {
		t.Errorf("server = %q, flag should win", got)
	}
}

func TestLoader_GetBoolAndAll(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"output": map[string]any{"wide": true}}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if !l.GetBool("output.wide") {
		t.Error("GetBool(output.wide) = false")
	}
	if _, ok := l.All()["output.wide"]; !ok {
		t.Error("All() missing output.wide")
	}
	if l.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
}
