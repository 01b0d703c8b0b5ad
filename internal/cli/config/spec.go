package config

import (
	"os"
	"path/filepath"
	"time"
)

// Auth modes.
const (
	AuthModeBearer = "bearer"
	AuthModeCookie = "cookie"
)

// DefaultCookieName is the session cookie issued by the Yeti auth service.
const DefaultCookieName = "yeti_session"

// CLIConfig is the configuration for yeti-admin.
type CLIConfig struct {
	// Server is the base URL of the Yeti deployment (http, https or unix).
	Server string `koanf:"server" yaml:"server"`

	Auth       AuthConfig       `koanf:"auth" yaml:"auth"`
	Credential CredentialConfig `koanf:"credential" yaml:"credential"`
	Output     OutputConfig     `koanf:"output" yaml:"output"`
	Log        LogConfig        `koanf:"log" yaml:"log"`
	Metrics    MetricsConfig    `koanf:"metrics" yaml:"metrics"`
	HTTP       HTTPConfig       `koanf:"http" yaml:"http"`
	Shell      ShellConfig      `koanf:"shell" yaml:"shell"`
}

// AuthConfig selects how the session credential travels.
type AuthConfig struct {
	Mode       string `koanf:"mode" yaml:"mode"` // bearer, cookie
	CookieName string `koanf:"cookie_name" yaml:"cookie_name"`
}

// CredentialConfig selects where the session credential is persisted.
type CredentialConfig struct {
	Backend string `koanf:"backend" yaml:"backend"` // file, badger, memory
	Dir     string `koanf:"dir" yaml:"dir"`
}

// OutputConfig holds rendering preferences.
type OutputConfig struct {
	Format string `koanf:"format" yaml:"format"` // table, json, yaml
	Wide   bool   `koanf:"wide" yaml:"wide"`
	Color  string `koanf:"color" yaml:"color"` // auto, always, never
}

// LogConfig configures diagnostic logging to stderr.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// MetricsConfig configures the prometheus textfile export.
type MetricsConfig struct {
	Textfile string `koanf:"textfile" yaml:"textfile"`
}

// HTTPConfig configures the admin API transport.
type HTTPConfig struct {
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`

	CAFile             string `koanf:"ca_file" yaml:"ca_file,omitempty"`
	CertFile           string `koanf:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile            string `koanf:"key_file" yaml:"key_file,omitempty"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`
}

// ShellConfig configures the interactive shell.
type ShellConfig struct {
	HistoryFile string `koanf:"history_file" yaml:"history_file"`
	HistorySize int    `koanf:"history_size" yaml:"history_size"`
}

// DefaultDir returns the per-user state directory (~/.yeti).
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".yeti")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "admin.yaml")
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	dir := DefaultDir()
	return &CLIConfig{
		Server: "http://localhost:9925",
		Auth: AuthConfig{
			Mode:       AuthModeCookie,
			CookieName: DefaultCookieName,
		},
		Credential: CredentialConfig{
			Backend: "file",
			Dir:     filepath.Join(dir, "session"),
		},
		Output: OutputConfig{
			Format: "table",
			Color:  "auto",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Shell: ShellConfig{
			HistoryFile: filepath.Join(dir, "history"),
			HistorySize: 1000,
		},
	}
}
