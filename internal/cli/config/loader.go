package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/yeti-admin/internal/infra/confloader"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// envKeys lists keys whose names contain underscores, so YETI_* variables
// map onto them unambiguously.
var envKeys = []string{
	"auth.cookie_name",
	"http.rate_limit",
	"http.ca_file",
	"http.cert_file",
	"http.key_file",
	"http.insecure_skip_verify",
	"shell.history_file",
	"shell.history_size",
}

// Load builds the effective configuration. Sources, lowest priority first:
// built-in defaults, the YAML file at path (missing is fine), YETI_*
// environment variables, then overrides (usually command-line flags, keyed
// by dotted path such as "output.format").
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOptionalFile(),
		confloader.WithEnvKeys(envKeys...),
	)

	if err := l.LoadMap(defaultMap()); err != nil {
		return nil, err
	}
	if err := l.LoadFile(path); err != nil {
		return nil, err
	}
	if err := l.LoadEnv(); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := l.LoadMap(overrides); err != nil {
			return nil, err
		}
	}

	cfg := &CLIConfig{}
	if err := l.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Credential.Dir = expandHome(cfg.Credential.Dir)
	cfg.Shell.HistoryFile = expandHome(cfg.Shell.HistoryFile)
	cfg.Metrics.Textfile = expandHome(cfg.Metrics.Textfile)
	cfg.HTTP.CAFile = expandHome(cfg.HTTP.CAFile)
	cfg.HTTP.CertFile = expandHome(cfg.HTTP.CertFile)
	cfg.HTTP.KeyFile = expandHome(cfg.HTTP.KeyFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks enumerated fields and the server URL.
func (c *CLIConfig) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || c.Server == "" {
		return fmt.Errorf("%w: server %q is not a valid URL", ErrInvalidConfig, c.Server)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: server %q has no host", ErrInvalidConfig, c.Server)
		}
	case "unix":
	default:
		return fmt.Errorf("%w: server scheme %q (want http, https or unix)", ErrInvalidConfig, u.Scheme)
	}

	if err := oneOf("auth.mode", c.Auth.Mode, AuthModeBearer, AuthModeCookie); err != nil {
		return err
	}
	if c.Auth.Mode == AuthModeCookie && c.Auth.CookieName == "" {
		return fmt.Errorf("%w: auth.cookie_name is required in cookie mode", ErrInvalidConfig)
	}
	if err := oneOf("credential.backend", c.Credential.Backend, "file", "badger", "memory"); err != nil {
		return err
	}
	if err := oneOf("output.format", c.Output.Format, "table", "json", "yaml"); err != nil {
		return err
	}
	if err := oneOf("output.color", c.Output.Color, "auto", "always", "never"); err != nil {
		return err
	}
	if err := oneOf("log.level", c.Log.Level, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if err := oneOf("log.format", c.Log.Format, "console", "text", "json"); err != nil {
		return err
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("%w: http.timeout must not be negative", ErrInvalidConfig)
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("%w: http.rate_limit must not be negative", ErrInvalidConfig)
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return fmt.Errorf("%w: http.cert_file and http.key_file must be set together", ErrInvalidConfig)
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q (want %s)", ErrInvalidConfig, key, value, strings.Join(allowed, ", "))
}

func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server":             d.Server,
		"auth.mode":          d.Auth.Mode,
		"auth.cookie_name":   d.Auth.CookieName,
		"credential.backend": d.Credential.Backend,
		"credential.dir":     d.Credential.Dir,
		"output.format":      d.Output.Format,
		"output.wide":        d.Output.Wide,
		"output.color":       d.Output.Color,
		"log.level":          d.Log.Level,
		"log.format":         d.Log.Format,
		"metrics.textfile":   d.Metrics.Textfile,
		"http.timeout":       d.HTTP.Timeout.String(),
		"http.rate_limit":    d.HTTP.RateLimit,
		"shell.history_file": d.Shell.HistoryFile,
		"shell.history_size": d.Shell.HistorySize,
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
