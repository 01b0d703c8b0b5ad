package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yeti-admin/internal/cli/adminapi"
	"github.com/yndnr/yeti-admin/internal/cli/config"
	"github.com/yndnr/yeti-admin/internal/cli/connection"
	"github.com/yndnr/yeti-admin/internal/cli/credential"
	"github.com/yndnr/yeti-admin/internal/cli/output"
	"github.com/yndnr/yeti-admin/internal/infra/buildinfo"
	"github.com/yndnr/yeti-admin/internal/infra/tlsroots"
	"github.com/yndnr/yeti-admin/internal/storage"
	"github.com/yndnr/yeti-admin/internal/telemetry/logger"
	"github.com/yndnr/yeti-admin/internal/telemetry/metric"
)

const runtimeKey = "runtime"

// Runtime holds everything a command needs. One Runtime lives for the
// whole process, including every line of an interactive shell.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string
	Logger     logger.Logger
	Metrics    *metric.Registry
	Store      *credential.Store
	Gateway    *connection.Gateway
	Manager    *connection.Manager
	Client     *adminapi.Client

	In  io.Reader
	Out io.Writer
	Err io.Writer

	mu          sync.RWMutex
	format      output.Format
	wide        bool
	interactive bool
	stdin       *bufio.Reader
	closeOnce   sync.Once
	closeErr    error
}

// newRuntime loads configuration and wires the session stack. kv
// overrides the configured credential backend when non-nil.
func newRuntime(c *cli.Context, kv storage.KV) (*Runtime, error) {
	cfgPath := c.String("config")
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}

	cfg, err := config.Load(cfgPath, flagOverrides(c))
	if err != nil {
		return nil, err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = c.App.ErrWriter
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	if err := output.SetColorMode(cfg.Output.Color); err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	if kv == nil {
		kvCfg := storage.DefaultKVConfig(cfg.Credential.Dir)
		kvCfg.Engine = cfg.Credential.Backend
		kv, err = storage.Open(kvCfg, log.Slog())
		if err != nil {
			return nil, fmt.Errorf("open credential store: %w", err)
		}
	}

	reg := metric.NewRegistry()
	store, err := credential.New(kv, log, credential.WithMetrics(reg))
	if err != nil {
		kv.Close()
		return nil, err
	}

	mode, err := connection.ParseAuthMode(cfg.Auth.Mode)
	if err != nil {
		store.Close()
		return nil, err
	}
	strategy, err := connection.NewStrategy(mode, cfg.Auth.CookieName)
	if err != nil {
		store.Close()
		return nil, err
	}

	tlsCfg, err := tlsroots.ClientConfig(tlsroots.Options{
		CAFile:             cfg.HTTP.CAFile,
		CertFile:           cfg.HTTP.CertFile,
		KeyFile:            cfg.HTTP.KeyFile,
		InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	if cfg.HTTP.InsecureSkipVerify {
		log.Warn("TLS certificate verification is disabled")
	}

	gw, err := connection.NewGateway(cfg.Server, store,
		connection.WithStrategy(strategy),
		connection.WithTimeout(cfg.HTTP.Timeout),
		connection.WithTLS(tlsCfg),
		connection.WithRateLimit(cfg.HTTP.RateLimit),
		connection.WithLogger(log),
		connection.WithMetrics(reg),
		connection.WithUserAgent(buildinfo.UserAgent()),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	mgr := connection.NewManager(gw, store,
		connection.WithManagerLogger(log),
		connection.WithManagerMetrics(reg),
	)

	rt := &Runtime{
		Config:     cfg,
		ConfigPath: cfgPath,
		Logger:     log,
		Metrics:    reg,
		Store:      store,
		Gateway:    gw,
		Manager:    mgr,
		Client:     adminapi.New(gw),
		In:         c.App.Reader,
		Out:        c.App.Writer,
		Err:        c.App.ErrWriter,
		format:     format,
		wide:       cfg.Output.Wide,
	}
	log.Debug("runtime ready", "server", gw.BaseURL(), "auth_mode", mode, "backend", cfg.Credential.Backend)
	return rt, nil
}

// flagOverrides maps explicitly set global flags to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	if c.IsSet("server") {
		m["server"] = c.String("server")
	}
	if c.IsSet("auth-mode") {
		m["auth.mode"] = c.String("auth-mode")
	}
	if c.IsSet("output") {
		m["output.format"] = c.String("output")
	}
	if c.IsSet("wide") {
		m["output.wide"] = c.Bool("wide")
	}
	if c.IsSet("ca-file") {
		m["http.ca_file"] = c.String("ca-file")
	}
	if c.Bool("insecure") {
		m["http.insecure_skip_verify"] = true
	}
	if c.Bool("verbose") {
		m["log.level"] = "debug"
	}
	return m
}

// applyConfig swaps in a reloaded configuration. Only presentation
// settings change in a running process.
func (rt *Runtime) applyConfig(cfg *config.CLIConfig) error {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if err := output.SetColorMode(cfg.Output.Color); err != nil {
		return err
	}
	if err := rt.Logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}

	rt.mu.Lock()
	rt.format = format
	rt.wide = cfg.Output.Wide
	rt.mu.Unlock()
	return nil
}

// formatter returns the formatter for c, honoring per-command flags.
func (rt *Runtime) formatter(c *cli.Context) (output.Formatter, error) {
	rt.mu.RLock()
	format, wide := rt.format, rt.wide
	rt.mu.RUnlock()

	if c.IsSet("output") {
		f, err := output.ParseFormat(c.String("output"))
		if err != nil {
			return nil, err
		}
		format = f
	}
	if c.IsSet("wide") {
		wide = c.Bool("wide")
	}
	return output.NewFormatter(format, wide), nil
}

// tableOutput reports whether c renders as a table.
func (rt *Runtime) tableOutput(c *cli.Context) bool {
	f, err := rt.formatter(c)
	if err != nil {
		return false
	}
	_, ok := f.(*output.TableFormatter)
	return ok
}

// wideOutput reports whether c asks for wide output.
func (rt *Runtime) wideOutput(c *cli.Context) bool {
	if c.IsSet("wide") {
		return c.Bool("wide")
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.wide
}

// print renders data with the formatter selected for c.
func (rt *Runtime) print(c *cli.Context, data any) error {
	f, err := rt.formatter(c)
	if err != nil {
		return err
	}
	return f.Format(rt.Out, data)
}

func (rt *Runtime) setInteractive(v bool) {
	rt.mu.Lock()
	rt.interactive = v
	rt.mu.Unlock()
}

func (rt *Runtime) isInteractive() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.interactive
}

// reader returns a buffered reader over rt.In shared by every prompt.
func (rt *Runtime) reader() *bufio.Reader {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.stdin == nil {
		rt.stdin = bufio.NewReader(rt.In)
	}
	return rt.stdin
}

// readLine reads one line from the shared reader without the newline.
func (rt *Runtime) readLine() (string, error) {
	line, err := rt.reader().ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close flushes metrics and closes the credential store. It is safe to
// call more than once.
func (rt *Runtime) Close() error {
	rt.closeOnce.Do(func() {
		var errs []error
		if path := rt.Config.Metrics.Textfile; path != "" {
			if err := rt.Metrics.WriteTextfile(path); err != nil {
				errs = append(errs, fmt.Errorf("write metrics: %w", err))
			}
		}
		if err := rt.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close credential store: %w", err))
		}
		rt.closeErr = errors.Join(errs...)
	})
	return rt.closeErr
}

// GetRuntime retrieves the runtime from the app metadata.
func GetRuntime(c *cli.Context) *Runtime {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt
	}
	return nil
}

func mustRuntime(c *cli.Context) (*Runtime, error) {
	rt := GetRuntime(c)
	if rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

// ErrNotLoggedIn is returned by commands that need a session when there is
// none.
var ErrNotLoggedIn = errors.New("not logged in (run 'yeti-admin login')")

// requireSession runs the session start-up check and fails unless the
// session ends up authenticated.
func requireSession(c *cli.Context) (*Runtime, error) {
	rt, err := mustRuntime(c)
	if err != nil {
		return nil, err
	}
	if err := rt.Manager.Start(c.Context); err != nil {
		rt.Logger.Debug("session check failed", "error", err)
	}
	if rt.Manager.State() != connection.StateAuthenticated {
		return nil, ErrNotLoggedIn
	}
	return rt, nil
}
