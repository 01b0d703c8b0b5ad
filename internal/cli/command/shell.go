package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yeti-admin/internal/cli/config"
	"github.com/yndnr/yeti-admin/internal/cli/repl"
	"github.com/yndnr/yeti-admin/internal/infra/confloader"
	"github.com/yndnr/yeti-admin/internal/infra/shutdown"
)

const shutdownTimeout = 5 * time.Second

// osExit is replaced in tests.
var osExit = os.Exit

// ShellCommand returns the shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Start an interactive shell",
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}
	if rt.isInteractive() {
		return errors.New("already in the shell")
	}
	rt.setInteractive(true)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	history := repl.NewHistory(rt.Config.Shell.HistoryFile, rt.Config.Shell.HistorySize)

	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(context.Context) error { return rt.Close() })
	h.OnShutdown(func(context.Context) error { return history.Save() })
	if w := watchConfig(c, rt); w != nil {
		h.OnShutdown(func(context.Context) error { return w.Stop() })
	}

	app := c.App
	r, err := repl.New(repl.Config{
		In:        rt.reader(),
		Out:       rt.Out,
		Session:   rt.Manager,
		Login:     rt.login,
		Exec:      func(ctx context.Context, args []string) error { return app.RunContext(ctx, append([]string{app.Name}, args...)) },
		History:   history,
		Completer: repl.NewCompleter(commandWords(app.Commands, "")),
		Logger:    rt.Logger,
		ReadPassword: func() (string, error) {
			return rt.readSecret()
		},
	})
	if err != nil {
		return err
	}

	finished := make(chan struct{})
	go func() {
		if err := h.Wait(ctx); err != nil {
			rt.Logger.Warn("shutdown hooks failed", "error", err)
		}
		select {
		case <-finished:
		default:
			// Interrupted while the shell was still reading or running.
			fmt.Fprintln(rt.Out)
			osExit(130)
		}
	}()

	runErr := r.Run(ctx)
	close(finished)
	cancel()

	if err := h.Run(); err != nil {
		rt.Logger.Warn("shutdown hooks failed", "error", err)
	}
	return runErr
}

// watchConfig reloads presentation settings when the config file changes.
// It returns nil when the file cannot be watched.
func watchConfig(c *cli.Context, rt *Runtime) *confloader.Watcher {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(rt.Logger.Slog()))
	if err != nil {
		rt.Logger.Debug("config watcher unavailable", "error", err)
		return nil
	}
	if err := w.Watch(rt.ConfigPath); err != nil {
		w.Stop()
		return nil
	}

	overrides := flagOverrides(c)
	w.OnChange(func(path string) {
		cfg, err := config.Load(path, overrides)
		if err != nil {
			rt.Logger.Warn("ignoring invalid configuration", "path", path, "error", err)
			return
		}
		if err := rt.applyConfig(cfg); err != nil {
			rt.Logger.Warn("ignoring invalid configuration", "path", path, "error", err)
			return
		}
		rt.Logger.Info("configuration reloaded", "path", path)
	})
	w.StartAsync()
	return w
}

// commandWords lists every command path under cmds, including aliases,
// for shell completion.
func commandWords(cmds []*cli.Command, prefix string) []string {
	var words []string
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		for _, name := range cmd.Names() {
			word := prefix + name
			words = append(words, word)
			words = append(words, commandWords(cmd.Subcommands, word+" ")...)
		}
	}
	return words
}
