package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yeti-admin/internal/infra/buildinfo"
	"github.com/yndnr/yeti-admin/internal/storage"
)

// App creates the CLI application.
func App() *cli.App {
	return newApp(nil)
}

// newApp builds the app. A non-nil kv replaces the configured credential
// backend, which lets tests run without touching the home directory.
func newApp(kv storage.KV) *cli.App {
	info := buildinfo.Get()
	app := &cli.App{
		Name:                 buildinfo.Name,
		Usage:                "Yeti administration console",
		Version:              fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildTime),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			StatusCommand(),
			AppsCommand(),
			AuthCommand(),
			TelemetryCommand(),
			VectorsCommand(),
			BenchmarksCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			// The shell re-enters Run for every line and keeps its runtime.
			if GetRuntime(c) != nil {
				return nil
			}
			rt, err := newRuntime(c, kv)
			if err != nil {
				return err
			}
			c.App.Metadata[runtimeKey] = rt
			return nil
		},
		After: func(c *cli.Context) error {
			rt := GetRuntime(c)
			if rt == nil || rt.isInteractive() {
				return nil
			}
			return rt.Close()
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Yeti server URL (http://, https:// or unix://)",
			EnvVars: []string{"YETI_SERVER"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file",
			EnvVars: []string{"YETI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "auth-mode",
			Usage:   "Credential transport: bearer or cookie",
			EnvVars: []string{"YETI_AUTH_MODE"},
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "Trust this PEM CA bundle for https servers",
			EnvVars: []string{"YETI_CA_FILE"},
		},
		&cli.BoolFlag{
			Name:    "insecure",
			Aliases: []string{"k"},
			Usage:   "Skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// PrintError prints an error message to stderr.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
