package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yeti-admin/internal/cli/config"
	"github.com/yndnr/yeti-admin/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file path",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write a configuration file with the current settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}

	// Nested sections read better as YAML than as a field table.
	if rt.tableOutput(c) {
		return (&output.YAMLFormatter{}).Format(rt.Out, rt.Config)
	}
	return rt.print(c, rt.Config)
}

func configPath(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}

	fmt.Fprintln(rt.Out, rt.ConfigPath)
	if _, err := os.Stat(rt.ConfigPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(rt.Err, output.Dim("(file does not exist, defaults are in use)"))
	}
	return nil
}

func configInit(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}

	if _, err := os.Stat(rt.ConfigPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", rt.ConfigPath)
	}
	if err := config.Save(rt.Config, rt.ConfigPath); err != nil {
		return err
	}
	output.Success(rt.Out, "Wrote %s", rt.ConfigPath)
	return nil
}
