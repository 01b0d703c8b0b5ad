package command

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/yeti-admin/internal/cli/adminapi"
	"github.com/yndnr/yeti-admin/internal/cli/output"
)

// AppsCommand returns the apps subcommand group.
func AppsCommand() *cli.Command {
	return &cli.Command{
		Name:    "apps",
		Aliases: []string{"app"},
		Usage:   "Inspect applications",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List applications",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Only show apps whose ID contains this text",
					},
				},
				Action: appsList,
			},
			{
				Name:      "get",
				Usage:     "Show an application with its tables and record counts",
				ArgsUsage: "APP_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "telemetry",
						Usage: "Also show recent telemetry mentioning the app",
					},
				},
				Action: appsGet,
			},
		},
	}
}

func appsList(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	apps, err := rt.Client.ListApps(c.Context, c.String("filter"))
	if err != nil {
		return fmt.Errorf("list apps: %w", err)
	}
	if len(apps) == 0 && rt.tableOutput(c) {
		fmt.Fprintln(rt.Out, "No applications found.")
		return nil
	}
	return rt.print(c, apps)
}

// AppReport is the result of apps get.
type AppReport struct {
	adminapi.AppOverview `yaml:",inline"`
	Telemetry            *adminapi.AppTelemetry `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

func appsGet(c *cli.Context) error {
	appID := c.Args().First()
	if appID == "" {
		return errors.New("app ID required")
	}

	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	var progress adminapi.ProgressFunc
	var bar *output.ProgressBar
	if f, ok := rt.Err.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		bar = output.NewProgressBar(rt.Err, "Counting records")
		progress = bar.Update
	}

	ov, err := rt.Client.AppOverview(c.Context, appID, progress)
	if bar != nil && err == nil && len(ov.Schema.Tables) > 0 {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("get app %s: %w", appID, err)
	}

	report := AppReport{AppOverview: *ov}
	if c.Bool("telemetry") {
		at, err := rt.Client.AppTelemetry(c.Context, appID)
		if err != nil {
			return fmt.Errorf("app telemetry %s: %w", appID, err)
		}
		report.Telemetry = &at
	}

	if !rt.tableOutput(c) {
		return rt.print(c, report)
	}
	return renderAppReport(rt, c, report)
}

func renderAppReport(rt *Runtime, c *cli.Context, r AppReport) error {
	ov := r.AppOverview
	name := ov.AppID
	if ov.Detail.Config != nil && ov.Detail.Config.Name != "" {
		name = ov.Detail.Config.Name
	}

	output.Heading(rt.Out, name)
	fmt.Fprintf(rt.Out, "App ID:     %s\n", ov.AppID)
	if cfg := ov.Detail.Config; cfg != nil {
		if cfg.Description != "" {
			fmt.Fprintf(rt.Out, "About:      %s\n", cfg.Description)
		}
		if cfg.Version != "" {
			fmt.Fprintf(rt.Out, "Version:    %s\n", cfg.Version)
		}
	}
	fmt.Fprintf(rt.Out, "Resources:  %d\n", ov.Detail.ResourceCount)
	fmt.Fprintf(rt.Out, "Tables:     %d\n", len(ov.Schema.Tables))
	fmt.Fprintf(rt.Out, "Records:    %d\n", ov.TotalRecords)

	for _, db := range ov.Databases {
		fmt.Fprintln(rt.Out)
		output.Heading(rt.Out, "Database: "+db.Database)

		table := &output.Table{Headers: []string{"TABLE", "RECORDS"}}
		wide := rt.wideOutput(c)
		if wide {
			table.Headers = append(table.Headers, "REST_URL")
		}
		for _, t := range db.Tables {
			row := []string{t.Name, strconv.Itoa(ov.Counts[t.Name])}
			if wide {
				row = append(row, t.RESTURL)
			}
			table.AddRow(row...)
		}
		if err := table.Render(rt.Out); err != nil {
			return err
		}
	}

	if r.Telemetry != nil {
		printTelemetry(rt, r.Telemetry)
	}
	return nil
}

func printTelemetry(rt *Runtime, at *adminapi.AppTelemetry) {
	fmt.Fprintln(rt.Out)
	output.Heading(rt.Out, "Recent logs")
	if len(at.Logs) == 0 {
		fmt.Fprintln(rt.Out, output.Dim("  none"))
	}
	for _, l := range at.Logs {
		fmt.Fprintf(rt.Out, "  %s %s %s\n", l.Timestamp, output.LevelLabel(l.Level), l.Message)
	}

	fmt.Fprintln(rt.Out)
	output.Heading(rt.Out, "Recent spans")
	if len(at.Spans) == 0 {
		fmt.Fprintln(rt.Out, output.Dim("  none"))
	}
	for _, s := range at.Spans {
		fmt.Fprintf(rt.Out, "  %s %s %s\n", s.Timestamp, s.Name, formatDuration(s.DurationMS))
	}

	fmt.Fprintln(rt.Out)
	output.Heading(rt.Out, "Recent metrics")
	if len(at.Metrics) == 0 {
		fmt.Fprintln(rt.Out, output.Dim("  none"))
	}
	for _, m := range at.Metrics {
		fmt.Fprintf(rt.Out, "  %s %s = %s %s\n", m.Timestamp, m.Name, strconv.FormatFloat(m.Value, 'f', -1, 64), m.Unit)
	}
}

func formatDuration(ms *float64) string {
	if ms == nil {
		return "-"
	}
	return strconv.FormatFloat(*ms, 'f', 2, 64) + "ms"
}
