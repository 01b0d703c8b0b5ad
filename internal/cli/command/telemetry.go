package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yeti-admin/internal/cli/adminapi"
	"github.com/yndnr/yeti-admin/internal/cli/output"
)

// TelemetryCommand returns the telemetry subcommand group.
func TelemetryCommand() *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   adminapi.DefaultTelemetryLimit,
				Usage:   "Number of recent entries to fetch",
			},
			&cli.StringFlag{
				Name:  "app",
				Usage: "Only show entries mentioning this app ID",
			},
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"F"},
				Usage:   "Keep polling for new entries",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: 2 * time.Second,
				Usage: "Polling interval with --follow",
			},
		}
	}

	return &cli.Command{
		Name:    "telemetry",
		Aliases: []string{"tel"},
		Usage:   "Show recent logs, spans and metrics",
		Subcommands: []*cli.Command{
			{
				Name:   "logs",
				Usage:  "Show recent log records",
				Flags:  flags(),
				Action: telemetryLogs,
			},
			{
				Name:   "spans",
				Usage:  "Show recent spans",
				Flags:  flags(),
				Action: telemetrySpans,
			},
			{
				Name:   "metrics",
				Usage:  "Show recent metric samples",
				Flags:  flags(),
				Action: telemetryMetrics,
			},
		},
	}
}

func telemetryLogs(c *cli.Context) error {
	return runTelemetry(c, func(ctx context.Context, rt *Runtime) ([]adminapi.LogEntry, error) {
		logs, err := rt.Client.ListLogs(ctx, c.Int("limit"))
		if err != nil {
			return nil, fmt.Errorf("list logs: %w", err)
		}
		if app := c.String("app"); app != "" {
			logs = adminapi.FilterLogsForApp(logs, app)
		}
		return logs, nil
	}, func(l adminapi.LogEntry) string { return l.ID },
		func(rt *Runtime, l adminapi.LogEntry) {
			fmt.Fprintf(rt.Out, "%s %-5s %s %s\n", l.Timestamp, output.LevelLabel(l.Level), output.Dim(l.Target), l.Message)
		})
}

func telemetrySpans(c *cli.Context) error {
	return runTelemetry(c, func(ctx context.Context, rt *Runtime) ([]adminapi.SpanEntry, error) {
		spans, err := rt.Client.ListSpans(ctx, c.Int("limit"))
		if err != nil {
			return nil, fmt.Errorf("list spans: %w", err)
		}
		if app := c.String("app"); app != "" {
			spans = adminapi.FilterSpansForApp(spans, app)
		}
		return spans, nil
	}, func(s adminapi.SpanEntry) string { return s.ID },
		func(rt *Runtime, s adminapi.SpanEntry) {
			fmt.Fprintf(rt.Out, "%s %s %s %s\n", s.Timestamp, s.Name, output.Dim(s.Target), formatDuration(s.DurationMS))
		})
}

func telemetryMetrics(c *cli.Context) error {
	return runTelemetry(c, func(ctx context.Context, rt *Runtime) ([]adminapi.MetricEntry, error) {
		metrics, err := rt.Client.ListMetrics(ctx, c.Int("limit"))
		if err != nil {
			return nil, fmt.Errorf("list metrics: %w", err)
		}
		if app := c.String("app"); app != "" {
			metrics = adminapi.FilterMetricsForApp(metrics, app)
		}
		return metrics, nil
	}, func(m adminapi.MetricEntry) string { return m.ID },
		func(rt *Runtime, m adminapi.MetricEntry) {
			fmt.Fprintf(rt.Out, "%s %s = %s %s\n", m.Timestamp, m.Name, strconv.FormatFloat(m.Value, 'f', -1, 64), m.Unit)
		})
}

// runTelemetry prints one batch, or with --follow polls and prints entries
// not seen before until the context is cancelled.
func runTelemetry[T any](
	c *cli.Context,
	fetch func(context.Context, *Runtime) ([]T, error),
	id func(T) string,
	line func(*Runtime, T),
) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	items, err := fetch(c.Context, rt)
	if err != nil {
		return err
	}
	if !c.Bool("follow") {
		return rt.print(c, items)
	}

	interval := c.Duration("interval")
	if interval <= 0 {
		return errors.New("--interval must be positive")
	}

	seen := make(map[string]struct{})
	emit := func(batch []T) {
		// Batches arrive newest first; print oldest first.
		for i := len(batch) - 1; i >= 0; i-- {
			key := id(batch[i])
			if _, ok := seen[key]; ok && key != "" {
				continue
			}
			seen[key] = struct{}{}
			line(rt, batch[i])
		}
	}
	emit(items)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Context.Done():
			return nil
		case <-ticker.C:
			batch, err := fetch(c.Context, rt)
			if err != nil {
				if c.Context.Err() != nil {
					return nil
				}
				return err
			}
			emit(batch)
		}
	}
}
