package command

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/yeti-admin/internal/cli/adminapi"
	"github.com/yndnr/yeti-admin/internal/cli/output"
)

// BenchmarksCommand returns the benchmarks subcommand group.
func BenchmarksCommand() *cli.Command {
	return &cli.Command{
		Name:    "benchmarks",
		Aliases: []string{"bench"},
		Usage:   "Run load tests and show their best results",
		Subcommands: []*cli.Command{
			{
				Name:   "tests",
				Usage:  "List the tests the runner can start",
				Action: benchmarksTests,
			},
			{
				Name:   "status",
				Usage:  "Show the benchmark runner state",
				Action: benchmarksStatus,
			},
			{
				Name:      "run",
				Usage:     "Start a benchmark",
				ArgsUsage: "<test-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "wait",
						Aliases: []string{"w"},
						Usage:   "Wait until the runner is idle again",
					},
					&cli.DurationFlag{
						Name:  "interval",
						Value: 2 * time.Second,
						Usage: "Polling interval with --wait",
					},
				},
				Action: benchmarksRun,
			},
			{
				Name:   "results",
				Usage:  "Show the best run of each test",
				Action: benchmarksResults,
			},
		},
	}
}

func benchmarksTests(c *cli.Context) error {
	rt, err := mustRuntime(c)
	if err != nil {
		return err
	}
	return rt.print(c, adminapi.BenchmarkTests)
}

func benchmarksStatus(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	status, err := rt.Client.GetRunner(c.Context)
	if err != nil {
		return fmt.Errorf("runner status: %w", err)
	}
	if !rt.tableOutput(c) {
		return rt.print(c, status)
	}
	renderRunner(rt, status)
	return nil
}

func renderRunner(rt *Runtime, s *adminapi.RunnerStatus) {
	state := s.Status
	if state == "" {
		state = adminapi.RunnerIdle
	}
	fmt.Fprintf(rt.Out, "Status:     %s\n", output.StateLabel(state))
	if s.TestName != "" {
		fmt.Fprintf(rt.Out, "Test:       %s\n", s.TestName)
	}
	switch state {
	case adminapi.RunnerWarming:
		fmt.Fprintf(rt.Out, "Warmup:     %s\n", secs(s.WarmupSecs))
	case adminapi.RunnerRunning:
		if s.ConfiguredDuration != nil {
			fmt.Fprintf(rt.Out, "Elapsed:    %s of %ds\n", secs(s.ElapsedSecs), *s.ConfiguredDuration)
		} else {
			fmt.Fprintf(rt.Out, "Elapsed:    %s\n", secs(s.ElapsedSecs))
		}
	}
	if s.LastError != "" {
		output.Warning(rt.Out, "Last error: %s", s.LastError)
	}

	if len(s.Configs) == 0 {
		return
	}
	fmt.Fprintln(rt.Out)
	output.Heading(rt.Out, "Overrides")
	table := &output.Table{Headers: []string{"TEST", "DURATION", "VUS"}}
	for _, cfg := range s.Configs {
		table.AddRow(cfg.ID, optInt(cfg.Duration, "s"), optInt(cfg.VUs, ""))
	}
	table.Render(rt.Out)
}

func secs(f float64) string {
	return fmt.Sprintf("%ds", int(math.Round(f)))
}

func optInt(v *int, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d%s", *v, unit)
}

func benchmarksRun(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	if c.NArg() != 1 {
		return errors.New("usage: benchmarks run <test-id>")
	}
	testID := c.Args().First()
	if _, ok := adminapi.LookupBenchmarkTest(testID); !ok {
		return fmt.Errorf("unknown test %q (see \"benchmarks tests\")", testID)
	}
	interval := c.Duration("interval")
	if c.Bool("wait") && interval <= 0 {
		return errors.New("--interval must be positive")
	}

	started, err := rt.Client.StartBenchmark(c.Context, testID)
	if err != nil {
		return fmt.Errorf("start benchmark %s: %w", testID, err)
	}
	if !c.Bool("wait") {
		if !rt.tableOutput(c) {
			return rt.print(c, started)
		}
		if started.PID > 0 {
			output.Success(rt.Out, "Benchmark %q started (pid %d).", testID, started.PID)
		} else {
			output.Success(rt.Out, "Benchmark %q started.", testID)
		}
		return nil
	}

	status, err := waitForRunner(c, rt, testID, interval)
	if err != nil {
		return err
	}
	if status.LastError != "" {
		return fmt.Errorf("benchmark %s: %s", testID, status.LastError)
	}

	results, err := rt.Client.BestResults(c.Context)
	if err != nil {
		return fmt.Errorf("best results: %w", err)
	}
	best := []adminapi.BenchmarkResult{}
	for _, r := range results {
		if r.TestName == testID {
			best = append(best, r)
		}
	}
	if rt.tableOutput(c) {
		output.Success(rt.Out, "Benchmark %q finished.", testID)
		if len(best) == 0 {
			return nil
		}
	}
	return rt.print(c, best)
}

// waitForRunner polls the runner until it is idle. A spinner runs while
// stderr is a terminal.
func waitForRunner(c *cli.Context, rt *Runtime, testID string, interval time.Duration) (*adminapi.RunnerStatus, error) {
	var spin *output.Spinner
	if f, ok := rt.Err.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		spin = output.NewSpinner(rt.Err, fmt.Sprintf("Running %s", testID))
		spin.Start()
		defer spin.Stop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Context.Done():
			return nil, fmt.Errorf("wait for benchmark %s: %w", testID, c.Context.Err())
		case <-ticker.C:
		}

		status, err := rt.Client.GetRunner(c.Context)
		if err != nil {
			return nil, fmt.Errorf("runner status: %w", err)
		}
		if status.Idle() {
			return status, nil
		}
	}
}

func benchmarksResults(c *cli.Context) error {
	rt, err := requireSession(c)
	if err != nil {
		return err
	}

	results, err := rt.Client.BestResults(c.Context)
	if err != nil {
		return fmt.Errorf("best results: %w", err)
	}
	if len(results) == 0 && rt.tableOutput(c) {
		fmt.Fprintln(rt.Out, "No benchmark results yet.")
		return nil
	}
	return rt.print(c, results)
}
