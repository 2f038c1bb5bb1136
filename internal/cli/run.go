package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/viant/edt"
	"github.com/viant/edt/internal/workload"
	"github.com/viant/edt/service/scheduler"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Workers   int
	Scheduler string
	N         uint64
	Timeout   time.Duration
}

// RunResult is what the run command reports.
type RunResult struct {
	Workload  string `json:"workload"`
	N         uint64 `json:"n"`
	Result    uint64 `json:"result"`
	Tasks     int    `json:"tasks"`
	Failed    int    `json:"failed"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <fib|chain>",
		Short: "Run a sample workload",
		Long: `Start the runtime, run a sample task graph and report its result.

  fib    computes fib(n) as a tree of tasks joined by sum tasks
  chain  runs n tasks in sequence, each depending on the previous one

Example:
  edtrun run fib --n 20 --workers 8
  edtrun run chain --n 1000 --scheduler fsim --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload(cmd, opts, workload.Kind(args[0]))
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "number of workers (default from config)")
	cmd.Flags().StringVar(&opts.Scheduler, "scheduler", "", "scheduler kind: hc|fsim (default from config)")
	cmd.Flags().Uint64Var(&opts.N, "n", 20, "workload size")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Minute, "time limit")

	return cmd
}

func runWorkload(cmd *cobra.Command, opts *RunOptions, kind workload.Kind) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, opts.Timeout)
	defer cancelTimeout()

	config, err := opts.loadConfig(ctx)
	if err != nil {
		return err
	}
	if opts.Workers > 0 {
		config.Domain.Workers.Count = opts.Workers
	}
	if opts.Scheduler != "" {
		config.Domain.Scheduler.Kind = scheduler.Kind(opts.Scheduler)
	}
	if opts.Verbose {
		config.Log.Level = logrus.DebugLevel.String()
	}
	rt, err := edt.New(edt.WithConfig(config))
	if err != nil {
		return err
	}
	if err = rt.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = rt.Shutdown(context.Background()) }()

	started := time.Now()
	value, err := workload.Run(ctx, rt.Domain(), kind, opts.N)
	if err != nil {
		return err
	}
	if err = rt.Wait(ctx, opts.Timeout); err != nil {
		return err
	}
	progress := rt.Progress()
	result := &RunResult{
		Workload:  string(kind),
		N:         opts.N,
		Result:    value,
		Tasks:     progress.TotalTasks,
		Failed:    progress.FailedTasks,
		ElapsedMs: time.Since(started).Milliseconds(),
	}
	return printResult(cmd, opts.Format, result)
}

func printResult(cmd *cobra.Command, format string, result *RunResult) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	_, err := fmt.Fprintf(out, "%s(%d) = %d\ntasks: %d, failed: %d, elapsed: %dms\n",
		result.Workload, result.N, result.Result, result.Tasks, result.Failed, result.ElapsedMs)
	return err
}
