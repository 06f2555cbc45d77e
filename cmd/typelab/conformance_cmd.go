package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"typelab/pkg/conformance"
)

var (
	flagInclude  []string
	flagExclude  []string
	flagParallel int
	flagFailFast bool
	flagFormat   string
	flagDebounce time.Duration
)

var conformanceCmd = &cobra.Command{
	Use:   "conformance",
	Short: "Run YAML relation fixtures against the algebra",
}

var conformanceRunCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run every suite under a fixture tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reporter, err := conformance.NewReporter(flagFormat, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		runner := conformance.NewRunner(runnerOptions(args), logger)
		state, err := runner.Run(cmd.Context(), reporter)
		if err != nil {
			return err
		}
		if state.Failures() {
			return errVerdict
		}
		return nil
	},
}

var conformanceWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-run suites whenever a fixture changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runnerOptions(args)
		reporter, err := conformance.NewReporter(flagFormat, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = conformance.Watch(ctx, opts.Dir, flagDebounce, logger, func(ctx context.Context) {
			runner := conformance.NewRunner(opts, logger)
			if _, err := runner.Run(ctx, reporter); err != nil && ctx.Err() == nil {
				logger.Error("conformance run failed", zap.Error(err))
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func runnerOptions(args []string) conformance.Options {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	return conformance.Options{
		Dir:         dir,
		Include:     flagInclude,
		Exclude:     flagExclude,
		Parallelism: flagParallel,
		FailFast:    flagFailFast,
	}
}

func init() {
	for _, cmd := range []*cobra.Command{conformanceRunCmd, conformanceWatchCmd} {
		cmd.Flags().StringSliceVar(&flagInclude, "include", nil, "only suites whose name contains any of these")
		cmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "skip suites whose name contains any of these")
		cmd.Flags().IntVar(&flagParallel, "parallel", 4, "suites run concurrently")
		cmd.Flags().BoolVar(&flagFailFast, "fail-fast", false, "stop on the first failure")
		cmd.Flags().StringVar(&flagFormat, "format", "doc", "reporter format: doc, json, or tap")
	}
	conformanceWatchCmd.Flags().DurationVar(&flagDebounce, "debounce", 250*time.Millisecond, "delay before re-running after a change")

	conformanceCmd.AddCommand(conformanceRunCmd)
	conformanceCmd.AddCommand(conformanceWatchCmd)
}
