package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/stagehand/internal/application/suite"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/metrics"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/notify"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/shell"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

const dispatcherCloseTimeout = 5 * time.Second

type runOptions struct {
	SuitePath   string
	Verbose     bool
	LogLevel    string
	Concurrency int
	Labels      []string
	MetricsFile string
	ShowOutput  bool
}

var runCmdRunner = runSuite

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <suite-file>",
		Short: "Run every scenario of a suite",
		Long: `Run executes the scenarios of a suite concurrently and prints the result
of every step. Returns exit code 0 when no scenario failed, exit code 1 when
at least one failed and exit code 2 when the suite file is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SuitePath = args[0]
			opts.Verbose = root.verbose
			opts.LogLevel = root.logLevel
			opts.Concurrency = root.concurrency

			if err := validateSuitePath(opts.SuitePath); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withExitCode(runCmdRunner(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Labels, "label", "l", nil, "Only run scenarios carrying one of these labels")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file after the run")
	cmd.Flags().BoolVar(&opts.ShowOutput, "show-output", false, "Mirror step command output to the terminal")

	return cmd
}

func runSuite(ctx context.Context, opts runOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ports.WithCorrelationID(ctx, ports.GenerateCorrelationID())

	// Log into a buffer until the suite settings decide the level.
	buffer := logging.NewBuffer(0)
	loader := suite.NewRunUseCase(suite.WithLogger(buffer))
	loaded, err := loader.Load(ctx, opts.SuitePath)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{
		Writer:        stderr,
		Level:         effectiveLogLevel(opts, loaded.Settings.EffectiveLogLevel()),
		HumanReadable: isTerminal(stderr),
		Component:     "stagehand",
	})
	if err != nil {
		return err
	}
	buffer.Flush(log)

	collector := metrics.NewCollector()
	dispatcher := notify.NewDispatcher(log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), dispatcherCloseTimeout)
		defer cancel()
		if err := dispatcher.Close(closeCtx); err != nil {
			log.Warn(ctx, "event dispatcher did not drain", "error", err)
		}
	}()
	if _, err := dispatcher.Subscribe(ports.EventScenarioFinished, notify.MetricsHandler(collector)); err != nil {
		return err
	}
	if _, err := dispatcher.Subscribe(ports.EventStepFinished, notify.MetricsHandler(collector)); err != nil {
		return err
	}
	if opts.Verbose {
		if _, err := dispatcher.Subscribe(notify.AllEvents, notify.LoggingHandler(log)); err != nil {
			return err
		}
	}

	var shellOpts []shell.Option
	if opts.ShowOutput {
		shellOpts = append(shellOpts, shell.WithOutput(stderr, stderr))
	}

	uc := suite.NewRunUseCase(
		suite.WithLogger(log),
		suite.WithCommandRunner(shell.NewRunner(shellOpts...)),
		suite.WithNotifier(dispatcher),
		suite.WithMetrics(collector),
		suite.WithConcurrency(opts.Concurrency),
		suite.WithLabels(opts.Labels...),
	)
	report, err := uc.Execute(ctx, loaded)
	if err != nil {
		return err
	}

	if err := dispatcher.Flush(ctx); err != nil {
		log.Warn(ctx, "event dispatcher flush failed", "error", err)
	}
	renderReport(stdout, report, opts.Verbose)

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, collector.Registry()); err != nil {
			return err
		}
	}

	if report.Failed() {
		return errSuiteFailed
	}
	return nil
}

func effectiveLogLevel(opts runOptions, configured string) string {
	switch {
	case opts.LogLevel != "":
		return opts.LogLevel
	case opts.Verbose:
		return "debug"
	}
	return configured
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
