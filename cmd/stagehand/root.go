package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at link time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootFlags struct {
	verbose     bool
	logLevel    string
	concurrency int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "stagehand",
		Short:         "Stagehand runs scenario suites and reports every step",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(versionTemplate())

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging and lifecycle events")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the suite log level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVarP(&flags.concurrency, "concurrency", "j", 0, "Maximum number of scenarios running at once")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newValidateCmd())

	return cmd
}

func versionTemplate() string {
	return fmt.Sprintf("{{.Name}} {{.Version}}\ncommit: %s\nbuilt: %s\ngo: %s %s/%s\n",
		commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
