package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/stagehand/internal/config"
	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite-file>",
		Short: "Check a suite file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSuitePath(args[0]); err != nil {
				return err
			}
			suite, err := config.ParseSuite(args[0])
			if err != nil {
				return withExitCode(err)
			}

			steps := 0
			for _, sc := range suite.Scenarios {
				steps += sc.CountSteps()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is valid: %d scenarios, %d steps\n",
				newPalette(cmd.OutOrStdout()).mark(scenario.StatusPassed), suite.Name, len(suite.Scenarios), steps)
			return nil
		},
	}

	return cmd
}
