// Package cli builds the reqstress command tree: analyze a requirements
// file, inspect or validate rules files, and run the API server.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/avendel/reqstress/internal/logging"
)

const version = "0.1.0"

// Execute builds the root command tree and runs the CLI.
func Execute() error {
	rootOpts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "reqstress",
		Short:         "Rule-based risk analysis for requirement documents",
		Long:          "reqstress scans a requirements document (.txt or .md) with a set of\nrisk detectors, scores each requirement, and reports the riskiest ones.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("reqstress version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&rootOpts.RulesPath, "rules", "", "Path to a JSON or YAML rules file (default: built-in ruleset)")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "Enable structured log output")

	rootCmd.AddCommand(
		newAnalyzeCmd(rootOpts),
		newRulesCmd(rootOpts),
		newServeCmd(rootOpts),
	)

	return rootCmd.Execute()
}

type rootOptions struct {
	RulesPath string
	Verbose   bool
}

func (o *rootOptions) logger() logging.Logger {
	if o.Verbose {
		return logging.NewStdoutLogger("reqstress")
	}
	return logging.NopLogger{}
}
