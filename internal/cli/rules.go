package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/avendel/reqstress/internal/rules"
)

func newRulesCmd(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate detector rules files",
	}
	cmd.AddCommand(newRulesValidateCmd(), newRulesShowCmd(rootOpts))
	return cmd
}

func newRulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules-file>",
		Short: "Validate a JSON or YAML rules file against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rules.Load(args[0])
			if err != nil {
				return err
			}

			names := cfg.CategoryNames()
			sort.Strings(names)
			enabled := 0
			for _, name := range names {
				if cfg.IsEnabled(name) {
					enabled++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (version %s, %d categories, %d enabled)\n",
				args[0], cfg.Version(), len(names), enabled)
			return nil
		},
	}
}

func newRulesShowCmd(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active ruleset as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rules.Default()
			if rootOpts.RulesPath != "" {
				var err error
				cfg, err = rules.Load(rootOpts.RulesPath)
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}
