package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avendel/reqstress/internal/app"
	"github.com/avendel/reqstress/internal/report"
)

func newAnalyzeCmd(rootOpts *rootOptions) *cobra.Command {
	var (
		format   string
		output   string
		topN     int
		workers  int
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <requirements-file>",
		Short: "Analyze a requirements document and print the risk report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := report.New(format)
			if err != nil {
				return err
			}

			cfg := app.DefaultConfig()
			cfg.RulesPath = rootOpts.RulesPath
			cfg.TopN = topN
			cfg.Workers = workers
			cfg.DatabasePath = "" // single run, nothing to persist

			orch, err := app.NewOrchestrator(cfg, nil, rootOpts.logger())
			if err != nil {
				return err
			}

			var observe app.ProgressFunc
			if progress {
				errOut := cmd.ErrOrStderr()
				last := -1
				observe = func(percent int, stage string) {
					if percent == last {
						return
					}
					last = percent
					fmt.Fprintf(errOut, "[%3d%%] %s\n", percent, stage)
				}
			}

			rep, err := orch.AnalyzeFileObserved(cmd.Context(), args[0], observe)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if err := renderer.Render(out, rep); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s (%d requirements, %d risks)\n",
					output, len(rep.Requirements), rep.TotalRisks())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Report format: markdown, csv, json, html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().IntVar(&topN, "top", 5, "Number of riskiest requirements to rank")
	cmd.Flags().IntVar(&workers, "workers", 4, "Analysis worker pool size")
	cmd.Flags().BoolVar(&progress, "progress", false, "Print pipeline progress to stderr")

	return cmd
}
