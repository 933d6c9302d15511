package cli

import (
	"github.com/spf13/cobra"

	"github.com/avendel/reqstress/internal/app"
	"github.com/avendel/reqstress/internal/logging"
	"github.com/avendel/reqstress/internal/server"
)

func newServeCmd(rootOpts *rootOptions) *cobra.Command {
	var (
		addr   string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := app.DefaultConfig()
			appCfg.RulesPath = rootOpts.RulesPath
			appCfg.DatabasePath = dbPath

			// The server always logs, verbose or not.
			logger := logging.NewStdoutLogger("reqstress")

			srv, err := server.NewServer(server.Config{
				ListenAddr: addr,
				AppConfig:  appCfg,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			defer srv.Close()

			logger.Info("listening", logging.Field{Key: "addr", Value: addr})
			return srv.HTTPServer().ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&dbPath, "db", "reqstress.db", "SQLite database for uploads and reports")

	return cmd
}
