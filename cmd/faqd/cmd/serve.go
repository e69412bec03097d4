package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/speaksense/faqd/internal/server"
)

func newServeCmd() *cobra.Command {
	var skipRebuild bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the retrieval HTTP server",
		Long: `Starts the HTTP server, rebuilding both search indexes from the
document store on startup. Endpoints: /health, /retrieval/search,
/retrieval/best_answer, /retrieval/rebuild_indices, /retrieval/stats.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if !skipRebuild {
				if err := rt.engine.RebuildIndexes(ctx); err != nil {
					return err
				}
			}

			srv := server.New(server.Deps{
				Retrieval: rt.engine,
				Logs:      rt.store,
				Logger:    slog.Default(),
			})
			return srv.Run(ctx, rt.cfg.Server.Addr())
		},
	}

	cmd.Flags().BoolVar(&skipRebuild, "skip-rebuild", false, "Skip the startup index rebuild (serve empty until /retrieval/rebuild_indices)")

	return cmd
}
