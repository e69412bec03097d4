package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild both search indexes from the document store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.engine.RebuildIndexes(ctx); err != nil {
				return err
			}

			stats := rt.engine.IndexStats()
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d phrases.\n", stats.IndexedPhrases)
			return nil
		},
	}
}
