package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and query-log statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			faqs, err := rt.store.ListFAQs(ctx)
			if err != nil {
				return err
			}
			intents, err := rt.store.ListIntents(ctx)
			if err != nil {
				return err
			}
			queryStats, err := rt.store.Stats(ctx)
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(map[string]any{
					"faqs":                 len(faqs),
					"intents":              len(intents),
					"today_queries":        queryStats.TodayQueries,
					"total_queries":        queryStats.TotalQueries,
					"avg_response_time_ms": queryStats.AvgResponseTime,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "FAQs:             %d\n", len(faqs))
			fmt.Fprintf(out, "Intents:          %d\n", len(intents))
			fmt.Fprintf(out, "Queries today:    %d\n", queryStats.TodayQueries)
			fmt.Fprintf(out, "Queries total:    %d\n", queryStats.TotalQueries)
			fmt.Fprintf(out, "Avg response:     %.1f ms\n", queryStats.AvgResponseTime)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")

	return cmd
}
