package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speaksense/faqd/internal/engine"
)

func newSearchCmd() *cobra.Command {
	var (
		topK       int
		language   string
		method     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-shot query against the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args, " ")

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.engine.RebuildIndexes(ctx); err != nil {
				return err
			}

			results, err := rt.engine.Search(ctx, query, topK, language, engine.Method(method))
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				if results == nil {
					results = []*engine.Result{}
				}
				return encoder.Encode(results)
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results.")
				return nil
			}
			for i, r := range results {
				printResult(cmd, i+1, r)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 3, "Maximum number of results")
	cmd.Flags().StringVarP(&language, "language", "l", "auto", "Query language (auto, en, zh)")
	cmd.Flags().StringVarP(&method, "method", "m", "hybrid", "Search method (bm25, vector, hybrid)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func printResult(cmd *cobra.Command, rank int, r *engine.Result) {
	out := cmd.OutOrStdout()
	switch r.Type {
	case "intent":
		fmt.Fprintf(out, "%d. [intent] %s (score %.3f, %s)\n", rank, r.IntentName, r.Score, r.MatchedBy)
		fmt.Fprintf(out, "   action: %s\n", r.ActionType)
		if len(r.Parameters) > 0 {
			fmt.Fprintf(out, "   parameters:\n")
			for name, value := range r.Parameters {
				fmt.Fprintf(out, "     %s: %s\n", name, value)
			}
		}
	default:
		fmt.Fprintf(out, "%d. [faq] %s (score %.3f, %s)\n", rank, r.Question, r.Score, r.MatchedBy)
		fmt.Fprintf(out, "   %s\n", r.Answer)
	}
}
