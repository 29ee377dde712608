package cmd

import (
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <keyword> <results-file>",
	Short: "Filter and render a previously harvested result set",
	Long: `Loads a <keyword>_rawdata.json artifact produced by harvest, prunes it
through the batch relevance gate, and renders each accepted post. Shares the
run flags for conditions, concurrency, and the URL-only mode.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword, resultsPath := args[0], args[1]
		ctx := cmd.Context()

		stopMetrics := startMetrics()
		defer stopMetrics()

		sess, err := newBrowserSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		p, opts, cleanup, err := buildPipeline(ctx, sess)
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := p.RunFile(ctx, keyword, resultsPath, opts)
		if err != nil {
			return err
		}
		return emitSummary(summary)
	},
}

func init() {
	addBatchFlags(renderCmd)
	rootCmd.AddCommand(renderCmd)
}
