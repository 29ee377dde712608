package cmd

import (
	"github.com/spf13/cobra"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest <keyword> <start-date> <end-date>",
	Short: "Collect blog search results for a keyword and date range",
	Long: `Walks every page of Naver blog-section search results for the keyword
between start-date and end-date (YYYY-MM-DD) and writes them to
<keyword>/<keyword>_rawdata.json.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword, startDate, endDate := args[0], args[1], args[2]

		stopMetrics := startMetrics()
		defer stopMetrics()

		sess, err := newBrowserSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		records, err := newNavigator().Harvest(sess.Context(), keyword, startDate, endDate)
		if err != nil {
			return err
		}
		logger.Info("harvest finished", "keyword", keyword, "records", len(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(harvestCmd)
}
