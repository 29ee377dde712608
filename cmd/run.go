package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hwibalyu/geminaverblog/internal/browser"
	"github.com/hwibalyu/geminaverblog/internal/filter"
	"github.com/hwibalyu/geminaverblog/internal/pipeline"
	"github.com/hwibalyu/geminaverblog/internal/report"
)

var (
	runFilterCondition string
	runRenderCondition string
	runNoPDF           bool
	runConcurrency     int
	runReportJSON      string
)

var runCmd = &cobra.Command{
	Use:   "run <keyword> <start-date> <end-date>",
	Short: "Harvest, filter, and render in one pass",
	Long: `Harvests search results for the keyword and date range, prunes the list
through the batch relevance gate, and renders each accepted post to a PDF
under ./<keyword>/. Prints a batch summary when done.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword, startDate, endDate := args[0], args[1], args[2]
		ctx := cmd.Context()

		stopMetrics := startMetrics()
		defer stopMetrics()

		sess, err := newBrowserSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		records, err := newNavigator().Harvest(sess.Context(), keyword, startDate, endDate)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			logger.Info("no search results, nothing to render", "keyword", keyword)
			return nil
		}
		if len(records) > cfg.Pipeline.Ceiling {
			return fmt.Errorf("%d search results exceed the ceiling of %d; narrow the keyword or the date range",
				len(records), cfg.Pipeline.Ceiling)
		}

		p, opts, cleanup, err := buildPipeline(ctx, sess)
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := p.Run(ctx, keyword, records, opts)
		if err != nil {
			return err
		}
		return emitSummary(summary)
	},
}

// buildPipeline assembles the gate, renderer, and store around the running
// browser session. The returned cleanup closes the store.
func buildPipeline(ctx context.Context, sess *browser.Session) (*pipeline.Pipeline, pipeline.Options, func(), error) {
	client, err := newGeminiClient()
	if err != nil {
		return nil, pipeline.Options{}, nil, err
	}
	gate := filter.New(client, logger)

	store, err := newOutcomeStore(ctx)
	if err != nil {
		return nil, pipeline.Options{}, nil, err
	}

	opts := pipeline.Options{
		FilterCondition: runFilterCondition,
		RenderCondition: runRenderCondition,
		Ceiling:         cfg.Pipeline.Ceiling,
		Concurrency:     runConcurrency,
		PostDelay:       cfg.Pipeline.PostDelay,
		NoPDF:           runNoPDF,
		Store:           store,
		Progress: func(current, total int) {
			logger.Info("progress", "current", current, "total", total)
		},
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = cfg.Pipeline.Concurrency
	}

	rend := &tabRenderer{sess: sess, r: newRenderer(gate)}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("outcome store close failed", "err", err)
		}
	}
	return pipeline.New(gate, rend, logger), opts, cleanup, nil
}

func emitSummary(summary report.Summary) error {
	if err := report.WriteText(os.Stdout, summary); err != nil {
		return err
	}
	if runReportJSON != "" {
		f, err := os.Create(runReportJSON)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		if err := report.WriteJSON(f, summary); err != nil {
			return err
		}
		logger.Info("report written", "path", runReportJSON)
	}
	return nil
}

// addBatchFlags registers the flags shared by run and render.
func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runFilterCondition, "filter-condition", "",
		"Override the batch gate checklist")
	cmd.Flags().StringVar(&runRenderCondition, "render-condition", "",
		"Override the per-post gate checklist")
	cmd.Flags().BoolVar(&runNoPDF, "no-pdf", false,
		"Apply the gates and record accepted URLs without generating PDFs")
	cmd.Flags().IntVar(&runConcurrency, "concurrency", 0,
		"Posts processed in parallel (default from config, sequential)")
	cmd.Flags().StringVar(&runReportJSON, "report-json", "",
		"Also write the batch summary as JSON to this path")
}

func init() {
	addBatchFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
