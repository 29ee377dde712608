// Package pipeline orchestrates a batch run: batch-filter the harvested
// records, then render each accepted post with per-post failure isolation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hwibalyu/geminaverblog/internal/metrics"
	"github.com/hwibalyu/geminaverblog/internal/report"
	"github.com/hwibalyu/geminaverblog/internal/storage"
	"github.com/hwibalyu/geminaverblog/pkg/ratelimit"
)

var (
	// ErrInvalidInput means the result-set argument is unusable, for
	// example a directory path instead of the artifact file.
	ErrInvalidInput = errors.New("pipeline: invalid input")
	// ErrBatchSizeExceeded means the accepted set is over the processing
	// ceiling. Narrow the keyword or the date range and rerun.
	ErrBatchSizeExceeded = errors.New("pipeline: batch exceeds processing ceiling")
)

// DefaultCeiling is the per-run cap on posts sent to rendering.
const DefaultCeiling = 100

// postPacingJitter loosens the post interval by up to a quarter.
const postPacingJitter = 0.25

// BatchFilter prunes a harvested record list down to the relevant subset.
type BatchFilter interface {
	FilterBatch(ctx context.Context, records []storage.SearchResultRecord, condition string) ([]storage.SearchResultRecord, error)
}

// PostRenderer processes one accepted post. Render produces a PDF; Inspect
// applies the gate only and records the URL.
type PostRenderer interface {
	Render(ctx context.Context, companyName, blogURL, fileName, condition string) (storage.RenderOutcome, error)
	Inspect(ctx context.Context, companyName, blogURL, condition string) (storage.RenderOutcome, error)
}

// Progress is invoked after each post with completed and total counts.
type Progress func(current, total int)

// Options tunes one Run.
type Options struct {
	// FilterCondition overrides the batch gate checklist; empty uses the
	// default.
	FilterCondition string
	// RenderCondition overrides the per-post gate checklist.
	RenderCondition string
	// Ceiling caps the accepted set. Zero means DefaultCeiling.
	Ceiling int
	// Concurrency bounds parallel post processing. Zero or one is
	// sequential, the original pacing model.
	Concurrency int
	// PostDelay is the pacing interval between posts. Zero means one second.
	PostDelay time.Duration
	// NoPDF switches to the URL-only mode: gate, record, no rendering.
	NoPDF bool
	// Progress, when set, receives completion ticks.
	Progress Progress
	// Store, when set, receives every per-post outcome.
	Store storage.OutcomeStore
}

func (o *Options) applyDefaults() {
	if o.Ceiling <= 0 {
		o.Ceiling = DefaultCeiling
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.PostDelay <= 0 {
		o.PostDelay = time.Second
	}
}

// Pipeline wires the batch gate and the renderer together.
type Pipeline struct {
	filter   BatchFilter
	renderer PostRenderer
	logger   *slog.Logger
}

// New creates a Pipeline. A nil logger falls back to slog.Default().
func New(filter BatchFilter, renderer PostRenderer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{filter: filter, renderer: renderer, logger: logger}
}

// RunFile loads a previously persisted result-set artifact and runs the
// batch. Directories are rejected rather than silently globbed.
func (p *Pipeline) RunFile(ctx context.Context, companyName, resultsPath string, opts Options) (report.Summary, error) {
	info, err := os.Stat(resultsPath)
	if err != nil {
		return report.Summary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info.IsDir() {
		return report.Summary{}, fmt.Errorf("%w: %s is a directory, expected a result-set file", ErrInvalidInput, resultsPath)
	}

	records, err := storage.ReadResultSet(resultsPath)
	if err != nil {
		return report.Summary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return p.Run(ctx, companyName, records, opts)
}

// Run batch-filters the records and processes each accepted post in order.
// A post failure is logged and recorded, never fatal; filter failures and
// the ceiling are.
func (p *Pipeline) Run(ctx context.Context, companyName string, records []storage.SearchResultRecord, opts Options) (report.Summary, error) {
	opts.applyDefaults()

	if len(records) == 0 {
		p.logger.Info("nothing to process", "company", companyName)
		return report.GenerateSummary(companyName, 0, 0, nil), nil
	}

	accepted, err := p.filter.FilterBatch(ctx, records, opts.FilterCondition)
	if err != nil {
		metrics.ServiceFailures.Inc()
		return report.Summary{}, fmt.Errorf("batch filter: %w", err)
	}
	metrics.FilterDecisions.WithLabelValues("batch", "accepted").Add(float64(len(accepted)))
	metrics.FilterDecisions.WithLabelValues("batch", "rejected").Add(float64(len(records) - len(accepted)))

	if len(accepted) > opts.Ceiling {
		return report.Summary{}, fmt.Errorf("%w: %d accepted, ceiling %d", ErrBatchSizeExceeded, len(accepted), opts.Ceiling)
	}

	p.logger.Info("processing accepted posts", "company", companyName, "accepted", len(accepted), "of", len(records))

	total := len(accepted)
	outcomes := make([]*storage.RenderOutcome, total)
	var done atomic.Int64
	var storeMu sync.Mutex

	// One post per interval across all workers, jittered so the hosts never
	// see a mechanical rhythm.
	pacer := ratelimit.NewLimiter(opts.PostDelay, postPacingJitter)
	defer pacer.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, rec := range accepted {
		i, rec := i, rec
		g.Go(func() error {
			outcome := p.processOne(gctx, companyName, rec, opts)
			outcomes[i] = &outcome

			metrics.RecordOutcome(&outcome)
			if opts.Store != nil {
				storeMu.Lock()
				if err := opts.Store.Save(gctx, &outcome); err != nil {
					p.logger.Error("outcome save failed", "url", rec.URL, "err", err)
				}
				storeMu.Unlock()
			}
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), total)
			}

			if err := pacer.Wait(gctx); err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Context cancellation only; per-post failures never reach here.
		return report.GenerateSummary(companyName, len(records), total, compact(outcomes)), err
	}

	summary := report.GenerateSummary(companyName, len(records), total, compact(outcomes))
	p.logger.Info("batch complete",
		"company", companyName,
		"rendered", summary.Rendered,
		"url_only", summary.URLOnly,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}

// processOne runs the gate and render for one record, converting any error
// into a failed outcome so one bad post cannot stop the batch.
func (p *Pipeline) processOne(ctx context.Context, companyName string, rec storage.SearchResultRecord, opts Options) storage.RenderOutcome {
	var (
		outcome storage.RenderOutcome
		err     error
	)
	if opts.NoPDF {
		outcome, err = p.renderer.Inspect(ctx, companyName, rec.URL, opts.RenderCondition)
	} else {
		outcome, err = p.renderer.Render(ctx, companyName, rec.URL, SanitizeURL(rec.URL), opts.RenderCondition)
	}
	if err != nil {
		p.logger.Error("post processing failed", "url", rec.URL, "err", err)
		return storage.RenderOutcome{
			ID:        uuid.NewString(),
			URL:       rec.URL,
			Status:    storage.StatusFailed,
			Reason:    err.Error(),
			CreatedAt: time.Now().UTC(),
		}
	}
	return outcome
}

func compact(outcomes []*storage.RenderOutcome) []*storage.RenderOutcome {
	out := make([]*storage.RenderOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}
