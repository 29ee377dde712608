// Package renderer turns an accepted blog post URL into a PDF with a
// provenance banner, running the per-post relevance gate first.
package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/hwibalyu/geminaverblog/internal/filter"
	"github.com/hwibalyu/geminaverblog/internal/storage"
)

const (
	// pxPerInch converts CSS pixels to the inches PrintToPDF wants.
	pxPerInch = 96.0

	defaultViewportWidth = 1200
	// heightViewportPad and heightPaperPad give the measured content room
	// to reflow after the banner is inserted.
	heightViewportPad = 600
	heightPaperPad    = 400
)

// Decider is the per-post relevance gate.
type Decider interface {
	Decide(ctx context.Context, companyName, bodyText, condition string) (filter.Decision, error)
}

// Config tunes rendering.
type Config struct {
	// BaseDir is the parent of the per-company output directory.
	BaseDir string
	// ContentHost identifies the iframe carrying the post body.
	ContentHost string
	// NavTimeout bounds the initial page load and the print phase.
	NavTimeout time.Duration
	// SettleDelay is the pause between banner insertion and printing.
	SettleDelay time.Duration
	ViewportWidth int
}

func (c *Config) applyDefaults() {
	if c.BaseDir == "" {
		c.BaseDir = "."
	}
	if c.ContentHost == "" {
		c.ContentHost = "blog.naver.com"
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 60 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = defaultViewportWidth
	}
}

// Renderer renders posts in a chromedp tab supplied per call.
type Renderer struct {
	decider Decider
	cfg     Config
	logger  *slog.Logger
}

// New creates a Renderer. A nil logger falls back to slog.Default().
func New(decider Decider, cfg Config, logger *slog.Logger) *Renderer {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{decider: decider, cfg: cfg, logger: logger}
}

// Render loads the post, runs the gate, and writes the PDF under
// <BaseDir>/<companyName>/. A NO verdict yields a skipped outcome, not an
// error; errors mean the post could not be processed at all.
func (r *Renderer) Render(tabCtx context.Context, companyName, blogURL, fileName, condition string) (storage.RenderOutcome, error) {
	start := time.Now()

	bodyText, err := r.load(tabCtx, blogURL)
	if err != nil {
		return storage.RenderOutcome{}, err
	}

	decision, err := r.decider.Decide(tabCtx, companyName, bodyText, condition)
	if err != nil {
		return storage.RenderOutcome{}, fmt.Errorf("decide: %w", err)
	}
	if decision.Unavailable() {
		r.logger.Warn("gate unavailable, rendering anyway", "url", blogURL, "reason", decision.Reason)
	}
	if !decision.Allows() {
		r.logger.Info("post skipped", "url", blogURL, "reason", decision.Reason)
		return r.outcome(blogURL, storage.StatusSkipped, decision.Reason, "", start), nil
	}
	r.logger.Info("post accepted", "url", blogURL, "reason", decision.Reason)

	outPath, err := r.outputPath(companyName, fileName)
	if err != nil {
		return storage.RenderOutcome{}, err
	}

	pdf, err := r.print(tabCtx, blogURL, decision.Reason)
	if err != nil {
		return storage.RenderOutcome{}, fmt.Errorf("print %s: %w", blogURL, err)
	}
	if err := os.WriteFile(outPath, pdf, 0o644); err != nil {
		return storage.RenderOutcome{}, fmt.Errorf("write pdf: %w", err)
	}

	r.logger.Info("pdf written", "path", outPath, "bytes", len(pdf))
	out := r.outcome(blogURL, storage.StatusRendered, decision.Reason, outPath, start)
	out.Unavailable = decision.Unavailable()
	return out, nil
}

// Inspect runs the gate without producing a PDF. Accepted posts come back as
// URL-only outcomes for the collected-links report.
func (r *Renderer) Inspect(tabCtx context.Context, companyName, blogURL, condition string) (storage.RenderOutcome, error) {
	start := time.Now()

	bodyText, err := r.load(tabCtx, blogURL)
	if err != nil {
		return storage.RenderOutcome{}, err
	}

	decision, err := r.decider.Decide(tabCtx, companyName, bodyText, condition)
	if err != nil {
		return storage.RenderOutcome{}, fmt.Errorf("decide: %w", err)
	}
	if decision.Unavailable() {
		r.logger.Warn("gate unavailable, keeping url anyway", "url", blogURL, "reason", decision.Reason)
	}
	if !decision.Allows() {
		r.logger.Info("url skipped", "url", blogURL, "reason", decision.Reason)
		return r.outcome(blogURL, storage.StatusSkipped, decision.Reason, "", start), nil
	}
	r.logger.Info("url kept", "url", blogURL, "reason", decision.Reason)
	out := r.outcome(blogURL, storage.StatusURLOnly, decision.Reason, "", start)
	out.Unavailable = decision.Unavailable()
	return out, nil
}

// load navigates to the post, descends into the content iframe when one is
// present, and returns the body text for the gate.
func (r *Renderer) load(tabCtx context.Context, blogURL string) (string, error) {
	navCtx, cancel := context.WithTimeout(tabCtx, r.cfg.NavTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(int64(r.cfg.ViewportWidth), 800),
		chromedp.Navigate(blogURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", blogURL, err)
	}

	// The desktop blog wraps the post in an iframe. chromedp evaluates in
	// the top frame, so navigate into the frame document instead.
	var frameSrc string
	js := fmt.Sprintf(frameSrcJS, r.cfg.ContentHost)
	if err := chromedp.Run(navCtx, chromedp.Evaluate(js, &frameSrc)); err != nil {
		return "", fmt.Errorf("probe frames: %w", err)
	}
	if frameSrc != "" {
		resolved, err := resolveFrameURL(blogURL, frameSrc)
		if err != nil {
			return "", fmt.Errorf("resolve frame src %q: %w", frameSrc, err)
		}
		err = chromedp.Run(navCtx,
			chromedp.Navigate(resolved),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
		if err != nil {
			return "", fmt.Errorf("load frame %s: %w", resolved, err)
		}
	}

	var bodyText string
	if err := chromedp.Run(navCtx, chromedp.Evaluate(bodyTextJS, &bodyText)); err != nil {
		return "", fmt.Errorf("extract body text: %w", err)
	}
	return bodyText, nil
}

// print measures the content, scrolls it into full load, injects the banner,
// and produces the PDF bytes. The whole phase runs under NavTimeout so a
// stalled scroll or image wait cannot hold the tab open indefinitely.
func (r *Renderer) print(tabCtx context.Context, blogURL, reason string) ([]byte, error) {
	printCtx, cancel := context.WithTimeout(tabCtx, r.cfg.NavTimeout)
	defer cancel()

	var height float64
	if err := chromedp.Run(printCtx, chromedp.Evaluate(contentHeightJS, &height)); err != nil {
		return nil, fmt.Errorf("measure content: %w", err)
	}

	err := chromedp.Run(printCtx,
		chromedp.EmulateViewport(int64(r.cfg.ViewportWidth), int64(height)+heightViewportPad),
		chromedp.Evaluate(autoScrollJS, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("autoscroll: %w", err)
	}

	var injected bool
	banner := fmt.Sprintf(bannerJS, blogURL, reason)
	if err := chromedp.Run(printCtx, chromedp.Evaluate(banner, &injected)); err != nil {
		return nil, fmt.Errorf("inject banner: %w", err)
	}

	var pdf []byte
	err = chromedp.Run(printCtx,
		chromedp.Sleep(r.cfg.SettleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(float64(r.cfg.ViewportWidth) / pxPerInch).
				WithPaperHeight((height + heightPaperPad) / pxPerInch).
				WithMarginTop(40.0 / pxPerInch).
				WithMarginRight(20.0 / pxPerInch).
				WithMarginBottom(20.0 / pxPerInch).
				WithMarginLeft(20.0 / pxPerInch).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// outputPath ensures the per-company directory exists and joins the file
// name into it, discarding any directory part the caller passed.
func (r *Renderer) outputPath(companyName, fileName string) (string, error) {
	dir := filepath.Join(r.cfg.BaseDir, companyName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(fileName)), nil
}

func (r *Renderer) outcome(blogURL string, status, reason, pdfPath string, start time.Time) storage.RenderOutcome {
	return storage.RenderOutcome{
		ID:        uuid.NewString(),
		URL:       blogURL,
		Status:    status,
		Reason:    reason,
		PDFPath:   pdfPath,
		Duration:  time.Since(start),
		CreatedAt: time.Now().UTC(),
	}
}

// resolveFrameURL makes a possibly relative iframe src absolute against the
// post URL.
func resolveFrameURL(base, src string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	s, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(s).String(), nil
}
