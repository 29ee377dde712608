package cmd

import (
	"context"

	"github.com/hwibalyu/geminaverblog/internal/browser"
	"github.com/hwibalyu/geminaverblog/internal/filter"
	"github.com/hwibalyu/geminaverblog/internal/navigator"
	"github.com/hwibalyu/geminaverblog/internal/renderer"
	"github.com/hwibalyu/geminaverblog/internal/storage"
)

// newBrowserSession starts headless Chrome per the config.
func newBrowserSession(ctx context.Context) (*browser.Session, error) {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.ExecPath = cfg.Browser.ExecPath
	if cfg.Browser.Width > 0 {
		opts.WindowWidth = cfg.Browser.Width
	}
	if cfg.Browser.Height > 0 {
		opts.WindowHeight = cfg.Browser.Height
	}
	return browser.NewSession(ctx, opts, logger)
}

func newNavigator() *navigator.Navigator {
	return navigator.New(navigator.Config{
		HomeURL:      cfg.Harvest.HomeURL,
		NavTimeout:   cfg.Harvest.NavTimeout,
		ListTimeout:  cfg.Harvest.ListTimeout,
		PageDelayMin: cfg.Harvest.PageDelayMin,
		PageDelayMax: cfg.Harvest.PageDelayMax,
		BaseDir:      cfg.Harvest.BaseDir,
	}, logger)
}

func newRenderer(gate *filter.Filter) *renderer.Renderer {
	return renderer.New(gate, renderer.Config{
		BaseDir:       cfg.Harvest.BaseDir,
		ContentHost:   cfg.Render.ContentHost,
		NavTimeout:    cfg.Render.NavTimeout,
		SettleDelay:   cfg.Render.SettleDelay,
		ViewportWidth: cfg.Render.ViewportWidth,
	}, logger)
}

// tabRenderer adapts the renderer to the pipeline by giving every post a
// fresh tab in the shared browser.
type tabRenderer struct {
	sess *browser.Session
	r    *renderer.Renderer
}

func (t *tabRenderer) Render(ctx context.Context, companyName, blogURL, fileName, condition string) (storage.RenderOutcome, error) {
	if err := ctx.Err(); err != nil {
		return storage.RenderOutcome{}, err
	}
	tabCtx, cancel := t.sess.NewTab()
	defer cancel()
	return t.r.Render(tabCtx, companyName, blogURL, fileName, condition)
}

func (t *tabRenderer) Inspect(ctx context.Context, companyName, blogURL, condition string) (storage.RenderOutcome, error) {
	if err := ctx.Err(); err != nil {
		return storage.RenderOutcome{}, err
	}
	tabCtx, cancel := t.sess.NewTab()
	defer cancel()
	return t.r.Inspect(tabCtx, companyName, blogURL, condition)
}
