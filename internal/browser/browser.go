// Package browser manages headless Chrome sessions via chromedp. It owns the
// allocator flags and tab lifecycle so that the navigator and renderer only
// see a ready context.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/hwibalyu/geminaverblog/pkg/useragent"
)

const (
	DefaultWindowWidth  = 1200
	DefaultWindowHeight = 900
)

// Options configures a browser session.
type Options struct {
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	// ExecPath overrides the Chrome binary lookup. Empty means autodetect.
	ExecPath string
}

// DefaultOptions returns the options used by the harvest and render commands.
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		UserAgent:    useragent.NewPool(nil).GetRandom(),
		WindowWidth:  DefaultWindowWidth,
		WindowHeight: DefaultWindowHeight,
	}
}

// allocatorOptions translates Options into chromedp allocator flags.
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	out := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("force-color-profile", "srgb"),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.Headless {
		out = append(out, chromedp.Flag("headless", "new"))
	} else {
		out = append(out, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		out = append(out, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}
	return out
}

// Session is a running Chrome with one tab. Close releases both.
type Session struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewSession starts Chrome and opens a tab. The returned session context is a
// child of parent, so cancelling parent tears the browser down too.
func NewSession(parent context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = DefaultWindowWidth
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = DefaultWindowHeight
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocatorOptions(opts)...)

	var ctxOpts []chromedp.ContextOption
	if logger != nil {
		ctxOpts = append(ctxOpts, chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chromedp error", "detail", fmt.Sprintf(format, args...))
		}))
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, ctxOpts...)

	// Force the browser to start now so a missing binary fails fast.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}

	return &Session{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

// Context returns the tab context to run chromedp actions against.
func (s *Session) Context() context.Context {
	return s.ctx
}

// NewTab opens an additional tab sharing the session's browser. The caller
// owns the returned cancel.
func (s *Session) NewTab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(s.ctx)
}

// Close shuts the tab and the browser process down.
func (s *Session) Close() {
	s.cancelTab()
	s.cancelAlloc()
}

// Run executes actions in the session tab under a deadline.
func (s *Session) Run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}
