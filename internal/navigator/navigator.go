// Package navigator drives the Naver blog-section search UI: it types the
// keyword, applies the custom date range, and walks every result page,
// extracting one record per post.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/hwibalyu/geminaverblog/internal/browser"
	"github.com/hwibalyu/geminaverblog/internal/metrics"
	"github.com/hwibalyu/geminaverblog/internal/storage"
	"github.com/hwibalyu/geminaverblog/pkg/ratelimit"
)

var (
	// ErrElementNotFound means a control the protocol depends on never
	// appeared. Returned when Naver has changed its markup or blocked us.
	ErrElementNotFound = errors.New("navigator: expected element not found")
	// ErrNavigationTimeout means a page transition did not finish in time.
	ErrNavigationTimeout = errors.New("navigator: navigation timed out")
)

const (
	DefaultHomeURL = "https://section.blog.naver.com/"

	searchInputSelector    = `input[name="sectionBlogQuery"]`
	searchButtonSelector   = `.area_search .button_blog`
	periodDropdownSelector = `.search_option .area_dropdown[data-set="period"] > a.present_selected`
	periodItemSelector     = `.search_option .area_dropdown[data-set="period"] .dropdown_select a.item`
	startDateSelector      = `#search_start_date`
	endDateSelector        = `#search_end_date`
	periodApplySelector    = `#periodSearch`
	resultCountSelector    = `.search_information .search_number`
	listContainerSelector  = `.area_list_search`
	noDataSelector         = `.nodata`
)

// Config tunes the harvest protocol. Zero values take the defaults below.
type Config struct {
	HomeURL string
	// NavTimeout bounds full page transitions (search submit, period apply,
	// page moves).
	NavTimeout time.Duration
	// ElementTimeout bounds waits for individual controls.
	ElementTimeout time.Duration
	// ListTimeout bounds the wait for the result list on each page.
	ListTimeout time.Duration
	// PageDelayMin/Max bound the randomized pause between result pages.
	PageDelayMin time.Duration
	PageDelayMax time.Duration
	// BaseDir is where the per-keyword result file is written. Empty
	// disables the write and Harvest only returns the records.
	BaseDir string
}

func (c *Config) applyDefaults() {
	if c.HomeURL == "" {
		c.HomeURL = DefaultHomeURL
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 60 * time.Second
	}
	if c.ElementTimeout <= 0 {
		c.ElementTimeout = 10 * time.Second
	}
	if c.ListTimeout <= 0 {
		c.ListTimeout = 15 * time.Second
	}
	if c.PageDelayMin <= 0 {
		c.PageDelayMin = time.Second
	}
	if c.PageDelayMax <= c.PageDelayMin {
		c.PageDelayMax = c.PageDelayMin + time.Second
	}
}

// Navigator runs harvests against one browser tab.
type Navigator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Navigator. A nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Navigator {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{cfg: cfg, logger: logger}
}

// periodItemJS clicks the dropdown entry whose label matches exactly.
// The entries carry no stable ids, only display text.
const periodItemJS = `(() => {
	const items = document.querySelectorAll(%q);
	for (const item of items) {
		if (item.textContent.trim() === %q) { item.click(); return true; }
	}
	return false;
})()`

// setDatesJS writes both date inputs and fires input events so the Angular
// bindings pick the values up. Plain SendKeys does not trigger them.
const setDatesJS = `(() => {
	const fill = (sel, v) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		el.value = v;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		return true;
	};
	return fill(%q, %q) && fill(%q, %q);
})()`

const resultCountJS = `(() => {
	const el = document.querySelector(%q);
	if (!el) return -1;
	const m = el.textContent.replace(/,/g, '').match(/\d+/);
	return m ? parseInt(m[0], 10) : -1;
})()`

// pageLinkJS clicks the pagination entry for a page number, matching either
// the aria-label ("N페이지") or the bare link text.
const pageLinkJS = `(() => {
	const links = document.querySelectorAll('.pagination a.item');
	for (const a of links) {
		if (a.getAttribute('aria-label') === %q || a.textContent.trim() === %q) {
			a.click();
			return true;
		}
	}
	return false;
})()`

const nextGroupJS = `(() => {
	const a = document.querySelector('.pagination a.button_next');
	if (!a) return false;
	a.click();
	return true;
})()`

// Harvest runs the full protocol for one keyword and date range. Dates are
// "YYYY-MM-DD". Partial results survive mid-pagination timeouts; a failure
// before the first page is fatal.
func (n *Navigator) Harvest(ctx context.Context, keyword, startDate, endDate string) ([]storage.SearchResultRecord, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: empty keyword", ErrElementNotFound)
	}

	n.logger.Info("harvest starting", "keyword", keyword, "from", startDate, "to", endDate)

	if err := n.openSearch(ctx, keyword); err != nil {
		return nil, err
	}
	if err := n.applyPeriod(ctx, startDate, endDate); err != nil {
		return nil, err
	}
	n.logResultCount(ctx)

	records, err := n.paginate(ctx, keyword)
	if err != nil {
		return nil, err
	}

	n.logger.Info("harvest complete", "keyword", keyword, "records", len(records))

	if n.cfg.BaseDir != "" && len(records) > 0 {
		path, err := storage.WriteResultSet(n.cfg.BaseDir, keyword, records)
		if err != nil {
			return records, fmt.Errorf("write result set: %w", err)
		}
		n.logger.Info("result set written", "path", path)
	}
	if len(records) == 0 {
		n.logger.Info("no results for keyword", "keyword", keyword)
	}
	return records, nil
}

// openSearch loads the blog section home, types the keyword, and submits.
func (n *Navigator) openSearch(ctx context.Context, keyword string) error {
	err := n.run(ctx, n.cfg.NavTimeout,
		chromedp.Navigate(n.cfg.HomeURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return mapTimeout(err, ErrNavigationTimeout, "open blog home")
	}

	err = n.run(ctx, n.cfg.ElementTimeout,
		chromedp.WaitVisible(searchInputSelector, chromedp.ByQuery),
		chromedp.SendKeys(searchInputSelector, keyword, chromedp.ByQuery),
		chromedp.WaitVisible(searchButtonSelector, chromedp.ByQuery),
	)
	if err != nil {
		return mapTimeout(err, ErrElementNotFound, "search input")
	}

	err = n.run(ctx, n.cfg.NavTimeout,
		chromedp.Click(searchButtonSelector, chromedp.ByQuery),
		chromedp.WaitVisible(".search_option", chromedp.ByQuery),
	)
	if err != nil {
		return mapTimeout(err, ErrNavigationTimeout, "submit search")
	}
	return nil
}

// applyPeriod switches the period filter to a custom date range.
func (n *Navigator) applyPeriod(ctx context.Context, startDate, endDate string) error {
	err := n.run(ctx, n.cfg.ElementTimeout,
		chromedp.WaitVisible(periodDropdownSelector, chromedp.ByQuery),
		chromedp.Click(periodDropdownSelector, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
	)
	if err != nil {
		return mapTimeout(err, ErrElementNotFound, "period dropdown")
	}

	var clicked bool
	js := fmt.Sprintf(periodItemJS, periodItemSelector, "기간 입력")
	if err := n.run(ctx, n.cfg.ElementTimeout, chromedp.Evaluate(js, &clicked)); err != nil {
		return mapTimeout(err, ErrElementNotFound, "period item")
	}
	if !clicked {
		return fmt.Errorf("%w: custom period entry", ErrElementNotFound)
	}

	err = n.run(ctx, n.cfg.ElementTimeout,
		chromedp.Sleep(300*time.Millisecond),
		chromedp.WaitVisible(startDateSelector, chromedp.ByQuery),
		chromedp.WaitVisible(endDateSelector, chromedp.ByQuery),
	)
	if err != nil {
		return mapTimeout(err, ErrElementNotFound, "date inputs")
	}

	var filled bool
	js = fmt.Sprintf(setDatesJS, startDateSelector, startDate, endDateSelector, endDate)
	if err := n.run(ctx, n.cfg.ElementTimeout, chromedp.Evaluate(js, &filled)); err != nil {
		return mapTimeout(err, ErrElementNotFound, "fill dates")
	}
	if !filled {
		return fmt.Errorf("%w: date inputs", ErrElementNotFound)
	}

	err = n.run(ctx, n.cfg.NavTimeout,
		chromedp.WaitVisible(periodApplySelector, chromedp.ByQuery),
		chromedp.Click(periodApplySelector, chromedp.ByQuery),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return mapTimeout(err, ErrNavigationTimeout, "apply period")
	}
	n.logger.Info("period applied", "from", startDate, "to", endDate)
	return nil
}

// logResultCount reads the total hit count if present. Best effort only.
func (n *Navigator) logResultCount(ctx context.Context) {
	var count int
	js := fmt.Sprintf(resultCountJS, resultCountSelector)
	if err := n.run(ctx, 5*time.Second, chromedp.Evaluate(js, &count)); err != nil {
		n.logger.Debug("result count unavailable", "err", err)
		return
	}
	if count >= 0 {
		n.logger.Info("reported result count", "count", count)
	}
}

// paginate walks result pages until Naver runs out of them.
func (n *Navigator) paginate(ctx context.Context, keyword string) ([]storage.SearchResultRecord, error) {
	var all []storage.SearchResultRecord
	pageNum := 1

	for {
		pageRecords, ok, err := n.extractPage(ctx, pageNum)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if len(pageRecords) == 0 {
			if pageNum == 1 {
				n.logger.Info("first page empty, nothing to harvest")
			} else {
				n.logger.Info("empty page reached, stopping", "page", pageNum)
			}
			break
		}
		all = append(all, pageRecords...)
		metrics.PagesHarvested.Inc()
		metrics.RecordsExtracted.Add(float64(len(pageRecords)))
		n.logger.Info("page extracted", "page", pageNum, "records", len(pageRecords), "total", len(all))

		moved, err := n.nextPage(ctx, pageNum+1)
		if err != nil {
			// Keep what we have; the caller still gets partial results.
			n.logger.Warn("pagination interrupted, keeping partial results", "page", pageNum+1, "err", err)
			break
		}
		if !moved {
			n.logger.Info("last page reached", "page", pageNum)
			break
		}
		pageNum++

		if err := ratelimit.Pause(ctx, n.cfg.PageDelayMin, n.cfg.PageDelayMax); err != nil {
			return all, err
		}
	}
	return all, nil
}

// extractPage waits for the result list and parses it. ok is false when the
// page shows the no-results marker instead of a list.
func (n *Navigator) extractPage(ctx context.Context, pageNum int) ([]storage.SearchResultRecord, bool, error) {
	present := func(waitCtx context.Context) (bool, error) {
		var found bool
		js := fmt.Sprintf(`document.querySelector(%q) !== null`, postListSelector)
		if err := chromedp.Run(waitCtx, chromedp.Evaluate(js, &found)); err != nil {
			return false, err
		}
		return found, nil
	}
	if err := browser.WaitStable(ctx, 250*time.Millisecond, n.cfg.ListTimeout, present); err != nil {
		if !errors.Is(err, browser.ErrWaitTimeout) {
			return nil, false, err
		}
		var nodata bool
		js := fmt.Sprintf(`document.querySelector(%q) !== null`, noDataSelector)
		if runErr := n.run(ctx, 5*time.Second, chromedp.Evaluate(js, &nodata)); runErr == nil && nodata {
			n.logger.Info("no-results marker present", "page", pageNum)
			return nil, false, nil
		}
		n.logger.Info("result list never appeared", "page", pageNum)
		return nil, false, nil
	}

	var listHTML string
	if err := n.run(ctx, n.cfg.ElementTimeout, chromedp.OuterHTML(listContainerSelector, &listHTML, chromedp.ByQuery)); err != nil {
		return nil, false, mapTimeout(err, ErrElementNotFound, "result list")
	}
	records, err := Records(listHTML)
	if err != nil {
		return nil, false, fmt.Errorf("parse result list: %w", err)
	}
	return records, true, nil
}

// nextPage clicks the numbered link for target, or the next-group arrow when
// the number is outside the visible group. Returns false when neither exists.
func (n *Navigator) nextPage(ctx context.Context, target int) (bool, error) {
	var clicked bool
	label := fmt.Sprintf("%d페이지", target)
	js := fmt.Sprintf(pageLinkJS, label, fmt.Sprintf("%d", target))
	if err := n.run(ctx, n.cfg.ElementTimeout, chromedp.Evaluate(js, &clicked)); err != nil {
		return false, mapTimeout(err, ErrNavigationTimeout, "page link")
	}
	if !clicked {
		if err := n.run(ctx, n.cfg.ElementTimeout, chromedp.Evaluate(nextGroupJS, &clicked)); err != nil {
			return false, mapTimeout(err, ErrNavigationTimeout, "next group")
		}
		if !clicked {
			return false, nil
		}
	}

	err := n.run(ctx, n.cfg.NavTimeout, chromedp.WaitReady("body", chromedp.ByQuery))
	if err != nil {
		return false, mapTimeout(err, ErrNavigationTimeout, "page transition")
	}
	return true, nil
}

// run executes chromedp actions under a deadline derived from ctx.
func (n *Navigator) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// mapTimeout folds a deadline expiry into one of the package sentinels so
// callers can tell protocol failures apart from plumbing errors.
func mapTimeout(err, sentinel error, step string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", sentinel, step)
	}
	return fmt.Errorf("%s: %w", step, err)
}
