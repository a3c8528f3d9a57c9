package blocket

import (
	"bostad-scraper/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeLauncher starts headless Chrome through chromedp.
type ChromeLauncher struct {
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
}

type chromeBrowser struct {
	allocCancel       context.CancelFunc
	browserCtx        context.Context
	browserCancel     context.CancelFunc
	navigationTimeout time.Duration
}

type chromePage struct {
	ctx               context.Context
	cancel            context.CancelFunc
	navigationTimeout time.Duration
}

func (l ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	utils.Info("Launching Chrome browser...")
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, utils.ChromeOpts(l.Headless, l.UserAgent)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	utils.Success("Browser ready")
	return &chromeBrowser{
		allocCancel:       allocCancel,
		browserCtx:        browserCtx,
		browserCancel:     browserCancel,
		navigationTimeout: l.NavigationTimeout,
	}, nil
}

func (b *chromeBrowser) NewPage() (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromePage{ctx: tabCtx, cancel: tabCancel, navigationTimeout: b.navigationTimeout}, nil
}

func (b *chromeBrowser) Close() {
	utils.Info("Closing browser...")
	b.browserCancel()
	b.allocCancel()
}

// run bounds actions by the navigation timeout.
func (p *chromePage) run(actions ...chromedp.Action) error {
	ctx := p.ctx
	if p.navigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, p.navigationTimeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

func (p *chromePage) Navigate(url string) error {
	if err := p.run(chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) WaitForSelector(selector string, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err == nil {
		return true, nil
	}
	// Only our own deadline counts as a timeout; a cancelled tab is an error.
	if errors.Is(err, context.DeadlineExceeded) && p.ctx.Err() == nil {
		return false, nil
	}
	return false, fmt.Errorf("wait for %q: %w", selector, err)
}

func (p *chromePage) Content() (string, error) {
	var html string
	if err := p.run(chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return html, nil
}

func (p *chromePage) CountMatches(selector string) (int, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return 0, err
	}
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, quoted)
	if err := p.run(chromedp.Evaluate(script, &n)); err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}
	return n, nil
}

func (p *chromePage) Close() {
	p.cancel()
}
