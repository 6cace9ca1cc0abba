// Package fetch - browser.go renders profile pages in a headless browser.
package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

// expanderSelector matches the "view more" style toggles profile pages use
// to collapse treatment and qualification lists. Collapsed content is not
// in the initial render, so every toggle must be clicked before capture.
const expanderSelector = `button[class*="view-more"], a[class*="view-more"], button[class*="show-more"], a[class*="show-more"], button[class*="read-more"], [data-toggle="view-more"]`

// maxExpansionPasses bounds the click loop; expanding one section can
// reveal another collapsed one.
const maxExpansionPasses = 5

// RenderedPage navigates to a profile page, expands collapsed sections,
// and returns the resulting DOM. Requires Chrome/Chromium on the system.
func RenderedPage(ctx context.Context, url string, timeout time.Duration, verbose bool) (string, error) {
	if verbose {
		log.Printf("[BROWSER] Starting headless browser for: %s", url)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Let JavaScript render the initial content
		chromedp.Sleep(2*time.Second),
		// Dismiss common cookie banners - don't fail if not found
		chromedp.ActionFunc(func(ctx context.Context) error {
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible).Do(ctx)
			return nil
		}),
		chromedp.ActionFunc(expandCollapsedSections),
		chromedp.OuterHTML("html", &html),
	)

	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	if verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}

	return html, nil
}

// expandCollapsedSections clicks every visible expander, in passes, until
// a pass finds nothing left to click.
func expandCollapsedSections(ctx context.Context) error {
	for pass := 0; pass < maxExpansionPasses; pass++ {
		var clicked bool
		err := chromedp.Evaluate(fmt.Sprintf(`(() => {
			const toggles = document.querySelectorAll(%q);
			let any = false;
			for (const t of toggles) {
				if (t.offsetParent !== null) {
					t.click();
					any = true;
				}
			}
			return any;
		})()`, expanderSelector), &clicked).Do(ctx)
		if err != nil || !clicked {
			return nil
		}
		if err := chromedp.Sleep(500 * time.Millisecond).Do(ctx); err != nil {
			return nil
		}
	}
	return nil
}
