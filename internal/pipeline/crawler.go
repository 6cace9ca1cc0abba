package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/callumw/profile-auditor/internal/fetch"
)

// SiteCrawler fetches consultant pages from the live site. A cheap HTTP
// request establishes the status code first; the DOM itself comes from
// the headless browser so collapsed sections are expanded before capture.
type SiteCrawler struct {
	// ProfileBaseURL is the prefix a slug is appended to.
	ProfileBaseURL string
	Timeout        time.Duration
	Verbose        bool

	// DisableBrowser skips headless rendering and uses the raw HTTP body.
	// Intended for tests and static mirrors.
	DisableBrowser bool
}

// Fetch returns the rendered page for one slug. A 404 from the status
// check is returned as *fetch.NotFoundError.
func (c *SiteCrawler) Fetch(ctx context.Context, slug string) (*fetch.Result, error) {
	url := strings.TrimSuffix(c.ProfileBaseURL, "/") + "/" + slug + "/"

	opts := fetch.DefaultOptions()
	if c.Timeout > 0 {
		opts.Timeout = c.Timeout
	}

	result, err := fetch.URL(ctx, url, opts)
	if err != nil {
		return result, err
	}
	if c.DisableBrowser {
		return result, nil
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = fetch.DefaultTimeout
	}
	html, err := fetch.RenderedPage(ctx, url, timeout, c.Verbose)
	if err != nil {
		return nil, err
	}
	return &fetch.Result{URL: url, HTML: html, StatusCode: result.StatusCode}, nil
}
