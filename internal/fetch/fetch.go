// Package fetch retrieves the consultant sitemap and profile pages. Profile
// pages are rendered in a headless browser so collapsed sections are
// present in the captured DOM.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ProfileAuditor/1.0)"

// Result holds the raw content from a URL fetch.
type Result struct {
	URL        string
	HTML       string
	StatusCode int
}

// Error represents a fetch failure: exhausted retries or an unexpected
// status.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFoundError marks a 404. A profile page that has gone away is a
// defined outcome the pipeline handles, distinct from a fetch failure.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("page not found: %s", e.URL)
}

// Options configures fetch behavior.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:    DefaultTimeout,
		UserAgent:  DefaultUserAgent,
		MaxRetries: 2,
		RetryDelay: time.Second,
	}
}

// URL retrieves content from a URL with bounded retries on transport
// failures and 5xx responses. A 404 returns *NotFoundError alongside the
// result so callers can distinguish gone from broken.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := &http.Client{
		Timeout: opts.Timeout,
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &Error{URL: urlStr, Message: "fetch cancelled", Cause: ctx.Err()}
			case <-time.After(opts.RetryDelay * time.Duration(attempt)):
			}
		}

		result, retryable, err := doFetch(ctx, client, urlStr, opts)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return result, err
		}
		lastErr = err
	}

	return nil, &Error{
		URL:     urlStr,
		Message: fmt.Sprintf("retries exhausted after %d attempts", opts.MaxRetries+1),
		Cause:   lastErr,
	}
}

// doFetch performs one attempt. The bool reports whether the failure is
// worth retrying.
func doFetch(ctx context.Context, client *http.Client, urlStr string, opts *Options) (*Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, false, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, true, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:        urlStr,
		HTML:       string(bodyBytes),
		StatusCode: resp.StatusCode,
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return result, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return result, false, &NotFoundError{URL: urlStr}
	case resp.StatusCode >= 500:
		return result, true, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	default:
		return result, false, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
}
