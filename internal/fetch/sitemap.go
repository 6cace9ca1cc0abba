package fetch

import (
	"context"
	"encoding/xml"
	"strings"
)

// urlSet is the standard sitemap XML layout; only <loc> matters here.
type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// SitemapSlugs fetches a sitemap and returns the slugs of every entry
// under the given URL prefix, in document order, deduplicated. The slug is
// the path segment immediately after the prefix.
func SitemapSlugs(ctx context.Context, sitemapURL, profilePrefix string, opts *Options) ([]string, error) {
	result, err := URL(ctx, sitemapURL, opts)
	if err != nil {
		return nil, err
	}

	var set urlSet
	if err := xml.Unmarshal([]byte(result.HTML), &set); err != nil {
		return nil, &Error{URL: sitemapURL, Message: "failed to parse sitemap XML", Cause: err}
	}

	seen := make(map[string]bool)
	var slugs []string
	for _, entry := range set.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if !strings.HasPrefix(loc, profilePrefix) {
			continue
		}
		slug := strings.Trim(strings.TrimPrefix(loc, profilePrefix), "/")
		// Nested paths under the prefix are not profile pages.
		if slug == "" || strings.Contains(slug, "/") {
			continue
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	}
	return slugs, nil
}
