package parsing

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// photoSelector is the structural anchor for the profile photo. A stray
// <img> elsewhere on the page never counts.
const photoSelector = ".profile-photo img, .consultant-profile__photo img"

// urlShaped reports whether an image src looks like a real URL or path.
func urlShaped(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "//") ||
		strings.HasPrefix(src, "/")
}

// detectPhoto requires the structural anchor element to contain an image
// with a non-empty, URL-shaped src.
func detectPhoto(doc *goquery.Document) (string, bool) {
	var photoURL string
	doc.Find(photoSelector).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src != "" && urlShaped(src) {
			photoURL = src
			return false
		}
		return true
	})
	return photoURL, photoURL != ""
}

var (
	ageRangePattern  = regexp.MustCompile(`(\d{1,3})\s*(?:-|–|to)\s*(\d{1,3})\s*(?:years?|yrs?)`)
	ageKeywords      = []string{"age", "adult", "paediatric", "children"}
	adultsOnlyMarker = "only sees adults"
)

// maxLeafTextLength bounds the elements scanned for age restrictions. Full
// body text is never scanned: phone numbers make it a false-positive trap.
const maxLeafTextLength = 200

// detectAgeRestriction scans short leaf-like elements for an age policy.
// "Only sees adults" maps to a minimum of 18; an explicit numeric range is
// accepted only when min <= max <= 120.
func detectAgeRestriction(doc *goquery.Document) (*int, *int) {
	var ageMin, ageMax *int

	doc.Find("p, li, span, td").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		text := normalizeWhitespace(s.Text())
		if text == "" || len(text) >= maxLeafTextLength {
			return true
		}
		lower := strings.ToLower(text)
		if !containsAny(lower, ageKeywords) {
			return true
		}

		if strings.Contains(lower, adultsOnlyMarker) {
			min := 18
			ageMin = &min
			return false
		}

		if match := ageRangePattern.FindStringSubmatch(lower); match != nil {
			min, err1 := strconv.Atoi(match[1])
			max, err2 := strconv.Atoi(match[2])
			if err1 == nil && err2 == nil && min <= max && max <= 120 {
				ageMin, ageMax = &min, &max
				return false
			}
		}
		return true
	})

	return ageMin, ageMax
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// cqcPattern tolerates both colon-delimited and concatenated-DOM-text
// renderings ("CQC rating: Good", "CQC Overall ratingGood").
var cqcPattern = regexp.MustCompile(`(?i)cqc\s*(?:overall\s*)?rating:?\s*(outstanding|good|requires\s+improvement|inadequate)`)

func detectCQCRating(bodyText string) string {
	match := cqcPattern.FindStringSubmatch(bodyText)
	if match == nil {
		return ""
	}
	rating := strings.ToLower(normalizeWhitespace(match[1]))
	switch rating {
	case "outstanding":
		return "Outstanding"
	case "good":
		return "Good"
	case "requires improvement":
		return "Requires improvement"
	case "inadequate":
		return "Inadequate"
	}
	return ""
}

// socialHosts are never counted as a consultant's external website.
var socialHosts = map[string]bool{
	"facebook.com":  true,
	"twitter.com":   true,
	"x.com":         true,
	"linkedin.com":  true,
	"instagram.com": true,
	"youtube.com":   true,
}

// safelinkHost wraps outbound links in emails pasted into CMS content; the
// inner URL must be unwrapped and checked against the same exclusion rules.
const safelinkHost = "safelinks.protection.outlook.com"

// detectExternalWebsite returns the first absolute link whose host is
// outside the site's own domain family (including the careers subdomain)
// and is not a social-media host. Links already claimed as news items are
// press coverage, not the consultant's own site, and are skipped.
func detectExternalWebsite(doc *goquery.Document, siteDomain, careersHost string, claimed map[string]bool) string {
	var external string

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if claimed[href] {
			return true
		}
		candidate := unwrapSafelink(href)

		parsed, err := url.Parse(candidate)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return true
		}
		host := strings.ToLower(parsed.Hostname())
		if inDomainFamily(host, siteDomain) || host == strings.ToLower(careersHost) {
			return true
		}
		if socialHosts[host] || socialHosts[strings.TrimPrefix(host, "www.")] {
			return true
		}

		external = candidate
		return false
	})

	return external
}

// unwrapSafelink extracts the inner URL from a safelink wrapper; other URLs
// pass through untouched.
func unwrapSafelink(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !strings.HasSuffix(strings.ToLower(parsed.Hostname()), safelinkHost) {
		return href
	}
	inner := parsed.Query().Get("url")
	if inner == "" {
		return href
	}
	return inner
}

func inDomainFamily(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// nonAffiliationMarkers make the hospital-affiliation default of true flip
// to false; absence of evidence is not evidence of non-affiliation.
var nonAffiliationMarkers = []string{
	"non-affiliated",
	"not affiliated",
	"independent practice",
}

func hospitalAffiliated(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range nonAffiliationMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// cmsCorruptionPattern matches a run of 2+ asterisks abutting a word
// character on both sides, the signature of a markdown-rendering artifact.
var cmsCorruptionPattern = regexp.MustCompile(`\w\*{2,}\w`)

func detectCMSCorruption(bodyText string) bool {
	return cmsCorruptionPattern.MatchString(bodyText)
}
