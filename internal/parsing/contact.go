package parsing

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mobilePrefix classifies UK numbers: 07xxx are mobiles, the rest landlines.
const mobilePrefix = "07"

// ukPhonePattern tolerates 2-, 3- and 4-digit area-code groupings
// ("020 7394 3300", "0161 123 4567", "01632 960 001").
var ukPhonePattern = regexp.MustCompile(`\b0\d{2,4}[\s-]?\d{3,4}[\s-]?\d{3,4}\b`)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// NormalisePhone strips grouping characters from a phone candidate and
// returns the bare digit string. Candidates that are not a plausible UK
// number (leading zero, 10-11 digits) yield ok=false.
func NormalisePhone(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// grouping characters
		default:
			return "", false
		}
	}
	number := digits.String()
	if len(number) < 10 || len(number) > 11 || !strings.HasPrefix(number, "0") {
		return "", false
	}
	return number, true
}

// contactInfo holds the first landline and first mobile found, plus email.
type contactInfo struct {
	landline      string
	mobile        string
	phoneLevel    Level
	email         string
	emailLevel    Level
	foundAnyPhone bool
}

// extractContact runs the phone/email cascade: structured markup first, then
// tel:/mailto: links, then a body-text regex fallback. The first match of
// each class (mobile vs landline) wins.
func extractContact(doc *goquery.Document) contactInfo {
	var info contactInfo

	// Structured telephone markup.
	doc.Find(`[itemprop="telephone"]`).Each(func(_ int, s *goquery.Selection) {
		candidate := s.AttrOr("content", "")
		if candidate == "" {
			candidate = s.Text()
		}
		info.addPhone(candidate, LevelHigh)
	})

	// tel: links.
	doc.Find(`a[href^="tel:"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		info.addPhone(strings.TrimPrefix(href, "tel:"), LevelHigh)
	})

	// Body-text fallback.
	if info.landline == "" || info.mobile == "" {
		body := doc.Find("body").Text()
		for _, candidate := range ukPhonePattern.FindAllString(body, -1) {
			info.addPhone(candidate, LevelMedium)
			if info.landline != "" && info.mobile != "" {
				break
			}
		}
	}

	// Email: mailto: links first, then body regex.
	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if emailPattern.MatchString(addr) {
			info.email = addr
			info.emailLevel = LevelHigh
			return false
		}
		return true
	})
	if info.email == "" {
		if match := emailPattern.FindString(doc.Find("body").Text()); match != "" {
			info.email = match
			info.emailLevel = LevelMedium
		}
	}

	return info
}

func (c *contactInfo) addPhone(candidate string, level Level) {
	number, ok := NormalisePhone(candidate)
	if !ok {
		return
	}
	c.foundAnyPhone = true
	if strings.HasPrefix(number, mobilePrefix) {
		if c.mobile == "" {
			c.mobile = number
			c.phoneLevel = higherLevel(c.phoneLevel, level)
		}
		return
	}
	if c.landline == "" {
		c.landline = number
		c.phoneLevel = higherLevel(c.phoneLevel, level)
	}
}

func higherLevel(a, b Level) Level {
	rank := map[Level]int{LevelLow: 1, LevelMedium: 2, LevelHigh: 3}
	if rank[a] >= rank[b] {
		return a
	}
	return b
}
