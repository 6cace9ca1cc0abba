package parsing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/callumw/profile-auditor/internal/headings"
)

// section is one classified heading plus the content that belongs to it.
type section struct {
	category headings.Category
	heading  string
	level    int
	content  *goquery.Selection
}

// headingLevel returns 1-6 for h1-h6 element names, 0 otherwise.
func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// collectSections walks every heading in document order and scopes its
// content: the run of following sibling nodes, stopping at the next heading
// whose level is the same or shallower. A nested sub-heading (e.g. an h3
// specialty item under an h2 "Specialties" heading) stays inside the parent
// section while remaining independently classifiable.
func collectSections(doc *goquery.Document) []section {
	var sections []section

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		text := normalizeWhitespace(s.Text())
		category := headings.Classify(text, tag)
		if category == headings.CategoryNone || category == headings.CategoryCallToAction {
			return
		}

		level := headingLevel(tag)
		var nodes []*html.Node
		for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
			if n.Type == html.ElementNode {
				if lvl := headingLevel(n.Data); lvl > 0 && lvl <= level {
					break
				}
			}
			nodes = append(nodes, n)
		}

		sections = append(sections, section{
			category: category,
			heading:  text,
			level:    level,
			content:  doc.FindNodes(nodes...),
		})
	})

	return sections
}

// sectionsByCategory groups sections preserving document order; multiple
// headings can map to the same category (treatments has several variants).
func sectionsByCategory(sections []section) map[headings.Category][]section {
	grouped := make(map[headings.Category][]section)
	for _, sec := range sections {
		grouped[sec.category] = append(grouped[sec.category], sec)
	}
	return grouped
}

// labelPrefixes are stripped from fallback list lines before the line is
// treated as an item.
var labelPrefixes = []string{
	"sub-specialties:",
	"sub-specialities:",
	"specialties:",
	"specialities:",
}

// sectionLines returns a section's raw item lines. It prefers <li> text;
// when a section carries none, it falls back to paragraph/div text split on
// newlines. The returned bool reports whether the preferred <li> strategy
// was used.
func sectionLines(sec section) ([]string, bool) {
	var lines []string

	sec.content.Find("li").Each(func(_ int, li *goquery.Selection) {
		if text := normalizeWhitespace(li.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) > 0 {
		return lines, true
	}

	var candidates []string
	sec.content.Find("p").Each(func(_ int, p *goquery.Selection) {
		candidates = append(candidates, p.Text())
	})
	if len(candidates) == 0 {
		sec.content.Each(func(_ int, s *goquery.Selection) {
			candidates = append(candidates, s.Text())
		})
	}

	for _, candidate := range candidates {
		for _, line := range strings.Split(candidate, "\n") {
			line = normalizeWhitespace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, false
}

// listItems extracts list-field items from a section with known label
// prefixes stripped from fallback lines.
func listItems(sec section) ([]string, bool) {
	lines, usedList := sectionLines(sec)
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		line = normalizeWhitespace(stripLabelPrefix(line))
		if line != "" {
			items = append(items, line)
		}
	}
	return items, usedList
}

func stripLabelPrefix(line string) string {
	lower := strings.ToLower(line)
	for _, prefix := range labelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return line
}

// textBlob joins the constituent element texts of the sections with newlines.
// Returns "" when the category carries no text at all.
func textBlob(secs []section) string {
	var parts []string
	for _, sec := range secs {
		sec.content.Each(func(_ int, s *goquery.Selection) {
			if text := cleanBlockText(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
	}
	return strings.Join(parts, "\n")
}

// paragraphTexts returns each paragraph of the sections as a separate string.
func paragraphTexts(secs []section) []string {
	var paras []string
	for _, sec := range secs {
		found := false
		sec.content.Find("p").Each(func(_ int, p *goquery.Selection) {
			found = true
			if text := normalizeWhitespace(p.Text()); text != "" {
				paras = append(paras, text)
			}
		})
		if !found {
			sec.content.Each(func(_ int, s *goquery.Selection) {
				if text := normalizeWhitespace(s.Text()); text != "" {
					paras = append(paras, text)
				}
			})
		}
	}
	return paras
}

// anchorItems extracts text+href pairs from anchors inside the sections.
func anchorItems(secs []section) []NewsItem {
	items := []NewsItem{}
	for _, sec := range secs {
		sec.content.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			text := normalizeWhitespace(a.Text())
			if href == "" || text == "" {
				return
			}
			items = append(items, NewsItem{Text: text, URL: href})
		})
	}
	return items
}
