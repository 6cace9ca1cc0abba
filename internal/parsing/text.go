package parsing

import (
	"regexp"
	"strings"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses internal whitespace runs to single spaces.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// cleanBlockText trims each line of a block and drops empty lines, keeping
// line structure intact for multi-paragraph blobs.
func cleanBlockText(text string) string {
	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = normalizeWhitespace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// dedupeItems strips trailing commas per item, then case-insensitively
// deduplicates preserving first-seen order.
func dedupeItems(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := []string{}
	for _, item := range items {
		item = strings.TrimRight(strings.TrimSpace(item), ",")
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, item)
	}
	return result
}

// declarationBoilerplate are phrasings of a "nothing to declare" declaration.
var declarationBoilerplate = []string{
	"no interests to declare",
	"nothing to declare",
	"no conflicts of interest",
	"does not hold a share",
	"no financial interests",
	"has no financial or commercial interests",
}

var sentenceSplitPattern = regexp.MustCompile(`[.!?]`)

// isSubstantiveDeclaration reports whether declaration paragraphs carry real
// content. Pure boilerplate is non-substantive even when phrased as multiple
// sentences: if every sentence independently matches the boilerplate list the
// whole declaration is still boilerplate. Non-empty text that fails all
// boilerplate checks is substantive.
func isSubstantiveDeclaration(paragraphs []string) bool {
	joined := strings.ToLower(normalizeWhitespace(strings.Join(paragraphs, " ")))
	if joined == "" {
		return false
	}
	return !allSentencesBoilerplate(joined)
}

func allSentencesBoilerplate(lower string) bool {
	sentences := sentenceSplitPattern.Split(lower, -1)
	checked := false
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= 5 {
			continue
		}
		checked = true
		matched := false
		for _, phrase := range declarationBoilerplate {
			if strings.Contains(sentence, phrase) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return checked
}
