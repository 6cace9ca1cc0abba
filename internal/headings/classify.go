// Package headings classifies profile-page section headings into semantic categories.
// Classification is an ordered rule table so rules stay independently testable
// and extensible without touching extraction logic.
package headings

import (
	"regexp"
	"strconv"
	"strings"
)

// Category is a semantic section category for a profile page heading.
type Category string

// Section categories recognized on consultant profile pages.
const (
	CategoryNone              Category = ""
	CategoryCallToAction      Category = "call_to_action"
	CategoryAbout             Category = "about"
	CategoryOverview          Category = "overview"
	CategoryQualifications    Category = "qualifications"
	CategorySpecialties       Category = "specialties"
	CategoryTreatments        Category = "treatments"
	CategoryConsultationTimes Category = "consultation_times"
	CategoryRelatedExperience Category = "related_experience"
	CategoryDeclaration       Category = "declaration"
	CategoryClinicalInterests Category = "clinical_interests"
	CategoryInterests         Category = "interests"
	CategoryLanguages         Category = "languages"
	CategoryResearch          Category = "research"
	CategoryMemberships       Category = "memberships"
	CategoryOtherPosts        Category = "other_posts"
	CategoryProfessionalRoles Category = "professional_roles"
	CategoryInTheNews         Category = "in_the_news"
	CategoryPractisingSince   Category = "practising_since"
	CategoryInsurers          Category = "insurers"
	CategoryLocations         Category = "locations"
)

// matchKind determines how a rule pattern is compared against heading text.
type matchKind int

const (
	matchExact matchKind = iota
	matchPrefix
	matchSubstring
)

// rule maps a lowercase pattern to a category.
type rule struct {
	kind     matchKind
	pattern  string
	category Category
	// headingOnly restricts the rule to real heading elements (h2/h3/h4).
	// Used to tell the "Overview" content heading apart from decorative
	// buttons and links carrying the same label.
	headingOnly bool
}

// ctaSubstrings are evaluated before every other rule. A heading containing
// one of these is a booking/enquiry control, not a content section, even if
// its text would otherwise match a content rule.
var ctaSubstrings = []string{
	"book online",
	"ask a question",
	"enquire now",
}

// rules are evaluated in order: exact matches, then prefixes, then the
// treatments substring variants observed in hand-authored pages.
var rules = []rule{
	{matchExact, "about", CategoryAbout, false},
	{matchExact, "overview", CategoryOverview, true},
	{matchExact, "qualifications", CategoryQualifications, false},
	{matchExact, "specialties", CategorySpecialties, false},
	{matchExact, "specialities", CategorySpecialties, false},
	{matchExact, "consultation times", CategoryConsultationTimes, false},
	{matchExact, "related experience", CategoryRelatedExperience, false},
	{matchExact, "declaration", CategoryDeclaration, false},
	{matchExact, "special interests", CategoryClinicalInterests, false},
	{matchExact, "clinical interests", CategoryClinicalInterests, false},
	{matchExact, "other interests", CategoryInterests, false},
	{matchExact, "personal interests", CategoryInterests, false},
	{matchExact, "languages spoken", CategoryLanguages, false},
	{matchExact, "research", CategoryResearch, false},
	{matchExact, "memberships", CategoryMemberships, false},
	{matchExact, "professional memberships", CategoryMemberships, false},
	{matchExact, "other posts held", CategoryOtherPosts, false},
	{matchExact, "professional roles", CategoryProfessionalRoles, false},
	{matchExact, "in the news", CategoryInTheNews, false},

	{matchPrefix, "practising since", CategoryPractisingSince, false},
	{matchPrefix, "insurers", CategoryInsurers, false},
	{matchPrefix, "locations", CategoryLocations, false},

	// Treatments headings vary wildly across pages. The second variant is a
	// live typo (missing "in"); the last embeds a hospital name.
	{matchSubstring, "specialises in the following treatments", CategoryTreatments, false},
	{matchSubstring, "specialises the following treatments", CategoryTreatments, false},
	{matchSubstring, "treatments, tests and scans", CategoryTreatments, false},
	{matchSubstring, "treatments offered", CategoryTreatments, false},
	{matchSubstring, "cosmetic treatments available at highgate hospital", CategoryTreatments, false},
}

// contentHeadingTags are element tags treated as real content headings for
// tag-gated rules.
var contentHeadingTags = map[string]bool{
	"h2": true,
	"h3": true,
	"h4": true,
}

// Classify maps heading text and its element tag to a section category.
// It returns CategoryNone for unrecognized text and CategoryCallToAction for
// booking/enquiry controls, which callers must exclude from content parsing.
func Classify(text, tagName string) Category {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return CategoryNone
	}
	tag := strings.ToLower(strings.TrimSpace(tagName))

	for _, cta := range ctaSubstrings {
		if strings.Contains(normalized, cta) {
			return CategoryCallToAction
		}
	}

	for _, r := range rules {
		if r.headingOnly && !contentHeadingTags[tag] {
			continue
		}
		switch r.kind {
		case matchExact:
			if normalized == r.pattern {
				return r.category
			}
		case matchPrefix:
			if strings.HasPrefix(normalized, r.pattern) {
				return r.category
			}
		case matchSubstring:
			if strings.Contains(normalized, r.pattern) {
				return r.category
			}
		}
	}

	return CategoryNone
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// PractisingYear extracts a plausible four-digit practising-since year from
// heading text. Years outside [1950, 2030] are rejected.
func PractisingYear(text string) (int, bool) {
	match := yearPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	if year < 1950 || year > 2030 {
		return 0, false
	}
	return year, true
}
