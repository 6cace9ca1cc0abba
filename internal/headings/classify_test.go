package headings

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		tag      string
		expected Category
	}{
		{"about exact", "About", "h2", CategoryAbout},
		{"about case insensitive", "ABOUT", "h2", CategoryAbout},
		{"qualifications", "Qualifications", "h2", CategoryQualifications},
		{"specialties", "Specialties", "h2", CategorySpecialties},
		{"specialities british spelling", "Specialities", "h2", CategorySpecialties},
		{"consultation times", "Consultation times", "h3", CategoryConsultationTimes},
		{"related experience", "Related experience", "h2", CategoryRelatedExperience},
		{"declaration", "Declaration", "h2", CategoryDeclaration},
		{"special interests", "Special interests", "h2", CategoryClinicalInterests},
		{"clinical interests", "Clinical interests", "h2", CategoryClinicalInterests},
		{"personal interests", "Personal interests", "h2", CategoryInterests},
		{"languages spoken", "Languages spoken", "h2", CategoryLanguages},
		{"memberships", "Memberships", "h2", CategoryMemberships},
		{"other posts held", "Other posts held", "h2", CategoryOtherPosts},
		{"professional roles", "Professional roles", "h2", CategoryProfessionalRoles},
		{"in the news", "In the news", "h2", CategoryInTheNews},
		{"practising since prefix", "Practising since 1998", "h3", CategoryPractisingSince},
		{"insurers prefix", "Insurers accepted at this hospital", "h3", CategoryInsurers},
		{"locations prefix", "Locations where this consultant practises", "h2", CategoryLocations},
		{"whitespace trimmed", "  About  ", "h2", CategoryAbout},
		{"unrecognized", "Completely unrelated heading", "h2", CategoryNone},
		{"empty text", "", "h2", CategoryNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.text, tt.tag)
			if result != tt.expected {
				t.Errorf("Classify(%q, %q) = %q, expected %q", tt.text, tt.tag, result, tt.expected)
			}
		})
	}
}

func TestClassify_OverviewTagGated(t *testing.T) {
	// "Overview" is only a content heading on real heading elements; identical
	// text on decorative controls must not classify.
	tests := []struct {
		tag      string
		expected Category
	}{
		{"h2", CategoryOverview},
		{"h3", CategoryOverview},
		{"h4", CategoryOverview},
		{"button", CategoryNone},
		{"a", CategoryNone},
		{"span", CategoryNone},
		{"div", CategoryNone},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			result := Classify("Overview", tt.tag)
			if result != tt.expected {
				t.Errorf("Classify(\"Overview\", %q) = %q, expected %q", tt.tag, result, tt.expected)
			}
		})
	}
}

func TestClassify_CallToActionWinsFirst(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"book online", "Book online"},
		{"ask a question", "Ask a question"},
		{"enquire now", "Enquire now"},
		// CTA substrings must win even when the text would otherwise match a
		// content rule.
		{"cta embedding content phrase", "Treatments offered - book online today"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, "h2"); got != CategoryCallToAction {
				t.Errorf("Classify(%q) = %q, expected %q", tt.text, got, CategoryCallToAction)
			}
		})
	}
}

func TestClassify_TreatmentsVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"standard", "Mr Smith specialises in the following treatments"},
		{"typo missing in", "Mr Smith specialises the following treatments"},
		{"tests and scans", "Treatments, tests and scans"},
		{"offered", "Treatments offered"},
		{"cosmetic with hospital name", "Cosmetic treatments available at Highgate Hospital"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, "h2"); got != CategoryTreatments {
				t.Errorf("Classify(%q) = %q, expected %q", tt.text, got, CategoryTreatments)
			}
		})
	}
}

func TestPractisingYear(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
		ok       bool
	}{
		{"plain year", "Practising since 1998", 1998, true},
		{"recent year", "Practising since 2021", 2021, true},
		{"lower bound", "Practising since 1950", 1950, true},
		{"upper bound", "Practising since 2030", 2030, true},
		{"below range", "Practising since 1890", 0, false},
		{"above range", "Practising since 2099", 0, false},
		{"no year", "Practising since forever", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, ok := PractisingYear(tt.text)
			if ok != tt.ok || year != tt.expected {
				t.Errorf("PractisingYear(%q) = (%d, %t), expected (%d, %t)", tt.text, year, ok, tt.expected, tt.ok)
			}
		})
	}
}
