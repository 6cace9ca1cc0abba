package parsing

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/callumw/profile-auditor/internal/headings"
)

// Options configures site-specific extraction parameters.
type Options struct {
	// SiteDomain is the hospital site's own domain family; links within it
	// never count as an external website.
	SiteDomain string
	// CareersHost is the named careers subdomain, also excluded.
	CareersHost string
}

// DefaultOptions returns the production site parameters.
func DefaultOptions() *Options {
	return &Options{
		SiteDomain:  "highgatehospital.co.uk",
		CareersHost: "careers.highgatehospital.co.uk",
	}
}

// titlePrefixes is checked longest-first so "Professor" wins over "Prof".
var titlePrefixes = []string{"Professor", "Prof", "Dr", "Mrs", "Miss", "Ms", "Mr"}

var gmcPattern = regexp.MustCompile(`(?i)\bGMC\s*number[:\s]+([0-9A-Za-z][0-9A-Za-z-]*)`)

var numericPattern = regexp.MustCompile(`^\d+$`)

// ParseProfile extracts every profile field from one rendered HTML document.
// Parsing is a pure function of its input: identical HTML always yields a
// field-for-field identical result, which resume mode relies on.
func ParseProfile(htmlContent, slug string, opts *Options) (*Record, *Confidence, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, nil, &Error{Slug: slug, Message: "failed to parse HTML", Cause: err}
	}

	record := NewRecord(slug)
	confidence := &Confidence{}

	sections := collectSections(doc)
	grouped := sectionsByCategory(sections)

	extractName(doc, record, confidence)
	extractTitlePrefix(record, confidence)

	bodyText := doc.Find("body").Text()
	extractRegistration(bodyText, record, confidence)

	record.PhotoURL, record.HasPhoto = detectPhoto(doc)
	if record.HasPhoto {
		confidence.Photo = LevelHigh
	}

	extractBlobs(grouped, record, confidence)
	extractLists(grouped, record, confidence)
	extractSpecialties(grouped[headings.CategorySpecialties], record, confidence)
	extractDeclaration(grouped[headings.CategoryDeclaration], record, confidence)
	extractNews(grouped[headings.CategoryInTheNews], record, confidence)
	extractPractisingSince(grouped[headings.CategoryPractisingSince], record, confidence)
	extractHospital(doc, grouped[headings.CategoryLocations], record, confidence)

	contact := extractContact(doc)
	record.LandlinePhone = contact.landline
	record.MobilePhone = contact.mobile
	record.Email = contact.email
	if contact.foundAnyPhone {
		confidence.Phone = contact.phoneLevel
	}
	confidence.Email = contact.emailLevel

	newsURLs := make(map[string]bool, len(record.NewsItems))
	for _, item := range record.NewsItems {
		newsURLs[item.URL] = true
	}
	record.ExternalWebsite = detectExternalWebsite(doc, opts.SiteDomain, opts.CareersHost, newsURLs)
	if record.ExternalWebsite != "" {
		confidence.ExternalWebsite = LevelMedium
	}

	record.CQCRating = detectCQCRating(bodyText)
	if record.CQCRating != "" {
		confidence.CQCRating = LevelHigh
	}

	record.AgeMin, record.AgeMax = detectAgeRestriction(doc)
	if record.AgeMin != nil {
		confidence.AgeRestriction = LevelMedium
	}

	record.CMSCorruption = detectCMSCorruption(bodyText)

	return record, confidence, nil
}

// extractName runs the name cascade: structured-data markup, then the meta
// tag, then the first heading outside any cookie-consent container.
func extractName(doc *goquery.Document, record *Record, confidence *Confidence) {
	if name := normalizeWhitespace(doc.Find(`[itemprop="name"]`).First().Text()); name != "" {
		record.Name = name
		confidence.Name = LevelHigh
		return
	}

	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		name := normalizeWhitespace(strings.SplitN(content, "|", 2)[0])
		if name != "" {
			record.Name = name
			confidence.Name = LevelMedium
			return
		}
	}

	doc.Find("h1, h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if h.Closest(`#cookie-consent, .cookie-banner, [class*="cookie"]`).Length() > 0 {
			return true
		}
		if name := normalizeWhitespace(h.Text()); name != "" {
			record.Name = name
			confidence.Name = LevelLow
			return false
		}
		return true
	})
}

// extractTitlePrefix checks a fixed, longest-first prefix list against the
// start of the name and normalizes "Prof" to "Professor".
func extractTitlePrefix(record *Record, confidence *Confidence) {
	if record.Name == "" {
		return
	}
	lower := strings.ToLower(record.Name)
	for _, prefix := range titlePrefixes {
		p := strings.ToLower(prefix)
		if lower == p || strings.HasPrefix(lower, p+" ") || strings.HasPrefix(lower, p+".") {
			if prefix == "Prof" {
				prefix = "Professor"
			}
			record.TitlePrefix = prefix
			confidence.TitlePrefix = LevelHigh
			return
		}
	}
}

// extractRegistration finds the GMC number anywhere in body text. A purely
// numeric registration number doubles as the booking-system provider code;
// HCPC-style alphanumeric numbers do not.
func extractRegistration(bodyText string, record *Record, confidence *Confidence) {
	match := gmcPattern.FindStringSubmatch(bodyText)
	if match == nil {
		return
	}
	record.RegistrationNumber = match[1]
	confidence.RegistrationNumber = LevelHigh
	if numericPattern.MatchString(match[1]) {
		record.ProviderCode = match[1]
	}
}

// blobTargets maps single-text-blob categories onto record fields.
func extractBlobs(grouped map[headings.Category][]section, record *Record, confidence *Confidence) {
	assign := func(secs []section, target *string, level *Level) {
		if len(secs) == 0 {
			return
		}
		if text := textBlob(secs); text != "" {
			*target = text
			*level = LevelHigh
		}
	}

	assign(grouped[headings.CategoryAbout], &record.About, &confidence.About)
	assign(grouped[headings.CategoryOverview], &record.Overview, &confidence.Overview)
	assign(grouped[headings.CategoryRelatedExperience], &record.RelatedExperience, &confidence.RelatedExperience)
	assign(grouped[headings.CategoryQualifications], &record.Qualifications, &confidence.Qualifications)
	assign(grouped[headings.CategoryProfessionalRoles], &record.ProfessionalRoles, &confidence.ProfessionalRoles)
	assign(grouped[headings.CategoryInterests], &record.PersonalInterests, &confidence.PersonalInterests)
	assign(grouped[headings.CategoryResearch], &record.Research, &confidence.Research)
}

// extractLists fills the plain list fields. Items from multiple sections of
// the same category are unioned then deduplicated preserving first-seen
// order; confidence drops to medium when any section needed the fallback
// line-splitting strategy.
func extractLists(grouped map[headings.Category][]section, record *Record, confidence *Confidence) {
	fill := func(secs []section, target *[]string, level *Level) {
		if len(secs) == 0 {
			return
		}
		var all []string
		usedListEverywhere := true
		for _, sec := range secs {
			items, usedList := listItems(sec)
			all = append(all, items...)
			if !usedList {
				usedListEverywhere = false
			}
		}
		deduped := dedupeItems(all)
		if len(deduped) == 0 {
			return
		}
		*target = deduped
		if usedListEverywhere {
			*level = LevelHigh
		} else {
			*level = LevelMedium
		}
	}

	fill(grouped[headings.CategoryTreatments], &record.Treatments, &confidence.Treatments)
	fill(grouped[headings.CategoryInsurers], &record.Insurers, &confidence.Insurers)
	fill(grouped[headings.CategoryConsultationTimes], &record.ConsultationTimes, &confidence.ConsultationTimes)
	fill(grouped[headings.CategoryMemberships], &record.Memberships, &confidence.Memberships)
	fill(grouped[headings.CategoryLanguages], &record.Languages, &confidence.Languages)
	fill(grouped[headings.CategoryClinicalInterests], &record.ClinicalInterests, &confidence.ClinicalInterests)
}

// extractSpecialties splits the specialties section into primary and
// sub-specialty lists using the label prefixes on fallback lines.
func extractSpecialties(secs []section, record *Record, confidence *Confidence) {
	if len(secs) == 0 {
		return
	}

	var primary, sub []string
	usedListEverywhere := true
	for _, sec := range secs {
		lines, usedList := sectionLines(sec)
		if !usedList {
			usedListEverywhere = false
		}
		for _, line := range lines {
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "sub-specialties:") || strings.HasPrefix(lower, "sub-specialities:"):
				sub = append(sub, splitCommaList(line[strings.Index(line, ":")+1:])...)
			case strings.HasPrefix(lower, "specialties:") || strings.HasPrefix(lower, "specialities:"):
				primary = append(primary, splitCommaList(line[strings.Index(line, ":")+1:])...)
			default:
				primary = append(primary, line)
			}
		}
	}

	record.Specialties = dedupeItems(primary)
	record.SubSpecialties = dedupeItems(sub)
	if len(record.Specialties) > 0 || len(record.SubSpecialties) > 0 {
		if usedListEverywhere {
			confidence.Specialties = LevelHigh
		} else {
			confidence.Specialties = LevelMedium
		}
	}
}

func splitCommaList(text string) []string {
	var items []string
	for _, part := range strings.Split(text, ",") {
		if part = normalizeWhitespace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func extractDeclaration(secs []section, record *Record, confidence *Confidence) {
	if len(secs) == 0 {
		return
	}
	paras := paragraphTexts(secs)
	if len(paras) == 0 {
		return
	}
	record.Declaration = paras
	record.DeclarationSubstantive = isSubstantiveDeclaration(paras)
	confidence.Declaration = LevelHigh
}

func extractNews(secs []section, record *Record, confidence *Confidence) {
	if len(secs) == 0 {
		return
	}
	items := anchorItems(secs)
	if len(items) == 0 {
		return
	}
	record.NewsItems = items
	confidence.NewsItems = LevelHigh
}

// extractPractisingSince reads the year from the heading itself
// ("Practising since 1998"), falling back to the section content.
func extractPractisingSince(secs []section, record *Record, confidence *Confidence) {
	for _, sec := range secs {
		if year, ok := headings.PractisingYear(sec.heading); ok {
			record.PractisingSince = &year
			confidence.PractisingSince = LevelHigh
			return
		}
		if year, ok := headings.PractisingYear(sec.content.Text()); ok {
			record.PractisingSince = &year
			confidence.PractisingSince = LevelMedium
			return
		}
	}
}

// extractHospital sources the hospital name from the locations section's
// first sub-heading, else a generic hospital-name element. Affiliation
// defaults to true unless the name carries an explicit non-affiliation
// marker.
func extractHospital(doc *goquery.Document, locations []section, record *Record, confidence *Confidence) {
	for _, sec := range locations {
		if name := normalizeWhitespace(sec.content.Find("h3, h4").First().Text()); name != "" {
			record.Hospital = name
			record.HospitalAffiliated = hospitalAffiliated(name)
			confidence.Hospital = LevelHigh
			return
		}
	}

	if name := normalizeWhitespace(doc.Find(".hospital-name").First().Text()); name != "" {
		record.Hospital = name
		record.HospitalAffiliated = hospitalAffiliated(name)
		confidence.Hospital = LevelMedium
	}
}
