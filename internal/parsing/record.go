// Package parsing extracts structured consultant profile fields from rendered HTML.
package parsing

// NewsItem is one anchor from the "In the news" section.
type NewsItem struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Record holds every extractable field of a consultant profile. Every field
// is always present and typed: extraction failures produce zero values or
// empty collections, never missing keys.
type Record struct {
	Slug string `json:"slug"`

	// Identity
	Name               string `json:"name"`
	TitlePrefix        string `json:"title_prefix"`
	RegistrationNumber string `json:"registration_number"`
	ProviderCode       string `json:"provider_code"`
	Hospital           string `json:"hospital"`
	HospitalAffiliated bool   `json:"hospital_affiliated"`

	// Photo
	HasPhoto bool   `json:"has_photo"`
	PhotoURL string `json:"photo_url"`

	// Text blobs
	About             string `json:"about"`
	Overview          string `json:"overview"`
	RelatedExperience string `json:"related_experience"`
	Qualifications    string `json:"qualifications"`
	ProfessionalRoles string `json:"professional_roles"`
	PersonalInterests string `json:"personal_interests"`
	Research          string `json:"research"`

	// Declaration paragraphs, preserved separately so boilerplate detection
	// can work sentence by sentence.
	Declaration            []string `json:"declaration"`
	DeclarationSubstantive bool     `json:"declaration_substantive"`

	// List fields
	Specialties       []string `json:"specialties"`
	SubSpecialties    []string `json:"sub_specialties"`
	Treatments        []string `json:"treatments"`
	Insurers          []string `json:"insurers"`
	ConsultationTimes []string `json:"consultation_times"`
	Memberships       []string `json:"memberships"`
	Languages         []string `json:"languages"`
	ClinicalInterests []string `json:"clinical_interests"`

	NewsItems []NewsItem `json:"news_items"`

	PractisingSince *int `json:"practising_since"`

	// Contact
	LandlinePhone   string `json:"landline_phone"`
	MobilePhone     string `json:"mobile_phone"`
	Email           string `json:"email"`
	ExternalWebsite string `json:"external_website"`

	CQCRating string `json:"cqc_rating"`

	// Age restriction; nil means no restriction detected.
	AgeMin *int `json:"age_min"`
	AgeMax *int `json:"age_max"`

	// CMSCorruption is set when body text carries markdown-rendering
	// artifacts (runs of asterisks embedded in words).
	CMSCorruption bool `json:"cms_corruption"`
}

// NewRecord returns a Record with every collection initialized so persisted
// JSON never contains null arrays.
func NewRecord(slug string) *Record {
	return &Record{
		Slug:               slug,
		HospitalAffiliated: true,
		Declaration:        []string{},
		Specialties:        []string{},
		SubSpecialties:     []string{},
		Treatments:         []string{},
		Insurers:           []string{},
		ConsultationTimes:  []string{},
		Memberships:        []string{},
		Languages:          []string{},
		ClinicalInterests:  []string{},
		NewsItems:          []NewsItem{},
	}
}

// SpecialtyEvidence is the union of primary and sub-specialty lists. Either
// alone satisfies downstream specialty gates.
func (r *Record) SpecialtyEvidence() []string {
	evidence := make([]string, 0, len(r.Specialties)+len(r.SubSpecialties))
	evidence = append(evidence, r.Specialties...)
	evidence = append(evidence, r.SubSpecialties...)
	return evidence
}
