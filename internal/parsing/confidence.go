package parsing

// Level grades how reliable a single field extraction is.
type Level string

// Confidence levels. The strategy that produced a value determines its level:
// structured markup scores high, text fallbacks score medium or low.
const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Confidence carries one entry per extracted field. A field that was not
// found keeps the empty level. Modeled as a fixed struct rather than a
// dynamic map so the known-field set is part of the type.
type Confidence struct {
	Name               Level `json:"name"`
	TitlePrefix        Level `json:"title_prefix"`
	RegistrationNumber Level `json:"registration_number"`
	Hospital           Level `json:"hospital"`
	Photo              Level `json:"photo"`
	About              Level `json:"about"`
	Overview           Level `json:"overview"`
	RelatedExperience  Level `json:"related_experience"`
	Qualifications     Level `json:"qualifications"`
	ProfessionalRoles  Level `json:"professional_roles"`
	PersonalInterests  Level `json:"personal_interests"`
	Research           Level `json:"research"`
	Declaration        Level `json:"declaration"`
	Specialties        Level `json:"specialties"`
	Treatments         Level `json:"treatments"`
	Insurers           Level `json:"insurers"`
	ConsultationTimes  Level `json:"consultation_times"`
	Memberships        Level `json:"memberships"`
	Languages          Level `json:"languages"`
	ClinicalInterests  Level `json:"clinical_interests"`
	NewsItems          Level `json:"news_items"`
	PractisingSince    Level `json:"practising_since"`
	Phone              Level `json:"phone"`
	Email              Level `json:"email"`
	ExternalWebsite    Level `json:"external_website"`
	CQCRating          Level `json:"cqc_rating"`
	AgeRestriction     Level `json:"age_restriction"`
}

// LowFields lists the names of fields extracted with low confidence, for
// surfacing in pipeline diagnostics.
func (c *Confidence) LowFields() []string {
	fields := []struct {
		name  string
		level Level
	}{
		{"name", c.Name},
		{"title_prefix", c.TitlePrefix},
		{"registration_number", c.RegistrationNumber},
		{"hospital", c.Hospital},
		{"photo", c.Photo},
		{"about", c.About},
		{"overview", c.Overview},
		{"related_experience", c.RelatedExperience},
		{"qualifications", c.Qualifications},
		{"professional_roles", c.ProfessionalRoles},
		{"personal_interests", c.PersonalInterests},
		{"research", c.Research},
		{"declaration", c.Declaration},
		{"specialties", c.Specialties},
		{"treatments", c.Treatments},
		{"insurers", c.Insurers},
		{"consultation_times", c.ConsultationTimes},
		{"memberships", c.Memberships},
		{"languages", c.Languages},
		{"clinical_interests", c.ClinicalInterests},
		{"news_items", c.NewsItems},
		{"practising_since", c.PractisingSince},
		{"phone", c.Phone},
		{"email", c.Email},
		{"external_website", c.ExternalWebsite},
		{"cqc_rating", c.CQCRating},
		{"age_restriction", c.AgeRestriction},
	}

	var low []string
	for _, f := range fields {
		if f.level == LevelLow {
			low = append(low, f.name)
		}
	}
	return low
}
