package pipeline

import (
	"strings"

	"github.com/callumw/profile-auditor/internal/assessment"
	"github.com/callumw/profile-auditor/internal/booking"
	"github.com/callumw/profile-auditor/internal/parsing"
	"github.com/callumw/profile-auditor/internal/scoring"
)

// Heuristic bio-depth thresholds, applied to the raw biography text when
// the assessment failed.
const (
	bioComprehensiveChars = 1200
	bioModerateChars      = 400
)

// assessmentContent assembles the free text sent to the assessment model.
func assessmentContent(r *parsing.Record) string {
	var parts []string
	add := func(label, text string) {
		if strings.TrimSpace(text) != "" {
			parts = append(parts, label+":\n"+text)
		}
	}
	add("About", r.About)
	add("Overview", r.Overview)
	add("Related experience", r.RelatedExperience)
	add("Qualifications", r.Qualifications)
	add("Professional roles", r.ProfessionalRoles)
	add("Personal interests", r.PersonalInterests)
	if len(r.Treatments) > 0 {
		parts = append(parts, "Treatments:\n"+strings.Join(r.Treatments, "\n"))
	}
	if len(r.Specialties) > 0 {
		parts = append(parts, "Specialties:\n"+strings.Join(r.Specialties, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// bioText is the biography material the depth heuristic measures.
func bioText(r *parsing.Record) string {
	return strings.TrimSpace(r.About + "\n" + r.Overview)
}

// heuristicBioDepth estimates bio depth from raw text length. Used only
// when the assessment returned its null fallback, so scoring can still
// apply the bio dimension.
func heuristicBioDepth(text string) string {
	n := len(strings.TrimSpace(text))
	switch {
	case n >= bioComprehensiveChars:
		return assessment.BioDepthComprehensive
	case n >= bioModerateChars:
		return assessment.BioDepthModerate
	case n > 0:
		return assessment.BioDepthMinimal
	default:
		return assessment.BioDepthNone
	}
}

// buildFeatures flattens the stage results into the scoring input. The
// confidence map may be nil; low-confidence fields it names become a
// diagnostic flag during scoring.
func buildFeatures(r *parsing.Record, confidence *parsing.Confidence, avail *booking.Availability, a *assessment.Assessment) scoring.Features {
	bioDepth := a.BioDepth
	if a.Failed {
		bioDepth = heuristicBioDepth(bioText(r))
	}

	state := booking.StateNotBookable
	if avail != nil {
		state = avail.State
	}

	var lowFields []string
	if confidence != nil {
		lowFields = confidence.LowFields()
	}

	return scoring.Features{
		HasPhoto:             r.HasPhoto,
		BioDepth:             bioDepth,
		HasTreatments:        len(r.Treatments) > 0,
		HasQualifications:    strings.TrimSpace(r.Qualifications) != "",
		SpecialtyEvidence:    r.SpecialtyEvidence(),
		HasInsurers:          len(r.Insurers) > 0,
		HasConsultationTimes: len(r.ConsultationTimes) > 0,
		PlainEnglishScore:    a.PlainEnglishScore,
		BookingState:         state,
		HasPractisingSince:   r.PractisingSince != nil,
		HasMemberships:       len(r.Memberships) > 0,
		LowConfidenceFields:  lowFields,
	}
}
