package scoring

import (
	"strings"

	"github.com/callumw/profile-auditor/internal/assessment"
	"github.com/callumw/profile-auditor/internal/booking"
)

// Tier is the quality tier assigned to a profile.
type Tier string

const (
	TierGold       Tier = "gold"
	TierSilver     Tier = "silver"
	TierBronze     Tier = "bronze"
	TierIncomplete Tier = "incomplete"
)

// Severity ranks a flag's impact on the tier decision.
type Severity string

const (
	SeverityFail Severity = "fail"
	SeverityWarn Severity = "warn"
	SeverityInfo Severity = "info"
)

// Flag is one diagnostic emitted during scoring. Flags accumulate; the
// engine never removes one within a pass.
type Flag struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Flag codes, one per dimension.
const (
	FlagNoPhoto             = "PROFILE_NO_PHOTO"
	FlagBioShallow          = "PROFILE_BIO_SHALLOW"
	FlagNoTreatments        = "PROFILE_NO_TREATMENTS"
	FlagNoQualifications    = "PROFILE_NO_QUALIFICATIONS"
	FlagNoSpecialty         = "PROFILE_NO_SPECIALTY"
	FlagNoInsurers          = "PROFILE_NO_INSURERS"
	FlagNoConsultationTimes = "PROFILE_NO_CONSULTATION_TIMES"
	FlagPoorReadability     = "PROFILE_POOR_READABILITY"
	FlagBookingUnavailable  = "BOOKING_UNAVAILABLE"
	FlagNoPractisingSince   = "PROFILE_NO_PRACTISING_SINCE"
	FlagNoMemberships       = "PROFILE_NO_MEMBERSHIPS"
	FlagLowConfidence       = "PROFILE_LOW_CONFIDENCE"
)

// Features is the flattened scoring input assembled from the parsed
// record, booking availability, and assessment.
type Features struct {
	HasPhoto bool

	// BioDepth is an assessment bucket (none/minimal/moderate/
	// comprehensive) or the failed marker.
	BioDepth string

	HasTreatments        bool
	HasQualifications    bool
	SpecialtyEvidence    []string
	HasInsurers          bool
	HasConsultationTimes bool

	// PlainEnglishScore is 1..5; zero means the assessment produced no
	// verdict.
	PlainEnglishScore int

	BookingState       booking.State
	HasPractisingSince bool
	HasMemberships     bool

	// LowConfidenceFields names record fields the parser extracted via a
	// low-confidence fallback strategy. They carry no weight but are
	// surfaced as a diagnostic flag.
	LowConfidenceFields []string
}

// Result is one scoring verdict.
type Result struct {
	Score float64 `json:"score"`
	Tier  Tier    `json:"tier"`
	Flags []Flag  `json:"flags"`
}

// FailCount counts fail-severity flags.
func (r *Result) FailCount() int {
	n := 0
	for _, f := range r.Flags {
		if f.Severity == SeverityFail {
			n++
		}
	}
	return n
}

// bioSubstantive reports whether the bio satisfies a substantive-bio gate.
func bioSubstantive(depth string) bool {
	return depth == assessment.BioDepthComprehensive
}

// bioAdequate reports adequate-or-better depth.
func bioAdequate(depth string) bool {
	return depth == assessment.BioDepthModerate || depth == assessment.BioDepthComprehensive
}

// Score evaluates one profile against one config version. It is
// deterministic: identical features and config always produce identical
// output.
func Score(f Features, cfg *Config) Result {
	var result Result
	w := cfg.Weights

	flag := func(code string, severity Severity, message string) {
		result.Flags = append(result.Flags, Flag{Code: code, Severity: severity, Message: message})
	}

	// Photo.
	if f.HasPhoto {
		result.Score += float64(w.Photo)
	} else {
		flag(FlagNoPhoto, SeverityFail, "profile has no photo")
	}

	// Bio: substantive earns full credit, adequate half.
	switch {
	case bioSubstantive(f.BioDepth):
		result.Score += float64(w.Bio)
	case bioAdequate(f.BioDepth):
		result.Score += float64(w.Bio) / 2
		flag(FlagBioShallow, SeverityFail, "biography lacks depth")
	default:
		flag(FlagBioShallow, SeverityFail, "biography is missing or trivial")
	}

	// Treatments, waived for non-procedural specialties.
	switch {
	case f.HasTreatments:
		result.Score += float64(w.Treatments)
	case nonProcedural(f.SpecialtyEvidence, cfg.NonProceduralSpecialties):
		result.Score += float64(w.Treatments)
	default:
		flag(FlagNoTreatments, SeverityWarn, "no treatments listed")
	}

	if f.HasQualifications {
		result.Score += float64(w.Qualifications)
	} else {
		flag(FlagNoQualifications, SeverityFail, "no qualifications listed")
	}

	hasSpecialty := len(f.SpecialtyEvidence) > 0
	if hasSpecialty {
		result.Score += float64(w.Specialties)
	} else {
		flag(FlagNoSpecialty, SeverityFail, "no specialty evidence")
	}

	if f.HasInsurers {
		result.Score += float64(w.Insurers)
	} else {
		flag(FlagNoInsurers, SeverityInfo, "no insurers listed")
	}

	if f.HasConsultationTimes {
		result.Score += float64(w.ConsultationTimes)
	} else {
		flag(FlagNoConsultationTimes, SeverityWarn, "no consultation times listed")
	}

	// Plain English: >=4 full, 3 half, <=2 zero; optionally gated off
	// entirely when the bio is below adequate.
	gatedOff := cfg.GatePlainEnglishOnBio && !bioAdequate(f.BioDepth)
	switch {
	case gatedOff:
		flag(FlagPoorReadability, SeverityWarn, "readability not credited without an adequate biography")
	case f.PlainEnglishScore >= 4:
		result.Score += float64(w.PlainEnglish)
	case f.PlainEnglishScore == 3:
		result.Score += float64(w.PlainEnglish) / 2
		flag(FlagPoorReadability, SeverityWarn, "profile readability is middling")
	default:
		flag(FlagPoorReadability, SeverityWarn, "profile is hard to read for patients")
	}

	// Booking: with-slots full, no-slots half, not bookable zero.
	switch f.BookingState {
	case booking.StateBookableSlots:
		result.Score += float64(w.Booking)
	case booking.StateBookableNoSlots:
		result.Score += float64(w.Booking) / 2
		flag(FlagBookingUnavailable, SeverityWarn, "bookable but no slots in the next four weeks")
	default:
		flag(FlagBookingUnavailable, SeverityWarn, "not bookable online")
	}

	if f.HasPractisingSince {
		result.Score += float64(w.PractisingSince)
	} else {
		flag(FlagNoPractisingSince, SeverityInfo, "practising-since year not stated")
	}

	if f.HasMemberships {
		result.Score += float64(w.Memberships)
	} else {
		flag(FlagNoMemberships, SeverityInfo, "no professional memberships listed")
	}

	if len(f.LowConfidenceFields) > 0 {
		flag(FlagLowConfidence, SeverityInfo,
			"low-confidence extraction: "+strings.Join(f.LowConfidenceFields, ", "))
	}

	result.Tier = resolveTier(&result, f, cfg, hasSpecialty)
	return result
}

// resolveTier applies the top-down, first-match tier rules. The
// force-Incomplete short-circuit overrides everything, including a score
// above the Gold threshold.
func resolveTier(r *Result, f Features, cfg *Config, hasSpecialty bool) Tier {
	failCount := r.FailCount()
	if failCount >= cfg.ForceIncompleteAt {
		return TierIncomplete
	}

	gatesMet := func(g Gates) bool {
		if g.RequirePhoto && !f.HasPhoto {
			return false
		}
		if g.RequireSubstantiveBio && !bioSubstantive(f.BioDepth) {
			return false
		}
		if g.RequireSpecialty && !hasSpecialty {
			return false
		}
		return true
	}

	goldBlocked := cfg.BlockGoldOnFail && failCount > 0
	if r.Score >= cfg.Thresholds.Gold && gatesMet(cfg.GoldGates) && !goldBlocked {
		return TierGold
	}
	if r.Score >= cfg.Thresholds.Silver && gatesMet(cfg.SilverGates) {
		return TierSilver
	}
	if r.Score >= cfg.Thresholds.Bronze && gatesMet(cfg.BronzeGates) {
		return TierBronze
	}
	return TierIncomplete
}

// nonProcedural reports whether any specialty evidence entry matches the
// configured non-procedural list, case-insensitively.
func nonProcedural(evidence, waived []string) bool {
	for _, spec := range evidence {
		for _, w := range waived {
			if strings.EqualFold(strings.TrimSpace(spec), w) {
				return true
			}
		}
	}
	return false
}
