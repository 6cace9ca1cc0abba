// Package assessment sends extracted profile text to an LLM and validates
// the structured response. Assessment is best-effort: after two schema
// failures the caller receives a fixed null assessment, never an error.
package assessment

// Bio depth buckets returned by the model.
const (
	BioDepthNone          = "none"
	BioDepthMinimal       = "minimal"
	BioDepthModerate      = "moderate"
	BioDepthComprehensive = "comprehensive"
)

// Treatment specificity buckets.
const (
	TreatmentsNone     = "none"
	TreatmentsGeneric  = "generic"
	TreatmentsSpecific = "specific"
)

// Qualifications completeness buckets.
const (
	QualificationsNone     = "none"
	QualificationsPartial  = "partial"
	QualificationsComplete = "complete"
)

// FailedMarker replaces every qualitative field when the model could not
// produce a valid response.
const FailedMarker = "failed"

// Assessment is the validated model verdict on one profile's content.
type Assessment struct {
	BioDepth                   string   `json:"bio_depth"`
	TreatmentSpecificity       string   `json:"treatment_specificity"`
	QualificationsCompleteness string   `json:"qualifications_completeness"`
	PlainEnglishScore          int      `json:"plain_english_score"`
	Interests                  []string `json:"interests"`
	Languages                  []string `json:"languages"`

	// Failed is set on the null assessment only.
	Failed bool `json:"failed"`
}

// NullAssessment is the fixed fallback after two consecutive invalid model
// responses. PlainEnglishScore zero means "no verdict", below the valid
// 1..5 range.
func NullAssessment() *Assessment {
	return &Assessment{
		BioDepth:                   FailedMarker,
		TreatmentSpecificity:       FailedMarker,
		QualificationsCompleteness: FailedMarker,
		PlainEnglishScore:          0,
		Interests:                  []string{},
		Languages:                  []string{},
		Failed:                     true,
	}
}
