package assessment

import (
	"context"
	"errors"
	"testing"
)

const validResponse = `{
  "bio_depth": "comprehensive",
  "treatment_specificity": "specific",
  "qualifications_completeness": "complete",
  "plain_english_score": 4,
  "interests": ["knee surgery", "sports injuries"],
  "languages": ["English", "French"]
}`

// fakeGenerator replays a scripted sequence of responses.
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func (f *fakeGenerator) Close() error { return nil }

func TestAssessAcceptsValidResponse(t *testing.T) {
	gen := &fakeGenerator{responses: []string{validResponse}}
	got := NewClient(gen, false).Assess(context.Background(), "john-carter", "profile text")

	if got.Failed {
		t.Fatal("valid response marked failed")
	}
	if got.BioDepth != BioDepthComprehensive {
		t.Errorf("BioDepth = %q, want %q", got.BioDepth, BioDepthComprehensive)
	}
	if got.PlainEnglishScore != 4 {
		t.Errorf("PlainEnglishScore = %d, want 4", got.PlainEnglishScore)
	}
	if len(got.Interests) != 2 || len(got.Languages) != 2 {
		t.Errorf("interests/languages = %v / %v", got.Interests, got.Languages)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
}

func TestAssessRetriesOnceThenSucceeds(t *testing.T) {
	tests := []struct {
		name  string
		first string
	}{
		{name: "off-schema enum", first: `{"bio_depth": "amazing", "treatment_specificity": "specific", "qualifications_completeness": "complete", "plain_english_score": 4, "interests": [], "languages": []}`},
		{name: "score out of range", first: `{"bio_depth": "moderate", "treatment_specificity": "specific", "qualifications_completeness": "complete", "plain_english_score": 9, "interests": [], "languages": []}`},
		{name: "missing field", first: `{"bio_depth": "moderate"}`},
		{name: "extra field", first: `{"bio_depth": "moderate", "treatment_specificity": "specific", "qualifications_completeness": "complete", "plain_english_score": 4, "interests": [], "languages": [], "verdict": "good"}`},
		{name: "not JSON", first: `the profile looks fine to me`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{responses: []string{tt.first, validResponse}}
			got := NewClient(gen, false).Assess(context.Background(), "john-carter", "profile text")

			if got.Failed {
				t.Fatal("retry success marked failed")
			}
			if gen.calls != 2 {
				t.Errorf("generator calls = %d, want 2", gen.calls)
			}
		})
	}
}

func TestAssessFallsBackToNullAfterTwoFailures(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`not json`, `{"bio_depth": "wrong"}`}}
	got := NewClient(gen, false).Assess(context.Background(), "john-carter", "profile text")

	if !got.Failed {
		t.Fatal("expected null assessment")
	}
	if got.BioDepth != FailedMarker || got.TreatmentSpecificity != FailedMarker || got.QualificationsCompleteness != FailedMarker {
		t.Errorf("qualitative fields = %q/%q/%q, want %q", got.BioDepth, got.TreatmentSpecificity, got.QualificationsCompleteness, FailedMarker)
	}
	if got.PlainEnglishScore != 0 {
		t.Errorf("PlainEnglishScore = %d, want 0", got.PlainEnglishScore)
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
}

func TestAssessTreatsGenerationErrorAsFailedAttempt(t *testing.T) {
	gen := &fakeGenerator{
		errs:      []error{errors.New("transport failure"), nil},
		responses: []string{"", validResponse},
	}
	got := NewClient(gen, false).Assess(context.Background(), "john-carter", "profile text")

	if got.Failed {
		t.Fatal("recovered attempt marked failed")
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
}

func TestCleanJSONBlockStripsFences(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	if got := cleanJSONBlock(fenced); got != validResponse {
		t.Errorf("cleanJSONBlock = %q", got)
	}
	if got := cleanJSONBlock(validResponse); got != validResponse {
		t.Errorf("cleanJSONBlock altered clean input: %q", got)
	}
}

func TestValidateResponseAcceptsEmptyLists(t *testing.T) {
	minimal := `{"bio_depth": "none", "treatment_specificity": "none", "qualifications_completeness": "none", "plain_english_score": 1, "interests": [], "languages": []}`
	if err := validateResponse(minimal); err != nil {
		t.Errorf("validateResponse: %v", err)
	}
}
