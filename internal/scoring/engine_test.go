package scoring

import (
	"reflect"
	"strings"
	"testing"

	"github.com/callumw/profile-auditor/internal/assessment"
	"github.com/callumw/profile-auditor/internal/booking"
)

func fullFeatures() Features {
	return Features{
		HasPhoto:             true,
		BioDepth:             assessment.BioDepthComprehensive,
		HasTreatments:        true,
		HasQualifications:    true,
		SpecialtyEvidence:    []string{"Orthopaedic Surgery"},
		HasInsurers:          true,
		HasConsultationTimes: true,
		PlainEnglishScore:    4,
		BookingState:         booking.StateBookableSlots,
		HasPractisingSince:   true,
		HasMemberships:       true,
	}
}

func TestFullProfileScoresGold(t *testing.T) {
	got := Score(fullFeatures(), DefaultConfig())

	if got.Score != 100 {
		t.Errorf("score = %v, want 100", got.Score)
	}
	if got.Tier != TierGold {
		t.Errorf("tier = %q, want %q", got.Tier, TierGold)
	}
	if got.FailCount() != 0 {
		t.Errorf("fail flags = %d, want 0", got.FailCount())
	}
	if len(got.Flags) != 0 {
		t.Errorf("flags = %v, want none", got.Flags)
	}
}

func TestLowConfidenceFieldsEmitDiagnosticFlag(t *testing.T) {
	f := fullFeatures()
	f.LowConfidenceFields = []string{"name", "hospital"}

	got := Score(f, DefaultConfig())

	// The flag is diagnostic only: no score deduction, no tier impact.
	if got.Score != 100 {
		t.Errorf("score = %v, want 100", got.Score)
	}
	if got.Tier != TierGold {
		t.Errorf("tier = %q, want %q", got.Tier, TierGold)
	}
	if len(got.Flags) != 1 {
		t.Fatalf("flags = %v, want single low-confidence flag", got.Flags)
	}
	flag := got.Flags[0]
	if flag.Code != FlagLowConfidence || flag.Severity != SeverityInfo {
		t.Errorf("flag = %+v, want %s info", flag, FlagLowConfidence)
	}
	if !strings.Contains(flag.Message, "name") || !strings.Contains(flag.Message, "hospital") {
		t.Errorf("flag message %q must name the affected fields", flag.Message)
	}
	if got.FailCount() != 0 {
		t.Errorf("fail flags = %d, low confidence must not count toward forced Incomplete", got.FailCount())
	}
}

func TestMissingPhotoDemotesToSilver(t *testing.T) {
	f := fullFeatures()
	f.HasPhoto = false

	got := Score(f, DefaultConfig())

	if got.Score != 90 {
		t.Errorf("score = %v, want 90", got.Score)
	}
	// Score clears the Gold threshold, but the photo gate (and the
	// fail-flag block) deny Gold while Silver's gates still hold.
	if got.Tier != TierSilver {
		t.Errorf("tier = %q, want %q", got.Tier, TierSilver)
	}
	if len(got.Flags) != 1 || got.Flags[0].Code != FlagNoPhoto || got.Flags[0].Severity != SeverityFail {
		t.Errorf("flags = %v, want single %s fail", got.Flags, FlagNoPhoto)
	}
}

func TestFailFlagCountForcesIncomplete(t *testing.T) {
	f := fullFeatures()
	f.HasPhoto = false
	f.HasQualifications = false

	got := Score(f, DefaultConfig())

	if got.Score != 80 {
		t.Errorf("score = %v, want 80", got.Score)
	}
	if got.FailCount() != 2 {
		t.Errorf("fail flags = %d, want 2", got.FailCount())
	}
	// Two fail flags hit the force-Incomplete threshold even though the
	// score would still clear Silver.
	if got.Tier != TierIncomplete {
		t.Errorf("tier = %q, want %q", got.Tier, TierIncomplete)
	}
}

func TestShallowBioFailsTierGatesDespiteHighScore(t *testing.T) {
	f := fullFeatures()
	f.BioDepth = assessment.BioDepthModerate

	got := Score(f, DefaultConfig())

	if got.Score < DefaultConfig().Thresholds.Gold {
		t.Fatalf("score = %v, expected above the gold threshold for this test", got.Score)
	}
	// The substantive-bio gate is set on both Gold and Silver, so a
	// merely adequate bio drops the profile to Bronze.
	if got.Tier != TierBronze {
		t.Errorf("tier = %q, want %q", got.Tier, TierBronze)
	}
}

func TestTreatmentsWaivedForNonProceduralSpecialty(t *testing.T) {
	f := fullFeatures()
	f.HasTreatments = false
	f.SpecialtyEvidence = []string{"Psychiatry"}

	got := Score(f, DefaultConfig())

	if got.Score != 100 {
		t.Errorf("score = %v, want 100 (treatments waived)", got.Score)
	}
	for _, flag := range got.Flags {
		if flag.Code == FlagNoTreatments {
			t.Errorf("waived dimension still flagged: %v", flag)
		}
	}
}

func TestMissingTreatmentsFlaggedForProceduralSpecialty(t *testing.T) {
	f := fullFeatures()
	f.HasTreatments = false

	got := Score(f, DefaultConfig())

	if got.Score != 90 {
		t.Errorf("score = %v, want 90", got.Score)
	}
	found := false
	for _, flag := range got.Flags {
		if flag.Code == FlagNoTreatments && flag.Severity == SeverityWarn {
			found = true
		}
	}
	if !found {
		t.Errorf("flags = %v, want %s warn", got.Flags, FlagNoTreatments)
	}
}

func TestPlainEnglishPartialCredit(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  float64
	}{
		{name: "five is full credit", score: 5, want: 100},
		{name: "four is full credit", score: 4, want: 100},
		{name: "three is half credit", score: 3, want: 95},
		{name: "two is zero", score: 2, want: 90},
		{name: "no verdict is zero", score: 0, want: 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fullFeatures()
			f.PlainEnglishScore = tt.score
			got := Score(f, DefaultConfig())
			if got.Score != tt.want {
				t.Errorf("score = %v, want %v", got.Score, tt.want)
			}
		})
	}
}

func TestPlainEnglishGatedOffWithoutAdequateBio(t *testing.T) {
	f := fullFeatures()
	f.BioDepth = assessment.BioDepthMinimal
	f.PlainEnglishScore = 5

	got := Score(f, DefaultConfig())

	// Bio minimal loses the full bio weight and gates off plain English
	// despite the perfect readability verdict.
	if got.Score != 75 {
		t.Errorf("score = %v, want 75", got.Score)
	}

	cfg := DefaultConfig()
	cfg.GatePlainEnglishOnBio = false
	ungated := Score(f, cfg)
	if ungated.Score != 85 {
		t.Errorf("ungated score = %v, want 85", ungated.Score)
	}
}

func TestBookingPartialCredit(t *testing.T) {
	tests := []struct {
		name  string
		state booking.State
		want  float64
	}{
		{name: "with slots", state: booking.StateBookableSlots, want: 100},
		{name: "no slots is half", state: booking.StateBookableNoSlots, want: 92.5},
		{name: "not bookable is zero", state: booking.StateNotBookable, want: 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fullFeatures()
			f.BookingState = tt.state
			got := Score(f, DefaultConfig())
			if got.Score != tt.want {
				t.Errorf("score = %v, want %v", got.Score, tt.want)
			}
		})
	}
}

func TestScoreIsDeterministicAndBounded(t *testing.T) {
	cfg := DefaultConfig()
	maxScore := float64(cfg.Weights.Total())

	inputs := []Features{
		{},
		fullFeatures(),
		{HasPhoto: true, BioDepth: assessment.BioDepthModerate, PlainEnglishScore: 3},
		{SpecialtyEvidence: []string{"Psychology"}, BookingState: booking.StateBookableNoSlots},
		{BioDepth: assessment.FailedMarker, HasQualifications: true, HasMemberships: true},
	}
	for _, f := range inputs {
		first := Score(f, cfg)
		second := Score(f, cfg)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("non-deterministic result for %+v: %+v vs %+v", f, first, second)
		}
		if first.Score < 0 || first.Score > maxScore {
			t.Errorf("score %v out of [0, %v] for %+v", first.Score, maxScore, f)
		}
	}
}

func TestEmptyProfileIsIncomplete(t *testing.T) {
	got := Score(Features{}, DefaultConfig())
	if got.Tier != TierIncomplete {
		t.Errorf("tier = %q, want %q", got.Tier, TierIncomplete)
	}
	if got.Score != 0 {
		t.Errorf("score = %v, want 0", got.Score)
	}
}

func TestBlockGoldOnFailToggle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GoldGates = Gates{RequireSubstantiveBio: true, RequireSpecialty: true}
	cfg.ForceIncompleteAt = 3

	f := fullFeatures()
	f.HasPhoto = false
	f.HasQualifications = false // two fail flags, below the raised threshold

	blocked := Score(f, cfg)
	if blocked.Tier == TierGold {
		t.Errorf("tier = %q, expected gold blocked by fail flags", blocked.Tier)
	}

	cfg.BlockGoldOnFail = false
	// Score 80 no longer clears gold anyway; lower the threshold to
	// isolate the toggle.
	cfg.Thresholds = Thresholds{Gold: 75, Silver: 60, Bronze: 40}
	unblocked := Score(f, cfg)
	if unblocked.Tier != TierGold {
		t.Errorf("tier = %q, want %q with the block disabled", unblocked.Tier, TierGold)
	}
}
