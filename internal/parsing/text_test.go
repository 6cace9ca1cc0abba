package parsing

import "testing"

func TestIsSubstantiveDeclaration(t *testing.T) {
	tests := []struct {
		name        string
		paragraphs  []string
		substantive bool
	}{
		{"empty", nil, false},
		{"single boilerplate", []string{"I have no interests to declare."}, false},
		{"shareholding boilerplate", []string{"Mr Smith does not hold a share in any healthcare company."}, false},
		{
			"multi-sentence pure boilerplate",
			[]string{"I have no interests to declare. I have no conflicts of interest."},
			false,
		},
		{
			"boilerplate mixed with real content",
			[]string{"I have no interests to declare. I am a paid advisor to MedCo Ltd."},
			true,
		},
		{"genuine declaration", []string{"I hold shares in Riverside Imaging Ltd."}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSubstantiveDeclaration(tt.paragraphs); got != tt.substantive {
				t.Errorf("isSubstantiveDeclaration(%v) = %t, expected %t", tt.paragraphs, got, tt.substantive)
			}
		})
	}
}

func TestDedupeItems(t *testing.T) {
	items := []string{"Knee surgery,", "knee surgery", "Hip surgery", "", "Hip Surgery", "Shoulder"}
	result := dedupeItems(items)
	expected := []string{"Knee surgery", "Hip surgery", "Shoulder"}

	if len(result) != len(expected) {
		t.Fatalf("dedupeItems = %v, expected %v", result, expected)
	}
	for i := range expected {
		if result[i] != expected[i] {
			t.Errorf("dedupeItems[%d] = %q, expected %q", i, result[i], expected[i])
		}
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := normalizeWhitespace("  Mr  John\t\tCarter \n"); got != "Mr John Carter" {
		t.Errorf("normalizeWhitespace = %q", got)
	}
}
