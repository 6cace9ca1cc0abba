// Package scoring computes a completeness score, quality tier, and
// diagnostic flags from parsed, booking, and assessment features. The
// engine is a pure function of its inputs and a versioned configuration.
package scoring

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Weights are the per-dimension point values. The maximum possible score
// is their sum.
type Weights struct {
	Photo             int `json:"photo" validate:"gte=0"`
	Bio               int `json:"bio" validate:"gte=0"`
	Treatments        int `json:"treatments" validate:"gte=0"`
	Qualifications    int `json:"qualifications" validate:"gte=0"`
	Specialties       int `json:"specialties" validate:"gte=0"`
	Insurers          int `json:"insurers" validate:"gte=0"`
	ConsultationTimes int `json:"consultation_times" validate:"gte=0"`
	PlainEnglish      int `json:"plain_english" validate:"gte=0"`
	Booking           int `json:"booking" validate:"gte=0"`
	PractisingSince   int `json:"practising_since" validate:"gte=0"`
	Memberships       int `json:"memberships" validate:"gte=0"`
}

// Total is the maximum achievable score.
func (w Weights) Total() int {
	return w.Photo + w.Bio + w.Treatments + w.Qualifications + w.Specialties +
		w.Insurers + w.ConsultationTimes + w.PlainEnglish + w.Booking +
		w.PractisingSince + w.Memberships
}

// Gates are the mandatory conditions a tier requires beyond its score
// threshold.
type Gates struct {
	RequirePhoto          bool `json:"require_photo"`
	RequireSubstantiveBio bool `json:"require_substantive_bio"`
	RequireSpecialty      bool `json:"require_specialty"`
}

// Thresholds are the minimum scores per tier. Gold > Silver > Bronze >= 0.
type Thresholds struct {
	Gold   float64 `json:"gold" validate:"gte=0"`
	Silver float64 `json:"silver" validate:"gte=0"`
	Bronze float64 `json:"bronze" validate:"gte=0"`
}

// Config is one version of the scoring rules. The engine treats it as
// immutable per invocation.
type Config struct {
	Version    string     `json:"version" validate:"required"`
	Weights    Weights    `json:"weights"`
	Thresholds Thresholds `json:"thresholds"`

	GoldGates   Gates `json:"gold_gates"`
	SilverGates Gates `json:"silver_gates"`
	BronzeGates Gates `json:"bronze_gates"`

	// BlockGoldOnFail denies Gold to any profile carrying a fail flag,
	// regardless of score and gates.
	BlockGoldOnFail bool `json:"block_gold_on_fail"`

	// ForceIncompleteAt is the fail-flag count at which the tier becomes
	// Incomplete before any threshold or gate is consulted.
	ForceIncompleteAt int `json:"force_incomplete_at" validate:"gte=1"`

	// GatePlainEnglishOnBio zeroes the plain-English dimension unless the
	// bio depth is adequate or better.
	GatePlainEnglishOnBio bool `json:"gate_plain_english_on_bio"`

	// NonProceduralSpecialties waives the treatments dimension: a profile
	// whose specialty evidence intersects this list is not expected to
	// list procedures.
	NonProceduralSpecialties []string `json:"non_procedural_specialties"`
}

// DefaultConfig is the v1 ruleset. Weights sum to 100.
func DefaultConfig() *Config {
	return &Config{
		Version: "v1",
		Weights: Weights{
			Photo:             10,
			Bio:               15,
			Treatments:        10,
			Qualifications:    10,
			Specialties:       10,
			Insurers:          5,
			ConsultationTimes: 5,
			PlainEnglish:      10,
			Booking:           15,
			PractisingSince:   5,
			Memberships:       5,
		},
		Thresholds: Thresholds{Gold: 85, Silver: 65, Bronze: 40},
		GoldGates: Gates{
			RequirePhoto:          true,
			RequireSubstantiveBio: true,
			RequireSpecialty:      true,
		},
		SilverGates: Gates{
			RequireSubstantiveBio: true,
			RequireSpecialty:      true,
		},
		BronzeGates:           Gates{},
		BlockGoldOnFail:       true,
		ForceIncompleteAt:     2,
		GatePlainEnglishOnBio: true,
		NonProceduralSpecialties: []string{
			"psychiatry",
			"psychology",
			"general practice",
			"dietetics",
			"counselling",
		},
	}
}

// LoadConfig reads and validates a scoring config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scoring config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks field constraints and threshold ordering.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Thresholds.Gold <= c.Thresholds.Silver {
		return fmt.Errorf("gold threshold (%.0f) must exceed silver (%.0f)", c.Thresholds.Gold, c.Thresholds.Silver)
	}
	if c.Thresholds.Silver <= c.Thresholds.Bronze {
		return fmt.Errorf("silver threshold (%.0f) must exceed bronze (%.0f)", c.Thresholds.Silver, c.Thresholds.Bronze)
	}
	if c.Weights.Total() == 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	return nil
}
