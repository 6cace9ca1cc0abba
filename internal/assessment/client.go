package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// maxAttempts bounds schema-failure retries: one retry, then the null
// assessment.
const maxAttempts = 2

const promptTemplate = `You are reviewing a hospital consultant's public profile page for completeness and readability.

Assess the profile content below and respond with a single JSON object, no prose, with exactly these fields:

- "bio_depth": one of "none", "minimal", "moderate", "comprehensive" — how substantial the biographical text is.
- "treatment_specificity": one of "none", "generic", "specific" — whether listed treatments name concrete procedures or only broad service areas.
- "qualifications_completeness": one of "none", "partial", "complete" — whether qualifications cover degrees, fellowships and current registrations.
- "plain_english_score": integer 1 to 5 — how readable the profile is for a patient with no medical background (5 = fully plain English).
- "interests": array of strings — clinical or personal interests mentioned in the text.
- "languages": array of strings — languages the consultant is stated to speak.

Profile content:

%s`

// Client runs the assessment stage against a Generator.
type Client struct {
	gen     Generator
	verbose bool
}

// NewClient creates an assessment client over the given generator.
func NewClient(gen Generator, verbose bool) *Client {
	return &Client{gen: gen, verbose: verbose}
}

// Assess sends profile content to the model and returns a schema-valid
// assessment. An invalid response is retried once; a second failure
// returns the null assessment. Assess never returns an error: the
// pipeline must proceed to scoring regardless of model behaviour.
func (c *Client) Assess(ctx context.Context, slug, content string) *Assessment {
	prompt := fmt.Sprintf(promptTemplate, content)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := c.gen.GenerateJSON(ctx, prompt)
		if err == nil {
			err = validateResponse(raw)
		}
		if err != nil {
			if c.verbose {
				log.Printf("[VERBOSE] assessment attempt %d/%d failed for %s: %v", attempt, maxAttempts, slug, err)
			}
			continue
		}

		var result Assessment
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			// Schema-valid JSON always unmarshals; treat anything
			// else as one more failed attempt.
			if c.verbose {
				log.Printf("[VERBOSE] assessment decode failed for %s: %v", slug, err)
			}
			continue
		}
		if result.Interests == nil {
			result.Interests = []string{}
		}
		if result.Languages == nil {
			result.Languages = []string{}
		}
		return &result
	}

	log.Printf("assessment failed for %s after %d attempts, recording null assessment", slug, maxAttempts)
	return NullAssessment()
}

// Close releases the underlying generator.
func (c *Client) Close() error {
	return c.gen.Close()
}
