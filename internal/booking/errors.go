package booking

import "fmt"

// APIError represents exhausted retries or an unexpected response from a
// booking endpoint.
type APIError struct {
	Endpoint string
	Code     string
	Class    string
	Attempts int
	Message  string
	Cause    error
}

func (e *APIError) Error() string {
	base := fmt.Sprintf("booking API error on %s for code %s", e.Endpoint, e.Code)
	if e.Class != "" {
		base = fmt.Sprintf("%s (%s after %d attempts)", base, e.Class, e.Attempts)
	}
	if e.Message != "" {
		base = fmt.Sprintf("%s: %s", base, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *APIError) Unwrap() error {
	return e.Cause
}
