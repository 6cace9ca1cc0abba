package parsing

import "fmt"

// Error represents a profile extraction failure.
type Error struct {
	Slug    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error for %s: %s: %v", e.Slug, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error for %s: %s", e.Slug, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
