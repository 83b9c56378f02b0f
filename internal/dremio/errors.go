package dremio

import (
	"errors"
	"fmt"
)

// ErrTokenMissing marks a 200 login response whose token field is absent or
// empty. It is one of the two causes an ExtractionError can carry.
var ErrTokenMissing = errors.New("no token in login response")

// StatusError reports a non-2xx response. Body carries the raw response text
// so callers can surface it for diagnosis.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("http status %d", e.Code) }

// ExtractionError reports a 200 login response that did not yield a usable
// token. Cause distinguishes the two cases: a JSON decode error when the body
// was not valid JSON, or ErrTokenMissing when the field was absent/empty.
// Both collapse to the same outcome for callers.
type ExtractionError struct {
	Body  string
	Cause error
}

func (e *ExtractionError) Error() string { return "extract token: " + e.Cause.Error() }
func (e *ExtractionError) Unwrap() error { return e.Cause }
