package ebay

import (
	"errors"
	"feedback-notifier/lib/feedback"
	"fmt"
)

// FetchError is returned when the profile page could not be retrieved,
// either because the request failed or the server answered with a
// non-success status.
type FetchError struct {
	Url        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s", e.Url, e.Err.Error())
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.Url, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

var ErrNotFound = errors.New("no match")

// ExtractionError reports a field that could not be read from the page, the
// field is left at feedback.MissingValue.
type ExtractionError struct {
	Field feedback.Field
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil || errors.Is(e.Err, ErrNotFound) {
		return fmt.Sprintf("%s score not found", e.Field)
	}
	return fmt.Sprintf("%s score not found: %s", e.Field, e.Err.Error())
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
