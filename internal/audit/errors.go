package audit

import (
	"errors"
	"fmt"
)

var (
	// ErrCouldNotFetch indicates neither the probe fetch nor the browser render produced usable HTML.
	ErrCouldNotFetch = errors.New("could not fetch page")
	// ErrTimeout indicates the caller's deadline expired before the analysis completed.
	ErrTimeout = errors.New("analysis timed out")
	// ErrInvalidURL indicates the target could not be parsed as an http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
)

// FetchError carries the errors from both fetch stages.
type FetchError struct {
	URL       string
	ProbeErr  error
	RenderErr error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: probe: %v; render: %v", ErrCouldNotFetch, e.URL, e.ProbeErr, e.RenderErr)
}

// Unwrap exposes the sentinel and both stage errors to errors.Is/As.
func (e *FetchError) Unwrap() []error {
	errs := []error{ErrCouldNotFetch}
	if e.ProbeErr != nil {
		errs = append(errs, e.ProbeErr)
	}
	if e.RenderErr != nil {
		errs = append(errs, e.RenderErr)
	}
	return errs
}
