package summarizer

import (
	"strings"

	"text-summarizer/internal/backend"
)

// FailureError reports that every attempted backend failed. Its message
// embeds each cause labeled by backend, primary first.
type FailureError struct {
	Attempts []Attempt
}

func (e *FailureError) Error() string {
	var sb strings.Builder
	sb.WriteString("both summarization backends failed: ")
	for i, a := range e.Attempts {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(a.Backend.String())
		sb.WriteString(": ")
		if a.Err != nil {
			sb.WriteString(a.Err.Error())
		}
	}
	return sb.String()
}

// Unwrap exposes every cause to errors.Is and errors.As.
func (e *FailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Cause returns the error from the given backend, or nil.
func (e *FailureError) Cause(mode backend.Mode) error {
	for _, a := range e.Attempts {
		if a.Backend == mode {
			return a.Err
		}
	}
	return nil
}
