package timetable

import (
	"errors"
	"fmt"
)

// ErrBadConfiguration means the school identity is incomplete. Terminal:
// the user must finish setup; never retried automatically.
var ErrBadConfiguration = errors.New("school identity is not configured")

// ErrNoSchedule means the upstream answered successfully but returned zero
// timetable rows for the entire requested range. This is a valid, cacheable
// "no schedule published" outcome (holiday, semester break), distinct from
// transport and decode failures so the UI can render a neutral message.
var ErrNoSchedule = errors.New("no schedule exists for this period")

// StatusError is returned when the upstream responds outside the 2xx range.
// Retryable by the caller (pull-to-refresh or the next scheduled pass).
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

// DecodeError is returned when a response body does not match the expected
// shape. Treated like a transport error for retry purposes but logged
// distinctly for diagnosis.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Terminal reports whether an error should stop automatic retries for its
// offset: configuration errors and empty results are terminal, transport
// and decode errors are not.
func Terminal(err error) bool {
	return errors.Is(err, ErrBadConfiguration) || errors.Is(err, ErrNoSchedule)
}
