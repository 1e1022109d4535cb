package chat

import "errors"

var (
	// ErrLocationAlreadyQueried signals the one-shot location lookup has
	// already run for this session (a conflict, distinct from not-found).
	ErrLocationAlreadyQueried = errors.New("location query already executed for this session")

	// ErrSummaryNotFound signals a session has no cached location facts.
	ErrSummaryNotFound = errors.New("session data not found")

	// ErrForbidden signals the caller does not own the session.
	ErrForbidden = errors.New("access to this session is forbidden")
)

// UpstreamError wraps a failure from a data provider or the model
// backend. The upstream message is preserved; no distinction is made
// between network, auth and rate-limit failures.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
