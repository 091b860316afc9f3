package tracker

import "fmt"

// ValidationError reports invalid input to Start. It is raised before
// any storage access and is never worth retrying.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports a start attempted while another session is
// already active. The engine never auto-stops; the caller decides
// whether to stop and retry.
type ConflictError struct {
	// Domain of the session currently occupying the slot.
	Domain string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("session already active for %s", e.Domain)
}

// OpError wraps a storage failure behind a tracker operation, keeping
// the original cause inspectable.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
