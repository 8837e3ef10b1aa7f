package shared

import "errors"

var (
	// ErrPermissionDenied indicates the caller lacks the required role.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound indicates the target record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotPending occurs when a request already reached a terminal status.
	ErrNotPending = errors.New("request is not pending")
	// ErrAlreadyInProgress occurs when another caller holds the processing ticket.
	ErrAlreadyInProgress = errors.New("request is already being processed")
	// ErrDownstream wraps failures of the downstream side effect. It is logged
	// at the processing boundary and never changes the recorded decision.
	ErrDownstream = errors.New("downstream processing failed")
)
