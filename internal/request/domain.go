// Package request owns access requests and their processing lifecycle: a
// request is created Pending and is moved to a terminal status at most once,
// guarded by a per-id processing ticket.
package request

import (
	"time"

	"github.com/accessgate/accessgate/internal/shared"
)

// Status enumerates the request lifecycle states.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusDenied   Status = "DENIED"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// AccessRequest is an append-only record of one access request. Only Status
// and Processed ever change, exactly once, through a processing ticket.
type AccessRequest struct {
	ID          string
	Requester   shared.Principal
	Resource    string
	RequestedAt time.Time
	Status      Status
	Processed   bool
}
