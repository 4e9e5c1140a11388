package status

import "errors"

var (
	ErrEmptyQueue           = errors.New("queue: no tickets waiting")
	ErrUnknownActivity      = errors.New("activity: unknown activity")
	ErrTicketNotFound       = errors.New("ticket: ticket not in waiting list")
	ErrOperatorUnauthorized = errors.New("operator: not authorized")
	ErrInvalidSnapshot      = errors.New("snapshot: invalid snapshot document")
)
