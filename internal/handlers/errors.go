package handlers

import (
	"errors"
	"log/slog"

	"github.com/pocketbase/pocketbase/apis"

	"queue-system/internal/status"
)

// queueError maps queue store errors onto API errors.
func queueError(err error) error {
	switch {
	case errors.Is(err, status.ErrUnknownActivity):
		return apis.NewNotFoundError("Activity not found", err)
	case errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError("Ticket not found", err)
	default:
		slog.Error("queue operation failed", "error", err)
		return apis.NewInternalServerError("Queue operation failed", err)
	}
}
