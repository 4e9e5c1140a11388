package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"queue-system/internal/services"
	"queue-system/internal/status"
	"queue-system/models"
	"queue-system/security"
)

type OperatorSessions interface {
	Login(ctx context.Context, passphrase string) (string, error)
	Logout(ctx context.Context, token string) error
}

// OperationTracker counts operator actions the store rejected.
type OperationTracker interface {
	TrackQueueOperation(operation, activityID, status string)
}

type AdminHandler struct {
	queueService *services.QueueService
	sessions     OperatorSessions
	tracker      OperationTracker
}

func NewAdminHandler(queueService *services.QueueService, sessions OperatorSessions, tracker OperationTracker) *AdminHandler {
	return &AdminHandler{
		queueService: queueService,
		sessions:     sessions,
		tracker:      tracker,
	}
}

// Login - Exchange the operator passphrase for a session token
func (h *AdminHandler) Login(e *core.RequestEvent) error {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Passphrase == "" {
		return apis.NewBadRequestError("Passphrase required", nil)
	}

	token, err := h.sessions.Login(e.Request.Context(), req.Passphrase)
	if errors.Is(err, status.ErrOperatorUnauthorized) {
		slog.Warn("operator login rejected", "ip", e.RemoteIP())
		return apis.NewUnauthorizedError("Invalid passphrase", nil)
	}
	if err != nil {
		slog.Error("h.sessions.Login()", "error", err)
		return apis.NewInternalServerError("Login failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"token": token})
}

func (h *AdminHandler) Logout(e *core.RequestEvent) error {
	if err := h.sessions.Logout(e.Request.Context(), security.OperatorToken(e.Request)); err != nil {
		slog.Error("h.sessions.Logout()", "error", err)
		return apis.NewInternalServerError("Logout failed", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Logged out"})
}

type activityPanel struct {
	Activity       models.Activity `json:"activity"`
	ServingNumber  int             `json:"serving_number"`
	ServingTicket  string          `json:"serving_ticket"`
	Waiting        []string        `json:"waiting"`
	ServedCount    int             `json:"served_count"`
	ElapsedSeconds int             `json:"elapsed_seconds"`
	ElapsedDisplay string          `json:"elapsed_display"`
}

// GetDashboard - Statistics, per-activity panels and chart rows
func (h *AdminHandler) GetDashboard(e *core.RequestEvent) error {
	snap := h.queueService.Snapshot()
	activities := h.queueService.Registry().All()

	panels := make([]activityPanel, 0, len(activities))
	for _, a := range activities {
		q := snap[a.ID]
		elapsed := h.queueService.Timer().Elapsed(a.ID)
		panels = append(panels, activityPanel{
			Activity:       a,
			ServingNumber:  q.ServingNumber,
			ServingTicket:  servingTicket(a, q),
			Waiting:        formatTickets(a, q.Waiting),
			ServedCount:    q.ServedCount,
			ElapsedSeconds: elapsed,
			ElapsedDisplay: services.FormatClock(elapsed),
		})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"statistics": services.ComputeStatistics(snap),
		"activities": panels,
		"chart":      services.ChartRows(activities, snap),
	})
}

// CallNext - Serve the next waiting ticket
func (h *AdminHandler) CallNext(e *core.RequestEvent) error {
	activity, err := h.queueService.Registry().Get(e.Request.PathValue("activityId"))
	if err != nil {
		return queueError(err)
	}

	result, err := h.queueService.CallNext(activity.ID)
	if errors.Is(err, status.ErrEmptyQueue) {
		return h.emptyQueue(e, "call_next", activity)
	}
	if err != nil {
		return queueError(err)
	}

	ticket := activity.FormatTicket(result.ServedNumber)
	return e.JSON(http.StatusOK, map[string]any{
		"activity_id":              activity.ID,
		"serving_number":           result.ServedNumber,
		"serving_ticket":           ticket,
		"previous_service_seconds": result.PreviousServiceSeconds,
		"previous_recorded":        result.PreviousRecorded,
		"message":                  fmt.Sprintf("Now Serving: %s", ticket),
	})
}

// Skip - Drop the next waiting ticket without serving it
func (h *AdminHandler) Skip(e *core.RequestEvent) error {
	activity, err := h.queueService.Registry().Get(e.Request.PathValue("activityId"))
	if err != nil {
		return queueError(err)
	}

	skipped, err := h.queueService.Skip(activity.ID)
	if errors.Is(err, status.ErrEmptyQueue) {
		return h.emptyQueue(e, "skip", activity)
	}
	if err != nil {
		return queueError(err)
	}

	ticket := activity.FormatTicket(skipped)
	return e.JSON(http.StatusOK, map[string]any{
		"activity_id":    activity.ID,
		"skipped_number": skipped,
		"skipped_ticket": ticket,
		"message":        fmt.Sprintf("%s has been removed", ticket),
	})
}

// Reset - Clear an activity's queue and statistics
func (h *AdminHandler) Reset(e *core.RequestEvent) error {
	activity, err := h.queueService.Registry().Get(e.Request.PathValue("activityId"))
	if err != nil {
		return queueError(err)
	}

	if err := h.queueService.Reset(activity.ID); err != nil {
		return queueError(err)
	}

	slog.Info("queue reset", "activity", activity.ID, "ip", e.RemoteIP())
	return e.JSON(http.StatusOK, map[string]any{
		"activity_id": activity.ID,
		"message":     fmt.Sprintf("%s queue has been cleared", activity.Label),
	})
}

// emptyQueue is a notice rather than a failure: nothing changed.
func (h *AdminHandler) emptyQueue(e *core.RequestEvent, operation string, activity models.Activity) error {
	if h.tracker != nil {
		h.tracker.TrackQueueOperation(operation, activity.ID, "empty")
	}
	return e.JSON(http.StatusConflict, map[string]any{
		"activity_id": activity.ID,
		"error":       "No customers in queue",
	})
}
