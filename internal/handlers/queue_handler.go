package handlers

import (
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"queue-system/internal/services"
	"queue-system/models"
)

type QueueHandler struct {
	queueService *services.QueueService
	estimator    *services.WaitEstimator
}

func NewQueueHandler(queueService *services.QueueService, estimator *services.WaitEstimator) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
		estimator:    estimator,
	}
}

type activitySummary struct {
	models.Activity
	ServingTicket string `json:"serving_ticket"`
	WaitingCount  int    `json:"waiting_count"`
}

// ListActivities - Activities a customer can take a ticket for
func (h *QueueHandler) ListActivities(e *core.RequestEvent) error {
	snap := h.queueService.Snapshot()
	activities := h.queueService.Registry().All()

	out := make([]activitySummary, 0, len(activities))
	for _, a := range activities {
		q := snap[a.ID]
		out = append(out, activitySummary{
			Activity:      a,
			ServingTicket: servingTicket(a, q),
			WaitingCount:  len(q.Waiting),
		})
	}

	return e.JSON(http.StatusOK, map[string]any{"activities": out})
}

// GetQueue - Public view of one activity's queue
func (h *QueueHandler) GetQueue(e *core.RequestEvent) error {
	activity, err := h.queueService.Registry().Get(e.Request.PathValue("activityId"))
	if err != nil {
		return queueError(err)
	}

	q, err := h.queueService.Queue(activity.ID)
	if err != nil {
		return queueError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"activity":       activity,
		"serving_number": q.ServingNumber,
		"serving_ticket": servingTicket(activity, q),
		"waiting":        formatTickets(activity, q.Waiting),
		"waiting_count":  len(q.Waiting),
	})
}

// IssueTicket - Take the next ticket for an activity
func (h *QueueHandler) IssueTicket(e *core.RequestEvent) error {
	activity, err := h.queueService.Registry().Get(e.Request.PathValue("activityId"))
	if err != nil {
		return queueError(err)
	}

	handle, err := h.queueService.IssueTicket(activity.ID)
	if err != nil {
		return queueError(err)
	}

	ahead, err := h.queueService.PeopleAhead(handle)
	if err != nil {
		// Served before we could look; report it as next in line.
		ahead = 0
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"activity_id":   handle.ActivityID,
		"ticket_number": handle.Number,
		"ticket":        activity.FormatTicket(handle.Number),
		"estimate":      h.estimator.Estimate(ahead),
	})
}

// GetTicketStatus - Position, message and ETA of an issued ticket
func (h *QueueHandler) GetTicketStatus(e *core.RequestEvent) error {
	activity, err := h.queueService.Registry().Get(e.Request.PathValue("activityId"))
	if err != nil {
		return queueError(err)
	}

	number, err := strconv.Atoi(e.Request.PathValue("number"))
	if err != nil || number <= 0 {
		return apis.NewBadRequestError("Invalid ticket number", err)
	}

	pos, err := h.queueService.TicketPosition(models.TicketHandle{ActivityID: activity.ID, Number: number})
	if err != nil {
		return queueError(err)
	}

	response := map[string]any{
		"activity_id":   activity.ID,
		"ticket_number": number,
		"ticket":        activity.FormatTicket(number),
	}

	// Served, skipped and reset tickets all read as resolved; a handle
	// carries no reset epoch, so an unknown number is not an error.
	if !pos.Waiting {
		response["status"] = "resolved"
		response["serving"] = pos.Serving
		return e.JSON(http.StatusOK, response)
	}

	response["status"] = "waiting"
	response["estimate"] = h.estimator.Estimate(pos.PeopleAhead)
	return e.JSON(http.StatusOK, response)
}

func servingTicket(a models.Activity, q models.ActivityQueue) string {
	if q.ServingNumber <= 0 {
		return ""
	}
	return a.FormatTicket(q.ServingNumber)
}

func formatTickets(a models.Activity, numbers []int) []string {
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, a.FormatTicket(n))
	}
	return out
}
