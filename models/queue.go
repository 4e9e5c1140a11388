package models

import (
	"slices"
	"time"
)

// ActivityQueue is the mutable queue state of one activity. The JSON names
// match the stored snapshot document.
type ActivityQueue struct {
	LastIssuedNumber    int   `json:"currentNumber"`
	ServingNumber       int   `json:"servingNumber"`
	Waiting             []int `json:"tickets"`
	ServedCount         int   `json:"servedCount"`
	TotalServiceSeconds int   `json:"totalServiceTime"`
}

func (q ActivityQueue) Clone() ActivityQueue {
	out := q
	out.Waiting = slices.Clone(q.Waiting)
	if out.Waiting == nil {
		out.Waiting = []int{}
	}
	return out
}

// Snapshot maps activity id to its queue state.
type Snapshot map[string]ActivityQueue

type TicketHandle struct {
	ActivityID string `json:"activity_id"`
	Number     int    `json:"ticket_number"`
}

// TicketPosition is a consistent view of one ticket: Waiting and Serving are
// read under the same lock.
type TicketPosition struct {
	PeopleAhead int
	Waiting     bool
	Serving     bool
}

type CallResult struct {
	ServedNumber int `json:"served_number"`
	// PreviousServiceSeconds is only meaningful when PreviousRecorded is true.
	PreviousServiceSeconds int  `json:"previous_service_seconds"`
	PreviousRecorded       bool `json:"previous_recorded"`
}

const (
	QueueEventTicketIssued = "ticket_issued"
	QueueEventCalled       = "called"
	QueueEventSkipped      = "skipped"
	QueueEventReset        = "reset"
	QueueEventRestored     = "restored"
)

type QueueEvent struct {
	Type       string        `json:"type"`
	ActivityID string        `json:"activity_id"`
	Number     int           `json:"number"`
	Queue      ActivityQueue `json:"queue"`
	// ServiceSeconds is set on a "called" event that closed out a previous ticket.
	ServiceSeconds  int       `json:"service_seconds,omitempty"`
	ServiceRecorded bool      `json:"service_recorded,omitempty"`
	At              time.Time `json:"at"`
}
