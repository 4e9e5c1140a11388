package services

import (
	"fmt"
	"time"

	"queue-system/models"
	"queue-system/utils"
)

const (
	// Status message tier boundaries: 0 ahead is "next", up to and
	// including fewAheadMax is "a few".
	nextInLine  = 0
	fewAheadMax = 3

	minMinutesPerPerson = 2
	maxMinutesPerPerson = 5

	etaClockLayout = "03:04 PM"
)

const (
	MessageNext  = "You're next! Please get ready."
	MessageFew   = "Just a few people ahead of you."
	MessageBusy  = "It's a busy time, please hold on."
	ETATextReady = "Almost your turn!"
)

// WaitEstimator turns a position in line into a display message and ETA.
// The per-person minutes come from a random range, so the result is for
// display only.
type WaitEstimator struct {
	clock    Clock
	rand     utils.IntRange
	location *time.Location
}

func NewWaitEstimator(clock Clock, rand utils.IntRange, location *time.Location) *WaitEstimator {
	if clock == nil {
		clock = SystemClock{}
	}
	if rand == nil {
		rand = utils.MathRandRange{}
	}
	if location == nil {
		location = time.Local
	}
	return &WaitEstimator{clock: clock, rand: rand, location: location}
}

func StatusMessage(peopleAhead int) string {
	switch {
	case peopleAhead <= nextInLine:
		return MessageNext
	case peopleAhead <= fewAheadMax:
		return MessageFew
	default:
		return MessageBusy
	}
}

func (e *WaitEstimator) Estimate(peopleAhead int) models.WaitEstimate {
	if peopleAhead < 0 {
		peopleAhead = 0
	}

	est := models.WaitEstimate{
		PeopleAhead: peopleAhead,
		Message:     StatusMessage(peopleAhead),
	}
	if peopleAhead == nextInLine {
		est.ETAText = ETATextReady
		return est
	}

	perPerson := e.rand.IntRange(minMinutesPerPerson, maxMinutesPerPerson)
	est.Minutes = perPerson * peopleAhead
	est.ETA = e.clock.Now().Add(time.Duration(est.Minutes) * time.Minute).In(e.location)
	est.ETAText = fmt.Sprintf("%s (%d mins from now)", est.ETA.Format(etaClockLayout), est.Minutes)

	return est
}
