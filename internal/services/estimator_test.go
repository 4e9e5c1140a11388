package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"queue-system/utils"
)

type recordingRange struct {
	value  int
	lo, hi int
	calls  int
}

func (r *recordingRange) IntRange(lo, hi int) int {
	r.calls++
	r.lo, r.hi = lo, hi
	return r.value
}

func TestStatusMessage_TierBoundaries(t *testing.T) {
	tests := []struct {
		ahead int
		want  string
	}{
		{0, MessageNext},
		{1, MessageFew},
		{3, MessageFew},
		{4, MessageBusy},
		{40, MessageBusy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusMessage(tt.ahead), "ahead=%d", tt.ahead)
	}
}

func TestWaitEstimator_NextInLineSkipsRandomDraw(t *testing.T) {
	rng := &recordingRange{value: 4}
	est := NewWaitEstimator(newFakeClock(), rng, time.UTC).Estimate(0)

	assert.Equal(t, MessageNext, est.Message)
	assert.Equal(t, ETATextReady, est.ETAText)
	assert.Equal(t, 0, est.Minutes)
	assert.True(t, est.ETA.IsZero())
	assert.Equal(t, 0, rng.calls)
}

func TestWaitEstimator_ProjectsFromClock(t *testing.T) {
	clock := newFakeClock() // 09:00 UTC
	rng := &recordingRange{value: 3}

	est := NewWaitEstimator(clock, rng, time.UTC).Estimate(4)

	assert.Equal(t, 2, rng.lo)
	assert.Equal(t, 5, rng.hi)
	assert.Equal(t, 12, est.Minutes)
	assert.Equal(t, clock.Now().Add(12*time.Minute), est.ETA)
	assert.Equal(t, "09:12 AM (12 mins from now)", est.ETAText)
	assert.Equal(t, MessageBusy, est.Message)
}

func TestWaitEstimator_BoundsOfRange(t *testing.T) {
	clock := newFakeClock()

	low := NewWaitEstimator(clock, utils.FixedRange{Value: 0}, time.UTC).Estimate(2)
	high := NewWaitEstimator(clock, utils.FixedRange{Value: 99}, time.UTC).Estimate(2)

	assert.Equal(t, 4, low.Minutes)
	assert.Equal(t, 10, high.Minutes)
	assert.Equal(t, MessageFew, low.Message)
}

func TestWaitEstimator_RandomStaysWithinRange(t *testing.T) {
	est := NewWaitEstimator(newFakeClock(), nil, time.UTC)
	for i := 0; i < 100; i++ {
		got := est.Estimate(3)
		assert.GreaterOrEqual(t, got.Minutes, 6)
		assert.LessOrEqual(t, got.Minutes, 15)
	}
}

func TestWaitEstimator_NegativeTreatedAsNext(t *testing.T) {
	est := NewWaitEstimator(newFakeClock(), utils.FixedRange{Value: 3}, time.UTC).Estimate(-2)
	assert.Equal(t, 0, est.PeopleAhead)
	assert.Equal(t, MessageNext, est.Message)
}
