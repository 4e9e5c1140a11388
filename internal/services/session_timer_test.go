package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionTimer_Elapsed(t *testing.T) {
	clock := newFakeClock()
	timer := NewSessionTimer(clock)

	assert.Equal(t, 0, timer.Elapsed("pay-fees"))

	timer.Start("pay-fees", clock.Now())
	clock.Advance(61*time.Second + 500*time.Millisecond)
	assert.Equal(t, 61, timer.Elapsed("pay-fees"))

	timer.Stop("pay-fees")
	assert.Equal(t, 0, timer.Elapsed("pay-fees"))
	_, ok := timer.StartedAt("pay-fees")
	assert.False(t, ok)
}

func TestSessionTimer_ClockBehindStart(t *testing.T) {
	clock := newFakeClock()
	timer := NewSessionTimer(clock)

	timer.Start("pay-fees", clock.Now().Add(time.Minute))
	assert.Equal(t, 0, timer.Elapsed("pay-fees"))
}

type recordingSink struct {
	mu    sync.Mutex
	ticks []map[string]int
}

func (s *recordingSink) ElapsedTick(elapsed map[string]int) {
	s.mu.Lock()
	s.ticks = append(s.ticks, elapsed)
	s.mu.Unlock()
}

func TestDisplayTicker_TickReadsEveryActivity(t *testing.T) {
	service, clock := setupTestQueueService(t)
	issueN(t, service, "pay-fees", 1)
	service.CallNext("pay-fees")
	clock.Advance(42 * time.Second)

	sink := &recordingSink{}
	ticker := NewDisplayTicker(service, time.Second, sink)

	elapsed := ticker.Tick()
	assert.Equal(t, map[string]int{
		"pay-fees":            42,
		"request-transcript":  0,
		"general-inquiry":     0,
		"course-registration": 0,
	}, elapsed)
	assert.Len(t, sink.ticks, 1)

	// Reading the timer never changes queue state.
	q, _ := service.Queue("pay-fees")
	assert.Equal(t, 0, q.ServedCount)
	assert.Equal(t, 0, q.TotalServiceSeconds)
}
