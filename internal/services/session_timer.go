package services

import (
	"sync"
	"time"
)

// SessionTimer tracks when the ticket currently in service for each activity
// started being served. QueueService drives Start and Stop while holding the
// activity's lock; Elapsed may be read from anywhere.
type SessionTimer struct {
	clock Clock

	mu      sync.RWMutex
	started map[string]time.Time
}

func NewSessionTimer(clock Clock) *SessionTimer {
	return &SessionTimer{
		clock:   clock,
		started: make(map[string]time.Time),
	}
}

func (t *SessionTimer) Start(activityID string, at time.Time) {
	t.mu.Lock()
	t.started[activityID] = at
	t.mu.Unlock()
}

func (t *SessionTimer) Stop(activityID string) {
	t.mu.Lock()
	delete(t.started, activityID)
	t.mu.Unlock()
}

func (t *SessionTimer) StartedAt(activityID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	at, ok := t.started[activityID]
	return at, ok
}

// Elapsed returns whole seconds since the session started, or 0 when no
// session is active.
func (t *SessionTimer) Elapsed(activityID string) int {
	at, ok := t.StartedAt(activityID)
	if !ok {
		return 0
	}
	return wholeSeconds(t.clock.Now().Sub(at))
}

func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
