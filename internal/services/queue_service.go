package services

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"queue-system/internal/status"
	"queue-system/models"
)

// QueueListener is told about every successful mutation. Implementations
// must return quickly and must not call back into QueueService mutations.
type QueueListener interface {
	QueueChanged(ev models.QueueEvent)
}

type activityQueue struct {
	mu    sync.RWMutex
	state models.ActivityQueue
}

// QueueService owns the queue state of every registered activity.
// Mutations of one activity are serialized by that activity's lock;
// different activities never contend.
type QueueService struct {
	registry *ActivityRegistry
	timer    *SessionTimer
	clock    Clock

	// Built once from the registry and never modified afterwards.
	queues map[string]*activityQueue

	listenersMu sync.RWMutex
	listeners   []QueueListener
}

func NewQueueService(registry *ActivityRegistry, clock Clock) *QueueService {
	if clock == nil {
		clock = SystemClock{}
	}

	queues := make(map[string]*activityQueue, len(registry.IDs()))
	for _, id := range registry.IDs() {
		queues[id] = &activityQueue{state: models.ActivityQueue{Waiting: []int{}}}
	}

	return &QueueService{
		registry: registry,
		timer:    NewSessionTimer(clock),
		clock:    clock,
		queues:   queues,
	}
}

func (s *QueueService) Registry() *ActivityRegistry { return s.registry }

func (s *QueueService) Timer() *SessionTimer { return s.timer }

func (s *QueueService) AddListener(l QueueListener) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenersMu.Unlock()
}

func (s *QueueService) notify(ev models.QueueEvent) {
	s.listenersMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l.QueueChanged(ev)
	}
}

func (s *QueueService) queue(activityID string) (*activityQueue, error) {
	q, ok := s.queues[activityID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", status.ErrUnknownActivity, activityID)
	}
	return q, nil
}

// IssueTicket hands out the next ticket number for the activity and appends
// it to the waiting list.
func (s *QueueService) IssueTicket(activityID string) (models.TicketHandle, error) {
	q, err := s.queue(activityID)
	if err != nil {
		return models.TicketHandle{}, err
	}

	q.mu.Lock()
	q.state.LastIssuedNumber++
	number := q.state.LastIssuedNumber
	q.state.Waiting = append(q.state.Waiting, number)
	after := q.state.Clone()
	q.mu.Unlock()

	s.notify(models.QueueEvent{
		Type:       models.QueueEventTicketIssued,
		ActivityID: activityID,
		Number:     number,
		Queue:      after,
		At:         s.clock.Now(),
	})

	return models.TicketHandle{ActivityID: activityID, Number: number}, nil
}

// CallNext moves the head of the waiting list into service. When a ticket
// was already in service with a running session, its service time is
// recorded before it is replaced.
func (s *QueueService) CallNext(activityID string) (models.CallResult, error) {
	q, err := s.queue(activityID)
	if err != nil {
		return models.CallResult{}, err
	}

	q.mu.Lock()
	if len(q.state.Waiting) == 0 {
		q.mu.Unlock()
		return models.CallResult{}, fmt.Errorf("%w: %q", status.ErrEmptyQueue, activityID)
	}

	now := s.clock.Now()
	var result models.CallResult

	if q.state.ServingNumber > 0 {
		if startedAt, ok := s.timer.StartedAt(activityID); ok {
			duration := wholeSeconds(now.Sub(startedAt))
			q.state.ServedCount++
			q.state.TotalServiceSeconds += duration
			result.PreviousServiceSeconds = duration
			result.PreviousRecorded = true
		}
	}

	next := q.state.Waiting[0]
	q.state.Waiting = slices.Delete(q.state.Waiting, 0, 1)
	q.state.ServingNumber = next
	s.timer.Start(activityID, now)
	result.ServedNumber = next

	after := q.state.Clone()
	q.mu.Unlock()

	s.notify(models.QueueEvent{
		Type:            models.QueueEventCalled,
		ActivityID:      activityID,
		Number:          next,
		Queue:           after,
		ServiceSeconds:  result.PreviousServiceSeconds,
		ServiceRecorded: result.PreviousRecorded,
		At:              now,
	})

	return result, nil
}

// Skip drops the head of the waiting list without serving it. The ticket
// in service, if any, keeps its number but its session timer is cleared.
func (s *QueueService) Skip(activityID string) (int, error) {
	q, err := s.queue(activityID)
	if err != nil {
		return 0, err
	}

	q.mu.Lock()
	if len(q.state.Waiting) == 0 {
		q.mu.Unlock()
		return 0, fmt.Errorf("%w: %q", status.ErrEmptyQueue, activityID)
	}

	skipped := q.state.Waiting[0]
	q.state.Waiting = slices.Delete(q.state.Waiting, 0, 1)
	s.timer.Stop(activityID)
	after := q.state.Clone()
	q.mu.Unlock()

	s.notify(models.QueueEvent{
		Type:       models.QueueEventSkipped,
		ActivityID: activityID,
		Number:     skipped,
		Queue:      after,
		At:         s.clock.Now(),
	})

	return skipped, nil
}

func (s *QueueService) Reset(activityID string) error {
	q, err := s.queue(activityID)
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.state = models.ActivityQueue{Waiting: []int{}}
	s.timer.Stop(activityID)
	after := q.state.Clone()
	q.mu.Unlock()

	s.notify(models.QueueEvent{
		Type:       models.QueueEventReset,
		ActivityID: activityID,
		Queue:      after,
		At:         s.clock.Now(),
	})

	return nil
}

// PeopleAhead returns how many tickets wait in front of the handle's ticket.
// status.ErrTicketNotFound means the ticket was served, skipped or reset away.
func (s *QueueService) PeopleAhead(handle models.TicketHandle) (int, error) {
	q, err := s.queue(handle.ActivityID)
	if err != nil {
		return 0, err
	}

	q.mu.RLock()
	idx := slices.Index(q.state.Waiting, handle.Number)
	q.mu.RUnlock()

	if idx < 0 {
		return 0, fmt.Errorf("%w: %s #%d", status.ErrTicketNotFound, handle.ActivityID, handle.Number)
	}
	return idx, nil
}

// TicketPosition reports where a ticket stands. A ticket that is neither
// waiting nor serving was served, skipped or reset away.
func (s *QueueService) TicketPosition(handle models.TicketHandle) (models.TicketPosition, error) {
	q, err := s.queue(handle.ActivityID)
	if err != nil {
		return models.TicketPosition{}, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	idx := slices.Index(q.state.Waiting, handle.Number)
	return models.TicketPosition{
		PeopleAhead: max(idx, 0),
		Waiting:     idx >= 0,
		Serving:     handle.Number > 0 && q.state.ServingNumber == handle.Number,
	}, nil
}

func (s *QueueService) Queue(activityID string) (models.ActivityQueue, error) {
	q, err := s.queue(activityID)
	if err != nil {
		return models.ActivityQueue{}, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state.Clone(), nil
}

// Elapsed is the live service time of the activity's current ticket.
func (s *QueueService) Elapsed(activityID string) (int, error) {
	if _, err := s.queue(activityID); err != nil {
		return 0, err
	}
	return s.timer.Elapsed(activityID), nil
}

// Snapshot copies every activity's state. Each record is read under its own
// lock, so no record is ever half-applied.
func (s *QueueService) Snapshot() models.Snapshot {
	snap := make(models.Snapshot, len(s.queues))
	for id, q := range s.queues {
		q.mu.RLock()
		snap[id] = q.state.Clone()
		q.mu.RUnlock()
	}
	return snap
}

// Restore replaces queue state from a stored snapshot. Unknown activities are
// ignored and every record is normalized first. Sessions are not part of a
// snapshot, so all timers start out stopped.
func (s *QueueService) Restore(snap models.Snapshot) int {
	var events []models.QueueEvent
	now := s.clock.Now()

	for id, record := range snap {
		q, ok := s.queues[id]
		if !ok {
			slog.Warn("ignoring snapshot record for unknown activity", "activity_id", id)
			continue
		}

		normalized, changed := NormalizeQueue(record)
		if changed {
			slog.Warn("snapshot record normalized", "activity_id", id)
		}

		q.mu.Lock()
		q.state = normalized
		s.timer.Stop(id)
		after := q.state.Clone()
		q.mu.Unlock()

		events = append(events, models.QueueEvent{
			Type:       models.QueueEventRestored,
			ActivityID: id,
			Queue:      after,
			At:         now,
		})
	}

	for _, ev := range events {
		s.notify(ev)
	}
	return len(events)
}

// NormalizeQueue repairs a record so the queue invariants hold: counters are
// non-negative, the waiting list only holds unique issued numbers in
// (0, LastIssuedNumber] and never contains the serving number.
func NormalizeQueue(q models.ActivityQueue) (models.ActivityQueue, bool) {
	changed := false
	out := models.ActivityQueue{
		LastIssuedNumber:    q.LastIssuedNumber,
		ServingNumber:       q.ServingNumber,
		ServedCount:         q.ServedCount,
		TotalServiceSeconds: q.TotalServiceSeconds,
		Waiting:             make([]int, 0, len(q.Waiting)),
	}

	for _, field := range []*int{&out.LastIssuedNumber, &out.ServingNumber, &out.ServedCount, &out.TotalServiceSeconds} {
		if *field < 0 {
			*field = 0
			changed = true
		}
	}
	if out.ServingNumber > out.LastIssuedNumber {
		out.ServingNumber = 0
		changed = true
	}

	seen := make(map[int]struct{}, len(q.Waiting))
	for _, n := range q.Waiting {
		if _, dup := seen[n]; dup || n <= 0 || n > out.LastIssuedNumber || n == out.ServingNumber {
			changed = true
			continue
		}
		seen[n] = struct{}{}
		out.Waiting = append(out.Waiting, n)
	}

	return out, changed
}
