package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	pubnub "github.com/pubnub/go/v7"
	"golang.org/x/time/rate"

	"queue-system/models"
)

const AdminChannel = "queue-admin"

func ActivityChannel(activityID string) string {
	return fmt.Sprintf("queue-%s", activityID)
}

type Publisher interface {
	Publish(channel string, message map[string]any) error
}

type PubNubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{pn: pn}
}

func (p *PubNubPublisher) Publish(channel string, message map[string]any) error {
	_, _, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}

type outbound struct {
	channel string
	message map[string]any
}

// DisplayNotifier pushes queue changes and live service timers to display
// screens. Producers never block: when the buffer is full the update is
// dropped and the next one supersedes it.
type DisplayNotifier struct {
	publisher Publisher
	registry  *ActivityRegistry
	limiter   *rate.Limiter

	outbox  chan outbound
	dropped atomic.Int64
}

func NewDisplayNotifier(publisher Publisher, registry *ActivityRegistry, perSecond float64, buffer int) *DisplayNotifier {
	limit := rate.Inf
	burst := 0
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	if buffer <= 0 {
		buffer = 256
	}

	return &DisplayNotifier{
		publisher: publisher,
		registry:  registry,
		limiter:   rate.NewLimiter(limit, burst),
		outbox:    make(chan outbound, buffer),
	}
}

func (n *DisplayNotifier) Dropped() int64 { return n.dropped.Load() }

// enqueue stamps each message with an id so displays can drop redeliveries.
func (n *DisplayNotifier) enqueue(channel string, message map[string]any) {
	message["id"] = uuid.NewString()
	select {
	case n.outbox <- outbound{channel: channel, message: message}:
	default:
		n.dropped.Add(1)
	}
}

func (n *DisplayNotifier) QueueChanged(ev models.QueueEvent) {
	activity, err := n.registry.Get(ev.ActivityID)
	if err != nil {
		return
	}

	msg := map[string]any{
		"type":        ev.Type,
		"activity_id": ev.ActivityID,
		"serving":     ev.Queue.ServingNumber,
		"waiting":     len(ev.Queue.Waiting),
		"served":      ev.Queue.ServedCount,
		"at":          ev.At.Unix(),
	}
	if ev.Queue.ServingNumber > 0 {
		msg["serving_ticket"] = activity.FormatTicket(ev.Queue.ServingNumber)
	}

	switch ev.Type {
	case models.QueueEventTicketIssued:
		msg["ticket"] = activity.FormatTicket(ev.Number)
		msg["title"] = "Ticket Issued"
		msg["message"] = fmt.Sprintf("Your number is %s", activity.FormatTicket(ev.Number))
	case models.QueueEventCalled:
		msg["ticket"] = activity.FormatTicket(ev.Number)
		msg["title"] = "Now Serving"
		msg["message"] = fmt.Sprintf("%s: %s", activity.Label, activity.FormatTicket(ev.Number))
	case models.QueueEventSkipped:
		msg["ticket"] = activity.FormatTicket(ev.Number)
		msg["title"] = "Customer Skipped"
		msg["message"] = fmt.Sprintf("%s has been removed", activity.FormatTicket(ev.Number))
	case models.QueueEventReset:
		msg["title"] = "Queue Reset"
		msg["message"] = fmt.Sprintf("%s queue has been cleared", activity.Label)
	}

	n.enqueue(ActivityChannel(ev.ActivityID), msg)
}

// ElapsedTick publishes the live service timers of all activities.
func (n *DisplayNotifier) ElapsedTick(elapsed map[string]int) {
	timers := make(map[string]any, len(elapsed))
	for id, seconds := range elapsed {
		timers[id] = map[string]any{
			"seconds": seconds,
			"display": FormatClock(seconds),
		}
	}
	n.enqueue(AdminChannel, map[string]any{
		"type":   "elapsed",
		"timers": timers,
	})
}

func (n *DisplayNotifier) Run(ctx context.Context) {
	slog.Info("display notifier started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("display notifier stopped", "dropped", n.dropped.Load())
			return
		case out := <-n.outbox:
			if err := n.limiter.Wait(ctx); err != nil {
				continue
			}
			if err := n.publisher.Publish(out.channel, out.message); err != nil {
				slog.Warn("publish display update failed", "channel", out.channel, "error", err)
			}
		}
	}
}
