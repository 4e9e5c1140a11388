package monitoring

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"queue-system/internal/services"
	"queue-system/models"
)

var (
	waitingTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_waiting_tickets",
			Help: "Tickets currently waiting per activity",
		},
		[]string{"activity"},
	)

	servingNumber = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_serving_number",
			Help: "Ticket number currently in service per activity, 0 when idle",
		},
		[]string{"activity"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations",
		},
		[]string{"operation", "activity", "status"},
	)

	serviceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_service_duration_seconds",
			Help:    "Recorded service time of completed tickets",
			Buckets: prometheus.ExponentialBuckets(15, 2, 8),
		},
		[]string{"activity"},
	)

	sessionElapsed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_session_elapsed_seconds",
			Help: "Live service time of the ticket currently in service",
		},
		[]string{"activity"},
	)
)

// Monitor turns queue events and timer ticks into Prometheus metrics and
// periodically logs a health summary.
type Monitor struct {
	source services.SnapshotSource
}

func NewMonitor(source services.SnapshotSource) *Monitor {
	return &Monitor{source: source}
}

func (m *Monitor) QueueChanged(ev models.QueueEvent) {
	operation := ev.Type
	queueOperations.WithLabelValues(operation, ev.ActivityID, "success").Inc()

	waitingTickets.WithLabelValues(ev.ActivityID).Set(float64(len(ev.Queue.Waiting)))
	servingNumber.WithLabelValues(ev.ActivityID).Set(float64(ev.Queue.ServingNumber))

	if ev.Type == models.QueueEventCalled && ev.ServiceRecorded {
		serviceDuration.WithLabelValues(ev.ActivityID).Observe(float64(ev.ServiceSeconds))
	}
}

func (m *Monitor) ElapsedTick(elapsed map[string]int) {
	for id, seconds := range elapsed {
		sessionElapsed.WithLabelValues(id).Set(float64(seconds))
	}
}

// TrackQueueOperation records operations that did not reach the store or
// were rejected by it, e.g. an empty queue.
func (m *Monitor) TrackQueueOperation(operation, activityID, status string) {
	queueOperations.WithLabelValues(operation, activityID, status).Inc()
}

func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.logHealthStats()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) logHealthStats() {
	stats := services.ComputeStatistics(m.source.Snapshot())

	memStats := &runtime.MemStats{}
	runtime.ReadMemStats(memStats)

	slog.Info("queue health",
		"served", stats.TotalServed,
		"waiting", stats.TotalWaiting,
		"active_queues", stats.ActiveQueues,
		"avg_service_seconds", stats.AverageWaitSeconds,
		"goroutines", runtime.NumGoroutine(),
		"memory_mb", float64(memStats.Alloc)/1024/1024,
	)
}
