package services

import (
	"context"
	"log/slog"
	"time"
)

type ElapsedSink interface {
	ElapsedTick(elapsed map[string]int)
}

// DisplayTicker reads every activity's session timer at a fixed cadence and
// hands the values to its sinks. A missed tick only delays the display.
type DisplayTicker struct {
	service  *QueueService
	interval time.Duration
	sinks    []ElapsedSink
}

func NewDisplayTicker(service *QueueService, interval time.Duration, sinks ...ElapsedSink) *DisplayTicker {
	if interval <= 0 {
		interval = time.Second
	}
	return &DisplayTicker{service: service, interval: interval, sinks: sinks}
}

func (t *DisplayTicker) Tick() map[string]int {
	ids := t.service.Registry().IDs()
	elapsed := make(map[string]int, len(ids))
	for _, id := range ids {
		elapsed[id] = t.service.Timer().Elapsed(id)
	}
	for _, sink := range t.sinks {
		sink.ElapsedTick(elapsed)
	}
	return elapsed
}

func (t *DisplayTicker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	slog.Info("display ticker started", "interval", t.interval)

	for {
		select {
		case <-ticker.C:
			t.Tick()
		case <-ctx.Done():
			slog.Info("display ticker stopped")
			return
		}
	}
}
