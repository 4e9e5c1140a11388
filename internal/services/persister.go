package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"

	"queue-system/models"
	"queue-system/utils"
)

type SnapshotSource interface {
	Snapshot() models.Snapshot
}

type PersisterOptions struct {
	MaxTries   uint
	MaxElapsed time.Duration
	// ResyncInterval is how often a snapshot that failed every retry is
	// attempted again.
	ResyncInterval time.Duration
	Breaker        *utils.CircuitBreaker
}

// SnapshotPersister writes the full queue state to a single Redis key after
// mutations. Writes happen on its own goroutine; a burst of mutations
// collapses into one write of the latest state.
type SnapshotPersister struct {
	redis   *redis.Client
	key     string
	codec   SnapshotCodec
	source  SnapshotSource
	breaker *utils.CircuitBreaker

	maxTries       uint
	maxElapsed     time.Duration
	resyncInterval time.Duration
	newBackOff     func() backoff.BackOff

	dirty   chan struct{}
	pending atomic.Bool
	saves   atomic.Int64
}

func NewSnapshotPersister(redisClient *redis.Client, key string, source SnapshotSource, opts PersisterOptions) *SnapshotPersister {
	if opts.MaxTries == 0 {
		opts.MaxTries = 5
	}
	if opts.MaxElapsed <= 0 {
		opts.MaxElapsed = 30 * time.Second
	}
	if opts.ResyncInterval <= 0 {
		opts.ResyncInterval = time.Minute
	}
	if opts.Breaker == nil {
		opts.Breaker = utils.NewCircuitBreaker("snapshot-store", utils.DefaultBreakerSettings())
	}

	return &SnapshotPersister{
		redis:          redisClient,
		key:            key,
		source:         source,
		breaker:        opts.Breaker,
		maxTries:       opts.MaxTries,
		maxElapsed:     opts.MaxElapsed,
		resyncInterval: opts.ResyncInterval,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
		dirty: make(chan struct{}, 1),
	}
}

func (p *SnapshotPersister) QueueChanged(models.QueueEvent) {
	p.MarkDirty()
}

// MarkDirty schedules a write without blocking.
func (p *SnapshotPersister) MarkDirty() {
	select {
	case p.dirty <- struct{}{}:
	default:
	}
}

func (p *SnapshotPersister) Saves() int64 { return p.saves.Load() }

func (p *SnapshotPersister) Pending() bool { return p.pending.Load() }

// Run writes snapshots until ctx is cancelled, then makes one final attempt
// to flush the latest state.
func (p *SnapshotPersister) Run(ctx context.Context) {
	ticker := time.NewTicker(p.resyncInterval)
	defer ticker.Stop()

	slog.Info("snapshot persister started", "key", p.key)

	for {
		select {
		case <-p.dirty:
			p.persist(ctx)
		case <-ticker.C:
			if p.pending.Load() {
				p.persist(ctx)
			}
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := p.Save(flushCtx); err != nil {
				slog.Error("final snapshot flush failed", "key", p.key, "error", err)
			}
			cancel()
			slog.Info("snapshot persister stopped", "key", p.key)
			return
		}
	}
}

func (p *SnapshotPersister) persist(ctx context.Context) {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, p.Save(ctx)
	},
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(p.maxTries),
		backoff.WithMaxElapsedTime(p.maxElapsed),
	)
	if err != nil {
		p.pending.Store(true)
		slog.Error("snapshot write failed, will retry", "key", p.key, "error", err)
		return
	}
	p.pending.Store(false)
}

// Save writes the current state once.
func (p *SnapshotPersister) Save(ctx context.Context) error {
	data, err := p.codec.Encode(p.source.Snapshot())
	if err != nil {
		return backoff.Permanent(err)
	}

	err = p.breaker.Execute(func() error {
		return p.redis.Set(ctx, p.key, data, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", p.key, err)
	}

	p.saves.Add(1)
	return nil
}

// Load reads the stored snapshot. found is false when nothing was stored yet.
func (p *SnapshotPersister) Load(ctx context.Context) (snap models.Snapshot, found bool, err error) {
	data, err := p.redis.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot %s: %w", p.key, err)
	}

	snap, err = p.codec.Decode(data)
	if err != nil {
		return nil, true, err
	}
	return snap, true, nil
}
