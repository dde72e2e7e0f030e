package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	dErrors "folio/pkg/domain-errors"
	"folio/pkg/domain"
	"folio/pkg/platform/circuit"
	"folio/pkg/platform/sentinel"
)

// DefaultProbeInterval spaces the calls let through while the breaker is open.
const DefaultProbeInterval = 2 * time.Second

// Guarded wraps a remote Substrate with a circuit breaker. While the
// breaker is open calls fail with sentinel.ErrUnavailable, except for one
// probe per interval whose outcome counts toward closing it.
//
// Slot outcomes (occupied, missing, guard refusals) are healthy answers
// and never trip the breaker.
type Guarded struct {
	inner      Substrate
	breaker    *circuit.Breaker
	probeEvery time.Duration
	clock      func() time.Time
	logger     *slog.Logger

	mu        sync.Mutex
	nextProbe time.Time
}

type GuardOption func(*Guarded)

func WithProbeInterval(d time.Duration) GuardOption {
	return func(g *Guarded) {
		if d > 0 {
			g.probeEvery = d
		}
	}
}

func WithGuardClock(clock func() time.Time) GuardOption {
	return func(g *Guarded) { g.clock = clock }
}

func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guarded) { g.logger = logger }
}

func NewGuarded(inner Substrate, breaker *circuit.Breaker, opts ...GuardOption) *Guarded {
	g := &Guarded{
		inner:      inner,
		breaker:    breaker,
		probeEvery: DefaultProbeInterval,
		clock:      time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) allow() error {
	if !g.breaker.IsOpen() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.clock()
	if now.Before(g.nextProbe) {
		return fmt.Errorf("%s: %w", g.breaker.Name(), sentinel.ErrUnavailable)
	}
	g.nextProbe = now.Add(g.probeEvery)
	return nil
}

func (g *Guarded) record(ctx context.Context, err error) {
	if !isOutage(err) {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.InfoContext(ctx, "slot substrate recovered", "breaker", g.breaker.Name())
		}
		return
	}
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.mu.Lock()
		g.nextProbe = g.clock().Add(g.probeEvery)
		g.mu.Unlock()
		g.logger.WarnContext(ctx, "slot substrate unavailable, failing fast",
			"breaker", g.breaker.Name(),
			"error", err,
		)
	}
}

// isOutage separates infrastructure failures from answers about slots.
func isOutage(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	for _, s := range []error{sentinel.ErrNotFound, sentinel.ErrAlreadyUsed, sentinel.ErrConflict, sentinel.ErrInvalidState} {
		if errors.Is(err, s) {
			return false
		}
	}
	var de *dErrors.Error
	return !errors.As(err, &de)
}

func (g *Guarded) CreateIfAbsent(ctx context.Context, addr domain.Address, data []byte) error {
	if err := g.allow(); err != nil {
		return err
	}
	err := g.inner.CreateIfAbsent(ctx, addr, data)
	g.record(ctx, err)
	return err
}

func (g *Guarded) Upsert(ctx context.Context, addr domain.Address, data []byte, guard func(prev []byte) error) (bool, error) {
	if err := g.allow(); err != nil {
		return false, err
	}
	var refused bool
	checked := guard
	if guard != nil {
		checked = func(prev []byte) error {
			err := guard(prev)
			refused = err != nil
			return err
		}
	}
	created, err := g.inner.Upsert(ctx, addr, data, checked)
	if refused {
		// The substrate answered; the caller's guard said no.
		g.record(ctx, nil)
	} else {
		g.record(ctx, err)
	}
	return created, err
}

func (g *Guarded) Get(ctx context.Context, addr domain.Address) ([]byte, error) {
	if err := g.allow(); err != nil {
		return nil, err
	}
	data, err := g.inner.Get(ctx, addr)
	g.record(ctx, err)
	return data, err
}

func (g *Guarded) GetMany(ctx context.Context, addrs []domain.Address) (map[domain.Address][]byte, error) {
	if err := g.allow(); err != nil {
		return nil, err
	}
	found, err := g.inner.GetMany(ctx, addrs)
	g.record(ctx, err)
	return found, err
}
