package event

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Handler consumes one event. The event is a snapshot; handlers never get a
// reference to the entity that recorded it.
type Handler func(ctx context.Context, e Event) error

// Entity is anything that accumulates events for later delivery.
type Entity interface {
	EntityID() string
	// DrainEvents returns the pending queue and leaves it empty.
	DrainEvents() []Event
	// Requeue puts events back at the front of the pending queue.
	Requeue(events []Event)
	// BeginDelivery takes the entity's delivery lock and returns the release
	// func. Only one batch of an entity is in flight at a time.
	BeginDelivery() (release func())
}

// Bus keeps per-kind subscriber lists and delivers events to them.
//
// Delivery of one event runs all of its handlers concurrently and waits for
// every one of them to settle before reporting, so a failed dispatch never
// leaves handlers running behind the caller's back. Events of a batch are
// delivered strictly one after another.
type Bus struct {
	mu   sync.RWMutex
	subs map[Kind][]Handler

	logger  *slog.Logger
	metrics *Metrics
}

// NewBus creates an empty bus. logger and metrics may be nil.
func NewBus(logger *slog.Logger, metrics *Metrics) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{
		subs:    make(map[Kind][]Handler),
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe appends h to the subscriber list of kind.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[kind] = append(b.subs[kind], h)
}

// SubscriberCount reports how many handlers are registered for kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}

func (b *Bus) handlers(kind Kind) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.subs[kind]...)
}

// Dispatch delivers e to every handler subscribed to its kind and returns
// once all of them have returned. With no subscribers it returns nil at once.
// If any handler fails the result is a *DispatchError.
func (b *Bus) Dispatch(ctx context.Context, e Event) error {
	hs := b.handlers(e.Kind())
	if len(hs) == 0 {
		return nil
	}

	errs := make([]error, len(hs))
	var g errgroup.Group
	for i, h := range hs {
		g.Go(func() error {
			start := time.Now()
			errs[i] = invoke(ctx, h, e)
			b.metrics.observeHandler(e.Kind(), time.Since(start))
			return errs[i]
		})
	}
	// settle-all: Wait only returns after every handler is done
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) == 0 {
		b.metrics.observeDispatch(e.Kind(), nil)
		b.logger.Debug("event dispatched", "kind", e.Kind(), "event_id", e.ID(), "handlers", len(hs))
		return nil
	}

	derr := &DispatchError{Event: e, Handlers: len(hs), Errs: failed}
	b.metrics.observeDispatch(e.Kind(), derr)
	b.logger.Warn("event dispatch failed",
		"kind", e.Kind(), "event_id", e.ID(), "failed", len(failed), "handlers", len(hs), "err", derr.First())
	return derr
}

func invoke(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(ctx, e)
}

// DispatchAll delivers events one at a time, waiting for each Dispatch before
// starting the next. It stops at the first failure and returns how many
// events were fully delivered before it.
func (b *Bus) DispatchAll(ctx context.Context, events []Event) (int, error) {
	for i, e := range events {
		if err := b.Dispatch(ctx, e); err != nil {
			return i, err
		}
	}
	return len(events), nil
}

// DispatchEntityEvents drains the entity's queue and delivers it. On failure
// the failing event and everything after it are requeued at the front of the
// entity's queue, ahead of events recorded meanwhile, so the next call retries
// from the failure point. Handlers of the failing event that had succeeded
// will see it again.
//
// The entity's delivery lock is held from the drain until the requeue, so
// concurrent calls for one entity deliver its events in recording order.
func (b *Bus) DispatchEntityEvents(ctx context.Context, entity Entity) error {
	release := entity.BeginDelivery()
	defer release()

	events := entity.DrainEvents()
	if len(events) == 0 {
		return nil
	}
	delivered, err := b.DispatchAll(ctx, events)
	if err != nil {
		entity.Requeue(events[delivered:])
		b.logger.Warn("entity events requeued",
			"entity", entity.EntityID(), "delivered", delivered, "requeued", len(events)-delivered)
		return fmt.Errorf("dispatch events of %s: %w", entity.EntityID(), err)
	}
	return nil
}
