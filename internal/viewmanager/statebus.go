package viewmanager

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emberhost/emberview/internal/domain/entity"
)

// StateCallback receives one lifecycle transition.
type StateCallback func(entity.Transition)

// defaultBusBuffer bounds the delivery queue; publishers never block on
// slow subscribers.
const defaultBusBuffer = 256

// subscription is an explicit removable-list entry. The removed flag makes
// unsubscription idempotent and safe to call after the bus is torn down.
type subscription struct {
	id      uuid.UUID
	fn      StateCallback
	removed atomic.Bool
}

// StateBus broadcasts lifecycle transitions to observers. Transitions are
// delivered in publish order by a single delivery goroutine, which preserves
// per-app ordering; no ordering is guaranteed across app ids beyond that.
type StateBus struct {
	log zerolog.Logger

	mu     sync.Mutex
	subs   []*subscription
	closed bool

	queue chan entity.Transition
	done  chan struct{}
}

// NewStateBus creates a bus and starts its delivery goroutine.
func NewStateBus(log zerolog.Logger) *StateBus {
	b := &StateBus{
		log:   log.With().Str("component", "statebus").Logger(),
		queue: make(chan entity.Transition, defaultBusBuffer),
		done:  make(chan struct{}),
	}
	go b.deliver()
	return b
}

// Subscribe registers a callback and returns its unsubscribe function.
// Unsubscribing twice, or after Close, is a no-op.
func (b *StateBus) Subscribe(fn StateCallback) func() {
	sub := &subscription{id: uuid.New(), fn: fn}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.removed.Store(true)
		return func() {}
	}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return func() {
		if !sub.removed.CompareAndSwap(false, true) {
			return
		}
		b.mu.Lock()
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}
}

// Publish enqueues a transition for delivery. Publishing never blocks; if
// the queue is full the transition is dropped with a warning.
func (b *StateBus) Publish(t entity.Transition) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}

	select {
	case b.queue <- t:
	default:
		b.log.Warn().
			Str("app", t.AppID).
			Str("state", t.State.String()).
			Msg("state bus queue full, dropping transition")
	}
}

// Close stops delivery after draining already-queued transitions.
// Idempotent. Unsubscribe functions remain safe to call afterwards.
func (b *StateBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.done)
}

func (b *StateBus) deliver() {
	for {
		select {
		case t := <-b.queue:
			b.dispatch(t)
		case <-b.done:
			// Drain transitions published before Close.
			for {
				select {
				case t := <-b.queue:
					b.dispatch(t)
				default:
					return
				}
			}
		}
	}
}

func (b *StateBus) dispatch(t entity.Transition) {
	b.mu.Lock()
	snapshot := make([]*subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, sub := range snapshot {
		if sub.removed.Load() {
			continue
		}
		b.invoke(sub, t)
	}
}

// invoke shields the delivery loop from misbehaving subscribers: a panic in
// one callback is logged and must not prevent delivery to the others.
func (b *StateBus) invoke(sub *subscription, t entity.Transition) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("subscription", sub.id.String()).
				Str("app", t.AppID).
				Interface("panic", r).
				Msg("state subscriber panicked")
		}
	}()
	sub.fn(t)
}
