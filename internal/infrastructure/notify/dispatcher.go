// Package notify delivers engine lifecycle events to subscribers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// ErrClosed is returned when notifying a closed dispatcher.
var ErrClosed = errors.New("dispatcher is closed")

// AllEvents subscribes a handler to every event type.
const AllEvents ports.EventType = ""

// Dispatcher implements ports.ProgressNotifier with an unbounded in-order
// queue drained by a single goroutine, so Notify never waits on subscribers.
type Dispatcher struct {
	logger ports.Logger

	mu     sync.Mutex
	wake   *sync.Cond
	queue  []item
	closed bool
	done   chan struct{}

	subsMu sync.RWMutex
	subs   map[ports.EventType][]subscriptionEntry
	nextID int
}

type item struct {
	ctx   context.Context
	event ports.Event
	ack   chan struct{}
}

type subscriptionEntry struct {
	id      int
	handler ports.EventHandler
}

// NewDispatcher starts a dispatcher. Handler failures are logged to logger.
func NewDispatcher(logger ports.Logger) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		done:   make(chan struct{}),
		subs:   make(map[ports.EventType][]subscriptionEntry),
	}
	d.wake = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

// Notify queues the event for delivery.
func (d *Dispatcher) Notify(ctx context.Context, event ports.Event) error {
	return d.enqueue(item{ctx: context.WithoutCancel(ctx), event: event})
}

// Flush waits until every event queued before the call has been delivered.
func (d *Dispatcher) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	if err := d.enqueue(item{ack: ack}); err != nil {
		return err
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.wake.Broadcast()
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a handler for eventType, or for every event when
// eventType is AllEvents.
func (d *Dispatcher) Subscribe(eventType ports.EventType, handler ports.EventHandler) (ports.Subscription, error) {
	if handler == nil {
		return noopSubscription{}, nil
	}
	d.subsMu.Lock()
	d.nextID++
	id := d.nextID
	d.subs[eventType] = append(d.subs[eventType], subscriptionEntry{id: id, handler: handler})
	d.subsMu.Unlock()

	return subscription{
		cancel: func() {
			d.subsMu.Lock()
			defer d.subsMu.Unlock()
			handlers := d.subs[eventType]
			for i, entry := range handlers {
				if entry.id == id {
					d.subs[eventType] = append(handlers[:i:i], handlers[i+1:]...)
					break
				}
			}
		},
	}, nil
}

func (d *Dispatcher) enqueue(it item) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.queue = append(d.queue, it)
	d.wake.Signal()
	return nil
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.wake.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		next := d.queue[0]
		d.queue[0] = item{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if next.ack != nil {
			close(next.ack)
			continue
		}
		d.deliver(next)
	}
}

func (d *Dispatcher) deliver(it item) {
	d.subsMu.RLock()
	handlers := append([]subscriptionEntry(nil), d.subs[it.event.Type]...)
	handlers = append(handlers, d.subs[AllEvents]...)
	d.subsMu.RUnlock()

	for _, entry := range handlers {
		if err := safeCall(it.ctx, entry.handler, it.event); err != nil && d.logger != nil {
			d.logger.Warn(it.ctx, "event handler failed", "event_type", string(it.event.Type), "error", err)
		}
	}
}

func safeCall(ctx context.Context, handler ports.EventHandler, event ports.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicErr{value: r}
		}
	}()
	return handler(ctx, event)
}

type panicErr struct {
	value any
}

func (p panicErr) Error() string {
	return fmt.Sprintf("handler panicked: %v", p.value)
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

var _ ports.ProgressNotifier = (*Dispatcher)(nil)
