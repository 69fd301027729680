package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher decouples triage from delivery. Publish returns as soon as
// the event is enqueued; handlers run on background workers with a
// detached context, so a client disconnecting from the triggering request
// never cancels fan-out or ingestion.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// queueDispatcher is a bounded-queue asynchronous dispatcher backed by a
// worker pool.
type queueDispatcher struct {
	mu             sync.RWMutex
	listeners      map[EventType][]EventHandler
	queue          chan Event
	wg             sync.WaitGroup
	logger         *zap.Logger
	handlerTimeout time.Duration
	closeOnce      sync.Once
}

// NewQueueDispatcher creates a dispatcher with the given queue capacity and
// worker count. handlerTimeout bounds each handler invocation.
func NewQueueDispatcher(queueSize, workers int, handlerTimeout time.Duration, logger *zap.Logger) *queueDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 4
	}
	d := &queueDispatcher{
		listeners:      make(map[EventType][]EventHandler),
		queue:          make(chan Event, queueSize),
		logger:         logger.Named("dispatcher"),
		handlerTimeout: handlerTimeout,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Publish enqueues the event without waiting for handlers. A full queue
// drops the event with a log line; fan-out is best-effort by contract and
// must never block the caller.
func (d *queueDispatcher) Publish(ctx context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		d.logger.Error("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
		return nil
	}
}

// Subscribe registers a handler for the given event type.
func (d *queueDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close stops accepting events and drains the queue.
func (d *queueDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *queueDispatcher) worker() {
	defer d.wg.Done()
	for event := range d.queue {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.listeners[event.Type]...)
		d.mu.RUnlock()

		for _, handler := range handlers {
			d.invoke(handler, event)
		}
	}
}

func (d *queueDispatcher) invoke(handler EventHandler, event Event) {
	ctx := context.Background()
	if d.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.handlerTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panic",
				zap.String("event_type", string(event.Type)),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
