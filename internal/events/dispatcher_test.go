package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDispatcher_DeliversToSubscribers(t *testing.T) {
	d := NewQueueDispatcher(16, 2, time.Second, zap.NewNop())

	var mu sync.Mutex
	var got []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		mu.Lock()
		got = append(got, event.TicketID)
		mu.Unlock()
		return nil
	})

	for _, id := range []string{"t1", "t2", "t3"} {
		if err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: id}); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("handled %d events, want 3", len(got))
	}
}

func TestDispatcher_TypeIsolation(t *testing.T) {
	d := NewQueueDispatcher(16, 1, time.Second, zap.NewNop())

	var closedCount atomic.Int64
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		closedCount.Add(1)
		return nil
	})

	d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"})
	d.Publish(context.Background(), Event{Type: EventTicketClosed, TicketID: "t1"})
	d.Close()

	if n := closedCount.Load(); n != 1 {
		t.Fatalf("closed handler ran %d times, want 1", n)
	}
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	// Zero workers are coerced to a positive count, so fill the queue by
	// parking the only worker on a slow handler.
	block := make(chan struct{})
	d := NewQueueDispatcher(1, 1, 0, zap.NewNop())
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		<-block
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full queue")
	}
	close(block)
	d.Close()
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewQueueDispatcher(16, 1, time.Second, zap.NewNop())

	var ran atomic.Bool
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		ran.Store(true)
		return nil
	})

	d.Publish(context.Background(), Event{Type: EventTicketClosed, TicketID: "t1"})
	d.Close()

	if !ran.Load() {
		t.Fatal("second handler did not run after first errored")
	}
}

func TestDispatcher_HandlerPanicIsContained(t *testing.T) {
	d := NewQueueDispatcher(16, 1, time.Second, zap.NewNop())

	var ran atomic.Bool
	d.Subscribe(EventMessageSent, func(context.Context, Event) error {
		panic("handler bug")
	})
	d.Subscribe(EventMessageSent, func(context.Context, Event) error {
		ran.Store(true)
		return nil
	})

	d.Publish(context.Background(), Event{Type: EventMessageSent, TicketID: "t1"})
	d.Close()

	if !ran.Load() {
		t.Fatal("panic in one handler stopped the next")
	}
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	d := NewQueueDispatcher(64, 4, time.Second, zap.NewNop())

	var handled atomic.Int64
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		handled.Add(1)
		return nil
	})

	const n = 40
	for i := 0; i < n; i++ {
		d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t"})
	}
	d.Close()

	if got := handled.Load(); got != n {
		t.Fatalf("drained %d events, want %d", got, n)
	}
}
