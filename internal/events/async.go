package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("publisher closed")
)

const asyncDeliveryTimeout = 5 * time.Second

// Async queues events for a background goroutine so callers never wait on
// next. A full queue drops the event and returns ErrQueueFull.
type Async struct {
	next    Publisher
	logger  log.FieldLogger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewAsync starts the delivery goroutine. Close must be called to stop it.
func NewAsync(next Publisher, size int, logger log.FieldLogger) *Async {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	a := &Async{
		next:    next,
		logger:  logger,
		timeout: asyncDeliveryTimeout,
		queue:   make(chan Event, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish implements Publisher. It does not block.
func (a *Async) Publish(_ context.Context, e Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return fmt.Errorf("%w: %s", ErrClosed, e.Type)
	}
	select {
	case a.queue <- e:
		return nil
	default:
		return fmt.Errorf("%w: dropped %s", ErrQueueFull, e.Type)
	}
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Publish(ctx, e); err != nil {
			a.logger.WithError(err).WithFields(log.Fields{
				"event":      string(e.Type),
				"request_id": e.RequestID,
			}).Warn("Failed to deliver workflow event")
		}
		cancel()
	}
}

// Close stops accepting events and waits for the queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
