package event

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrQueueFull is returned by Publish when listeners fall behind.
var ErrQueueFull = errors.New("event: queue full")

// Publisher buffers events for a Listener. Publish never blocks a worker.
type Publisher[T any] struct {
	queue chan *Event[T]
}

// NewPublisher creates a publisher with room for buffer pending events.
func NewPublisher[T any](buffer int) *Publisher[T] {
	if buffer <= 0 {
		buffer = 100
	}
	return &Publisher[T]{queue: make(chan *Event[T], buffer)}
}

// Publish enqueues event, or reports ErrQueueFull.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	event.CreatedAt = time.Now()
	select {
	case p.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Consume waits for the next event.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	select {
	case event := <-p.queue:
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of pending events.
func (p *Publisher[T]) Size() int {
	return len(p.queue)
}
