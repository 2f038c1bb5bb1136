package event

import (
	"context"
	"sync"
)

// Listener hands every published event to handler on its own goroutine.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Stop delivers the events already queued and then stops the listener.
func (l *Listener[T]) Stop() {
	l.cancel()
	l.wg.Wait()
	for l.publisher.Size() > 0 {
		event, err := l.publisher.Consume(context.Background())
		if err != nil {
			return
		}
		l.handler(event)
	}
}

func (l *Listener[T]) Start() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			event, err := l.publisher.Consume(l.ctx)
			if err != nil {
				return
			}
			l.handler(event)
		}
	}()
}
