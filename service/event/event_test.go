package event

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/edt/service/guid"
)

func TestListener(t *testing.T) {
	publisher := NewPublisher[string](10)
	var mu sync.Mutex
	var got []string
	listener := NewListener(publisher, func(e *Event[string]) {
		mu.Lock()
		got = append(got, e.Data)
		mu.Unlock()
	})
	listener.Start()
	ctx := context.Background()
	for _, data := range []string{"a", "b", "c"} {
		require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{EventType: TaskReaped, GUID: guid.New(1, guid.KindTask)}, data)))
	}
	listener.Stop()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPublisher_Full(t *testing.T) {
	publisher := NewPublisher[int](1)
	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{}, 1)))
	assert.ErrorIs(t, publisher.Publish(ctx, NewEvent(&Context{}, 2)), ErrQueueFull)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, publisher.Publish(cancelled, NewEvent(&Context{}, 3)))
	_, err := NewPublisher[int](1).Consume(cancelled)
	assert.Error(t, err)
}
