package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	tracker := New("d1")
	var last Progress
	tracker.OnChange(func(p Progress) { last = p })

	tracker.Update(Delta{Total: 1, Pending: 1})
	assert.False(t, tracker.Quiescent())
	tracker.Update(Delta{Pending: -1, Running: 1})
	tracker.Update(Delta{Running: -1, Completed: 1})
	assert.True(t, tracker.Quiescent())

	assert.Equal(t, 1, last.CompletedTasks)
	assert.Equal(t, "d1", last.Domain)
}

func TestProgress_Concurrent(t *testing.T) {
	tracker := New("d1")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tracker.Update(Delta{Total: 1, Completed: 1})
			}
		}()
	}
	wg.Wait()
	snapshot := tracker.Snapshot()
	assert.Equal(t, 1000, snapshot.TotalTasks)
	assert.Equal(t, 1000, snapshot.CompletedTasks)
}

func TestContext(t *testing.T) {
	tracker := New("d1")
	ctx := WithTracker(context.Background(), tracker)
	UpdateCtx(ctx, Delta{Failed: 1})
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, 1, got.Snapshot().FailedTasks)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
	var nilTracker *Progress
	nilTracker.Update(Delta{Total: 1})
	assert.Equal(t, 0, nilTracker.Snapshot().TotalTasks)
}
