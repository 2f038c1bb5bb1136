package workpile

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/guid"
)

func kinds() []Kind {
	return []Kind{KindDeque, KindLocked}
}

func TestWorkpile_Order(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(string(kind), func(t *testing.T) {
			pile, err := New("t", Config{Kind: kind, Capacity: 2}, nil)
			require.NoError(t, err)
			for i := 1; i <= 10; i++ {
				pile.Push(guid.New(uint64(i), guid.KindTask))
			}
			assert.Equal(t, 10, pile.Len())

			g, ok := pile.Pop()
			require.True(t, ok)
			assert.Equal(t, guid.New(10, guid.KindTask), g, "pop is LIFO")

			g, ok = pile.Steal()
			require.True(t, ok)
			assert.Equal(t, guid.New(1, guid.KindTask), g, "steal is FIFO")
			assert.Equal(t, 8, pile.Len())

			for pile.Len() > 0 {
				_, ok = pile.Pop()
				require.True(t, ok)
			}
			_, ok = pile.Pop()
			assert.False(t, ok)
			_, ok = pile.Steal()
			assert.False(t, ok)
		})
	}
}

func TestWorkpile_OwnerAndThieves(t *testing.T) {
	const total = 20000
	for _, kind := range kinds() {
		t.Run(string(kind), func(t *testing.T) {
			pile, err := New("t", Config{Kind: kind, Capacity: 16}, nil)
			require.NoError(t, err)

			var mu sync.Mutex
			var taken []guid.GUID
			record := func(local []guid.GUID) {
				mu.Lock()
				taken = append(taken, local...)
				mu.Unlock()
			}
			done := atomic.NewBool(false)
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					var local []guid.GUID
					for !done.Load() || pile.Len() > 0 {
						if g, ok := pile.Steal(); ok {
							local = append(local, g)
						}
					}
					record(local)
				}()
			}

			var local []guid.GUID
			for i := 1; i <= total; i++ {
				pile.Push(guid.New(uint64(i), guid.KindTask))
				if i%3 == 0 {
					if g, ok := pile.Pop(); ok {
						local = append(local, g)
					}
				}
			}
			done.Store(true)
			wg.Wait()
			for {
				g, ok := pile.Pop()
				if !ok {
					break
				}
				local = append(local, g)
			}
			record(local)

			require.Len(t, taken, total)
			sort.Slice(taken, func(i, j int) bool { return taken[i] < taken[j] })
			for i, g := range taken {
				assert.Equal(t, guid.New(uint64(i+1), guid.KindTask), g)
			}
		})
	}
}

func TestLocked_ConcurrentPushers(t *testing.T) {
	pile := NewLocked("t", 2, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				pile.Push(guid.New(uint64(base*1000+j+1), guid.KindMessage))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4000, pile.Len())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Kind: "ring", Capacity: 8}.Validate())
	assert.Error(t, Config{Kind: KindDeque, Capacity: 1}.Validate())
	_, err := New("t", Config{Kind: "ring"}, nil)
	assert.Error(t, err)
}

func TestWorkpile_Lifecycle(t *testing.T) {
	pile := NewDeque("t", 4, nil)
	ctx := context.Background()
	require.NoError(t, runlevel.Up(ctx, runlevel.Begun, pile))
	require.NoError(t, runlevel.Up(ctx, runlevel.Started, pile))
	assert.True(t, pile.Running())
	require.NoError(t, runlevel.Down(ctx, runlevel.Stopped, pile))
	assert.False(t, pile.Running())
}
