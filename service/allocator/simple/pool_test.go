package simple

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/edt/service/allocator"
)

func newPool(t *testing.T, size int) (*Pool, *test.Hook) {
	logger, hook := test.NewNullLogger()
	pool, err := NewPool(1, make([]byte, size), logger)
	require.NoError(t, err)
	return pool, hook
}

func TestPool_Scenario(t *testing.T) {
	pool, _ := newPool(t, 4096)

	a, ok := pool.Allocate(100)
	require.True(t, ok)
	b, ok := pool.Allocate(200)
	require.True(t, ok)
	c, ok := pool.Allocate(300)
	require.True(t, ok)
	highWater := c + 304 + wordSize

	require.NoError(t, pool.Free(a))
	require.NoError(t, pool.Free(c))
	require.NoError(t, pool.Check())

	d, ok := pool.Allocate(250)
	require.True(t, ok)
	assert.Equal(t, c, d)
	assert.Less(t, d, highWater)
	assert.NotEqual(t, b, d)
	require.NoError(t, pool.Check())
}

func TestPool_RoundTrip(t *testing.T) {
	pool, _ := newPool(t, 8192)
	initial := pool.Stats()
	assert.Equal(t, 1, initial.FreeBlocks)
	assert.EqualValues(t, 8192, initial.FreeBytes)

	sizes := []uint64{1, 7, 8, 24, 100, 333, 512}
	addrs := make([]uint64, len(sizes))
	for i, size := range sizes {
		addr, ok := pool.Allocate(size)
		require.True(t, ok, "size %d", size)
		addrs[i] = addr
		data := pool.Bytes(addr, size)
		for j := range data {
			data[j] = byte(i + 1)
		}
	}
	for i, size := range sizes {
		for _, v := range pool.Bytes(addrs[i], size) {
			require.Equal(t, byte(i+1), v)
		}
	}
	require.NoError(t, pool.Check())
	for _, addr := range addrs {
		require.NoError(t, pool.Free(addr))
	}
	require.NoError(t, pool.Check())
	assert.Equal(t, initial, pool.Stats())

	addr, ok := pool.Allocate(8192 - Overhead)
	require.True(t, ok)
	assert.EqualValues(t, userOffset, addr)
}

func TestPool_Coalescing(t *testing.T) {
	var testCases = []struct {
		description string
		order       []int
	}{
		{description: "left then right", order: []int{0, 1}},
		{description: "right then left", order: []int{1, 0}},
	}
	for _, testCase := range testCases {
		pool, _ := newPool(t, 1024)
		addrs := make([]uint64, 3)
		for i := range addrs {
			addr, ok := pool.Allocate(200)
			require.True(t, ok, testCase.description)
			addrs[i] = addr
		}
		rest, ok := pool.Allocate(1024 - 3*232 - Overhead)
		require.True(t, ok, testCase.description)

		for _, i := range testCase.order {
			require.NoError(t, pool.Free(addrs[i]), testCase.description)
		}
		require.NoError(t, pool.Check(), testCase.description)
		stats := pool.Stats()
		assert.Equal(t, 1, stats.FreeBlocks, testCase.description)
		assert.EqualValues(t, 2*232, stats.FreeBytes, testCase.description)

		merged, ok := pool.Allocate(2*232 - Overhead)
		require.True(t, ok, testCase.description)
		assert.Equal(t, addrs[0], merged, testCase.description)

		require.NoError(t, pool.Free(rest), testCase.description)
		require.NoError(t, pool.Free(addrs[2]), testCase.description)
		require.NoError(t, pool.Free(merged), testCase.description)
		assert.Equal(t, Stats{FreeBytes: 1024, FreeBlocks: 1}, pool.Stats(), testCase.description)
	}
}

func TestPool_SmallRemainderIsNotSplit(t *testing.T) {
	pool, _ := newPool(t, 256)
	addr, ok := pool.Allocate(256 - Overhead - MinFreeSize + wordSize)
	require.True(t, ok)
	stats := pool.Stats()
	assert.Equal(t, 0, stats.FreeBlocks)
	assert.Equal(t, 1, stats.UsedBlocks)
	_, ok = pool.Allocate(1)
	assert.False(t, ok)
	require.NoError(t, pool.Free(addr))
	assert.Equal(t, Stats{FreeBytes: 256, FreeBlocks: 1}, pool.Stats())
}

func TestPool_OutOfMemory(t *testing.T) {
	pool, _ := newPool(t, 512)
	_, ok := pool.Allocate(1024)
	assert.False(t, ok)
	var addrs []uint64
	for {
		addr, ok := pool.Allocate(64)
		if !ok {
			break
		}
		addrs = append(addrs, addr)
	}
	assert.Len(t, addrs, 5)
	require.NoError(t, pool.Free(addrs[2]))
	addr, ok := pool.Allocate(64)
	require.True(t, ok)
	assert.Equal(t, addrs[2], addr)
}

func TestPool_InvalidFree(t *testing.T) {
	pool, hook := newPool(t, 1024)
	a, ok := pool.Allocate(64)
	require.True(t, ok)
	b, ok := pool.Allocate(64)
	require.True(t, ok)
	before := pool.Stats()

	var testCases = []struct {
		description string
		addr        uint64
	}{
		{description: "below the pool", addr: 8},
		{description: "unaligned", addr: a + 3},
		{description: "above the pool", addr: 4096},
		{description: "inside a block", addr: a + 16},
	}
	for _, testCase := range testCases {
		hook.Reset()
		err := pool.Free(testCase.addr)
		assert.True(t, errors.Is(err, allocator.ErrInvalidFree), testCase.description)
		require.NotNil(t, hook.LastEntry(), testCase.description)
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level, testCase.description)
		assert.Equal(t, before, pool.Stats(), testCase.description)
	}

	require.NoError(t, pool.Free(b))
	hook.Reset()
	var err error
	err = pool.Free(b)
	assert.True(t, errors.Is(err, allocator.ErrInvalidFree))
	assert.NotNil(t, hook.LastEntry())
	require.NoError(t, pool.Check())

	other, err := NewPool(2, make([]byte, 1024), nil)
	require.NoError(t, err)
	c, ok := other.Allocate(64)
	require.True(t, ok)
	copy(pool.arena, other.arena)
	assert.True(t, errors.Is(pool.Free(c), allocator.ErrInvalidFree))
}

func TestPool_Concurrent(t *testing.T) {
	pool, _ := newPool(t, 1<<22)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			var live []uint64
			for i := 0; i < 500; i++ {
				size := uint64(16 + (i*g)%200)
				addr, ok := pool.Allocate(size)
				if !assert.True(t, ok) {
					return
				}
				data := pool.Bytes(addr, size)
				for j := range data {
					data[j] = byte(g)
				}
				live = append(live, addr)
				if i%3 == 0 {
					assert.NoError(t, pool.Free(live[0]))
					live = live[1:]
				}
			}
			for _, addr := range live {
				assert.NoError(t, pool.Free(addr))
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, pool.Check())
	assert.Equal(t, Stats{FreeBytes: 1 << 22, FreeBlocks: 1}, pool.Stats())
}
