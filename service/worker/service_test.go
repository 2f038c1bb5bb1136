package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/guid"
)

type fakeDomain struct {
	mu       sync.Mutex
	pending  []guid.GUID
	executed map[guid.GUID]int
	workers  map[int]bool
	fail     guid.GUID
}

func (d *fakeDomain) Take(_ context.Context, worker int) (guid.GUID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workers[worker] = true
	if len(d.pending) == 0 {
		return guid.Null, false
	}
	g := d.pending[0]
	d.pending = d.pending[1:]
	return g, true
}

func (d *fakeDomain) Execute(_ context.Context, _ int, g guid.GUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed[g]++
	if g == d.fail {
		return errors.New("boom")
	}
	return nil
}

func (d *fakeDomain) done(n int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.executed) == n
}

func TestService_RunsEveryHandleOnce(t *testing.T) {
	domain := &fakeDomain{executed: map[guid.GUID]int{}, workers: map[int]bool{}}
	for i := 1; i <= 100; i++ {
		domain.pending = append(domain.pending, guid.New(uint64(i), guid.KindTask))
	}
	domain.fail = guid.New(7, guid.KindTask)

	logger, hook := test.NewNullLogger()
	scope := tally.NewTestScope("", nil)
	s, err := New(domain,
		WithConfig(Config{Count: 3, IdleSpins: 2, IdleSleep: time.Millisecond}),
		WithFirstID(5),
		WithLogger(logger),
		WithMetrics(NewMetrics(scope)))
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 7}, s.IDs())

	ctx := context.Background()
	require.NoError(t, runlevel.Up(ctx, runlevel.Begun, s))
	require.NoError(t, runlevel.Up(ctx, runlevel.Started, s))
	assert.Eventually(t, func() bool { return domain.done(100) }, 5*time.Second, time.Millisecond)
	require.NoError(t, runlevel.Down(ctx, runlevel.Stopped, s))
	require.NoError(t, runlevel.Down(ctx, runlevel.Finished, s))

	for g, count := range domain.executed {
		assert.Equal(t, 1, count, g.String())
	}
	domain.mu.Lock()
	for id := range domain.workers {
		assert.Contains(t, []int{5, 6, 7}, id)
	}
	domain.mu.Unlock()

	counters := scope.Snapshot().Counters()
	assert.EqualValues(t, 99, counters["worker.executed+"].Value())
	assert.EqualValues(t, 1, counters["worker.failed+"].Value())

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "failed to execute" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&fakeDomain{}, WithConfig(Config{Count: 0}))
	assert.Error(t, err)
	_, err = New(&fakeDomain{}, WithConfig(Config{Count: 1, IdleSpins: -1}))
	assert.Error(t, err)
}

func TestService_OutlivesStartContext(t *testing.T) {
	domain := &fakeDomain{executed: map[guid.GUID]int{}, workers: map[int]bool{}}
	logger, _ := test.NewNullLogger()
	s, err := New(domain,
		WithConfig(Config{Count: 2, IdleSpins: 1, IdleSleep: time.Millisecond}),
		WithLogger(logger))
	require.NoError(t, err)

	startCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, runlevel.Up(startCtx, runlevel.Begun, s))
	require.NoError(t, runlevel.Up(startCtx, runlevel.Started, s))
	cancel()
	time.Sleep(10 * time.Millisecond)

	domain.mu.Lock()
	for i := 1; i <= 10; i++ {
		domain.pending = append(domain.pending, guid.New(uint64(i), guid.KindTask))
	}
	domain.mu.Unlock()
	assert.Eventually(t, func() bool { return domain.done(10) }, 5*time.Second, time.Millisecond)

	ctx := context.Background()
	require.NoError(t, runlevel.Down(ctx, runlevel.Stopped, s))
	require.NoError(t, runlevel.Down(ctx, runlevel.Finished, s))
}
