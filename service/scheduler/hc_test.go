package scheduler

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/guid"
)

type HCTestSuite struct {
	suite.Suite
	provider  *guid.Provider
	scope     tally.TestScope
	scheduler *HC
}

func TestHCScheduler(t *testing.T) {
	suite.Run(t, new(HCTestSuite))
}

func (suite *HCTestSuite) SetupTest() {
	logger, _ := test.NewNullLogger()
	suite.provider = guid.NewProvider(logger)
	suite.scope = tally.NewTestScope("", nil)
	config := DefaultConfig()
	config.WorkerIDFirst = 10
	s, err := New(config, 4, suite.provider, WithLogger(logger), WithMetrics(NewMetrics(suite.scope)))
	suite.Require().NoError(err)
	suite.scheduler = s.(*HC)
	ctx := context.Background()
	suite.Require().NoError(runlevel.Up(ctx, runlevel.Begun, suite.scheduler))
	suite.Require().NoError(runlevel.Up(ctx, runlevel.Started, suite.scheduler))
}

func (suite *HCTestSuite) TearDownTest() {
	ctx := context.Background()
	suite.NoError(runlevel.Down(ctx, runlevel.Stopped, suite.scheduler))
	suite.NoError(runlevel.Down(ctx, runlevel.Finished, suite.scheduler))
}

func (suite *HCTestSuite) TestStartRegistersScheduler() {
	v, ok := suite.provider.Resolve(suite.scheduler.self)
	suite.True(ok)
	suite.Equal(suite.scheduler, v)
}

func (suite *HCTestSuite) TestOwnTasksFirst() {
	owned := make(map[int][]guid.GUID)
	for w := 10; w < 14; w++ {
		for k := 0; k < 2; k++ {
			g := newTask(suite.T(), suite.provider, 0)
			suite.scheduler.Pile(w).Push(g)
			owned[w] = append(owned[w], g)
		}
	}
	seen := make(map[guid.GUID]int)
	for round := 0; round < 2; round++ {
		for w := 10; w < 14; w++ {
			g, ok := suite.scheduler.Take(w)
			suite.Require().True(ok)
			seen[g]++
			suite.Contains(owned[w], g)
		}
	}
	suite.Len(seen, 8)
	for _, count := range seen {
		suite.Equal(1, count)
	}
	counters := suite.scope.Snapshot().Counters()
	suite.EqualValues(8, counters["scheduler.take.pop+"].Value())
}

func (suite *HCTestSuite) TestStealRingOrder() {
	a := newTask(suite.T(), suite.provider, 0)
	b := newTask(suite.T(), suite.provider, 0)
	suite.scheduler.Pile(13).Push(a)
	suite.scheduler.Pile(11).Push(b)

	// Worker 10 visits 11 before 13.
	g, ok := suite.scheduler.Take(10)
	suite.True(ok)
	suite.Equal(b, g)
	// Worker 12 visits 13 first.
	g, ok = suite.scheduler.Take(12)
	suite.True(ok)
	suite.Equal(a, g)

	_, ok = suite.scheduler.Take(12)
	suite.False(ok)
	counters := suite.scope.Snapshot().Counters()
	suite.EqualValues(2, counters["scheduler.take.steal+"].Value())
	suite.EqualValues(1, counters["scheduler.take.empty+"].Value())
}

func (suite *HCTestSuite) TestGiveFiltersAcquired() {
	ready := newTask(suite.T(), suite.provider, 0)
	pending := newTask(suite.T(), suite.provider, 1)
	handles := suite.scheduler.Give(11, []guid.GUID{ready, pending, guid.Null})
	suite.Equal([]guid.GUID{guid.Null, pending, guid.Null}, handles)
	suite.Equal(1, suite.scheduler.Pile(11).Len())

	counters := suite.scope.Snapshot().Counters()
	suite.EqualValues(1, counters["scheduler.give.pushed+"].Value())
	suite.EqualValues(1, counters["scheduler.give.skipped+"].Value())
}

func (suite *HCTestSuite) TestSubmitGoesToInbox() {
	g := newTask(suite.T(), suite.provider, 0)
	suite.Equal([]guid.GUID{guid.Null}, suite.scheduler.Submit([]guid.GUID{g}))
	got, ok := suite.scheduler.Take(12)
	suite.True(ok)
	suite.Equal(g, got)
}

func (suite *HCTestSuite) TestProtocolViolations() {
	suite.Panics(func() { suite.scheduler.Take(9) })
	suite.Panics(func() { suite.scheduler.Give(14, nil) })
	suite.Panics(func() { suite.scheduler.Unship(10) })
	suite.Panics(func() { suite.scheduler.Assign(guid.Null) })
	suite.Equal(RoleWorker, suite.scheduler.Role(10))
}

func (suite *HCTestSuite) TestTakeGiveRoundTrip() {
	const perWorker = 500
	var mu sync.Mutex
	var taken []guid.GUID
	var wg sync.WaitGroup
	var given []guid.GUID
	for w := 10; w < 14; w++ {
		handles := make([]guid.GUID, perWorker)
		for k := range handles {
			handles[k] = newTask(suite.T(), suite.provider, 0)
		}
		given = append(given, handles...)
		wg.Add(1)
		go func(worker int, handles []guid.GUID) {
			defer wg.Done()
			suite.scheduler.Give(worker, handles)
			var local []guid.GUID
			for {
				g, ok := suite.scheduler.Take(worker)
				if !ok {
					break
				}
				local = append(local, g)
			}
			mu.Lock()
			taken = append(taken, local...)
			mu.Unlock()
		}(w, handles)
	}
	wg.Wait()
	for w := 10; w < 14; w++ {
		for {
			g, ok := suite.scheduler.Take(w)
			if !ok {
				break
			}
			taken = append(taken, g)
		}
	}
	sort.Slice(taken, func(i, j int) bool { return taken[i] < taken[j] })
	sort.Slice(given, func(i, j int) bool { return given[i] < given[j] })
	suite.Equal(given, taken)
}
