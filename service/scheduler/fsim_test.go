package scheduler

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/model/task"
	"github.com/viant/edt/service/guid"
)

type FSimTestSuite struct {
	suite.Suite
	provider  *guid.Provider
	scope     tally.TestScope
	scheduler *FSim
}

func TestFSimScheduler(t *testing.T) {
	suite.Run(t, new(FSimTestSuite))
}

func (suite *FSimTestSuite) SetupTest() {
	logger, _ := test.NewNullLogger()
	suite.provider = guid.NewProvider(logger)
	suite.scope = tally.NewTestScope("", nil)
	config := DefaultConfig()
	config.Kind = KindFSim
	config.Controllers = 1
	s, err := New(config, 4, suite.provider, WithLogger(logger), WithMetrics(NewMetrics(suite.scope)))
	suite.Require().NoError(err)
	suite.scheduler = s.(*FSim)
	ctx := context.Background()
	suite.Require().NoError(runlevel.Up(ctx, runlevel.Begun, suite.scheduler))
	suite.Require().NoError(runlevel.Up(ctx, runlevel.Started, suite.scheduler))
}

func (suite *FSimTestSuite) TearDownTest() {
	ctx := context.Background()
	suite.NoError(runlevel.Down(ctx, runlevel.Stopped, suite.scheduler))
	suite.NoError(runlevel.Down(ctx, runlevel.Finished, suite.scheduler))
}

func (suite *FSimTestSuite) TestRoles() {
	suite.Equal(RoleCE, suite.scheduler.Role(0))
	for w := 1; w < 4; w++ {
		suite.Equal(RoleXE, suite.scheduler.Role(w))
	}
	suite.Panics(func() { suite.scheduler.Role(4) })
	suite.Panics(func() { suite.scheduler.Unship(0) })
}

func (suite *FSimTestSuite) TestExecutorWorkIsShipped() {
	a := newTask(suite.T(), suite.provider, 0)
	b := newTask(suite.T(), suite.provider, 0)
	handles := suite.scheduler.Give(2, []guid.GUID{a, b})
	suite.Equal([]guid.GUID{guid.Null, guid.Null}, handles)

	// Nothing runs on the executor until the controller assigns it.
	_, ok := suite.scheduler.Take(2)
	suite.False(ok)
	suite.Equal(2, suite.scheduler.Pile(2, true).Len())

	g, ok := suite.scheduler.Take(0)
	suite.Require().True(ok)
	suite.True(task.IsMessage(g))
	msg, err := guid.Lookup[*task.Message](suite.provider, g)
	suite.Require().NoError(err)
	suite.Equal(task.PickMyWorkUp, msg.Type)
	suite.Equal(2, msg.From)

	unshipped := suite.scheduler.Unship(msg.From)
	suite.ElementsMatch([]guid.GUID{a, b}, unshipped)
	for _, g := range unshipped {
		suite.scheduler.Assign(g)
	}
	first, ok := suite.scheduler.Take(1)
	suite.True(ok)
	second, ok := suite.scheduler.Take(2)
	suite.True(ok)
	suite.ElementsMatch([]guid.GUID{a, b}, []guid.GUID{first, second})

	counters := suite.scope.Snapshot().Counters()
	suite.EqualValues(1, counters["scheduler.message_created+"].Value())
	suite.EqualValues(2, counters["scheduler.give.pushed+"].Value())
}

func (suite *FSimTestSuite) TestControllerWorkBeforeMessages() {
	msg := &task.Message{Type: task.PickMyWorkUp, From: 3}
	msg.GUID = suite.provider.Register(guid.KindMessage, msg)
	suite.scheduler.Give(3, []guid.GUID{msg.GUID})
	suite.Equal(1, suite.scheduler.Pile(0, true).Len())

	work := newTask(suite.T(), suite.provider, 0)
	suite.scheduler.Give(0, []guid.GUID{work})

	g, ok := suite.scheduler.Take(0)
	suite.True(ok)
	suite.Equal(work, g)
	g, ok = suite.scheduler.Take(0)
	suite.True(ok)
	suite.Equal(msg.GUID, g)
	_, ok = suite.scheduler.Take(0)
	suite.False(ok)
}

func (suite *FSimTestSuite) TestGiveSkipsPendingTasks() {
	pending := newTask(suite.T(), suite.provider, 2)
	handles := suite.scheduler.Give(1, []guid.GUID{pending})
	suite.Equal([]guid.GUID{pending}, handles)
	suite.Equal(0, suite.scheduler.Pile(1, true).Len())
	suite.Equal(0, suite.scheduler.Pile(0, true).Len())
}

func (suite *FSimTestSuite) TestSubmitRoundRobin() {
	var handles []guid.GUID
	for k := 0; k < 6; k++ {
		handles = append(handles, newTask(suite.T(), suite.provider, 0))
	}
	suite.scheduler.Submit(handles)
	for w := 1; w < 4; w++ {
		suite.Equal(2, suite.scheduler.Pile(w, false).Len())
	}
	suite.Equal(0, suite.scheduler.Pile(0, false).Len())
}
