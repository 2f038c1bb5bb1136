package scheduler

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/edt/model/task"
	"github.com/viant/edt/service/guid"
	"github.com/viant/edt/service/workpile"
)

func noop(context.Context, []uint64, []task.Dep) (guid.GUID, error) {
	return guid.Null, nil
}

// newTask registers a task with depc unsatisfied dependencies.
func newTask(t require.TestingT, provider *guid.Provider, depc int) guid.GUID {
	tmpl, err := task.NewTemplate("noop", noop, 0, depc)
	require.NoError(t, err)
	tsk, err := task.New(guid.Null, tmpl, 0, nil, nil)
	require.NoError(t, err)
	tsk.GUID = provider.Register(guid.KindTask, tsk)
	return tsk.GUID
}

func TestConfig_Validate(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.Validate(4))
	assert.Error(t, config.Validate(0))

	config.Kind = KindFSim
	assert.NoError(t, config.Validate(2))
	config.Controllers = 2
	assert.Error(t, config.Validate(2))

	config.Kind = "ring"
	assert.Error(t, config.Validate(2))

	config = DefaultConfig()
	config.Workpile = workpile.Config{Kind: workpile.KindDeque}
	assert.Error(t, config.Validate(2))
}

func TestNew(t *testing.T) {
	logger, _ := test.NewNullLogger()
	provider := guid.NewProvider(logger)

	s, err := New(DefaultConfig(), 2, provider, WithLogger(logger))
	require.NoError(t, err)
	assert.IsType(t, &HC{}, s)

	config := DefaultConfig()
	config.Kind = KindFSim
	s, err = New(config, 2, provider, WithLogger(logger))
	require.NoError(t, err)
	assert.IsType(t, &FSim{}, s)

	_, err = New(config, 1, provider)
	assert.Error(t, err)
}
