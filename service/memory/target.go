// Package memory provides the memory target: a byte arena whose sub-ranges
// are tagged through a range tracker and handed out as chunks to allocators.
package memory

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/rangetracker"
)

// ErrNoChunk is returned when no region with the requested tag is large
// enough.
var ErrNoChunk = errors.New("memory: no region large enough")

// Config describes the arena.
type Config struct {
	// Size of the arena in bytes.
	Size uint64 `json:"size" yaml:"size"`
	// MaxSplits bounds the number of tagged boundaries.
	MaxSplits int `json:"maxSplits" yaml:"maxSplits"`
}

// DefaultConfig returns a 64MiB arena.
func DefaultConfig() Config {
	return Config{
		Size:      64 << 20,
		MaxSplits: 1024,
	}
}

// Target owns the arena and its tag map.
type Target struct {
	runlevel.Guard
	config  Config
	arena   []byte
	tracker *rangetracker.Tracker
	logger  logrus.FieldLogger
}

var _ runlevel.Module = (*Target)(nil)

// New creates a target with every byte tagged USER_FREE.
func New(config Config, logger logrus.FieldLogger) (*Target, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	tracker, err := rangetracker.New(0, config.Size, rangetracker.UserFree, config.MaxSplits)
	if err != nil {
		return nil, errors.Wrap(err, "memory: failed to create tracker")
	}
	t := &Target{
		config:  config,
		arena:   make([]byte, config.Size),
		tracker: tracker,
		logger:  logger,
	}
	t.Guard.Name = "memory"
	t.Guard.Logger = logger
	return t, nil
}

// ChunkAndTag finds the lowest region tagged prevTag that can hold size bytes
// and retags its first size bytes with newTag. It returns the chunk start.
func (t *Target) ChunkAndTag(size uint64, prevTag, newTag rangetracker.Tag) (uint64, error) {
	if size == 0 {
		return 0, errors.New("memory: empty chunk")
	}
	var cursor rangetracker.Cursor
	found := false
	var best uint64
	for {
		start, end, ok := t.tracker.GetRegionWithTag(prevTag, &cursor)
		if !ok {
			break
		}
		if end-start >= size && (!found || start < best) {
			best, found = start, true
		}
	}
	if !found {
		return 0, errors.Wrapf(ErrNoChunk, "size %d tag %v", size, prevTag)
	}
	if err := t.tracker.SplitRange(best, size, newTag); err != nil {
		return 0, err
	}
	t.logger.WithFields(logrus.Fields{"start": best, "size": size, "tag": newTag.String()}).Debug("chunk tagged")
	return best, nil
}

// Tag marks [start, end) with tag.
func (t *Target) Tag(start, end uint64, tag rangetracker.Tag) error {
	if end <= start {
		return errors.Wrapf(rangetracker.ErrOutOfRange, "tag [0x%x, 0x%x)", start, end)
	}
	return t.tracker.SplitRange(start, end-start, tag)
}

// QueryTag returns the tag and bounds of the region containing addr.
func (t *Target) QueryTag(addr uint64) (rangetracker.Tag, uint64, uint64, error) {
	return t.tracker.GetTag(addr)
}

// Bytes returns the arena slice [start, start+size).
func (t *Target) Bytes(start, size uint64) []byte {
	return t.arena[start : start+size : start+size]
}

// Size returns the arena size.
func (t *Target) Size() uint64 {
	return uint64(len(t.arena))
}

// Tracker exposes the underlying tag map.
func (t *Target) Tracker() *rangetracker.Tracker {
	return t.tracker
}

func (t *Target) Begin(context.Context) error {
	t.Enter(runlevel.Begun)
	return nil
}

func (t *Target) Start(context.Context) error {
	t.Enter(runlevel.Started)
	return nil
}

func (t *Target) Stop(context.Context) error {
	t.Enter(runlevel.Stopped)
	return nil
}

func (t *Target) Finish(context.Context) error {
	t.Enter(runlevel.Finished)
	return nil
}
