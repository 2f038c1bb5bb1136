package guid

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/viant/edt/model/runlevel"
)

var (
	// ErrNotFound is returned when a handle does not resolve.
	ErrNotFound = errors.New("guid: not found")
	// ErrKindMismatch is returned when a handle resolves to another kind.
	ErrKindMismatch = errors.New("guid: kind mismatch")
)

// Resolver maps handles back to objects.
type Resolver interface {
	Resolve(g GUID) (interface{}, bool)
}

// Provider is a map-backed naming service. It is safe for concurrent use.
type Provider struct {
	runlevel.Guard
	mu      sync.RWMutex
	records map[GUID]interface{}
	next    atomic.Uint64
}

var _ Resolver = (*Provider)(nil)
var _ runlevel.Module = (*Provider)(nil)

// NewProvider creates an empty provider.
func NewProvider(logger logrus.FieldLogger) *Provider {
	p := &Provider{records: make(map[GUID]interface{})}
	p.Guard.Name = "guid"
	p.Guard.Logger = logger
	return p
}

// Register names v with a fresh handle of the given kind.
func (p *Provider) Register(kind Kind, v interface{}) GUID {
	g := New(p.next.Inc(), kind)
	p.mu.Lock()
	p.records[g] = v
	p.mu.Unlock()
	return g
}

// Resolve returns the object named by g.
func (p *Provider) Resolve(g GUID) (interface{}, bool) {
	if g == Null {
		return nil, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.records[g]
	return v, ok
}

// Release forgets g. Releasing an unknown handle returns ErrNotFound.
func (p *Provider) Release(g GUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.records[g]; !ok {
		return errors.Wrapf(ErrNotFound, "release %v", g)
	}
	delete(p.records, g)
	return nil
}

// Len returns the number of live handles.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}

// Lookup resolves g and asserts its type.
func Lookup[T any](r Resolver, g GUID) (T, error) {
	var zero T
	v, ok := r.Resolve(g)
	if !ok {
		return zero, errors.Wrapf(ErrNotFound, "resolve %v", g)
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Wrapf(ErrKindMismatch, "resolve %v", g)
	}
	return t, nil
}

func (p *Provider) Begin(context.Context) error {
	p.Enter(runlevel.Begun)
	return nil
}

func (p *Provider) Start(context.Context) error {
	p.Enter(runlevel.Started)
	return nil
}

func (p *Provider) Stop(context.Context) error {
	p.Enter(runlevel.Stopped)
	return nil
}

// Finish drops every remaining record.
func (p *Provider) Finish(context.Context) error {
	if !p.Enter(runlevel.Finished) {
		return nil
	}
	p.mu.Lock()
	p.records = make(map[GUID]interface{})
	p.mu.Unlock()
	return nil
}
