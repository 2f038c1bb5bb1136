package worker

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/guid"
)

// Config represents worker pool configuration.
type Config struct {
	// Count is the number of worker goroutines.
	Count int `json:"count" yaml:"count"`
	// IdleSpins is how many empty takes a worker yields through before it
	// starts sleeping.
	IdleSpins int `json:"idleSpins" yaml:"idleSpins"`
	// IdleSleep is the pause between empty takes once spinning is exhausted.
	IdleSleep time.Duration `json:"idleSleep" yaml:"idleSleep"`
}

// DefaultConfig returns one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Count:     runtime.NumCPU(),
		IdleSpins: 64,
		IdleSleep: 200 * time.Microsecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Count < 1 {
		return errors.Errorf("workers.count must be >= 1, got %d", c.Count)
	}
	if c.IdleSpins < 0 || c.IdleSleep < 0 {
		return errors.New("workers.idleSpins and workers.idleSleep must not be negative")
	}
	return nil
}

// Domain is what a worker runs against.
type Domain interface {
	// Take returns the next handle for worker.
	Take(ctx context.Context, worker int) (guid.GUID, bool)
	// Execute runs the object named by g on worker.
	Execute(ctx context.Context, worker int, g guid.GUID) error
}

// Service runs a fixed pool of workers.
type Service struct {
	runlevel.Guard
	config   Config
	firstID  int
	domain   Domain
	metrics  *Metrics
	logger   logrus.FieldLogger
	workers  []*worker
	workerWg sync.WaitGroup
}

var _ runlevel.Module = (*Service)(nil)

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// New creates a worker pool over domain.
func New(domain Domain, options ...Option) (*Service, error) {
	if domain == nil {
		return nil, errors.New("worker domain is required")
	}
	s := &Service{config: DefaultConfig(), domain: domain}
	for _, opt := range options {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.Guard.Name = "worker"
	s.Guard.Logger = s.logger
	return s, nil
}

// IDs returns the worker ids, in order.
func (s *Service) IDs() []int {
	ids := make([]int, s.config.Count)
	for i := range ids {
		ids[i] = s.firstID + i
	}
	return ids
}

func (s *Service) Begin(context.Context) error {
	s.Enter(runlevel.Begun)
	return nil
}

// Start launches the worker goroutines. Only Stop ends them; cancelling ctx
// does not.
func (s *Service) Start(ctx context.Context) error {
	if !s.Enter(runlevel.Started) {
		return nil
	}
	base := context.WithoutCancel(ctx)
	for _, id := range s.IDs() {
		workerCtx, cancel := context.WithCancel(base)
		w := &worker{
			id:       id,
			service:  s,
			ctx:      workerCtx,
			cancelFn: cancel,
		}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	s.logger.WithField("workers", len(s.workers)).Info("workers started")
	return nil
}

// Stop asks every worker to exit and waits. A task already executing runs to
// completion.
func (s *Service) Stop(context.Context) error {
	if !s.Enter(runlevel.Stopped) {
		return nil
	}
	for _, w := range s.workers {
		w.cancelFn()
	}
	s.workerWg.Wait()
	s.logger.Info("workers stopped")
	return nil
}

func (s *Service) Finish(context.Context) error {
	if s.Enter(runlevel.Finished) {
		s.workers = nil
	}
	return nil
}

// run is the fetch/execute loop.
func (w *worker) run() {
	defer w.service.workerWg.Done()
	logger := w.service.logger.WithField("worker", w.id)
	idle := 0
	for {
		if w.ctx.Err() != nil {
			return
		}
		g, ok := w.service.domain.Take(w.ctx, w.id)
		if !ok {
			idle++
			w.service.metrics.Idle.Inc(1)
			if idle <= w.service.config.IdleSpins {
				runtime.Gosched()
				continue
			}
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(w.service.config.IdleSleep):
			}
			continue
		}
		idle = 0
		if err := w.service.domain.Execute(context.WithoutCancel(w.ctx), w.id, g); err != nil {
			w.service.metrics.Failed.Inc(1)
			logger.WithError(err).WithField("guid", g.String()).Warn("failed to execute")
			continue
		}
		w.service.metrics.Executed.Inc(1)
	}
}
