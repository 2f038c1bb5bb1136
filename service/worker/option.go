package worker

import "github.com/sirupsen/logrus"

// Option configures the Service.
type Option func(*Service)

// WithConfig sets the worker configuration.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithFirstID sets the id of the first worker.
func WithFirstID(id int) Option {
	return func(s *Service) {
		s.firstID = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}
