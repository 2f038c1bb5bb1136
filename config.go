package edt

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"gopkg.in/yaml.v3"

	"github.com/viant/edt/policy"
	"github.com/viant/edt/tracing"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from YAML or JSON; fields left out keep their defaults.
type Config struct {
	Domain  policy.Config  `json:"domain" yaml:"domain"`
	Tracing tracing.Config `json:"tracing" yaml:"tracing"`
	Log     LogConfig      `json:"log" yaml:"log"`
}

// LogConfig configures the runtime logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`
	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Domain:  policy.DefaultConfig(),
		Tracing: tracing.Config{Service: "edt", Version: "0.1.0"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return errors.Errorf("log.format %q is not supported", c.Log.Format)
	}
	return c.Domain.Validate()
}

// NewLogger builds a logger from the log settings.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}
	logger := logrus.New()
	logger.SetLevel(level)
	if strings.ToLower(c.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// LoadConfig reads a YAML config from URL over the defaults. Any afs scheme
// works (file, mem, embed, gs, s3); options are passed to the download.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config %v", URL)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config %v", URL)
	}
	if err = config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %v", URL)
	}
	return config, nil
}
