package audit

import "github.com/okian/pitchcast/pkg/logger"

type config struct {
	buffer  int
	workers int
	logger  logger.Logger
}

// Option applies a configuration option to the Recorder.
type Option func(*config)

// WithBuffer bounds the number of records waiting to be written.
func WithBuffer(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithWorkers sets the number of writer goroutines.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger used for drops and write failures.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
