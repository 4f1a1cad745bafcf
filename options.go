package nasc

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultMaxDepth bounds how deeply resolutions may nest before the
// injector reports a CircularDependencyError.
const DefaultMaxDepth = 256

// Option is a function that configures an Injector.
type Option func(*Injector) error

// WithLogger sets the logger used for resolution events.
// Events are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Injector) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// WithMetrics registers resolution counters with reg.
// Injectors sharing a registerer share the counters.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(i *Injector) error {
		if reg == nil {
			return fmt.Errorf("registerer cannot be nil")
		}
		m, err := newMetrics(reg)
		if err != nil {
			return err
		}
		i.metrics = m
		return nil
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(i *Injector) error {
		if depth < 1 {
			return fmt.Errorf("max depth must be positive, got %d", depth)
		}
		i.maxDepth = depth
		return nil
	}
}

// WithTracerProvider records a span for every Instantiate and CallMethod.
// Nested resolutions become child spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(i *Injector) error {
		if tp == nil {
			return fmt.Errorf("tracer provider cannot be nil")
		}
		i.tracer = tp.Tracer(tracerName)
		return nil
	}
}
