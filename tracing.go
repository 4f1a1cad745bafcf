package nasc

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/toutaio/toutago-nasc-resolver"

// startSpan opens a span as a child of the resolution in progress and makes
// it the parent of nested resolutions until the returned func is called.
// Callers defer the returned func so a recovered panic still restores the
// parent.
func (i *Injector) startSpan(name string, attrs ...attribute.KeyValue) func(err error) {
	parent := i.spanCtx
	ctx, span := i.tracer.Start(parent, name, trace.WithAttributes(attrs...))
	i.spanCtx = ctx

	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		i.spanCtx = parent
	}
}
