package internal

import (
	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
)

// ExtractTraceID pulls the jaeger trace id off a request span so that error
// responses can hand the caller something to quote when contacting support.
// Returns false for spans that did not originate from the jaeger tracer.
func ExtractTraceID(span opentracing.Span) (string, bool) {
	spanContext, ok := span.Context().(jaeger.SpanContext)
	if !ok {
		return "", false
	}
	return spanContext.TraceID().String(), true
}
