package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans around engine operations. The interface is deliberately
// small so a no-op implementation can be the default.
type Tracer interface {
	// StartSpan starts a new span with the given name and attributes.
	// Returns a context containing the span and a function to end the span.
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, SpanEnder)
}

// SpanEnder is a function that ends a span.
// Call with nil error for success, or pass an error to mark the span as failed.
type SpanEnder func(err error)

// NoopTracer is a tracer that does nothing. It is the default when tracing is
// not configured.
type NoopTracer struct{}

// StartSpan returns the context unchanged and a no-op end function.
func (NoopTracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, SpanEnder) {
	return ctx, func(err error) {}
}

// OTelTracer adapts OpenTelemetry tracing to the observe.Tracer interface.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates an OpenTelemetry tracer using the global provider.
func NewOTelTracer(serviceName string) *OTelTracer {
	if serviceName == "" {
		serviceName = "sealbox"
	}
	return &OTelTracer{tracer: otel.Tracer(serviceName)}
}

// StartSpan starts an OpenTelemetry span.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, SpanEnder) {
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindInternal),
	}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}

	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// Standard span names for sealbox operations.
const (
	SpanEncrypt      = "sealbox.encrypt"
	SpanDecrypt      = "sealbox.decrypt"
	SpanDeriveKey    = "sealbox.derive_key"
	SpanEncryptFile  = "sealbox.encrypt_file"
	SpanDecryptFile  = "sealbox.decrypt_file"
	SpanPeekMetadata = "sealbox.peek_metadata"
)

// AttrAlgorithm builds the span attribute naming the selected cipher suite.
// Key material and passwords are never recorded as attributes.
func AttrAlgorithm(id string) attribute.KeyValue {
	return attribute.String("sealbox.algorithm", id)
}
