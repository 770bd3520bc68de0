package bridge

import (
	"context"

	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startCallSpan starts a span around one bridge call, following the
// teacher's internal/executor/tracing.go pattern of a package-level
// tracer obtained through agentkit/telemetry.GetTracer().
func startCallSpan(ctx context.Context, op Opcode, name string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "bridge."+name)
	if op != "" {
		span.SetAttributes(attribute.String("bridge.opcode", string(op)))
	}
	return ctx, span
}

func endCallSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
