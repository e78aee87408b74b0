package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/felixgeelhaar/scopeplan"

// StartCommandSpan creates a span for a CLI command execution.
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "analyze")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer(instrumentation+"/cmd").Start(ctx, "command."+cmdName)
	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)
	return ctx, span
}

// StartAnalysisSpan creates a span for one impact analysis run
func StartAnalysisSpan(ctx context.Context, runID, target, scope, action string) (context.Context, trace.Span) {
	return GetTracerProvider().Tracer(instrumentation+"/scope").Start(ctx, "Analyzer.AnalyzeImpact",
		trace.WithAttributes(
			attribute.String("scopeplan.run_id", runID),
			attribute.String("scopeplan.target", target),
			attribute.String("scopeplan.scope", scope),
			attribute.String("scopeplan.action", action),
		),
	)
}

// RecordSuccess sets result attributes and marks the span successful
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records err on the span and sets error status. A nil error is
// ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("error", true))
}

// RecordDuration stores a duration attribute in milliseconds
func RecordDuration(span trace.Span, name string, duration time.Duration) {
	span.SetAttributes(attribute.Int64(name+"_ms", duration.Milliseconds()))
}
