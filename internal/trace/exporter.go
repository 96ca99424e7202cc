package trace

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/wellspring-ai/wellspring/internal/model"
)

// OTELExporter replays finished runs as OpenTelemetry spans through the
// global tracer provider. When no OTLP endpoint is configured the provider
// is a no-op, so export costs nothing.
//
// Runs are replayed with their recorded timestamps: the run becomes the
// root span and each stored span becomes a child, so the collector sees
// the same causal order the store recorded.
type OTELExporter struct {
	tracer oteltrace.Tracer
}

// NewOTELExporter creates an exporter bound to the global tracer provider.
// Call after telemetry.Init.
func NewOTELExporter() *OTELExporter {
	return &OTELExporter{tracer: otel.Tracer("wellspring/trace")}
}

// ExportRun emits one root span for the run and one child span per stored
// span.
func (e *OTELExporter) ExportRun(ctx context.Context, run model.Run) error {
	end := time.Now().UTC()
	if run.EndTime != nil {
		end = *run.EndTime
	}

	ctx, root := e.tracer.Start(ctx, "run",
		oteltrace.WithTimestamp(run.StartTime),
		oteltrace.WithAttributes(
			attribute.String("wellspring.run_id", run.ID),
			attribute.String("wellspring.run_status", string(run.Status)),
			attribute.String("wellspring.run_type", metadataType(run.Metadata)),
			attribute.Int("wellspring.span_count", len(run.Spans)),
		),
	)
	if run.Status == model.RunStatusFailed {
		root.SetStatus(codes.Error, "run failed")
	}

	for _, span := range run.Spans {
		_, child := e.tracer.Start(ctx, span.Name,
			oteltrace.WithTimestamp(span.StartTime),
			oteltrace.WithAttributes(
				attribute.String("wellspring.input", compactJSON(span.Input)),
				attribute.String("wellspring.output", compactJSON(span.Output)),
				attribute.String("wellspring.metadata", compactJSON(span.Metadata)),
			),
		)
		child.End(oteltrace.WithTimestamp(spanEnd(span)))
	}

	root.End(oteltrace.WithTimestamp(end))
	return nil
}

// spanEnd derives a span end time from the duration_ms metadata field when
// present; stored spans carry no end time of their own.
func spanEnd(span model.Span) time.Time {
	if span.Metadata != nil {
		switch v := span.Metadata["duration_ms"].(type) {
		case int64:
			return span.StartTime.Add(time.Duration(v) * time.Millisecond)
		case int:
			return span.StartTime.Add(time.Duration(v) * time.Millisecond)
		case float64:
			return span.StartTime.Add(time.Duration(v) * time.Millisecond)
		}
	}
	return span.StartTime
}

// compactJSON renders a bag as a single attribute value. Attribute payloads
// are for operator debugging, not round-tripping, so marshal errors
// degrade to an empty object.
func compactJSON(bag map[string]any) string {
	if len(bag) == 0 {
		return "{}"
	}
	b, err := json.Marshal(bag)
	if err != nil {
		return "{}"
	}
	return string(b)
}
