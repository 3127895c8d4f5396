package observability

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-rest-errors/internal/fault"
)

// RecordFault adds a "fault" event to the span in ctx with the fault kind,
// the response status and whether the event was acknowledged. Server errors
// also set the span status to Error. Non-recording spans are left alone.
func RecordFault(ctx context.Context, evt *fault.Event, status int) {
	span := trace.SpanFromContext(ctx)
	if evt == nil || !span.IsRecording() {
		return
	}

	span.AddEvent("fault", trace.WithAttributes(
		attribute.String("fault.kind", evt.Kind.String()),
		attribute.Int("http.response.status_code", status),
		attribute.Bool("fault.handled", evt.Handled()),
	))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, evt.Message())
	}
}
