package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrument returns a middleware that traces every request and records
// request count and duration metrics under the given service name.
func Instrument(serviceName string, m *app.Telemetry) Middleware {
	tracer := m.TracerProvider().Tracer(serviceName)
	meter := m.MeterProvider().Meter(serviceName)

	requests, _ := meter.Int64Counter("http.server.request_count",
		metric.WithDescription("Number of HTTP requests"),
	)
	duration, _ := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				),
			)
			defer span.End()

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(ctx))

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.Int("http.status_code", rec.status),
			)
			requests.Add(ctx, 1, attrs)
			duration.Record(ctx, time.Since(start).Seconds(), attrs)
			span.SetAttributes(attribute.Int("http.status_code", rec.status))
		})
	}
}
