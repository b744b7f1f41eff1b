package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"senya-web-backend/internal/telemetry"
	"senya-web-backend/internal/telemetry/domain"
	"senya-web-backend/internal/telemetry/producer"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// Telemetry returns middleware that traces each request and emits a telemetry
// event after it completes. Best-effort: emit failures are logged and do not
// fail the request. If p is nil no events are emitted; the span is still
// recorded. skipPaths lists paths to not emit (e.g. health probes).
func Telemetry(p producer.Producer, tracer trace.Tracer, skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := r.Context()
			var span trace.Span
			if tracer != nil {
				ctx, span = tracer.Start(ctx, r.Method+" "+r.URL.Path)
				defer span.End()
			}
			// The auth layer runs below this middleware; the recorder carries
			// the subject id back up once verification has happened.
			ctx, rec := withUserIDRecorder(ctx)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if span != nil {
				span.SetAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
					attribute.Int("http.status_code", ww.Status()),
				)
			}

			if p == nil || skipPaths[r.URL.Path] {
				return
			}

			meta := httpRequestMetadata{
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: ww.Status(),
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   r.RemoteAddr,
			}
			metaJSON, _ := json.Marshal(meta)
			event := &domain.Event{
				ID:        uuid.New().String(),
				UserID:    rec.id,
				EventType: "http_request",
				Source:    "http_middleware",
				Metadata:  metaJSON,
				CreatedAt: time.Now().UTC(),
			}
			telemetry.EmitAsync(p, ctx, event)
		})
	}
}
