// Package telemetry provides best-effort event emission for the request
// telemetry pipeline (Kafka in, Loki out via the worker).
package telemetry

import (
	"context"

	"senya-web-backend/internal/telemetry/domain"
)

// EventEmitter emits telemetry events. Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}
