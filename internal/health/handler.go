// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"time"

	"senya-web-backend/internal/server/respond"
)

// Pinger reports whether the backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the health endpoints.
type Handler struct {
	db Pinger
}

// NewHandler returns a Handler. db may be nil; readiness then only reports
// process liveness.
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

// Root greets callers hitting the bare server address.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Hello, World!"})
}

// Status reports 200 {"status":"healthy"} while the process is serving.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Live always reports 200 while the process is serving.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports 200 when the database answers a ping, 503 otherwise.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"detail": err.Error(),
			})
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
